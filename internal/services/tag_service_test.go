package services_test

import (
	"context"
	"testing"

	"foodgram/internal/models"
	"foodgram/internal/repositories"
	"foodgram/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTagService_GetAllTags(t *testing.T) {
	repo := new(MockTagRepository)
	svc := services.NewTagService(repo)
	expected := []models.Tag{{ID: 1, Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"}}
	repo.On("GetAll", mock.Anything).Return(expected, nil).Once()

	tags, err := svc.GetAllTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, expected, tags)
	repo.AssertExpectations(t)
}

func TestTagService_CreateTag(t *testing.T) {
	repo := new(MockTagRepository)
	svc := services.NewTagService(repo)
	tag := &models.Tag{Name: "Dinner", Color: "#8775D2", Slug: "dinner"}

	err := svc.CreateTag(context.Background(), &services.Identity{UserID: 2}, tag)
	assert.ErrorIs(t, err, services.ErrForbidden)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	staff := &services.Identity{UserID: 1, IsStaff: true}
	repo.On("Create", mock.Anything, tag).Return(nil).Once()
	require.NoError(t, svc.CreateTag(context.Background(), staff, tag))

	repo.On("Create", mock.Anything, tag).Return(repositories.ErrDuplicate).Once()
	assert.ErrorIs(t, svc.CreateTag(context.Background(), staff, tag), services.ErrDuplicate)
}
