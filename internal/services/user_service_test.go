package services_test

import (
	"context"
	"errors"
	"testing"

	"foodgram/internal/models"
	"foodgram/internal/repositories"
	"foodgram/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserService_ListUsers(t *testing.T) {
	users := new(MockUserRepository)
	follows := new(MockFollowRepository)
	svc := services.NewUserService(users, follows, new(MockStorage))
	page := repositories.Pagination{Page: 1}

	users.On("List", mock.Anything, page).
		Return([]models.User{{ID: 1, Username: "me"}, {ID: 2, Username: "chef"}}, int64(2), nil)
	follows.On("BatchIsFollowing", mock.Anything, uint(1), []uint{1, 2}).Return(map[uint]bool{2: true}, nil).Once()

	views, total, err := svc.ListUsers(context.Background(), &services.Identity{UserID: 1}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.False(t, views[0].IsSubscribed)
	assert.True(t, views[1].IsSubscribed)

	views, _, err = svc.ListUsers(context.Background(), nil, page)
	require.NoError(t, err)
	assert.False(t, views[1].IsSubscribed)
	follows.AssertNumberOfCalls(t, "BatchIsFollowing", 1)
}

func TestUserService_GetUser(t *testing.T) {
	users := new(MockUserRepository)
	svc := services.NewUserService(users, new(MockFollowRepository), new(MockStorage))

	users.On("GetByID", mock.Anything, uint(5)).Return(nil, repositories.ErrNotFound).Once()
	_, err := svc.GetUser(context.Background(), nil, 5)
	assert.ErrorIs(t, err, services.ErrNotFound)

	users.On("GetByID", mock.Anything, uint(2)).Return(&models.User{ID: 2, Email: "chef@example.com"}, nil).Once()
	view, err := svc.GetUser(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Equal(t, "chef@example.com", view.Email)
}

func TestUserService_DeleteUser(t *testing.T) {
	users := new(MockUserRepository)
	images := new(MockStorage)
	svc := services.NewUserService(users, new(MockFollowRepository), images)
	ctx := context.Background()
	staff := &services.Identity{UserID: 1, IsStaff: true}

	assert.ErrorIs(t, svc.DeleteUser(ctx, &services.Identity{UserID: 3}, 2), services.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteUser(ctx, staff, 1), services.ErrForbidden)

	users.On("Delete", mock.Anything, uint(2)).Return([]string{"recipes/a.png", "recipes/b.png"}, nil).Once()
	images.On("Delete", mock.Anything, "recipes/a.png").Return(errors.New("bucket unavailable")).Once()
	images.On("Delete", mock.Anything, "recipes/b.png").Return(nil).Once()
	require.NoError(t, svc.DeleteUser(ctx, staff, 2))

	users.On("Delete", mock.Anything, uint(9)).Return(nil, repositories.ErrNotFound).Once()
	assert.ErrorIs(t, svc.DeleteUser(ctx, staff, 9), services.ErrNotFound)
	users.AssertExpectations(t)
	images.AssertExpectations(t)
}
