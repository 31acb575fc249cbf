package services

import (
	"context"
	"fmt"

	"foodgram/internal/models"
	"foodgram/internal/repositories"
)

// TagService handles business logic related to tags.
type TagService struct {
	tags repositories.TagRepository
}

// NewTagService creates a new TagService.
func NewTagService(tags repositories.TagRepository) *TagService {
	return &TagService{tags: tags}
}

// GetAllTags retrieves all tags.
func (s *TagService) GetAllTags(ctx context.Context) ([]models.Tag, error) {
	return s.tags.GetAll(ctx)
}

// GetTagByID retrieves a single tag by its ID.
func (s *TagService) GetTagByID(ctx context.Context, id uint) (*models.Tag, error) {
	return s.tags.GetByID(ctx, id)
}

// CreateTag stores a new tag. Only staff may do this.
func (s *TagService) CreateTag(ctx context.Context, viewer *Identity, tag *models.Tag) error {
	if !CanManageCatalog(viewer) {
		return ErrForbidden
	}
	if err := s.tags.Create(ctx, tag); err != nil {
		return fmt.Errorf("failed to create tag %q: %w", tag.Slug, err)
	}
	return nil
}
