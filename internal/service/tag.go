package service

import (
	"context"

	"github.com/pkordes/office-listings/backend/internal/domain"
	"github.com/pkordes/office-listings/backend/internal/repo"
)

// TagService exposes the tag vocabulary hosts pick from.
type TagService struct {
	tags repo.TagRepo
}

// NewTagService constructs a TagService backed by the provided TagRepo.
func NewTagService(tags repo.TagRepo) *TagService {
	return &TagService{tags: tags}
}

// List returns every tag ordered by id.
func (s *TagService) List(ctx context.Context) ([]domain.Tag, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, storageErr("service.TagService.List", err)
	}
	return tags, nil
}
