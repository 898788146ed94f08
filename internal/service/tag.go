package service

import (
	"context"
	"fmt"

	"github.com/sakif/conduit/internal/repository"
)

type TagService struct {
	tags repository.TagRepository
}

func NewTagService(tags repository.TagRepository) *TagService {
	return &TagService{tags: tags}
}

// List returns all tags in use, sorted.
func (s *TagService) List(ctx context.Context) ([]string, error) {
	tags, err := s.tags.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: listing tags: %w", err)
	}
	return tags, nil
}
