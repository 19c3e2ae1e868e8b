// Package tag provides the application layer for recipe tags
package tag

import (
	"context"
	"strings"

	"github.com/alchemorsel/recipes/internal/application/authz"
	"github.com/alchemorsel/recipes/internal/domain/tag"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"go.uber.org/zap"
)

var policy = authz.Tags[tag.Tag]

// TagService implements the tag use cases
type TagService struct {
	tagRepo outbound.TagRepository
	logger  *zap.Logger
}

// NewTagService creates a new tag service
func NewTagService(tagRepo outbound.TagRepository, logger *zap.Logger) *TagService {
	return &TagService{
		tagRepo: tagRepo,
		logger:  logger.Named("tag-service"),
	}
}

var _ inbound.TagService = (*TagService)(nil)

// ListTags lists tags ordered by name
func (s *TagService) ListTags(ctx context.Context, actor *user.User, query inbound.ListQuery) ([]*inbound.TagDTO, error) {
	if err := authz.Authorize(policy, authz.ActionList, actor, nil); err != nil {
		return nil, err
	}

	tags, err := s.tagRepo.List(ctx, toFilter(query))
	if err != nil {
		return nil, errors.NewDatabaseError("list tags", err)
	}
	dtos := make([]*inbound.TagDTO, 0, len(tags))
	for _, t := range tags {
		dtos = append(dtos, toDTO(t))
	}
	return dtos, nil
}

// CountTags counts tags matching the search term
func (s *TagService) CountTags(ctx context.Context, actor *user.User, query inbound.ListQuery) (int64, error) {
	if err := authz.Authorize(policy, authz.ActionList, actor, nil); err != nil {
		return 0, err
	}

	count, err := s.tagRepo.Count(ctx, toFilter(query))
	if err != nil {
		return 0, errors.NewDatabaseError("count tags", err)
	}
	return count, nil
}

// GetTag returns a single tag
func (s *TagService) GetTag(ctx context.Context, actor *user.User, id int64) (*inbound.TagDTO, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(policy, authz.ActionGet, actor, entity); err != nil {
		return nil, err
	}
	return toDTO(entity), nil
}

// CreateTag creates a tag. Names are unique after normalization.
func (s *TagService) CreateTag(ctx context.Context, actor *user.User, cmd inbound.TagCommand) (*inbound.TagDTO, error) {
	if err := authz.Authorize(policy, authz.ActionCreate, actor, nil); err != nil {
		return nil, err
	}

	entity, err := tag.NewTag(cmd.Name)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := s.ensureUnique(ctx, entity.Name, 0); err != nil {
		return nil, err
	}
	if err := s.tagRepo.Create(ctx, entity); err != nil {
		return nil, errors.NewDatabaseError("create tag", err)
	}

	s.logger.Info("Tag created", zap.Int64("tag_id", entity.ID), zap.String("name", entity.Name))
	return toDTO(entity), nil
}

// UpdateTag renames a tag
func (s *TagService) UpdateTag(ctx context.Context, actor *user.User, id int64, cmd inbound.TagCommand) (*inbound.TagDTO, error) {
	entity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(policy, authz.ActionUpdate, actor, entity); err != nil {
		return nil, err
	}

	if err := entity.Rename(cmd.Name); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if err := s.ensureUnique(ctx, entity.Name, id); err != nil {
		return nil, err
	}
	if err := s.tagRepo.Update(ctx, entity); err != nil {
		return nil, errors.NewDatabaseError("update tag", err)
	}

	s.logger.Info("Tag renamed", zap.Int64("tag_id", id), zap.String("name", entity.Name))
	return toDTO(entity), nil
}

// DeleteTag removes a tag from every recipe and deletes it
func (s *TagService) DeleteTag(ctx context.Context, actor *user.User, id int64) error {
	entity, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(policy, authz.ActionDelete, actor, entity); err != nil {
		return err
	}

	if err := s.tagRepo.Delete(ctx, id); err != nil {
		return errors.NewDatabaseError("delete tag", err)
	}

	s.logger.Info("Tag deleted", zap.Int64("tag_id", id))
	return nil
}

func (s *TagService) load(ctx context.Context, id int64) (*tag.Tag, error) {
	entity, err := s.tagRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.NewDatabaseError("find tag", err)
	}
	if entity == nil {
		return nil, errors.NewTagNotFoundError(id)
	}
	return entity, nil
}

func (s *TagService) ensureUnique(ctx context.Context, name string, self int64) error {
	existing, err := s.tagRepo.FindByName(ctx, name)
	if err != nil {
		return errors.NewDatabaseError("find tag", err)
	}
	if existing != nil && existing.ID != self {
		return errors.NewTagAlreadyExistsError(name)
	}
	return nil
}

func toFilter(query inbound.ListQuery) outbound.ListFilter {
	page := query.Clamp()
	return outbound.ListFilter{
		Search: strings.ToLower(strings.TrimSpace(query.Search)),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
}

func toDTO(t *tag.Tag) *inbound.TagDTO {
	return &inbound.TagDTO{ID: t.ID, Name: t.Name}
}
