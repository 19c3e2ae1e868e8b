package gorm

import (
	"context"
	"errors"

	"github.com/alchemorsel/recipes/internal/domain/tag"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository implements the tag repository interface using GORM
type TagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) outbound.TagRepository {
	return &TagRepository{db: db}
}

// Create creates a new tag
func (r *TagRepository) Create(ctx context.Context, entity *tag.Tag) error {
	model := TagToModel(entity)
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(model).Error; err != nil {
		return err
	}
	entity.ID = model.ID
	return nil
}

// Update renames a tag
func (r *TagRepository) Update(ctx context.Context, entity *tag.Tag) error {
	model := TagToModel(entity)
	return conn(ctx, r.db).Model(&TagModel{ID: model.ID}).
		Select("Name", "UpdatedAt").
		Updates(model).Error
}

// Delete deletes a tag and detaches it from recipes
func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	return conn(ctx, r.db).Delete(&TagModel{}, id).Error
}

// FindByID finds a tag by ID
func (r *TagRepository) FindByID(ctx context.Context, id int64) (*tag.Tag, error) {
	return r.take(conn(ctx, r.db).Where("id = ?", id))
}

// FindByName finds a tag by its normalized name
func (r *TagRepository) FindByName(ctx context.Context, name string) (*tag.Tag, error) {
	return r.take(conn(ctx, r.db).Where("name = ?", name))
}

// FindByIDs loads the given tags ordered by name
func (r *TagRepository) FindByIDs(ctx context.Context, ids []int64) ([]*tag.Tag, error) {
	if len(ids) == 0 {
		return []*tag.Tag{}, nil
	}
	var models []TagModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	return toTags(models), nil
}

// List lists tags by name
func (r *TagRepository) List(ctx context.Context, filter outbound.ListFilter) ([]*tag.Tag, error) {
	var models []TagModel
	err := paged(searchName(conn(ctx, r.db), "name", filter.Search), filter).
		Order("name").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toTags(models), nil
}

// Count counts tags matching the search
func (r *TagRepository) Count(ctx context.Context, filter outbound.ListFilter) (int64, error) {
	var count int64
	err := searchName(conn(ctx, r.db).Model(&TagModel{}), "name", filter.Search).Count(&count).Error
	return count, err
}

func (r *TagRepository) take(query *gorm.DB) (*tag.Tag, error) {
	var model TagModel
	if err := query.Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ModelToTag(&model), nil
}

func toTags(models []TagModel) []*tag.Tag {
	tags := make([]*tag.Tag, 0, len(models))
	for i := range models {
		tags = append(tags, ModelToTag(&models[i]))
	}
	return tags
}
