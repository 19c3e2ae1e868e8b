package gorm

import (
	"context"
	"errors"

	"github.com/alchemorsel/recipes/internal/domain/weekplan"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"gorm.io/gorm"
)

// WeekplanRepository implements the weekplan repository interface using GORM
type WeekplanRepository struct {
	db *gorm.DB
}

// NewWeekplanRepository creates a new weekplan repository
func NewWeekplanRepository(db *gorm.DB) outbound.WeekplanRepository {
	return &WeekplanRepository{db: db}
}

// Create plans a new entry
func (r *WeekplanRepository) Create(ctx context.Context, entry *weekplan.Entry) error {
	model := WeekplanToModel(entry)
	if err := conn(ctx, r.db).Create(model).Error; err != nil {
		return err
	}
	entry.ID = model.ID
	return nil
}

// Update stores the recipe and portions of an entry
func (r *WeekplanRepository) Update(ctx context.Context, entry *weekplan.Entry) error {
	model := WeekplanToModel(entry)
	return conn(ctx, r.db).Model(&WeekplanModel{ID: model.ID}).
		Select("RecipeID", "Portions", "UpdatedAt").
		Updates(model).Error
}

// Delete removes an entry
func (r *WeekplanRepository) Delete(ctx context.Context, id int64) error {
	return conn(ctx, r.db).Delete(&WeekplanModel{}, id).Error
}

// FindByID finds an entry by ID
func (r *WeekplanRepository) FindByID(ctx context.Context, id int64) (*weekplan.Entry, error) {
	var model WeekplanModel
	if err := conn(ctx, r.db).Take(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ModelToWeekplan(&model), nil
}

// ListWeek lists the user's entries of the week by date, then ID
func (r *WeekplanRepository) ListWeek(ctx context.Context, userID int64, week weekplan.Week) ([]*weekplan.Entry, error) {
	var models []WeekplanModel
	err := conn(ctx, r.db).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, week.Start, week.End()).
		Order("date, id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*weekplan.Entry, 0, len(models))
	for i := range models {
		entries = append(entries, ModelToWeekplan(&models[i]))
	}
	return entries, nil
}
