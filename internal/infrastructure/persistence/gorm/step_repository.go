package gorm

import (
	"context"
	"errors"

	"github.com/alchemorsel/recipes/internal/domain/step"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StepRepository implements the step repository interface using GORM
type StepRepository struct {
	db *gorm.DB
}

// NewStepRepository creates a new step repository
func NewStepRepository(db *gorm.DB) outbound.StepRepository {
	return &StepRepository{db: db}
}

// Create creates a step together with its ingredient usages
func (r *StepRepository) Create(ctx context.Context, entity *step.Step) error {
	model := StepToModel(entity)

	return atomically(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		entity.ID = model.ID

		return saveUsages(tx, entity)
	})
}

// Update stores the step attributes and usages and drops removed usages
func (r *StepRepository) Update(ctx context.Context, entity *step.Step, removedIngredients []int64) error {
	model := StepToModel(entity)
	model.Ingredients = nil

	return atomically(ctx, r.db, func(tx *gorm.DB) error {
		if len(removedIngredients) > 0 {
			err := tx.Where("step_id = ? AND id IN ?", entity.ID, removedIngredients).
				Delete(&StepIngredientModel{}).Error
			if err != nil {
				return err
			}
		}

		err := tx.Model(&StepModel{ID: model.ID}).
			Select("Position", "Description", "PreparationTime", "CookingTime", "UpdatedAt").
			Updates(model).Error
		if err != nil {
			return err
		}

		return saveUsages(tx, entity)
	})
}

// Delete deletes a step and its usages
func (r *StepRepository) Delete(ctx context.Context, id int64) error {
	return atomically(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("step_id = ?", id).Delete(&StepIngredientModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&StepModel{}, id).Error
	})
}

// FindByID finds a step by ID
func (r *StepRepository) FindByID(ctx context.Context, id int64) (*step.Step, error) {
	return r.first(withUsages(conn(ctx, r.db)).Where("id = ?", id))
}

// ListByRecipe lists the steps of a recipe by position
func (r *StepRepository) ListByRecipe(ctx context.Context, recipeID int64) ([]*step.Step, error) {
	var models []StepModel

	err := withUsages(conn(ctx, r.db)).
		Where("recipe_id = ?", recipeID).
		Order("position, id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	steps := make([]*step.Step, 0, len(models))
	for i := range models {
		steps = append(steps, ModelToStep(&models[i]))
	}
	return steps, nil
}

// CountByRecipe counts the steps of a recipe
func (r *StepRepository) CountByRecipe(ctx context.Context, recipeID int64) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&StepModel{}).Where("recipe_id = ?", recipeID).Count(&count).Error
	return count, err
}

// Previous returns the step right before position
func (r *StepRepository) Previous(ctx context.Context, recipeID int64, position int) (*step.Step, error) {
	return r.first(withUsages(conn(ctx, r.db)).
		Where("recipe_id = ? AND position < ?", recipeID, position).
		Order("position DESC, id DESC"))
}

// Next returns the step right after position
func (r *StepRepository) Next(ctx context.Context, recipeID int64, position int) (*step.Step, error) {
	return r.first(withUsages(conn(ctx, r.db)).
		Where("recipe_id = ? AND position > ?", recipeID, position).
		Order("position, id"))
}

// SavePositions stores the positions of the given steps
func (r *StepRepository) SavePositions(ctx context.Context, steps []*step.Step) error {
	return atomically(ctx, r.db, func(tx *gorm.DB) error {
		for _, s := range steps {
			err := tx.Model(&StepModel{ID: s.ID}).
				Updates(map[string]interface{}{"position": s.Position, "updated_at": s.UpdatedAt}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *StepRepository) first(query *gorm.DB) (*step.Step, error) {
	var model StepModel
	if err := query.Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ModelToStep(&model), nil
}

func withUsages(db *gorm.DB) *gorm.DB {
	return db.Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

// saveUsages inserts new usages and updates stored ones, writing the
// generated IDs back to entity
func saveUsages(tx *gorm.DB, entity *step.Step) error {
	for i, in := range entity.Ingredients {
		model := StepIngredientToModel(entity.ID, in)
		if in.ID == nil {
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
			id := model.ID
			entity.Ingredients[i].ID = &id
			entity.Ingredients[i].StepID = entity.ID
			continue
		}

		err := tx.Model(&StepIngredientModel{ID: model.ID}).
			Where("step_id = ?", entity.ID).
			Select("IngredientID", "Amount", "UnitID", "Annotation").
			Updates(&model).Error
		if err != nil {
			return err
		}
	}
	return nil
}
