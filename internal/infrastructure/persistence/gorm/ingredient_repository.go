package gorm

import (
	"context"
	"errors"

	"github.com/alchemorsel/recipes/internal/domain/ingredient"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IngredientRepository implements the ingredient repository interface using GORM
type IngredientRepository struct {
	db *gorm.DB
}

// NewIngredientRepository creates a new ingredient repository
func NewIngredientRepository(db *gorm.DB) outbound.IngredientRepository {
	return &IngredientRepository{db: db}
}

// Create creates a new ingredient
func (r *IngredientRepository) Create(ctx context.Context, entity *ingredient.Ingredient) error {
	model := IngredientToModel(entity)
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(model).Error; err != nil {
		return err
	}
	entity.ID = model.ID
	return nil
}

// Update updates an existing ingredient
func (r *IngredientRepository) Update(ctx context.Context, entity *ingredient.Ingredient) error {
	model := IngredientToModel(entity)
	return conn(ctx, r.db).Model(&IngredientModel{ID: model.ID}).
		Select("Name", "Reference", "Carbs", "Fat", "Proteins", "Alcohol", "UpdatedAt").
		Updates(model).Error
}

// Delete deletes an ingredient and its units
func (r *IngredientRepository) Delete(ctx context.Context, id int64) error {
	return conn(ctx, r.db).Delete(&IngredientModel{}, id).Error
}

// FindByID finds an ingredient by ID
func (r *IngredientRepository) FindByID(ctx context.Context, id int64) (*ingredient.Ingredient, error) {
	var model IngredientModel
	if err := conn(ctx, r.db).Take(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ModelToIngredient(&model), nil
}

// List lists ingredients by name
func (r *IngredientRepository) List(ctx context.Context, filter outbound.ListFilter) ([]*ingredient.Ingredient, error) {
	var models []IngredientModel
	err := paged(searchName(conn(ctx, r.db), "name", filter.Search), filter).
		Order("name, id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	ingredients := make([]*ingredient.Ingredient, 0, len(models))
	for i := range models {
		ingredients = append(ingredients, ModelToIngredient(&models[i]))
	}
	return ingredients, nil
}

// Count counts ingredients matching the search
func (r *IngredientRepository) Count(ctx context.Context, filter outbound.ListFilter) (int64, error) {
	var count int64
	err := searchName(conn(ctx, r.db).Model(&IngredientModel{}), "name", filter.Search).Count(&count).Error
	return count, err
}

// UnitRepository implements the unit repository interface using GORM
type UnitRepository struct {
	db *gorm.DB
}

// NewUnitRepository creates a new unit repository
func NewUnitRepository(db *gorm.DB) outbound.UnitRepository {
	return &UnitRepository{db: db}
}

// Create creates a new unit
func (r *UnitRepository) Create(ctx context.Context, unit *ingredient.Unit) error {
	model := UnitToModel(unit)
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(model).Error; err != nil {
		return err
	}
	unit.ID = model.ID
	return nil
}

// Update updates an existing unit
func (r *UnitRepository) Update(ctx context.Context, unit *ingredient.Unit) error {
	model := UnitToModel(unit)
	return conn(ctx, r.db).Model(&IngredientUnitModel{ID: model.ID}).
		Select("Identifier", "BaseValue", "UpdatedAt").
		Updates(model).Error
}

// Delete deletes a unit. Step ingredients using it are removed too.
func (r *UnitRepository) Delete(ctx context.Context, id int64) error {
	return conn(ctx, r.db).Delete(&IngredientUnitModel{}, id).Error
}

// FindByID finds a unit by ID
func (r *UnitRepository) FindByID(ctx context.Context, id int64) (*ingredient.Unit, error) {
	var model IngredientUnitModel
	if err := conn(ctx, r.db).Take(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ModelToUnit(&model), nil
}

// ListByIngredient lists the units of an ingredient
func (r *UnitRepository) ListByIngredient(ctx context.Context, ingredientID int64) ([]*ingredient.Unit, error) {
	var models []IngredientUnitModel
	err := conn(ctx, r.db).Where("ingredient_id = ?", ingredientID).Order("id").Find(&models).Error
	if err != nil {
		return nil, err
	}

	units := make([]*ingredient.Unit, 0, len(models))
	for i := range models {
		units = append(units, ModelToUnit(&models[i]))
	}
	return units, nil
}

// searchName adds a lower-case contains match on column
func searchName(db *gorm.DB, column, search string) *gorm.DB {
	if search == "" {
		return db
	}
	return db.Where("LOWER("+column+") LIKE ?", "%"+search+"%")
}

func paged(db *gorm.DB, filter outbound.ListFilter) *gorm.DB {
	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		db = db.Offset(filter.Offset)
	}
	return db
}
