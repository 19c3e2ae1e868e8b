package gorm

import (
	"context"
	"errors"

	"github.com/alchemorsel/recipes/internal/domain/ingredient"
	"github.com/alchemorsel/recipes/internal/domain/nutrition"
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/shared"
	"github.com/alchemorsel/recipes/internal/domain/weekplan"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// anyTagSubquery matches recipes carrying at least one of the tags
const anyTagSubquery = `id IN (SELECT rt.recipe_id FROM recipes_tags rt
	JOIN tags t ON t.id = rt.tag_id WHERE t.name IN ?)`

// allTagsSubquery matches recipes carrying every one of the tags
const allTagsSubquery = `id IN (SELECT rt.recipe_id FROM recipes_tags rt
	JOIN tags t ON t.id = rt.tag_id WHERE t.name IN ?
	GROUP BY rt.recipe_id HAVING COUNT(DISTINCT t.name) = ?)`

// RecipeRepository implements the recipe repository interface using GORM
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) outbound.RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create creates a new recipe with its tag and fitting links
func (r *RecipeRepository) Create(ctx context.Context, entity *recipe.Recipe) error {
	model := RecipeToModel(entity)

	return atomically(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		entity.AssignID(model.ID)

		if err := syncTags(tx, model.ID, entity.TagIDs()); err != nil {
			return err
		}
		return syncFitting(tx, model.ID, entity.FittingIDs())
	})
}

// Update updates an existing recipe and diffs its links
func (r *RecipeRepository) Update(ctx context.Context, entity *recipe.Recipe) error {
	model := RecipeToModel(entity)

	return atomically(ctx, r.db, func(tx *gorm.DB) error {
		result := tx.Model(&RecipeModel{ID: model.ID}).
			Select("Name", "Description", "DefaultServings", "OwnerID", "Image", "UpdatedAt").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := syncTags(tx, model.ID, entity.TagIDs()); err != nil {
			return err
		}
		return syncFitting(tx, model.ID, entity.FittingIDs())
	})
}

// Delete deletes a recipe. Steps, links and weekplan entries go with it.
func (r *RecipeRepository) Delete(ctx context.Context, id int64) error {
	return atomically(ctx, r.db, func(tx *gorm.DB) error {
		// step ingredients restrict step deletion
		err := tx.Where("step_id IN (?)", tx.Model(&StepModel{}).Select("id").Where("recipe_id = ?", id)).
			Delete(&StepIngredientModel{}).Error
		if err != nil {
			return err
		}
		return tx.Delete(&RecipeModel{}, id).Error
	})
}

// FindByID finds a recipe by ID
func (r *RecipeRepository) FindByID(ctx context.Context, id int64) (*recipe.Recipe, error) {
	var model RecipeModel

	err := r.withLinks(conn(ctx, r.db)).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return ModelToRecipe(&model), nil
}

// FindByIDs loads the given recipes ordered by ID. Unknown IDs are skipped.
func (r *RecipeRepository) FindByIDs(ctx context.Context, ids []int64) ([]*recipe.Recipe, error) {
	if len(ids) == 0 {
		return []*recipe.Recipe{}, nil
	}

	var models []RecipeModel
	err := r.withLinks(conn(ctx, r.db)).Where("id IN ?", ids).Order("id").Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toRecipes(models), nil
}

// List lists recipes matching the filter
func (r *RecipeRepository) List(ctx context.Context, filter outbound.RecipeFilter) ([]*recipe.Recipe, error) {
	var models []RecipeModel

	query := r.withLinks(applyRecipeFilter(conn(ctx, r.db), filter)).Order("id")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return toRecipes(models), nil
}

// Count counts recipes matching the filter, ignoring paging
func (r *RecipeRepository) Count(ctx context.Context, filter outbound.RecipeFilter) (int64, error) {
	var count int64
	err := applyRecipeFilter(conn(ctx, r.db).Model(&RecipeModel{}), filter).Count(&count).Error
	return count, err
}

// RandomCandidate picks a random recipe with all tags that is not planned
// in the user's week
func (r *RecipeRepository) RandomCandidate(ctx context.Context, userID int64, week weekplan.Week, tags []string) (*recipe.Recipe, error) {
	var model RecipeModel

	query := conn(ctx, r.db).
		Where("id NOT IN (SELECT recipe_id FROM weekplans WHERE user_id = ? AND date BETWEEN ? AND ?)",
			userID, week.Start, week.End())
	if len(tags) > 0 {
		query = query.Where(allTagsSubquery, tags, len(tags))
	}

	err := r.withLinks(query).Order("RANDOM()").Limit(1).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ModelToRecipe(&model), nil
}

type usageRow struct {
	RecipeID       int64
	IngredientID   int64
	IngredientName string
	Reference      string
	Carbs          float64
	Fat            float64
	Proteins       float64
	Alcohol        float64
	Amount         *float64
	UnitID         *int64
	Annotation     *string
}

// Usages loads every ingredient usage of the recipes in step order
func (r *RecipeRepository) Usages(ctx context.Context, recipeIDs []int64) (map[int64][]nutrition.Usage, error) {
	usages := make(map[int64][]nutrition.Usage, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return usages, nil
	}

	var rows []usageRow
	err := conn(ctx, r.db).
		Table("step_ingredients AS si").
		Select(`s.recipe_id AS recipe_id, i.id AS ingredient_id, i.name AS ingredient_name,
			i.reference AS reference, i.carbs AS carbs, i.fat AS fat, i.proteins AS proteins,
			i.alcohol AS alcohol, si.amount AS amount, si.unit_id AS unit_id,
			si.annotation AS annotation`).
		Joins("JOIN steps s ON s.id = si.step_id").
		Joins("JOIN ingredients i ON i.id = si.ingredient_id").
		Where("s.recipe_id IN ?", recipeIDs).
		Order("s.recipe_id, s.position, s.id, si.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	table, err := r.conversionTable(ctx, rows)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		usage := nutrition.Usage{
			Ingredient: ingredient.Ingredient{
				ID:        row.IngredientID,
				Name:      row.IngredientName,
				Reference: ingredient.Reference(row.Reference),
				Macros: ingredient.Macros{
					Carbs:    row.Carbs,
					Fat:      row.Fat,
					Proteins: row.Proteins,
					Alcohol:  row.Alcohol,
				},
			},
			Amount:     row.Amount,
			Unit:       table.Lookup(row.UnitID),
			Annotation: deref(row.Annotation),
		}
		usages[row.RecipeID] = append(usages[row.RecipeID], usage)
	}
	return usages, nil
}

// conversionTable loads the unit rows of every ingredient in rows at once
func (r *RecipeRepository) conversionTable(ctx context.Context, rows []usageRow) (nutrition.ConversionTable, error) {
	seen := make(map[int64]bool, len(rows))
	ingredientIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		if row.UnitID != nil && !seen[row.IngredientID] {
			seen[row.IngredientID] = true
			ingredientIDs = append(ingredientIDs, row.IngredientID)
		}
	}
	if len(ingredientIDs) == 0 {
		return nutrition.NewConversionTable(nil), nil
	}

	var models []IngredientUnitModel
	if err := conn(ctx, r.db).Where("ingredient_id IN ?", ingredientIDs).Find(&models).Error; err != nil {
		return nutrition.ConversionTable{}, err
	}

	units := make([]ingredient.Unit, 0, len(models))
	for i := range models {
		units = append(units, *ModelToUnit(&models[i]))
	}
	return nutrition.NewConversionTable(units), nil
}

// IDsUsingIngredient lists recipes with a step that uses the ingredient
func (r *RecipeRepository) IDsUsingIngredient(ctx context.Context, ingredientID int64) ([]int64, error) {
	var ids []int64
	err := conn(ctx, r.db).
		Table("step_ingredients AS si").
		Joins("JOIN steps s ON s.id = si.step_id").
		Where("si.ingredient_id = ?", ingredientID).
		Distinct("s.recipe_id").
		Order("s.recipe_id").
		Pluck("s.recipe_id", &ids).Error
	return ids, err
}

func (r *RecipeRepository) withLinks(db *gorm.DB) *gorm.DB {
	return db.
		Preload("TagLinks", func(db *gorm.DB) *gorm.DB { return db.Order("tag_id") }).
		Preload("Fitting", func(db *gorm.DB) *gorm.DB { return db.Order("fitting_id") })
}

func applyRecipeFilter(db *gorm.DB, filter outbound.RecipeFilter) *gorm.DB {
	for _, term := range filter.Search {
		db = db.Where("LOWER(name) LIKE ?", "%"+term+"%")
	}
	if len(filter.Tags) > 0 {
		db = db.Where(anyTagSubquery, filter.Tags)
	}
	return db
}

func syncTags(tx *gorm.DB, recipeID int64, desired []int64) error {
	var current []int64
	if err := tx.Model(&RecipeTagModel{}).Where("recipe_id = ?", recipeID).Pluck("tag_id", &current).Error; err != nil {
		return err
	}

	added, removed := shared.DiffIDs(current, desired)
	if len(removed) > 0 {
		if err := tx.Where("recipe_id = ? AND tag_id IN ?", recipeID, removed).Delete(&RecipeTagModel{}).Error; err != nil {
			return err
		}
	}
	if len(added) == 0 {
		return nil
	}
	links := make([]RecipeTagModel, 0, len(added))
	for _, id := range added {
		links = append(links, RecipeTagModel{RecipeID: recipeID, TagID: id})
	}
	return tx.Create(&links).Error
}

func syncFitting(tx *gorm.DB, recipeID int64, desired []int64) error {
	var current []int64
	if err := tx.Model(&FittingModel{}).Where("recipe_id = ?", recipeID).Pluck("fitting_id", &current).Error; err != nil {
		return err
	}

	added, removed := shared.DiffIDs(current, desired)
	if len(removed) > 0 {
		if err := tx.Where("recipe_id = ? AND fitting_id IN ?", recipeID, removed).Delete(&FittingModel{}).Error; err != nil {
			return err
		}
	}
	if len(added) == 0 {
		return nil
	}
	links := make([]FittingModel, 0, len(added))
	for _, id := range added {
		links = append(links, FittingModel{RecipeID: recipeID, FittingID: id})
	}
	return tx.Create(&links).Error
}

func toRecipes(models []RecipeModel) []*recipe.Recipe {
	recipes := make([]*recipe.Recipe, 0, len(models))
	for i := range models {
		recipes = append(recipes, ModelToRecipe(&models[i]))
	}
	return recipes
}
