// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"time"

	"github.com/alchemorsel/recipes/internal/domain/ingredient"
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/step"
	"github.com/alchemorsel/recipes/internal/domain/tag"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/brianvoe/gofakeit/v6"
)

// Factory builds domain entities filled with fake but valid data
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory creates a factory with a seeded faker so runs are repeatable
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed)}
}

// User returns a stored active user
func (f *Factory) User(id int64, role user.Role) *user.User {
	now := time.Now().UTC()
	return user.Rehydrate(user.Snapshot{
		ID:        id,
		Email:     f.faker.Email(),
		Name:      f.faker.Name(),
		Active:    true,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Root returns a stored root user
func (f *Factory) Root(id int64) *user.User {
	return f.User(id, user.RoleRoot)
}

// Recipe returns a stored recipe owned by ownerID, or ownerless when ownerID is 0
func (f *Factory) Recipe(id, ownerID int64) *recipe.Recipe {
	now := time.Now().UTC()
	description := f.faker.Sentence(8)
	s := recipe.Snapshot{
		ID:              id,
		Name:            f.faker.Dessert(),
		Description:     &description,
		DefaultServings: f.faker.Number(1, 6),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if ownerID != 0 {
		s.OwnerID = &ownerID
	}
	return recipe.Rehydrate(s)
}

// Ingredient returns a stored ingredient with random macros per 100 g
func (f *Factory) Ingredient(id int64) *ingredient.Ingredient {
	now := time.Now().UTC()
	return &ingredient.Ingredient{
		ID:        id,
		Name:      f.faker.Fruit(),
		Reference: ingredient.ReferenceGrams,
		Macros: ingredient.Macros{
			Carbs:    f.faker.Float64Range(0, 60),
			Fat:      f.faker.Float64Range(0, 30),
			Proteins: f.faker.Float64Range(0, 20),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Unit returns a stored unit of ingredientID
func (f *Factory) Unit(id, ingredientID int64, identifier ingredient.UnitIdentifier, baseValue float64) *ingredient.Unit {
	now := time.Now().UTC()
	return &ingredient.Unit{
		ID:           id,
		IngredientID: ingredientID,
		Identifier:   identifier,
		BaseValue:    baseValue,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Tag returns a stored tag
func (f *Factory) Tag(id int64, name string) *tag.Tag {
	now := time.Now().UTC()
	if name == "" {
		name = f.faker.Adjective()
	}
	return &tag.Tag{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}
}

// Step returns a stored step of recipeID at position
func (f *Factory) Step(id, recipeID int64, position int, ingredients ...step.Ingredient) *step.Step {
	now := time.Now().UTC()
	description := f.faker.Sentence(6)
	return &step.Step{
		ID:              id,
		RecipeID:        recipeID,
		Position:        position,
		Description:     &description,
		PreparationTime: f.faker.Number(0, 30),
		CookingTime:     f.faker.Number(0, 60),
		Ingredients:     ingredients,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
