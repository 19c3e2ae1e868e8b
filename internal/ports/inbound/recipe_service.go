// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"io"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/nutrition"
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/user"
)

// Every use case takes the acting user as its first argument after the
// context. A nil actor is an anonymous request.

// RecipeService defines the use cases for recipe management
type RecipeService interface {
	// Commands - operations that modify state
	CreateRecipe(ctx context.Context, actor *user.User, cmd RecipeCommand) (*RecipeDTO, error)
	UpdateRecipe(ctx context.Context, actor *user.User, id int64, cmd RecipeCommand) (*RecipeDTO, error)
	DeleteRecipe(ctx context.Context, actor *user.User, id int64) error
	AttachImage(ctx context.Context, actor *user.User, id int64, filename string, data io.Reader) (*RecipeDTO, error)

	// Queries - operations that read state
	ListRecipes(ctx context.Context, actor *user.User, query RecipeQuery) ([]*RecipeDTO, error)
	CountRecipes(ctx context.Context, actor *user.User, query RecipeQuery) (int64, error)
	GetRecipe(ctx context.Context, actor *user.User, id int64) (*RecipeDTO, error)
	Nutrition(ctx context.Context, actor *user.User, id int64) (*nutrition.Totals, error)
	ShoppingList(ctx context.Context, actor *user.User, id int64, portions float64) (*BringExport, error)
}

// StepService defines the use cases for recipe steps
type StepService interface {
	ListSteps(ctx context.Context, actor *user.User, recipeID int64) ([]*StepDTO, error)
	CountSteps(ctx context.Context, actor *user.User, recipeID int64) (int64, error)
	GetStep(ctx context.Context, actor *user.User, id int64) (*StepDTO, error)
	CreateStep(ctx context.Context, actor *user.User, recipeID int64, cmd StepCommand) (*StepDTO, error)
	UpdateStep(ctx context.Context, actor *user.User, id int64, cmd StepCommand) (*StepDTO, error)
	DeleteStep(ctx context.Context, actor *user.User, id int64) error
	MoveStepUp(ctx context.Context, actor *user.User, id int64) ([]*StepDTO, error)
	MoveStepDown(ctx context.Context, actor *user.User, id int64) ([]*StepDTO, error)
}

// Command objects for operations

// RecipeCommand contains data for creating or updating a recipe
type RecipeCommand struct {
	Name            string  `json:"name" validate:"required,max=255"`
	Description     *string `json:"description" validate:"omitempty,max=12288"`
	DefaultServings int     `json:"default_servings" validate:"gte=0"`
	Tags            []int64 `json:"tags"`
	FittingRecipes  []int64 `json:"fitting_recipes"`
}

// StepCommand contains data for creating or updating a step
type StepCommand struct {
	Position        int                     `json:"position" validate:"gte=0"`
	Description     *string                 `json:"description" validate:"omitempty,max=12288"`
	PreparationTime int                     `json:"preparation_time" validate:"gte=0"`
	CookingTime     int                     `json:"cooking_time" validate:"gte=0"`
	StepIngredients []StepIngredientCommand `json:"step_ingredients" validate:"dive"`
}

// StepIngredientCommand is one ingredient usage of a step. Entries without
// an id are inserted, entries with an id are updated.
type StepIngredientCommand struct {
	ID           *int64   `json:"id"`
	IngredientID int64    `json:"ingredient_id" validate:"required"`
	Amount       *float64 `json:"amount" validate:"omitempty,gte=0"`
	UnitID       *int64   `json:"unit_id"`
	Annotation   *string  `json:"annotation" validate:"omitempty,max=255"`
}

// RecipeQuery filters recipe listings
type RecipeQuery struct {
	Search string
	Tags   []string
	PaginationParams
}

// PaginationParams for paginated queries
type PaginationParams struct {
	Limit  int
	Offset int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Clamp applies the default page size and bounds both values
func (p PaginationParams) Clamp() PaginationParams {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// DTOs - Data Transfer Objects for responses

// RecipeDTO represents a recipe for external consumption
type RecipeDTO struct {
	ID              int64              `json:"id"`
	Name            string             `json:"name"`
	Description     *string            `json:"description"`
	DefaultServings int                `json:"default_servings"`
	OwnerID         *int64             `json:"owner_id"`
	Image           *recipe.ImageURLs  `json:"image"`
	Tags            []TagDTO           `json:"tags"`
	FittingRecipes  []RecipeSummaryDTO `json:"fitting_recipes"`
	CreatedAt       time.Time          `json:"inserted_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// RecipeSummaryDTO is a recipe reference inside another recipe
type RecipeSummaryDTO struct {
	ID    int64             `json:"id"`
	Name  string            `json:"name"`
	Image *recipe.ImageURLs `json:"image"`
}

// StepDTO represents a recipe step
type StepDTO struct {
	ID              int64               `json:"id"`
	RecipeID        int64               `json:"recipe_id"`
	Position        int                 `json:"position"`
	Description     *string             `json:"description"`
	PreparationTime int                 `json:"preparation_time"`
	CookingTime     int                 `json:"cooking_time"`
	StepIngredients []StepIngredientDTO `json:"step_ingredients"`
	CreatedAt       time.Time           `json:"inserted_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// StepIngredientDTO represents an ingredient usage within a step
type StepIngredientDTO struct {
	ID           int64    `json:"id"`
	IngredientID int64    `json:"ingredient_id"`
	Amount       *float64 `json:"amount"`
	UnitID       *int64   `json:"unit_id"`
	Annotation   *string  `json:"annotation"`
}

// BringExport is the shopping-list document consumed by the Bring! app
type BringExport struct {
	Name   string      `json:"name"`
	Author string      `json:"author"`
	Items  []BringItem `json:"items"`
}

// BringItem is one shopping-list line
type BringItem struct {
	ItemID string `json:"itemId"`
	Spec   string `json:"spec"`
}
