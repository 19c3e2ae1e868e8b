package inbound

import (
	"context"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/ingredient"
	"github.com/alchemorsel/recipes/internal/domain/user"
)

// IngredientService defines the use cases for ingredients and their units
type IngredientService interface {
	ListIngredients(ctx context.Context, actor *user.User, query ListQuery) ([]*IngredientDTO, error)
	CountIngredients(ctx context.Context, actor *user.User, query ListQuery) (int64, error)
	GetIngredient(ctx context.Context, actor *user.User, id int64) (*IngredientDTO, error)
	CreateIngredient(ctx context.Context, actor *user.User, cmd IngredientCommand) (*IngredientDTO, error)
	UpdateIngredient(ctx context.Context, actor *user.User, id int64, cmd IngredientCommand) (*IngredientDTO, error)
	DeleteIngredient(ctx context.Context, actor *user.User, id int64) error

	ListUnits(ctx context.Context, actor *user.User, ingredientID int64) ([]*UnitDTO, error)
	CreateUnit(ctx context.Context, actor *user.User, ingredientID int64, cmd UnitCommand) (*UnitDTO, error)
	UpdateUnit(ctx context.Context, actor *user.User, id int64, cmd UnitCommand) (*UnitDTO, error)
	DeleteUnit(ctx context.Context, actor *user.User, id int64) error
}

// TagService defines the use cases for tags
type TagService interface {
	ListTags(ctx context.Context, actor *user.User, query ListQuery) ([]*TagDTO, error)
	CountTags(ctx context.Context, actor *user.User, query ListQuery) (int64, error)
	GetTag(ctx context.Context, actor *user.User, id int64) (*TagDTO, error)
	CreateTag(ctx context.Context, actor *user.User, cmd TagCommand) (*TagDTO, error)
	UpdateTag(ctx context.Context, actor *user.User, id int64, cmd TagCommand) (*TagDTO, error)
	DeleteTag(ctx context.Context, actor *user.User, id int64) error
}

// ListQuery is a searched, paginated listing
type ListQuery struct {
	Search string
	PaginationParams
}

// IngredientCommand contains data for creating or updating an ingredient
type IngredientCommand struct {
	Name      string  `json:"name" validate:"required,max=255"`
	Reference string  `json:"reference" validate:"required,oneof=g ml"`
	Carbs     float64 `json:"carbs" validate:"gte=0"`
	Fat       float64 `json:"fat" validate:"gte=0"`
	Proteins  float64 `json:"proteins" validate:"gte=0"`
	Alc       float64 `json:"alc" validate:"gte=0"`
}

// UnitCommand contains data for creating or updating a unit
type UnitCommand struct {
	Identifier string  `json:"identifier" validate:"required,oneof=pcs tbsp tsp skosh pinch"`
	BaseValue  float64 `json:"base_value" validate:"gt=0"`
}

// TagCommand contains data for creating or renaming a tag
type TagCommand struct {
	Name string `json:"name" validate:"required,max=255"`
}

// IngredientDTO represents an ingredient with its macro profile
type IngredientDTO struct {
	ID        int64                `json:"id"`
	Name      string               `json:"name"`
	Reference ingredient.Reference `json:"reference"`
	Carbs     float64              `json:"carbs"`
	Fat       float64              `json:"fat"`
	Proteins  float64              `json:"proteins"`
	Alc       float64              `json:"alc"`
	Units     []*UnitDTO           `json:"units,omitempty"`
	CreatedAt time.Time            `json:"inserted_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// UnitDTO represents a custom ingredient unit
type UnitDTO struct {
	ID           int64                     `json:"id"`
	IngredientID int64                     `json:"ingredient_id"`
	Identifier   ingredient.UnitIdentifier `json:"identifier"`
	DisplayName  string                    `json:"display_name"`
	BaseValue    float64                   `json:"base_value"`
}

// TagDTO represents a tag
type TagDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
