package inbound

import (
	"context"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/user"
)

// WeekplanService defines the weekly menu use cases. Dates select the ISO
// week that contains them.
type WeekplanService interface {
	ListWeek(ctx context.Context, actor *user.User, week time.Time) ([]*WeekplanDTO, error)
	// AutoFill plans a random recipe for every open day of the week.
	AutoFill(ctx context.Context, actor *user.User, cmd AutoFillCommand) ([]*WeekplanDTO, error)
	GetEntry(ctx context.Context, actor *user.User, id int64) (*WeekplanDTO, error)
	ReplaceRecipe(ctx context.Context, actor *user.User, id int64, tags []string) (*WeekplanDTO, error)
	ReplaceWithRecipe(ctx context.Context, actor *user.User, id, recipeID int64) (*WeekplanDTO, error)
	DeleteEntry(ctx context.Context, actor *user.User, id int64) error
	ShoppingList(ctx context.Context, actor *user.User, week time.Time) ([]ShoppingItemDTO, error)
	BringExport(ctx context.Context, actor *user.User, week time.Time) (*BringExport, error)
}

// AutoFillCommand contains data for filling a week. Days holds ISO weekday
// numbers, 1 for Monday through 7 for Sunday; empty means every day.
type AutoFillCommand struct {
	Week     time.Time `json:"-"`
	Tags     []string  `json:"tags"`
	Portions *int      `json:"portions" validate:"omitempty,gt=0"`
	Days     []int     `json:"days" validate:"omitempty,dive,min=1,max=7"`
}

// WeekplanDTO represents one planned day
type WeekplanDTO struct {
	ID       int64             `json:"id"`
	Date     string            `json:"date"`
	UserID   int64             `json:"user_id"`
	RecipeID int64             `json:"recipe_id"`
	Portions int               `json:"portions"`
	Recipe   *RecipeSummaryDTO `json:"recipe,omitempty"`
}

// ShoppingItemDTO is one consolidated line of a week's shopping list
type ShoppingItemDTO struct {
	IngredientID int64  `json:"ingredient_id"`
	Name         string `json:"name"`
	Spec         string `json:"spec"`
	Annotation   string `json:"annotation,omitempty"`
}
