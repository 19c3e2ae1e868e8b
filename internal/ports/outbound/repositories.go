// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"time"

	"github.com/alchemorsel/recipes/internal/domain/ingredient"
	"github.com/alchemorsel/recipes/internal/domain/nutrition"
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/step"
	"github.com/alchemorsel/recipes/internal/domain/tag"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/domain/weekplan"
)

// Finders return a nil entity and a nil error when nothing matches.

// Transactor runs fn in a database transaction. Repositories called with
// the context handed to fn take part in that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RecipeFilter narrows recipe listings. Search terms are ANDed substring
// matches on the name; Tags match when a recipe carries any of them.
type RecipeFilter struct {
	Search []string
	Tags   []string
	Limit  int
	Offset int
}

// RecipeRepository defines the interface for recipe persistence
type RecipeRepository interface {
	// Create and Update persist tag and fitting associations along with the row.
	Create(ctx context.Context, recipe *recipe.Recipe) error
	Update(ctx context.Context, recipe *recipe.Recipe) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*recipe.Recipe, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*recipe.Recipe, error)

	List(ctx context.Context, filter RecipeFilter) ([]*recipe.Recipe, error)
	Count(ctx context.Context, filter RecipeFilter) (int64, error)

	// RandomCandidate picks a recipe carrying all tags that userID has not
	// planned anywhere in week.
	RandomCandidate(ctx context.Context, userID int64, week weekplan.Week, tags []string) (*recipe.Recipe, error)

	// Usages loads the ingredient usages of each recipe in step order.
	Usages(ctx context.Context, recipeIDs []int64) (map[int64][]nutrition.Usage, error)
	// IDsUsingIngredient lists recipes with a step that uses ingredientID.
	IDsUsingIngredient(ctx context.Context, ingredientID int64) ([]int64, error)
}

// StepRepository defines the interface for step persistence
type StepRepository interface {
	// Create stores the step together with its ingredient usages.
	Create(ctx context.Context, step *step.Step) error
	// Update stores the step, its usages and deletes removedIngredients.
	Update(ctx context.Context, step *step.Step, removedIngredients []int64) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*step.Step, error)
	ListByRecipe(ctx context.Context, recipeID int64) ([]*step.Step, error)
	CountByRecipe(ctx context.Context, recipeID int64) (int64, error)

	// Previous and Next return the neighbouring step by position.
	Previous(ctx context.Context, recipeID int64, position int) (*step.Step, error)
	Next(ctx context.Context, recipeID int64, position int) (*step.Step, error)
	SavePositions(ctx context.Context, steps []*step.Step) error
}

// ListFilter is a paged, optionally searched listing
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// IngredientRepository defines the interface for ingredient persistence
type IngredientRepository interface {
	Create(ctx context.Context, ingredient *ingredient.Ingredient) error
	Update(ctx context.Context, ingredient *ingredient.Ingredient) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*ingredient.Ingredient, error)
	List(ctx context.Context, filter ListFilter) ([]*ingredient.Ingredient, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
}

// UnitRepository defines the interface for ingredient unit persistence
type UnitRepository interface {
	Create(ctx context.Context, unit *ingredient.Unit) error
	Update(ctx context.Context, unit *ingredient.Unit) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*ingredient.Unit, error)
	ListByIngredient(ctx context.Context, ingredientID int64) ([]*ingredient.Unit, error)
}

// TagRepository defines the interface for tag persistence
type TagRepository interface {
	Create(ctx context.Context, tag *tag.Tag) error
	Update(ctx context.Context, tag *tag.Tag) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*tag.Tag, error)
	FindByName(ctx context.Context, name string) (*tag.Tag, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*tag.Tag, error)
	List(ctx context.Context, filter ListFilter) ([]*tag.Tag, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *user.User) error
	Update(ctx context.Context, user *user.User) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	List(ctx context.Context, filter ListFilter) ([]*user.User, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
}

// WeekplanRepository defines the interface for weekplan persistence
type WeekplanRepository interface {
	Create(ctx context.Context, entry *weekplan.Entry) error
	Update(ctx context.Context, entry *weekplan.Entry) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*weekplan.Entry, error)
	// ListWeek returns the user's entries of week ordered by date, then id.
	ListWeek(ctx context.Context, userID int64, week weekplan.Week) ([]*weekplan.Entry, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}
