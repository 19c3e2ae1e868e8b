package authz

import (
	"net/http"
	"testing"

	"github.com/alchemorsel/recipes/internal/domain/ingredient"
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/domain/weekplan"
	"github.com/alchemorsel/recipes/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	root     = user.Rehydrate(user.Snapshot{ID: 1, Email: "root@example.com", Role: user.RoleRoot, Active: true})
	owner    = user.Rehydrate(user.Snapshot{ID: 2, Email: "owner@example.com", Role: user.RoleUser, Active: true})
	stranger = user.Rehydrate(user.Snapshot{ID: 3, Email: "other@example.com", Role: user.RoleUser, Active: true})
)

func TestRecipes(t *testing.T) {
	ownerID := owner.ID()
	r := recipe.Rehydrate(recipe.Snapshot{ID: 10, Name: "Soup", OwnerID: &ownerID})

	tests := []struct {
		name   string
		action Action
		actor  *user.User
		want   bool
	}{
		{"anonymous list", ActionList, nil, true},
		{"anonymous get", ActionGet, nil, true},
		{"anonymous create", ActionCreate, nil, false},
		{"user create", ActionCreate, stranger, true},
		{"owner update", ActionUpdate, owner, true},
		{"stranger update", ActionUpdate, stranger, false},
		{"root delete", ActionDelete, root, true},
		{"stranger delete", ActionDelete, stranger, false},
		{"anonymous delete", ActionDelete, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recipes(tt.action, tt.actor, r))
		})
	}
}

func TestRecipes_OrphanedRecipeNeedsRoot(t *testing.T) {
	r := recipe.Rehydrate(recipe.Snapshot{ID: 10, Name: "Soup"})

	assert.False(t, Recipes(ActionUpdate, owner, r))
	assert.True(t, Recipes(ActionUpdate, root, r))
}

func TestIngredients(t *testing.T) {
	policy := Ingredients[ingredient.Ingredient]

	assert.True(t, policy(ActionList, nil, nil))
	assert.True(t, policy(ActionGet, nil, nil))
	assert.False(t, policy(ActionCreate, nil, nil))
	assert.True(t, policy(ActionCreate, stranger, nil))
	assert.False(t, policy(ActionUpdate, stranger, nil))
	assert.False(t, policy(ActionDelete, owner, nil))
	assert.True(t, policy(ActionUpdate, root, nil))
	assert.True(t, policy(ActionDelete, root, nil))
}

func TestUsers(t *testing.T) {
	assert.True(t, Users(ActionCreate, nil, nil))
	assert.True(t, Users(ActionList, nil, nil))
	assert.True(t, Users(ActionUpdate, owner, owner))
	assert.False(t, Users(ActionUpdate, stranger, owner))
	assert.True(t, Users(ActionDelete, root, owner))
	assert.False(t, Users(ActionDelete, nil, owner))
}

func TestWeekplans(t *testing.T) {
	entry := &weekplan.Entry{ID: 5, UserID: owner.ID()}

	assert.False(t, Weekplans(ActionList, nil, nil))
	assert.True(t, Weekplans(ActionList, owner, nil))
	assert.True(t, Weekplans(ActionCreate, owner, nil))
	assert.False(t, Weekplans(ActionGet, owner, nil))
	assert.True(t, Weekplans(ActionGet, owner, entry))
	assert.False(t, Weekplans(ActionDelete, nil, entry))
}

func TestAuthorize_StatusCodes(t *testing.T) {
	t.Run("anonymous denial is unauthorized", func(t *testing.T) {
		err := Authorize(Recipes, ActionCreate, nil, nil)

		appErr, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode())
	})

	t.Run("user denial is forbidden", func(t *testing.T) {
		r := recipe.Rehydrate(recipe.Snapshot{ID: 10, Name: "Soup"})

		err := Authorize(Recipes, ActionDelete, stranger, r)

		appErr, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, appErr.StatusCode())
	})

	t.Run("allowed", func(t *testing.T) {
		assert.NoError(t, Authorize(Recipes, ActionList, nil, nil))
	})
}
