// Package authz holds the per-resource authorization policies shared by
// the application services.
package authz

import (
	"github.com/alchemorsel/recipes/internal/domain/recipe"
	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/domain/weekplan"
	"github.com/alchemorsel/recipes/pkg/errors"
)

// Action is a default resource action
type Action string

const (
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionGet    Action = "get"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Policy decides whether actor may perform action on resource. Both actor
// and resource may be nil.
type Policy[T any] func(action Action, actor *user.User, resource *T) bool

// Authorize evaluates policy and maps a denial to an AppError: 401 for
// anonymous actors, 403 otherwise.
func Authorize[T any](policy func(Action, *user.User, *T) bool, action Action, actor *user.User, resource *T) error {
	if policy(action, actor, resource) {
		return nil
	}
	if actor == nil {
		return errors.NewUnauthorizedError("authentication required")
	}
	return errors.NewForbiddenError(string(action))
}

// IsRoot reports whether actor is a root user
func IsRoot(actor *user.User) bool {
	return actor != nil && actor.IsRoot()
}

// Ingredients may be read by anyone and created by any user. Changing them
// needs root.
func Ingredients[T any](action Action, actor *user.User, _ *T) bool {
	switch action {
	case ActionList, ActionGet:
		return true
	case ActionCreate:
		return actor != nil
	default:
		return IsRoot(actor)
	}
}

// Recipes may be read by anyone and created by any user. Changing them needs
// root or ownership.
func Recipes(action Action, actor *user.User, resource *recipe.Recipe) bool {
	switch action {
	case ActionList, ActionGet:
		return true
	case ActionCreate:
		return actor != nil
	default:
		if IsRoot(actor) {
			return true
		}
		return actor != nil && resource != nil && resource.IsOwnedBy(actor.ID())
	}
}

// Users may be listed, read and registered by anyone. Changing an account
// needs root or the account itself.
func Users(action Action, actor *user.User, resource *user.User) bool {
	switch action {
	case ActionList, ActionGet, ActionCreate:
		return true
	default:
		if IsRoot(actor) {
			return true
		}
		return actor != nil && resource != nil && resource.ID() == actor.ID()
	}
}

// Weekplans are private to their user. Single-entry actions also need the
// entry to exist.
func Weekplans(action Action, actor *user.User, resource *weekplan.Entry) bool {
	switch action {
	case ActionList, ActionCreate:
		return actor != nil
	default:
		return actor != nil && resource != nil
	}
}

// Tags may be read by anyone. Any user may change them.
func Tags[T any](action Action, actor *user.User, _ *T) bool {
	switch action {
	case ActionList, ActionGet:
		return true
	default:
		return actor != nil
	}
}
