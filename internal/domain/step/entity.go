// Package step models the ordered preparation steps of a recipe and the
// ingredient usages attached to each step.
package step

import (
	"errors"
	"time"
)

// MaxDescriptionLength bounds a step description in bytes
const MaxDescriptionLength = 12288

var (
	ErrDescriptionTooLong = errors.New("step description must not exceed 12288 characters")
	ErrNegativePosition   = errors.New("step position must not be negative")
	ErrNegativeTime       = errors.New("preparation and cooking time must not be negative")
	ErrNegativeAmount     = errors.New("ingredient amount must not be negative")
	ErrIngredientRequired = errors.New("step ingredient needs an ingredient")
)

// Step is one preparation step of a recipe
type Step struct {
	ID              int64
	RecipeID        int64
	Position        int
	Description     *string
	PreparationTime int
	CookingTime     int
	Ingredients     []Ingredient
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Ingredient is an ingredient usage within a step. A nil ID marks a usage
// that has not been stored yet
type Ingredient struct {
	ID           *int64
	StepID       int64
	IngredientID int64
	Amount       *float64
	UnitID       *int64
	Annotation   *string
}

// NewStep builds a validated step for recipeID
func NewStep(recipeID int64, position int, description *string, preparationTime, cookingTime int, ingredients []Ingredient) (*Step, error) {
	now := time.Now().UTC()
	s := &Step{
		RecipeID:        recipeID,
		Position:        position,
		Description:     description,
		PreparationTime: preparationTime,
		CookingTime:     cookingTime,
		Ingredients:     ingredients,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the step and its ingredient usages
func (s *Step) Validate() error {
	if s.Position < 0 {
		return ErrNegativePosition
	}
	if s.Description != nil && len(*s.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if s.PreparationTime < 0 || s.CookingTime < 0 {
		return ErrNegativeTime
	}
	for _, in := range s.Ingredients {
		if err := in.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single usage
func (i Ingredient) Validate() error {
	if i.IngredientID <= 0 {
		return ErrIngredientRequired
	}
	if i.Amount != nil && *i.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Replace overwrites the step attributes and usages with those of next.
// It returns the ids of stored usages that next no longer contains
func (s *Step) Replace(next *Step) (removed []int64) {
	keep := make(map[int64]struct{}, len(next.Ingredients))
	for _, in := range next.Ingredients {
		if in.ID != nil {
			keep[*in.ID] = struct{}{}
		}
	}
	for _, in := range s.Ingredients {
		if in.ID == nil {
			continue
		}
		if _, ok := keep[*in.ID]; !ok {
			removed = append(removed, *in.ID)
		}
	}

	s.Position = next.Position
	s.Description = next.Description
	s.PreparationTime = next.PreparationTime
	s.CookingTime = next.CookingTime
	s.Ingredients = next.Ingredients
	s.UpdatedAt = time.Now().UTC()
	return removed
}

// MoveUp swaps s with its predecessor. prev may be nil when s is already the
// first step; s still moves up one position then. Steps at position 0 stay
// put. The changed steps are returned
func MoveUp(s, prev *Step) []*Step {
	if s.Position < 1 {
		return []*Step{s}
	}
	now := time.Now().UTC()
	var changed []*Step
	if prev != nil {
		prev.Position++
		prev.UpdatedAt = now
		changed = append(changed, prev)
	}
	s.Position--
	s.UpdatedAt = now
	return append(changed, s)
}

// MoveDown swaps s with its successor. Without a successor nothing changes
func MoveDown(s, next *Step) []*Step {
	if next == nil {
		return []*Step{s}
	}
	now := time.Now().UTC()
	next.Position--
	next.UpdatedAt = now
	s.Position++
	s.UpdatedAt = now
	return []*Step{next, s}
}
