package step

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewStep(t *testing.T) {
	tests := []struct {
		name        string
		position    int
		description *string
		prep, cook  int
		ingredients []Ingredient
		wantErr     error
	}{
		{name: "valid", position: 0, description: ptr("Stir"), ingredients: []Ingredient{{IngredientID: 1, Amount: ptr(10.0)}}},
		{name: "negative position", position: -1, wantErr: ErrNegativePosition},
		{name: "description too long", description: ptr(strings.Repeat("x", MaxDescriptionLength+1)), wantErr: ErrDescriptionTooLong},
		{name: "description at limit", description: ptr(strings.Repeat("x", MaxDescriptionLength))},
		{name: "negative time", cook: -5, wantErr: ErrNegativeTime},
		{name: "missing ingredient", ingredients: []Ingredient{{Amount: ptr(1.0)}}, wantErr: ErrIngredientRequired},
		{name: "negative amount", ingredients: []Ingredient{{IngredientID: 2, Amount: ptr(-1.0)}}, wantErr: ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStep(9, tt.position, tt.description, tt.prep, tt.cook, tt.ingredients)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(9), s.RecipeID)
		})
	}
}

func TestReplace_ShouldReportDroppedIngredients(t *testing.T) {
	// Arrange
	current := &Step{ID: 1, Ingredients: []Ingredient{
		{ID: ptr(int64(10)), IngredientID: 1},
		{ID: ptr(int64(11)), IngredientID: 2},
		{ID: ptr(int64(12)), IngredientID: 3},
	}}
	next := &Step{Position: 2, Ingredients: []Ingredient{
		{ID: ptr(int64(11)), IngredientID: 2, Amount: ptr(5.0)},
		{IngredientID: 4},
	}}

	// Act
	removed := current.Replace(next)

	// Assert
	assert.Equal(t, []int64{10, 12}, removed)
	assert.Equal(t, 2, current.Position)
	assert.Len(t, current.Ingredients, 2)
}

func TestMoveUp(t *testing.T) {
	t.Run("swaps with predecessor", func(t *testing.T) {
		prev := &Step{ID: 1, Position: 0}
		s := &Step{ID: 2, Position: 1}

		changed := MoveUp(s, prev)

		require.Len(t, changed, 2)
		assert.Equal(t, 1, prev.Position)
		assert.Equal(t, 0, s.Position)
	})

	t.Run("first position is a no-op", func(t *testing.T) {
		s := &Step{ID: 2, Position: 0}

		changed := MoveUp(s, nil)

		assert.Equal(t, []*Step{s}, changed)
		assert.Equal(t, 0, s.Position)
	})

	t.Run("gap without predecessor still decrements", func(t *testing.T) {
		s := &Step{ID: 2, Position: 3}

		changed := MoveUp(s, nil)

		assert.Len(t, changed, 1)
		assert.Equal(t, 2, s.Position)
	})
}

func TestMoveDown(t *testing.T) {
	t.Run("swaps with successor", func(t *testing.T) {
		s := &Step{ID: 1, Position: 0}
		next := &Step{ID: 2, Position: 1}

		changed := MoveDown(s, next)

		require.Len(t, changed, 2)
		assert.Equal(t, 0, next.Position)
		assert.Equal(t, 1, s.Position)
	})

	t.Run("last step is a no-op", func(t *testing.T) {
		s := &Step{ID: 1, Position: 4}

		changed := MoveDown(s, nil)

		assert.Equal(t, []*Step{s}, changed)
		assert.Equal(t, 4, s.Position)
	})
}
