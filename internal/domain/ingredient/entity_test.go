package ingredient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIngredient(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		ref     Reference
		macros  Macros
		wantErr error
	}{
		{name: "valid", in: " Flour ", ref: ReferenceGrams, macros: Macros{Carbs: 75}},
		{name: "liquid", in: "Milk", ref: ReferenceMilliliters},
		{name: "empty name", in: "  ", ref: ReferenceGrams, wantErr: ErrNameRequired},
		{name: "bad reference", in: "Salt", ref: Reference("kg"), wantErr: ErrInvalidReference},
		{name: "negative macro", in: "Salt", ref: ReferenceGrams, macros: Macros{Fat: -1}, wantErr: ErrNegativeMacro},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing, err := NewIngredient(tt.in, tt.ref, tt.macros)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, ing.Name)
			assert.NotZero(t, ing.CreatedAt)
		})
	}
}

func TestIngredientUpdate_InvalidKeepsState(t *testing.T) {
	ing := &Ingredient{ID: 1, Name: "Flour", Reference: ReferenceGrams}

	err := ing.Update("", ReferenceGrams, Macros{})

	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Equal(t, "Flour", ing.Name)
}

func TestUnit(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		u, err := NewUnit(3, UnitPieces, 50)

		require.NoError(t, err)
		assert.True(t, u.Identifier.IsCount())
		assert.Equal(t, "Stück", u.Identifier.DisplayName())
	})

	t.Run("display names", func(t *testing.T) {
		assert.Equal(t, "Esslöffel", UnitTablespoon.DisplayName())
		assert.Equal(t, "Teelöffel", UnitTeaspoon.DisplayName())
		assert.Equal(t, "Prise", UnitSkosh.DisplayName())
		assert.Equal(t, "Messerspitze", UnitPinch.DisplayName())
		assert.False(t, UnitTablespoon.IsCount())
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := NewUnit(3, UnitIdentifier("cup"), 50)
		assert.ErrorIs(t, err, ErrInvalidUnit)

		_, err = NewUnit(3, UnitPinch, 0)
		assert.ErrorIs(t, err, ErrInvalidBaseValue)
	})

	t.Run("update keeps state on error", func(t *testing.T) {
		u := &Unit{ID: 1, Identifier: UnitTeaspoon, BaseValue: 5}

		assert.Error(t, u.Update(UnitTeaspoon, -1))
		assert.Equal(t, 5.0, u.BaseValue)
		require.NoError(t, u.Update(UnitTablespoon, 15))
		assert.Equal(t, UnitTablespoon, u.Identifier)
	})
}
