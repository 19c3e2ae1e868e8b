package nutrition

import "github.com/alchemorsel/recipes/internal/domain/ingredient"

// Usage is one ingredient line of a recipe step with its ingredient and
// optional unit resolved
type Usage struct {
	Ingredient ingredient.Ingredient
	Amount     *float64
	Unit       *ingredient.Unit
	Annotation string
}

// Normalize converts an amount into the ingredient's reference basis.
// An absent amount ("to taste") contributes nothing
func Normalize(amount *float64, unit *ingredient.Unit) float64 {
	if amount == nil {
		return 0
	}
	if unit != nil {
		return *amount * unit.BaseValue
	}
	return *amount
}

// Normalized returns the usage amount in the reference basis
func (u Usage) Normalized() float64 {
	return Normalize(u.Amount, u.Unit)
}
