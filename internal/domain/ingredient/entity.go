// Package ingredient holds ingredients, their macro profiles and the custom
// units each ingredient defines.
package ingredient

import (
	"strings"
	"time"
)

// Reference is the natural measurement basis of an ingredient
type Reference string

const (
	ReferenceGrams       Reference = "g"
	ReferenceMilliliters Reference = "ml"
)

// IsValid reports whether r is a known reference basis
func (r Reference) IsValid() bool {
	return r == ReferenceGrams || r == ReferenceMilliliters
}

// Macros is the composition per 100 reference units
type Macros struct {
	Carbs    float64
	Fat      float64
	Proteins float64
	Alcohol  float64
}

// Validate checks that no macro value is negative
func (m Macros) Validate() error {
	if m.Carbs < 0 || m.Fat < 0 || m.Proteins < 0 || m.Alcohol < 0 {
		return ErrNegativeMacro
	}
	return nil
}

// Ingredient is a named food item with its macro profile
type Ingredient struct {
	ID        int64
	Name      string
	Reference Reference
	Macros    Macros
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewIngredient creates a validated ingredient
func NewIngredient(name string, reference Reference, macros Macros) (*Ingredient, error) {
	ing := &Ingredient{
		Name:      strings.TrimSpace(name),
		Reference: reference,
		Macros:    macros,
	}
	if err := ing.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ing.CreatedAt = now
	ing.UpdatedAt = now
	return ing, nil
}

// Validate checks the ingredient invariants
func (i *Ingredient) Validate() error {
	if i.Name == "" {
		return ErrNameRequired
	}
	if len(i.Name) > 255 {
		return ErrNameTooLong
	}
	if !i.Reference.IsValid() {
		return ErrInvalidReference
	}
	return i.Macros.Validate()
}

// Update replaces the mutable attributes
func (i *Ingredient) Update(name string, reference Reference, macros Macros) error {
	next := *i
	next.Name = strings.TrimSpace(name)
	next.Reference = reference
	next.Macros = macros
	if err := next.Validate(); err != nil {
		return err
	}

	next.UpdatedAt = time.Now().UTC()
	*i = next
	return nil
}
