// Package nutrition computes macro totals and consolidated shopping lists
// from ingredient usages that have already been loaded and joined.
// Nothing in here performs I/O.
package nutrition

import "github.com/alchemorsel/recipes/internal/domain/ingredient"

// ConversionTable resolves unit ids to their definitions
type ConversionTable struct {
	units map[int64]ingredient.Unit
}

// NewConversionTable indexes the given unit rows by id
func NewConversionTable(units []ingredient.Unit) ConversionTable {
	t := ConversionTable{units: make(map[int64]ingredient.Unit, len(units))}
	for _, u := range units {
		t.units[u.ID] = u
	}
	return t
}

// Lookup returns the unit for id. A nil id or an unknown id yields nil
func (t ConversionTable) Lookup(id *int64) *ingredient.Unit {
	if id == nil {
		return nil
	}
	u, ok := t.units[*id]
	if !ok {
		return nil
	}
	return &u
}

// Factor is the number of reference units one unit of id represents.
// Without a unit the amount is already expressed in the reference basis
func (t ConversionTable) Factor(id *int64) float64 {
	if u := t.Lookup(id); u != nil {
		return u.BaseValue
	}
	return 1
}

// Len returns the number of indexed units
func (t ConversionTable) Len() int {
	return len(t.units)
}
