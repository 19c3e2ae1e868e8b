package ingredient

import "time"

// UnitIdentifier names a custom unit
type UnitIdentifier string

const (
	UnitPieces     UnitIdentifier = "pcs"
	UnitTablespoon UnitIdentifier = "tbsp"
	UnitTeaspoon   UnitIdentifier = "tsp"
	UnitSkosh      UnitIdentifier = "skosh"
	UnitPinch      UnitIdentifier = "pinch"
)

// Display names are consumed verbatim by shopping-list importers
var displayNames = map[UnitIdentifier]string{
	UnitPieces:     "Stück",
	UnitTablespoon: "Esslöffel",
	UnitTeaspoon:   "Teelöffel",
	UnitSkosh:      "Prise",
	UnitPinch:      "Messerspitze",
}

// IsValid reports whether u is a known unit identifier
func (u UnitIdentifier) IsValid() bool {
	_, ok := displayNames[u]
	return ok
}

// IsCount reports whether the unit counts items instead of measuring mass
func (u UnitIdentifier) IsCount() bool {
	return u == UnitPieces
}

// DisplayName returns the localized name of the unit
func (u UnitIdentifier) DisplayName() string {
	return displayNames[u]
}

// Unit states how much of the owning ingredient's reference basis one unit
// represents, e.g. one piece of egg = 50g
type Unit struct {
	ID           int64
	IngredientID int64
	Identifier   UnitIdentifier
	BaseValue    float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUnit creates a validated unit for an ingredient
func NewUnit(ingredientID int64, identifier UnitIdentifier, baseValue float64) (*Unit, error) {
	u := &Unit{
		IngredientID: ingredientID,
		Identifier:   identifier,
		BaseValue:    baseValue,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	return u, nil
}

// Validate checks the unit invariants
func (u *Unit) Validate() error {
	if !u.Identifier.IsValid() {
		return ErrInvalidUnit
	}
	if u.BaseValue <= 0 {
		return ErrInvalidBaseValue
	}
	return nil
}

// Update changes identifier and base value
func (u *Unit) Update(identifier UnitIdentifier, baseValue float64) error {
	next := *u
	next.Identifier = identifier
	next.BaseValue = baseValue
	if err := next.Validate(); err != nil {
		return err
	}

	next.UpdatedAt = time.Now().UTC()
	*u = next
	return nil
}
