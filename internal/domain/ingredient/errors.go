package ingredient

import "errors"

var (
	// Ingredient validation errors
	ErrNameRequired     = errors.New("ingredient name is required")
	ErrNameTooLong      = errors.New("ingredient name must not exceed 255 characters")
	ErrInvalidReference = errors.New("ingredient reference must be g or ml")
	ErrNegativeMacro    = errors.New("macro values must not be negative")

	// Unit validation errors
	ErrInvalidUnit      = errors.New("unit must be one of pcs, tbsp, tsp, skosh, pinch")
	ErrInvalidBaseValue = errors.New("unit base value must be greater than 0")
	ErrUnitMismatch     = errors.New("unit does not belong to the ingredient")
)
