package recipe

import "errors"

// Domain errors for recipe operations

var (
	ErrNameRequired       = errors.New("recipe name is required")
	ErrNameTooLong        = errors.New("recipe name must not exceed 255 characters")
	ErrDescriptionTooLong = errors.New("recipe description must not exceed 12288 characters")
	ErrInvalidServings    = errors.New("default servings must be greater than 0")
	ErrSelfFitting        = errors.New("recipe cannot fit itself")
	ErrInvalidImageName   = errors.New("image file name is invalid")
)
