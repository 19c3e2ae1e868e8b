package security

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	apperrors "github.com/alchemorsel/recipes/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// ValidationService validates request commands against their struct tags
type ValidationService struct {
	validator *validator.Validate
}

// NewValidationService creates a new validation service. Field names in
// errors are the json names of the fields.
func NewValidationService() *ValidationService {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	return &ValidationService{validator: validate}
}

// Validate returns nil or a VALIDATION_FAILED AppError listing every field
func (v *ValidationService) Validate(cmd interface{}) error {
	err := v.validator.Struct(cmd)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error())
	}

	result := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		result = append(result, apperrors.ValidationError{
			Field:   fieldPath(fe),
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return apperrors.NewValidationErrors(result)
}

// fieldPath drops the struct name from the namespace, "StepCommand.step_ingredients[0].ingredient_id"
// becomes "step_ingredients[0].ingredient_id"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed the %s check", field, fe.Tag())
	}
}
