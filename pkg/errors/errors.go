// Package errors provides structured error handling for the recipes service.
// Every error that crosses the application boundary is an *AppError carrying
// a stable code, an HTTP status and an optional cause.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	// Client errors (4xx)
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeForbidden        ErrorCode = "FORBIDDEN"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"

	// Server errors (5xx)
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	CodeDatabaseError      ErrorCode = "DATABASE_ERROR"
	CodeStorageError       ErrorCode = "STORAGE_ERROR"

	// Business logic errors
	CodeRecipeNotFound     ErrorCode = "RECIPE_NOT_FOUND"
	CodeStepNotFound       ErrorCode = "STEP_NOT_FOUND"
	CodeIngredientNotFound ErrorCode = "INGREDIENT_NOT_FOUND"
	CodeUnitNotFound       ErrorCode = "UNIT_NOT_FOUND"
	CodeTagNotFound        ErrorCode = "TAG_NOT_FOUND"
	CodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	CodeWeekplanNotFound   ErrorCode = "WEEKPLAN_NOT_FOUND"
	CodeNoCandidateRecipe  ErrorCode = "NO_CANDIDATE_RECIPE"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeEmailAlreadyExists ErrorCode = "EMAIL_ALREADY_EXISTS"
	CodeTagAlreadyExists   ErrorCode = "TAG_ALREADY_EXISTS"
)

// AppError represents an application error with structured information
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the appropriate HTTP status code
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeRecipeNotFound, CodeStepNotFound, CodeIngredientNotFound,
		CodeUnitNotFound, CodeTagNotFound, CodeUserNotFound, CodeWeekplanNotFound,
		CodeNoCandidateRecipe:
		return http.StatusNotFound
	case CodeConflict, CodeEmailAlreadyExists, CodeTagAlreadyExists:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StackTrace: getStackTrace(),
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "Authentication required"
	}
	return NewAppError(CodeUnauthorized, message, "")
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(action string) *AppError {
	return NewAppError(
		CodeForbidden,
		"Access forbidden",
		fmt.Sprintf("You don't have permission to %s", action),
	).WithMetadata("action", action)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	message := "Resource not found"
	if resource != "" {
		message = fmt.Sprintf("%s not found", capitalize(resource))
	}
	return NewAppError(CodeNotFound, message, "")
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return NewAppError(CodeConflict, message, "")
}

// NewTooManyRequestsError creates a rate limit error
func NewTooManyRequestsError() *AppError {
	return NewAppError(CodeTooManyRequests, "Too many requests", "")
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *AppError {
	return NewAppError(
		CodeDatabaseError,
		"Database operation failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewStorageError creates a file storage error
func NewStorageError(operation string, cause error) *AppError {
	return NewAppError(
		CodeStorageError,
		"Storage operation failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// Business domain specific errors

func newMissing(code ErrorCode, kind, key string, id int64) *AppError {
	return NewAppError(
		code,
		fmt.Sprintf("%s not found", kind),
		fmt.Sprintf("%s with ID %d does not exist", kind, id),
	).WithMetadata(key, id)
}

// NewRecipeNotFoundError creates a recipe not found error
func NewRecipeNotFoundError(id int64) *AppError {
	return newMissing(CodeRecipeNotFound, "Recipe", "recipe_id", id)
}

// NewStepNotFoundError creates a step not found error
func NewStepNotFoundError(id int64) *AppError {
	return newMissing(CodeStepNotFound, "Step", "step_id", id)
}

// NewIngredientNotFoundError creates an ingredient not found error
func NewIngredientNotFoundError(id int64) *AppError {
	return newMissing(CodeIngredientNotFound, "Ingredient", "ingredient_id", id)
}

// NewUnitNotFoundError creates a unit not found error
func NewUnitNotFoundError(id int64) *AppError {
	return newMissing(CodeUnitNotFound, "Unit", "unit_id", id)
}

// NewTagNotFoundError creates a tag not found error
func NewTagNotFoundError(id int64) *AppError {
	return newMissing(CodeTagNotFound, "Tag", "tag_id", id)
}

// NewUserNotFoundError creates a user not found error
func NewUserNotFoundError(id int64) *AppError {
	return newMissing(CodeUserNotFound, "User", "user_id", id)
}

// NewWeekplanNotFoundError creates a weekplan entry not found error
func NewWeekplanNotFoundError(id int64) *AppError {
	return newMissing(CodeWeekplanNotFound, "Weekplan", "weekplan_id", id)
}

// NewNoCandidateRecipeError is returned when no recipe satisfies a weekplan selection
func NewNoCandidateRecipeError(tags []string) *AppError {
	return NewAppError(
		CodeNoCandidateRecipe,
		"No recipe found",
		"No unused recipe matches the requested tags",
	).WithMetadata("tags", tags)
}

// NewEmailAlreadyExistsError creates an email already exists error
func NewEmailAlreadyExistsError(email string) *AppError {
	return NewAppError(
		CodeEmailAlreadyExists,
		"Email already exists",
		"An account with this email address already exists",
	).WithMetadata("email", email)
}

// NewTagAlreadyExistsError creates a duplicate tag error
func NewTagAlreadyExistsError(name string) *AppError {
	return NewAppError(
		CodeTagAlreadyExists,
		"Tag already exists",
		fmt.Sprintf("A tag named %q already exists", name),
	).WithMetadata("name", name)
}

// NewInvalidCredentialsError creates an invalid credentials error
func NewInvalidCredentialsError() *AppError {
	return NewAppError(
		CodeInvalidCredentials,
		"Invalid credentials",
		"The provided email or password is incorrect",
	)
}

// Utility functions

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// As returns the AppError in err's chain, if any
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return builder.String()
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value,omitempty"`
	Tag     string      `json:"tag"`
	Message string      `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	if len(v) == 1 {
		return v[0].Message
	}

	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Message)
	}

	return strings.Join(messages, "; ")
}

// NewValidationErrors creates validation errors from validator errors
func NewValidationErrors(errors []ValidationError) *AppError {
	validationErrs := ValidationErrors(errors)

	return NewAppError(
		CodeValidationFailed,
		"Validation failed",
		validationErrs.Error(),
	).WithMetadata("validation_errors", validationErrs)
}

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	Status    string                 `json:"status"`
	Code      int                    `json:"code"`
	Message   string                 `json:"message"`
	ErrorCode ErrorCode              `json:"error_code"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// ToErrorResponse converts an AppError to an API error response
func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	return ErrorResponse{
		Status:    "error",
		Code:      err.StatusCode(),
		Message:   err.Message,
		ErrorCode: err.Code,
		Details:   err.Details,
		Metadata:  err.Metadata,
		RequestID: requestID,
	}
}
