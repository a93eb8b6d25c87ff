package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/arcade-profiles/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom tag name function to use JSON tags instead of struct field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validators
	validate.RegisterValidation("badge", validateBadge)
	validate.RegisterValidation("game", validateGame)
}

// Error lists every failed field of a request. It matches domain.ErrInvalidRequest.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return strings.Join(e.Messages, ", ")
}

// Unwrap lets errors.Is match domain.ErrInvalidRequest
func (e *Error) Unwrap() error {
	return domain.ErrInvalidRequest
}

// Validate validates a struct and returns formatted error messages
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// formatValidationErrors converts validator errors to user-friendly messages
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validating request: %w", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, formatFieldError(fieldError))
	}
	return &Error{Messages: messages}
}

// formatFieldError formats a single field validation error
func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "badge":
		return fmt.Sprintf("%s must contain only letters, numbers, '-', '_' and ':'", field)
	case "game":
		return fmt.Sprintf("%s must contain only lowercase letters, numbers, '-' and '_'", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// validateBadge checks if a badge credential contains only valid characters
func validateBadge(fl validator.FieldLevel) bool {
	badge := fl.Field().String()

	for _, char := range badge {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '-' || char == '_' || char == ':') {
			return false
		}
	}
	return true
}

// validateGame checks if a game identifier is a lowercase slug
func validateGame(fl validator.FieldLevel) bool {
	game := fl.Field().String()

	for _, char := range game {
		if !((char >= 'a' && char <= 'z') ||
			(char >= '0' && char <= '9') ||
			char == '-' || char == '_') {
			return false
		}
	}
	return true
}
