package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps struct field names to the labels used on screen.
var FieldLabels = map[string]string{
	"Email":           "Email",
	"Password":        "Password",
	"ConfirmPassword": "Password confirmation",
	"Option":          "Option",
	"Prompt":          "Question",
	"Options":         "Options",
	"Correct":         "Correct answer",
	"Barcode":         "Barcode",
}

// FormatValidationErrors converts validator errors to user-facing messages.
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatFieldError(e))
	}
	return messages
}

func formatFieldError(e validator.FieldError) string {
	label := fieldLabel(e.Field())
	param := e.Param()
	isString := e.Kind().String() == "string"

	switch e.Tag() {
	case "required":
		return label + " is required"
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", label, param)
		}
		return fmt.Sprintf("%s must contain at least %s items", label, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", label, param)
		}
		return fmt.Sprintf("%s must contain at most %s items", label, param)
	case "email":
		return label + " is not a valid email address"
	case "barcode":
		return label + " must be 8 to 14 digits"
	case "not_blank":
		return label + " must not be blank"
	case "eqfield":
		return fmt.Sprintf("%s must match %s", label, fieldLabel(param))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(strings.Fields(param), ", "))
	default:
		return fmt.Sprintf("%s is invalid (%s)", label, e.Tag())
	}
}

func fieldLabel(field string) string {
	if label, ok := FieldLabels[field]; ok {
		return label
	}

	// CamelCase to spaced words
	var b strings.Builder
	for i, r := range field {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
