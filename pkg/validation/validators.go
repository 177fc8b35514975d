package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Regex patterns
var (
	// EAN-8, UPC-A, EAN-13 and GTIN-14 are all digit-only
	barcodeRegex = regexp.MustCompile(`^[0-9]{8,14}$`)
)

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("barcode", ValidBarcode)
	_ = v.RegisterValidation("not_blank", NotBlank)
}

// ValidBarcode validates a retail barcode (8 to 14 digits)
func ValidBarcode(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // Optional, use required if needed
	}
	return barcodeRegex.MatchString(strings.TrimSpace(val))
}

// NotBlank rejects strings made only of whitespace
func NotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
