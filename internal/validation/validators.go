// Package validation holds the shared request validator and input sanitizers.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/ulule/limiter/v3"

	"github.com/benvon/rewrite/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("category", validateCategory); err != nil {
		panic(fmt.Sprintf("failed to register category validator: %v", err))
	}
	if err := Validate.RegisterValidation("ratelimit", validateRateLimit); err != nil {
		panic(fmt.Sprintf("failed to register ratelimit validator: %v", err))
	}
}

// validateCategory validates that a string is one of the known edit categories
func validateCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).Valid()
}

// validateRateLimit validates a limiter formatted rate such as "5-S" or "100-M"
func validateRateLimit(fl validator.FieldLevel) bool {
	_, err := limiter.NewRateFromFormatted(fl.Field().String())
	return err == nil
}

// ValidateCategory validates a category string value
func ValidateCategory(value string) error {
	if !models.Category(value).Valid() {
		return fmt.Errorf("invalid type: %s (must be one of simplify, exemplify, factcheck, assert, clarify)", value)
	}
	return nil
}

// ValidateRate validates a limiter formatted rate value
func ValidateRate(value string) error {
	if _, err := limiter.NewRateFromFormatted(value); err != nil {
		return fmt.Errorf("invalid rate %q (expected <limit>-<period>, e.g. 5-S or 100-M): %w", value, err)
	}
	return nil
}

// SanitizeText removes control characters except newline and tab. Surrounding
// whitespace is kept so offsets into essay text stay meaningful.
func SanitizeText(text string) string {
	var sanitized strings.Builder
	sanitized.Grow(len(text))
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}
	return sanitized.String()
}
