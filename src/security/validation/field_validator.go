package validation

import (
	"fmt"
	"math"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxSymbolLength        = 12
	MaxNameLength          = 255
	MaxNotesLength         = 1024
	MinPasswordLength      = 6

	// Decimal places accepted by the investment form inputs.
	QuantityPlaces = 4
	PricePlaces    = 2
)

// MaxDecimalValue bounds quantities and prices so products and totals stay finite.
var MaxDecimalValue = decimal.New(1, 12)

var symbolRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^=]*$`)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateSymbol expects an already uppercased ticker.
func ValidateSymbol(s string) error {
	if err := ValidateStringNotEmpty(s, "Symbol"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxSymbolLength, "Symbol"); err != nil {
		return err
	}
	if !symbolRegex.MatchString(s) {
		return fmt.Errorf("%w: Symbol ('%s') may only contain letters, digits and . - ^ =", ErrValidationFailed, s)
	}
	return nil
}

// ValidateNonNegativeDecimal parses a required numeric input that must be >= 0
// and carry at most places decimal digits.
func ValidateNonNegativeDecimal(s, fieldName string, places int32) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return 0, err
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %s ('%s') is not a valid number", ErrValidationFailed, fieldName, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %s cannot be negative", ErrValidationFailed, fieldName)
	}
	if d.GreaterThan(MaxDecimalValue) {
		return 0, fmt.Errorf("%w: %s cannot exceed %s", ErrValidationFailed, fieldName, MaxDecimalValue.String())
	}
	if !d.Equal(d.Truncate(places)) {
		return 0, fmt.Errorf("%w: %s allows at most %d decimal places", ErrValidationFailed, fieldName, places)
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %s ('%s') is not a valid number", ErrValidationFailed, fieldName, s)
	}
	return f, nil
}

// ValidateEmail normalizes and checks an e-mail address.
func ValidateEmail(s string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(s))
	if err := ValidateStringNotEmpty(email, "Email"); err != nil {
		return "", err
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email format", ErrValidationFailed)
	}
	return email, nil
}

func ValidatePassword(s string) error {
	if err := ValidateStringNotEmpty(s, "Password"); err != nil {
		return err
	}
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return fmt.Errorf("%w: Password must be at least %d characters long", ErrValidationFailed, MinPasswordLength)
	}
	return nil
}
