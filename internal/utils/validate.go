package utils

// validate.go holds the field validation rules applied at registration and
// login.  Checks run in a fixed field order (firstName, lastName, email,
// password, restaurantName, role, phone) and the first failing rule is
// reported, so clients always see a deterministic error for a given payload.

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/tablekeep/restaurant-manager/internal/model"
)

// FieldError names the field and the rule it violated.  The message is safe
// to return to clients verbatim: it describes the rule, never internal state.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

var (
	// nameRe accepts letters (including accented), hyphens, apostrophes and
	// spaces.  Length is checked separately in runes so multi-byte letters
	// are not double-counted.
	nameRe = regexp.MustCompile(`^[\p{L}' -]+$`)
	// emailRe enforces the local@domain.tld shape without attempting full
	// RFC 5322 coverage.
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[A-Za-z]{2,}$`)
	phoneRe = regexp.MustCompile(`^[0-9+().\- ]{7,20}$`)
)

// passwordSymbols is the punctuation set that satisfies the symbol rule.
const passwordSymbols = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?~` "

// ValidateName checks a person-name field (firstName / lastName).
func ValidateName(field, v string) *FieldError {
	n := len([]rune(v))
	if n < 2 || n > 50 {
		return &FieldError{Field: field, Message: "must be 2-50 characters"}
	}
	if !nameRe.MatchString(v) {
		return &FieldError{Field: field, Message: "may only contain letters, hyphens and apostrophes"}
	}
	return nil
}

// ValidateEmail checks the login identifier shape.
func ValidateEmail(v string) *FieldError {
	if v == "" {
		return &FieldError{Field: "email", Message: "is required"}
	}
	if len(v) > 254 || !emailRe.MatchString(v) {
		return &FieldError{Field: "email", Message: "must be a valid email address"}
	}
	return nil
}

// ValidatePassword enforces the strength policy: length >= 8 plus at least
// one uppercase letter, one lowercase letter, one digit and one symbol.
func ValidatePassword(v string) *FieldError {
	if len(v) < 8 {
		return &FieldError{Field: "password", Message: "must be at least 8 characters"}
	}
	var upper, lower, digit, symbol bool
	for _, r := range v {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	switch {
	case !upper:
		return &FieldError{Field: "password", Message: "must contain an uppercase letter"}
	case !lower:
		return &FieldError{Field: "password", Message: "must contain a lowercase letter"}
	case !digit:
		return &FieldError{Field: "password", Message: "must contain a digit"}
	case !symbol:
		return &FieldError{Field: "password", Message: "must contain a symbol"}
	}
	return nil
}

// ValidateRegistration runs every registration rule in order and returns the
// first violation, or nil when the payload is acceptable.  Inputs are
// expected to be trimmed by the caller; the email should already be
// lower-cased.
func ValidateRegistration(firstName, lastName, email, password, restaurantName, role, phone string) *FieldError {
	if err := ValidateName("firstName", firstName); err != nil {
		return err
	}
	if err := ValidateName("lastName", lastName); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if n := len([]rune(restaurantName)); n < 2 || n > 255 {
		return &FieldError{Field: "restaurantName", Message: "must be 2-255 characters"}
	}
	if !model.ValidRole(role) {
		return &FieldError{Field: "role", Message: "must be one of owner, manager, staff"}
	}
	if phone != "" && !phoneRe.MatchString(phone) {
		return &FieldError{Field: "phone", Message: "must be 7-20 characters"}
	}
	return nil
}
