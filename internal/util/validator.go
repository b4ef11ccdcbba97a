package util

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// ErrValidation is the base error for input validation failures; handlers
// branch on it with errors.Is to return 400.
var ErrValidation = errors.New("validation failed")

// ValidateEmail returns an error for malformed emails.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return nil
}

// ValidatePassword checks minimum password requirements.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must have at least 8 characters", ErrValidation)
	}
	return nil
}

// RequireString enforces a non-empty string.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	return nil
}
