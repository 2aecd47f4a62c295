package validation

import (
	"net/mail"
)

// ValidateEmail validates email format and length using Go's RFC 5322
// parser.
func ValidateEmail(email string) error {
	if email == "" {
		return Error("email address is required")
	}

	// RFC 5321: 254 characters is the maximum usable address length
	if len(email) > 254 {
		return Error("email address is too long (max 254 characters)")
	}

	_, err := mail.ParseAddress(email)
	if err != nil {
		return Error("invalid email address format")
	}

	return nil
}
