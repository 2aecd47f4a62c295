package validation

import (
	"strings"
)

// ValidatePassword enforces password strength on signup and reset.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return Error("password must be at least 8 characters")
	}

	// bcrypt silently truncates input beyond 72 bytes
	if len(password) > 72 {
		return Error("password must not exceed 72 characters")
	}

	lower := strings.ToLower(password)
	commonPatterns := []string{
		"password", "12345678", "qwerty", "letmein", "welcome",
	}
	for _, pattern := range commonPatterns {
		if strings.Contains(lower, pattern) {
			return Error("password is too common, please choose a stronger one")
		}
	}

	return nil
}
