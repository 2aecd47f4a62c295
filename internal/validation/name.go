package validation

import (
	"strings"
)

// ValidateName validates a first or last name.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return Error("name is required")
	}

	if len(trimmed) > 100 {
		return Error("name is too long (max 100 characters)")
	}

	return nil
}
