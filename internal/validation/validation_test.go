package validation

import (
	"errors"
	"strings"
	"testing"
)

// Failures must carry the Error type so handlers can map them to 400s.
func TestFailuresAreTyped(t *testing.T) {
	checks := []error{
		ValidateEmail("not-an-email"),
		ValidatePassword("short"),
		ValidateName(""),
	}
	for i, err := range checks {
		var invalid Error
		if !errors.As(err, &invalid) {
			t.Errorf("check %d: %v is not a validation.Error", i, err)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"jane@example.com",
		"jane.doe+tag@sub.example.co",
	}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Errorf("ValidateEmail(%q) = %v, want nil", email, err)
		}
	}

	invalid := []string{
		"",
		"plainaddress",
		"@example.com",
		"jane@",
		strings.Repeat("a", 250) + "@example.com",
	}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", email)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("correct-horse"); err != nil {
		t.Errorf("good password rejected: %v", err)
	}

	invalid := []string{
		"short",
		strings.Repeat("x", 73),
		"password123",
		"myQWERTYkeys",
	}
	for _, pw := range invalid {
		if err := ValidatePassword(pw); err == nil {
			t.Errorf("ValidatePassword(%q) = nil, want error", pw)
		}
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Jane"); err != nil {
		t.Errorf("good name rejected: %v", err)
	}

	invalid := []string{"", "   ", strings.Repeat("n", 101)}
	for _, name := range invalid {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) = nil, want error", name)
		}
	}
}
