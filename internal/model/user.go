package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const (
	ProviderLocal  = "LOCAL"
	ProviderGoogle = "GOOGLE"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID             string      `db:"id" json:"id"`
	Email          string      `db:"email" json:"email"`
	PasswordHash   *string     `db:"password_hash" json:"-"` // Nullable for provider-only accounts
	FirstName      string      `db:"first_name" json:"firstName"`
	LastName       string      `db:"last_name" json:"lastName"`
	Role           string      `db:"role" json:"role"`
	Providers      ProviderSet `db:"providers" json:"providers"`
	Verified       bool        `db:"verified" json:"verified"`
	ProfilePicture *string     `db:"profile_picture" json:"profilePicture"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// ProviderSet is the set of auth providers linked to a user. It is persisted
// as a comma-joined string but behaves as a set, so linking the same
// provider twice is a no-op.
type ProviderSet []string

func (p ProviderSet) Has(provider string) bool {
	for _, existing := range p {
		if existing == provider {
			return true
		}
	}
	return false
}

// Add returns the set with provider included. Insertion order is preserved.
func (p ProviderSet) Add(provider string) ProviderSet {
	if p.Has(provider) {
		return p
	}
	return append(p, provider)
}

func (p ProviderSet) String() string {
	return strings.Join(p, ",")
}

// Value implements driver.Valuer so the set can be written through sqlx.
func (p ProviderSet) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan implements sql.Scanner. Duplicate entries in stored data are
// collapsed on read.
func (p *ProviderSet) Scan(src any) error {
	var joined string
	switch v := src.(type) {
	case string:
		joined = v
	case []byte:
		joined = string(v)
	case nil:
		*p = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ProviderSet", src)
	}

	if joined == "" {
		*p = nil
		return nil
	}

	var set ProviderSet
	for _, part := range strings.Split(joined, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			set = set.Add(part)
		}
	}
	*p = set
	return nil
}
