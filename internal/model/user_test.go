package model

import (
	"testing"
)

func TestProviderSetAdd(t *testing.T) {
	var set ProviderSet

	set = set.Add(ProviderLocal)
	set = set.Add(ProviderGoogle)
	set = set.Add(ProviderGoogle) // idempotent

	if len(set) != 2 {
		t.Fatalf("set = %v, want two entries", set)
	}
	if !set.Has(ProviderLocal) || !set.Has(ProviderGoogle) {
		t.Errorf("set = %v, want LOCAL and GOOGLE", set)
	}
	if set.String() != "LOCAL,GOOGLE" {
		t.Errorf("String() = %q, want insertion order preserved", set.String())
	}
}

func TestProviderSetScan(t *testing.T) {
	tests := []struct {
		name  string
		src   any
		want  int
		first string
	}{
		{"string", "LOCAL,GOOGLE", 2, ProviderLocal},
		{"bytes", []byte("GOOGLE"), 1, ProviderGoogle},
		{"duplicates collapsed", "LOCAL,LOCAL,GOOGLE", 2, ProviderLocal},
		{"whitespace", " LOCAL , GOOGLE ", 2, ProviderLocal},
		{"empty", "", 0, ""},
		{"nil", nil, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var set ProviderSet
			err := set.Scan(tt.src)
			if err != nil {
				t.Fatalf("scan failed: %v", err)
			}
			if len(set) != tt.want {
				t.Fatalf("set = %v, want %d entries", set, tt.want)
			}
			if tt.want > 0 && set[0] != tt.first {
				t.Errorf("set[0] = %q, want %q", set[0], tt.first)
			}
		})
	}

	var set ProviderSet
	if err := set.Scan(42); err == nil {
		t.Error("scanning an int must fail")
	}
}

func TestProviderSetValue(t *testing.T) {
	set := ProviderSet{ProviderLocal, ProviderGoogle}

	v, err := set.Value()
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}
	if v != "LOCAL,GOOGLE" {
		t.Errorf("Value() = %v, want LOCAL,GOOGLE", v)
	}
}

func TestUserHasPassword(t *testing.T) {
	hash := "$2a$10$abcdefg"
	empty := ""

	tests := []struct {
		name string
		user User
		want bool
	}{
		{"with hash", User{PasswordHash: &hash}, true},
		{"nil hash", User{}, false},
		{"empty hash", User{PasswordHash: &empty}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.HasPassword(); got != tt.want {
				t.Errorf("HasPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}
