package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var secret = []byte("test-secret")

func TestMintAndVerify(t *testing.T) {
	signed, err := Mint("user-1", "Jane", "USER", secret, time.Hour)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	claims, err := Verify(signed, secret)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", claims.UserID)
	}
	if claims.FirstName != "Jane" {
		t.Errorf("FirstName = %q, want Jane", claims.FirstName)
	}
	if claims.Role != "USER" {
		t.Errorf("Role = %q, want USER", claims.Role)
	}
}

func TestVerifyExpired(t *testing.T) {
	signed, err := Mint("user-1", "Jane", "USER", secret, -time.Minute)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	_, err = Verify(signed, secret)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	signed, err := Mint("user-1", "Jane", "USER", secret, time.Hour)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	_, err = Verify(signed, []byte("other-secret"))
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTampered(t *testing.T) {
	signed, err := Mint("user-1", "Jane", "USER", secret, time.Hour)
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	// Flip a character in the payload segment
	parts := strings.Split(signed, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", signed)
	}
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = Verify(tampered, secret)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	for _, signed := range []string{"", "not-a-token", "a.b.c"} {
		_, err := Verify(signed, secret)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): err = %v, want ErrInvalidToken", signed, err)
		}
	}
}
