package model

import (
	"time"
)

type Token struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"` // one of the TokenRole* constants
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

const (
	TokenRoleAccountVerification = "ACCOUNT_VERIFICATION"
	TokenRoleAccountRecovery     = "ACCOUNT_RECOVERY"
	TokenRoleNonce               = "NONCE"
)
