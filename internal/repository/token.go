package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/gahigi/api/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrTokenNotFound = errors.New("token not found")
)

type TokenRepository interface {
	Create(token *model.Token) error
	Replace(token *model.Token) error
	Find(userID, role, value string) (*model.Token, error)
	Consume(userID, role, value string) (*model.Token, error)
	DeleteExpired(userID, role string) error
}

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(token *model.Token) error {
	fillDefaults(token)

	query := `
		INSERT INTO tokens (id, user_id, role, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(query,
		token.ID,
		token.UserID,
		token.Role,
		token.Token,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return err
}

// Replace deletes all live tokens for (user, role) and inserts the new one
// in a single transaction, so two concurrent issuances can never leave two
// live tokens for the same role.
func (r *tokenRepository) Replace(token *model.Token) error {
	fillDefaults(token)

	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`DELETE FROM tokens WHERE user_id = $1 AND role = $2`, token.UserID, token.Role)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO tokens (id, user_id, role, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		token.ID,
		token.UserID,
		token.Role,
		token.Token,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Find returns the live token matching (user, role, value). Expired tokens
// are treated as absent for every role.
func (r *tokenRepository) Find(userID, role, value string) (*model.Token, error) {
	var t model.Token
	query := `
		SELECT * FROM tokens
		WHERE user_id = $1 AND role = $2 AND token = $3 AND expires_at > $4
	`

	err := r.db.Get(&t, query, userID, role, value, time.Now())
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// Consume atomically deletes and returns the live token matching
// (user, role, value). The DELETE ... RETURNING is a single statement, so
// only one of two racing requests can redeem a token; the loser gets
// ErrTokenNotFound.
func (r *tokenRepository) Consume(userID, role, value string) (*model.Token, error) {
	var t model.Token
	query := `
		DELETE FROM tokens
		WHERE user_id = $1 AND role = $2 AND token = $3 AND expires_at > $4
		RETURNING *
	`

	err := r.db.Get(&t, query, userID, role, value, time.Now())
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// DeleteExpired removes dead tokens for (user, role). Roles issued through
// Create rather than Replace rely on this to keep the table from
// accumulating expired rows.
func (r *tokenRepository) DeleteExpired(userID, role string) error {
	query := `DELETE FROM tokens WHERE user_id = $1 AND role = $2 AND expires_at <= $3`
	_, err := r.db.Exec(query, userID, role, time.Now())
	return err
}

func fillDefaults(token *model.Token) {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
}
