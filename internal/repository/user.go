package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/gahigi/api/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByEmail(email string) (*model.User, error)
	Update(user *model.User) error
	SetVerified(id string) error
	UpdatePassword(id, passwordHash string) error
	AddProvider(id, provider string) error
	UpdateProfilePicture(id, url string) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (id, email, password_hash, first_name, last_name, role, providers, verified, profile_picture, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.Providers,
		user.Verified,
		user.ProfilePicture,
		user.CreatedAt,
	)
	if err != nil {
		// Unique constraint violation message differs between SQLite and PostgreSQL
		errStr := err.Error()
		if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value") {
			return ErrDuplicateEmail
		}
		return err
	}

	return nil
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.Get(user, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ByEmail(email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE email = $1`

	err := r.db.Get(user, query, email)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) Update(user *model.User) error {
	query := `UPDATE users SET email = $1, password_hash = $2, first_name = $3, last_name = $4, role = $5, providers = $6, verified = $7, profile_picture = $8 WHERE id = $9`

	_, err := r.db.Exec(query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Role,
		user.Providers,
		user.Verified,
		user.ProfilePicture,
		user.ID,
	)
	return err
}

// SetVerified is a narrow update so concurrent provider or password writes
// are never clobbered by a stale full-row update.
func (r *userRepository) SetVerified(id string) error {
	query := `UPDATE users SET verified = TRUE WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *userRepository) UpdatePassword(id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2`

	result, err := r.db.Exec(query, passwordHash, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (r *userRepository) UpdateProfilePicture(id, url string) error {
	query := `UPDATE users SET profile_picture = $1 WHERE id = $2`

	result, err := r.db.Exec(query, url, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// AddProvider links an auth provider to the user inside a transaction.
// The set-insert is idempotent, so two concurrent links of the same
// provider converge on the same provider set.
func (r *userRepository) AddProvider(id, provider string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	user := &model.User{}
	err = tx.Get(user, `SELECT * FROM users WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	providers := user.Providers.Add(provider)
	_, err = tx.Exec(`UPDATE users SET providers = $1 WHERE id = $2`, providers, id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
