package repository

import (
	"database/sql"
	"errors"

	"github.com/gahigi/api/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

type FileRepository interface {
	Create(file *model.File) error
	LatestByUser(userID string) (*model.File, error)
	Delete(id string) error
}

type fileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(file *model.File) error {
	query := `INSERT INTO files (id, user_id, provider, url, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query,
		file.ID,
		file.UserID,
		file.Provider,
		file.URL,
		file.CreatedAt,
	)
	return err
}

func (r *fileRepository) LatestByUser(userID string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`

	err := r.db.Get(file, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}

	return file, err
}

func (r *fileRepository) Delete(id string) error {
	query := `DELETE FROM files WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrFileNotFound
	}

	return nil
}
