package model

import (
	"time"
)

// File providers describe where a stored file's URL points to:
// an uploaded object (PATH), an external link (LINK), or a
// generated Gravatar identicon (GRAVATAR).
const (
	FileProviderPath     = "PATH"
	FileProviderLink     = "LINK"
	FileProviderGravatar = "GRAVATAR"
)

type File struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Provider  string    `db:"provider" json:"provider"`
	URL       string    `db:"url" json:"url"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
