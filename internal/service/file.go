package service

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gahigi/api/internal/model"
	"github.com/gahigi/api/internal/repository"
	"github.com/gahigi/api/internal/storage"
	"github.com/google/uuid"
)

// FileService manages user files. Today that means profile pictures:
// provisioned automatically at signup (Gravatar or an external provider's
// picture URL) and replaceable later by an authenticated upload to object
// storage.
type FileService struct {
	fileRepository repository.FileRepository
	userRepository repository.UserRepository
	storage        storage.Storage // nil when object storage is not configured
}

func NewFileService(fileRepository repository.FileRepository, userRepository repository.UserRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepository: fileRepository,
		userRepository: userRepository,
		storage:        storage,
	}
}

// ProvisionAvatar records an avatar for a fresh account. With no external
// picture URL it falls back to a Gravatar identicon derived from the email.
func (s *FileService) ProvisionAvatar(userID, email, pictureURL string) (*model.File, error) {
	provider := model.FileProviderLink
	url := pictureURL
	if url == "" {
		provider = model.FileProviderGravatar
		url = gravatarURL(email)
	}

	return s.saveAvatar(userID, provider, url)
}

// UploadProfilePicture stores an uploaded image in object storage and makes
// it the user's avatar. A previously uploaded avatar is removed afterwards
// so replaced objects don't accumulate in the bucket.
func (s *FileService) UploadProfilePicture(userID, filename string, file io.Reader) (*model.File, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("file storage not configured")
	}

	previous, err := s.fileRepository.LatestByUser(userID)
	if err != nil && !errors.Is(err, repository.ErrFileNotFound) {
		return nil, fmt.Errorf("failed to look up current avatar: %w", err)
	}

	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.New().String(), strings.ToLower(filepath.Ext(filename)))
	err = s.storage.Save(key, file)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	stored, err := s.saveAvatar(userID, model.FileProviderPath, s.storage.URL(key))
	if err != nil {
		return nil, err
	}

	if previous != nil && previous.Provider == model.FileProviderPath {
		s.removeReplacedAvatar(previous)
	}

	return stored, nil
}

// removeReplacedAvatar best-effort removes a superseded upload: the stored
// object first, then its record. A failure leaves an orphaned object or
// row, never a broken avatar.
func (s *FileService) removeReplacedAvatar(previous *model.File) {
	key := strings.TrimPrefix(previous.URL, s.storage.URL(""))
	err := s.storage.Delete(key)
	if err != nil {
		slog.Warn("failed to delete replaced avatar object", "error", err, "file_id", previous.ID)
	}

	err = s.fileRepository.Delete(previous.ID)
	if err != nil {
		slog.Warn("failed to delete replaced avatar record", "error", err, "file_id", previous.ID)
	}
}

func (s *FileService) saveAvatar(userID, provider, url string) (*model.File, error) {
	f := &model.File{
		ID:        uuid.New().String(),
		UserID:    userID,
		Provider:  provider,
		URL:       url,
		CreatedAt: time.Now(),
	}

	err := s.fileRepository.Create(f)
	if err != nil {
		return nil, fmt.Errorf("failed to record file: %w", err)
	}

	err = s.userRepository.UpdateProfilePicture(userID, url)
	if err != nil {
		// The file record exists; the stale pointer just means the old
		// avatar keeps showing until the next update succeeds.
		slog.Warn("failed to update profile picture", "error", err, "user_id", userID)
	}

	return f, nil
}

func gravatarURL(email string) string {
	address := strings.TrimSpace(strings.ToLower(email))
	hash := md5.Sum([]byte(address))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=32&d=identicon&r=PG", hash)
}
