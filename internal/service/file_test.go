package service

import (
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/gahigi/api/internal/model"
)

// fakeStorage is an in-memory object store for file service tests.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string]bool)}
}

func (s *fakeStorage) Save(path string, file io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = true
	return nil
}

func (s *fakeStorage) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

func (s *fakeStorage) URL(path string) string {
	return "https://cdn.example.com/" + path
}

func TestProvisionAvatarGravatarFallback(t *testing.T) {
	users := newFakeUserRepository()
	files := &fakeFileRepository{}
	svc := NewFileService(files, users, nil)

	user := &model.User{ID: "user-1", Email: "jane@example.com"}
	if err := users.Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	f, err := svc.ProvisionAvatar(user.ID, user.Email, "")
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if f.Provider != model.FileProviderGravatar {
		t.Errorf("provider = %q, want GRAVATAR", f.Provider)
	}
	if !strings.HasPrefix(f.URL, "https://www.gravatar.com/avatar/") {
		t.Errorf("url = %q", f.URL)
	}

	stored, err := users.ByID(user.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.ProfilePicture == nil || *stored.ProfilePicture != f.URL {
		t.Error("profile picture pointer not updated")
	}
}

func TestProvisionAvatarExternalPicture(t *testing.T) {
	users := newFakeUserRepository()
	files := &fakeFileRepository{}
	svc := NewFileService(files, users, nil)

	user := &model.User{ID: "user-1", Email: "jane@example.com"}
	if err := users.Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	f, err := svc.ProvisionAvatar(user.ID, user.Email, "https://lh3.example.com/photo.jpg")
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if f.Provider != model.FileProviderLink {
		t.Errorf("provider = %q, want LINK", f.Provider)
	}
	if f.URL != "https://lh3.example.com/photo.jpg" {
		t.Errorf("url = %q", f.URL)
	}
}

func TestUploadProfilePictureReplacesPrevious(t *testing.T) {
	users := newFakeUserRepository()
	files := &fakeFileRepository{}
	store := newFakeStorage()
	svc := NewFileService(files, users, store)

	user := &model.User{ID: "user-1", Email: "jane@example.com"}
	if err := users.Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	first, err := svc.UploadProfilePicture(user.ID, "old.png", strings.NewReader("old-bytes"))
	if err != nil {
		t.Fatalf("first upload failed: %v", err)
	}

	second, err := svc.UploadProfilePicture(user.ID, "new.png", strings.NewReader("new-bytes"))
	if err != nil {
		t.Fatalf("second upload failed: %v", err)
	}

	// The replaced object and its record are gone
	firstKey := strings.TrimPrefix(first.URL, store.URL(""))
	if store.objects[firstKey] {
		t.Error("replaced object still in storage")
	}
	if len(store.objects) != 1 {
		t.Errorf("objects in storage = %d, want 1", len(store.objects))
	}

	latest, err := files.LatestByUser(user.ID)
	if err != nil {
		t.Fatalf("latest lookup: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("latest file = %q, want %q", latest.ID, second.ID)
	}
	for _, f := range files.files {
		if f.ID == first.ID {
			t.Error("replaced file record not deleted")
		}
	}

	stored, err := users.ByID(user.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.ProfilePicture == nil || *stored.ProfilePicture != second.URL {
		t.Error("profile picture pointer not updated to new upload")
	}
}

func TestUploadProfilePictureWithoutStorage(t *testing.T) {
	users := newFakeUserRepository()
	files := &fakeFileRepository{}
	svc := NewFileService(files, users, nil)

	_, err := svc.UploadProfilePicture("user-1", "a.png", strings.NewReader("bytes"))
	if err == nil {
		t.Fatal("upload without configured storage must fail")
	}
}
