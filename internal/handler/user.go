package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gahigi/api/internal/ctxkeys"
	"github.com/gahigi/api/internal/service"
	"github.com/gahigi/api/internal/validation"
)

type userHandler struct {
	userService *service.UserService
	fileService *service.FileService
}

func NewUserHandler(userService *service.UserService, fileService *service.FileService) *userHandler {
	return &userHandler{
		userService: userService,
		fileService: fileService,
	}
}

// Me handles GET /user/me
func (h *userHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	respondJSON(w, http.StatusOK, user)
}

// PublicProfile handles GET /user/{id}
func (h *userHandler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	profile, err := h.userService.PublicProfileByID(id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		slog.Error("failed to fetch public profile", "error", err, "user_id", id)
		respondError(w, http.StatusInternalServerError, "an error occurred, please try again")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// UploadAvatar handles POST /user/avatar
func (h *userHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := r.ParseMultipartForm(10 << 20)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	err = validation.ValidateFile(header, validation.ImageConstraints)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	stored, err := h.fileService.UploadProfilePicture(user.ID, header.Filename, file)
	if err != nil {
		slog.Error("avatar upload failed", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	respondJSON(w, http.StatusOK, stored)
}
