package service

import (
	"errors"
	"fmt"

	"github.com/gahigi/api/internal/model"
	"github.com/gahigi/api/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	userRepository repository.UserRepository
	fileService    *FileService
}

func NewUserService(userRepository repository.UserRepository, fileService *FileService) *UserService {
	return &UserService{
		userRepository: userRepository,
		fileService:    fileService,
	}
}

func (s *UserService) ByID(id string) (*model.User, error) {
	user, err := s.userRepository.ByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// PublicProfile is the subset of a user record safe to show other users.
type PublicProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (s *UserService) PublicProfileByID(id string) (*PublicProfile, error) {
	user, err := s.ByID(id)
	if err != nil {
		return nil, err
	}

	return &PublicProfile{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}, nil
}
