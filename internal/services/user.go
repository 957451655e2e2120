package services

import (
	"context"
	"fmt"

	"github.com/tolkbridge/dispatch/internal/db/models"
	"github.com/tolkbridge/dispatch/internal/logger"
	"github.com/tolkbridge/dispatch/internal/types"
)

// UserStore is the persistence contract for the user directory.
// Implemented by repos.UserRepository.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	ListAvailableTranslators(ctx context.Context) ([]models.User, error)
}

// UserService provides business logic for user operations
type UserService struct {
	users UserStore
}

// NewUserService creates a new user service instance
func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// CreateUser registers a new customer, translator or admin
func (s *UserService) CreateUser(ctx context.Context, req *types.CreateUserRequest) (*models.User, error) {
	user, err := req.ToUser()
	if err != nil {
		return nil, err
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.InfoWithFields("user registered", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role.String(),
	})
	return user, nil
}

// GetUser retrieves a user by id
func (s *UserService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// ListAvailableTranslators returns every translator currently accepting
// offers
func (s *UserService) ListAvailableTranslators(ctx context.Context) ([]models.User, error) {
	return s.users.ListAvailableTranslators(ctx)
}
