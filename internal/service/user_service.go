package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles user accounts and API key issuance
type UserService struct {
	users repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// RegisterUser validates and persists a new user with a hashed password
func (s *UserService) RegisterUser(ctx context.Context, user *models.User, password string) error {
	verr := &ValidationError{}
	if user.Name == "" {
		verr.Add("name", "user name is required")
	}
	if err := validate.Var(user.Email, "required,email"); err != nil {
		verr.Add("email", "user email is invalid")
	}
	if len(password) < 8 {
		verr.Add("password", "password must be at least 8 characters")
	}
	if verr.HasViolations() {
		return verr
	}

	if _, err := s.users.GetByEmail(ctx, user.Email); err == nil {
		return ErrEmailAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}
	user.PasswordHash = string(hash)
	if user.Role == "" {
		user.Role = models.RoleStoreManager
	}
	user.Active = true

	return s.users.Create(ctx, user)
}

// Authenticate checks a user's credentials and returns the user on success
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetUser returns a user by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns a page of users with the total count
func (s *UserService) ListUsers(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.users.List(ctx, offset, limit)
}

// UpdateUser updates an existing user
func (s *UserService) UpdateUser(ctx context.Context, user *models.User) error {
	err := s.users.Update(ctx, user)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// DeleteUser removes a user
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	err := s.users.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// IssueAPIKey creates a new API key for a user at the given authorization
// level, optionally expiring after the given duration
func (s *UserService) IssueAPIKey(ctx context.Context, userID uuid.UUID, name string, level models.AuthorizationLevel, ttl time.Duration) (*models.APIKey, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, errors.Wrap(err, "failed to generate API key")
	}

	key := &models.APIKey{
		Key:                hex.EncodeToString(raw),
		Name:               name,
		UserID:             &userID,
		AuthorizationLevel: level,
	}
	if ttl > 0 {
		expires := time.Now().Add(ttl)
		key.ExpiresAt = &expires
	}

	if err := s.users.CreateAPIKey(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}
