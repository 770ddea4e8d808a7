package service

import (
	"context"
	"testing"

	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockUserRepository) GetAPIKeyByKey(ctx context.Context, key string) (*models.APIKey, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockUserRepository) UpdateAPIKey(ctx context.Context, key *models.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestRegisterUserHashesPassword(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockUsers.On("GetByEmail", mock.Anything, "ana@example.com").Return(nil, repository.ErrNotFound)
	mockUsers.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	svc := NewUserService(mockUsers)

	user := &models.User{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, svc.RegisterUser(context.Background(), user, "sup3rsecret"))

	require.NotEqual(t, "sup3rsecret", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("sup3rsecret")))
	require.Equal(t, models.RoleStoreManager, user.Role)
	require.True(t, user.Active)
}

func TestRegisterUserRejectsDuplicateEmail(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockUsers.On("GetByEmail", mock.Anything, "ana@example.com").Return(&models.User{}, nil)

	svc := NewUserService(mockUsers)

	err := svc.RegisterUser(context.Background(), &models.User{Name: "Ana", Email: "ana@example.com"}, "sup3rsecret")
	require.ErrorIs(t, err, ErrEmailAlreadyExists)
	mockUsers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterUserCollectsViolations(t *testing.T) {
	svc := NewUserService(new(MockUserRepository))

	err := svc.RegisterUser(context.Background(), &models.User{}, "short")
	require.Error(t, err)

	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Len(t, verr.Violations, 3)
}

func TestAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sup3rsecret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	stored := &models.User{
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: string(hash),
		Active:       true,
	}

	mockUsers := new(MockUserRepository)
	mockUsers.On("GetByEmail", mock.Anything, "ana@example.com").Return(stored, nil)
	mockUsers.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrNotFound)

	svc := NewUserService(mockUsers)

	user, err := svc.Authenticate(context.Background(), "ana@example.com", "sup3rsecret")
	require.NoError(t, err)
	require.Equal(t, "Ana", user.Name)

	_, err = svc.Authenticate(context.Background(), "ana@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "sup3rsecret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsInactiveUser(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("sup3rsecret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	stored := &models.User{Email: "ana@example.com", PasswordHash: string(hash), Active: false}

	mockUsers := new(MockUserRepository)
	mockUsers.On("GetByEmail", mock.Anything, "ana@example.com").Return(stored, nil)

	svc := NewUserService(mockUsers)

	_, err = svc.Authenticate(context.Background(), "ana@example.com", "sup3rsecret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestIssueAPIKey(t *testing.T) {
	userID := uuid.New()
	stored := &models.User{Email: "ana@example.com", Active: true}
	stored.ID = userID

	mockUsers := new(MockUserRepository)
	mockUsers.On("GetByID", mock.Anything, userID).Return(stored, nil)
	mockUsers.On("CreateAPIKey", mock.Anything, mock.AnythingOfType("*models.APIKey")).Return(nil)

	svc := NewUserService(mockUsers)

	key, err := svc.IssueAPIKey(context.Background(), userID, "ci-key", models.WriterAuthLevel, 0)
	require.NoError(t, err)
	require.Len(t, key.Key, 64)
	require.Equal(t, models.WriterAuthLevel, key.AuthorizationLevel)
	require.Nil(t, key.ExpiresAt)

	other, err := svc.IssueAPIKey(context.Background(), userID, "second", models.ViewerAuthLevel, 0)
	require.NoError(t, err)
	require.NotEqual(t, key.Key, other.Key)
}
