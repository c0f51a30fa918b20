// Package servicemock testify-моки сервисов для тестов обработчиков
package servicemock

import (
	"context"
	"io"
	"usermanager/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type UserService struct {
	mock.Mock
}

func (m *UserService) List(ctx context.Context, q models.ListUsersQuery) (*models.UserList, error) {
	args := m.Called(ctx, q)
	l, _ := args.Get(0).(*models.UserList)
	return l, args.Error(1)
}

func (m *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *UserService) Create(ctx context.Context, actor *models.CurrentUser, req *models.CreateUserRequest) (*models.User, error) {
	args := m.Called(ctx, actor, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *UserService) Update(ctx context.Context, actor *models.CurrentUser, id uuid.UUID, req *models.UpdateUserRequest) (*models.User, error) {
	args := m.Called(ctx, actor, id, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *UserService) Delete(ctx context.Context, actor *models.CurrentUser, id uuid.UUID) (*models.DeleteResult, error) {
	args := m.Called(ctx, actor, id)
	d, _ := args.Get(0).(*models.DeleteResult)
	return d, args.Error(1)
}

func (m *UserService) Stats(ctx context.Context) (*models.UserStats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.UserStats)
	return s, args.Error(1)
}

func (m *UserService) Profile(ctx context.Context, actor *models.CurrentUser) (*models.User, error) {
	args := m.Called(ctx, actor)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *UserService) UpdateProfile(ctx context.Context, actor *models.CurrentUser, req *models.UpdateProfileRequest) (*models.User, error) {
	args := m.Called(ctx, actor, req)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *UserService) SetAvatar(ctx context.Context, actor *models.CurrentUser, id uuid.UUID, file io.Reader) (*models.User, error) {
	args := m.Called(ctx, actor, id, file)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *UserService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	return m.Called(ctx, email, password, name).Error(0)
}

type AuthService struct {
	mock.Mock
}

func (m *AuthService) VerifyJwt(token string) (*models.CurrentUser, error) {
	args := m.Called(token)
	u, _ := args.Get(0).(*models.CurrentUser)
	return u, args.Error(1)
}

func (m *AuthService) VerifyAPIKey(key string) (*models.CurrentUser, error) {
	args := m.Called(key)
	u, _ := args.Get(0).(*models.CurrentUser)
	return u, args.Error(1)
}

func (m *AuthService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*models.SessionResponse, error) {
	args := m.Called(ctx, email, password, ipAddress, userAgent)
	s, _ := args.Get(0).(*models.SessionResponse)
	return s, args.Error(1)
}

func (m *AuthService) RefreshToken(ctx context.Context, refreshToken, ipAddress, userAgent string) (*models.SessionResponse, error) {
	args := m.Called(ctx, refreshToken, ipAddress, userAgent)
	s, _ := args.Get(0).(*models.SessionResponse)
	return s, args.Error(1)
}

func (m *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}
