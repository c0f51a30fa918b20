// Package repomock testify-моки репозиториев для тестов сервисов
package repomock

import (
	"context"
	"time"
	"usermanager/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *UserRepository) List(ctx context.Context, query models.ListUsersQuery) ([]*models.User, int, error) {
	args := m.Called(ctx, query)
	users, _ := args.Get(0).([]*models.User)
	return users, args.Int(1), args.Error(2)
}

func (m *UserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, deletedAt)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) Stats(ctx context.Context, since time.Time) (*models.UserStats, error) {
	args := m.Called(ctx, since)
	s, _ := args.Get(0).(*models.UserStats)
	return s, args.Error(1)
}

func (m *UserRepository) CountAdmins(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	args := m.Called(ctx, refreshToken)
	s, _ := args.Get(0).(*models.Session)
	return s, args.Error(1)
}

func (m *SessionRepository) DeleteByRefreshToken(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *SessionRepository) Refresh(ctx context.Context, oldRefreshToken string, newSession *models.Session) error {
	return m.Called(ctx, oldRefreshToken, newSession).Error(0)
}

func (m *SessionRepository) CreateAndLogin(ctx context.Context, session *models.Session) error {
	return m.Called(ctx, session).Error(0)
}
