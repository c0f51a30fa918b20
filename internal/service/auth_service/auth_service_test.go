package auth_service

import (
	"context"
	"net/http"
	"testing"
	"time"
	"usermanager/internal/apperr"
	"usermanager/internal/cache"
	"usermanager/internal/models"
	"usermanager/internal/repository/repomock"
	"usermanager/pkg/hash"
	"usermanager/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var fixedNow = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*authService, *repomock.UserRepository, *repomock.SessionRepository) {
	return setupWithCache(t, nil)
}

func setupWithCache(t *testing.T, c cache.Cache) (*authService, *repomock.UserRepository, *repomock.SessionRepository) {
	users := &repomock.UserRepository{}
	sessions := &repomock.SessionRepository{}
	svc := New(users, sessions, c, logger.Discard(), Config{
		JwtSecret: testSecret,
		APIKeys:   []string{"service-key-0123456789"},
	}).(*authService)
	svc.now = func() time.Time { return fixedNow }

	t.Cleanup(func() {
		users.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})
	return svc, users, sessions
}

func newUser(t *testing.T, password string, status models.Status) *models.User {
	hashed, err := hash.HashPassword(password)
	require.NoError(t, err)
	return &models.User{
		ID:             uuid.New(),
		Email:          "john@example.com",
		Name:           "John Doe",
		PasswordHashed: hashed,
		Role:           models.RoleAdmin,
		Status:         status,
	}
}

func assertAppError(t *testing.T, err error, code int, errType string) {
	t.Helper()
	var ae *apperr.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, code, ae.Code)
	assert.Equal(t, errType, ae.Type)
}

func TestLoginSuccess(t *testing.T) {
	svc, users, sessions := setup(t)
	user := newUser(t, "securepwd1", models.StatusActive)

	users.On("GetByEmail", mock.Anything, "john@example.com").Return(user, nil)
	sessions.On("CreateAndLogin", mock.Anything, mock.MatchedBy(func(s *models.Session) bool {
		return s.UserID == user.ID &&
			s.IPAddress == "10.0.0.1" &&
			s.ExpiredAt.Equal(fixedNow.Add(DefaultRefreshTTL))
	})).Return(nil)

	resp, err := svc.Login(context.Background(), "  John@Example.com ", "securepwd1", "10.0.0.1", "test")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int(DefaultAccessTTL.Seconds()), resp.ExpiresIn)
	require.NotNil(t, resp.User.LastLoginAt)
	assert.Equal(t, fixedNow, *resp.User.LastLoginAt)

	current, err := svc.VerifyJwt(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)
	assert.True(t, current.IsAdmin())
	assert.False(t, current.APIKey)
}

func TestLoginDropsCachedCard(t *testing.T) {
	srv := miniredis.RunT(t)
	c := cache.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}), time.Minute, logger.Discard(), nil)
	t.Cleanup(func() { c.Close() })

	svc, users, sessions := setupWithCache(t, c)
	user := newUser(t, "securepwd1", models.StatusActive)
	ctx := context.Background()

	// карточка закеширована до входа, без last_login_at
	_, token, _ := c.GetUser(ctx, user.ID)
	c.SetUser(ctx, token, user)

	users.On("GetByEmail", mock.Anything, "john@example.com").Return(user, nil)
	sessions.On("CreateAndLogin", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Login(ctx, "john@example.com", "securepwd1", "10.0.0.1", "test")
	require.NoError(t, err)

	_, _, ok := c.GetUser(ctx, user.ID)
	assert.False(t, ok)
}

func TestLoginFailures(t *testing.T) {
	t.Run("неизвестный email", func(t *testing.T) {
		svc, users, _ := setup(t)
		users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

		_, err := svc.Login(context.Background(), "nobody@example.com", "securepwd1", "", "")
		assertAppError(t, err, http.StatusUnauthorized, apperr.TypeUnauthorized)
	})

	t.Run("неверный пароль", func(t *testing.T) {
		svc, users, _ := setup(t)
		users.On("GetByEmail", mock.Anything, "john@example.com").
			Return(newUser(t, "securepwd1", models.StatusActive), nil)

		_, err := svc.Login(context.Background(), "john@example.com", "wrong-password", "", "")
		assertAppError(t, err, http.StatusUnauthorized, apperr.TypeUnauthorized)
	})

	t.Run("неактивный пользователь", func(t *testing.T) {
		svc, users, _ := setup(t)
		users.On("GetByEmail", mock.Anything, "john@example.com").
			Return(newUser(t, "securepwd1", models.StatusInactive), nil)

		_, err := svc.Login(context.Background(), "john@example.com", "securepwd1", "", "")
		assertAppError(t, err, http.StatusForbidden, apperr.TypeForbidden)
	})
}

func TestRefreshTokenRotates(t *testing.T) {
	svc, users, sessions := setup(t)
	user := newUser(t, "securepwd1", models.StatusActive)
	current := &models.Session{UserID: user.ID, RefreshToken: "old", ExpiredAt: fixedNow.Add(time.Hour)}

	sessions.On("GetByRefreshToken", mock.Anything, "old").Return(current, nil)
	users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	sessions.On("Refresh", mock.Anything, "old", mock.MatchedBy(func(s *models.Session) bool {
		return s.UserID == user.ID && s.RefreshToken != "old"
	})).Return(nil)

	resp, err := svc.RefreshToken(context.Background(), "old", "", "")
	require.NoError(t, err)
	assert.NotEqual(t, "old", resp.RefreshToken)
}

func TestRefreshTokenRejects(t *testing.T) {
	t.Run("неизвестный токен", func(t *testing.T) {
		svc, _, sessions := setup(t)
		sessions.On("GetByRefreshToken", mock.Anything, "x").Return(nil, nil)

		_, err := svc.RefreshToken(context.Background(), "x", "", "")
		assertAppError(t, err, http.StatusUnauthorized, apperr.TypeUnauthorized)
	})

	t.Run("истекший токен удаляется", func(t *testing.T) {
		svc, _, sessions := setup(t)
		sessions.On("GetByRefreshToken", mock.Anything, "x").
			Return(&models.Session{UserID: uuid.New(), RefreshToken: "x", ExpiredAt: fixedNow.Add(-time.Minute)}, nil)
		sessions.On("DeleteByRefreshToken", mock.Anything, "x").Return(nil)

		_, err := svc.RefreshToken(context.Background(), "x", "", "")
		assertAppError(t, err, http.StatusUnauthorized, apperr.TypeUnauthorized)
	})

	t.Run("пользователь удален", func(t *testing.T) {
		svc, users, sessions := setup(t)
		id := uuid.New()
		sessions.On("GetByRefreshToken", mock.Anything, "x").
			Return(&models.Session{UserID: id, RefreshToken: "x", ExpiredAt: fixedNow.Add(time.Hour)}, nil)
		users.On("GetByID", mock.Anything, id).Return(nil, nil)

		_, err := svc.RefreshToken(context.Background(), "x", "", "")
		assertAppError(t, err, http.StatusUnauthorized, apperr.TypeUnauthorized)
	})

	t.Run("повторное использование", func(t *testing.T) {
		svc, users, sessions := setup(t)
		user := newUser(t, "securepwd1", models.StatusActive)
		sessions.On("GetByRefreshToken", mock.Anything, "x").
			Return(&models.Session{UserID: user.ID, RefreshToken: "x", ExpiredAt: fixedNow.Add(time.Hour)}, nil)
		users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		sessions.On("Refresh", mock.Anything, "x", mock.Anything).Return(apperr.Unauthorized("test"))

		_, err := svc.RefreshToken(context.Background(), "x", "", "")
		assertAppError(t, err, http.StatusUnauthorized, apperr.TypeUnauthorized)
	})
}

func TestVerifyJwt(t *testing.T) {
	svc, _, _ := setup(t)
	user := &models.User{ID: uuid.New(), Name: "Jane", Role: models.RoleUser, Status: models.StatusActive}

	token, err := generateJwt(user, fixedNow, time.Minute, testSecret)
	require.NoError(t, err)

	current, err := svc.VerifyJwt(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, current.Role)

	_, err = svc.VerifyJwt("garbage")
	assertAppError(t, err, http.StatusUnauthorized, apperr.TypeUnauthorized)

	forged, err := generateJwt(user, fixedNow, time.Minute, "another-secret-another-secret-000")
	require.NoError(t, err)
	_, err = svc.VerifyJwt(forged)
	assert.Error(t, err)

	svc.now = func() time.Time { return fixedNow.Add(2 * time.Minute) }
	_, err = svc.VerifyJwt(token)
	assert.Error(t, err, "истекший токен")
}

func TestVerifyAPIKey(t *testing.T) {
	svc, _, _ := setup(t)

	current, err := svc.VerifyAPIKey("service-key-0123456789")
	require.NoError(t, err)
	assert.True(t, current.APIKey)
	assert.True(t, current.IsAdmin())
	assert.False(t, current.Is(uuid.Nil))

	_, err = svc.VerifyAPIKey("service-key-wrong")
	assert.Error(t, err)
	_, err = svc.VerifyAPIKey("")
	assert.Error(t, err)
}

func TestLogout(t *testing.T) {
	svc, _, sessions := setup(t)
	sessions.On("DeleteByRefreshToken", mock.Anything, "token").Return(nil)

	assert.NoError(t, svc.Logout(context.Background(), "token"))
}
