package auth_service

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
	"usermanager/internal/apperr"
	"usermanager/internal/cache"
	"usermanager/internal/models"
	"usermanager/internal/repository/session_repository"
	"usermanager/internal/repository/user_repository"
	"usermanager/pkg/hash"
	"usermanager/pkg/logger"

	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

type AuthService interface {
	VerifyJwt(tokenString string) (*models.CurrentUser, error)
	VerifyAPIKey(key string) (*models.CurrentUser, error)
	Login(ctx context.Context, email, password, ipAddress, userAgent string) (*models.SessionResponse, error)
	RefreshToken(ctx context.Context, refreshToken, ipAddress, userAgent string) (*models.SessionResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type Config struct {
	JwtSecret  string
	APIKeys    []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type authService struct {
	users    user_repository.UserRepository
	sessions session_repository.SessionRepository
	cache    cache.Cache
	logger   logger.AppLogger
	cfg      Config
	now      func() time.Time
}

// New создает сервис. Через c сбрасывается карточка пользователя после входа, nil отключает кеш.
func New(users user_repository.UserRepository, sessions session_repository.SessionRepository, c cache.Cache, logger logger.AppLogger, cfg Config) AuthService {
	if c == nil {
		c = cache.Noop{}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &authService{
		users:    users,
		sessions: sessions,
		cache:    c,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

func invalidCredentials(op string) *apperr.AppError {
	return apperr.New(http.StatusUnauthorized, apperr.TypeUnauthorized, "Неверный email или пароль", op, nil)
}

func (s *authService) VerifyJwt(tokenString string) (*models.CurrentUser, error) {
	op := "AuthService.VerifyJwt"

	currentUser, err := verifyJwt(tokenString, s.cfg.JwtSecret, s.now())
	if err != nil || currentUser == nil {
		s.logger.Warn("Невалидный JWT токен", op, "error", err)
		return nil, apperr.Unauthorized(op)
	}

	return currentUser, nil
}

// VerifyAPIKey сверяет ключ со всеми настроенными за постоянное время.
// Ключ дает права администратора.
func (s *authService) VerifyAPIKey(key string) (*models.CurrentUser, error) {
	op := "AuthService.VerifyAPIKey"

	matched := 0
	for _, configured := range s.cfg.APIKeys {
		matched |= subtle.ConstantTimeCompare([]byte(key), []byte(configured))
	}

	if key == "" || matched != 1 {
		s.logger.Warn("Неверный API ключ", op)
		return nil, apperr.Unauthorized(op)
	}

	return &models.CurrentUser{
		Name:   "api-key",
		Role:   models.RoleAdmin,
		Status: models.StatusActive,
		APIKey: true,
	}, nil
}

func (s *authService) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*models.SessionResponse, error) {
	op := "AuthService.Login"

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error(err, op, "email", email)
		return nil, err
	}

	// Сравниваем пароль даже для несуществующего email, чтобы время ответа не выдавало наличие учетной записи
	hashToCheck := hash.DummyHash()
	if user != nil {
		hashToCheck = user.PasswordHashed
	}

	if !hash.CheckPasswordHash(password, hashToCheck) || user == nil {
		s.logger.Warn("Неверные учетные данные", op, "email", email)
		return nil, invalidCredentials(op)
	}

	if !user.IsActive() {
		s.logger.Warn("Попытка входа неактивного пользователя", op,
			"user_id", user.ID,
			"status", user.Status)
		return nil, apperr.Forbidden("Учетная запись неактивна", op)
	}

	now := s.now()
	resp, session, err := s.issue(user, now, ipAddress, userAgent)
	if err != nil {
		s.logger.Error(err, op, "user_id", user.ID)
		return nil, apperr.Internal(err, op)
	}

	// Сохраняем сессию и обновляем время входа
	if err := s.sessions.CreateAndLogin(ctx, session); err != nil {
		s.logger.Error(err, op, "user_id", user.ID)
		return nil, err
	}
	user.LastLoginAt = &now
	s.cache.Invalidate(ctx, user.ID)

	s.logger.Info("Успешный вход", op,
		"user_id", user.ID,
		"ip", ipAddress)

	return resp, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken, ipAddress, userAgent string) (*models.SessionResponse, error) {
	op := "AuthService.RefreshToken"

	currentSession, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		s.logger.Error(err, op)
		return nil, err
	}

	if currentSession == nil {
		s.logger.Warn("Сессия не найдена", op)
		return nil, apperr.Unauthorized(op)
	}

	now := s.now()
	if currentSession.IsExpired(now) {
		s.logger.Warn("Refresh token истек", op,
			"user_id", currentSession.UserID,
			"expired_at", currentSession.ExpiredAt)
		if err := s.sessions.DeleteByRefreshToken(ctx, refreshToken); err != nil {
			s.logger.Error(err, op, "user_id", currentSession.UserID)
		}
		return nil, apperr.Unauthorized(op)
	}

	currentUser, err := s.users.GetByID(ctx, currentSession.UserID)
	if err != nil {
		s.logger.Error(err, op, "user_id", currentSession.UserID)
		return nil, err
	}

	if currentUser == nil || !currentUser.IsActive() {
		s.logger.Warn("Обновление токена для удаленного или неактивного пользователя", op,
			"user_id", currentSession.UserID)
		return nil, apperr.Unauthorized(op)
	}

	resp, newSession, err := s.issue(currentUser, now, ipAddress, userAgent)
	if err != nil {
		s.logger.Error(err, op, "user_id", currentUser.ID)
		return nil, apperr.Internal(err, op)
	}

	if err := s.sessions.Refresh(ctx, currentSession.RefreshToken, newSession); err != nil {
		s.logger.Error(err, op, "user_id", currentUser.ID)
		return nil, err
	}

	s.logger.Info("Токен обновлен", op, "user_id", currentUser.ID)

	return resp, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	op := "AuthService.Logout"

	if err := s.sessions.DeleteByRefreshToken(ctx, refreshToken); err != nil {
		s.logger.Error(err, op)
		return err
	}
	return nil
}

// issue выпускает пару access/refresh токенов и сессию под новый refresh token
func (s *authService) issue(user *models.User, now time.Time, ipAddress, userAgent string) (*models.SessionResponse, *models.Session, error) {
	accessToken, err := generateJwt(user, now, s.cfg.AccessTTL, s.cfg.JwtSecret)
	if err != nil {
		return nil, nil, err
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: uuid.NewString(),
		UserAgent:    userAgent,
		IPAddress:    ipAddress,
		ExpiredAt:    now.Add(s.cfg.RefreshTTL),
		CreatedAt:    now,
	}

	return &models.SessionResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    int(s.cfg.AccessTTL.Seconds()),
	}, session, nil
}
