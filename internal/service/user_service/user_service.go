package user_service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"usermanager/internal/apperr"
	"usermanager/internal/cache"
	"usermanager/internal/metrics"
	"usermanager/internal/models"
	"usermanager/internal/repository/user_repository"
	"usermanager/internal/storage/avatar"
	"usermanager/pkg/hash"
	"usermanager/pkg/logger"
	"usermanager/pkg/response"
	"usermanager/pkg/validators"

	"github.com/google/uuid"
)

// statsWindow период, за который считаются новые пользователи на дашборде
const statsWindow = 7 * 24 * time.Hour

type UserService interface {
	List(ctx context.Context, query models.ListUsersQuery) (*models.UserList, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, actor *models.CurrentUser, req *models.CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, actor *models.CurrentUser, id uuid.UUID, req *models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, actor *models.CurrentUser, id uuid.UUID) (*models.DeleteResult, error)
	Stats(ctx context.Context) (*models.UserStats, error)
	Profile(ctx context.Context, actor *models.CurrentUser) (*models.User, error)
	UpdateProfile(ctx context.Context, actor *models.CurrentUser, req *models.UpdateProfileRequest) (*models.User, error)
	SetAvatar(ctx context.Context, actor *models.CurrentUser, id uuid.UUID, file io.Reader) (*models.User, error)
	EnsureAdmin(ctx context.Context, email, password, name string) error
}

type userService struct {
	repo      user_repository.UserRepository
	cache     cache.Cache
	avatars   avatar.Store
	metrics   *metrics.Metrics
	validator validators.Validator
	logger    logger.AppLogger
	now       func() time.Time
}

// New создает сервис. cache, avatars и metrics могут быть nil:
// без кеша используется заглушка, без хранилища загрузка аватаров отключена.
func New(
	repo user_repository.UserRepository,
	c cache.Cache,
	avatars avatar.Store,
	m *metrics.Metrics,
	logger logger.AppLogger,
) UserService {
	if c == nil {
		c = cache.Noop{}
	}
	return &userService{
		repo:      repo,
		cache:     c,
		avatars:   avatars,
		metrics:   m,
		validator: validators.NewValidator(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *userService) List(ctx context.Context, query models.ListUsersQuery) (*models.UserList, error) {
	op := "UserService.List"

	query.Search = strings.TrimSpace(query.Search)
	if err := s.validator.Validate(query, op); err != nil {
		return nil, err
	}

	cacheKey := "list:" + query.CacheKey()
	var cached models.UserList
	token, ok := s.cache.GetQuery(ctx, cacheKey, &cached)
	if ok {
		return &cached, nil
	}

	users, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}

	result := &models.UserList{
		Users:      users,
		Pagination: response.NewPagination(total, query.Page, query.Limit),
	}
	s.cache.SetQuery(ctx, token, result)

	return result, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	op := "UserService.Get"

	user, token, ok := s.cache.GetUser(ctx, id)
	if ok {
		return user, nil
	}

	user, err := s.load(ctx, id, op)
	if err != nil {
		return nil, err
	}
	s.cache.SetUser(ctx, token, user)

	return user, nil
}

func (s *userService) Create(ctx context.Context, actor *models.CurrentUser, req *models.CreateUserRequest) (user *models.User, err error) {
	op := "UserService.Create"
	defer func() { s.metrics.ObserveUserOperation("create", err) }()

	if err := s.requireAdmin(ctx, actor, "Создавать пользователей может только администратор", op); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperr.BadRequestWithoutError("Пустое тело запроса", op)
	}

	req.Normalize()
	if err := s.validator.Validate(req, op); err != nil {
		return nil, err
	}

	passwordHashed, err := hash.HashPassword(req.Password)
	if err != nil {
		s.logger.Error(err, op)
		return nil, apperr.Internal(err, op)
	}

	now := s.now()
	user = &models.User{
		ID:             uuid.New(),
		Email:          req.Email,
		Name:           req.Name,
		PasswordHashed: passwordHashed,
		Role:           req.Role,
		Status:         req.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	user.ApplyProfile(req.Profile)

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)

	s.logger.Info("Пользователь создан", op,
		"user_id", user.ID,
		"role", user.Role,
		"by", actor.Email)

	return user, nil
}

func (s *userService) Update(ctx context.Context, actor *models.CurrentUser, id uuid.UUID, req *models.UpdateUserRequest) (user *models.User, err error) {
	op := "UserService.Update"
	defer func() { s.metrics.ObserveUserOperation("update", err) }()

	if err := s.requireAdmin(ctx, actor, "Изменять пользователей может только администратор", op); err != nil {
		return nil, err
	}
	if req == nil || req.IsEmpty() {
		return nil, apperr.BadRequestWithoutError("Не указано ни одного поля для обновления", op)
	}

	req.Normalize()
	if err := s.validator.Validate(req, op); err != nil {
		return nil, err
	}

	user, err = s.load(ctx, id, op)
	if err != nil {
		return nil, err
	}

	if actor.Is(id) {
		if req.Role != nil && *req.Role != models.RoleAdmin {
			return nil, apperr.Forbidden("Нельзя снять с себя роль администратора", op)
		}
		if req.Status != nil && *req.Status != models.StatusActive {
			return nil, apperr.Forbidden("Нельзя деактивировать собственную учетную запись", op)
		}
	}

	demotesAdmin := user.IsAdmin() && user.IsActive() &&
		((req.Role != nil && *req.Role != models.RoleAdmin) ||
			(req.Status != nil && *req.Status != models.StatusActive))
	if demotesAdmin {
		if err := s.ensureNotLastAdmin(ctx, op); err != nil {
			return nil, err
		}
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	user.ApplyProfile(req.Profile)
	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)

	s.logger.Info("Пользователь обновлен", op, "user_id", id, "by", actor.Email)
	return user, nil
}

func (s *userService) Delete(ctx context.Context, actor *models.CurrentUser, id uuid.UUID) (result *models.DeleteResult, err error) {
	op := "UserService.Delete"
	defer func() { s.metrics.ObserveUserOperation("delete", err) }()

	if err := s.requireAdmin(ctx, actor, "Удалять пользователей может только администратор", op); err != nil {
		return nil, err
	}
	if actor.Is(id) {
		return nil, apperr.Forbidden("Нельзя удалить собственную учетную запись", op)
	}

	user, err := s.load(ctx, id, op)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() && user.IsActive() {
		if err := s.ensureNotLastAdmin(ctx, op); err != nil {
			return nil, err
		}
	}

	deletedAt := s.now()
	deleted, err := s.repo.SoftDelete(ctx, id, deletedAt)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, apperr.UserNotFound(op)
	}
	s.cache.Invalidate(ctx, id)

	s.logger.Info("Пользователь удален", op, "user_id", id, "by", actor.Email)
	return &models.DeleteResult{ID: id, DeletedAt: deletedAt}, nil
}

func (s *userService) Stats(ctx context.Context) (*models.UserStats, error) {
	const cacheKey = "stats"

	var cached models.UserStats
	token, ok := s.cache.GetQuery(ctx, cacheKey, &cached)
	if ok {
		return &cached, nil
	}

	stats, err := s.repo.Stats(ctx, s.now().Add(-statsWindow))
	if err != nil {
		return nil, err
	}
	s.cache.SetQuery(ctx, token, stats)

	return stats, nil
}

func (s *userService) Profile(ctx context.Context, actor *models.CurrentUser) (*models.User, error) {
	op := "UserService.Profile"

	if actor == nil {
		return nil, apperr.Unauthorized(op)
	}
	if actor.APIKey {
		return nil, apperr.Forbidden("Профиль доступен только пользователям", op)
	}

	user, err := s.Get(ctx, actor.ID)
	if err != nil {
		if apperr.IsType(err, apperr.TypeUserNotFound) {
			return nil, apperr.Unauthorized(op)
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor *models.CurrentUser, req *models.UpdateProfileRequest) (user *models.User, err error) {
	op := "UserService.UpdateProfile"
	defer func() { s.metrics.ObserveUserOperation("update_profile", err) }()

	if actor == nil {
		return nil, apperr.Unauthorized(op)
	}
	if actor.APIKey {
		return nil, apperr.Forbidden("Профиль доступен только пользователям", op)
	}
	if req == nil || req.IsEmpty() {
		return nil, apperr.BadRequestWithoutError("Не указано ни одного поля для обновления", op)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := s.validator.Validate(req, op); err != nil {
		return nil, err
	}

	user, err = s.load(ctx, actor.ID, op)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	user.ApplyProfile(req.Profile)
	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, user.ID)

	s.logger.Info("Профиль обновлен", op, "user_id", user.ID)
	return user, nil
}

func (s *userService) SetAvatar(ctx context.Context, actor *models.CurrentUser, id uuid.UUID, file io.Reader) (user *models.User, err error) {
	op := "UserService.SetAvatar"
	defer func() { s.metrics.ObserveUserOperation("set_avatar", err) }()

	if !actor.Is(id) {
		if err := s.requireAdmin(ctx, actor, "Можно менять только свой аватар", op); err != nil {
			return nil, err
		}
	}
	if s.avatars == nil {
		return nil, apperr.New(http.StatusServiceUnavailable, apperr.TypeInternal, "Хранилище аватаров не настроено", op, nil)
	}

	user, err = s.load(ctx, id, op)
	if err != nil {
		return nil, err
	}

	url, err := s.avatars.Put(ctx, id, file)
	if err != nil {
		switch {
		case errors.Is(err, avatar.ErrUnsupportedType):
			return nil, validators.Field("avatar", "image", "Допустимые форматы: png, jpeg, webp, gif", nil)
		case errors.Is(err, avatar.ErrTooLarge):
			return nil, validators.Field("avatar", "max", "Файл слишком большой", nil)
		case errors.Is(err, avatar.ErrEmpty):
			return nil, validators.Field("avatar", "required", "Файл не передан", nil)
		}
		s.logger.Error(err, op, "user_id", id)
		return nil, apperr.Internal(err, op)
	}

	user.ApplyProfile(&models.ProfileInput{AvatarURL: &url})
	user.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)

	return user, nil
}

// EnsureAdmin создает первого администратора, если в системе нет ни одного активного.
// Существующий пользователь с тем же email повышается до администратора.
func (s *userService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	op := "UserService.EnsureAdmin"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	admins, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if admins > 0 {
		s.logger.Debug("Активный администратор уже существует", op, "admins", admins)
		return nil
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.Role = models.RoleAdmin
		existing.Status = models.StatusActive
		existing.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, existing); err != nil {
			return err
		}
		s.cache.Invalidate(ctx, existing.ID)
		s.logger.Warn("Пользователь повышен до администратора", op, "user_id", existing.ID)
		return nil
	}

	_, err = s.Create(ctx, &models.CurrentUser{Name: "bootstrap", Role: models.RoleAdmin, APIKey: true}, &models.CreateUserRequest{
		Email:    email,
		Name:     name,
		Password: password,
		Role:     models.RoleAdmin,
		Status:   models.StatusActive,
	})
	if err != nil {
		return err
	}

	s.logger.Warn("Создан администратор по умолчанию", op, "email", email)
	return nil
}

// load читает живого пользователя, отсутствие превращается в USER_NOT_FOUND
func (s *userService) load(ctx context.Context, id uuid.UUID, op string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.UserNotFound(op)
	}
	return user, nil
}

// requireAdmin сверяет права с текущей записью пользователя: роль и статус
// в JWT зафиксированы на момент выдачи. API ключи проверяются только по роли.
func (s *userService) requireAdmin(ctx context.Context, actor *models.CurrentUser, msg, op string) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden(msg, op)
	}
	if actor.APIKey {
		return nil
	}

	current, err := s.Get(ctx, actor.ID)
	if err != nil {
		if apperr.IsType(err, apperr.TypeUserNotFound) {
			return apperr.Unauthorized(op)
		}
		return err
	}
	if !current.IsActive() {
		s.logger.Warn("Токен неактивного пользователя", op, "user_id", actor.ID)
		return apperr.Forbidden("Учетная запись неактивна", op)
	}
	if !current.IsAdmin() {
		s.logger.Warn("Токен с устаревшей ролью администратора", op, "user_id", actor.ID)
		return apperr.Forbidden(msg, op)
	}
	return nil
}

func (s *userService) ensureNotLastAdmin(ctx context.Context, op string) error {
	admins, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return apperr.LastAdmin(op)
	}
	return nil
}
