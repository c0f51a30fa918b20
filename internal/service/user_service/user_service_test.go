package user_service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
	"usermanager/internal/apperr"
	"usermanager/internal/cache"
	"usermanager/internal/models"
	"usermanager/internal/repository/repomock"
	"usermanager/internal/storage/avatar"
	"usermanager/pkg/hash"
	"usermanager/pkg/logger"
	"usermanager/pkg/validators"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

type fakeAvatars struct {
	url string
	err error
}

func (f *fakeAvatars) Put(_ context.Context, _ uuid.UUID, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	_, _ = io.ReadAll(r)
	return f.url, nil
}

var adminID = uuid.MustParse("9b2f6c1e-4a3d-4e8f-b1c2-d3e4f5a6b7c8")

func setup(t *testing.T, c cache.Cache, store avatar.Store) (*userService, *repomock.UserRepository) {
	repo := &repomock.UserRepository{}
	// права администратора сверяются с его записью
	repo.On("GetByID", mock.Anything, adminID).
		Return(&models.User{ID: adminID, Email: "admin@example.com", Role: models.RoleAdmin, Status: models.StatusActive}, nil).
		Maybe()
	svc := New(repo, c, store, nil, logger.Discard()).(*userService)
	svc.now = func() time.Time { return fixedNow }
	t.Cleanup(func() { repo.AssertExpectations(t) })
	return svc, repo
}

func admin() *models.CurrentUser {
	return &models.CurrentUser{ID: adminID, Email: "admin@example.com", Role: models.RoleAdmin, Status: models.StatusActive}
}

func member() *models.CurrentUser {
	return &models.CurrentUser{ID: uuid.New(), Email: "user@example.com", Role: models.RoleUser, Status: models.StatusActive}
}

func ptr[T any](v T) *T { return &v }

func requireAppError(t *testing.T, err error, code int, errType string) {
	t.Helper()
	var ae *apperr.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, code, ae.Code)
	assert.Equal(t, errType, ae.Type)
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var ve *validators.ValidationErrorResponse
	require.ErrorAs(t, err, &ve)
	fields := make([]string, 0, len(ve.Errors))
	for _, e := range ve.Errors {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, field)
}

func TestListBuildsPagination(t *testing.T) {
	svc, repo := setup(t, nil, nil)
	q := models.ListUsersQuery{Page: 1, Limit: 10, Role: models.RoleAdmin}
	john := &models.User{ID: uuid.New(), Name: "John Doe", Role: models.RoleAdmin, Status: models.StatusActive}

	repo.On("List", mock.Anything, q).Return([]*models.User{john}, 1, nil)

	list, err := svc.List(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, list.Users, 1)
	assert.Equal(t, "John Doe", list.Users[0].Name)
	assert.Equal(t, 1, list.Pagination.Total)
	assert.Equal(t, 1, list.Pagination.TotalPages)
	assert.Equal(t, 10, list.Pagination.Limit)
}

func TestListEmptyIsNotNil(t *testing.T) {
	svc, repo := setup(t, nil, nil)
	q := models.ListUsersQuery{Page: 3, Limit: 20}
	repo.On("List", mock.Anything, q).Return(nil, 0, nil)

	list, err := svc.List(context.Background(), q)
	require.NoError(t, err)
	assert.NotNil(t, list.Users)
	assert.Empty(t, list.Users)
	assert.Equal(t, 0, list.Pagination.TotalPages)
}

func TestListValidation(t *testing.T) {
	tests := []struct {
		name  string
		query models.ListUsersQuery
		field string
	}{
		{name: "limit больше 100", query: models.ListUsersQuery{Page: 1, Limit: 101}, field: "limit"},
		{name: "limit 0", query: models.ListUsersQuery{Page: 1, Limit: 0}, field: "limit"},
		{name: "page 0", query: models.ListUsersQuery{Page: 0, Limit: 20}, field: "page"},
		{name: "неизвестная роль", query: models.ListUsersQuery{Page: 1, Limit: 20, Role: "root"}, field: "role"},
		{name: "неизвестный статус", query: models.ListUsersQuery{Page: 1, Limit: 20, Status: "banned"}, field: "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setup(t, nil, nil)
			_, err := svc.List(context.Background(), tt.query)
			requireValidation(t, err, tt.field)
		})
	}
}

func TestGetNotFound(t *testing.T) {
	svc, repo := setup(t, nil, nil)
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, nil)

	_, err := svc.Get(context.Background(), id)
	requireAppError(t, err, http.StatusNotFound, apperr.TypeUserNotFound)
}

func TestCreate(t *testing.T) {
	svc, repo := setup(t, nil, nil)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "jane@example.com" &&
			u.Name == "Jane Doe" &&
			u.Role == models.RoleUser &&
			u.Status == models.StatusActive &&
			u.CreatedAt.Equal(fixedNow) &&
			hash.CheckPasswordHash("securepwd1", u.PasswordHashed)
	})).Return(nil)

	user, err := svc.Create(context.Background(), admin(), &models.CreateUserRequest{
		Name:     "Jane Doe",
		Email:    " Jane@Example.com",
		Password: "securepwd1",
		Role:     models.RoleUser,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
}

func TestAdminRightsAreCheckedAgainstCurrentRecord(t *testing.T) {
	newReq := func() *models.CreateUserRequest {
		return &models.CreateUserRequest{Name: "Jane Doe", Email: "jane@example.com", Password: "securepwd1", Role: models.RoleUser}
	}

	tests := []struct {
		name     string
		current  *models.User
		wantCode int
		wantType string
	}{
		{name: "роль снята после выдачи токена", current: &models.User{Role: models.RoleUser, Status: models.StatusActive}, wantCode: http.StatusForbidden, wantType: apperr.TypeForbidden},
		{name: "деактивирован после выдачи токена", current: &models.User{Role: models.RoleAdmin, Status: models.StatusInactive}, wantCode: http.StatusForbidden, wantType: apperr.TypeForbidden},
		{name: "удален после выдачи токена", current: nil, wantCode: http.StatusUnauthorized, wantType: apperr.TypeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := setup(t, nil, nil)
			actor := &models.CurrentUser{ID: uuid.New(), Role: models.RoleAdmin, Status: models.StatusActive}
			repo.On("GetByID", mock.Anything, actor.ID).Return(tt.current, nil)

			_, err := svc.Create(context.Background(), actor, newReq())
			requireAppError(t, err, tt.wantCode, tt.wantType)

			_, err = svc.Delete(context.Background(), actor, uuid.New())
			requireAppError(t, err, tt.wantCode, tt.wantType)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("api ключ не требует записи", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := svc.Create(context.Background(), &models.CurrentUser{Role: models.RoleAdmin, APIKey: true}, newReq())
		require.NoError(t, err)
	})
}

func TestCreateRejects(t *testing.T) {
	t.Run("не администратор", func(t *testing.T) {
		svc, _ := setup(t, nil, nil)
		_, err := svc.Create(context.Background(), member(), &models.CreateUserRequest{})
		requireAppError(t, err, http.StatusForbidden, apperr.TypeForbidden)
	})

	t.Run("короткий пароль", func(t *testing.T) {
		svc, _ := setup(t, nil, nil)
		_, err := svc.Create(context.Background(), admin(), &models.CreateUserRequest{
			Name: "Jane", Email: "jane@example.com", Password: "short",
		})
		requireValidation(t, err, "password")
	})

	t.Run("занятый email", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		repo.On("Create", mock.Anything, mock.Anything).Return(apperr.EmailExists("test"))

		_, err := svc.Create(context.Background(), admin(), &models.CreateUserRequest{
			Name: "Jane", Email: "jane@example.com", Password: "securepwd1",
		})
		requireAppError(t, err, http.StatusConflict, apperr.TypeEmailExists)
	})
}

func TestUpdate(t *testing.T) {
	svc, repo := setup(t, nil, nil)
	id := uuid.New()
	existing := &models.User{ID: id, Name: "Old", Role: models.RoleUser, Status: models.StatusPending}

	repo.On("GetByID", mock.Anything, id).Return(existing, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Name == "New" && u.Status == models.StatusActive && u.Role == models.RoleUser
	})).Return(nil)

	user, err := svc.Update(context.Background(), admin(), id, &models.UpdateUserRequest{
		Name:    ptr(" New "),
		Status:  ptr(models.StatusActive),
		Profile: &models.ProfileInput{Location: ptr("Berlin")},
	})
	require.NoError(t, err)
	require.NotNil(t, user.Profile)
	assert.Equal(t, "Berlin", *user.Profile.Location)
	assert.Equal(t, fixedNow, user.UpdatedAt)
}

func TestUpdateRejects(t *testing.T) {
	t.Run("пустое тело", func(t *testing.T) {
		svc, _ := setup(t, nil, nil)
		_, err := svc.Update(context.Background(), admin(), uuid.New(), &models.UpdateUserRequest{})
		requireAppError(t, err, http.StatusBadRequest, apperr.TypeValidation)
	})

	t.Run("неизвестная роль", func(t *testing.T) {
		svc, _ := setup(t, nil, nil)
		_, err := svc.Update(context.Background(), admin(), uuid.New(), &models.UpdateUserRequest{Role: ptr(models.Role("root"))})
		requireValidation(t, err, "role")
	})

	t.Run("админ понижает себя", func(t *testing.T) {
		svc, _ := setup(t, nil, nil)
		actor := admin()

		_, err := svc.Update(context.Background(), actor, actor.ID, &models.UpdateUserRequest{Role: ptr(models.RoleUser)})
		requireAppError(t, err, http.StatusForbidden, apperr.TypeForbidden)
	})

	t.Run("админ деактивирует себя", func(t *testing.T) {
		svc, _ := setup(t, nil, nil)
		actor := admin()

		_, err := svc.Update(context.Background(), actor, actor.ID, &models.UpdateUserRequest{Status: ptr(models.StatusInactive)})
		requireAppError(t, err, http.StatusForbidden, apperr.TypeForbidden)
	})

	t.Run("последний администратор", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).
			Return(&models.User{ID: id, Role: models.RoleAdmin, Status: models.StatusActive}, nil)
		repo.On("CountAdmins", mock.Anything).Return(1, nil)

		_, err := svc.Update(context.Background(), admin(), id, &models.UpdateUserRequest{Role: ptr(models.RoleUser)})
		requireAppError(t, err, http.StatusForbidden, apperr.TypeForbidden)
	})

	t.Run("последний активный при неактивном администраторе", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).
			Return(&models.User{ID: id, Role: models.RoleAdmin, Status: models.StatusActive}, nil)
		// неактивный администратор в базе есть, но в счетчик не попадает
		repo.On("CountAdmins", mock.Anything).Return(1, nil)

		_, err := svc.Update(context.Background(), admin(), id, &models.UpdateUserRequest{Status: ptr(models.StatusInactive)})
		requireAppError(t, err, http.StatusForbidden, apperr.TypeForbidden)
	})

	t.Run("параллельное понижение отклонено базой", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).
			Return(&models.User{ID: id, Role: models.RoleAdmin, Status: models.StatusActive}, nil)
		repo.On("CountAdmins", mock.Anything).Return(2, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(apperr.LastAdmin("user_repository.Update"))

		_, err := svc.Update(context.Background(), admin(), id, &models.UpdateUserRequest{Role: ptr(models.RoleUser)})
		requireAppError(t, err, http.StatusForbidden, apperr.TypeForbidden)
	})

	t.Run("не найден", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(nil, nil)

		_, err := svc.Update(context.Background(), admin(), id, &models.UpdateUserRequest{Name: ptr("x")})
		requireAppError(t, err, http.StatusNotFound, apperr.TypeUserNotFound)
	})
}

func TestDelete(t *testing.T) {
	svc, repo := setup(t, nil, nil)
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(&models.User{ID: id, Role: models.RoleUser}, nil)
	repo.On("SoftDelete", mock.Anything, id, fixedNow).Return(true, nil)

	result, err := svc.Delete(context.Background(), admin(), id)
	require.NoError(t, err)
	assert.Equal(t, id, result.ID)
	assert.Equal(t, fixedNow, result.DeletedAt)
}

func TestDeleteRejects(t *testing.T) {
	t.Run("себя", func(t *testing.T) {
		svc, _ := setup(t, nil, nil)
		actor := admin()
		_, err := svc.Delete(context.Background(), actor, actor.ID)
		requireAppError(t, err, http.StatusForbidden, apperr.TypeForbidden)
	})

	t.Run("уже удален", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&models.User{ID: id, Role: models.RoleUser}, nil)
		repo.On("SoftDelete", mock.Anything, id, fixedNow).Return(false, nil)

		_, err := svc.Delete(context.Background(), admin(), id)
		requireAppError(t, err, http.StatusNotFound, apperr.TypeUserNotFound)
	})

	t.Run("обычный пользователь", func(t *testing.T) {
		svc, _ := setup(t, nil, nil)
		_, err := svc.Delete(context.Background(), member(), uuid.New())
		requireAppError(t, err, http.StatusForbidden, apperr.TypeForbidden)
	})

	t.Run("последний активный администратор", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).
			Return(&models.User{ID: id, Role: models.RoleAdmin, Status: models.StatusActive}, nil)
		repo.On("CountAdmins", mock.Anything).Return(1, nil)

		_, err := svc.Delete(context.Background(), admin(), id)
		requireAppError(t, err, http.StatusForbidden, apperr.TypeForbidden)
	})

	t.Run("неактивный администратор удаляется без проверки", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).
			Return(&models.User{ID: id, Role: models.RoleAdmin, Status: models.StatusInactive}, nil)
		repo.On("SoftDelete", mock.Anything, id, fixedNow).Return(true, nil)

		_, err := svc.Delete(context.Background(), admin(), id)
		require.NoError(t, err)
	})

	t.Run("параллельное удаление отклонено базой", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).
			Return(&models.User{ID: id, Role: models.RoleAdmin, Status: models.StatusActive}, nil)
		repo.On("CountAdmins", mock.Anything).Return(2, nil)
		repo.On("SoftDelete", mock.Anything, id, fixedNow).Return(false, apperr.LastAdmin("user_repository.SoftDelete"))

		_, err := svc.Delete(context.Background(), admin(), id)
		requireAppError(t, err, http.StatusForbidden, apperr.TypeForbidden)
	})
}

func TestStatsUsesWeekWindow(t *testing.T) {
	svc, repo := setup(t, nil, nil)
	stats := models.NewUserStats()
	stats.Total = 3
	repo.On("Stats", mock.Anything, fixedNow.Add(-7*24*time.Hour)).Return(stats, nil)

	got, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, got.Total)
}

func TestProfile(t *testing.T) {
	t.Run("api ключ", func(t *testing.T) {
		svc, _ := setup(t, nil, nil)
		_, err := svc.Profile(context.Background(), &models.CurrentUser{Role: models.RoleAdmin, APIKey: true})
		requireAppError(t, err, http.StatusForbidden, apperr.TypeForbidden)
	})

	t.Run("обновление", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		actor := member()
		repo.On("GetByID", mock.Anything, actor.ID).Return(&models.User{ID: actor.ID, Name: "Old"}, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(nil)

		user, err := svc.UpdateProfile(context.Background(), actor, &models.UpdateProfileRequest{
			Profile: &models.ProfileInput{Bio: ptr("Hello")},
		})
		require.NoError(t, err)
		assert.Equal(t, "Hello", *user.Profile.Bio)
	})

	t.Run("пустое обновление", func(t *testing.T) {
		svc, _ := setup(t, nil, nil)
		_, err := svc.UpdateProfile(context.Background(), member(), &models.UpdateProfileRequest{})
		requireAppError(t, err, http.StatusBadRequest, apperr.TypeValidation)
	})
}

func TestSetAvatar(t *testing.T) {
	t.Run("свой аватар", func(t *testing.T) {
		svc, repo := setup(t, nil, &fakeAvatars{url: "https://cdn.example.com/avatars/a.png"})
		actor := member()
		repo.On("GetByID", mock.Anything, actor.ID).Return(&models.User{ID: actor.ID}, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(nil)

		user, err := svc.SetAvatar(context.Background(), actor, actor.ID, strings.NewReader("img"))
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/avatars/a.png", *user.Profile.AvatarURL)
	})

	t.Run("чужой аватар", func(t *testing.T) {
		svc, _ := setup(t, nil, &fakeAvatars{})
		_, err := svc.SetAvatar(context.Background(), member(), uuid.New(), strings.NewReader("img"))
		requireAppError(t, err, http.StatusForbidden, apperr.TypeForbidden)
	})

	t.Run("неподдерживаемый формат", func(t *testing.T) {
		svc, repo := setup(t, nil, &fakeAvatars{err: avatar.ErrUnsupportedType})
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&models.User{ID: id}, nil)

		_, err := svc.SetAvatar(context.Background(), admin(), id, strings.NewReader("img"))
		requireValidation(t, err, "avatar")
	})

	t.Run("хранилище не настроено", func(t *testing.T) {
		svc, _ := setup(t, nil, nil)
		_, err := svc.SetAvatar(context.Background(), admin(), uuid.New(), strings.NewReader("img"))
		requireAppError(t, err, http.StatusServiceUnavailable, apperr.TypeInternal)
	})

	t.Run("ошибка хранилища", func(t *testing.T) {
		svc, repo := setup(t, nil, &fakeAvatars{err: errors.New("s3 down")})
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&models.User{ID: id}, nil)

		_, err := svc.SetAvatar(context.Background(), admin(), id, strings.NewReader("img"))
		requireAppError(t, err, http.StatusInternalServerError, apperr.TypeInternal)
	})
}

func TestEnsureAdmin(t *testing.T) {
	t.Run("администратор уже есть", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		repo.On("CountAdmins", mock.Anything).Return(2, nil)
		assert.NoError(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "securepwd1", "Admin"))
	})

	t.Run("создание", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		repo.On("CountAdmins", mock.Anything).Return(0, nil)
		repo.On("GetByEmail", mock.Anything, "admin@example.com").Return(nil, nil)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.IsAdmin() && u.IsActive() && u.Email == "admin@example.com"
		})).Return(nil)

		assert.NoError(t, svc.EnsureAdmin(context.Background(), "Admin@Example.com", "securepwd1", "Admin"))
	})

	t.Run("повышение существующего", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		existing := &models.User{ID: uuid.New(), Email: "admin@example.com", Role: models.RoleUser, Status: models.StatusPending}
		repo.On("CountAdmins", mock.Anything).Return(0, nil)
		repo.On("GetByEmail", mock.Anything, "admin@example.com").Return(existing, nil)
		repo.On("Update", mock.Anything, existing).Return(nil)

		require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "securepwd1", "Admin"))
		assert.True(t, existing.IsAdmin())
		assert.True(t, existing.IsActive())
	})

	t.Run("остались только неактивные администраторы", func(t *testing.T) {
		svc, repo := setup(t, nil, nil)
		existing := &models.User{ID: uuid.New(), Email: "admin@example.com", Role: models.RoleAdmin, Status: models.StatusInactive}
		repo.On("CountAdmins", mock.Anything).Return(0, nil)
		repo.On("GetByEmail", mock.Anything, "admin@example.com").Return(existing, nil)
		repo.On("Update", mock.Anything, existing).Return(nil)

		require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@example.com", "securepwd1", "Admin"))
		assert.True(t, existing.IsActive())
	})

	t.Run("не настроен", func(t *testing.T) {
		svc, _ := setup(t, nil, nil)
		assert.NoError(t, svc.EnsureAdmin(context.Background(), "", "", ""))
	})
}

func TestCacheIsInvalidatedAfterMutation(t *testing.T) {
	srv := miniredis.RunT(t)
	c := cache.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}), time.Minute, logger.Discard(), nil)
	t.Cleanup(func() { c.Close() })

	svc, repo := setup(t, c, nil)
	q := models.ListUsersQuery{Page: 1, Limit: 20}

	// первый List идет в базу, второй берется из кеша
	repo.On("List", mock.Anything, q).Return([]*models.User{{ID: uuid.New(), Name: "John"}}, 1, nil).Once()
	_, err := svc.List(context.Background(), q)
	require.NoError(t, err)
	_, err = svc.List(context.Background(), q)
	require.NoError(t, err)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	_, err = svc.Create(context.Background(), admin(), &models.CreateUserRequest{
		Name: "Jane Doe", Email: "jane@example.com", Password: "securepwd1", Role: models.RoleUser,
	})
	require.NoError(t, err)

	// после создания список читается заново
	repo.On("List", mock.Anything, q).Return([]*models.User{{Name: "John"}, {Name: "Jane Doe"}}, 2, nil).Once()
	list, err := svc.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Pagination.Total)
}

func TestListFetchedDuringInvalidateIsNotCached(t *testing.T) {
	srv := miniredis.RunT(t)
	c := cache.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}), time.Minute, logger.Discard(), nil)
	t.Cleanup(func() { c.Close() })

	svc, repo := setup(t, c, nil)
	ctx := context.Background()
	q := models.ListUsersQuery{Page: 1, Limit: 20}

	// мутация фиксируется, пока первый List читает базу
	repo.On("List", mock.Anything, q).
		Run(func(mock.Arguments) { c.Invalidate(ctx) }).
		Return([]*models.User{{Name: "John"}}, 1, nil).Once()
	repo.On("List", mock.Anything, q).
		Return([]*models.User{{Name: "John"}, {Name: "Jane Doe"}}, 2, nil).Once()

	_, err := svc.List(ctx, q)
	require.NoError(t, err)

	list, err := svc.List(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Pagination.Total)
}

func TestGetFetchedDuringInvalidateIsNotCached(t *testing.T) {
	srv := miniredis.RunT(t)
	c := cache.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}), time.Minute, logger.Discard(), nil)
	t.Cleanup(func() { c.Close() })

	svc, repo := setup(t, c, nil)
	ctx := context.Background()
	id := uuid.New()

	repo.On("GetByID", mock.Anything, id).
		Run(func(mock.Arguments) { c.Invalidate(ctx, id) }).
		Return(&models.User{ID: id, Name: "Old"}, nil).Once()
	repo.On("GetByID", mock.Anything, id).
		Return(&models.User{ID: id, Name: "New"}, nil).Once()

	_, err := svc.Get(ctx, id)
	require.NoError(t, err)

	user, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New", user.Name)
}
