package user_handler

import (
	"net/http"
	"usermanager/internal/apperr"
	"usermanager/internal/middleware"
	"usermanager/internal/models"
	"usermanager/internal/service/user_service"
	"usermanager/pkg/logger"
	"usermanager/pkg/request"
	"usermanager/pkg/response"
	"usermanager/pkg/validators"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxAvatarRequest предел тела multipart запроса с аватаром
const maxAvatarRequest = 3 << 20

type userHandler struct {
	service user_service.UserService
	logger  logger.AppLogger
}

func New(r chi.Router, service user_service.UserService, logger logger.AppLogger) {
	if r == nil {
		panic("user_handler.New: получен nil router")
	}

	if service == nil {
		panic("user_handler.New: получен nil service")
	}

	h := &userHandler{
		service: service,
		logger:  logger,
	}

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/stats", h.stats)
		r.Get("/{id}", h.get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.With(middleware.RequireJSONContentType).Post("/", h.create)
			r.With(middleware.RequireJSONContentType).Put("/{id}", h.update)
			r.Delete("/{id}", h.delete)
		})

		r.With(middleware.RequireContentType("multipart/form-data")).Put("/{id}/avatar", h.avatar)
	})
}

func (h *userHandler) list(w http.ResponseWriter, r *http.Request) {
	op := "user_handler.list"

	page, err := request.GetQueryIntOrDefault(r, "page", 1)
	if err != nil {
		response.WriteError(w, validators.Field("page", "number", "Значение должно быть числом", r.URL.Query().Get("page")))
		return
	}
	limit, err := request.GetQueryIntOrDefault(r, "limit", models.DefaultListLimit)
	if err != nil {
		response.WriteError(w, validators.Field("limit", "number", "Значение должно быть числом", r.URL.Query().Get("limit")))
		return
	}
	search, _ := request.GetQueryValueFromRequest(r, "search")
	role, _ := request.GetQueryValueFromRequest(r, "role")
	status, _ := request.GetQueryValueFromRequest(r, "status")

	list, err := h.service.List(r.Context(), models.ListUsersQuery{
		Page:   page,
		Limit:  limit,
		Search: search,
		Role:   models.Role(role),
		Status: models.Status(status),
	})
	if err != nil {
		h.logger.Warn("Ошибка получения списка пользователей", op, "error", err)
		response.WriteError(w, err)
		return
	}

	response.WriteSuccess(w, list, "Пользователи получены")
}

func (h *userHandler) stats(w http.ResponseWriter, r *http.Request) {
	op := "user_handler.stats"

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error(err, op)
		response.WriteError(w, err)
		return
	}

	response.WriteSuccess(w, stats, "Статистика получена")
}

func (h *userHandler) get(w http.ResponseWriter, r *http.Request) {
	op := "user_handler.get"

	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.WriteSuccess(w, user, "Пользователь получен")
}

func (h *userHandler) create(w http.ResponseWriter, r *http.Request) {
	op := "user_handler.create"

	req, err := request.ParseRequestBody[models.CreateUserRequest](r)
	if err != nil {
		response.WriteError(w, apperr.BadRequest(err, "Неверный формат запроса", op))
		return
	}
	if req == nil {
		response.WriteError(w, apperr.BadRequestWithoutError("Неверный формат запроса", op))
		return
	}

	user, err := h.service.Create(r.Context(), middleware.GetCurrentUserFromContext(r.Context()), req)
	if err != nil {
		h.logger.Warn("Пользователь не создан", op, "email", req.Email, "error", err)
		response.WriteError(w, err)
		return
	}

	response.WriteCreated(w, user, "Пользователь создан")
}

func (h *userHandler) update(w http.ResponseWriter, r *http.Request) {
	op := "user_handler.update"

	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}

	req, err := request.ParseRequestBody[models.UpdateUserRequest](r)
	if err != nil {
		response.WriteError(w, apperr.BadRequest(err, "Неверный формат запроса", op))
		return
	}

	user, err := h.service.Update(r.Context(), middleware.GetCurrentUserFromContext(r.Context()), id, req)
	if err != nil {
		h.logger.Warn("Пользователь не обновлен", op, "user_id", id, "error", err)
		response.WriteError(w, err)
		return
	}

	response.WriteSuccess(w, user, "Пользователь обновлен")
}

func (h *userHandler) delete(w http.ResponseWriter, r *http.Request) {
	op := "user_handler.delete"

	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}

	result, err := h.service.Delete(r.Context(), middleware.GetCurrentUserFromContext(r.Context()), id)
	if err != nil {
		h.logger.Warn("Пользователь не удален", op, "user_id", id, "error", err)
		response.WriteError(w, err)
		return
	}

	response.WriteSuccess(w, result, "Пользователь удален")
}

func (h *userHandler) avatar(w http.ResponseWriter, r *http.Request) {
	op := "user_handler.avatar"

	id, ok := h.pathID(w, r, op)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarRequest)
	file, _, err := r.FormFile("avatar")
	if err != nil {
		response.WriteError(w, validators.Field("avatar", "required", "Файл не передан или слишком большой", nil))
		return
	}
	defer file.Close()

	user, err := h.service.SetAvatar(r.Context(), middleware.GetCurrentUserFromContext(r.Context()), id, file)
	if err != nil {
		h.logger.Warn("Аватар не загружен", op, "user_id", id, "error", err)
		response.WriteError(w, err)
		return
	}

	response.WriteSuccess(w, user, "Аватар обновлен")
}

// pathID некорректный id в пути означает, что такого пользователя нет
func (h *userHandler) pathID(w http.ResponseWriter, r *http.Request, op string) (uuid.UUID, bool) {
	id, ok := request.GetUUIDFromRequest(r, "id")
	if !ok {
		response.WriteError(w, apperr.UserNotFound(op))
		return uuid.Nil, false
	}
	return id, true
}
