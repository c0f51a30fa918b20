package auth_handler

import (
	"net/http"
	"time"
	"usermanager/internal/apperr"
	"usermanager/internal/metrics"
	"usermanager/internal/middleware"
	"usermanager/internal/models"
	"usermanager/internal/service/auth_service"
	"usermanager/internal/service/user_service"
	"usermanager/pkg/logger"
	"usermanager/pkg/request"
	"usermanager/pkg/response"

	"github.com/go-chi/chi/v5"
)

type authHandler struct {
	service auth_service.AuthService
	users   user_service.UserService
	logger  logger.AppLogger
}

type Options struct {
	// RateLimit лимит запросов к /auth с одного IP за RateWindow, 0 отключает ограничение
	RateLimit  int
	RateWindow time.Duration
	Metrics    *metrics.Metrics
}

func New(r chi.Router, service auth_service.AuthService, users user_service.UserService, logger logger.AppLogger, opts Options) {
	if r == nil {
		panic("auth_handler.New: получен nil router")
	}

	if service == nil || users == nil {
		panic("auth_handler.New: получен nil service")
	}

	h := &authHandler{
		service: service,
		users:   users,
		logger:  logger,
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(middleware.RateLimit(opts.RateLimit, opts.RateWindow, opts.Metrics))
		}
		r.Get("/profile", h.profile)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireJSONContentType)
			r.Post("/login", h.login)
			r.Post("/refresh-token", h.refreshToken)
			r.Post("/logout", h.logout)
			r.Put("/profile", h.updateProfile)
		})
	})
}

func (a *authHandler) login(w http.ResponseWriter, r *http.Request) {
	op := "auth_handler.login"

	loginReq, err := request.ParseRequestBody[loginRequest](r)
	if err != nil {
		response.WriteError(w, apperr.BadRequest(err, "Неверный формат запроса", op))
		return
	}
	if loginReq == nil {
		response.WriteError(w, apperr.BadRequestWithoutError("Неверный формат запроса", op))
		return
	}

	if err := loginReq.validate(); err != nil {
		response.WriteError(w, err)
		return
	}

	sessionResponse, err := a.service.Login(r.Context(),
		loginReq.Email,
		loginReq.Password,
		r.RemoteAddr,
		r.UserAgent())

	if err != nil {
		a.logger.Warn("Вход не выполнен", op, "email", loginReq.Email, "error", err)
		response.WriteError(w, err)
		return
	}

	a.logger.Info("Вход успешен", op, "email", loginReq.Email)
	response.WriteSuccess(w, sessionResponse, "Вход выполнен")
}

func (a *authHandler) refreshToken(w http.ResponseWriter, r *http.Request) {
	op := "auth_handler.refreshToken"

	refreshTokenReq, err := request.ParseRequestBody[refreshTokenRequest](r)
	if err != nil {
		response.WriteError(w, apperr.BadRequest(err, "Неверный формат запроса", op))
		return
	}
	if refreshTokenReq == nil {
		response.WriteError(w, apperr.BadRequestWithoutError("Неверный формат запроса", op))
		return
	}

	if err := refreshTokenReq.validate(op); err != nil {
		response.WriteError(w, err)
		return
	}

	sessionResponse, err := a.service.RefreshToken(r.Context(),
		refreshTokenReq.RefreshToken,
		r.RemoteAddr,
		r.UserAgent())

	if err != nil {
		response.WriteError(w, err)
		return
	}

	a.logger.Info("Refresh token успешен", op, "user_id", sessionResponse.User.ID)
	response.WriteSuccess(w, sessionResponse, "Токен обновлен")
}

func (a *authHandler) logout(w http.ResponseWriter, r *http.Request) {
	op := "auth_handler.logout"

	logoutReq, err := request.ParseRequestBody[refreshTokenRequest](r)
	if err != nil {
		response.WriteError(w, apperr.BadRequest(err, "Неверный формат запроса", op))
		return
	}
	if logoutReq == nil {
		response.WriteError(w, apperr.BadRequestWithoutError("Неверный формат запроса", op))
		return
	}
	if err := logoutReq.validate(op); err != nil {
		response.WriteError(w, err)
		return
	}

	if err := a.service.Logout(r.Context(), logoutReq.RefreshToken); err != nil {
		response.WriteError(w, err)
		return
	}

	response.WriteSuccess(w, nil, "Выход выполнен")
}

func (a *authHandler) profile(w http.ResponseWriter, r *http.Request) {
	user, err := a.users.Profile(r.Context(), middleware.GetCurrentUserFromContext(r.Context()))
	if err != nil {
		response.WriteError(w, err)
		return
	}
	response.WriteSuccess(w, user, "Профиль получен")
}

func (a *authHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	op := "auth_handler.updateProfile"

	req, err := request.ParseRequestBody[models.UpdateProfileRequest](r)
	if err != nil {
		response.WriteError(w, apperr.BadRequest(err, "Неверный формат запроса", op))
		return
	}

	user, err := a.users.UpdateProfile(r.Context(), middleware.GetCurrentUserFromContext(r.Context()), req)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.WriteSuccess(w, user, "Профиль обновлен")
}
