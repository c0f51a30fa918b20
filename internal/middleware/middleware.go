package middleware

import (
	"context"
	"net/http"
	"strings"
	"usermanager/internal/apperr"
	"usermanager/internal/models"
	"usermanager/internal/service/auth_service"
	"usermanager/pkg/logger"
	"usermanager/pkg/response"
)

type contextKey string

const UserContextKey = contextKey("user")

const APIKeyHeader = "X-API-Key"

// AuthMiddleware пропускает публичные пути, остальным требуется Bearer JWT или X-API-Key
func AuthMiddleware(authService auth_service.AuthService, logger logger.AppLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op := "middleware.AuthMiddleware"

			// OPTIONS запросы должны проходить без проверки авторизации
			if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			var (
				currentUser *models.CurrentUser
				err         error
			)

			authHeader := r.Header.Get("Authorization")
			apiKey := r.Header.Get(APIKeyHeader)

			switch {
			case strings.HasPrefix(authHeader, "Bearer "):
				token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
				currentUser, err = authService.VerifyJwt(token)
			case apiKey != "":
				currentUser, err = authService.VerifyAPIKey(apiKey)
			default:
				response.WriteError(w, apperr.Unauthorized(op))
				return
			}

			if err != nil || currentUser == nil {
				logger.Warn("Доступ с невалидными учетными данными", op,
					"path", r.URL.Path,
					"ip", r.RemoteAddr)
				response.WriteError(w, apperr.Unauthorized(op))
				return
			}

			if !currentUser.IsActive() {
				response.WriteError(w, apperr.Forbidden("Учетная запись неактивна", op))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCurrentUser(r.Context(), currentUser)))
		})
	}
}

// RequireAdmin пропускает только администраторов и API ключи
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op := "middleware.RequireAdmin"

		currentUser := GetCurrentUserFromContext(r.Context())
		if currentUser == nil {
			response.WriteError(w, apperr.Unauthorized(op))
			return
		}
		if !currentUser.IsAdmin() {
			response.WriteError(w, apperr.Forbidden("Требуются права администратора", op))
			return
		}
		next.ServeHTTP(w, r)
	})
}

var publicPaths = map[string]struct{}{
	"/healthz":                   {},
	"/api/v1/openapi.json":       {},
	"/api/v1/auth/login":         {},
	"/api/v1/auth/refresh-token": {},
	"/api/v1/auth/logout":        {},
}

func isPublicPath(path string) bool {
	_, ok := publicPaths[path]
	return ok
}

func WithCurrentUser(ctx context.Context, user *models.CurrentUser) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

func GetCurrentUserFromContext(ctx context.Context) *models.CurrentUser {
	if user, ok := ctx.Value(UserContextKey).(*models.CurrentUser); ok {
		return user
	}
	return nil
}
