package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"usermanager/internal/models"
	"usermanager/internal/service/servicemock"
	"usermanager/pkg/logger"
	"usermanager/pkg/response"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error
}

// echoUser отвечает 200 и кладет имя текущего пользователя в заголовок
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if u := GetCurrentUserFromContext(r.Context()); u != nil {
		w.Header().Set("X-User", u.Name)
	}
	w.WriteHeader(http.StatusOK)
})

func TestAuthMiddleware(t *testing.T) {
	active := &models.CurrentUser{ID: uuid.New(), Name: "john", Role: models.RoleUser, Status: models.StatusActive}
	inactive := &models.CurrentUser{ID: uuid.New(), Name: "old", Role: models.RoleUser, Status: models.StatusInactive}
	service := &models.CurrentUser{Name: "api-key", Role: models.RoleAdmin, Status: models.StatusActive, APIKey: true}

	auth := &servicemock.AuthService{}
	auth.On("VerifyJwt", "good").Return(active, nil)
	auth.On("VerifyJwt", "inactive").Return(inactive, nil)
	auth.On("VerifyJwt", "bad").Return(nil, errors.New("invalid"))
	auth.On("VerifyAPIKey", "service-key").Return(service, nil)

	h := AuthMiddleware(auth, logger.Discard())(echoUser)

	tests := []struct {
		name     string
		path     string
		headers  map[string]string
		wantCode int
		wantUser string
	}{
		{name: "bearer", path: "/api/v1/users", headers: map[string]string{"Authorization": "Bearer good"}, wantCode: 200, wantUser: "john"},
		{name: "api ключ", path: "/api/v1/users", headers: map[string]string{APIKeyHeader: "service-key"}, wantCode: 200, wantUser: "api-key"},
		{name: "без заголовков", path: "/api/v1/users", wantCode: 401},
		{name: "невалидный токен", path: "/api/v1/users", headers: map[string]string{"Authorization": "Bearer bad"}, wantCode: 401},
		{name: "неактивный", path: "/api/v1/users", headers: map[string]string{"Authorization": "Bearer inactive"}, wantCode: 403},
		{name: "публичный путь", path: "/api/v1/auth/login", wantCode: 200},
		{name: "healthz", path: "/healthz", wantCode: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantUser, rec.Header().Get("X-User"))
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(echoUser)

	serve := func(u *models.CurrentUser) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users", nil)
		if u != nil {
			req = req.WithContext(WithCurrentUser(req.Context(), u))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, serve(&models.CurrentUser{Role: models.RoleAdmin}).Code)

	rec := serve(&models.CurrentUser{Role: models.RoleUser})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, rec).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(nil).Code)
}

func TestRequireJSONContentType(t *testing.T) {
	h := RequireJSONContentType(echoUser)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(2, time.Minute, nil)(echoUser)

	var rec *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
		if i < 2 {
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		}
	}

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body.Code)
	assert.Greater(t, body.RetryAfter, 0)
	assert.LessOrEqual(t, body.RetryAfter, 60)
}

func TestRetryAfterFallsBackToWindow(t *testing.T) {
	assert.Equal(t, 30, retryAfter(http.Header{}, 30*time.Second))

	h := http.Header{}
	h.Set("Retry-After", "12")
	assert.Equal(t, 12, retryAfter(h, time.Minute))
}

func TestCORS(t *testing.T) {
	h := NewCORSMiddleware([]string{"http://admin.example.com"}, logger.Discard()).Handler(echoUser)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users", nil)
	req.Header.Set("Origin", "http://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "http://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-RateLimit-Remaining")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))

	wild := NewCORSMiddleware([]string{"*"}, logger.Discard()).Handler(echoUser)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Origin", "http://any.example.com")
	rec = httptest.NewRecorder()
	wild.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(echoUser).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
