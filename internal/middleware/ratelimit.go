package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"
	"usermanager/internal/apperr"
	"usermanager/internal/metrics"
	"usermanager/pkg/response"

	"github.com/go-chi/httprate"
)

// RateLimit ограничивает число запросов с одного IP за окно.
// httprate проставляет X-RateLimit-* заголовки, ответ 429 отдается в общем формате ошибок.
func RateLimit(limit int, window time.Duration, m *metrics.Metrics) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			m.ObserveRateLimited()
			response.WriteError(w, apperr.RateLimited(retryAfter(w.Header(), window), "middleware.RateLimit"))
		}),
	)
}

// retryAfter берет значение из Retry-After или X-RateLimit-Reset, иначе длину окна
func retryAfter(h http.Header, window time.Duration) int {
	if v, err := strconv.Atoi(h.Get("Retry-After")); err == nil && v > 0 {
		return v
	}
	if reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		if secs := reset - time.Now().Unix(); secs > 0 {
			return int(secs)
		}
	}
	return int(math.Ceil(window.Seconds()))
}
