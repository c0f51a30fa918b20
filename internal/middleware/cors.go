package middleware

import (
	"net/http"
	"strings"
	"usermanager/pkg/logger"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

var (
	corsAllowMethods  = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}, ", ")
	corsAllowHeaders  = strings.Join([]string{"Content-Type", "Authorization", "X-Requested-With", APIKeyHeader}, ", ")
	corsExposeHeaders = strings.Join([]string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After", "X-Request-Id"}, ", ")
)

// CORSMiddleware пропускает браузерные запросы админки с разрешенных origin
type CORSMiddleware struct {
	origins  map[string]struct{}
	wildcard bool
	logger   logger.AppLogger
}

func NewCORSMiddleware(allowedOrigins []string, logger logger.AppLogger) *CORSMiddleware {
	c := &CORSMiddleware{
		origins: make(map[string]struct{}, len(allowedOrigins)),
		logger:  logger,
	}
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			c.wildcard = true
		default:
			c.origins[o] = struct{}{}
		}
	}
	return c
}

func (c *CORSMiddleware) allowed(origin string) bool {
	_, ok := c.origins[origin]
	return ok
}

func (c *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op := "middleware.CORS"
		origin := r.Header.Get("Origin")
		h := w.Header()
		h.Add("Vary", "Origin")

		switch {
		case origin == "":
		case c.allowed(origin):
			// credentials только для явно перечисленных origin
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		case c.wildcard:
			h.Set("Access-Control-Allow-Origin", "*")
		default:
			c.logger.Warn("CORS: origin не разрешен", op,
				"origin", origin,
				"request_id", chiMiddleware.GetReqID(r.Context()))
		}

		h.Set("Access-Control-Expose-Headers", corsExposeHeaders)

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
