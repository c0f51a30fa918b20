package middleware

import (
	"mime"
	"net/http"
	"usermanager/internal/apperr"
	"usermanager/pkg/response"
)

// RequireContentType проверяет Content-Type запросов с телом
func RequireContentType(mediaTypes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			op := "middleware.RequireContentType"

			// Проверяем только методы, которые могут иметь тело
			if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
				mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

				matched := false
				for _, mt := range mediaTypes {
					if mediaType == mt {
						matched = true
						break
					}
				}

				if !matched {
					response.WriteError(w, apperr.BadRequestWithoutError("Content-Type должен быть "+mediaTypes[0], op))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireJSONContentType(next http.Handler) http.Handler {
	return RequireContentType("application/json")(next)
}
