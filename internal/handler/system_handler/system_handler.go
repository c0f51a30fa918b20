package system_handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
	"usermanager/internal/apperr"
	"usermanager/pkg/logger"
	"usermanager/pkg/response"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
)

// Pinger проверка доступности зависимости (БД)
type Pinger interface {
	Ping(ctx context.Context) error
}

type systemHandler struct {
	db      Pinger
	openAPI []byte
	logger  logger.AppLogger
}

type health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func New(r chi.Router, db Pinger, doc *openapi3.T, logger logger.AppLogger) error {
	const op = "system_handler.New"

	raw, err := json.Marshal(doc)
	if err != nil {
		return apperr.Internal(err, op)
	}

	h := &systemHandler{
		db:      db,
		openAPI: raw,
		logger:  logger,
	}

	r.Get("/healthz", h.healthz)
	r.Get("/api/v1/openapi.json", h.openapi)
	return nil
}

func (h *systemHandler) healthz(w http.ResponseWriter, r *http.Request) {
	op := "system_handler.healthz"

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error(err, op)
		response.WriteStatus(w, http.StatusServiceUnavailable, health{Status: "degraded", Database: "unavailable"}, "")
		return
	}

	response.WriteSuccess(w, health{Status: "ok", Database: "ok"}, "")
}

func (h *systemHandler) openapi(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.openAPI)
}
