package client

import (
	"net/http"
	"time"
	"usermanager/pkg/logger"
)

type loggingTransport struct {
	next   http.RoundTripper
	logger logger.AppLogger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	op := "client.RoundTrip"
	start := time.Now()

	t.logger.Debug("API запрос", "op", op, "method", req.Method, "url", req.URL.String())

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.Error(err, op, "method", req.Method, "url", req.URL.String())
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.logger.Warn("API ошибка", op,
			"method", req.Method,
			"url", req.URL.String(),
			"status", resp.StatusCode,
			"duration", time.Since(start).String())
	}
	return resp, nil
}

func (t *loggingTransport) CloseIdleConnections() {
	if c, ok := t.next.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}
