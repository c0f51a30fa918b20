package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"usermanager/pkg/logger"
)

const (
	DefaultTimeout = 10 * time.Second
	APIKeyHeader   = "X-API-Key"
)

type Option func(*APIClient)

// WithToken задает bearer токен для всех запросов
func WithToken(token string) Option {
	return func(c *APIClient) { c.token = token }
}

// WithAPIKey задает сервисный ключ, используется когда токен не задан
func WithAPIKey(key string) Option {
	return func(c *APIClient) { c.apiKey = key }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *APIClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithLogger(l logger.AppLogger) Option {
	return func(c *APIClient) { c.logger = l }
}

// APIClient HTTP клиент сервиса пользователей.
// Повторов запросов нет, любая ошибка возвращается вызывающему.
type APIClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     logger.AppLogger
	token      string
	apiKey     string

	Users *UsersService
	Auth  *AuthService
}

// New создает клиент, baseURL указывает на корень API, например http://localhost:8080/api/v1
func New(baseURL string, opts ...Option) (*APIClient, error) {
	op := "client.New"

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s: неподдерживаемая схема %q", op, u.Scheme)
	}

	c := &APIClient{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.httpClient.Transport = &loggingTransport{
		next:   http.DefaultTransport.(*http.Transport).Clone(),
		logger: c.logger,
	}

	c.Users = &UsersService{client: c}
	c.Auth = &AuthService{client: c}
	return c, nil
}

// SetToken заменяет bearer токен, например после входа
func (c *APIClient) SetToken(token string) {
	c.token = token
}

func (c *APIClient) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Close закрывает простаивающие соединения
func (c *APIClient) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *APIClient) endpoint(path string, query url.Values) string {
	s := c.baseURL.String() + path
	if len(query) > 0 {
		s += "?" + query.Encode()
	}
	return s
}

// do выполняет запрос и декодирует успешный ответ в out.
// Ответ вне 2xx превращается в *APIError.
func (c *APIClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := "client.do"

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	case c.apiKey != "":
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: неверный ответ сервера: %w", op, err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Error.Code == "" {
		return apiErr
	}
	apiErr.Code = env.Error.Code
	apiErr.Message = env.Error.Message
	apiErr.Details = env.Error.Details
	apiErr.RetryAfter = env.Error.RetryAfter
	return apiErr
}

// IsUnauthorized true для 401, вызывающий должен заново выполнить вход
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
