package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// APIError любой ответ вне диапазона 2xx
type APIError struct {
	Status     int
	Code       string
	Message    string
	Details    json.RawMessage
	RetryAfter int
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api: HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: HTTP %d %s: %s", e.Status, e.Code, e.Message)
}

// FieldErrors разбирает details ошибки VALIDATION_ERROR в пары поле -> сообщение
func (e *APIError) FieldErrors() map[string]string {
	var details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	if len(e.Details) == 0 || json.Unmarshal(e.Details, &details) != nil {
		return nil
	}
	out := make(map[string]string, len(details))
	for _, d := range details {
		out[d.Field] = d.Message
	}
	return out
}

// IsCode проверяет код ошибки API в цепочке err
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
