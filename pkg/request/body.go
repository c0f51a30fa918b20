package request

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// максимальный размер JSON тела запроса
const maxBodySize = 1 << 20

// ParseRequestBody Универсальная функция распарсить тело запроса, вернуть структуру, с дженериками.
// Пустое тело возвращает nil без ошибки.
func ParseRequestBody[T any](r *http.Request) (*T, error) {
	if r.Method == http.MethodGet {
		return nil, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return nil, fmt.Errorf("Content-Type должен быть application/json")
	}

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении тела запроса: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("тело запроса превышает %d байт", maxBodySize)
	}

	if len(body) == 0 {
		return nil, nil
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("ошибка при парсинге тела запроса: %w", err)
	}
	return &result, nil
}
