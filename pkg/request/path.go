package request

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// GetUUIDFromRequest - получение UUID из параметра пути
func GetUUIDFromRequest(r *http.Request, key string) (uuid.UUID, bool) {
	valueStr := chi.URLParam(r, key)
	if valueStr == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(valueStr)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetQueryValueFromRequest - получение query из запроса
func GetQueryValueFromRequest(r *http.Request, key string) (string, bool) {
	value := r.URL.Query()
	return strings.TrimSpace(value.Get(key)), value.Has(key)
}

// GetQueryIntOrDefault - получение int query из запроса.
// Отсутствующее или пустое значение заменяется на def, нечисловое - ошибка.
func GetQueryIntOrDefault(r *http.Request, key string, def int) (int, error) {
	valueStr, ok := GetQueryValueFromRequest(r, key)
	if !ok || valueStr == "" {
		return def, nil
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("параметр %s должен быть целым числом", key)
	}
	return valueInt, nil
}
