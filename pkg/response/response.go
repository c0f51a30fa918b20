package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"usermanager/internal/apperr"
	"usermanager/pkg/validators"
)

// WriteSuccess записывает успешный ответ со статусом 200
func WriteSuccess(w http.ResponseWriter, data any, message string) {
	WriteStatus(w, http.StatusOK, data, message)
}

// WriteCreated записывает ответ 201 на создание ресурса
func WriteCreated(w http.ResponseWriter, data any, message string) {
	WriteStatus(w, http.StatusCreated, data, message)
}

func WriteStatus(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// WriteError записывает ошибку в ответ
func WriteError(w http.ResponseWriter, err error) {
	// Проверяем, является ли ошибка ошибкой валидации
	var validationErr *validators.ValidationErrorResponse
	if errors.As(err, &validationErr) {
		WriteValidationErrors(w, validationErr)
		return
	}

	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		// Неизвестная ошибка - создаем внутреннюю
		appErr = apperr.Internal(err, "response.WriteError")
	}

	if appErr.Code >= http.StatusInternalServerError && appErr.Err != nil {
		slog.Error("internal error", "op", appErr.Op, "error", appErr.Err.Error())
	}

	if appErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(appErr.RetryAfter))
	}

	writeJSON(w, appErr.Code, ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:       appErr.Type,
			Message:    appErr.Message,
			Details:    appErr.Details,
			RetryAfter: appErr.RetryAfter,
		},
	})
}

func WriteValidationErrors(w http.ResponseWriter, validationErr *validators.ValidationErrorResponse) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:    apperr.TypeValidation,
			Message: "Ошибка валидации",
			Details: validationErr.Errors,
		},
	})
}

// writeJSON вспомогательная функция для записи JSON
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err.Error())
	}
}
