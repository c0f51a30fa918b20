package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Коды ошибок, возвращаемые клиенту в поле error.code
const (
	TypeValidation   = "VALIDATION_ERROR"
	TypeNotFound     = "NOT_FOUND"
	TypeUserNotFound = "USER_NOT_FOUND"
	TypeConflict     = "CONFLICT"
	TypeEmailExists  = "EMAIL_EXISTS"
	TypeUnauthorized = "UNAUTHORIZED"
	TypeForbidden    = "FORBIDDEN"
	TypeRateLimit    = "RATE_LIMIT_EXCEEDED"
	TypeInternal     = "INTERNAL_ERROR"
)

type AppError struct {
	Type       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
	Code       int    `json:"-"`
	Err        error  `json:"-"`
	Op         string `json:"-"`
}

func (e *AppError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetails возвращает копию ошибки с дополнительными деталями
func (e *AppError) WithDetails(details any) *AppError {
	c := *e
	c.Details = details
	return &c
}

// Конструктор
func New(code int, errType, msg, op string, err error) *AppError {
	return &AppError{
		Code:    code,
		Type:    errType,
		Message: msg,
		Op:      op,
		Err:     err,
	}
}

// Типовые ошибки
func NotFound(msg, op string) *AppError {
	return New(http.StatusNotFound, TypeNotFound, msg, op, nil)
}

func UserNotFound(op string) *AppError {
	return New(http.StatusNotFound, TypeUserNotFound, "Пользователь не найден", op, nil)
}

func Internal(err error, op string) *AppError {
	return New(http.StatusInternalServerError, TypeInternal, "Внутренняя ошибка сервера", op, err)
}

func BadRequest(err error, msg, op string) *AppError {
	displayMsg := msg
	if displayMsg == "" && err != nil {
		displayMsg = err.Error()
	}
	return New(http.StatusBadRequest, TypeValidation, displayMsg, op, err)
}

func BadRequestWithoutError(msg, op string) *AppError {
	return BadRequest(nil, msg, op)
}

func Conflict(msg, op string, err error) *AppError {
	return New(http.StatusConflict, TypeConflict, msg, op, err)
}

func EmailExists(op string) *AppError {
	return New(http.StatusConflict, TypeEmailExists, "Пользователь с таким email уже существует", op, nil)
}

func Unauthorized(op string) *AppError {
	return New(http.StatusUnauthorized, TypeUnauthorized, "Не авторизован", op, nil)
}

func Forbidden(msg, op string) *AppError {
	if msg == "" {
		msg = "Доступ запрещен"
	}
	return New(http.StatusForbidden, TypeForbidden, msg, op, nil)
}

// LastAdmin отказ в операции, после которой не останется активного администратора
func LastAdmin(op string) *AppError {
	return Forbidden("Нельзя лишить прав последнего администратора", op)
}

func RateLimited(retryAfter int, op string) *AppError {
	e := New(http.StatusTooManyRequests, TypeRateLimit, "Превышен лимит запросов", op, nil)
	e.RetryAfter = retryAfter
	return e
}

// Хелперы проверки
func IsType(err error, errType string) bool {
	var ae *AppError
	return errors.As(err, &ae) && ae.Type == errType
}
