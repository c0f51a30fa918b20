package apperr

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgNotNullViolation     = "23502"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// pgErrors сообщения для кодов SQLSTATE, которые показываются клиенту
var pgErrors = map[string]struct {
	status  int
	errType string
	message string
}{
	pgForeignKeyViolation:  {http.StatusBadRequest, TypeValidation, "Нарушена связь с другой записью"},
	pgNotNullViolation:     {http.StatusBadRequest, TypeValidation, "Обязательное поле не заполнено"},
	pgCheckViolation:       {http.StatusBadRequest, TypeValidation, "Некорректное значение поля"},
	pgSerializationFailure: {http.StatusConflict, TypeConflict, "Конфликт параллельных операций"},
	pgDeadlockDetected:     {http.StatusConflict, TypeConflict, "Конфликт параллельных операций"},
}

// IsUniqueViolation сообщает, нарушено ли ограничение уникальности
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// HandleDBError переводит ошибку pgx в AppError.
// Нарушение уникального индекса по email превращается в EMAIL_EXISTS.
func HandleDBError(err error, op string, entityName string) error {
	if err == nil {
		return nil
	}

	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return NotFound(entityName+" не найден(а)", op)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return New(http.StatusServiceUnavailable, TypeInternal, "Превышено время ожидания БД", op, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return Internal(err, op)
	}

	if pgErr.Code == pgUniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "email") {
			e := EmailExists(op)
			e.Err = err
			return e
		}
		return Conflict(entityName+" уже существует", op, err)
	}

	if m, ok := pgErrors[pgErr.Code]; ok {
		return New(m.status, m.errType, m.message, op, err)
	}
	return Internal(err, op)
}
