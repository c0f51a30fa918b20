package validators

import (
	"fmt"
	"reflect"
	"strings"
	"usermanager/internal/apperr"

	"github.com/go-playground/validator/v10"
)

// Validator интерфейс для валидации
type Validator interface {
	Validate(i any, op string) error
}

// ValidationError структура ошибки валидации
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag"`
	Value   any    `json:"value,omitempty"`
}

// ValidationErrorResponse ответ с ошибками валидации
type ValidationErrorResponse struct {
	Errors []ValidationError `json:"errors"`
}

func (v *ValidationErrorResponse) Error() string {
	fields := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		fields = append(fields, e.Field)
	}
	return "validation failed: " + strings.Join(fields, ", ")
}

// Field добавляет ошибку по конкретному полю, используется для проверок вне тегов
func Field(field, tag, message string, value any) *ValidationErrorResponse {
	return &ValidationErrorResponse{Errors: []ValidationError{{
		Field:   field,
		Tag:     tag,
		Message: message,
		Value:   value,
	}}}
}

// appValidator реализация валидатора
type appValidator struct {
	validate *validator.Validate
}

// NewValidator создает новый валидатор.
// Имена полей в ошибках берутся из json тегов, чтобы совпадать с телом запроса.
func NewValidator() Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &appValidator{
		validate: v,
	}
}

// Validate проверяет структуру и возвращает ValidationErrorResponse при ошибке
func (av *appValidator) Validate(i any, op string) error {
	err := av.validate.Struct(i)
	if err == nil {
		return nil
	}

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make([]ValidationError, 0, len(validationErrors))
		for _, fe := range validationErrors {
			errors = append(errors, ValidationError{
				Field:   fieldPath(fe),
				Tag:     fe.Tag(),
				Value:   safeValue(fe),
				Message: av.getErrorMessage(fe),
			})
		}

		return &ValidationErrorResponse{Errors: errors}
	}

	return apperr.BadRequest(err, "Ошибка валидации", op)
}

// fieldPath отрезает имя корневой структуры: CreateUserRequest.profile.bio -> profile.bio
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

// пароли в ответ не возвращаем
func safeValue(fe validator.FieldError) any {
	if strings.Contains(strings.ToLower(fe.Field()), "password") {
		return nil
	}
	v := fe.Value()
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	return v
}

func (av *appValidator) getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "Это поле обязательно для заполнения"
	case "min":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("Минимальная длина: %s", err.Param())
		}
		return fmt.Sprintf("Минимальное значение: %s", err.Param())
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("Максимальная длина: %s", err.Param())
		}
		return fmt.Sprintf("Максимальное значение: %s", err.Param())
	case "email":
		return "Неверный формат email"
	case "oneof":
		return fmt.Sprintf("Допустимые значения: %s", strings.ReplaceAll(err.Param(), " ", ", "))
	case "url":
		return "Неверный формат URL"
	case "numeric":
		return "Должно содержать только цифры"
	default:
		return "Некорректное значение"
	}
}
