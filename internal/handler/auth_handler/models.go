package auth_handler

import (
	"strings"
	"usermanager/internal/apperr"
	"usermanager/pkg/validators"
)

// loginRequest структура для входа
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (lr *loginRequest) validate() error {
	lr.Email = strings.ToLower(strings.TrimSpace(lr.Email))

	if !validators.IsEmailValid(lr.Email) {
		return validators.Field("email", "email", "Неверный формат email", lr.Email)
	}

	if lr.Password == "" {
		return validators.Field("password", "required", "Обязательное поле", nil)
	}

	return nil
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (rr *refreshTokenRequest) validate(op string) error {
	rr.RefreshToken = strings.TrimSpace(rr.RefreshToken)
	if rr.RefreshToken == "" {
		return apperr.BadRequestWithoutError("Не передан refresh token", op)
	}
	return nil
}
