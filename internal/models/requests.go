package models

import (
	"fmt"
	"strings"
)

type ProfileInput struct {
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,max=2048"`
	Location  *string `json:"location" validate:"omitempty,max=100"`
}

type CreateUserRequest struct {
	Email    string        `json:"email" validate:"required,email,max=255"`
	Name     string        `json:"name" validate:"required,min=1,max=100"`
	Password string        `json:"password" validate:"required,min=8,max=72"`
	Role     Role          `json:"role" validate:"omitempty,oneof=admin user"`
	Status   Status        `json:"status" validate:"omitempty,oneof=active inactive pending"`
	Profile  *ProfileInput `json:"profile"`
}

// Normalize приводит email к нижнему регистру, обрезает пробелы и проставляет значения по умолчанию
func (r *CreateUserRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	if r.Role == "" {
		r.Role = RoleUser
	}
	if r.Status == "" {
		r.Status = StatusActive
	}
}

// UpdateUserRequest частичное обновление: nil поля не меняются
type UpdateUserRequest struct {
	Name    *string       `json:"name" validate:"omitempty,min=1,max=100"`
	Role    *Role         `json:"role" validate:"omitempty,oneof=admin user"`
	Status  *Status       `json:"status" validate:"omitempty,oneof=active inactive pending"`
	Profile *ProfileInput `json:"profile"`
}

func (r *UpdateUserRequest) Normalize() {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
}

func (r *UpdateUserRequest) IsEmpty() bool {
	return r.Name == nil && r.Role == nil && r.Status == nil && r.Profile == nil
}

// UpdateProfileRequest самостоятельное редактирование своего профиля
type UpdateProfileRequest struct {
	Name    *string       `json:"name" validate:"omitempty,min=1,max=100"`
	Profile *ProfileInput `json:"profile"`
}

func (r *UpdateProfileRequest) IsEmpty() bool {
	return r.Name == nil && r.Profile == nil
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListUsersQuery фильтры GET /users
type ListUsersQuery struct {
	Page   int    `json:"page" validate:"min=1"`
	Limit  int    `json:"limit" validate:"min=1,max=100"`
	Search string `json:"search" validate:"max=100"`
	Role   Role   `json:"role" validate:"omitempty,oneof=admin user"`
	Status Status `json:"status" validate:"omitempty,oneof=active inactive pending"`
}

func (q ListUsersQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// CacheKey ключ кеша списка, однозначно определяется набором фильтров
func (q ListUsersQuery) CacheKey() string {
	return fmt.Sprintf("p=%d:l=%d:r=%s:s=%s:q=%s",
		q.Page, q.Limit, q.Role, q.Status, strings.ToLower(q.Search))
}
