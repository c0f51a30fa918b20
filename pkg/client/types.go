package client

import (
	"encoding/json"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

// Envelope общий формат успешного ответа API
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

type Profile struct {
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Location  *string `json:"location,omitempty"`
}

type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	Profile     *Profile   `json:"profile,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type UserList struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

type UserStats struct {
	Total       int            `json:"total"`
	ByRole      map[string]int `json:"by_role"`
	ByStatus    map[string]int `json:"by_status"`
	NewLastWeek int            `json:"new_last_week"`
}

type DeleteResult struct {
	ID        string    `json:"id"`
	DeletedAt time.Time `json:"deleted_at"`
}

type Session struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// ListParams фильтры списка, нулевые значения не передаются
type ListParams struct {
	Page   int
	Limit  int
	Search string
	Role   string
	Status string
}

type ProfileInput struct {
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Location  *string `json:"location,omitempty"`
}

type CreateUserInput struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Role     string        `json:"role,omitempty"`
	Status   string        `json:"status,omitempty"`
	Profile  *ProfileInput `json:"profile,omitempty"`
}

type UpdateUserInput struct {
	Name    *string       `json:"name,omitempty"`
	Role    *string       `json:"role,omitempty"`
	Status  *string       `json:"status,omitempty"`
	Profile *ProfileInput `json:"profile,omitempty"`
}

type UpdateProfileInput struct {
	Name    *string       `json:"name,omitempty"`
	Profile *ProfileInput `json:"profile,omitempty"`
}

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code       string          `json:"code"`
		Message    string          `json:"message"`
		Details    json.RawMessage `json:"details,omitempty"`
		RetryAfter int             `json:"retry_after,omitempty"`
	} `json:"error"`
}
