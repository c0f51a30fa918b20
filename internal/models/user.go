package models

import (
	"strings"
	"time"
	"usermanager/pkg/response"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusPending  Status = "pending"
)

var (
	Roles    = []Role{RoleAdmin, RoleUser}
	Statuses = []Status{StatusActive, StatusInactive, StatusPending}
)

// Profile необязательные публичные данные пользователя
type Profile struct {
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Location  *string `json:"location,omitempty"`
}

func (p *Profile) IsEmpty() bool {
	return p == nil || (p.Bio == nil && p.AvatarURL == nil && p.Location == nil)
}

type User struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	PasswordHashed string     `json:"-"`
	Role           Role       `json:"role"`
	Status         Status     `json:"status"`
	Profile        *Profile   `json:"profile,omitempty"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"-"`
}

func (u *User) IsActive() bool { return u.Status == StatusActive }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// ApplyProfile частично обновляет профиль: nil поля не трогаются, пустая строка очищает значение
func (u *User) ApplyProfile(in *ProfileInput) {
	if in == nil {
		return
	}
	if u.Profile == nil {
		u.Profile = &Profile{}
	}
	u.Profile.Bio = mergeOptional(u.Profile.Bio, in.Bio)
	u.Profile.AvatarURL = mergeOptional(u.Profile.AvatarURL, in.AvatarURL)
	u.Profile.Location = mergeOptional(u.Profile.Location, in.Location)
	if u.Profile.IsEmpty() {
		u.Profile = nil
	}
}

func mergeOptional(current, in *string) *string {
	if in == nil {
		return current
	}
	v := strings.TrimSpace(*in)
	if v == "" {
		return nil
	}
	return &v
}

// CurrentUser данные авторизованного субъекта, кладутся в контекст запроса и в JWT
type CurrentUser struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
	Status Status    `json:"status"`
	// APIKey субъект авторизован статическим ключом, а не токеном пользователя
	APIKey bool `json:"-"`
}

func (c *CurrentUser) IsAdmin() bool { return c != nil && c.Role == RoleAdmin }

func (c *CurrentUser) IsActive() bool { return c != nil && c.Status == StatusActive }

func (c *CurrentUser) Is(id uuid.UUID) bool {
	return c != nil && !c.APIKey && c.ID == id
}

func NewCurrentUser(u *User) *CurrentUser {
	return &CurrentUser{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Status: u.Status,
	}
}

// UserList страница списка пользователей
type UserList struct {
	Users      []*User             `json:"users"`
	Pagination response.Pagination `json:"pagination"`
}

// UserStats сводка для дашборда
type UserStats struct {
	Total       int            `json:"total"`
	ByRole      map[Role]int   `json:"by_role"`
	ByStatus    map[Status]int `json:"by_status"`
	NewLastWeek int            `json:"new_last_week"`
}

func NewUserStats() *UserStats {
	s := &UserStats{
		ByRole:   make(map[Role]int, len(Roles)),
		ByStatus: make(map[Status]int, len(Statuses)),
	}
	for _, r := range Roles {
		s.ByRole[r] = 0
	}
	for _, st := range Statuses {
		s.ByStatus[st] = 0
	}
	return s
}

// DeleteResult ответ на мягкое удаление
type DeleteResult struct {
	ID        uuid.UUID `json:"id"`
	DeletedAt time.Time `json:"deleted_at"`
}
