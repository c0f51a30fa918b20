package models

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID           int
	UserID       uuid.UUID
	RefreshToken string
	UserAgent    string
	IPAddress    string
	ExpiredAt    time.Time
	CreatedAt    time.Time
}

func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiredAt)
}

type SessionResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}
