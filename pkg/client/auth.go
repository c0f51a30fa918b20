package client

import (
	"context"
	"net/http"
)

type AuthService struct {
	client *APIClient
}

// Login выполняет вход и сохраняет access токен в клиенте
func (s *AuthService) Login(ctx context.Context, email, password string) (*Envelope[Session], error) {
	body := map[string]string{"email": email, "password": password}

	var env Envelope[Session]
	if err := s.client.do(ctx, http.MethodPost, "/auth/login", nil, body, &env); err != nil {
		return nil, err
	}
	s.client.SetToken(env.Data.AccessToken)
	return &env, nil
}

func (s *AuthService) Profile(ctx context.Context) (*Envelope[User], error) {
	var env Envelope[User]
	if err := s.client.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*Envelope[User], error) {
	var env Envelope[User]
	if err := s.client.do(ctx, http.MethodPut, "/auth/profile", nil, in, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
