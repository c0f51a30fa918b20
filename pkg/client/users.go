package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

type UsersService struct {
	client *APIClient
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Role != "" {
		q.Set("role", p.Role)
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	return q
}

func (s *UsersService) List(ctx context.Context, params ListParams) (*Envelope[UserList], error) {
	var env Envelope[UserList]
	if err := s.client.do(ctx, http.MethodGet, "/users", params.values(), nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (s *UsersService) Get(ctx context.Context, id string) (*Envelope[User], error) {
	var env Envelope[User]
	if err := s.client.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (s *UsersService) Create(ctx context.Context, in CreateUserInput) (*Envelope[User], error) {
	var env Envelope[User]
	if err := s.client.do(ctx, http.MethodPost, "/users", nil, in, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (s *UsersService) Update(ctx context.Context, id string, in UpdateUserInput) (*Envelope[User], error) {
	var env Envelope[User]
	if err := s.client.do(ctx, http.MethodPut, "/users/"+url.PathEscape(id), nil, in, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (s *UsersService) Delete(ctx context.Context, id string) (*Envelope[DeleteResult], error) {
	var env Envelope[DeleteResult]
	if err := s.client.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (s *UsersService) Stats(ctx context.Context) (*Envelope[UserStats], error) {
	var env Envelope[UserStats]
	if err := s.client.do(ctx, http.MethodGet, "/users/stats", nil, nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
