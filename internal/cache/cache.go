// Package cache кеширует ответы чтения пользователей.
// Любая мутация сбрасывает карточку пользователя и все закешированные выборки.
package cache

import (
	"context"
	"usermanager/internal/models"

	"github.com/google/uuid"
)

// Token версия записи, прочитанная при промахе.
// Set пишет под этой версией, поэтому результат, прочитанный из БД до
// параллельного Invalidate, становится недоступен сразу после записи.
// Нулевой Token ничего не записывает.
type Token struct {
	key string
}

func (t Token) Valid() bool { return t.key != "" }

type Cache interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, Token, bool)
	SetUser(ctx context.Context, token Token, user *models.User)
	// GetQuery читает закешированный результат выборки (список, статистика) в dst
	GetQuery(ctx context.Context, key string, dst any) (Token, bool)
	SetQuery(ctx context.Context, token Token, value any)
	// Invalidate сбрасывает карточки перечисленных пользователей и все выборки
	Invalidate(ctx context.Context, ids ...uuid.UUID)
	Close() error
}

// Noop кеш-заглушка, используется когда Redis не настроен
type Noop struct{}

func (Noop) GetUser(context.Context, uuid.UUID) (*models.User, Token, bool) { return nil, Token{}, false }
func (Noop) SetUser(context.Context, Token, *models.User)                  {}
func (Noop) GetQuery(context.Context, string, any) (Token, bool)           { return Token{}, false }
func (Noop) SetQuery(context.Context, Token, any)                          {}
func (Noop) Invalidate(context.Context, ...uuid.UUID)                      {}
func (Noop) Close() error                                                  { return nil }
