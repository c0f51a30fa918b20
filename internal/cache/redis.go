package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"usermanager/internal/models"
	"usermanager/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix      = "usermanager:"
	keyUser        = keyPrefix + "user:"
	keyQuery       = keyPrefix + "query:"
	keyUserVersion = keyPrefix + "user-version:"
	keyGeneration  = keyPrefix + "generation"
	defaultUserTTL = 5 * time.Minute
)

// HitRecorder получает результат каждого обращения к кешу (метрики)
type HitRecorder interface {
	ObserveCache(kind string, hit bool)
}

type Redis struct {
	client   *redis.Client
	ttl      time.Duration
	logger   logger.AppLogger
	recorder HitRecorder
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedis подключается к Redis и проверяет соединение
func NewRedis(cfg RedisConfig, appLogger logger.AppLogger, recorder HitRecorder) (*Redis, error) {
	const op = "cache.NewRedis"

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%s: ошибка подключения к Redis: %w", op, err)
	}

	appLogger.Info("Подключение к Redis установлено", op, "addr", cfg.Addr)
	return NewRedisFromClient(client, cfg.TTL, appLogger, recorder), nil
}

func NewRedisFromClient(client *redis.Client, ttl time.Duration, appLogger logger.AppLogger, recorder HitRecorder) *Redis {
	if ttl <= 0 {
		ttl = defaultUserTTL
	}
	return &Redis{client: client, ttl: ttl, logger: appLogger, recorder: recorder}
}

func (c *Redis) observe(kind string, hit bool) {
	if c.recorder != nil {
		c.recorder.ObserveCache(kind, hit)
	}
}

// version читает счетчик, отсутствующий ключ означает версию 0
func (c *Redis) version(ctx context.Context, key string) (int64, error) {
	v, err := c.client.Get(ctx, key).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return v, nil
}

// GetUser ключ карточки содержит версию пользователя, которую Invalidate увеличивает
func (c *Redis) GetUser(ctx context.Context, id uuid.UUID) (*models.User, Token, bool) {
	const op = "cache.GetUser"

	ver, err := c.version(ctx, keyUserVersion+id.String())
	if err != nil {
		c.logger.Error(err, op, "user_id", id)
		return nil, Token{}, false
	}
	token := Token{key: fmt.Sprintf("%s%s:%d", keyUser, id, ver)}

	var user models.User
	ok := c.get(ctx, token.key, &user)
	c.observe("user", ok)
	if !ok {
		return nil, token, false
	}
	return &user, token, true
}

func (c *Redis) SetUser(ctx context.Context, token Token, user *models.User) {
	if token.Valid() {
		c.set(ctx, token.key, user)
	}
}

// GetQuery ключ выборки содержит поколение, поэтому Invalidate
// делает недоступными все старые выборки одной командой INCR
func (c *Redis) GetQuery(ctx context.Context, key string, dst any) (Token, bool) {
	const op = "cache.GetQuery"

	gen, err := c.version(ctx, keyGeneration)
	if err != nil {
		c.logger.Error(err, op, "key", key)
		return Token{}, false
	}
	token := Token{key: fmt.Sprintf("%s%d:%s", keyQuery, gen, key)}

	ok := c.get(ctx, token.key, dst)
	c.observe("query", ok)
	return token, ok
}

func (c *Redis) SetQuery(ctx context.Context, token Token, value any) {
	if token.Valid() {
		c.set(ctx, token.key, value)
	}
}

func (c *Redis) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	const op = "cache.Invalidate"

	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, keyGeneration)
	for _, id := range ids {
		pipe.Incr(ctx, keyUserVersion+id.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error(err, op, "users", len(ids))
	}
}

func (c *Redis) Close() error {
	return c.client.Close()
}

func (c *Redis) get(ctx context.Context, key string, dst any) bool {
	const op = "cache.get"

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Error(err, op, "key", key)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Error(err, op, "key", key)
		return false
	}
	return true
}

func (c *Redis) set(ctx context.Context, key string, value any) {
	const op = "cache.set"

	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Error(err, op, "key", key)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Error(err, op, "key", key)
	}
}
