// Package avatar хранит аватары пользователей в S3-совместимом хранилище (MinIO)
package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"usermanager/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	DefaultBucket  = "avatars"
	DefaultMaxSize = 2 << 20
)

var (
	ErrUnsupportedType = errors.New("неподдерживаемый формат изображения")
	ErrTooLarge        = errors.New("файл слишком большой")
	ErrEmpty           = errors.New("пустой файл")
)

var allowedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Store сохраняет аватар и возвращает его публичный URL
type Store interface {
	Put(ctx context.Context, userID uuid.UUID, r io.Reader) (string, error)
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	// PublicURL базовый адрес, по которому клиенты читают объекты
	PublicURL string
	MaxSize   int64
}

type Client struct {
	mc        *minio.Client
	bucket    string
	publicURL string
	maxSize   int64
	logger    logger.AppLogger
}

func NewClient(cfg Config, appLogger logger.AppLogger) (*Client, error) {
	const op = "avatar.NewClient"

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%s: не указан endpoint MinIO", op)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%s: не указаны ключи доступа MinIO", op)
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = DefaultBucket
	}

	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}

	return &Client{
		mc:        mc,
		bucket:    bucket,
		publicURL: publicURL,
		maxSize:   maxSize,
		logger:    appLogger,
	}, nil
}

// EnsureBucket создает бакет при первом запуске
func (c *Client) EnsureBucket(ctx context.Context) error {
	const op = "avatar.EnsureBucket"

	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		c.logger.Info("Создан бакет для аватаров", op, "bucket", c.bucket)
	}
	return nil
}

func (c *Client) Put(ctx context.Context, userID uuid.UUID, r io.Reader) (string, error) {
	const op = "avatar.Put"

	data, contentType, err := Read(r, c.maxSize)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s%s", userID, uuid.NewString(), allowedTypes[contentType])
	_, err = c.mc.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	c.logger.Info("Аватар загружен", op, "user_id", userID, "key", key, "size", len(data))
	return fmt.Sprintf("%s/%s/%s", c.publicURL, c.bucket, key), nil
}

// Read читает не больше maxSize байт и определяет тип по содержимому,
// а не по заголовку клиента
func Read(r io.Reader, maxSize int64) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	if int64(len(data)) > maxSize {
		return nil, "", ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	if _, ok := allowedTypes[contentType]; !ok {
		return nil, "", ErrUnsupportedType
	}
	return data, contentType, nil
}
