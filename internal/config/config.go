package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	DB struct {
		Host          string `env:"DB_HOST" env-required:"true"`
		Port          int    `env:"DB_PORT" env-default:"5432"`
		User          string `env:"DB_USER" env-required:"true"`
		Password      string `env:"DB_PASSWORD" env-required:"true"`
		Database      string `env:"DB_DATABASE" env-required:"true"`
		MigrationPath string `env:"DB_MIGRATION_PATH" env-default:"migrations"`
		MaxConns      int32  `env:"DB_MAX_CONNS" env-default:"25"`
		MinConns      int32  `env:"DB_MIN_CONNS" env-default:"5"`
	}
	Secret struct {
		Jwt        string        `env:"SECRET_JWT" env-required:"true"`
		APIKeys    []string      `env:"SECRET_API_KEYS" env-separator:","`
		AccessTTL  time.Duration `env:"SECRET_ACCESS_TTL" env-default:"15m"`
		RefreshTTL time.Duration `env:"SECRET_REFRESH_TTL" env-default:"720h"`
	}
	Server struct {
		Port            int           `env:"SERVER_PORT" env-default:"8080"`
		Host            string        `env:"SERVER_HOST" env-default:"0.0.0.0"`
		Cors            []string      `env:"SERVER_CORS" env-separator:"," env-default:"http://localhost:3000"`
		RequestTimeout  time.Duration `env:"SERVER_REQUEST_TIMEOUT" env-default:"30s"`
		ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
		RateLimit       int           `env:"SERVER_RATE_LIMIT" env-default:"100"`
		RateWindow      time.Duration `env:"SERVER_RATE_WINDOW" env-default:"1m"`
		AuthRateLimit   int           `env:"SERVER_AUTH_RATE_LIMIT" env-default:"10"`
	}
	// Redis необязателен: пустой адрес отключает кеш
	Redis struct {
		Addr     string        `env:"REDIS_ADDR"`
		Password string        `env:"REDIS_PASSWORD"`
		DB       int           `env:"REDIS_DB" env-default:"0"`
		TTL      time.Duration `env:"REDIS_TTL" env-default:"5m"`
	}
	// MinIO необязателен: без него загрузка аватаров отключена
	MinIO struct {
		Endpoint  string `env:"MINIO_ENDPOINT"`
		AccessKey string `env:"MINIO_ACCESS_KEY"`
		SecretKey string `env:"MINIO_SECRET_KEY"`
		Bucket    string `env:"MINIO_BUCKET" env-default:"avatars"`
		UseSSL    bool   `env:"MINIO_USE_SSL" env-default:"false"`
		Region    string `env:"MINIO_REGION"`
		PublicURL string `env:"MINIO_PUBLIC_URL"`
		MaxSize   int64  `env:"MINIO_MAX_SIZE" env-default:"2097152"`
	}
	Metrics struct {
		Enabled bool   `env:"METRICS_ENABLED" env-default:"true"`
		Addr    string `env:"METRICS_ADDR" env-default:":9090"`
	}
	// Admin первый администратор, создается при старте если пользователя с таким email нет
	Admin struct {
		Email    string `env:"ADMIN_EMAIL"`
		Password string `env:"ADMIN_PASSWORD"`
		Name     string `env:"ADMIN_NAME" env-default:"Administrator"`
	}
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
}

func New() (*Config, error) {
	return Load(".env")
}

// Load читает конфигурацию из файла envPath, если он существует, иначе из окружения
func Load(envPath string) (*Config, error) {
	instance := &Config{}

	if _, err := os.Stat(envPath); envPath != "" && err == nil {
		err = cleanenv.ReadConfig(envPath, instance)
		if err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env: %w", err)
		}
	} else {
		err = cleanenv.ReadEnv(instance)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения переменных окружения: %w", err)
		}
	}

	if err := instance.validate(); err != nil {
		return nil, fmt.Errorf("ошибка валидации значений переменных окружения: %w", err)
	}

	return instance, nil
}

func (c *Config) validate() error {
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		return fmt.Errorf("invalid DB port: %d", c.DB.Port)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.DB.MinConns > c.DB.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) is greater than DB_MAX_CONNS (%d)", c.DB.MinConns, c.DB.MaxConns)
	}

	// Валидация JWT секрета (минимум 32 символа)
	if len(c.Secret.Jwt) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters long")
	}

	for _, key := range c.Secret.APIKeys {
		if len(key) < 16 {
			return fmt.Errorf("API key must be at least 16 characters long")
		}
	}

	if c.Server.RateLimit <= 0 || c.Server.AuthRateLimit <= 0 || c.Server.RateWindow <= 0 {
		return fmt.Errorf("rate limit and window must be positive")
	}

	if c.Admin.Email != "" && len(c.Admin.Password) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters long")
	}

	if c.MinIO.Endpoint != "" && (c.MinIO.AccessKey == "" || c.MinIO.SecretKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required with MINIO_ENDPOINT")
	}

	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database,
	)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
