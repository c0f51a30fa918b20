package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
	"usermanager/pkg/client"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	DefaultAPIURL = "http://localhost:8080/api/v1"

	EnvAPIURL  = "USERSCTL_API_URL"
	EnvToken   = "USERSCTL_TOKEN"
	EnvAPIKey  = "USERSCTL_API_KEY"
	EnvTimeout = "USERSCTL_TIMEOUT"
)

type Config struct {
	APIURL  string
	Token   string
	APIKey  string
	Timeout time.Duration
}

// LoadConfig собирает настройки с приоритетом: флаги, окружение, .env файл, значения по умолчанию.
// Отсутствующий .env файл не ошибка.
func LoadConfig(cmd *cobra.Command, envFile string) (Config, error) {
	op := "cli.LoadConfig"

	fileEnv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileEnv = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	lookup := func(flag, env, def string) string {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			return f.Value.String()
		}
		if v, ok := os.LookupEnv(env); ok && v != "" {
			return v
		}
		if v := fileEnv[env]; v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		APIURL: lookup("api-url", EnvAPIURL, DefaultAPIURL),
		Token:  lookup("token", EnvToken, ""),
		APIKey: lookup("api-key", EnvAPIKey, ""),
	}

	timeout, err := time.ParseDuration(lookup("timeout", EnvTimeout, client.DefaultTimeout.String()))
	if err != nil {
		return Config{}, fmt.Errorf("%s: неверный таймаут: %w", op, err)
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("%s: таймаут должен быть положительным", op)
	}
	cfg.Timeout = timeout

	return cfg, nil
}
