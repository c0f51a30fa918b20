package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"usermanager/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Pool подмножество методов pgxpool.Pool, которыми пользуются репозитории.
// В тестах подменяется на pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type Database struct {
	Pool   Pool
	dsn    string
	logger logger.AppLogger
}

type Config struct {
	DSN             string
	MigrationPath   string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxConns == 0 {
		c.MaxConns = 25
	}
	if c.MinConns == 0 {
		c.MinConns = 5
	}
	if c.MinConns > c.MaxConns {
		c.MinConns = c.MaxConns
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = 5 * time.Minute
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = 30 * time.Second
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	return c
}

// poolConfig разбирает DSN и применяет настройки пула
func (c Config) poolConfig() (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, err
	}
	config.MaxConns = c.MaxConns
	config.MinConns = c.MinConns
	config.MaxConnLifetime = c.MaxConnLifetime
	config.MaxConnIdleTime = c.MaxConnIdleTime
	config.HealthCheckPeriod = time.Minute
	config.ConnConfig.ConnectTimeout = c.ConnectTimeout
	return config, nil
}

func New(cfg Config, appLogger logger.AppLogger) (*Database, error) {
	const op = "database.New"

	cfg = cfg.withDefaults()
	config, err := cfg.poolConfig()
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка парсинга DSN: %w", op, err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка создания пула: %w", op, err)
	}

	// Проверка соединения
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: ошибка ping к бд: %w", op, err)
	}

	database := &Database{
		Pool:   pool,
		dsn:    cfg.DSN,
		logger: appLogger,
	}

	// Выполняем миграции если указан путь
	if cfg.MigrationPath != "" {
		appLogger.Info("Запуск миграций БД", op, "path", cfg.MigrationPath)
		if err := database.migrate(cfg.MigrationPath); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return database, nil
}

// NewFromPool оборачивает готовый пул без миграций
func NewFromPool(pool Pool, appLogger logger.AppLogger) *Database {
	return &Database{Pool: pool, logger: appLogger}
}

// Ping проверка доступности БД для health-check
func (d *Database) Ping(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

func (d *Database) migrate(migrationPath string) error {
	const op = "database.migrate"

	// Создаем соединение через stdlib для мигратора
	sqlDB, err := sql.Open("pgx", d.dsn)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("ошибка драйвера миграций: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания мигратора: %w", err)
	}

	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("ошибка чтения версии схемы: %w", err)
	}
	if dirty {
		return fmt.Errorf("схема БД в состоянии dirty, версия %d", version)
	}

	d.logger.Info("Миграции применены", op, "version", version)
	return nil
}

func (d *Database) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
}
