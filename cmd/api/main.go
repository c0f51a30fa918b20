package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"usermanager/api"
	"usermanager/internal/cache"
	"usermanager/internal/config"
	"usermanager/internal/handler/auth_handler"
	"usermanager/internal/handler/system_handler"
	"usermanager/internal/handler/user_handler"
	"usermanager/internal/metrics"
	"usermanager/internal/middleware"
	"usermanager/internal/repository/session_repository"
	"usermanager/internal/repository/user_repository"
	"usermanager/internal/service/auth_service"
	"usermanager/internal/service/user_service"
	"usermanager/internal/storage/avatar"
	"usermanager/pkg/database"
	"usermanager/pkg/logger"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	const op = "main"
	// Logger
	appLogger := logger.New(logger.AppLoggerLevelInfo)

	// Обработаем падение приложения
	defer func() {
		if err := recover(); err != nil {
			appLogger.Error(fmt.Errorf("PANIC: %v", err), op)
			os.Exit(2)
		}
	}()

	//Config
	cfg, err := config.New()
	if err != nil {
		appLogger.Error(err, op, "Ошибка загрузки конфигурации")
		return err
	}
	appLogger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//Database
	db, err := database.New(database.Config{
		DSN:           cfg.DSN(),
		MigrationPath: cfg.DB.MigrationPath,
		MaxConns:      cfg.DB.MaxConns,
		MinConns:      cfg.DB.MinConns,
	}, appLogger)
	if err != nil {
		appLogger.Error(err, op, "Ошибка подключения к БД")
		return err
	}
	defer db.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New("usermanager", registry)

	// Cache
	var userCache cache.Cache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		}, appLogger, appMetrics)
		if err != nil {
			appLogger.Error(err, op, "Ошибка подключения к Redis")
			return err
		}
		userCache = redisCache
	} else {
		appLogger.Warn("REDIS_ADDR не задан, кеш отключен", op)
	}
	defer userCache.Close()

	// Avatars
	var avatars avatar.Store
	if cfg.MinIO.Endpoint != "" {
		avatarClient, err := avatar.NewClient(avatar.Config{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
			Region:    cfg.MinIO.Region,
			PublicURL: cfg.MinIO.PublicURL,
			MaxSize:   cfg.MinIO.MaxSize,
		}, appLogger)
		if err != nil {
			appLogger.Error(err, op, "Ошибка настройки MinIO")
			return err
		}
		if err := avatarClient.EnsureBucket(ctx); err != nil {
			appLogger.Error(err, op, "Ошибка создания бакета")
			return err
		}
		avatars = avatarClient
	} else {
		appLogger.Warn("MINIO_ENDPOINT не задан, загрузка аватаров отключена", op)
	}

	// OpenAPI
	doc, err := api.Load(ctx)
	if err != nil {
		appLogger.Error(err, op, "Ошибка загрузки OpenAPI спецификации")
		return err
	}

	// Repositories
	userRepo := user_repository.New(db, appLogger)
	sessionRepo := session_repository.New(db, appLogger)

	// Services
	authService := auth_service.New(userRepo, sessionRepo, userCache, appLogger, auth_service.Config{
		JwtSecret:  cfg.Secret.Jwt,
		APIKeys:    cfg.Secret.APIKeys,
		AccessTTL:  cfg.Secret.AccessTTL,
		RefreshTTL: cfg.Secret.RefreshTTL,
	})
	userService := user_service.New(userRepo, userCache, avatars, appMetrics, appLogger)

	if err := userService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		appLogger.Error(err, op, "Ошибка создания администратора")
		return err
	}

	// Server
	router := chi.NewRouter()

	router.Use(chiMiddleware.Recoverer)
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(appMetrics.Middleware)
	router.Use(middleware.SecurityHeaders)
	router.Use(chiMiddleware.Timeout(cfg.Server.RequestTimeout))
	router.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateWindow, appMetrics))
	router.Use(middleware.NewCORSMiddleware(cfg.Server.Cors, appLogger).Handler)
	router.Use(middleware.AuthMiddleware(authService, appLogger))

	// Handlers
	if err := system_handler.New(router, db, doc, appLogger); err != nil {
		return err
	}
	auth_handler.New(router, authService, userService, appLogger, auth_handler.Options{
		RateLimit:  cfg.Server.AuthRateLimit,
		RateWindow: cfg.Server.RateWindow,
		Metrics:    appMetrics,
	})
	user_handler.New(router, userService, appLogger)

	servers := []*http.Server{{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if cfg.Metrics.Enabled {
		metricsRouter := chi.NewRouter()
		metricsRouter.Handle("/metrics", appMetrics.Handler())
		servers = append(servers, &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metricsRouter,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			appLogger.Warn(fmt.Sprintf("Запуск сервера на: %s", srv.Addr), op)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		appLogger.Warn("Остановка серверов", op)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error(err, op, "Сервер остановлен с ошибкой")
		return err
	}

	appLogger.Warn("Сервер остановлен", op)
	return nil
}
