package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"courseforge/core"
	"courseforge/storage"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type AppConfig struct {
	Core core.Config

	DB   DBConfig `envPrefix:"DB_"`
	Port string   `env:"PORT" envDefault:"8080"`

	// How often expired refresh tokens are swept from the store. Lazy
	// deletion keeps verification correct either way; the sweep only
	// bounds table growth.
	CleanupInterval time.Duration `env:"TOKEN_CLEANUP_INTERVAL" envDefault:"1h"`
}

type DBConfig struct {
	Type        string `env:"TYPE" envDefault:"sqlite"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"courseforge.db"`
	PostgresDSN string `env:"POSTGRES_DSN"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A local .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	var appConfig AppConfig
	if err := env.Parse(&appConfig); err != nil {
		log.Fatalf("Failed to parse config: %v", err)
	}

	logger := newLogger(appConfig.Core.Production)
	defer logger.Sync()

	repo, closeRepo := initRepository(ctx, appConfig.DB, logger)
	defer closeRepo()

	authService := core.NewAuthService(repo, &appConfig.Core)
	server := core.NewServer(authService, &appConfig.Core, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", server.HandleLogin)
	mux.HandleFunc("/auth/register", server.HandleRegister)
	mux.HandleFunc("/auth/refresh", server.HandleRefresh)
	mux.HandleFunc("/auth/logout", server.HandleLogout)
	mux.HandleFunc("/auth/logout-all", server.RequireAuth(server.HandleLogoutAll))
	mux.HandleFunc("/user/profile", server.RequireAuth(server.HandleProfile))
	mux.HandleFunc("/health", server.HandleHealth)

	go sweepExpiredTokens(ctx, repo, appConfig.CleanupInterval, logger)

	httpServer := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: mux,
	}

	go func() {
		logger.Info("starting server", zap.String("port", appConfig.Port), zap.String("db", appConfig.DB.Type))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(production bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if production {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return logger
}

func initRepository(ctx context.Context, dbConfig DBConfig, logger *zap.Logger) (core.Repository, func()) {
	switch strings.ToLower(dbConfig.Type) {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(dbConfig.SQLitePath)
		if err != nil {
			logger.Fatal("failed to initialize sqlite repository", zap.Error(err))
		}
		logger.Info("using sqlite database", zap.String("path", dbConfig.SQLitePath))
		return repo, func() { repo.Close() }

	case "postgres":
		repo, err := storage.NewPostgresRepository(ctx, dbConfig.PostgresDSN)
		if err != nil {
			logger.Fatal("failed to initialize postgres repository", zap.Error(err))
		}
		logger.Info("using postgres database")
		return repo, func() { repo.Close() }

	case "mock":
		logger.Info("using mock repository (in-memory)")
		return storage.NewMockRepository(), func() {}

	default:
		logger.Fatal("unsupported db type", zap.String("type", dbConfig.Type))
		return nil, nil
	}
}

func sweepExpiredTokens(ctx context.Context, repo core.Repository, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := repo.DeleteExpiredRefreshTokens(ctx)
			if err != nil {
				logger.Error("expired token sweep failed", zap.Error(err))
				continue
			}
			if count > 0 {
				logger.Info("swept expired refresh tokens", zap.Int64("count", count))
			}
		}
	}
}
