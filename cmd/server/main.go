package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hongminglow/bank-portal/internal/config"
	"github.com/hongminglow/bank-portal/internal/logger"
	"github.com/hongminglow/bank-portal/internal/management"
	"github.com/hongminglow/bank-portal/internal/server"
	"github.com/hongminglow/bank-portal/internal/storage"
	"github.com/hongminglow/bank-portal/internal/storage/memory"
	"github.com/hongminglow/bank-portal/internal/storage/mongodb"
	"github.com/hongminglow/bank-portal/internal/storage/postgres"
)

func main() {
	envLoaded := godotenv.Load() == nil

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	zap.ReplaceGlobals(zlog)
	if !envLoaded {
		zlog.Info("no .env file found; relying on existing environment")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := openStore(ctx, cfg)
	if err != nil {
		cancel()
		zlog.Fatal("init database", zap.Error(err))
	}
	defer store.Close()

	created, err := management.NewService(store, zlog.Named("management")).SeedAdmin(ctx, cfg.AdminPhone, cfg.AdminPassword)
	cancel()
	if err != nil {
		zlog.Fatal("seed admin", zap.Error(err))
	}
	if created {
		zlog.Info("seeded predefined admin", zap.String("phone", cfg.AdminPhone))
	}

	srv := server.New(cfg, store, zlog)

	go func() {
		zlog.Info("bank portal listening", zap.String("addr", cfg.HTTPAddress()))
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zlog.Error("graceful shutdown error", zap.Error(err))
	}
}

// openStore picks the backend from the DATABASE_URL scheme.
func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	url := cfg.DatabaseURL
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.NewStore(ctx, url)
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return mongodb.NewStore(ctx, url, cfg.MongoDatabase)
	case strings.HasPrefix(url, "memory://"):
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme in %q", redact(url))
	}
}

func redact(url string) string {
	if scheme, _, ok := strings.Cut(url, "://"); ok {
		return scheme + "://..."
	}
	return "..."
}
