package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/avigen/faceguard/internal/logging"
	"github.com/avigen/faceguard/internal/server/config"
	"github.com/avigen/faceguard/internal/server/httpapi"
	"github.com/avigen/faceguard/internal/server/migrations"
	"github.com/avigen/faceguard/internal/server/repositories/profiles"
	"github.com/avigen/faceguard/internal/server/services"
)

func main() {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.DatabaseDSN, log)
	if err != nil {
		log.Error(ctx, "database init failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := profiles.NewPostgresRepository(db)
	blob := services.NewS3BlobStore(cfg)
	authSvc := services.NewAuthService(repo, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	profileSvc := services.NewProfileService(repo, blob, log)

	handler := httpapi.NewHandler(authSvc, profileSvc, log)
	router := httpapi.NewRouter(handler, []byte(cfg.SecretKey), log)
	server := httpapi.NewServer(cfg.HTTPAddr, router, log)

	if err := server.Run(ctx); err != nil {
		log.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
	log.Info(ctx, "server stopped")
}

// openDatabase connects with backoff (postgres may still be starting) and
// applies migrations.
func openDatabase(ctx context.Context, dsn string, log logging.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	backoff := retry.WithMaxRetries(10, retry.NewFibonacci(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			log.Warn(ctx, "database not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
