// Package localdb opens the agent's SQLite cache and applies migrations.
package localdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/avigen/faceguard/internal/agent/migrations"
	"github.com/avigen/faceguard/internal/agent/repositories/profiles"
)

// Repositories bundles the repositories backed by the local cache.
type Repositories struct {
	Profiles profiles.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Init opens (creating if needed) the SQLite cache at dsn, migrates it, and
// returns the repositories plus the handle for lifecycle management.
func Init(ctx context.Context, dsn string) (*Repositories, *sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	repos := &Repositories{
		Profiles: profiles.NewSQLiteRepository(db),
	}
	return repos, db, nil
}
