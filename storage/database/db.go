// Package database is the self-hosted SQL backend (postgres or sqlite) with the relational, snake_case schema.
package database

import (
	"context"
	"embed"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/shubhammm008/Infosys-Team5/core"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Engines
const (
	Postgres = "postgres"
	SQLite   = "sqlite3"
)

// Open connects to the database described by conf.Database and waits until it answers.
func Open(ctx context.Context, conf core.DatabaseConfig) (*sqlx.DB, error) {
	switch conf.Engine {
	case Postgres, SQLite:
	default:
		return nil, errors.Errorf("unsupported database engine %q", conf.Engine)
	}
	db, err := sqlx.Open(conf.Engine, conf.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if conf.Engine == SQLite {
		db.SetMaxOpenConns(1) // sqlite allows one writer
	}
	if err = ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if err = core.Sleep(ctx, time.Duration(attempts)*100*time.Millisecond); err != nil {
			break
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

// Migrate runs a goose command (up, down, status, version, redo, reset, up-to, down-to...) on the embedded migrations.
func Migrate(ctx context.Context, db *sqlx.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(db.DriverName()); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	if err := goose.RunContext(ctx, command, db.DB, "migrations", args...); err != nil {
		return errors.Wrapf(err, "migrating database (%s)", command)
	}
	return nil
}
