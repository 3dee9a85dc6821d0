package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq" // Import postgres driver
)

// Connect opens the Postgres pool and verifies it within timeout.
func Connect(dsn string, timeout time.Duration, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil && logger != nil {
			logger.Error("failed to close database handle after ping error", slog.Any("error", closeErr))
		}
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return db, nil
}

// Schema is the DDL of the tables this service owns.
const Schema = `
CREATE TABLE IF NOT EXISTS tournaments (
	id             SERIAL PRIMARY KEY,
	name           TEXT        NOT NULL,
	bracket_type   TEXT        NOT NULL DEFAULT '',
	team_count     INTEGER     NOT NULL DEFAULT 0,
	bracket_config JSONB       NOT NULL DEFAULT '{}'::jsonb,
	bracket_state  JSONB,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS users (
	id            SERIAL PRIMARY KEY,
	email         TEXT        NOT NULL,
	password_hash TEXT        NOT NULL,
	role          TEXT        NOT NULL DEFAULT 'user',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT users_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS user_permissions (
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	entity  TEXT    NOT NULL,
	actions TEXT[]  NOT NULL DEFAULT '{}',
	PRIMARY KEY (user_id, entity)
);
`

// Migrate applies Schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
