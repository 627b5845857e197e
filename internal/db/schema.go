package db

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS outbox_tasks (
        id           UUID PRIMARY KEY,
        status       TEXT        NOT NULL,
        payload      JSONB       NOT NULL,
        topic        TEXT        NOT NULL,
        attempts     INT         NOT NULL DEFAULT 0,
        last_error   TEXT,
        created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
        completed_at TIMESTAMPTZ
    )`,
	`CREATE INDEX IF NOT EXISTS outbox_tasks_status_updated_idx ON outbox_tasks (status, updated_at)`,
	`CREATE TABLE IF NOT EXISTS operators (
        id         BIGSERIAL PRIMARY KEY,
        username   TEXT UNIQUE NOT NULL,
        password   TEXT        NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS sessions (
        id             TEXT PRIMARY KEY,
        username       TEXT        NOT NULL,
        store          TEXT        NOT NULL,
        permissions    TEXT[]      NOT NULL DEFAULT '{}',
        upstream_token TEXT        NOT NULL,
        issued_at      TIMESTAMPTZ NOT NULL,
        expires_at     TIMESTAMPTZ NOT NULL,
        revoked_at     TIMESTAMPTZ
    )`,
	`CREATE INDEX IF NOT EXISTS sessions_expires_idx ON sessions (expires_at)`,
}

// EnsureSchema creates the audit outbox, operator and session tables if
// missing.
func EnsureSchema(ctx context.Context, database DB) error {
	for _, stmt := range schema {
		if _, err := database.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
