package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id            TEXT PRIMARY KEY,
  email         VARCHAR(254) NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS scans (
  id         TEXT PRIMARY KEY,
  url        TEXT NOT NULL,
  user_id    TEXT NOT NULL REFERENCES users (id),
  status     VARCHAR(16) NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_scans_user_created ON scans (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_scans_status_updated ON scans (status, updated_at)`,
	`CREATE TABLE IF NOT EXISTS reports (
  id                   TEXT PRIMARY KEY,
  scan_id              TEXT NOT NULL UNIQUE REFERENCES scans (id) ON DELETE CASCADE,
  performance_score    SMALLINT NOT NULL CHECK (performance_score BETWEEN 0 AND 100),
  accessibility_score  SMALLINT NOT NULL CHECK (accessibility_score BETWEEN 0 AND 100),
  best_practices_score SMALLINT NOT NULL CHECK (best_practices_score BETWEEN 0 AND 100),
  seo_score            SMALLINT NOT NULL CHECK (seo_score BETWEEN 0 AND 100),
  lighthouse_result    JSONB NOT NULL,
  ai_suggestions       JSONB NOT NULL,
  suggestion_source    VARCHAR(16) NOT NULL,
  created_at           TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS scan_errors (
  id           BIGSERIAL PRIMARY KEY,
  scan_id      TEXT NOT NULL,
  phase        VARCHAR(16) NOT NULL,
  message      TEXT NOT NULL,
  details_json JSONB NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_errors_scan ON scan_errors (scan_id, created_at DESC)`,
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
