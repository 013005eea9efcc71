package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id            CHAR(36)     NOT NULL PRIMARY KEY,
  email         VARCHAR(254) NOT NULL,
  password_hash VARCHAR(255) NOT NULL,
  created_at    DATETIME(3)  NOT NULL,
  UNIQUE KEY uq_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS scans (
  id         CHAR(36)      NOT NULL PRIMARY KEY,
  url        VARCHAR(2048) NOT NULL,
  user_id    CHAR(36)      NOT NULL,
  status     VARCHAR(16)   NOT NULL,
  created_at DATETIME(3)   NOT NULL,
  updated_at DATETIME(3)   NOT NULL,
  KEY idx_scans_user_created (user_id, created_at),
  KEY idx_scans_status_updated (status, updated_at),
  CONSTRAINT fk_scans_user FOREIGN KEY (user_id) REFERENCES users (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reports (
  id                   CHAR(36)    NOT NULL PRIMARY KEY,
  scan_id              CHAR(36)    NOT NULL,
  performance_score    TINYINT UNSIGNED NOT NULL,
  accessibility_score  TINYINT UNSIGNED NOT NULL,
  best_practices_score TINYINT UNSIGNED NOT NULL,
  seo_score            TINYINT UNSIGNED NOT NULL,
  lighthouse_result    JSON        NOT NULL,
  ai_suggestions       JSON        NOT NULL,
  suggestion_source    VARCHAR(16) NOT NULL,
  created_at           DATETIME(3) NOT NULL,
  UNIQUE KEY uq_reports_scan (scan_id),
  CONSTRAINT fk_reports_scan FOREIGN KEY (scan_id) REFERENCES scans (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS scan_errors (
  id           BIGINT AUTO_INCREMENT PRIMARY KEY,
  scan_id      CHAR(36)    NOT NULL,
  phase        VARCHAR(16) NOT NULL,
  message      TEXT        NOT NULL,
  details_json JSON        NOT NULL,
  created_at   DATETIME(3) NOT NULL,
  KEY idx_scan_errors_scan (scan_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
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
