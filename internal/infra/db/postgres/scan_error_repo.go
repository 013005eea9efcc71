package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/seoscan/internal/domain/scanerrors"
	"github.com/bryanwahyu/seoscan/internal/infra/db"
)

type ScanErrorRepository struct{ db *sql.DB }

func NewScanErrorRepository(sqlDB *sql.DB) *ScanErrorRepository {
	return &ScanErrorRepository{db: sqlDB}
}

func (r *ScanErrorRepository) Save(ctx context.Context, e *domain.ScanError) error {
	const q = `
INSERT INTO scan_errors (scan_id, phase, message, details_json, created_at)
VALUES ($1,$2,$3,$4,$5) RETURNING id`
	msg := e.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := db.OrNow(e.CreatedAt, func() time.Time { return time.Now().UTC() })
	return r.db.QueryRowContext(ctx, q,
		stringOrDash(e.ScanID), stringOrDash(string(e.Phase)), msg, db.DetailsJSON(e.DetailsJSON), created,
	).Scan(&e.ID)
}

func (r *ScanErrorRepository) ListByScan(ctx context.Context, scanID string, limit int) ([]*domain.ScanError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, scan_id, phase, message, details_json, created_at
FROM scan_errors
WHERE scan_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, scanID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ScanError
	for rows.Next() {
		var e domain.ScanError
		if err := rows.Scan(&e.ID, &e.ScanID, &e.Phase, &e.Message, &e.DetailsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
