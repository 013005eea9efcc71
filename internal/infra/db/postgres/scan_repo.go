package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/seoscan/internal/domain/reports"
	domain "github.com/bryanwahyu/seoscan/internal/domain/scans"
	"github.com/bryanwahyu/seoscan/internal/infra/db"
)

type ScanRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewScanRepository(sqlDB *sql.DB) *ScanRepository {
	return &ScanRepository{db: sqlDB, now: func() time.Time { return time.Now().UTC() }}
}

func predecessors(to domain.Status) []string {
	from := domain.Predecessors(to)
	out := make([]string, len(from))
	for i, s := range from {
		out[i] = string(s)
	}
	return out
}

// Create insert Scan baru (status PENDING)
func (r *ScanRepository) Create(ctx context.Context, s *domain.Scan) error {
	const q = `
INSERT INTO scans (id, url, user_id, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)`
	created := db.OrNow(s.CreatedAt, r.now)
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	_, err := r.db.ExecContext(ctx, q, s.ID, s.URL, s.UserID, stringOrDash(string(s.Status)), created, updated)
	return err
}

func (r *ScanRepository) Transition(ctx context.Context, id domain.ScanID, to domain.Status) error {
	from := predecessors(to)
	if len(from) == 0 {
		return fmt.Errorf("%w: nothing moves to %s", domain.ErrInvalidTransition, to)
	}
	const q = `UPDATE scans SET status=$1, updated_at=$2 WHERE id=$3 AND status = ANY($4)`
	res, err := r.db.ExecContext(ctx, q, string(to), r.now(), id, statusArray(from))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: scan %s to %s", domain.ErrInvalidTransition, id, to)
	}
	return nil
}

func (r *ScanRepository) Complete(ctx context.Context, rep *reports.Report) (err error) {
	suggestions, err := db.EncodeSuggestions(rep.Suggestions)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE scans SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`,
		string(domain.StatusCompleted), r.now(), rep.ScanID, string(domain.StatusProcessing))
	if err != nil {
		return fmt.Errorf("update scan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: scan %s is not PROCESSING", domain.ErrInvalidTransition, rep.ScanID)
	}

	const ins = `
INSERT INTO reports
 (id, scan_id, performance_score, accessibility_score, best_practices_score, seo_score,
  lighthouse_result, ai_suggestions, suggestion_source, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err = tx.ExecContext(ctx, ins,
		string(rep.ID), rep.ScanID,
		reports.ClampScore(rep.Performance), reports.ClampScore(rep.Accessibility),
		reports.ClampScore(rep.BestPractices), reports.ClampScore(rep.SEO),
		string(db.RawOrEmptyObject(rep.LighthouseResult)), string(suggestions),
		string(rep.SuggestionSource), db.OrNow(rep.CreatedAt, r.now),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *ScanRepository) GetForUser(ctx context.Context, id domain.ScanID, userID string) (*domain.ScanWithReport, error) {
	const q = `
SELECT s.id, s.url, s.user_id, s.status, s.created_at, s.updated_at,
       rp.id, rp.performance_score, rp.accessibility_score, rp.best_practices_score, rp.seo_score,
       rp.lighthouse_result, rp.ai_suggestions, rp.suggestion_source, rp.created_at
FROM scans s
LEFT JOIN reports rp ON rp.scan_id = s.id
WHERE s.id=$1 AND s.user_id=$2 LIMIT 1`

	var out domain.ScanWithReport
	var cols db.ReportColumns
	dest := append([]any{
		&out.ID, &out.URL, &out.UserID, &out.Status, &out.CreatedAt, &out.UpdatedAt,
	}, cols.Dest()...)
	if err := r.db.QueryRowContext(ctx, q, id, userID).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if out.Status == domain.StatusCompleted {
		rep, err := cols.Report(out.ID)
		if err != nil {
			return nil, err
		}
		out.Report = rep
	}
	return &out, nil
}

func (r *ScanRepository) History(ctx context.Context, userID string) ([]*domain.Scan, error) {
	const q = `
SELECT id, url, user_id, status, created_at, updated_at
FROM scans
WHERE user_id=$1
ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Scan{}
	for rows.Next() {
		var s domain.Scan
		if err := rows.Scan(&s.ID, &s.URL, &s.UserID, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *ScanRepository) FailStale(ctx context.Context, before time.Time, skip []domain.ScanID) (int64, error) {
	q := `UPDATE scans SET status=$1, updated_at=$2 WHERE updated_at < $3 AND status = ANY($4)`
	args := []any{string(domain.StatusFailed), r.now(), before, statusArray(predecessors(domain.StatusFailed))}
	if len(skip) > 0 {
		ids := make([]string, len(skip))
		for i, id := range skip {
			ids[i] = string(id)
		}
		q += ` AND NOT (id = ANY($5))`
		args = append(args, statusArray(ids))
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
