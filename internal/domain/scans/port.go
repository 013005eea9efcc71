package scans

import (
	"context"
	"time"

	"github.com/bryanwahyu/seoscan/internal/domain/lighthouse"
	"github.com/bryanwahyu/seoscan/internal/domain/reports"
)

// Repository port (persistence for scans and their reports)
type Repository interface {
	Create(ctx context.Context, s *Scan) error
	// Transition moves a scan to status `to` only if its current status is an
	// allowed predecessor. Returns ErrInvalidTransition when no row matched.
	Transition(ctx context.Context, id ScanID, to Status) error
	// Complete inserts the report and moves its scan PROCESSING -> COMPLETED in
	// one transaction.
	Complete(ctx context.Context, r *reports.Report) error
	// GetForUser returns ErrNotFound when the scan does not exist or is owned
	// by a different user.
	GetForUser(ctx context.Context, id ScanID, userID string) (*ScanWithReport, error)
	History(ctx context.Context, userID string) ([]*Scan, error)
	// FailStale moves every PENDING or PROCESSING scan last updated before
	// `before` to FAILED, except the ids in skip, and returns how many rows
	// changed.
	FailStale(ctx context.Context, before time.Time, skip []ScanID) (int64, error)
}

// Auditor fetches the website-quality audit for a URL.
type Auditor interface {
	Audit(ctx context.Context, url string) (*lighthouse.Payload, error)
}

// Suggester turns an audit into structured improvement suggestions.
type Suggester interface {
	Suggest(ctx context.Context, p *lighthouse.Payload) (reports.Suggestions, error)
}

// ArtifactStore archives raw audit documents.
type ArtifactStore interface {
	PutJSON(ctx context.Context, key string, data []byte) (string, error)
}

// Task is a unit of background work.
type Task func(ctx context.Context)

// Dispatcher schedules background work keyed by scan id.
type Dispatcher interface {
	Dispatch(key string, task Task) error
}

// InFlightTracker reports the keys a dispatcher still holds, queued or
// running.
type InFlightTracker interface {
	InFlightKeys() []string
}
