package scans

import (
	"time"

	"github.com/bryanwahyu/seoscan/internal/domain/reports"
)

// ScanID identifier type
type ScanID string

// Status of a scan. Transitions only move forward:
// PENDING -> PROCESSING -> {COMPLETED, FAILED}, and PENDING -> FAILED.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}

// IsTerminal reports whether no further transition can happen.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Predecessors returns the statuses a scan may be in immediately before
// moving to s.
func Predecessors(s Status) []Status {
	switch s {
	case StatusProcessing:
		return []Status{StatusPending}
	case StatusCompleted:
		return []Status{StatusProcessing}
	case StatusFailed:
		return []Status{StatusPending, StatusProcessing}
	default:
		return nil
	}
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to Status) bool {
	for _, p := range Predecessors(to) {
		if p == from {
			return true
		}
	}
	return false
}

// Aggregate Root: Scan
type Scan struct {
	ID        ScanID    `json:"id"`
	URL       string    `json:"url"`
	UserID    string    `json:"userId"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ScanWithReport is a scan plus its report; Report is nil until COMPLETED.
type ScanWithReport struct {
	Scan
	Report *reports.Report `json:"report"`
}
