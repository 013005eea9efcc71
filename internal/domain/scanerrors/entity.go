package scanerrors

import "time"

// Phase names the pipeline step that produced the error.
type Phase string

const (
	PhaseDispatch Phase = "dispatch"
	PhaseAudit    Phase = "audit"
	PhaseSuggest  Phase = "suggest"
	PhaseScores   Phase = "scores"
	PhasePersist  Phase = "persist"
	PhasePanic    Phase = "panic"
)

// ScanError is an operator-facing record of something that went wrong while
// analysing a scan. Suggest-phase entries do not fail the scan.
type ScanError struct {
	ID          int64     `json:"id"`
	ScanID      string    `json:"scan_id"`
	Phase       Phase     `json:"phase"`
	Message     string    `json:"message"`
	DetailsJSON string    `json:"details_json,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
