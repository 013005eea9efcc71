// Package db holds row mapping shared by the SQL stores.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/seoscan/internal/domain/reports"
	"github.com/bryanwahyu/seoscan/internal/domain/scans"
)

// ReportColumns are the nullable report columns of a scans LEFT JOIN reports
// query, in select order.
type ReportColumns struct {
	ID               sql.NullString
	Performance      sql.NullInt64
	Accessibility    sql.NullInt64
	BestPractices    sql.NullInt64
	SEO              sql.NullInt64
	LighthouseResult []byte
	Suggestions      []byte
	Source           sql.NullString
	CreatedAt        sql.NullTime
}

// Dest returns scan destinations for the columns.
func (c *ReportColumns) Dest() []any {
	return []any{
		&c.ID, &c.Performance, &c.Accessibility, &c.BestPractices, &c.SEO,
		&c.LighthouseResult, &c.Suggestions, &c.Source, &c.CreatedAt,
	}
}

// Report builds the report for scanID, or nil when the join found no row.
func (c *ReportColumns) Report(scanID scans.ScanID) (*reports.Report, error) {
	if !c.ID.Valid {
		return nil, nil
	}
	r := &reports.Report{
		ID:     reports.ReportID(c.ID.String),
		ScanID: string(scanID),
		Scores: reports.Scores{
			Performance:   reports.ClampScore(int(c.Performance.Int64)),
			Accessibility: reports.ClampScore(int(c.Accessibility.Int64)),
			BestPractices: reports.ClampScore(int(c.BestPractices.Int64)),
			SEO:           reports.ClampScore(int(c.SEO.Int64)),
		},
		SuggestionSource: reports.Source(c.Source.String),
		CreatedAt:        c.CreatedAt.Time,
	}
	if len(c.LighthouseResult) > 0 {
		r.LighthouseResult = append(json.RawMessage(nil), c.LighthouseResult...)
	}
	sug, err := DecodeSuggestions(c.Suggestions)
	if err != nil {
		return nil, err
	}
	r.Suggestions = sug
	return r, nil
}

// EncodeSuggestions serialises a suggestion payload with every section
// present.
func EncodeSuggestions(s reports.Suggestions) ([]byte, error) {
	b, err := json.Marshal(s.Normalize())
	if err != nil {
		return nil, fmt.Errorf("encode suggestions: %w", err)
	}
	return b, nil
}

// DecodeSuggestions reads a stored payload; NULL or empty yields empty
// sections.
func DecodeSuggestions(b []byte) (reports.Suggestions, error) {
	if len(b) == 0 || string(b) == "null" {
		return reports.NewSuggestions(), nil
	}
	var s reports.Suggestions
	if err := json.Unmarshal(b, &s); err != nil {
		return reports.Suggestions{}, fmt.Errorf("decode suggestions: %w", err)
	}
	return s.Normalize(), nil
}

// RawOrEmptyObject returns b, or {} when b is empty, for NOT NULL JSON
// columns.
func RawOrEmptyObject(b []byte) []byte {
	if len(b) == 0 {
		return []byte("{}")
	}
	return b
}

// DetailsJSON makes sure free-form details are valid JSON.
func DetailsJSON(details string) string {
	if strings.TrimSpace(details) == "" {
		return "{}"
	}
	var js any
	if json.Unmarshal([]byte(details), &js) != nil {
		b, _ := json.Marshal(map[string]string{"raw": details})
		return string(b)
	}
	return details
}

// StatusStrings converts statuses to driver arguments.
func StatusStrings(ss []scans.Status) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

// OrNow returns t, or now when t is zero.
func OrNow(t time.Time, now func() time.Time) time.Time {
	if t.IsZero() {
		return now()
	}
	return t
}
