package reports

import (
	"encoding/json"
	"time"
)

// ReportID identifier type
type ReportID string

// Source records which generator produced the suggestion payload.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Scores holds the four Lighthouse category scores, each in [0,100].
type Scores struct {
	Performance   int `json:"performanceScore"`
	Accessibility int `json:"accessibilityScore"`
	BestPractices int `json:"bestPracticesScore"`
	SEO           int `json:"seoScore"`
}

// Report is the persisted result of a completed scan. It is written exactly
// once, in the same transaction that moves its scan to COMPLETED.
type Report struct {
	ID     ReportID `json:"id"`
	ScanID string   `json:"scanId"`
	Scores
	LighthouseResult json.RawMessage `json:"lighthouseResult"`
	Suggestions      Suggestions     `json:"aiSuggestions"`
	SuggestionSource Source          `json:"suggestionSource"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// ClampScore bounds a score to [0,100].
func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
