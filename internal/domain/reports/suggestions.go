package reports

import "strings"

// Severity of an issue.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Impact of a recommendation.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// DetailStatus grades a single detail row.
type DetailStatus string

const (
	StatusGood    DetailStatus = "good"
	StatusWarning DetailStatus = "warning"
	StatusBad     DetailStatus = "bad"
	StatusNA      DetailStatus = "na"
)

type Issue struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      Impact `json:"impact"`
}

type Detail struct {
	Name   string       `json:"name"`
	Value  string       `json:"value"`
	Status DetailStatus `json:"status"`
}

// Suggestions is the payload produced by either the AI client or the
// deterministic fallback. All five slices are always non-nil once Normalize
// has run, so they encode as [] and never as null.
type Suggestions struct {
	Issues           []Issue          `json:"issues"`
	Recommendations  []Recommendation `json:"recommendations"`
	MetaTagsDetails  []Detail         `json:"metaTagsDetails"`
	ContentDetails   []Detail         `json:"contentDetails"`
	TechnicalDetails []Detail         `json:"technicalDetails"`
}

// NewSuggestions returns a payload with every section present and empty.
func NewSuggestions() Suggestions {
	return Suggestions{
		Issues:           []Issue{},
		Recommendations:  []Recommendation{},
		MetaTagsDetails:  []Detail{},
		ContentDetails:   []Detail{},
		TechnicalDetails: []Detail{},
	}
}

// Normalize replaces nil sections with empty ones and coerces enum values
// into their allowed sets.
func (s Suggestions) Normalize() Suggestions {
	out := NewSuggestions()
	for _, it := range s.Issues {
		it.Severity = ParseSeverity(string(it.Severity))
		out.Issues = append(out.Issues, it)
	}
	for _, rec := range s.Recommendations {
		rec.Impact = ParseImpact(string(rec.Impact))
		out.Recommendations = append(out.Recommendations, rec)
	}
	out.MetaTagsDetails = normalizeDetails(s.MetaTagsDetails)
	out.ContentDetails = normalizeDetails(s.ContentDetails)
	out.TechnicalDetails = normalizeDetails(s.TechnicalDetails)
	return out
}

func normalizeDetails(in []Detail) []Detail {
	out := make([]Detail, 0, len(in))
	for _, d := range in {
		d.Status = ParseDetailStatus(string(d.Status))
		out = append(out, d)
	}
	return out
}

// ParseSeverity maps free text to a Severity; unknown values become medium.
func ParseSeverity(v string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(v))) {
	case SeverityHigh:
		return SeverityHigh
	case SeverityLow:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// ParseImpact maps free text to an Impact; unknown values become medium.
func ParseImpact(v string) Impact {
	switch Impact(strings.ToLower(strings.TrimSpace(v))) {
	case ImpactHigh:
		return ImpactHigh
	case ImpactLow:
		return ImpactLow
	default:
		return ImpactMedium
	}
}

// ParseDetailStatus maps free text to a DetailStatus; unknown values become na.
func ParseDetailStatus(v string) DetailStatus {
	switch DetailStatus(strings.ToLower(strings.TrimSpace(v))) {
	case StatusGood:
		return StatusGood
	case StatusWarning:
		return StatusWarning
	case StatusBad:
		return StatusBad
	default:
		return StatusNA
	}
}
