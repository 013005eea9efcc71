// Package lighthouse reads the PageSpeed Insights / Lighthouse result document.
//
// The document is kept as decoded JSON (maps and slices) rather than a strict
// struct so that a single malformed audit never prevents the rest of the
// report from being read. Every accessor tolerates missing or mistyped data.
package lighthouse

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/bryanwahyu/seoscan/internal/domain/reports"
)

var (
	// ErrMalformedPayload means the body is not JSON or lacks lighthouseResult.
	ErrMalformedPayload = errors.New("malformed lighthouse payload")
	// ErrTimeout means the audit provider did not answer in time.
	ErrTimeout = errors.New("audit request timed out")
	// ErrUnexpectedStatus means the audit provider answered with a non-200 status.
	ErrUnexpectedStatus = errors.New("audit provider returned unexpected status")
)

// Category keys as they appear under lighthouseResult.categories.
const (
	CategoryPerformance   = "performance"
	CategoryAccessibility = "accessibility"
	CategoryBestPractices = "best-practices"
	CategorySEO           = "seo"
)

var canonicalCategories = []string{
	CategoryPerformance,
	CategoryAccessibility,
	CategoryBestPractices,
	CategorySEO,
}

// Payload is a parsed audit response.
type Payload struct {
	raw    json.RawMessage
	result map[string]any
}

// Parse validates that data is a JSON object containing a lighthouseResult
// object.
func Parse(data []byte) (*Payload, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	result, ok := doc["lighthouseResult"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing lighthouseResult", ErrMalformedPayload)
	}
	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	return &Payload{raw: raw, result: result}, nil
}

// MustParse is Parse for fixtures; it panics on error.
func MustParse(data []byte) *Payload {
	p, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return p
}

// Raw returns the original document bytes.
func (p *Payload) Raw() json.RawMessage {
	if p == nil {
		return nil
	}
	return p.raw
}

// FinalURL returns lighthouseResult.finalUrl (or finalDisplayedUrl).
func (p *Payload) FinalURL() string {
	if p == nil {
		return ""
	}
	if s, ok := p.result["finalUrl"].(string); ok {
		return s
	}
	s, _ := p.result["finalDisplayedUrl"].(string)
	return s
}

// Category is one entry of lighthouseResult.categories.
type Category struct {
	Key       string
	Title     string
	Score     float64
	HasScore  bool
	AuditRefs []AuditRef
}

// AuditRef links a category to one of its audits.
type AuditRef struct {
	ID    string
	Group string
}

// Category returns the category stored under key.
func (p *Payload) Category(key string) (Category, bool) {
	if p == nil {
		return Category{}, false
	}
	cats, _ := p.result["categories"].(map[string]any)
	m, ok := cats[key].(map[string]any)
	if !ok {
		return Category{}, false
	}
	c := Category{Key: key}
	c.Title, _ = m["title"].(string)
	c.Score, c.HasScore = m["score"].(float64)
	refs, _ := m["auditRefs"].([]any)
	for _, r := range refs {
		rm, ok := r.(map[string]any)
		if !ok {
			continue
		}
		id, _ := rm["id"].(string)
		if id == "" {
			continue
		}
		group, _ := rm["group"].(string)
		c.AuditRefs = append(c.AuditRefs, AuditRef{ID: id, Group: group})
	}
	return c, true
}

// Categories returns every well-formed category: the four canonical ones
// first, in their usual order, then any others sorted by key.
func (p *Payload) Categories() []Category {
	if p == nil {
		return nil
	}
	cats, _ := p.result["categories"].(map[string]any)
	var out []Category
	seen := make(map[string]bool, len(cats))
	for _, key := range canonicalCategories {
		seen[key] = true
		if c, ok := p.Category(key); ok {
			out = append(out, c)
		}
	}
	rest := make([]string, 0, len(cats))
	for key := range cats {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		if c, ok := p.Category(key); ok {
			out = append(out, c)
		}
	}
	return out
}

// Audit is one entry of lighthouseResult.audits.
type Audit struct {
	ID           string
	Title        string
	Description  string
	DisplayValue string
	// Score is the raw JSON value: nil when missing or null, float64 when
	// numeric, anything else when malformed.
	Score        any
	NumericValue float64
	HasNumeric   bool
	DetailsType  string
	Group        string
}

// NumericScore returns the score when it is a number.
func (a Audit) NumericScore() (float64, bool) {
	f, ok := a.Score.(float64)
	return f, ok
}

// Audit returns the audit stored under id, if it is an object.
func (p *Payload) Audit(id string) (Audit, bool) {
	if p == nil {
		return Audit{}, false
	}
	audits, _ := p.result["audits"].(map[string]any)
	m, ok := audits[id].(map[string]any)
	if !ok {
		return Audit{}, false
	}
	a := Audit{ID: id, Score: m["score"]}
	a.Title, _ = m["title"].(string)
	a.Description, _ = m["description"].(string)
	a.DisplayValue, _ = m["displayValue"].(string)
	a.NumericValue, a.HasNumeric = m["numericValue"].(float64)
	a.Group, _ = m["group"].(string)
	if details, ok := m["details"].(map[string]any); ok {
		a.DetailsType, _ = details["type"].(string)
	}
	return a, true
}

// FirstAudit returns the first present audit among ids.
func (p *Payload) FirstAudit(ids ...string) (Audit, bool) {
	for _, id := range ids {
		if a, ok := p.Audit(id); ok {
			return a, true
		}
	}
	return Audit{}, false
}

// Audits returns every well-formed audit sorted by id.
func (p *Payload) Audits() []Audit {
	if p == nil {
		return nil
	}
	audits, _ := p.result["audits"].(map[string]any)
	ids := make([]string, 0, len(audits))
	for id := range audits {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Audit, 0, len(ids))
	for _, id := range ids {
		if a, ok := p.Audit(id); ok {
			out = append(out, a)
		}
	}
	return out
}

// Scores extracts the four category scores as round(score*100), clamped to
// [0,100]. A category that is missing is an error; a null score counts as 0.
func (p *Payload) Scores() (reports.Scores, error) {
	var out reports.Scores
	targets := []struct {
		key string
		dst *int
	}{
		{CategoryPerformance, &out.Performance},
		{CategoryAccessibility, &out.Accessibility},
		{CategoryBestPractices, &out.BestPractices},
		{CategorySEO, &out.SEO},
	}
	for _, t := range targets {
		c, ok := p.Category(t.key)
		if !ok {
			return reports.Scores{}, fmt.Errorf("%w: missing category %q", ErrMalformedPayload, t.key)
		}
		*t.dst = Percent(c.Score)
	}
	return out, nil
}

// Percent converts a fractional score to an integer percentage in [0,100].
func Percent(score float64) int {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return reports.ClampScore(int(math.Round(score * 100)))
}
