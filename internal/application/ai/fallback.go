package ai

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/seoscan/internal/domain/lighthouse"
	"github.com/bryanwahyu/seoscan/internal/domain/reports"
)

const (
	goodThreshold    = 0.9
	warningThreshold = 0.5
	notAvailable     = "N/A"
)

type labeledAudit struct {
	label string
	ids   []string
}

var metaTagAudits = []labeledAudit{
	{"Meta Description", []string{"meta-description"}},
	{"Viewport Meta Tag", []string{"meta-viewport"}},
	{"Robots.txt", []string{"robots-txt"}},
	{"Canonical URL", []string{"canonical"}},
	{"hreflang Tags", []string{"hreflang"}},
	{"Crawlability", []string{"is-crawlable"}},
	{"Crawlable Anchors", []string{"crawlable-anchors"}},
}

var contentAudits = []labeledAudit{
	{"Page Title", []string{"document-title"}},
	{"Heading Structure", []string{"heading-order"}},
	{"Image Alt Text", []string{"image-alt"}},
	{"Link Text Quality", []string{"link-text", "link-name"}},
	{"Structured Data", []string{"structured-data"}},
	{"Content Width", []string{"content-width"}},
}

// Fallback derives a suggestion payload from the audit alone. It never fails
// and returns identical output for identical input.
func Fallback(p *lighthouse.Payload) reports.Suggestions {
	out := reports.NewSuggestions()

	if d, ok := firstPaintDetail(p); ok {
		out.TechnicalDetails = append(out.TechnicalDetails, d)
	}

	for _, m := range metaTagAudits {
		a, ok := p.FirstAudit(m.ids...)
		if !ok {
			continue
		}
		out.MetaTagsDetails = append(out.MetaTagsDetails, reports.Detail{
			Name:   m.label,
			Value:  firstNonEmpty(a.DisplayValue, a.Title),
			Status: ScoreStatus(a.Score),
		})
	}

	for _, c := range contentAudits {
		a, ok := p.FirstAudit(c.ids...)
		if !ok {
			continue
		}
		out.ContentDetails = append(out.ContentDetails, reports.Detail{
			Name:   c.label,
			Value:  firstNonEmpty(a.Title, a.DisplayValue),
			Status: ScoreStatus(a.Score),
		})
	}

	for _, a := range p.Audits() {
		score, ok := a.NumericScore()
		if !ok || score >= warningThreshold || a.DetailsType != "opportunity" {
			continue
		}
		sev := reports.SeverityMedium
		if score == 0 {
			sev = reports.SeverityHigh
		}
		out.Issues = append(out.Issues, reports.Issue{
			Title:       firstNonEmpty(a.Title, a.ID),
			Description: a.Description,
			Severity:    sev,
		})
	}

	for _, c := range p.Categories() {
		if !c.HasScore || c.Score >= goodThreshold {
			continue
		}
		title := c.Title
		if title == "" {
			title = c.Key
		}
		impact := reports.ImpactMedium
		if c.Score < warningThreshold {
			impact = reports.ImpactHigh
		}
		out.Recommendations = append(out.Recommendations, reports.Recommendation{
			Title: "Improve " + title,
			Description: fmt.Sprintf(
				"Your %s score is %d%%. Review the specific audits in this category for detailed improvements.",
				strings.ToLower(title), lighthouse.Percent(c.Score)),
			Impact: impact,
		})
	}

	return out
}

// firstPaintDetail reports false when the audit is absent or not an object.
func firstPaintDetail(p *lighthouse.Payload) (reports.Detail, bool) {
	a, ok := p.Audit(lighthouse.AuditFirstContentfulPaint)
	if !ok {
		return reports.Detail{}, false
	}
	d := reports.Detail{Name: "First Contentful Paint", Value: notAvailable, Status: ScoreStatus(a.Score)}
	if a.HasNumeric {
		d.Value = fmt.Sprintf("%.2fs", a.NumericValue/1000)
	}
	return d, true
}

// ScoreStatus grades a raw audit score: >=0.9 good, >=0.5 warning, else bad.
// A missing or null score is na; a non-numeric one is bad.
func ScoreStatus(score any) reports.DetailStatus {
	if score == nil {
		return reports.StatusNA
	}
	f, ok := score.(float64)
	switch {
	case !ok:
		return reports.StatusBad
	case f >= goodThreshold:
		return reports.StatusGood
	case f >= warningThreshold:
		return reports.StatusWarning
	default:
		return reports.StatusBad
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return notAvailable
}
