package lighthouse

import "sort"

// Audit ids of the headline lab metrics.
const (
	AuditFirstContentfulPaint   = "first-contentful-paint"
	AuditLargestContentfulPaint = "largest-contentful-paint"
	AuditTotalBlockingTime      = "total-blocking-time"
	AuditCumulativeLayoutShift  = "cumulative-layout-shift"
	AuditInteractive            = "interactive"
)

// Metric is an optional numeric measurement.
type Metric struct {
	Value float64
	OK    bool
}

// Metrics are the headline lab measurements, in milliseconds except CLS.
type Metrics struct {
	FirstContentfulPaint   Metric
	LargestContentfulPaint Metric
	TotalBlockingTime      Metric
	CumulativeLayoutShift  Metric
	TimeToInteractive      Metric
}

// Metrics reads the numericValue of each headline metric audit.
func (p *Payload) Metrics() Metrics {
	get := func(id string) Metric {
		a, ok := p.Audit(id)
		if !ok || !a.HasNumeric {
			return Metric{}
		}
		return Metric{Value: a.NumericValue, OK: true}
	}
	return Metrics{
		FirstContentfulPaint:   get(AuditFirstContentfulPaint),
		LargestContentfulPaint: get(AuditLargestContentfulPaint),
		TotalBlockingTime:      get(AuditTotalBlockingTime),
		CumulativeLayoutShift:  get(AuditCumulativeLayoutShift),
		TimeToInteractive:      get(AuditInteractive),
	}
}

// SEOAudits returns the audits that belong to the SEO category, either via the
// category's auditRefs or an audit-level group of "seo", sorted by id.
func (p *Payload) SEOAudits() []Audit {
	ids := map[string]bool{}
	if c, ok := p.Category(CategorySEO); ok {
		for _, ref := range c.AuditRefs {
			ids[ref.ID] = true
		}
	}
	var out []Audit
	for _, a := range p.Audits() {
		if ids[a.ID] || a.Group == CategorySEO {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FailedSEOAudits returns SEO audits with a numeric score below threshold.
func (p *Payload) FailedSEOAudits(threshold float64) []Audit {
	var out []Audit
	for _, a := range p.SEOAudits() {
		if s, ok := a.NumericScore(); ok && s < threshold {
			out = append(out, a)
		}
	}
	return out
}
