package ai

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/seoscan/internal/domain/lighthouse"
)

// failedSEOThreshold marks SEO audits worth mentioning to the model.
const failedSEOThreshold = 0.9

// SystemPrompt gives strict directions and the schema for JSON output.
func SystemPrompt() string {
	return `You are a senior web performance and SEO consultant. You must produce one valid JSON object only (no markdown, no commentary, no code fences) that follows the schema below.

Schema:
{
  "issues": [{"title": "<string>", "description": "<string>", "severity": "high|medium|low"}],
  "recommendations": [{"title": "<string>", "description": "<string>", "impact": "high|medium|low"}],
  "metaTagsDetails": [{"name": "<string>", "value": "<string>", "status": "good|warning|bad"}],
  "contentDetails": [{"name": "<string>", "value": "<string>", "status": "good|warning|bad"}],
  "technicalDetails": [{"name": "<string>", "value": "<string>", "status": "good|warning|bad"}]
}

Rules:
- All five arrays must be present, even when empty.
- Use lowercase enum values exactly as listed.
- The response must start with '{' and end with '}'.`
}

// UserPrompt renders the audit-specific request: scores, headline metrics and
// failed SEO checks.
func UserPrompt(p *lighthouse.Payload) string {
	m := p.Metrics()
	var b strings.Builder

	b.WriteString("Analyze this specific Lighthouse report and generate detailed, personalized improvement suggestions.\n\n")
	if u := p.FinalURL(); u != "" {
		fmt.Fprintf(&b, "Page: %s\n\n", u)
	}

	b.WriteString("Current Metrics:\n")
	fmt.Fprintf(&b, "- First Contentful Paint: %s\n", seconds(m.FirstContentfulPaint))
	fmt.Fprintf(&b, "- Largest Contentful Paint: %s\n", seconds(m.LargestContentfulPaint))
	fmt.Fprintf(&b, "- Total Blocking Time: %s\n", millis(m.TotalBlockingTime))
	fmt.Fprintf(&b, "- Cumulative Layout Shift: %s\n", plain(m.CumulativeLayoutShift))
	fmt.Fprintf(&b, "- Time to Interactive: %s\n\n", seconds(m.TimeToInteractive))

	for _, c := range []struct{ label, key string }{
		{"Performance", lighthouse.CategoryPerformance},
		{"Accessibility", lighthouse.CategoryAccessibility},
		{"Best Practices", lighthouse.CategoryBestPractices},
		{"SEO", lighthouse.CategorySEO},
	} {
		fmt.Fprintf(&b, "%s Score: %s\n", c.label, categoryPercent(p, c.key))
	}

	b.WriteString("\nFailed SEO Audits:\n")
	failed := p.FailedSEOAudits(failedSEOThreshold)
	if len(failed) == 0 {
		b.WriteString("- none\n")
	}
	for _, a := range failed {
		title := a.Title
		if title == "" {
			title = a.ID
		}
		fmt.Fprintf(&b, "- %s\n", title)
	}

	b.WriteString(`
Instructions:
1. metaTagsDetails: include every meta tag found in the audit (title, description, viewport, robots, ...). value is the content or "Missing"; status is "good" if present and valid, "warning" if suboptimal, "bad" if missing.
2. contentDetails: analyse heading structure, image alt texts, content length, link text quality and structured data, with specifics about what was found.
3. technicalDetails: include the exact performance metrics above and their implications (server response, page weight, loading behaviour).
Base all suggestions on the actual metrics and failed audits above. Be specific and actionable.

IMPORTANT: Respond ONLY with a valid JSON object.`)
	return b.String()
}

func categoryPercent(p *lighthouse.Payload, key string) string {
	c, ok := p.Category(key)
	if !ok || !c.HasScore {
		return "N/A"
	}
	return fmt.Sprintf("%d%%", lighthouse.Percent(c.Score))
}

func seconds(m lighthouse.Metric) string {
	if !m.OK {
		return "N/A"
	}
	return fmt.Sprintf("%.2fs", m.Value/1000)
}

func millis(m lighthouse.Metric) string {
	if !m.OK {
		return "N/A"
	}
	return fmt.Sprintf("%.0fms", m.Value)
}

func plain(m lighthouse.Metric) string {
	if !m.OK {
		return "N/A"
	}
	return fmt.Sprintf("%.3f", m.Value)
}
