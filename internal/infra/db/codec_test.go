package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/seoscan/internal/domain/reports"
)

func TestReportColumns_NoJoinedRow(t *testing.T) {
	var c ReportColumns
	r, err := c.Report("s1")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestReportColumns_Report(t *testing.T) {
	c := ReportColumns{
		ID:               sql.NullString{String: "r1", Valid: true},
		Performance:      sql.NullInt64{Int64: 87, Valid: true},
		Accessibility:    sql.NullInt64{Int64: 120, Valid: true},
		SEO:              sql.NullInt64{Int64: 92, Valid: true},
		LighthouseResult: []byte(`{"lighthouseResult":{}}`),
		Suggestions:      []byte(`{"issues":[{"title":"x","severity":"HIGH"}]}`),
		Source:           sql.NullString{String: "ai", Valid: true},
		CreatedAt:        sql.NullTime{Time: time.Unix(100, 0), Valid: true},
	}
	r, err := c.Report("s1")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "s1", r.ScanID)
	assert.Equal(t, 87, r.Performance)
	assert.Equal(t, 100, r.Accessibility)
	assert.Equal(t, 0, r.BestPractices)
	assert.Equal(t, reports.SeverityHigh, r.Suggestions.Issues[0].Severity)
	assert.NotNil(t, r.Suggestions.ContentDetails)
	assert.Equal(t, reports.SourceAI, r.SuggestionSource)
}

func TestEncodeSuggestions_NeverNull(t *testing.T) {
	b, err := EncodeSuggestions(reports.Suggestions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"issues":[],"recommendations":[],"metaTagsDetails":[],"contentDetails":[],"technicalDetails":[]}`, string(b))
}

func TestDetailsJSON(t *testing.T) {
	assert.Equal(t, "{}", DetailsJSON("  "))
	assert.Equal(t, `{"a":1}`, DetailsJSON(`{"a":1}`))
	assert.JSONEq(t, `{"raw":"boom"}`, DetailsJSON("boom"))
}
