package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bryanwahyu/seoscan/internal/client"
	"github.com/bryanwahyu/seoscan/internal/domain/reports"
	"github.com/bryanwahyu/seoscan/internal/domain/scans"
)

func newTable(out io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

func renderHistory(out io.Writer, list []scans.Scan) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No scans yet.")
		return
	}
	t := newTable(out, "")
	t.AppendHeader(table.Row{"ID", "URL", "Status", "Created"})
	for _, s := range list {
		t.AppendRow(table.Row{
			s.ID,
			text.Trim(s.URL, 60),
			client.StatusLabel(s.Status).Render(),
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	t.Render()
}

func renderResult(out io.Writer, res *client.ScanReport) {
	fmt.Fprintf(out, "%s  %s\n", res.URL, client.StatusLabel(res.Status).Render())
	if res.Report == nil {
		return
	}
	r := res.Report

	scores := newTable(out, "Scores")
	scores.AppendHeader(table.Row{"Performance", "Accessibility", "Best Practices", "SEO"})
	scores.AppendRow(table.Row{
		client.ScoreLabel(r.Performance).Render(),
		client.ScoreLabel(r.Accessibility).Render(),
		client.ScoreLabel(r.BestPractices).Render(),
		client.ScoreLabel(r.SEO).Render(),
	})
	scores.Render()

	s := r.Suggestions
	if len(s.Issues) > 0 {
		t := newTable(out, "Issues")
		t.AppendHeader(table.Row{"Severity", "Title", "Description"})
		for _, i := range s.Issues {
			t.AppendRow(table.Row{i.Severity, i.Title, text.WrapSoft(i.Description, 70)})
		}
		t.Render()
	}
	if len(s.Recommendations) > 0 {
		t := newTable(out, "Recommendations")
		t.AppendHeader(table.Row{"Impact", "Title", "Description"})
		for _, rec := range s.Recommendations {
			t.AppendRow(table.Row{rec.Impact, rec.Title, text.WrapSoft(rec.Description, 70)})
		}
		t.Render()
	}
	renderDetails(out, "Meta Tags", s.MetaTagsDetails)
	renderDetails(out, "Content", s.ContentDetails)
	renderDetails(out, "Technical", s.TechnicalDetails)
	if r.SuggestionSource == reports.SourceFallback {
		fmt.Fprintln(out, "(suggestions generated without AI)")
	}
}

func renderDetails(out io.Writer, title string, details []reports.Detail) {
	if len(details) == 0 {
		return
	}
	t := newTable(out, title)
	t.AppendHeader(table.Row{"Name", "Value", "Status"})
	for _, d := range details {
		t.AppendRow(table.Row{d.Name, text.Trim(d.Value, 60), client.DetailLabel(d.Status).Render()})
	}
	t.Render()
}
