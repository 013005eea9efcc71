package client

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bryanwahyu/seoscan/internal/domain/reports"
	"github.com/bryanwahyu/seoscan/internal/domain/scans"
)

// Label is how a value is shown to a person.
type Label struct {
	Text  string
	Color text.Colors
}

// Render colours the label's text.
func (l Label) Render() string { return l.Color.Sprint(l.Text) }

var statusLabels = map[scans.Status]Label{
	scans.StatusPending:    {Text: "Initializing analysis...", Color: text.Colors{text.FgYellow}},
	scans.StatusProcessing: {Text: "Analyzing webpage...", Color: text.Colors{text.FgCyan}},
	scans.StatusCompleted:  {Text: "Analysis complete", Color: text.Colors{text.FgGreen}},
	scans.StatusFailed:     {Text: "Analysis failed", Color: text.Colors{text.FgRed}},
}

var unknownLabel = Label{Text: "Report not available", Color: text.Colors{text.FgHiBlack}}

// StatusLabel maps every scan status to its label. Unknown values get a
// neutral label instead of borrowing another status's.
func StatusLabel(s scans.Status) Label {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return unknownLabel
}

var detailLabels = map[reports.DetailStatus]Label{
	reports.StatusGood:    {Text: "good", Color: text.Colors{text.FgGreen}},
	reports.StatusWarning: {Text: "warning", Color: text.Colors{text.FgYellow}},
	reports.StatusBad:     {Text: "bad", Color: text.Colors{text.FgRed}},
	reports.StatusNA:      {Text: "n/a", Color: text.Colors{text.FgHiBlack}},
}

// DetailLabel maps a detail status to its label.
func DetailLabel(s reports.DetailStatus) Label {
	if l, ok := detailLabels[s]; ok {
		return l
	}
	return detailLabels[reports.StatusNA]
}

// ScoreLabel colours a 0..100 score the way detail statuses are coloured.
func ScoreLabel(score int) Label {
	var st reports.DetailStatus
	switch {
	case score >= 90:
		st = reports.StatusGood
	case score >= 50:
		st = reports.StatusWarning
	default:
		st = reports.StatusBad
	}
	return Label{Text: strconv.Itoa(score), Color: detailLabels[st].Color}
}
