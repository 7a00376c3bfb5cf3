package report

import (
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/results"
)

// TableOptions configures table rendering.
type TableOptions struct {
	Title string
	// Color enables lipgloss status colours and a result-coloured table style.
	Color bool
}

// Table renders one row per record, ordered by key, with a totals footer.
func Table(w io.Writer, env *Envelope, opts TableOptions) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if opts.Title != "" {
		t.SetTitle(opts.Title)
	}

	t.AppendHeader(table.Row{"Key", "Status", "Line", "Summary"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Key", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Line", Align: text.AlignRight},
		{Name: "Summary", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	keys := make([]string, 0, len(env.Records))
	for k := range env.Records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rec := env.Records[key]
		t.AppendRow(table.Row{
			key,
			Styled(rec.Status, opts.Color),
			lineCell(rec.Location),
			summaryCell(rec),
		})
	}

	if opts.Color {
		switch {
		case env.Summary.Failed > 0:
			t.SetStyle(table.StyleColoredBlackOnRedWhite)
		case env.Summary.Skipped > 0:
			t.SetStyle(table.StyleColoredBlackOnYellowWhite)
		default:
			t.SetStyle(table.StyleColoredBlackOnGreenWhite)
		}
	} else {
		t.SetStyle(table.StyleLight)
	}

	t.AppendFooter(table.Row{"Total", overallStatus(env.Summary), "", SummaryLine(env.Summary)})
	t.Render()
	return nil
}

func lineCell(loc *results.Location) any {
	if loc == nil {
		return "-"
	}
	return loc.Line
}

// summaryCell shows the first line of the first failure, if any.
func summaryCell(rec results.Record) string {
	if len(rec.Errors) == 0 {
		return ""
	}
	msg := strings.TrimSpace(rec.Errors[0].Message)
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	return msg
}

func overallStatus(s results.Summary) string {
	switch {
	case s.Failed > 0:
		return "FAIL"
	case s.Total == 0:
		return "EMPTY"
	case s.Skipped > 0:
		return "SKIP"
	default:
		return "PASS"
	}
}
