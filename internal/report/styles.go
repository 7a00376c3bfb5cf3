package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/results"
)

// Status colours.
var (
	ColorPassed  = lipgloss.Color("#10B981") // Green
	ColorFailed  = lipgloss.Color("#EF4444") // Red
	ColorSkipped = lipgloss.Color("#F59E0B") // Amber
	ColorOther   = lipgloss.Color("#9CA3AF") // Muted gray
)

var statusStyles = map[results.Status]lipgloss.Style{
	results.StatusPassed:  lipgloss.NewStyle().Foreground(ColorPassed),
	results.StatusFailed:  lipgloss.NewStyle().Foreground(ColorFailed).Bold(true),
	results.StatusSkipped: lipgloss.NewStyle().Foreground(ColorSkipped),
}

var otherStyle = lipgloss.NewStyle().Foreground(ColorOther).Italic(true)

// Styled renders a status label, coloured when color is set.
func Styled(status results.Status, color bool) string {
	label := string(status)
	if !color {
		return label
	}
	style, ok := statusStyles[status]
	if !ok {
		style = otherStyle
	}
	return style.Render(label)
}
