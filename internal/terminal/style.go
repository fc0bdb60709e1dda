package terminal

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title   lipgloss.Style
	panel   lipgloss.Style
	label   lipgloss.Style
	option  lipgloss.Style
	blocked lipgloss.Style
	outcome lipgloss.Style
	warn    lipgloss.Style
	ending  lipgloss.Style
}

// newStyles binds to out so colour is dropped when out is not a terminal.
func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		panel:   r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		label:   r.NewStyle().Foreground(lipgloss.Color("245")),
		option:  r.NewStyle(),
		blocked: r.NewStyle().Faint(true),
		outcome: r.NewStyle().Foreground(lipgloss.Color("86")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("203")),
		ending:  r.NewStyle().Bold(true).Border(lipgloss.DoubleBorder()).Padding(0, 2),
	}
}
