package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// renderer always emits ANSI; whether to colour at all is decided by the
// caller (UseColor), not by lipgloss' own terminal sniffing.
var renderer = func() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.ANSI)
	return r
}()

var styles = struct {
	header  lipgloss.Style
	success lipgloss.Style
	failed  lipgloss.Style
	skipped lipgloss.Style
	dim     lipgloss.Style
}{
	header:  renderer.NewStyle().Foreground(lipgloss.Color("6")).Faint(true),
	success: renderer.NewStyle().Foreground(lipgloss.Color("2")),
	failed:  renderer.NewStyle().Foreground(lipgloss.Color("1")),
	skipped: renderer.NewStyle().Foreground(lipgloss.Color("3")),
	dim:     renderer.NewStyle().Foreground(lipgloss.Color("8")),
}

func paint(style lipgloss.Style, text string, color bool) string {
	if !color {
		return text
	}
	return style.Render(text)
}
