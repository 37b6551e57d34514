// Package progress implements the ambient status display used while a
// Workflow flush runs: a lipgloss-styled line-logger for job state
// transitions, and an optional bubbletea dashboard for detached-poll
// waits. Adapted from utils/processor's hand-rolled ANSI styling
// (style.go/spinner.go/progress_display.go) to use the libraries those
// files stood in for.
package progress

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Styler renders job-status lines with lipgloss styles, falling back to
// plain text when stdout isn't a TTY or NO_COLOR is set.
type Styler struct {
	enabled bool

	success  lipgloss.Style
	failure  lipgloss.Style
	waiting  lipgloss.Style
	muted    lipgloss.Style
	bold     lipgloss.Style
}

// NewStyler builds a Styler, auto-detecting whether stdout is a color
// terminal.
func NewStyler() *Styler {
	enabled := os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stdout.Fd()))
	return &Styler{
		enabled: enabled,
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		failure: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		waiting: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		bold:    lipgloss.NewStyle().Bold(true),
	}
}

func (s *Styler) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

// Done renders a job-done status line.
func (s *Styler) Done(describe string) string {
	return fmt.Sprintf("%s job %s done.", s.render(s.success, "✓"), s.render(s.bold, describe))
}

// Failed renders a job-failed status line.
func (s *Styler) Failed(describe string, exitCode int) string {
	return fmt.Sprintf("%s job %s FAILED (exit %d).", s.render(s.failure, "✗"), s.render(s.bold, describe), exitCode)
}

// Waiting renders a still-waiting status line.
func (s *Styler) Waiting(describe string) string {
	return fmt.Sprintf("%s waiting for job %s...", s.render(s.waiting, "…"), describe)
}

// Muted renders de-emphasized informational text (e.g. "skipping group").
func (s *Styler) Muted(text string) string {
	return s.render(s.muted, text)
}
