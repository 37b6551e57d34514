package progress

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Dashboard is a live bubbletea program showing a spinner and a
// done/failed/waiting job tally while a DetachedExecutor polls. It is
// optional ambient UX: callers that aren't attached to a TTY should skip
// it entirely and rely on LogReporter instead.
type Dashboard struct {
	program *tea.Program
	updates chan tallyMsg
	done    chan struct{}
}

// IsTTY reports whether stdout is an interactive terminal, the gate a
// caller should check before constructing a Dashboard.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

type tallyMsg struct {
	total, done, failed, waiting int
	label                        string
}

type dashboardModel struct {
	spinner spinner.Model
	tally   tallyMsg
	updates chan tallyMsg
	quit    bool
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForUpdate(m.updates))
}

type updateReceivedMsg struct {
	tally tallyMsg
	ok    bool
}

func waitForUpdate(ch chan tallyMsg) tea.Cmd {
	return func() tea.Msg {
		t, ok := <-ch
		return updateReceivedMsg{tally: t, ok: ok}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateReceivedMsg:
		if !msg.ok {
			m.quit = true
			return m, tea.Quit
		}
		m.tally = msg.tally
		return m, waitForUpdate(m.updates)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m dashboardModel) View() string {
	if m.quit {
		return ""
	}
	return fmt.Sprintf("%s %s: %d/%d done, %d failed, %d waiting\n",
		m.spinner.View(), m.tally.label, m.tally.done, m.tally.total, m.tally.failed, m.tally.waiting)
}

// NewDashboard starts a live spinner+tally display.
func NewDashboard(label string, total int) *Dashboard {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	updates := make(chan tallyMsg, 8)
	model := dashboardModel{spinner: sp, updates: updates, tally: tallyMsg{total: total, label: label}}
	program := tea.NewProgram(model)

	d := &Dashboard{program: program, updates: updates, done: make(chan struct{})}
	go func() {
		defer close(d.done)
		_, _ = program.Run()
	}()
	return d
}

// Update reports the current done/failed/waiting tally.
func (d *Dashboard) Update(total, done, failed, waiting int, label string) {
	select {
	case d.updates <- tallyMsg{total: total, done: done, failed: failed, waiting: waiting, label: label}:
	case <-d.done:
	}
}

// Close stops the dashboard and waits for it to finish rendering.
func (d *Dashboard) Close() {
	close(d.updates)
	<-d.done
}
