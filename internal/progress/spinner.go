// Package progress shows a terminal spinner around a blocking call.
package progress

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))

type doneMsg struct{}

type model struct {
	spinner spinner.Model
	label   string
	done    bool
}

func newModel(label string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return model{spinner: s, label: label}
}

func (m model) Init() tea.Cmd { return m.spinner.Tick }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + labelStyle.Render(m.label) + "\n"
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run calls fn, showing a spinner labelled label on w while it runs. When w
// is not a terminal fn is called directly.
func Run[T any](ctx context.Context, w *os.File, label string, fn func(context.Context) (T, error)) (T, error) {
	if !IsTerminal(w) {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	resCh := make(chan result, 1)
	p := tea.NewProgram(newModel(label), tea.WithOutput(w), tea.WithInput(nil), tea.WithContext(ctx))
	go func() {
		v, err := fn(ctx)
		resCh <- result{v, err}
		p.Send(doneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		// Interrupted or the terminal went away: stop the work and wait.
		cancel()
	}
	res := <-resCh
	return res.v, res.err
}
