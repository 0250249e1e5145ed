// Package remapui provides the Bubble Tea remap interface.
package remapui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/simonsays/internal/locations"
	"github.com/verte-zerg/simonsays/internal/model"
	"github.com/verte-zerg/simonsays/internal/remap"
)

const (
	nameWidth     = 24
	coordWidth    = 18
	maxTableRows  = 8
	progressWidth = 48
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	boxStyle    = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

type sampledMsg struct {
	name  string
	point model.Point
	err   error
}

type commitMsg struct{}

// Model implements the Bubble Tea remap UI. It drives a remap.Session with a
// sampler running off the UI goroutine.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	title   string
	session *remap.Session
	sampler remap.Sampler

	bar      progress.Model
	bindings table.Model
	width    int

	finished bool
	result   locations.Store
	err      error
}

// NewModel constructs a remap UI over old. title names the recording being remapped.
func NewModel(ctx context.Context, title string, old locations.Store, sampler remap.Sampler) *Model {
	ctx, cancel := context.WithCancel(ctx)
	bindings := table.New(
		table.WithColumns([]table.Column{
			{Title: "Location", Width: nameWidth},
			{Title: "Was", Width: coordWidth},
			{Title: "Now", Width: coordWidth},
		}),
		table.WithHeight(maxTableRows),
		table.WithFocused(false),
	)
	return &Model{
		ctx:      ctx,
		cancel:   cancel,
		title:    title,
		session:  remap.NewSession(old),
		sampler:  sampler,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth)),
		bindings: bindings,
	}
}

// Result returns the remapped store once the program has exited.
func (m *Model) Result() (locations.Store, error) {
	if m.err != nil {
		return locations.Store{}, m.err
	}
	if !m.finished {
		done, total := m.session.Progress()
		name, _ := m.session.Next()
		return locations.Store{}, &remap.CancelledError{Name: name, Done: done, Total: total, Err: remap.ErrCancelled}
	}
	return m.result, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.sampleNext()
}

func (m *Model) sampleNext() tea.Cmd {
	name, ok := m.session.Next()
	if !ok {
		return func() tea.Msg { return commitMsg{} }
	}
	done, total := m.session.Progress()
	ctx, sampler := m.ctx, m.sampler
	return func() tea.Msg {
		p, err := sampler.Sample(ctx, name, done, total)
		return sampledMsg{name: name, point: p, err: err}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = clamp(msg.Width-8, 10, progressWidth)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.abort(remap.ErrCancelled)
			return m, tea.Quit
		}
		return m, nil
	case sampledMsg:
		if m.finished || m.err != nil {
			return m, nil
		}
		if msg.err != nil {
			m.abort(msg.err)
			return m, tea.Quit
		}
		if err := m.session.Bind(msg.name, msg.point); err != nil {
			m.abort(err)
			return m, tea.Quit
		}
		m.addRow(msg.name, msg.point)
		return m, m.sampleNext()
	case commitMsg:
		store, err := m.session.Commit()
		m.cancel()
		if err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.result = store
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) abort(cause error) {
	if m.err != nil || m.finished {
		return
	}
	name, _ := m.session.Next()
	done, total := m.session.Progress()
	m.session.Cancel()
	m.cancel()
	var order *remap.OrderError
	if errors.As(cause, &order) {
		m.err = cause
		return
	}
	m.err = remap.SampleFailed(m.ctx, name, done, total, cause)
}

func (m *Model) addRow(name string, p model.Point) {
	was := "-"
	if prev, ok := m.session.Previous(name); ok {
		was = prev.String()
	}
	rows := append(m.bindings.Rows(), table.Row{truncate(name, nameWidth), was, p.String()})
	if len(rows) > maxTableRows {
		rows = rows[len(rows)-maxTableRows:]
	}
	m.bindings.SetRows(rows)
}

// View implements tea.Model.
func (m *Model) View() string {
	done, total := m.session.Progress()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Remapping " + m.title))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
	case m.finished:
		b.WriteString(promptStyle.Render(fmt.Sprintf("All %d locations remapped.", total)))
	default:
		if name, ok := m.session.Next(); ok {
			b.WriteString(promptStyle.Render(fmt.Sprintf("Click the new position of %s", truncate(name, nameWidth))))
			if prev, ok := m.session.Previous(name); ok {
				b.WriteString(mutedStyle.Render("  was " + prev.String()))
			}
		}
	}
	b.WriteString("\n\n")

	percent := 1.0
	if total > 0 {
		percent = float64(done) / float64(total)
	}
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d/%d", done, total)))
	if len(m.bindings.Rows()) > 0 {
		b.WriteString("\n\n")
		b.WriteString(m.bindings.View())
	}
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("left click to bind · esc to cancel"))
	return boxStyle.Render(b.String())
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
