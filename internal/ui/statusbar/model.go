package statusbar

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	barStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FFFFFF"))

	pageStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#E8505B")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	statusTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1)

	errorTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B0000")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	spinnerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#E8505B")).
			Padding(0, 1)
)

// Model is the status bar at the bottom of the screen.
type Model struct {
	width      int
	cursor     int
	totalPages int
	inflight   int
	statusText string
	isError    bool
	keys       help.KeyMap
	help       help.Model
	spinner    spinner.Model
}

// New creates a new status bar showing short help for keys.
func New(keys help.KeyMap, totalPages int) Model {
	return Model{
		totalPages: totalPages,
		keys:       keys,
		help:       help.New(),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// SetSize sets the width.
func (m *Model) SetSize(w int) {
	m.width = w
	m.help.Width = w / 2
}

// SetCursor sets the number of pages loaded so far.
func (m *Model) SetCursor(cursor int) {
	m.cursor = cursor
}

// StartFetch counts a new outstanding fetch. The returned command starts the
// spinner when it was idle.
func (m *Model) StartFetch() tea.Cmd {
	m.inflight++
	if m.inflight == 1 {
		return m.spinner.Tick
	}
	return nil
}

// FinishFetch counts an outstanding fetch as done.
func (m *Model) FinishFetch() {
	if m.inflight > 0 {
		m.inflight--
	}
}

// Inflight returns the number of outstanding fetches.
func (m Model) Inflight() int {
	return m.inflight
}

// SetStatus sets a temporary status message.
func (m *Model) SetStatus(text string, isError bool) {
	m.statusText = text
	m.isError = isError
}

// Update advances the spinner while fetches are outstanding.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); ok {
		if m.inflight == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	left := pageStyle.Render(fmt.Sprintf("page %d/%d", m.cursor, m.totalPages))
	if m.inflight > 0 {
		left += spinnerStyle.Render(m.spinner.View() + " loading")
	}

	var right string
	if m.statusText != "" {
		if m.isError {
			right += errorTextStyle.Render(m.statusText)
		} else {
			right += statusTextStyle.Render(m.statusText)
		}
	}
	right += statusTextStyle.Render(m.help.View(m.keys))

	// Fill middle with background.
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	mid := barStyle.Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, mid, right)
}
