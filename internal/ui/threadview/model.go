package threadview

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/chatter/internal/session"
	"github.com/fragmede/chatter/internal/thread"
	"github.com/fragmede/chatter/internal/ui/messages"
)

var (
	selectedBarColor = lipgloss.Color("#E8505B")
	commentSelStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#333333"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	loadMoreStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E8505B")).Bold(true)
)

const scrollStep = 3

type commentOffset struct {
	startLine int
	endLine   int
}

// Model is the scrollable comment tree.
type Model struct {
	viewport    viewport.Model
	sess        *session.Session
	comments    []thread.FlatComment
	offsets     []commentOffset
	selectedIdx int
	collapse    thread.CollapseState
	locale      string
	renderErr   error
	loading     bool
	width       int
	height      int
}

// New creates a thread view over sess.
func New(sess *session.Session, locale string) Model {
	vp := viewport.New(0, 0)
	vp.SetContent("  Loading comments...")

	return Model{
		viewport: vp,
		sess:     sess,
		collapse: make(thread.CollapseState),
		locale:   locale,
		loading:  true,
	}
}

// SetSize updates viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = h
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	m.rebuildContent()
}

// SetLoading marks whether a fetch is outstanding.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
	if len(m.comments) == 0 {
		m.rebuildContent()
	}
}

// Refresh rebuilds the forest from the session and redraws.
func (m *Model) Refresh() {
	m.rebuildComments()
	m.rebuildContent()
}

// RenderErr is the error that stopped the last redraw, if any.
func (m Model) RenderErr() error {
	return m.renderErr
}

// Selected returns the comment under the cursor.
func (m Model) Selected() (thread.FlatComment, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.comments) {
		return thread.FlatComment{}, false
	}
	return m.comments[m.selectedIdx], true
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.selectedIdx >= 0 && m.selectedIdx < len(m.offsets) {
				off := m.offsets[m.selectedIdx]
				viewBottom := m.viewport.YOffset + m.viewport.Height
				if off.endLine >= viewBottom {
					// Comment extends below the viewport; scroll within it.
					m.viewport.SetYOffset(m.viewport.YOffset + scrollStep)
					return m, nil
				}
			}
			if m.selectedIdx < len(m.comments)-1 {
				m.selectedIdx++
				m.rebuildContent()
				m.scrollToCursor()
			}
			return m, nil
		case "k", "up":
			if m.selectedIdx >= 0 && m.selectedIdx < len(m.offsets) {
				off := m.offsets[m.selectedIdx]
				if off.startLine < m.viewport.YOffset {
					// Comment extends above the viewport; scroll within it.
					newOff := m.viewport.YOffset - scrollStep
					if newOff < off.startLine {
						newOff = off.startLine
					}
					m.viewport.SetYOffset(newOff)
					return m, nil
				}
			}
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.rebuildContent()
				m.scrollToCursor()
			}
			return m, nil
		case "l":
			fc, ok := m.Selected()
			if !ok {
				return m, nil
			}
			id := fc.Node.ID
			liked := m.sess.ToggleLike(id)
			m.rebuildContent()
			return m, func() tea.Msg {
				return messages.LikeToggledMsg{CommentID: id, Liked: liked}
			}
		case "enter", " ":
			if fc, ok := m.Selected(); ok {
				id := fc.Node.ID
				m.collapse[id] = !m.collapse[id]
				m.rebuildComments()
				m.rebuildContent()
			}
			return m, nil
		case "z":
			// Toggle collapse all: if any are expanded, collapse all; otherwise expand all.
			anyExpanded := false
			for _, fc := range m.comments {
				if !m.collapse[fc.Node.ID] && len(fc.Node.Children) > 0 {
					anyExpanded = true
					break
				}
			}
			if anyExpanded {
				for _, fc := range m.comments {
					if len(fc.Node.Children) > 0 {
						m.collapse[fc.Node.ID] = true
					}
				}
			} else {
				m.collapse = make(thread.CollapseState)
			}
			m.rebuildComments()
			m.rebuildContent()
			if anyExpanded {
				m.viewport.GotoTop()
				m.selectedIdx = 0
			}
			return m, nil
		case "[", "p":
			if idx := thread.FindParentIndex(m.comments, m.selectedIdx); idx >= 0 {
				m.selectedIdx = idx
				m.rebuildContent()
				m.scrollToCursor()
			}
			return m, nil
		case "]":
			if idx := thread.FindNextSiblingIndex(m.comments, m.selectedIdx); idx >= 0 {
				m.selectedIdx = idx
				m.rebuildContent()
				m.scrollToCursor()
			}
			return m, nil
		case "g", "home":
			m.selectedIdx = 0
			m.rebuildContent()
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			if len(m.comments) > 0 {
				m.selectedIdx = len(m.comments) - 1
				m.rebuildContent()
				m.viewport.GotoBottom()
			}
			return m, nil
		case "ctrl+d", "pgdown":
			m.viewport.HalfViewDown()
			return m, nil
		case "ctrl+u", "pgup":
			m.viewport.HalfViewUp()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the thread view.
func (m Model) View() string {
	return m.viewport.View()
}

func (m *Model) rebuildComments() {
	forest, err := m.sess.Forest()
	if err != nil {
		m.renderErr = err
		m.comments = nil
		return
	}
	m.comments = thread.Flatten(forest, m.collapse)
	if m.selectedIdx >= len(m.comments) {
		m.selectedIdx = len(m.comments) - 1
	}
	if m.selectedIdx < 0 {
		m.selectedIdx = 0
	}
}

func (m *Model) rebuildContent() {
	m.renderErr = nil
	if len(m.comments) == 0 {
		m.offsets = nil
		if m.loading {
			m.viewport.SetContent("  Loading comments...")
		} else {
			m.viewport.SetContent("  No comments yet.\n\n" + m.loadMoreLine())
		}
		return
	}

	authors, err := m.sess.Authors()
	if err != nil {
		m.showError(err)
		return
	}

	var sb strings.Builder
	offsets := make([]commentOffset, len(m.comments))
	availWidth := m.width - 4
	if availWidth < 20 {
		availWidth = 20
	}

	lineCount := 0
	for i, fc := range m.comments {
		selected := i == m.selectedIdx
		lines, err := renderComment(fc, authors, m.sess.Liked(fc.Node.ID), m.locale, availWidth, selected)
		if err != nil {
			m.showError(err)
			return
		}
		startLine := lineCount
		for _, line := range lines {
			if selected {
				line = commentSelStyle.Render(line)
			}
			sb.WriteString(line + "\n")
			lineCount++
		}
		sb.WriteString("\n")
		lineCount++
		offsets[i] = commentOffset{startLine: startLine, endLine: lineCount - 1}
	}
	sb.WriteString(m.loadMoreLine())

	m.offsets = offsets
	m.viewport.SetContent(sb.String())
}

func (m *Model) showError(err error) {
	m.renderErr = err
	m.offsets = nil
	m.viewport.SetContent(errorStyle.Render("  Error rendering comments: " + err.Error()))
}

func (m Model) loadMoreLine() string {
	return loadMoreStyle.Render(fmt.Sprintf("  ▸ Load more (m) · page %d", m.sess.NextPage()))
}

func (m *Model) scrollToCursor() {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.offsets) {
		return
	}
	off := m.offsets[m.selectedIdx]
	// Show the start of the selected comment if it's not already visible.
	if off.startLine < m.viewport.YOffset || off.startLine >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(off.startLine)
	}
}

func indentFor(depth int) int {
	return int(math.Min(float64(depth*2), 30))
}
