package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/fragmede/chatter/internal/config"
	"github.com/fragmede/chatter/internal/session"
	"github.com/fragmede/chatter/internal/ui/messages"
	"github.com/fragmede/chatter/internal/ui/statusbar"
	"github.com/fragmede/chatter/internal/ui/threadview"
)

// App is the root Bubble Tea model.
type App struct {
	threadView threadview.Model
	statusBar  statusbar.Model

	cfg  config.Config
	sess *session.Session
	log  *zap.Logger

	width  int
	height int
}

// NewApp creates the root application model.
func NewApp(cfg config.Config, sess *session.Session, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		threadView: threadview.New(sess, cfg.DateLocale),
		statusBar:  statusbar.New(Keys, cfg.TotalPages),
		cfg:        cfg,
		sess:       sess,
		log:        logger,
	}
}

// Init issues the first comments page and the author directory fetches.
// They are independent and may complete in either order.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.fetchPage(1), a.fetchAuthors())
}

func (a *App) fetchPage(page int) tea.Cmd {
	sess := a.sess
	tick := a.statusBar.StartFetch()
	a.threadView.SetLoading(true)
	load := func() tea.Msg {
		p, err := sess.LoadPage(context.Background(), page)
		return messages.PageLoadedMsg{Page: page, Data: p, Err: err}
	}
	return tea.Batch(load, tick)
}

func (a *App) fetchAuthors() tea.Cmd {
	sess := a.sess
	tick := a.statusBar.StartFetch()
	load := func() tea.Msg {
		authors, err := sess.LoadAuthors(context.Background())
		return messages.AuthorsLoadedMsg{Authors: authors, Err: err}
	}
	return tea.Batch(load, tick)
}

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.statusBar.SetSize(msg.Width)
		a.threadView.SetSize(msg.Width, a.contentHeight())
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, Keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, Keys.LoadMore):
			// Overlapping requests are allowed; each applied page appends.
			return a, a.fetchPage(a.sess.NextPage())
		}

	case messages.PageLoadedMsg:
		a.statusBar.FinishFetch()
		if msg.Err == nil {
			if err := a.sess.ApplyPage(msg.Page, msg.Data); err != nil {
				a.log.Error("applying page", zap.Int("page", msg.Page), zap.Error(err))
			}
		}
		a.statusBar.SetCursor(a.sess.Cursor())
		a.threadView.SetLoading(a.statusBar.Inflight() > 0)
		a.threadView.Refresh()
		return a, nil

	case messages.AuthorsLoadedMsg:
		a.statusBar.FinishFetch()
		if msg.Err == nil {
			if err := a.sess.ApplyAuthors(msg.Authors); err != nil {
				a.log.Error("applying authors", zap.Error(err))
			}
		}
		a.threadView.SetLoading(a.statusBar.Inflight() > 0)
		a.threadView.Refresh()
		return a, nil

	case messages.LikeToggledMsg:
		if msg.Liked {
			a.statusBar.SetStatus(fmt.Sprintf("Liked #%d", msg.CommentID), false)
		} else {
			a.statusBar.SetStatus(fmt.Sprintf("Unliked #%d", msg.CommentID), false)
		}
		return a, nil

	case messages.StatusMsg:
		a.statusBar.SetStatus(msg.Text, msg.IsError)
		return a, nil
	}

	var cmd tea.Cmd
	a.threadView, cmd = a.threadView.Update(msg)
	cmds = append(cmds, cmd)

	a.statusBar, cmd = a.statusBar.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// View renders the application.
func (a *App) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, a.renderHeader(), a.threadView.View(), a.statusBar.View())
}

func (a *App) renderHeader() string {
	c := a.sess.Counters()
	left := headerStyle.Render(fmt.Sprintf("%d comments", c.TotalComments))
	right := headerLikesStyle.Render(fmt.Sprintf("♥ %d", c.TotalLikes))
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right
	return lipgloss.JoinVertical(lipgloss.Left, line, separatorStyle.Render(strings.Repeat("─", a.width)))
}

func (a *App) contentHeight() int {
	// Header line, separator and status bar.
	h := a.height - 3
	if h < 1 {
		h = 1
	}
	return h
}
