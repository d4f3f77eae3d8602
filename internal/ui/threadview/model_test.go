package threadview

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/chatter/internal/api"
	"github.com/fragmede/chatter/internal/cache"
	"github.com/fragmede/chatter/internal/config"
	"github.com/fragmede/chatter/internal/session"
	"github.com/fragmede/chatter/internal/thread"
	"github.com/fragmede/chatter/internal/ui/messages"
)

func intPtr(i int) *int { return &i }

func pinLocalUTC(t *testing.T) {
	t.Helper()
	prev := time.Local
	time.Local = time.UTC
	t.Cleanup(func() { time.Local = prev })
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	db, err := cache.Open(cache.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := session.New(config.Default(), nil, db, nil)
	require.NoError(t, err)
	return s
}

func seed(t *testing.T, s *session.Session) {
	t.Helper()
	require.NoError(t, s.ApplyAuthors(api.Authors{
		0: {ID: 1, Name: "Alice", Avatar: "https://example.com/a.png"},
		1: {ID: 2, Name: "Bob"},
	}))
	require.NoError(t, s.ApplyPage(1, &api.CommentsPage{Data: []api.Comment{
		{ID: 1, Author: 1, Text: "first", Likes: 2, Created: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)},
		{ID: 2, Author: 2, Text: "reply", Parent: intPtr(1)},
		{ID: 3, Author: 1, Text: "orphan", Parent: intPtr(99), Likes: 1},
	}}))
}

func newModel(t *testing.T, s *session.Session) Model {
	t.Helper()
	m := New(s, "en")
	m.SetSize(100, 40)
	m.SetLoading(false)
	m.Refresh()
	return m
}

func press(m Model, k string) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func TestRefresh_FlattensForest(t *testing.T) {
	pinLocalUTC(t)
	s := newTestSession(t)
	seed(t, s)
	m := newModel(t, s)

	require.NoError(t, m.RenderErr())
	view := m.View()
	assert.Contains(t, view, "Alice")
	assert.Contains(t, view, "January 2, 2024")

	fc, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, 1, fc.Node.ID)
}

func TestLikeToggle_IconFollowsStoredCountDoesNot(t *testing.T) {
	s := newTestSession(t)
	seed(t, s)
	m := newModel(t, s)

	lines, err := renderComment(m.comments[0], api.Authors{0: {Name: "Alice"}}, false, "en", 80, false)
	require.NoError(t, err)
	assert.Contains(t, lines[0], unlikedIcon+" 2")

	m, cmd := press(m, "l")
	require.NotNil(t, cmd)
	assert.Equal(t, messages.LikeToggledMsg{CommentID: 1, Liked: true}, cmd())
	assert.True(t, s.Liked(1))
	assert.Equal(t, 4, s.Counters().TotalLikes)

	lines, err = renderComment(m.comments[0], api.Authors{0: {Name: "Alice"}}, s.Liked(1), "en", 80, false)
	require.NoError(t, err)
	assert.Contains(t, lines[0], likedIcon+" 2")

	_, cmd = press(m, "l")
	assert.Equal(t, messages.LikeToggledMsg{CommentID: 1, Liked: false}, cmd())
	assert.Equal(t, 3, s.Counters().TotalLikes)
}

func TestUnknownAuthor_IsRenderFailure(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyPage(1, &api.CommentsPage{Data: []api.Comment{
		{ID: 5, Author: 3, Text: "who"},
	}}))
	m := newModel(t, s)

	require.Error(t, m.RenderErr())
	assert.ErrorIs(t, m.RenderErr(), session.ErrUnknownAuthor)
	assert.Contains(t, m.View(), "Error rendering comments")
}

func TestPlaceholderAuthor_RendersAuthorOne(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.ApplyPage(1, &api.CommentsPage{Data: []api.Comment{
		{ID: 5, Author: 1, Text: "before authors arrive"},
	}}))
	m := newModel(t, s)

	require.NoError(t, m.RenderErr())
	assert.Contains(t, m.View(), "before authors arrive")
}

func TestCollapse(t *testing.T) {
	s := newTestSession(t)
	seed(t, s)
	m := newModel(t, s)
	require.Len(t, m.comments, 3)

	m, _ = press(m, " ")
	require.Len(t, m.comments, 2)
	assert.True(t, m.comments[0].IsCollapsed)
	assert.Contains(t, m.View(), "[+1]")

	m, _ = press(m, " ")
	assert.Len(t, m.comments, 3)
}

func TestNavigation(t *testing.T) {
	s := newTestSession(t)
	seed(t, s)
	m := newModel(t, s)

	m, _ = press(m, "j")
	assert.Equal(t, 1, m.selectedIdx)
	m, _ = press(m, "[")
	assert.Equal(t, 0, m.selectedIdx)
	m, _ = press(m, "]")
	assert.Equal(t, 2, m.selectedIdx)
	m, _ = press(m, "g")
	assert.Equal(t, 0, m.selectedIdx)
	m, _ = press(m, "G")
	assert.Equal(t, 2, m.selectedIdx)
}

func TestLoadMoreLine(t *testing.T) {
	s := newTestSession(t)
	m := newModel(t, s)
	assert.Contains(t, m.View(), "No comments yet.")
	assert.Contains(t, m.View(), "Load more (m) · page 0")

	require.NoError(t, s.ApplyPage(1, &api.CommentsPage{}))
	m.Refresh()
	assert.Contains(t, m.View(), "Load more (m) · page 1")

	for page := 1; page <= 3; page++ {
		require.NoError(t, s.ApplyPage(page, &api.CommentsPage{}))
	}
	m.Refresh()
	assert.Contains(t, m.View(), "Load more (m) · page 4")
}

func TestRender_PlainForest(t *testing.T) {
	forest := thread.BuildForest([]api.Comment{
		{ID: 1, Author: 1, Text: "root"},
		{ID: 2, Author: 1, Text: "child", Parent: intPtr(1)},
	})
	authors := api.Authors{0: {Name: "Alice"}}

	out, err := Render(forest, authors, func(int) bool { return false }, "ru", 80)
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "root"), strings.Index(out, "child"))
	assert.Equal(t, 2, strings.Count(out, "Alice"))

	_, err = Render(forest, api.Authors{}, func(int) bool { return false }, "ru", 80)
	assert.ErrorIs(t, err, session.ErrUnknownAuthor)
}
