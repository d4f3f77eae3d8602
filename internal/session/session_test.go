package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fragmede/chatter/internal/api"
	"github.com/fragmede/chatter/internal/cache"
	"github.com/fragmede/chatter/internal/config"
)

func intPtr(i int) *int { return &i }

func scenarioPage() *api.CommentsPage {
	return &api.CommentsPage{
		Pagination: api.Pagination{Page: 1, Size: 3, TotalPages: 10},
		Data: []api.Comment{
			{ID: 1, Author: 1, Likes: 2},
			{ID: 2, Author: 2, Parent: intPtr(1), Likes: 0},
			{ID: 3, Author: 1, Parent: intPtr(99), Likes: 1},
		},
	}
}

func newTestSession(t *testing.T, f Fetcher, cfg config.Config) (*Session, *observer.ObservedLogs) {
	t.Helper()
	db, err := cache.Open(cache.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	s, err := New(cfg, f, db, zap.New(core))
	require.NoError(t, err)
	return s, logs
}

func TestNew_StartsWithPlaceholderAuthors(t *testing.T) {
	s, _ := newTestSession(t, &MockFetcher{}, config.Default())

	authors, err := s.Authors()
	require.NoError(t, err)
	assert.Equal(t, api.Authors{0: {}}, authors)
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, 0, s.NextPage())
	assert.Equal(t, Counters{}, s.Counters())
}

func TestApplyPage_AccumulatesAndCounts(t *testing.T) {
	s, _ := newTestSession(t, &MockFetcher{}, config.Default())

	require.NoError(t, s.ApplyPage(1, scenarioPage()))
	assert.Equal(t, Counters{TotalComments: 3, TotalLikes: 3}, s.Counters())
	assert.Equal(t, 1, s.Cursor())
	assert.Equal(t, api.Pagination{Page: 1, Size: 3, TotalPages: 3}, s.Pagination())

	forest, err := s.Forest()
	require.NoError(t, err)
	require.Len(t, forest, 2)
	assert.Equal(t, 1, forest[0].ID)
	assert.Equal(t, 3, forest[1].ID)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, 2, forest[0].Children[0].ID)

	// The same page again is appended, not merged.
	require.NoError(t, s.ApplyPage(1, scenarioPage()))
	records, err := s.Records()
	require.NoError(t, err)
	assert.Len(t, records, 6)
	assert.Equal(t, Counters{TotalComments: 6, TotalLikes: 6}, s.Counters())
	assert.Equal(t, 2, s.Cursor())
	assert.Equal(t, 6, s.Pagination().Size)
}

func TestApplyPage_CursorAdvancesRegardlessOfPageNumber(t *testing.T) {
	s, _ := newTestSession(t, &MockFetcher{}, config.Default())

	require.NoError(t, s.ApplyPage(3, &api.CommentsPage{}))
	assert.Equal(t, 1, s.Cursor())
	require.NoError(t, s.ApplyPage(3, &api.CommentsPage{}))
	require.NoError(t, s.ApplyPage(1, &api.CommentsPage{}))
	assert.Equal(t, 3, s.Cursor())
	assert.Equal(t, 3, s.NextPage())
}

func TestNextPage_TrailsAppliedPages(t *testing.T) {
	s, _ := newTestSession(t, &MockFetcher{}, config.Default())
	require.NoError(t, s.ApplyPage(1, &api.CommentsPage{}))

	var requested []int
	for i := 0; i < 4; i++ {
		page := s.NextPage()
		requested = append(requested, page)
		require.NoError(t, s.ApplyPage(page, &api.CommentsPage{}))
	}

	// Page 1 is requested again and nothing stops past TotalPages.
	assert.Equal(t, []int{1, 2, 3, 4}, requested)
	assert.Equal(t, 5, s.Cursor())
	assert.Equal(t, 3, s.Pagination().TotalPages)
}

func TestToggleLike_RoundTripLeavesTotalsUnchanged(t *testing.T) {
	s, _ := newTestSession(t, &MockFetcher{}, config.Default())
	require.NoError(t, s.ApplyPage(1, scenarioPage()))
	before := s.Counters()

	assert.True(t, s.ToggleLike(2))
	assert.True(t, s.Liked(2))
	assert.Equal(t, before.TotalLikes+1, s.Counters().TotalLikes)

	assert.False(t, s.ToggleLike(2))
	assert.False(t, s.Liked(2))
	assert.Equal(t, before, s.Counters())
}

func TestLoadPage_FailureIsLoggedNotRetriedByDefault(t *testing.T) {
	f := &MockFetcher{}
	f.On("GetComments", mock.Anything, 2).Return(nil, errors.New("connection refused")).Once()
	s, logs := newTestSession(t, f, config.Default())

	p, err := s.LoadPage(context.Background(), 2)
	assert.Nil(t, p)
	require.Error(t, err)
	f.AssertNumberOfCalls(t, "GetComments", 1)

	entries := logs.FilterMessage("fetching comments page failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].ContextMap()["page"])
}

func TestLoadPage_RetriesWhenConfigured(t *testing.T) {
	f := &MockFetcher{}
	f.On("GetComments", mock.Anything, 1).Return(nil, errors.New("flaky")).Twice()
	f.On("GetComments", mock.Anything, 1).Return(scenarioPage(), nil).Once()

	cfg := config.Default()
	cfg.FetchRetries = 3
	cfg.RetryBackoff = time.Millisecond
	s, logs := newTestSession(t, f, cfg)

	p, err := s.LoadPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, p.Data, 3)
	f.AssertNumberOfCalls(t, "GetComments", 3)
	assert.Equal(t, 2, logs.FilterMessage("retrying comments fetch").Len())
}

func TestLoadPage_GivesUpAfterRetries(t *testing.T) {
	f := &MockFetcher{}
	f.On("GetComments", mock.Anything, 1).Return(nil, errors.New("down"))

	cfg := config.Default()
	cfg.FetchRetries = 2
	cfg.RetryBackoff = time.Millisecond
	s, _ := newTestSession(t, f, cfg)

	_, err := s.LoadPage(context.Background(), 1)
	require.Error(t, err)
	f.AssertNumberOfCalls(t, "GetComments", 3)
}

func TestLoadAuthors_FailureKeepsPlaceholder(t *testing.T) {
	f := &MockFetcher{}
	f.On("GetAuthors", mock.Anything).Return(nil, errors.New("timeout"))
	s, logs := newTestSession(t, f, config.Default())

	authors, err := s.LoadAuthors(context.Background())
	require.Error(t, err)
	assert.Nil(t, authors)
	assert.Equal(t, 1, logs.FilterMessage("fetching authors failed").Len())

	current, err := s.Authors()
	require.NoError(t, err)
	assert.Equal(t, api.PlaceholderAuthors(), current)
}

func TestLoadAll_AppliesPagesInOrderAndSkipsFailures(t *testing.T) {
	f := &MockFetcher{}
	f.On("GetAuthors", mock.Anything).Return(api.Authors{0: {ID: 1, Name: "Anna"}, 1: {ID: 2, Name: "Boris"}}, nil)
	f.On("GetPages", mock.Anything, []int{1, 2, 3}).Return([]api.PageResult{
		{Page: 1, Data: &api.CommentsPage{Data: []api.Comment{{ID: 1, Author: 1, Likes: 1}}}},
		{Page: 2, Err: errors.New("503 from upstream")},
		{Page: 3, Data: &api.CommentsPage{Data: []api.Comment{{ID: 7, Author: 2, Parent: intPtr(1), Likes: 4}}}},
	})
	s, logs := newTestSession(t, f, config.Default())

	require.NoError(t, s.LoadAll(context.Background(), 3))

	records, err := s.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].ID)
	assert.Equal(t, 7, records[1].ID)
	assert.Equal(t, 2, s.Cursor())
	assert.Equal(t, Counters{TotalComments: 2, TotalLikes: 5}, s.Counters())

	authors, err := s.Authors()
	require.NoError(t, err)
	assert.Equal(t, "Boris", authors[1].Name)

	failed := logs.FilterMessage("fetching comments page failed").All()
	require.Len(t, failed, 1)
	assert.EqualValues(t, 2, failed[0].ContextMap()["page"])
	assert.Equal(t, "503 from upstream", failed[0].ContextMap()["error"])
}

func TestLookupAuthor_UsesIndexOneBelowID(t *testing.T) {
	authors := api.Authors{0: {ID: 1, Name: "Anna"}, 1: {ID: 2, Name: "Boris"}}

	a, err := LookupAuthor(authors, api.Comment{ID: 10, Author: 2})
	require.NoError(t, err)
	assert.Equal(t, "Boris", a.Name)

	_, err = LookupAuthor(authors, api.Comment{ID: 11, Author: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownAuthor))
	assert.Contains(t, err.Error(), "comment 11")
}

func TestLookupAuthor_PlaceholderResolvesOnlyFirstAuthor(t *testing.T) {
	placeholder := api.PlaceholderAuthors()

	a, err := LookupAuthor(placeholder, api.Comment{Author: 1})
	require.NoError(t, err)
	assert.Equal(t, api.Author{}, a)

	_, err = LookupAuthor(placeholder, api.Comment{Author: 2})
	assert.ErrorIs(t, err, ErrUnknownAuthor)
}
