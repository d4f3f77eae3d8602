// Package session owns the state of one viewing session: the comments
// accumulated so far, the author directory, the page cursor, the viewer's
// like toggles and the derived header counters.
//
// Mutating methods are meant to be called from a single goroutine (the UI
// update loop). LoadPage and LoadAuthors only touch the network and the
// logger, so they may run concurrently from commands.
package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fragmede/chatter/internal/api"
	"github.com/fragmede/chatter/internal/cache"
	"github.com/fragmede/chatter/internal/config"
	"github.com/fragmede/chatter/internal/likes"
	"github.com/fragmede/chatter/internal/thread"
)

// ErrUnknownAuthor is returned when a comment's author index is not in the
// author directory.
var ErrUnknownAuthor = errors.New("unknown author")

// Fetcher is the remote side of a session. *api.Client satisfies it.
type Fetcher interface {
	GetComments(ctx context.Context, page int) (*api.CommentsPage, error)
	GetAuthors(ctx context.Context) (api.Authors, error)
	GetPages(ctx context.Context, pages []int) []api.PageResult
}

// Session is the controller for one viewing session.
type Session struct {
	fetcher Fetcher
	db      *cache.DB
	log     *zap.Logger
	cfg     config.Config

	liked      likes.Set
	cursor     int
	pagination api.Pagination
	counters   Counters
}

// New creates a session backed by db. The author directory starts as the
// placeholder until ApplyAuthors is called.
func New(cfg config.Config, fetcher Fetcher, db *cache.DB, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.ReplaceAuthors(api.PlaceholderAuthors()); err != nil {
		return nil, fmt.Errorf("seeding authors: %w", err)
	}
	return &Session{
		fetcher: fetcher,
		db:      db,
		log:     logger,
		cfg:     cfg,
	}, nil
}

// LoadPage fetches one page of comments, retrying up to cfg.FetchRetries
// times. Failures are logged here; callers are free to drop the error.
func (s *Session) LoadPage(ctx context.Context, page int) (*api.CommentsPage, error) {
	var p *api.CommentsPage
	err := withRetry(ctx, s.cfg.FetchRetries, s.cfg.RetryBackoff, func() error {
		var err error
		p, err = s.fetcher.GetComments(ctx, page)
		return err
	}, func(attempt int, err error) {
		s.log.Warn("retrying comments fetch",
			zap.Int("page", page), zap.Int("attempt", attempt), zap.Error(err))
	})
	if err != nil {
		s.log.Error("fetching comments page failed", zap.Int("page", page), zap.Error(err))
		return nil, err
	}
	s.log.Debug("fetched comments page", zap.Int("page", page), zap.Int("count", len(p.Data)))
	return p, nil
}

// ApplyPage appends a fetched page to the accumulated comments and advances
// the page cursor by one, whichever page number was requested.
func (s *Session) ApplyPage(page int, p *api.CommentsPage) error {
	if p == nil {
		return nil
	}
	if err := s.db.AppendComments(page, p.Data); err != nil {
		s.log.Error("storing comments page failed", zap.Int("page", page), zap.Error(err))
		return fmt.Errorf("storing page %d: %w", page, err)
	}
	s.cursor++
	size, err := s.db.CommentCount()
	if err != nil {
		s.log.Error("counting stored comments failed", zap.Int("page", page), zap.Error(err))
		return fmt.Errorf("counting comments: %w", err)
	}
	s.pagination = api.Pagination{
		Page:       1,
		Size:       size,
		TotalPages: s.cfg.TotalPages,
	}
	return s.recount()
}

// LoadAuthors fetches the author directory. Failures are logged.
func (s *Session) LoadAuthors(ctx context.Context) (api.Authors, error) {
	authors, err := s.fetcher.GetAuthors(ctx)
	if err != nil {
		s.log.Error("fetching authors failed", zap.Error(err))
		return nil, err
	}
	s.log.Debug("fetched authors", zap.Int("count", len(authors)))
	return authors, nil
}

// ApplyAuthors replaces the author directory.
func (s *Session) ApplyAuthors(authors api.Authors) error {
	if err := s.db.ReplaceAuthors(authors); err != nil {
		s.log.Error("storing authors failed", zap.Error(err))
		return fmt.Errorf("storing authors: %w", err)
	}
	return nil
}

// LoadAll fetches the authors and pages 1..pages concurrently and applies
// whatever arrived, pages in ascending order. Individual failures are logged
// and skipped.
func (s *Session) LoadAll(ctx context.Context, pages int) error {
	var authors api.Authors
	var fetched []api.PageResult

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		authors, _ = s.LoadAuthors(ctx)
		return nil
	})
	g.Go(func() error {
		numbers := make([]int, pages)
		for i := range numbers {
			numbers[i] = i + 1
		}
		fetched = s.fetcher.GetPages(ctx, numbers)
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("loading pages: %w", err)
	}

	if authors != nil {
		if err := s.ApplyAuthors(authors); err != nil {
			return err
		}
	}
	for _, r := range fetched {
		if r.Err != nil {
			s.log.Error("fetching comments page failed", zap.Int("page", r.Page), zap.Error(r.Err))
			continue
		}
		if err := s.ApplyPage(r.Page, r.Data); err != nil {
			return err
		}
	}
	return nil
}

// ToggleLike flips the viewer's like on id and reports the new state.
func (s *Session) ToggleLike(id int) bool {
	liked := s.liked.Toggle(id)
	if err := s.recount(); err != nil {
		s.log.Error("recounting after like toggle failed", zap.Int("comment", id), zap.Error(err))
	}
	return liked
}

// Liked reports whether the viewer has liked id.
func (s *Session) Liked(id int) bool {
	return s.liked.Has(id)
}

// Counters returns the totals as of the last page or toggle.
func (s *Session) Counters() Counters {
	return s.counters
}

func (s *Session) recount() error {
	records, err := s.db.Comments()
	if err != nil {
		return fmt.Errorf("reading comments: %w", err)
	}
	s.counters = Aggregate(records, s.liked)
	return nil
}

// Records returns every accumulated comment in fetch order.
func (s *Session) Records() ([]api.Comment, error) {
	return s.db.Comments()
}

// Forest assembles the accumulated comments into reply trees.
func (s *Session) Forest() ([]*thread.Node, error) {
	records, err := s.db.Comments()
	if err != nil {
		return nil, fmt.Errorf("reading comments: %w", err)
	}
	return thread.BuildForest(records), nil
}

// Authors returns the current author directory.
func (s *Session) Authors() (api.Authors, error) {
	return s.db.Authors()
}

// LookupAuthor resolves c's author by its directory index. A missing entry is
// an error; there is no fallback author.
func LookupAuthor(authors api.Authors, c api.Comment) (api.Author, error) {
	a, ok := authors[c.AuthorIndex()]
	if !ok {
		return api.Author{}, fmt.Errorf("comment %d: author %d: %w", c.ID, c.Author, ErrUnknownAuthor)
	}
	return a, nil
}

// Cursor is the number of pages applied so far.
func (s *Session) Cursor() int {
	return s.cursor
}

// NextPage is the page number "load more" requests: the cursor itself. Once
// the initial page has landed that is 1 again, so page 1 is fetched twice
// and every later request trails the applied count. There is no upper bound;
// TotalPages is only reported back in Pagination.
func (s *Session) NextPage() int {
	return s.cursor
}

// Pagination returns the paging block as of the last applied page. Page is
// always 1 and Size is the accumulated comment count.
func (s *Session) Pagination() api.Pagination {
	return s.pagination
}
