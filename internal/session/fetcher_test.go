package session

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fragmede/chatter/internal/api"
)

// MockFetcher is a testify mock of Fetcher.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) GetComments(ctx context.Context, page int) (*api.CommentsPage, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.CommentsPage), args.Error(1)
}

func (m *MockFetcher) GetAuthors(ctx context.Context) (api.Authors, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(api.Authors), args.Error(1)
}

func (m *MockFetcher) GetPages(ctx context.Context, pages []int) []api.PageResult {
	args := m.Called(ctx, pages)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]api.PageResult)
}
