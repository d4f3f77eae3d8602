package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout = 10 * time.Second
	maxConcurrent  = 4
	userAgent      = "chatter/1.0"
)

// ErrUnexpectedStatus is wrapped by every non-200 response error.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Client talks to the comments and authors endpoints.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a client for the API rooted at baseURL. A zero timeout
// uses the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
	}
}

// get fetches a URL and decodes the JSON response into dst.
func (c *Client) get(ctx context.Context, url string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d from %s: %s", ErrUnexpectedStatus, resp.StatusCode, url, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}

// GetComments fetches one page of comments.
func (c *Client) GetComments(ctx context.Context, page int) (*CommentsPage, error) {
	url := fmt.Sprintf("%s/comments?page=%d", c.baseURL, page)
	var p CommentsPage
	if err := c.get(ctx, url, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAuthors fetches the full author directory.
func (c *Client) GetAuthors(ctx context.Context) (Authors, error) {
	var authors Authors
	if err := c.get(ctx, c.baseURL+"/authors", &authors); err != nil {
		return nil, err
	}
	return authors, nil
}

// PageResult is the outcome of fetching one page in GetPages. Exactly one
// of Data and Err is set.
type PageResult struct {
	Page int
	Data *CommentsPage
	Err  error
}

// GetPages fetches pages with at most maxConcurrent requests in flight. The
// results line up with pages; a failed page carries its error instead of
// aborting the others.
func (c *Client) GetPages(ctx context.Context, pages []int) []PageResult {
	results := make([]PageResult, len(pages))

	var g errgroup.Group
	g.SetLimit(maxConcurrent)
	for i, page := range pages {
		g.Go(func() error {
			p, err := c.GetComments(ctx, page)
			results[i] = PageResult{Page: page, Data: p, Err: err}
			return nil
		})
	}
	g.Wait()
	return results
}
