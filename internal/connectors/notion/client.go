package notion

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"sync"

	"github.com/jomei/notionapi"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Client wraps the notionapi client with rate limiting and retry.
type Client struct {
	mu       sync.Mutex
	api      *notionapi.Client
	tokens   driven.TokenProvider
	baseURL  string
	pageSize int
	limiter  *rate.Limiter
	policy   extract.Policy
	files    *http.Client
}

// NewClient creates a Notion client. Connect must be called before use.
func NewClient(tokens driven.TokenProvider, cfg *Config, policy extract.Policy) *Client {
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &Client{
		tokens:   tokens,
		baseURL:  cfg.BaseURL,
		pageSize: cfg.PageSize,
		limiter:  rate.NewLimiter(limit, 1),
		policy:   policy.WithClassifier(Classify),
		files:    &http.Client{},
	}
}

// rewriteTransport sends every request to another scheme and host.
type rewriteTransport struct {
	target *url.URL
	base   http.RoundTripper
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.Host = t.target.Host
	return t.base.RoundTrip(r)
}

// Connect (re)builds the API client with the provider's current token.
func (c *Client) Connect(ctx context.Context) error {
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	if token == "" {
		return fmt.Errorf("notion: %w", domain.ErrAuthRequired)
	}

	var opts []notionapi.ClientOption
	if c.baseURL != "" {
		target, err := url.Parse(c.baseURL)
		if err != nil {
			return fmt.Errorf("%w: base_url: %w", domain.ErrInvalidInput, err)
		}
		opts = append(opts, notionapi.WithHTTPClient(&http.Client{
			Transport: rewriteTransport{target: target, base: http.DefaultTransport},
		}))
	}

	c.mu.Lock()
	c.api = notionapi.NewClient(notionapi.Token(token), opts...)
	c.mu.Unlock()
	return nil
}

func (c *Client) client() (*notionapi.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.api == nil {
		return nil, fmt.Errorf("notion: client not connected: %w", domain.ErrAuthRequired)
	}
	return c.api, nil
}

// call runs one API request under the retry policy and rate limiter.
func call[T any](
	ctx context.Context,
	c *Client,
	operation string,
	fn func(ctx context.Context, api *notionapi.Client) (T, error),
) (T, error) {
	api, err := c.client()
	if err != nil {
		var zero T
		return zero, err
	}
	return extract.Fetch(ctx, c.policy, func(ctx context.Context) (T, error) {
		var zero T
		if err := c.limiter.Wait(ctx); err != nil {
			return zero, err
		}
		v, err := fn(ctx, api)
		if err != nil {
			return zero, fmt.Errorf("notion: %s: %w", operation, err)
		}
		return v, nil
	})
}

// Search fetches one page of workspace search results.
func (c *Client) Search(ctx context.Context, cursor string, pageSize int) (*notionapi.SearchResponse, error) {
	return call(ctx, c, "search", func(ctx context.Context, api *notionapi.Client) (*notionapi.SearchResponse, error) {
		return api.Search.Do(ctx, &notionapi.SearchRequest{
			StartCursor: notionapi.Cursor(cursor),
			PageSize:    pageSize,
		})
	})
}

// SearchAll yields every page and database visible to the integration.
func (c *Client) SearchAll(ctx context.Context) iter.Seq2[notionapi.Object, error] {
	return extract.Paginate(ctx, "", func(ctx context.Context, cursor string) (extract.Page[notionapi.Object, string], error) {
		res, err := c.Search(ctx, cursor, c.pageSize)
		if err != nil {
			return extract.Page[notionapi.Object, string]{}, err
		}
		return extract.Page[notionapi.Object, string]{
			Items:   res.Results,
			Next:    string(res.NextCursor),
			HasNext: res.HasMore,
		}, nil
	})
}

// GetPage fetches one page.
func (c *Client) GetPage(ctx context.Context, id string) (*notionapi.Page, error) {
	return call(ctx, c, "get page", func(ctx context.Context, api *notionapi.Client) (*notionapi.Page, error) {
		return api.Page.Get(ctx, notionapi.PageID(id))
	})
}

// Children yields every child block of a page or block.
func (c *Client) Children(ctx context.Context, blockID string) iter.Seq2[notionapi.Block, error] {
	return extract.Paginate(ctx, "", func(ctx context.Context, cursor string) (extract.Page[notionapi.Block, string], error) {
		res, err := call(ctx, c, "get block children",
			func(ctx context.Context, api *notionapi.Client) (*notionapi.GetChildrenResponse, error) {
				return api.Block.GetChildren(ctx, notionapi.BlockID(blockID), &notionapi.Pagination{
					StartCursor: notionapi.Cursor(cursor),
					PageSize:    c.pageSize,
				})
			})
		if err != nil {
			return extract.Page[notionapi.Block, string]{}, err
		}
		return extract.Page[notionapi.Block, string]{
			Items:   res.Results,
			Next:    string(res.NextCursor),
			HasNext: res.HasMore,
		}, nil
	})
}

// Rows yields every row of a database.
func (c *Client) Rows(ctx context.Context, databaseID string) iter.Seq2[notionapi.Page, error] {
	return extract.Paginate(ctx, "", func(ctx context.Context, cursor string) (extract.Page[notionapi.Page, string], error) {
		res, err := call(ctx, c, "query database",
			func(ctx context.Context, api *notionapi.Client) (*notionapi.DatabaseQueryResponse, error) {
				return api.Database.Query(ctx, notionapi.DatabaseID(databaseID), &notionapi.DatabaseQueryRequest{
					StartCursor: notionapi.Cursor(cursor),
					PageSize:    c.pageSize,
				})
			})
		if err != nil {
			return extract.Page[notionapi.Page, string]{}, err
		}
		return extract.Page[notionapi.Page, string]{
			Items:   res.Results,
			Next:    string(res.NextCursor),
			HasNext: res.HasMore,
		}, nil
	})
}

// Open downloads a file block's payload. Notion file URLs are pre-signed,
// so no Authorization header is sent.
func (c *Client) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return extract.HTTPOpener(c.files, nil)(ctx, location)
}
