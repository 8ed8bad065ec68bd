package dropbox

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"sync"
	"time"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/users"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Client wraps the Dropbox SDK with rate limiting and retry.
type Client struct {
	mu       sync.Mutex
	tokens   driven.TokenProvider
	token    string
	baseURL  string
	pageSize uint32
	limiter  *rate.Limiter
	policy   extract.Policy

	pauseMu sync.Mutex
	retryAt time.Time
}

// NewClient creates a Dropbox client. Connect must be called before use.
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
	}
}

// Connect reads the provider's current token for a new pass.
func (c *Client) Connect(ctx context.Context) error {
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	if token == "" {
		return fmt.Errorf("dropbox: %w", domain.ErrAuthRequired)
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

// ctxTransport binds every SDK request to a context, since the SDK's
// methods take none.
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

// config builds an SDK config whose requests are bound to ctx. The SDK only
// installs its own bearer transport when Client is nil, so the token is
// attached here.
func (c *Client) config(ctx context.Context) (dropbox.Config, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return dropbox.Config{}, fmt.Errorf("dropbox: client not connected: %w", domain.ErrAuthRequired)
	}

	cfg := dropbox.Config{
		Token:    token,
		LogLevel: dropbox.LogOff,
		Client: &http.Client{Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   ctxTransport{ctx: ctx, base: http.DefaultTransport},
		}},
	}
	if c.baseURL != "" {
		base := c.baseURL
		cfg.URLGenerator = func(_, namespace, route string) string {
			return base + "/2/" + namespace + "/" + route
		}
	}
	return cfg, nil
}

// call runs one SDK request under the retry policy and rate limiter.
func call[T any](
	ctx context.Context,
	c *Client,
	operation string,
	fn func(cfg dropbox.Config) (T, error),
) (T, error) {
	return extract.Fetch(ctx, c.policy, func(ctx context.Context) (T, error) {
		var zero T
		if err := c.wait(ctx); err != nil {
			return zero, err
		}
		cfg, err := c.config(ctx)
		if err != nil {
			return zero, err
		}
		v, err := fn(cfg)
		if err != nil {
			c.observe(err)
			return zero, fmt.Errorf("dropbox: %s: %w", operation, err)
		}
		return v, nil
	})
}

// wait blocks for the limiter and any server-imposed pause.
func (c *Client) wait(ctx context.Context) error {
	c.pauseMu.Lock()
	d := time.Until(c.retryAt)
	c.pauseMu.Unlock()

	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) observe(err error) {
	if d := RetryAfter(err); d > 0 {
		c.pauseMu.Lock()
		c.retryAt = time.Now().Add(d)
		c.pauseMu.Unlock()
	}
}

// CurrentAccount returns the account that owns the token.
func (c *Client) CurrentAccount(ctx context.Context) (*users.FullAccount, error) {
	return call(ctx, c, "get current account", func(cfg dropbox.Config) (*users.FullAccount, error) {
		return users.New(cfg).GetCurrentAccount()
	})
}

// GetMetadata returns the metadata of a file or folder.
func (c *Client) GetMetadata(ctx context.Context, path string) (files.IsMetadata, error) {
	return call(ctx, c, "get metadata", func(cfg dropbox.Config) (files.IsMetadata, error) {
		return files.New(cfg).GetMetadata(files.NewGetMetadataArg(path))
	})
}

// ListFolder fetches one page of a folder. An empty cursor starts a listing.
func (c *Client) ListFolder(ctx context.Context, path, cursor string) (*files.ListFolderResult, error) {
	if cursor != "" {
		return call(ctx, c, "list folder continue", func(cfg dropbox.Config) (*files.ListFolderResult, error) {
			return files.New(cfg).ListFolderContinue(files.NewListFolderContinueArg(cursor))
		})
	}
	return call(ctx, c, "list folder", func(cfg dropbox.Config) (*files.ListFolderResult, error) {
		arg := files.NewListFolderArg(path)
		arg.Limit = c.pageSize
		return files.New(cfg).ListFolder(arg)
	})
}

// Entries yields every entry of a folder, following the listing cursor.
func (c *Client) Entries(ctx context.Context, path string) iter.Seq2[files.IsMetadata, error] {
	return extract.Paginate(ctx, "", func(ctx context.Context, cursor string) (extract.Page[files.IsMetadata, string], error) {
		res, err := c.ListFolder(ctx, path, cursor)
		if err != nil {
			return extract.Page[files.IsMetadata, string]{}, err
		}
		return extract.Page[files.IsMetadata, string]{
			Items:   res.Entries,
			Next:    res.Cursor,
			HasNext: res.HasMore,
		}, nil
	})
}

// Open starts a file download. It implements extract.StreamOpener; location
// is a Dropbox path or "id:" identifier.
func (c *Client) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	cfg, err := c.config(ctx)
	if err != nil {
		return nil, err
	}
	_, body, err := files.New(cfg).Download(files.NewDownloadArg(location))
	if err != nil {
		c.observe(err)
		return nil, fmt.Errorf("dropbox: download %s: %w", location, err)
	}
	return body, nil
}
