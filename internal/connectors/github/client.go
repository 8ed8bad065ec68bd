package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// rawMediaType asks the blob endpoint for the raw bytes.
const rawMediaType = "application/vnd.github.raw+json"

// Client wraps the go-github client with rate limiting and retry.
// Every list method fetches a single page and returns the next page number,
// zero when there is none.
type Client struct {
	mu      sync.Mutex
	gh      *gh.Client
	tokens  driven.TokenProvider
	limiter *RateLimiter
	policy  extract.Policy
	baseURL string
	perPage int
}

// NewClient creates a GitHub API client. Connect must be called before use.
func NewClient(tokens driven.TokenProvider, cfg *Config, policy extract.Policy) *Client {
	return &Client{
		tokens:  tokens,
		limiter: NewRateLimiter(cfg.RequestsPerSecond),
		policy:  policy.WithClassifier(Classify),
		baseURL: cfg.BaseURL,
		perPage: cfg.PerPage,
	}
}

// Connect (re)builds the go-github client with the provider's current token.
func (c *Client) Connect(ctx context.Context) error {
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	if token == "" {
		return fmt.Errorf("github: %w", domain.ErrAuthRequired)
	}

	tc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	client := gh.NewClient(tc)
	if c.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(c.baseURL, "/") + "/")
		if err != nil {
			return fmt.Errorf("%w: base_url: %w", domain.ErrInvalidInput, err)
		}
		client.BaseURL = u
	}

	c.mu.Lock()
	c.gh = client
	c.mu.Unlock()
	return nil
}

func (c *Client) api() (*gh.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gh == nil {
		return nil, fmt.Errorf("github: client not connected: %w", domain.ErrAuthRequired)
	}
	return c.gh, nil
}

type paged[T any] struct {
	value T
	next  int
}

// call runs one API request under the retry policy and rate limiter.
func call[T any](
	ctx context.Context,
	c *Client,
	operation string,
	fn func(ctx context.Context, api *gh.Client) (T, *gh.Response, error),
) (T, int, error) {
	api, err := c.api()
	if err != nil {
		var zero T
		return zero, 0, err
	}

	r, err := extract.Fetch(ctx, c.policy, func(ctx context.Context) (paged[T], error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return paged[T]{}, err
		}
		v, resp, err := fn(ctx, api)
		if resp != nil {
			c.limiter.UpdateFromResponse(resp.Response)
		}
		if err != nil {
			return paged[T]{}, wrapError(err, operation, c.limiter)
		}
		next := 0
		if resp != nil {
			next = resp.NextPage
		}
		return paged[T]{value: v, next: next}, nil
	})
	return r.value, r.next, err
}

// ListRepos lists one page of repositories the authenticated user can access:
// owned, collaborator and organization member repositories.
func (c *Client) ListRepos(ctx context.Context, page int) ([]*gh.Repository, int, error) {
	return call(ctx, c, "list repos", func(ctx context.Context, api *gh.Client) ([]*gh.Repository, *gh.Response, error) {
		return api.Repositories.ListByAuthenticatedUser(ctx, &gh.RepositoryListByAuthenticatedUserOptions{
			Visibility:  "all",
			Affiliation: "owner,collaborator,organization_member",
			Sort:        "full_name",
			Direction:   "asc",
			ListOptions: gh.ListOptions{Page: page, PerPage: c.perPage},
		})
	})
}

// GetRepo fetches a single repository.
func (c *Client) GetRepo(ctx context.Context, owner, name string) (*gh.Repository, error) {
	repo, _, err := call(ctx, c, "get repo", func(ctx context.Context, api *gh.Client) (*gh.Repository, *gh.Response, error) {
		return api.Repositories.Get(ctx, owner, name)
	})
	return repo, err
}

// ListIssues lists one page of issues (and pull requests) in a repository.
func (c *Client) ListIssues(ctx context.Context, owner, name string, page int) ([]*gh.Issue, int, error) {
	return call(ctx, c, "list issues", func(ctx context.Context, api *gh.Client) ([]*gh.Issue, *gh.Response, error) {
		return api.Issues.ListByRepo(ctx, owner, name, &gh.IssueListByRepoOptions{
			State:       "all",
			Sort:        "created",
			Direction:   "asc",
			ListOptions: gh.ListOptions{Page: page, PerPage: c.perPage},
		})
	})
}

// ListIssueComments lists one page of comments on an issue.
func (c *Client) ListIssueComments(
	ctx context.Context, owner, name string, number, page int,
) ([]*gh.IssueComment, int, error) {
	return call(ctx, c, "list comments", func(ctx context.Context, api *gh.Client) ([]*gh.IssueComment, *gh.Response, error) {
		return api.Issues.ListComments(ctx, owner, name, number, &gh.IssueListCommentsOptions{
			ListOptions: gh.ListOptions{Page: page, PerPage: c.perPage},
		})
	})
}

// ListPulls lists one page of pull requests in a repository.
func (c *Client) ListPulls(ctx context.Context, owner, name string, page int) ([]*gh.PullRequest, int, error) {
	return call(ctx, c, "list pull requests", func(ctx context.Context, api *gh.Client) ([]*gh.PullRequest, *gh.Response, error) {
		return api.PullRequests.List(ctx, owner, name, &gh.PullRequestListOptions{
			State:       "all",
			Sort:        "created",
			Direction:   "asc",
			ListOptions: gh.ListOptions{Page: page, PerPage: c.perPage},
		})
	})
}

// GetTree fetches the entire tree for a ref recursively.
func (c *Client) GetTree(ctx context.Context, owner, name, ref string) (*gh.Tree, error) {
	tree, _, err := call(ctx, c, "get tree", func(ctx context.Context, api *gh.Client) (*gh.Tree, *gh.Response, error) {
		return api.Git.GetTree(ctx, owner, name, ref, true)
	})
	return tree, err
}

// CurrentUser returns the login of the authenticated user.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	user, _, err := call(ctx, c, "get user", func(ctx context.Context, api *gh.Client) (*gh.User, *gh.Response, error) {
		return api.Users.Get(ctx, "")
	})
	if err != nil {
		return "", err
	}
	return user.GetLogin(), nil
}

// OpenBlob opens the raw content of a blob. location is the API path
// returned by blobLocation. Retrying is left to the relay.
func (c *Client) OpenBlob(ctx context.Context, location string) (io.ReadCloser, error) {
	api, err := c.api()
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := api.NewRequest(http.MethodGet, location, nil)
	if err != nil {
		return nil, extract.Permanent(fmt.Errorf("build blob request: %w", err))
	}
	req.Header.Set("Accept", rawMediaType)

	resp, err := api.BareDo(ctx, req)
	if resp != nil {
		c.limiter.UpdateFromResponse(resp.Response)
	}
	if err != nil {
		return nil, wrapError(err, "download blob", c.limiter)
	}
	return resp.Body, nil
}

// blobLocation is the API path of a blob, relative to the client base URL.
func blobLocation(owner, name, sha string) string {
	return fmt.Sprintf("repos/%s/%s/git/blobs/%s", owner, name, sha)
}
