package drive

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/sercha-extract/internal/connectors/google"
	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// fileFields is the partial response requested for every file.
const fileFields = "id,name,mimeType,size,createdTime,modifiedTime,webViewLink,parents,trashed,md5Checksum"

// Client wraps the Drive API service with rate limiting and retry.
type Client struct {
	mu       sync.Mutex
	tokens   driven.TokenProvider
	endpoint string
	pageSize int64
	limiter  *google.RateLimiter
	policy   extract.Policy

	svc *drive.Service
	hc  *http.Client
}

// NewClient creates a Drive client. Connect must be called before use.
func NewClient(tokens driven.TokenProvider, cfg *Config, policy extract.Policy) *Client {
	return &Client{
		tokens:   tokens,
		endpoint: cfg.BaseURL,
		pageSize: cfg.PageSize,
		limiter:  google.NewRateLimiter(cfg.RequestsPerSecond, google.DefaultBurst),
		policy:   policy.WithClassifier(google.Classify),
	}
}

// Connect (re)builds the API service for a new pass.
func (c *Client) Connect(ctx context.Context) error {
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	if token == "" {
		return fmt.Errorf("drive: %w", domain.ErrAuthRequired)
	}

	hc := google.NewHTTPClient(ctx, c.tokens)
	svc, err := google.NewDriveService(ctx, hc, c.endpoint)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.svc, c.hc = svc, hc
	c.mu.Unlock()
	return nil
}

func (c *Client) service() (*drive.Service, *http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.svc == nil {
		return nil, nil, fmt.Errorf("drive: client not connected: %w", domain.ErrAuthRequired)
	}
	return c.svc, c.hc, nil
}

// call runs one API request under the retry policy and rate limiter.
func call[T any](
	ctx context.Context,
	c *Client,
	operation string,
	fn func(ctx context.Context, svc *drive.Service) (T, error),
) (T, error) {
	svc, _, err := c.service()
	if err != nil {
		var zero T
		return zero, err
	}
	return extract.Fetch(ctx, c.policy, func(ctx context.Context) (T, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			var zero T
			return zero, err
		}
		v, err := fn(ctx, svc)
		if err != nil {
			c.limiter.Observe(err)
			return v, fmt.Errorf("drive: %s: %w", operation, err)
		}
		return v, nil
	})
}

// About returns the authenticated user's Drive profile.
func (c *Client) About(ctx context.Context) (*drive.About, error) {
	return call(ctx, c, "about", func(ctx context.Context, svc *drive.Service) (*drive.About, error) {
		return svc.About.Get().Fields("user(displayName,emailAddress)").Context(ctx).Do()
	})
}

// GetFile fetches one file's metadata. "root" addresses My Drive.
func (c *Client) GetFile(ctx context.Context, id string) (*drive.File, error) {
	return call(ctx, c, "get file", func(ctx context.Context, svc *drive.Service) (*drive.File, error) {
		return svc.Files.Get(id).
			Fields(fileFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
	})
}

// ListChildren fetches one page of a folder's non-trashed children.
func (c *Client) ListChildren(ctx context.Context, folderID, pageToken string) (*drive.FileList, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", strings.ReplaceAll(folderID, "'", `\'`))
	return call(ctx, c, "list files", func(ctx context.Context, svc *drive.Service) (*drive.FileList, error) {
		req := svc.Files.List().
			Q(q).
			Fields("nextPageToken, files(" + fileFields + ")").
			OrderBy("folder,name").
			PageSize(c.pageSize).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		return req.Context(ctx).Do()
	})
}

// Children yields every child of a folder, one page at a time.
func (c *Client) Children(ctx context.Context, folderID string) iter.Seq2[*drive.File, error] {
	return extract.Paginate(ctx, "", func(ctx context.Context, token string) (extract.Page[*drive.File, string], error) {
		list, err := c.ListChildren(ctx, folderID, token)
		if err != nil {
			return extract.Page[*drive.File, string]{}, err
		}
		return extract.Page[*drive.File, string]{
			Items:   list.Files,
			Next:    list.NextPageToken,
			HasNext: list.NextPageToken != "",
		}, nil
	})
}

// ContentLocation returns the URL the file's bytes are streamed from.
// Workspace documents are exported to exportMIME.
func (c *Client) ContentLocation(fileID, exportMIME string) (string, error) {
	svc, _, err := c.service()
	if err != nil {
		return "", err
	}
	base := svc.BasePath + "files/" + url.PathEscape(fileID)
	if exportMIME != "" {
		return base + "/export?" + url.Values{"mimeType": {exportMIME}}.Encode(), nil
	}
	return base + "?" + url.Values{"alt": {"media"}, "supportsAllDrives": {"true"}}.Encode(), nil
}

// Open starts a content download. It implements extract.StreamOpener.
func (c *Client) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	_, hc, err := c.service()
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, err := extract.HTTPOpener(hc, nil)(ctx, location)
	if err != nil {
		c.limiter.Observe(err)
		return nil, err
	}
	return body, nil
}
