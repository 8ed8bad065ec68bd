package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// NewDriveService creates a Drive API service over hc. A non-empty endpoint
// overrides the public API root.
func NewDriveService(ctx context.Context, hc *http.Client, endpoint string) (*drive.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimSuffix(endpoint, "/")+"/"))
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: create drive service: %w", err)
	}
	return svc, nil
}
