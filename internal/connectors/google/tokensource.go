package google

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// TokenSource adapts a driven.TokenProvider to oauth2.TokenSource.
type TokenSource struct {
	ctx      context.Context
	provider driven.TokenProvider
}

// NewTokenSource creates an oauth2.TokenSource backed by provider.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider) *TokenSource {
	return &TokenSource{ctx: ctx, provider: provider}
}

// Token implements oauth2.TokenSource.
func (t *TokenSource) Token() (*oauth2.Token, error) {
	accessToken, err := t.provider.GetToken(t.ctx)
	if err != nil {
		return nil, fmt.Errorf("google: get token: %w", err)
	}
	if accessToken == "" {
		return nil, fmt.Errorf("google: %w", domain.ErrAuthRequired)
	}
	return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}, nil
}

// NewHTTPClient returns an HTTP client that authorises every request with
// the provider's current token.
func NewHTTPClient(ctx context.Context, provider driven.TokenProvider) *http.Client {
	return oauth2.NewClient(ctx, NewTokenSource(ctx, provider))
}
