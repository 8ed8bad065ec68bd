package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Ensure RefreshTokenProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*RefreshTokenProvider)(nil)

// DefaultRefreshBuffer is how long before expiry an access token is renewed.
const DefaultRefreshBuffer = 5 * time.Minute

// RefreshTokenProvider exchanges a long-lived refresh token for access
// tokens, caching each until shortly before it expires.
type RefreshTokenProvider struct {
	config        *oauth2.Config
	refreshToken  string
	refreshBuffer time.Duration

	mu     sync.Mutex
	cached *oauth2.Token
}

// NewRefreshTokenProvider creates a provider for the given client and
// refresh token. tokenURL is the provider's token endpoint.
func NewRefreshTokenProvider(clientID, clientSecret, tokenURL, refreshToken string) *RefreshTokenProvider {
	return &RefreshTokenProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
		refreshToken:  refreshToken,
		refreshBuffer: DefaultRefreshBuffer,
	}
}

// GetToken returns a cached access token or refreshes it.
func (p *RefreshTokenProvider) GetToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && p.fresh(p.cached) {
		return p.cached.AccessToken, nil
	}

	src := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: p.refreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("%w: refresh token: %w", domain.ErrAuthInvalid, err)
	}
	if tok.RefreshToken != "" {
		p.refreshToken = tok.RefreshToken
	}
	p.cached = tok
	return tok.AccessToken, nil
}

func (p *RefreshTokenProvider) fresh(tok *oauth2.Token) bool {
	if tok.AccessToken == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	return time.Until(tok.Expiry) > p.refreshBuffer
}

// AuthMethod returns AuthMethodOAuth.
func (p *RefreshTokenProvider) AuthMethod() domain.AuthMethod {
	return domain.AuthMethodOAuth
}

// IsAuthenticated reports whether a refresh token is configured.
func (p *RefreshTokenProvider) IsAuthenticated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshToken != ""
}
