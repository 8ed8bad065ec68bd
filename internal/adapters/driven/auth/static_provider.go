package auth

import (
	"context"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Ensure StaticTokenProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*StaticTokenProvider)(nil)

// StaticTokenProvider returns a fixed token, typically a personal access
// token taken from the environment or the config file.
type StaticTokenProvider struct {
	token  string
	method domain.AuthMethod
}

// NewStaticTokenProvider creates a provider that always returns token.
func NewStaticTokenProvider(token string, method domain.AuthMethod) *StaticTokenProvider {
	return &StaticTokenProvider{token: token, method: method}
}

// GetToken returns the token, or ErrAuthRequired when it is empty.
func (p *StaticTokenProvider) GetToken(_ context.Context) (string, error) {
	if p.token == "" {
		return "", domain.ErrAuthRequired
	}
	return p.token, nil
}

// AuthMethod returns the declared method.
func (p *StaticTokenProvider) AuthMethod() domain.AuthMethod {
	return p.method
}

// IsAuthenticated reports whether a token is set.
func (p *StaticTokenProvider) IsAuthenticated() bool {
	return p.token != ""
}
