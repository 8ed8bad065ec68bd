package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/ports/driven"
)

// Ensure Factory implements the TokenProviderFactory interface.
var _ driven.TokenProviderFactory = (*Factory)(nil)

// Source config keys read by the factory.
const (
	KeyToken        = "token"
	KeyTokenFile    = "token_file"
	KeyRefreshToken = "refresh_token"
	KeyClientID     = "client_id"
	KeyClientSecret = "client_secret"
	KeyTokenURL     = "token_url"
)

// Factory resolves bearer material for a source. Resolution order is the
// SERCHA_<TYPE>_TOKEN environment variable, then token, token_file and
// finally an OAuth refresh token from the source's config section.
type Factory struct {
	getenv func(string) string

	mu      sync.Mutex
	closers []io.Closer
}

// NewFactory creates a factory that reads the process environment.
func NewFactory() *Factory {
	return &Factory{getenv: os.Getenv}
}

// NewFactoryWithEnv creates a factory with a custom environment lookup.
func NewFactoryWithEnv(getenv func(string) string) *Factory {
	return &Factory{getenv: getenv}
}

// EnvVar returns the environment variable consulted for a source type.
func EnvVar(sourceType string) string {
	name := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(sourceType))
	return "SERCHA_" + name + "_TOKEN"
}

// Create returns a TokenProvider for source using the declared method.
// Returns ErrAuthRequired when the method needs material and none is configured.
func (f *Factory) Create(_ context.Context, source domain.Source, method domain.AuthMethod) (driven.TokenProvider, error) {
	if !method.RequiresAuth() {
		return NewNullTokenProvider(), nil
	}

	if token := strings.TrimSpace(f.getenv(EnvVar(source.Type))); token != "" {
		return NewStaticTokenProvider(token, method), nil
	}
	if token := source.Get(KeyToken, ""); token != "" {
		return NewStaticTokenProvider(token, method), nil
	}
	if path := source.Get(KeyTokenFile, ""); path != "" {
		p, err := NewFileTokenProvider(path, method)
		if err != nil {
			return nil, err
		}
		f.track(p)
		return p, nil
	}
	if refresh := source.Get(KeyRefreshToken, ""); refresh != "" && method == domain.AuthMethodOAuth {
		tokenURL := source.Get(KeyTokenURL, "")
		if tokenURL == "" {
			return nil, fmt.Errorf("%w: %s refresh_token needs token_url", domain.ErrMissingConfig, source.Type)
		}
		return NewRefreshTokenProvider(
			source.Get(KeyClientID, ""),
			source.Get(KeyClientSecret, ""),
			tokenURL,
			refresh,
		), nil
	}

	return nil, fmt.Errorf("%w: set %s or token_file in [sources.%s]",
		domain.ErrAuthRequired, EnvVar(source.Type), source.Type)
}

func (f *Factory) track(c io.Closer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closers = append(f.closers, c)
}

// Close releases file watchers started by Create.
func (f *Factory) Close() error {
	f.mu.Lock()
	closers := f.closers
	f.closers = nil
	f.mu.Unlock()

	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
