package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/core/extract"
)

type staticTokens struct {
	token string
	err   error
	calls int
}

func (s *staticTokens) GetToken(_ context.Context) (string, error) {
	s.calls++
	return s.token, s.err
}

func (s *staticTokens) AuthMethod() domain.AuthMethod { return domain.AuthMethodOAuth }

func (s *staticTokens) IsAuthenticated() bool { return s.token != "" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want extract.Class
	}{
		{"server error", &googleapi.Error{Code: 503}, extract.ClassTransient},
		{"too many requests", &googleapi.Error{Code: 429}, extract.ClassTransient},
		{"not found", &googleapi.Error{Code: 404}, extract.ClassPermanent},
		{"forbidden", &googleapi.Error{Code: 403}, extract.ClassPermanent},
		{
			"forbidden rate limit",
			&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}}},
			extract.ClassTransient,
		},
		{"wrapped", fmt.Errorf("drive: list: %w", &googleapi.Error{Code: 500}), extract.ClassTransient},
		{"relay status", &extract.StatusError{StatusCode: 502}, extract.ClassTransient},
		{"plain", errors.New("boom"), extract.ClassPermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsUnauthorized(&googleapi.Error{Code: 401}))
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", &googleapi.Error{Code: 404})))
	assert.True(t, IsRateLimited(&extract.StatusError{StatusCode: 429}))
	assert.True(t, IsRateLimited(&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}}}))
	assert.False(t, IsRateLimited(&googleapi.Error{Code: 403}))
	assert.False(t, IsUnauthorized(errors.New("boom")))
}

func TestRetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "7")
	assert.Equal(t, 7, RetryAfter(&googleapi.Error{Code: 429, Header: h}))
	assert.Equal(t, 3, RetryAfter(&extract.StatusError{StatusCode: 429, RetryAfter: 3 * time.Second}))
	assert.Zero(t, RetryAfter(errors.New("boom")))
}

func TestRateLimiter_ObservePausesUntilRetryAfter(t *testing.T) {
	r := NewRateLimiter(0, 0)
	r.Observe(&extract.StatusError{StatusCode: 429, RetryAfter: time.Hour})

	assert.WithinDuration(t, time.Now().Add(time.Hour), r.RetryAt(), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.Canceled)
}

func TestRateLimiter_IgnoresOtherErrors(t *testing.T) {
	r := NewRateLimiter(0, 0)
	r.Observe(&googleapi.Error{Code: 500})
	r.Observe(&extract.StatusError{StatusCode: 429})

	assert.True(t, r.RetryAt().IsZero())
	assert.NoError(t, r.Wait(context.Background()))
}

func TestTokenSource(t *testing.T) {
	t.Run("returns bearer token", func(t *testing.T) {
		tok, err := NewTokenSource(context.Background(), &staticTokens{token: "abc"}).Token()
		require.NoError(t, err)
		assert.Equal(t, "abc", tok.AccessToken)
		assert.Equal(t, "Bearer", tok.TokenType)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := NewTokenSource(context.Background(), &staticTokens{}).Token()
		assert.ErrorIs(t, err, domain.ErrAuthRequired)
	})

	t.Run("provider error", func(t *testing.T) {
		_, err := NewTokenSource(context.Background(), &staticTokens{err: errors.New("expired")}).Token()
		assert.ErrorContains(t, err, "expired")
	})
}

func TestNewDriveService_Endpoint(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "/about", r.URL.Path)
		fmt.Fprint(w, `{"user":{"emailAddress":"octo@example.com"}}`)
	}))
	defer srv.Close()

	tokens := &staticTokens{token: "abc"}
	svc, err := NewDriveService(context.Background(), NewHTTPClient(context.Background(), tokens), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/", svc.BasePath)

	about, err := svc.About.Get().Fields("user").Do()
	require.NoError(t, err)
	assert.Equal(t, "octo@example.com", about.User.EmailAddress)
	assert.Equal(t, "Bearer abc", auth)
}
