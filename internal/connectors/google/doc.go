// Package google provides shared infrastructure for Google API connectors.
//
// This package contains:
//   - TokenSource, which bridges a TokenProvider to oauth2.TokenSource
//   - NewHTTPClient and NewDriveService for authenticated API access
//   - Classify, which sorts googleapi errors into transient and permanent
//   - RateLimiter, a token bucket that honours Retry-After on 429
//
// # Usage
//
//	hc := google.NewHTTPClient(ctx, tokens)
//	svc, err := google.NewDriveService(ctx, hc, endpoint)
//
// Access tokens are obtained elsewhere. The provider is asked for a token on
// every request, so a token refreshed on disk is picked up without a restart.
package google
