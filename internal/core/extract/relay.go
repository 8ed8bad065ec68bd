package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"

	"github.com/custodia-labs/sercha-extract/internal/core/domain"
	"github.com/custodia-labs/sercha-extract/internal/logger"
)

// DefaultChunkSize is the relay read buffer size.
const DefaultChunkSize = 64 * 1024

var (
	// ErrStreamInterrupted is matched by any failure after a stream opened.
	ErrStreamInterrupted = errors.New("stream interrupted")

	// ErrSizeMismatch is returned in strict mode when the relayed byte count
	// differs from the declared size.
	ErrSizeMismatch = errors.New("relayed size does not match declared size")
)

// StreamError is a failure after a stream opened. It is never retried.
type StreamError struct {
	Location  string
	Delivered int64
	Err       error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s interrupted after %d bytes: %v", e.Location, e.Delivered, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// Is reports ErrStreamInterrupted as a match.
func (e *StreamError) Is(target error) bool { return target == ErrStreamInterrupted }

// StreamOpener opens the payload at location for reading.
type StreamOpener func(ctx context.Context, location string) (io.ReadCloser, error)

// Relay streams file payloads one chunk at a time.
type Relay struct {
	open      StreamOpener
	policy    Policy
	chunkSize int
	strict    bool
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithChunkSize sets the read buffer size.
func WithChunkSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// WithStrictSize makes a declared size mismatch fail the stream.
func WithStrictSize(strict bool) RelayOption {
	return func(r *Relay) {
		r.strict = strict
	}
}

// NewRelay creates a relay that opens streams with open under policy.
// The policy's AttemptTimeout is ignored, since the body outlives the open.
func NewRelay(open StreamOpener, policy Policy, opts ...RelayOption) *Relay {
	policy.AttemptTimeout = 0
	r := &Relay{
		open:      open,
		policy:    policy,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open streams the payload at location. Opening is retried under the
// relay's policy; once open, any read failure ends the stream with a
// *StreamError. The yielded slice is reused between chunks.
func (r *Relay) Open(ctx context.Context, location string) iter.Seq2[[]byte, error] {
	return r.stream(ctx, location, nil)
}

// Attach sets f's content to a relay stream over its location.
func (r *Relay) Attach(ctx context.Context, f *domain.FileEntity) {
	f.Content = r.stream(ctx, f.Location, f.Size)
}

func (r *Relay) stream(ctx context.Context, location string, declared *int64) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		body, err := Fetch(ctx, r.policy, func(ctx context.Context) (io.ReadCloser, error) {
			r.policy.Metrics.streamOpen()
			return r.open(ctx, location)
		})
		if err != nil {
			yield(nil, err)
			return
		}
		defer body.Close()

		buf := make([]byte, r.chunkSize)
		var delivered int64
		for {
			n, rerr := body.Read(buf)
			if n > 0 {
				delivered += int64(n)
				r.policy.Metrics.relayed(n)
				if !yield(buf[:n], nil) {
					return
				}
			}
			if errors.Is(rerr, io.EOF) {
				break
			}
			if rerr != nil {
				yield(nil, &StreamError{Location: location, Delivered: delivered, Err: rerr})
				return
			}
		}

		if declared != nil && *declared != delivered {
			if r.strict {
				yield(nil, fmt.Errorf("%w: %s declared %d, relayed %d", ErrSizeMismatch, location, *declared, delivered))
				return
			}
			logger.Warn("size mismatch for %s: declared %d, relayed %d", location, *declared, delivered)
		}
	}
}

// HTTPOpener opens locations with GET requests on client. Non-2xx responses
// become *StatusError.
func HTTPOpener(client *http.Client, header http.Header) StreamOpener {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, location string) (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
		if err != nil {
			return nil, Permanent(fmt.Errorf("build request: %w", err))
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, NewStatusError(resp)
		}
		return resp.Body, nil
	}
}
