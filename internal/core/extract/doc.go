// Package extract is the entity production engine shared by every connector.
//
// A connector describes each upstream resource as a [Producer]. The
// [Orchestrator] runs producers in declaration order and exposes the result as
// a single lazy, pull-based sequence of [domain.Entity] values. The pieces a
// producer is built from are:
//
//   - [Fetch] and [Policy]: bounded exponential-backoff retry around one
//     outbound call, retrying only failures classified as transient
//   - [Paginate]: drives a cursor-taking fetch step until the source reports
//     no further cursor, fetching a page only after the previous one is drained
//   - [Tracker]: the breadcrumb stack stamped onto every emitted entity
//   - [Relay]: chunked streaming of binary payloads for file entities
//
// # Execution Model
//
// Everything runs on the consumer's goroutine. Suspension happens inside
// range-over-func iterators: when the consumer stops pulling, yield returns
// false, producers unwind with [ErrStopped] and no further fetch is issued.
// Producers never run concurrently, which is what makes the lock-free
// [Tracker] safe.
//
// # Errors
//
// Errors reach the consumer with their original cause. The fetcher returns the
// final attempt's error verbatim and the orchestrator yields a producer's
// error unchanged as the last element of the sequence.
package extract
