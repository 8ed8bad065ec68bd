// Package github implements a connector for GitHub repositories.
//
// The connector produces every repository accessible to the authenticated
// user (or the repositories named in configuration), and beneath each
// repository its issues with their comments, its pull requests, and the
// files of its default branch.
//
// # Entity Hierarchy
//
//	repository
//	├── issue
//	│   └── issue_comment
//	├── pull_request
//	└── file (streamed)
//
// Repository entities are emitted before anything beneath them, and children
// carry the repository (and, for comments, the issue) breadcrumb.
//
// # Authentication
//
// Personal access tokens and OAuth access tokens are both sent as bearer
// material. The token is read from the TokenProvider at the start of every
// pass, so rotated material is used on the next pass.
//
// # Configuration
//
// Source configuration accepts the following keys:
//
//   - repos: comma-separated owner/name list. Default: all accessible repos.
//
//   - content_types: comma-separated list of content to produce.
//     Valid values: issues, prs, files. Default: all types.
//
//   - file_patterns: comma-separated glob patterns for file filtering.
//     Example: "*.go,*.md". Default: all files.
//
//   - include_forks, include_archived: booleans, default false.
//
//   - base_url: API root for GitHub Enterprise.
//
//   - requests_per_second: proactive throttle. Zero disables it. Default 1.2.
//
// # Rate Limiting
//
// The connector implements a dual-strategy rate limiting approach:
//
//  1. Proactive throttling: a token bucket algorithm limits requests to
//     approximately 1.2 requests per second, staying well under the 5,000/hour
//     limit whilst maximising throughput.
//
//  2. Reactive handling: the X-RateLimit-* headers of every response are
//     tracked, and requests pause until the reset time once the remaining
//     quota falls below a reserve. Rate-limit responses are classified
//     transient and retried under the engine's backoff policy.
package github
