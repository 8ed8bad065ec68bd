// Package domain defines the core types for Sercha Extract.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Entity: a normalised record produced by a connector
//   - ChunkEntity: an entity carrying embeddable text content
//   - FileEntity: an entity whose binary content is streamed separately
//   - Breadcrumb: a compact reference to an ancestor entity
//   - Source: a configured data source instance
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
