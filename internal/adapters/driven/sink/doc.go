// Package sink provides driven.EntitySink implementations for the
// diagnostic CLI.
//
// Sinks:
//   - NDJSON writes one JSON object per entity and drains file content
//   - Discard counts entities without reading file content
package sink
