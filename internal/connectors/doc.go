// Package connectors provides the connector registry and the built-in
// connector implementations. Each connector knows how to produce entities
// from a specific source type (GitHub, Google Drive, Dropbox, Notion).
//
// Connectors are registered with the Registry at startup via RegisterBuiltins.
package connectors
