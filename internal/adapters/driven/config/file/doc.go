// Package file provides a TOML file implementation of driven.ConfigStore.
//
// The file has three kinds of section:
//   - [retry] tunes the retrying fetcher
//   - [relay] tunes binary streaming
//   - [sources.<type>] holds per-connector configuration
package file
