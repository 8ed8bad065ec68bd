// Package filesystem implements a connector over a local directory tree.
//
// Directories are emitted as chunk entities and regular files as file
// entities whose content is read from disk only when consumed. Hidden files
// and directories (dot-prefixed) are skipped unless include_hidden is set.
//
// # Configuration
//
//   - root_path: directory to walk (required)
//   - include_hidden: also walk dot-prefixed entries
//   - extensions: only emit files with these extensions
package filesystem
