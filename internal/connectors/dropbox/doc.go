// Package dropbox implements a Dropbox connector.
//
// Each pass lists the configured folders with list_folder and
// list_folder/continue, descending into sub-folders depth-first. Files are
// emitted as file entities downloaded only when the consumer reads them.
//
// # Entity Hierarchy
//
//	folder
//	├── folder
//	│   └── file
//	└── file
//
// The account root has no metadata of its own, so its children have no
// root breadcrumb.
//
// # Configuration
//
//   - paths: folders to walk, "" or "/" is the account root (default root)
//   - extensions: only emit files with these extensions (e.g., .md,.pdf)
//   - page_size: list_folder limit (default 500)
//   - requests_per_second: throttle, 0 disables
//   - base_url: API root override, used for both api and content hosts
package dropbox
