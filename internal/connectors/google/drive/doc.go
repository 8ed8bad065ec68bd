// Package drive implements a Google Drive connector.
//
// Each pass walks the configured folders depth-first. Folders are emitted as
// chunk entities, files as file entities whose content is downloaded, or for
// Docs, Sheets and Slides exported, only when the consumer reads it.
//
// # Entity Hierarchy
//
//	folder (My Drive)
//	├── folder
//	│   └── file
//	└── file
//
// # Configuration
//
//   - folder_ids: folders to walk (default "root")
//   - content_types: files, docs, sheets
//   - mime_types: restrict to these MIME types
//   - page_size: list page size (default 100)
//   - requests_per_second: throttle, 0 disables
//   - base_url: API root override
package drive
