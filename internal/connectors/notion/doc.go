// Package notion implements a Notion connector.
//
// Each pass starts from the pages and databases shared with the integration
// at workspace level (or the configured page_ids) and walks down through
// block children, child pages and database rows. Text blocks become chunk
// entities; file, pdf, image, audio and video blocks become file entities
// streamed from their signed URL.
//
// # Entity Hierarchy
//
//	page
//	├── block
//	│   └── block (nested)
//	├── page (child page)
//	│   └── block
//	└── database
//	    └── page (row)
//	        └── block
//
// # Configuration
//
//   - page_ids: root pages, default every workspace-level page and database
//   - page_size: list page size (default 100, max 100)
//   - requests_per_second: throttle, 0 disables (default 3)
//   - base_url: API root override
package notion
