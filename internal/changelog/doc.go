// Package changelog builds and merges Keep a Changelog sections.
//
// This package implements:
//   - Grouping of classified commits into a release section (Build)
//   - Template-driven markdown rendering of a section (MarkdownRenderer)
//   - Locating the insertion point in an existing CHANGELOG.md (Parse)
//   - Whole-document insertion that never rewrites existing sections (Insert)
//   - Colored terminal previews of a section (FormatSection)
//
// The changelog file format follows https://keepachangelog.com/en/1.1.0/.
// Only the header and the release headings are parsed; section bodies are
// carried as opaque text.
package changelog
