// Package pipeline implements the Markdown stage of the conversion.
//
// This package handles the stages that run before tag filtering:
//   - Markdown preprocessing (line endings, blank line compression, trimming)
//   - Markdown to HTML conversion via Goldmark
//
// The HTML produced here is a fragment with no document wrapper. It is not
// restricted in any way: reducing it to the LMS tag set is the job of the
// tagfilter package, and typography cleanup is done by the sanitize package.
package pipeline
