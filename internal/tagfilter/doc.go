// Package tagfilter reduces Markdown-rendered HTML to a fixed tag vocabulary.
//
// A Filter parses its input into a node tree and runs a fixed sequence of
// passes over it:
//
//  1. rename tags through the replacement table (h1 -> h2, blockquote -> quote, ...)
//  2. flatten lists into standalone paragraphs
//  3. turn code spans into emphasis
//  4. enforce the whitelist (unwrap unknown elements, drop attributes)
//  5. split nested paragraphs, wrap loose text and prune empty ones
//  6. remove stray emphasis markers left by the Markdown renderer
//  7. give every table exactly one thead and one tbody
//
// Unknown elements are unwrapped, never deleted, so text survives filtering.
// Only the elements in the discard set (script and style by default) lose
// their content. The rendered result is finally run through a bluemonday
// policy compiled from the same whitelist.
//
// Filtering never fails: input that cannot be parsed or rendered comes back
// as escaped text inside a single paragraph.
package tagfilter
