// Package md2lms converts Markdown documents into the restricted HTML
// accepted by learning-management description fields.
//
// # Quick Start
//
// Create a converter and convert markdown bytes of any common encoding:
//
//	conv, err := md2lms.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := conv.Convert(ctx, md2lms.Input{
//	    Name:     "intro.md",
//	    Markdown: []byte("# Hello\n\n- one\n- two"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("intro.html", result.HTML, 0644)
//
// # Conversion Pipeline
//
// Each document goes through these stages:
//
//  1. Decoding: the first candidate encoding that accepts the bytes wins
//     (utf-8, windows-1252, iso-8859-1 by default)
//  2. Markdown preprocessing (line endings, blank line runs)
//  3. Markdown to HTML conversion via Goldmark (GFM, footnotes, highlighting)
//  4. Tag filtering: the HTML is reduced to the allowed tag set, lists become
//     paragraphs, tables get exactly one thead and one tbody
//  5. Character normalization of the text nodes (smart quotes, dashes,
//     mojibake and asterisks become plain ASCII)
//
// # Configuration
//
// Use functional options to replace the built-in tables:
//
//	conv, err := md2lms.NewConverter(
//	    md2lms.WithTagSet(map[string][]string{"p": nil, "strong": nil}),
//	    md2lms.WithEncodings("utf-8", "iso-8859-15"),
//	    md2lms.WithLogger(slog.Default()),
//	)
//
// A Converter is immutable and safe for concurrent use. Batch drivers share
// one Converter between workers sized with ResolveWorkers.
//
// # Directory Pass
//
// NormalizeDirectory re-encodes every text file of a directory as UTF-8 and
// applies the character table, HTML files being rewritten token by token.
// The md2lms command runs it over its output directory after each batch.
package md2lms
