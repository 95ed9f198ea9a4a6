// Package sanitize resolves the encoding of text of unknown provenance and
// normalizes its typography to a plain, ASCII-punctuated form.
//
// Three operations are provided:
//
//   - Decoder.Decode tries an ordered list of candidate encodings and returns
//     the first strict success. The last candidate must decode every byte, so
//     decoding never fails.
//   - Normalizer.Normalize applies an ordered character replacement table. In
//     HTML mode only text tokens are rewritten; markup is copied verbatim.
//   - Sanitizer.NormalizeDirectory re-reads every file below a directory,
//     normalizes it and rewrites it as UTF-8.
//
// Normalize is idempotent: every replacement produces ASCII, and no pattern
// contains ASCII, so a second pass finds nothing to replace.
package sanitize
