package sanitize

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Sentinel errors for replacement tables.
var (
	ErrEmptyPattern  = errors.New("replacement pattern cannot be empty")
	ErrUnstableTable = errors.New("replacement output matches a pattern")
)

// Replacement rewrites every occurrence of From to To.
type Replacement struct {
	From string
	To   string
}

// DefaultReplacements returns the built-in character table, in application
// order. Asterisks go first. Three-character mojibake (UTF-8 read as
// windows-1252) precedes its two-character prefix, and both precede the
// single code points a mojibake sequence can contain.
func DefaultReplacements() []Replacement {
	return []Replacement{
		{"*", ""},

		{"\u00e2\u20ac\u0153", `"`},   // “ read as windows-1252
		{"\u00e2\u20ac\u009d", `"`},   // ”
		{"\u00e2\u20ac\u2122", "'"},   // ’
		{"\u00e2\u20ac\u02dc", "'"},   // ‘
		{"\u00e2\u20ac\u201c", "-"},   // –
		{"\u00e2\u20ac\u201d", "-"},   // —
		{"\u00e2\u20ac\u00a6", "..."}, // …
		{"\u00e2\u20ac", `"`},         // ” with its last byte lost

		{"\u201c", `"`},
		{"\u201d", `"`},
		{"\u201e", `"`},
		{"\u2018", "'"},
		{"\u2019", "'"},
		{"\u2013", "-"},
		{"\u2014", "-"},
		{"\u2026", "..."},
		{"\u00a0", " "},
		{"\u202f", " "},
		{"\ufffd", `"`},
	}
}

// Normalizer applies a character replacement table. It is immutable and safe
// for concurrent use.
type Normalizer struct {
	table []Replacement
}

// NewNormalizer builds a Normalizer over a copy of table. A table where some
// output contains a pattern is rejected, since reapplying it would never
// settle.
func NewNormalizer(table []Replacement) (*Normalizer, error) {
	n := &Normalizer{table: append([]Replacement(nil), table...)}
	for _, r := range n.table {
		if r.From == "" {
			return nil, fmt.Errorf("%w (to %q)", ErrEmptyPattern, r.To)
		}
		for _, other := range n.table {
			if other.From != "" && strings.Contains(r.To, other.From) {
				return nil, fmt.Errorf("%w: %q -> %q contains %q", ErrUnstableTable, r.From, r.To, other.From)
			}
		}
	}
	return n, nil
}

// DefaultNormalizer returns a Normalizer over DefaultReplacements.
func DefaultNormalizer() *Normalizer {
	n, err := NewNormalizer(DefaultReplacements())
	if err != nil {
		panic("sanitize: default replacements are invalid: " + err.Error())
	}
	return n
}

// Table returns a copy of the replacement table.
func (n *Normalizer) Table() []Replacement {
	return append([]Replacement(nil), n.table...)
}

// Normalize applies the table to text. With isHTML set, only text between
// tags is rewritten: tags, attributes, comments and script/style bodies are
// copied byte for byte, and a '<' left in text is escaped so the result
// tokenizes the same way on a second pass.
func (n *Normalizer) Normalize(text string, isHTML bool) string {
	if !isHTML {
		return n.replace(text)
	}
	return n.normalizeHTML(text)
}

// maxPasses bounds how often the table is reapplied to reach a fixed point.
const maxPasses = 16

// replace applies each rule in order over the whole string, so later rules
// see the output of earlier ones. A rule that deletes or shortens text can
// join its neighbours into an earlier pattern, so the table is reapplied
// until the text stops changing.
func (n *Normalizer) replace(s string) string {
	for range maxPasses {
		next := n.replaceOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func (n *Normalizer) replaceOnce(s string) string {
	for _, r := range n.table {
		if strings.Contains(s, r.From) {
			s = strings.ReplaceAll(s, r.From, r.To)
		}
	}
	return s
}

func (n *Normalizer) normalizeHTML(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	z := html.NewTokenizer(strings.NewReader(s))
	inRaw := false
	for {
		tt := z.Next()
		// Raw must be copied before TagName, which lowercases in place.
		raw := z.Raw()
		switch tt {
		case html.ErrorToken:
			// An unterminated tag at EOF is reported as an error token
			// carrying the leftover bytes.
			b.Write(raw)
			return b.String()
		case html.TextToken:
			if inRaw {
				b.Write(raw)
				continue
			}
			b.WriteString(strings.ReplaceAll(n.replace(string(raw)), "<", "&lt;"))
		case html.StartTagToken, html.SelfClosingTagToken:
			b.Write(raw)
			name, _ := z.TagName()
			inRaw = string(name) == "script" || string(name) == "style"
		case html.EndTagToken:
			b.Write(raw)
			inRaw = false
		default:
			b.Write(raw)
		}
	}
}
