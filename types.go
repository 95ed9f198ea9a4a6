package md2lms

import (
	"log/slog"
	"maps"
)

// Input is one Markdown document.
type Input struct {
	Name     string // Used in diagnostics only (optional)
	Markdown []byte // Raw bytes in any candidate encoding
}

// Result holds the converted document.
type Result struct {
	Name     string
	HTML     []byte // UTF-8, restricted to the allowed tag set
	Encoding string // Encoding that decoded Input.Markdown
}

// CharacterReplacement rewrites every occurrence of From to To.
type CharacterReplacement struct {
	From string
	To   string
}

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds the tables a Converter is built from. Nil fields
// select the built-in defaults.
type converterConfig struct {
	tags         map[string][]string
	replacements map[string]string
	discard      []string
	characters   []CharacterReplacement
	encodings    []string
	binaryExts   []string
	htmlExts     []string
}

// WithTagSet replaces the allowed tags, each mapped to its permitted
// attributes. Unless WithTagReplacements is also given, no tag is renamed,
// since the default renames target tags the new set may not allow.
func WithTagSet(tags map[string][]string) Option {
	copied := make(map[string][]string, len(tags))
	for tag, attrs := range tags {
		copied[tag] = append([]string(nil), attrs...)
	}
	return func(c *Converter) { c.cfg.tags = copied }
}

// WithTagReplacements replaces the table of renames applied before
// whitelisting (for example "h1" to "h2").
func WithTagReplacements(repl map[string]string) Option {
	copied := maps.Clone(repl)
	if copied == nil {
		copied = map[string]string{}
	}
	return func(c *Converter) { c.cfg.replacements = copied }
}

// WithDiscardedTags replaces the elements dropped together with their content.
func WithDiscardedTags(tags ...string) Option {
	copied := append([]string{}, tags...)
	return func(c *Converter) { c.cfg.discard = copied }
}

// WithCharacterReplacements replaces the ordered character table.
func WithCharacterReplacements(pairs ...CharacterReplacement) Option {
	copied := append([]CharacterReplacement{}, pairs...)
	return func(c *Converter) { c.cfg.characters = copied }
}

// WithEncodings replaces the ordered decoding candidates. The last one must
// decode every byte value.
func WithEncodings(names ...string) Option {
	copied := append([]string{}, names...)
	return func(c *Converter) { c.cfg.encodings = copied }
}

// WithBinaryExtensions replaces the extensions NormalizeDirectory skips.
func WithBinaryExtensions(exts ...string) Option {
	copied := append([]string{}, exts...)
	return func(c *Converter) { c.cfg.binaryExts = copied }
}

// WithHTMLExtensions replaces the extensions NormalizeDirectory treats as HTML.
func WithHTMLExtensions(exts ...string) Option {
	copied := append([]string{}, exts...)
	return func(c *Converter) { c.cfg.htmlExts = copied }
}

// WithLogger sets the diagnostics logger. Nil keeps the default, which
// discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}
