package tagfilter

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	nethtml "golang.org/x/net/html"
)

// Config holds the tables a Filter is built from.
type Config struct {
	Tags         TagSet       // allowed tags and their attributes (required)
	Replacements Replacements // renames applied before whitelisting
	Discard      []string     // elements removed with their content
}

// DefaultConfig returns a fresh copy of the built-in tables.
func DefaultConfig() Config {
	return Config{
		Tags:         DefaultTagSet(),
		Replacements: DefaultReplacements(),
		Discard:      DefaultDiscard(),
	}
}

// Filter reduces HTML to an allowed tag set. It is immutable once built and
// safe for concurrent use.
type Filter struct {
	tags         TagSet
	replacements Replacements
	discard      map[string]bool
	policy       *bluemonday.Policy
	passes       []pass
}

// New builds a Filter from cfg. The tables are copied, so later changes to
// cfg do not affect the Filter.
func New(cfg Config) (*Filter, error) {
	tags := cfg.Tags.Clone()
	if err := tags.Validate(); err != nil {
		return nil, err
	}
	repl := cfg.Replacements.Clone()
	if err := repl.Validate(tags); err != nil {
		return nil, err
	}

	discard := make(map[string]bool, len(cfg.Discard))
	for _, name := range cfg.Discard {
		discard[strings.ToLower(name)] = true
	}

	f := &Filter{
		tags:         tags,
		replacements: repl,
		discard:      discard,
		policy:       newPolicy(tags),
	}
	f.passes = []pass{
		{"rename", func(root *nethtml.Node) { renameTags(root, f.replacements) }},
		{"lists", flattenLists},
		{"code", simplifyCode},
		{"whitelist", func(root *nethtml.Node) { enforceWhitelist(root, f.tags, f.discard) }},
		{"paragraphs", repairParagraphs},
		{"emphasis", repairEmphasis},
		{"tables", normalizeTables},
	}
	return f, nil
}

// Default returns a Filter built from DefaultConfig.
func Default() *Filter {
	f, err := New(DefaultConfig())
	if err != nil {
		panic("tagfilter: default config is invalid: " + err.Error())
	}
	return f
}

// Tags returns a copy of the allowed tag set.
func (f *Filter) Tags() TagSet {
	return f.tags.Clone()
}

// PassNames lists the passes in the order they run.
func (f *Filter) PassNames() []string {
	names := make([]string, len(f.passes))
	for i, p := range f.passes {
		names[i] = p.name
	}
	return names
}

// Filter returns content reduced to the allowed tag set. It never fails.
func (f *Filter) Filter(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}

	root, err := parseFragment(content)
	if err != nil {
		return literalParagraph(content)
	}
	for _, p := range f.passes {
		p.run(root)
	}

	out, err := renderFragment(root)
	if err != nil {
		return literalParagraph(content)
	}
	return f.policy.Sanitize(out)
}

// literalParagraph is the fallback for input the parser rejects.
func literalParagraph(content string) string {
	return "<p>" + html.EscapeString(strings.TrimSpace(content)) + "</p>"
}
