package tagfilter

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Sentinel errors for filter configuration.
var (
	ErrEmptyTagSet        = errors.New("allowed tag set cannot be empty")
	ErrInvalidTagName     = errors.New("invalid tag name")
	ErrInvalidReplacement = errors.New("invalid tag replacement")
)

// TagSet maps an allowed tag name to its ordered list of permitted attributes.
type TagSet map[string][]string

// Replacements maps a disallowed tag name to the allowed tag it becomes.
type Replacements map[string]string

// DefaultTagSet returns the whitelist accepted by the LMS description editor.
func DefaultTagSet() TagSet {
	return TagSet{
		"h2":     {},
		"h3":     {},
		"p":      {},
		"strong": {},
		"em":     {},
		"quote":  {"cite", "author"},
		"table":  {"border", "cellpadding", "cellspacing"},
		"thead":  {},
		"tbody":  {},
		"tr":     {},
		"th":     {},
		"td":     {},
	}
}

// DefaultReplacements returns the rename rules applied before whitelisting.
// Lists and code spans have dedicated passes and are not listed here.
func DefaultReplacements() Replacements {
	return Replacements{
		"h1":         "h2",
		"h4":         "h3",
		"h5":         "h3",
		"h6":         "h3",
		"blockquote": "quote",
		"pre":        "p",
		"div":        "p",
		"a":          "em",
	}
}

// DefaultDiscard returns the elements removed together with their content.
func DefaultDiscard() []string {
	return []string{"script", "style"}
}

// Allows reports whether tag is in the set.
func (s TagSet) Allows(tag string) bool {
	_, ok := s[tag]
	return ok
}

// AllowsAttr reports whether attr is permitted on tag.
func (s TagSet) AllowsAttr(tag, attr string) bool {
	return slices.Contains(s[tag], attr)
}

// Names returns the allowed tag names in sorted order.
func (s TagSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy with lowercased names.
func (s TagSet) Clone() TagSet {
	out := make(TagSet, len(s))
	for tag, attrs := range s {
		lowered := make([]string, 0, len(attrs))
		for _, a := range attrs {
			lowered = append(lowered, strings.ToLower(a))
		}
		out[strings.ToLower(tag)] = lowered
	}
	return out
}

// Validate checks that the set is non-empty and its names are usable tag names.
func (s TagSet) Validate() error {
	if len(s) == 0 {
		return ErrEmptyTagSet
	}
	for tag, attrs := range s {
		if !isTagName(tag) {
			return fmt.Errorf("%w: %q", ErrInvalidTagName, tag)
		}
		for _, a := range attrs {
			if !isTagName(a) {
				return fmt.Errorf("%w: attribute %q on %q", ErrInvalidTagName, a, tag)
			}
		}
	}
	return nil
}

// Clone returns a copy with lowercased names.
func (r Replacements) Clone() Replacements {
	out := make(Replacements, len(r))
	for from, to := range r {
		out[strings.ToLower(from)] = strings.ToLower(to)
	}
	return out
}

// Validate checks the replacement invariant against tags: every target is
// allowed and no source is itself allowed (it would never be renamed).
func (r Replacements) Validate(tags TagSet) error {
	for from, to := range r {
		if !isTagName(from) {
			return fmt.Errorf("%w: %q", ErrInvalidTagName, from)
		}
		if !tags.Allows(to) {
			return fmt.Errorf("%w: %s -> %s (target is not an allowed tag)", ErrInvalidReplacement, from, to)
		}
		if tags.Allows(from) {
			return fmt.Errorf("%w: %s -> %s (source is already allowed)", ErrInvalidReplacement, from, to)
		}
	}
	return nil
}

// isTagName accepts lowercase ASCII letters, digits and hyphens, starting with a letter.
func isTagName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
