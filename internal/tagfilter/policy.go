package tagfilter

import "github.com/microcosm-cc/bluemonday"

// newPolicy compiles tags into a bluemonday policy. Every allowed element may
// appear bare; its permitted attributes are accepted with any value.
func newPolicy(tags TagSet) *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	for _, tag := range tags.Names() {
		p.AllowNoAttrs().OnElements(tag)
		if attrs := tags[tag]; len(attrs) > 0 {
			p.AllowAttrs(attrs...).OnElements(tag)
		}
	}
	return p
}
