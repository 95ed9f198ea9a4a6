package tagfilter

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// codeReplacement is the tag code spans become.
const codeReplacement = "em"

// Stray emphasis markers: any asterisk run, and underscore runs sitting on a
// word edge. Underscores inside words (snake_case) are kept.
var (
	asteriskRun         = regexp.MustCompile(`\*+`)
	leadingUnderscores  = regexp.MustCompile(`(^|[\s(\[{"'])_+([^\s_])`)
	trailingUnderscores = regexp.MustCompile(`([^\s_])_+($|[\s)\]}.,;:!?"'])`)
)

// pass is one named tree transformation. Passes run in slice order.
type pass struct {
	name string
	run  func(root *html.Node)
}

// renameTags rewrites element names found in the replacement table.
func renameTags(root *html.Node, repl Replacements) {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if to, ok := repl[c.Data]; ok {
			rename(c, to)
		}
		renameTags(c, repl)
	}
}

// flattenLists replaces every ul/ol with one paragraph per item.
// Inner lists are flattened first, so a nested list ends up as paragraphs
// inside its parent item's paragraph; repairParagraphs later splits those
// into siblings, which yields the items in document order.
func flattenLists(root *html.Node) {
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			flattenLists(c)
			if c.Data == "ul" || c.Data == "ol" {
				flattenList(c)
			}
		}
		c = next
	}
}

func flattenList(list *html.Node) {
	parent := list.Parent
	for c := list.FirstChild; c != nil; c = list.FirstChild {
		list.RemoveChild(c)

		var p *html.Node
		switch {
		case isElement(c, "li"):
			p = newElement("p")
			moveChildren(p, c)
		case c.Type == html.ElementNode:
			p = newElement("p")
			p.AppendChild(c)
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) != "":
			p = newElement("p")
			p.AppendChild(c)
		default:
			continue
		}

		parent.InsertBefore(p, list)
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: "\n"}, list)
	}
	parent.RemoveChild(list)
}

// simplifyCode turns every code element into emphasis.
func simplifyCode(root *html.Node) {
	for _, n := range collect(root, "code") {
		rename(n, codeReplacement)
		n.Attr = nil
	}
}

// enforceWhitelist unwraps elements outside tags, removes discarded elements,
// comments and doctypes, and drops attributes the tag does not permit.
func enforceWhitelist(root *html.Node, tags TagSet, discard map[string]bool) {
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.ElementNode:
			switch {
			case tags.Allows(c.Data):
				enforceWhitelist(c, tags, discard)
				c.Attr = allowedAttrs(c, tags)
			case discard[c.Data]:
				root.RemoveChild(c)
			default:
				enforceWhitelist(c, tags, discard)
				unwrap(c)
			}
		case html.CommentNode, html.DoctypeNode:
			root.RemoveChild(c)
		}
		c = next
	}
}

func allowedAttrs(n *html.Node, tags TagSet) []html.Attribute {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && tags.AllowsAttr(n.Data, a.Key) {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// repairParagraphs guarantees no paragraph has a paragraph descendant, wraps
// loose top-level text in paragraphs, then prunes paragraphs without text.
func repairParagraphs(root *html.Node) {
	splitNested(root)
	wrapLooseText(root)
	pruneParagraphs(root)
}

// phrasing lists the inline elements that are pushed inside a paragraph they
// wrap. Any other element holding a paragraph is hoisted whole.
var phrasing = map[string]bool{
	"a": true, "abbr": true, "b": true, "cite": true, "code": true, "dfn": true,
	"em": true, "i": true, "kbd": true, "mark": true, "q": true, "s": true,
	"samp": true, "small": true, "span": true, "strong": true, "sub": true,
	"sup": true, "u": true, "var": true,
}

func splitNested(root *html.Node) {
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type != html.ElementNode:
		case c.Data != "p":
			splitNested(c)
		case hasParagraph(c):
			for _, s := range splitParagraph(c) {
				root.InsertBefore(s.node, c)
			}
			root.RemoveChild(c)
		}
		c = next
	}
}

// segment is a detached piece of a split subtree. Block segments sit at
// paragraph level; the others are inline content.
type segment struct {
	node  *html.Node
	block bool
}

// splitParagraph empties p into paragraph-level segments, splitting every
// ancestor of a nested paragraph at its boundaries. Inline runs between
// nested paragraphs become new paragraphs carrying the attributes of p.
func splitParagraph(p *html.Node) []segment {
	var out []segment
	var loose *html.Node
	for c := p.FirstChild; c != nil; c = p.FirstChild {
		for _, s := range split(c) {
			if s.block {
				loose = nil
				out = append(out, s)
				continue
			}
			if loose == nil {
				loose = newElement("p")
				loose.Attr = append([]html.Attribute(nil), p.Attr...)
				out = append(out, segment{loose, true})
			}
			loose.AppendChild(s.node)
		}
	}
	return out
}

// split detaches n from its parent and returns it as segments. Elements
// other than inline ones that hold a paragraph, such as quote, are hoisted
// whole after their own paragraphs are repaired.
func split(n *html.Node) []segment {
	defer func() {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}()

	switch {
	case n.Type != html.ElementNode:
		return []segment{{n, false}}
	case n.Data == "p":
		if !hasParagraph(n) {
			return []segment{{n, true}}
		}
		return splitParagraph(n)
	case !hasParagraph(n):
		return []segment{{n, false}}
	case phrasing[n.Data]:
		return splitInline(n)
	default:
		splitNested(n)
		return []segment{{n, true}}
	}
}

// hasParagraph reports whether n has a p descendant.
func hasParagraph(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, "p") || hasParagraph(c) {
			return true
		}
	}
	return false
}

// splitInline splits an inline element around the paragraphs it holds. Each
// paragraph gets a copy of the element wrapped around its content, so
// <em><p>x</p></em> becomes <p><em>x</em></p>.
func splitInline(n *html.Node) []segment {
	var out []segment
	var shell *html.Node
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		for _, s := range split(c) {
			if !s.block {
				if shell == nil {
					shell = shallowCopy(n)
					out = append(out, segment{shell, false})
				}
				shell.AppendChild(s.node)
				continue
			}
			shell = nil
			if isElement(s.node, "p") {
				wrapper := shallowCopy(n)
				moveChildren(wrapper, s.node)
				s.node.AppendChild(wrapper)
			}
			out = append(out, s)
		}
	}
	return out
}

// wrapLooseText wraps runs of top-level text and inline elements holding
// visible text in paragraphs.
func wrapLooseText(root *html.Node) {
	var run []*html.Node
	flush := func() {
		defer func() { run = nil }()
		visible := false
		for _, n := range run {
			if strings.TrimSpace(textContent(n)) != "" {
				visible = true
				break
			}
		}
		if !visible {
			return
		}
		// Surrounding whitespace stays outside the new paragraph.
		for len(run) > 0 && isBlankText(run[0]) {
			run = run[1:]
		}
		for len(run) > 0 && isBlankText(run[len(run)-1]) {
			run = run[:len(run)-1]
		}
		p := newElement("p")
		root.InsertBefore(p, run[0])
		for _, n := range run {
			root.RemoveChild(n)
			p.AppendChild(n)
		}
	}

	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode || (c.Type == html.ElementNode && phrasing[c.Data]) {
			run = append(run, c)
			continue
		}
		flush()
	}
	flush()
}

func isBlankText(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) == ""
}

// pruneParagraphs removes paragraphs without visible text and collapses the
// whitespace of paragraphs holding a single text node.
func pruneParagraphs(root *html.Node) {
	for _, p := range collect(root, "p") {
		if strings.TrimSpace(textContent(p)) == "" {
			p.Parent.RemoveChild(p)
			continue
		}
		if t, ok := soleText(p); ok {
			t.Data = strings.Join(strings.Fields(t.Data), " ")
		}
	}
}

// repairEmphasis fixes emphasis the renderer left half-parsed and strips
// literal markers from text.
func repairEmphasis(root *html.Node) {
	for _, n := range collect(root, "em", "strong") {
		t, ok := soleText(n)
		if !ok {
			continue
		}
		s := t.Data
		switch {
		case n.Data == "em" && len(s) >= 4 && strings.HasPrefix(s, "**") && strings.HasSuffix(s, "**"):
			rename(n, "strong")
			t.Data = s[2 : len(s)-2]
		case n.Data == "strong" && len(s) >= 2 && strings.HasPrefix(s, "*") && strings.HasSuffix(s, "*") && !strings.HasPrefix(s, "**"):
			rename(n, "em")
			t.Data = s[1 : len(s)-1]
		}
	}
	stripMarkers(root)
}

func stripMarkers(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			c.Data = removeMarkers(c.Data)
			continue
		}
		stripMarkers(c)
	}
}

// removeMarkers deletes asterisk runs and word-edge underscore runs.
func removeMarkers(s string) string {
	if !strings.ContainsAny(s, "*_") {
		return s
	}
	s = asteriskRun.ReplaceAllString(s, "")
	s = leadingUnderscores.ReplaceAllString(s, "${1}${2}")
	return trailingUnderscores.ReplaceAllString(s, "${1}${2}")
}
