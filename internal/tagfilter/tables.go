package tagfilter

import (
	"strings"

	"golang.org/x/net/html"
)

// normalizeTables gives every table exactly one thead followed by one tbody.
// Row and cell counts are left alone.
func normalizeTables(root *html.Node) {
	for _, table := range collect(root, "table") {
		normalizeTable(table)
	}
}

func normalizeTable(table *html.Node) {
	var headRows, bodyRows []*html.Node
	hadHead := false

	for c := table.FirstChild; c != nil; c = table.FirstChild {
		table.RemoveChild(c)
		switch {
		case isElement(c, "thead"):
			hadHead = true
			headRows = append(headRows, sectionRows(c, table)...)
		case isElement(c, "tbody"):
			bodyRows = append(bodyRows, sectionRows(c, table)...)
		case isElement(c, "tr"):
			bodyRows = append(bodyRows, c)
		default:
			hoist(c, table)
		}
	}

	// Header-less tables use their first row as the header, tbody or not: the
	// parser adds a tbody around bare rows, so an authored one cannot be told
	// apart.
	if !hadHead && len(bodyRows) > 0 {
		first := bodyRows[0]
		bodyRows = bodyRows[1:]
		for cell := first.FirstChild; cell != nil; cell = cell.NextSibling {
			if isElement(cell, "td") {
				rename(cell, "th")
			}
		}
		headRows = append(headRows, first)
	}

	head := newElement("thead")
	for _, r := range headRows {
		head.AppendChild(r)
	}
	body := newElement("tbody")
	for _, r := range bodyRows {
		body.AppendChild(r)
	}
	table.AppendChild(head)
	table.AppendChild(body)
}

// sectionRows detaches the rows of a thead/tbody. Anything else inside the
// section is hoisted in front of the table.
func sectionRows(section, table *html.Node) []*html.Node {
	var rows []*html.Node
	for c := section.FirstChild; c != nil; c = section.FirstChild {
		section.RemoveChild(c)
		if isElement(c, "tr") {
			rows = append(rows, c)
			continue
		}
		hoist(c, table)
	}
	return rows
}

// hoist moves stray table content in front of the table. Whitespace is dropped.
func hoist(n, table *html.Node) {
	if n.Type == html.TextNode && strings.TrimSpace(n.Data) == "" {
		return
	}
	if n.Type == html.CommentNode {
		return
	}
	if table.Parent != nil {
		table.Parent.InsertBefore(n, table)
	}
}
