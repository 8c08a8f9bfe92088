package hocr

import (
	"strings"

	"golang.org/x/net/html"
)

// walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the visited node.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// hasClass reports whether n is an element carrying the given class.
func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(getAttrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// insideClass reports whether an ancestor of n below stop carries class.
func insideClass(n, stop *html.Node, class string) bool {
	for p := n.Parent; p != nil && p != stop; p = p.Parent {
		if hasClass(p, class) {
			return true
		}
	}
	return false
}

// inheritedLang returns the nearest lang attribute on an ancestor of n below stop.
func inheritedLang(n, stop *html.Node) string {
	for p := n.Parent; p != nil && p != stop; p = p.Parent {
		if lang := getAttrVal(p, "lang"); lang != "" {
			return lang
		}
	}
	return ""
}

// extractTextContent gets all text from a node and its children
func extractTextContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(c.Data))
		}
		return true
	})
	return b.String()
}

// Get the value of a specific attribute from a node
func getAttrVal(n *html.Node, attrName string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrName {
			return attr.Val
		}
	}
	return ""
}
