package auth

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// scrapeReason pulls the failure text out of a re-rendered login page: the
// first div.alert, else the first span.help-block. Best effort only; the
// markup is not a contract.
func scrapeReason(r io.Reader) string {
	doc, err := html.Parse(r)
	if err != nil {
		return ""
	}
	for _, q := range []struct {
		tag   atom.Atom
		class string
	}{
		{atom.Div, "alert"},
		{atom.Span, "help-block"},
	} {
		if n := findByClass(doc, q.tag, q.class); n != nil {
			return strings.TrimSpace(textContent(n))
		}
	}
	return ""
}

// findByClass does a depth-first search in document order.
func findByClass(n *html.Node, tag atom.Atom, class string) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == tag && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
