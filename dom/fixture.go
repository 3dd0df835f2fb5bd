package dom

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Fixture attributes. Saved pages carry no layout, so geometry and the
// computed style the classifier needs are written inline.
const (
	fixtureRectAttr = "data-rect"
	fixtureCSAttr   = "data-cs"
)

// ParseFixture reads an HTML fixture and returns its <body> as a Document.
//
//	<div data-rect="0,0,300,100" data-cs="cursor: pointer; border-radius: 8px">
//	  <img data-rect="5,10,60,80"> Tea ₹120
//	</div>
//
// Text is the whitespace-collapsed text content of each element.
func ParseFixture(r io.Reader) (*Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fixture: %w", err)
	}
	body := findElement(doc, "body")
	if body == nil {
		return nil, fmt.Errorf("dom: fixture has no body")
	}
	root, err := convert(body)
	if err != nil {
		return nil, err
	}
	id := 0
	var assign func(*Node)
	assign = func(n *Node) {
		n.ID = id
		id++
		for _, c := range n.children {
			assign(c)
		}
	}
	assign(root)
	return newDocument(root, 0), nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func convert(h *html.Node) (*Node, error) {
	n := New(h.Data)
	for _, a := range h.Attr {
		switch {
		case a.Key == fixtureRectAttr:
			rect, err := parseRect(a.Val)
			if err != nil {
				return nil, err
			}
			n.Rect = rect
		case a.Key == fixtureCSAttr:
			n.Computed = parseComputed(a.Val)
		case a.Key == "role":
			n.Role = a.Val
		case a.Key == styleAttr || IsMarkAttr(a.Key):
			n.attrs[a.Key] = a.Val
		}
	}
	n.Text = strings.Join(strings.Fields(textContent(h)), " ")

	for c := h.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || skipFixtureTag(c.Data) {
			continue
		}
		child, err := convert(c)
		if err != nil {
			return nil, err
		}
		n.Append(child)
	}
	return n, nil
}

func textContent(h *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		switch x.Type {
		case html.TextNode:
			b.WriteString(x.Data)
			b.WriteByte(' ')
		case html.ElementNode:
			if skipFixtureTag(x.Data) {
				return
			}
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(h)
	return b.String()
}

func skipFixtureTag(tag string) bool {
	switch tag {
	case "script", "style", "template", "noscript":
		return true
	}
	return false
}

func parseRect(s string) (Rect, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) != 4 {
		return Rect{}, fmt.Errorf("dom: %s %q: want 4 numbers", fixtureRectAttr, s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSuffix(p, "px"), 64)
		if err != nil {
			return Rect{}, fmt.Errorf("dom: %s %q: %w", fixtureRectAttr, s, err)
		}
		v[i] = f
	}
	return Rect{Left: v[0], Top: v[1], Width: v[2], Height: v[3]}, nil
}
