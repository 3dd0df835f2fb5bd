// Package dom models the rendered tree of a host page the way posview sees
// it: geometry, text, computed style, the inline style attribute and the
// data-posview-* attributes posview owns. Nodes are never created or
// destroyed on the host's behalf, only annotated and restyled. Every
// attribute write is journaled so it can be replayed on the live page as a
// minimal patch.
package dom

import (
	"strings"
)

// Rect is a bounding box in viewport coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// rectSlack absorbs sub-pixel rounding in getBoundingClientRect.
const rectSlack = 0.5

// Contains reports whether o lies fully inside r.
func (r Rect) Contains(o Rect) bool {
	return o.Left >= r.Left-rectSlack &&
		o.Top >= r.Top-rectSlack &&
		o.Right() <= r.Right()+rectSlack &&
		o.Bottom() <= r.Bottom()+rectSlack
}

// ComputedStyle holds the computed properties the classifier consumes.
type ComputedStyle struct {
	BackgroundImage string `json:"bgi,omitempty"`
	BackgroundColor string `json:"bgc,omitempty"`
	Cursor          string `json:"cur,omitempty"`
	BorderRadius    string `json:"br,omitempty"`
}

// HasBackground reports a background image or a non-transparent colour.
func (cs ComputedStyle) HasBackground() bool {
	if cs.BackgroundImage != "" && cs.BackgroundImage != "none" {
		return true
	}
	switch strings.ReplaceAll(cs.BackgroundColor, " ", "") {
	case "", "transparent", "rgba(0,0,0,0)":
		return false
	}
	return true
}

// Rounded reports a non-zero border radius.
func (cs ComputedStyle) Rounded() bool {
	for _, part := range strings.FieldsFunc(cs.BorderRadius, func(r rune) bool { return r == ' ' || r == '/' }) {
		switch part {
		case "0", "0px", "0%":
		default:
			return true
		}
	}
	return false
}

// Node is one element of the rendered tree.
type Node struct {
	// ID is the node's index in the page-side node table of the snapshot
	// it came from. Builders assign preorder indices.
	ID       int
	Tag      string
	Role     string
	Text     string
	Rect     Rect
	Computed ComputedStyle

	parent   *Node
	children []*Node
	doc      *Document

	// attrs are the current values of tracked attributes ("style" and
	// data-posview-*); orig are the values as snapshotted.
	attrs map[string]string
	orig  map[string]string
}

// New returns a detached node. Use Append and the With* setters to build
// fixtures, then Build to turn the tree into a Document.
func New(tag string) *Node {
	return &Node{Tag: strings.ToLower(tag), attrs: map[string]string{}}
}

// Append attaches children in order and returns n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

// WithRect sets the bounding box and returns n.
func (n *Node) WithRect(left, top, width, height float64) *Node {
	n.Rect = Rect{Left: left, Top: top, Width: width, Height: height}
	return n
}

// WithText sets the rendered text and returns n.
func (n *Node) WithText(s string) *Node {
	n.Text = s
	return n
}

// WithComputed sets the computed style and returns n.
func (n *Node) WithComputed(cs ComputedStyle) *Node {
	n.Computed = cs
	return n
}

// WithAttr seeds a tracked attribute (style or a posview mark) and returns n.
func (n *Node) WithAttr(name, value string) *Node {
	if n.attrs == nil {
		n.attrs = map[string]string{}
	}
	n.attrs[name] = value
	return n
}

// Parent returns the parent node or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the direct children in order.
func (n *Node) Children() []*Node { return n.children }

// LastChild returns the last direct child or nil.
func (n *Node) LastChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[len(n.children)-1]
}

// TrimmedText returns the text with surrounding whitespace removed.
func (n *Node) TrimmedText() string { return strings.TrimSpace(n.Text) }

// Walk visits the descendants of n in preorder, excluding n. Returning
// false from fn skips that node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	for _, c := range n.children {
		if fn(c) {
			c.Walk(fn)
		}
	}
}

// Descendants returns all descendants of n in preorder.
func (n *Node) Descendants() []*Node {
	var out []*Node
	n.Walk(func(d *Node) bool {
		out = append(out, d)
		return true
	})
	return out
}

// DescendantCount counts all descendants of n.
func (n *Node) DescendantCount() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Contains reports whether o is n or lies under n.
func (n *Node) Contains(o *Node) bool {
	for p := o; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// HasDescendantTag reports whether any descendant has one of the tags.
func (n *Node) HasDescendantTag(tags ...string) bool {
	found := false
	n.Walk(func(d *Node) bool {
		if found {
			return false
		}
		for _, t := range tags {
			if d.Tag == t {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// Attr returns a tracked attribute.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// SetAttr writes a tracked attribute.
func (n *Node) SetAttr(name, value string) {
	if n.attrs == nil {
		n.attrs = map[string]string{}
	}
	n.attrs[name] = value
}

// RemoveAttr deletes a tracked attribute.
func (n *Node) RemoveAttr(name string) {
	delete(n.attrs, name)
}
