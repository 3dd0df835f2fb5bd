package dom

import (
	"fmt"
	"sort"
	"strings"
)

// Document is one snapshot of the host tree rooted at <body>.
type Document struct {
	// Generation is the page-side mutation counter at snapshot time. A
	// patch is only accepted while the page still reports it.
	Generation uint64

	root  *Node
	nodes []*Node
	byID  map[int]*Node
}

// Build turns a detached tree made with New/Append into a Document. Nodes
// get preorder IDs. A node without text inherits the newline-joined text of
// its children, mirroring innerText.
func Build(root *Node) *Document {
	deriveText(root)
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
	return newDocument(root, 0)
}

func deriveText(n *Node) string {
	var parts []string
	for _, c := range n.children {
		if t := strings.TrimSpace(deriveText(c)); t != "" {
			parts = append(parts, t)
		}
	}
	if n.Text == "" {
		n.Text = strings.Join(parts, "\n")
	}
	return n.Text
}

func newDocument(root *Node, gen uint64) *Document {
	d := &Document{Generation: gen, root: root, byID: map[int]*Node{}}
	var link func(*Node)
	link = func(n *Node) {
		n.doc = d
		if n.attrs == nil {
			n.attrs = map[string]string{}
		}
		n.orig = copyAttrs(n.attrs)
		d.nodes = append(d.nodes, n)
		d.byID[n.ID] = n
		for _, c := range n.children {
			link(c)
		}
	}
	link(root)
	return d
}

func copyAttrs(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Body returns the root node.
func (d *Document) Body() *Node { return d.root }

// Nodes returns every node in preorder, root first.
func (d *Document) Nodes() []*Node { return d.nodes }

// Node returns the node with the given ID or nil.
func (d *Document) Node(id int) *Node { return d.byID[id] }

// Marked returns the nodes carrying m in document order.
func (d *Document) Marked(m Mark) []*Node {
	var out []*Node
	for _, n := range d.nodes {
		if n.HasMark(m) {
			out = append(out, n)
		}
	}
	return out
}

// MarkedAny returns the nodes carrying any posview mark.
func (d *Document) MarkedAny() []*Node {
	var out []*Node
	for _, n := range d.nodes {
		if n.IsMarked() {
			out = append(out, n)
		}
	}
	return out
}

// Change is one net attribute write relative to the snapshot.
type Change struct {
	ID     int    `json:"id"`
	Attr   string `json:"attr"`
	Value  string `json:"value,omitempty"`
	Remove bool   `json:"remove,omitempty"`
}

// Changes returns the net attribute writes since the snapshot, in document
// order. Writes that ended where they started are dropped.
func (d *Document) Changes() []Change {
	var out []Change
	for _, n := range d.nodes {
		names := make(map[string]struct{}, len(n.attrs)+len(n.orig))
		for k := range n.attrs {
			names[k] = struct{}{}
		}
		for k := range n.orig {
			names[k] = struct{}{}
		}
		keys := make([]string, 0, len(names))
		for k := range names {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			cur, hasCur := n.attrs[k]
			old, hasOld := n.orig[k]
			switch {
			case hasCur && (!hasOld || cur != old):
				out = append(out, Change{ID: n.ID, Attr: k, Value: cur})
			case !hasCur && hasOld:
				out = append(out, Change{ID: n.ID, Attr: k, Remove: true})
			}
		}
	}
	return out
}

// Commit makes the current attributes the new baseline.
func (d *Document) Commit() {
	for _, n := range d.nodes {
		n.orig = copyAttrs(n.attrs)
	}
}

// ApplyChanges replays a patch onto this document and commits it.
func (d *Document) ApplyChanges(changes []Change) error {
	for _, c := range changes {
		n := d.byID[c.ID]
		if n == nil {
			return fmt.Errorf("dom: apply: unknown node %d", c.ID)
		}
		if c.Remove {
			n.RemoveAttr(c.Attr)
		} else {
			n.SetAttr(c.Attr, c.Value)
		}
	}
	d.Commit()
	return nil
}

// Clone deep-copies the document. The clone's baseline is the source's
// current attributes.
func (d *Document) Clone() *Document {
	var cp func(*Node) *Node
	cp = func(n *Node) *Node {
		c := &Node{
			ID:       n.ID,
			Tag:      n.Tag,
			Role:     n.Role,
			Text:     n.Text,
			Rect:     n.Rect,
			Computed: n.Computed,
			attrs:    copyAttrs(n.attrs),
		}
		for _, ch := range n.children {
			cc := cp(ch)
			cc.parent = c
			c.children = append(c.children, cc)
		}
		return c
	}
	return newDocument(cp(d.root), d.Generation)
}
