package dom

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the JSON the page hook returns: the body subtree in
// preorder, each node pointing at its parent's table index.
type Snapshot struct {
	Generation uint64     `json:"gen"`
	Nodes      []WireNode `json:"nodes"`
}

// WireNode is one element as serialised page-side.
type WireNode struct {
	ID     int               `json:"id"`
	Parent int               `json:"parent"`
	Tag    string            `json:"tag"`
	Role   string            `json:"role,omitempty"`
	Text   string            `json:"text,omitempty"`
	Rect   [4]float64        `json:"rect"`
	CS     ComputedStyle     `json:"cs"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// Decode builds a Document from a page snapshot.
func Decode(data []byte) (*Document, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("dom: decode snapshot: %w", err)
	}
	return FromSnapshot(snap)
}

// FromSnapshot links wire nodes into a Document. The first node must be
// the root; every other node must follow its parent.
func FromSnapshot(snap Snapshot) (*Document, error) {
	if len(snap.Nodes) == 0 {
		return nil, fmt.Errorf("dom: empty snapshot")
	}
	byID := make(map[int]*Node, len(snap.Nodes))
	var root *Node
	for i, w := range snap.Nodes {
		n := &Node{
			ID:       w.ID,
			Tag:      w.Tag,
			Role:     w.Role,
			Text:     w.Text,
			Rect:     Rect{Left: w.Rect[0], Top: w.Rect[1], Width: w.Rect[2], Height: w.Rect[3]},
			Computed: w.CS,
			attrs:    map[string]string{},
		}
		for k, v := range w.Attrs {
			if k == styleAttr || IsMarkAttr(k) {
				n.attrs[k] = v
			}
		}
		if _, dup := byID[w.ID]; dup {
			return nil, fmt.Errorf("dom: duplicate node id %d", w.ID)
		}
		byID[w.ID] = n

		if i == 0 {
			root = n
			continue
		}
		p := byID[w.Parent]
		if p == nil {
			return nil, fmt.Errorf("dom: node %d precedes its parent %d", w.ID, w.Parent)
		}
		n.parent = p
		p.children = append(p.children, n)
	}
	return newDocument(root, snap.Generation), nil
}
