package classify

import "github.com/hazyhaar/posview/dom"

// Rows returns the direct children of root that carry item content: a
// currency marker or a unit-of-measure token. Virtual-scroll spacers and
// empty placeholders are left out.
func Rows(root *dom.Node, t Thresholds) []*dom.Node {
	return rows(root, &t)
}

func rows(root *dom.Node, t *Thresholds) []*dom.Node {
	if root == nil {
		return nil
	}
	var out []*dom.Node
	for _, c := range root.Children() {
		if t.isRow(c) {
			out = append(out, c)
		}
	}
	return out
}

func (t *Thresholds) isRow(n *dom.Node) bool {
	text := n.TrimmedText()
	if text == "" {
		return false
	}
	return t.HasCurrency(text) || t.hasUnit(text)
}
