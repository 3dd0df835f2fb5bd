package dom

import "strings"

// Mark is a transient classification tag, rendered as a data attribute on
// the host element.
type Mark string

const (
	MarkItemsRoot  Mark = "data-posview-items-root"
	MarkItemRow    Mark = "data-posview-item-row"
	MarkThumbnail  Mark = "data-posview-thumbnail"
	MarkHidden     Mark = "data-posview-hidden"
	MarkPriorStyle Mark = "data-posview-prior-style"
)

// Marks lists every mark posview may attach.
var Marks = []Mark{MarkItemsRoot, MarkItemRow, MarkThumbnail, MarkHidden, MarkPriorStyle}

// markPrefix is shared by every Mark; the page hook only reports
// attributes under it.
const markPrefix = "data-posview-"

// IsMarkAttr reports whether an attribute name belongs to posview.
func IsMarkAttr(name string) bool { return strings.HasPrefix(name, markPrefix) }

// HasMark reports whether the node carries m.
func (n *Node) HasMark(m Mark) bool {
	_, ok := n.attrs[string(m)]
	return ok
}

// SetMark attaches m.
func (n *Node) SetMark(m Mark) { n.SetAttr(string(m), "1") }

// ClearMark removes m.
func (n *Node) ClearMark(m Mark) { n.RemoveAttr(string(m)) }

// IsMarked reports whether the node carries any posview mark.
func (n *Node) IsMarked() bool {
	for name := range n.attrs {
		if IsMarkAttr(name) {
			return true
		}
	}
	return false
}

// Prior style encoding: "=" + value when the style attribute existed,
// "-" when it did not.
const (
	priorPresent = "="
	priorAbsent  = "-"
)

// CapturePriorStyle records the inline style before the first posview
// write. Later calls keep the first capture.
func (n *Node) CapturePriorStyle() {
	if n.HasMark(MarkPriorStyle) {
		return
	}
	if v, ok := n.StyleAttr(); ok {
		n.SetAttr(string(MarkPriorStyle), priorPresent+v)
		return
	}
	n.SetAttr(string(MarkPriorStyle), priorAbsent)
}

// RestorePriorStyle puts back the captured inline style verbatim and drops
// the capture. It reports whether a capture existed.
func (n *Node) RestorePriorStyle() bool {
	v, ok := n.attrs[string(MarkPriorStyle)]
	if !ok {
		return false
	}
	if rest, found := strings.CutPrefix(v, priorPresent); found {
		n.SetAttr(styleAttr, rest)
	} else {
		n.RemoveAttr(styleAttr)
	}
	n.ClearMark(MarkPriorStyle)
	return true
}

// ClearMarks removes every posview mark, restoring the prior style first.
// It reports whether anything was removed.
func (n *Node) ClearMarks() bool {
	changed := n.RestorePriorStyle()
	for name := range n.attrs {
		if IsMarkAttr(name) {
			delete(n.attrs, name)
			changed = true
		}
	}
	return changed
}
