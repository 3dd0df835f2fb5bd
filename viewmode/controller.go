package viewmode

import (
	"log/slog"
	"sync"

	"github.com/hazyhaar/posview/classify"
	"github.com/hazyhaar/posview/dom"
)

// decl is one inline declaration written with !important.
type decl struct{ prop, value string }

var (
	rootStyle = []decl{
		{"display", "flex"},
		{"flex-direction", "column"},
		{"gap", "8px"},
		{"grid-template-columns", "1fr"},
		{"grid-auto-flow", "row"},
	}
	rowStyle = []decl{
		{"width", "100%"},
		{"max-width", "100%"},
		{"height", "auto"},
		{"min-height", "0"},
		{"display", "flex"},
		{"flex-direction", "row"},
		{"align-items", "center"},
		{"justify-content", "flex-start"},
		{"gap", "14px"},
		{"padding", "10px 16px"},
		{"overflow", "hidden"},
	}
	hiddenStyle = []decl{{"display", "none"}}
	actionStyle = []decl{
		{"margin-left", "auto"},
		{"padding-left", "10px"},
		{"flex", "0 0 auto"},
	}
	infoStyle = []decl{
		{"flex", "1 1 auto"},
		{"min-width", "0"},
		{"text-align", "left"},
		{"margin-left", "0"},
		{"margin-right", "auto"},
		{"align-self", "flex-start"},
		{"display", "flex"},
		{"flex-direction", "column"},
		{"align-items", "flex-start"},
		{"justify-content", "center"},
	}
	infoTextStyle = []decl{{"text-align", "left"}}
)

// Outcome reports what one Apply did to the document.
type Outcome struct {
	Mode       Mode `json:"mode"`
	Root       bool `json:"root"`
	Rows       int  `json:"rows"`
	Thumbnails int  `json:"thumbnails"`
	Hidden     int  `json:"hidden"`
	Cleared    int  `json:"cleared"`

	Result classify.Result `json:"-"`
}

// Controller applies a Mode to a document. It holds no mode of its own;
// every call passes the mode in.
type Controller struct {
	mu     sync.RWMutex
	th     classify.Thresholds
	logger *slog.Logger
}

// NewController returns a controller classifying with th.
func NewController(th classify.Thresholds, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	th.ApplyDefaults()
	return &Controller{th: th, logger: logger}
}

// SetThresholds swaps the thresholds used by later passes.
func (c *Controller) SetThresholds(th classify.Thresholds) {
	th.ApplyDefaults()
	c.mu.Lock()
	c.th = th
	c.mu.Unlock()
}

// Thresholds returns the current thresholds.
func (c *Controller) Thresholds() classify.Thresholds {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.th
}

// Apply brings doc into mode m. Every call starts by reverting all existing
// markings, so repeated calls converge on the same tree and grid leaves no
// marking behind.
func (c *Controller) Apply(doc *dom.Document, m Mode) Outcome {
	out := Outcome{Mode: m}
	if doc == nil {
		return out
	}
	kept := doc.Marked(dom.MarkThumbnail)
	for _, n := range doc.MarkedAny() {
		if n.ClearMarks() {
			out.Cleared++
		}
	}
	if m != List {
		return out
	}

	th := c.Thresholds()
	res := classifyKeeping(doc, th, kept)
	out.Result = res
	if !res.Found() {
		c.logger.Debug("viewmode: no items container", "cleared", out.Cleared)
		return out
	}
	out.Root = true

	style(res.Root, rootStyle)
	res.Root.SetMark(dom.MarkItemsRoot)

	for _, row := range res.Rows {
		out.Rows++
		out.Hidden += c.applyRow(row, res.Thumbnails[row], &th)
		if res.Thumbnails[row] != nil {
			out.Thumbnails++
		}
	}
	return out
}

// Classify classifies doc as Apply would, without changing it.
func (c *Controller) Classify(doc *dom.Document) classify.Result {
	if doc == nil {
		return classify.Result{}
	}
	return classifyKeeping(doc, c.Thresholds(), doc.Marked(dom.MarkThumbnail))
}

// classifyKeeping classifies doc, but a thumbnail marked by an earlier pass
// stays the thumbnail of the row that still contains it. Once hidden it
// measures 0x0, so the list layout cannot locate it again.
func classifyKeeping(doc *dom.Document, th classify.Thresholds, kept []*dom.Node) classify.Result {
	res := classify.Classify(doc, th)
	if len(kept) == 0 {
		return res
	}
	pinned := make(map[*dom.Node]bool, len(kept))
	for _, n := range kept {
		for _, row := range res.Rows {
			if row == n || pinned[row] || !row.Contains(n) {
				continue
			}
			res.Thumbnails[row] = n
			pinned[row] = true
			break
		}
	}
	return res
}

// applyRow styles one row and returns how many nodes it hid.
func (c *Controller) applyRow(row, thumb *dom.Node, th *classify.Thresholds) int {
	style(row, rowStyle)
	row.SetMark(dom.MarkItemRow)

	hidden := 0
	for _, d := range row.Descendants() {
		if th.IsImage(d) {
			hide(d)
			hidden++
		}
	}
	if thumb != nil {
		thumb.SetMark(dom.MarkThumbnail)
		if !thumb.HasMark(dom.MarkHidden) {
			hide(thumb)
			hidden++
		}
	}

	last := row.LastChild()
	if last != nil && !last.HasMark(dom.MarkHidden) {
		style(last, actionStyle)
	}
	if info := infoChild(row, last, th); info != nil {
		style(info, infoStyle)
		info.Walk(func(d *dom.Node) bool {
			if d.HasMark(dom.MarkHidden) {
				return false
			}
			style(d, infoTextStyle)
			return true
		})
	}
	return hidden
}

// infoChild picks the child carrying the item's name and price: the first
// visible non-action child with a currency marker, else the first with text.
func infoChild(row, last *dom.Node, th *classify.Thresholds) *dom.Node {
	var withText *dom.Node
	for _, ch := range row.Children() {
		if ch == last || ch.HasMark(dom.MarkHidden) {
			continue
		}
		text := ch.TrimmedText()
		if text == "" {
			continue
		}
		if th.HasCurrency(text) {
			return ch
		}
		if withText == nil {
			withText = ch
		}
	}
	return withText
}

func hide(n *dom.Node) {
	style(n, hiddenStyle)
	n.SetMark(dom.MarkHidden)
}

func style(n *dom.Node, decls []decl) {
	n.CapturePriorStyle()
	for _, d := range decls {
		n.SetStyleProperty(d.prop, d.value)
	}
}
