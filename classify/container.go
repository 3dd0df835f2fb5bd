package classify

import "github.com/hazyhaar/posview/dom"

// Candidate is a scored container candidate.
type Candidate struct {
	Node  *dom.Node
	Score int
}

// LocateContainer finds the items container: the candidate with the most
// item-like children, outside the cart panel. Ties keep the first found in
// document order; a best score of 0 means none.
func LocateContainer(doc *dom.Document, t Thresholds) *dom.Node {
	best, _ := locateContainer(doc, &t)
	return best.Node
}

// ScoreCandidates returns every container candidate with its score in
// document order.
func ScoreCandidates(doc *dom.Document, t Thresholds) []Candidate {
	_, all := locateContainer(doc, &t)
	return all
}

func locateContainer(doc *dom.Document, t *Thresholds) (Candidate, []Candidate) {
	cart := doc.PanelFromTitle(t.CartTitle, t.Panel)
	scope := doc.PanelFromTitle(t.ItemsTitle, t.Panel)
	if scope == nil || (cart != nil && cart.Contains(scope)) {
		scope = doc.Body()
	}

	var (
		best Candidate
		all  []Candidate
	)
	scope.Walk(func(n *dom.Node) bool {
		if cart != nil && cart.Contains(n) {
			return false
		}
		if !t.isContainerTag(n) || len(n.Children()) < t.MinChildren {
			return true
		}
		c := Candidate{Node: n, Score: t.scoreContainer(n)}
		all = append(all, c)
		if c.Score > best.Score {
			best = c
		}
		return true
	})
	return best, all
}

func (t *Thresholds) isContainerTag(n *dom.Node) bool {
	for _, tag := range t.ContainerTags {
		if n.Tag == tag {
			return true
		}
	}
	return false
}

// scoreContainer samples the first SampleSize children.
func (t *Thresholds) scoreContainer(n *dom.Node) int {
	children := n.Children()
	if len(children) > t.SampleSize {
		children = children[:t.SampleSize]
	}
	score := 0
	for _, c := range children {
		text := c.TrimmedText()
		if text == "" {
			continue
		}
		if t.HasCurrency(text) {
			score += t.CurrencyScore
		}
		if t.hasImage(c) {
			score += t.ImageScore
		}
		if c.Computed.Cursor == "pointer" {
			score += t.PointerScore
		}
		if c.Computed.Rounded() {
			score += t.RoundedScore
		}
	}
	return score
}
