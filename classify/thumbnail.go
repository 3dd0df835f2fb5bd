package classify

import (
	"math"
	"unicode/utf8"

	"github.com/hazyhaar/posview/dom"
)

// leftTolerance treats left offsets within a pixel as equal.
const leftTolerance = 1.0

// LocateThumbnail finds the thumbnail block of a row: a descendant inside
// the row's box, near its left edge, narrow, and at least a fraction of the
// row's height. It returns nil when nothing qualifies.
func LocateThumbnail(row *dom.Node, t Thresholds) *dom.Node {
	return locateThumbnail(row, &t)
}

func locateThumbnail(row *dom.Node, t *Thresholds) *dom.Node {
	if row == nil {
		return nil
	}
	cands := t.thumbCandidates(row)
	if len(cands) == 0 {
		return nil
	}
	if t.ThumbPolicy == PolicyWeighted {
		return t.pickWeighted(row, cands)
	}
	return t.pickLeftmost(row, cands)
}

func (t *Thresholds) thumbCandidates(row *dom.Node) []*dom.Node {
	rr := row.Rect
	if rr.Width <= 0 || rr.Height <= 0 {
		return nil
	}
	var out []*dom.Node
	row.Walk(func(d *dom.Node) bool {
		r := d.Rect
		switch {
		case !rr.Contains(r):
		case r.Width < t.ThumbMinSize || r.Height < t.ThumbMinSize:
		case r.Left-rr.Left > t.ThumbMaxLeft:
		case r.Width > t.ThumbMaxWidth:
		case r.Height < t.ThumbMinHeightRatio*rr.Height:
		default:
			out = append(out, d)
		}
		return true
	})
	return out
}

// thumbLike reports the visual signature of a thumbnail: a background, an
// embedded image, or a short label standing in for one.
func (t *Thresholds) thumbLike(n *dom.Node) bool {
	if n.Computed.HasBackground() || t.IsImage(n) || t.hasImage(n) {
		return true
	}
	text := n.TrimmedText()
	l := utf8.RuneCountInString(text)
	return l >= 1 && l <= t.ThumbLabelMaxChars
}

func (t *Thresholds) pickLeftmost(row *dom.Node, cands []*dom.Node) *dom.Node {
	var best *dom.Node
	bestLeft := math.Inf(1)
	bestLike := false
	for _, c := range cands {
		left := c.Rect.Left - row.Rect.Left
		like := t.thumbLike(c)
		switch {
		case left < bestLeft-leftTolerance:
		case math.Abs(left-bestLeft) <= leftTolerance && like && !bestLike:
		default:
			continue
		}
		best, bestLeft, bestLike = c, left, like
	}
	return best
}

func (t *Thresholds) pickWeighted(row *dom.Node, cands []*dom.Node) *dom.Node {
	var best *dom.Node
	bestScore := math.Inf(-1)
	for _, c := range cands {
		s := t.weightedScore(row, c)
		if s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

func (t *Thresholds) weightedScore(row, c *dom.Node) float64 {
	left := (c.Rect.Left - row.Rect.Left) / t.ThumbMaxLeft
	height := math.Min(c.Rect.Height/row.Rect.Height, 1)
	narrow := c.Rect.Width / t.ThumbMaxWidth
	s := 3*(1-left) + 2*height + (1 - narrow)
	if t.thumbLike(c) {
		s++
	}
	return s
}
