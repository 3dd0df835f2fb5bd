package classify

import "github.com/hazyhaar/posview/dom"

// Result is one full classification of a document. It is rebuilt from
// scratch on every pass.
type Result struct {
	Root       *dom.Node
	Rows       []*dom.Node
	Thumbnails map[*dom.Node]*dom.Node // row → thumbnail, nil when none
}

// Found reports whether an items container was located.
func (r Result) Found() bool { return r.Root != nil }

// ThumbnailCount counts rows with a located thumbnail.
func (r Result) ThumbnailCount() int {
	n := 0
	for _, th := range r.Thumbnails {
		if th != nil {
			n++
		}
	}
	return n
}

// Classify runs container → rows → thumbnails.
func Classify(doc *dom.Document, t Thresholds) Result {
	best, _ := locateContainer(doc, &t)
	res := Result{Root: best.Node, Thumbnails: map[*dom.Node]*dom.Node{}}
	if res.Root == nil {
		return res
	}
	res.Rows = rows(res.Root, &t)
	for _, row := range res.Rows {
		res.Thumbnails[row] = locateThumbnail(row, &t)
	}
	return res
}

// Summary is a serialisable view of a Result.
type Summary struct {
	Root       *NodeRef  `json:"root"`
	Rows       []RowInfo `json:"rows"`
	Candidates []Scored  `json:"candidates,omitempty"`
}

// NodeRef identifies a node by snapshot ID.
type NodeRef struct {
	ID   int    `json:"id"`
	Tag  string `json:"tag"`
	Text string `json:"text,omitempty"`
}

// RowInfo describes one classified row.
type RowInfo struct {
	Row       NodeRef  `json:"row"`
	Thumbnail *NodeRef `json:"thumbnail"`
}

// Scored is a container candidate with its score.
type Scored struct {
	NodeRef
	Score int `json:"score"`
}

// Summarize renders a Result, with the container candidates that competed
// for root, for logs and the classify command.
func Summarize(res Result, cands []Candidate) Summary {
	var s Summary
	if res.Root != nil {
		s.Root = ref(res.Root)
	}
	for _, row := range res.Rows {
		info := RowInfo{Row: *ref(row)}
		if th := res.Thumbnails[row]; th != nil {
			info.Thumbnail = ref(th)
		}
		s.Rows = append(s.Rows, info)
	}
	for _, c := range cands {
		s.Candidates = append(s.Candidates, Scored{NodeRef: *ref(c.Node), Score: c.Score})
	}
	return s
}

const refTextMax = 40

func ref(n *dom.Node) *NodeRef {
	text := []rune(n.TrimmedText())
	if len(text) > refTextMax {
		text = append(text[:refTextMax], '…')
	}
	return &NodeRef{ID: n.ID, Tag: n.Tag, Text: string(text)}
}
