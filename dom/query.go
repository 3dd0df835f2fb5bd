package dom

// TitleTags are the tags searched for an exact-text label.
var TitleTags = []string{"h1", "h2", "h3", "h4", "h5", "h6", "div", "span", "strong", "b"}

// FindByExactText returns the first node, in document order, among the
// given tags (TitleTags when none are given) whose trimmed text equals
// label.
func (d *Document) FindByExactText(label string, tags ...string) *Node {
	if label == "" {
		return nil
	}
	if len(tags) == 0 {
		tags = TitleTags
	}
	for _, n := range d.nodes {
		if !hasTag(n, tags) {
			continue
		}
		if n.TrimmedText() == label {
			return n
		}
	}
	return nil
}

// PanelRules controls how far PanelFromTitle climbs from a heading.
type PanelRules struct {
	MaxAncestors   int
	MinDescendants int
	FormTags       []string
}

// DefaultPanelRules climbs at most 14 ancestors and stops at the first one
// holding more than 30 descendants or a form control.
var DefaultPanelRules = PanelRules{
	MaxAncestors:   14,
	MinDescendants: 30,
	FormTags:       []string{"input", "select", "textarea"},
}

// PanelFromTitle locates the panel a heading labels. It returns nil when
// the label is absent.
func (d *Document) PanelFromTitle(label string, rules PanelRules) *Node {
	title := d.FindByExactText(label)
	if title == nil {
		return nil
	}
	el := title
	for i := 0; i < rules.MaxAncestors; i++ {
		el = el.parent
		if el == nil {
			break
		}
		if el.DescendantCount() > rules.MinDescendants {
			return el
		}
		if len(rules.FormTags) > 0 && el.HasDescendantTag(rules.FormTags...) {
			return el
		}
	}
	if title.parent != nil {
		return title.parent
	}
	return title
}

func hasTag(n *Node, tags []string) bool {
	for _, t := range tags {
		if n.Tag == t {
			return true
		}
	}
	return false
}
