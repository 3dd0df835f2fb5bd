// Package classify infers the structure of a POS items screen from what is
// rendered: which element holds the items, which of its children are real
// item rows, and which block inside each row is the decorative thumbnail.
//
// Everything here is a pure function of a dom.Document and a Thresholds
// value, so tuning is done against fixtures rather than a live page.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hazyhaar/posview/dom"
)

// ThumbPolicy selects among geometrically similar thumbnail candidates.
type ThumbPolicy string

const (
	// PolicyLeftmost picks the smallest left offset, breaking ties toward
	// thumbnail-like nodes.
	PolicyLeftmost ThumbPolicy = "leftmost"
	// PolicyWeighted picks the best weighted sum of left proximity,
	// height ratio and narrowness.
	PolicyWeighted ThumbPolicy = "weighted"
)

// Thresholds are the tunable constants of every heuristic in this package.
type Thresholds struct {
	ItemsTitle string `yaml:"items_title" json:"items_title"`
	CartTitle  string `yaml:"cart_title" json:"cart_title"`

	ContainerTags []string `yaml:"container_tags" json:"container_tags"`
	MinChildren   int      `yaml:"min_children" json:"min_children"`
	SampleSize    int      `yaml:"sample_size" json:"sample_size"`

	CurrencyMarkers []string `yaml:"currency_markers" json:"currency_markers"`
	UnitTokens      []string `yaml:"unit_tokens" json:"unit_tokens"`
	ImageTags       []string `yaml:"image_tags" json:"image_tags"`

	CurrencyScore int `yaml:"currency_score" json:"currency_score"`
	ImageScore    int `yaml:"image_score" json:"image_score"`
	PointerScore  int `yaml:"pointer_score" json:"pointer_score"`
	RoundedScore  int `yaml:"rounded_score" json:"rounded_score"`

	ThumbMinSize        float64     `yaml:"thumb_min_size" json:"thumb_min_size"`
	ThumbMaxLeft        float64     `yaml:"thumb_max_left" json:"thumb_max_left"`
	ThumbMaxWidth       float64     `yaml:"thumb_max_width" json:"thumb_max_width"`
	ThumbMinHeightRatio float64     `yaml:"thumb_min_height_ratio" json:"thumb_min_height_ratio"`
	ThumbLabelMaxChars  int         `yaml:"thumb_label_max_chars" json:"thumb_label_max_chars"`
	ThumbPolicy         ThumbPolicy `yaml:"thumb_policy" json:"thumb_policy"`

	Panel dom.PanelRules `yaml:"-" json:"-"`

	unitRE *regexp.Regexp
}

// Defaults returns the thresholds tuned against the ERPNext POS screen.
func Defaults() Thresholds {
	t := Thresholds{}
	t.ApplyDefaults()
	return t
}

// ApplyDefaults fills zero fields.
func (t *Thresholds) ApplyDefaults() {
	if t.ItemsTitle == "" {
		t.ItemsTitle = "All Items"
	}
	if t.CartTitle == "" {
		t.CartTitle = "Item Cart"
	}
	if len(t.ContainerTags) == 0 {
		t.ContainerTags = []string{"div"}
	}
	if t.MinChildren <= 0 {
		t.MinChildren = 8
	}
	if t.SampleSize <= 0 {
		t.SampleSize = 40
	}
	if len(t.CurrencyMarkers) == 0 {
		t.CurrencyMarkers = []string{"₹", "$", "€", "£"}
	}
	if len(t.UnitTokens) == 0 {
		t.UnitTokens = []string{"nos", "pcs", "pc", "kg", "g", "gm", "ltr", "l", "ml", "unit", "units", "box", "pack", "dozen"}
	}
	if len(t.ImageTags) == 0 {
		t.ImageTags = []string{"img", "picture"}
	}
	if t.CurrencyScore <= 0 {
		t.CurrencyScore = 3
	}
	if t.ImageScore <= 0 {
		t.ImageScore = 1
	}
	if t.PointerScore <= 0 {
		t.PointerScore = 1
	}
	if t.RoundedScore <= 0 {
		t.RoundedScore = 1
	}
	if t.ThumbMinSize <= 0 {
		t.ThumbMinSize = 16
	}
	if t.ThumbMaxLeft <= 0 {
		t.ThumbMaxLeft = 48
	}
	if t.ThumbMaxWidth <= 0 {
		t.ThumbMaxWidth = 160
	}
	if t.ThumbMinHeightRatio <= 0 {
		t.ThumbMinHeightRatio = 0.5
	}
	if t.ThumbLabelMaxChars <= 0 {
		t.ThumbLabelMaxChars = 4
	}
	if t.ThumbPolicy == "" {
		t.ThumbPolicy = PolicyLeftmost
	}
	if t.Panel.MaxAncestors <= 0 {
		t.Panel = dom.DefaultPanelRules
	}
	t.unitRE = compileUnits(t.UnitTokens)
}

// compileUnits builds the whole-word, case-insensitive unit matcher. Copies
// of Thresholds share it.
func compileUnits(tokens []string) *regexp.Regexp {
	quoted := make([]string, 0, len(tokens))
	for _, u := range tokens {
		if u = strings.TrimSpace(u); u != "" {
			quoted = append(quoted, regexp.QuoteMeta(u))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Validate rejects thresholds no heuristic can work with.
func (t Thresholds) Validate() error {
	switch t.ThumbPolicy {
	case PolicyLeftmost, PolicyWeighted:
	default:
		return fmt.Errorf("classify: unknown thumb_policy %q", t.ThumbPolicy)
	}
	if t.ThumbMinHeightRatio > 1 {
		return fmt.Errorf("classify: thumb_min_height_ratio %v > 1", t.ThumbMinHeightRatio)
	}
	for _, u := range t.UnitTokens {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("classify: empty unit token")
		}
	}
	return nil
}

// HasCurrency reports whether text carries a currency marker.
func (t *Thresholds) HasCurrency(text string) bool {
	for _, m := range t.CurrencyMarkers {
		if m != "" && strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// hasUnit reports a whole-word, case-insensitive unit token.
func (t *Thresholds) hasUnit(text string) bool {
	if t.unitRE == nil {
		t.unitRE = compileUnits(t.UnitTokens)
		if t.unitRE == nil {
			return false
		}
	}
	return t.unitRE.MatchString(text)
}

// IsImage reports whether n is itself an image-like element.
func (t *Thresholds) IsImage(n *dom.Node) bool {
	for _, tag := range t.ImageTags {
		if n.Tag == tag {
			return true
		}
	}
	return false
}

func (t *Thresholds) hasImage(n *dom.Node) bool {
	return n.HasDescendantTag(t.ImageTags...)
}
