package classify

import (
	"fmt"
	"testing"

	"github.com/hazyhaar/posview/dom"
)

// tile builds a grid tile at (left, top) with a 60x80 image and a price.
func tile(left, top float64, name string) *dom.Node {
	return dom.New("div").
		WithRect(left, top, 400, 100).
		WithComputed(dom.ComputedStyle{Cursor: "pointer", BorderRadius: "8px"}).
		Append(
			dom.New("img").WithRect(left+5, top+10, 60, 80),
			dom.New("div").WithRect(left+80, top+10, 200, 40).WithText(name+" ₹120"),
			dom.New("button").WithRect(left+340, top+30, 40, 40).WithText("+"),
		)
}

func spacer(top float64) *dom.Node {
	return dom.New("div").WithRect(0, top, 400, 0)
}

// screen builds the POS layout: an items panel with a grid of n tiles and
// m spacers, and a cart panel whose list looks like a grid too.
func screen(n, m int) (*dom.Document, *dom.Node, *dom.Node) {
	grid := dom.New("div").WithRect(0, 100, 800, 2000)
	for i := 0; i < n; i++ {
		grid.Append(tile(0, 100+float64(i)*110, fmt.Sprintf("Item %d", i)))
	}
	for i := 0; i < m; i++ {
		grid.Append(spacer(3000 + float64(i)))
	}
	items := dom.New("section").Append(
		dom.New("div").Append(dom.New("div").WithText("All Items")),
		grid,
	)

	cartList := dom.New("div")
	for i := 0; i < 10; i++ {
		cartList.Append(tile(900, 100+float64(i)*110, fmt.Sprintf("Cart %d", i)))
	}
	cart := dom.New("section").Append(
		dom.New("div").Append(dom.New("div").WithText("Item Cart")),
		cartList,
		dom.New("input"),
	)
	doc := dom.Build(dom.New("body").WithRect(0, 0, 1600, 4000).Append(items, cart))
	return doc, grid, cartList
}

func TestLocateContainer_ExcludesCart(t *testing.T) {
	doc, grid, _ := screen(12, 0)
	got := LocateContainer(doc, Defaults())
	if got != grid {
		t.Fatalf("LocateContainer: got node %v, want the items grid", got)
	}
}

func TestLocateContainer_NoItemsPanelFallsBackToBody(t *testing.T) {
	grid := dom.New("div")
	for i := 0; i < 9; i++ {
		grid.Append(tile(0, float64(i)*110, "Soap"))
	}
	doc := dom.Build(dom.New("body").Append(grid))
	if got := LocateContainer(doc, Defaults()); got != grid {
		t.Fatalf("LocateContainer: got %v", got)
	}
}

func TestLocateContainer_ZeroScoreIsNone(t *testing.T) {
	list := dom.New("div")
	for i := 0; i < 10; i++ {
		list.Append(dom.New("div").WithText("plain text"))
	}
	doc := dom.Build(dom.New("body").Append(list))
	if got := LocateContainer(doc, Defaults()); got != nil {
		t.Fatalf("LocateContainer: got %v, want nil", got)
	}
}

func TestLocateContainer_TieKeepsFirst(t *testing.T) {
	a := dom.New("div")
	b := dom.New("div")
	for i := 0; i < 8; i++ {
		a.Append(dom.New("div").WithText("₹1"))
		b.Append(dom.New("div").WithText("₹1"))
	}
	doc := dom.Build(dom.New("body").Append(a, b))
	if got := LocateContainer(doc, Defaults()); got != a {
		t.Fatal("LocateContainer: tie did not keep the first candidate")
	}
}

func TestLocateContainer_MinChildren(t *testing.T) {
	grid := dom.New("div")
	for i := 0; i < 7; i++ {
		grid.Append(tile(0, float64(i)*110, "Soap"))
	}
	doc := dom.Build(dom.New("body").Append(grid))
	if got := LocateContainer(doc, Defaults()); got != nil {
		t.Fatal("LocateContainer: accepted a container below MinChildren")
	}

	th := Defaults()
	th.MinChildren = 6
	if got := LocateContainer(doc, th); got != grid {
		t.Fatal("LocateContainer: rejected a container above a lowered MinChildren")
	}
}

func TestRows_FiltersSpacers(t *testing.T) {
	const n, m = 9, 5
	doc, grid, _ := screen(n, m)
	_ = doc

	got := Rows(grid, Defaults())
	if len(got) != n {
		t.Fatalf("Rows: got %d, want %d", len(got), n)
	}
	for i, r := range got {
		if r != grid.Children()[i] {
			t.Fatalf("Rows[%d]: not the %d-th child", i, i)
		}
	}
}

func TestRows_UnitTokens(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Rice 5 Kg", true},
		{"Milk 1 ltr", true},
		{"Eggs 12 NOS", true},
		{"Kgsomething", false},
		{"Spacer", false},
		{"", false},
		{"Tea ₹40", true},
		{"Coffee $3", true},
	}
	th := Defaults()
	for _, tt := range tests {
		if got := th.isRow(dom.New("div").WithText(tt.text)); got != tt.want {
			t.Errorf("isRow(%q): got %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestApplyDefaults_CompilesUnitsOnce(t *testing.T) {
	th := Defaults()
	if th.unitRE == nil {
		t.Fatal("unit matcher not compiled")
	}
	cp := th
	if !cp.hasUnit("Rice 5 kg") || cp.unitRE != th.unitRE {
		t.Fatal("copy recompiled the unit matcher")
	}

	custom := Thresholds{UnitTokens: []string{" tray "}}
	custom.ApplyDefaults()
	if !custom.hasUnit("2 Tray") || custom.hasUnit("5 kg") {
		t.Fatal("custom unit tokens not honoured")
	}
}

func TestScenarioA(t *testing.T) {
	grid := dom.New("div").WithRect(0, 0, 800, 900)
	var img *dom.Node
	for i := 0; i < 8; i++ {
		top := float64(i) * 110
		child := dom.New("div").WithRect(100, top, 400, 100)
		if i == 3 {
			img = dom.New("img").WithRect(105, top+10, 60, 80)
			child.Append(
				img,
				dom.New("span").WithRect(180, top+10, 200, 30).WithText("Tea ₹120"),
			)
		}
		grid.Append(child)
	}
	doc := dom.Build(dom.New("body").Append(grid))

	res := Classify(doc, Defaults())
	if res.Root != grid {
		t.Fatalf("root: got %v, want the 8-child container", res.Root)
	}
	if len(res.Rows) != 1 || res.Rows[0] != grid.Children()[3] {
		t.Fatalf("rows: got %d, want child 3 only", len(res.Rows))
	}
	if got := res.Thumbnails[res.Rows[0]]; got != img {
		t.Fatalf("thumbnail: got %v, want the image node", got)
	}
}

func TestLocateThumbnail_Containment(t *testing.T) {
	row := dom.New("div").WithRect(100, 100, 400, 100).Append(
		// Overflows the row to the top: rejected.
		dom.New("div").WithRect(100, 80, 40, 90),
		// Too far right.
		dom.New("div").WithRect(300, 110, 60, 80),
		// Too short relative to the row.
		dom.New("div").WithRect(102, 110, 60, 30),
		// Too wide.
		dom.New("div").WithRect(104, 110, 200, 80),
		// Qualifies.
		dom.New("div").WithRect(110, 105, 70, 90),
	)
	dom.Build(row)
	th := Defaults()

	for _, policy := range []ThumbPolicy{PolicyLeftmost, PolicyWeighted} {
		th.ThumbPolicy = policy
		got := LocateThumbnail(row, th)
		if got != row.Children()[4] {
			t.Fatalf("%s: got %+v, want the only contained candidate", policy, got)
		}
		if !row.Rect.Contains(got.Rect) {
			t.Fatalf("%s: thumbnail escapes the row box", policy)
		}
	}
}

func TestLocateThumbnail_LeftmostTieBreak(t *testing.T) {
	wrapper := dom.New("div").WithRect(100, 100, 80, 100).WithText("Tea")
	thumb := dom.New("div").WithRect(100, 100, 80, 100).
		WithComputed(dom.ComputedStyle{BackgroundImage: `url("tea.png")`})
	row := dom.New("div").WithRect(100, 100, 400, 100).Append(
		wrapper.Append(thumb),
		dom.New("div").WithRect(130, 100, 60, 100).WithText("TE"),
	)
	dom.Build(row)

	// wrapper text is "Tea" (3 chars) so it is thumbnail-like as well and
	// wins on document order.
	if got := LocateThumbnail(row, Defaults()); got != wrapper {
		t.Fatalf("leftmost: got %+v, want wrapper", got)
	}

	wrapper.Text = "Masala Tea"
	if got := LocateThumbnail(row, Defaults()); got != thumb {
		t.Fatalf("leftmost: got %+v, want the background block", got)
	}
}

func TestLocateThumbnail_WeightedPrefersNarrowTall(t *testing.T) {
	wide := dom.New("div").WithRect(100, 120, 150, 60)
	narrow := dom.New("div").WithRect(110, 100, 50, 100)
	row := dom.New("div").WithRect(100, 100, 400, 100).Append(wide, narrow)
	dom.Build(row)

	th := Defaults()
	th.ThumbPolicy = PolicyWeighted
	if got := LocateThumbnail(row, th); got != narrow {
		t.Fatalf("weighted: got %+v, want the narrow tall block", got)
	}
	th.ThumbPolicy = PolicyLeftmost
	if got := LocateThumbnail(row, th); got != wide {
		t.Fatalf("leftmost: got %+v, want the left-most block", got)
	}
}

func TestLocateThumbnail_None(t *testing.T) {
	row := dom.New("div").WithRect(0, 0, 400, 100).Append(
		dom.New("span").WithRect(200, 10, 100, 20).WithText("Tea ₹40"),
	)
	dom.Build(row)
	if got := LocateThumbnail(row, Defaults()); got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
	if got := LocateThumbnail(dom.New("div"), Defaults()); got != nil {
		t.Fatal("zero-size row produced a thumbnail")
	}
}

func TestValidate(t *testing.T) {
	th := Defaults()
	if err := th.Validate(); err != nil {
		t.Fatalf("defaults: %v", err)
	}
	th.ThumbPolicy = "random"
	if err := th.Validate(); err == nil {
		t.Fatal("Validate: want error for unknown policy")
	}
}

func TestSummarize(t *testing.T) {
	doc, grid, _ := screen(8, 2)
	th := Defaults()
	res := Classify(doc, th)
	s := Summarize(res, ScoreCandidates(doc, th))
	if s.Root == nil || s.Root.ID != grid.ID {
		t.Fatalf("summary root: got %+v", s.Root)
	}
	if len(s.Rows) != 8 {
		t.Fatalf("summary rows: got %d", len(s.Rows))
	}
	for _, r := range s.Rows {
		if r.Thumbnail == nil || r.Thumbnail.Tag != "img" {
			t.Fatalf("row %d: thumbnail %+v", r.Row.ID, r.Thumbnail)
		}
	}
	if len(s.Candidates) == 0 {
		t.Fatal("no candidates reported")
	}
}
