package tree

import (
	"testing"

	"github.com/shoji-wm/shoji/internal/winsys"
)

// TestLayoutSingleLeaf verifies that one window takes the whole root
// rectangle.
func TestLayoutSingleLeaf(t *testing.T) {
	tr := New()
	tr.InsertWindow(Nil, 1, DefaultInsert())

	root := winsys.Rect{Width: 800, Height: 600}
	geoms := tr.Layout(root)
	if len(geoms) != 1 {
		t.Fatalf("expected 1 geometry, got %d", len(geoms))
	}
	if geoms[0].Rect != root {
		t.Errorf("expected %+v, got %+v", root, geoms[0].Rect)
	}
}

// TestLayoutExactCoverage verifies the tiling invariant: the leaf
// rectangles cover the root exactly, no gap and no overlap, even with
// ratios that do not divide the extent evenly.
func TestLayoutExactCoverage(t *testing.T) {
	tr := New()
	first, _ := tr.InsertWindow(Nil, 1, DefaultInsert())
	second, _ := tr.InsertWindow(first, 2, Insert{Dir: Vertical, Ratio: 0.33, Slot: SlotSecond})
	tr.InsertWindow(second, 3, Insert{Dir: Horizontal, Ratio: 0.61, Slot: SlotFirst})

	root := winsys.Rect{X: 3, Y: 7, Width: 1001, Height: 733}
	geoms := tr.Layout(root)
	if len(geoms) != 3 {
		t.Fatalf("expected 3 geometries, got %d", len(geoms))
	}

	area := 0
	for _, g := range geoms {
		if g.Rect.Width < 1 || g.Rect.Height < 1 {
			t.Errorf("degenerate rectangle for window %d: %+v", g.Window, g.Rect)
		}
		area += g.Rect.Width * g.Rect.Height
	}
	if want := root.Width * root.Height; area != want {
		t.Errorf("areas must sum to the root area: expected %d, got %d", want, area)
	}

	for i, a := range geoms {
		for _, b := range geoms[i+1:] {
			if overlaps(a.Rect, b.Rect) {
				t.Errorf("windows %d and %d overlap: %+v vs %+v", a.Window, b.Window, a.Rect, b.Rect)
			}
		}
	}
}

func overlaps(a, b winsys.Rect) bool {
	return a.X < b.X+b.Width && b.X < a.X+a.Width &&
		a.Y < b.Y+b.Height && b.Y < a.Y+a.Height
}

// TestSplitRect verifies both directions and the remainder rule.
func TestSplitRect(t *testing.T) {
	r := winsys.Rect{X: 10, Y: 20, Width: 101, Height: 57}

	first, second := SplitRect(r, Vertical, 0.5)
	if first.Width+second.Width != r.Width {
		t.Error("vertical split must cover the width exactly")
	}
	if first.Height != r.Height || second.Height != r.Height {
		t.Error("vertical split must keep the height")
	}
	if second.X != first.X+first.Width {
		t.Error("second child must start where the first ends")
	}

	first, second = SplitRect(r, Horizontal, 0.25)
	if first.Height+second.Height != r.Height {
		t.Error("horizontal split must cover the height exactly")
	}
	if first.Height != 14 {
		t.Errorf("expected rounded first span 14, got %d", first.Height)
	}
}

// TestSpanNeverZero verifies that neither side of a split collapses while
// the extent allows two pixels.
func TestSpanNeverZero(t *testing.T) {
	if got := span(0.05, 10); got != 1 {
		t.Errorf("expected clamp to 1, got %d", got)
	}
	if got := span(0.95, 10); got != 9 {
		t.Errorf("expected clamp to 9, got %d", got)
	}
	if got := span(0.5, 1); got != 1 {
		t.Errorf("one-pixel extent goes whole to the first child, got %d", got)
	}
}

// TestRectOf verifies node rectangle lookup against the full layout.
func TestRectOf(t *testing.T) {
	tr := New()
	first, _ := tr.InsertWindow(Nil, 1, DefaultInsert())
	second, _ := tr.InsertWindow(first, 2, DefaultInsert())

	root := winsys.Rect{Width: 640, Height: 480}
	geoms := tr.Layout(root)

	for _, g := range geoms {
		r, err := tr.RectOf(g.Node, root)
		if err != nil {
			t.Fatalf("rect of %v: %v", g.Node, err)
		}
		if r != g.Rect {
			t.Errorf("expected %+v, got %+v", g.Rect, r)
		}
	}

	if r, err := tr.RectOf(tr.Root(), root); err != nil || r != root {
		t.Errorf("root rect should be the whole root: %+v %v", r, err)
	}

	tr.Remove(second)
	if _, err := tr.RectOf(second, root); err == nil {
		t.Error("rect of a freed node should fail")
	}
}

// TestLayoutHiddenLeafKeepsRegion verifies that hiding a leaf does not
// re-tile its siblings.
func TestLayoutHiddenLeafKeepsRegion(t *testing.T) {
	tr := New()
	first, _ := tr.InsertWindow(Nil, 1, DefaultInsert())
	second, _ := tr.InsertWindow(first, 2, DefaultInsert())
	tr.SetHidden(second, true)

	root := winsys.Rect{Width: 800, Height: 600}
	geoms := tr.Layout(root)
	if len(geoms) != 2 {
		t.Fatalf("expected 2 geometries, got %d", len(geoms))
	}
	for _, g := range geoms {
		if g.Node == second && !g.Hidden {
			t.Error("hidden leaf should be flagged")
		}
		if g.Rect.Width != 400 {
			t.Errorf("hiding must not change the partition, got width %d", g.Rect.Width)
		}
	}
}
