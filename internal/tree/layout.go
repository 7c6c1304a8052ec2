package tree

import (
	"math"

	"github.com/shoji-wm/shoji/internal/winsys"
)

// LeafGeometry is the final on-screen rectangle computed for one leaf.
type LeafGeometry struct {
	Node   NodeID
	Window winsys.WindowID
	Rect   winsys.Rect
	Hidden bool
}

// Layout partitions root among the leaves, in pre-order. It is a pure
// function of the tree and the rectangle: a split's rectangle is divided
// along its direction at its ratio, the first child takes the rounded
// share and the second the exact remainder, so the leaf rectangles always
// tile the root with no gap and no overlap. Hidden leaves keep their
// region; the caller decides not to map them.
func (t *Tree) Layout(root winsys.Rect) []LeafGeometry {
	var out []LeafGeometry
	t.layout(t.root, root, &out)
	return out
}

func (t *Tree) layout(id NodeID, r winsys.Rect, out *[]LeafGeometry) {
	n, err := t.store.Get(id)
	if err != nil {
		return
	}
	if n.Kind == KindLeaf {
		*out = append(*out, LeafGeometry{Node: id, Window: n.Window, Rect: r, Hidden: n.Hidden})
		return
	}
	first, second := SplitRect(r, n.Dir, n.Ratio)
	t.layout(n.First, first, out)
	t.layout(n.Second, second, out)
}

// SplitRect divides r along dir at ratio into the two child rectangles.
// The first child's span is round(ratio*extent) clamped so neither side is
// ever zero while the extent allows it.
func SplitRect(r winsys.Rect, dir Direction, ratio float64) (first, second winsys.Rect) {
	if dir == Vertical {
		fw := span(ratio, r.Width)
		first = winsys.Rect{X: r.X, Y: r.Y, Width: fw, Height: r.Height}
		second = winsys.Rect{X: r.X + fw, Y: r.Y, Width: r.Width - fw, Height: r.Height}
		return first, second
	}
	fh := span(ratio, r.Height)
	first = winsys.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: fh}
	second = winsys.Rect{X: r.X, Y: r.Y + fh, Width: r.Width, Height: r.Height - fh}
	return first, second
}

// RectOf computes the rectangle any node (leaf or split) occupies when the
// tree is laid out over root. Same partition rules as Layout.
func (t *Tree) RectOf(id NodeID, root winsys.Rect) (winsys.Rect, error) {
	if !t.store.Contains(id) {
		return winsys.Rect{}, ErrNotFound
	}
	cur := t.root
	r := root
	for {
		if cur == id {
			return r, nil
		}
		n, err := t.store.Get(cur)
		if err != nil || n.Kind != KindSplit {
			return winsys.Rect{}, ErrNotFound
		}
		first, second := SplitRect(r, n.Dir, n.Ratio)
		if t.subtreeContains(n.First, id) {
			cur, r = n.First, first
		} else {
			cur, r = n.Second, second
		}
	}
}

func (t *Tree) subtreeContains(root, id NodeID) bool {
	found := false
	t.walk(root, func(nid NodeID, _ *Node) {
		if nid == id {
			found = true
		}
	})
	return found
}

func span(ratio float64, extent int) int {
	v := int(math.Round(ratio * float64(extent)))
	if extent < 2 {
		return extent
	}
	if v < 1 {
		return 1
	}
	if v > extent-1 {
		return extent - 1
	}
	return v
}
