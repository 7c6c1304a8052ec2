package tree

import (
	"errors"
	"testing"
)

// buildPair returns a tree with two windows split by a fresh insertion and
// the IDs of both leaves.
func buildPair(t *testing.T) (*Tree, NodeID, NodeID) {
	t.Helper()
	tr := New()
	first, err := tr.InsertWindow(Nil, 1, DefaultInsert())
	if err != nil {
		t.Fatalf("insert first window: %v", err)
	}
	second, err := tr.InsertWindow(first, 2, DefaultInsert())
	if err != nil {
		t.Fatalf("insert second window: %v", err)
	}
	return tr, first, second
}

// TestInsertFirstWindow verifies the single-window tree: the leaf is the
// root and there is no split.
func TestInsertFirstWindow(t *testing.T) {
	tr := New()
	id, err := tr.InsertWindow(Nil, 42, DefaultInsert())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if tr.Root() != id {
		t.Error("first leaf should be the root")
	}
	if tr.Len() != 1 {
		t.Errorf("expected 1 node, got %d", tr.Len())
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("tree invalid: %v", err)
	}
}

// TestInsertIntoEmptyNeedsNilTarget verifies that naming a target in an
// empty tree fails.
func TestInsertIntoEmptyNeedsNilTarget(t *testing.T) {
	tr := New()
	bogus := tr.store.alloc(Node{Kind: KindLeaf, Window: 9})
	tr.store.freeNode(bogus)
	tr.root = Nil
	if _, err := tr.InsertWindow(bogus, 1, DefaultInsert()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestInsertSecondWindow verifies the split created by the second
// insertion: the old leaf keeps its window, the new leaf takes the
// configured slot, and the fullness invariant holds.
func TestInsertSecondWindow(t *testing.T) {
	tr, first, second := buildPair(t)

	root, err := tr.Get(tr.Root())
	if err != nil {
		t.Fatalf("get root: %v", err)
	}
	if root.Kind != KindSplit {
		t.Fatal("root should be a split after the second insertion")
	}
	if root.First != first || root.Second != second {
		t.Error("default slot should place the new leaf second")
	}
	if root.Dir != Vertical || root.Ratio != 0.5 {
		t.Errorf("unexpected split parameters: %v %v", root.Dir, root.Ratio)
	}
	if tr.Len() != 3 {
		t.Errorf("expected 3 nodes, got %d", tr.Len())
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("tree invalid: %v", err)
	}
}

// TestInsertDuplicateWindow verifies that a window can be managed at most
// once per tree.
func TestInsertDuplicateWindow(t *testing.T) {
	tr, first, _ := buildPair(t)
	if _, err := tr.InsertWindow(first, 1, DefaultInsert()); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("expected ErrInvalidTarget, got %v", err)
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("failed insert mutated the tree: %v", err)
	}
}

// TestInsertIntoSplit verifies that splits are not insertion targets.
func TestInsertIntoSplit(t *testing.T) {
	tr, _, _ := buildPair(t)
	if _, err := tr.InsertWindow(tr.Root(), 3, DefaultInsert()); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("expected ErrInvalidTarget, got %v", err)
	}
}

// TestRemove verifies sibling promotion: removing one of two leaves leaves
// a single-leaf tree with the survivor as root.
func TestRemove(t *testing.T) {
	tr, first, second := buildPair(t)

	promoted, err := tr.Remove(second)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if promoted != first {
		t.Error("removing the second leaf should promote the first")
	}
	if tr.Root() != first {
		t.Error("promoted leaf should become the root")
	}
	if tr.Len() != 1 {
		t.Errorf("expected 1 node, got %d", tr.Len())
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("tree invalid: %v", err)
	}
}

// TestRemoveRoot verifies that removing the last window empties the tree.
func TestRemoveRoot(t *testing.T) {
	tr := New()
	id, _ := tr.InsertWindow(Nil, 1, DefaultInsert())
	promoted, err := tr.Remove(id)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !promoted.IsNil() {
		t.Error("removing the root leaf should promote nothing")
	}
	if !tr.Empty() {
		t.Error("tree should be empty")
	}
}

// TestRemoveStaleID verifies that a handle to a freed leaf stops
// resolving even after the slot is reused.
func TestRemoveStaleID(t *testing.T) {
	tr, first, second := buildPair(t)
	if _, err := tr.Remove(second); err != nil {
		t.Fatalf("remove: %v", err)
	}
	// Reuse the freed slots.
	if _, err := tr.InsertWindow(first, 3, DefaultInsert()); err != nil {
		t.Fatalf("reinsert: %v", err)
	}
	if _, err := tr.Remove(second); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale ID should be ErrNotFound, got %v", err)
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("tree invalid: %v", err)
	}
}

// TestInsertRemoveRestoresShape verifies that inserting and removing a
// window is structurally a no-op.
func TestInsertRemoveRestoresShape(t *testing.T) {
	tr, first, _ := buildPair(t)

	want := New()
	wf, _ := want.InsertWindow(Nil, 1, DefaultInsert())
	want.InsertWindow(wf, 2, DefaultInsert())

	extra, err := tr.InsertWindow(first, 7, Insert{Dir: Horizontal, Ratio: 0.3, Slot: SlotFirst})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := tr.Remove(extra); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !tr.Equal(want) {
		t.Error("insert followed by remove should restore the original shape")
	}
}

// TestPreselectConsumed verifies that a marker overrides the insertion
// parameters and is consumed by exactly one insertion.
func TestPreselectConsumed(t *testing.T) {
	tr, first, _ := buildPair(t)

	ps := Preselect{Dir: Horizontal, Ratio: 0.3, Slot: SlotFirst}
	if err := tr.SetPreselect(first, ps); err != nil {
		t.Fatalf("preselect: %v", err)
	}

	id, err := tr.InsertWindow(first, 3, DefaultInsert())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	n, _ := tr.Get(id)
	parent, _ := tr.Get(n.Parent)
	if parent.Dir != Horizontal || parent.Ratio != 0.3 {
		t.Errorf("marker should override defaults, got %v %v", parent.Dir, parent.Ratio)
	}
	if parent.First != id {
		t.Error("slot first should place the new leaf first")
	}

	old, _ := tr.Get(first)
	if old.Preselect != nil {
		t.Error("marker should be consumed by the insertion")
	}
}

// TestPreselectRatioBounds verifies that out-of-bounds marker ratios are
// rejected.
func TestPreselectRatioBounds(t *testing.T) {
	tr, first, _ := buildPair(t)
	err := tr.SetPreselect(first, Preselect{Dir: Vertical, Ratio: 0.01, Slot: SlotSecond})
	if !errors.Is(err, ErrGeometryDegenerate) {
		t.Errorf("expected ErrGeometryDegenerate, got %v", err)
	}
}

// TestCancelPreselect verifies explicit cancellation, including the no-op
// case.
func TestCancelPreselect(t *testing.T) {
	tr, first, _ := buildPair(t)
	if err := tr.ClearPreselect(first); err != nil {
		t.Errorf("clearing a bare leaf should succeed: %v", err)
	}
	tr.SetPreselect(first, Preselect{Dir: Vertical, Ratio: 0.4, Slot: SlotFirst})
	if err := tr.ClearPreselect(first); err != nil {
		t.Fatalf("clear: %v", err)
	}
	n, _ := tr.Get(first)
	if n.Preselect != nil {
		t.Error("marker should be gone")
	}
}

// TestResizeSplit verifies ratio adjustment and the bounds rejection, and
// that a rejected resize changes nothing.
func TestResizeSplit(t *testing.T) {
	tr, _, _ := buildPair(t)
	root := tr.Root()

	if err := tr.ResizeSplit(root, 0.2); err != nil {
		t.Fatalf("resize: %v", err)
	}
	n, _ := tr.Get(root)
	if n.Ratio != 0.7 {
		t.Errorf("expected ratio 0.7, got %v", n.Ratio)
	}

	if err := tr.ResizeSplit(root, 0.5); !errors.Is(err, ErrGeometryDegenerate) {
		t.Errorf("expected ErrGeometryDegenerate, got %v", err)
	}
	n, _ = tr.Get(root)
	if n.Ratio != 0.7 {
		t.Errorf("rejected resize must not change the ratio, got %v", n.Ratio)
	}
}

// TestResizeLeaf verifies that leaves cannot be resized directly.
func TestResizeLeaf(t *testing.T) {
	tr, first, _ := buildPair(t)
	if err := tr.ResizeSplit(first, 0.1); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("expected ErrInvalidTarget, got %v", err)
	}
}

// TestRotate verifies the child swap and direction flip.
func TestRotate(t *testing.T) {
	tr, first, second := buildPair(t)
	root := tr.Root()

	if err := tr.Rotate(root); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	n, _ := tr.Get(root)
	if n.First != second || n.Second != first {
		t.Error("rotate should swap the children")
	}
	if n.Dir != Horizontal {
		t.Errorf("rotate should flip the direction, got %v", n.Dir)
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("tree invalid: %v", err)
	}
}

// TestSwapWindows verifies the handle exchange and the same-leaf error.
func TestSwapWindows(t *testing.T) {
	tr, first, second := buildPair(t)

	if err := tr.SwapWindows(first, second); err != nil {
		t.Fatalf("swap: %v", err)
	}
	a, _ := tr.Get(first)
	b, _ := tr.Get(second)
	if a.Window != 2 || b.Window != 1 {
		t.Errorf("windows not exchanged: %d %d", a.Window, b.Window)
	}

	if err := tr.SwapWindows(first, first); !errors.Is(err, ErrSameLeaf) {
		t.Errorf("expected ErrSameLeaf, got %v", err)
	}
}

// TestHiddenSticky verifies the leaf flags round-trip.
func TestHiddenSticky(t *testing.T) {
	tr, first, _ := buildPair(t)
	if err := tr.SetHidden(first, true); err != nil {
		t.Fatalf("hide: %v", err)
	}
	if err := tr.SetSticky(first, true); err != nil {
		t.Fatalf("sticky: %v", err)
	}
	n, _ := tr.Get(first)
	if !n.Hidden || !n.Sticky {
		t.Error("flags should be set")
	}
}

// TestLeavesPreOrder verifies the traversal order after a slot-first
// insertion.
func TestLeavesPreOrder(t *testing.T) {
	tr, first, second := buildPair(t)
	third, err := tr.InsertWindow(first, 3, Insert{Dir: Horizontal, Ratio: 0.5, Slot: SlotFirst})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got := tr.Leaves()
	want := []NodeID{third, first, second}
	if len(got) != len(want) {
		t.Fatalf("expected %d leaves, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("leaf %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

// TestFindWindow verifies window lookup across the tree.
func TestFindWindow(t *testing.T) {
	tr, _, second := buildPair(t)
	if tr.FindWindow(2) != second {
		t.Error("window 2 should resolve to the second leaf")
	}
	if !tr.FindWindow(99).IsNil() {
		t.Error("unknown window should resolve to Nil")
	}
}

// TestRatioClampOnInsert verifies that extreme insertion ratios are
// clamped instead of rejected.
func TestRatioClampOnInsert(t *testing.T) {
	tr := New()
	first, _ := tr.InsertWindow(Nil, 1, DefaultInsert())
	id, err := tr.InsertWindow(first, 2, Insert{Dir: Vertical, Ratio: 0.001, Slot: SlotSecond})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	n, _ := tr.Get(id)
	parent, _ := tr.Get(n.Parent)
	if parent.Ratio != RatioMin {
		t.Errorf("expected ratio clamped to %v, got %v", RatioMin, parent.Ratio)
	}
}

// TestEqual verifies structural comparison ignores node identity but not
// shape, windows or ratios.
func TestEqual(t *testing.T) {
	a, _, _ := buildPair(t)
	b, _, _ := buildPair(t)
	if !a.Equal(b) {
		t.Error("identically built trees should compare equal")
	}
	if err := a.ResizeSplit(a.Root(), 0.1); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if a.Equal(b) {
		t.Error("different ratios should not compare equal")
	}
}
