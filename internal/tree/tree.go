package tree

import (
	"math"

	"github.com/shoji-wm/shoji/internal/winsys"
)

// Ratio bounds. A split ratio lives strictly inside (RatioMin, RatioMax) so
// neither child region can collapse to zero area.
const (
	RatioMin = 0.05
	RatioMax = 1 - RatioMin
)

// Insert carries the split parameters for one insertion. A preselection
// marker on the target leaf overrides all three fields.
type Insert struct {
	Dir   Direction
	Ratio float64
	Slot  Slot
}

// DefaultInsert is the insertion policy used when neither a preselection
// nor a configured default applies.
func DefaultInsert() Insert {
	return Insert{Dir: Vertical, Ratio: 0.5, Slot: SlotSecond}
}

// AutoDirection picks a split direction from the shape of the rectangle
// being divided: wider-than-tall rectangles split side by side, taller ones
// stack. This is the documented default-direction policy.
func AutoDirection(r winsys.Rect) Direction {
	if r.Width >= r.Height {
		return Vertical
	}
	return Horizontal
}

// Tree is one desktop's layout: a full binary tree over an arena. An empty
// tree has a nil root.
type Tree struct {
	store *Store
	root  NodeID
}

// New creates an empty tree with its own arena.
func New() *Tree {
	return &Tree{store: NewStore()}
}

// Root returns the root node ID, or Nil for an empty tree.
func (t *Tree) Root() NodeID { return t.root }

// Empty reports whether the tree manages no windows.
func (t *Tree) Empty() bool { return t.root.IsNil() }

// Len returns the number of live nodes (leaves plus splits).
func (t *Tree) Len() int { return t.store.Len() }

// Get resolves a node ID.
func (t *Tree) Get(id NodeID) (*Node, error) {
	return t.store.Get(id)
}

func (t *Tree) leaf(id NodeID) (*Node, error) {
	n, err := t.store.Get(id)
	if err != nil {
		return nil, err
	}
	if n.Kind != KindLeaf {
		return nil, ErrInvalidTarget
	}
	return n, nil
}

func (t *Tree) split(id NodeID) (*Node, error) {
	n, err := t.store.Get(id)
	if err != nil {
		return nil, err
	}
	if n.Kind != KindSplit {
		return nil, ErrInvalidTarget
	}
	return n, nil
}

func clampRatio(r float64) float64 {
	return math.Min(RatioMax, math.Max(RatioMin, r))
}

// InsertWindow makes win a managed leaf. For an empty tree target must be
// Nil and the new leaf becomes the root. Otherwise target names an existing
// leaf, which is replaced in place by a new split holding the old leaf and
// the new one; no other node is touched. An unconsumed preselection marker
// on the target overrides ins and is consumed. Returns the new leaf's ID.
func (t *Tree) InsertWindow(target NodeID, win winsys.WindowID, ins Insert) (NodeID, error) {
	if !t.FindWindow(win).IsNil() {
		return Nil, ErrInvalidTarget
	}

	if t.root.IsNil() {
		if !target.IsNil() {
			return Nil, ErrNotFound
		}
		t.root = t.store.alloc(Node{Kind: KindLeaf, Window: win})
		return t.root, nil
	}

	old, err := t.leaf(target)
	if err != nil {
		return Nil, err
	}

	if ps := old.Preselect; ps != nil {
		ins = Insert{Dir: ps.Dir, Ratio: ps.Ratio, Slot: ps.Slot}
		old.Preselect = nil
	}
	ins.Ratio = clampRatio(ins.Ratio)

	parent := old.Parent
	newLeaf := t.store.alloc(Node{Kind: KindLeaf, Window: win})

	sp := Node{
		Kind:   KindSplit,
		Parent: parent,
		Dir:    ins.Dir,
		Ratio:  ins.Ratio,
		Order:  ins.Slot,
	}
	if ins.Slot == SlotFirst {
		sp.First, sp.Second = newLeaf, target
	} else {
		sp.First, sp.Second = target, newLeaf
	}
	spID := t.store.alloc(sp)

	t.store.setParent(target, spID)
	t.store.setParent(newLeaf, spID)
	if parent.IsNil() {
		t.root = spID
	} else {
		t.replaceChild(parent, target, spID)
	}
	return newLeaf, nil
}

// Remove destroys a leaf. Its parent split is destroyed with it and the
// sibling subtree is promoted into the parent's former slot; removing the
// root leaf empties the tree. Returns the promoted subtree's ID, or Nil
// when the tree became empty.
func (t *Tree) Remove(id NodeID) (NodeID, error) {
	if _, err := t.leaf(id); err != nil {
		return Nil, err
	}

	if id == t.root {
		t.store.freeNode(id)
		t.root = Nil
		return Nil, nil
	}

	n, _ := t.store.Get(id)
	parentID := n.Parent
	parent, err := t.split(parentID)
	if err != nil {
		return Nil, err
	}

	sibling := parent.First
	if sibling == id {
		sibling = parent.Second
	}
	grand := parent.Parent

	t.store.setParent(sibling, grand)
	if grand.IsNil() {
		t.root = sibling
	} else {
		t.replaceChild(grand, parentID, sibling)
	}
	t.store.freeNode(id)
	t.store.freeNode(parentID)
	return sibling, nil
}

// ResizeSplit shifts a split's ratio by delta. The resulting ratio must
// stay strictly inside (RatioMin, RatioMax); a delta that would leave the
// bounds returns ErrGeometryDegenerate and changes nothing.
func (t *Tree) ResizeSplit(id NodeID, delta float64) error {
	sp, err := t.split(id)
	if err != nil {
		return err
	}
	next := sp.Ratio + delta
	if next < RatioMin || next > RatioMax {
		return ErrGeometryDegenerate
	}
	sp.Ratio = next
	return nil
}

// SetRatio sets a split's ratio outright, with the same bounds check as
// ResizeSplit.
func (t *Tree) SetRatio(id NodeID, ratio float64) error {
	sp, err := t.split(id)
	if err != nil {
		return err
	}
	if ratio < RatioMin || ratio > RatioMax {
		return ErrGeometryDegenerate
	}
	sp.Ratio = ratio
	return nil
}

// Rotate swaps a split's children and flips its direction. Structure and
// leaf set are untouched.
func (t *Tree) Rotate(id NodeID) error {
	sp, err := t.split(id)
	if err != nil {
		return err
	}
	sp.First, sp.Second = sp.Second, sp.First
	if sp.Dir == Vertical {
		sp.Dir = Horizontal
	} else {
		sp.Dir = Vertical
	}
	return nil
}

// SwapWindows exchanges the window handles of two leaves without
// restructuring. Naming the same leaf twice returns ErrSameLeaf.
func (t *Tree) SwapWindows(a, b NodeID) error {
	if a == b {
		return ErrSameLeaf
	}
	la, err := t.leaf(a)
	if err != nil {
		return err
	}
	lb, err := t.leaf(b)
	if err != nil {
		return err
	}
	la.Window, lb.Window = lb.Window, la.Window
	return nil
}

// SetPreselect arms a preselection marker on a leaf for the next insertion
// there. The marker's ratio must respect the split ratio bounds.
func (t *Tree) SetPreselect(id NodeID, ps Preselect) error {
	l, err := t.leaf(id)
	if err != nil {
		return err
	}
	if ps.Ratio < RatioMin || ps.Ratio > RatioMax {
		return ErrGeometryDegenerate
	}
	l.Preselect = &ps
	return nil
}

// ClearPreselect cancels a pending preselection. Clearing a leaf with no
// marker is a no-op.
func (t *Tree) ClearPreselect(id NodeID) error {
	l, err := t.leaf(id)
	if err != nil {
		return err
	}
	l.Preselect = nil
	return nil
}

// SetHidden toggles a leaf's hidden flag.
func (t *Tree) SetHidden(id NodeID, hidden bool) error {
	l, err := t.leaf(id)
	if err != nil {
		return err
	}
	l.Hidden = hidden
	return nil
}

// SetSticky toggles a leaf's sticky flag.
func (t *Tree) SetSticky(id NodeID, sticky bool) error {
	l, err := t.leaf(id)
	if err != nil {
		return err
	}
	l.Sticky = sticky
	return nil
}

func (t *Tree) replaceChild(parent, old, repl NodeID) {
	sl := t.store.lookup(parent)
	if sl == nil {
		return
	}
	if sl.node.First == old {
		sl.node.First = repl
	} else if sl.node.Second == old {
		sl.node.Second = repl
	}
}

// Leaves returns all leaf IDs in pre-order (first child before second).
// This is the traversal order used for focus cycling and for the published
// client list, and it is part of the externally observable contract.
func (t *Tree) Leaves() []NodeID {
	var out []NodeID
	t.walk(t.root, func(id NodeID, n *Node) {
		if n.Kind == KindLeaf {
			out = append(out, id)
		}
	})
	return out
}

// Nodes returns every live node ID in pre-order, splits included. This is
// the order query output lists nodes in, so @index references printed
// there resolve against it.
func (t *Tree) Nodes() []NodeID {
	var out []NodeID
	t.walk(t.root, func(id NodeID, _ *Node) {
		out = append(out, id)
	})
	return out
}

// Windows returns the managed window handles in pre-order.
func (t *Tree) Windows() []winsys.WindowID {
	var out []winsys.WindowID
	t.walk(t.root, func(_ NodeID, n *Node) {
		if n.Kind == KindLeaf {
			out = append(out, n.Window)
		}
	})
	return out
}

// FindWindow returns the leaf holding win, or Nil.
func (t *Tree) FindWindow(win winsys.WindowID) NodeID {
	found := Nil
	t.walk(t.root, func(id NodeID, n *Node) {
		if n.Kind == KindLeaf && n.Window == win {
			found = id
		}
	})
	return found
}

// FirstLeaf returns the first pre-order leaf of the subtree rooted at id,
// or Nil. Used to pick the "closest" leaf of a promoted subtree when focus
// has to move.
func (t *Tree) FirstLeaf(id NodeID) NodeID {
	for {
		n, err := t.store.Get(id)
		if err != nil {
			return Nil
		}
		if n.Kind == KindLeaf {
			return id
		}
		id = n.First
	}
}

// ParentSplit returns the parent split of a leaf, or Nil for the root leaf.
func (t *Tree) ParentSplit(id NodeID) (NodeID, error) {
	l, err := t.leaf(id)
	if err != nil {
		return Nil, err
	}
	return l.Parent, nil
}

func (t *Tree) walk(id NodeID, f func(NodeID, *Node)) {
	n, err := t.store.Get(id)
	if err != nil {
		return
	}
	f(id, n)
	if n.Kind == KindSplit {
		first, second := n.First, n.Second
		t.walk(first, f)
		t.walk(second, f)
	}
}

// Equal reports structural equality with another tree: same shape, same
// split parameters, same windows and flags at the same positions. Node
// identity is ignored.
func (t *Tree) Equal(o *Tree) bool {
	return equalSubtree(t, t.root, o, o.root)
}

func equalSubtree(a *Tree, aid NodeID, b *Tree, bid NodeID) bool {
	if aid.IsNil() || bid.IsNil() {
		return aid.IsNil() == bid.IsNil()
	}
	an, aerr := a.store.Get(aid)
	bn, berr := b.store.Get(bid)
	if aerr != nil || berr != nil {
		return aerr != nil && berr != nil
	}
	if an.Kind != bn.Kind {
		return false
	}
	if an.Kind == KindLeaf {
		return an.Window == bn.Window && an.Hidden == bn.Hidden && an.Sticky == bn.Sticky
	}
	if an.Dir != bn.Dir || an.Order != bn.Order || math.Abs(an.Ratio-bn.Ratio) > 1e-9 {
		return false
	}
	return equalSubtree(a, an.First, b, bn.First) &&
		equalSubtree(a, an.Second, b, bn.Second)
}

// Validate walks the tree checking the structural invariants: fullness
// (every split has two live children), consistent parent links, ratio
// bounds, window-handle uniqueness, and that every live arena node is
// reachable from the root. Tests lean on this after every mutation.
func (t *Tree) Validate() error {
	seen := make(map[winsys.WindowID]bool)
	count := 0
	var check func(id, parent NodeID) error
	check = func(id, parent NodeID) error {
		n, err := t.store.Get(id)
		if err != nil {
			return err
		}
		count++
		if n.Parent != parent {
			return ErrInvalidTarget
		}
		switch n.Kind {
		case KindLeaf:
			if seen[n.Window] {
				return ErrInvalidTarget
			}
			seen[n.Window] = true
			return nil
		case KindSplit:
			if n.Ratio < RatioMin || n.Ratio > RatioMax {
				return ErrGeometryDegenerate
			}
			if err := check(n.First, id); err != nil {
				return err
			}
			return check(n.Second, id)
		}
		return ErrInvalidTarget
	}
	if !t.root.IsNil() {
		if err := check(t.root, Nil); err != nil {
			return err
		}
	}
	if count != t.store.Len() {
		return ErrInvalidTarget
	}
	return nil
}
