// Package tree implements the binary-space-partition layout engine: an
// arena-backed full binary tree where every leaf is exactly one managed
// window and every internal node is a split. All structural operations are
// O(1) index rewrites against the arena; geometry is a pure function of the
// tree and a root rectangle.
package tree

import "github.com/shoji-wm/shoji/internal/winsys"

// Kind discriminates the node union.
type Kind uint8

const (
	// KindLeaf is a node holding exactly one managed window.
	KindLeaf Kind = iota + 1
	// KindSplit is an internal node partitioning its rectangle between two
	// children.
	KindSplit
)

// Direction is the axis a split divides its rectangle along. A vertical
// split cuts with a vertical line, placing its children side by side; a
// horizontal split cuts with a horizontal line, stacking them.
type Direction uint8

const (
	// Horizontal stacks the children top and bottom.
	Horizontal Direction = iota
	// Vertical places the children side by side.
	Vertical
)

func (d Direction) String() string {
	if d == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Slot names one of a split's two child positions.
type Slot uint8

const (
	// SlotFirst is the left or top child.
	SlotFirst Slot = iota
	// SlotSecond is the right or bottom child.
	SlotSecond
)

func (s Slot) String() string {
	if s == SlotSecond {
		return "second"
	}
	return "first"
}

// Preselect pins the split configuration for the next window inserted at a
// leaf. It is consumed by that insertion or cancelled explicitly, and dies
// with its leaf.
type Preselect struct {
	Dir   Direction
	Ratio float64
	Slot  Slot
}

// NodeID is a stable handle into a Store. The zero value refers to no node.
// IDs carry a generation so a handle to a freed slot can never alias a
// later allocation in the same slot.
type NodeID struct {
	index uint32
	gen   uint32
}

// Nil is the absent node reference.
var Nil NodeID

// IsNil reports whether the ID refers to no node.
func (id NodeID) IsNil() bool { return id.gen == 0 }

// Index returns the arena slot for display purposes.
func (id NodeID) Index() uint32 { return id.index }

// Node is one tree node. Which fields are meaningful depends on Kind:
// leaves own Window, Hidden, Sticky and an optional Preselect marker;
// splits own First, Second, Dir, Ratio and Order.
type Node struct {
	Kind   Kind
	Parent NodeID

	// Leaf fields.
	Window    winsys.WindowID
	Hidden    bool
	Sticky    bool
	Preselect *Preselect

	// Split fields.
	First  NodeID
	Second NodeID
	Dir    Direction
	Ratio  float64
	Order  Slot
}

type slot struct {
	node Node
	gen  uint32
	live bool
}

// Store is the node arena. Nodes are addressed by NodeID rather than by
// pointer so parent/child rewrites are plain index swaps and outstanding
// handles held by the focus tracker or in-flight commands never dangle.
type Store struct {
	slots []slot
	free  []uint32
	live  int
}

// NewStore creates an empty arena.
func NewStore() *Store {
	return &Store{}
}

// Len returns the number of live nodes.
func (s *Store) Len() int { return s.live }

func (s *Store) alloc(n Node) NodeID {
	s.live++
	if len(s.free) > 0 {
		idx := s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
		sl := &s.slots[idx]
		sl.node = n
		sl.live = true
		return NodeID{index: idx, gen: sl.gen}
	}
	// Generation starts at 1 so the zero NodeID stays distinguishable.
	s.slots = append(s.slots, slot{node: n, gen: 1, live: true})
	return NodeID{index: uint32(len(s.slots) - 1), gen: 1}
}

// free tombstones the slot: the generation bumps immediately, so any ID
// still referring to the old occupant stops resolving before the slot is
// ever reused.
func (s *Store) freeNode(id NodeID) {
	sl := s.lookup(id)
	if sl == nil {
		return
	}
	sl.live = false
	sl.gen++
	sl.node = Node{}
	s.live--
	s.free = append(s.free, id.index)
}

func (s *Store) lookup(id NodeID) *slot {
	if id.IsNil() || int(id.index) >= len(s.slots) {
		return nil
	}
	sl := &s.slots[id.index]
	if !sl.live || sl.gen != id.gen {
		return nil
	}
	return sl
}

// Get resolves an ID to its node, or ErrNotFound for nil, stale, or freed
// IDs.
func (s *Store) Get(id NodeID) (*Node, error) {
	sl := s.lookup(id)
	if sl == nil {
		return nil, ErrNotFound
	}
	return &sl.node, nil
}

// Contains reports whether the ID resolves to a live node.
func (s *Store) Contains(id NodeID) bool {
	return s.lookup(id) != nil
}

func (s *Store) setParent(id, parent NodeID) {
	if sl := s.lookup(id); sl != nil {
		sl.node.Parent = parent
	}
}
