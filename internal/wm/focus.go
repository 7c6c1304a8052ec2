package wm

import (
	"github.com/shoji-wm/shoji/internal/proto"
	"github.com/shoji-wm/shoji/internal/tree"
	"github.com/shoji-wm/shoji/internal/winsys"
)

// The focus tracker has two states: Normal (a leaf is focused, or nothing
// is) and Preselecting (the focused leaf carries an armed preselection).
// The state is derived, never stored: a focus handle plus the leaf's
// marker fully determine it.

// Mode is the tracker state reported by query focus.
type Mode uint8

const (
	// ModeNormal means no preselection is pending.
	ModeNormal Mode = iota
	// ModePreselecting means the focused leaf has an armed preselection.
	ModePreselecting
)

func (m Mode) String() string {
	if m == ModePreselecting {
		return "preselect"
	}
	return "normal"
}

// focusValid reports whether the focus handle still resolves to a live,
// unhidden leaf. Generational node IDs make staleness detection a lookup.
func (m *Manager) focusValid() bool {
	if m.focus.node.IsNil() || m.focus.desktop >= len(m.desktops) {
		return false
	}
	n, err := m.desktops[m.focus.desktop].Tree.Get(m.focus.node)
	return err == nil && n.Kind == tree.KindLeaf && !n.Hidden
}

// focusMode derives the tracker state.
func (m *Manager) focusMode() Mode {
	if !m.focusValid() {
		return ModeNormal
	}
	n, err := m.desktops[m.focus.desktop].Tree.Get(m.focus.node)
	if err == nil && n.Preselect != nil {
		return ModePreselecting
	}
	return ModeNormal
}

// setFocus points focus at a leaf, switching desktops if the leaf lives
// elsewhere. Focusing a hidden leaf is ErrInvalidTarget.
func (m *Manager) setFocus(dIdx int, id tree.NodeID) error {
	n, err := m.desktops[dIdx].Tree.Get(id)
	if err != nil {
		return err
	}
	if n.Kind != tree.KindLeaf || n.Hidden {
		return tree.ErrInvalidTarget
	}
	m.focus = focusRef{desktop: dIdx, node: id}
	m.current = dIdx
	return nil
}

// clearFocus enters the no-focus state. Distinct from an error: an empty
// desktop simply has nothing to focus.
func (m *Manager) clearFocus() {
	m.focus = focusRef{}
}

// switchDesktop changes the current desktop and restores focus to a
// visible leaf there, or clears it.
func (m *Manager) switchDesktop(target int) {
	m.current = target
	d := m.desktops[target]
	if m.focusValid() && m.focus.desktop == target {
		return
	}
	if id := m.firstVisibleLeaf(d, d.Tree.Root()); !id.IsNil() {
		m.focus = focusRef{desktop: target, node: id}
		return
	}
	m.clearFocus()
}

// firstVisibleLeaf returns the first pre-order unhidden leaf under root,
// or Nil.
func (m *Manager) firstVisibleLeaf(d *Desktop, root tree.NodeID) tree.NodeID {
	if root.IsNil() {
		return tree.Nil
	}
	for _, id := range d.Tree.Leaves() {
		if !m.leafInSubtree(d, root, id) {
			continue
		}
		if n, err := d.Tree.Get(id); err == nil && !n.Hidden {
			return id
		}
	}
	return tree.Nil
}

func (m *Manager) leafInSubtree(d *Desktop, root, id tree.NodeID) bool {
	if root == d.Tree.Root() {
		return true
	}
	cur := id
	for !cur.IsNil() {
		if cur == root {
			return true
		}
		n, err := d.Tree.Get(cur)
		if err != nil {
			return false
		}
		cur = n.Parent
	}
	return false
}

// removeLeaf removes a leaf and reassigns focus per policy: the first
// pre-order unhidden leaf of the promoted sibling subtree, or no focus
// when the tree emptied.
func (m *Manager) removeLeaf(dIdx int, id tree.NodeID) error {
	d := m.desktops[dIdx]
	wasFocused := m.focus.desktop == dIdx && m.focus.node == id

	promoted, err := d.Tree.Remove(id)
	if err != nil {
		return err
	}
	if !wasFocused {
		return nil
	}
	if promoted.IsNil() {
		m.clearFocus()
		return nil
	}
	if next := m.firstVisibleLeaf(d, promoted); !next.IsNil() {
		m.focus = focusRef{desktop: dIdx, node: next}
	} else {
		m.clearFocus()
	}
	return nil
}

// refocusAfterHide moves focus off a just-hidden leaf to any other visible
// leaf on its desktop.
func (m *Manager) refocusAfterHide(dIdx int, hidden tree.NodeID) {
	d := m.desktops[dIdx]
	for _, id := range d.Tree.Leaves() {
		if id == hidden {
			continue
		}
		if n, err := d.Tree.Get(id); err == nil && !n.Hidden {
			m.focus = focusRef{desktop: dIdx, node: id}
			return
		}
	}
	m.clearFocus()
}

// moveFocus handles the focus verb's direction forms: next/prev cycle the
// pre-order leaf sequence of the current desktop; the compass directions
// pick the nearest leaf rectangle in that direction.
func (m *Manager) moveFocus(dir proto.FocusDirection) error {
	d := m.CurrentDesktop()
	switch dir {
	case proto.FocusNext, proto.FocusPrev:
		return m.cycleFocus(d, dir == proto.FocusPrev)
	case proto.FocusNorth, proto.FocusSouth, proto.FocusEast, proto.FocusWest:
		return m.directionalFocus(d, dir)
	}
	return tree.ErrInvalidTarget
}

// cycleFocus walks the fixed pre-order traversal (first child before
// second), skipping hidden leaves, wrapping at the ends. This order is
// externally observable through the published client list.
func (m *Manager) cycleFocus(d *Desktop, backward bool) error {
	var visible []tree.NodeID
	for _, id := range d.Tree.Leaves() {
		if n, err := d.Tree.Get(id); err == nil && !n.Hidden {
			visible = append(visible, id)
		}
	}
	if len(visible) == 0 {
		return tree.ErrNotFound
	}

	cur := -1
	if m.focusValid() && m.focus.desktop == m.current {
		for i, id := range visible {
			if id == m.focus.node {
				cur = i
				break
			}
		}
	}

	var next int
	switch {
	case cur < 0:
		next = 0
	case backward:
		next = (cur - 1 + len(visible)) % len(visible)
	default:
		next = (cur + 1) % len(visible)
	}
	m.focus = focusRef{desktop: m.current, node: visible[next]}
	return nil
}

// directionalFocus picks the closest visible leaf whose rectangle lies in
// the given direction and overlaps the focused leaf on the cross axis.
func (m *Manager) directionalFocus(d *Desktop, dir proto.FocusDirection) error {
	if !m.focusValid() || m.focus.desktop != m.current {
		return tree.ErrNotFound
	}
	geoms := d.Tree.Layout(m.usableRect())

	var from winsys.Rect
	for _, g := range geoms {
		if g.Node == m.focus.node {
			from = g.Rect
			break
		}
	}

	best := tree.Nil
	bestDist := int(^uint(0) >> 1)
	for _, g := range geoms {
		if g.Node == m.focus.node || g.Hidden {
			continue
		}
		dist, ok := directionalDistance(from, g.Rect, dir)
		if ok && dist < bestDist {
			bestDist = dist
			best = g.Node
		}
	}
	if best.IsNil() {
		return tree.ErrNotFound
	}
	m.focus = focusRef{desktop: m.current, node: best}
	return nil
}

// directionalDistance returns the gap between rectangles along the
// direction's axis, requiring overlap on the other axis.
func directionalDistance(from, to winsys.Rect, dir proto.FocusDirection) (int, bool) {
	overlapsV := to.Y < from.Y+from.Height && to.Y+to.Height > from.Y
	overlapsH := to.X < from.X+from.Width && to.X+to.Width > from.X

	switch dir {
	case proto.FocusWest:
		if to.X+to.Width <= from.X && overlapsV {
			return from.X - (to.X + to.Width), true
		}
	case proto.FocusEast:
		if to.X >= from.X+from.Width && overlapsV {
			return to.X - (from.X + from.Width), true
		}
	case proto.FocusNorth:
		if to.Y+to.Height <= from.Y && overlapsH {
			return from.Y - (to.Y + to.Height), true
		}
	case proto.FocusSouth:
		if to.Y >= from.Y+from.Height && overlapsH {
			return to.Y - (from.Y + from.Height), true
		}
	}
	return 0, false
}
