package wm

import (
	"github.com/shoji-wm/shoji/internal/tree"
	"github.com/shoji-wm/shoji/internal/winsys"
)

// windowAppeared tiles a new window on the current desktop. The insertion
// target is the focused leaf when one exists, otherwise the first leaf in
// pre-order, otherwise the empty tree. A preselection on the target wins
// over the configured defaults; with "auto" direction the target's longer
// axis decides.
func (m *Manager) windowAppeared(win winsys.WindowID) {
	if dIdx, _ := m.findWindow(win); dIdx >= 0 {
		m.logger.Warn("window appeared twice", "window", win)
		return
	}

	d := m.CurrentDesktop()
	target := tree.Nil
	if m.focusValid() && m.focus.desktop == m.current {
		target = m.focus.node
	} else if !d.Tree.Empty() {
		target = d.Tree.FirstLeaf(d.Tree.Root())
	}

	ins, auto := m.cfg.InsertDefaults()
	if auto {
		ins.Dir = tree.AutoDirection(m.targetRect(d, target))
	}

	id, err := d.Tree.InsertWindow(target, win, ins)
	if err != nil {
		m.logger.Error("insert window", "window", win, "err", err)
		return
	}
	m.focus = focusRef{desktop: m.current, node: id}
	m.logger.Info("window managed", "window", win, "desktop", d.Name)
	m.commit()
}

// targetRect is the rectangle the target leaf currently occupies, used to
// pick the auto split direction. An empty tree splits the whole desktop.
func (m *Manager) targetRect(d *Desktop, target tree.NodeID) winsys.Rect {
	usable := m.usableRect()
	if target.IsNil() {
		return usable
	}
	r, err := d.Tree.RectOf(target, usable)
	if err != nil {
		return usable
	}
	return r
}

func (m *Manager) windowDisappeared(win winsys.WindowID) {
	dIdx, id := m.findWindow(win)
	if id.IsNil() {
		return
	}
	if err := m.removeLeaf(dIdx, id); err != nil {
		m.logger.Error("remove vanished window", "window", win, "err", err)
		return
	}
	m.logger.Info("window unmanaged", "window", win)
	m.commit()
}

// windowRequestedResize honours a client resize hint by adjusting the
// parent split's ratio so the leaf's span along the split axis approaches
// the requested size. Requests that would push the ratio out of bounds are
// dropped.
func (m *Manager) windowRequestedResize(win winsys.WindowID, want winsys.Rect) {
	dIdx, id := m.findWindow(win)
	if id.IsNil() {
		return
	}
	d := m.desktops[dIdx]

	parentID, err := d.Tree.ParentSplit(id)
	if err != nil || parentID.IsNil() {
		return
	}
	parent, err := d.Tree.Get(parentID)
	if err != nil {
		return
	}
	dir := parent.Dir
	isFirst := parent.First == id

	parentRect, err := d.Tree.RectOf(parentID, m.usableRect())
	if err != nil {
		return
	}

	var extent, wanted int
	if dir == tree.Vertical {
		extent, wanted = parentRect.Width, want.Width
	} else {
		extent, wanted = parentRect.Height, want.Height
	}
	if extent <= 0 || wanted <= 0 {
		return
	}

	ratio := float64(wanted) / float64(extent)
	if !isFirst {
		ratio = 1 - ratio
	}
	if err := d.Tree.SetRatio(parentID, ratio); err != nil {
		m.logger.Debug("resize request dropped", "window", win, "err", err)
		return
	}
	m.commit()
}
