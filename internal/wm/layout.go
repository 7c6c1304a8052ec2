package wm

import (
	"github.com/shoji-wm/shoji/internal/tree"
	"github.com/shoji-wm/shoji/internal/winsys"
)

// usableRect is the screen minus the configured padding.
func (m *Manager) usableRect() winsys.Rect {
	p := m.cfg.Padding
	r := winsys.Rect{
		X:      m.screen.X + p.Left,
		Y:      m.screen.Y + p.Top,
		Width:  m.screen.Width - p.Left - p.Right,
		Height: m.screen.Height - p.Top - p.Bottom,
	}
	if r.Width < 1 {
		r.Width = 1
	}
	if r.Height < 1 {
		r.Height = 1
	}
	return r
}

// commit pushes the authoritative state out: geometry to the window
// system, then a fresh snapshot to the publisher. Window-system errors are
// logged and skipped; the tree is never rolled back for a failed map.
func (m *Manager) commit() {
	m.applyLayout()
	m.publish()
}

// visibleOn reports whether a leaf shows on the current desktop: it must
// not be hidden, and must either live there or be sticky.
func visibleOn(n *tree.Node, onCurrent bool) bool {
	return !n.Hidden && (onCurrent || n.Sticky)
}

func (m *Manager) applyLayout() {
	usable := m.usableRect()
	gap := m.cfg.Gap

	var focusedWin winsys.WindowID
	if m.focusValid() {
		if n, err := m.desktops[m.focus.desktop].Tree.Get(m.focus.node); err == nil {
			focusedWin = n.Window
		}
	}

	for dIdx, d := range m.desktops {
		onCurrent := dIdx == m.current
		for _, g := range d.Tree.Layout(usable) {
			n, err := d.Tree.Get(g.Node)
			if err != nil {
				continue
			}
			if !visibleOn(n, onCurrent) {
				if err := m.ws.Unmap(g.Window); err != nil {
					m.logger.Warn("unmap", "window", g.Window, "err", err)
				}
				continue
			}
			if err := m.ws.MoveResize(g.Window, g.Rect.Shrink(gap)); err != nil {
				m.logger.Warn("move-resize", "window", g.Window, "err", err)
			}
			if err := m.ws.Map(g.Window); err != nil {
				m.logger.Warn("map", "window", g.Window, "err", err)
			}
		}
	}

	if focusedWin != 0 {
		if err := m.ws.Raise(focusedWin); err != nil {
			m.logger.Warn("raise", "window", focusedWin, "err", err)
		}
		if err := m.ws.SetInputFocus(focusedWin); err != nil {
			m.logger.Warn("set input focus", "window", focusedWin, "err", err)
		}
	}
}

// publish emits the hint snapshot: active window, the client list in
// pre-order across all desktops, the usable geometry and the desktop
// roster.
func (m *Manager) publish() {
	if m.pub == nil {
		return
	}
	snap := winsys.Snapshot{
		DesktopGeometry: m.usableRect(),
		CurrentDesktop:  m.current,
		BorderWidth:     m.cfg.Border.Width,
		BorderNormal:    m.cfg.Border.Normal,
		BorderFocused:   m.cfg.Border.Focused,
	}
	if m.focusValid() {
		if n, err := m.desktops[m.focus.desktop].Tree.Get(m.focus.node); err == nil {
			snap.ActiveWindow = n.Window
		}
	}
	for _, d := range m.desktops {
		snap.ClientList = append(snap.ClientList, d.Tree.Windows()...)
		snap.DesktopNames = append(snap.DesktopNames, d.Name)
	}
	m.pub.Publish(snap)
}
