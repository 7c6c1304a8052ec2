package wm

import (
	"fmt"
	"strconv"

	"github.com/shoji-wm/shoji/internal/proto"
	"github.com/shoji-wm/shoji/internal/tree"
)

// dispatch applies one parsed command. The verb set is closed: adding a
// verb without a case here fails to compile in proto's tests before it can
// fail silently at runtime.
func (m *Manager) dispatch(cmd proto.Command) proto.Reply {
	switch cmd.Verb {
	case proto.VerbSplit:
		return m.cmdSplit(cmd)
	case proto.VerbPreselect:
		return m.cmdPreselect(cmd)
	case proto.VerbCancel:
		return m.cmdCancel()
	case proto.VerbResize:
		return m.cmdResize(cmd)
	case proto.VerbRotate:
		return m.cmdRotate(cmd)
	case proto.VerbFocus:
		return m.cmdFocus(cmd)
	case proto.VerbRemove:
		return m.cmdRemove(cmd)
	case proto.VerbSwap:
		return m.cmdSwap(cmd)
	case proto.VerbHide:
		return m.cmdHide(cmd, true)
	case proto.VerbShow:
		return m.cmdHide(cmd, false)
	case proto.VerbSticky:
		return m.cmdSticky(cmd)
	case proto.VerbClose:
		return m.cmdClose(cmd)
	case proto.VerbKill:
		return m.cmdKill(cmd)
	case proto.VerbDesktop:
		return m.cmdDesktop(cmd)
	case proto.VerbConfig:
		return m.cmdConfig(cmd)
	case proto.VerbQuery:
		return m.cmdQuery(cmd)
	case proto.VerbQuit:
		m.cancel()
		return proto.Ok()
	}
	return proto.Fail(fmt.Errorf("%w: unhandled verb", proto.ErrMalformedCommand))
}

// resolveLeaf resolves a symbolic reference to a live leaf, returning its
// desktop index and node ID.
func (m *Manager) resolveLeaf(ref proto.Ref) (int, tree.NodeID, error) {
	switch ref.Kind {
	case proto.RefFocused:
		if !m.focusValid() {
			return 0, tree.Nil, tree.ErrNotFound
		}
		return m.focus.desktop, m.focus.node, nil
	case proto.RefParent:
		return 0, tree.Nil, tree.ErrInvalidTarget
	case proto.RefRoot:
		d := m.CurrentDesktop()
		if d.Tree.Empty() {
			return 0, tree.Nil, tree.ErrNotFound
		}
		root := d.Tree.Root()
		if n, err := d.Tree.Get(root); err == nil && n.Kind == tree.KindLeaf {
			return m.current, root, nil
		}
		return 0, tree.Nil, tree.ErrInvalidTarget
	case proto.RefWindow:
		dIdx, id := m.findWindow(ref.Window)
		if id.IsNil() {
			return 0, tree.Nil, tree.ErrNotFound
		}
		return dIdx, id, nil
	case proto.RefNode:
		dIdx, id, err := m.resolveNodeIndex(ref)
		if err != nil {
			return 0, tree.Nil, err
		}
		if n, gerr := m.desktops[dIdx].Tree.Get(id); gerr != nil || n.Kind != tree.KindLeaf {
			return 0, tree.Nil, tree.ErrInvalidTarget
		}
		return dIdx, id, nil
	}
	return 0, tree.Nil, tree.ErrNotFound
}

// resolveSplit resolves a symbolic reference to a live split node.
func (m *Manager) resolveSplit(ref proto.Ref) (int, tree.NodeID, error) {
	switch ref.Kind {
	case proto.RefFocused, proto.RefParent:
		// Either way the only sensible split here is the parent of the
		// focused leaf.
		if !m.focusValid() {
			return 0, tree.Nil, tree.ErrNotFound
		}
		d := m.desktops[m.focus.desktop]
		parent, err := d.Tree.ParentSplit(m.focus.node)
		if err != nil {
			return 0, tree.Nil, err
		}
		if parent.IsNil() {
			return 0, tree.Nil, tree.ErrInvalidTarget
		}
		return m.focus.desktop, parent, nil
	case proto.RefRoot:
		d := m.CurrentDesktop()
		if d.Tree.Empty() {
			return 0, tree.Nil, tree.ErrNotFound
		}
		root := d.Tree.Root()
		if n, err := d.Tree.Get(root); err == nil && n.Kind == tree.KindSplit {
			return m.current, root, nil
		}
		return 0, tree.Nil, tree.ErrInvalidTarget
	case proto.RefWindow:
		dIdx, id := m.findWindow(ref.Window)
		if id.IsNil() {
			return 0, tree.Nil, tree.ErrNotFound
		}
		parent, err := m.desktops[dIdx].Tree.ParentSplit(id)
		if err != nil {
			return 0, tree.Nil, err
		}
		if parent.IsNil() {
			return 0, tree.Nil, tree.ErrInvalidTarget
		}
		return dIdx, parent, nil
	case proto.RefNode:
		dIdx, id, err := m.resolveNodeIndex(ref)
		if err != nil {
			return 0, tree.Nil, err
		}
		if n, gerr := m.desktops[dIdx].Tree.Get(id); gerr != nil || n.Kind != tree.KindSplit {
			return 0, tree.Nil, tree.ErrInvalidTarget
		}
		return dIdx, id, nil
	}
	return 0, tree.Nil, tree.ErrNotFound
}

// resolveNodeIndex scopes an @index reference to one desktop: the named
// one, or the current one for the bare form. Arena indexes repeat across
// desktops, so a tree-wide scan would bind the wrong node.
func (m *Manager) resolveNodeIndex(ref proto.Ref) (int, tree.NodeID, error) {
	dIdx := m.current
	if ref.Desktop > 0 {
		if ref.Desktop > len(m.desktops) {
			return 0, tree.Nil, tree.ErrNotFound
		}
		dIdx = ref.Desktop - 1
	}
	for _, id := range m.desktops[dIdx].Tree.Nodes() {
		if id.Index() == ref.Node {
			return dIdx, id, nil
		}
	}
	return 0, tree.Nil, tree.ErrNotFound
}

// cmdSplit sets the default insertion policy applied to windows that
// arrive with no preselection armed.
func (m *Manager) cmdSplit(cmd proto.Command) proto.Reply {
	m.cfg.Split.Direction = cmd.Dir.String()
	m.cfg.Split.Ratio = cmd.Ratio
	return proto.Ok()
}

func (m *Manager) cmdPreselect(cmd proto.Command) proto.Reply {
	if !m.focusValid() {
		return proto.Fail(tree.ErrNotFound)
	}
	d := m.desktops[m.focus.desktop]
	ps := tree.Preselect{Dir: cmd.Dir, Ratio: cmd.Ratio, Slot: cmd.Slot}
	if err := d.Tree.SetPreselect(m.focus.node, ps); err != nil {
		return proto.Fail(err)
	}
	return proto.Ok()
}

func (m *Manager) cmdCancel() proto.Reply {
	if m.focusValid() {
		d := m.desktops[m.focus.desktop]
		_ = d.Tree.ClearPreselect(m.focus.node)
	}
	return proto.Ok()
}

func (m *Manager) cmdResize(cmd proto.Command) proto.Reply {
	dIdx, id, err := m.resolveSplit(cmd.Ref)
	if err != nil {
		return proto.Fail(err)
	}
	if err := m.desktops[dIdx].Tree.ResizeSplit(id, cmd.Delta); err != nil {
		return proto.Fail(err)
	}
	m.commit()
	return proto.Ok()
}

func (m *Manager) cmdRotate(cmd proto.Command) proto.Reply {
	dIdx, id, err := m.resolveSplit(cmd.Ref)
	if err != nil {
		return proto.Fail(err)
	}
	if err := m.desktops[dIdx].Tree.Rotate(id); err != nil {
		return proto.Fail(err)
	}
	m.commit()
	return proto.Ok()
}

func (m *Manager) cmdFocus(cmd proto.Command) proto.Reply {
	if cmd.Focus.Dir != proto.FocusNone {
		if err := m.moveFocus(cmd.Focus.Dir); err != nil {
			return proto.Fail(err)
		}
		m.commit()
		return proto.Ok()
	}

	dIdx, id, err := m.resolveLeaf(cmd.Focus.Ref)
	if err != nil {
		return proto.Fail(err)
	}
	if err := m.setFocus(dIdx, id); err != nil {
		return proto.Fail(err)
	}
	m.commit()
	return proto.Ok()
}

func (m *Manager) cmdRemove(cmd proto.Command) proto.Reply {
	dIdx, id, err := m.resolveLeaf(cmd.Ref)
	if err != nil {
		return proto.Fail(err)
	}
	d := m.desktops[dIdx]
	n, err := d.Tree.Get(id)
	if err != nil {
		return proto.Fail(err)
	}
	win := n.Window
	if err := m.removeLeaf(dIdx, id); err != nil {
		return proto.Fail(err)
	}
	if uerr := m.ws.Unmap(win); uerr != nil {
		m.logger.Warn("unmap removed window", "window", win, "err", uerr)
	}
	m.commit()
	return proto.Ok()
}

func (m *Manager) cmdSwap(cmd proto.Command) proto.Reply {
	dA, a, err := m.resolveLeaf(cmd.Ref)
	if err != nil {
		return proto.Fail(err)
	}
	dB, b, err := m.resolveLeaf(cmd.Ref2)
	if err != nil {
		return proto.Fail(err)
	}
	if dA != dB {
		return proto.Fail(tree.ErrInvalidTarget)
	}
	if err := m.desktops[dA].Tree.SwapWindows(a, b); err != nil {
		return proto.Fail(err)
	}
	m.commit()
	return proto.Ok()
}

func (m *Manager) cmdHide(cmd proto.Command, hidden bool) proto.Reply {
	dIdx, id, err := m.resolveLeaf(cmd.Ref)
	if err != nil {
		return proto.Fail(err)
	}
	d := m.desktops[dIdx]
	if err := d.Tree.SetHidden(id, hidden); err != nil {
		return proto.Fail(err)
	}
	// Focus never rests on a hidden leaf.
	if hidden && m.focus.desktop == dIdx && m.focus.node == id {
		m.refocusAfterHide(dIdx, id)
	}
	m.commit()
	return proto.Ok()
}

func (m *Manager) cmdSticky(cmd proto.Command) proto.Reply {
	dIdx, id, err := m.resolveLeaf(cmd.Ref)
	if err != nil {
		return proto.Fail(err)
	}
	d := m.desktops[dIdx]
	n, err := d.Tree.Get(id)
	if err != nil {
		return proto.Fail(err)
	}
	if err := d.Tree.SetSticky(id, !n.Sticky); err != nil {
		return proto.Fail(err)
	}
	m.commit()
	return proto.Ok()
}

func (m *Manager) cmdClose(cmd proto.Command) proto.Reply {
	dIdx, id, err := m.resolveLeaf(cmd.Ref)
	if err != nil {
		return proto.Fail(err)
	}
	n, err := m.desktops[dIdx].Tree.Get(id)
	if err != nil {
		return proto.Fail(err)
	}
	// The tree only changes when the window system reports the window
	// gone.
	if cerr := m.ws.Close(n.Window); cerr != nil {
		m.logger.Warn("close window", "window", n.Window, "err", cerr)
	}
	return proto.Ok()
}

// cmdKill is the forceful variant of close: the client is severed instead
// of asked. Like close, the tree waits for the disappearance event.
func (m *Manager) cmdKill(cmd proto.Command) proto.Reply {
	dIdx, id, err := m.resolveLeaf(cmd.Ref)
	if err != nil {
		return proto.Fail(err)
	}
	n, err := m.desktops[dIdx].Tree.Get(id)
	if err != nil {
		return proto.Fail(err)
	}
	if kerr := m.ws.Kill(n.Window); kerr != nil {
		m.logger.Warn("kill window", "window", n.Window, "err", kerr)
	}
	return proto.Ok()
}

func (m *Manager) cmdDesktop(cmd proto.Command) proto.Reply {
	target := -1
	if idx, err := strconv.Atoi(cmd.Arg); err == nil {
		if idx >= 1 && idx <= len(m.desktops) {
			target = idx - 1
		}
	} else {
		for i, d := range m.desktops {
			if d.Name == cmd.Arg {
				target = i
				break
			}
		}
	}
	if target < 0 {
		return proto.Fail(tree.ErrNotFound)
	}
	m.switchDesktop(target)
	m.commit()
	return proto.Ok()
}

func (m *Manager) cmdConfig(cmd proto.Command) proto.Reply {
	if err := m.applyConfigKey(cmd.Arg, cmd.Value); err != nil {
		return proto.Fail(err)
	}
	m.commit()
	return proto.Ok()
}

func (m *Manager) applyConfigKey(key, value string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: bad value %q for %s", proto.ErrMalformedCommand, value, key)
		}
		return n, nil
	}

	switch key {
	case "gap":
		n, err := atoi()
		if err != nil {
			return err
		}
		m.cfg.Gap = n
	case "padding.top":
		n, err := atoi()
		if err != nil {
			return err
		}
		m.cfg.Padding.Top = n
	case "padding.bottom":
		n, err := atoi()
		if err != nil {
			return err
		}
		m.cfg.Padding.Bottom = n
	case "padding.left":
		n, err := atoi()
		if err != nil {
			return err
		}
		m.cfg.Padding.Left = n
	case "padding.right":
		n, err := atoi()
		if err != nil {
			return err
		}
		m.cfg.Padding.Right = n
	case "border.width":
		n, err := atoi()
		if err != nil {
			return err
		}
		m.cfg.Border.Width = n
	case "border.normal":
		m.cfg.Border.Normal = value
	case "border.focused":
		m.cfg.Border.Focused = value
	case "split.ratio":
		r, err := strconv.ParseFloat(value, 64)
		if err != nil || r <= 0 || r >= 1 {
			return fmt.Errorf("%w: bad value %q for %s", proto.ErrMalformedCommand, value, key)
		}
		m.cfg.Split.Ratio = r
	case "split.direction":
		switch value {
		case "auto", "horizontal", "vertical":
			m.cfg.Split.Direction = value
		default:
			return fmt.Errorf("%w: bad value %q for %s", proto.ErrMalformedCommand, value, key)
		}
	case "split.slot":
		switch value {
		case "first", "second":
			m.cfg.Split.Slot = value
		default:
			return fmt.Errorf("%w: bad value %q for %s", proto.ErrMalformedCommand, value, key)
		}
	default:
		return fmt.Errorf("%w: unknown config key %q", proto.ErrMalformedCommand, key)
	}
	return nil
}
