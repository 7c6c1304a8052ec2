package wm

import (
	"fmt"
	"strings"

	"github.com/shoji-wm/shoji/internal/proto"
	"github.com/shoji-wm/shoji/internal/tree"
)

// cmdQuery renders read-only views of the state. Output is line-oriented
// so clients can stream it straight through the reply framing.
func (m *Manager) cmdQuery(cmd proto.Command) proto.Reply {
	switch cmd.Arg {
	case "tree":
		return proto.Ok(m.renderTree()...)
	case "desktops":
		return proto.Ok(m.renderDesktops()...)
	case "focus":
		return proto.Ok(m.renderFocus()...)
	}
	return proto.Fail(fmt.Errorf("%w: unknown query %q", proto.ErrMalformedCommand, cmd.Arg))
}

func (m *Manager) renderTree() []string {
	var lines []string
	for i, d := range m.desktops {
		marker := " "
		if i == m.current {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf("%s desktop %d %s", marker, i+1, d.Name))
		if d.Tree.Empty() {
			lines = append(lines, "  (empty)")
			continue
		}
		lines = m.renderSubtree(lines, i, d.Tree.Root(), 1)
	}
	return lines
}

// renderSubtree prints node references in the desktop-qualified @d.i form.
// Arena indexes repeat across desktops, so the bare index alone would be
// ambiguous in a multi-desktop dump.
func (m *Manager) renderSubtree(lines []string, dIdx int, id tree.NodeID, depth int) []string {
	d := m.desktops[dIdx]
	n, err := d.Tree.Get(id)
	if err != nil {
		return lines
	}
	indent := strings.Repeat("  ", depth)

	if n.Kind == tree.KindSplit {
		lines = append(lines, fmt.Sprintf("%ssplit@%d.%d %s %.2f", indent, dIdx+1, id.Index(), n.Dir, n.Ratio))
		lines = m.renderSubtree(lines, dIdx, n.First, depth+1)
		return m.renderSubtree(lines, dIdx, n.Second, depth+1)
	}

	var tags []string
	if m.focusValid() && m.focus.desktop == dIdx && m.focus.node == id {
		tags = append(tags, "focused")
	}
	if n.Hidden {
		tags = append(tags, "hidden")
	}
	if n.Sticky {
		tags = append(tags, "sticky")
	}
	if n.Preselect != nil {
		tags = append(tags, fmt.Sprintf("preselect %s %.2f %s", n.Preselect.Dir, n.Preselect.Ratio, n.Preselect.Slot))
	}
	line := fmt.Sprintf("%sleaf@%d.%d 0x%08X", indent, dIdx+1, id.Index(), uint32(n.Window))
	if len(tags) > 0 {
		line += " [" + strings.Join(tags, ", ") + "]"
	}
	return append(lines, line)
}

func (m *Manager) renderDesktops() []string {
	lines := make([]string, 0, len(m.desktops))
	for i, d := range m.desktops {
		marker := " "
		if i == m.current {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf("%s %d %s windows=%d", marker, i+1, d.Name, len(d.Tree.Windows())))
	}
	return lines
}

func (m *Manager) renderFocus() []string {
	lines := []string{"mode " + m.focusMode().String()}
	if !m.focusValid() {
		return append(lines, "focus none")
	}
	d := m.desktops[m.focus.desktop]
	n, err := d.Tree.Get(m.focus.node)
	if err != nil {
		return append(lines, "focus none")
	}
	lines = append(lines, fmt.Sprintf("focus leaf@%d.%d 0x%08X desktop %d",
		m.focus.desktop+1, m.focus.node.Index(), uint32(n.Window), m.focus.desktop+1))
	return lines
}
