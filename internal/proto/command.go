// Package proto defines the control-socket command grammar and wire
// replies. The protocol is newline-delimited UTF-8: one command per line,
// one reply per command. A reply is zero or more payload lines followed by
// a terminator line that is either "OK" or "ERR <reason>"; clients read
// until the terminator. Commands may be pipelined and are answered strictly
// in arrival order.
package proto

import (
	"github.com/shoji-wm/shoji/internal/tree"
	"github.com/shoji-wm/shoji/internal/winsys"
)

// Verb is one of the fixed command verbs. The dispatch over verbs is a
// closed switch so an unhandled verb is a compile-time smell, not a silent
// runtime gap.
type Verb uint8

const (
	VerbNone Verb = iota
	VerbSplit
	VerbPreselect
	VerbCancel
	VerbResize
	VerbRotate
	VerbFocus
	VerbRemove
	VerbSwap
	VerbHide
	VerbShow
	VerbSticky
	VerbClose
	VerbKill
	VerbDesktop
	VerbConfig
	VerbQuery
	VerbQuit
)

var verbNames = map[Verb]string{
	VerbSplit:     "split",
	VerbPreselect: "preselect",
	VerbCancel:    "cancel",
	VerbResize:    "resize",
	VerbRotate:    "rotate",
	VerbFocus:     "focus",
	VerbRemove:    "remove",
	VerbSwap:      "swap",
	VerbHide:      "hide",
	VerbShow:      "show",
	VerbSticky:    "sticky",
	VerbClose:     "close",
	VerbKill:      "kill",
	VerbDesktop:   "desktop",
	VerbConfig:    "config",
	VerbQuery:     "query",
	VerbQuit:      "quit",
}

func (v Verb) String() string {
	if s, ok := verbNames[v]; ok {
		return s
	}
	return "none"
}

// RefKind discriminates symbolic node references. References resolve
// against tree state at the instant the command executes, never earlier.
type RefKind uint8

const (
	RefNone RefKind = iota
	// RefFocused is the currently focused leaf.
	RefFocused
	// RefParent is the parent split of the focused leaf.
	RefParent
	// RefRoot is the root node of the focused desktop.
	RefRoot
	// RefWindow names a leaf by its window handle.
	RefWindow
	// RefNode names a node by its arena index, as printed by query tree.
	RefNode
)

// Ref is a symbolic node reference. Node references come in two spellings:
// `@<index>` binds on the current desktop, `@<desktop>.<index>` names the
// desktop explicitly (1-based, as query tree prints it). Arena indexes are
// per-desktop, so the bare form alone would be ambiguous across desktops.
type Ref struct {
	Kind    RefKind
	Window  winsys.WindowID // RefWindow
	Node    uint32          // RefNode
	Desktop int             // RefNode: 1-based, 0 means the current desktop
}

// FocusTarget is the argument of the focus verb: either a node reference
// or a movement.
type FocusTarget struct {
	Ref Ref
	Dir FocusDirection
}

// FocusDirection is a focus movement: a cycling step or a geometric
// direction.
type FocusDirection uint8

const (
	FocusNone FocusDirection = iota
	FocusNext
	FocusPrev
	FocusNorth
	FocusSouth
	FocusEast
	FocusWest
)

var focusNames = map[FocusDirection]string{
	FocusNext:  "next",
	FocusPrev:  "prev",
	FocusNorth: "north",
	FocusSouth: "south",
	FocusEast:  "east",
	FocusWest:  "west",
}

func (d FocusDirection) String() string {
	if s, ok := focusNames[d]; ok {
		return s
	}
	return "none"
}

// Command is one parsed control command. Which fields are meaningful
// depends on Verb.
type Command struct {
	Verb Verb

	// split / preselect
	Dir   tree.Direction
	Ratio float64
	Slot  tree.Slot

	// resize
	Delta float64

	// node-addressed verbs
	Ref  Ref
	Ref2 Ref // swap's second operand

	// focus
	Focus FocusTarget

	// desktop / config / query
	Arg   string
	Value string
}
