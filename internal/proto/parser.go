package proto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shoji-wm/shoji/internal/tree"
	"github.com/shoji-wm/shoji/internal/winsys"
)

// ErrMalformedCommand reports a grammar or argument failure. The wrapped
// message carries the reason sent back to the client.
var ErrMalformedCommand = errors.New("malformed command")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedCommand, fmt.Sprintf(format, args...))
}

// Parse turns one command line into a Command. Parsing is purely
// syntactic; symbolic references are resolved later, against live tree
// state, by the interpreter.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, malformed("empty command")
	}

	verb, rest := fields[0], fields[1:]
	switch verb {
	case "split":
		return parseSplit(rest)
	case "preselect":
		return parsePreselect(rest)
	case "cancel":
		return expectNone(VerbCancel, rest)
	case "resize":
		return parseResize(rest)
	case "rotate":
		return parseSingleRef(VerbRotate, rest)
	case "focus":
		return parseFocus(rest)
	case "remove":
		return parseSingleRef(VerbRemove, rest)
	case "swap":
		return parseSwap(rest)
	case "hide":
		return parseSingleRef(VerbHide, rest)
	case "show":
		return parseSingleRef(VerbShow, rest)
	case "sticky":
		return parseSingleRef(VerbSticky, rest)
	case "close":
		return parseSingleRef(VerbClose, rest)
	case "kill":
		return parseSingleRef(VerbKill, rest)
	case "desktop":
		if len(rest) != 1 {
			return Command{}, malformed("desktop expects one argument")
		}
		return Command{Verb: VerbDesktop, Arg: rest[0]}, nil
	case "config":
		if len(rest) != 2 {
			return Command{}, malformed("config expects <key> <value>")
		}
		return Command{Verb: VerbConfig, Arg: rest[0], Value: rest[1]}, nil
	case "query":
		if len(rest) != 1 {
			return Command{}, malformed("query expects one of tree|desktops|focus")
		}
		switch rest[0] {
		case "tree", "desktops", "focus":
			return Command{Verb: VerbQuery, Arg: rest[0]}, nil
		}
		return Command{}, malformed("unknown query %q", rest[0])
	case "quit":
		return expectNone(VerbQuit, rest)
	}
	return Command{}, malformed("unknown verb %q", verb)
}

func expectNone(v Verb, rest []string) (Command, error) {
	if len(rest) != 0 {
		return Command{}, malformed("%s takes no arguments", v)
	}
	return Command{Verb: v}, nil
}

func parseSplit(rest []string) (Command, error) {
	if len(rest) != 2 {
		return Command{}, malformed("split expects <dir> <ratio>")
	}
	dir, err := parseDirection(rest[0])
	if err != nil {
		return Command{}, err
	}
	ratio, err := parseRatio(rest[1])
	if err != nil {
		return Command{}, err
	}
	return Command{Verb: VerbSplit, Dir: dir, Ratio: ratio}, nil
}

func parsePreselect(rest []string) (Command, error) {
	if len(rest) != 3 {
		return Command{}, malformed("preselect expects <dir> <ratio> <slot>")
	}
	dir, err := parseDirection(rest[0])
	if err != nil {
		return Command{}, err
	}
	ratio, err := parseRatio(rest[1])
	if err != nil {
		return Command{}, err
	}
	slot, err := parseSlot(rest[2])
	if err != nil {
		return Command{}, err
	}
	return Command{Verb: VerbPreselect, Dir: dir, Ratio: ratio, Slot: slot}, nil
}

func parseResize(rest []string) (Command, error) {
	if len(rest) != 2 {
		return Command{}, malformed("resize expects <split-ref> <delta>")
	}
	ref, err := parseRef(rest[0])
	if err != nil {
		return Command{}, err
	}
	delta, err := strconv.ParseFloat(rest[1], 64)
	if err != nil {
		return Command{}, malformed("bad delta %q", rest[1])
	}
	return Command{Verb: VerbResize, Ref: ref, Delta: delta}, nil
}

func parseSingleRef(v Verb, rest []string) (Command, error) {
	if len(rest) != 1 {
		return Command{}, malformed("%s expects one node reference", v)
	}
	ref, err := parseRef(rest[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Verb: v, Ref: ref}, nil
}

func parseSwap(rest []string) (Command, error) {
	if len(rest) != 2 {
		return Command{}, malformed("swap expects two leaf references")
	}
	a, err := parseRef(rest[0])
	if err != nil {
		return Command{}, err
	}
	b, err := parseRef(rest[1])
	if err != nil {
		return Command{}, err
	}
	return Command{Verb: VerbSwap, Ref: a, Ref2: b}, nil
}

func parseFocus(rest []string) (Command, error) {
	if len(rest) != 1 {
		return Command{}, malformed("focus expects a leaf reference or direction")
	}
	if dir, ok := parseFocusDirection(rest[0]); ok {
		return Command{Verb: VerbFocus, Focus: FocusTarget{Dir: dir}}, nil
	}
	ref, err := parseRef(rest[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Verb: VerbFocus, Focus: FocusTarget{Ref: ref}}, nil
}

func parseDirection(s string) (tree.Direction, error) {
	switch s {
	case "horizontal", "h":
		return tree.Horizontal, nil
	case "vertical", "v":
		return tree.Vertical, nil
	}
	return 0, malformed("bad direction %q", s)
}

func parseSlot(s string) (tree.Slot, error) {
	switch s {
	case "first":
		return tree.SlotFirst, nil
	case "second":
		return tree.SlotSecond, nil
	}
	return 0, malformed("bad slot %q", s)
}

func parseRatio(s string) (float64, error) {
	r, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, malformed("bad ratio %q", s)
	}
	if r <= 0 || r >= 1 {
		return 0, malformed("ratio %v outside (0,1)", r)
	}
	return r, nil
}

func parseFocusDirection(s string) (FocusDirection, bool) {
	switch s {
	case "next":
		return FocusNext, true
	case "prev":
		return FocusPrev, true
	case "north":
		return FocusNorth, true
	case "south":
		return FocusSouth, true
	case "east":
		return FocusEast, true
	case "west":
		return FocusWest, true
	}
	return FocusNone, false
}

// parseRef accepts: focused | parent | root | @<node-index> |
// @<desktop>.<node-index> | 0x<hex window id> | <decimal window id>.
func parseRef(s string) (Ref, error) {
	switch s {
	case "focused":
		return Ref{Kind: RefFocused}, nil
	case "parent":
		return Ref{Kind: RefParent}, nil
	case "root":
		return Ref{Kind: RefRoot}, nil
	}
	if idx, ok := strings.CutPrefix(s, "@"); ok {
		desk := 0
		if d, rest, found := strings.Cut(idx, "."); found {
			dn, err := strconv.ParseUint(d, 10, 32)
			if err != nil || dn == 0 {
				return Ref{}, malformed("bad node reference %q", s)
			}
			desk = int(dn)
			idx = rest
		}
		n, err := strconv.ParseUint(idx, 10, 32)
		if err != nil {
			return Ref{}, malformed("bad node reference %q", s)
		}
		return Ref{Kind: RefNode, Node: uint32(n), Desktop: desk}, nil
	}
	base := 10
	digits := s
	if hex, ok := strings.CutPrefix(s, "0x"); ok {
		base = 16
		digits = hex
	}
	w, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		return Ref{}, malformed("bad reference %q", s)
	}
	return Ref{Kind: RefWindow, Window: winsys.WindowID(w)}, nil
}
