package tree

import "errors"

// Taxonomy of recoverable engine errors. Every operation either fully
// succeeds or returns one of these and leaves the tree untouched.
var (
	// ErrNotFound means a node reference does not resolve to a live node.
	ErrNotFound = errors.New("node not found")
	// ErrInvalidTarget means the operation's target exists but is not
	// eligible, for example rotating a leaf or inserting at a split.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrSameLeaf means a swap named the same leaf twice.
	ErrSameLeaf = errors.New("same leaf")
	// ErrGeometryDegenerate means a resize would push a split ratio out of
	// its bounds and produce a zero-area region. The ratio is left
	// unchanged so the caller can react.
	ErrGeometryDegenerate = errors.New("geometry degenerate")
)
