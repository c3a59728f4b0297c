package query

import "errors"

var (
	// ErrShapeMismatch is returned when ball arrays disagree with each other
	// or with the tree's dimensionality.
	ErrShapeMismatch = errors.New("ball array shape mismatch")

	// ErrPeerListSize is returned when a supplied peer list lookup does not
	// match the tree's box count.
	ErrPeerListSize = errors.New("size of peer lists must match with number of boxes")

	// ErrCorruptTree is returned when tree validation fails before a query.
	ErrCorruptTree = errors.New("corrupt tree")
)
