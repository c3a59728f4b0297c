// Package boxtree defines the read-only linearised 2^d-tree that the query
// builders operate on.
//
// A tree is a flat set of parallel arrays indexed by box id. Box 0 is the
// root. The child table is stored column-major with a padded stride
// (AlignedNBoxes) so that ChildID(morton, box) is a single indexed load, the
// layout the tree producer emits. The query packages never mutate a tree;
// concurrent readers may share one freely.
package boxtree

import (
	"fmt"
	"math"

	"github.com/boxquery/pkg/geometry"
)

// BoxFlags is the per-box flag bitmask.
type BoxFlags uint8

const (
	// FlagHasChildren marks an internal (non-leaf) box.
	FlagHasChildren BoxFlags = 1 << 0
)

// Tree is a pre-built, linearised 2^d-tree whose leaf boxes tile the root box.
type Tree struct {
	// Dimensions is the spatial dimension d; children come in groups of 2^d.
	Dimensions int `json:"dimensions"`

	// NLevels is the number of levels in the tree; a root-only tree has 1.
	NLevels int `json:"nlevels"`

	// RootExtent is the side length of the level-0 box.
	RootExtent float64 `json:"root_extent"`

	// BBoxMin is the minimum corner of the root box, one entry per axis.
	BBoxMin []float64 `json:"bbox_min"`

	// Centers holds box center coordinates per axis: Centers[axis][box].
	Centers [][]float64 `json:"centers"`

	// Levels holds the level of each box; the root is level 0.
	Levels []uint8 `json:"levels"`

	// Flags holds the per-box flag bitmask.
	Flags []BoxFlags `json:"flags"`

	// ChildIDs is the child table, indexed as morton*AlignedNBoxes + box.
	// A value of 0 means "no such child"; box 0 is never anyone's child.
	ChildIDs []int32 `json:"child_ids"`

	// AlignedNBoxes is the padded stride of the child table. It is at least
	// the number of boxes.
	AlignedNBoxes int32 `json:"aligned_nboxes"`
}

// NBoxes returns the number of boxes in the tree.
func (t *Tree) NBoxes() int32 {
	return int32(len(t.Levels))
}

// NChildren returns 2^d, the size of one child group.
func (t *Tree) NChildren() int {
	return 1 << t.Dimensions
}

// ChildID returns the id of the child of box at the given morton slot, or 0
// if no such child exists.
func (t *Tree) ChildID(morton int, box int32) int32 {
	return t.ChildIDs[int32(morton)*t.AlignedNBoxes+box]
}

// IsLeaf reports whether the box has no children.
func (t *Tree) IsLeaf(box int32) bool {
	return t.Flags[box]&FlagHasChildren == 0
}

// Level returns the level of the box as an int.
func (t *Tree) Level(box int32) int {
	return int(t.Levels[box])
}

// LoadCenter appends the center coordinates of the box to dst and returns the
// extended slice. Passing a stack-backed dst avoids allocation in hot loops.
func (t *Tree) LoadCenter(dst []float64, box int32) []float64 {
	for ax := 0; ax < t.Dimensions; ax++ {
		dst = append(dst, t.Centers[ax][box])
	}
	return dst
}

// Radius returns the half side length of the box.
func (t *Tree) Radius(box int32) float64 {
	return geometry.LevelToRad(t.RootExtent, t.Level(box))
}

// Validate checks the structural invariants of the tree. A tree that fails
// validation must not be passed to the query builders; indexing into a
// malformed child table is not recoverable.
func (t *Tree) Validate() error {
	if t.Dimensions < 1 || t.Dimensions > geometry.MaxDims {
		return fmt.Errorf("dimensions must be in [1, %d], got %d", geometry.MaxDims, t.Dimensions)
	}
	nboxes := len(t.Levels)
	if nboxes == 0 {
		return fmt.Errorf("tree has no boxes")
	}
	if t.NLevels < 1 {
		return fmt.Errorf("nlevels must be at least 1, got %d", t.NLevels)
	}
	if !(t.RootExtent > 0) || math.IsInf(t.RootExtent, 0) {
		return fmt.Errorf("root extent must be positive and finite, got %v", t.RootExtent)
	}
	if len(t.BBoxMin) != t.Dimensions {
		return fmt.Errorf("bbox_min has %d entries, want %d", len(t.BBoxMin), t.Dimensions)
	}
	if len(t.Centers) != t.Dimensions {
		return fmt.Errorf("centers has %d axes, want %d", len(t.Centers), t.Dimensions)
	}
	for ax, c := range t.Centers {
		if len(c) != nboxes {
			return fmt.Errorf("centers axis %d has %d entries, want %d", ax, len(c), nboxes)
		}
	}
	if len(t.Flags) != nboxes {
		return fmt.Errorf("flags has %d entries, want %d", len(t.Flags), nboxes)
	}
	if t.AlignedNBoxes < int32(nboxes) {
		return fmt.Errorf("aligned_nboxes %d is smaller than nboxes %d", t.AlignedNBoxes, nboxes)
	}
	if want := int(t.AlignedNBoxes) * t.NChildren(); len(t.ChildIDs) != want {
		return fmt.Errorf("child table has %d entries, want %d", len(t.ChildIDs), want)
	}
	for box := int32(0); box < int32(nboxes); box++ {
		level := t.Level(box)
		if level >= t.NLevels {
			return fmt.Errorf("box %d has level %d, beyond nlevels %d", box, level, t.NLevels)
		}
		for m := 0; m < t.NChildren(); m++ {
			child := t.ChildID(m, box)
			if child == 0 {
				continue
			}
			if t.IsLeaf(box) {
				return fmt.Errorf("leaf box %d has child %d", box, child)
			}
			if child < 0 || child >= int32(nboxes) {
				return fmt.Errorf("box %d has out-of-range child %d", box, child)
			}
			if t.Level(child) != level+1 {
				return fmt.Errorf("child %d of box %d has level %d, want %d",
					child, box, t.Level(child), level+1)
			}
		}
	}
	return nil
}
