package query

import (
	"github.com/boxquery/pkg/boxtree"
	"github.com/boxquery/pkg/geometry"
)

// ============================================================================
// Guided Descent
// ============================================================================

// guidingBox locates the guiding box of an l-infinity ball: the deepest box
// containing the ball center whose half side still bounds the radius from
// above. Every leaf the ball overlaps is then a descendant of one of the
// guiding box's peers, which is what lets the ball queries skip the rest of
// the tree.
func guidingBox(t *boxtree.Tree, center []float64, radius float64) int32 {
	box := int32(0)

	// A ball wider than half the root is guided by the root itself.
	if geometry.LevelToRad(t.RootExtent, 0)/2 < radius {
		return box
	}

	for level := 0; ; level++ {
		rad := geometry.LevelToRad(t.RootExtent, level)
		if t.IsLeaf(box) || (rad/2 < radius && radius <= rad) {
			break
		}

		// Find the child containing the ball center by per-axis bit
		// extraction. Axis 0 carries the highest-order bit of the morton
		// number, matching the tree producer's morton scan.
		morton := 0
		for ax := 0; ax < t.Dimensions; ax++ {
			axBits := int64(((center[ax] - t.BBoxMin[ax]) / t.RootExtent) *
				float64(int64(1)<<(1+level)))
			morton |= int(axBits&1) << (t.Dimensions - 1 - ax)
		}

		child := t.ChildID(morton, box)
		if child == 0 {
			// The center's quadrant was never refined; the current box is
			// the deepest container.
			break
		}
		box = child
	}
	return box
}
