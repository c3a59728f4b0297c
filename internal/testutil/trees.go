package testutil

import (
	"github.com/boxquery/pkg/boxtree"
	"github.com/boxquery/pkg/geometry"
	"github.com/boxquery/pkg/query"
)

// TreeBuilder assembles small linearised trees for tests by splitting boxes
// one at a time. Child centers follow the morton convention of the query
// kernels: axis 0 carries the highest-order bit, a set bit means the upper
// half of the parent along that axis.
type TreeBuilder struct {
	dims       int
	rootExtent float64
	bboxMin    []float64

	centers  [][]float64
	levels   []uint8
	flags    []boxtree.BoxFlags
	children map[int32][]int32 // box -> child id per morton slot
}

// NewTreeBuilder starts a tree with only the root box.
func NewTreeBuilder(dims int, rootExtent float64, bboxMin []float64) *TreeBuilder {
	b := &TreeBuilder{
		dims:       dims,
		rootExtent: rootExtent,
		bboxMin:    bboxMin,
		centers:    make([][]float64, dims),
		children:   make(map[int32][]int32),
	}
	for ax := 0; ax < dims; ax++ {
		b.centers[ax] = append(b.centers[ax], bboxMin[ax]+rootExtent/2)
	}
	b.levels = append(b.levels, 0)
	b.flags = append(b.flags, 0)
	return b
}

// Split refines a leaf box into its full set of 2^d children and returns
// their ids in morton order.
func (b *TreeBuilder) Split(box int32) []int32 {
	mortons := make([]int, 1<<b.dims)
	for m := range mortons {
		mortons[m] = m
	}
	return b.SplitPartial(box, mortons...)
}

// SplitPartial refines a leaf box into children at the given morton slots
// only, leaving the other slots empty. Returns the full 2^d-slot child list
// with 0 for missing children.
func (b *TreeBuilder) SplitPartial(box int32, mortons ...int) []int32 {
	nchildren := 1 << b.dims
	level := b.levels[box]
	childRad := geometry.LevelToRad(b.rootExtent, int(level)+1)

	kids := make([]int32, nchildren)
	for _, m := range mortons {
		id := int32(len(b.levels))
		kids[m] = id
		for ax := 0; ax < b.dims; ax++ {
			offset := -childRad
			if (m>>(b.dims-1-ax))&1 == 1 {
				offset = childRad
			}
			b.centers[ax] = append(b.centers[ax], b.centers[ax][box]+offset)
		}
		b.levels = append(b.levels, level+1)
		b.flags = append(b.flags, 0)
	}
	b.flags[box] |= boxtree.FlagHasChildren
	b.children[box] = kids
	return kids
}

// Build linearises the tree. The child table stride is padded past the box
// count to exercise the aligned layout.
func (b *TreeBuilder) Build() *boxtree.Tree {
	nboxes := len(b.levels)
	aligned := int32(nboxes + 3)
	nchildren := 1 << b.dims

	childIDs := make([]int32, int(aligned)*nchildren)
	for box, kids := range b.children {
		for m, kid := range kids {
			childIDs[int32(m)*aligned+box] = kid
		}
	}

	nlevels := 0
	for _, l := range b.levels {
		if int(l)+1 > nlevels {
			nlevels = int(l) + 1
		}
	}

	centers := make([][]float64, b.dims)
	for ax := range centers {
		centers[ax] = append([]float64(nil), b.centers[ax]...)
	}

	return &boxtree.Tree{
		Dimensions:    b.dims,
		NLevels:       nlevels,
		RootExtent:    b.rootExtent,
		BBoxMin:       append([]float64(nil), b.bboxMin...),
		Centers:       centers,
		Levels:        append([]uint8(nil), b.levels...),
		Flags:         append([]boxtree.BoxFlags(nil), b.flags...),
		ChildIDs:      childIDs,
		AlignedNBoxes: aligned,
	}
}

// RootOnlyTree2D returns a 2-d tree with a single leaf: the unit root box
// at (0,0).
func RootOnlyTree2D() *boxtree.Tree {
	return NewTreeBuilder(2, 1, []float64{0, 0}).Build()
}

// QuadTree2D returns the unit root box split once into 4 level-1 leaves
// (boxes 1..4 in morton order: SW, NW, SE, NE with axis 0 = x as the high
// morton bit).
func QuadTree2D() *boxtree.Tree {
	b := NewTreeBuilder(2, 1, []float64{0, 0})
	b.Split(0)
	return b.Build()
}

// DeepQuadTree2D returns QuadTree2D with its SW leaf (box 1) split again
// into 4 level-2 leaves, 9 boxes total, 7 of them leaves.
func DeepQuadTree2D() *boxtree.Tree {
	b := NewTreeBuilder(2, 1, []float64{0, 0})
	kids := b.Split(0)
	b.Split(kids[0])
	return b.Build()
}

// Balls2D builds a 2-d ball set from (x, y, radius) triples.
func Balls2D(balls ...[3]float64) *query.BallSet {
	set := &query.BallSet{
		Centers: [][]float64{{}, {}},
	}
	for _, ball := range balls {
		set.Centers[0] = append(set.Centers[0], ball[0])
		set.Centers[1] = append(set.Centers[1], ball[1])
		set.Radii = append(set.Radii, ball[2])
	}
	return set
}
