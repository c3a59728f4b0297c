package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/boxquery/pkg/boxtree"
)

// handTree builds a small tree by hand: root with four level-1 children,
// the SW child refined with a single level-2 child in its NE morton slot.
func handTree() *boxtree.Tree {
	const aligned = 6
	childIDs := make([]int32, 4*aligned)
	childIDs[0*aligned+0] = 1
	childIDs[1*aligned+0] = 2
	childIDs[2*aligned+0] = 3
	childIDs[3*aligned+0] = 4
	childIDs[3*aligned+1] = 5

	return &boxtree.Tree{
		Dimensions: 2,
		NLevels:    3,
		RootExtent: 1,
		BBoxMin:    []float64{0, 0},
		Centers: [][]float64{
			{0.5, 0.25, 0.25, 0.75, 0.75, 0.375},
			{0.5, 0.25, 0.75, 0.25, 0.75, 0.375},
		},
		Levels:        []uint8{0, 1, 1, 1, 1, 2},
		Flags:         []boxtree.BoxFlags{boxtree.FlagHasChildren, boxtree.FlagHasChildren, 0, 0, 0, 0},
		ChildIDs:      childIDs,
		AlignedNBoxes: aligned,
	}
}

func TestTreeWalker_DepthFirstOrder(t *testing.T) {
	tree := handTree()
	assert.NoError(t, tree.Validate())

	var stack []walkFrame
	w := newTreeWalker(tree, MaxLevels(tree.NLevels), stack)
	w.Init(0)

	var visited []int32
	var levels []int
	for w.ContinueWalk() {
		if child := w.Child(); child != 0 {
			visited = append(visited, child)
			levels = append(levels, w.Level()+1)
			if !tree.IsLeaf(child) {
				w.Push(child)
				continue
			}
		}
		w.Advance()
	}

	// Depth-first in morton order, descending into box 1 before moving on
	// to its siblings.
	assert.Equal(t, []int32{1, 5, 2, 3, 4}, visited)
	assert.Equal(t, []int{1, 2, 1, 1, 1}, levels)
}

func TestTreeWalker_SubtreeWalk(t *testing.T) {
	tree := handTree()

	var stack []walkFrame
	w := newTreeWalker(tree, MaxLevels(tree.NLevels), stack)
	w.Init(1)

	var visited []int32
	for w.ContinueWalk() {
		if child := w.Child(); child != 0 {
			visited = append(visited, child)
			if !tree.IsLeaf(child) {
				w.Push(child)
				continue
			}
		}
		w.Advance()
	}

	assert.Equal(t, []int32{5}, visited)
}

func TestGuidingBox(t *testing.T) {
	tree := handTree()

	tests := []struct {
		name   string
		center []float64
		radius float64
		want   int32
	}{
		{"wide ball is guided by root", []float64{0.6, 0.6}, 0.4, 0},
		{"radius in level-0 window stays at root", []float64{0.5, 0.5}, 0.3, 0},
		{"small ball descends to containing leaf", []float64{0.9, 0.9}, 0.2, 4},
		{"descent stops at unrefined slot", []float64{0.1, 0.1}, 0.01, 1},
		{"descent follows refined slot", []float64{0.4, 0.4}, 0.01, 5},
		{"radius exactly level_to_rad(1)", []float64{0.9, 0.25}, 0.25, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, guidingBox(tree, tt.center, tt.radius))
		})
	}
}
