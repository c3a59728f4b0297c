package query

import (
	"fmt"

	"github.com/boxquery/pkg/boxtree"
	"github.com/boxquery/pkg/collections"
)

// ============================================================================
// Stackful Tree Walker
// ============================================================================

// walkFrame is one suspended level of a depth-first descent: the box whose
// children are being enumerated and the morton slot the walk will resume at.
type walkFrame struct {
	box    int32
	morton int32
}

// walkStacks pools walk stacks across work items. Depth is bounded by the
// tree's quantised level count, so pooled slices stay small and stable.
var walkStacks = collections.NewSlicePool[walkFrame](2 * MaxLevelsGranularity)

// treeWalker drives a depth-first child enumeration over a subtree with an
// explicit, bounded-depth stack. It is a plain loop driven by ContinueWalk,
// not a coroutine, so kernel bodies inline it:
//
//	w.Init(start)
//	for w.ContinueWalk() {
//	    if child := w.Child(); child != 0 {
//	        // visit child; w.Push(child) + continue to descend
//	    }
//	    w.Advance()
//	}
type treeWalker struct {
	t         *boxtree.Tree
	stack     []walkFrame
	maxDepth  int
	nchildren int32

	box      int32
	morton   int32
	level    int
	walkDone bool
}

// newTreeWalker creates a walker over t with the given stack bound, reusing
// the pooled stack slice.
func newTreeWalker(t *boxtree.Tree, maxDepth int, stack []walkFrame) treeWalker {
	return treeWalker{
		t:         t,
		stack:     stack[:0],
		maxDepth:  maxDepth,
		nchildren: int32(t.NChildren()),
	}
}

// Init positions the walker at the first morton slot of start.
func (w *treeWalker) Init(start int32) {
	w.stack = w.stack[:0]
	w.box = start
	w.morton = 0
	w.level = w.t.Level(start)
	w.walkDone = false
}

// ContinueWalk reports whether the walk has unvisited slots left.
func (w *treeWalker) ContinueWalk() bool {
	return !w.walkDone
}

// Box returns the box whose children are currently being enumerated.
func (w *treeWalker) Box() int32 {
	return w.box
}

// Level returns the level of the current box.
func (w *treeWalker) Level() int {
	return w.level
}

// Child returns the child in the current morton slot, or 0 if there is none.
func (w *treeWalker) Child() int32 {
	return w.t.ChildID(int(w.morton), w.box)
}

// Push suspends the current box on the stack and descends into child. The
// depth bound is a precondition: a validated tree can never exceed it.
func (w *treeWalker) Push(child int32) {
	if len(w.stack) >= w.maxDepth {
		panic(fmt.Sprintf("query: walk depth exceeds %d levels; tree is corrupt", w.maxDepth))
	}
	w.stack = append(w.stack, walkFrame{box: w.box, morton: w.morton})
	w.box = child
	w.morton = 0
	w.level++
}

// Advance moves to the next morton slot, popping exhausted boxes. When the
// stack runs out the walk is over.
func (w *treeWalker) Advance() {
	w.morton++
	for w.morton == w.nchildren {
		if len(w.stack) == 0 {
			w.walkDone = true
			return
		}
		top := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		w.box = top.box
		w.morton = top.morton + 1
		w.level--
	}
}
