package query

import (
	"context"
	"fmt"

	"github.com/boxquery/pkg/boxtree"
	"github.com/boxquery/pkg/geometry"
	"github.com/boxquery/pkg/parallel"
	"github.com/boxquery/pkg/utils"
)

// ============================================================================
// Peer List Finder
// ============================================================================

// PeerListFinder builds a look-up table from box numbers to peer boxes.
//
// Given a box b_j in a 2^d-tree, b_k is a peer box of b_j if it is
//
//  1. adjacent to or overlapping b_j,
//  2. of at least the same size as b_j (at the same or a higher level), and
//  3. no child of b_k satisfies the above two criteria.
//
// (Rachh, Klöckner, O'Neil, "Fast algorithms for Quadrature by Expansion I".)
type PeerListFinder struct {
	Config parallel.PoolConfig
	Logger utils.Logger
}

// NewPeerListFinder creates a peer list finder with default settings.
func NewPeerListFinder() *PeerListFinder {
	return &PeerListFinder{
		Config: parallel.DefaultPoolConfig(),
		Logger: utils.GetGlobalLogger(),
	}
}

// FindPeerLists computes the peer list of every box of the tree, one work
// item per box. The tree is validated first; the walk never indexes a
// malformed child table.
func (f *PeerListFinder) FindPeerLists(ctx context.Context, t *boxtree.Tree) (*PeerListLookup, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptTree, err)
	}
	return f.findPeerLists(ctx, t)
}

// findPeerLists runs the finder against an already-validated tree.
func (f *PeerListFinder) findPeerLists(ctx context.Context, t *boxtree.Tree) (*PeerListLookup, error) {
	maxDepth := MaxLevels(t.NLevels)

	f.Logger.Debug("peer list finder: find peer lists, nboxes=%d", t.NBoxes())

	starts, lists, err := parallel.BuildLists(ctx, f.Config, int(t.NBoxes()),
		func(box int32, emit func(int32)) {
			peersOfBox(t, maxDepth, box, emit)
		})
	if err != nil {
		return nil, fmt.Errorf("peer list finder: %w", err)
	}

	f.Logger.Debug("peer list finder: done, %d entries", starts[len(starts)-1])

	return &PeerListLookup{PeerListStarts: starts, PeerLists: lists}, nil
}

// peersOfBox emits the peer list of one box.
//
// The walk descends from the root, pruning subtrees that are not adjacent to
// the target box. An adjacent box on the target's own level is a peer
// outright; so is an adjacent leaf above it. An adjacent internal box above
// the target's level is a peer exactly when none of its children touch the
// target's neighbourhood: descending would only produce smaller,
// non-adjacent boxes, so the box itself is the minimal cover.
func peersOfBox(t *boxtree.Tree, maxDepth int, box int32, emit func(int32)) {
	// Peer of root = self.
	if box == 0 {
		emit(0)
		return
	}

	level := t.Level(box)

	var cbuf, childBuf, grandBuf [geometry.MaxDims]float64
	center := t.LoadCenter(cbuf[:0], box)

	stackp := walkStacks.Get()
	defer walkStacks.Put(stackp)

	w := newTreeWalker(t, maxDepth, *stackp)
	w.Init(0)

	for w.ContinueWalk() {
		child := w.Child()
		if child != 0 {
			childLevel := w.Level() + 1
			childCenter := t.LoadCenter(childBuf[:0], child)

			if geometry.IsAdjacentOrOverlapping(t.RootExtent, center, level, childCenter, childLevel) {
				switch {
				case childLevel == level:
					// Descending further would pass the target's level.
					emit(child)

				case t.IsLeaf(child):
					emit(child)

				default:
					// Check if any children are adjacent or overlapping.
					// If not, this box must be a peer.
					mustBePeer := true
					for m := 0; mustBePeer && m < t.NChildren(); m++ {
						grand := t.ChildID(m, child)
						if grand == 0 {
							continue
						}
						grandCenter := t.LoadCenter(grandBuf[:0], grand)
						if geometry.IsAdjacentOrOverlapping(t.RootExtent,
							center, level, grandCenter, childLevel+1) {
							mustBePeer = false
						}
					}

					if mustBePeer {
						emit(child)
					} else {
						w.Push(child)
						continue
					}
				}
			}
		}
		w.Advance()
	}
}
