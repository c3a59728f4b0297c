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
// Area Query Builder
// ============================================================================

// AreaQueryBuilder builds, for a batch of l-infinity balls, the look-up
// table from ball to the leaf boxes intersecting it.
type AreaQueryBuilder struct {
	Config parallel.PoolConfig
	Logger utils.Logger

	peerListFinder *PeerListFinder
}

// NewAreaQueryBuilder creates an area query builder with default settings.
func NewAreaQueryBuilder() *AreaQueryBuilder {
	return &AreaQueryBuilder{
		Config:         parallel.DefaultPoolConfig(),
		Logger:         utils.GetGlobalLogger(),
		peerListFinder: NewPeerListFinder(),
	}
}

// BuildAreaQuery computes the overlapping-leaf list of every ball, one work
// item per ball. If peers is nil the peer lists are built internally.
func (b *AreaQueryBuilder) BuildAreaQuery(ctx context.Context, t *boxtree.Tree, balls *BallSet, peers *PeerListLookup) (*AreaQueryResult, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptTree, err)
	}
	if err := balls.Validate(t.Dimensions); err != nil {
		return nil, err
	}

	if peers == nil {
		var err error
		peers, err = b.peerFinder().findPeerLists(ctx, t)
		if err != nil {
			return nil, err
		}
	} else if err := checkPeerListShape(t, peers); err != nil {
		return nil, err
	}

	maxDepth := MaxLevels(t.NLevels)

	b.Logger.Debug("area query: run area query, nballs=%d", balls.NBalls())

	starts, lists, err := parallel.BuildLists(ctx, b.Config, balls.NBalls(),
		func(ball int32, emit func(int32)) {
			leavesNearBall(t, peers, balls, maxDepth, ball, emit)
		})
	if err != nil {
		return nil, fmt.Errorf("area query: %w", err)
	}

	b.Logger.Debug("area query: done, %d entries", starts[len(starts)-1])

	return &AreaQueryResult{
		LeavesNearBallStarts: starts,
		LeavesNearBallLists:  lists,
	}, nil
}

// peerFinder returns the embedded peer list finder, sharing the builder's
// pool config.
func (b *AreaQueryBuilder) peerFinder() *PeerListFinder {
	if b.peerListFinder == nil {
		b.peerListFinder = NewPeerListFinder()
	}
	b.peerListFinder.Config = b.Config
	b.peerListFinder.Logger = b.Logger
	return b.peerListFinder
}

// leavesNearBall emits every leaf box overlapping one ball.
func leavesNearBall(t *boxtree.Tree, peers *PeerListLookup, balls *BallSet, maxDepth int, ball int32, emit func(int32)) {
	var cbuf [geometry.MaxDims]float64
	center := balls.LoadCenter(cbuf[:0], ball)
	radius := balls.Radii[ball]
	if radius <= 0 {
		return
	}

	var leafBuf [geometry.MaxDims]float64
	walkPeerLeaves(t, peers, maxDepth, guidingBox(t, center, radius), func(leaf int32) {
		leafCenter := t.LoadCenter(leafBuf[:0], leaf)
		if geometry.BallBoxOverlap(center, radius, leafCenter, t.Radius(leaf)) {
			emit(leaf)
		}
	})
}

// walkPeerLeaves invokes leafFound for every leaf under the peers of the
// guiding box. Leaf peers are visited directly; internal peers are expanded
// with the stackful walker. Each leaf of the tree lies under exactly one
// peer subtree, so no leaf is visited twice.
func walkPeerLeaves(t *boxtree.Tree, peers *PeerListLookup, maxDepth int, guiding int32, leafFound func(leaf int32)) {
	stackp := walkStacks.Get()
	defer walkStacks.Put(stackp)

	for _, peer := range peers.PeersOf(guiding) {
		if t.IsLeaf(peer) {
			leafFound(peer)
			continue
		}

		w := newTreeWalker(t, maxDepth, *stackp)
		w.Init(peer)

		for w.ContinueWalk() {
			if child := w.Child(); child != 0 {
				if t.IsLeaf(child) {
					leafFound(child)
				} else {
					w.Push(child)
					continue
				}
			}
			w.Advance()
		}
	}
}
