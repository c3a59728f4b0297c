package query

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/boxquery/pkg/boxtree"
	"github.com/boxquery/pkg/geometry"
	"github.com/boxquery/pkg/parallel"
	"github.com/boxquery/pkg/utils"
)

// ============================================================================
// Space Invader Query Builder
// ============================================================================

// SpaceInvaderQueryBuilder builds, for a batch of l-infinity balls, a dense
// per-box table of the maximum center-to-center Chebyshev distance to any
// ball overlapping the box's grown neighbourhood. Boxes no ball reaches
// stay at 0.
//
// The reduction runs on float32 values max-combined through their bit
// patterns: non-negative IEEE-754 floats order the same way as their bits,
// so an integer compare-and-swap implements the atomic max. The buffer is
// widened to float64 on return; the float32 rounding is kept.
type SpaceInvaderQueryBuilder struct {
	Config parallel.PoolConfig
	Logger utils.Logger

	peerListFinder *PeerListFinder
}

// NewSpaceInvaderQueryBuilder creates a space invader query builder with
// default settings.
func NewSpaceInvaderQueryBuilder() *SpaceInvaderQueryBuilder {
	return &SpaceInvaderQueryBuilder{
		Config:         parallel.DefaultPoolConfig(),
		Logger:         utils.GetGlobalLogger(),
		peerListFinder: NewPeerListFinder(),
	}
}

// BuildSpaceInvaderQuery computes the per-box distance table, one work item
// per ball. If peers is nil the peer lists are built internally.
func (b *SpaceInvaderQueryBuilder) BuildSpaceInvaderQuery(ctx context.Context, t *boxtree.Tree, balls *BallSet, peers *PeerListLookup) ([]float64, error) {
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
	nboxes := int(t.NBoxes())

	b.Logger.Debug("space invader query: run space invader query, nballs=%d", balls.NBalls())

	// Distances as float32 bit patterns; +0.0 is all-zero bits.
	distBits := make([]uint32, nboxes)

	parallel.ForEachIndex(ctx, b.Config, balls.NBalls(), func(ball int32) {
		var cbuf, leafBuf [geometry.MaxDims]float64
		center := balls.LoadCenter(cbuf[:0], ball)
		radius := balls.Radii[ball]
		if radius <= 0 {
			return
		}

		walkPeerLeaves(t, peers, maxDepth, guidingBox(t, center, radius), func(leaf int32) {
			leafCenter := t.LoadCenter(leafBuf[:0], leaf)
			sizeSum := t.Radius(leaf) + radius
			maxDist := geometry.ChebyshevDistance(center, leafCenter)
			if maxDist <= sizeSum {
				atomicMaxFloat32(&distBits[leaf], float32(maxDist))
			}
		})
	})

	b.Logger.Debug("space invader query: done")

	dists := make([]float64, nboxes)
	for i, bits := range distBits {
		dists[i] = float64(math.Float32frombits(bits))
	}
	return dists, nil
}

// peerFinder returns the embedded peer list finder, sharing the builder's
// pool config.
func (b *SpaceInvaderQueryBuilder) peerFinder() *PeerListFinder {
	if b.peerListFinder == nil {
		b.peerListFinder = NewPeerListFinder()
	}
	b.peerListFinder.Config = b.Config
	b.peerListFinder.Logger = b.Logger
	return b.peerListFinder
}

// atomicMaxFloat32 raises *addr to the bit pattern of val if val is larger.
// Valid only for non-negative floats, whose bit patterns are monotonic in
// the float ordering; Chebyshev distances are never negative.
func atomicMaxFloat32(addr *uint32, val float32) {
	bits := math.Float32bits(val)
	for {
		old := atomic.LoadUint32(addr)
		if old >= bits {
			return
		}
		if atomic.CompareAndSwapUint32(addr, old, bits) {
			return
		}
	}
}
