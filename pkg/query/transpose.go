package query

import (
	"context"

	"github.com/boxquery/pkg/boxtree"
	"github.com/boxquery/pkg/collections"
	"github.com/boxquery/pkg/parallel"
	"github.com/boxquery/pkg/utils"
)

// ============================================================================
// Leaves-To-Balls Lookup Builder
// ============================================================================

// LeavesToBallsLookupBuilder inverts an area query: it builds the look-up
// table from leaf boxes to the balls overlapping each leaf box.
type LeavesToBallsLookupBuilder struct {
	Config parallel.PoolConfig
	Logger utils.Logger

	areaQueryBuilder *AreaQueryBuilder
}

// NewLeavesToBallsLookupBuilder creates a transpose builder with default
// settings.
func NewLeavesToBallsLookupBuilder() *LeavesToBallsLookupBuilder {
	return &LeavesToBallsLookupBuilder{
		Config:           parallel.DefaultPoolConfig(),
		Logger:           utils.GetGlobalLogger(),
		areaQueryBuilder: NewAreaQueryBuilder(),
	}
}

// BuildLeavesToBalls runs the area query, expands its starts array into one
// ball id per list element, sorts the (leaf, ball) pairs by leaf, and groups
// them into a CSR over the full box id range. Boxes the query never touched,
// including all internal boxes, get empty groups; within one box the ball
// ids come out sorted because the expanded ids are non-decreasing and the
// sort is stable.
func (b *LeavesToBallsLookupBuilder) BuildLeavesToBalls(ctx context.Context, t *boxtree.Tree, balls *BallSet, peers *PeerListLookup) (*LeavesToBallsLookup, error) {
	aqb := b.areaBuilder()

	b.Logger.Debug("leaves-to-balls lookup: run area query")

	aq, err := aqb.BuildAreaQuery(ctx, t, balls, peers)
	if err != nil {
		return nil, err
	}

	b.Logger.Debug("leaves-to-balls lookup: expand starts")
	ballIDs := collections.ExpandStarts(aq.LeavesNearBallStarts)

	b.Logger.Debug("leaves-to-balls lookup: key-value sort")
	leafIDs := make([]int32, len(aq.LeavesNearBallLists))
	copy(leafIDs, aq.LeavesNearBallLists)
	collections.SortPairsByKey(leafIDs, ballIDs)

	starts, lists := collections.GroupToCSR(leafIDs, ballIDs, int(t.NBoxes()))

	b.Logger.Debug("leaves-to-balls lookup: built")

	return &LeavesToBallsLookup{
		BallsNearBoxStarts: starts,
		BallsNearBoxLists:  lists,
	}, nil
}

// areaBuilder returns the embedded area query builder, sharing the
// transpose builder's pool config.
func (b *LeavesToBallsLookupBuilder) areaBuilder() *AreaQueryBuilder {
	if b.areaQueryBuilder == nil {
		b.areaQueryBuilder = NewAreaQueryBuilder()
	}
	b.areaQueryBuilder.Config = b.Config
	b.areaQueryBuilder.Logger = b.Logger
	return b.areaQueryBuilder
}
