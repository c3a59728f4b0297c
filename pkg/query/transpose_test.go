package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxquery/internal/testutil"
	"github.com/boxquery/pkg/query"
)

func TestLeavesToBalls_CenterBall(t *testing.T) {
	// A centered ball on the quad tree overlaps all four leaves, so every
	// leaf lists ball 0 and the root lists nothing.
	tree := testutil.QuadTree2D()
	balls := testutil.Balls2D([3]float64{0.5, 0.5, 0.1})

	builder := query.NewLeavesToBallsLookupBuilder()
	lbl, err := builder.BuildLeavesToBalls(context.Background(), tree, balls, nil)
	require.NoError(t, err)

	assert.Equal(t, []int32{0, 0, 1, 2, 3, 4}, lbl.BallsNearBoxStarts)
	assert.Empty(t, lbl.BallsNear(0))
	for box := int32(1); box <= 4; box++ {
		assert.Equal(t, []int32{0}, lbl.BallsNear(box), "box %d", box)
	}
}

func TestLeavesToBalls_IsTransposeOfAreaQuery(t *testing.T) {
	tree := testutil.DeepQuadTree2D()
	balls := testutil.Balls2D(
		[3]float64{0.1, 0.1, 0.05},
		[3]float64{0.25, 0.25, 0.3},
		[3]float64{0.75, 0.75, 0.1},
		[3]float64{0.5, 0.5, 0.2},
	)

	aqBuilder := query.NewAreaQueryBuilder()
	aq, err := aqBuilder.BuildAreaQuery(context.Background(), tree, balls, nil)
	require.NoError(t, err)

	builder := query.NewLeavesToBallsLookupBuilder()
	lbl, err := builder.BuildLeavesToBalls(context.Background(), tree, balls, nil)
	require.NoError(t, err)

	require.NoError(t, query.VerifyTranspose(tree, aq, lbl))

	// Transposing back reproduces the area query as a multiset of pairs.
	type pair struct{ ball, leaf int32 }
	var fromAQ, fromLBL []pair
	for ball := int32(0); ball < int32(balls.NBalls()); ball++ {
		for _, leaf := range aq.LeavesNear(ball) {
			fromAQ = append(fromAQ, pair{ball, leaf})
		}
	}
	for box := int32(0); box < tree.NBoxes(); box++ {
		for _, ball := range lbl.BallsNear(box) {
			fromLBL = append(fromLBL, pair{ball, box})
		}
	}
	assert.ElementsMatch(t, fromAQ, fromLBL)
}

func TestLeavesToBalls_BallIDsSortedWithinBox(t *testing.T) {
	tree := testutil.QuadTree2D()
	// All three balls overlap every leaf.
	balls := testutil.Balls2D(
		[3]float64{0.5, 0.5, 0.1},
		[3]float64{0.5, 0.5, 0.2},
		[3]float64{0.5, 0.5, 0.15},
	)

	builder := query.NewLeavesToBallsLookupBuilder()
	lbl, err := builder.BuildLeavesToBalls(context.Background(), tree, balls, nil)
	require.NoError(t, err)

	for box := int32(1); box <= 4; box++ {
		assert.Equal(t, []int32{0, 1, 2}, lbl.BallsNear(box), "box %d", box)
	}
}

func TestLeavesToBalls_NoBalls(t *testing.T) {
	tree := testutil.QuadTree2D()
	balls := &query.BallSet{Centers: [][]float64{{}, {}}, Radii: []float64{}}

	builder := query.NewLeavesToBallsLookupBuilder()
	lbl, err := builder.BuildLeavesToBalls(context.Background(), tree, balls, nil)
	require.NoError(t, err)

	assert.Len(t, lbl.BallsNearBoxStarts, int(tree.NBoxes())+1)
	assert.Empty(t, lbl.BallsNearBoxLists)
	for _, s := range lbl.BallsNearBoxStarts {
		assert.Equal(t, int32(0), s)
	}
}
