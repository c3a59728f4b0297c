package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxquery/internal/testutil"
	apperrors "github.com/boxquery/pkg/errors"
	"github.com/boxquery/pkg/model"
	"github.com/boxquery/pkg/parallel"
	"github.com/boxquery/pkg/query"
	"github.com/boxquery/pkg/utils"
)

func newTestEngine() *Engine {
	e := New(parallel.DefaultPoolConfig(), &utils.NullLogger{}, "test")
	e.Verify = true
	return e
}

func TestEngine_RunPeers(t *testing.T) {
	eng := newTestEngine()
	tree := testutil.QuadTree2D()

	result, err := eng.Run(context.Background(), model.QueryKindPeers, tree, nil)
	require.NoError(t, err)

	assert.Equal(t, model.QueryKindPeers, result.Kind)
	assert.Equal(t, "test", result.Version)
	require.Len(t, result.PeerListStarts, 6)
	assert.Equal(t, []int32{0}, result.PeerLists[:result.PeerListStarts[1]])
}

func TestEngine_RunArea(t *testing.T) {
	eng := newTestEngine()
	tree := testutil.QuadTree2D()
	balls := testutil.Balls2D([3]float64{0.5, 0.5, 0.1})

	result, err := eng.Run(context.Background(), model.QueryKindArea, tree, balls)
	require.NoError(t, err)

	assert.Equal(t, []int32{0, 4}, result.LeavesNearBallStarts)
	assert.ElementsMatch(t, []int32{1, 2, 3, 4}, result.LeavesNearBallLists)
}

func TestEngine_RunLeavesToBalls(t *testing.T) {
	eng := newTestEngine()
	tree := testutil.QuadTree2D()
	balls := testutil.Balls2D([3]float64{0.5, 0.5, 0.1})

	result, err := eng.Run(context.Background(), model.QueryKindLeavesToBalls, tree, balls)
	require.NoError(t, err)

	assert.Equal(t, []int32{0, 0, 1, 2, 3, 4}, result.BallsNearBoxStarts)
	assert.Equal(t, []int32{0, 0, 0, 0}, result.BallsNearBoxLists)
}

func TestEngine_RunSpaceInvader(t *testing.T) {
	eng := newTestEngine()
	tree := testutil.QuadTree2D()
	balls := testutil.Balls2D([3]float64{0.5, 0.5, 0.1})

	result, err := eng.Run(context.Background(), model.QueryKindSpaceInvader, tree, balls)
	require.NoError(t, err)

	require.Len(t, result.SpaceInvaderDists, 5)
	assert.Equal(t, 0.0, result.SpaceInvaderDists[0])
	for box := 1; box <= 4; box++ {
		assert.InDelta(t, 0.25, result.SpaceInvaderDists[box], 1e-7)
	}
}

func TestEngine_BallQueriesRequireBalls(t *testing.T) {
	eng := newTestEngine()
	tree := testutil.QuadTree2D()

	for _, kind := range []model.QueryKind{
		model.QueryKindArea, model.QueryKindLeavesToBalls, model.QueryKindSpaceInvader,
	} {
		_, err := eng.Run(context.Background(), kind, tree, nil)
		require.Error(t, err, "kind %s", kind)
		assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetErrorCode(err))
	}
}

func TestEngine_InvalidInputMapsToCode(t *testing.T) {
	eng := newTestEngine()
	tree := testutil.QuadTree2D()
	balls := &query.BallSet{Centers: [][]float64{{0.5}}, Radii: []float64{0.1}}

	_, err := eng.Run(context.Background(), model.QueryKindArea, tree, balls)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetErrorCode(err))
}

func TestEngine_CorruptTreeMapsToCode(t *testing.T) {
	eng := newTestEngine()
	tree := testutil.QuadTree2D()
	tree.Flags[0] = 0

	_, err := eng.Run(context.Background(), model.QueryKindPeers, tree, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCorruptTree, apperrors.GetErrorCode(err))
}

func TestEngine_UnknownKind(t *testing.T) {
	eng := newTestEngine()
	tree := testutil.QuadTree2D()

	_, err := eng.Run(context.Background(), model.QueryKind(99), tree, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetErrorCode(err))
}
