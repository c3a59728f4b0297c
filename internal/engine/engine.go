// Package engine routes query requests to the spatial query builders and
// wraps them with precondition checks, tracing and timing.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boxquery/pkg/boxtree"
	apperrors "github.com/boxquery/pkg/errors"
	"github.com/boxquery/pkg/model"
	"github.com/boxquery/pkg/parallel"
	"github.com/boxquery/pkg/query"
	"github.com/boxquery/pkg/utils"
)

const tracerName = "boxquery/engine"

// Engine executes spatial queries against validated inputs. One engine may
// serve concurrent callers; the builders share nothing but read-only input.
type Engine struct {
	Config  parallel.PoolConfig
	Logger  utils.Logger
	Version string

	// Verify re-checks peer-list and area-query results against the tree
	// before returning them; leaves-to-balls and space-invader results are
	// returned unchecked. Expensive; for debugging and acceptance runs.
	Verify bool
}

// New creates an engine with the given pool configuration.
func New(cfg parallel.PoolConfig, logger utils.Logger, version string) *Engine {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &Engine{
		Config:  cfg,
		Logger:  logger,
		Version: version,
	}
}

// Run executes one query of the given kind. The ball set may be nil for
// peer-list queries only. The returned result owns its buffers.
func (e *Engine) Run(ctx context.Context, kind model.QueryKind, tree *boxtree.Tree, balls *query.BallSet) (*model.Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "query."+kind.String())
	defer span.End()

	span.SetAttributes(
		attribute.Int("boxquery.nboxes", int(tree.NBoxes())),
		attribute.Int("boxquery.dimensions", tree.Dimensions),
	)
	if balls != nil {
		span.SetAttributes(attribute.Int("boxquery.nballs", balls.NBalls()))
	}

	if kind != model.QueryKindPeers && balls == nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput,
			fmt.Sprintf("%s query requires a ball set", kind), nil)
	}

	timer := utils.NewTimer("query."+kind.String(), utils.WithLogger(e.Logger))
	phase := timer.Start("run")

	result := &model.Result{Kind: kind, Version: e.Version}

	var err error
	switch kind {
	case model.QueryKindPeers:
		err = e.runPeers(ctx, tree, result)
	case model.QueryKindArea:
		err = e.runArea(ctx, tree, balls, result)
	case model.QueryKindLeavesToBalls:
		err = e.runLeavesToBalls(ctx, tree, balls, result)
	case model.QueryKindSpaceInvader:
		err = e.runSpaceInvader(ctx, tree, balls, result)
	default:
		err = apperrors.Wrap(apperrors.CodeInvalidInput,
			fmt.Sprintf("unknown query kind %d", kind), nil)
	}

	elapsed := phase.Stop()
	if err != nil {
		return nil, mapQueryError(err)
	}

	result.ElapsedMillis = elapsed.Milliseconds()
	e.Logger.Info("query %s done in %v", kind, elapsed)
	return result, nil
}

func (e *Engine) runPeers(ctx context.Context, tree *boxtree.Tree, result *model.Result) error {
	finder := query.NewPeerListFinder()
	finder.Config = e.Config
	finder.Logger = e.Logger

	peers, err := finder.FindPeerLists(ctx, tree)
	if err != nil {
		return err
	}
	if e.Verify {
		if err := query.VerifyPeerLists(tree, peers); err != nil {
			return apperrors.Wrap(apperrors.CodeQueryError, "peer list verification failed", err)
		}
	}

	result.PeerListStarts = peers.PeerListStarts
	result.PeerLists = peers.PeerLists
	return nil
}

func (e *Engine) runArea(ctx context.Context, tree *boxtree.Tree, balls *query.BallSet, result *model.Result) error {
	builder := query.NewAreaQueryBuilder()
	builder.Config = e.Config
	builder.Logger = e.Logger

	aq, err := builder.BuildAreaQuery(ctx, tree, balls, nil)
	if err != nil {
		return err
	}
	if e.Verify {
		if err := query.VerifyAreaQuery(tree, balls, aq); err != nil {
			return apperrors.Wrap(apperrors.CodeQueryError, "area query verification failed", err)
		}
	}

	result.LeavesNearBallStarts = aq.LeavesNearBallStarts
	result.LeavesNearBallLists = aq.LeavesNearBallLists
	return nil
}

func (e *Engine) runLeavesToBalls(ctx context.Context, tree *boxtree.Tree, balls *query.BallSet, result *model.Result) error {
	builder := query.NewLeavesToBallsLookupBuilder()
	builder.Config = e.Config
	builder.Logger = e.Logger

	lbl, err := builder.BuildLeavesToBalls(ctx, tree, balls, nil)
	if err != nil {
		return err
	}

	result.BallsNearBoxStarts = lbl.BallsNearBoxStarts
	result.BallsNearBoxLists = lbl.BallsNearBoxLists
	return nil
}

func (e *Engine) runSpaceInvader(ctx context.Context, tree *boxtree.Tree, balls *query.BallSet, result *model.Result) error {
	builder := query.NewSpaceInvaderQueryBuilder()
	builder.Config = e.Config
	builder.Logger = e.Logger

	dists, err := builder.BuildSpaceInvaderQuery(ctx, tree, balls, nil)
	if err != nil {
		return err
	}

	result.SpaceInvaderDists = dists
	return nil
}

// mapQueryError translates query-package sentinels into coded errors.
func mapQueryError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, query.ErrShapeMismatch), errors.Is(err, query.ErrPeerListSize):
		return apperrors.Wrap(apperrors.CodeInvalidInput, "invalid query input", err)
	case errors.Is(err, query.ErrCorruptTree):
		return apperrors.Wrap(apperrors.CodeCorruptTree, "tree failed validation", err)
	default:
		return apperrors.Wrap(apperrors.CodeQueryError, "query failed", err)
	}
}
