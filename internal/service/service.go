// Package service runs the queued-task worker: it polls the task table,
// downloads tree and ball snapshots, executes the requested query, and
// uploads the result.
package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/boxquery/internal/engine"
	"github.com/boxquery/internal/repository"
	"github.com/boxquery/internal/storage"
	"github.com/boxquery/pkg/boxtree"
	"github.com/boxquery/pkg/config"
	"github.com/boxquery/pkg/model"
	"github.com/boxquery/pkg/parallel"
	"github.com/boxquery/pkg/query"
	"github.com/boxquery/pkg/utils"
	"github.com/boxquery/pkg/writer"
)

// Service is the queued-task worker service.
type Service struct {
	config *config.Config
	logger utils.Logger
	clock  utils.Clock

	tasks   repository.TaskRepository
	results repository.ResultRepository
	store   storage.Storage
	engine  *engine.Engine

	repos *repository.Repositories
}

// New creates a service and initializes its components from configuration.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	s := &Service{
		config: cfg,
		logger: logger,
		clock:  utils.NewRealClock(),
	}

	logger.Info("Connecting to database (%s)...", cfg.Database.Type)
	gormDB, err := repository.NewGormDB(&repository.DBConfig{
		Type:     cfg.Database.Type,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		MaxConns: cfg.Database.MaxConns,
		Path:     cfg.Database.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := repository.Migrate(gormDB); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	s.repos = repository.NewRepositories(gormDB, cfg.Database.Type, cfg.Query.Version)
	s.tasks = s.repos.Task
	s.results = s.repos.Result

	logger.Info("Initializing storage (%s)...", cfg.Storage.Type)
	store, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	s.store = store

	poolCfg := parallel.DefaultPoolConfig()
	if cfg.Query.MaxWorkers > 0 {
		poolCfg = poolCfg.WithWorkers(cfg.Query.MaxWorkers)
	}
	s.engine = engine.New(poolCfg, logger, cfg.Query.Version)
	s.engine.Verify = cfg.Query.Verify

	return s, nil
}

// NewWithDeps creates a service with injected dependencies (used by tests).
func NewWithDeps(cfg *config.Config, logger utils.Logger, clock utils.Clock,
	tasks repository.TaskRepository, results repository.ResultRepository,
	store storage.Storage, eng *engine.Engine) *Service {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	if clock == nil {
		clock = utils.NewRealClock()
	}
	return &Service{
		config:  cfg,
		logger:  logger,
		clock:   clock,
		tasks:   tasks,
		results: results,
		store:   store,
		engine:  eng,
	}
}

// Close releases the service's database connection.
func (s *Service) Close() error {
	if s.repos != nil {
		return s.repos.Close()
	}
	return nil
}

// Run polls for pending tasks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.config.Worker.PollInterval) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}

	s.logger.Info("Worker started, polling every %v", interval)

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Worker stopping: %v", ctx.Err())
			return nil
		case <-ticker.C:
			if n, err := s.ProcessBatch(ctx); err != nil {
				s.logger.Error("Batch processing failed: %v", err)
			} else if n > 0 {
				s.logger.Info("Processed %d tasks", n)
			}
		}
	}
}

// ProcessBatch fetches one batch of pending tasks and processes them
// concurrently. Returns the number of tasks this worker actually ran.
func (s *Service) ProcessBatch(ctx context.Context) (int, error) {
	batchSize := s.config.Worker.TaskBatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	pending, err := s.tasks.GetPendingTasks(ctx, batchSize)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	// Lock first so concurrent workers split the batch instead of
	// duplicating it.
	var locked []*model.Task
	for _, task := range pending {
		ok, err := s.tasks.LockTask(ctx, task.ID)
		if err != nil {
			s.logger.Error("Failed to lock task %s: %v", task.TaskUUID, err)
			continue
		}
		if ok {
			locked = append(locked, task)
		}
	}

	concurrency := s.config.Worker.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	poolCfg := parallel.DefaultPoolConfig().WithWorkers(concurrency)

	err = parallel.ForEach(ctx, poolCfg, locked, func(ctx context.Context, task *model.Task) error {
		if err := s.ProcessTask(ctx, task); err != nil {
			s.logger.Error("Task %s failed: %v", task.TaskUUID, err)
			if failErr := s.tasks.FailTask(ctx, task.ID, err.Error()); failErr != nil {
				s.logger.Error("Failed to record failure of task %s: %v", task.TaskUUID, failErr)
			}
		}
		return nil
	})

	return len(locked), err
}

// ProcessTask downloads a task's inputs, runs the query, and uploads the
// result. The caller is responsible for marking the task failed on error.
func (s *Service) ProcessTask(ctx context.Context, task *model.Task) error {
	s.logger.Info("Processing task %s (%s)", task.TaskUUID, task.Kind)

	tree, err := s.downloadTree(ctx, task.TreeKey)
	if err != nil {
		return err
	}

	var balls *query.BallSet
	if task.BallsKey != "" {
		balls, err = s.downloadBalls(ctx, task.BallsKey)
		if err != nil {
			return err
		}
	}

	result, err := s.engine.Run(ctx, task.Kind, tree, balls)
	if err != nil {
		return err
	}
	result.TaskUUID = task.TaskUUID

	resultKey := fmt.Sprintf("results/%s.json", task.TaskUUID)
	var buf bytes.Buffer
	if err := writer.NewJSONWriter[*model.Result]().Write(result, &buf); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := s.store.Upload(ctx, resultKey, &buf); err != nil {
		return fmt.Errorf("failed to upload result: %w", err)
	}

	if s.results != nil {
		if err := s.results.SaveResult(ctx, result); err != nil {
			return fmt.Errorf("failed to persist result: %w", err)
		}
	}

	return s.tasks.CompleteTask(ctx, task.ID, resultKey)
}

// Submit uploads local tree and ball snapshots and queues a task over them.
// Returns the new task's UUID.
func (s *Service) Submit(ctx context.Context, kind model.QueryKind, treePath, ballsPath string) (string, error) {
	tid := uuid.NewString()

	treeKey := fmt.Sprintf("inputs/%s/tree.json", tid)
	if err := s.store.UploadFile(ctx, treeKey, treePath); err != nil {
		return "", fmt.Errorf("failed to upload tree snapshot: %w", err)
	}

	ballsKey := ""
	if ballsPath != "" {
		ballsKey = fmt.Sprintf("inputs/%s/balls.json", tid)
		if err := s.store.UploadFile(ctx, ballsKey, ballsPath); err != nil {
			return "", fmt.Errorf("failed to upload ball set: %w", err)
		}
	}

	task := &model.Task{
		TaskUUID: tid,
		Kind:     kind,
		TreeKey:  treeKey,
		BallsKey: ballsKey,
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return "", err
	}
	return tid, nil
}

func (s *Service) downloadTree(ctx context.Context, key string) (*boxtree.Tree, error) {
	rc, err := s.store.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download tree snapshot: %w", err)
	}
	defer rc.Close()
	return boxtree.Decode(rc)
}

func (s *Service) downloadBalls(ctx context.Context, key string) (*query.BallSet, error) {
	rc, err := s.store.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download ball set: %w", err)
	}
	defer rc.Close()
	return query.DecodeBallSet(rc)
}
