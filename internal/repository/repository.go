package repository

import (
	"context"

	"github.com/boxquery/pkg/model"
)

// TaskRepository defines the interface for task-related database operations.
type TaskRepository interface {
	// CreateTask inserts a new pending task.
	CreateTask(ctx context.Context, task *model.Task) error

	// GetPendingTasks retrieves tasks that are waiting to be processed.
	GetPendingTasks(ctx context.Context, limit int) ([]*model.Task, error)

	// GetTaskByUUID retrieves a task by its UUID.
	GetTaskByUUID(ctx context.Context, uuid string) (*model.Task, error)

	// LockTask attempts to move a pending task to running, preventing
	// concurrent processing. Returns false if another worker won.
	LockTask(ctx context.Context, id int64) (bool, error)

	// CompleteTask marks a task completed and records its result key.
	CompleteTask(ctx context.Context, id int64, resultKey string) error

	// FailTask marks a task failed with a diagnostic.
	FailTask(ctx context.Context, id int64, info string) error
}

// ResultRepository defines the interface for query result operations.
type ResultRepository interface {
	// SaveResult saves a query result to the database.
	SaveResult(ctx context.Context, result *model.Result) error

	// GetResultByTaskUUID retrieves the query result for a task.
	GetResultByTaskUUID(ctx context.Context, taskUUID string) (*model.Result, error)
}
