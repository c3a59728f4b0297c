package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/boxquery/pkg/model"
)

// MySQLTaskRepository implements TaskRepository with raw SQL against an
// existing *sql.DB. Deployments that manage their own connection (or front
// the table with a proxy GORM cannot speak through) use this instead of the
// GORM implementation; both serve the same table.
type MySQLTaskRepository struct {
	db *sql.DB
}

// NewMySQLTaskRepository creates a new MySQLTaskRepository.
func NewMySQLTaskRepository(db *sql.DB) *MySQLTaskRepository {
	return &MySQLTaskRepository{db: db}
}

const taskColumns = "id, tid, kind, status, status_info, tree_key, balls_key, result_key, create_time, begin_time, end_time"

// scanTask scans one task row in taskColumns order.
func scanTask(row interface{ Scan(...interface{}) error }) (*model.Task, error) {
	var task model.Task
	var beginTime, endTime sql.NullTime
	err := row.Scan(
		&task.ID, &task.TaskUUID, &task.Kind, &task.Status, &task.StatusInfo,
		&task.TreeKey, &task.BallsKey, &task.ResultKey,
		&task.CreateTime, &beginTime, &endTime,
	)
	if err != nil {
		return nil, err
	}
	if beginTime.Valid {
		task.BeginTime = &beginTime.Time
	}
	if endTime.Valid {
		task.EndTime = &endTime.Time
	}
	return &task, nil
}

// CreateTask inserts a new pending task.
func (r *MySQLTaskRepository) CreateTask(ctx context.Context, task *model.Task) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO query_task (tid, kind, status, status_info, tree_key, balls_key, result_key, create_time) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		task.TaskUUID, task.Kind, model.TaskStatusPending, task.StatusInfo,
		task.TreeKey, task.BallsKey, task.ResultKey, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		task.ID = id
	}
	task.Status = model.TaskStatusPending
	return nil
}

// GetPendingTasks retrieves tasks that are waiting to be processed.
func (r *MySQLTaskRepository) GetPendingTasks(ctx context.Context, limit int) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM query_task WHERE status = ? ORDER BY id ASC LIMIT ?",
		model.TaskStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// GetTaskByUUID retrieves a task by its UUID.
func (r *MySQLTaskRepository) GetTaskByUUID(ctx context.Context, uuid string) (*model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM query_task WHERE tid = ?", uuid,
	)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// LockTask attempts to move a pending task to running.
func (r *MySQLTaskRepository) LockTask(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE query_task SET status = ?, begin_time = ? WHERE id = ? AND status = ?",
		model.TaskStatusRunning, time.Now(), id, model.TaskStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to lock task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read lock result: %w", err)
	}
	return affected == 1, nil
}

// CompleteTask marks a task completed and records its result key.
func (r *MySQLTaskRepository) CompleteTask(ctx context.Context, id int64, resultKey string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE query_task SET status = ?, result_key = ?, end_time = ? WHERE id = ?",
		model.TaskStatusCompleted, resultKey, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task not found: %d", id)
	}
	return nil
}

// FailTask marks a task failed with a diagnostic.
func (r *MySQLTaskRepository) FailTask(ctx context.Context, id int64, info string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE query_task SET status = ?, status_info = ?, end_time = ? WHERE id = ?",
		model.TaskStatusFailed, info, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to fail task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task not found: %d", id)
	}
	return nil
}
