package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boxquery/pkg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository implements TaskRepository using GORM.
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GormTaskRepository.
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// CreateTask inserts a new pending task.
func (r *GormTaskRepository) CreateTask(ctx context.Context, task *model.Task) error {
	var record QueryTask
	record.FromModel(task)
	record.ID = 0
	record.Status = model.TaskStatusPending

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	task.ID = record.ID
	task.Status = record.Status
	task.CreateTime = record.CreateTime
	return nil
}

// GetPendingTasks retrieves tasks that are waiting to be processed.
func (r *GormTaskRepository) GetPendingTasks(ctx context.Context, limit int) ([]*model.Task, error) {
	var tasks []QueryTask

	err := r.db.WithContext(ctx).
		Where("status = ?", model.TaskStatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&tasks).Error

	if err != nil {
		return nil, fmt.Errorf("failed to query pending tasks: %w", err)
	}

	result := make([]*model.Task, len(tasks))
	for i, t := range tasks {
		result[i] = t.ToModel()
	}

	return result, nil
}

// GetTaskByUUID retrieves a task by its UUID.
func (r *GormTaskRepository) GetTaskByUUID(ctx context.Context, uuid string) (*model.Task, error) {
	var task QueryTask

	err := r.db.WithContext(ctx).Where("tid = ?", uuid).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task.ToModel(), nil
}

// LockTask attempts to move a pending task to running. The guarded update
// makes the transition atomic: only one worker sees RowsAffected == 1.
func (r *GormTaskRepository) LockTask(ctx context.Context, id int64) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&QueryTask{}).
		Where("id = ? AND status = ?", id, model.TaskStatusPending).
		Updates(map[string]interface{}{
			"status":     model.TaskStatusRunning,
			"begin_time": now,
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to lock task: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// CompleteTask marks a task completed and records its result key.
func (r *GormTaskRepository) CompleteTask(ctx context.Context, id int64, resultKey string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&QueryTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.TaskStatusCompleted,
			"result_key": resultKey,
			"end_time":   now,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to complete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task not found: %d", id)
	}
	return nil
}

// FailTask marks a task failed with a diagnostic.
func (r *GormTaskRepository) FailTask(ctx context.Context, id int64, info string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&QueryTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.TaskStatusFailed,
			"status_info": info,
			"end_time":    now,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to fail task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task not found: %d", id)
	}
	return nil
}

// GormResultRepository implements ResultRepository using GORM.
type GormResultRepository struct {
	db      *gorm.DB
	version string
}

// NewGormResultRepository creates a new GormResultRepository.
func NewGormResultRepository(db *gorm.DB, version string) *GormResultRepository {
	return &GormResultRepository{db: db, version: version}
}

// SaveResult saves a query result, replacing any earlier result for the
// same task.
func (r *GormResultRepository) SaveResult(ctx context.Context, result *model.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	record := QueryResultRecord{
		TID:     result.TaskUUID,
		Result:  JSONField(payload),
		Version: r.version,
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tid"}},
			DoUpdates: clause.AssignmentColumns([]string{"result", "version"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// GetResultByTaskUUID retrieves the query result for a task.
func (r *GormResultRepository) GetResultByTaskUUID(ctx context.Context, taskUUID string) (*model.Result, error) {
	var record QueryResultRecord

	err := r.db.WithContext(ctx).Where("tid = ?", taskUUID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("result not found: %s", taskUUID)
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return record.ToModel()
}
