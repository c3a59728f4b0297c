// Package repository provides database abstraction for the boxquery service.
package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/boxquery/pkg/model"
)

// QueryTask represents the query_task table.
type QueryTask struct {
	ID         int64            `gorm:"column:id;primaryKey;autoIncrement"`
	TID        string           `gorm:"column:tid;type:varchar(64);uniqueIndex"`
	Kind       model.QueryKind  `gorm:"column:kind"`
	Status     model.TaskStatus `gorm:"column:status"`
	StatusInfo string           `gorm:"column:status_info;type:text"`
	TreeKey    string           `gorm:"column:tree_key;type:varchar(512)"`
	BallsKey   string           `gorm:"column:balls_key;type:varchar(512)"`
	ResultKey  string           `gorm:"column:result_key;type:varchar(512)"`
	CreateTime time.Time        `gorm:"column:create_time;autoCreateTime"`
	BeginTime  *time.Time       `gorm:"column:begin_time"`
	EndTime    *time.Time       `gorm:"column:end_time"`
}

// TableName returns the table name for QueryTask.
func (QueryTask) TableName() string {
	return "query_task"
}

// ToModel converts QueryTask to model.Task.
func (t *QueryTask) ToModel() *model.Task {
	return &model.Task{
		ID:         t.ID,
		TaskUUID:   t.TID,
		Kind:       t.Kind,
		Status:     t.Status,
		StatusInfo: t.StatusInfo,
		TreeKey:    t.TreeKey,
		BallsKey:   t.BallsKey,
		ResultKey:  t.ResultKey,
		CreateTime: t.CreateTime,
		BeginTime:  t.BeginTime,
		EndTime:    t.EndTime,
	}
}

// FromModel populates QueryTask from model.Task.
func (t *QueryTask) FromModel(task *model.Task) {
	t.ID = task.ID
	t.TID = task.TaskUUID
	t.Kind = task.Kind
	t.Status = task.Status
	t.StatusInfo = task.StatusInfo
	t.TreeKey = task.TreeKey
	t.BallsKey = task.BallsKey
	t.ResultKey = task.ResultKey
	t.CreateTime = task.CreateTime
	t.BeginTime = task.BeginTime
	t.EndTime = task.EndTime
}

// QueryResultRecord represents the query_results table. The CSR payload of a
// completed query is stored as a JSON document alongside the engine version
// that produced it.
type QueryResultRecord struct {
	ID      int64     `gorm:"column:id;primaryKey;autoIncrement"`
	TID     string    `gorm:"column:tid;type:varchar(64);uniqueIndex"`
	Result  JSONField `gorm:"column:result;type:json"`
	Version string    `gorm:"column:version;type:varchar(32)"`
}

// TableName returns the table name for QueryResultRecord.
func (QueryResultRecord) TableName() string {
	return "query_results"
}

// ToModel converts QueryResultRecord to model.Result.
func (r *QueryResultRecord) ToModel() (*model.Result, error) {
	var result model.Result
	if r.Result != nil {
		if err := json.Unmarshal(r.Result, &result); err != nil {
			return nil, err
		}
	}
	result.TaskUUID = r.TID
	result.Version = r.Version
	return &result, nil
}

// JSONField is a JSON column that survives both real JSON columns and the
// text columns sqlite falls back to.
type JSONField json.RawMessage

// Value implements driver.Valuer.
func (f JSONField) Value() (driver.Value, error) {
	if len(f) == 0 {
		return nil, nil
	}
	return []byte(f), nil
}

// Scan implements sql.Scanner.
func (f *JSONField) Scan(value interface{}) error {
	if value == nil {
		*f = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*f = append((*f)[:0], v...)
	case string:
		*f = JSONField(v)
	default:
		return errors.New("unsupported type for JSONField")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f JSONField) MarshalJSON() ([]byte, error) {
	if len(f) == 0 {
		return []byte("null"), nil
	}
	return f, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *JSONField) UnmarshalJSON(data []byte) error {
	*f = append((*f)[:0], data...)
	return nil
}
