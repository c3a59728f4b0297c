// Package mock provides testify-based mocks of the service interfaces.
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/boxquery/pkg/model"
)

// MockTaskRepository is a mock implementation of the TaskRepository interface.
type MockTaskRepository struct {
	mock.Mock
}

// CreateTask mocks the CreateTask method.
func (m *MockTaskRepository) CreateTask(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

// GetPendingTasks mocks the GetPendingTasks method.
func (m *MockTaskRepository) GetPendingTasks(ctx context.Context, limit int) ([]*model.Task, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Task), args.Error(1)
}

// GetTaskByUUID mocks the GetTaskByUUID method.
func (m *MockTaskRepository) GetTaskByUUID(ctx context.Context, uuid string) (*model.Task, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

// LockTask mocks the LockTask method.
func (m *MockTaskRepository) LockTask(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// CompleteTask mocks the CompleteTask method.
func (m *MockTaskRepository) CompleteTask(ctx context.Context, id int64, resultKey string) error {
	args := m.Called(ctx, id, resultKey)
	return args.Error(0)
}

// FailTask mocks the FailTask method.
func (m *MockTaskRepository) FailTask(ctx context.Context, id int64, info string) error {
	args := m.Called(ctx, id, info)
	return args.Error(0)
}

// ExpectGetPendingTasks sets up an expectation for GetPendingTasks.
func (m *MockTaskRepository) ExpectGetPendingTasks(limit int, tasks []*model.Task, err error) *mock.Call {
	return m.On("GetPendingTasks", mock.Anything, limit).Return(tasks, err)
}

// ExpectLockTask sets up an expectation for LockTask.
func (m *MockTaskRepository) ExpectLockTask(id int64, success bool, err error) *mock.Call {
	return m.On("LockTask", mock.Anything, id).Return(success, err)
}

// ExpectCompleteTask sets up an expectation for CompleteTask.
func (m *MockTaskRepository) ExpectCompleteTask(id int64, err error) *mock.Call {
	return m.On("CompleteTask", mock.Anything, id, mock.Anything).Return(err)
}

// ExpectFailTask sets up an expectation for FailTask.
func (m *MockTaskRepository) ExpectFailTask(id int64, err error) *mock.Call {
	return m.On("FailTask", mock.Anything, id, mock.Anything).Return(err)
}

// MockResultRepository is a mock implementation of the ResultRepository interface.
type MockResultRepository struct {
	mock.Mock
}

// SaveResult mocks the SaveResult method.
func (m *MockResultRepository) SaveResult(ctx context.Context, result *model.Result) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

// GetResultByTaskUUID mocks the GetResultByTaskUUID method.
func (m *MockResultRepository) GetResultByTaskUUID(ctx context.Context, taskUUID string) (*model.Result, error) {
	args := m.Called(ctx, taskUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Result), args.Error(1)
}

// ExpectSaveResult sets up an expectation for SaveResult.
func (m *MockResultRepository) ExpectSaveResult(err error) *mock.Call {
	return m.On("SaveResult", mock.Anything, mock.Anything).Return(err)
}
