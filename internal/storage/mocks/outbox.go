// Package mock_storage holds gomock mocks for the interfaces in ../outbox.go, kept in
// mockgen's layout. Regenerate with:
//
//	mockgen -source ./outbox.go -destination=./mocks/outbox.go -package=mock_storage
package mock_storage

import (
	context "context"
	reflect "reflect"
	time "time"

	uuid "github.com/google/uuid"
	db "gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/db"
	repository "gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/repository"
	gomock "go.uber.org/mock/gomock"
)

// MockOutboxTaskRepository is a mock of OutboxTaskRepository interface.
type MockOutboxTaskRepository struct {
	ctrl     *gomock.Controller
	recorder *MockOutboxTaskRepositoryMockRecorder
	isgomock struct{}
}

// MockOutboxTaskRepositoryMockRecorder is the mock recorder for MockOutboxTaskRepository.
type MockOutboxTaskRepositoryMockRecorder struct {
	mock *MockOutboxTaskRepository
}

// NewMockOutboxTaskRepository creates a new mock instance.
func NewMockOutboxTaskRepository(ctrl *gomock.Controller) *MockOutboxTaskRepository {
	mock := &MockOutboxTaskRepository{ctrl: ctrl}
	mock.recorder = &MockOutboxTaskRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockOutboxTaskRepository) EXPECT() *MockOutboxTaskRepositoryMockRecorder {
	return m.recorder
}

// CreateTx mocks base method.
func (m *MockOutboxTaskRepository) CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateTx", ctx, tx, task)
	ret0, _ := ret[0].(error)
	return ret0
}

// CreateTx indicates an expected call of CreateTx.
func (mr *MockOutboxTaskRepositoryMockRecorder) CreateTx(ctx, tx, task any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateTx", reflect.TypeOf((*MockOutboxTaskRepository)(nil).CreateTx), ctx, tx, task)
}

// DeleteDoneBefore mocks base method.
func (m *MockOutboxTaskRepository) DeleteDoneBefore(ctx context.Context, db db.DB, cutoff time.Time) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteDoneBefore", ctx, db, cutoff)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// DeleteDoneBefore indicates an expected call of DeleteDoneBefore.
func (mr *MockOutboxTaskRepositoryMockRecorder) DeleteDoneBefore(ctx, db, cutoff any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteDoneBefore", reflect.TypeOf((*MockOutboxTaskRepository)(nil).DeleteDoneBefore), ctx, db, cutoff)
}

// GetProcessableTasks mocks base method.
func (m *MockOutboxTaskRepository) GetProcessableTasks(ctx context.Context, tx db.Tx, limit int) ([]*repository.OutboxTask, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetProcessableTasks", ctx, tx, limit)
	ret0, _ := ret[0].([]*repository.OutboxTask)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetProcessableTasks indicates an expected call of GetProcessableTasks.
func (mr *MockOutboxTaskRepositoryMockRecorder) GetProcessableTasks(ctx, tx, limit any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetProcessableTasks", reflect.TypeOf((*MockOutboxTaskRepository)(nil).GetProcessableTasks), ctx, tx, limit)
}

// UpdateTaskStatus mocks base method.
func (m *MockOutboxTaskRepository) UpdateTaskStatus(ctx context.Context, db db.DB, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateTaskStatus", ctx, db, id, status, attempts, lastError, completedAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateTaskStatus indicates an expected call of UpdateTaskStatus.
func (mr *MockOutboxTaskRepositoryMockRecorder) UpdateTaskStatus(ctx, db, id, status, attempts, lastError, completedAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateTaskStatus", reflect.TypeOf((*MockOutboxTaskRepository)(nil).UpdateTaskStatus), ctx, db, id, status, attempts, lastError, completedAt)
}

// UpdateTaskStatusTx mocks base method.
func (m *MockOutboxTaskRepository) UpdateTaskStatusTx(ctx context.Context, tx db.Tx, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateTaskStatusTx", ctx, tx, id, status, attempts, lastError, completedAt)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateTaskStatusTx indicates an expected call of UpdateTaskStatusTx.
func (mr *MockOutboxTaskRepositoryMockRecorder) UpdateTaskStatusTx(ctx, tx, id, status, attempts, lastError, completedAt any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateTaskStatusTx", reflect.TypeOf((*MockOutboxTaskRepository)(nil).UpdateTaskStatusTx), ctx, tx, id, status, attempts, lastError, completedAt)
}
