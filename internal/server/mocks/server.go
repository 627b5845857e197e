// Package mock_server holds gomock mocks for the interfaces in ../server.go, kept in
// mockgen's layout. Regenerate with:
//
//	mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package mock_server

import (
	context "context"
	reflect "reflect"

	access "gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/access"
	repository "gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/repository"
	gomock "go.uber.org/mock/gomock"
)

// MockOperatorRepo is a mock of OperatorRepo interface.
type MockOperatorRepo struct {
	ctrl     *gomock.Controller
	recorder *MockOperatorRepoMockRecorder
	isgomock struct{}
}

// MockOperatorRepoMockRecorder is the mock recorder for MockOperatorRepo.
type MockOperatorRepoMockRecorder struct {
	mock *MockOperatorRepo
}

// NewMockOperatorRepo creates a new mock instance.
func NewMockOperatorRepo(ctrl *gomock.Controller) *MockOperatorRepo {
	mock := &MockOperatorRepo{ctrl: ctrl}
	mock.recorder = &MockOperatorRepoMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockOperatorRepo) EXPECT() *MockOperatorRepoMockRecorder {
	return m.recorder
}

// ValidateOperator mocks base method.
func (m *MockOperatorRepo) ValidateOperator(ctx context.Context, username, password string) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ValidateOperator", ctx, username, password)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ValidateOperator indicates an expected call of ValidateOperator.
func (mr *MockOperatorRepoMockRecorder) ValidateOperator(ctx, username, password any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ValidateOperator", reflect.TypeOf((*MockOperatorRepo)(nil).ValidateOperator), ctx, username, password)
}

// MockAuditSink is a mock of AuditSink interface.
type MockAuditSink struct {
	ctrl     *gomock.Controller
	recorder *MockAuditSinkMockRecorder
	isgomock struct{}
}

// MockAuditSinkMockRecorder is the mock recorder for MockAuditSink.
type MockAuditSinkMockRecorder struct {
	mock *MockAuditSink
}

// NewMockAuditSink creates a new mock instance.
func NewMockAuditSink(ctrl *gomock.Controller) *MockAuditSink {
	mock := &MockAuditSink{ctrl: ctrl}
	mock.recorder = &MockAuditSinkMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockAuditSink) EXPECT() *MockAuditSinkMockRecorder {
	return m.recorder
}

// SaveBatch mocks base method.
func (m *MockAuditSink) SaveBatch(ctx context.Context, entries []repository.AuditLogPayload) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SaveBatch", ctx, entries)
	ret0, _ := ret[0].(error)
	return ret0
}

// SaveBatch indicates an expected call of SaveBatch.
func (mr *MockAuditSinkMockRecorder) SaveBatch(ctx, entries any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SaveBatch", reflect.TypeOf((*MockAuditSink)(nil).SaveBatch), ctx, entries)
}

// MockSessionStore is a mock of SessionStore interface.
type MockSessionStore struct {
	ctrl     *gomock.Controller
	recorder *MockSessionStoreMockRecorder
	isgomock struct{}
}

// MockSessionStoreMockRecorder is the mock recorder for MockSessionStore.
type MockSessionStoreMockRecorder struct {
	mock *MockSessionStore
}

// NewMockSessionStore creates a new mock instance.
func NewMockSessionStore(ctrl *gomock.Controller) *MockSessionStore {
	mock := &MockSessionStore{ctrl: ctrl}
	mock.recorder = &MockSessionStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSessionStore) EXPECT() *MockSessionStoreMockRecorder {
	return m.recorder
}

// Load mocks base method.
func (m *MockSessionStore) Load(ctx context.Context, id string) (*access.Session, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Load", ctx, id)
	ret0, _ := ret[0].(*access.Session)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Load indicates an expected call of Load.
func (mr *MockSessionStoreMockRecorder) Load(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Load", reflect.TypeOf((*MockSessionStore)(nil).Load), ctx, id)
}

// Revoke mocks base method.
func (m *MockSessionStore) Revoke(ctx context.Context, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Revoke", ctx, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// Revoke indicates an expected call of Revoke.
func (mr *MockSessionStoreMockRecorder) Revoke(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Revoke", reflect.TypeOf((*MockSessionStore)(nil).Revoke), ctx, id)
}

// Save mocks base method.
func (m *MockSessionStore) Save(ctx context.Context, s *access.Session) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Save", ctx, s)
	ret0, _ := ret[0].(error)
	return ret0
}

// Save indicates an expected call of Save.
func (mr *MockSessionStoreMockRecorder) Save(ctx, s any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Save", reflect.TypeOf((*MockSessionStore)(nil).Save), ctx, s)
}
