package storage_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/db"
	mock_database "gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/db/mocks"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/storage"
	mock_storage "gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/storage/mocks"
)

func entries() []repository.AuditLogPayload {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return []repository.AuditLogPayload{
		{Timestamp: now, Username: "marie", Method: "POST", Path: "/api/users", Handler: "createUser", StatusCode: 201, Action: "create", EntityType: "user"},
		{Timestamp: now, Username: "marie", Method: "DELETE", Path: "/api/clients/12", Handler: "deleteClient", StatusCode: 204, Action: "delete", EntityID: "12", EntityType: "client"},
	}
}

func TestAuditStorage_SaveBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		mockTx := mock_database.NewMockTx(ctrl)
		repo := mock_storage.NewMockOutboxTaskRepository(ctrl)

		var topics []string
		var payloads []repository.AuditLogPayload
		mockDB.EXPECT().BeginTx(gomock.Any()).Return(mockTx, nil)
		repo.EXPECT().CreateTx(gomock.Any(), mockTx, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ db.Tx, task *repository.OutboxTask) error {
				topics = append(topics, task.Topic)
				var p repository.AuditLogPayload
				require.NoError(t, json.Unmarshal(task.Payload, &p))
				payloads = append(payloads, p)
				return nil
			}).Times(2)
		mockTx.EXPECT().Commit(gomock.Any()).Return(nil)

		err := storage.NewAuditStorage(mockDB, repo, "dashboard_audit").SaveBatch(ctx, entries())
		require.NoError(t, err)
		assert.Equal(t, []string{"dashboard_audit", "dashboard_audit"}, topics)
		assert.Equal(t, "12", payloads[1].EntityID)
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		mockTx := mock_database.NewMockTx(ctrl)
		repo := mock_storage.NewMockOutboxTaskRepository(ctrl)

		expectedErr := errors.New("insert failed")
		mockDB.EXPECT().BeginTx(gomock.Any()).Return(mockTx, nil)
		repo.EXPECT().CreateTx(gomock.Any(), mockTx, gomock.Any()).Return(expectedErr)
		mockTx.EXPECT().Rollback(gomock.Any()).Return(nil)

		err := storage.NewAuditStorage(mockDB, repo, "t").SaveBatch(ctx, entries())
		assert.ErrorIs(t, err, expectedErr)
	})

	t.Run("begin failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := mock_storage.NewMockOutboxTaskRepository(ctrl)

		mockDB.EXPECT().BeginTx(gomock.Any()).Return(nil, errors.New("no connection"))

		err := storage.NewAuditStorage(mockDB, repo, "t").SaveBatch(ctx, entries())
		assert.Error(t, err)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := mock_storage.NewMockOutboxTaskRepository(ctrl)

		assert.NoError(t, storage.NewAuditStorage(mockDB, repo, "t").SaveBatch(ctx, nil))
	})
}
