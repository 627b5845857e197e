//go:generate mockgen -source ./outbox.go -destination=./mocks/outbox.go -package=mock_storage
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/repository"
)

type OutboxTaskRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error
	GetProcessableTasks(ctx context.Context, tx db.Tx, limit int) ([]*repository.OutboxTask, error)
	UpdateTaskStatusTx(ctx context.Context, tx db.Tx, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
	UpdateTaskStatus(ctx context.Context, db db.DB, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
	DeleteDoneBefore(ctx context.Context, db db.DB, cutoff time.Time) (int64, error)
}

// AuditStorage writes audit entries to the outbox; the publisher forwards
// them to Kafka.
type AuditStorage struct {
	db    db.DB
	repo  OutboxTaskRepository
	topic string
}

func NewAuditStorage(db db.DB, repo OutboxTaskRepository, topic string) *AuditStorage {
	return &AuditStorage{db: db, repo: repo, topic: topic}
}

// SaveBatch stores the whole batch in one transaction: either every entry
// gets an outbox task or none does.
func (s *AuditStorage) SaveBatch(ctx context.Context, entries []repository.AuditLogPayload) error {
	if len(entries) == 0 {
		return nil
	}

	tasks := make([]*repository.OutboxTask, 0, len(entries))
	for _, entry := range entries {
		task, err := repository.NewAuditTask(s.topic, entry)
		if err != nil {
			return err
		}
		tasks = append(tasks, task)
	}

	return db.WithTx(ctx, s.db, func(tx db.Tx) error {
		for _, task := range tasks {
			if err := s.repo.CreateTx(ctx, tx, task); err != nil {
				return err
			}
		}
		return nil
	})
}
