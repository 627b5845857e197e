package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/storage"
)

// MaxAttempts bounds how often a failed task is picked up again.
const MaxAttempts = 5

const (
	insertTaskQuery = `INSERT INTO outbox_tasks (id, status, payload, topic, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)`

	// Row locks hold until the surrounding transaction ends.
	claimTasksQuery = `SELECT id, status, payload, topic, attempts, last_error, created_at, updated_at, completed_at
FROM outbox_tasks
WHERE status = $1 OR (status = $2 AND attempts < $3)
ORDER BY updated_at
LIMIT $4
FOR UPDATE SKIP LOCKED`

	updateTaskQuery = `UPDATE outbox_tasks
SET status = $2, attempts = $3, last_error = $4, completed_at = $5, updated_at = now()
WHERE id = $1`

	purgeTasksQuery = `DELETE FROM outbox_tasks WHERE status = $1 AND completed_at < $2`
)

type execer interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
}

type OutboxTaskRepo struct {
}

func NewOutboxTaskRepo() storage.OutboxTaskRepository {
	return &OutboxTaskRepo{}
}

func (r *OutboxTaskRepo) CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	now := time.Now().UTC()
	task.Status = repository.TaskStatusCreated
	task.CreatedAt, task.UpdatedAt = now, now

	if _, err := tx.Exec(ctx, insertTaskQuery, task.ID, task.Status, task.Payload, task.Topic, now); err != nil {
		return fmt.Errorf("failed to insert outbox task: %w", err)
	}
	return nil
}

// GetProcessableTasks locks up to limit new or retryable audit tasks, oldest
// first. Tasks locked by another publisher are skipped.
func (r *OutboxTaskRepo) GetProcessableTasks(ctx context.Context, tx db.Tx, limit int) ([]*repository.OutboxTask, error) {
	var tasks []*repository.OutboxTask
	err := tx.Select(ctx, &tasks, claimTasksQuery, repository.TaskStatusCreated, repository.TaskStatusFailed, MaxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get processable outbox tasks: %w", err)
	}
	return tasks, nil
}

func (r *OutboxTaskRepo) updateStatus(ctx context.Context, ex execer, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error {
	tag, err := ex.Exec(ctx, updateTaskQuery, id, status, attempts, lastError, completedAt)
	if err != nil {
		return fmt.Errorf("failed to update outbox task status for id %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *OutboxTaskRepo) UpdateTaskStatusTx(ctx context.Context, tx db.Tx, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error {
	return r.updateStatus(ctx, tx, id, status, attempts, lastError, completedAt)
}

func (r *OutboxTaskRepo) UpdateTaskStatus(ctx context.Context, db db.DB, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error {
	return r.updateStatus(ctx, db, id, status, attempts, lastError, completedAt)
}

// DeleteDoneBefore removes published tasks completed before cutoff.
func (r *OutboxTaskRepo) DeleteDoneBefore(ctx context.Context, db db.DB, cutoff time.Time) (int64, error) {
	tag, err := db.Exec(ctx, purgeTasksQuery, repository.TaskStatusDone, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete done outbox tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}
