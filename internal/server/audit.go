package server

import (
	"context"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/repository"
)

type AuditLogEntry = repository.AuditLogPayload

type auditEntryKey struct{}

func withAuditEntry(ctx context.Context, e *AuditLogEntry) context.Context {
	return context.WithValue(ctx, auditEntryKey{}, e)
}

func auditEntryFrom(ctx context.Context) *AuditLogEntry {
	e, _ := ctx.Value(auditEntryKey{}).(*AuditLogEntry)
	return e
}

// auditEntity tags the audited request with what it acted on.
func auditEntity(ctx context.Context, action, entityType, entityID string) {
	if e := auditEntryFrom(ctx); e != nil {
		e.Action = action
		e.EntityType = entityType
		e.EntityID = entityID
	}
}

// LogSink writes audit batches to the application log. It is used when no
// database is configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.With(zap.String("component", "audit"))}
}

func (s *LogSink) SaveBatch(_ context.Context, entries []repository.AuditLogPayload) error {
	for _, e := range entries {
		s.logger.Info("Audit",
			zap.Time("timestamp", e.Timestamp),
			zap.String("action", e.Action),
			zap.String("username", e.Username),
			zap.String("store", e.Store),
			zap.String("method", e.Method),
			zap.String("path", e.Path),
			zap.String("handler", e.Handler),
			zap.Int("status_code", e.StatusCode),
			zap.String("entity_type", e.EntityType),
			zap.String("entity_id", e.EntityID),
		)
	}
	return nil
}
