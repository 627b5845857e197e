package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/metrics"
)

const sinkTimeout = 5 * time.Second

// AuditManager batches audit entries and hands each batch to the sink from
// a small worker pool. Entries that cannot be queued are logged instead.
type AuditManager struct {
	workerCount int
	batchSize   int
	timeout     time.Duration
	sink        AuditSink
	logger      *zap.Logger

	inputChan  chan AuditLogEntry
	batchChan  chan []AuditLogEntry
	shutdownCh chan struct{}
	once       sync.Once

	// closeMu orders LogEntry sends before the shutdown signal, so the
	// aggregator's final drain sees every accepted entry.
	closeMu sync.RWMutex
	closed  bool

	wg      sync.WaitGroup
	pending atomic.Int64
}

func NewAuditManager(workerCount, batchSize int, timeout time.Duration, sink AuditSink, logger *zap.Logger) *AuditManager {
	return &AuditManager{
		workerCount: workerCount,
		batchSize:   batchSize,
		timeout:     timeout,
		sink:        sink,
		logger:      logger.With(zap.String("component", "audit_manager")),
		inputChan:   make(chan AuditLogEntry, workerCount*batchSize*2),
		batchChan:   make(chan []AuditLogEntry, workerCount*2),
		shutdownCh:  make(chan struct{}),
	}
}

func (m *AuditManager) Start(ctx context.Context) {
	m.logger.Info("Starting AuditManager", zap.Int("workers", m.workerCount), zap.Int("batch_size", m.batchSize))
	m.wg.Add(1)
	go m.runAggregator()

	for i := 0; i < m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(i)
	}

	go m.monitorShutdown(ctx)
}

// Shutdown stops the aggregator, flushes the pending batch and waits for
// the workers until ctx expires.
func (m *AuditManager) Shutdown(ctx context.Context) {
	m.once.Do(func() {
		m.logger.Info("Initiating AuditManager shutdown")
		m.closeMu.Lock()
		m.closed = true
		close(m.shutdownCh)
		m.closeMu.Unlock()

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			m.logger.Info("AuditManager shutdown completed")
		case <-ctx.Done():
			m.logger.Warn("AuditManager shutdown interrupted", zap.Int("pending", m.Pending()))
		}
	})
}

func (m *AuditManager) monitorShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
		m.logger.Debug("Context cancellation detected")
		m.Shutdown(context.Background())
	case <-m.shutdownCh:
	}
}

// LogEntry queues entry for the sink. After Shutdown, or when ctx ends
// before the queue has room, the entry is logged instead.
func (m *AuditManager) LogEntry(ctx context.Context, entry AuditLogEntry) {
	m.pending.Add(1)

	m.closeMu.RLock()
	defer m.closeMu.RUnlock()
	if m.closed {
		m.emergencyLog(entry)
		return
	}
	select {
	case m.inputChan <- entry:
	case <-ctx.Done():
		m.emergencyLog(entry)
	}
}

// Pending counts entries accepted by LogEntry that the sink has not seen yet.
func (m *AuditManager) Pending() int {
	return int(m.pending.Load())
}

// runAggregator runs until Shutdown; a cancelled Start context reaches it
// through monitorShutdown.
func (m *AuditManager) runAggregator() {
	defer m.wg.Done()
	m.logger.Debug("Aggregator started")

	var (
		batch    []AuditLogEntry
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		batch = m.drainInput(batch)
		if len(batch) > 0 {
			m.dispatchBatch(batch)
		}
		close(m.batchChan)
	}()

	for {
		select {
		case entry := <-m.inputChan:
			batch = append(batch, entry)
			if len(batch) >= m.batchSize {
				m.dispatchBatch(batch)
				batch = nil
				timeoutC = nil
			} else if len(batch) == 1 {
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(m.timeout)
				timeoutC = timer.C
			}

		case <-timeoutC:
			m.dispatchBatch(batch)
			batch = nil
			timeoutC = nil

		case <-m.shutdownCh:
			return
		}
	}
}

// drainInput collects entries that were queued before shutdown.
func (m *AuditManager) drainInput(batch []AuditLogEntry) []AuditLogEntry {
	for {
		select {
		case entry := <-m.inputChan:
			batch = append(batch, entry)
		default:
			return batch
		}
	}
}

func (m *AuditManager) dispatchBatch(batch []AuditLogEntry) {
	batchCopy := make([]AuditLogEntry, len(batch))
	copy(batchCopy, batch)

	select {
	case m.batchChan <- batchCopy:
	default:
		m.saveBatch(-1, batchCopy)
	}
}

func (m *AuditManager) runWorker(id int) {
	defer m.wg.Done()
	m.logger.Debug("Worker started", zap.Int("worker_id", id))

	for batch := range m.batchChan {
		m.saveBatch(id, batch)
	}
	m.logger.Debug("Worker exiting", zap.Int("worker_id", id))
}

func (m *AuditManager) saveBatch(workerID int, batch []AuditLogEntry) {
	defer m.pending.Add(-int64(len(batch)))

	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	if err := m.sink.SaveBatch(ctx, batch); err != nil {
		m.logger.Error("Failed to save audit batch",
			zap.Int("worker_id", workerID),
			zap.Int("batch_size", len(batch)),
			zap.Error(err))
		for _, entry := range batch {
			m.logDropped(entry)
		}
		return
	}
	metrics.AuditEntriesQueuedTotal.Add(float64(len(batch)))
}

func (m *AuditManager) emergencyLog(entry AuditLogEntry) {
	m.logDropped(entry)
	m.pending.Add(-1)
}

func (m *AuditManager) logDropped(entry AuditLogEntry) {
	m.logger.Warn("Audit entry not persisted",
		zap.Time("timestamp", entry.Timestamp),
		zap.String("action", entry.Action),
		zap.String("username", entry.Username),
		zap.String("method", entry.Method),
		zap.String("path", entry.Path),
		zap.Int("status_code", entry.StatusCode),
	)
}

