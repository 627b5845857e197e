package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/logger"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/repository"
)

const groupID = "dashboard-audit-consumer-group"

func main() {
	config.LoadEnv()
	logCfg, kafkaCfg, err := config.LoadConsumer()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Configuration error:", err)
		os.Exit(1)
	}
	log := logger.New(logCfg.Level, logCfg.File)
	defer func() { _ = log.Sync() }()

	brokers := kafkaCfg.BrokerList()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          kafkaCfg.Topic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	defer func() {
		log.Info("Closing Kafka reader...")
		if err := r.Close(); err != nil {
			log.Error("Error closing Kafka reader", zap.Error(err))
		}
	}()

	log.Info("Consumer connected", zap.String("topic", kafkaCfg.Topic), zap.Strings("brokers", brokers))

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Info("Shutdown signal received, stopping consumer")
				return
			}
			log.Error("Error reading message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		var entry repository.AuditLogPayload
		if err := json.Unmarshal(m.Value, &entry); err != nil {
			log.Warn("Undecodable audit message",
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.ByteString("value", m.Value),
				zap.Error(err))
			continue
		}

		log.Info("Audit entry",
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.String("key", string(m.Key)),
			zap.Time("timestamp", entry.Timestamp),
			zap.String("action", entry.Action),
			zap.String("username", entry.Username),
			zap.String("store", entry.Store),
			zap.String("method", entry.Method),
			zap.String("path", entry.Path),
			zap.Int("status_code", entry.StatusCode),
			zap.String("entity_type", entry.EntityType),
			zap.String("entity_id", entry.EntityID),
		)
	}
}
