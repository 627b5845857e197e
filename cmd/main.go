package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/auth"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/cache"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/dispatch"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/grpcserver"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/kafka"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/logger"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/repository/postgresql"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/server"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/storage"
)

func main() {
	envFile, envFound := config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Configuration error:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.File)
	defer func() { _ = log.Sync() }()
	if envFound {
		log.Info("Loaded environment file", zap.String("path", envFile))
	} else {
		log.Warn("No .env file found, using process environment")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	upstream := dispatch.New(cfg.Upstream.APIURL, cfg.Upstream.DispatchKey, cfg.Upstream.Timeout, log)
	sessions := cache.NewSessionCache(log.With(zap.String("component", "session_cache")))
	go sessions.RunJanitor(ctx, 10*time.Minute)

	opts := server.Options{
		Upstream:  upstream,
		Issuer:    auth.NewIssuer(cfg.Session.JWTSecret, cfg.Session.TTL),
		Sessions:  sessions,
		StaticDir: cfg.HTTP.StaticDir,
		Logger:    log,
	}
	checks := map[string]grpcserver.Checker{"dispatch.api": upstream}

	var publisher *kafka.Publisher
	if cfg.DB.Enabled() {
		database, err := db.NewDb(ctx, cfg.DB.DSN())
		if err != nil {
			log.Fatal("Database init error", zap.Error(err))
		}
		defer database.Close()

		if err := db.EnsureSchema(ctx, database); err != nil {
			log.Fatal("Schema init error", zap.Error(err))
		}

		operators := postgresql.NewOperatorRepo(database)
		if cfg.Admin.Username != "" {
			created, err := operators.EnsureOperator(ctx, cfg.Admin.Username, cfg.Admin.Password)
			if err != nil {
				log.Fatal("Operator init error", zap.Error(err))
			}
			if created {
				log.Info("Created ops operator", zap.String("username", cfg.Admin.Username))
			}
		}

		sessionRepo := postgresql.NewSessionRepo(database)
		opts.SessionStore = sessionRepo
		go purgeSessions(ctx, sessionRepo, time.Hour, log)

		outbox := postgresql.NewOutboxTaskRepo()
		opts.Operators = operators
		opts.AuditSink = storage.NewAuditStorage(database, outbox, cfg.Kafka.Topic)
		checks["postgres"] = database

		var producer kafka.Producer
		if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
			producer = kafka.NewKafkaProducer(brokers, log)
		} else {
			producer = kafka.NewConsoleProducer(log)
		}
		publisher = kafka.NewPublisher(database, outbox, producer, kafka.PublisherConfig{
			PollInterval: 2 * time.Second,
			BatchSize:    50,
			MaxAttempts:  postgresql.MaxAttempts,
			Retention:    7 * 24 * time.Hour,
		}, log)
		go publisher.Run(ctx)
	} else {
		log.Info("No database configured, audit entries go to the log")
	}

	var health *grpcserver.Server
	if cfg.HTTP.GRPCHealthPort > 0 {
		lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.HTTP.GRPCHealthPort))
		if err != nil {
			log.Fatal("gRPC health listen error", zap.Error(err))
		}
		health = grpcserver.NewServer(checks, 30*time.Second, log)
		go health.Run(ctx)
		go func() {
			if err := health.Serve(lis); err != nil {
				log.Error("gRPC health server stopped", zap.Error(err))
			}
		}()
	}

	srv := server.New(opts)
	if err := srv.Run(ctx, cfg.HTTP.Port); err != nil {
		log.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if health != nil {
		health.Stop()
	}
	if publisher != nil {
		publisher.Shutdown(shutdownCtx)
	}
	log.Info("Server gracefully stopped")
}

// purgeSessions drops persisted sessions whose token has expired.
func purgeSessions(ctx context.Context, repo *postgresql.SessionRepo, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := repo.DeleteExpired(ctx, now)
			if err != nil {
				log.Error("Failed to purge sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("Purged expired sessions", zap.Int64("count", n))
			}
		}
	}
}
