package ledgerqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/UziB26/leagueladder-sub002/app/shared/observability"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

const (
	queueName   = "ledger"
	serviceName = "river"
)

// Config controls the ledger queue.
type Config struct {
	DSN           string
	AuditInterval time.Duration
	StaleAge      time.Duration
	MaxWorkers    int
}

var _ txguard.RetryScheduler = (*Service)(nil)

// Service runs the ledger background jobs on River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics observability.OperationMetrics
}

// NewService creates a River client with the backup restore and ledger audit
// workers registered.
func NewService(
	ctx context.Context,
	cfg Config,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	restorer Restorer,
	auditor Auditor,
	publisher message.Publisher,
) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_ledger_queue_service"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", serviceName)

	ctxLogger.Info("Initializing ledger queue service")

	pool, err := newPool(ctx, cfg.DSN)
	if err != nil {
		ctxLogger.Error("Failed to connect River pool", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, err
	}

	if cfg.AuditInterval <= 0 {
		cfg.AuditInterval = time.Hour
	}
	if cfg.StaleAge <= 0 {
		cfg.StaleAge = 10 * time.Minute
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 10
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewBackupRestoreWorker(ctxLogger, restorer))
	river.AddWorker(workers, NewLedgerAuditWorker(ctxLogger, restorer, auditor, publisher, cfg.StaleAge, nil))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.MaxWorkers},
			queueName:          {MaxWorkers: cfg.MaxWorkers},
		},
		Workers: workers,
		Logger:  logger,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(cfg.AuditInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return LedgerAuditJob{}, &river.InsertOpts{Queue: queueName}
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", serviceName)
	metrics.RecordOperationDuration(ctx, "initialize_service", serviceName, time.Since(start))

	ctxLogger.Info("Ledger queue service initialized successfully")
	return &Service{
		client:  riverClient,
		pool:    pool,
		logger:  ctxLogger,
		metrics: metrics,
	}, nil
}

func newPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Start starts processing jobs.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting ledger queue service")
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		return fmt.Errorf("failed to start River client: %w", err)
	}
	return nil
}

// Stop waits for running jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("Stopping ledger queue service")
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	return nil
}

// ScheduleRestore enqueues a restore retry. Duplicate requests for the same
// operation collapse into one job.
func (s *Service) ScheduleRestore(ctx context.Context, opID uuid.UUID) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_restore", serviceName)

	res, err := s.client.Insert(ctx, BackupRestoreJob{OpID: opID}, &river.InsertOpts{
		Queue:       queueName,
		MaxAttempts: 25,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "schedule_restore", serviceName)
		return fmt.Errorf("failed to schedule backup restore: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_restore", serviceName)
	s.metrics.RecordOperationDuration(ctx, "schedule_restore", serviceName, time.Since(start))

	s.logger.InfoContext(ctx, "Backup restore job scheduled",
		attr.UUID("op_id", opID),
		attr.Int64("job_id", res.Job.ID),
	)
	return nil
}

// HealthCheck pings the queue's pool.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("queue service health check failed: %w", err)
	}
	return nil
}

// Migrate applies River's own schema migrations.
func Migrate(ctx context.Context, dsn string) error {
	pool, err := newPool(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	return nil
}
