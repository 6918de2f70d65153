package ledgerqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/UziB26/leagueladder-sub002/app/eventbus"
	"github.com/UziB26/leagueladder-sub002/app/events"
	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/UziB26/leagueladder-sub002/app/shared/clock"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// Restorer re-runs a persisted backup restore.
type Restorer interface {
	RestorePending(ctx context.Context, opID uuid.UUID) error
	SweepStale(ctx context.Context, age time.Duration) (int, error)
}

// Auditor lists ratings whose games played differs from wins + losses + draws.
type Auditor interface {
	AuditRecords(ctx context.Context) ([]ledgerdb.PlayerRating, error)
}

// BackupRestoreWorker handles BackupRestoreJob.
type BackupRestoreWorker struct {
	river.WorkerDefaults[BackupRestoreJob]
	restorer Restorer
	logger   *slog.Logger
}

func NewBackupRestoreWorker(logger *slog.Logger, restorer Restorer) *BackupRestoreWorker {
	return &BackupRestoreWorker{restorer: restorer, logger: logger}
}

// Work returns the restore error so River retries with backoff.
func (w *BackupRestoreWorker) Work(ctx context.Context, job *river.Job[BackupRestoreJob]) error {
	logger := w.logger.With(
		attr.String("job_kind", job.Args.Kind()),
		attr.UUID("op_id", job.Args.OpID),
	)

	if err := w.restorer.RestorePending(ctx, job.Args.OpID); err != nil {
		logger.ErrorContext(ctx, "Backup restore attempt failed", attr.Error(err))
		return fmt.Errorf("restore %s: %w", job.Args.OpID, err)
	}

	logger.InfoContext(ctx, "Backup restore job completed")
	return nil
}

// LedgerAuditWorker handles LedgerAuditJob.
type LedgerAuditWorker struct {
	river.WorkerDefaults[LedgerAuditJob]
	restorer  Restorer
	auditor   Auditor
	publisher message.Publisher
	staleAge  time.Duration
	clock     clock.Clock
	logger    *slog.Logger
}

func NewLedgerAuditWorker(logger *slog.Logger, restorer Restorer, auditor Auditor, publisher message.Publisher, staleAge time.Duration, clk clock.Clock) *LedgerAuditWorker {
	if clk == nil {
		clk = clock.System{}
	}
	return &LedgerAuditWorker{
		restorer:  restorer,
		auditor:   auditor,
		publisher: publisher,
		staleAge:  staleAge,
		clock:     clk,
		logger:    logger,
	}
}

func (w *LedgerAuditWorker) Work(ctx context.Context, job *river.Job[LedgerAuditJob]) error {
	restored, sweepErr := w.restorer.SweepStale(ctx, w.staleAge)
	if sweepErr != nil {
		// Keep auditing; the failed backups are picked up by the next run.
		w.logger.WarnContext(ctx, "Some stale backups could not be restored", attr.Error(sweepErr))
	}

	rows, err := w.auditor.AuditRecords(ctx)
	if err != nil {
		return fmt.Errorf("audit records: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.PlayerID)
	}

	w.logger.InfoContext(ctx, "Ledger audit completed",
		attr.Int("inconsistent", len(ids)),
		attr.Int("stale_restored", restored),
	)

	if w.publisher == nil {
		return nil
	}
	err = eventbus.Publish(ctx, w.publisher, events.LedgerAuditV1, events.LedgerAuditPayload{
		Inconsistent:  ids,
		StaleRestored: restored,
		RanAt:         w.clock.Now(),
	})
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to publish ledger audit", attr.Error(err))
	}
	return nil
}
