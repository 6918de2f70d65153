package txguard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Section is one group of rows captured before a guarded mutation and put
// back if the mutation fails. Implementations must be JSON-serialisable so a
// failed restore can be retried from the persisted backup.
type Section interface {
	// Kind names the section type for decoding persisted backups.
	Kind() string
	// Capture reads the current rows.
	Capture(ctx context.Context, db bun.IDB) error
	// Restore writes the captured rows back, touching only rows whose last
	// writer was opID. It must be safe to run more than once.
	Restore(ctx context.Context, db bun.IDB, opID uuid.UUID) error
}

// UnitFunc is the body of a guarded operation. Every row it writes must be
// stamped with opID.
type UnitFunc func(ctx context.Context, db bun.IDB, opID uuid.UUID) error

// RetryScheduler queues a restore that failed for a later attempt.
type RetryScheduler interface {
	ScheduleRestore(ctx context.Context, opID uuid.UUID) error
}

// Coordinator runs multi-row mutations atomically and restores the captured
// sections when a mutation fails.
type Coordinator struct {
	db     *bun.DB
	store  Store
	logger *slog.Logger
	tracer trace.Tracer

	mu        sync.RWMutex
	factories map[string]func() Section
	retry     RetryScheduler
}

// NewCoordinator creates a Coordinator. db and store may be nil, in which case
// units run without a transaction and backups are kept in memory only.
func NewCoordinator(db *bun.DB, store Store, logger *slog.Logger, tracer trace.Tracer) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("txguard")
	}
	return &Coordinator{
		db:        db,
		store:     store,
		logger:    logger,
		tracer:    tracer,
		factories: make(map[string]func() Section),
	}
}

// Register makes a section kind decodable from persisted backups.
func (c *Coordinator) Register(kind string, factory func() Section) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[kind] = factory
}

// SetRetryScheduler installs the scheduler used when a restore fails.
func (c *Coordinator) SetRetryScheduler(r RetryScheduler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retry = r
}

func (c *Coordinator) conn() bun.IDB {
	if c.db == nil {
		return nil
	}
	return c.db
}

// Execute captures sections, runs fn in a single transaction and, if fn
// fails, restores the sections before returning. The backup row is removed
// inside that transaction, so a committed unit never leaves one behind.
// Domain errors returned by fn are passed through unchanged; anything else
// comes back as a storage error.
func (c *Coordinator) Execute(ctx context.Context, operation string, sections []Section, fn UnitFunc) error {
	opID := uuid.New()

	ctx, span := c.tracer.Start(ctx, "txguard."+operation, trace.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("op_id", opID.String()),
	))
	defer span.End()

	logger := c.logger.With(
		attr.ExtractCorrelationID(ctx),
		attr.String("operation", operation),
		attr.UUID("op_id", opID),
	)

	for _, s := range sections {
		if err := s.Capture(ctx, c.conn()); err != nil {
			span.RecordError(err)
			return apperrors.Storage(operation, fmt.Errorf("capture %s: %w", s.Kind(), err))
		}
	}

	payload, err := encodeSections(sections)
	if err != nil {
		return apperrors.Storage(operation, err)
	}

	if c.store != nil {
		backup := &Backup{OpID: opID, Operation: operation, Sections: payload, Status: BackupPending}
		if err := c.store.Save(ctx, c.conn(), backup); err != nil {
			span.RecordError(err)
			return apperrors.Storage(operation, err)
		}
	}

	unitErr := c.runUnit(ctx, opID, fn)
	if unitErr == nil {
		return nil
	}
	span.RecordError(unitErr)

	// The restore must run even when the caller's context is what failed.
	restoreCtx := context.WithoutCancel(ctx)
	if rErr := c.restoreSections(restoreCtx, opID, sections); rErr != nil {
		logger.ErrorContext(ctx, "Backup restore failed, scheduling retry",
			attr.Error(rErr),
			attr.String("unit_error", unitErr.Error()),
		)
		c.restoreFailed(restoreCtx, logger, opID, rErr)
	} else {
		c.discard(restoreCtx, logger, opID)
	}

	if apperrors.IsDomain(unitErr) {
		return unitErr
	}

	logger.ErrorContext(ctx, "Guarded operation failed", attr.Error(unitErr))
	return apperrors.Storage(operation, unitErr)
}

func (c *Coordinator) runUnit(ctx context.Context, opID uuid.UUID, fn UnitFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in guarded unit: %v", r)
		}
	}()

	if c.db == nil {
		if err := fn(ctx, nil, opID); err != nil {
			return err
		}
		return c.release(ctx, nil, opID)
	}
	return c.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// Deleting first holds the backup row lock for the whole unit: a
		// concurrent RestorePending waits and then finds nothing on commit.
		if err := c.release(ctx, tx, opID); err != nil {
			return err
		}
		return fn(ctx, tx, opID)
	})
}

// release removes the backup of a unit as part of the unit itself.
func (c *Coordinator) release(ctx context.Context, db bun.IDB, opID uuid.UUID) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Delete(ctx, db, opID); err != nil {
		return fmt.Errorf("release backup: %w", err)
	}
	return nil
}

func (c *Coordinator) inTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	if c.db == nil {
		return fn(ctx, nil)
	}
	return c.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

func restoreAll(ctx context.Context, db bun.IDB, opID uuid.UUID, sections []Section) error {
	for i := len(sections) - 1; i >= 0; i-- {
		if err := sections[i].Restore(ctx, db, opID); err != nil {
			return fmt.Errorf("restore %s: %w", sections[i].Kind(), err)
		}
	}
	return nil
}

func (c *Coordinator) restoreSections(ctx context.Context, opID uuid.UUID, sections []Section) error {
	return c.inTx(ctx, func(ctx context.Context, db bun.IDB) error {
		return restoreAll(ctx, db, opID, sections)
	})
}

func (c *Coordinator) discard(ctx context.Context, logger *slog.Logger, opID uuid.UUID) {
	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, c.conn(), opID); err != nil {
		logger.WarnContext(ctx, "Failed to discard backup", attr.Error(err))
	}
}

func (c *Coordinator) restoreFailed(ctx context.Context, logger *slog.Logger, opID uuid.UUID, cause error) {
	if c.store != nil {
		if err := c.store.MarkRestoreFailed(ctx, c.conn(), opID, cause.Error()); err != nil {
			logger.ErrorContext(ctx, "Failed to mark backup for retry", attr.Error(err))
		}
	}

	c.mu.RLock()
	retry := c.retry
	c.mu.RUnlock()
	if retry == nil {
		return
	}
	if err := retry.ScheduleRestore(ctx, opID); err != nil {
		logger.ErrorContext(ctx, "Failed to schedule backup restore", attr.Error(err))
	}
}

// RestorePending re-runs the restore of a persisted backup. The backup row is
// locked for the duration, so a unit still running on the same op id is
// waited for. A missing backup means the unit committed or the restore
// already completed, so it returns nil.
func (c *Coordinator) RestorePending(ctx context.Context, opID uuid.UUID) error {
	if c.store == nil {
		return nil
	}

	logger := c.logger.With(attr.UUID("op_id", opID))

	var operation string
	err := c.inTx(ctx, func(ctx context.Context, db bun.IDB) error {
		backup, err := c.store.Lock(ctx, db, opID)
		if err != nil {
			return err
		}
		operation = backup.Operation

		sections, err := c.decode(backup.Sections)
		if err != nil {
			return err
		}
		if err := restoreAll(ctx, db, opID, sections); err != nil {
			return err
		}
		return c.store.Delete(ctx, db, opID)
	})
	if errors.Is(err, ErrBackupNotFound) {
		return nil
	}
	if err != nil {
		if mErr := c.store.MarkRestoreFailed(ctx, c.conn(), opID, err.Error()); mErr != nil {
			logger.ErrorContext(ctx, "Failed to record restore attempt", attr.Error(mErr))
		}
		return err
	}

	logger.InfoContext(ctx, "Backup restored", attr.String("operation", operation))
	return nil
}

// SweepStale restores every backup older than the given age. A backup only
// outlives its unit when the unit did not commit, so the restore never undoes
// committed rows.
func (c *Coordinator) SweepStale(ctx context.Context, age time.Duration) (int, error) {
	if c.store == nil {
		return 0, nil
	}

	backups, err := c.store.ListStale(ctx, c.conn(), time.Now().UTC().Add(-age), 100)
	if err != nil {
		return 0, err
	}

	var errs []error
	restored := 0
	for _, b := range backups {
		if err := c.RestorePending(ctx, b.OpID); err != nil {
			errs = append(errs, fmt.Errorf("op %s: %w", b.OpID, err))
			continue
		}
		restored++
	}
	return restored, errors.Join(errs...)
}

func (c *Coordinator) decode(raw json.RawMessage) ([]Section, error) {
	var encoded []encodedSection
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	sections := make([]Section, 0, len(encoded))
	for _, e := range encoded {
		factory, ok := c.factories[e.Kind]
		if !ok {
			return nil, fmt.Errorf("decode backup: unknown section kind %q", e.Kind)
		}
		s := factory()
		if err := json.Unmarshal(e.Data, s); err != nil {
			return nil, fmt.Errorf("decode backup section %s: %w", e.Kind, err)
		}
		sections = append(sections, s)
	}
	return sections, nil
}
