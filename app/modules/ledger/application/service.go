package ledgerservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/UziB26/leagueladder-sub002/app/eventbus"
	ledgerdomain "github.com/UziB26/leagueladder-sub002/app/modules/ledger/domain"
	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/UziB26/leagueladder-sub002/app/shared/clock"
	"github.com/UziB26/leagueladder-sub002/app/shared/observability"
	"github.com/UziB26/leagueladder-sub002/app/shared/results"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "LedgerService"

// Settings tunes the rating engine.
type Settings struct {
	Calculator    ledgerdomain.Calculator
	InitialRating int
	Clock         clock.Clock
}

// LedgerService implements the Service interface.
type LedgerService struct {
	repo          ledgerdb.Repository
	coordinator   *txguard.Coordinator
	publisher     message.Publisher
	calc          ledgerdomain.Calculator
	initialRating int
	clock         clock.Clock
	logger        *slog.Logger
	metrics       observability.OperationMetrics
	tracer        trace.Tracer
	db            *bun.DB
}

// NewLedgerService creates a new LedgerService. publisher may be nil.
func NewLedgerService(
	repo ledgerdb.Repository,
	coordinator *txguard.Coordinator,
	publisher message.Publisher,
	settings Settings,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	if coordinator == nil {
		coordinator = txguard.NewCoordinator(db, nil, logger, tracer)
	}
	if settings.Calculator == (ledgerdomain.Calculator{}) {
		settings.Calculator = ledgerdomain.DefaultCalculator()
	}
	if settings.InitialRating == 0 {
		settings.InitialRating = ledgerdomain.DefaultRating
	}
	if settings.Clock == nil {
		settings.Clock = clock.System{}
	}

	coordinator.Register(ledgerdb.RatingSectionKind, ledgerdb.RatingSectionFactory(repo))

	return &LedgerService{
		repo:          repo,
		coordinator:   coordinator,
		publisher:     publisher,
		calc:          settings.Calculator,
		initialRating: settings.InitialRating,
		clock:         settings.Clock,
		logger:        logger,
		metrics:       metrics,
		tracer:        tracer,
		db:            db,
	}
}

func (s *LedgerService) publish(ctx context.Context, topic string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := eventbus.Publish(ctx, s.publisher, topic, payload); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event",
			attr.ExtractCorrelationID(ctx),
			attr.String("topic", topic),
			attr.Error(err),
		)
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *LedgerService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		return result, nil
	}

	s.logger.InfoContext(ctx, "Operation completed successfully",
		attr.ExtractCorrelationID(ctx),
		attr.String("operation", operationName),
		attr.String("identifier", identifier),
	)
	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *LedgerService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}

// unwrap turns a telemetry result into the public (T, error) shape.
func unwrap[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	return *result.Success, nil
}
