package matchservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/UziB26/leagueladder-sub002/app/eventbus"
	challengedb "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/repositories"
	ledgerservice "github.com/UziB26/leagueladder-sub002/app/modules/ledger/application"
	matchdb "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/UziB26/leagueladder-sub002/app/shared/clock"
	"github.com/UziB26/leagueladder-sub002/app/shared/observability"
	"github.com/UziB26/leagueladder-sub002/app/shared/results"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "MatchService"

// Ledger is the part of the rating ledger the match lifecycle drives.
type Ledger interface {
	ApplyMatch(ctx context.Context, db bun.IDB, m ledgerservice.MatchOutcome, opID uuid.UUID) (*ledgerservice.LedgerChange, error)
	RevertMatch(ctx context.Context, db bun.IDB, m ledgerservice.MatchOutcome, opID uuid.UUID) (*ledgerservice.LedgerChange, error)
	RatingSection(leagueID uuid.UUID, playerIDs []uuid.UUID, matchRef string) txguard.Section
	RecordAdminAction(ctx context.Context, db bun.IDB, a actor.Actor, action string, leagueID, matchID uuid.UUID, before, after any, reason string) error
}

// Challenges is the part of the challenge lifecycle a match moves along.
type Challenges interface {
	LoadForMatch(ctx context.Context, db bun.IDB, challengeID, leagueID, playerA, playerB uuid.UUID) (*challengedb.Challenge, error)
	MarkCompleted(ctx context.Context, db bun.IDB, challengeID, opID uuid.UUID, at time.Time) (*challengedb.Challenge, bool, error)
	RevertToAccepted(ctx context.Context, db bun.IDB, challengeID, opID uuid.UUID, at time.Time) (*challengedb.Challenge, bool, error)
	Section(challengeID uuid.UUID) txguard.Section
}

// MembershipChecker answers whether players may take part in a league.
type MembershipChecker interface {
	AreActiveMembers(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs ...uuid.UUID) (bool, error)
}

// Settings tunes match policy.
type Settings struct {
	// RevertChallengeOnVoid hands the linked challenge back to accepted when
	// its match is voided. Off by default: the challenge stays completed.
	RevertChallengeOnVoid bool
	Clock                 clock.Clock
}

// MatchService implements the Service interface.
type MatchService struct {
	repo        matchdb.Repository
	ledger      Ledger
	challenges  Challenges
	members     MembershipChecker
	coordinator *txguard.Coordinator
	publisher   message.Publisher
	settings    Settings
	clock       clock.Clock
	logger      *slog.Logger
	metrics     observability.OperationMetrics
	tracer      trace.Tracer
	db          *bun.DB
}

// NewMatchService creates a new MatchService. publisher may be nil.
func NewMatchService(
	repo matchdb.Repository,
	ledger Ledger,
	challenges Challenges,
	members MembershipChecker,
	coordinator *txguard.Coordinator,
	publisher message.Publisher,
	settings Settings,
	logger *slog.Logger,
	metrics observability.OperationMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	if coordinator == nil {
		coordinator = txguard.NewCoordinator(db, nil, logger, tracer)
	}
	if settings.Clock == nil {
		settings.Clock = clock.System{}
	}

	coordinator.Register(matchdb.SectionKind, matchdb.SectionFactory(repo))

	return &MatchService{
		repo:        repo,
		ledger:      ledger,
		challenges:  challenges,
		members:     members,
		coordinator: coordinator,
		publisher:   publisher,
		settings:    settings,
		clock:       settings.Clock,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		db:          db,
	}
}

func (s *MatchService) publish(ctx context.Context, topic string, payload any) {
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
	s *MatchService,
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
	s *MatchService,
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
