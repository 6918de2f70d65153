package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	ledgerservice "github.com/UziB26/leagueladder-sub002/app/modules/ledger/application"
	ledgerqueue "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/queue"
	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/UziB26/leagueladder-sub002/app/shared/observability"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/uptrace/bun"
)

// Module represents the rating ledger module.
type Module struct {
	LedgerService *ledgerservice.LedgerService
	Queue         *ledgerqueue.Service
	cancelFunc    context.CancelFunc
	observability *observability.Observability
}

// NewLedgerModule creates the ledger service and, when queueCfg has a DSN,
// the River queue that retries failed restores and audits records. The queue
// becomes the coordinator's retry scheduler.
func NewLedgerModule(
	ctx context.Context,
	obs *observability.Observability,
	coordinator *txguard.Coordinator,
	publisher message.Publisher,
	settings ledgerservice.Settings,
	queueCfg ledgerqueue.Config,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "ledger.NewLedgerModule initializing")

	repo := ledgerdb.NewRepository(db)
	service := ledgerservice.NewLedgerService(repo, coordinator, publisher, settings, logger, obs.Metrics, obs.Tracer, db)

	m := &Module{
		LedgerService: service,
		observability: obs,
	}

	if queueCfg.DSN == "" {
		logger.InfoContext(ctx, "No queue DSN configured, restore retries disabled")
		return m, nil
	}

	queue, err := ledgerqueue.NewService(ctx, queueCfg, logger, obs.Metrics, coordinator, service, publisher)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger queue: %w", err)
	}
	coordinator.SetRetryScheduler(queue)
	m.Queue = queue
	return m, nil
}

// Run starts the queue and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting ledger module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.Queue != nil {
		if err := m.Queue.Start(ctx); err != nil {
			logger.ErrorContext(ctx, "Ledger queue failed to start", attr.Error(err))
		}
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Ledger module goroutine stopped")
}

// Close stops the queue.
func (m *Module) Close() error {
	logger := m.observability.Logger
	logger.Info("Stopping ledger module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.Queue != nil {
		if err := m.Queue.Stop(context.Background()); err != nil {
			return fmt.Errorf("error stopping ledger queue: %w", err)
		}
	}

	logger.Info("Ledger module stopped")
	return nil
}
