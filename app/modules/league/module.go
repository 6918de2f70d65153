package league

import (
	"context"
	"sync"

	leagueservice "github.com/UziB26/leagueladder-sub002/app/modules/league/application"
	leaguedb "github.com/UziB26/leagueladder-sub002/app/modules/league/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/observability"
	"github.com/uptrace/bun"
)

// Module represents the league module.
type Module struct {
	LeagueService *leagueservice.LeagueService
	cancelFunc    context.CancelFunc
	observability *observability.Observability
}

// NewLeagueModule creates and initializes a new league module.
func NewLeagueModule(ctx context.Context, obs *observability.Observability, db *bun.DB) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "league.NewLeagueModule initializing")

	repo := leaguedb.NewRepository(db)
	service := leagueservice.NewLeagueService(repo, logger, obs.Metrics, obs.Tracer, db)

	return &Module{
		LeagueService: service,
		observability: obs,
	}, nil
}

// Run keeps the module alive until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting league module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "League module goroutine stopped")
}

// Close shuts down the league module.
func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.observability.Logger.Info("League module stopped")
	return nil
}
