package match

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	matchservice "github.com/UziB26/leagueladder-sub002/app/modules/match/application"
	matchhandlers "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/handlers"
	matchdb "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories"
	matchrouter "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/router"
	"github.com/UziB26/leagueladder-sub002/app/shared/observability"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/uptrace/bun"
)

// Module represents the match module.
type Module struct {
	MatchService  *matchservice.MatchService
	MatchRouter   *matchrouter.MatchRouter
	cancelFunc    context.CancelFunc
	observability *observability.Observability
}

// NewMatchModule creates the match service on top of the ledger and
// challenge services and registers its command handlers on router.
func NewMatchModule(
	ctx context.Context,
	obs *observability.Observability,
	ledger matchservice.Ledger,
	challenges matchservice.Challenges,
	members matchservice.MembershipChecker,
	coordinator *txguard.Coordinator,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	settings matchservice.Settings,
	routerCtx context.Context,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	tracer := obs.Tracer

	logger.InfoContext(ctx, "match.NewMatchModule initializing")

	repo := matchdb.NewRepository(db)
	service := matchservice.NewMatchService(repo, ledger, challenges, members, coordinator, publisher, settings, logger, obs.Metrics, tracer, db)

	handlers := matchhandlers.NewMatchHandlers(service, logger, tracer)
	r := matchrouter.NewMatchRouter(logger, router, subscriber, publisher, tracer)
	if err := r.Configure(routerCtx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure match router: %w", err)
	}

	return &Module{
		MatchService:  service,
		MatchRouter:   r,
		observability: obs,
	}, nil
}

// Run keeps the module alive until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting match module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Match module goroutine stopped")
}

// Close shuts down the match module.
func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.observability.Logger.Info("Match module stopped")
	return nil
}
