package challenge

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	challengeservice "github.com/UziB26/leagueladder-sub002/app/modules/challenge/application"
	challengehandlers "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/handlers"
	challengedb "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/repositories"
	challengerouter "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/router"
	"github.com/UziB26/leagueladder-sub002/app/shared/observability"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/uptrace/bun"
)

// Module represents the challenge module.
type Module struct {
	ChallengeService *challengeservice.ChallengeService
	ChallengeRouter  *challengerouter.ChallengeRouter
	cancelFunc       context.CancelFunc
	observability    *observability.Observability
}

// NewChallengeModule creates the challenge service and registers its command
// handlers on router.
func NewChallengeModule(
	ctx context.Context,
	obs *observability.Observability,
	members challengeservice.MembershipChecker,
	coordinator *txguard.Coordinator,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	settings challengeservice.Settings,
	routerCtx context.Context,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger
	tracer := obs.Tracer

	logger.InfoContext(ctx, "challenge.NewChallengeModule initializing")

	repo := challengedb.NewRepository(db)
	service := challengeservice.NewChallengeService(repo, members, publisher, settings, logger, obs.Metrics, tracer, db)
	service.RegisterSections(coordinator)

	handlers := challengehandlers.NewChallengeHandlers(service, logger, tracer)
	r := challengerouter.NewChallengeRouter(logger, router, subscriber, publisher, tracer)
	if err := r.Configure(routerCtx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure challenge router: %w", err)
	}

	return &Module{
		ChallengeService: service,
		ChallengeRouter:  r,
		observability:    obs,
	}, nil
}

// Run keeps the module alive until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting challenge module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Challenge module goroutine stopped")
}

// Close shuts down the challenge module. The shared message router is closed
// by its owner.
func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.observability.Logger.Info("Challenge module stopped")
	return nil
}
