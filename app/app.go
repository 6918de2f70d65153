package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/UziB26/leagueladder-sub002/app/eventbus"
	"github.com/UziB26/leagueladder-sub002/app/httpapi"
	"github.com/UziB26/leagueladder-sub002/app/modules/challenge"
	challengeservice "github.com/UziB26/leagueladder-sub002/app/modules/challenge/application"
	"github.com/UziB26/leagueladder-sub002/app/modules/league"
	"github.com/UziB26/leagueladder-sub002/app/modules/ledger"
	ledgerservice "github.com/UziB26/leagueladder-sub002/app/modules/ledger/application"
	ledgerdomain "github.com/UziB26/leagueladder-sub002/app/modules/ledger/domain"
	ledgerqueue "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/queue"
	"github.com/UziB26/leagueladder-sub002/app/modules/match"
	matchservice "github.com/UziB26/leagueladder-sub002/app/modules/match/application"
	"github.com/UziB26/leagueladder-sub002/app/shared/observability"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/UziB26/leagueladder-sub002/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// App wires the modules, the event bus and the HTTP surface together.
type App struct {
	Config        *config.Config
	Observability *observability.Observability
	DB            *bun.DB
	EventBus      *eventbus.EventBus
	Router        *message.Router
	Coordinator   *txguard.Coordinator

	LeagueModule    *league.Module
	LedgerModule    *ledger.Module
	ChallengeModule *challenge.Module
	MatchModule     *match.Module

	HTTPServer    *http.Server
	MetricsServer *http.Server

	routerCtx    context.Context
	routerCancel context.CancelFunc
}

// OpenDB connects to Postgres through bun.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// NewApp builds every component from cfg. Nothing runs until Run.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	obs, err := observability.New(config.ToObsConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing league ladder")

	db := OpenDB(cfg.Postgres.DSN)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	bus, err := eventbus.New(ctx, eventbus.Config{URL: cfg.NATS.URL}, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		_ = bus.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to create message router: %w", err)
	}

	a := &App{
		Config:        cfg,
		Observability: obs,
		DB:            db,
		EventBus:      bus,
		Router:        router,
		Coordinator:   txguard.NewCoordinator(db, txguard.NewStore(db), logger, obs.Tracer),
	}
	a.routerCtx, a.routerCancel = context.WithCancel(context.Background())

	if err := a.initModules(ctx); err != nil {
		a.routerCancel()
		_ = bus.Close()
		_ = db.Close()
		return nil, err
	}

	a.HTTPServer = &http.Server{
		Addr: cfg.HTTP.Address,
		Handler: httpapi.NewHandler(httpapi.Config{
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			RateLimit:      cfg.HTTP.RateLimit,
			RateBurst:      cfg.HTTP.RateBurst,
		}, httpapi.Services{
			Leagues:    a.LeagueModule.LeagueService,
			Ledger:     a.LedgerModule.LedgerService,
			Challenges: a.ChallengeModule.ChallengeService,
			Matches:    a.MatchModule.MatchService,
		}, httpapi.NewTokens(cfg.JWT.Secret), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Observability.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", obs.MetricsHandler())
		a.MetricsServer = &http.Server{
			Addr:              cfg.Observability.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return a, nil
}

func (a *App) initModules(ctx context.Context) error {
	cfg := a.Config
	obs := a.Observability

	leagueModule, err := league.NewLeagueModule(ctx, obs, a.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize league module: %w", err)
	}
	a.LeagueModule = leagueModule

	queueCfg := ledgerqueue.Config{
		AuditInterval: cfg.Queue.AuditInterval,
		StaleAge:      cfg.Queue.StaleAge,
	}
	if cfg.Queue.Enabled {
		queueCfg.DSN = cfg.Postgres.DSN
	}
	ledgerModule, err := ledger.NewLedgerModule(ctx, obs, a.Coordinator, a.EventBus, ledgerservice.Settings{
		Calculator:    ledgerdomain.NewCalculator(cfg.Rating.KFactor, cfg.Rating.MOVFloor, cfg.Rating.MOVCapMultiplier),
		InitialRating: cfg.Rating.InitialRating,
	}, queueCfg, a.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize ledger module: %w", err)
	}
	a.LedgerModule = ledgerModule

	challengeModule, err := challenge.NewChallengeModule(ctx, obs,
		leagueModule.LeagueService,
		a.Coordinator,
		a.Router,
		a.EventBus,
		a.EventBus,
		challengeservice.Settings{Expiry: cfg.Challenge.Expiry},
		a.routerCtx,
		a.DB,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize challenge module: %w", err)
	}
	a.ChallengeModule = challengeModule

	matchModule, err := match.NewMatchModule(ctx, obs,
		ledgerModule.LedgerService,
		challengeModule.ChallengeService,
		leagueModule.LeagueService,
		a.Coordinator,
		a.Router,
		a.EventBus,
		a.EventBus,
		matchservice.Settings{RevertChallengeOnVoid: cfg.Rating.RevertChallengeOnVoid},
		a.routerCtx,
		a.DB,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize match module: %w", err)
	}
	a.MatchModule = matchModule

	return nil
}
