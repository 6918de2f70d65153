//go:build integration

package testutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/UziB26/leagueladder-sub002/app"
	"github.com/UziB26/leagueladder-sub002/app/eventbus"
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
	"github.com/UziB26/leagueladder-sub002/integration_tests/containers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

// appTables are truncated between tests.
var appTables = []string{
	"match_disputes", "matches", "challenges",
	"rating_updates", "admin_actions", "player_ratings", "ledger_backups",
	"league_memberships", "players", "leagues",
}

// TestEnvironment holds a migrated Postgres and the engine services wired on
// top of it.
type TestEnvironment struct {
	Ctx         context.Context
	PgContainer *postgres.PostgresContainer
	DSN         string
	DB          *bun.DB
	Obs         *observability.Observability
	Bus         *eventbus.EventBus
	Router      *message.Router
	Coordinator *txguard.Coordinator

	Leagues    *league.Module
	Ledger     *ledger.Module
	Challenges *challenge.Module
	Matches    *match.Module
}

// Options tune the services for a test.
type Options struct {
	RevertChallengeOnVoid bool
	// Queue wires the River queue as the restore retry scheduler.
	Queue ledgerqueue.Config
}

// NewTestEnvironment starts Postgres, runs migrations and builds the modules.
// Everything is torn down with t.Cleanup.
func NewTestEnvironment(t *testing.T, opts Options) *TestEnvironment {
	t.Helper()
	ctx := context.Background()

	pg, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to set up postgres: %v", err)
	}
	t.Cleanup(func() { containers.Terminate(pg) })

	db := app.OpenDB(dsn)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := app.MigrateUp(ctx, db, dsn, logger); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	obs := &observability.Observability{
		Logger:   logger,
		Tracer:   noop.NewTracerProvider().Tracer("integration"),
		Metrics:  observability.NewNoop(),
		Registry: prometheus.NewRegistry(),
	}

	bus, err := eventbus.New(ctx, eventbus.Config{}, logger)
	if err != nil {
		t.Fatalf("Failed to create event bus: %v", err)
	}
	t.Cleanup(func() { _ = bus.Close() })

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("Failed to create router: %v", err)
	}

	env := &TestEnvironment{
		Ctx:         ctx,
		PgContainer: pg,
		DSN:         dsn,
		DB:          db,
		Obs:         obs,
		Bus:         bus,
		Router:      router,
		Coordinator: txguard.NewCoordinator(db, txguard.NewStore(db), logger, obs.Tracer),
	}
	if err := env.buildModules(opts); err != nil {
		t.Fatalf("Failed to build modules: %v", err)
	}
	return env
}

func (env *TestEnvironment) buildModules(opts Options) error {
	var err error
	if env.Leagues, err = league.NewLeagueModule(env.Ctx, env.Obs, env.DB); err != nil {
		return err
	}
	if env.Ledger, err = ledger.NewLedgerModule(env.Ctx, env.Obs, env.Coordinator, env.Bus,
		ledgerservice.Settings{Calculator: ledgerdomain.DefaultCalculator()}, opts.Queue, env.DB); err != nil {
		return err
	}
	if env.Challenges, err = challenge.NewChallengeModule(env.Ctx, env.Obs, env.Leagues.LeagueService,
		env.Coordinator, env.Router, env.Bus, env.Bus, challengeservice.Settings{}, env.Ctx, env.DB); err != nil {
		return err
	}
	env.Matches, err = match.NewMatchModule(env.Ctx, env.Obs,
		env.Ledger.LedgerService, env.Challenges.ChallengeService, env.Leagues.LeagueService,
		env.Coordinator, env.Router, env.Bus, env.Bus,
		matchservice.Settings{RevertChallengeOnVoid: opts.RevertChallengeOnVoid}, env.Ctx, env.DB)
	return err
}

// Reset truncates every application table.
func (env *TestEnvironment) Reset(t *testing.T) {
	t.Helper()
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(appTables, ", "))
	if _, err := env.DB.ExecContext(env.Ctx, query); err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}
