package app

import (
	"context"
	"fmt"
	"log/slog"

	challengemigrations "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/repositories/migrations"
	leaguemigrations "github.com/UziB26/leagueladder-sub002/app/modules/league/infrastructure/repositories/migrations"
	ledgerqueue "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/queue"
	ledgermigrations "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories/migrations"
	matchmigrations "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories/migrations"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	txguardmigrations "github.com/UziB26/leagueladder-sub002/app/shared/txguard/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// ModuleMigrator is one module's migrator. Each module tracks its
// migrations in its own table.
type ModuleMigrator struct {
	Name     string
	Migrator *migrate.Migrator
}

// Migrators returns the module migrators ordered so referenced tables are
// created first.
func Migrators(db *bun.DB) []ModuleMigrator {
	modules := []struct {
		name       string
		migrations *migrate.Migrations
	}{
		{"txguard", txguardmigrations.Migrations},
		{"league", leaguemigrations.Migrations},
		{"ledger", ledgermigrations.Migrations},
		{"challenge", challengemigrations.Migrations},
		{"match", matchmigrations.Migrations},
	}

	out := make([]ModuleMigrator, 0, len(modules))
	for _, m := range modules {
		out = append(out, ModuleMigrator{
			Name: m.name,
			Migrator: migrate.NewMigrator(db, m.migrations,
				migrate.WithTableName("bun_migrations_"+m.name),
				migrate.WithLocksTableName("bun_migration_locks_"+m.name),
			),
		})
	}
	return out
}

// MigrateUp initialises and applies every module migration, then the job
// queue schema when dsn is set.
func MigrateUp(ctx context.Context, db *bun.DB, dsn string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, m := range Migrators(db) {
		if err := m.Migrator.Init(ctx); err != nil {
			return fmt.Errorf("init %s migrations: %w", m.Name, err)
		}
		if err := m.Migrator.Lock(ctx); err != nil {
			return fmt.Errorf("lock %s migrations: %w", m.Name, err)
		}
		group, err := m.Migrator.Migrate(ctx)
		_ = m.Migrator.Unlock(ctx)
		if err != nil {
			return fmt.Errorf("run %s migrations: %w", m.Name, err)
		}
		if group.IsZero() {
			logger.InfoContext(ctx, "No new migrations", attr.String("module", m.Name))
		} else {
			logger.InfoContext(ctx, "Migrated module", attr.String("module", m.Name), attr.String("group", group.String()))
		}
	}

	if dsn == "" {
		return nil
	}
	if err := ledgerqueue.Migrate(ctx, dsn); err != nil {
		return fmt.Errorf("run job queue migrations: %w", err)
	}
	return nil
}
