package main

import (
	"fmt"
	"strings"

	"github.com/UziB26/leagueladder-sub002/app"
	"github.com/UziB26/leagueladder-sub002/app/shared/observability"
	"github.com/UziB26/leagueladder-sub002/config"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
)

// withDB opens the configured database for a migration command.
func withDB(c *cli.Context, fn func(cfg *config.Config, db *bun.DB) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db := app.OpenDB(cfg.Postgres.DSN)
	defer db.Close()
	return fn(cfg, db)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					return withDB(c, func(_ *config.Config, db *bun.DB) error {
						for _, m := range app.Migrators(db) {
							fmt.Printf("Initializing migrations for module: %s\n", m.Name)
							if err := m.Migrator.Init(c.Context); err != nil {
								return fmt.Errorf("init %s: %w", m.Name, err)
							}
						}
						return nil
					})
				},
			},
			{
				Name:  "up",
				Usage: "apply pending migrations, including the job queue schema",
				Action: func(c *cli.Context) error {
					return withDB(c, func(cfg *config.Config, db *bun.DB) error {
						return app.MigrateUp(c.Context, db, cfg.Postgres.DSN, observability.NewLogger(config.ToObsConfig(cfg)))
					})
				},
			},
			{
				Name:  "rollback",
				Usage: "roll back the last migration group of every module",
				Action: func(c *cli.Context) error {
					return withDB(c, func(_ *config.Config, db *bun.DB) error {
						migrators := app.Migrators(db)
						for i := len(migrators) - 1; i >= 0; i-- {
							m := migrators[i]
							group, err := m.Migrator.Rollback(c.Context)
							if err != nil {
								return fmt.Errorf("rollback %s: %w", m.Name, err)
							}
							if group.IsZero() {
								fmt.Printf("No groups to roll back for module: %s\n", m.Name)
							} else {
								fmt.Printf("Rolled back module: %s to %s\n", m.Name, group)
							}
						}
						return nil
					})
				},
			},
			{
				Name:  "status",
				Usage: "print migration status",
				Action: func(c *cli.Context) error {
					return withDB(c, func(_ *config.Config, db *bun.DB) error {
						for _, m := range app.Migrators(db) {
							ms, err := m.Migrator.MigrationsWithStatus(c.Context)
							if err != nil {
								return fmt.Errorf("status %s: %w", m.Name, err)
							}
							fmt.Printf("%s: applied %s, unapplied %s\n", m.Name, ms.Applied(), ms.Unapplied())
						}
						return nil
					})
				},
			},
			{
				Name:      "create_go",
				Usage:     "create a Go migration",
				ArgsUsage: "<module> <name...>",
				Action: func(c *cli.Context) error {
					return withDB(c, func(_ *config.Config, db *bun.DB) error {
						moduleName := c.Args().First()
						for _, m := range app.Migrators(db) {
							if m.Name != moduleName {
								continue
							}
							mf, err := m.Migrator.CreateGoMigration(c.Context, strings.Join(c.Args().Tail(), "_"))
							if err != nil {
								return err
							}
							fmt.Printf("Created migration for module %s: %s (%s)\n", moduleName, mf.Name, mf.Path)
							return nil
						}
						return fmt.Errorf("invalid module name: %s", moduleName)
					})
				},
			},
		},
	}
}
