package txguardmigrations

import (
	"context"
	"fmt"

	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating ledger_backups table...")

		if _, err := db.NewCreateTable().Model((*txguard.Backup)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		_, err := db.NewRaw(`
			CREATE INDEX IF NOT EXISTS idx_ledger_backups_updated_at
			ON ledger_backups (updated_at ASC)
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("create idx_ledger_backups_updated_at: %w", err)
		}

		fmt.Println("ledger_backups table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping ledger_backups table...")

		if _, err := db.NewDropTable().Model((*txguard.Backup)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("ledger_backups table dropped successfully!")
		return nil
	})
}
