package ledgermigrations

import (
	"context"
	"fmt"

	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating player_ratings, rating_updates and admin_actions tables...")

		models := []interface{}{
			(*ledgerdb.PlayerRating)(nil),
			(*ledgerdb.RatingUpdate)(nil),
			(*ledgerdb.AdminAction)(nil),
		}
		for _, model := range models {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		indexes := []struct {
			name string
			sql  string
		}{
			{
				name: "ux_rating_updates_match_player",
				sql:  "CREATE UNIQUE INDEX IF NOT EXISTS ux_rating_updates_match_player ON rating_updates (match_ref, player_id)",
			},
			{
				name: "idx_rating_updates_player_league",
				sql:  "CREATE INDEX IF NOT EXISTS idx_rating_updates_player_league ON rating_updates (player_id, league_id, created_at DESC)",
			},
			{
				name: "idx_rating_updates_op_id",
				sql:  "CREATE INDEX IF NOT EXISTS idx_rating_updates_op_id ON rating_updates (op_id) WHERE op_id IS NOT NULL",
			},
			{
				name: "idx_player_ratings_league_rating",
				sql:  "CREATE INDEX IF NOT EXISTS idx_player_ratings_league_rating ON player_ratings (league_id, rating DESC)",
			},
			{
				name: "idx_admin_actions_league_created",
				sql:  "CREATE INDEX IF NOT EXISTS idx_admin_actions_league_created ON admin_actions (league_id, created_at DESC)",
			},
		}
		for _, idx := range indexes {
			if _, err := db.NewRaw(idx.sql).Exec(ctx); err != nil {
				return fmt.Errorf("create %s: %w", idx.name, err)
			}
		}

		// Counters can only drift through admin corrections, never below zero.
		_, err := db.NewRaw(`
			ALTER TABLE player_ratings
			ADD CONSTRAINT chk_player_ratings_non_negative
			CHECK (games_played >= 0 AND wins >= 0 AND losses >= 0 AND draws >= 0)
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("add chk_player_ratings_non_negative: %w", err)
		}

		fmt.Println("Ledger tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping ledger tables...")

		for _, model := range []interface{}{
			(*ledgerdb.AdminAction)(nil),
			(*ledgerdb.RatingUpdate)(nil),
			(*ledgerdb.PlayerRating)(nil),
		} {
			if _, err := db.NewDropTable().Model(model).IfExists().Cascade().Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Ledger tables dropped successfully!")
		return nil
	})
}
