package leaguemigrations

import (
	"context"
	"fmt"

	leaguedb "github.com/UziB26/leagueladder-sub002/app/modules/league/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating leagues, players and league_memberships tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			models := []interface{}{
				(*leaguedb.League)(nil),
				(*leaguedb.Player)(nil),
				(*leaguedb.Membership)(nil),
			}
			for _, model := range models {
				if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
					return err
				}
			}

			if _, err := tx.ExecContext(ctx, `
				ALTER TABLE league_memberships
				ADD CONSTRAINT fk_league_memberships_league
				FOREIGN KEY (league_id) REFERENCES leagues(id) ON DELETE CASCADE;
				ALTER TABLE league_memberships
				ADD CONSTRAINT fk_league_memberships_player
				FOREIGN KEY (player_id) REFERENCES players(id) ON DELETE CASCADE;
				CREATE INDEX IF NOT EXISTS idx_league_memberships_player ON league_memberships(player_id);
				CREATE UNIQUE INDEX IF NOT EXISTS ux_players_display_name_lower ON players(lower(display_name));
			`); err != nil {
				return fmt.Errorf("failed to add league constraints: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping league tables...")

		for _, model := range []interface{}{
			(*leaguedb.Membership)(nil),
			(*leaguedb.Player)(nil),
			(*leaguedb.League)(nil),
		} {
			if _, err := db.NewDropTable().Model(model).IfExists().Cascade().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
