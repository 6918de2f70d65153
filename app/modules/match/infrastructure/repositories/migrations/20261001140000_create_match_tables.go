package matchmigrations

import (
	"context"
	"fmt"

	matchdb "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating matches and match_disputes tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewCreateTable().Model((*matchdb.Match)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create matches table: %w", err)
			}
			if _, err := tx.NewCreateTable().
				Model((*matchdb.Dispute)(nil)).
				IfNotExists().
				ForeignKey(`("match_id") REFERENCES "matches" ("id") ON DELETE CASCADE`).
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to create match_disputes table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				ALTER TABLE matches
				ADD CONSTRAINT chk_matches_distinct_players CHECK (player1_id <> player2_id);
				ALTER TABLE matches
				ADD CONSTRAINT chk_matches_scores
				CHECK (player1_score >= 0 AND player2_score >= 0 AND (player1_score + player2_score) > 0);
				ALTER TABLE matches
				ADD CONSTRAINT chk_matches_status
				CHECK (status IN ('pending_confirmation', 'completed', 'disputed', 'voided'));
				CREATE UNIQUE INDEX IF NOT EXISTS ux_matches_challenge
				ON matches (challenge_id) WHERE challenge_id IS NOT NULL;
				CREATE INDEX IF NOT EXISTS idx_matches_league_played ON matches (league_id, played_at DESC);
				CREATE INDEX IF NOT EXISTS idx_matches_player1 ON matches (player1_id);
				CREATE INDEX IF NOT EXISTS idx_matches_player2 ON matches (player2_id);
				CREATE INDEX IF NOT EXISTS idx_match_disputes_match ON match_disputes (match_id, created_at DESC);
			`); err != nil {
				return fmt.Errorf("failed to add match constraints: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping match tables...")
		for _, model := range []interface{}{(*matchdb.Dispute)(nil), (*matchdb.Match)(nil)} {
			if _, err := db.NewDropTable().Model(model).IfExists().Cascade().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
