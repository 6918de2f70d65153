package challengemigrations

import (
	"context"
	"fmt"

	challengedb "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating challenges table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewCreateTable().Model((*challengedb.Challenge)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create challenges table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				ALTER TABLE challenges
				ADD CONSTRAINT chk_challenges_distinct_players CHECK (challenger_id <> challengee_id);
				ALTER TABLE challenges
				ADD CONSTRAINT chk_challenges_status
				CHECK (status IN ('pending', 'accepted', 'declined', 'cancelled', 'completed', 'expired'));
				CREATE UNIQUE INDEX IF NOT EXISTS ux_challenges_pending
				ON challenges (league_id, challenger_id, challengee_id) WHERE status = 'pending';
				CREATE INDEX IF NOT EXISTS idx_challenges_challenger ON challenges (challenger_id, created_at DESC);
				CREATE INDEX IF NOT EXISTS idx_challenges_challengee ON challenges (challengee_id, created_at DESC);
			`); err != nil {
				return fmt.Errorf("failed to add challenge constraints: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping challenges table...")
		_, err := db.NewDropTable().Model((*challengedb.Challenge)(nil)).IfExists().Cascade().Exec(ctx)
		return err
	})
}
