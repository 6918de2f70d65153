package ledgerservice

import (
	"context"
	"io"

	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Service defines the rating ledger. ApplyMatch and RevertMatch run inside the
// caller's guarded unit and are the only writers of match ledger rows.
type Service interface {
	// ApplyMatch creates missing rating rows, applies the Elo change for the
	// match and appends one ledger entry per player.
	ApplyMatch(ctx context.Context, db bun.IDB, m MatchOutcome, opID uuid.UUID) (*LedgerChange, error)

	// RevertMatch undoes the ledger entries of a match exactly and deletes
	// them. A match without entries is a no-op.
	RevertMatch(ctx context.Context, db bun.IDB, m MatchOutcome, opID uuid.UUID) (*LedgerChange, error)

	// RatingSection returns the backup section guarding the given players.
	RatingSection(leagueID uuid.UUID, playerIDs []uuid.UUID, matchRef string) txguard.Section

	// RecordAdminAction audits an admin operation on a match inside the
	// caller's unit.
	RecordAdminAction(ctx context.Context, db bun.IDB, a actor.Actor, action string, leagueID, matchID uuid.UUID, before, after any, reason string) error

	SetRating(ctx context.Context, a actor.Actor, req SetRatingRequest) (*RatingAdjustment, error)
	SetStats(ctx context.Context, a actor.Actor, req SetStatsRequest) (*StatsAdjustment, error)

	GetRating(ctx context.Context, playerID, leagueID uuid.UUID) (*ledgerdb.PlayerRating, error)
	GetStandings(ctx context.Context, leagueID uuid.UUID) ([]ledgerdb.PlayerRating, error)
	GetRatingHistory(ctx context.Context, playerID, leagueID uuid.UUID, limit int) ([]ledgerdb.RatingUpdate, error)
	ListAdminActions(ctx context.Context, leagueID uuid.UUID, limit int) ([]ledgerdb.AdminAction, error)

	// AuditRecords lists ratings whose games played differs from
	// wins + losses + draws.
	AuditRecords(ctx context.Context) ([]ledgerdb.PlayerRating, error)

	RenderRatingChart(ctx context.Context, playerID, leagueID uuid.UUID) ([]byte, error)
	ExportLeague(ctx context.Context, leagueID uuid.UUID, w io.Writer) error
}

var _ Service = (*LedgerService)(nil)
