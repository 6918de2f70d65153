package ledgerdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for rating ledger persistence.
type Repository interface {
	// GetRating returns the rating row for (player, league) or ErrNotFound.
	GetRating(ctx context.Context, db bun.IDB, playerID, leagueID uuid.UUID) (*PlayerRating, error)

	// GetRatings returns the rows that exist among playerIDs, without locking.
	GetRatings(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs []uuid.UUID) ([]PlayerRating, error)

	// LockRatings returns the rows among playerIDs locked FOR UPDATE in
	// ascending player order.
	LockRatings(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs []uuid.UUID) ([]PlayerRating, error)

	// EnsureRating inserts rating if no row exists for its key and reports
	// whether it was created.
	EnsureRating(ctx context.Context, db bun.IDB, rating *PlayerRating) (bool, error)

	// UpdateRating writes the mutable columns of an existing row.
	UpdateRating(ctx context.Context, db bun.IDB, rating *PlayerRating) error

	// DeleteRating removes a row. Used only when restoring a backup.
	DeleteRating(ctx context.Context, db bun.IDB, playerID, leagueID uuid.UUID) error

	// InsertRatingUpdates appends ledger entries.
	InsertRatingUpdates(ctx context.Context, db bun.IDB, updates []RatingUpdate) error

	// RestoreRatingUpdates re-inserts entries, skipping ids already present.
	RestoreRatingUpdates(ctx context.Context, db bun.IDB, updates []RatingUpdate) error

	// GetRatingUpdatesForMatch returns the entries written for matchRef.
	GetRatingUpdatesForMatch(ctx context.Context, db bun.IDB, matchRef string) ([]RatingUpdate, error)

	// DeleteRatingUpdatesForMatch removes the entries written for matchRef.
	DeleteRatingUpdatesForMatch(ctx context.Context, db bun.IDB, matchRef string) error

	// DeleteRatingUpdatesForOp removes the entries written by a guarded operation.
	DeleteRatingUpdatesForOp(ctx context.Context, db bun.IDB, opID uuid.UUID) error

	// GetRatingHistory returns a player's entries in a league, newest first.
	GetRatingHistory(ctx context.Context, db bun.IDB, playerID, leagueID uuid.UUID, limit int) ([]RatingUpdate, error)

	// ListStandings returns a league's ratings ordered by rating descending.
	ListStandings(ctx context.Context, db bun.IDB, leagueID uuid.UUID) ([]PlayerRating, error)

	// ListLedger returns every entry of a league, oldest first.
	ListLedger(ctx context.Context, db bun.IDB, leagueID uuid.UUID) ([]RatingUpdate, error)

	// FindInconsistentRatings returns rows where games_played differs from
	// wins + losses + draws.
	FindInconsistentRatings(ctx context.Context, db bun.IDB) ([]PlayerRating, error)

	// InsertAdminAction records an audit entry.
	InsertAdminAction(ctx context.Context, db bun.IDB, action *AdminAction) error

	// ListAdminActions returns a league's audit entries, newest first.
	ListAdminActions(ctx context.Context, db bun.IDB, leagueID uuid.UUID, limit int) ([]AdminAction, error)
}
