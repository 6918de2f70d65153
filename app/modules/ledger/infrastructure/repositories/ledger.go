package ledgerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/UziB26/leagueladder-sub002/app/shared/dberr"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrNotFound indicates the requested rating row does not exist.
	ErrNotFound = errors.New("rating not found")
	// ErrDuplicate indicates a ledger entry already exists for the match and player.
	ErrDuplicate = errors.New("ledger entry already exists")
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new ledger repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) GetRating(ctx context.Context, db bun.IDB, playerID, leagueID uuid.UUID) (*PlayerRating, error) {
	db = r.resolveDB(db)
	rating := new(PlayerRating)
	err := db.NewSelect().
		Model(rating).
		Where("player_id = ?", playerID).
		Where("league_id = ?", leagueID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ledgerdb.GetRating: %w", err)
	}
	return rating, nil
}

func (r *Impl) GetRatings(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs []uuid.UUID) ([]PlayerRating, error) {
	db = r.resolveDB(db)
	var ratings []PlayerRating
	if len(playerIDs) == 0 {
		return ratings, nil
	}
	err := db.NewSelect().
		Model(&ratings).
		Where("league_id = ?", leagueID).
		Where("player_id IN (?)", bun.In(playerIDs)).
		Order("player_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledgerdb.GetRatings: %w", err)
	}
	return ratings, nil
}

// LockRatings takes row locks in ascending player order so two matches that
// share a player always acquire locks in the same sequence.
func (r *Impl) LockRatings(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs []uuid.UUID) ([]PlayerRating, error) {
	db = r.resolveDB(db)
	var ratings []PlayerRating
	if len(playerIDs) == 0 {
		return ratings, nil
	}
	err := db.NewSelect().
		Model(&ratings).
		Where("league_id = ?", leagueID).
		Where("player_id IN (?)", bun.In(playerIDs)).
		Order("player_id ASC").
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledgerdb.LockRatings: %w", err)
	}
	return ratings, nil
}

func (r *Impl) EnsureRating(ctx context.Context, db bun.IDB, rating *PlayerRating) (bool, error) {
	db = r.resolveDB(db)
	now := time.Now().UTC()
	if rating.CreatedAt.IsZero() {
		rating.CreatedAt = now
	}
	rating.UpdatedAt = now
	res, err := db.NewInsert().
		Model(rating).
		On("CONFLICT (player_id, league_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("ledgerdb.EnsureRating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ledgerdb.EnsureRating: %w", err)
	}
	return n > 0, nil
}

func (r *Impl) UpdateRating(ctx context.Context, db bun.IDB, rating *PlayerRating) error {
	db = r.resolveDB(db)
	rating.UpdatedAt = time.Now().UTC()
	res, err := db.NewUpdate().
		Model(rating).
		Column("rating", "games_played", "wins", "losses", "draws", "last_op_id", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledgerdb.UpdateRating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ledgerdb.UpdateRating: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) DeleteRating(ctx context.Context, db bun.IDB, playerID, leagueID uuid.UUID) error {
	db = r.resolveDB(db)
	_, err := db.NewDelete().
		Model((*PlayerRating)(nil)).
		Where("player_id = ?", playerID).
		Where("league_id = ?", leagueID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledgerdb.DeleteRating: %w", err)
	}
	return nil
}

func (r *Impl) InsertRatingUpdates(ctx context.Context, db bun.IDB, updates []RatingUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(&updates).Exec(ctx); err != nil {
		if dberr.IsUniqueViolation(err) {
			return fmt.Errorf("ledgerdb.InsertRatingUpdates: %w", ErrDuplicate)
		}
		return fmt.Errorf("ledgerdb.InsertRatingUpdates: %w", err)
	}
	return nil
}

func (r *Impl) RestoreRatingUpdates(ctx context.Context, db bun.IDB, updates []RatingUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(&updates).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledgerdb.RestoreRatingUpdates: %w", err)
	}
	return nil
}

func (r *Impl) GetRatingUpdatesForMatch(ctx context.Context, db bun.IDB, matchRef string) ([]RatingUpdate, error) {
	db = r.resolveDB(db)
	var updates []RatingUpdate
	err := db.NewSelect().
		Model(&updates).
		Where("match_ref = ?", matchRef).
		Order("player_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledgerdb.GetRatingUpdatesForMatch: %w", err)
	}
	return updates, nil
}

func (r *Impl) DeleteRatingUpdatesForMatch(ctx context.Context, db bun.IDB, matchRef string) error {
	db = r.resolveDB(db)
	_, err := db.NewDelete().
		Model((*RatingUpdate)(nil)).
		Where("match_ref = ?", matchRef).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledgerdb.DeleteRatingUpdatesForMatch: %w", err)
	}
	return nil
}

func (r *Impl) DeleteRatingUpdatesForOp(ctx context.Context, db bun.IDB, opID uuid.UUID) error {
	db = r.resolveDB(db)
	_, err := db.NewDelete().
		Model((*RatingUpdate)(nil)).
		Where("op_id = ?", opID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledgerdb.DeleteRatingUpdatesForOp: %w", err)
	}
	return nil
}

func (r *Impl) GetRatingHistory(ctx context.Context, db bun.IDB, playerID, leagueID uuid.UUID, limit int) ([]RatingUpdate, error) {
	db = r.resolveDB(db)
	var updates []RatingUpdate
	q := db.NewSelect().
		Model(&updates).
		Where("player_id = ?", playerID).
		Where("league_id = ?", leagueID).
		Order("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledgerdb.GetRatingHistory: %w", err)
	}
	return updates, nil
}

func (r *Impl) ListStandings(ctx context.Context, db bun.IDB, leagueID uuid.UUID) ([]PlayerRating, error) {
	db = r.resolveDB(db)
	var ratings []PlayerRating
	err := db.NewSelect().
		Model(&ratings).
		Where("league_id = ?", leagueID).
		Order("rating DESC", "wins DESC", "player_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledgerdb.ListStandings: %w", err)
	}
	return ratings, nil
}

func (r *Impl) ListLedger(ctx context.Context, db bun.IDB, leagueID uuid.UUID) ([]RatingUpdate, error) {
	db = r.resolveDB(db)
	var updates []RatingUpdate
	err := db.NewSelect().
		Model(&updates).
		Where("league_id = ?", leagueID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledgerdb.ListLedger: %w", err)
	}
	return updates, nil
}

func (r *Impl) FindInconsistentRatings(ctx context.Context, db bun.IDB) ([]PlayerRating, error) {
	db = r.resolveDB(db)
	var ratings []PlayerRating
	err := db.NewSelect().
		Model(&ratings).
		Where("games_played <> wins + losses + draws").
		Order("league_id ASC", "player_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledgerdb.FindInconsistentRatings: %w", err)
	}
	return ratings, nil
}

func (r *Impl) InsertAdminAction(ctx context.Context, db bun.IDB, action *AdminAction) error {
	db = r.resolveDB(db)
	if action.ID == uuid.Nil {
		action.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(action).Exec(ctx); err != nil {
		return fmt.Errorf("ledgerdb.InsertAdminAction: %w", err)
	}
	return nil
}

func (r *Impl) ListAdminActions(ctx context.Context, db bun.IDB, leagueID uuid.UUID, limit int) ([]AdminAction, error) {
	db = r.resolveDB(db)
	var actions []AdminAction
	q := db.NewSelect().
		Model(&actions).
		Where("league_id = ?", leagueID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledgerdb.ListAdminActions: %w", err)
	}
	return actions, nil
}
