package leaguedb

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
	// ErrNotFound is returned when a league, player or membership is not found.
	ErrNotFound = errors.New("league record not found")
	// ErrDuplicate is returned when a unique name is already taken.
	ErrDuplicate = errors.New("league record already exists")
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new league repository.
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

func (r *Impl) CreateLeague(ctx context.Context, db bun.IDB, league *League) error {
	db = r.resolveDB(db)
	if league.ID == uuid.Nil {
		league.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(league).Exec(ctx); err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("leaguedb.CreateLeague: %w", err)
	}
	return nil
}

func (r *Impl) GetLeague(ctx context.Context, db bun.IDB, id uuid.UUID) (*League, error) {
	db = r.resolveDB(db)
	league := new(League)
	if err := db.NewSelect().Model(league).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("leaguedb.GetLeague: %w", err)
	}
	return league, nil
}

func (r *Impl) ListLeagues(ctx context.Context, db bun.IDB) ([]League, error) {
	db = r.resolveDB(db)
	var leagues []League
	if err := db.NewSelect().Model(&leagues).Order("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("leaguedb.ListLeagues: %w", err)
	}
	return leagues, nil
}

func (r *Impl) CreatePlayer(ctx context.Context, db bun.IDB, player *Player) error {
	db = r.resolveDB(db)
	if player.ID == uuid.Nil {
		player.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(player).Exec(ctx); err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("leaguedb.CreatePlayer: %w", err)
	}
	return nil
}

func (r *Impl) GetPlayer(ctx context.Context, db bun.IDB, id uuid.UUID) (*Player, error) {
	db = r.resolveDB(db)
	player := new(Player)
	if err := db.NewSelect().Model(player).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("leaguedb.GetPlayer: %w", err)
	}
	return player, nil
}

func (r *Impl) GetPlayerByName(ctx context.Context, db bun.IDB, displayName string) (*Player, error) {
	db = r.resolveDB(db)
	player := new(Player)
	err := db.NewSelect().
		Model(player).
		Where("lower(display_name) = lower(?)", displayName).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("leaguedb.GetPlayerByName: %w", err)
	}
	return player, nil
}

func (r *Impl) UpsertMembership(ctx context.Context, db bun.IDB, membership *Membership) error {
	db = r.resolveDB(db)
	membership.UpdatedAt = time.Now().UTC()
	_, err := db.NewInsert().
		Model(membership).
		On("CONFLICT (league_id, player_id) DO UPDATE").
		Set("active = EXCLUDED.active").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("leaguedb.UpsertMembership: %w", err)
	}
	return nil
}

func (r *Impl) SetMembershipActive(ctx context.Context, db bun.IDB, leagueID, playerID uuid.UUID, active bool) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Membership)(nil)).
		Set("active = ?", active).
		Set("updated_at = ?", time.Now().UTC()).
		Where("league_id = ?", leagueID).
		Where("player_id = ?", playerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("leaguedb.SetMembershipActive: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("leaguedb.SetMembershipActive: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) ListMembers(ctx context.Context, db bun.IDB, leagueID uuid.UUID, activeOnly bool) ([]Membership, error) {
	db = r.resolveDB(db)
	var members []Membership
	q := db.NewSelect().
		Model(&members).
		Relation("Player").
		Where("lm.league_id = ?", leagueID).
		Order("lm.joined_at ASC")
	if activeOnly {
		q = q.Where("lm.active = TRUE")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("leaguedb.ListMembers: %w", err)
	}
	return members, nil
}

func (r *Impl) CountActiveMembers(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs []uuid.UUID) (int, error) {
	if len(playerIDs) == 0 {
		return 0, nil
	}
	db = r.resolveDB(db)
	n, err := db.NewSelect().
		Model((*Membership)(nil)).
		Where("league_id = ?", leagueID).
		Where("player_id IN (?)", bun.In(playerIDs)).
		Where("active = TRUE").
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("leaguedb.CountActiveMembers: %w", err)
	}
	return n, nil
}
