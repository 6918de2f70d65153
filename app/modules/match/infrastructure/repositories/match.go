package matchdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	matchdomain "github.com/UziB26/leagueladder-sub002/app/modules/match/domain"
	"github.com/UziB26/leagueladder-sub002/app/shared/dberr"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrNotFound is returned when a match or dispute is not found.
	ErrNotFound = errors.New("match not found")
	// ErrStatusConflict is returned when a compare-and-swap lost the race.
	ErrStatusConflict = errors.New("match status changed concurrently")
	// ErrChallengeUsed is returned when a challenge already has a match.
	ErrChallengeUsed = errors.New("challenge already has a match")
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new match repository.
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

func (r *Impl) Create(ctx context.Context, db bun.IDB, m *Match) error {
	db = r.resolveDB(db)
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(m).Exec(ctx); err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrChallengeUsed
		}
		return fmt.Errorf("matchdb.Create: %w", err)
	}
	return nil
}

func (r *Impl) get(ctx context.Context, db bun.IDB, id uuid.UUID, lock bool) (*Match, error) {
	db = r.resolveDB(db)
	m := new(Match)
	q := db.NewSelect().Model(m).Where("id = ?", id)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("matchdb.Get: %w", err)
	}
	return m, nil
}

func (r *Impl) Get(ctx context.Context, db bun.IDB, id uuid.UUID) (*Match, error) {
	return r.get(ctx, db, id, false)
}

func (r *Impl) GetForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Match, error) {
	return r.get(ctx, db, id, true)
}

func (r *Impl) UpdateFrom(ctx context.Context, db bun.IDB, m *Match, from matchdomain.Status) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model(m).
		Column("status", "player1_score", "player2_score", "confirmed_at", "confirmed_by", "voided_at", "last_op_id", "updated_at").
		WherePK().
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("matchdb.UpdateFrom: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("matchdb.UpdateFrom: %w", err)
	}
	if n == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *Impl) List(ctx context.Context, db bun.IDB, filter ListFilter) ([]Match, error) {
	db = r.resolveDB(db)
	var matches []Match
	q := db.NewSelect().Model(&matches).Order("played_at DESC", "id DESC")
	if filter.LeagueID != nil {
		q = q.Where("league_id = ?", *filter.LeagueID)
	}
	if filter.PlayerID != nil {
		id := *filter.PlayerID
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("player1_id = ?", id).WhereOr("player2_id = ?", id)
		})
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN (?)", bun.In(filter.Statuses))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("matchdb.List: %w", err)
	}
	return matches, nil
}

func (r *Impl) InsertDispute(ctx context.Context, db bun.IDB, d *Dispute) error {
	db = r.resolveDB(db)
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(d).Exec(ctx); err != nil {
		return fmt.Errorf("matchdb.InsertDispute: %w", err)
	}
	return nil
}

func (r *Impl) LatestDispute(ctx context.Context, db bun.IDB, matchID uuid.UUID) (*Dispute, error) {
	db = r.resolveDB(db)
	d := new(Dispute)
	err := db.NewSelect().
		Model(d).
		Where("match_id = ?", matchID).
		Order("created_at DESC", "id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("matchdb.LatestDispute: %w", err)
	}
	return d, nil
}

func (r *Impl) ResolveDispute(ctx context.Context, db bun.IDB, disputeID, resolvedBy uuid.UUID, at time.Time, opID uuid.UUID) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*Dispute)(nil)).
		Set("resolved_at = ?", at).
		Set("resolved_by = ?", resolvedBy).
		Set("last_op_id = ?", opID).
		Where("id = ?", disputeID).
		Where("resolved_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("matchdb.ResolveDispute: %w", err)
	}
	return nil
}

func (r *Impl) RestoreIfWrittenBy(ctx context.Context, db bun.IDB, snapshot *Match, opID uuid.UUID) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model(snapshot).
		Column("status", "player1_score", "player2_score", "confirmed_at", "confirmed_by", "voided_at", "last_op_id", "updated_at").
		WherePK().
		Where("last_op_id = ?", opID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("matchdb.RestoreIfWrittenBy: %w", err)
	}
	return nil
}

func (r *Impl) RestoreDisputeIfWrittenBy(ctx context.Context, db bun.IDB, snapshot *Dispute, opID uuid.UUID) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model(snapshot).
		Column("resolved_at", "resolved_by", "last_op_id").
		WherePK().
		Where("last_op_id = ?", opID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("matchdb.RestoreDisputeIfWrittenBy: %w", err)
	}
	return nil
}
