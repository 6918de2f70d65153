package challengedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	challengedomain "github.com/UziB26/leagueladder-sub002/app/modules/challenge/domain"
	"github.com/UziB26/leagueladder-sub002/app/shared/dberr"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrNotFound is returned when a challenge is not found.
	ErrNotFound = errors.New("challenge not found")
	// ErrStatusConflict is returned when a compare-and-swap lost the race.
	ErrStatusConflict = errors.New("challenge status changed concurrently")
	// ErrDuplicatePending is returned when a pending challenge already exists.
	ErrDuplicatePending = errors.New("pending challenge already exists")
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new challenge repository.
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

func (r *Impl) Create(ctx context.Context, db bun.IDB, c *Challenge) error {
	db = r.resolveDB(db)
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.UpdatedAt = c.CreatedAt
	if _, err := db.NewInsert().Model(c).Exec(ctx); err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrDuplicatePending
		}
		return fmt.Errorf("challengedb.Create: %w", err)
	}
	return nil
}

func (r *Impl) get(ctx context.Context, db bun.IDB, id uuid.UUID, lock bool) (*Challenge, error) {
	db = r.resolveDB(db)
	c := new(Challenge)
	q := db.NewSelect().Model(c).Where("id = ?", id)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("challengedb.Get: %w", err)
	}
	return c, nil
}

func (r *Impl) Get(ctx context.Context, db bun.IDB, id uuid.UUID) (*Challenge, error) {
	return r.get(ctx, db, id, false)
}

func (r *Impl) GetForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Challenge, error) {
	return r.get(ctx, db, id, true)
}

func (r *Impl) FindPending(ctx context.Context, db bun.IDB, leagueID, challengerID, challengeeID uuid.UUID) (*Challenge, error) {
	db = r.resolveDB(db)
	c := new(Challenge)
	err := db.NewSelect().
		Model(c).
		Where("league_id = ?", leagueID).
		Where("challenger_id = ?", challengerID).
		Where("challengee_id = ?", challengeeID).
		Where("status = ?", challengedomain.StatusPending).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("challengedb.FindPending: %w", err)
	}
	return c, nil
}

func (r *Impl) Transition(ctx context.Context, db bun.IDB, t Transition) error {
	db = r.resolveDB(db)
	q := db.NewUpdate().
		Model((*Challenge)(nil)).
		Set("status = ?", t.To).
		Set("updated_at = ?", t.At).
		Where("id = ?", t.ID).
		Where("status = ?", t.From)
	if t.OpID != uuid.Nil {
		q = q.Set("last_op_id = ?", t.OpID)
	}
	if t.RespondedAt != nil {
		q = q.Set("responded_at = ?", *t.RespondedAt)
	}
	if t.CompletedAt != nil {
		q = q.Set("completed_at = ?", *t.CompletedAt)
	} else if t.To != challengedomain.StatusCompleted {
		q = q.Set("completed_at = NULL")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("challengedb.Transition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("challengedb.Transition: %w", err)
	}
	if n == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *Impl) ListForPlayer(ctx context.Context, db bun.IDB, playerID uuid.UUID, filter ListFilter) ([]Challenge, error) {
	db = r.resolveDB(db)
	var challenges []Challenge
	q := db.NewSelect().
		Model(&challenges).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("challenger_id = ?", playerID).WhereOr("challengee_id = ?", playerID)
		}).
		Order("created_at DESC")
	if filter.LeagueID != nil {
		q = q.Where("league_id = ?", *filter.LeagueID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN (?)", bun.In(filter.Statuses))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("challengedb.ListForPlayer: %w", err)
	}
	return challenges, nil
}

func (r *Impl) RestoreIfWrittenBy(ctx context.Context, db bun.IDB, snapshot *Challenge, opID uuid.UUID) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model(snapshot).
		Column("status", "responded_at", "completed_at", "last_op_id").
		Set("updated_at = ?", time.Now().UTC()).
		WherePK().
		Where("last_op_id = ?", opID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("challengedb.RestoreIfWrittenBy: %w", err)
	}
	return nil
}
