package challengedb

import (
	"context"

	challengedomain "github.com/UziB26/leagueladder-sub002/app/modules/challenge/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ListFilter narrows ListForPlayer.
type ListFilter struct {
	LeagueID *uuid.UUID
	Statuses []challengedomain.Status
	Limit    int
}

// Repository defines the contract for challenge persistence.
type Repository interface {
	// Create inserts a challenge. Returns ErrDuplicatePending if a pending
	// challenge exists for the same league, challenger and challengee.
	Create(ctx context.Context, db bun.IDB, c *Challenge) error

	// Get returns a challenge or ErrNotFound.
	Get(ctx context.Context, db bun.IDB, id uuid.UUID) (*Challenge, error)

	// GetForUpdate returns a challenge locked FOR UPDATE.
	GetForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Challenge, error)

	// FindPending returns the pending challenge for the triple, or ErrNotFound.
	FindPending(ctx context.Context, db bun.IDB, leagueID, challengerID, challengeeID uuid.UUID) (*Challenge, error)

	// Transition moves a challenge from t.From to t.To. Returns
	// ErrStatusConflict if the stored status is no longer t.From.
	Transition(ctx context.Context, db bun.IDB, t Transition) error

	// ListForPlayer returns challenges the player sent or received, newest first.
	ListForPlayer(ctx context.Context, db bun.IDB, playerID uuid.UUID, filter ListFilter) ([]Challenge, error)

	// RestoreIfWrittenBy writes snapshot back if the stored row was last
	// written by opID.
	RestoreIfWrittenBy(ctx context.Context, db bun.IDB, snapshot *Challenge, opID uuid.UUID) error
}
