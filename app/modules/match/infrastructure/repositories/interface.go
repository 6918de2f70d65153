package matchdb

import (
	"context"
	"time"

	matchdomain "github.com/UziB26/leagueladder-sub002/app/modules/match/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for match persistence.
type Repository interface {
	// Create inserts a match. Returns ErrChallengeUsed if the challenge
	// already has a match.
	Create(ctx context.Context, db bun.IDB, m *Match) error

	Get(ctx context.Context, db bun.IDB, id uuid.UUID) (*Match, error)

	// GetForUpdate returns the match locked FOR UPDATE.
	GetForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Match, error)

	// UpdateFrom writes m's mutable columns if the stored status is still
	// from. Returns ErrStatusConflict otherwise.
	UpdateFrom(ctx context.Context, db bun.IDB, m *Match, from matchdomain.Status) error

	List(ctx context.Context, db bun.IDB, filter ListFilter) ([]Match, error)

	InsertDispute(ctx context.Context, db bun.IDB, d *Dispute) error

	// LatestDispute returns the most recent dispute of a match or ErrNotFound.
	LatestDispute(ctx context.Context, db bun.IDB, matchID uuid.UUID) (*Dispute, error)

	// ResolveDispute stamps an open dispute as resolved.
	ResolveDispute(ctx context.Context, db bun.IDB, disputeID, resolvedBy uuid.UUID, at time.Time, opID uuid.UUID) error

	// RestoreIfWrittenBy writes snapshot back if the stored match was last
	// written by opID.
	RestoreIfWrittenBy(ctx context.Context, db bun.IDB, snapshot *Match, opID uuid.UUID) error

	// RestoreDisputeIfWrittenBy writes snapshot back if the stored dispute
	// was last written by opID.
	RestoreDisputeIfWrittenBy(ctx context.Context, db bun.IDB, snapshot *Dispute, opID uuid.UUID) error
}
