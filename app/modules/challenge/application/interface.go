package challengeservice

import (
	"context"
	"time"

	challengedomain "github.com/UziB26/leagueladder-sub002/app/modules/challenge/domain"
	challengedb "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Service drives the challenge lifecycle.
type Service interface {
	// Create opens a challenge from the actor to challengeeID.
	Create(ctx context.Context, a actor.Actor, leagueID, challengeeID uuid.UUID) (*challengedb.Challenge, error)

	// Respond applies an accept, decline or cancel.
	Respond(ctx context.Context, a actor.Actor, challengeID uuid.UUID, r challengedomain.Response) (*challengedb.Challenge, error)
	Accept(ctx context.Context, a actor.Actor, challengeID uuid.UUID) (*challengedb.Challenge, error)
	Decline(ctx context.Context, a actor.Actor, challengeID uuid.UUID) (*challengedb.Challenge, error)
	Cancel(ctx context.Context, a actor.Actor, challengeID uuid.UUID) (*challengedb.Challenge, error)

	// Get returns the challenge with its effective status. Only participants
	// and admins can see a challenge.
	Get(ctx context.Context, a actor.Actor, challengeID uuid.UUID) (*challengedb.Challenge, error)
	ListForPlayer(ctx context.Context, playerID uuid.UUID, filter challengedb.ListFilter) ([]challengedb.Challenge, error)

	// LoadForMatch locks an accepted challenge between the two players for a
	// score report inside the caller's transaction.
	LoadForMatch(ctx context.Context, db bun.IDB, challengeID, leagueID, playerA, playerB uuid.UUID) (*challengedb.Challenge, error)

	// MarkCompleted moves an accepted challenge to completed. Calling it on a
	// completed challenge is a no-op.
	MarkCompleted(ctx context.Context, db bun.IDB, challengeID, opID uuid.UUID, at time.Time) (*challengedb.Challenge, bool, error)

	// RevertToAccepted hands a completed challenge back to accepted. Any
	// other status is left alone.
	RevertToAccepted(ctx context.Context, db bun.IDB, challengeID, opID uuid.UUID, at time.Time) (*challengedb.Challenge, bool, error)

	// Section returns the backup section guarding one challenge row.
	Section(challengeID uuid.UUID) txguard.Section
}

var _ Service = (*ChallengeService)(nil)
