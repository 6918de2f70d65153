package matchservice

import (
	"context"

	matchdb "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/google/uuid"
)

// Service drives the match lifecycle and, through it, the rating ledger.
type Service interface {
	// ReportScore records a result awaiting the opponent's confirmation. No
	// rating changes until then.
	ReportScore(ctx context.Context, a actor.Actor, req ReportRequest) (*matchdb.Match, error)

	// Confirm completes a pending match and applies it to the ledger. The
	// reporter cannot confirm their own report.
	Confirm(ctx context.Context, a actor.Actor, matchID uuid.UUID) (*Transition, error)

	// Dispute rejects a pending report with a proposed correction. Ratings
	// are untouched.
	Dispute(ctx context.Context, a actor.Actor, matchID uuid.UUID, req DisputeRequest) (*matchdb.Dispute, error)

	// ResolveDispute completes a disputed match with an admin-approved score.
	ResolveDispute(ctx context.Context, a actor.Actor, matchID uuid.UUID, req ResolveRequest) (*Transition, error)

	// Void reverts a completed match's ledger entries exactly.
	Void(ctx context.Context, a actor.Actor, matchID uuid.UUID, reason string) (*Transition, error)

	// Unvoid applies a voided match again against current ratings. The
	// result matches the original only if neither player has played since.
	Unvoid(ctx context.Context, a actor.Actor, matchID uuid.UUID, reason string) (*Transition, error)

	Get(ctx context.Context, matchID uuid.UUID) (*matchdb.Match, error)
	List(ctx context.Context, filter matchdb.ListFilter) ([]matchdb.Match, error)
	LatestDispute(ctx context.Context, matchID uuid.UUID) (*matchdb.Dispute, error)
}

var _ Service = (*MatchService)(nil)
