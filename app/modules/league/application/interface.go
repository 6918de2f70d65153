package leagueservice

import (
	"context"
	"io"

	leaguedb "github.com/UziB26/leagueladder-sub002/app/modules/league/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Service manages leagues, players and memberships.
type Service interface {
	CreateLeague(ctx context.Context, a actor.Actor, name, gameType string) (*leaguedb.League, error)
	GetLeague(ctx context.Context, leagueID uuid.UUID) (*leaguedb.League, error)
	ListLeagues(ctx context.Context) ([]leaguedb.League, error)

	RegisterPlayer(ctx context.Context, displayName, contact string) (*leaguedb.Player, error)
	GetPlayer(ctx context.Context, playerID uuid.UUID) (*leaguedb.Player, error)

	JoinLeague(ctx context.Context, a actor.Actor, leagueID uuid.UUID) (*leaguedb.Membership, error)
	SetMembershipActive(ctx context.Context, a actor.Actor, leagueID, playerID uuid.UUID, active bool) error
	ListMembers(ctx context.Context, leagueID uuid.UUID, activeOnly bool) ([]leaguedb.Membership, error)
	ImportRoster(ctx context.Context, a actor.Actor, leagueID uuid.UUID, r io.Reader) (*RosterImport, error)

	// AreActiveMembers reports whether every player is an active member of
	// the league. db may be a transaction of the caller.
	AreActiveMembers(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs ...uuid.UUID) (bool, error)
}

var _ Service = (*LeagueService)(nil)
