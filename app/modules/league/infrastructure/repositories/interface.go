package leaguedb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for league and membership persistence.
type Repository interface {
	// CreateLeague inserts a league. Returns ErrDuplicate if the name is taken.
	CreateLeague(ctx context.Context, db bun.IDB, league *League) error

	// GetLeague retrieves a league by id.
	GetLeague(ctx context.Context, db bun.IDB, id uuid.UUID) (*League, error)

	// ListLeagues returns every league ordered by name.
	ListLeagues(ctx context.Context, db bun.IDB) ([]League, error)

	// CreatePlayer inserts a player. Returns ErrDuplicate if the display name is taken.
	CreatePlayer(ctx context.Context, db bun.IDB, player *Player) error

	// GetPlayer retrieves a player by id.
	GetPlayer(ctx context.Context, db bun.IDB, id uuid.UUID) (*Player, error)

	// GetPlayerByName retrieves a player by display name, case-insensitively.
	GetPlayerByName(ctx context.Context, db bun.IDB, displayName string) (*Player, error)

	// UpsertMembership creates a membership or reactivates an existing one.
	UpsertMembership(ctx context.Context, db bun.IDB, membership *Membership) error

	// SetMembershipActive flips the active flag of an existing membership.
	SetMembershipActive(ctx context.Context, db bun.IDB, leagueID, playerID uuid.UUID, active bool) error

	// ListMembers returns a league's memberships with their players.
	ListMembers(ctx context.Context, db bun.IDB, leagueID uuid.UUID, activeOnly bool) ([]Membership, error)

	// CountActiveMembers counts how many of playerIDs are active members of leagueID.
	CountActiveMembers(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs []uuid.UUID) (int, error)
}
