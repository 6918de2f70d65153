package leagueservice

import (
	"context"

	leaguedb "github.com/UziB26/leagueladder-sub002/app/modules/league/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake League Repo
// ------------------------

type FakeLeagueRepo struct {
	trace []string

	CreateLeagueFunc        func(ctx context.Context, db bun.IDB, league *leaguedb.League) error
	GetLeagueFunc           func(ctx context.Context, db bun.IDB, id uuid.UUID) (*leaguedb.League, error)
	ListLeaguesFunc         func(ctx context.Context, db bun.IDB) ([]leaguedb.League, error)
	CreatePlayerFunc        func(ctx context.Context, db bun.IDB, player *leaguedb.Player) error
	GetPlayerFunc           func(ctx context.Context, db bun.IDB, id uuid.UUID) (*leaguedb.Player, error)
	GetPlayerByNameFunc     func(ctx context.Context, db bun.IDB, displayName string) (*leaguedb.Player, error)
	UpsertMembershipFunc    func(ctx context.Context, db bun.IDB, membership *leaguedb.Membership) error
	SetMembershipActiveFunc func(ctx context.Context, db bun.IDB, leagueID, playerID uuid.UUID, active bool) error
	ListMembersFunc         func(ctx context.Context, db bun.IDB, leagueID uuid.UUID, activeOnly bool) ([]leaguedb.Membership, error)
	CountActiveMembersFunc  func(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs []uuid.UUID) (int, error)
}

func NewFakeLeagueRepo() *FakeLeagueRepo {
	return &FakeLeagueRepo{
		trace: []string{},
	}
}

func (f *FakeLeagueRepo) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Repository Interface Implementation ---

func (f *FakeLeagueRepo) CreateLeague(ctx context.Context, db bun.IDB, league *leaguedb.League) error {
	f.record("CreateLeague")
	if f.CreateLeagueFunc != nil {
		return f.CreateLeagueFunc(ctx, db, league)
	}
	return nil
}

func (f *FakeLeagueRepo) GetLeague(ctx context.Context, db bun.IDB, id uuid.UUID) (*leaguedb.League, error) {
	f.record("GetLeague")
	if f.GetLeagueFunc != nil {
		return f.GetLeagueFunc(ctx, db, id)
	}
	return nil, leaguedb.ErrNotFound
}

func (f *FakeLeagueRepo) ListLeagues(ctx context.Context, db bun.IDB) ([]leaguedb.League, error) {
	f.record("ListLeagues")
	if f.ListLeaguesFunc != nil {
		return f.ListLeaguesFunc(ctx, db)
	}
	return nil, nil
}

func (f *FakeLeagueRepo) CreatePlayer(ctx context.Context, db bun.IDB, player *leaguedb.Player) error {
	f.record("CreatePlayer")
	if f.CreatePlayerFunc != nil {
		return f.CreatePlayerFunc(ctx, db, player)
	}
	return nil
}

func (f *FakeLeagueRepo) GetPlayer(ctx context.Context, db bun.IDB, id uuid.UUID) (*leaguedb.Player, error) {
	f.record("GetPlayer")
	if f.GetPlayerFunc != nil {
		return f.GetPlayerFunc(ctx, db, id)
	}
	return nil, leaguedb.ErrNotFound
}

func (f *FakeLeagueRepo) GetPlayerByName(ctx context.Context, db bun.IDB, displayName string) (*leaguedb.Player, error) {
	f.record("GetPlayerByName")
	if f.GetPlayerByNameFunc != nil {
		return f.GetPlayerByNameFunc(ctx, db, displayName)
	}
	return nil, leaguedb.ErrNotFound
}

func (f *FakeLeagueRepo) UpsertMembership(ctx context.Context, db bun.IDB, membership *leaguedb.Membership) error {
	f.record("UpsertMembership")
	if f.UpsertMembershipFunc != nil {
		return f.UpsertMembershipFunc(ctx, db, membership)
	}
	return nil
}

func (f *FakeLeagueRepo) SetMembershipActive(ctx context.Context, db bun.IDB, leagueID, playerID uuid.UUID, active bool) error {
	f.record("SetMembershipActive")
	if f.SetMembershipActiveFunc != nil {
		return f.SetMembershipActiveFunc(ctx, db, leagueID, playerID, active)
	}
	return nil
}

func (f *FakeLeagueRepo) ListMembers(ctx context.Context, db bun.IDB, leagueID uuid.UUID, activeOnly bool) ([]leaguedb.Membership, error) {
	f.record("ListMembers")
	if f.ListMembersFunc != nil {
		return f.ListMembersFunc(ctx, db, leagueID, activeOnly)
	}
	return nil, nil
}

func (f *FakeLeagueRepo) CountActiveMembers(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs []uuid.UUID) (int, error) {
	f.record("CountActiveMembers")
	if f.CountActiveMembersFunc != nil {
		return f.CountActiveMembersFunc(ctx, db, leagueID, playerIDs)
	}
	return 0, nil
}

// --- Accessors for assertions ---

func (f *FakeLeagueRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ leaguedb.Repository = (*FakeLeagueRepo)(nil)
