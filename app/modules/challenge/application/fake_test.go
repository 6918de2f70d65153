package challengeservice

import (
	"context"
	"sort"

	challengedomain "github.com/UziB26/leagueladder-sub002/app/modules/challenge/domain"
	challengedb "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Challenge Repo
// ------------------------

// FakeChallengeRepo keeps challenges in memory. The Func fields override the
// default behaviour of a single method.
type FakeChallengeRepo struct {
	trace []string
	rows  map[uuid.UUID]challengedb.Challenge

	CreateFunc     func(ctx context.Context, db bun.IDB, c *challengedb.Challenge) error
	TransitionFunc func(ctx context.Context, db bun.IDB, t challengedb.Transition) error
}

func NewFakeChallengeRepo() *FakeChallengeRepo {
	return &FakeChallengeRepo{
		trace: []string{},
		rows:  make(map[uuid.UUID]challengedb.Challenge),
	}
}

func (f *FakeChallengeRepo) record(step string) {
	f.trace = append(f.trace, step)
}

// Seed stores c as-is.
func (f *FakeChallengeRepo) Seed(c challengedb.Challenge) {
	f.rows[c.ID] = c
}

// Row returns the stored challenge.
func (f *FakeChallengeRepo) Row(id uuid.UUID) (challengedb.Challenge, bool) {
	c, ok := f.rows[id]
	return c, ok
}

// --- Repository Interface Implementation ---

func (f *FakeChallengeRepo) Create(ctx context.Context, db bun.IDB, c *challengedb.Challenge) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, db, c)
	}
	for _, row := range f.rows {
		if row.Status == challengedomain.StatusPending && row.LeagueID == c.LeagueID &&
			row.ChallengerID == c.ChallengerID && row.ChallengeeID == c.ChallengeeID {
			return challengedb.ErrDuplicatePending
		}
	}
	f.rows[c.ID] = *c
	return nil
}

func (f *FakeChallengeRepo) get(id uuid.UUID) (*challengedb.Challenge, error) {
	c, ok := f.rows[id]
	if !ok {
		return nil, challengedb.ErrNotFound
	}
	return &c, nil
}

func (f *FakeChallengeRepo) Get(ctx context.Context, db bun.IDB, id uuid.UUID) (*challengedb.Challenge, error) {
	f.record("Get")
	return f.get(id)
}

func (f *FakeChallengeRepo) GetForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*challengedb.Challenge, error) {
	f.record("GetForUpdate")
	return f.get(id)
}

func (f *FakeChallengeRepo) FindPending(ctx context.Context, db bun.IDB, leagueID, challengerID, challengeeID uuid.UUID) (*challengedb.Challenge, error) {
	f.record("FindPending")
	for _, row := range f.rows {
		if row.Status == challengedomain.StatusPending && row.LeagueID == leagueID &&
			row.ChallengerID == challengerID && row.ChallengeeID == challengeeID {
			c := row
			return &c, nil
		}
	}
	return nil, challengedb.ErrNotFound
}

func (f *FakeChallengeRepo) Transition(ctx context.Context, db bun.IDB, t challengedb.Transition) error {
	f.record("Transition:" + string(t.To))
	if f.TransitionFunc != nil {
		return f.TransitionFunc(ctx, db, t)
	}
	c, ok := f.rows[t.ID]
	if !ok || c.Status != t.From {
		return challengedb.ErrStatusConflict
	}
	c.Status = t.To
	c.UpdatedAt = t.At
	if t.OpID != uuid.Nil {
		c.LastOpID = t.OpID
	}
	if t.RespondedAt != nil {
		c.RespondedAt = t.RespondedAt
	}
	if t.CompletedAt != nil {
		c.CompletedAt = t.CompletedAt
	} else if t.To != challengedomain.StatusCompleted {
		c.CompletedAt = nil
	}
	f.rows[t.ID] = c
	return nil
}

func (f *FakeChallengeRepo) ListForPlayer(ctx context.Context, db bun.IDB, playerID uuid.UUID, filter challengedb.ListFilter) ([]challengedb.Challenge, error) {
	f.record("ListForPlayer")
	statuses := make(map[challengedomain.Status]bool, len(filter.Statuses))
	for _, st := range filter.Statuses {
		statuses[st] = true
	}
	var out []challengedb.Challenge
	for _, c := range f.rows {
		if !c.IsParticipant(playerID) {
			continue
		}
		if len(statuses) > 0 && !statuses[c.Status] {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeChallengeRepo) RestoreIfWrittenBy(ctx context.Context, db bun.IDB, snapshot *challengedb.Challenge, opID uuid.UUID) error {
	f.record("RestoreIfWrittenBy")
	c, ok := f.rows[snapshot.ID]
	if ok && c.LastOpID == opID {
		f.rows[snapshot.ID] = *snapshot
	}
	return nil
}

// --- Accessors for assertions ---

func (f *FakeChallengeRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ challengedb.Repository = (*FakeChallengeRepo)(nil)

// ------------------------
// Fake Membership Checker
// ------------------------

type FakeMembers struct {
	inactive map[uuid.UUID]bool
	Err      error
}

func NewFakeMembers(inactive ...uuid.UUID) *FakeMembers {
	f := &FakeMembers{inactive: make(map[uuid.UUID]bool)}
	for _, id := range inactive {
		f.inactive[id] = true
	}
	return f
}

func (f *FakeMembers) AreActiveMembers(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs ...uuid.UUID) (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}
	for _, id := range playerIDs {
		if f.inactive[id] {
			return false, nil
		}
	}
	return true, nil
}

var _ MembershipChecker = (*FakeMembers)(nil)
