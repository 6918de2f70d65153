package matchservice

import (
	"context"
	"sort"
	"time"

	challengedomain "github.com/UziB26/leagueladder-sub002/app/modules/challenge/domain"
	challengedb "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/repositories"
	ledgerservice "github.com/UziB26/leagueladder-sub002/app/modules/ledger/application"
	ledgerdomain "github.com/UziB26/leagueladder-sub002/app/modules/ledger/domain"
	matchdomain "github.com/UziB26/leagueladder-sub002/app/modules/match/domain"
	matchdb "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Match Repo
// ------------------------

// FakeMatchRepo keeps matches and disputes in memory.
type FakeMatchRepo struct {
	trace    []string
	rows     map[uuid.UUID]matchdb.Match
	disputes []matchdb.Dispute

	CreateFunc     func(ctx context.Context, db bun.IDB, m *matchdb.Match) error
	UpdateFromFunc func(ctx context.Context, db bun.IDB, m *matchdb.Match, from matchdomain.Status) error
}

func NewFakeMatchRepo() *FakeMatchRepo {
	return &FakeMatchRepo{
		trace: []string{},
		rows:  make(map[uuid.UUID]matchdb.Match),
	}
}

func (f *FakeMatchRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeMatchRepo) Trace() []string {
	return f.trace
}

// Seed stores m as-is.
func (f *FakeMatchRepo) Seed(m matchdb.Match) {
	f.rows[m.ID] = m
}

// Row returns the stored match.
func (f *FakeMatchRepo) Row(id uuid.UUID) matchdb.Match {
	return f.rows[id]
}

// Disputes returns every stored dispute.
func (f *FakeMatchRepo) Disputes() []matchdb.Dispute {
	return f.disputes
}

// --- Repository Interface Implementation ---

func (f *FakeMatchRepo) Create(ctx context.Context, db bun.IDB, m *matchdb.Match) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, db, m)
	}
	if m.ChallengeID != nil {
		for _, row := range f.rows {
			if row.ChallengeID != nil && *row.ChallengeID == *m.ChallengeID {
				return matchdb.ErrChallengeUsed
			}
		}
	}
	f.rows[m.ID] = *m
	return nil
}

func (f *FakeMatchRepo) get(id uuid.UUID) (*matchdb.Match, error) {
	m, ok := f.rows[id]
	if !ok {
		return nil, matchdb.ErrNotFound
	}
	return &m, nil
}

func (f *FakeMatchRepo) Get(ctx context.Context, db bun.IDB, id uuid.UUID) (*matchdb.Match, error) {
	f.record("Get")
	return f.get(id)
}

func (f *FakeMatchRepo) GetForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*matchdb.Match, error) {
	f.record("GetForUpdate")
	return f.get(id)
}

func (f *FakeMatchRepo) UpdateFrom(ctx context.Context, db bun.IDB, m *matchdb.Match, from matchdomain.Status) error {
	f.record("UpdateFrom:" + string(m.Status))
	if f.UpdateFromFunc != nil {
		return f.UpdateFromFunc(ctx, db, m, from)
	}
	cur, ok := f.rows[m.ID]
	if !ok || cur.Status != from {
		return matchdb.ErrStatusConflict
	}
	f.rows[m.ID] = *m
	return nil
}

func (f *FakeMatchRepo) List(ctx context.Context, db bun.IDB, filter matchdb.ListFilter) ([]matchdb.Match, error) {
	f.record("List")
	var out []matchdb.Match
	for _, m := range f.rows {
		if filter.LeagueID != nil && m.LeagueID != *filter.LeagueID {
			continue
		}
		if filter.PlayerID != nil && !m.IsParticipant(*filter.PlayerID) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeMatchRepo) InsertDispute(ctx context.Context, db bun.IDB, d *matchdb.Dispute) error {
	f.record("InsertDispute")
	f.disputes = append(f.disputes, *d)
	return nil
}

func (f *FakeMatchRepo) LatestDispute(ctx context.Context, db bun.IDB, matchID uuid.UUID) (*matchdb.Dispute, error) {
	f.record("LatestDispute")
	for i := len(f.disputes) - 1; i >= 0; i-- {
		if f.disputes[i].MatchID == matchID {
			d := f.disputes[i]
			return &d, nil
		}
	}
	return nil, matchdb.ErrNotFound
}

func (f *FakeMatchRepo) ResolveDispute(ctx context.Context, db bun.IDB, disputeID, resolvedBy uuid.UUID, at time.Time, opID uuid.UUID) error {
	f.record("ResolveDispute")
	for i := range f.disputes {
		if f.disputes[i].ID == disputeID && f.disputes[i].ResolvedAt == nil {
			f.disputes[i].ResolvedAt = &at
			f.disputes[i].ResolvedBy = &resolvedBy
			f.disputes[i].LastOpID = opID
		}
	}
	return nil
}

func (f *FakeMatchRepo) RestoreIfWrittenBy(ctx context.Context, db bun.IDB, snapshot *matchdb.Match, opID uuid.UUID) error {
	f.record("RestoreIfWrittenBy")
	if cur, ok := f.rows[snapshot.ID]; ok && cur.LastOpID == opID {
		f.rows[snapshot.ID] = *snapshot
	}
	return nil
}

func (f *FakeMatchRepo) RestoreDisputeIfWrittenBy(ctx context.Context, db bun.IDB, snapshot *matchdb.Dispute, opID uuid.UUID) error {
	f.record("RestoreDisputeIfWrittenBy")
	for i := range f.disputes {
		if f.disputes[i].ID == snapshot.ID && f.disputes[i].LastOpID == opID {
			f.disputes[i] = *snapshot
		}
	}
	return nil
}

var _ matchdb.Repository = (*FakeMatchRepo)(nil)

// ------------------------
// Fake Ledger
// ------------------------

type fakeRating struct {
	Rating int
	Record ledgerdomain.Record
}

type fakeEntry struct {
	PlayerID uuid.UUID
	Change   int
}

// FakeLedger applies the real Elo calculator to ratings held in memory.
type FakeLedger struct {
	trace   []string
	calc    ledgerdomain.Calculator
	ratings map[uuid.UUID]fakeRating
	entries map[string][]fakeEntry
	actions []string
}

func NewFakeLedger() *FakeLedger {
	return &FakeLedger{
		trace:   []string{},
		calc:    ledgerdomain.DefaultCalculator(),
		ratings: make(map[uuid.UUID]fakeRating),
		entries: make(map[string][]fakeEntry),
	}
}

func (f *FakeLedger) record(step string) {
	f.trace = append(f.trace, step)
}

// Rating returns a player's rating, or 0 if the player has none.
func (f *FakeLedger) Rating(playerID uuid.UUID) int {
	return f.ratings[playerID].Rating
}

func (f *FakeLedger) HasRating(playerID uuid.UUID) bool {
	_, ok := f.ratings[playerID]
	return ok
}

func (f *FakeLedger) Actions() []string {
	return f.actions
}

func (f *FakeLedger) ApplyMatch(ctx context.Context, db bun.IDB, m ledgerservice.MatchOutcome, opID uuid.UUID) (*ledgerservice.LedgerChange, error) {
	f.record("ApplyMatch")
	ref := ledgerdomain.MatchRef(m.MatchID)
	if len(f.entries[ref]) > 0 {
		return nil, apperrors.Conflict("match %s already has ledger entries", ref)
	}
	for _, id := range []uuid.UUID{m.PlayerA, m.PlayerB} {
		if _, ok := f.ratings[id]; !ok {
			f.ratings[id] = fakeRating{Rating: ledgerdomain.DefaultRating}
		}
	}
	a, b := f.ratings[m.PlayerA], f.ratings[m.PlayerB]
	calc := f.calc.CalculateForMatch(a.Rating, b.Rating, m.ScoreA, m.ScoreB)
	outA, outB := ledgerdomain.DetermineOutcome(m.ScoreA, m.ScoreB)

	change := &ledgerservice.LedgerChange{MatchRef: ref}
	for _, step := range []struct {
		id      uuid.UUID
		cur     fakeRating
		next    int
		delta   int
		outcome ledgerdomain.Outcome
	}{
		{m.PlayerA, a, calc.NewRatingA, calc.ChangeA, outA},
		{m.PlayerB, b, calc.NewRatingB, calc.ChangeB, outB},
	} {
		rec := step.cur.Record.Apply(step.outcome)
		f.ratings[step.id] = fakeRating{Rating: step.next, Record: rec}
		f.entries[ref] = append(f.entries[ref], fakeEntry{PlayerID: step.id, Change: step.delta})
		change.Changes = append(change.Changes, ledgerservice.PlayerChange{
			PlayerID:  step.id,
			OldRating: step.cur.Rating,
			NewRating: step.next,
			Change:    step.delta,
			Outcome:   step.outcome,
			Record:    rec,
		})
	}
	return change, nil
}

func (f *FakeLedger) RevertMatch(ctx context.Context, db bun.IDB, m ledgerservice.MatchOutcome, opID uuid.UUID) (*ledgerservice.LedgerChange, error) {
	f.record("RevertMatch")
	ref := ledgerdomain.MatchRef(m.MatchID)
	entries := f.entries[ref]
	if len(entries) == 0 {
		return &ledgerservice.LedgerChange{MatchRef: ref, NoOp: true}, nil
	}
	outA, outB := ledgerdomain.DetermineOutcome(m.ScoreA, m.ScoreB)
	change := &ledgerservice.LedgerChange{MatchRef: ref}
	for _, e := range entries {
		outcome := outA
		if e.PlayerID == m.PlayerB {
			outcome = outB
		}
		cur := f.ratings[e.PlayerID]
		rec, _ := cur.Record.Revert(outcome)
		f.ratings[e.PlayerID] = fakeRating{Rating: cur.Rating - e.Change, Record: rec}
		change.Changes = append(change.Changes, ledgerservice.PlayerChange{
			PlayerID:  e.PlayerID,
			OldRating: cur.Rating,
			NewRating: cur.Rating - e.Change,
			Change:    -e.Change,
			Outcome:   outcome,
			Record:    rec,
		})
	}
	delete(f.entries, ref)
	return change, nil
}

func (f *FakeLedger) RatingSection(leagueID uuid.UUID, playerIDs []uuid.UUID, matchRef string) txguard.Section {
	return &fakeLedgerSection{ledger: f, players: playerIDs, matchRef: matchRef}
}

func (f *FakeLedger) RecordAdminAction(ctx context.Context, db bun.IDB, a actor.Actor, action string, leagueID, matchID uuid.UUID, before, after any, reason string) error {
	f.record("RecordAdminAction:" + action)
	f.actions = append(f.actions, action)
	return nil
}

var _ Ledger = (*FakeLedger)(nil)

// fakeLedgerSection snapshots the fake ledger's ratings and entries.
type fakeLedgerSection struct {
	ledger   *FakeLedger
	players  []uuid.UUID
	matchRef string

	ratings map[uuid.UUID]fakeRating
	entries []fakeEntry
}

func (s *fakeLedgerSection) Kind() string { return "fake.ledger" }

func (s *fakeLedgerSection) Capture(ctx context.Context, db bun.IDB) error {
	s.ratings = make(map[uuid.UUID]fakeRating)
	for _, id := range s.players {
		if r, ok := s.ledger.ratings[id]; ok {
			s.ratings[id] = r
		}
	}
	s.entries = append([]fakeEntry(nil), s.ledger.entries[s.matchRef]...)
	return nil
}

func (s *fakeLedgerSection) Restore(ctx context.Context, db bun.IDB, opID uuid.UUID) error {
	s.ledger.record("Restore")
	for _, id := range s.players {
		if r, ok := s.ratings[id]; ok {
			s.ledger.ratings[id] = r
		} else {
			delete(s.ledger.ratings, id)
		}
	}
	if len(s.entries) == 0 {
		delete(s.ledger.entries, s.matchRef)
	} else {
		s.ledger.entries[s.matchRef] = s.entries
	}
	return nil
}

// ------------------------
// Fake Challenges
// ------------------------

// FakeChallenges tracks linked challenge status by id.
type FakeChallenges struct {
	trace    []string
	statuses map[uuid.UUID]challengedomain.Status

	LoadErr          error
	MarkCompletedErr error
}

func NewFakeChallenges() *FakeChallenges {
	return &FakeChallenges{
		trace:    []string{},
		statuses: make(map[uuid.UUID]challengedomain.Status),
	}
}

func (f *FakeChallenges) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeChallenges) Trace() []string {
	return f.trace
}

// Seed sets a challenge's status.
func (f *FakeChallenges) Seed(id uuid.UUID, status challengedomain.Status) {
	f.statuses[id] = status
}

func (f *FakeChallenges) Status(id uuid.UUID) challengedomain.Status {
	return f.statuses[id]
}

func (f *FakeChallenges) challenge(id uuid.UUID) *challengedb.Challenge {
	return &challengedb.Challenge{ID: id, Status: f.statuses[id]}
}

func (f *FakeChallenges) LoadForMatch(ctx context.Context, db bun.IDB, challengeID, leagueID, playerA, playerB uuid.UUID) (*challengedb.Challenge, error) {
	f.record("LoadForMatch")
	if f.LoadErr != nil {
		return nil, f.LoadErr
	}
	if f.statuses[challengeID] != challengedomain.StatusAccepted {
		return nil, apperrors.InvalidState("challenge %s is %s", challengeID, f.statuses[challengeID])
	}
	return f.challenge(challengeID), nil
}

func (f *FakeChallenges) MarkCompleted(ctx context.Context, db bun.IDB, challengeID, opID uuid.UUID, at time.Time) (*challengedb.Challenge, bool, error) {
	f.record("MarkCompleted")
	if f.MarkCompletedErr != nil {
		return nil, false, f.MarkCompletedErr
	}
	if f.statuses[challengeID] == challengedomain.StatusCompleted {
		return f.challenge(challengeID), false, nil
	}
	f.statuses[challengeID] = challengedomain.StatusCompleted
	return f.challenge(challengeID), true, nil
}

func (f *FakeChallenges) RevertToAccepted(ctx context.Context, db bun.IDB, challengeID, opID uuid.UUID, at time.Time) (*challengedb.Challenge, bool, error) {
	f.record("RevertToAccepted")
	if f.statuses[challengeID] != challengedomain.StatusCompleted {
		return f.challenge(challengeID), false, nil
	}
	f.statuses[challengeID] = challengedomain.StatusAccepted
	return f.challenge(challengeID), true, nil
}

func (f *FakeChallenges) Section(challengeID uuid.UUID) txguard.Section {
	return &fakeChallengeSection{owner: f, id: challengeID}
}

var _ Challenges = (*FakeChallenges)(nil)

type fakeChallengeSection struct {
	owner  *FakeChallenges
	id     uuid.UUID
	status challengedomain.Status
}

func (s *fakeChallengeSection) Kind() string { return "fake.challenge" }

func (s *fakeChallengeSection) Capture(ctx context.Context, db bun.IDB) error {
	s.status = s.owner.statuses[s.id]
	return nil
}

func (s *fakeChallengeSection) Restore(ctx context.Context, db bun.IDB, opID uuid.UUID) error {
	s.owner.statuses[s.id] = s.status
	return nil
}

// ------------------------
// Fake Members
// ------------------------

// FakeMembers treats every player as active except those in Inactive.
type FakeMembers struct {
	Inactive map[uuid.UUID]bool
	Err      error
}

func (f *FakeMembers) AreActiveMembers(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs ...uuid.UUID) (bool, error) {
	if f.Err != nil {
		return false, f.Err
	}
	for _, id := range playerIDs {
		if f.Inactive[id] {
			return false, nil
		}
	}
	return true, nil
}

var _ MembershipChecker = (*FakeMembers)(nil)
