package ledgerservice

import (
	"bytes"
	"context"
	"sort"
	"sync"

	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Ledger Repo
// ------------------------

type ratingKey struct {
	player uuid.UUID
	league uuid.UUID
}

// FakeLedgerRepo is an in-memory ledger. The XFunc fields override the
// stateful default for failure injection.
type FakeLedgerRepo struct {
	mu    sync.Mutex
	trace []string

	ratings map[ratingKey]ledgerdb.PlayerRating
	updates []ledgerdb.RatingUpdate
	actions []ledgerdb.AdminAction

	LockRatingsFunc         func(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs []uuid.UUID) ([]ledgerdb.PlayerRating, error)
	UpdateRatingFunc        func(ctx context.Context, db bun.IDB, rating *ledgerdb.PlayerRating) error
	InsertRatingUpdatesFunc func(ctx context.Context, db bun.IDB, updates []ledgerdb.RatingUpdate) error
	InsertAdminActionFunc   func(ctx context.Context, db bun.IDB, action *ledgerdb.AdminAction) error
}

func NewFakeLedgerRepo() *FakeLedgerRepo {
	return &FakeLedgerRepo{
		trace:   []string{},
		ratings: make(map[ratingKey]ledgerdb.PlayerRating),
	}
}

func (f *FakeLedgerRepo) record(step string) {
	f.trace = append(f.trace, step)
}

// Seed stores a rating row directly.
func (f *FakeLedgerRepo) Seed(r ledgerdb.PlayerRating) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings[ratingKey{r.PlayerID, r.LeagueID}] = r
}

// Rating returns a stored row.
func (f *FakeLedgerRepo) Rating(playerID, leagueID uuid.UUID) (ledgerdb.PlayerRating, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.ratings[ratingKey{playerID, leagueID}]
	return r, ok
}

// Updates returns every stored ledger entry.
func (f *FakeLedgerRepo) Updates() []ledgerdb.RatingUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ledgerdb.RatingUpdate, len(f.updates))
	copy(out, f.updates)
	return out
}

// Actions returns every stored admin action.
func (f *FakeLedgerRepo) Actions() []ledgerdb.AdminAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ledgerdb.AdminAction, len(f.actions))
	copy(out, f.actions)
	return out
}

func (f *FakeLedgerRepo) selectRatings(leagueID uuid.UUID, playerIDs []uuid.UUID) []ledgerdb.PlayerRating {
	var out []ledgerdb.PlayerRating
	for _, id := range playerIDs {
		if r, ok := f.ratings[ratingKey{id, leagueID}]; ok {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].PlayerID[:], out[j].PlayerID[:]) < 0
	})
	return out
}

// --- Repository Interface Implementation ---

func (f *FakeLedgerRepo) GetRating(ctx context.Context, db bun.IDB, playerID, leagueID uuid.UUID) (*ledgerdb.PlayerRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetRating")
	r, ok := f.ratings[ratingKey{playerID, leagueID}]
	if !ok {
		return nil, ledgerdb.ErrNotFound
	}
	return &r, nil
}

func (f *FakeLedgerRepo) GetRatings(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs []uuid.UUID) ([]ledgerdb.PlayerRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetRatings")
	return f.selectRatings(leagueID, playerIDs), nil
}

func (f *FakeLedgerRepo) LockRatings(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs []uuid.UUID) ([]ledgerdb.PlayerRating, error) {
	if f.LockRatingsFunc != nil {
		f.mu.Lock()
		f.record("LockRatings")
		f.mu.Unlock()
		return f.LockRatingsFunc(ctx, db, leagueID, playerIDs)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LockRatings")
	return f.selectRatings(leagueID, playerIDs), nil
}

func (f *FakeLedgerRepo) EnsureRating(ctx context.Context, db bun.IDB, rating *ledgerdb.PlayerRating) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("EnsureRating")
	key := ratingKey{rating.PlayerID, rating.LeagueID}
	if _, ok := f.ratings[key]; ok {
		return false, nil
	}
	f.ratings[key] = *rating
	return true, nil
}

func (f *FakeLedgerRepo) UpdateRating(ctx context.Context, db bun.IDB, rating *ledgerdb.PlayerRating) error {
	if f.UpdateRatingFunc != nil {
		f.mu.Lock()
		f.record("UpdateRating")
		f.mu.Unlock()
		return f.UpdateRatingFunc(ctx, db, rating)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateRating")
	key := ratingKey{rating.PlayerID, rating.LeagueID}
	if _, ok := f.ratings[key]; !ok {
		return ledgerdb.ErrNotFound
	}
	f.ratings[key] = *rating
	return nil
}

func (f *FakeLedgerRepo) DeleteRating(ctx context.Context, db bun.IDB, playerID, leagueID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteRating")
	delete(f.ratings, ratingKey{playerID, leagueID})
	return nil
}

func (f *FakeLedgerRepo) InsertRatingUpdates(ctx context.Context, db bun.IDB, updates []ledgerdb.RatingUpdate) error {
	if f.InsertRatingUpdatesFunc != nil {
		f.mu.Lock()
		f.record("InsertRatingUpdates")
		f.mu.Unlock()
		return f.InsertRatingUpdatesFunc(ctx, db, updates)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertRatingUpdates")
	for _, u := range updates {
		for _, existing := range f.updates {
			if existing.MatchRef == u.MatchRef && existing.PlayerID == u.PlayerID {
				return ledgerdb.ErrDuplicate
			}
		}
	}
	f.updates = append(f.updates, updates...)
	return nil
}

func (f *FakeLedgerRepo) RestoreRatingUpdates(ctx context.Context, db bun.IDB, updates []ledgerdb.RatingUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RestoreRatingUpdates")
	for _, u := range updates {
		present := false
		for _, existing := range f.updates {
			if existing.ID == u.ID {
				present = true
				break
			}
		}
		if !present {
			f.updates = append(f.updates, u)
		}
	}
	return nil
}

func (f *FakeLedgerRepo) GetRatingUpdatesForMatch(ctx context.Context, db bun.IDB, matchRef string) ([]ledgerdb.RatingUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetRatingUpdatesForMatch")
	var out []ledgerdb.RatingUpdate
	for _, u := range f.updates {
		if u.MatchRef == matchRef {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *FakeLedgerRepo) deleteUpdatesWhere(keep func(ledgerdb.RatingUpdate) bool) {
	kept := f.updates[:0]
	for _, u := range f.updates {
		if keep(u) {
			kept = append(kept, u)
		}
	}
	f.updates = kept
}

func (f *FakeLedgerRepo) DeleteRatingUpdatesForMatch(ctx context.Context, db bun.IDB, matchRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteRatingUpdatesForMatch")
	f.deleteUpdatesWhere(func(u ledgerdb.RatingUpdate) bool { return u.MatchRef != matchRef })
	return nil
}

func (f *FakeLedgerRepo) DeleteRatingUpdatesForOp(ctx context.Context, db bun.IDB, opID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteRatingUpdatesForOp")
	f.deleteUpdatesWhere(func(u ledgerdb.RatingUpdate) bool { return u.OpID != opID })
	return nil
}

func (f *FakeLedgerRepo) GetRatingHistory(ctx context.Context, db bun.IDB, playerID, leagueID uuid.UUID, limit int) ([]ledgerdb.RatingUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetRatingHistory")
	var out []ledgerdb.RatingUpdate
	for i := len(f.updates) - 1; i >= 0; i-- {
		u := f.updates[i]
		if u.PlayerID == playerID && u.LeagueID == leagueID {
			out = append(out, u)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeLedgerRepo) ListStandings(ctx context.Context, db bun.IDB, leagueID uuid.UUID) ([]ledgerdb.PlayerRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListStandings")
	var out []ledgerdb.PlayerRating
	for _, r := range f.ratings {
		if r.LeagueID == leagueID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out, nil
}

func (f *FakeLedgerRepo) ListLedger(ctx context.Context, db bun.IDB, leagueID uuid.UUID) ([]ledgerdb.RatingUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListLedger")
	var out []ledgerdb.RatingUpdate
	for _, u := range f.updates {
		if u.LeagueID == leagueID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *FakeLedgerRepo) FindInconsistentRatings(ctx context.Context, db bun.IDB) ([]ledgerdb.PlayerRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindInconsistentRatings")
	var out []ledgerdb.PlayerRating
	for _, r := range f.ratings {
		if !r.Record().Consistent() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *FakeLedgerRepo) InsertAdminAction(ctx context.Context, db bun.IDB, action *ledgerdb.AdminAction) error {
	if f.InsertAdminActionFunc != nil {
		f.mu.Lock()
		f.record("InsertAdminAction")
		f.mu.Unlock()
		return f.InsertAdminActionFunc(ctx, db, action)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertAdminAction")
	f.actions = append(f.actions, *action)
	return nil
}

func (f *FakeLedgerRepo) ListAdminActions(ctx context.Context, db bun.IDB, leagueID uuid.UUID, limit int) ([]ledgerdb.AdminAction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListAdminActions")
	var out []ledgerdb.AdminAction
	for _, a := range f.actions {
		if a.LeagueID == leagueID {
			out = append(out, a)
		}
	}
	return out, nil
}

// --- Accessors for assertions ---

func (f *FakeLedgerRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ ledgerdb.Repository = (*FakeLedgerRepo)(nil)
