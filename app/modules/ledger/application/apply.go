package ledgerservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	ledgerdomain "github.com/UziB26/leagueladder-sub002/app/modules/ledger/domain"
	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RatingSection returns the backup section guarding the given players.
func (s *LedgerService) RatingSection(leagueID uuid.UUID, playerIDs []uuid.UUID, matchRef string) txguard.Section {
	return ledgerdb.NewRatingSection(s.repo, leagueID, orderedPlayers(playerIDs...), matchRef)
}

// ApplyMatch creates missing rating rows, applies the Elo change for the match
// and appends one ledger entry per player. Rows are locked in ascending player
// order.
func (s *LedgerService) ApplyMatch(ctx context.Context, db bun.IDB, m MatchOutcome, opID uuid.UUID) (*LedgerChange, error) {
	if m.PlayerA == m.PlayerB {
		return nil, apperrors.Validation("a player cannot play against themselves")
	}

	ref := ledgerdomain.MatchRef(m.MatchID)
	players := orderedPlayers(m.PlayerA, m.PlayerB)
	now := s.clock.Now()

	for _, playerID := range players {
		created, err := s.repo.EnsureRating(ctx, db, &ledgerdb.PlayerRating{
			PlayerID:  playerID,
			LeagueID:  m.LeagueID,
			Rating:    s.initialRating,
			LastOpID:  opID,
			CreatedAt: now,
		})
		if err != nil {
			return nil, err
		}
		if created {
			s.logger.DebugContext(ctx, "Created initial rating",
				attr.UUID("player_id", playerID),
				attr.UUID("league_id", m.LeagueID),
				attr.Int("rating", s.initialRating),
			)
		}
	}

	rows, err := s.repo.LockRatings(ctx, db, m.LeagueID, players)
	if err != nil {
		return nil, err
	}
	byPlayer := indexRatings(rows)
	ratingA, okA := byPlayer[m.PlayerA]
	ratingB, okB := byPlayer[m.PlayerB]
	if !okA || !okB {
		return nil, fmt.Errorf("rating rows missing for match %s after ensure", ref)
	}

	calc := s.calc.CalculateForMatch(ratingA.Rating, ratingB.Rating, m.ScoreA, m.ScoreB)
	outcomeA, outcomeB := ledgerdomain.DetermineOutcome(m.ScoreA, m.ScoreB)

	steps := []struct {
		row       *ledgerdb.PlayerRating
		newRating int
		delta     int
		outcome   ledgerdomain.Outcome
	}{
		{ratingA, calc.NewRatingA, calc.ChangeA, outcomeA},
		{ratingB, calc.NewRatingB, calc.ChangeB, outcomeB},
	}

	change := &LedgerChange{MatchRef: ref}
	updates := make([]ledgerdb.RatingUpdate, 0, len(steps))
	for _, step := range steps {
		old := step.row.Rating
		step.row.Rating = step.newRating
		step.row.SetRecord(step.row.Record().Apply(step.outcome))
		step.row.LastOpID = opID
		if err := s.repo.UpdateRating(ctx, db, step.row); err != nil {
			return nil, err
		}

		updates = append(updates, ledgerdb.RatingUpdate{
			ID:        uuid.New(),
			MatchRef:  ref,
			PlayerID:  step.row.PlayerID,
			LeagueID:  m.LeagueID,
			OldRating: old,
			NewRating: step.newRating,
			Change:    step.delta,
			OpID:      opID,
			CreatedAt: now,
		})
		change.Changes = append(change.Changes, PlayerChange{
			PlayerID:  step.row.PlayerID,
			OldRating: old,
			NewRating: step.newRating,
			Change:    step.delta,
			Outcome:   step.outcome,
			Record:    step.row.Record(),
		})
	}

	if err := s.repo.InsertRatingUpdates(ctx, db, updates); err != nil {
		if errors.Is(err, ledgerdb.ErrDuplicate) {
			return nil, apperrors.Conflict("match %s already has ledger entries", ref)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "Applied match to ledger",
		attr.ExtractCorrelationID(ctx),
		attr.String("match_ref", ref),
		attr.Int("change_a", calc.ChangeA),
		attr.Int("change_b", calc.ChangeB),
		attr.Any("multiplier", calc.Multiplier),
	)
	return change, nil
}

// RevertMatch subtracts each ledger entry's change from the player's current
// rating, decrements the counters the match incremented and deletes the
// entries. When no later entry touched a player the result equals the entry's
// old rating.
func (s *LedgerService) RevertMatch(ctx context.Context, db bun.IDB, m MatchOutcome, opID uuid.UUID) (*LedgerChange, error) {
	ref := ledgerdomain.MatchRef(m.MatchID)

	entries, err := s.repo.GetRatingUpdatesForMatch(ctx, db, ref)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		s.logger.InfoContext(ctx, "Match has no ledger entries, nothing to revert",
			attr.ExtractCorrelationID(ctx),
			attr.String("match_ref", ref),
		)
		return &LedgerChange{MatchRef: ref, NoOp: true}, nil
	}

	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.PlayerID)
	}
	rows, err := s.repo.LockRatings(ctx, db, m.LeagueID, orderedPlayers(ids...))
	if err != nil {
		return nil, err
	}
	byPlayer := indexRatings(rows)

	outcomeA, outcomeB := ledgerdomain.DetermineOutcome(m.ScoreA, m.ScoreB)

	change := &LedgerChange{MatchRef: ref}
	for _, e := range entries {
		var outcome ledgerdomain.Outcome
		switch e.PlayerID {
		case m.PlayerA:
			outcome = outcomeA
		case m.PlayerB:
			outcome = outcomeB
		default:
			return nil, fmt.Errorf("ledger entry %s for match %s names player %s outside the match", e.ID, ref, e.PlayerID)
		}

		row, ok := byPlayer[e.PlayerID]
		if !ok {
			return nil, fmt.Errorf("no rating row for player %s to revert match %s", e.PlayerID, ref)
		}

		old := row.Rating
		row.Rating = old - e.Change
		if row.Rating != e.OldRating {
			s.logger.InfoContext(ctx, "Player rating moved since match, reverting delta only",
				attr.String("match_ref", ref),
				attr.UUID("player_id", e.PlayerID),
				attr.Int("ledger_old_rating", e.OldRating),
				attr.Int("reverted_rating", row.Rating),
			)
		}

		rec, clamped := row.Record().Revert(outcome)
		if clamped {
			s.logger.WarnContext(ctx, "Counter already at zero while reverting match",
				attr.String("match_ref", ref),
				attr.UUID("player_id", e.PlayerID),
			)
		}
		row.SetRecord(rec)
		row.LastOpID = opID

		if err := s.repo.UpdateRating(ctx, db, row); err != nil {
			return nil, err
		}

		change.Changes = append(change.Changes, PlayerChange{
			PlayerID:  e.PlayerID,
			OldRating: old,
			NewRating: row.Rating,
			Change:    -e.Change,
			Outcome:   outcome,
			Record:    rec,
		})
	}

	if err := s.repo.DeleteRatingUpdatesForMatch(ctx, db, ref); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Reverted match ledger entries",
		attr.ExtractCorrelationID(ctx),
		attr.String("match_ref", ref),
		attr.Int("entries", len(entries)),
	)
	return change, nil
}

// orderedPlayers returns the distinct ids in ascending byte order, the order
// Postgres sorts uuid columns in.
func orderedPlayers(ids ...uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

func indexRatings(rows []ledgerdb.PlayerRating) map[uuid.UUID]*ledgerdb.PlayerRating {
	m := make(map[uuid.UUID]*ledgerdb.PlayerRating, len(rows))
	for i := range rows {
		m[rows[i].PlayerID] = &rows[i]
	}
	return m
}
