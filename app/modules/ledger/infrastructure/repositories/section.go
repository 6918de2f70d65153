package ledgerdb

import (
	"context"
	"fmt"

	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RatingSectionKind identifies rating sections in persisted backups.
const RatingSectionKind = "ledger.ratings"

var _ txguard.Section = (*RatingSection)(nil)

// RatingSection guards the rating rows of a set of players and, when MatchRef
// is set, the ledger entries of that match.
type RatingSection struct {
	repo Repository

	LeagueID  uuid.UUID      `json:"league_id"`
	PlayerIDs []uuid.UUID    `json:"player_ids"`
	MatchRef  string         `json:"match_ref,omitempty"`
	Ratings   []PlayerRating `json:"ratings"`
	Updates   []RatingUpdate `json:"updates"`
}

// NewRatingSection creates a section for the given players. matchRef may be
// empty for admin adjustments.
func NewRatingSection(repo Repository, leagueID uuid.UUID, playerIDs []uuid.UUID, matchRef string) *RatingSection {
	return &RatingSection{
		repo:      repo,
		LeagueID:  leagueID,
		PlayerIDs: playerIDs,
		MatchRef:  matchRef,
	}
}

// RatingSectionFactory returns a factory for decoding persisted sections.
func RatingSectionFactory(repo Repository) func() txguard.Section {
	return func() txguard.Section {
		return &RatingSection{repo: repo}
	}
}

func (s *RatingSection) Kind() string { return RatingSectionKind }

func (s *RatingSection) Capture(ctx context.Context, db bun.IDB) error {
	ratings, err := s.repo.GetRatings(ctx, db, s.LeagueID, s.PlayerIDs)
	if err != nil {
		return err
	}
	s.Ratings = ratings

	if s.MatchRef != "" {
		updates, err := s.repo.GetRatingUpdatesForMatch(ctx, db, s.MatchRef)
		if err != nil {
			return err
		}
		s.Updates = updates
	}
	return nil
}

// Restore rolls back rating rows last written by opID to their captured
// values (deleting rows the operation created), removes ledger entries the
// operation appended and re-inserts entries it deleted.
func (s *RatingSection) Restore(ctx context.Context, db bun.IDB, opID uuid.UUID) error {
	current, err := s.repo.GetRatings(ctx, db, s.LeagueID, s.PlayerIDs)
	if err != nil {
		return err
	}

	captured := make(map[uuid.UUID]PlayerRating, len(s.Ratings))
	for _, r := range s.Ratings {
		captured[r.PlayerID] = r
	}

	touched := false
	for _, cur := range current {
		if cur.LastOpID != opID {
			continue
		}
		touched = true

		snap, existed := captured[cur.PlayerID]
		if !existed {
			if err := s.repo.DeleteRating(ctx, db, cur.PlayerID, cur.LeagueID); err != nil {
				return fmt.Errorf("delete created rating %s: %w", cur.PlayerID, err)
			}
			continue
		}
		if err := s.repo.UpdateRating(ctx, db, &snap); err != nil {
			return fmt.Errorf("restore rating %s: %w", cur.PlayerID, err)
		}
	}

	// Ledger rows of an op only exist alongside rating rows it stamped.
	if !touched {
		return nil
	}
	if err := s.repo.DeleteRatingUpdatesForOp(ctx, db, opID); err != nil {
		return err
	}

	if s.MatchRef != "" {
		if err := s.repo.RestoreRatingUpdates(ctx, db, s.Updates); err != nil {
			return err
		}
	}
	return nil
}
