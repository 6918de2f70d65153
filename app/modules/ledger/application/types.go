package ledgerservice

import (
	"time"

	"github.com/UziB26/leagueladder-sub002/app/events"
	ledgerdomain "github.com/UziB26/leagueladder-sub002/app/modules/ledger/domain"
	"github.com/google/uuid"
)

// MatchOutcome is what the ledger needs to know about a match to apply or
// revert it.
type MatchOutcome struct {
	MatchID  uuid.UUID
	LeagueID uuid.UUID
	PlayerA  uuid.UUID
	PlayerB  uuid.UUID
	ScoreA   int
	ScoreB   int
}

// PlayerChange is one player's rating movement within a ledger write.
type PlayerChange struct {
	PlayerID  uuid.UUID
	OldRating int
	NewRating int
	Change    int
	Outcome   ledgerdomain.Outcome
	Record    ledgerdomain.Record
}

// LedgerChange is the effect of ApplyMatch or RevertMatch.
type LedgerChange struct {
	MatchRef string
	// Changes is ordered player A then player B for ApplyMatch and by player
	// id for RevertMatch.
	Changes []PlayerChange
	// NoOp is set when RevertMatch found no ledger rows for the match.
	NoOp bool
}

// EventChanges converts the change set for publishing.
func (c *LedgerChange) EventChanges() []events.RatingChange {
	if c == nil {
		return nil
	}
	out := make([]events.RatingChange, 0, len(c.Changes))
	for _, pc := range c.Changes {
		out = append(out, events.RatingChange{
			PlayerID:  pc.PlayerID,
			OldRating: pc.OldRating,
			NewRating: pc.NewRating,
			Change:    pc.Change,
		})
	}
	return out
}

// SetRatingRequest is an admin rating override.
type SetRatingRequest struct {
	PlayerID uuid.UUID
	LeagueID uuid.UUID
	Rating   int
	Reason   string
}

// RatingAdjustment is the result of SetRating.
type RatingAdjustment struct {
	PlayerID  uuid.UUID
	LeagueID  uuid.UUID
	MatchRef  string
	OldRating int
	NewRating int
	Change    int
	At        time.Time
}

// SetStatsRequest is an admin correction of a player's record.
type SetStatsRequest struct {
	PlayerID uuid.UUID
	LeagueID uuid.UUID
	Patch    ledgerdomain.StatsPatch
	// AllowDivergence accepts a result where games played differs from
	// wins + losses + draws.
	AllowDivergence bool
	Reason          string
}

// StatsAdjustment is the result of SetStats.
type StatsAdjustment struct {
	PlayerID uuid.UUID
	LeagueID uuid.UUID
	Before   ledgerdomain.Record
	After    ledgerdomain.Record
	Diverged bool
}
