package ledgerdomain

// Outcome is a single player's result in a match.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// DetermineOutcome returns the outcome for player A and player B. Confirm and
// void both use it so counters are decremented exactly as they were
// incremented.
func DetermineOutcome(scoreA, scoreB int) (Outcome, Outcome) {
	switch {
	case scoreA > scoreB:
		return OutcomeWin, OutcomeLoss
	case scoreA < scoreB:
		return OutcomeLoss, OutcomeWin
	default:
		return OutcomeDraw, OutcomeDraw
	}
}

// Record is a player's cumulative results within a league.
type Record struct {
	GamesPlayed int `json:"games_played"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	Draws       int `json:"draws"`
}

// Consistent reports whether GamesPlayed == Wins + Losses + Draws.
func (r Record) Consistent() bool {
	return r.GamesPlayed == r.Wins+r.Losses+r.Draws
}

// Apply counts one game with the given outcome.
func (r Record) Apply(o Outcome) Record {
	r.GamesPlayed++
	switch o {
	case OutcomeWin:
		r.Wins++
	case OutcomeLoss:
		r.Losses++
	case OutcomeDraw:
		r.Draws++
	}
	return r
}

// Revert removes one game with the given outcome. Counters never go below
// zero; clamped reports whether a counter was already at zero.
func (r Record) Revert(o Outcome) (out Record, clamped bool) {
	dec := func(v *int) {
		if *v > 0 {
			*v--
			return
		}
		clamped = true
	}

	dec(&r.GamesPlayed)
	switch o {
	case OutcomeWin:
		dec(&r.Wins)
	case OutcomeLoss:
		dec(&r.Losses)
	case OutcomeDraw:
		dec(&r.Draws)
	}
	return r, clamped
}

// StatsPatch is a partial admin correction of a Record. Nil fields are left
// untouched.
type StatsPatch struct {
	Wins        *int
	Losses      *int
	Draws       *int
	GamesPlayed *int
}

// Empty reports whether no field is set.
func (p StatsPatch) Empty() bool {
	return p.Wins == nil && p.Losses == nil && p.Draws == nil && p.GamesPlayed == nil
}

// Negative reports the name of the first field set below zero.
func (p StatsPatch) Negative() (string, bool) {
	fields := []struct {
		name string
		v    *int
	}{
		{"wins", p.Wins},
		{"losses", p.Losses},
		{"draws", p.Draws},
		{"gamesPlayed", p.GamesPlayed},
	}
	for _, f := range fields {
		if f.v != nil && *f.v < 0 {
			return f.name, true
		}
	}
	return "", false
}

// ApplyTo returns r with every set field overwritten.
func (p StatsPatch) ApplyTo(r Record) Record {
	if p.Wins != nil {
		r.Wins = *p.Wins
	}
	if p.Losses != nil {
		r.Losses = *p.Losses
	}
	if p.Draws != nil {
		r.Draws = *p.Draws
	}
	if p.GamesPlayed != nil {
		r.GamesPlayed = *p.GamesPlayed
	}
	return r
}

// ValidAdminRating reports whether rating is within the admin override bounds.
func ValidAdminRating(rating int) bool {
	return rating >= MinAdminRating && rating <= MaxAdminRating
}
