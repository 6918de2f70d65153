package ledgerdomain

import "math"

const (
	// DefaultRating is the rating a player starts with in a league.
	DefaultRating = 1000
	// DefaultKFactor is the base magnitude of a rating change.
	DefaultKFactor = 32.0
	// DefaultMOVFloor is the smallest margin-of-victory multiplier.
	DefaultMOVFloor = 0.5
	// DefaultMOVCap bounds the multiplier so a single match moves at most 2x K.
	DefaultMOVCap = 2.0

	// MinAdminRating and MaxAdminRating bound admin rating overrides.
	MinAdminRating = 0
	MaxAdminRating = 5000

	// maxRatingGap clamps the gap used to dampen the multiplier so the
	// denominator stays positive for any admissible pair of ratings.
	maxRatingGap = 1500.0
)

// Calculator computes Elo rating changes for a single match.
type Calculator struct {
	KFactor  float64
	MOVFloor float64
	MOVCap   float64
}

// NewCalculator returns a Calculator, substituting defaults for zero values.
func NewCalculator(kFactor, movFloor, movCap float64) Calculator {
	if kFactor <= 0 {
		kFactor = DefaultKFactor
	}
	if movFloor <= 0 {
		movFloor = DefaultMOVFloor
	}
	if movCap < movFloor {
		movCap = DefaultMOVCap
	}
	return Calculator{KFactor: kFactor, MOVFloor: movFloor, MOVCap: movCap}
}

// DefaultCalculator uses K=32, floor 0.5 and cap 2.0.
func DefaultCalculator() Calculator {
	return NewCalculator(DefaultKFactor, DefaultMOVFloor, DefaultMOVCap)
}

// MatchResult is the outcome of CalculateForMatch.
type MatchResult struct {
	ExpectedA  float64
	ExpectedB  float64
	Multiplier float64
	NewRatingA int
	NewRatingB int
	ChangeA    int
	ChangeB    int
}

// ExpectedScore is the logistic expectation of A scoring against B.
func ExpectedScore(ratingA, ratingB int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// Round rounds half away from zero. It is the only rounding rule applied to
// ratings and changes.
func Round(x float64) int {
	return int(math.Round(x))
}

// MarginOfVictoryMultiplier scales K by how lopsided the result was. A large
// favourite winning big is dampened relative to an upset of the same margin.
// The value is non-decreasing in scoreDiff and clamped to [MOVFloor, MOVCap].
func (c Calculator) MarginOfVictoryMultiplier(scoreDiff, winnerRating, loserRating int) float64 {
	if scoreDiff < 0 {
		scoreDiff = -scoreDiff
	}

	gap := float64(winnerRating - loserRating)
	gap = math.Max(-maxRatingGap, math.Min(maxRatingGap, gap))

	m := math.Log(float64(scoreDiff)+1) * 2.2 / (gap*0.001 + 2.2)

	return math.Max(c.MOVFloor, math.Min(c.MOVCap, m))
}

// CalculateForMatch computes both players' new ratings. ChangeA and ChangeB
// are rounded independently and need not sum to zero.
func (c Calculator) CalculateForMatch(ratingA, ratingB, scoreA, scoreB int) MatchResult {
	expectedA := ExpectedScore(ratingA, ratingB)
	expectedB := ExpectedScore(ratingB, ratingA)

	actualA := ActualScore(scoreA, scoreB)
	actualB := 1.0 - actualA

	winner, loser := ratingA, ratingB
	if scoreB > scoreA {
		winner, loser = ratingB, ratingA
	}
	multiplier := c.MarginOfVictoryMultiplier(scoreA-scoreB, winner, loser)
	k := c.KFactor * multiplier

	changeA := Round(k * (actualA - expectedA))
	changeB := Round(k * (actualB - expectedB))

	return MatchResult{
		ExpectedA:  expectedA,
		ExpectedB:  expectedB,
		Multiplier: multiplier,
		NewRatingA: ratingA + changeA,
		NewRatingB: ratingB + changeB,
		ChangeA:    changeA,
		ChangeB:    changeB,
	}
}

// ActualScore is 1 for a win, 0 for a loss and 0.5 for a draw, from A's side.
func ActualScore(scoreA, scoreB int) float64 {
	switch {
	case scoreA > scoreB:
		return 1.0
	case scoreA < scoreB:
		return 0.0
	default:
		return 0.5
	}
}
