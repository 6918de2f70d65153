package matchservice

import (
	"time"

	"github.com/UziB26/leagueladder-sub002/app/events"
	challengedb "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/repositories"
	ledgerservice "github.com/UziB26/leagueladder-sub002/app/modules/ledger/application"
	matchdb "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories"
	"github.com/google/uuid"
)

// ReportRequest is a score submitted by one of the players. Scores are from
// the reporter's side.
type ReportRequest struct {
	LeagueID      uuid.UUID
	ChallengeID   *uuid.UUID
	OpponentID    uuid.UUID
	ReporterScore int
	OpponentScore int
	// PlayedAt is RFC 3339 or natural language; empty means now.
	PlayedAt string
}

// DisputeRequest carries the disputer's correction in match orientation
// (player 1 first).
type DisputeRequest struct {
	ProposedScore1 int
	ProposedScore2 int
	Reason         string
}

// ResolveRequest is the admin-approved final score in match orientation.
type ResolveRequest struct {
	Score1 int
	Score2 int
	Reason string
}

// Transition is the outcome of a match state change.
type Transition struct {
	Match  *matchdb.Match
	Ledger *ledgerservice.LedgerChange
	// Challenge is set when the linked challenge changed status.
	Challenge *challengedb.Challenge
}

func outcomeOf(m *matchdb.Match) ledgerservice.MatchOutcome {
	return ledgerservice.MatchOutcome{
		MatchID:  m.ID,
		LeagueID: m.LeagueID,
		PlayerA:  m.Player1ID,
		PlayerB:  m.Player2ID,
		ScoreA:   m.Player1Score,
		ScoreB:   m.Player2Score,
	}
}

func matchPayload(t *Transition, actorID uuid.UUID, at time.Time) events.MatchPayload {
	m := t.Match
	return events.MatchPayload{
		MatchID:      m.ID,
		LeagueID:     m.LeagueID,
		ChallengeID:  m.ChallengeID,
		Player1ID:    m.Player1ID,
		Player2ID:    m.Player2ID,
		Player1Score: m.Player1Score,
		Player2Score: m.Player2Score,
		Status:       string(m.Status),
		ActorID:      actorID,
		Changes:      t.Ledger.EventChanges(),
		OccurredAt:   at,
	}
}

// snapshot is the audit view of a match before and after an admin action.
type snapshot struct {
	Status       string `json:"status"`
	Player1Score int    `json:"player1_score"`
	Player2Score int    `json:"player2_score"`
}

func snapshotOf(m *matchdb.Match) snapshot {
	return snapshot{Status: string(m.Status), Player1Score: m.Player1Score, Player2Score: m.Player2Score}
}
