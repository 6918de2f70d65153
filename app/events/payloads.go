package events

import (
	"time"

	"github.com/google/uuid"
)

// ChallengePayload describes a challenge after a transition.
type ChallengePayload struct {
	ChallengeID  uuid.UUID `json:"challenge_id"`
	LeagueID     uuid.UUID `json:"league_id"`
	ChallengerID uuid.UUID `json:"challenger_id"`
	ChallengeeID uuid.UUID `json:"challengee_id"`
	Status       string    `json:"status"`
	ExpiresAt    time.Time `json:"expires_at"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ChallengeCreateRequestedPayload asks for a new challenge.
type ChallengeCreateRequestedPayload struct {
	LeagueID     uuid.UUID `json:"league_id"`
	ChallengerID uuid.UUID `json:"challenger_id"`
	ChallengeeID uuid.UUID `json:"challengee_id"`
}

// ChallengeRespondRequestedPayload carries accept, decline or cancel.
type ChallengeRespondRequestedPayload struct {
	ChallengeID uuid.UUID `json:"challenge_id"`
	ActorID     uuid.UUID `json:"actor_id"`
	// Response is one of "accept", "decline" or "cancel".
	Response string `json:"response"`
}

// CommandFailedPayload reports a rejected command back to its sender.
type CommandFailedPayload struct {
	Command string    `json:"command"`
	Kind    string    `json:"kind"`
	Reason  string    `json:"reason"`
	ActorID uuid.UUID `json:"actor_id"`
}

// RatingChange is one player's rating movement.
type RatingChange struct {
	PlayerID  uuid.UUID `json:"player_id"`
	OldRating int       `json:"old_rating"`
	NewRating int       `json:"new_rating"`
	Change    int       `json:"change"`
}

// MatchPayload describes a match after a transition.
type MatchPayload struct {
	MatchID      uuid.UUID      `json:"match_id"`
	LeagueID     uuid.UUID      `json:"league_id"`
	ChallengeID  *uuid.UUID     `json:"challenge_id,omitempty"`
	Player1ID    uuid.UUID      `json:"player1_id"`
	Player2ID    uuid.UUID      `json:"player2_id"`
	Player1Score int            `json:"player1_score"`
	Player2Score int            `json:"player2_score"`
	Status       string         `json:"status"`
	ActorID      uuid.UUID      `json:"actor_id"`
	Changes      []RatingChange `json:"changes,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
}

// MatchDisputedPayload carries the disputer's proposed correction.
type MatchDisputedPayload struct {
	MatchID        uuid.UUID `json:"match_id"`
	LeagueID       uuid.UUID `json:"league_id"`
	DisputedBy     uuid.UUID `json:"disputed_by"`
	ProposedScore1 int       `json:"proposed_score1"`
	ProposedScore2 int       `json:"proposed_score2"`
	Reason         string    `json:"reason"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// MatchReportRequestedPayload asks for a score to be reported.
type MatchReportRequestedPayload struct {
	LeagueID    uuid.UUID  `json:"league_id"`
	ChallengeID *uuid.UUID `json:"challenge_id,omitempty"`
	ReporterID  uuid.UUID  `json:"reporter_id"`
	OpponentID  uuid.UUID  `json:"opponent_id"`
	// Scores are from the reporter's side.
	ReporterScore int `json:"reporter_score"`
	OpponentScore int `json:"opponent_score"`
	// PlayedAt accepts natural language such as "yesterday 7pm".
	PlayedAt string `json:"played_at,omitempty"`
}

// MatchConfirmRequestedPayload asks for a pending match to be confirmed.
type MatchConfirmRequestedPayload struct {
	MatchID uuid.UUID `json:"match_id"`
	ActorID uuid.UUID `json:"actor_id"`
}

// MatchDisputeRequestedPayload asks for a pending match to be disputed.
type MatchDisputeRequestedPayload struct {
	MatchID        uuid.UUID `json:"match_id"`
	ActorID        uuid.UUID `json:"actor_id"`
	ProposedScore1 int       `json:"proposed_score1"`
	ProposedScore2 int       `json:"proposed_score2"`
	Reason         string    `json:"reason"`
}

// RatingAdjustedPayload is published after an admin rating override.
type RatingAdjustedPayload struct {
	LeagueID   uuid.UUID    `json:"league_id"`
	ActorID    uuid.UUID    `json:"actor_id"`
	MatchRef   string       `json:"match_ref"`
	Change     RatingChange `json:"change"`
	Reason     string       `json:"reason,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// StatsAdjustedPayload is published after an admin stats correction.
type StatsAdjustedPayload struct {
	LeagueID    uuid.UUID `json:"league_id"`
	PlayerID    uuid.UUID `json:"player_id"`
	ActorID     uuid.UUID `json:"actor_id"`
	GamesPlayed int       `json:"games_played"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Draws       int       `json:"draws"`
	Diverged    bool      `json:"diverged"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// LedgerAuditPayload summarises a ledger audit run.
type LedgerAuditPayload struct {
	Inconsistent  []uuid.UUID `json:"inconsistent_player_ids"`
	StaleRestored int         `json:"stale_backups_restored"`
	RanAt         time.Time   `json:"ran_at"`
}
