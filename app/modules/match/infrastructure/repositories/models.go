package matchdb

import (
	"time"

	matchdomain "github.com/UziB26/leagueladder-sub002/app/modules/match/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Match is a reported result between two league members. Player1 is the
// reporter.
type Match struct {
	bun.BaseModel `bun:"table:matches,alias:m"`

	ID           uuid.UUID          `bun:"id,pk,type:uuid" json:"id"`
	LeagueID     uuid.UUID          `bun:"league_id,type:uuid,notnull" json:"league_id"`
	ChallengeID  *uuid.UUID         `bun:"challenge_id,type:uuid" json:"challenge_id,omitempty"`
	Player1ID    uuid.UUID          `bun:"player1_id,type:uuid,notnull" json:"player1_id"`
	Player2ID    uuid.UUID          `bun:"player2_id,type:uuid,notnull" json:"player2_id"`
	Player1Score int                `bun:"player1_score,notnull" json:"player1_score"`
	Player2Score int                `bun:"player2_score,notnull" json:"player2_score"`
	Status       matchdomain.Status `bun:"status,notnull" json:"status"`
	ReportedBy   uuid.UUID          `bun:"reported_by,type:uuid,notnull" json:"reported_by"`
	PlayedAt     time.Time          `bun:"played_at,notnull" json:"played_at"`
	ConfirmedAt  *time.Time         `bun:"confirmed_at" json:"confirmed_at,omitempty"`
	ConfirmedBy  *uuid.UUID         `bun:"confirmed_by,type:uuid" json:"confirmed_by,omitempty"`
	VoidedAt     *time.Time         `bun:"voided_at" json:"voided_at,omitempty"`
	LastOpID     uuid.UUID          `bun:"last_op_id,type:uuid,nullzero" json:"last_op_id"`
	CreatedAt    time.Time          `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time          `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// IsParticipant reports whether playerID played in the match.
func (m *Match) IsParticipant(playerID uuid.UUID) bool {
	return m.Player1ID == playerID || m.Player2ID == playerID
}

// Players returns both participants, player 1 first.
func (m *Match) Players() []uuid.UUID {
	return []uuid.UUID{m.Player1ID, m.Player2ID}
}

// Dispute is an opponent's objection to a reported score.
type Dispute struct {
	bun.BaseModel `bun:"table:match_disputes,alias:md"`

	ID             uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	MatchID        uuid.UUID  `bun:"match_id,type:uuid,notnull" json:"match_id"`
	DisputedBy     uuid.UUID  `bun:"disputed_by,type:uuid,notnull" json:"disputed_by"`
	ProposedScore1 int        `bun:"proposed_score1,notnull" json:"proposed_score1"`
	ProposedScore2 int        `bun:"proposed_score2,notnull" json:"proposed_score2"`
	Reason         string     `bun:"reason,notnull,default:''" json:"reason"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	ResolvedAt     *time.Time `bun:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy     *uuid.UUID `bun:"resolved_by,type:uuid" json:"resolved_by,omitempty"`
	LastOpID       uuid.UUID  `bun:"last_op_id,type:uuid,nullzero" json:"last_op_id"`
}

// ListFilter narrows List.
type ListFilter struct {
	LeagueID *uuid.UUID
	PlayerID *uuid.UUID
	Statuses []matchdomain.Status
	Limit    int
}
