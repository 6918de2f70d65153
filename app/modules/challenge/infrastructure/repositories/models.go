package challengedb

import (
	"time"

	challengedomain "github.com/UziB26/leagueladder-sub002/app/modules/challenge/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Challenge is an invitation from one league member to another.
type Challenge struct {
	bun.BaseModel `bun:"table:challenges,alias:c"`

	ID           uuid.UUID              `bun:"id,pk,type:uuid" json:"id"`
	LeagueID     uuid.UUID              `bun:"league_id,type:uuid,notnull" json:"league_id"`
	ChallengerID uuid.UUID              `bun:"challenger_id,type:uuid,notnull" json:"challenger_id"`
	ChallengeeID uuid.UUID              `bun:"challengee_id,type:uuid,notnull" json:"challengee_id"`
	Status       challengedomain.Status `bun:"status,notnull" json:"status"`
	CreatedAt    time.Time              `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	ExpiresAt    time.Time              `bun:"expires_at,notnull" json:"expires_at"`
	RespondedAt  *time.Time             `bun:"responded_at" json:"responded_at,omitempty"`
	CompletedAt  *time.Time             `bun:"completed_at" json:"completed_at,omitempty"`
	LastOpID     uuid.UUID              `bun:"last_op_id,type:uuid,nullzero" json:"last_op_id"`
	UpdatedAt    time.Time              `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// IsParticipant reports whether playerID is the challenger or challengee.
func (c *Challenge) IsParticipant(playerID uuid.UUID) bool {
	return c.ChallengerID == playerID || c.ChallengeeID == playerID
}

// Opponent returns the other participant.
func (c *Challenge) Opponent(playerID uuid.UUID) uuid.UUID {
	if c.ChallengerID == playerID {
		return c.ChallengeeID
	}
	return c.ChallengerID
}

// Transition describes a compare-and-swap status change.
type Transition struct {
	ID          uuid.UUID
	From        challengedomain.Status
	To          challengedomain.Status
	At          time.Time
	OpID        uuid.UUID
	RespondedAt *time.Time
	CompletedAt *time.Time
}
