package leaguedb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// League groups players that are rated against each other.
type League struct {
	bun.BaseModel `bun:"table:leagues,alias:l"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull,unique" json:"name"`
	GameType  string    `bun:"game_type,notnull" json:"game_type"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Player is a participant that may join any number of leagues.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID          uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	DisplayName string    `bun:"display_name,notnull,unique" json:"display_name"`
	Contact     string    `bun:"contact,nullzero" json:"contact,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Membership links a player to a league. Inactive members keep their history
// but cannot be challenged or rated.
type Membership struct {
	bun.BaseModel `bun:"table:league_memberships,alias:lm"`

	LeagueID  uuid.UUID `bun:"league_id,pk,type:uuid" json:"league_id"`
	PlayerID  uuid.UUID `bun:"player_id,pk,type:uuid" json:"player_id"`
	Active    bool      `bun:"active,notnull,default:true" json:"active"`
	JoinedAt  time.Time `bun:"joined_at,nullzero,notnull,default:current_timestamp" json:"joined_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	Player *Player `bun:"rel:belongs-to,join:player_id=id" json:"player,omitempty"`
}
