package ledgerdb

import (
	"encoding/json"
	"time"

	ledgerdomain "github.com/UziB26/leagueladder-sub002/app/modules/ledger/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PlayerRating is a player's current rating and record within one league.
type PlayerRating struct {
	bun.BaseModel `bun:"table:player_ratings,alias:pr"`

	PlayerID    uuid.UUID `bun:"player_id,pk,type:uuid" json:"player_id"`
	LeagueID    uuid.UUID `bun:"league_id,pk,type:uuid" json:"league_id"`
	Rating      int       `bun:"rating,notnull,default:1000" json:"rating"`
	GamesPlayed int       `bun:"games_played,notnull,default:0" json:"games_played"`
	Wins        int       `bun:"wins,notnull,default:0" json:"wins"`
	Losses      int       `bun:"losses,notnull,default:0" json:"losses"`
	Draws       int       `bun:"draws,notnull,default:0" json:"draws"`
	// LastOpID is the guarded operation that last wrote this row.
	LastOpID  uuid.UUID `bun:"last_op_id,type:uuid,nullzero" json:"last_op_id"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Record returns the row's counters.
func (r *PlayerRating) Record() ledgerdomain.Record {
	return ledgerdomain.Record{
		GamesPlayed: r.GamesPlayed,
		Wins:        r.Wins,
		Losses:      r.Losses,
		Draws:       r.Draws,
	}
}

// SetRecord overwrites the row's counters.
func (r *PlayerRating) SetRecord(rec ledgerdomain.Record) {
	r.GamesPlayed = rec.GamesPlayed
	r.Wins = rec.Wins
	r.Losses = rec.Losses
	r.Draws = rec.Draws
}

// RatingUpdate is one append-only ledger entry.
type RatingUpdate struct {
	bun.BaseModel `bun:"table:rating_updates,alias:ru"`

	ID uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	// MatchRef is a match id, or an adj_ reference for admin adjustments.
	MatchRef  string    `bun:"match_ref,notnull" json:"match_ref"`
	PlayerID  uuid.UUID `bun:"player_id,type:uuid,notnull" json:"player_id"`
	LeagueID  uuid.UUID `bun:"league_id,type:uuid,notnull" json:"league_id"`
	OldRating int       `bun:"old_rating,notnull" json:"old_rating"`
	NewRating int       `bun:"new_rating,notnull" json:"new_rating"`
	Change    int       `bun:"change,notnull" json:"change"`
	OpID      uuid.UUID `bun:"op_id,type:uuid,nullzero" json:"op_id"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// AdminAction is the audit record of a manual correction.
type AdminAction struct {
	bun.BaseModel `bun:"table:admin_actions,alias:aa"`

	ID        uuid.UUID       `bun:"id,pk,type:uuid"`
	ActorID   uuid.UUID       `bun:"actor_id,type:uuid,notnull"`
	Action    string          `bun:"action,notnull"`
	LeagueID  uuid.UUID       `bun:"league_id,type:uuid,nullzero"`
	PlayerID  uuid.UUID       `bun:"player_id,type:uuid,nullzero"`
	MatchID   uuid.UUID       `bun:"match_id,type:uuid,nullzero"`
	MatchRef  string          `bun:"match_ref"`
	Before    json.RawMessage `bun:"before,type:jsonb"`
	After     json.RawMessage `bun:"after,type:jsonb"`
	Reason    string          `bun:"reason"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Admin action names.
const (
	ActionSetRating      = "set_rating"
	ActionSetStats       = "set_stats"
	ActionVoidMatch      = "void_match"
	ActionUnvoidMatch    = "unvoid_match"
	ActionResolveDispute = "resolve_dispute"
)
