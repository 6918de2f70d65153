package ledgerservice

import (
	"context"
	"errors"
	"testing"

	ledgerdomain "github.com/UziB26/leagueladder-sub002/app/modules/ledger/domain"
	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func intPtr(v int) *int { return &v }

func TestSetRating(t *testing.T) {
	leagueID := uuid.New()
	playerID := uuid.New()
	admin := actor.Admin(uuid.New())

	seed := ledgerdb.PlayerRating{
		PlayerID:    playerID,
		LeagueID:    leagueID,
		Rating:      1000,
		GamesPlayed: 3,
		Wins:        2,
		Losses:      1,
	}

	tests := []struct {
		name       string
		actor      actor.Actor
		rating     int
		seed       bool
		setupRepo  func(*FakeLedgerRepo)
		wantErr    error
		wantRating int
	}{
		{
			name:       "admin sets rating to 1500",
			actor:      admin,
			rating:     1500,
			seed:       true,
			wantRating: 1500,
		},
		{
			name:       "lower bound is accepted",
			actor:      admin,
			rating:     0,
			seed:       true,
			wantRating: 0,
		},
		{
			name:       "above upper bound is rejected",
			actor:      admin,
			rating:     5001,
			seed:       true,
			wantErr:    apperrors.ErrValidation,
			wantRating: 1000,
		},
		{
			name:    "missing rating row",
			actor:   admin,
			rating:  1200,
			wantErr: apperrors.ErrNotFound,
		},
		{
			name:       "non-admin is forbidden",
			actor:      actor.Player(uuid.New()),
			rating:     1200,
			seed:       true,
			wantErr:    apperrors.ErrForbidden,
			wantRating: 1000,
		},
		{
			name:   "storage failure restores the rating",
			actor:  admin,
			rating: 1400,
			seed:   true,
			setupRepo: func(f *FakeLedgerRepo) {
				f.InsertAdminActionFunc = func(ctx context.Context, db bun.IDB, action *ledgerdb.AdminAction) error {
					return errors.New("connection reset")
				}
			},
			wantErr:    apperrors.ErrStorage,
			wantRating: 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeLedgerRepo()
			if tt.seed {
				repo.Seed(seed)
			}
			if tt.setupRepo != nil {
				tt.setupRepo(repo)
			}
			svc := newTestService(repo)

			adj, err := svc.SetRating(context.Background(), tt.actor, SetRatingRequest{
				PlayerID: playerID,
				LeagueID: leagueID,
				Rating:   tt.rating,
				Reason:   "correcting data entry error",
			})

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, adj)
				if tt.seed {
					row, _ := repo.Rating(playerID, leagueID)
					assert.Equal(t, tt.wantRating, row.Rating)
					assert.Empty(t, repo.Updates(), "no ledger entry may survive a failed override")
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, 1000, adj.OldRating)
			assert.Equal(t, tt.wantRating, adj.NewRating)
			assert.Equal(t, tt.wantRating-1000, adj.Change)
			assert.True(t, ledgerdomain.IsAdjustmentRef(adj.MatchRef))

			row, _ := repo.Rating(playerID, leagueID)
			assert.Equal(t, tt.wantRating, row.Rating)
			assert.Equal(t, seed.Record(), row.Record(), "counters must not change")

			updates := repo.Updates()
			require.Len(t, updates, 1)
			assert.Equal(t, adj.MatchRef, updates[0].MatchRef)
			assert.Equal(t, adj.Change, updates[0].Change)

			actions := repo.Actions()
			require.Len(t, actions, 1)
			assert.Equal(t, ledgerdb.ActionSetRating, actions[0].Action)
			assert.Equal(t, tt.actor.PlayerID, actions[0].ActorID)
			assert.Equal(t, "correcting data entry error", actions[0].Reason)
			assert.JSONEq(t, `{"rating":1000}`, string(actions[0].Before))
		})
	}
}

func TestSetStats(t *testing.T) {
	leagueID := uuid.New()
	playerID := uuid.New()
	admin := actor.Admin(uuid.New())

	seed := ledgerdb.PlayerRating{
		PlayerID:    playerID,
		LeagueID:    leagueID,
		Rating:      1040,
		GamesPlayed: 3,
		Wins:        2,
		Losses:      1,
	}

	tests := []struct {
		name         string
		actor        actor.Actor
		patch        ledgerdomain.StatsPatch
		allowDiverge bool
		wantErr      error
		wantRecord   ledgerdomain.Record
		wantDiverged bool
	}{
		{
			name:       "consistent patch",
			actor:      admin,
			patch:      ledgerdomain.StatsPatch{Wins: intPtr(3), GamesPlayed: intPtr(4)},
			wantRecord: ledgerdomain.Record{GamesPlayed: 4, Wins: 3, Losses: 1},
		},
		{
			name:    "empty patch",
			actor:   admin,
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "negative field",
			actor:   admin,
			patch:   ledgerdomain.StatsPatch{Losses: intPtr(-1)},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "divergent patch rejected by default",
			actor:   admin,
			patch:   ledgerdomain.StatsPatch{Wins: intPtr(5)},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:         "divergent patch allowed explicitly",
			actor:        admin,
			patch:        ledgerdomain.StatsPatch{Wins: intPtr(5)},
			allowDiverge: true,
			wantRecord:   ledgerdomain.Record{GamesPlayed: 3, Wins: 5, Losses: 1},
			wantDiverged: true,
		},
		{
			name:    "non-admin is forbidden",
			actor:   actor.Player(playerID),
			patch:   ledgerdomain.StatsPatch{Wins: intPtr(3)},
			wantErr: apperrors.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeLedgerRepo()
			repo.Seed(seed)
			svc := newTestService(repo)

			adj, err := svc.SetStats(context.Background(), tt.actor, SetStatsRequest{
				PlayerID:        playerID,
				LeagueID:        leagueID,
				Patch:           tt.patch,
				AllowDivergence: tt.allowDiverge,
			})

			row, _ := repo.Rating(playerID, leagueID)
			assert.Equal(t, 1040, row.Rating, "rating must not change")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, seed.Record(), row.Record())
				assert.Empty(t, repo.Actions())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, seed.Record(), adj.Before)
			assert.Equal(t, tt.wantRecord, adj.After)
			assert.Equal(t, tt.wantDiverged, adj.Diverged)
			assert.Equal(t, tt.wantRecord, row.Record())
			assert.Empty(t, repo.Updates(), "stats corrections do not write ledger entries")

			actions := repo.Actions()
			require.Len(t, actions, 1)
			assert.Equal(t, ledgerdb.ActionSetStats, actions[0].Action)
		})
	}
}

func TestAuditRecords(t *testing.T) {
	repo := NewFakeLedgerRepo()
	leagueID := uuid.New()
	good := ledgerdb.PlayerRating{PlayerID: uuid.New(), LeagueID: leagueID, Rating: 1000, GamesPlayed: 2, Wins: 1, Draws: 1}
	bad := ledgerdb.PlayerRating{PlayerID: uuid.New(), LeagueID: leagueID, Rating: 1000, GamesPlayed: 2, Wins: 3}
	repo.Seed(good)
	repo.Seed(bad)

	svc := newTestService(repo)
	rows, err := svc.AuditRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, bad.PlayerID, rows[0].PlayerID)
}

func TestGetRating_NotFound(t *testing.T) {
	svc := newTestService(NewFakeLedgerRepo())
	_, err := svc.GetRating(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
