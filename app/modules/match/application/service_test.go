package matchservice

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	challengedomain "github.com/UziB26/leagueladder-sub002/app/modules/challenge/domain"
	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	matchdomain "github.com/UziB26/leagueladder-sub002/app/modules/match/domain"
	matchdb "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/UziB26/leagueladder-sub002/app/shared/clock"
	"github.com/UziB26/leagueladder-sub002/app/shared/observability"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var testNow = time.Date(2026, 10, 2, 19, 0, 0, 0, time.UTC)

type fixture struct {
	repo       *FakeMatchRepo
	ledger     *FakeLedger
	challenges *FakeChallenges
	members    *FakeMembers
	svc        *MatchService

	leagueID uuid.UUID
	alice    uuid.UUID
	bob      uuid.UUID
	admin    actor.Actor
}

func newFixture(t *testing.T, settings Settings) *fixture {
	t.Helper()
	f := &fixture{
		repo:       NewFakeMatchRepo(),
		ledger:     NewFakeLedger(),
		challenges: NewFakeChallenges(),
		members:    &FakeMembers{},
		leagueID:   uuid.New(),
		alice:      uuid.New(),
		bob:        uuid.New(),
		admin:      actor.Admin(uuid.New()),
	}
	settings.Clock = clock.Fixed(testNow)
	logger := slog.Default()
	f.svc = NewMatchService(
		f.repo,
		f.ledger,
		f.challenges,
		f.members,
		txguard.NewCoordinator(nil, nil, logger, nil),
		nil,
		settings,
		logger,
		observability.NewNoop(),
		nil,
		nil,
	)
	return f
}

// report has alice report an 11-5 win over bob.
func (f *fixture) report(t *testing.T, challengeID *uuid.UUID) *matchdb.Match {
	t.Helper()
	m, err := f.svc.ReportScore(context.Background(), actor.Player(f.alice), ReportRequest{
		LeagueID:      f.leagueID,
		ChallengeID:   challengeID,
		OpponentID:    f.bob,
		ReporterScore: 11,
		OpponentScore: 5,
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) completed(t *testing.T, challengeID *uuid.UUID) *matchdb.Match {
	t.Helper()
	m := f.report(t, challengeID)
	_, err := f.svc.Confirm(context.Background(), actor.Player(f.bob), m.ID)
	require.NoError(t, err)
	return m
}

func TestReportScore(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture) ReportRequest
		wantErr error
	}{
		{
			name: "pending confirmation with reporter as player 1",
			setup: func(f *fixture) ReportRequest {
				return ReportRequest{LeagueID: f.leagueID, OpponentID: f.bob, ReporterScore: 11, OpponentScore: 5}
			},
		},
		{
			name: "natural language played at",
			setup: func(f *fixture) ReportRequest {
				return ReportRequest{LeagueID: f.leagueID, OpponentID: f.bob, ReporterScore: 3, OpponentScore: 11, PlayedAt: "yesterday"}
			},
		},
		{
			name: "against self",
			setup: func(f *fixture) ReportRequest {
				return ReportRequest{LeagueID: f.leagueID, OpponentID: f.alice, ReporterScore: 11, OpponentScore: 5}
			},
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "negative score",
			setup: func(f *fixture) ReportRequest {
				return ReportRequest{LeagueID: f.leagueID, OpponentID: f.bob, ReporterScore: -1, OpponentScore: 5}
			},
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "zero-zero",
			setup: func(f *fixture) ReportRequest {
				return ReportRequest{LeagueID: f.leagueID, OpponentID: f.bob}
			},
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "played in the future",
			setup: func(f *fixture) ReportRequest {
				return ReportRequest{LeagueID: f.leagueID, OpponentID: f.bob, ReporterScore: 11, OpponentScore: 5,
					PlayedAt: testNow.Add(time.Hour).Format(time.RFC3339)}
			},
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "opponent not an active member",
			setup: func(f *fixture) ReportRequest {
				f.members.Inactive = map[uuid.UUID]bool{f.bob: true}
				return ReportRequest{LeagueID: f.leagueID, OpponentID: f.bob, ReporterScore: 11, OpponentScore: 5}
			},
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "challenge not accepted",
			setup: func(f *fixture) ReportRequest {
				id := uuid.New()
				f.challenges.Seed(id, challengedomain.StatusPending)
				return ReportRequest{LeagueID: f.leagueID, ChallengeID: &id, OpponentID: f.bob, ReporterScore: 11, OpponentScore: 5}
			},
			wantErr: apperrors.ErrInvalidState,
		},
		{
			name: "challenge already has a match",
			setup: func(f *fixture) ReportRequest {
				id := uuid.New()
				f.challenges.Seed(id, challengedomain.StatusAccepted)
				f.repo.CreateFunc = func(ctx context.Context, db bun.IDB, m *matchdb.Match) error {
					return matchdb.ErrChallengeUsed
				}
				return ReportRequest{LeagueID: f.leagueID, ChallengeID: &id, OpponentID: f.bob, ReporterScore: 11, OpponentScore: 5}
			},
			wantErr: apperrors.ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Settings{})
			req := tt.setup(f)

			m, err := f.svc.ReportScore(context.Background(), actor.Player(f.alice), req)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, matchdomain.StatusPendingConfirmation, m.Status)
			assert.Equal(t, f.alice, m.Player1ID)
			assert.Equal(t, f.alice, m.ReportedBy)
			assert.Equal(t, req.ReporterScore, m.Player1Score)
			assert.False(t, m.PlayedAt.After(testNow))
			assert.False(t, f.ledger.HasRating(f.alice), "reporting must not touch ratings")
		})
	}
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("opponent confirms and ledger moves", func(t *testing.T) {
		f := newFixture(t, Settings{})
		m := f.report(t, nil)

		tr, err := f.svc.Confirm(ctx, actor.Player(f.bob), m.ID)
		require.NoError(t, err)

		assert.Equal(t, matchdomain.StatusCompleted, tr.Match.Status)
		require.NotNil(t, tr.Match.ConfirmedBy)
		assert.Equal(t, f.bob, *tr.Match.ConfirmedBy)
		assert.Equal(t, 1031, f.ledger.Rating(f.alice))
		assert.Equal(t, 969, f.ledger.Rating(f.bob))
		require.Len(t, tr.Ledger.Changes, 2)
		assert.Equal(t, 31, tr.Ledger.Changes[0].Change)
		assert.Equal(t, matchdomain.StatusCompleted, f.repo.Row(m.ID).Status)
	})

	t.Run("second confirm is rejected and ratings stay", func(t *testing.T) {
		f := newFixture(t, Settings{})
		m := f.completed(t, nil)

		_, err := f.svc.Confirm(ctx, actor.Player(f.bob), m.ID)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		assert.Equal(t, 1031, f.ledger.Rating(f.alice))
		assert.Equal(t, 969, f.ledger.Rating(f.bob))
	})

	t.Run("reporter cannot confirm", func(t *testing.T) {
		f := newFixture(t, Settings{})
		m := f.report(t, nil)

		_, err := f.svc.Confirm(ctx, actor.Player(f.alice), m.ID)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		assert.False(t, f.ledger.HasRating(f.alice))
	})

	t.Run("outsider sees not found", func(t *testing.T) {
		f := newFixture(t, Settings{})
		m := f.report(t, nil)

		_, err := f.svc.Confirm(ctx, actor.Player(uuid.New()), m.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("unknown match", func(t *testing.T) {
		f := newFixture(t, Settings{})
		_, err := f.svc.Confirm(ctx, actor.Player(f.bob), uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("linked challenge completes", func(t *testing.T) {
		f := newFixture(t, Settings{})
		challengeID := uuid.New()
		f.challenges.Seed(challengeID, challengedomain.StatusAccepted)
		m := f.report(t, &challengeID)

		tr, err := f.svc.Confirm(ctx, actor.Player(f.bob), m.ID)
		require.NoError(t, err)
		require.NotNil(t, tr.Challenge)
		assert.Equal(t, challengedomain.StatusCompleted, f.challenges.Status(challengeID))
	})

	t.Run("storage failure restores every section", func(t *testing.T) {
		f := newFixture(t, Settings{})
		challengeID := uuid.New()
		f.challenges.Seed(challengeID, challengedomain.StatusAccepted)
		m := f.report(t, &challengeID)
		f.challenges.MarkCompletedErr = errors.New("connection reset")

		_, err := f.svc.Confirm(ctx, actor.Player(f.bob), m.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrStorage)

		assert.Equal(t, matchdomain.StatusPendingConfirmation, f.repo.Row(m.ID).Status)
		assert.False(t, f.ledger.HasRating(f.alice))
		assert.False(t, f.ledger.HasRating(f.bob))
		assert.Equal(t, challengedomain.StatusAccepted, f.challenges.Status(challengeID))
	})

	t.Run("lost race maps to conflict", func(t *testing.T) {
		f := newFixture(t, Settings{})
		m := f.report(t, nil)
		f.repo.UpdateFromFunc = func(ctx context.Context, db bun.IDB, m *matchdb.Match, from matchdomain.Status) error {
			return matchdb.ErrStatusConflict
		}

		_, err := f.svc.Confirm(ctx, actor.Player(f.bob), m.ID)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.False(t, f.ledger.HasRating(f.alice))
	})
}

func TestDispute(t *testing.T) {
	ctx := context.Background()

	t.Run("opponent disputes", func(t *testing.T) {
		f := newFixture(t, Settings{})
		m := f.report(t, nil)

		d, err := f.svc.Dispute(ctx, actor.Player(f.bob), m.ID, DisputeRequest{ProposedScore1: 5, ProposedScore2: 11, Reason: "reversed"})
		require.NoError(t, err)
		assert.Equal(t, f.bob, d.DisputedBy)
		assert.Equal(t, matchdomain.StatusDisputed, f.repo.Row(m.ID).Status)
		assert.Len(t, f.repo.Disputes(), 1)
		assert.False(t, f.ledger.HasRating(f.alice))

		_, err = f.svc.Confirm(ctx, actor.Player(f.bob), m.ID)
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("reporter cannot dispute", func(t *testing.T) {
		f := newFixture(t, Settings{})
		m := f.report(t, nil)

		_, err := f.svc.Dispute(ctx, actor.Player(f.alice), m.ID, DisputeRequest{ProposedScore1: 5, ProposedScore2: 11})
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		assert.Empty(t, f.repo.Disputes())
	})

	t.Run("completed match cannot be disputed", func(t *testing.T) {
		f := newFixture(t, Settings{})
		m := f.completed(t, nil)

		_, err := f.svc.Dispute(ctx, actor.Player(f.bob), m.ID, DisputeRequest{ProposedScore1: 5, ProposedScore2: 11})
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("invalid proposal", func(t *testing.T) {
		f := newFixture(t, Settings{})
		m := f.report(t, nil)

		_, err := f.svc.Dispute(ctx, actor.Player(f.bob), m.ID, DisputeRequest{})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestResolveDispute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Settings{})
	m := f.report(t, nil)
	_, err := f.svc.Dispute(ctx, actor.Player(f.bob), m.ID, DisputeRequest{ProposedScore1: 5, ProposedScore2: 11})
	require.NoError(t, err)

	_, err = f.svc.ResolveDispute(ctx, actor.Player(f.bob), m.ID, ResolveRequest{Score1: 5, Score2: 11})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	tr, err := f.svc.ResolveDispute(ctx, f.admin, m.ID, ResolveRequest{Score1: 5, Score2: 11, Reason: "video review"})
	require.NoError(t, err)

	assert.Equal(t, matchdomain.StatusCompleted, tr.Match.Status)
	assert.Equal(t, 5, tr.Match.Player1Score)
	assert.Equal(t, 969, f.ledger.Rating(f.alice))
	assert.Equal(t, 1031, f.ledger.Rating(f.bob))
	require.Len(t, f.repo.Disputes(), 1)
	assert.NotNil(t, f.repo.Disputes()[0].ResolvedAt)
	assert.Equal(t, []string{ledgerdb.ActionResolveDispute}, f.ledger.Actions())
}

func TestVoid(t *testing.T) {
	ctx := context.Background()

	t.Run("non-admin is forbidden", func(t *testing.T) {
		f := newFixture(t, Settings{})
		m := f.completed(t, nil)

		_, err := f.svc.Void(ctx, actor.Player(f.bob), m.ID, "")
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		assert.Equal(t, 1031, f.ledger.Rating(f.alice))
	})

	t.Run("pending match cannot be voided", func(t *testing.T) {
		f := newFixture(t, Settings{})
		m := f.report(t, nil)

		_, err := f.svc.Void(ctx, f.admin, m.ID, "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("restores pre-match ratings", func(t *testing.T) {
		f := newFixture(t, Settings{})
		m := f.completed(t, nil)

		tr, err := f.svc.Void(ctx, f.admin, m.ID, "wrong players")
		require.NoError(t, err)
		assert.Equal(t, matchdomain.StatusVoided, tr.Match.Status)
		assert.NotNil(t, tr.Match.VoidedAt)
		assert.False(t, tr.Ledger.NoOp)
		assert.Equal(t, 1000, f.ledger.Rating(f.alice))
		assert.Equal(t, 1000, f.ledger.Rating(f.bob))
		assert.Equal(t, []string{ledgerdb.ActionVoidMatch}, f.ledger.Actions())
	})

	t.Run("match without ledger entries is a status flip", func(t *testing.T) {
		f := newFixture(t, Settings{})
		m := matchdb.Match{
			ID:           uuid.New(),
			LeagueID:     f.leagueID,
			Player1ID:    f.alice,
			Player2ID:    f.bob,
			Player1Score: 11,
			Player2Score: 5,
			Status:       matchdomain.StatusCompleted,
			ReportedBy:   f.alice,
		}
		f.repo.Seed(m)

		tr, err := f.svc.Void(ctx, f.admin, m.ID, "imported")
		require.NoError(t, err)
		assert.True(t, tr.Ledger.NoOp)
		assert.Equal(t, matchdomain.StatusVoided, f.repo.Row(m.ID).Status)
		assert.False(t, f.ledger.HasRating(f.alice))
	})

	t.Run("challenge stays completed by default", func(t *testing.T) {
		f := newFixture(t, Settings{})
		challengeID := uuid.New()
		f.challenges.Seed(challengeID, challengedomain.StatusAccepted)
		m := f.completed(t, &challengeID)

		tr, err := f.svc.Void(ctx, f.admin, m.ID, "")
		require.NoError(t, err)
		assert.Nil(t, tr.Challenge)
		assert.Equal(t, challengedomain.StatusCompleted, f.challenges.Status(challengeID))
	})

	t.Run("challenge reverts when configured", func(t *testing.T) {
		f := newFixture(t, Settings{RevertChallengeOnVoid: true})
		challengeID := uuid.New()
		f.challenges.Seed(challengeID, challengedomain.StatusAccepted)
		m := f.completed(t, &challengeID)

		tr, err := f.svc.Void(ctx, f.admin, m.ID, "")
		require.NoError(t, err)
		require.NotNil(t, tr.Challenge)
		assert.Equal(t, challengedomain.StatusAccepted, f.challenges.Status(challengeID))
	})
}

func TestVoidUnvoidRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Settings{})
	m := f.completed(t, nil)

	_, err := f.svc.Void(ctx, f.admin, m.ID, "")
	require.NoError(t, err)

	_, err = f.svc.Unvoid(ctx, actor.Player(f.alice), m.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	tr, err := f.svc.Unvoid(ctx, f.admin, m.ID, "void was a mistake")
	require.NoError(t, err)
	assert.Equal(t, matchdomain.StatusCompleted, tr.Match.Status)
	assert.Nil(t, tr.Match.VoidedAt)
	assert.Equal(t, 1031, f.ledger.Rating(f.alice))
	assert.Equal(t, 969, f.ledger.Rating(f.bob))
	assert.Equal(t, []string{ledgerdb.ActionVoidMatch, ledgerdb.ActionUnvoidMatch}, f.ledger.Actions())

	_, err = f.svc.Unvoid(ctx, f.admin, m.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Settings{})
	m := f.report(t, nil)

	got, err := f.svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = f.svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	list, err := f.svc.List(ctx, matchdb.ListFilter{PlayerID: &f.bob})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.List(ctx, matchdb.ListFilter{Statuses: []matchdomain.Status{"finished"}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.LatestDispute(ctx, m.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
