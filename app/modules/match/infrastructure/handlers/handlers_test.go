package matchhandlers

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/UziB26/leagueladder-sub002/app/events"
	matchservice "github.com/UziB26/leagueladder-sub002/app/modules/match/application"
	matchdb "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestHandlers(svc *FakeMatchService) Handlers {
	return NewMatchHandlers(svc, slog.Default(), noop.NewTracerProvider().Tracer("test"))
}

func TestHandleReportRequested(t *testing.T) {
	reporter, opponent, leagueID := uuid.New(), uuid.New(), uuid.New()

	svc := NewFakeMatchService()
	var got matchservice.ReportRequest
	svc.ReportScoreFunc = func(ctx context.Context, a actor.Actor, req matchservice.ReportRequest) (*matchdb.Match, error) {
		assert.Equal(t, actor.Player(reporter), a)
		got = req
		return &matchdb.Match{}, nil
	}

	results, err := newTestHandlers(svc).HandleReportRequested(context.Background(), &events.MatchReportRequestedPayload{
		LeagueID:      leagueID,
		ReporterID:    reporter,
		OpponentID:    opponent,
		ReporterScore: 11,
		OpponentScore: 7,
		PlayedAt:      "yesterday 7pm",
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, matchservice.ReportRequest{
		LeagueID:      leagueID,
		OpponentID:    opponent,
		ReporterScore: 11,
		OpponentScore: 7,
		PlayedAt:      "yesterday 7pm",
	}, got)
}

func TestHandleConfirmRequested(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantKind   string
		wantErr    bool
	}{
		{name: "confirmed"},
		{name: "reporter confirming is answered", serviceErr: apperrors.InvalidState("the reporter cannot confirm their own match"), wantKind: "invalid_state"},
		{name: "lost race is answered", serviceErr: apperrors.Conflict("match changed concurrently"), wantKind: "conflict"},
		{name: "storage failure is retried", serviceErr: apperrors.Storage("ConfirmMatch", errors.New("connection reset")), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actorID, matchID := uuid.New(), uuid.New()
			svc := NewFakeMatchService()
			svc.ConfirmFunc = func(ctx context.Context, a actor.Actor, id uuid.UUID) (*matchservice.Transition, error) {
				assert.Equal(t, matchID, id)
				return nil, tt.serviceErr
			}

			results, err := newTestHandlers(svc).HandleConfirmRequested(context.Background(), &events.MatchConfirmRequestedPayload{
				MatchID: matchID,
				ActorID: actorID,
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantKind == "" {
				assert.Empty(t, results)
				return
			}
			require.Len(t, results, 1)
			assert.Equal(t, events.MatchCommandFailedV1, results[0].Topic)
			payload, ok := results[0].Payload.(*events.CommandFailedPayload)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, payload.Kind)
			assert.Equal(t, "match.confirm", payload.Command)
			assert.Equal(t, actorID, payload.ActorID)
		})
	}
}

func TestHandleDisputeRequested(t *testing.T) {
	svc := NewFakeMatchService()
	svc.DisputeFunc = func(ctx context.Context, a actor.Actor, id uuid.UUID, req matchservice.DisputeRequest) (*matchdb.Dispute, error) {
		assert.Equal(t, 5, req.ProposedScore1)
		assert.Equal(t, 11, req.ProposedScore2)
		return nil, apperrors.NotFound("match %s not found", id)
	}

	results, err := newTestHandlers(svc).HandleDisputeRequested(context.Background(), &events.MatchDisputeRequestedPayload{
		MatchID:        uuid.New(),
		ActorID:        uuid.New(),
		ProposedScore1: 5,
		ProposedScore2: 11,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "match.dispute", results[0].Payload.(*events.CommandFailedPayload).Command)
	assert.Equal(t, []string{"Dispute"}, svc.Trace())
}
