package matchhandlers

import (
	"context"
	"log/slog"

	"github.com/UziB26/leagueladder-sub002/app/events"
	matchservice "github.com/UziB26/leagueladder-sub002/app/modules/match/application"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/UziB26/leagueladder-sub002/app/shared/handlerwrapper"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// MatchHandlers implements the Handlers interface.
type MatchHandlers struct {
	service matchservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewMatchHandlers creates a new MatchHandlers instance.
func NewMatchHandlers(service matchservice.Service, logger *slog.Logger, tracer trace.Tracer) Handlers {
	return &MatchHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

func (h *MatchHandlers) HandleReportRequested(ctx context.Context, payload *events.MatchReportRequestedPayload) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchHandlers.HandleReportRequested")
	defer span.End()

	_, err := h.service.ReportScore(ctx, actor.Player(payload.ReporterID), matchservice.ReportRequest{
		LeagueID:      payload.LeagueID,
		ChallengeID:   payload.ChallengeID,
		OpponentID:    payload.OpponentID,
		ReporterScore: payload.ReporterScore,
		OpponentScore: payload.OpponentScore,
		PlayedAt:      payload.PlayedAt,
	})
	return h.outcome(ctx, "match.report", payload.ReporterID, err)
}

func (h *MatchHandlers) HandleConfirmRequested(ctx context.Context, payload *events.MatchConfirmRequestedPayload) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchHandlers.HandleConfirmRequested")
	defer span.End()

	_, err := h.service.Confirm(ctx, actor.Player(payload.ActorID), payload.MatchID)
	return h.outcome(ctx, "match.confirm", payload.ActorID, err)
}

func (h *MatchHandlers) HandleDisputeRequested(ctx context.Context, payload *events.MatchDisputeRequestedPayload) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "MatchHandlers.HandleDisputeRequested")
	defer span.End()

	_, err := h.service.Dispute(ctx, actor.Player(payload.ActorID), payload.MatchID, matchservice.DisputeRequest{
		ProposedScore1: payload.ProposedScore1,
		ProposedScore2: payload.ProposedScore2,
		Reason:         payload.Reason,
	})
	return h.outcome(ctx, "match.dispute", payload.ActorID, err)
}

// outcome answers domain failures on the failure topic; anything else is
// returned so the message is redelivered.
func (h *MatchHandlers) outcome(ctx context.Context, command string, actorID uuid.UUID, err error) ([]handlerwrapper.Result, error) {
	if err == nil {
		return nil, nil
	}
	if !apperrors.IsDomain(err) {
		return nil, err
	}

	h.logger.WarnContext(ctx, "Match command rejected",
		attr.ExtractCorrelationID(ctx),
		attr.String("command", command),
		attr.UUID("actor_id", actorID),
		attr.Error(err),
	)
	return []handlerwrapper.Result{{
		Topic: events.MatchCommandFailedV1,
		Payload: &events.CommandFailedPayload{
			Command: command,
			Kind:    string(apperrors.KindOf(err)),
			Reason:  err.Error(),
			ActorID: actorID,
		},
	}}, nil
}
