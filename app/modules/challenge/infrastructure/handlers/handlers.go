package challengehandlers

import (
	"context"
	"log/slog"

	"github.com/UziB26/leagueladder-sub002/app/events"
	challengeservice "github.com/UziB26/leagueladder-sub002/app/modules/challenge/application"
	challengedomain "github.com/UziB26/leagueladder-sub002/app/modules/challenge/domain"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/UziB26/leagueladder-sub002/app/shared/handlerwrapper"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// ChallengeHandlers implements the Handlers interface.
type ChallengeHandlers struct {
	service challengeservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewChallengeHandlers creates a new ChallengeHandlers instance.
func NewChallengeHandlers(
	service challengeservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &ChallengeHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleCreateRequested creates the challenge. Lifecycle events are published
// by the service; a rejected command is answered on the failure topic.
func (h *ChallengeHandlers) HandleCreateRequested(ctx context.Context, payload *events.ChallengeCreateRequestedPayload) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ChallengeHandlers.HandleCreateRequested")
	defer span.End()

	_, err := h.service.Create(ctx, actor.Player(payload.ChallengerID), payload.LeagueID, payload.ChallengeeID)
	return h.outcome(ctx, "challenge.create", payload.ChallengerID, err)
}

// HandleRespondRequested answers a pending challenge.
func (h *ChallengeHandlers) HandleRespondRequested(ctx context.Context, payload *events.ChallengeRespondRequestedPayload) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "ChallengeHandlers.HandleRespondRequested")
	defer span.End()

	_, err := h.service.Respond(ctx, actor.Player(payload.ActorID), payload.ChallengeID, challengedomain.Response(payload.Response))
	return h.outcome(ctx, "challenge."+payload.Response, payload.ActorID, err)
}

// outcome acks domain failures with a failure message and returns storage
// failures so the router retries the command.
func (h *ChallengeHandlers) outcome(ctx context.Context, command string, actorID uuid.UUID, err error) ([]handlerwrapper.Result, error) {
	if err == nil {
		return nil, nil
	}
	if !apperrors.IsDomain(err) {
		return nil, err
	}

	h.logger.WarnContext(ctx, "Challenge command rejected",
		attr.ExtractCorrelationID(ctx),
		attr.String("command", command),
		attr.UUID("actor_id", actorID),
		attr.Error(err),
	)
	return []handlerwrapper.Result{{
		Topic: events.ChallengeCommandFailedV1,
		Payload: &events.CommandFailedPayload{
			Command: command,
			Kind:    string(apperrors.KindOf(err)),
			Reason:  err.Error(),
			ActorID: actorID,
		},
	}}, nil
}
