package challengerouter

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/UziB26/leagueladder-sub002/app/events"
	challengehandlers "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/handlers"
	"github.com/UziB26/leagueladder-sub002/app/shared/handlerwrapper"
	"go.opentelemetry.io/otel/trace"
)

// ChallengeRouter handles Watermill handler registration for challenge commands.
type ChallengeRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	tracer     trace.Tracer
}

// NewChallengeRouter creates a new ChallengeRouter.
func NewChallengeRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
) *ChallengeRouter {
	return &ChallengeRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *ChallengeRouter) Configure(_ context.Context, handlers challengehandlers.Handlers) error {
	r.registerHandlers(handlers)
	return nil
}

// handlerDeps bundles dependencies for handler registration.
type handlerDeps struct {
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	logger     *slog.Logger
	tracer     trace.Tracer
}

func (r *ChallengeRouter) registerHandlers(handlers challengehandlers.Handlers) {
	deps := handlerDeps{
		router:     r.router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	r.logger.Info("Registering challenge module handlers",
		slog.String("create_subject", events.ChallengeCreateRequestedV1),
		slog.String("respond_subject", events.ChallengeRespondRequestedV1),
	)

	registerHandler(deps, events.ChallengeCreateRequestedV1, handlers.HandleCreateRequested)
	registerHandler(deps, events.ChallengeRespondRequestedV1, handlers.HandleRespondRequested)

	r.logger.Info("Challenge module handlers registered successfully")
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "challenge." + topic

	deps.router.AddHandler(
		handlerName,
		topic,
		deps.subscriber,
		"",
		deps.publisher,
		handlerwrapper.WrapTransformingTyped(
			handlerName,
			deps.logger,
			deps.tracer,
			handler,
		),
	)
}

// Close shuts down the router.
func (r *ChallengeRouter) Close() error {
	return r.router.Close()
}
