package matchrouter

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/UziB26/leagueladder-sub002/app/events"
	matchhandlers "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/handlers"
	"github.com/UziB26/leagueladder-sub002/app/shared/handlerwrapper"
	"go.opentelemetry.io/otel/trace"
)

// MatchRouter handles Watermill handler registration for match commands.
type MatchRouter struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	tracer     trace.Tracer
}

// NewMatchRouter creates a new MatchRouter.
func NewMatchRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
) *MatchRouter {
	return &MatchRouter{
		logger:     logger,
		router:     router,
		subscriber: subscriber,
		publisher:  publisher,
		tracer:     tracer,
	}
}

// Configure sets up the router with handlers.
func (r *MatchRouter) Configure(_ context.Context, handlers matchhandlers.Handlers) error {
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

func (r *MatchRouter) registerHandlers(handlers matchhandlers.Handlers) {
	deps := handlerDeps{
		router:     r.router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	r.logger.Info("Registering match module handlers",
		slog.String("report_subject", events.MatchReportRequestedV1),
		slog.String("confirm_subject", events.MatchConfirmRequestedV1),
		slog.String("dispute_subject", events.MatchDisputeRequestedV1),
	)

	registerHandler(deps, events.MatchReportRequestedV1, handlers.HandleReportRequested)
	registerHandler(deps, events.MatchConfirmRequestedV1, handlers.HandleConfirmRequested)
	registerHandler(deps, events.MatchDisputeRequestedV1, handlers.HandleDisputeRequested)

	r.logger.Info("Match module handlers registered successfully")
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "match." + topic

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
func (r *MatchRouter) Close() error {
	return r.router.Close()
}
