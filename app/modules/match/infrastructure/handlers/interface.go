package matchhandlers

import (
	"context"

	"github.com/UziB26/leagueladder-sub002/app/events"
	"github.com/UziB26/leagueladder-sub002/app/shared/handlerwrapper"
)

// Handlers defines the interface for match command handlers.
type Handlers interface {
	HandleReportRequested(ctx context.Context, payload *events.MatchReportRequestedPayload) ([]handlerwrapper.Result, error)
	HandleConfirmRequested(ctx context.Context, payload *events.MatchConfirmRequestedPayload) ([]handlerwrapper.Result, error)
	HandleDisputeRequested(ctx context.Context, payload *events.MatchDisputeRequestedPayload) ([]handlerwrapper.Result, error)
}
