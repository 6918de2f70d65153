package challengehandlers

import (
	"context"

	"github.com/UziB26/leagueladder-sub002/app/events"
	"github.com/UziB26/leagueladder-sub002/app/shared/handlerwrapper"
)

// Handlers defines the interface for challenge command handlers.
type Handlers interface {
	// HandleCreateRequested opens a challenge on behalf of the challenger.
	HandleCreateRequested(ctx context.Context, payload *events.ChallengeCreateRequestedPayload) ([]handlerwrapper.Result, error)

	// HandleRespondRequested applies an accept, decline or cancel.
	HandleRespondRequested(ctx context.Context, payload *events.ChallengeRespondRequestedPayload) ([]handlerwrapper.Result, error)
}
