package matchdomain

import (
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
)

// Status is a match lifecycle state.
type Status string

const (
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusCompleted           Status = "completed"
	StatusDisputed            Status = "disputed"
	StatusVoided              Status = "voided"
)

// Event names a move in the match state machine.
type Event string

const (
	EventConfirm Event = "confirm"
	EventDispute Event = "dispute"
	EventResolve Event = "resolve"
	EventVoid    Event = "void"
	EventUnvoid  Event = "unvoid"
)

type edge struct {
	from Status
	to   Status
}

var transitions = map[Event]edge{
	EventConfirm: {StatusPendingConfirmation, StatusCompleted},
	EventDispute: {StatusPendingConfirmation, StatusDisputed},
	EventResolve: {StatusDisputed, StatusCompleted},
	EventVoid:    {StatusCompleted, StatusVoided},
	EventUnvoid:  {StatusVoided, StatusCompleted},
}

// Next returns the status event moves a match in status current to, or an
// InvalidStateError.
func Next(current Status, ev Event) (Status, error) {
	e, ok := transitions[ev]
	if !ok {
		return "", apperrors.Validation("unknown match event %q", ev)
	}
	if current != e.from {
		return "", apperrors.InvalidState("cannot %s a match that is %s, expected %s", ev, current, e.from)
	}
	return e.to, nil
}

// Requires returns the status ev must start from.
func Requires(ev Event) Status {
	return transitions[ev].from
}

func (s Status) Valid() bool {
	switch s {
	case StatusPendingConfirmation, StatusCompleted, StatusDisputed, StatusVoided:
		return true
	}
	return false
}

// ValidateScores rejects negative scores and a 0-0 result.
func ValidateScores(a, b int) error {
	if a < 0 || b < 0 {
		return apperrors.Validation("scores must be non-negative, got %d-%d", a, b)
	}
	if a == 0 && b == 0 {
		return apperrors.Validation("scores cannot both be zero")
	}
	return nil
}
