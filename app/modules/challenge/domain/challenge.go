package challengedomain

import "time"

// Status is a challenge lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// DefaultExpiry is how long a challenge stays open.
const DefaultExpiry = 7 * 24 * time.Hour

var transitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusDeclined, StatusCancelled, StatusExpired},
	StatusAccepted: {StatusCompleted},
	// Only reachable when a voided match hands its challenge back.
	StatusCompleted: {StatusAccepted},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no player action can move the challenge on.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDeclined, StatusCancelled, StatusExpired, StatusCompleted:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusCancelled, StatusCompleted, StatusExpired:
		return true
	}
	return false
}

// Expired reports whether a pending challenge has lapsed at now. Expiry is
// strict: a challenge acted on exactly at expiresAt is still open.
func Expired(status Status, expiresAt, now time.Time) bool {
	return status == StatusPending && now.After(expiresAt)
}

// EffectiveStatus is the status a reader should see at now.
func EffectiveStatus(status Status, expiresAt, now time.Time) Status {
	if Expired(status, expiresAt, now) {
		return StatusExpired
	}
	return status
}

// Response is a challengee or challenger answer to a pending challenge.
type Response string

const (
	ResponseAccept  Response = "accept"
	ResponseDecline Response = "decline"
	ResponseCancel  Response = "cancel"
)

// Target returns the status a response moves a pending challenge to.
func (r Response) Target() (Status, bool) {
	switch r {
	case ResponseAccept:
		return StatusAccepted, true
	case ResponseDecline:
		return StatusDeclined, true
	case ResponseCancel:
		return StatusCancelled, true
	}
	return "", false
}
