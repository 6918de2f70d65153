// Package events defines the topics and payloads exchanged over the event bus.
package events

// Metadata keys set on every message.
const (
	MetadataTopic         = "topic"
	MetadataCorrelationID = "correlation_id"
)

// Challenge lifecycle events.
const (
	ChallengeCreatedV1   = "challenge.created.v1"
	ChallengeAcceptedV1  = "challenge.accepted.v1"
	ChallengeDeclinedV1  = "challenge.declined.v1"
	ChallengeCancelledV1 = "challenge.cancelled.v1"
	ChallengeExpiredV1   = "challenge.expired.v1"
	ChallengeCompletedV1 = "challenge.completed.v1"
)

// Challenge command topics.
const (
	ChallengeCreateRequestedV1  = "challenge.create.requested.v1"
	ChallengeRespondRequestedV1 = "challenge.respond.requested.v1"
	ChallengeCommandFailedV1    = "challenge.command.failed.v1"
)

// Match lifecycle events.
const (
	MatchReportedV1        = "match.reported.v1"
	MatchCompletedV1       = "match.completed.v1"
	MatchDisputedV1        = "match.disputed.v1"
	MatchDisputeResolvedV1 = "match.dispute.resolved.v1"
	MatchVoidedV1          = "match.voided.v1"
	MatchUnvoidedV1        = "match.unvoided.v1"
)

// Match command topics.
const (
	MatchReportRequestedV1  = "match.report.requested.v1"
	MatchConfirmRequestedV1 = "match.confirm.requested.v1"
	MatchDisputeRequestedV1 = "match.dispute.requested.v1"
	MatchCommandFailedV1    = "match.command.failed.v1"
)

// Ledger events.
const (
	RatingAdjustedV1 = "rating.adjusted.v1"
	StatsAdjustedV1  = "stats.adjusted.v1"
	LedgerAuditV1    = "ledger.audit.completed.v1"
)
