package challengeservice

import (
	"context"
	"errors"
	"time"

	"github.com/UziB26/leagueladder-sub002/app/events"
	challengedomain "github.com/UziB26/leagueladder-sub002/app/modules/challenge/domain"
	challengedb "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/UziB26/leagueladder-sub002/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// EventPayload describes c for the event bus.
func EventPayload(c *challengedb.Challenge, at time.Time) events.ChallengePayload {
	return events.ChallengePayload{
		ChallengeID:  c.ID,
		LeagueID:     c.LeagueID,
		ChallengerID: c.ChallengerID,
		ChallengeeID: c.ChallengeeID,
		Status:       string(c.Status),
		ExpiresAt:    c.ExpiresAt,
		OccurredAt:   at,
	}
}

// Create opens a pending challenge. A pending duplicate that has already
// lapsed is flipped to expired and does not block the new challenge.
func (s *ChallengeService) Create(ctx context.Context, a actor.Actor, leagueID, challengeeID uuid.UUID) (*challengedb.Challenge, error) {
	var lapsed *challengedb.Challenge
	result, err := withTelemetry(s, ctx, "CreateChallenge", leagueID.String(), func(ctx context.Context) (results.OperationResult[*challengedb.Challenge, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*challengedb.Challenge, error], error) {
			lapsed = nil
			return s.createLogic(ctx, db, a, leagueID, challengeeID, &lapsed)
		})
	})
	c, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	if lapsed != nil {
		s.publish(ctx, events.ChallengeExpiredV1, EventPayload(lapsed, c.CreatedAt))
	}
	s.publish(ctx, events.ChallengeCreatedV1, EventPayload(c, c.CreatedAt))
	return c, nil
}

func (s *ChallengeService) createLogic(
	ctx context.Context,
	db bun.IDB,
	a actor.Actor,
	leagueID, challengeeID uuid.UUID,
	lapsed **challengedb.Challenge,
) (results.OperationResult[*challengedb.Challenge, error], error) {
	challengerID := a.PlayerID
	if challengerID == challengeeID {
		return results.FailureResult[*challengedb.Challenge, error](apperrors.Validation("a player cannot challenge themselves")), nil
	}

	ok, err := s.members.AreActiveMembers(ctx, db, leagueID, challengerID, challengeeID)
	if err != nil {
		return results.OperationResult[*challengedb.Challenge, error]{}, err
	}
	if !ok {
		return results.FailureResult[*challengedb.Challenge, error](apperrors.Validation("both players must be active members of the league")), nil
	}

	now := s.clock.Now()

	existing, err := s.repo.FindPending(ctx, db, leagueID, challengerID, challengeeID)
	switch {
	case errors.Is(err, challengedb.ErrNotFound):
	case err != nil:
		return results.OperationResult[*challengedb.Challenge, error]{}, err
	case challengedomain.Expired(existing.Status, existing.ExpiresAt, now):
		if err := s.expire(ctx, db, existing, now); err != nil {
			return results.OperationResult[*challengedb.Challenge, error]{}, err
		}
		*lapsed = existing
	default:
		return results.FailureResult[*challengedb.Challenge, error](apperrors.Validation("a pending challenge to this player already exists")), nil
	}

	c := &challengedb.Challenge{
		ID:           uuid.New(),
		LeagueID:     leagueID,
		ChallengerID: challengerID,
		ChallengeeID: challengeeID,
		Status:       challengedomain.StatusPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.expiry),
	}
	if err := s.repo.Create(ctx, db, c); err != nil {
		if errors.Is(err, challengedb.ErrDuplicatePending) {
			return results.FailureResult[*challengedb.Challenge, error](apperrors.Validation("a pending challenge to this player already exists")), nil
		}
		return results.OperationResult[*challengedb.Challenge, error]{}, err
	}

	s.logger.InfoContext(ctx, "Challenge created",
		attr.ExtractCorrelationID(ctx),
		attr.UUID("challenge_id", c.ID),
		attr.UUID("challenger_id", challengerID),
		attr.UUID("challengee_id", challengeeID),
	)
	return results.SuccessResult[*challengedb.Challenge, error](c), nil
}

// expire flips a lapsed pending challenge to expired in place.
func (s *ChallengeService) expire(ctx context.Context, db bun.IDB, c *challengedb.Challenge, now time.Time) error {
	err := s.repo.Transition(ctx, db, challengedb.Transition{
		ID:   c.ID,
		From: challengedomain.StatusPending,
		To:   challengedomain.StatusExpired,
		At:   now,
	})
	if err != nil {
		return err
	}
	c.Status = challengedomain.StatusExpired
	c.UpdatedAt = now
	return nil
}

func (s *ChallengeService) Accept(ctx context.Context, a actor.Actor, challengeID uuid.UUID) (*challengedb.Challenge, error) {
	return s.Respond(ctx, a, challengeID, challengedomain.ResponseAccept)
}

func (s *ChallengeService) Decline(ctx context.Context, a actor.Actor, challengeID uuid.UUID) (*challengedb.Challenge, error) {
	return s.Respond(ctx, a, challengeID, challengedomain.ResponseDecline)
}

func (s *ChallengeService) Cancel(ctx context.Context, a actor.Actor, challengeID uuid.UUID) (*challengedb.Challenge, error) {
	return s.Respond(ctx, a, challengeID, challengedomain.ResponseCancel)
}

// Respond answers a pending challenge. Accept and decline belong to the
// challengee, cancel to the challenger; anyone else is told the challenge
// does not exist. A lapsed challenge is persisted as expired before the
// ExpiredError is returned.
func (s *ChallengeService) Respond(ctx context.Context, a actor.Actor, challengeID uuid.UUID, r challengedomain.Response) (*challengedb.Challenge, error) {
	var lapsed *challengedb.Challenge
	result, err := withTelemetry(s, ctx, "RespondChallenge", challengeID.String(), func(ctx context.Context) (results.OperationResult[*challengedb.Challenge, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*challengedb.Challenge, error], error) {
			lapsed = nil
			return s.respondLogic(ctx, db, a, challengeID, r, &lapsed)
		})
	})
	c, err := unwrap(result, err)
	if lapsed != nil && errors.Is(err, apperrors.ErrExpired) {
		s.publish(ctx, events.ChallengeExpiredV1, EventPayload(lapsed, lapsed.UpdatedAt))
	}
	if err != nil {
		return nil, err
	}

	var topic string
	switch c.Status {
	case challengedomain.StatusAccepted:
		topic = events.ChallengeAcceptedV1
	case challengedomain.StatusDeclined:
		topic = events.ChallengeDeclinedV1
	case challengedomain.StatusCancelled:
		topic = events.ChallengeCancelledV1
	}
	if topic != "" {
		s.publish(ctx, topic, EventPayload(c, c.UpdatedAt))
	}
	return c, nil
}

func (s *ChallengeService) respondLogic(
	ctx context.Context,
	db bun.IDB,
	a actor.Actor,
	challengeID uuid.UUID,
	r challengedomain.Response,
	lapsed **challengedb.Challenge,
) (results.OperationResult[*challengedb.Challenge, error], error) {
	target, ok := r.Target()
	if !ok {
		return results.FailureResult[*challengedb.Challenge, error](apperrors.Validation("unknown response %q", r)), nil
	}

	c, err := s.repo.GetForUpdate(ctx, db, challengeID)
	if err != nil {
		if errors.Is(err, challengedb.ErrNotFound) {
			return results.FailureResult[*challengedb.Challenge, error](apperrors.NotFound("challenge %s not found", challengeID)), nil
		}
		return results.OperationResult[*challengedb.Challenge, error]{}, err
	}

	owner := c.ChallengeeID
	if r == challengedomain.ResponseCancel {
		owner = c.ChallengerID
	}
	if a.PlayerID != owner {
		return results.FailureResult[*challengedb.Challenge, error](apperrors.NotFound("challenge %s not found", challengeID)), nil
	}

	if c.Status != challengedomain.StatusPending {
		return results.FailureResult[*challengedb.Challenge, error](apperrors.InvalidState("challenge is %s, not pending", c.Status)), nil
	}

	now := s.clock.Now()
	if challengedomain.Expired(c.Status, c.ExpiresAt, now) {
		if err := s.expire(ctx, db, c, now); err != nil {
			return results.OperationResult[*challengedb.Challenge, error]{}, err
		}
		*lapsed = c
		return results.FailureResult[*challengedb.Challenge, error](apperrors.Expired("challenge expired at %s", c.ExpiresAt.Format(time.RFC3339))), nil
	}

	err = s.repo.Transition(ctx, db, challengedb.Transition{
		ID:          c.ID,
		From:        challengedomain.StatusPending,
		To:          target,
		At:          now,
		RespondedAt: &now,
	})
	if err != nil {
		if errors.Is(err, challengedb.ErrStatusConflict) {
			return results.FailureResult[*challengedb.Challenge, error](apperrors.Conflict("challenge %s changed concurrently", challengeID)), nil
		}
		return results.OperationResult[*challengedb.Challenge, error]{}, err
	}

	c.Status = target
	c.RespondedAt = &now
	c.UpdatedAt = now

	s.logger.InfoContext(ctx, "Challenge answered",
		attr.ExtractCorrelationID(ctx),
		attr.UUID("challenge_id", c.ID),
		attr.String("status", string(target)),
	)
	return results.SuccessResult[*challengedb.Challenge, error](c), nil
}

func (s *ChallengeService) Get(ctx context.Context, a actor.Actor, challengeID uuid.UUID) (*challengedb.Challenge, error) {
	result, err := withTelemetry(s, ctx, "GetChallenge", challengeID.String(), func(ctx context.Context) (results.OperationResult[*challengedb.Challenge, error], error) {
		c, err := s.repo.Get(ctx, nil, challengeID)
		if err != nil {
			if errors.Is(err, challengedb.ErrNotFound) {
				return results.FailureResult[*challengedb.Challenge, error](apperrors.NotFound("challenge %s not found", challengeID)), nil
			}
			return results.OperationResult[*challengedb.Challenge, error]{}, err
		}
		if !a.IsAdmin && !c.IsParticipant(a.PlayerID) {
			return results.FailureResult[*challengedb.Challenge, error](apperrors.NotFound("challenge %s not found", challengeID)), nil
		}
		c.Status = challengedomain.EffectiveStatus(c.Status, c.ExpiresAt, s.clock.Now())
		return results.SuccessResult[*challengedb.Challenge, error](c), nil
	})
	return unwrap(result, err)
}

// ListForPlayer returns the player's challenges with effective statuses. A
// filter on expired also matches pending rows that have lapsed.
func (s *ChallengeService) ListForPlayer(ctx context.Context, playerID uuid.UUID, filter challengedb.ListFilter) ([]challengedb.Challenge, error) {
	result, err := withTelemetry(s, ctx, "ListChallenges", playerID.String(), func(ctx context.Context) (results.OperationResult[[]challengedb.Challenge, error], error) {
		wanted := make(map[challengedomain.Status]bool, len(filter.Statuses))
		for _, st := range filter.Statuses {
			if !st.Valid() {
				return results.FailureResult[[]challengedb.Challenge, error](apperrors.Validation("unknown status %q", st)), nil
			}
			wanted[st] = true
		}

		query := filter
		if wanted[challengedomain.StatusExpired] && !wanted[challengedomain.StatusPending] {
			query.Statuses = append(append([]challengedomain.Status(nil), filter.Statuses...), challengedomain.StatusPending)
		}

		rows, err := s.repo.ListForPlayer(ctx, nil, playerID, query)
		if err != nil {
			return results.OperationResult[[]challengedb.Challenge, error]{}, err
		}

		now := s.clock.Now()
		out := make([]challengedb.Challenge, 0, len(rows))
		for _, c := range rows {
			c.Status = challengedomain.EffectiveStatus(c.Status, c.ExpiresAt, now)
			if len(wanted) > 0 && !wanted[c.Status] {
				continue
			}
			out = append(out, c)
		}
		return results.SuccessResult[[]challengedb.Challenge, error](out), nil
	})
	return unwrap(result, err)
}
