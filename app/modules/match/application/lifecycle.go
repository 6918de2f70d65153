package matchservice

import (
	"context"
	"errors"
	"time"

	"github.com/UziB26/leagueladder-sub002/app/events"
	challengeservice "github.com/UziB26/leagueladder-sub002/app/modules/challenge/application"
	challengedomain "github.com/UziB26/leagueladder-sub002/app/modules/challenge/domain"
	ledgerdomain "github.com/UziB26/leagueladder-sub002/app/modules/ledger/domain"
	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	matchdomain "github.com/UziB26/leagueladder-sub002/app/modules/match/domain"
	matchdb "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/UziB26/leagueladder-sub002/app/shared/results"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// unitFunc mutates a locked match inside a guarded unit.
type unitFunc func(ctx context.Context, db bun.IDB, opID uuid.UUID, m *matchdb.Match, t *Transition) error

// guarded runs fn under the coordinator with the match row, both rating rows
// with the match's ledger entries, and the linked challenge captured.
func (s *MatchService) guarded(ctx context.Context, operation string, matchID uuid.UUID, fn unitFunc) (results.OperationResult[*Transition, error], error) {
	current, err := s.repo.Get(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, matchdb.ErrNotFound) {
			return results.FailureResult[*Transition, error](apperrors.NotFound("match %s not found", matchID)), nil
		}
		return results.OperationResult[*Transition, error]{}, err
	}

	sections := []txguard.Section{
		matchdb.NewSection(s.repo, matchID),
		s.ledger.RatingSection(current.LeagueID, current.Players(), ledgerdomain.MatchRef(matchID)),
	}
	if current.ChallengeID != nil {
		sections = append(sections, s.challenges.Section(*current.ChallengeID))
	}

	t := &Transition{}
	err = s.coordinator.Execute(ctx, operation, sections, func(ctx context.Context, db bun.IDB, opID uuid.UUID) error {
		m, err := s.repo.GetForUpdate(ctx, db, matchID)
		if err != nil {
			if errors.Is(err, matchdb.ErrNotFound) {
				return apperrors.NotFound("match %s not found", matchID)
			}
			return err
		}
		t.Match = m
		return fn(ctx, db, opID, m, t)
	})
	if err != nil {
		if apperrors.IsDomain(err) {
			return results.FailureResult[*Transition, error](err), nil
		}
		return results.OperationResult[*Transition, error]{}, err
	}
	return results.SuccessResult[*Transition, error](t), nil
}

// save writes m if it is still in from, stamping the op id.
func (s *MatchService) save(ctx context.Context, db bun.IDB, m *matchdb.Match, from matchdomain.Status, opID uuid.UUID, at time.Time) error {
	m.LastOpID = opID
	m.UpdatedAt = at
	if err := s.repo.UpdateFrom(ctx, db, m, from); err != nil {
		if errors.Is(err, matchdb.ErrStatusConflict) {
			return apperrors.Conflict("match %s changed concurrently", m.ID)
		}
		return err
	}
	return nil
}

func (s *MatchService) completeChallenge(ctx context.Context, db bun.IDB, m *matchdb.Match, opID uuid.UUID, at time.Time, t *Transition) error {
	if m.ChallengeID == nil {
		return nil
	}
	c, changed, err := s.challenges.MarkCompleted(ctx, db, *m.ChallengeID, opID, at)
	if err != nil {
		return err
	}
	if changed {
		t.Challenge = c
	}
	return nil
}

func (s *MatchService) publishTransition(ctx context.Context, topic string, t *Transition, actorID uuid.UUID) {
	at := t.Match.UpdatedAt
	s.publish(ctx, topic, matchPayload(t, actorID, at))
	if t.Challenge == nil {
		return
	}
	switch t.Challenge.Status {
	case challengedomain.StatusCompleted:
		s.publish(ctx, events.ChallengeCompletedV1, challengeservice.EventPayload(t.Challenge, at))
	case challengedomain.StatusAccepted:
		s.publish(ctx, events.ChallengeAcceptedV1, challengeservice.EventPayload(t.Challenge, at))
	}
}

// Confirm completes a pending match. Only the opponent of the reporter may
// confirm; ratings, the match and the linked challenge change together.
func (s *MatchService) Confirm(ctx context.Context, a actor.Actor, matchID uuid.UUID) (*Transition, error) {
	result, err := withTelemetry(s, ctx, "ConfirmMatch", matchID.String(), func(ctx context.Context) (results.OperationResult[*Transition, error], error) {
		return s.guarded(ctx, "ConfirmMatch", matchID, func(ctx context.Context, db bun.IDB, opID uuid.UUID, m *matchdb.Match, t *Transition) error {
			if !m.IsParticipant(a.PlayerID) {
				return apperrors.NotFound("match %s not found", matchID)
			}
			from := m.Status
			next, err := matchdomain.Next(from, matchdomain.EventConfirm)
			if err != nil {
				return err
			}
			if a.PlayerID == m.ReportedBy {
				return apperrors.InvalidState("the reporter cannot confirm their own match")
			}

			change, err := s.ledger.ApplyMatch(ctx, db, outcomeOf(m), opID)
			if err != nil {
				return err
			}
			t.Ledger = change

			now := s.clock.Now()
			confirmer := a.PlayerID
			m.Status = next
			m.ConfirmedAt = &now
			m.ConfirmedBy = &confirmer
			if err := s.save(ctx, db, m, from, opID, now); err != nil {
				return err
			}
			return s.completeChallenge(ctx, db, m, opID, now, t)
		})
	})
	t, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Match confirmed",
		attr.ExtractCorrelationID(ctx),
		attr.UUID("match_id", matchID),
		attr.UUID("confirmed_by", a.PlayerID),
	)
	s.publishTransition(ctx, events.MatchCompletedV1, t, a.PlayerID)
	return t, nil
}

// ResolveDispute completes a disputed match with the admin's final score and
// stamps the open dispute resolved.
func (s *MatchService) ResolveDispute(ctx context.Context, a actor.Actor, matchID uuid.UUID, req ResolveRequest) (*Transition, error) {
	result, err := withTelemetry(s, ctx, "ResolveDispute", matchID.String(), func(ctx context.Context) (results.OperationResult[*Transition, error], error) {
		if !a.IsAdmin {
			return results.FailureResult[*Transition, error](apperrors.Forbidden("resolving a dispute requires an admin")), nil
		}
		if err := matchdomain.ValidateScores(req.Score1, req.Score2); err != nil {
			return results.FailureResult[*Transition, error](err), nil
		}

		return s.guarded(ctx, "ResolveDispute", matchID, func(ctx context.Context, db bun.IDB, opID uuid.UUID, m *matchdb.Match, t *Transition) error {
			from := m.Status
			next, err := matchdomain.Next(from, matchdomain.EventResolve)
			if err != nil {
				return err
			}
			before := snapshotOf(m)

			m.Player1Score = req.Score1
			m.Player2Score = req.Score2
			change, err := s.ledger.ApplyMatch(ctx, db, outcomeOf(m), opID)
			if err != nil {
				return err
			}
			t.Ledger = change

			now := s.clock.Now()
			resolver := a.PlayerID
			m.Status = next
			m.ConfirmedAt = &now
			m.ConfirmedBy = &resolver
			if err := s.save(ctx, db, m, from, opID, now); err != nil {
				return err
			}

			d, err := s.repo.LatestDispute(ctx, db, m.ID)
			switch {
			case errors.Is(err, matchdb.ErrNotFound):
			case err != nil:
				return err
			case d.ResolvedAt == nil:
				if err := s.repo.ResolveDispute(ctx, db, d.ID, resolver, now, opID); err != nil {
					return err
				}
			}

			if err := s.completeChallenge(ctx, db, m, opID, now, t); err != nil {
				return err
			}
			return s.ledger.RecordAdminAction(ctx, db, a, ledgerdb.ActionResolveDispute, m.LeagueID, m.ID, before, snapshotOf(m), req.Reason)
		})
	})
	t, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	s.publishTransition(ctx, events.MatchDisputeResolvedV1, t, a.PlayerID)
	return t, nil
}

// Void reverts a completed match. Ledger entries are undone exactly and
// deleted; a match without entries is a pure status flip. Each rating becomes
// its current value minus the entry's change, which is the entry's old rating
// only when the player has not played a later match.
func (s *MatchService) Void(ctx context.Context, a actor.Actor, matchID uuid.UUID, reason string) (*Transition, error) {
	result, err := withTelemetry(s, ctx, "VoidMatch", matchID.String(), func(ctx context.Context) (results.OperationResult[*Transition, error], error) {
		if !a.IsAdmin {
			return results.FailureResult[*Transition, error](apperrors.Forbidden("voiding a match requires an admin")), nil
		}

		return s.guarded(ctx, "VoidMatch", matchID, func(ctx context.Context, db bun.IDB, opID uuid.UUID, m *matchdb.Match, t *Transition) error {
			from := m.Status
			next, err := matchdomain.Next(from, matchdomain.EventVoid)
			if err != nil {
				return err
			}
			before := snapshotOf(m)

			change, err := s.ledger.RevertMatch(ctx, db, outcomeOf(m), opID)
			if err != nil {
				return err
			}
			t.Ledger = change

			now := s.clock.Now()
			m.Status = next
			m.VoidedAt = &now
			if err := s.save(ctx, db, m, from, opID, now); err != nil {
				return err
			}

			if s.settings.RevertChallengeOnVoid && m.ChallengeID != nil {
				c, changed, err := s.challenges.RevertToAccepted(ctx, db, *m.ChallengeID, opID, now)
				if err != nil {
					return err
				}
				if changed {
					t.Challenge = c
				}
			}

			return s.ledger.RecordAdminAction(ctx, db, a, ledgerdb.ActionVoidMatch, m.LeagueID, m.ID, before, snapshotOf(m), reason)
		})
	})
	t, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Match voided",
		attr.ExtractCorrelationID(ctx),
		attr.UUID("match_id", matchID),
		attr.UUID("actor_id", a.PlayerID),
		attr.Bool("ledger_noop", t.Ledger != nil && t.Ledger.NoOp),
	)
	s.publishTransition(ctx, events.MatchVoidedV1, t, a.PlayerID)
	return t, nil
}

// Unvoid completes a voided match again by applying it to current ratings.
// It does not replay the old deltas, so if either player has played since
// the void the resulting ratings differ from those before it.
func (s *MatchService) Unvoid(ctx context.Context, a actor.Actor, matchID uuid.UUID, reason string) (*Transition, error) {
	result, err := withTelemetry(s, ctx, "UnvoidMatch", matchID.String(), func(ctx context.Context) (results.OperationResult[*Transition, error], error) {
		if !a.IsAdmin {
			return results.FailureResult[*Transition, error](apperrors.Forbidden("unvoiding a match requires an admin")), nil
		}

		return s.guarded(ctx, "UnvoidMatch", matchID, func(ctx context.Context, db bun.IDB, opID uuid.UUID, m *matchdb.Match, t *Transition) error {
			from := m.Status
			next, err := matchdomain.Next(from, matchdomain.EventUnvoid)
			if err != nil {
				return err
			}
			before := snapshotOf(m)

			change, err := s.ledger.ApplyMatch(ctx, db, outcomeOf(m), opID)
			if err != nil {
				return err
			}
			t.Ledger = change

			now := s.clock.Now()
			m.Status = next
			m.VoidedAt = nil
			if err := s.save(ctx, db, m, from, opID, now); err != nil {
				return err
			}
			if err := s.completeChallenge(ctx, db, m, opID, now, t); err != nil {
				return err
			}
			return s.ledger.RecordAdminAction(ctx, db, a, ledgerdb.ActionUnvoidMatch, m.LeagueID, m.ID, before, snapshotOf(m), reason)
		})
	})
	t, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	s.publishTransition(ctx, events.MatchUnvoidedV1, t, a.PlayerID)
	return t, nil
}
