package matchservice

import (
	"context"
	"errors"

	"github.com/UziB26/leagueladder-sub002/app/events"
	matchdomain "github.com/UziB26/leagueladder-sub002/app/modules/match/domain"
	matchdb "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/UziB26/leagueladder-sub002/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type disputed struct {
	match   *matchdb.Match
	dispute *matchdb.Dispute
}

// Dispute moves a pending match to disputed and records the opponent's
// proposed correction.
func (s *MatchService) Dispute(ctx context.Context, a actor.Actor, matchID uuid.UUID, req DisputeRequest) (*matchdb.Dispute, error) {
	result, err := withTelemetry(s, ctx, "DisputeMatch", matchID.String(), func(ctx context.Context) (results.OperationResult[*disputed, error], error) {
		if err := matchdomain.ValidateScores(req.ProposedScore1, req.ProposedScore2); err != nil {
			return results.FailureResult[*disputed, error](err), nil
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*disputed, error], error) {
			m, err := s.repo.GetForUpdate(ctx, db, matchID)
			if err != nil {
				if errors.Is(err, matchdb.ErrNotFound) {
					return results.FailureResult[*disputed, error](apperrors.NotFound("match %s not found", matchID)), nil
				}
				return results.OperationResult[*disputed, error]{}, err
			}
			if !m.IsParticipant(a.PlayerID) {
				return results.FailureResult[*disputed, error](apperrors.NotFound("match %s not found", matchID)), nil
			}

			from := m.Status
			next, err := matchdomain.Next(from, matchdomain.EventDispute)
			if err != nil {
				return results.FailureResult[*disputed, error](err), nil
			}
			if a.PlayerID == m.ReportedBy {
				return results.FailureResult[*disputed, error](apperrors.InvalidState("the reporter cannot dispute their own match")), nil
			}

			now := s.clock.Now()
			d := &matchdb.Dispute{
				ID:             uuid.New(),
				MatchID:        m.ID,
				DisputedBy:     a.PlayerID,
				ProposedScore1: req.ProposedScore1,
				ProposedScore2: req.ProposedScore2,
				Reason:         req.Reason,
				CreatedAt:      now,
			}
			if err := s.repo.InsertDispute(ctx, db, d); err != nil {
				return results.OperationResult[*disputed, error]{}, err
			}

			m.Status = next
			if err := s.save(ctx, db, m, from, uuid.Nil, now); err != nil {
				if apperrors.IsDomain(err) {
					return results.FailureResult[*disputed, error](err), nil
				}
				return results.OperationResult[*disputed, error]{}, err
			}
			return results.SuccessResult[*disputed, error](&disputed{match: m, dispute: d}), nil
		})
	})
	out, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Match disputed",
		attr.ExtractCorrelationID(ctx),
		attr.UUID("match_id", matchID),
		attr.UUID("disputed_by", a.PlayerID),
	)
	s.publish(ctx, events.MatchDisputedV1, events.MatchDisputedPayload{
		MatchID:        out.match.ID,
		LeagueID:       out.match.LeagueID,
		DisputedBy:     a.PlayerID,
		ProposedScore1: out.dispute.ProposedScore1,
		ProposedScore2: out.dispute.ProposedScore2,
		Reason:         out.dispute.Reason,
		OccurredAt:     out.dispute.CreatedAt,
	})
	return out.dispute, nil
}
