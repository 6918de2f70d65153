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

// ReportScore creates a match in pending_confirmation with the actor as
// player 1. A linked challenge must be accepted and between the same players.
func (s *MatchService) ReportScore(ctx context.Context, a actor.Actor, req ReportRequest) (*matchdb.Match, error) {
	result, err := withTelemetry(s, ctx, "ReportScore", req.LeagueID.String(), func(ctx context.Context) (results.OperationResult[*matchdb.Match, error], error) {
		return s.reportLogic(ctx, a, req)
	})
	m, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.MatchReportedV1, matchPayload(&Transition{Match: m}, a.PlayerID, m.CreatedAt))
	return m, nil
}

func (s *MatchService) reportLogic(ctx context.Context, a actor.Actor, req ReportRequest) (results.OperationResult[*matchdb.Match, error], error) {
	if a.PlayerID == req.OpponentID {
		return results.FailureResult[*matchdb.Match, error](apperrors.Validation("a player cannot play against themselves")), nil
	}
	if err := matchdomain.ValidateScores(req.ReporterScore, req.OpponentScore); err != nil {
		return results.FailureResult[*matchdb.Match, error](err), nil
	}

	now := s.clock.Now()
	playedAt, err := matchdomain.ParsePlayedAt(req.PlayedAt, now)
	if err != nil {
		return results.FailureResult[*matchdb.Match, error](err), nil
	}

	return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[*matchdb.Match, error], error) {
		ok, err := s.members.AreActiveMembers(ctx, db, req.LeagueID, a.PlayerID, req.OpponentID)
		if err != nil {
			return results.OperationResult[*matchdb.Match, error]{}, err
		}
		if !ok {
			return results.FailureResult[*matchdb.Match, error](apperrors.Validation("both players must be active members of the league")), nil
		}

		if req.ChallengeID != nil {
			if _, err := s.challenges.LoadForMatch(ctx, db, *req.ChallengeID, req.LeagueID, a.PlayerID, req.OpponentID); err != nil {
				if apperrors.IsDomain(err) {
					return results.FailureResult[*matchdb.Match, error](err), nil
				}
				return results.OperationResult[*matchdb.Match, error]{}, err
			}
		}

		m := &matchdb.Match{
			ID:           uuid.New(),
			LeagueID:     req.LeagueID,
			ChallengeID:  req.ChallengeID,
			Player1ID:    a.PlayerID,
			Player2ID:    req.OpponentID,
			Player1Score: req.ReporterScore,
			Player2Score: req.OpponentScore,
			Status:       matchdomain.StatusPendingConfirmation,
			ReportedBy:   a.PlayerID,
			PlayedAt:     playedAt,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.repo.Create(ctx, db, m); err != nil {
			if errors.Is(err, matchdb.ErrChallengeUsed) {
				return results.FailureResult[*matchdb.Match, error](apperrors.InvalidState("challenge %s already has a match", *req.ChallengeID)), nil
			}
			return results.OperationResult[*matchdb.Match, error]{}, err
		}

		s.logger.InfoContext(ctx, "Match reported",
			attr.ExtractCorrelationID(ctx),
			attr.UUID("match_id", m.ID),
			attr.UUID("reporter_id", a.PlayerID),
			attr.Int("player1_score", m.Player1Score),
			attr.Int("player2_score", m.Player2Score),
		)
		return results.SuccessResult[*matchdb.Match, error](m), nil
	})
}
