package ledgerservice

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/UziB26/leagueladder-sub002/app/events"
	ledgerdomain "github.com/UziB26/leagueladder-sub002/app/modules/ledger/domain"
	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/UziB26/leagueladder-sub002/app/shared/results"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SetRating overrides a player's rating. The override is recorded as a ledger
// entry under a synthetic adj_ reference and as an admin action. Counters are
// not touched.
func (s *LedgerService) SetRating(ctx context.Context, a actor.Actor, req SetRatingRequest) (*RatingAdjustment, error) {
	result, err := withTelemetry(s, ctx, "SetRating", req.PlayerID.String(), func(ctx context.Context) (results.OperationResult[*RatingAdjustment, error], error) {
		return s.setRatingLogic(ctx, a, req)
	})
	adj, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.RatingAdjustedV1, events.RatingAdjustedPayload{
		LeagueID: adj.LeagueID,
		ActorID:  a.PlayerID,
		MatchRef: adj.MatchRef,
		Change: events.RatingChange{
			PlayerID:  adj.PlayerID,
			OldRating: adj.OldRating,
			NewRating: adj.NewRating,
			Change:    adj.Change,
		},
		Reason:     req.Reason,
		OccurredAt: adj.At,
	})
	return adj, nil
}

func (s *LedgerService) setRatingLogic(ctx context.Context, a actor.Actor, req SetRatingRequest) (results.OperationResult[*RatingAdjustment, error], error) {
	if !a.IsAdmin {
		return results.FailureResult[*RatingAdjustment, error](apperrors.Forbidden("setting a rating requires an admin")), nil
	}
	if !ledgerdomain.ValidAdminRating(req.Rating) {
		return results.FailureResult[*RatingAdjustment, error](apperrors.Validation(
			"rating %d is outside [%d, %d]", req.Rating, ledgerdomain.MinAdminRating, ledgerdomain.MaxAdminRating,
		)), nil
	}

	ref, err := ledgerdomain.NewAdjustmentRef()
	if err != nil {
		return results.OperationResult[*RatingAdjustment, error]{}, err
	}

	section := s.RatingSection(req.LeagueID, []uuid.UUID{req.PlayerID}, "")

	var adj *RatingAdjustment
	err = s.coordinator.Execute(ctx, "SetRating", []txguard.Section{section}, func(ctx context.Context, db bun.IDB, opID uuid.UUID) error {
		row, err := s.lockSingle(ctx, db, req.PlayerID, req.LeagueID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		old := row.Rating
		row.Rating = req.Rating
		row.LastOpID = opID
		if err := s.repo.UpdateRating(ctx, db, row); err != nil {
			return err
		}

		entry := ledgerdb.RatingUpdate{
			ID:        uuid.New(),
			MatchRef:  ref,
			PlayerID:  req.PlayerID,
			LeagueID:  req.LeagueID,
			OldRating: old,
			NewRating: req.Rating,
			Change:    req.Rating - old,
			OpID:      opID,
			CreatedAt: now,
		}
		if err := s.repo.InsertRatingUpdates(ctx, db, []ledgerdb.RatingUpdate{entry}); err != nil {
			return err
		}

		if err := s.audit(ctx, db, a, ledgerdb.ActionSetRating, req.LeagueID, req.PlayerID, ref, req.Reason,
			map[string]int{"rating": old}, map[string]int{"rating": req.Rating}); err != nil {
			return err
		}

		adj = &RatingAdjustment{
			PlayerID:  req.PlayerID,
			LeagueID:  req.LeagueID,
			MatchRef:  ref,
			OldRating: old,
			NewRating: req.Rating,
			Change:    entry.Change,
			At:        now,
		}
		return nil
	})
	if err != nil {
		if apperrors.IsDomain(err) {
			return results.FailureResult[*RatingAdjustment, error](err), nil
		}
		return results.OperationResult[*RatingAdjustment, error]{}, err
	}

	s.logger.InfoContext(ctx, "Rating overridden",
		attr.ExtractCorrelationID(ctx),
		attr.UUID("actor_id", a.PlayerID),
		attr.UUID("player_id", req.PlayerID),
		attr.Int("old_rating", adj.OldRating),
		attr.Int("new_rating", adj.NewRating),
	)
	return results.SuccessResult[*RatingAdjustment, error](adj), nil
}

// SetStats overwrites the provided counters. A result whose games played
// differs from wins + losses + draws is rejected unless AllowDivergence is
// set, in which case it is recorded and left for the ledger audit to report.
func (s *LedgerService) SetStats(ctx context.Context, a actor.Actor, req SetStatsRequest) (*StatsAdjustment, error) {
	result, err := withTelemetry(s, ctx, "SetStats", req.PlayerID.String(), func(ctx context.Context) (results.OperationResult[*StatsAdjustment, error], error) {
		return s.setStatsLogic(ctx, a, req)
	})
	adj, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.StatsAdjustedV1, events.StatsAdjustedPayload{
		LeagueID:    adj.LeagueID,
		PlayerID:    adj.PlayerID,
		ActorID:     a.PlayerID,
		GamesPlayed: adj.After.GamesPlayed,
		Wins:        adj.After.Wins,
		Losses:      adj.After.Losses,
		Draws:       adj.After.Draws,
		Diverged:    adj.Diverged,
		Reason:      req.Reason,
		OccurredAt:  s.clock.Now(),
	})
	return adj, nil
}

func (s *LedgerService) setStatsLogic(ctx context.Context, a actor.Actor, req SetStatsRequest) (results.OperationResult[*StatsAdjustment, error], error) {
	fail := func(err error) (results.OperationResult[*StatsAdjustment, error], error) {
		return results.FailureResult[*StatsAdjustment, error](err), nil
	}

	if !a.IsAdmin {
		return fail(apperrors.Forbidden("setting stats requires an admin"))
	}
	if req.Patch.Empty() {
		return fail(apperrors.Validation("at least one of wins, losses, draws or gamesPlayed is required"))
	}
	if field, negative := req.Patch.Negative(); negative {
		return fail(apperrors.Validation("%s must not be negative", field))
	}

	section := s.RatingSection(req.LeagueID, []uuid.UUID{req.PlayerID}, "")

	var adj *StatsAdjustment
	err := s.coordinator.Execute(ctx, "SetStats", []txguard.Section{section}, func(ctx context.Context, db bun.IDB, opID uuid.UUID) error {
		row, err := s.lockSingle(ctx, db, req.PlayerID, req.LeagueID)
		if err != nil {
			return err
		}

		before := row.Record()
		after := req.Patch.ApplyTo(before)
		if !after.Consistent() && !req.AllowDivergence {
			return apperrors.Validation(
				"gamesPlayed %d does not equal wins + losses + draws (%d)",
				after.GamesPlayed, after.Wins+after.Losses+after.Draws,
			)
		}

		row.SetRecord(after)
		row.LastOpID = opID
		if err := s.repo.UpdateRating(ctx, db, row); err != nil {
			return err
		}

		if err := s.audit(ctx, db, a, ledgerdb.ActionSetStats, req.LeagueID, req.PlayerID, "", req.Reason, before, after); err != nil {
			return err
		}

		adj = &StatsAdjustment{
			PlayerID: req.PlayerID,
			LeagueID: req.LeagueID,
			Before:   before,
			After:    after,
			Diverged: !after.Consistent(),
		}
		return nil
	})
	if err != nil {
		if apperrors.IsDomain(err) {
			return fail(err)
		}
		return results.OperationResult[*StatsAdjustment, error]{}, err
	}

	if adj.Diverged {
		s.logger.WarnContext(ctx, "Stats override leaves record inconsistent",
			attr.ExtractCorrelationID(ctx),
			attr.UUID("player_id", req.PlayerID),
			attr.UUID("league_id", req.LeagueID),
			attr.Any("record", adj.After),
		)
	}
	return results.SuccessResult[*StatsAdjustment, error](adj), nil
}

func (s *LedgerService) lockSingle(ctx context.Context, db bun.IDB, playerID, leagueID uuid.UUID) (*ledgerdb.PlayerRating, error) {
	rows, err := s.repo.LockRatings(ctx, db, leagueID, []uuid.UUID{playerID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFound("player %s has no rating in league %s", playerID, leagueID)
	}
	return &rows[0], nil
}

func (s *LedgerService) audit(
	ctx context.Context,
	db bun.IDB,
	a actor.Actor,
	action string,
	leagueID, playerID uuid.UUID,
	matchRef, reason string,
	before, after any,
) error {
	return s.insertAudit(ctx, db, &ledgerdb.AdminAction{
		ActorID:  a.PlayerID,
		Action:   action,
		LeagueID: leagueID,
		PlayerID: playerID,
		MatchRef: matchRef,
		Reason:   reason,
	}, before, after)
}

// RecordAdminAction writes an audit entry for an admin operation on a match,
// inside the caller's unit.
func (s *LedgerService) RecordAdminAction(ctx context.Context, db bun.IDB, a actor.Actor, action string, leagueID, matchID uuid.UUID, before, after any, reason string) error {
	return s.insertAudit(ctx, db, &ledgerdb.AdminAction{
		ActorID:  a.PlayerID,
		Action:   action,
		LeagueID: leagueID,
		MatchID:  matchID,
		MatchRef: ledgerdomain.MatchRef(matchID),
		Reason:   reason,
	}, before, after)
}

func (s *LedgerService) insertAudit(ctx context.Context, db bun.IDB, action *ledgerdb.AdminAction, before, after any) error {
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return fmt.Errorf("encode audit before: %w", err)
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return fmt.Errorf("encode audit after: %w", err)
	}

	action.ID = uuid.New()
	action.Before = beforeJSON
	action.After = afterJSON
	action.CreatedAt = s.clock.Now()
	return s.repo.InsertAdminAction(ctx, db, action)
}
