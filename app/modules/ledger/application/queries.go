package ledgerservice

import (
	"context"
	"errors"

	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/UziB26/leagueladder-sub002/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// GetRating returns a player's rating row in a league.
func (s *LedgerService) GetRating(ctx context.Context, playerID, leagueID uuid.UUID) (*ledgerdb.PlayerRating, error) {
	getRatingTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*ledgerdb.PlayerRating, error], error) {
		rating, err := s.repo.GetRating(ctx, db, playerID, leagueID)
		if err != nil {
			if errors.Is(err, ledgerdb.ErrNotFound) {
				return results.FailureResult[*ledgerdb.PlayerRating, error](
					apperrors.NotFound("player %s has no rating in league %s", playerID, leagueID),
				), nil
			}
			return results.OperationResult[*ledgerdb.PlayerRating, error]{}, err
		}
		return results.SuccessResult[*ledgerdb.PlayerRating, error](rating), nil
	}

	return unwrap(withTelemetry(s, ctx, "GetRating", playerID.String(), func(ctx context.Context) (results.OperationResult[*ledgerdb.PlayerRating, error], error) {
		return runInTx(s, ctx, getRatingTx)
	}))
}

// GetStandings returns a league's ratings, highest first.
func (s *LedgerService) GetStandings(ctx context.Context, leagueID uuid.UUID) ([]ledgerdb.PlayerRating, error) {
	return s.repo.ListStandings(ctx, nil, leagueID)
}

// GetRatingHistory returns a player's ledger entries, newest first.
func (s *LedgerService) GetRatingHistory(ctx context.Context, playerID, leagueID uuid.UUID, limit int) ([]ledgerdb.RatingUpdate, error) {
	return s.repo.GetRatingHistory(ctx, nil, playerID, leagueID, limit)
}

// ListAdminActions returns a league's audit trail, newest first.
func (s *LedgerService) ListAdminActions(ctx context.Context, leagueID uuid.UUID, limit int) ([]ledgerdb.AdminAction, error) {
	return s.repo.ListAdminActions(ctx, nil, leagueID, limit)
}

// AuditRecords lists ratings whose games played differs from
// wins + losses + draws.
func (s *LedgerService) AuditRecords(ctx context.Context) ([]ledgerdb.PlayerRating, error) {
	auditTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[[]ledgerdb.PlayerRating, error], error) {
		rows, err := s.repo.FindInconsistentRatings(ctx, db)
		if err != nil {
			return results.OperationResult[[]ledgerdb.PlayerRating, error]{}, err
		}
		for _, r := range rows {
			s.logger.WarnContext(ctx, "Inconsistent player record",
				attr.UUID("player_id", r.PlayerID),
				attr.UUID("league_id", r.LeagueID),
				attr.Any("record", r.Record()),
			)
		}
		return results.SuccessResult[[]ledgerdb.PlayerRating, error](rows), nil
	}

	return unwrap(withTelemetry(s, ctx, "AuditRecords", "all", func(ctx context.Context) (results.OperationResult[[]ledgerdb.PlayerRating, error], error) {
		return runInTx(s, ctx, auditTx)
	}))
}
