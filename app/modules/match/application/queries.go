package matchservice

import (
	"context"
	"errors"

	matchdb "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/google/uuid"
)

func (s *MatchService) Get(ctx context.Context, matchID uuid.UUID) (*matchdb.Match, error) {
	m, err := s.repo.Get(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, matchdb.ErrNotFound) {
			return nil, apperrors.NotFound("match %s not found", matchID)
		}
		return nil, apperrors.Storage("GetMatch", err)
	}
	return m, nil
}

func (s *MatchService) List(ctx context.Context, filter matchdb.ListFilter) ([]matchdb.Match, error) {
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, apperrors.Validation("unknown match status %q", st)
		}
	}
	matches, err := s.repo.List(ctx, nil, filter)
	if err != nil {
		return nil, apperrors.Storage("ListMatches", err)
	}
	return matches, nil
}

// LatestDispute returns the most recent dispute raised on a match.
func (s *MatchService) LatestDispute(ctx context.Context, matchID uuid.UUID) (*matchdb.Dispute, error) {
	d, err := s.repo.LatestDispute(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, matchdb.ErrNotFound) {
			return nil, apperrors.NotFound("match %s has no dispute", matchID)
		}
		return nil, apperrors.Storage("LatestDispute", err)
	}
	return d, nil
}
