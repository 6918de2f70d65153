package challengeservice

import (
	"context"
	"errors"
	"time"

	challengedomain "github.com/UziB26/leagueladder-sub002/app/modules/challenge/domain"
	challengedb "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// The methods below run inside a transaction owned by the match service and
// return domain failures as *apperrors.Error.

func (s *ChallengeService) lock(ctx context.Context, db bun.IDB, challengeID uuid.UUID) (*challengedb.Challenge, error) {
	c, err := s.repo.GetForUpdate(ctx, db, challengeID)
	if err != nil {
		if errors.Is(err, challengedb.ErrNotFound) {
			return nil, apperrors.NotFound("challenge %s not found", challengeID)
		}
		return nil, err
	}
	return c, nil
}

// LoadForMatch locks an accepted challenge between playerA and playerB. A
// lapsed pending challenge is persisted as expired before the ExpiredError
// is returned.
func (s *ChallengeService) LoadForMatch(ctx context.Context, db bun.IDB, challengeID, leagueID, playerA, playerB uuid.UUID) (*challengedb.Challenge, error) {
	c, err := s.lock(ctx, db, challengeID)
	if err != nil {
		return nil, err
	}
	if c.LeagueID != leagueID || !c.IsParticipant(playerA) || c.Opponent(playerA) != playerB {
		return nil, apperrors.Validation("challenge %s is not between these players in this league", challengeID)
	}

	now := s.clock.Now()
	switch {
	case challengedomain.Expired(c.Status, c.ExpiresAt, now):
		if err := s.expire(ctx, db, c, now); err != nil {
			return nil, err
		}
		return nil, apperrors.Expired("challenge expired at %s", c.ExpiresAt.Format(time.RFC3339))
	case c.Status != challengedomain.StatusAccepted:
		return nil, apperrors.InvalidState("challenge is %s, not accepted", c.Status)
	}
	return c, nil
}

func (s *ChallengeService) MarkCompleted(ctx context.Context, db bun.IDB, challengeID, opID uuid.UUID, at time.Time) (*challengedb.Challenge, bool, error) {
	c, err := s.lock(ctx, db, challengeID)
	if err != nil {
		return nil, false, err
	}
	if c.Status == challengedomain.StatusCompleted {
		return c, false, nil
	}
	if !challengedomain.CanTransition(c.Status, challengedomain.StatusCompleted) {
		return nil, false, apperrors.InvalidState("challenge is %s and cannot be completed", c.Status)
	}

	err = s.repo.Transition(ctx, db, challengedb.Transition{
		ID:          c.ID,
		From:        c.Status,
		To:          challengedomain.StatusCompleted,
		At:          at,
		OpID:        opID,
		CompletedAt: &at,
	})
	if err != nil {
		if errors.Is(err, challengedb.ErrStatusConflict) {
			return nil, false, apperrors.Conflict("challenge %s changed concurrently", challengeID)
		}
		return nil, false, err
	}

	c.Status = challengedomain.StatusCompleted
	c.CompletedAt = &at
	c.LastOpID = opID
	c.UpdatedAt = at
	return c, true, nil
}

func (s *ChallengeService) RevertToAccepted(ctx context.Context, db bun.IDB, challengeID, opID uuid.UUID, at time.Time) (*challengedb.Challenge, bool, error) {
	c, err := s.lock(ctx, db, challengeID)
	if err != nil {
		return nil, false, err
	}
	if c.Status != challengedomain.StatusCompleted {
		return c, false, nil
	}

	err = s.repo.Transition(ctx, db, challengedb.Transition{
		ID:   c.ID,
		From: challengedomain.StatusCompleted,
		To:   challengedomain.StatusAccepted,
		At:   at,
		OpID: opID,
	})
	if err != nil {
		if errors.Is(err, challengedb.ErrStatusConflict) {
			return nil, false, apperrors.Conflict("challenge %s changed concurrently", challengeID)
		}
		return nil, false, err
	}

	c.Status = challengedomain.StatusAccepted
	c.CompletedAt = nil
	c.LastOpID = opID
	c.UpdatedAt = at
	return c, true, nil
}

func (s *ChallengeService) Section(challengeID uuid.UUID) txguard.Section {
	return challengedb.NewSection(s.repo, challengeID)
}

// RegisterSections makes challenge backups decodable by the coordinator.
func (s *ChallengeService) RegisterSections(c *txguard.Coordinator) {
	c.Register(challengedb.SectionKind, challengedb.SectionFactory(s.repo))
}
