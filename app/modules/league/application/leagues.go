package leagueservice

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	leaguedb "github.com/UziB26/leagueladder-sub002/app/modules/league/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/apperrors"
	"github.com/UziB26/leagueladder-sub002/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	maxNameLength = 100
	// DefaultGameType is used when a league is created without one.
	DefaultGameType = "table_tennis"
)

func validName(field, name string) error {
	if name == "" {
		return apperrors.Validation("%s is required", field)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return apperrors.Validation("%s must be at most %d characters", field, maxNameLength)
	}
	return nil
}

// CreateLeague creates a league. Only admins may create leagues.
func (s *LeagueService) CreateLeague(ctx context.Context, a actor.Actor, name, gameType string) (*leaguedb.League, error) {
	name = strings.TrimSpace(name)
	gameType = strings.TrimSpace(gameType)

	return unwrap(withTelemetry(s, ctx, "CreateLeague", name, func(ctx context.Context) (results.OperationResult[*leaguedb.League, error], error) {
		if !a.IsAdmin {
			return results.FailureResult[*leaguedb.League, error](apperrors.Forbidden("creating a league requires an admin")), nil
		}
		if err := validName("league name", name); err != nil {
			return results.FailureResult[*leaguedb.League, error](err), nil
		}
		if gameType == "" {
			gameType = DefaultGameType
		}

		league := &leaguedb.League{ID: uuid.New(), Name: name, GameType: gameType}
		if err := s.repo.CreateLeague(ctx, nil, league); err != nil {
			if errors.Is(err, leaguedb.ErrDuplicate) {
				return results.FailureResult[*leaguedb.League, error](apperrors.Validation("league %q already exists", name)), nil
			}
			return results.OperationResult[*leaguedb.League, error]{}, err
		}
		return results.SuccessResult[*leaguedb.League, error](league), nil
	}))
}

// GetLeague retrieves a league by id.
func (s *LeagueService) GetLeague(ctx context.Context, leagueID uuid.UUID) (*leaguedb.League, error) {
	return unwrap(withTelemetry(s, ctx, "GetLeague", leagueID.String(), func(ctx context.Context) (results.OperationResult[*leaguedb.League, error], error) {
		league, err := s.repo.GetLeague(ctx, nil, leagueID)
		if err != nil {
			if errors.Is(err, leaguedb.ErrNotFound) {
				return results.FailureResult[*leaguedb.League, error](apperrors.NotFound("league %s not found", leagueID)), nil
			}
			return results.OperationResult[*leaguedb.League, error]{}, err
		}
		return results.SuccessResult[*leaguedb.League, error](league), nil
	}))
}

// ListLeagues returns all leagues ordered by name.
func (s *LeagueService) ListLeagues(ctx context.Context) ([]leaguedb.League, error) {
	return s.repo.ListLeagues(ctx, nil)
}

// RegisterPlayer creates a player profile.
func (s *LeagueService) RegisterPlayer(ctx context.Context, displayName, contact string) (*leaguedb.Player, error) {
	displayName = strings.TrimSpace(displayName)

	return unwrap(withTelemetry(s, ctx, "RegisterPlayer", displayName, func(ctx context.Context) (results.OperationResult[*leaguedb.Player, error], error) {
		if err := validName("display name", displayName); err != nil {
			return results.FailureResult[*leaguedb.Player, error](err), nil
		}

		player := &leaguedb.Player{ID: uuid.New(), DisplayName: displayName, Contact: strings.TrimSpace(contact)}
		if err := s.repo.CreatePlayer(ctx, nil, player); err != nil {
			if errors.Is(err, leaguedb.ErrDuplicate) {
				return results.FailureResult[*leaguedb.Player, error](apperrors.Validation("display name %q is taken", displayName)), nil
			}
			return results.OperationResult[*leaguedb.Player, error]{}, err
		}
		return results.SuccessResult[*leaguedb.Player, error](player), nil
	}))
}

// GetPlayer retrieves a player by id.
func (s *LeagueService) GetPlayer(ctx context.Context, playerID uuid.UUID) (*leaguedb.Player, error) {
	player, err := s.repo.GetPlayer(ctx, nil, playerID)
	if err != nil {
		if errors.Is(err, leaguedb.ErrNotFound) {
			return nil, apperrors.NotFound("player %s not found", playerID)
		}
		return nil, apperrors.Storage("GetPlayer", err)
	}
	return player, nil
}

// JoinLeague adds the actor to a league, reactivating a previous membership.
func (s *LeagueService) JoinLeague(ctx context.Context, a actor.Actor, leagueID uuid.UUID) (*leaguedb.Membership, error) {
	joinTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*leaguedb.Membership, error], error) {
		if _, err := s.repo.GetLeague(ctx, db, leagueID); err != nil {
			if errors.Is(err, leaguedb.ErrNotFound) {
				return results.FailureResult[*leaguedb.Membership, error](apperrors.NotFound("league %s not found", leagueID)), nil
			}
			return results.OperationResult[*leaguedb.Membership, error]{}, err
		}
		if _, err := s.repo.GetPlayer(ctx, db, a.PlayerID); err != nil {
			if errors.Is(err, leaguedb.ErrNotFound) {
				return results.FailureResult[*leaguedb.Membership, error](apperrors.NotFound("player %s not found", a.PlayerID)), nil
			}
			return results.OperationResult[*leaguedb.Membership, error]{}, err
		}

		m := &leaguedb.Membership{LeagueID: leagueID, PlayerID: a.PlayerID, Active: true}
		if err := s.repo.UpsertMembership(ctx, db, m); err != nil {
			return results.OperationResult[*leaguedb.Membership, error]{}, err
		}
		return results.SuccessResult[*leaguedb.Membership, error](m), nil
	}

	return unwrap(withTelemetry(s, ctx, "JoinLeague", leagueID.String(), func(ctx context.Context) (results.OperationResult[*leaguedb.Membership, error], error) {
		return runInTx(s, ctx, joinTx)
	}))
}

// SetMembershipActive activates or deactivates a membership. Admins may change
// anyone; players may only leave or rejoin themselves.
func (s *LeagueService) SetMembershipActive(ctx context.Context, a actor.Actor, leagueID, playerID uuid.UUID, active bool) error {
	_, err := unwrap(withTelemetry(s, ctx, "SetMembershipActive", playerID.String(), func(ctx context.Context) (results.OperationResult[struct{}, error], error) {
		if !a.IsAdmin && a.PlayerID != playerID {
			return results.FailureResult[struct{}, error](apperrors.Forbidden("only admins may change another player's membership")), nil
		}
		if err := s.repo.SetMembershipActive(ctx, nil, leagueID, playerID, active); err != nil {
			if errors.Is(err, leaguedb.ErrNotFound) {
				return results.FailureResult[struct{}, error](apperrors.NotFound("player %s is not a member of league %s", playerID, leagueID)), nil
			}
			return results.OperationResult[struct{}, error]{}, err
		}
		return results.SuccessResult[struct{}, error](struct{}{}), nil
	}))
	return err
}

// ListMembers returns a league's members.
func (s *LeagueService) ListMembers(ctx context.Context, leagueID uuid.UUID, activeOnly bool) ([]leaguedb.Membership, error) {
	return s.repo.ListMembers(ctx, nil, leagueID, activeOnly)
}

// AreActiveMembers reports whether every listed player is an active member.
func (s *LeagueService) AreActiveMembers(ctx context.Context, db bun.IDB, leagueID uuid.UUID, playerIDs ...uuid.UUID) (bool, error) {
	unique := make(map[uuid.UUID]struct{}, len(playerIDs))
	ids := make([]uuid.UUID, 0, len(playerIDs))
	for _, id := range playerIDs {
		if _, ok := unique[id]; ok {
			continue
		}
		unique[id] = struct{}{}
		ids = append(ids, id)
	}

	n, err := s.repo.CountActiveMembers(ctx, db, leagueID, ids)
	if err != nil {
		return false, err
	}
	return n == len(ids), nil
}
