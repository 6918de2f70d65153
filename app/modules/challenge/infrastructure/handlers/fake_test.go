package challengehandlers

import (
	"context"
	"time"

	challengeservice "github.com/UziB26/leagueladder-sub002/app/modules/challenge/application"
	challengedomain "github.com/UziB26/leagueladder-sub002/app/modules/challenge/domain"
	challengedb "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/UziB26/leagueladder-sub002/app/shared/txguard"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Challenge Service
// ------------------------

type FakeChallengeService struct {
	trace []string

	CreateFunc  func(ctx context.Context, a actor.Actor, leagueID, challengeeID uuid.UUID) (*challengedb.Challenge, error)
	RespondFunc func(ctx context.Context, a actor.Actor, challengeID uuid.UUID, r challengedomain.Response) (*challengedb.Challenge, error)
}

func NewFakeChallengeService() *FakeChallengeService {
	return &FakeChallengeService{
		trace: []string{},
	}
}

func (f *FakeChallengeService) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Service Interface Implementation ---

func (f *FakeChallengeService) Create(ctx context.Context, a actor.Actor, leagueID, challengeeID uuid.UUID) (*challengedb.Challenge, error) {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, a, leagueID, challengeeID)
	}
	return &challengedb.Challenge{}, nil
}

func (f *FakeChallengeService) Respond(ctx context.Context, a actor.Actor, challengeID uuid.UUID, r challengedomain.Response) (*challengedb.Challenge, error) {
	f.record("Respond:" + string(r))
	if f.RespondFunc != nil {
		return f.RespondFunc(ctx, a, challengeID, r)
	}
	return &challengedb.Challenge{}, nil
}

func (f *FakeChallengeService) Accept(ctx context.Context, a actor.Actor, challengeID uuid.UUID) (*challengedb.Challenge, error) {
	return f.Respond(ctx, a, challengeID, challengedomain.ResponseAccept)
}

func (f *FakeChallengeService) Decline(ctx context.Context, a actor.Actor, challengeID uuid.UUID) (*challengedb.Challenge, error) {
	return f.Respond(ctx, a, challengeID, challengedomain.ResponseDecline)
}

func (f *FakeChallengeService) Cancel(ctx context.Context, a actor.Actor, challengeID uuid.UUID) (*challengedb.Challenge, error) {
	return f.Respond(ctx, a, challengeID, challengedomain.ResponseCancel)
}

func (f *FakeChallengeService) Get(ctx context.Context, a actor.Actor, challengeID uuid.UUID) (*challengedb.Challenge, error) {
	f.record("Get")
	return nil, nil
}

func (f *FakeChallengeService) ListForPlayer(ctx context.Context, playerID uuid.UUID, filter challengedb.ListFilter) ([]challengedb.Challenge, error) {
	f.record("ListForPlayer")
	return nil, nil
}

func (f *FakeChallengeService) LoadForMatch(ctx context.Context, db bun.IDB, challengeID, leagueID, playerA, playerB uuid.UUID) (*challengedb.Challenge, error) {
	f.record("LoadForMatch")
	return nil, nil
}

func (f *FakeChallengeService) MarkCompleted(ctx context.Context, db bun.IDB, challengeID, opID uuid.UUID, at time.Time) (*challengedb.Challenge, bool, error) {
	f.record("MarkCompleted")
	return nil, false, nil
}

func (f *FakeChallengeService) RevertToAccepted(ctx context.Context, db bun.IDB, challengeID, opID uuid.UUID, at time.Time) (*challengedb.Challenge, bool, error) {
	f.record("RevertToAccepted")
	return nil, false, nil
}

func (f *FakeChallengeService) Section(challengeID uuid.UUID) txguard.Section {
	return nil
}

// --- Accessors for assertions ---

func (f *FakeChallengeService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ challengeservice.Service = (*FakeChallengeService)(nil)
