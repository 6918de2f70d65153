package httpapi

import (
	"context"

	challengeservice "github.com/UziB26/leagueladder-sub002/app/modules/challenge/application"
	challengedb "github.com/UziB26/leagueladder-sub002/app/modules/challenge/infrastructure/repositories"
	leagueservice "github.com/UziB26/leagueladder-sub002/app/modules/league/application"
	ledgerservice "github.com/UziB26/leagueladder-sub002/app/modules/ledger/application"
	ledgerdb "github.com/UziB26/leagueladder-sub002/app/modules/ledger/infrastructure/repositories"
	matchservice "github.com/UziB26/leagueladder-sub002/app/modules/match/application"
	matchdb "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/google/uuid"
)

// Fakes embed the service interface so unconfigured methods panic loudly.

type FakeLeagues struct {
	leagueservice.Service
}

type FakeLedger struct {
	ledgerservice.Service
	StandingsFunc func(ctx context.Context, leagueID uuid.UUID) ([]ledgerdb.PlayerRating, error)
	AuditFunc     func(ctx context.Context) ([]ledgerdb.PlayerRating, error)
}

func (f *FakeLedger) GetStandings(ctx context.Context, leagueID uuid.UUID) ([]ledgerdb.PlayerRating, error) {
	return f.StandingsFunc(ctx, leagueID)
}

func (f *FakeLedger) AuditRecords(ctx context.Context) ([]ledgerdb.PlayerRating, error) {
	return f.AuditFunc(ctx)
}

type FakeChallenges struct {
	challengeservice.Service
	AcceptFunc func(ctx context.Context, a actor.Actor, id uuid.UUID) (*challengedb.Challenge, error)
	ListFunc   func(ctx context.Context, playerID uuid.UUID, filter challengedb.ListFilter) ([]challengedb.Challenge, error)
}

func (f *FakeChallenges) Accept(ctx context.Context, a actor.Actor, id uuid.UUID) (*challengedb.Challenge, error) {
	return f.AcceptFunc(ctx, a, id)
}

func (f *FakeChallenges) ListForPlayer(ctx context.Context, playerID uuid.UUID, filter challengedb.ListFilter) ([]challengedb.Challenge, error) {
	return f.ListFunc(ctx, playerID, filter)
}

type FakeMatches struct {
	matchservice.Service
	ReportFunc  func(ctx context.Context, a actor.Actor, req matchservice.ReportRequest) (*matchdb.Match, error)
	ConfirmFunc func(ctx context.Context, a actor.Actor, id uuid.UUID) (*matchservice.Transition, error)
	VoidFunc    func(ctx context.Context, a actor.Actor, id uuid.UUID, reason string) (*matchservice.Transition, error)
}

func (f *FakeMatches) ReportScore(ctx context.Context, a actor.Actor, req matchservice.ReportRequest) (*matchdb.Match, error) {
	return f.ReportFunc(ctx, a, req)
}

func (f *FakeMatches) Confirm(ctx context.Context, a actor.Actor, id uuid.UUID) (*matchservice.Transition, error) {
	return f.ConfirmFunc(ctx, a, id)
}

func (f *FakeMatches) Void(ctx context.Context, a actor.Actor, id uuid.UUID, reason string) (*matchservice.Transition, error) {
	return f.VoidFunc(ctx, a, id, reason)
}
