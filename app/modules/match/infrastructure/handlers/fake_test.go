package matchhandlers

import (
	"context"

	matchservice "github.com/UziB26/leagueladder-sub002/app/modules/match/application"
	matchdb "github.com/UziB26/leagueladder-sub002/app/modules/match/infrastructure/repositories"
	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/google/uuid"
)

// FakeMatchService is a programmable stand-in for matchservice.Service.
type FakeMatchService struct {
	trace []string

	ReportScoreFunc func(ctx context.Context, a actor.Actor, req matchservice.ReportRequest) (*matchdb.Match, error)
	ConfirmFunc     func(ctx context.Context, a actor.Actor, matchID uuid.UUID) (*matchservice.Transition, error)
	DisputeFunc     func(ctx context.Context, a actor.Actor, matchID uuid.UUID, req matchservice.DisputeRequest) (*matchdb.Dispute, error)
}

func NewFakeMatchService() *FakeMatchService {
	return &FakeMatchService{trace: []string{}}
}

func (f *FakeMatchService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeMatchService) Trace() []string {
	return f.trace
}

func (f *FakeMatchService) ReportScore(ctx context.Context, a actor.Actor, req matchservice.ReportRequest) (*matchdb.Match, error) {
	f.record("ReportScore")
	if f.ReportScoreFunc != nil {
		return f.ReportScoreFunc(ctx, a, req)
	}
	return &matchdb.Match{}, nil
}

func (f *FakeMatchService) Confirm(ctx context.Context, a actor.Actor, matchID uuid.UUID) (*matchservice.Transition, error) {
	f.record("Confirm")
	if f.ConfirmFunc != nil {
		return f.ConfirmFunc(ctx, a, matchID)
	}
	return &matchservice.Transition{}, nil
}

func (f *FakeMatchService) Dispute(ctx context.Context, a actor.Actor, matchID uuid.UUID, req matchservice.DisputeRequest) (*matchdb.Dispute, error) {
	f.record("Dispute")
	if f.DisputeFunc != nil {
		return f.DisputeFunc(ctx, a, matchID, req)
	}
	return &matchdb.Dispute{}, nil
}

func (f *FakeMatchService) ResolveDispute(ctx context.Context, a actor.Actor, matchID uuid.UUID, req matchservice.ResolveRequest) (*matchservice.Transition, error) {
	f.record("ResolveDispute")
	return &matchservice.Transition{}, nil
}

func (f *FakeMatchService) Void(ctx context.Context, a actor.Actor, matchID uuid.UUID, reason string) (*matchservice.Transition, error) {
	f.record("Void")
	return &matchservice.Transition{}, nil
}

func (f *FakeMatchService) Unvoid(ctx context.Context, a actor.Actor, matchID uuid.UUID, reason string) (*matchservice.Transition, error) {
	f.record("Unvoid")
	return &matchservice.Transition{}, nil
}

func (f *FakeMatchService) Get(ctx context.Context, matchID uuid.UUID) (*matchdb.Match, error) {
	f.record("Get")
	return &matchdb.Match{ID: matchID}, nil
}

func (f *FakeMatchService) List(ctx context.Context, filter matchdb.ListFilter) ([]matchdb.Match, error) {
	f.record("List")
	return nil, nil
}

func (f *FakeMatchService) LatestDispute(ctx context.Context, matchID uuid.UUID) (*matchdb.Dispute, error) {
	f.record("LatestDispute")
	return &matchdb.Dispute{MatchID: matchID}, nil
}

var _ matchservice.Service = (*FakeMatchService)(nil)
