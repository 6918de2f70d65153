//go:build integration

package testutils

import (
	"testing"
	"time"

	"github.com/UziB26/leagueladder-sub002/app/shared/actor"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// TestDataGenerator creates realistic names for test fixtures.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a generator with an optional seed.
func NewTestDataGenerator(seed ...uint64) *TestDataGenerator {
	s := uint64(time.Now().UnixNano())
	if len(seed) > 0 {
		s = seed[0]
	}
	return &TestDataGenerator{faker: gofakeit.New(s)}
}

// PlayerName returns a display name unique enough for one test.
func (g *TestDataGenerator) PlayerName() string {
	return g.faker.Name() + " " + g.faker.Numerify("###")
}

// LeagueName returns a league name unique enough for one test.
func (g *TestDataGenerator) LeagueName() string {
	return g.faker.Company() + " " + g.faker.Numerify("League ####")
}

// Contact returns an email address.
func (g *TestDataGenerator) Contact() string {
	return g.faker.Email()
}

// League is a seeded league with its admin and active members.
type League struct {
	ID      uuid.UUID
	Admin   actor.Actor
	Players []actor.Actor
}

// SeedLeague creates a league with n registered, active members.
func (env *TestEnvironment) SeedLeague(t *testing.T, gen *TestDataGenerator, n int) League {
	t.Helper()
	ctx := env.Ctx
	svc := env.Leagues.LeagueService

	adminPlayer, err := svc.RegisterPlayer(ctx, gen.PlayerName(), gen.Contact())
	if err != nil {
		t.Fatalf("Failed to register admin: %v", err)
	}
	admin := actor.Admin(adminPlayer.ID)

	l, err := svc.CreateLeague(ctx, admin, gen.LeagueName(), "")
	if err != nil {
		t.Fatalf("Failed to create league: %v", err)
	}

	out := League{ID: l.ID, Admin: admin}
	for i := 0; i < n; i++ {
		p, err := svc.RegisterPlayer(ctx, gen.PlayerName(), gen.Contact())
		if err != nil {
			t.Fatalf("Failed to register player: %v", err)
		}
		a := actor.Player(p.ID)
		if _, err := svc.JoinLeague(ctx, a, l.ID); err != nil {
			t.Fatalf("Failed to join league: %v", err)
		}
		out.Players = append(out.Players, a)
	}
	return out
}
