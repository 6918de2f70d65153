package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Module is a runnable part of the application.
type Module interface {
	// Run blocks until ctx is cancelled and calls wg.Done on return.
	Run(ctx context.Context, wg *sync.WaitGroup)
	Close() error
}

func (a *App) modules() []Module {
	return []Module{a.LeagueModule, a.LedgerModule, a.ChallengeModule, a.MatchModule}
}

// runModules starts every module and waits for all of them to stop.
func (a *App) runModules(ctx context.Context) {
	var wg sync.WaitGroup
	for _, m := range a.modules() {
		wg.Add(1)
		go m.Run(ctx, &wg)
	}
	wg.Wait()
}

func (a *App) closeModules() error {
	var errs []error
	mods := a.modules()
	for i := len(mods) - 1; i >= 0; i-- {
		if err := mods[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", mods[i], err))
		}
	}
	return errors.Join(errs...)
}
