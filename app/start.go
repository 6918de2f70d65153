package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"golang.org/x/sync/errgroup"
)

// Run serves HTTP, metrics and event traffic until ctx is cancelled or one
// of them fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	logger := a.Observability.Logger
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.runModules(ctx)
		return nil
	})

	g.Go(func() error {
		if err := a.Router.Run(a.routerCtx); err != nil {
			return fmt.Errorf("message router: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.InfoContext(ctx, "HTTP server listening", attr.String("address", a.HTTPServer.Addr))
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.MetricsServer != nil {
		g.Go(func() error {
			logger.InfoContext(ctx, "Metrics server listening", attr.String("address", a.MetricsServer.Addr))
			if err := a.MetricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		return a.shutdown()
	})

	return g.Wait()
}

func (a *App) shutdown() error {
	logger := a.Observability.Logger
	logger.Info("Shutting down league ladder")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var errs []error
	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if a.MetricsServer != nil {
		if err := a.MetricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
	}
	errs = append(errs, a.Close())
	return errors.Join(errs...)
}

// Close releases the router, modules, event bus and database. It is safe to
// call on an App that never ran.
func (a *App) Close() error {
	var errs []error
	a.routerCancel()
	if err := a.Router.Close(); err != nil {
		errs = append(errs, fmt.Errorf("router close: %w", err))
	}
	if err := a.closeModules(); err != nil {
		errs = append(errs, err)
	}
	if err := a.EventBus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event bus close: %w", err))
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database close: %w", err))
	}
	return errors.Join(errs...)
}
