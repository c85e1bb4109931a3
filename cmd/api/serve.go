package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aleisley/ta-backend/internal/router"
	"github.com/aleisley/ta-backend/internal/service/appointment"
	"github.com/aleisley/ta-backend/internal/service/doctor"
	"github.com/aleisley/ta-backend/internal/service/event"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(configPath *string) *cobra.Command {
	var skipMigrations, noRelay bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*configPath, skipMigrations, noRelay)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not create the schema on startup")
	cmd.Flags().BoolVar(&noRelay, "no-relay", false, "record outbox events but leave publishing to a separate relay process")
	return cmd
}

func serve(configPath string, skipMigrations, noRelay bool) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := a.openStore(ctx, skipMigrations)
	if err != nil {
		return err
	}
	defer store.Close()

	policy, err := a.cfg.Clinic.Policy()
	if err != nil {
		return err
	}

	// Events are only recorded when something will relay them
	var events *event.Service
	if a.cfg.Outbox.Enabled {
		events = event.NewService()
	}

	r := router.NewRouter(a.cfg, router.Dependencies{
		Store:        store,
		Doctors:      doctor.NewService(store, events, a.log),
		Appointments: appointment.NewService(store, policy, events, a.metrics, a.log),
		Metrics:      a.metrics,
		Gatherer:     a.registry,
		Logger:       a.log,
	})

	var wg sync.WaitGroup
	if a.cfg.Outbox.Enabled && !noRelay {
		rl, err := a.newRelay(ctx, store.Outbox())
		if err != nil {
			return err
		}
		defer rl.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			rl.run(ctx)
		}()
	}

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      r.Engine(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening",
			"addr", srv.Addr,
			"driver", a.cfg.Database.Driver,
			"timezone", a.cfg.Clinic.Timezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			stop()
			wg.Wait()
			return err
		}
	case <-ctx.Done():
	}

	a.log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error(err, "server forced to shutdown")
	}
	wg.Wait()

	a.log.Info("server exited")
	return nil
}
