package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aleisley/ta-backend/internal/config"
	"github.com/aleisley/ta-backend/internal/repository/postgres"
)

// newRelayCommand runs the outbox relay on its own, for deployments that keep
// it out of the API process. Run a single relay per database.
func newRelayCommand(configPath *string) *cobra.Command {
	var healthAddr string

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Publish outbox events to Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			if a.cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("relay needs the postgres driver, got %q", a.cfg.Database.Driver)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			store := postgres.NewStore(db, a.metrics)
			rl, err := a.newRelay(ctx, store.Outbox())
			if err != nil {
				return err
			}
			defer rl.Close()

			mux := http.NewServeMux()
			mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
				if err := store.Ping(r.Context()); err != nil {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				w.WriteHeader(http.StatusOK)
			})
			healthSrv := &http.Server{Addr: healthAddr, Handler: mux}

			go func() {
				if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.log.Error(err, "health check server failed")
					stop()
				}
			}()

			a.log.Info("outbox relay started", "health_addr", healthAddr)
			rl.run(ctx)

			a.log.Info("shutting down relay...")
			return healthSrv.Shutdown(context.Background())
		},
	}
	cmd.Flags().StringVar(&healthAddr, "health-addr", ":8081", "address for the relay's health endpoints")
	return cmd
}
