package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/trialset/internal/cli"
	httpAdapter "github.com/aretw0/trialset/pkg/adapters/http"
	"github.com/aretw0/trialset/pkg/domain"
	"github.com/aretw0/trialset/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Start the HTTP server",
	Long:  `Exposes plan generation, replay, validation and field checks as a JSON API over HTTP.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		store, _ := cmd.Flags().GetString("store")

		reg := prometheus.NewRegistry()
		metrics := observability.NewMetrics(reg)

		session, err := cli.NewSession(cli.Options{
			Path:     sourcePath(cmd, args),
			LogLevel: level,
			Store:    store,
			Hooks:    []domain.PlanHooks{metrics.Hooks()},
		})
		if err != nil {
			return err
		}
		defer session.Close()

		port := session.Config.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", port),
			Handler: httpAdapter.NewHandler(session.Engine,
				httpAdapter.WithLogger(session.Logger),
				httpAdapter.WithMetrics(metrics.Handler()),
			),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			session.Logger.Info("starting trialset server", "address", srv.Addr, "source", session.Engine.Name)
			serverErrors <- srv.ListenAndServe()
		}()

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case <-sc.Done():
			session.Logger.Info("start shutdown", "signal", sc.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				session.Logger.Error("graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			session.Logger.Info("trialset server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (default from TRIALSET_PORT)")
}
