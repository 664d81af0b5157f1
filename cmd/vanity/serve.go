package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/vanity"
	"github.com/aretw0/vanity/internal/logging"
	"github.com/aretw0/vanity/internal/telemetry"
	httpAdapter "github.com/aretw0/vanity/pkg/adapters/http"
	"github.com/aretw0/vanity/pkg/observability"
	"github.com/aretw0/vanity/pkg/watch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves experiments and metrics as JSON, accepts tracked observations, and exposes Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		watchFiles, _ := cmd.Flags().GetBool("watch")
		out := cmd.OutOrStdout()

		shutdownTracing, err := telemetry.Setup(cmd.Context(), "vanity")
		if err != nil {
			return fmt.Errorf("tracing setup: %w", err)
		}
		defer shutdownTracing(context.Background())

		metrics, err := observability.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return err
		}
		level, _ := cmd.Flags().GetString("log-level")
		if level == "" {
			level = "info"
		}
		logger := logging.New(logging.ParseLevel(level))
		p, err := newPlayground(cmd, metrics.Hooks(), observability.LoggingHooks(logger))
		if err != nil {
			return err
		}
		defer p.Close()

		streams := httpAdapter.NewStreamManager(logger)
		handler := httpAdapter.NewHandler(p.Registry,
			httpAdapter.WithStreams(streams),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetricsHandler(promhttp.Handler()),
			httpAdapter.WithVersion(vanity.Version),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if watchFiles {
			w, err := watch.New(watch.DefaultConfig(p.Settings.LoadPath))
			if err != nil {
				return err
			}
			changes, err := w.Start()
			if err != nil {
				return err
			}
			defer w.Stop()

			go watch.Run(ctx, changes, reloadNotifier{p: p, streams: streams}, logger)
			fmt.Fprintf(out, "Watching %s for changes\n", p.Settings.LoadPath)
		}

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Fprintf(out, "Starting Vanity Server on %s\n", srv.Addr)
			fmt.Fprintf(out, "Serving definitions from: %s\n", p.Settings.LoadPath)
			serverErrors <- srv.ListenAndServe()
		}()

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			fmt.Fprintln(out, "\nStart shutdown...")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				fmt.Fprintf(out, "Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Fprintf(out, "Error killing server: %v\n", err)
				}
			}
			fmt.Fprintln(out, "Vanity Server stopped gracefully")
			return nil
		}
	},
}

// reloadNotifier reloads the registry and tells /events subscribers.
type reloadNotifier struct {
	p       *vanity.Playground
	streams *httpAdapter.StreamManager
}

func (n reloadNotifier) ReloadAndLoad(ctx context.Context) error {
	if err := n.p.Registry.ReloadAndLoad(ctx); err != nil {
		return err
	}
	n.streams.Broadcast(httpAdapter.TopicReloads, "reload")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("watch", false, "Reload definitions when files change")
}
