package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inovacc/gerritconn/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

var watchMetricsAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the Gerrit connection in sync with the settings file",
	Long: `Resolve the Gerrit connection and reconnect whenever the settings file
changes, until interrupted.

With --metrics-addr the resolution and verification counters and the
connectivity gauge are served in Prometheus format on /metrics.

Examples:
  gerritconn watch
  gerritconn watch --metrics-addr 127.0.0.1:9310`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := current.logger.Named("watch")

	if watchMetricsAddr != "" {
		srv, err := serveMetrics(watchMetricsAddr, logger)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Serving metrics on http://%s/metrics\n", srv.Addr)

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// Resolution failures reach the user through the notifier.
	_, _ = current.manager.Client(ctx)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Gerrit: %s\n", formatConnected(current.manager.Connected()))
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", current.settings.Path())

	err := current.settings.Watch(ctx, func() {
		logger.Info("settings changed")

		_, _ = current.manager.Refresh(ctx)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Gerrit: %s\n", formatConnected(current.manager.Connected()))
	})
	if err != nil {
		return fmt.Errorf("failed to watch settings: %w", err)
	}

	return nil
}

func serveMetrics(addr string, logger *zap.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler(current.registry))

	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	return srv, nil
}
