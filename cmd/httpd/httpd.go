// Package httpd implements the HTTP API server command.
package httpd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cmdcommon "github.com/awslens/awslens/cmd/common"
	"github.com/awslens/awslens/internal/api"
)

const (
	shutdownTimeout = 10 * time.Second
	gaugeInterval   = 30 * time.Second
)

// Command returns the httpd command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Serve the content stats and health API",
		RunE:  run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := cmdcommon.NewDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	handler := api.NewHandler(deps.Repo, deps.DB, deps.Logger)
	router := api.NewRouter(handler, deps.Config.Service.Debug)
	srv := api.NewServer(router, deps.Config.Server)

	go refreshBacklogGauge(ctx, deps)

	errCh := make(chan error, 1)
	go func() {
		deps.Logger.Info("http server starting", "addr", srv.Addr)
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	deps.Logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// refreshBacklogGauge periodically exports the unprocessed record count so
// the backlog is visible on /metrics between processing runs.
func refreshBacklogGauge(ctx context.Context, deps *cmdcommon.Deps) {
	ticker := time.NewTicker(gaugeInterval)
	defer ticker.Stop()

	for {
		stats, err := deps.Repo.GetStats(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			deps.Logger.Warn("backlog gauge refresh failed", "error", err)
		} else {
			deps.Metrics.UnprocessedBacklog.Set(float64(stats.Unprocessed))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
