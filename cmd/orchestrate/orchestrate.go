// Package orchestrate implements the composite pipeline commands.
package orchestrate

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	cmdcommon "github.com/awslens/awslens/cmd/common"
)

var (
	schedule          string
	scheduled         bool
	skipProcessing    bool
	maxItemsPerSource int
)

// Command returns the orchestrate command tree.
func Command() *cobra.Command {
	orchestrateCmd := &cobra.Command{
		Use:   "orchestrate",
		Short: "Run composite crawl-and-process pipelines",
	}

	dailyCmd := &cobra.Command{
		Use:   "daily-update",
		Short: "Incremental crawl of all sources followed by one analysis batch",
		RunE:  runDaily,
	}
	dailyCmd.Flags().BoolVar(&scheduled, "scheduled", false,
		"run repeatedly on the configured cron schedule instead of once")
	dailyCmd.Flags().StringVar(&schedule, "schedule", "",
		"cron expression overriding the configured schedule (implies --scheduled)")

	fullCmd := &cobra.Command{
		Use:   "full-crawl",
		Short: "Crawl every source without a date cutoff",
		RunE:  runFull,
	}
	fullCmd.Flags().IntVar(&maxItemsPerSource, "max-items", 500,
		"maximum items per source")

	processCmd := &cobra.Command{
		Use:   "process-content",
		Short: "Run only the analysis stage",
		RunE:  runProcessOnly,
	}

	for _, c := range []*cobra.Command{dailyCmd, fullCmd} {
		c.Flags().BoolVar(&skipProcessing, "skip-processing", false,
			"crawl without running the analysis stage")
	}

	orchestrateCmd.AddCommand(dailyCmd)
	orchestrateCmd.AddCommand(fullCmd)
	orchestrateCmd.AddCommand(processCmd)
	return orchestrateCmd
}

func runDaily(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := cmdcommon.NewDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	orch, err := deps.NewOrchestrator()
	if err != nil {
		return err
	}

	if !scheduled && schedule == "" {
		_, err = orch.DailyUpdate(ctx, !skipProcessing)
		return err
	}
	if schedule == "" {
		schedule = deps.Config.Crawler.Schedule
	}

	// Scheduled mode: block until interrupted, running the update on each
	// cron tick. Overlapping runs are skipped.
	runner := cron.New()
	running := make(chan struct{}, 1)
	_, err = runner.AddFunc(schedule, func() {
		select {
		case running <- struct{}{}:
			defer func() { <-running }()
		default:
			deps.Logger.Warn("previous daily update still running, skipping tick")
			return
		}

		if _, runErr := orch.DailyUpdate(ctx, !skipProcessing); runErr != nil && ctx.Err() == nil {
			deps.Logger.Error("scheduled daily update failed", "error", runErr)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	deps.Logger.Info("scheduler started", "schedule", schedule)
	runner.Start()
	<-ctx.Done()

	stopCtx := runner.Stop()
	<-stopCtx.Done()
	deps.Logger.Info("scheduler stopped")
	return nil
}

func runFull(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := cmdcommon.NewDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	orch, err := deps.NewOrchestrator()
	if err != nil {
		return err
	}

	_, err = orch.FullCrawl(ctx, maxItemsPerSource, !skipProcessing)
	return err
}

func runProcessOnly(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := cmdcommon.NewDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	orch, err := deps.NewOrchestrator()
	if err != nil {
		return err
	}

	_, err = orch.ProcessContent(ctx)
	return err
}
