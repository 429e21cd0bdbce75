// Package process implements the content analysis command.
package process

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdcommon "github.com/awslens/awslens/cmd/common"
	"github.com/awslens/awslens/internal/domain"
	"github.com/awslens/awslens/internal/processor"
)

var (
	batchSize        int
	qualityThreshold float64
	contentTypes     []string
	model            string
	reprocess        bool
)

// Command returns the process command.
func Command() *cobra.Command {
	processCmd := &cobra.Command{
		Use:   "process",
		Short: "Analyze stored content with the language model",
		Long: `Claims a batch of unprocessed content and runs each record through the
analysis model. With --reprocess, re-analyzes already-processed records whose
quality score fell below the threshold.`,
		RunE: run,
	}

	processCmd.Flags().IntVar(&batchSize, "batch-size", 0,
		"records per batch (default from config)")
	processCmd.Flags().Float64Var(&qualityThreshold, "quality-threshold", 0,
		"minimum aggregate quality score in [0,1] (default from config)")
	processCmd.Flags().StringSliceVar(&contentTypes, "content-types", nil,
		"restrict to content types: blog_post, documentation, video")
	processCmd.Flags().StringVar(&model, "model", "",
		"model identifier override")
	processCmd.Flags().BoolVar(&reprocess, "reprocess", false,
		"re-analyze processed records below the quality threshold")

	return processCmd
}

func run(cmd *cobra.Command, args []string) error {
	for _, t := range contentTypes {
		if !domain.ValidContentType(t) {
			return fmt.Errorf("unknown content type %q", t)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := cmdcommon.NewDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	proc, err := deps.NewProcessor(processor.Options{
		BatchSize:        batchSize,
		QualityThreshold: qualityThreshold,
		ContentTypes:     contentTypes,
	}, model)
	if err != nil {
		return err
	}

	var stats *domain.RunStats
	if reprocess {
		threshold := qualityThreshold
		if threshold <= 0 {
			threshold = deps.Config.Processor.QualityThreshold
		}
		stats, err = proc.ReprocessLowQuality(ctx, threshold)
	} else {
		stats, err = proc.ProcessBatch(ctx)
	}
	if err != nil {
		return err
	}

	deps.Logger.Info("processing run finished",
		"total", stats.TotalProcessed,
		"successful", stats.Successful,
		"failed", stats.Failed,
		"below_threshold", stats.BelowThreshold,
		"items_per_second", stats.ItemsPerSecond(),
	)
	return nil
}
