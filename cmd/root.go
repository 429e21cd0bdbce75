// Package cmd implements the awslens command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/awslens/awslens/cmd/crawl"
	"github.com/awslens/awslens/cmd/httpd"
	"github.com/awslens/awslens/cmd/orchestrate"
	"github.com/awslens/awslens/cmd/process"
	"github.com/awslens/awslens/internal/config"
)

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:   "awslens",
		Short: "AWS content aggregation and analysis pipeline",
		Long: `awslens crawls AWS blogs, documentation, and YouTube content,
stores it deduplicated by URL, and analyzes each item with a language model.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Parse flags early so --config and --debug are known before the
	// configuration loads.
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := config.Initialize(cfgFile, debug); err != nil {
		return fmt.Errorf("initialize configuration: %w", err)
	}
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("awslens version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(process.Command())
	rootCmd.AddCommand(orchestrate.Command())
	rootCmd.AddCommand(httpd.Command())
}
