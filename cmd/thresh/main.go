// Package main provides the thresh CLI, which labels anomaly scores locally
// or through a threshold server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tensorplex-labs/threshold/internal/utils/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var level string

	cmd := &cobra.Command{
		Use:   "thresh",
		Short: "Label anomaly scores as inliers or outliers",
		Long: `thresh turns anomaly scores into 0/1 outlier labels with one of
several thresholding procedures.

Commands:
  eval      Threshold scores read from a file or stdin
  methods   List the available procedures
  remote    Threshold scores through a running server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logger.InitWithLevel(level)
		},
	}

	cmd.PersistentFlags().StringVar(&level, "log-level", "", "log level (trace, debug, info, warn, error)")

	cmd.AddCommand(evalCmd())
	cmd.AddCommand(methodsCmd())
	cmd.AddCommand(remoteCmd())
	return cmd
}
