package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"warrantysync/internal/config"
	"warrantysync/pkg/contracts"
)

var (
	configPath string
	force      bool

	// exitCode is set by commands that report through the process status
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:           config.AppName,
	Short:         "Syncs device warranty status from the entitlement portal into Google Sheets.",
	Version:       contracts.GetFullVersionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSync,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default: config.yaml or configs/config.yaml)")
	rootCmd.Flags().BoolVar(&force, "force", false, "run even on Saturday or Sunday")
}

// ExecuteContext runs the command line and returns the process exit status
func ExecuteContext(ctx context.Context) int {
	exitCode = 0
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return exitCode
}
