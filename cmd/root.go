package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	logger "github.com/totara-dev/totara/internal/logging"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	rootCmd = &cobra.Command{
		Use:   "totara",
		Short: "Totara - workflow orchestration for a declarative infrastructure repository",
		Long: `Totara orchestrates the daily workflows of a git-versioned declarative
infrastructure repository with encrypted secrets: committing and pushing
changes, deploying a host's configuration, and provisioning new machines
from the live installer.

Committed history never contains a plaintext secret. Every commit is
verified against that rule before it can be pushed.

Usage:
  totara <command> [host] [flags]

Available Commands:
  commit     Validate, commit, verify, and push repository changes
  deploy     Build and activate this host's configuration
  provision  Wipe and encrypt a new machine's disk from the installer
  status     Report repository, host, and secret state

Run 'totara help <command>' for more details on a specific command.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing totara with verbose=%t, debug=%t", verbose, debug)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sealCmd)
}

// Execute runs the root command with interrupt handling: SIGINT and
// SIGTERM cancel the context so workflows stop at their next
// checkpoint instead of mid-mutation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
