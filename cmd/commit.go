package cmd

import (
	"github.com/totara-dev/totara/internal/ui"
	"github.com/totara-dev/totara/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	commitAmend bool
	commitReset bool

	commitCmd = &cobra.Command{
		Use:   "commit [host]",
		Short: "Validate, commit, verify, and push repository changes",
		Long: `Runs the commit workflow: sync with upstream, stage everything, validate
the configuration build, capture a message, commit, verify the committed
encryption state, and push. The ordering is fixed.

With --amend the staged changes are folded into the previous commit and
force-pushed after an explicit confirmation. With --reset the entire
history is replaced by a single commit, behind two independent
confirmations.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			Logger.Infof("Starting commit command")

			env, err := loadEnv(args)
			if err != nil {
				return describeError(err)
			}

			if commitReset {
				return runReset(cmd, env)
			}

			result, err := workflows.Commit(cmd.Context(), env, workflows.CommitOptions{Amend: commitAmend})
			if err != nil {
				return describeError(err)
			}

			switch {
			case result.Declined:
				ui.PrintLine(ui.Muted.Sprint("declined") + " nothing was changed remotely")
			case result.State == workflows.Pushed:
				ui.PrintLine(ui.Success.Sprint("✓") + " committed and pushed " + ui.Highlight.Sprint(shortHash(result.Commit)))
			case result.Commit != "":
				ui.PrintLine(ui.Success.Sprint("✓") + " committed " + ui.Highlight.Sprint(shortHash(result.Commit)) + " " + ui.Muted.Sprint("not pushed"))
			default:
				ui.PrintLine(ui.Success.Sprint("✓") + " nothing to commit")
			}
			return nil
		},
	}
)

func init() {
	commitCmd.Flags().BoolVar(&commitAmend, "amend", false, "fold changes into the previous commit and force-push")
	commitCmd.Flags().BoolVar(&commitReset, "reset", false, "replace the entire history with a single commit")
	commitCmd.MarkFlagsMutuallyExclusive("amend", "reset")
}

func runReset(cmd *cobra.Command, env *workflows.Env) error {
	result, err := workflows.Reset(cmd.Context(), env, workflows.ResetOptions{})
	if err != nil {
		return describeError(err)
	}

	switch {
	case result.Declined && result.Commit == "":
		ui.PrintLine(ui.Muted.Sprint("declined") + " history is untouched")
	case result.Declined:
		ui.PrintLine(ui.Success.Sprint("✓") + " history reset locally " + ui.Muted.Sprint("remote not overwritten"))
	case result.Pushed:
		ui.PrintLine(ui.Success.Sprint("✓") + " history reset to " + ui.Highlight.Sprint(shortHash(result.Commit)) + " and force-pushed")
	default:
		ui.PrintLine(ui.Success.Sprint("✓") + " history reset to " + ui.Highlight.Sprint(shortHash(result.Commit)))
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
