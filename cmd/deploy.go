package cmd

import (
	"fmt"

	"github.com/totara-dev/totara/internal/ui"
	"github.com/totara-dev/totara/internal/workflows"

	"github.com/spf13/cobra"
)

var deployCmd = &cobra.Command{
	Use:   "deploy [host]",
	Short: "Build and activate this host's configuration",
	Long: `Validates the secret decryption state for the classified host and hands
over to the platform's rebuild command. Working-copy eval secrets must
be plaintext and any materialised runtime secrets must be decrypted, or
the deployment refuses to start.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting deploy command")

		env, err := loadEnv(args)
		if err != nil {
			return describeError(err)
		}

		spinner, cleanup := startSpinner("Checking secret state and activating...")
		defer cleanup()

		result, err := workflows.Deploy(cmd.Context(), env)
		if err != nil {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " deployment refused"
			return describeError(err)
		}

		detail := fmt.Sprintf("%d eval secret(s) checked", result.EvalSecrets)
		if result.RuntimeChecked {
			detail += ", runtime store verified"
		}
		spinner.FinalMSG = ui.Success.Sprint("✓") + " " + ui.Highlight.Sprint(env.Host.Name) +
			" activated " + ui.Muted.Sprint(detail)
		return nil
	},
}
