package cmd

import (
	"fmt"

	"github.com/totara-dev/totara/internal/secrets"
	"github.com/totara-dev/totara/internal/ui"
	"github.com/totara-dev/totara/internal/workflows"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [host]",
	Short: "Report repository, host, and secret state",
	Long: `Shows the host classification, the verification state of the latest
commit, unpushed work, and the working-copy state of every secret file.
Read-only: status never refuses a host and never changes anything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")

		env, err := loadEnv(args)
		if err != nil {
			return describeError(err)
		}

		spinner, cleanup := startSpinner("Collecting repository state...")
		defer cleanup()

		report, err := workflows.Status(cmd.Context(), env)
		if err != nil {
			return describeError(err)
		}
		spinner.FinalMSG = renderStatus(report)
		return nil
	},
}

func renderStatus(report *workflows.StatusReport) string {
	out := ui.Highlight.Sprint(report.Host.Name) + " " + ui.Muted.Sprint(report.Host.Kind.String())
	if !report.PlatformOK {
		out += " " + ui.Error.Sprint("platform mismatch")
	}
	out += "\n"

	switch {
	case !report.HasCommits:
		out += ui.Info.Sprint("→") + " no commits yet, totara commit will bootstrap the history\n"
	case report.HeadVerified:
		out += ui.Success.Sprint("✓") + " latest commit verified, no plaintext secrets in history\n"
	default:
		out += ui.Error.Sprint("✗") + " latest commit FAILED verification: " + report.HeadVerifyErr.Error() + "\n"
	}

	if report.Unpushed > 0 {
		out += ui.Warning.Sprint("!") + fmt.Sprintf(" %d commit(s) not pushed\n", report.Unpushed)
	}

	for _, secret := range report.Secrets {
		out += "  " + ui.Path.Sprint(secret.Path) + " " + describeSecret(secret) + "\n"
	}
	return out
}

func describeSecret(s workflows.SecretStatus) string {
	if s.Err != nil {
		return ui.Error.Sprint("unclassifiable")
	}
	switch {
	case s.Layer == secrets.LayerEval && s.State == secrets.Plaintext:
		return ui.Success.Sprint("plaintext") + " " + ui.Muted.Sprint("encrypted on commit")
	case s.Layer == secrets.LayerEval && s.State == secrets.Ciphertext:
		return ui.Warning.Sprint("ciphertext") + " " + ui.Muted.Sprint("filter identity missing?")
	case s.State == secrets.Ciphertext:
		return ui.Success.Sprint("ciphertext")
	default:
		return ui.Error.Sprint("PLAINTEXT") + " " + ui.Muted.Sprint("must be age-encrypted")
	}
}
