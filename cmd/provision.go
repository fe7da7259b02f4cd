package cmd

import (
	"github.com/totara-dev/totara/internal/hosts"
	"github.com/totara-dev/totara/internal/prompt"
	"github.com/totara-dev/totara/internal/ui"
	"github.com/totara-dev/totara/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	provisionMount string
	provisionKey   string

	provisionCmd = &cobra.Command{
		Use:   "provision <target-host>",
		Short: "Wipe and encrypt a new machine's disk from the installer",
		Long: `Provisions a registered host's disk: secure-erase, signature wipe,
encrypted partitioning with a passphrase collected at the terminal, and
placement of the activation key onto the new root.

Only the live installer may run this. The target must be registered in
the host registry with a block device.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			Logger.Infof("Starting provision command for target %s", args[0])

			// The workflow classifies the machine it runs ON; the target
			// comes from the argument, resolved against the same registry.
			env, err := workflows.LoadEnv("", Logger, prompt.TTY{})
			if err != nil {
				return describeError(err)
			}

			result, err := workflows.Provision(cmd.Context(), env, workflows.ProvisionOptions{
				Target:     hosts.Classify(args[0], env.Registry),
				MountPoint: provisionMount,
				KeySource:  provisionKey,
			})
			if err != nil {
				return describeError(err)
			}

			if result.Declined {
				ui.PrintLine(ui.Muted.Sprint("declined") + " device " + ui.Path.Sprint(result.Device) + " is untouched")
				return nil
			}
			ui.PrintLine(ui.Success.Sprint("✓") + " provisioned " + ui.Highlight.Sprint(args[0]) +
				" on " + ui.Path.Sprint(result.Device))
			return nil
		},
	}
)

func init() {
	provisionCmd.Flags().StringVar(&provisionMount, "mount", "", "target root mount point (default /mnt)")
	provisionCmd.Flags().StringVar(&provisionKey, "key", "", "activation key source path (default the platform identity path)")
}
