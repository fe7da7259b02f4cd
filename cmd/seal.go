package cmd

import (
	"io"
	"os"

	"github.com/totara-dev/totara/internal/secrets"

	"github.com/spf13/cobra"
)

// sealCmd is the content-filter entry point git invokes for the eval
// layer: clean runs "totara seal encrypt", smudge runs "totara seal
// decrypt". Content streams stdin to stdout; the optional path argument
// is what git passes for %f and is only used in error context.
var (
	sealIdentity string

	sealCmd = &cobra.Command{
		Use:    "seal",
		Short:  "Content-filter codec for eval-layer secrets",
		Hidden: true,
	}

	sealEncryptCmd = &cobra.Command{
		Use:  "encrypt [path]",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeal(secrets.Seal, args)
		},
	}

	sealDecryptCmd = &cobra.Command{
		Use:  "decrypt [path]",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeal(secrets.Unseal, args)
		},
	}
)

func init() {
	sealCmd.PersistentFlags().StringVar(&sealIdentity, "identity", "", "identity key file")
	_ = sealCmd.MarkPersistentFlagRequired("identity")

	sealCmd.AddCommand(sealEncryptCmd)
	sealCmd.AddCommand(sealDecryptCmd)
}

func runSeal(codec func(identity, content []byte) ([]byte, error), args []string) error {
	if err := secrets.ValidateIdentity(sealIdentity); err != nil {
		return err
	}
	identity, err := os.ReadFile(sealIdentity)
	if err != nil {
		return err
	}

	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}

	out, err := codec(identity, content)
	if err != nil {
		if len(args) > 0 {
			Logger.Errorf("seal failed for %s: %v", args[0], err)
		}
		return err
	}

	_, err = os.Stdout.Write(out)
	return err
}
