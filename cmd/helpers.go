package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/totara-dev/totara/internal/prompt"
	"github.com/totara-dev/totara/internal/terrors"
	"github.com/totara-dev/totara/internal/ui"
	"github.com/totara-dev/totara/internal/workflows"

	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner with the given message when
// not in verbose or debug mode. Returns the spinner and a function that
// should be deferred to clean up.
//
// spinner.FinalMSG values do NOT need trailing newlines. The cleanup
// function calls ui.EnsureNewline() on the final message before
// printing it.
func startSpinner(message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	// Ignore color errors - continue without a colored spinner if it fails.
	_ = s.Color("cyan")

	if !verbose && !debug {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if !verbose && !debug {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if !verbose && !debug {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// loadEnv builds the workflow environment, taking the host name from
// the first positional argument when present.
func loadEnv(args []string) (*workflows.Env, error) {
	host := ""
	if len(args) > 0 {
		host = args[0]
	}
	return workflows.LoadEnv(host, Logger, prompt.TTY{})
}

// describeError translates workflow errors into actionable messages. A
// violation of the encryption rules gets explicit remediation steps;
// everything else keeps the underlying error.
func describeError(err error) error {
	switch {
	case errors.Is(err, terrors.ErrPlaintextCommitted):
		return fmt.Errorf("%w\n%s %s\n%s The commit was NOT pushed. Remove the plaintext secret, then run %s again",
			err,
			ui.Error.Sprint("✗"), "a committed secret is stored in plaintext",
			ui.Info.Sprint("→"), ui.Code.Sprint("totara commit --amend"))
	case errors.Is(err, terrors.ErrIdentityNotFound):
		return fmt.Errorf("%w\n%s Place the identity key and rerun", err, ui.Info.Sprint("→"))
	case errors.Is(err, terrors.ErrNotARepository):
		return fmt.Errorf("%w\n%s Run totara from inside the infrastructure repository", err, ui.Info.Sprint("→"))
	case errors.Is(err, terrors.ErrNotInteractive):
		return fmt.Errorf("%w\n%s Totara needs a terminal for its confirmation prompts", err, ui.Info.Sprint("→"))
	case errors.Is(err, terrors.ErrDevicePartialState):
		return fmt.Errorf("%w\n%s The disk is partially wiped. Rerun %s once the cause is fixed",
			err, ui.Warning.Sprint("!"), ui.Code.Sprint("totara provision"))
	default:
		return err
	}
}
