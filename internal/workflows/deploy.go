package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/totara-dev/totara/internal/audit"
	"github.com/totara-dev/totara/internal/configs"
	"github.com/totara-dev/totara/internal/hosts"
	"github.com/totara-dev/totara/internal/secrets"
	"github.com/totara-dev/totara/internal/terrors"
)

// DeployResult describes the outcome of a deployment.
type DeployResult struct {
	// EvalSecrets is the number of eval-layer files checked.
	EvalSecrets int

	// RuntimeChecked reports whether the runtime store existed and was
	// verified.
	RuntimeChecked bool
}

// Deploy validates the secret decryption state for the classified host
// and hands over to the external builder's activation. The working-copy
// eval secrets must be plaintext (a ciphertext working file means the
// filter identity is missing and the build would bake ciphertext into
// the system), and any materialised runtime secrets must be decrypted.
func Deploy(ctx context.Context, env *Env) (*DeployResult, error) {
	result := &DeployResult{}

	if err := env.requireInteractive(); err != nil {
		return result, err
	}
	if env.Host.Kind != hosts.KnownHost {
		if env.Host.Kind == hosts.LiveInstaller {
			return result, fmt.Errorf("deploy does not run on the live installer, use provision first")
		}
		return result, fmt.Errorf("%w: %s", terrors.ErrUnknownHost, env.Host.Name)
	}
	if err := hosts.ValidatePlatform(env.Host, env.Platform); err != nil {
		return result, err
	}
	if err := env.requireRepo(); err != nil {
		return result, err
	}

	count, err := checkEvalSecretsPlaintext(env)
	if err != nil {
		return result, err
	}
	result.EvalSecrets = count

	runtimeDir := configs.RuntimeStorePath(env.Platform)
	if _, err := os.Stat(runtimeDir); err == nil {
		if err := secrets.VerifyDecrypted(runtimeDir); err != nil {
			return result, err
		}
		result.RuntimeChecked = true
	}

	entry := audit.NewEntry("deploy", env.Host.Name)
	if err := env.Builder.Activate(ctx, env.Host.BuildTarget()); err != nil {
		entry.Outcome = "failed"
		audit.Log(env.RepoPath, entry)
		return result, err
	}

	entry.Outcome = "completed"
	audit.Log(env.RepoPath, entry)
	return result, nil
}

// checkEvalSecretsPlaintext verifies every working-copy eval secret is
// plaintext, returning how many were checked.
func checkEvalSecretsPlaintext(env *Env) (int, error) {
	matches, err := doublestar.Glob(os.DirFS(env.RepoPath), env.Config.Secrets.EvalGlob)
	if err != nil {
		return 0, fmt.Errorf("invalid eval glob %q: %w", env.Config.Secrets.EvalGlob, err)
	}

	count := 0
	for _, rel := range matches {
		path := filepath.Join(env.RepoPath, rel)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		state, err := secrets.StateOf(path, secrets.LayerEval)
		if err != nil {
			return count, err
		}
		if state == secrets.Ciphertext {
			return count, fmt.Errorf("working copy %s is ciphertext: the filter identity is missing, run totara commit to re-bind it", rel)
		}
		count++
	}
	return count, nil
}
