package workflows

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/totara-dev/totara/internal/hosts"
	"github.com/totara-dev/totara/internal/secrets"
)

// SecretStatus is one secret file's working-copy state.
type SecretStatus struct {
	Path  string
	Layer secrets.Layer
	State secrets.State

	// Err records a classification failure for this file.
	Err error
}

// StatusReport is a read-only snapshot of the repository and host.
// Status works on any classification, including Unknown: it reports
// rather than refuses.
type StatusReport struct {
	Host          hosts.Classification
	PlatformOK    bool
	HasCommits    bool
	Unpushed      int
	HeadVerified  bool
	HeadVerifyErr error
	Secrets       []SecretStatus
}

// Status assembles the report from the same leaves the workflows use,
// mutating nothing.
func Status(ctx context.Context, env *Env) (*StatusReport, error) {
	report := &StatusReport{
		Host:       env.Host,
		PlatformOK: hosts.ValidatePlatform(env.Host, env.Platform) == nil,
	}

	if err := env.requireRepo(); err != nil {
		return report, err
	}

	report.HasCommits = env.Repo.HasCommits()

	if report.HasCommits {
		if env.Repo.HasUpstream() {
			if count, err := env.Repo.UnpushedCount(); err == nil {
				report.Unpushed = count
			}
		}

		err := secrets.VerifyCommitted(env.Repo, env.Classifier(), "HEAD")
		report.HeadVerified = err == nil
		report.HeadVerifyErr = err
	}

	for _, glob := range []struct {
		pattern string
		layer   secrets.Layer
	}{
		{env.Config.Secrets.EvalGlob, secrets.LayerEval},
		{env.Config.Secrets.ActivationGlob, secrets.LayerActivation},
	} {
		matches, err := doublestar.Glob(os.DirFS(env.RepoPath), glob.pattern)
		if err != nil {
			continue
		}
		for _, rel := range matches {
			path := filepath.Join(env.RepoPath, rel)
			if info, err := os.Stat(path); err != nil || info.IsDir() {
				continue
			}

			state, err := secrets.StateOf(path, glob.layer)
			report.Secrets = append(report.Secrets, SecretStatus{
				Path:  rel,
				Layer: glob.layer,
				State: state,
				Err:   err,
			})
		}
	}

	return report, nil
}
