package workflows

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/totara-dev/totara/internal/git"
	logger "github.com/totara-dev/totara/internal/logging"
	"github.com/totara-dev/totara/internal/secrets"
)

// Bootstrap sequences the first-ever commit of a repository. The
// content filter only takes effect for commits made after it is
// registered against an existing HEAD, but a brand-new repository has
// none, so committing secrets directly would store them unfiltered.
//
// The sequence: stage and commit everything except the secrets subtree
// (the anchor commit — the filter has nothing to miss because secrets
// are absent, not failed), then stage the secrets subtree now that HEAD
// exists, then amend the anchor to fold them in. The amended commit's
// stored blobs pass through the filter, so history starts encrypted.
//
// A history reset recreates the identical fresh-repository state with
// an orphan commit, so the reset workflow reuses this sequencer as-is.
type Bootstrap struct {
	Repo       *git.Repo
	Classifier secrets.Classifier
	Logger     logger.Logger
}

// Fresh reports whether the repository is in the zero-commit state the
// sequencer exists for.
func (b Bootstrap) Fresh() bool {
	return !b.Repo.HasCommits()
}

// StageAnchor stages everything except the secrets subtree (phase 1
// staging). The commit workflow calls this in its Staged state so the
// build validation still runs before anything is committed.
func (b Bootstrap) StageAnchor() error {
	subtree := b.Classifier.SecretsSubtree()
	b.Logger.Debugf("staging anchor, excluding %s", subtree)
	return b.Repo.StageAllExcept(subtree)
}

// Anchor creates the anchor commit from the staged changes.
func (b Bootstrap) Anchor(message string) error {
	return b.Repo.Commit(message)
}

// FoldSecrets stages the secrets subtree and amends the anchor commit
// to include it (phases 2 and 3). Safe to re-run: when the subtree is
// absent or already folded in, nothing is staged and no amend happens,
// so no duplicate commits are ever created. Returns the number of
// secret paths folded.
func (b Bootstrap) FoldSecrets() (int, error) {
	subtree := b.Classifier.SecretsSubtree()

	if _, err := os.Stat(filepath.Join(b.Repo.Dir, subtree)); os.IsNotExist(err) {
		b.Logger.Debugf("no %s subtree, nothing to fold", subtree)
		return 0, nil
	}

	if err := b.Repo.StagePath(subtree); err != nil {
		return 0, fmt.Errorf("failed to stage secrets subtree: %w", err)
	}

	staged, err := b.Repo.StagedPaths()
	if err != nil {
		return 0, err
	}
	if len(staged) == 0 {
		b.Logger.Debugf("secrets already folded into the anchor commit")
		return 0, nil
	}

	if err := b.Repo.AmendCommit(); err != nil {
		return 0, fmt.Errorf("failed to fold secrets into anchor commit: %w", err)
	}

	b.Logger.Infof("folded %d secret path(s) into the anchor commit", len(staged))
	return len(staged), nil
}
