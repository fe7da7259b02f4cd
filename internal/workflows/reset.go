package workflows

import (
	"context"
	"fmt"
	"strings"

	"github.com/totara-dev/totara/internal/audit"
	"github.com/totara-dev/totara/internal/prompt"
	"github.com/totara-dev/totara/internal/secrets"
)

// resetScratchBranch is the temporary name of the orphan branch before
// it is promoted to the primary branch name.
const resetScratchBranch = "totara-reset"

// ResetOptions configures the history reset workflow.
type ResetOptions struct {
	// Message pre-sets the new root commit message.
	Message string
}

// ResetResult describes the outcome of a history reset.
type ResetResult struct {
	// Declined reports a graceful decline at either confirmation gate.
	Declined bool

	// Branch is the branch whose history was replaced.
	Branch string

	// Commit is the new root commit hash.
	Commit string

	// Pushed reports whether the remote was force-overwritten.
	Pushed bool
}

// Reset discards all history by replacing the current branch with a
// single orphan root commit. The orphan state is exactly the
// fresh-repository state, so the bootstrap sequencer runs again, and
// the filter identity is re-bound because the old branch's binding does
// not apply to a disjoint history. Two independent confirmations gate
// the two destructive steps; between them there is no further per-step
// gating.
func Reset(ctx context.Context, env *Env, opts ResetOptions) (*ResetResult, error) {
	result := &ResetResult{}

	if err := env.requireInteractive(); err != nil {
		return result, err
	}
	if err := env.requireKnownHost(); err != nil {
		return result, err
	}
	if err := env.requireRepo(); err != nil {
		return result, err
	}

	branch, err := env.Repo.CurrentBranch()
	if err != nil {
		return result, err
	}
	result.Branch = branch

	entry := audit.NewEntry("reset", env.Host.Name)
	entry.Branch = branch

	// Gate 1: discarding local history.
	ok, err := prompt.ConfirmDestructiveLocal(env.Prompter,
		fmt.Sprintf("All history of %s will be discarded and replaced with a single commit.", branch))
	if err != nil {
		return result, err
	}
	if !ok {
		result.Declined = true
		entry.Outcome = "declined"
		audit.Log(env.RepoPath, entry)
		return result, nil
	}

	// Orphan root: a fresh-repository state with the old working copy.
	if err := env.Repo.CheckoutOrphan(resetScratchBranch); err != nil {
		return result, fmt.Errorf("failed to create orphan branch: %w", err)
	}
	if err := env.Repo.UnstageAll(); err != nil {
		return result, err
	}

	// Re-establish the filter identity binding on the new branch before
	// any secret can be staged into it.
	if err := env.bindFilter(); err != nil {
		return result, err
	}

	message := strings.TrimSpace(opts.Message)
	if message == "" {
		message, err = env.Prompter.ReadLine("New root commit message: ")
		if err != nil {
			return result, err
		}
		message = strings.TrimSpace(message)
		if message == "" {
			message = "Reset history"
		}
	}

	bootstrap := Bootstrap{Repo: env.Repo, Classifier: env.Classifier(), Logger: env.Logger}
	if err := bootstrap.StageAnchor(); err != nil {
		return result, err
	}
	if err := bootstrap.Anchor(message); err != nil {
		return result, err
	}
	if _, err := bootstrap.FoldSecrets(); err != nil {
		return result, err
	}

	// The invariant gate runs on the new root before anything is
	// promoted or pushed.
	if err := secrets.VerifyCommitted(env.Repo, env.Classifier(), "HEAD"); err != nil {
		entry.Outcome = "failed"
		audit.Log(env.RepoPath, entry)
		return result, err
	}

	hash, err := env.Repo.HeadHash()
	if err != nil {
		return result, err
	}
	result.Commit = hash
	entry.Commit = hash

	// Promote the orphan to the primary branch name.
	if err := env.Repo.DeleteBranch(branch); err != nil {
		return result, fmt.Errorf("failed to discard old branch: %w", err)
	}
	if err := env.Repo.RenameCurrentBranch(branch); err != nil {
		return result, err
	}

	// Resolve the destination: an existing remote or a newly entered URL.
	destination := env.Repo.RemoteURL("origin")
	if destination == "" {
		destination, err = env.Prompter.ReadLine("Remote URL to overwrite (empty to keep local): ")
		if err != nil {
			return result, err
		}
		destination = strings.TrimSpace(destination)
		if destination == "" {
			env.Logger.WarnfAlways("no remote configured, reset stays local")
			entry.Outcome = "completed"
			audit.Log(env.RepoPath, entry)
			return result, nil
		}
		if err := env.Repo.SetRemoteURL("origin", destination); err != nil {
			return result, err
		}
	}
	entry.Remote = destination

	// Gate 2: overwriting shared history, confirmed independently.
	ok, err = prompt.ConfirmDestructiveRemote(env.Prompter, destination)
	if err != nil {
		return result, err
	}
	if !ok {
		result.Declined = true
		entry.Outcome = "declined"
		audit.Log(env.RepoPath, entry)
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	if err := env.Repo.ForcePush("origin", branch); err != nil {
		entry.Outcome = "failed"
		audit.Log(env.RepoPath, entry)
		return result, fmt.Errorf("failed to force-push: %w", err)
	}
	result.Pushed = true

	entry.Outcome = "completed"
	audit.Log(env.RepoPath, entry)
	return result, nil
}
