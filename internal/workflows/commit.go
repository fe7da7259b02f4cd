package workflows

import (
	"context"
	"fmt"
	"strings"

	"github.com/totara-dev/totara/internal/audit"
	"github.com/totara-dev/totara/internal/prompt"
	"github.com/totara-dev/totara/internal/secrets"
	"github.com/totara-dev/totara/internal/terrors"
)

// CommitState names the states of the commit workflow. Transitions are
// strictly ordered; any failure between Staged and Committed unwinds
// the staging area and returns to Idle.
type CommitState int

const (
	Idle CommitState = iota
	SyncedOrBehind
	Staged
	Validated
	MessageCaptured
	Committed
	Verified
	Pushed
)

func (s CommitState) String() string {
	switch s {
	case SyncedOrBehind:
		return "synced"
	case Staged:
		return "staged"
	case Validated:
		return "validated"
	case MessageCaptured:
		return "message captured"
	case Committed:
		return "committed"
	case Verified:
		return "verified"
	case Pushed:
		return "pushed"
	default:
		return "idle"
	}
}

// CommitOptions configures the commit workflow.
type CommitOptions struct {
	// Amend folds the staged changes into the previous commit and
	// force-pushes (with confirmation), since it rewrites shared
	// history. Proceeds even with no working-copy changes.
	Amend bool

	// Message pre-sets the commit message, skipping the interactive
	// capture. Used by tests and scripting-adjacent callers.
	Message string
}

// CommitResult describes the outcome of a commit workflow run.
type CommitResult struct {
	// State is the furthest state reached.
	State CommitState

	// Commit is the hash of the commit produced, if any.
	Commit string

	// Fresh reports whether the bootstrap sequence ran.
	Fresh bool

	// Declined reports a graceful decline at a confirmation prompt.
	Declined bool

	// PushedUpstream reports whether a push happened.
	PushedUpstream bool

	// Staged is the number of paths that went into the commit.
	Staged int
}

// Commit runs the commit workflow: sync with upstream, stage, validate
// the configuration build, capture a message, commit, verify committed
// encryption state, and push. Fixed ordering; none of it is
// configurable.
func Commit(ctx context.Context, env *Env, opts CommitOptions) (*CommitResult, error) {
	result := &CommitResult{State: Idle}

	if err := env.requireInteractive(); err != nil {
		return result, err
	}
	if err := env.requireKnownHost(); err != nil {
		return result, err
	}
	if err := env.requireRepo(); err != nil {
		return result, err
	}
	if err := env.bindFilter(); err != nil {
		return result, err
	}

	entry := audit.NewEntry("commit", env.Host.Name)
	entry.Amend = opts.Amend

	// Idle → SyncedOrBehind.
	if declined, err := syncWithUpstream(env); err != nil {
		return result, err
	} else if declined {
		result.Declined = true
		entry.Outcome = "declined"
		audit.Log(env.RepoPath, entry)
		return result, nil
	}
	result.State = SyncedOrBehind

	bootstrap := Bootstrap{Repo: env.Repo, Classifier: env.Classifier(), Logger: env.Logger}
	result.Fresh = bootstrap.Fresh()

	// Change detection: with nothing to commit, offer to push what is
	// already committed but unpushed, then stop. Amend mode proceeds
	// regardless, since its point is rewriting the previous commit.
	if !result.Fresh && !opts.Amend {
		changed, err := env.Repo.HasLocalChanges()
		if err != nil {
			return result, err
		}
		if !changed {
			pushed, declined, err := offerUnpushed(env)
			if err != nil {
				return result, err
			}
			result.Declined = declined
			result.PushedUpstream = pushed
			if pushed {
				result.State = Pushed
			}
			entry.Outcome = "completed"
			if declined {
				entry.Outcome = "declined"
			}
			audit.Log(env.RepoPath, entry)
			return result, nil
		}
	}

	// → Staged. From here until Committed, failure unwinds the index.
	if result.Fresh {
		if err := bootstrap.StageAnchor(); err != nil {
			return result, err
		}
	} else {
		if err := env.Repo.StageAll(); err != nil {
			return result, err
		}
	}
	staged := true
	defer func() {
		if staged {
			if unstageErr := env.Repo.UnstageAll(); unstageErr != nil {
				env.Logger.WarnfAlways("failed to unstage after error: %v", unstageErr)
			} else {
				env.Logger.Infof("staging area unwound")
			}
		}
	}()
	result.State = Staged

	stagedPaths, err := env.Repo.StagedPaths()
	if err != nil {
		return result, err
	}
	result.Staged = len(stagedPaths)
	entry.FilesCount = len(stagedPaths)

	// → Validated. A broken build must never be committed.
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if err := env.Builder.Build(ctx, env.Host.BuildTarget()); err != nil {
		return result, err
	}
	result.State = Validated

	// → MessageCaptured.
	message, err := captureMessage(env, opts)
	if err != nil {
		return result, err
	}
	result.State = MessageCaptured

	// → Committed.
	if err := ctx.Err(); err != nil {
		return result, err
	}
	switch {
	case result.Fresh:
		if err := bootstrap.Anchor(message); err != nil {
			return result, err
		}
		staged = false // The anchor commit owns the index now.
		if _, err := bootstrap.FoldSecrets(); err != nil {
			return result, err
		}
	case opts.Amend:
		if err := amendPrevious(env, message); err != nil {
			return result, err
		}
		staged = false
	default:
		if err := env.Repo.Commit(message); err != nil {
			return result, err
		}
		staged = false
	}
	result.State = Committed

	hash, err := env.Repo.HeadHash()
	if err != nil {
		return result, err
	}
	result.Commit = hash
	entry.Commit = hash

	// → Verified. The authoritative integrity gate: nothing may push
	// without it passing.
	if err := secrets.VerifyCommitted(env.Repo, env.Classifier(), "HEAD"); err != nil {
		entry.Outcome = "failed"
		audit.Log(env.RepoPath, entry)
		return result, err
	}
	result.State = Verified

	// → Pushed.
	pushed, declined, err := pushHead(env, opts.Amend)
	if err != nil {
		entry.Outcome = "failed"
		audit.Log(env.RepoPath, entry)
		return result, err
	}
	result.PushedUpstream = pushed
	result.Declined = declined
	if pushed {
		result.State = Pushed
	}

	entry.Outcome = "completed"
	entry.Remote = env.Repo.RemoteURL("origin")
	audit.Log(env.RepoPath, entry)
	return result, nil
}

// syncWithUpstream fetches and, when the branch is behind, offers a
// rebase. Uncommitted work is stashed around the rebase; a conflicted
// stash restore is fatal and left for manual resolution.
func syncWithUpstream(env *Env) (declined bool, err error) {
	if !env.Repo.HasCommits() || !env.Repo.HasUpstream() {
		return false, nil
	}

	if err := env.Repo.Fetch(); err != nil {
		return false, fmt.Errorf("failed to fetch: %w", err)
	}

	behind, _, err := env.Repo.BehindAhead()
	if err != nil {
		return false, err
	}
	if behind == 0 {
		return false, nil
	}

	ok, err := prompt.ConfirmReversible(env.Prompter,
		fmt.Sprintf("Branch is %d commit(s) behind upstream. Rebase now?", behind))
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}

	dirty, err := env.Repo.HasLocalChanges()
	if err != nil {
		return false, err
	}
	if dirty {
		if err := env.Repo.StashPush(); err != nil {
			return false, fmt.Errorf("failed to stash local changes: %w", err)
		}
	}

	if err := env.Repo.Rebase(); err != nil {
		return false, fmt.Errorf("%w\nResolve the rebase manually, then rerun", err)
	}

	if dirty {
		if err := env.Repo.StashPop(); err != nil {
			return false, fmt.Errorf("%w\nResolve the conflict manually (git stash pop), then rerun", err)
		}
	}
	return false, nil
}

// offerUnpushed handles the no-changes short-circuit: if commits are
// waiting to be pushed, verify and offer to push them.
func offerUnpushed(env *Env) (pushed, declined bool, err error) {
	if !env.Repo.HasUpstream() {
		env.Logger.Infof("nothing to commit and no upstream configured")
		return false, false, nil
	}

	count, err := env.Repo.UnpushedCount()
	if err != nil {
		return false, false, err
	}
	if count == 0 {
		env.Logger.Infof("nothing to commit, branch is up to date")
		return false, false, nil
	}

	if err := verifyUnpushed(env); err != nil {
		return false, false, err
	}

	ok, err := prompt.ConfirmReversible(env.Prompter,
		fmt.Sprintf("Nothing to commit, but %d commit(s) are unpushed. Push now?", count))
	if err != nil {
		return false, false, err
	}
	if !ok {
		return false, true, nil
	}

	if err := env.Repo.Push(); err != nil {
		return false, false, fmt.Errorf("failed to push: %w", err)
	}
	return true, false, nil
}

// verifyUnpushed runs the committed-encryption gate over every commit a
// push would publish. The unpushed range can contain commits made
// outside the workflow, and none of them may reach the remote
// unverified.
func verifyUnpushed(env *Env) error {
	hashes, err := env.Repo.UnpushedHashes()
	if err != nil {
		return err
	}
	for _, hash := range hashes {
		if err := secrets.VerifyCommitted(env.Repo, env.Classifier(), hash); err != nil {
			return fmt.Errorf("unpushed commit %.8s: %w", hash, err)
		}
	}
	return nil
}

// captureMessage reads a non-empty commit message. In amend mode an
// empty answer keeps the previous message; otherwise empty is fatal.
func captureMessage(env *Env, opts CommitOptions) (string, error) {
	if opts.Message != "" {
		return opts.Message, nil
	}

	promptText := "Commit message: "
	if opts.Amend {
		promptText = "Commit message (empty keeps the previous): "
	}

	message, err := env.Prompter.ReadLine(promptText)
	if err != nil {
		return "", err
	}
	message = strings.TrimSpace(message)

	if message == "" && !opts.Amend {
		return "", terrors.ErrEmptyMessage
	}
	return message, nil
}

// amendPrevious rewrites the previous commit with the staged changes.
func amendPrevious(env *Env, message string) error {
	if message == "" {
		return env.Repo.AmendCommit()
	}
	return env.Repo.AmendCommitMessage(message)
}

// pushHead pushes the verified commit. Amend mode force-pushes behind
// the destructive-remote gate since it rewrites shared history; an
// ordinary push takes a reversible confirmation. A missing upstream
// triggers an offer to set one.
func pushHead(env *Env, amend bool) (pushed, declined bool, err error) {
	// A push publishes the whole unpushed range, not just the commit
	// this run produced.
	if err := verifyUnpushed(env); err != nil {
		return false, false, err
	}

	branch, err := env.Repo.CurrentBranch()
	if err != nil {
		return false, false, err
	}

	if !env.Repo.HasUpstream() {
		remote := env.Repo.RemoteURL("origin")
		if remote == "" {
			env.Logger.WarnfAlways("no remote configured, commit stays local")
			return false, false, nil
		}

		ok, err := prompt.ConfirmReversible(env.Prompter,
			fmt.Sprintf("No upstream for %s. Push and set origin/%s?", branch, branch))
		if err != nil {
			return false, false, err
		}
		if !ok {
			return false, true, nil
		}
		if err := env.Repo.PushSetUpstream("origin", branch); err != nil {
			return false, false, fmt.Errorf("failed to push: %w", err)
		}
		return true, false, nil
	}

	if amend {
		ok, err := prompt.ConfirmDestructiveRemote(env.Prompter, env.Repo.RemoteURL("origin"))
		if err != nil {
			return false, false, err
		}
		if !ok {
			return false, true, nil
		}
		if err := env.Repo.ForcePush("origin", branch); err != nil {
			return false, false, fmt.Errorf("failed to force-push: %w", err)
		}
		return true, false, nil
	}

	ok, err := prompt.ConfirmReversible(env.Prompter, fmt.Sprintf("Push %s to upstream?", branch))
	if err != nil {
		return false, false, err
	}
	if !ok {
		return false, true, nil
	}
	if err := env.Repo.Push(); err != nil {
		return false, false, fmt.Errorf("failed to push: %w", err)
	}
	return true, false, nil
}
