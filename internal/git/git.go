package git

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	logger "github.com/totara-dev/totara/internal/logging"
	"github.com/totara-dev/totara/internal/terrors"
)

// Repo wraps git operations on a single working copy. All operations
// shell out to the git binary; nothing is cached between calls.
type Repo struct {
	Dir    string
	Logger logger.Logger
}

// run executes git with the given arguments and returns trimmed stdout.
func (r *Repo) run(args ...string) (string, error) {
	out, err := r.runRaw(args...)
	return strings.TrimSpace(string(out)), err
}

// runRaw executes git and returns stdout untouched, for blob content.
func (r *Repo) runRaw(args ...string) ([]byte, error) {
	r.Logger.Debugf("git %s", strings.Join(args, " "))

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return stdout.Bytes(), fmt.Errorf("git %s: %s", args[0], detail)
	}
	return stdout.Bytes(), nil
}

// IsRepo reports whether Dir is inside a git working copy.
func (r *Repo) IsRepo() bool {
	out, err := r.run("rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// HasCommits reports whether the repository has any commit at all. A
// false result is the fresh-repository state the bootstrap sequencer
// handles.
func (r *Repo) HasCommits() bool {
	_, err := r.run("rev-parse", "--verify", "--quiet", "HEAD")
	return err == nil
}

// CurrentBranch returns the checked-out branch name.
func (r *Repo) CurrentBranch() (string, error) {
	return r.run("symbolic-ref", "--short", "HEAD")
}

// HeadHash returns the full hash of HEAD.
func (r *Repo) HeadHash() (string, error) {
	return r.run("rev-parse", "HEAD")
}

// HasUpstream reports whether the current branch tracks a remote branch.
func (r *Repo) HasUpstream() bool {
	_, err := r.run("rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{upstream}")
	return err == nil
}

// Fetch updates remote tracking refs.
func (r *Repo) Fetch() error {
	_, err := r.run("fetch", "--quiet")
	return err
}

// BehindAhead returns how many commits the current branch is behind and
// ahead of its upstream.
func (r *Repo) BehindAhead() (behind, ahead int, err error) {
	out, err := r.run("rev-list", "--left-right", "--count", "@{upstream}...HEAD")
	if err != nil {
		return 0, 0, err
	}

	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output: %q", out)
	}
	behind, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, err
	}
	ahead, err = strconv.Atoi(fields[1])
	return behind, ahead, err
}

// UnpushedCount returns how many local commits are not on the upstream.
func (r *Repo) UnpushedCount() (int, error) {
	out, err := r.run("rev-list", "--count", "@{upstream}..HEAD")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(out)
}

// UnpushedHashes lists the commits a push would publish, oldest first.
// Without an upstream that is every commit on the branch.
func (r *Repo) UnpushedHashes() ([]string, error) {
	span := "@{upstream}..HEAD"
	if !r.HasUpstream() {
		span = "HEAD"
	}
	out, err := r.run("rev-list", "--reverse", span)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// HasLocalChanges reports whether the working copy or index differs from
// HEAD, including untracked files.
func (r *Repo) HasLocalChanges() (bool, error) {
	out, err := r.run("status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// StashPush saves uncommitted work, including untracked files.
func (r *Repo) StashPush() error {
	_, err := r.run("stash", "push", "--include-untracked", "--quiet", "-m", "totara autostash")
	return err
}

// StashPop restores stashed work. A conflict is fatal and left for
// manual resolution, never auto-resolved.
func (r *Repo) StashPop() error {
	if _, err := r.run("stash", "pop", "--quiet"); err != nil {
		return fmt.Errorf("%w: %v", terrors.ErrStashConflict, err)
	}
	return nil
}

// Rebase replays local commits on top of the upstream branch.
func (r *Repo) Rebase() error {
	if _, err := r.run("rebase", "--quiet", "@{upstream}"); err != nil {
		return fmt.Errorf("%w: %v", terrors.ErrRebaseFailed, err)
	}
	return nil
}

// StageAll stages every change in the working copy.
func (r *Repo) StageAll() error {
	_, err := r.run("add", "--all")
	return err
}

// StageAllExcept stages everything except the given subtree. Used by the
// bootstrap sequencer to keep secrets out of the anchor commit.
func (r *Repo) StageAllExcept(subtree string) error {
	_, err := r.run("add", "--all", "--", ".", ":(exclude)"+subtree)
	return err
}

// StagePath stages a single path (recursively for directories).
func (r *Repo) StagePath(path string) error {
	_, err := r.run("add", "--all", "--", path)
	return err
}

// UnstageAll clears the index without touching the working copy. This is
// the compensating action for failures between staging and commit, and
// works in a repository with no commits yet.
func (r *Repo) UnstageAll() error {
	_, err := r.run("reset", "--quiet")
	return err
}

// StagedPaths lists the paths currently in the index that differ from
// HEAD (or everything staged, in a fresh repository).
func (r *Repo) StagedPaths() ([]string, error) {
	var out string
	var err error
	if r.HasCommits() {
		out, err = r.run("diff", "--cached", "--name-only")
	} else {
		out, err = r.run("ls-files", "--cached")
	}
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Commit records the staged changes.
func (r *Repo) Commit(message string) error {
	_, err := r.run("commit", "--quiet", "-m", message)
	return err
}

// AmendCommit folds the staged changes into the previous commit,
// keeping its message.
func (r *Repo) AmendCommit() error {
	_, err := r.run("commit", "--quiet", "--amend", "--no-edit")
	return err
}

// AmendCommitMessage amends the previous commit with a new message.
func (r *Repo) AmendCommitMessage(message string) error {
	_, err := r.run("commit", "--quiet", "--amend", "-m", message)
	return err
}

// CheckoutOrphan moves to a new root branch with no parent history.
func (r *Repo) CheckoutOrphan(branch string) error {
	_, err := r.run("checkout", "--quiet", "--orphan", branch)
	return err
}

// DeleteBranch force-deletes a branch pointer.
func (r *Repo) DeleteBranch(name string) error {
	_, err := r.run("branch", "-D", name)
	return err
}

// RenameCurrentBranch renames the checked-out branch.
func (r *Repo) RenameCurrentBranch(name string) error {
	_, err := r.run("branch", "-m", name)
	return err
}

// LsTree lists the repository-relative paths in a revision's tree.
func (r *Repo) LsTree(rev string) ([]string, error) {
	out, err := r.run("ls-tree", "-r", "--name-only", rev)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// ShowBlob returns the committed blob content of a path at a revision.
// This reads what the filter actually stored, not the working copy.
func (r *Repo) ShowBlob(rev, path string) ([]byte, error) {
	return r.runRaw("show", rev+":"+path)
}

// Push pushes the current branch to its upstream.
func (r *Repo) Push() error {
	_, err := r.run("push", "--quiet")
	return err
}

// PushSetUpstream pushes and records the upstream for the branch.
func (r *Repo) PushSetUpstream(remote, branch string) error {
	_, err := r.run("push", "--quiet", "--set-upstream", remote, branch)
	return err
}

// ForcePush overwrites the remote branch. Callers must have passed the
// destructive-remote confirmation gate first.
func (r *Repo) ForcePush(remote, branch string) error {
	_, err := r.run("push", "--quiet", "--force", remote, branch)
	return err
}

// RemoteURL returns the URL of a remote, or empty when it is absent.
func (r *Repo) RemoteURL(name string) string {
	out, err := r.run("remote", "get-url", name)
	if err != nil {
		return ""
	}
	return out
}

// SetRemoteURL creates or updates a remote.
func (r *Repo) SetRemoteURL(name, url string) error {
	if r.RemoteURL(name) == "" {
		_, err := r.run("remote", "add", name, url)
		return err
	}
	_, err := r.run("remote", "set-url", name, url)
	return err
}

// ConfigureFilter registers the layer-A content filter in repository
// configuration, bound to the given identity key. required=true makes a
// filter failure abort the operation instead of storing plaintext.
func (r *Repo) ConfigureFilter(name, identity string) error {
	settings := [][2]string{
		{"filter." + name + ".clean", "totara seal encrypt --identity " + identity + " %f"},
		{"filter." + name + ".smudge", "totara seal decrypt --identity " + identity + " %f"},
		{"filter." + name + ".required", "true"},
	}
	for _, kv := range settings {
		if _, err := r.run("config", kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// EnsureAttributes makes sure .gitattributes binds the filter to the
// layer-A glob. Returns true when the file was modified.
func (r *Repo) EnsureAttributes(glob, filterName string) (bool, error) {
	path := filepath.Join(r.Dir, ".gitattributes")
	line := glob + " filter=" + filterName + " diff=" + filterName

	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	for _, existing := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(existing) == line {
			return false, nil
		}
	}

	updated := string(content)
	if updated != "" && !strings.HasSuffix(updated, "\n") {
		updated += "\n"
	}
	updated += line + "\n"

	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return false, err
	}
	return true, nil
}
