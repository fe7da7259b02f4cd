package workflows

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/totara-dev/totara/internal/configs"
	"github.com/totara-dev/totara/internal/git"
	"github.com/totara-dev/totara/internal/hosts"
	logger "github.com/totara-dev/totara/internal/logging"
	"github.com/totara-dev/totara/internal/prompt"
)

// fakeBuilder records calls and returns configured errors.
type fakeBuilder struct {
	buildErr    error
	activateErr error
	builds      int
	activates   int
}

func (f *fakeBuilder) Build(ctx context.Context, target string) error {
	f.builds++
	return f.buildErr
}

func (f *fakeBuilder) Activate(ctx context.Context, target string) error {
	f.activates++
	return f.activateErr
}

// cancellingBuilder cancels the workflow context while the build runs,
// the way an operator interrupt between staging and commit lands.
type cancellingBuilder struct {
	fakeBuilder
	cancel context.CancelFunc
}

func (b *cancellingBuilder) Build(ctx context.Context, target string) error {
	b.cancel()
	return b.fakeBuilder.Build(ctx, target)
}

// mutePrompter reports no controlling terminal.
type mutePrompter struct {
	prompt.Canned
}

func (*mutePrompter) Interactive() bool { return false }

// fakePartitioner records the target and passphrase it was given.
type fakePartitioner struct {
	err        error
	target     string
	passphrase string
	calls      int
}

func (f *fakePartitioner) Apply(ctx context.Context, target string, passphrase []byte) error {
	f.calls++
	f.target = target
	f.passphrase = string(passphrase)
	return f.err
}

// installStubTools puts stub implementations of the external tools on
// PATH: a content filter that wraps content in the eval magic header,
// and inert disk tools. Everything the workflows shell out to besides
// git is covered.
func installStubTools(t *testing.T) {
	t.Helper()

	binDir := t.TempDir()

	sealScript := `#!/bin/sh
mode="$2"
header="-----TOTARA ENCRYPTED EVAL SECRET-----"
if [ "$mode" = "encrypt" ]; then
  echo "$header"
  cat
else
  read -r first
  if [ "$first" != "$header" ]; then
    printf '%s\n' "$first"
  fi
  cat
fi
`
	stubs := map[string]string{
		"totara":     sealScript,
		"lsblk":      "#!/bin/sh\necho \"NAME SIZE TYPE\"\necho \"stub 10G disk\"\n",
		"blkdiscard": "#!/bin/sh\nexit 0\n",
		"wipefs":     "#!/bin/sh\nexit 0\n",
	}
	for name, script := range stubs {
		path := filepath.Join(binDir, name)
		if err := os.WriteFile(path, []byte(script), 0755); err != nil {
			t.Fatalf("Failed to install stub %s: %v", name, err)
		}
	}

	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// newTestEnv builds a fully wired Env around a fresh git repository
// with the test host registered for the current platform.
func newTestEnv(t *testing.T, prompter prompt.Prompter) (*Env, *fakeBuilder) {
	t.Helper()
	installStubTools(t)

	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "--quiet", "--initial-branch=main"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}

	if err := os.MkdirAll(filepath.Join(dir, ".totara"), 0755); err != nil {
		t.Fatalf("Failed to create .totara: %v", err)
	}

	// Identity key in an isolated data dir, in the age format.
	dataDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataDir)
	keyPath := filepath.Join(dataDir, "totara", "keys", "eval.key")
	if err := os.MkdirAll(filepath.Dir(keyPath), 0700); err != nil {
		t.Fatalf("Failed to create key dir: %v", err)
	}
	if err := os.WriteFile(keyPath, []byte("AGE-SECRET-KEY-1TESTTESTTESTTEST\n"), 0600); err != nil {
		t.Fatalf("Failed to write identity: %v", err)
	}

	registry := &hosts.Registry{Hosts: map[string]hosts.Entry{
		"testhost": {Platform: runtime.GOOS, Device: "/dev/stub0"},
	}}

	log := logger.Logger{}
	builder := &fakeBuilder{}

	env := &Env{
		RepoPath: dir,
		Platform: runtime.GOOS,
		Config:   configs.DefaultRepoConfig(),
		Registry: registry,
		Host:     hosts.Classify("testhost", registry),
		Repo:     &git.Repo{Dir: dir, Logger: log},
		Prompter: prompter,
		Builder:  builder,
		Logger:   log,
	}
	return env, builder
}

func writeRepoFile(t *testing.T, env *Env, name, content string) {
	t.Helper()
	path := filepath.Join(env.RepoPath, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// rawGit runs git directly in the repository, outside the Repo wrapper.
// Used to manufacture commits the workflows did not make.
func rawGit(t *testing.T, env *Env, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = env.RepoPath
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

func commitCount(t *testing.T, env *Env) int {
	t.Helper()
	cmd := exec.Command("git", "rev-list", "--count", "HEAD")
	cmd.Dir = env.RepoPath
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("rev-list failed: %v", err)
	}
	count := 0
	for _, c := range string(out) {
		if c >= '0' && c <= '9' {
			count = count*10 + int(c-'0')
		}
	}
	return count
}

// addBareRemote creates a bare repository, wires it as origin, and
// pushes the current branch to it.
func addBareRemote(t *testing.T, env *Env) string {
	t.Helper()

	bare := t.TempDir()
	cmd := exec.Command("git", "init", "--quiet", "--bare", bare)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("bare init failed: %v\n%s", err, out)
	}

	if err := env.Repo.SetRemoteURL("origin", bare); err != nil {
		t.Fatalf("SetRemoteURL failed: %v", err)
	}
	if err := env.Repo.PushSetUpstream("origin", "main"); err != nil {
		t.Fatalf("PushSetUpstream failed: %v", err)
	}
	return bare
}

func bareHead(t *testing.T, bare string) string {
	t.Helper()
	cmd := exec.Command("git", "rev-parse", "main")
	cmd.Dir = bare
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("rev-parse in bare remote failed: %v", err)
	}
	return string(out)
}
