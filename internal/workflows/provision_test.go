package workflows

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/totara-dev/totara/internal/configs"
	"github.com/totara-dev/totara/internal/hosts"
	"github.com/totara-dev/totara/internal/prompt"
	"github.com/totara-dev/totara/internal/terrors"
)

const testPassphrase = "Str0ng-Passphrase-#2026!"

// newInstallerEnv reclassifies the test environment as the live
// installer, provisioning a registered target.
func newInstallerEnv(t *testing.T, prompter prompt.Prompter) (*Env, *fakePartitioner, ProvisionOptions) {
	t.Helper()
	env, _ := newTestEnv(t, prompter)
	env.Host = hosts.Classify("installer", env.Registry)

	partitioner := &fakePartitioner{}
	env.Partitioner = partitioner

	keySource := filepath.Join(t.TempDir(), "activation.key")
	if err := os.WriteFile(keySource, []byte("AGE-SECRET-KEY-1ACTIVATION\n"), 0600); err != nil {
		t.Fatalf("Failed to write activation key: %v", err)
	}

	opts := ProvisionOptions{
		Target:     hosts.Classify("testhost", env.Registry),
		MountPoint: t.TempDir(),
		KeySource:  keySource,
	}
	return env, partitioner, opts
}

func TestProvisionRefusesDeployedMachine(t *testing.T) {
	env, _ := newTestEnv(t, &prompt.Canned{})
	partitioner := &fakePartitioner{}
	env.Partitioner = partitioner

	_, err := Provision(context.Background(), env, ProvisionOptions{
		Target: hosts.Classify("testhost", env.Registry),
	})
	if !errors.Is(err, terrors.ErrNotInstaller) {
		t.Fatalf("Expected ErrNotInstaller, got: %v", err)
	}
	if partitioner.calls != 0 {
		t.Error("Partitioner ran on a deployed machine")
	}
}

func TestProvisionRefusesUnregisteredTarget(t *testing.T) {
	env, partitioner, opts := newInstallerEnv(t, &prompt.Canned{})
	opts.Target = hosts.Classify("stranger", env.Registry)

	_, err := Provision(context.Background(), env, opts)
	if !errors.Is(err, terrors.ErrUnknownHost) {
		t.Fatalf("Expected ErrUnknownHost, got: %v", err)
	}
	if partitioner.calls != 0 {
		t.Error("Partitioner ran for an unregistered target")
	}
}

func TestProvisionDeclineLeavesDeviceUntouched(t *testing.T) {
	prompter := &prompt.Canned{Lines: []string{"no"}}
	env, partitioner, opts := newInstallerEnv(t, prompter)

	result, err := Provision(context.Background(), env, opts)
	if err != nil {
		t.Fatalf("Provision returned error on decline: %v", err)
	}
	if !result.Declined {
		t.Error("Expected Declined")
	}
	if result.Mutated {
		t.Error("Device mutated before confirmation")
	}
	if partitioner.calls != 0 {
		t.Error("Partitioner ran after decline")
	}
}

func TestProvisionWipesAndCopiesActivationKey(t *testing.T) {
	prompter := &prompt.Canned{
		Lines:   []string{"YES"},
		Secrets: [][]byte{[]byte(testPassphrase), []byte(testPassphrase)},
	}
	env, partitioner, opts := newInstallerEnv(t, prompter)

	result, err := Provision(context.Background(), env, opts)
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if result.Declined {
		t.Fatal("Unexpected decline")
	}
	if !result.Mutated {
		t.Error("Expected the device marked mutated")
	}
	if result.Device != "/dev/stub0" {
		t.Errorf("Expected device from the registry, got %s", result.Device)
	}

	if partitioner.calls != 1 {
		t.Fatalf("Expected one partitioner run, got %d", partitioner.calls)
	}
	if partitioner.target != "testhost" {
		t.Errorf("Partitioner got target %s", partitioner.target)
	}
	if partitioner.passphrase != testPassphrase {
		t.Error("Partitioner did not receive the collected passphrase")
	}

	dst := filepath.Join(opts.MountPoint, configs.ActivationIdentityPath("linux"))
	key, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("Activation key not copied: %v", err)
	}
	if string(key) != "AGE-SECRET-KEY-1ACTIVATION\n" {
		t.Error("Copied key content differs from the source")
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected key mode 0600, got %o", info.Mode().Perm())
	}
}

func TestProvisionPartitionerFailureReportsPartialState(t *testing.T) {
	prompter := &prompt.Canned{
		Lines:   []string{"YES"},
		Secrets: [][]byte{[]byte(testPassphrase), []byte(testPassphrase)},
	}
	env, partitioner, opts := newInstallerEnv(t, prompter)
	partitioner.err = errors.New("disko exploded")

	result, err := Provision(context.Background(), env, opts)
	if err == nil {
		t.Fatal("Expected a failure")
	}
	if !errors.Is(err, terrors.ErrDevicePartialState) {
		t.Errorf("Expected ErrDevicePartialState after mutation, got: %v", err)
	}
	if !result.Mutated {
		t.Error("Expected Mutated set on partial failure")
	}
}

func TestProvisionWeakPassphraseFailsAfterWipe(t *testing.T) {
	prompter := &prompt.Canned{
		Lines:   []string{"YES"},
		Secrets: [][]byte{[]byte("short")},
	}
	env, partitioner, opts := newInstallerEnv(t, prompter)

	_, err := Provision(context.Background(), env, opts)
	if !errors.Is(err, terrors.ErrWeakPassphrase) {
		t.Fatalf("Expected ErrWeakPassphrase, got: %v", err)
	}
	if partitioner.calls != 0 {
		t.Error("Partitioner ran with a rejected passphrase")
	}
}

func TestProvisionRerunAfterPartialFailureIsClean(t *testing.T) {
	// The activation key copy is idempotent, so a rerun after a failure
	// between partitioning and key placement completes without touching
	// an already correct key.
	prompter := &prompt.Canned{
		Lines:   []string{"YES", "YES"},
		Secrets: [][]byte{[]byte(testPassphrase), []byte(testPassphrase), []byte(testPassphrase), []byte(testPassphrase)},
	}
	env, partitioner, opts := newInstallerEnv(t, prompter)

	if _, err := Provision(context.Background(), env, opts); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	dst := filepath.Join(opts.MountPoint, configs.ActivationIdentityPath("linux"))
	before, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	if _, err := Provision(context.Background(), env, opts); err != nil {
		t.Fatalf("Rerun failed: %v", err)
	}
	if partitioner.calls != 2 {
		t.Errorf("Expected the partitioner rerun, got %d calls", partitioner.calls)
	}

	after, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("Identical key was rewritten on rerun")
	}
}
