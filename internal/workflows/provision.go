package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/totara-dev/totara/internal/audit"
	"github.com/totara-dev/totara/internal/build"
	"github.com/totara-dev/totara/internal/configs"
	"github.com/totara-dev/totara/internal/hosts"
	"github.com/totara-dev/totara/internal/prompt"
	"github.com/totara-dev/totara/internal/terrors"
)

// ProvisionOptions configures the provisioning workflow.
type ProvisionOptions struct {
	// Target is the registered host being installed.
	Target hosts.Classification

	// MountPoint is where the target's future root is mounted after
	// partitioning. Defaults to /mnt.
	MountPoint string

	// KeySource overrides where the activation key is read from.
	// Defaults to the platform's fixed identity path; installer media
	// with a different layout set this.
	KeySource string
}

// ProvisionResult describes the outcome of a provisioning run.
type ProvisionResult struct {
	// Declined reports a graceful decline at the confirmation gate.
	Declined bool

	// Device is the block device that was (or would have been) wiped.
	Device string

	// Mutated reports whether the device was changed before any
	// failure. When true alongside an error, the device is in an
	// unknown partial state.
	Mutated bool
}

// Provision wipes and encrypts the target host's disk from the live
// installer. Only the installer may run it; a recognised deployed
// machine asking to wipe a disk is always a mistake.
func Provision(ctx context.Context, env *Env, opts ProvisionOptions) (*ProvisionResult, error) {
	result := &ProvisionResult{}

	if err := env.requireInteractive(); err != nil {
		return result, err
	}
	if env.Host.Kind != hosts.LiveInstaller {
		return result, fmt.Errorf("%w: running on %s (%s)", terrors.ErrNotInstaller, env.Host.Name, env.Host.Kind)
	}

	target := opts.Target
	if target.Kind != hosts.KnownHost {
		return result, fmt.Errorf("%w: %s", terrors.ErrUnknownHost, target.Name)
	}
	device := target.Entry.Device
	if device == "" {
		return result, fmt.Errorf("host %s has no target device in the registry", target.Name)
	}
	result.Device = device

	entry := audit.NewEntry("provision", target.Name)
	entry.Device = device

	mounted, err := build.IsMounted(device)
	if err != nil {
		return result, err
	}
	if mounted {
		return result, fmt.Errorf("%w: %s", terrors.ErrDeviceMounted, device)
	}

	description, err := build.DescribeDevice(ctx, device)
	if err != nil {
		return result, err
	}
	fmt.Fprintln(os.Stderr, description)

	ok, err := prompt.ConfirmDestructiveLocal(env.Prompter,
		fmt.Sprintf("All data on %s will be destroyed and the disk re-encrypted for %s.", device, target.Name))
	if err != nil {
		return result, err
	}
	if !ok {
		result.Declined = true
		entry.Outcome = "declined"
		audit.Log(env.RepoPath, entry)
		return result, nil
	}

	// From the first mutation on, failures must say the device, not
	// just the workflow, is in an unknown state.
	fail := func(err error) (*ProvisionResult, error) {
		entry.Outcome = "failed"
		entry.PartialDisk = result.Mutated
		audit.Log(env.RepoPath, entry)
		if result.Mutated {
			return result, fmt.Errorf("%w: %w", terrors.ErrDevicePartialState, err)
		}
		return result, err
	}

	if err := build.SecureErase(ctx, device); err != nil {
		// Best effort: not every device supports discard.
		env.Logger.WarnfAlways("secure erase skipped: %v", err)
	} else {
		result.Mutated = true
	}

	if err := build.WipeSignatures(ctx, device); err != nil {
		return fail(err)
	}
	result.Mutated = true

	passphrase, err := prompt.CollectPassphrase(env.Prompter)
	if err != nil {
		return fail(err)
	}

	if err := env.Partitioner.Apply(ctx, target.BuildTarget(), passphrase); err != nil {
		return fail(err)
	}

	if err := copyActivationKey(env, opts.KeySource, opts.MountPoint); err != nil {
		return fail(err)
	}

	entry.Outcome = "completed"
	audit.Log(env.RepoPath, entry)
	return result, nil
}

// copyActivationKey places the activation-layer key onto the target's
// future root so the machine can decrypt its runtime secrets on first
// boot. Idempotent: an identical existing key is left alone, so the
// step is safe to re-run after a partial failure.
func copyActivationKey(env *Env, src, mountPoint string) error {
	if mountPoint == "" {
		mountPoint = "/mnt"
	}
	if src == "" {
		src = configs.ActivationIdentityPath(env.Platform)
	}

	key, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("%w: %s", terrors.ErrIdentityNotFound, src)
	}

	dst := filepath.Join(mountPoint, configs.ActivationIdentityPath("linux"))
	if existing, err := os.ReadFile(dst); err == nil && string(existing) == string(key) {
		env.Logger.Debugf("activation key already present at %s", dst)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(dst, key, 0600); err != nil {
		return fmt.Errorf("failed to copy activation key: %w", err)
	}

	env.Logger.Infof("activation key copied to %s", dst)
	return nil
}
