package terrors

import "errors"

// Environment errors: the invocation context is unusable. Fatal and
// immediate, never retried.
var (
	// ErrNotARepository indicates the working directory is not inside a git repository.
	ErrNotARepository = errors.New("not inside a git repository")

	// ErrNotInteractive indicates no controlling terminal is available for confirmation prompts.
	ErrNotInteractive = errors.New("no controlling terminal available")

	// ErrUnknownHost indicates the host name is not in the host registry.
	ErrUnknownHost = errors.New("host is not in the host registry")

	// ErrPlatformMismatch indicates the registry's required platform disagrees with the runtime platform.
	ErrPlatformMismatch = errors.New("host platform does not match the running platform")

	// ErrNotInstaller indicates an installer-only workflow was invoked on a deployed machine.
	ErrNotInstaller = errors.New("workflow requires the live installer")

	// ErrIdentityNotFound indicates a layer's private identity key could not be located.
	ErrIdentityNotFound = errors.New("layer identity key not found")
)

// Sync errors: the working copy and upstream could not be reconciled.
// Fatal with manual-resolution instructions, never auto-resolved.
var (
	// ErrStashConflict indicates restoring stashed work after a rebase conflicted.
	ErrStashConflict = errors.New("stash restore conflicted with rebased history")

	// ErrRebaseFailed indicates the rebase onto upstream did not complete cleanly.
	ErrRebaseFailed = errors.New("rebase onto upstream failed")
)

// Validation errors: the change is not fit to commit. Fatal, triggers
// unstage compensation.
var (
	// ErrBuildFailed indicates the external configuration build did not succeed.
	ErrBuildFailed = errors.New("configuration build failed")

	// ErrEmptyMessage indicates an empty commit message was supplied.
	ErrEmptyMessage = errors.New("commit message is empty")

	// ErrUnclassifiable indicates a secret file is neither plaintext nor ciphertext.
	ErrUnclassifiable = errors.New("secret file content is neither plaintext nor ciphertext")
)

// Integrity errors: committed history violates the encryption invariant.
// The most severe class, treated as a security incident.
var (
	// ErrPlaintextCommitted indicates a committed Layer-A blob is not ciphertext.
	ErrPlaintextCommitted = errors.New("committed secret is not encrypted")

	// ErrCiphertextAtRuntime indicates a runtime Layer-B file is still encrypted.
	ErrCiphertextAtRuntime = errors.New("runtime secret is still encrypted")
)

// Provisioning errors.
var (
	// ErrDeviceMounted indicates the target block device has mounted partitions.
	ErrDeviceMounted = errors.New("target device is mounted")

	// ErrDevicePartialState indicates provisioning failed after the device was already mutated.
	ErrDevicePartialState = errors.New("device left in a partially provisioned state")

	// ErrWeakPassphrase indicates the passphrase does not meet the strength policy.
	ErrWeakPassphrase = errors.New("passphrase does not meet the strength policy")
)
