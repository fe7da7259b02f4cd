// Package workflows provides high-level orchestration for Totara
// commands.
//
// Workflows coordinate the leaves (hosts, secrets, git, prompt, build,
// audit) into complete user-facing operations. Each workflow handles a
// single command's business logic, independent of CLI concerns like
// flag parsing, spinners, and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Classifying the host and gating execution
//   - Enforcing the commit-safety invariant via the verifier
//   - Performing the core operation with compensating cleanup
//   - Recording audit trail entries
//
// # Available Workflows
//
//   - Commit: sync, stage, validate the build, commit, verify, push
//   - Reset: replace all history with a verified orphan root commit
//   - Provision: wipe and encrypt a disk from the live installer
//   - Deploy: validate decryption state and activate the configuration
//   - Status: read-only snapshot of host, secrets, and history state
//
// Bootstrap is the shared sequencer for the first-ever commit; Commit
// uses it for fresh repositories and Reset for every orphan root.
//
// # Error Handling
//
// Workflows return sentinel errors from internal/terrors wrapped with
// context. The CLI layer matches them with errors.Is to pick messages
// and exit codes. Confirmation declines are not errors: they come back
// as Declined result fields with a nil error and exit code 0.
//
// # Concurrency
//
// All workflows are single-threaded and strictly sequential. The only
// suspension points are interactive prompts; external interruption
// cancels the context and the deferred compensations run before the
// process exits.
package workflows
