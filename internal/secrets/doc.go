// Package secrets models the two classes of encrypted secrets in a
// totara repository and verifies their at-rest state.
//
// Layer classification is a pure glob match on repository-relative
// paths. State (plaintext, ciphertext, missing) is always derived by
// inspecting content, never stored: the first line of an encrypted blob
// carries a fixed magic header, and anything that is neither a header
// nor parseable configuration is a hard classification error.
//
// VerifyCommitted is the single authoritative gate for the core
// invariant that committed history never contains an eval-layer secret
// in plaintext. It runs against committed blobs, not the working copy,
// after every commit-producing step and before any push.
package secrets
