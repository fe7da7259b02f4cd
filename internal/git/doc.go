// Package git wraps the git binary for the single working copy totara
// manages.
//
// Operations are thin, uncached, and strictly sequential; errors carry
// git's stderr output. The wrapper exposes exactly the vocabulary the
// workflows need (stage, unstage, commit, amend, orphan checkout,
// committed-blob reads, push variants) rather than a general git API.
package git
