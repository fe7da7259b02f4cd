// Package prompt provides the interactive confirmation primitives the
// workflows depend on.
//
// The Prompter interface separates workflow logic from the terminal:
// production code uses TTY, which reads the controlling terminal even
// when stdio is redirected, and tests use Canned answers.
//
// Confirmation is risk-tiered. Reversible operations take a y/yes
// answer; destructive operations require the exact literal YES, once
// for local destruction and once more, independently, for remote
// overwrite. Any non-exact input is a decline, never a retry prompt.
package prompt
