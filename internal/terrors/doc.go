// Package terrors defines the sentinel errors shared across Totara.
//
// Errors are grouped by failure class: environment, sync, validation,
// integrity, and provisioning. Workflows wrap these with context using
// fmt.Errorf and %w; the CLI layer matches them with errors.Is to pick
// user-facing messages and exit codes. Confirmation declines are not
// errors and are reported through result values instead.
package terrors
