// Package logger provides leveled logging for Totara CLI commands.
//
// Logging behavior is controlled by two flags:
//
//   - --verbose: shows info and warning messages
//   - --debug: shows all messages including debug details
//
// Without flags, only critical warnings and errors are shown.
//
// Create a logger with the desired verbosity:
//
//	log := logger.Logger{Verbose: verbose, Debug: debug}
//	log.Infof("staging %d files", count)
//
// Commands create a logger in their PersistentPreRun and pass it down to
// the workflow layer.
package logger
