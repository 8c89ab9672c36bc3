// Package logging provides structured logging for sanenet.
//
// This package wraps a global zap logger with convenience functions for
// the events a SANE client produces: connections, command exchanges, and
// raw protocol bytes.
//
// # Log Levels
//
//   - Debug: raw bytes written to and read from saned
//   - Info: connections and completed commands
//   - Warn: failed commands, broken sessions
//   - Error: failures that end the program
//
// # Configuration
//
// Logging is silent unless a level is given, either explicitly or through
// the SANENET_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize(logLevel); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// Output goes to stderr so command output on stdout stays parseable.
//
// # Structured Logging
//
//	logging.LogCommand(addr, "list devices", elapsed, err,
//	    zap.Int("devices", len(devices)),
//	)
//
// # Thread Safety
//
// The logging functions are safe for concurrent use. Initialize and
// SetLogger are not, and belong in program startup or test setup.
package logging
