// Package monitoring provides the package-level diagnostic logger shared by
// the simulation core. Components, the scheduler, and spawn admission log
// through it rather than calling the log package directly, so tests can
// capture or silence output without touching global state elsewhere.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Warnf logs a WARN-level message, e.g. geometry NumericDegeneracy that the
// engine skips over but an operator should still see.
func Warnf(format string, v ...interface{}) {
	Logf("WARN: "+format, v...)
}

// Errorf logs an ERROR-level message, e.g. InvalidSignalType or InvalidLink
// failures that abort a single agent's cycle without stopping the run.
func Errorf(format string, v ...interface{}) {
	Logf("ERROR: "+format, v...)
}
