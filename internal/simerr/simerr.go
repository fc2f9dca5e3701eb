// Package simerr defines the error kinds of spec §7 as sentinel values
// wrapped with context via fmt.Errorf("...: %w", ...), so callers can test
// for a kind with errors.Is while still getting a human-readable message.
package simerr

import "errors"

var (
	// ErrConfigError marks a malformed road network, a missing required
	// parameter, or contradictory lane topology. Fatal at startup.
	ErrConfigError = errors.New("config error")

	// ErrConstructionFailed marks a component that refused creation.
	// Fatal for that run.
	ErrConstructionFailed = errors.New("construction failed")

	// ErrInvalidSignalType marks a component receiving a signal of
	// unexpected payload type. Localized: that agent's cycle is aborted.
	ErrInvalidSignalType = errors.New("invalid signal type")

	// ErrInvalidLink marks an unknown port id. Terminates that agent's
	// cycle.
	ErrInvalidLink = errors.New("invalid link")

	// ErrLocalizationFailure marks an agent whose bounding box could not
	// be localized to the road network. Non-fatal for Common agents
	// (marked for removal); fatal for Ego or Scenario agents.
	ErrLocalizationFailure = errors.New("localization failure")

	// ErrIncompleteScenario marks an Ego/Scenario spawn that is impossible
	// or that leaves the world. The run aborts immediately.
	ErrIncompleteScenario = errors.New("incomplete scenario")

	// ErrDuplicateID marks AddAgent called with an id already registered.
	ErrDuplicateID = errors.New("duplicate agent id")

	// ErrUnknownAgent marks a query against an unregistered agent id.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrNumericDegeneracy marks a geometry degeneracy (zero-length
	// segment, coincident points). Never fatal; the engine skips the
	// offending segment and logs at WARN.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")
)

// ExitCode is the runner's termination status (spec §6).
type ExitCode int

const (
	Success ExitCode = iota
	InvalidConfig
	IncompleteScenario
	RuntimeError
)

func (c ExitCode) String() string {
	switch c {
	case Success:
		return "Success"
	case InvalidConfig:
		return "InvalidConfig"
	case IncompleteScenario:
		return "IncompleteScenario"
	case RuntimeError:
		return "RuntimeError"
	default:
		return "Unknown"
	}
}
