// Package component defines the per-agent plug-in contract of the
// component graph (spec §4.3): a Component carries scheduling metadata
// (cycle time, offset time, response time, priority, init flag) and
// three lifecycle operations, UpdateOutput / UpdateInput / Trigger,
// invoked by the graph in that order every cycle. Grounded on
// Interfaces/modelInterface.h's ModelInterface base class, generalized
// from a C++ inheritance hierarchy (RestrictedModelInterface,
// UnrestrictedModelInterface, AlgorithmInterface, ActionInterface,
// DynamicsInterface, SensorInterface, InitInterface) into a single Go
// interface plus a Capability tag, since Go has no abstract base class
// and the capability set is closed and small (spec §9's resolved
// "polymorphism over component behaviors" open question).
package component

import (
	"fmt"

	"github.com/banshee-data/pcmsim/internal/signal"
	"github.com/banshee-data/pcmsim/internal/simerr"
)

// Capability tags which of the five pluggable behaviors a component
// implements (spec §3's {Sensor, Algorithm, Dynamics, Action, Observation}
// set). Purely descriptive — it does not change how the graph schedules
// the component, only how reference implementations and tooling
// categorize it.
type Capability int

const (
	CapabilitySensor Capability = iota
	CapabilityAlgorithm
	CapabilityDynamics
	CapabilityAction
	CapabilityObservation
)

func (c Capability) String() string {
	switch c {
	case CapabilitySensor:
		return "Sensor"
	case CapabilityAlgorithm:
		return "Algorithm"
	case CapabilityDynamics:
		return "Dynamics"
	case CapabilityAction:
		return "Action"
	case CapabilityObservation:
		return "Observation"
	default:
		return "Unknown"
	}
}

// Meta is the scheduling metadata every component carries, corresponding
// to ModelInterface's constructor parameters (isInit, priority,
// offsetTime, responseTime, cycleTime).
type Meta struct {
	Name         string
	Capability   Capability
	IsInit       bool
	Priority     int // smaller triggers earlier
	OffsetTimeMS int
	ResponseMS   int
	CycleTimeMS  int
}

// DueAt reports whether this component's Trigger/UpdateOutput pair is
// scheduled to run at global time t (spec §4.4 step b): (t - offset) is
// a non-negative multiple of cycleTime.
func (m Meta) DueAt(t int) bool {
	if m.CycleTimeMS <= 0 {
		return t == m.OffsetTimeMS
	}
	rel := t - m.OffsetTimeMS
	return rel >= 0 && rel%m.CycleTimeMS == 0
}

// Component is the plug-in contract a reference implementation
// satisfies (spec §4.3, §6's Create/UpdateInput/UpdateOutput/Trigger/
// GetVersion contract; Destroy has no Go analogue since components carry
// no unmanaged resources and are reclaimed by the garbage collector).
type Component interface {
	Meta() Meta

	// UpdateInput delivers the signal produced upstream on localLinkId
	// during this cycle. Must not mutate world state (spec §4.3 step 2).
	// Returns simerr.ErrInvalidSignalType if data's concrete type is not
	// what this port expects, or simerr.ErrInvalidLink if localLinkId is
	// not a port this component has.
	UpdateInput(localLinkId int, data signal.Signal, timeMS int) error

	// UpdateOutput mints the signal for localLinkId at timeMS (spec §4.3
	// step 1). Returns simerr.ErrInvalidLink for an unknown port id.
	UpdateOutput(localLinkId int, timeMS int) (signal.Signal, error)

	// Trigger runs this component's per-cycle behavior (spec §4.3 step
	// 3). May enqueue deferred world mutations through whatever world
	// handle the component was constructed with; must not perform direct
	// world writes.
	Trigger(timeMS int) error

	// GetVersion identifies the concrete implementation's version, for
	// diagnostics and the observation trace (spec §6).
	GetVersion() string
}

// Factory constructs a Component instance, mirroring
// Create(componentName, isInit, priority, offsetTime, responseTime,
// cycleTime, ...) → instance (spec §6). Construction failures are
// reported as simerr.ErrConstructionFailed.
type Factory func(meta Meta) (Component, error)

// ConstructionError wraps a factory failure with the offending
// component's name, satisfying errors.Is(err, simerr.ErrConstructionFailed).
type ConstructionError struct {
	Component string
	Reason    string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construct %q: %s: %v", e.Component, e.Reason, simerr.ErrConstructionFailed)
}

func (e *ConstructionError) Unwrap() error {
	return simerr.ErrConstructionFailed
}

// Port identifies one endpoint of a channel: a component name plus a
// local link id, matching ModelInterface's localLinkId parameter.
type Port struct {
	Component string
	LinkID    int
}
