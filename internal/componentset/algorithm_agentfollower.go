package componentset

import (
	"fmt"
	"math"

	"github.com/banshee-data/pcmsim/internal/component"
	"github.com/banshee-data/pcmsim/internal/signal"
	"github.com/banshee-data/pcmsim/internal/simerr"
)

// Port ids for Algorithm_AgentFollower: PortAgentFollowerGapInput
// receives the Sensor_Distance gap (ScalarDouble), PortAgentFollowerDynamicsInput
// receives the Sensor_Driver dynamics passthrough (used for the agent's
// own velocity), and PortAgentFollowerOutput mints the pedal command
// (grounded on Components/Algorithm_AgentFollower/
// Algorithm_agentFollowingDriverModel.h's role in the catalog: "simple
// ACC-style follower").
const (
	PortAgentFollowerGapInput       = 0
	PortAgentFollowerDynamicsInput = 1
	PortAgentFollowerOutput        = 0
)

// AgentFollowerParams tunes the desired-gap law: desiredGap =
// TimeGapSec*velocity + MinGapM.
type AgentFollowerParams struct {
	TimeGapSec    float64
	MinGapM       float64
	GainPedal     float64 // pedal command per meter of gap error
}

// DefaultAgentFollowerParams mirrors a conservative ACC tuning: a 1.5s
// time gap, 2m minimum standoff, moderate responsiveness.
func DefaultAgentFollowerParams() AgentFollowerParams {
	return AgentFollowerParams{TimeGapSec: 1.5, MinGapM: 2.0, GainPedal: 0.05}
}

// AlgorithmAgentFollower is a simple adaptive-cruise-control follower: it
// compares the measured gap to the nearest lead object against a
// velocity-dependent desired gap and commands acceleration or braking
// pedal proportionally.
type AlgorithmAgentFollower struct {
	meta   component.Meta
	params AgentFollowerParams

	gap      float64
	velocity float64
	command  signal.Longitudinal
}

// NewAlgorithmAgentFollower constructs an Algorithm_AgentFollower
// instance with the given tuning.
func NewAlgorithmAgentFollower(params AgentFollowerParams, priority, offsetMS, cycleMS int) *AlgorithmAgentFollower {
	return &AlgorithmAgentFollower{
		meta: component.Meta{
			Name:         "Algorithm_AgentFollower",
			Capability:   component.CapabilityAlgorithm,
			Priority:     priority,
			OffsetTimeMS: offsetMS,
			CycleTimeMS:  cycleMS,
		},
		params: params,
		gap:    math.Inf(1),
	}
}

func (a *AlgorithmAgentFollower) Meta() component.Meta { return a.meta }

func (a *AlgorithmAgentFollower) UpdateInput(localLinkId int, data signal.Signal, timeMS int) error {
	switch localLinkId {
	case PortAgentFollowerGapInput:
		gap, ok := data.(signal.ScalarDouble)
		if !ok {
			return fmt.Errorf("Algorithm_AgentFollower: port %d: %w", localLinkId, simerr.ErrInvalidSignalType)
		}
		a.gap = gap.Value
	case PortAgentFollowerDynamicsInput:
		dyn, ok := data.(signal.Dynamics)
		if !ok {
			return fmt.Errorf("Algorithm_AgentFollower: port %d: %w", localLinkId, simerr.ErrInvalidSignalType)
		}
		a.velocity = dyn.Velocity
	default:
		return fmt.Errorf("Algorithm_AgentFollower: port %d: %w", localLinkId, simerr.ErrInvalidLink)
	}
	return nil
}

func (a *AlgorithmAgentFollower) Trigger(timeMS int) error {
	desiredGap := a.params.TimeGapSec*a.velocity + a.params.MinGapM
	var gap float64
	if math.IsInf(a.gap, 1) {
		gap = desiredGap // no lead object: neutral command
	} else {
		gap = a.gap
	}
	err := gap - desiredGap
	command := a.params.GainPedal * err

	out := signal.Longitudinal{ComponentState: signal.Acting, Gear: 1}
	if command >= 0 {
		out.AccPedal = clamp01(command)
	} else {
		out.BrakePedal = clamp01(-command)
	}
	a.command = out
	return nil
}

func (a *AlgorithmAgentFollower) UpdateOutput(localLinkId int, timeMS int) (signal.Signal, error) {
	if localLinkId != PortAgentFollowerOutput {
		return nil, fmt.Errorf("Algorithm_AgentFollower: port %d: %w", localLinkId, simerr.ErrInvalidLink)
	}
	return a.command, nil
}

func (a *AlgorithmAgentFollower) GetVersion() string { return "1.0.0" }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
