package componentset

import (
	"fmt"

	"github.com/banshee-data/pcmsim/internal/component"
	"github.com/banshee-data/pcmsim/internal/signal"
	"github.com/banshee-data/pcmsim/internal/simerr"
	"github.com/banshee-data/pcmsim/internal/vehicle"
	"github.com/banshee-data/pcmsim/internal/worldstate"
)

// PortBrakeLightInput is the only port: the dynamics state driving the
// brake-light decision (grounded on
// Components/Action_BrakeLight_Basic/action_brakelight_basic.h's role in
// the catalog: "velocity/accel → brake-light state").
const PortBrakeLightInput = 0

// BrakeLightThresholdMPS2 is the deceleration magnitude above which the
// brake light is lit; a reasonable default absent an original constant
// in the retrieved source.
const BrakeLightThresholdMPS2 = 0.5

// ActionBrakeLightBasic is a pure Action component: it has no output
// port, only a world-state side effect queued every cycle.
type ActionBrakeLightBasic struct {
	meta  component.Meta
	world *worldstate.World
	agent *vehicle.Agent

	acceleration float64
}

// NewActionBrakeLightBasic constructs an Action_BrakeLight_Basic
// instance bound to agent.
func NewActionBrakeLightBasic(world *worldstate.World, agent *vehicle.Agent, priority, offsetMS, cycleMS int) *ActionBrakeLightBasic {
	return &ActionBrakeLightBasic{
		meta: component.Meta{
			Name:         "Action_BrakeLight_Basic",
			Capability:   component.CapabilityAction,
			Priority:     priority,
			OffsetTimeMS: offsetMS,
			CycleTimeMS:  cycleMS,
		},
		world: world,
		agent: agent,
	}
}

func (a *ActionBrakeLightBasic) Meta() component.Meta { return a.meta }

func (a *ActionBrakeLightBasic) UpdateInput(localLinkId int, data signal.Signal, timeMS int) error {
	if localLinkId != PortBrakeLightInput {
		return fmt.Errorf("Action_BrakeLight_Basic: port %d: %w", localLinkId, simerr.ErrInvalidLink)
	}
	dyn, ok := data.(signal.Dynamics)
	if !ok {
		return fmt.Errorf("Action_BrakeLight_Basic: port %d: %w", localLinkId, simerr.ErrInvalidSignalType)
	}
	a.acceleration = dyn.Acceleration
	return nil
}

func (a *ActionBrakeLightBasic) Trigger(timeMS int) error {
	on := a.acceleration < -BrakeLightThresholdMPS2
	agent := a.agent
	a.world.QueueAgentUpdate(func() {
		agent.State.BrakeLightOn = on
	})
	return nil
}

func (a *ActionBrakeLightBasic) UpdateOutput(localLinkId int, timeMS int) (signal.Signal, error) {
	return nil, fmt.Errorf("Action_BrakeLight_Basic: port %d: %w", localLinkId, simerr.ErrInvalidLink)
}

func (a *ActionBrakeLightBasic) GetVersion() string { return "1.0.0" }
