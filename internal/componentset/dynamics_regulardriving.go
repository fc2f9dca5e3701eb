package componentset

import (
	"fmt"
	"math"

	"github.com/banshee-data/pcmsim/internal/component"
	"github.com/banshee-data/pcmsim/internal/signal"
	"github.com/banshee-data/pcmsim/internal/simerr"
	"github.com/banshee-data/pcmsim/internal/vehicle"
	"github.com/banshee-data/pcmsim/internal/worldstate"
)

// Port ids for Dynamics_RegularDriving (grounded on
// Components/Dynamics_RegularDriving/dynamics_regularDrivingImplementation.h's
// role in the catalog: "acceleration + steering → pose update").
const (
	PortRegularDrivingAccelerationInput = 0
	PortRegularDrivingSteeringInput     = 1
	PortRegularDrivingOutput            = 0
)

// DynamicsRegularDriving integrates an agent's pose for one cycle from
// an upstream acceleration and (optionally) a commanded steering wheel
// angle, using a simple kinematic bicycle-style heading update: yaw rate
// is derived from the steering wheel angle and the model's wheelbase.
type DynamicsRegularDriving struct {
	meta  component.Meta
	world *worldstate.World
	agent *vehicle.Agent

	acceleration       float64
	steeringWheelAngle float64
	hasSteeringInput   bool
	out                signal.Dynamics
}

// NewDynamicsRegularDriving constructs a Dynamics_RegularDriving
// instance bound to agent.
func NewDynamicsRegularDriving(world *worldstate.World, agent *vehicle.Agent, priority, offsetMS, cycleMS int) *DynamicsRegularDriving {
	return &DynamicsRegularDriving{
		meta: component.Meta{
			Name:         "Dynamics_RegularDriving",
			Capability:   component.CapabilityDynamics,
			Priority:     priority,
			OffsetTimeMS: offsetMS,
			CycleTimeMS:  cycleMS,
		},
		world: world,
		agent: agent,
	}
}

func (d *DynamicsRegularDriving) Meta() component.Meta { return d.meta }

func (d *DynamicsRegularDriving) UpdateInput(localLinkId int, data signal.Signal, timeMS int) error {
	switch localLinkId {
	case PortRegularDrivingAccelerationInput:
		dyn, ok := data.(signal.Dynamics)
		if !ok {
			return fmt.Errorf("Dynamics_RegularDriving: port %d: %w", localLinkId, simerr.ErrInvalidSignalType)
		}
		d.acceleration = dyn.Acceleration
	case PortRegularDrivingSteeringInput:
		st, ok := data.(signal.Steering)
		if !ok {
			return fmt.Errorf("Dynamics_RegularDriving: port %d: %w", localLinkId, simerr.ErrInvalidSignalType)
		}
		d.steeringWheelAngle = st.SteeringWheelAngle
		d.hasSteeringInput = true
	default:
		return fmt.Errorf("Dynamics_RegularDriving: port %d: %w", localLinkId, simerr.ErrInvalidLink)
	}
	return nil
}

func (d *DynamicsRegularDriving) Trigger(timeMS int) error {
	// Once Dynamics_Collision has latched, it owns this agent's position
	// and velocity exclusively; regular driving goes Disabled rather than
	// racing the collision response's deferred update in the same cycle.
	if len(d.agent.CollisionPartners) > 0 {
		d.out = signal.Dynamics{ComponentState: signal.Disabled}
		return nil
	}

	dt := float64(d.meta.CycleTimeMS) * 0.001
	st := d.agent.State

	velocity := st.Velocity + d.acceleration*dt
	if velocity < 0 {
		velocity = 0
	}

	yawRate := 0.0
	if d.hasSteeringInput && d.agent.Model.Wheelbase > 0 {
		yawRate = velocity * math.Tan(d.steeringWheelAngle) / d.agent.Model.Wheelbase
	}
	yaw := st.Yaw + yawRate*dt

	ds := velocity * dt
	x := st.PositionX + ds*math.Cos(yaw)
	y := st.PositionY + ds*math.Sin(yaw)

	d.out = signal.Dynamics{
		ComponentState:     signal.Acting,
		Acceleration:       d.acceleration,
		Velocity:           velocity,
		PositionX:          x,
		PositionY:          y,
		Yaw:                yaw,
		YawRate:             yawRate,
		SteeringWheelAngle: d.steeringWheelAngle,
		TravelDistance:     ds,
	}

	out := d.out
	agent := d.agent
	d.world.QueueAgentUpdate(func() {
		agent.State.Velocity = out.Velocity
		agent.State.Acceleration = out.Acceleration
		agent.State.PositionX = out.PositionX
		agent.State.PositionY = out.PositionY
		agent.State.Yaw = out.Yaw
		agent.State.YawRate = out.YawRate
		agent.State.TravelDistance += out.TravelDistance
	})
	return nil
}

func (d *DynamicsRegularDriving) UpdateOutput(localLinkId int, timeMS int) (signal.Signal, error) {
	if localLinkId != PortRegularDrivingOutput {
		return nil, fmt.Errorf("Dynamics_RegularDriving: port %d: %w", localLinkId, simerr.ErrInvalidLink)
	}
	return d.out, nil
}

func (d *DynamicsRegularDriving) GetVersion() string { return "1.0.0" }
