package componentset

import (
	"fmt"

	"github.com/banshee-data/pcmsim/internal/collision"
	"github.com/banshee-data/pcmsim/internal/component"
	"github.com/banshee-data/pcmsim/internal/signal"
	"github.com/banshee-data/pcmsim/internal/simerr"
	"github.com/banshee-data/pcmsim/internal/vehicle"
	"github.com/banshee-data/pcmsim/internal/worldstate"
)

// PortDynamicsCollisionOutput is the sole output port, matching
// dynamics_collisionImplementation.cpp's single DynamicsSignal output
// on localLinkId 0.
const PortDynamicsCollisionOutput = 0

// DynamicsCollision overrides normal driving dynamics once an agent's
// collision-partner count grows: it latches an inelastic post-collision
// velocity and heading, then decelerates at a fixed rate every cycle,
// verbatim in semantics to dynamics_collisionImplementation.cpp's
// isActive/numberOfCollisionPartners state machine.
type DynamicsCollision struct {
	meta             component.Meta
	world            *worldstate.World
	agent            *vehicle.Agent
	decelerationMPS2 float64

	numberOfCollisionPartners int
	isActive                  bool
	latch                      collision.Latch
	out                        signal.Dynamics
}

// NewDynamicsCollision constructs a Dynamics_Collision instance bound to
// agent, using decelerationMPS2 as the post-latch deceleration rate
// (default 10.0, matching the original's hardcoded constant).
func NewDynamicsCollision(world *worldstate.World, agent *vehicle.Agent, decelerationMPS2 float64, priority, offsetMS, cycleMS int) *DynamicsCollision {
	return &DynamicsCollision{
		meta: component.Meta{
			Name:         "Dynamics_Collision",
			Capability:   component.CapabilityDynamics,
			Priority:     priority,
			OffsetTimeMS: offsetMS,
			CycleTimeMS:  cycleMS,
		},
		world:            world,
		agent:            agent,
		decelerationMPS2: decelerationMPS2,
		out:              signal.Dynamics{ComponentState: signal.Disabled},
	}
}

func (d *DynamicsCollision) Meta() component.Meta { return d.meta }

func (d *DynamicsCollision) UpdateInput(localLinkId int, data signal.Signal, timeMS int) error {
	return fmt.Errorf("Dynamics_Collision: port %d: %w", localLinkId, simerr.ErrInvalidLink)
}

func (d *DynamicsCollision) Trigger(timeMS int) error {
	if len(d.agent.CollisionPartners) > d.numberOfCollisionPartners {
		d.numberOfCollisionPartners = len(d.agent.CollisionPartners)
		d.isActive = true
		d.out.ComponentState = signal.Acting

		var partners []collision.Partner
		for _, p := range d.agent.CollisionPartners {
			if p.IsFixedObject {
				partners = append(partners, collision.Partner{IsFixedObject: true})
				continue
			}
			partnerAgent, err := d.world.GetAgent(p.AgentID)
			if err != nil {
				continue
			}
			partners = append(partners, collision.Partner{
				WeightKg: partnerAgent.Model.WeightKg,
				Velocity: partnerAgent.State.Velocity,
				Yaw:      partnerAgent.State.Yaw,
			})
		}

		d.latch = collision.Combine(d.agent.Model.WeightKg, d.agent.State.Velocity, d.agent.State.Yaw, partners)
		d.out.Yaw = d.agent.State.Yaw
		d.out.YawRate = d.agent.State.YawRate
	}

	if !d.isActive {
		return nil
	}

	nextLatch, x, y, ds := collision.Step(d.latch, d.decelerationMPS2, d.meta.CycleTimeMS, d.agent.State.PositionX, d.agent.State.PositionY)
	d.latch = nextLatch
	d.out.Velocity = nextLatch.Velocity
	d.out.Acceleration = 0
	d.out.PositionX = x
	d.out.PositionY = y
	d.out.TravelDistance = ds

	agent := d.agent
	out := d.out
	d.world.QueueAgentUpdate(func() {
		agent.State.Velocity = out.Velocity
		agent.State.Acceleration = out.Acceleration
		agent.State.PositionX = out.PositionX
		agent.State.PositionY = out.PositionY
		agent.State.TravelDistance += out.TravelDistance
	})
	return nil
}

func (d *DynamicsCollision) UpdateOutput(localLinkId int, timeMS int) (signal.Signal, error) {
	if localLinkId != PortDynamicsCollisionOutput {
		return nil, fmt.Errorf("Dynamics_Collision: port %d: %w", localLinkId, simerr.ErrInvalidLink)
	}
	return d.out, nil
}

func (d *DynamicsCollision) GetVersion() string { return "1.0.0" }
