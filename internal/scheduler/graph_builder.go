package scheduler

import (
	"math"

	"github.com/banshee-data/pcmsim/internal/collision"
	"github.com/banshee-data/pcmsim/internal/component"
	"github.com/banshee-data/pcmsim/internal/componentset"
	"github.com/banshee-data/pcmsim/internal/config"
	"github.com/banshee-data/pcmsim/internal/graph"
	"github.com/banshee-data/pcmsim/internal/vehicle"
	"github.com/banshee-data/pcmsim/internal/worldstate"
)

// GraphBuilder constructs and wires one agent's per-cycle component
// graph. Scenario authors may supply their own builder for bespoke
// agents; DefaultGraphBuilder below wires the reference component
// catalog (SPEC_FULL.md §4.3 expansion).
type GraphBuilder func(world *worldstate.World, agent *vehicle.Agent, cycleTimeMS int) (*graph.Graph, error)

// collisionSensorRangeM bounds how far Sensor_Collision looks for
// overlapping agents and road objects each cycle; generous relative to a
// single vehicle's footprint so an overlap is never missed between
// cycles at highway speed.
const collisionSensorRangeM = 50.0

// DefaultGraphBuilder wires the reference component catalog onto agent:
// Sensor_Driver/Sensor_Distance feed Algorithm_AgentFollower, which
// drives Dynamics_Longitudinal_Basic, which drives
// Dynamics_RegularDriving (or cedes to Dynamics_Collision once latched,
// per the guard in Dynamics_RegularDriving.Trigger); the brake light
// reacts to RegularDriving's acceleration output. Sensor_Collision and
// Dynamics_Collision read/write agent.CollisionPartners directly, with
// no graph link: Sensor_Collision has no signal port, and
// Dynamics_Collision's output port is left unconnected. Dynamics_Collision
// decelerates at the magnitude of params' collision deceleration.
func DefaultGraphBuilder(params *config.SimParams) GraphBuilder {
	deceleration := collision.DefaultDecelerationMPS2
	if params != nil {
		deceleration = math.Abs(params.GetCollisionDecelerationMPS2())
	}
	return func(world *worldstate.World, agent *vehicle.Agent, cycleTimeMS int) (*graph.Graph, error) {
		g := graph.NewGraph(agent.ID)

		components := []component.Component{
			componentset.NewSensorDriver(agent, componentset.PriorityEgoSensor, 0, cycleTimeMS),
			componentset.NewSensorDistance(world, agent, componentset.PrioritySensorCollision, 0, cycleTimeMS),
			componentset.NewAlgorithmAgentFollower(componentset.DefaultAgentFollowerParams(), componentset.PriorityAlgorithmSelector, 0, cycleTimeMS),
			componentset.NewDynamicsLongitudinalBasic(componentset.DefaultLongitudinalBasicParams(), componentset.PriorityDynamics, 0, cycleTimeMS),
			componentset.NewDynamicsRegularDriving(world, agent, componentset.PriorityDynamics, 0, cycleTimeMS),
			componentset.NewSensorCollision(world, agent, collisionSensorRangeM, componentset.PrioritySensorCollision, 0, cycleTimeMS),
			componentset.NewDynamicsCollision(world, agent, deceleration, componentset.PriorityDynamicsCollision, 0, cycleTimeMS),
			componentset.NewActionBrakeLightBasic(world, agent, componentset.PriorityDynamics, 0, cycleTimeMS),
		}
		for _, c := range components {
			if err := g.AddComponent(c); err != nil {
				return nil, err
			}
		}

		if err := g.Connect("Sensor_Distance", componentset.PortSensorDistanceOutput, "Algorithm_AgentFollower", componentset.PortAgentFollowerGapInput); err != nil {
			return nil, err
		}
		if err := g.Connect("Sensor_Driver", componentset.PortSensorDriverOutput, "Algorithm_AgentFollower", componentset.PortAgentFollowerDynamicsInput); err != nil {
			return nil, err
		}
		if err := g.Connect("Algorithm_AgentFollower", componentset.PortAgentFollowerOutput, "Dynamics_Longitudinal_Basic", componentset.PortLongitudinalBasicInput); err != nil {
			return nil, err
		}
		if err := g.Connect("Dynamics_Longitudinal_Basic", componentset.PortLongitudinalBasicOutput, "Dynamics_RegularDriving", componentset.PortRegularDrivingAccelerationInput); err != nil {
			return nil, err
		}
		if err := g.Connect("Dynamics_RegularDriving", componentset.PortRegularDrivingOutput, "Action_BrakeLight_Basic", componentset.PortBrakeLightInput); err != nil {
			return nil, err
		}

		return g, nil
	}
}
