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

// PortSensorDistanceOutput carries the gap to the nearest object ahead
// in the agent's own lane, in meters (+Inf if none), matching
// Components/Sensor_Distance/sensor_distance.h's role in the catalog
// (spec §4.3 expansion: "nearest-object-ahead distance").
const PortSensorDistanceOutput = 0

// SensorDistance queries the world once per cycle for the closest agent
// ahead in the bound agent's current lane and mints the longitudinal gap
// between the two reference points.
type SensorDistance struct {
	meta  component.Meta
	world *worldstate.World
	agent *vehicle.Agent
}

// NewSensorDistance constructs a Sensor_Distance instance.
func NewSensorDistance(world *worldstate.World, agent *vehicle.Agent, priority, offsetMS, cycleMS int) *SensorDistance {
	return &SensorDistance{
		meta: component.Meta{
			Name:         "Sensor_Distance",
			Capability:   component.CapabilitySensor,
			Priority:     priority,
			OffsetTimeMS: offsetMS,
			CycleTimeMS:  cycleMS,
		},
		world: world,
		agent: agent,
	}
}

func (s *SensorDistance) Meta() component.Meta { return s.meta }

func (s *SensorDistance) UpdateOutput(localLinkId int, timeMS int) (signal.Signal, error) {
	if localLinkId != PortSensorDistanceOutput {
		return nil, fmt.Errorf("Sensor_Distance: port %d: %w", localLinkId, simerr.ErrInvalidLink)
	}
	if !s.agent.Located.Valid {
		return signal.ScalarDouble{Value: math.Inf(1)}, nil
	}
	ahead := s.world.NextObjectInLane(s.agent.Located.RoadID, s.agent.Located.MainLaneID, s.agent.Located.MainLaneS)
	if ahead == nil {
		return signal.ScalarDouble{Value: math.Inf(1)}, nil
	}
	gap := ahead.Located.MainLaneS - s.agent.Located.MainLaneS
	return signal.ScalarDouble{Value: gap}, nil
}

func (s *SensorDistance) UpdateInput(localLinkId int, data signal.Signal, timeMS int) error {
	return fmt.Errorf("Sensor_Distance: port %d: %w", localLinkId, simerr.ErrInvalidLink)
}

func (s *SensorDistance) Trigger(timeMS int) error { return nil }

func (s *SensorDistance) GetVersion() string { return "1.0.0" }
