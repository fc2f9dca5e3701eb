package componentset

import (
	"fmt"

	"github.com/banshee-data/pcmsim/internal/component"
	"github.com/banshee-data/pcmsim/internal/signal"
	"github.com/banshee-data/pcmsim/internal/simerr"
	"github.com/banshee-data/pcmsim/internal/vehicle"
)

// PortSensorDriverOutput is the only output port: the driver-perceived
// dynamics state, a straight passthrough of the agent's own current
// DynamicState (grounded on Components/Sensor_Driver/sensor_driver.h's
// plug-in contract; the original ships no body in the retrieved source,
// so behavior follows spec §4.3's "driver-perceived state passthrough"
// description).
const PortSensorDriverOutput = 0

// SensorDriver mints the agent's own kinematic state every cycle so
// downstream algorithm components can read it without reaching into the
// agent directly.
type SensorDriver struct {
	meta  component.Meta
	agent *vehicle.Agent
}

// NewSensorDriver constructs a Sensor_Driver instance bound to agent.
func NewSensorDriver(agent *vehicle.Agent, priority, offsetMS, cycleMS int) *SensorDriver {
	return &SensorDriver{
		meta: component.Meta{
			Name:         "Sensor_Driver",
			Capability:   component.CapabilitySensor,
			Priority:     priority,
			OffsetTimeMS: offsetMS,
			CycleTimeMS:  cycleMS,
		},
		agent: agent,
	}
}

func (s *SensorDriver) Meta() component.Meta { return s.meta }

func (s *SensorDriver) UpdateOutput(localLinkId int, timeMS int) (signal.Signal, error) {
	if localLinkId != PortSensorDriverOutput {
		return nil, fmt.Errorf("Sensor_Driver: port %d: %w", localLinkId, simerr.ErrInvalidLink)
	}
	st := s.agent.State
	return signal.Dynamics{
		ComponentState:     signal.Acting,
		Acceleration:       st.Acceleration,
		Velocity:           st.Velocity,
		PositionX:          st.PositionX,
		PositionY:          st.PositionY,
		Yaw:                st.Yaw,
		YawRate:             st.YawRate,
		SteeringWheelAngle: st.SteeringWheelAngle,
	}, nil
}

func (s *SensorDriver) UpdateInput(localLinkId int, data signal.Signal, timeMS int) error {
	return fmt.Errorf("Sensor_Driver: port %d: %w", localLinkId, simerr.ErrInvalidLink)
}

func (s *SensorDriver) Trigger(timeMS int) error { return nil }

func (s *SensorDriver) GetVersion() string { return "1.0.0" }
