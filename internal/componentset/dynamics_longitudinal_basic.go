package componentset

import (
	"fmt"

	"github.com/banshee-data/pcmsim/internal/component"
	"github.com/banshee-data/pcmsim/internal/signal"
	"github.com/banshee-data/pcmsim/internal/simerr"
)

// Port ids for Dynamics_Longitudinal_Basic (grounded on
// Components/Dynamics_Longitudinal_Basic/dynamics_longitudinal_basic.h's
// role in the catalog: "pedal/gear → acceleration").
const (
	PortLongitudinalBasicInput  = 0
	PortLongitudinalBasicOutput = 0
)

// LongitudinalBasicParams are the pedal-to-acceleration conversion
// factors: full accelerator pedal yields MaxAccelMPS2, full brake pedal
// yields -MaxDecelMPS2.
type LongitudinalBasicParams struct {
	MaxAccelMPS2 float64
	MaxDecelMPS2 float64
}

// DefaultLongitudinalBasicParams mirrors a mid-size passenger car: up to
// 3 m/s^2 of acceleration, up to 8 m/s^2 of braking.
func DefaultLongitudinalBasicParams() LongitudinalBasicParams {
	return LongitudinalBasicParams{MaxAccelMPS2: 3.0, MaxDecelMPS2: 8.0}
}

// DynamicsLongitudinalBasic converts a commanded accelerator/brake pedal
// pair into a longitudinal acceleration signal every cycle.
type DynamicsLongitudinalBasic struct {
	meta   component.Meta
	params LongitudinalBasicParams

	command      signal.Longitudinal
	acceleration float64
}

// NewDynamicsLongitudinalBasic constructs a Dynamics_Longitudinal_Basic
// instance with the given pedal-to-acceleration tuning.
func NewDynamicsLongitudinalBasic(params LongitudinalBasicParams, priority, offsetMS, cycleMS int) *DynamicsLongitudinalBasic {
	return &DynamicsLongitudinalBasic{
		meta: component.Meta{
			Name:         "Dynamics_Longitudinal_Basic",
			Capability:   component.CapabilityDynamics,
			Priority:     priority,
			OffsetTimeMS: offsetMS,
			CycleTimeMS:  cycleMS,
		},
		params: params,
	}
}

func (d *DynamicsLongitudinalBasic) Meta() component.Meta { return d.meta }

func (d *DynamicsLongitudinalBasic) UpdateInput(localLinkId int, data signal.Signal, timeMS int) error {
	if localLinkId != PortLongitudinalBasicInput {
		return fmt.Errorf("Dynamics_Longitudinal_Basic: port %d: %w", localLinkId, simerr.ErrInvalidLink)
	}
	cmd, ok := data.(signal.Longitudinal)
	if !ok {
		return fmt.Errorf("Dynamics_Longitudinal_Basic: port %d: %w", localLinkId, simerr.ErrInvalidSignalType)
	}
	d.command = cmd
	return nil
}

func (d *DynamicsLongitudinalBasic) Trigger(timeMS int) error {
	d.acceleration = d.command.AccPedal*d.params.MaxAccelMPS2 - d.command.BrakePedal*d.params.MaxDecelMPS2
	return nil
}

func (d *DynamicsLongitudinalBasic) UpdateOutput(localLinkId int, timeMS int) (signal.Signal, error) {
	if localLinkId != PortLongitudinalBasicOutput {
		return nil, fmt.Errorf("Dynamics_Longitudinal_Basic: port %d: %w", localLinkId, simerr.ErrInvalidLink)
	}
	return signal.Dynamics{ComponentState: signal.Acting, Acceleration: d.acceleration}, nil
}

func (d *DynamicsLongitudinalBasic) GetVersion() string { return "1.0.0" }
