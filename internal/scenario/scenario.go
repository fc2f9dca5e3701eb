// Package scenario loads the one input OpenDRIVE parsing itself is
// explicitly not: a small JSON description of the road network and the
// initial agent blueprints cmd/pcmsim hands to the scheduler. It plays the
// role the teacher's fixture/config loaders play for the radar binary —
// enough structure to drive a real run without pulling in a full
// OpenDRIVE importer, which spec.md's Non-goals rule out of this core.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/banshee-data/pcmsim/internal/roadnet"
	"github.com/banshee-data/pcmsim/internal/spawn"
	"github.com/banshee-data/pcmsim/internal/units"
	"github.com/banshee-data/pcmsim/internal/vehicle"
)

// Scenario is a fully-built road network plus the agent blueprints to
// queue for spawn admission at t=0.
type Scenario struct {
	Network    *roadnet.Network
	Blueprints []*spawn.Blueprint
}

// roadDoc, laneDoc and blueprintDoc are the on-disk JSON shapes; they are
// translated into roadnet/spawn/vehicle types by Load so the rest of the
// core never depends on the file format.
type roadDoc struct {
	ID       string    `json:"id"`
	LengthM  float64   `json:"length_m"`
	HeadingR float64   `json:"heading_rad"`
	Lanes    []laneDoc `json:"lanes"`
}

type laneDoc struct {
	ID     int     `json:"id"`
	Type   string  `json:"type"`
	WidthM float64 `json:"width_m"`
}

type blueprintDoc struct {
	RoadID       string  `json:"road_id"`
	LaneID       int     `json:"lane_id"`
	S            float64 `json:"s"`
	Velocity     float64 `json:"velocity"`
	VelocityUnit string  `json:"velocity_unit"` // mps|mph|kmph|kph, default mps
	YawRad       float64 `json:"yaw_rad"`
	Category     string  `json:"category"`
	Model        struct {
		LengthM             float64 `json:"length_m"`
		WidthM              float64 `json:"width_m"`
		HeightM             float64 `json:"height_m"`
		WheelbaseM          float64 `json:"wheelbase_m"`
		Weight              float64 `json:"weight"`
		WeightUnit          string  `json:"weight_unit"` // kg|t, default kg
		MaxVelocity         float64 `json:"max_velocity"`
		MaxVelocityUnit     string  `json:"max_velocity_unit"` // mps|mph|kmph|kph, default mps
		FrictionCoefficient float64 `json:"friction_coefficient"`
		FrontOverhangM      float64 `json:"front_overhang_m"`
	} `json:"model"`
}

type document struct {
	Roads      []roadDoc      `json:"roads"`
	Blueprints []blueprintDoc `json:"blueprints"`
}

// Load reads a scenario JSON file and builds a Network and blueprint list
// from it. Every road is a single straight Line segment starting at the
// origin along its heading, with one lane section spanning its whole
// length — sufficient for the reconstruction/validation scenarios spec.md
// §8 exercises; curved roads are assembled programmatically via
// internal/roadnet's Arc/Spiral/CubicPoly types by callers that need them,
// bypassing this loader.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("scenario: parse %s: %w", path, err)
	}

	network := roadnet.NewNetwork()
	for _, rd := range doc.Roads {
		road := roadnet.NewRoad(rd.ID)
		road.AddGeometry(roadnet.NewLine(0, 0, 0, rd.HeadingR, rd.LengthM))

		lanes := make(map[int]*roadnet.Lane, len(rd.Lanes))
		for _, ld := range rd.Lanes {
			lanes[ld.ID] = &roadnet.Lane{
				ID:   ld.ID,
				Type: laneTypeFromString(ld.Type),
				Widths: []roadnet.WidthPolynomial{
					{A: ld.WidthM},
				},
			}
		}
		road.AddLaneSection(&roadnet.LaneSection{Start: 0, Lanes: lanes})

		if err := network.AddRoad(road); err != nil {
			return nil, fmt.Errorf("scenario: add road %s: %w", rd.ID, err)
		}
	}

	blueprints := make([]*spawn.Blueprint, 0, len(doc.Blueprints))
	for _, bd := range doc.Blueprints {
		road, err := network.RoadByID(bd.RoadID)
		if err != nil {
			return nil, fmt.Errorf("scenario: blueprint references unknown road %s: %w", bd.RoadID, err)
		}
		pos, hdg, err := road.LanePoint(bd.S, bd.LaneID)
		if err != nil {
			return nil, fmt.Errorf("scenario: blueprint on road %s at s=%g: %w", bd.RoadID, bd.S, err)
		}
		yaw := bd.YawRad
		if yaw == 0 {
			yaw = hdg
		}

		blueprints = append(blueprints, &spawn.Blueprint{
			RoadID:    bd.RoadID,
			LaneID:    bd.LaneID,
			S:         bd.S,
			Velocity:  units.VelocityToSI(bd.Velocity, defaultUnit(bd.VelocityUnit, units.MPS)),
			YawAngle:  yaw,
			PositionX: pos.X,
			PositionY: pos.Y,
			Category:  categoryFromString(bd.Category),
			Model: vehicle.ModelParameters{
				Length:                              bd.Model.LengthM,
				Width:                                bd.Model.WidthM,
				Height:                               bd.Model.HeightM,
				Wheelbase:                            bd.Model.WheelbaseM,
				WeightKg:                             units.MassToSI(bd.Model.Weight, defaultUnit(bd.Model.WeightUnit, units.Kilogram)),
				MaxVelocityMPS:                       units.VelocityToSI(bd.Model.MaxVelocity, defaultUnit(bd.Model.MaxVelocityUnit, units.MPS)),
				FrictionCoefficient:                  bd.Model.FrictionCoefficient,
				DistanceReferencePointToLeadingEdge:  bd.Model.FrontOverhangM,
			},
		})
	}

	return &Scenario{Network: network, Blueprints: blueprints}, nil
}

func laneTypeFromString(s string) roadnet.LaneType {
	switch s {
	case "driving":
		return roadnet.LaneTypeDriving
	case "shoulder":
		return roadnet.LaneTypeShoulder
	case "biking":
		return roadnet.LaneTypeBiking
	case "sidewalk":
		return roadnet.LaneTypeSidewalk
	case "stop":
		return roadnet.LaneTypeStop
	default:
		return roadnet.LaneTypeNone
	}
}

// defaultUnit returns unit if non-empty, otherwise fallback; scenario
// files may omit a quantity's unit to mean the SI default.
func defaultUnit(unit, fallback string) string {
	if unit == "" {
		return fallback
	}
	return unit
}

func categoryFromString(s string) vehicle.Category {
	switch s {
	case "ego":
		return vehicle.CategoryEgo
	case "scenario":
		return vehicle.CategoryScenario
	default:
		return vehicle.CategoryCommon
	}
}

// Default returns a minimal built-in scenario — a 2km straight road, one
// Ego agent trailing one slower Common agent — so the binary produces a
// meaningful run with no scenario file supplied.
func Default() *Scenario {
	network := roadnet.NewNetwork()
	road := roadnet.NewRoad("R1")
	road.AddGeometry(roadnet.NewLine(0, 0, 0, 0, 2000))
	road.AddLaneSection(&roadnet.LaneSection{
		Start: 0,
		Lanes: map[int]*roadnet.Lane{
			0:  {ID: 0, Type: roadnet.LaneTypeNone},
			-1: {ID: -1, Type: roadnet.LaneTypeDriving, Widths: []roadnet.WidthPolynomial{{A: 3.5}}},
		},
	})
	_ = network.AddRoad(road)

	egoModel := vehicle.ModelParameters{Length: 4.5, Width: 1.8, Height: 1.5, Wheelbase: 2.7, WeightKg: 1500, MaxVelocityMPS: 60, FrictionCoefficient: 0.8, DistanceReferencePointToLeadingEdge: 3.6}
	leadModel := egoModel

	return &Scenario{
		Network: network,
		Blueprints: []*spawn.Blueprint{
			{RoadID: "R1", LaneID: -1, S: 0, Velocity: 20, PositionX: 0, PositionY: -1.75, Model: egoModel, Category: vehicle.CategoryEgo},
			{RoadID: "R1", LaneID: -1, S: 60, Velocity: 15, PositionX: 60, PositionY: -1.75, Model: leadModel, Category: vehicle.CategoryCommon},
		},
	}
}
