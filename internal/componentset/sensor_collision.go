package componentset

import (
	"fmt"
	"math"

	"github.com/banshee-data/pcmsim/internal/component"
	"github.com/banshee-data/pcmsim/internal/roadnet"
	"github.com/banshee-data/pcmsim/internal/signal"
	"github.com/banshee-data/pcmsim/internal/simerr"
	"github.com/banshee-data/pcmsim/internal/vehicle"
	"github.com/banshee-data/pcmsim/internal/worldstate"
)

// SensorCollision detects bounding-box overlap between the bound agent
// and every other in-range agent, plus any static RoadObject on the same
// road, and records a symmetric collision-partner pair (spec §3
// invariant: "Collision sets are symmetric") whenever a new overlap is
// found. Grounded on Components_PCM/Sensor_Collision/sensor_collision.h's
// role feeding Dynamics_Collision.
type SensorCollision struct {
	meta  component.Meta
	world *worldstate.World
	agent *vehicle.Agent

	rangeM float64
}

// NewSensorCollision constructs a Sensor_Collision instance bound to
// agent, checking for overlaps within rangeM of its current position
// each cycle.
func NewSensorCollision(world *worldstate.World, agent *vehicle.Agent, rangeM float64, priority, offsetMS, cycleMS int) *SensorCollision {
	return &SensorCollision{
		meta: component.Meta{
			Name:         "Sensor_Collision",
			Capability:   component.CapabilitySensor,
			Priority:     priority,
			OffsetTimeMS: offsetMS,
			CycleTimeMS:  cycleMS,
		},
		world:  world,
		agent:  agent,
		rangeM: rangeM,
	}
}

func (s *SensorCollision) Meta() component.Meta { return s.meta }

func (s *SensorCollision) UpdateInput(localLinkId int, data signal.Signal, timeMS int) error {
	return fmt.Errorf("Sensor_Collision: port %d: %w", localLinkId, simerr.ErrInvalidLink)
}

func (s *SensorCollision) UpdateOutput(localLinkId int, timeMS int) (signal.Signal, error) {
	return nil, fmt.Errorf("Sensor_Collision: port %d: %w", localLinkId, simerr.ErrInvalidLink)
}

func (s *SensorCollision) Trigger(timeMS int) error {
	if !s.agent.Located.Valid {
		return nil
	}
	own := rectFromAgent(s.agent)

	for _, other := range s.world.GetAgents() {
		if other.ID == s.agent.ID || !other.Located.Valid {
			continue
		}
		if math.Hypot(other.State.PositionX-s.agent.State.PositionX, other.State.PositionY-s.agent.State.PositionY) > s.rangeM {
			continue
		}
		if !rectanglesOverlap(own, rectFromAgent(other)) {
			continue
		}
		a, b := s.agent, other
		s.world.QueueAgentUpdate(func() {
			a.AddCollisionPartner(vehicle.CollisionPartner{AgentID: b.ID})
			b.AddCollisionPartner(vehicle.CollisionPartner{AgentID: a.ID})
		})
	}

	road, err := s.world.Network.RoadByID(s.agent.Located.RoadID)
	if err != nil {
		return nil
	}
	for _, obj := range road.Objects {
		if math.Abs(obj.S-s.agent.Located.MainLaneS) > s.rangeM {
			continue
		}
		refPos, heading, err := road.ReferencePoint(obj.S)
		if err != nil {
			continue
		}
		center := roadnet.Point2D{
			X: refPos.X - obj.T*math.Sin(heading),
			Y: refPos.Y + obj.T*math.Cos(heading),
		}
		objRect := rectFromRoadObject(center, heading, obj)
		if !rectanglesOverlap(own, objRect) {
			continue
		}
		a := s.agent
		s.world.QueueAgentUpdate(func() {
			a.AddCollisionPartner(vehicle.CollisionPartner{IsFixedObject: true})
		})
	}
	return nil
}

func (s *SensorCollision) GetVersion() string { return "1.0.0" }

// rect is an oriented rectangle's four corners in inertial coordinates,
// used by the separating-axis overlap test.
type rect [4]roadnet.Point2D

func rectFromAgent(a *vehicle.Agent) rect {
	corners := a.BoundingBoxCorners()
	var r rect
	for i, c := range corners {
		r[i] = roadnet.Point2D{X: c.X, Y: c.Y}
	}
	return r
}

func rectFromRoadObject(center roadnet.Point2D, roadHeading float64, obj roadnet.RoadObject) rect {
	hdg := roadHeading + obj.Hdg
	halfL, halfW := obj.Length/2, obj.Width/2
	cosH, sinH := math.Cos(hdg), math.Sin(hdg)
	corner := func(along, lateral float64) roadnet.Point2D {
		return roadnet.Point2D{
			X: center.X + along*cosH - lateral*sinH,
			Y: center.Y + along*sinH + lateral*cosH,
		}
	}
	return rect{
		corner(-halfL, -halfW),
		corner(-halfL, halfW),
		corner(halfL, halfW),
		corner(halfL, -halfW),
	}
}

// rectanglesOverlap runs the separating-axis test over each rectangle's
// two distinct edge normals (four candidate axes total); two convex
// quadrilaterals overlap iff no candidate axis separates them.
func rectanglesOverlap(a, b rect) bool {
	axes := []roadnet.Point2D{
		edgeNormal(a[0], a[1]),
		edgeNormal(a[1], a[2]),
		edgeNormal(b[0], b[1]),
		edgeNormal(b[1], b[2]),
	}
	for _, axis := range axes {
		aMin, aMax := projectRect(a, axis)
		bMin, bMax := projectRect(b, axis)
		if aMax < bMin || bMax < aMin {
			return false
		}
	}
	return true
}

func edgeNormal(p, q roadnet.Point2D) roadnet.Point2D {
	dx, dy := q.X-p.X, q.Y-p.Y
	return roadnet.Point2D{X: -dy, Y: dx}
}

func projectRect(r rect, axis roadnet.Point2D) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, p := range r {
		d := p.X*axis.X + p.Y*axis.Y
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return min, max
}
