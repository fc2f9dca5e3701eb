// Package vehicle defines the Agent model: identity, vehicle-model
// parameters, dynamic state, and the "located" view produced by the
// localization engine (spec §3). Grounded on Interfaces/worldObjectInterface.h
// (GetPositionX/Y, GetWidth/Length/Height, GetYaw, GetBoundingBox2D,
// GetDistanceReferencePointToLeadingEdge, GetLaneRemainder,
// GetBoundaryPoint) generalized from a read-only OSI adapter interface
// into the concrete mutable struct this engine schedules directly.
package vehicle

import "math"

// Category distinguishes the three agent roles spec §3 names: the single
// controllable Ego, scripted Scenario agents whose spawn must never be
// rejected, and ordinary Common traffic.
type Category int

const (
	CategoryEgo Category = iota
	CategoryScenario
	CategoryCommon
)

func (c Category) String() string {
	switch c {
	case CategoryEgo:
		return "Ego"
	case CategoryScenario:
		return "Scenario"
	case CategoryCommon:
		return "Common"
	default:
		return "Unknown"
	}
}

// ModelParameters is the static vehicle-model parameter block (spec §3).
type ModelParameters struct {
	Length                         float64
	Width                          float64
	Height                         float64
	Wheelbase                      float64
	WeightKg                       float64
	MomentOfInertiaYaw             float64
	MaxVelocityMPS                 float64
	FrictionCoefficient            float64
	DistanceReferencePointToLeadingEdge float64
}

// IndicatorState is the turn-indicator state of an agent.
type IndicatorState int

const (
	IndicatorOff IndicatorState = iota
	IndicatorLeft
	IndicatorRight
	IndicatorWarn
)

// DynamicState is an agent's mutable kinematic and actuator state for the
// current cycle (spec §3).
type DynamicState struct {
	PositionX          float64
	PositionY          float64
	Yaw                float64
	Velocity           float64
	Acceleration       float64
	YawRate            float64
	SteeringWheelAngle float64
	Gear               int
	AccPedal           float64
	BrakePedal         float64
	Indicator          IndicatorState
	BrakeLightOn       bool
	HeadLightOn        bool
	TravelDistance     float64
}

// BoundaryPoint is a road-coordinate point on an agent's bounding box
// that touches a lane edge, produced by localization.
type BoundaryPoint struct {
	RoadID string
	LaneID int
	S      float64
	T      float64
}

// Located is the view the localization engine attaches to an agent after
// a successful Locate() call (spec §4, C2).
type Located struct {
	RoadID             string
	MainLaneID         int
	MainLaneS          float64
	MainLaneT          float64
	Heading            float64
	FrontLaneIDs       []int // lanes hit by the front-edge samples
	TouchedLaneIDs      []int // every lane intersected, excluding MainLaneID
	LeftBoundaryPoint  BoundaryPoint
	RightBoundaryPoint BoundaryPoint
	LeftRemainder      float64
	RightRemainder     float64
	IsCrossingLanes    bool
	IsLeavingWorld     bool
	Valid              bool
}

// CollisionPartner records one counterpart an agent has collided with.
// Collision sets are symmetric: if A lists B as a partner, B lists A.
type CollisionPartner struct {
	AgentID       int64
	IsFixedObject bool
}

// Agent is a simulated mobile entity: identity, static model parameters,
// dynamic state, and (once located) a Located view.
type Agent struct {
	ID                int64
	Category          Category
	Model             ModelParameters
	State             DynamicState
	Located           Located
	CollisionPartners []CollisionPartner
}

// AddCollisionPartner appends partner if not already present, keeping
// the collision-partner list append-only and duplicate-free for the
// lifetime of the agent (spec §3 invariant: collision sets grow
// monotonically within a run).
func (a *Agent) AddCollisionPartner(partner CollisionPartner) {
	for _, p := range a.CollisionPartners {
		if p.AgentID == partner.AgentID && p.IsFixedObject == partner.IsFixedObject {
			return
		}
	}
	a.CollisionPartners = append(a.CollisionPartners, partner)
}

// NewAgent constructs an agent in its initial, unlocated state.
func NewAgent(id int64, category Category, model ModelParameters, initial DynamicState) *Agent {
	return &Agent{ID: id, Category: category, Model: model, State: initial}
}

// BoundingBoxCorners returns the four corners of the agent's oriented
// bounding box in inertial coordinates, ordered rear-right, rear-left,
// front-left, front-right — the corner ordering the localization
// engine's sampling (corners plus edge points no more than the sampling
// width apart) builds on. The agent's position is
// its reference point; DistanceReferencePointToLeadingEdge offsets the
// box's front edge from it, mirroring GetDistanceReferencePointToLeadingEdge.
func (a *Agent) BoundingBoxCorners() [4]Point2D {
	halfWidth := a.Model.Width / 2
	rearDist := a.Model.DistanceReferencePointToLeadingEdge - a.Model.Length
	frontDist := a.Model.DistanceReferencePointToLeadingEdge

	cosY, sinY := math.Cos(a.State.Yaw), math.Sin(a.State.Yaw)
	corner := func(along, lateral float64) Point2D {
		return Point2D{
			X: a.State.PositionX + along*cosY - lateral*sinY,
			Y: a.State.PositionY + along*sinY + lateral*cosY,
		}
	}
	return [4]Point2D{
		corner(rearDist, -halfWidth),  // rear-right
		corner(rearDist, halfWidth),   // rear-left
		corner(frontDist, halfWidth),  // front-left
		corner(frontDist, -halfWidth), // front-right
	}
}

// Point2D is a local alias to avoid an import cycle with roadnet; the
// localization package converts between roadnet.Point2D and this type at
// its boundary.
type Point2D struct {
	X, Y float64
}

// IsValid reports whether the agent should remain in the world: it must
// have a successful location and a velocity that has not gone negative
// (the collision/braking models clamp at zero rather than reversing).
func (a *Agent) IsValid() bool {
	return a.Located.Valid && a.State.Velocity >= 0
}
