// Package spawn implements Spawn Admission (C5): the decision of whether,
// when, and at what velocity a candidate agent blueprint may be added to
// the world without creating an unavoidable collision. Grounded on
// original_source/.../CoreFramework/OpenPassSlave/scheduler/spawnControl.cpp,
// whose AdaptVelocityForAgentBlueprint, CalculateHoldbackTime,
// drivingCorridorDoesNotOverlap and the free function WillCrash (originally
// TrafficHelperFunctions::WillCrash) are reproduced here with the same
// constants and control flow, generalized from boost::geometry polygons to
// a small hand-rolled oriented-rectangle overlap test using gonum/mat for
// the corner rotations and gonum/floats for the minimum-gap search (gonum
// has no 2D polygon primitives of its own; see DESIGN.md).
package spawn

import (
	"math"

	"github.com/banshee-data/pcmsim/internal/config"
	"github.com/banshee-data/pcmsim/internal/vehicle"
	"github.com/banshee-data/pcmsim/internal/worldstate"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Blueprint describes a candidate agent awaiting admission: its proposed
// lane position, velocity, heading and vehicle model. S is the spawn
// anchor's arc-length position (spawnControl.cpp's spawnParameter.distance);
// the vehicle's actual front edge sits at S+Model.DistanceReferencePointToLeadingEdge.
type Blueprint struct {
	RoadID    string
	LaneID    int
	S         float64
	Velocity  float64
	YawAngle  float64
	PositionX float64
	PositionY float64
	Model     vehicle.ModelParameters
	Category  vehicle.Category
}

// IsMandatory reports whether the blueprint belongs to the Ego or a
// Scenario agent, both of which bypass admission control (spec §4.5
// point 3): rejecting them aborts the run with IncompleteScenario rather
// than simply skipping the spawn.
func (b *Blueprint) IsMandatory() bool {
	return b.Category == vehicle.CategoryEgo || b.Category == vehicle.CategoryScenario
}

// frontEdgeS is the blueprint's front-bumper arc-length position, matching
// spawnParameter.distance + distanceReferencePointToLeadingEdge.
func (b *Blueprint) frontEdgeS() float64 {
	return b.S + b.Model.DistanceReferencePointToLeadingEdge
}

// fullBrakingDistance returns v·ttb + v²/(2·|a|), the distance a vehicle at
// velocity v needs to come to a full stop under deceleration a (negative).
func fullBrakingDistance(v, ttb, a float64) float64 {
	return v*ttb + v*v/(2*math.Abs(a))
}

// opponentFrontS and opponentRearS give an agent's front/rear bumper
// arc-length positions from its located main-lane s, mirroring
// WorldObjectInterface::GetDistanceToStartOfRoad(Front/Rear).
func opponentFrontS(a *vehicle.Agent) float64 {
	return a.Located.MainLaneS + a.Model.DistanceReferencePointToLeadingEdge
}

func opponentRearS(a *vehicle.Agent) float64 {
	return a.Located.MainLaneS - (a.Model.Length - a.Model.DistanceReferencePointToLeadingEdge)
}

// AdaptVelocityForAgentBlueprint reduces blueprint.Velocity in place, in
// GetVelocityReductionStepMPS decrements, until the candidate no longer
// collides with whatever occupies its spawning lane ahead of it, or until
// the free lane is provably too short to ever admit it (in which case it
// returns false: the caller should discard the blueprint). Grounded
// verbatim on SpawnControl::AdaptVelocityForAgentBlueprint.
func AdaptVelocityForAgentBlueprint(world *worldstate.World, bp *Blueprint, params *config.SimParams) bool {
	ttb := params.GetTimeToBrakeSec()
	minSpawningDistance := params.GetMinSpawningDistanceM()
	aEgo := params.GetAssumedBrakeAccelerationEgo()
	aFront := params.GetAssumedFrontDeceleration()
	step := params.GetVelocityReductionStepMPS()

	spawningDistance := bp.frontEdgeS()
	vEgo := bp.Velocity
	brakingDistance := fullBrakingDistance(vEgo, ttb, aEgo)

	opponentSearchS := spawningDistance - bp.Model.Length
	maxSearchS := spawningDistance + brakingDistance

	for opponentSearchS <= maxSearchS {
		opponent := world.NextObjectInLane(bp.RoadID, bp.LaneID, opponentSearchS)
		if opponent == nil {
			freeSpace := world.DistanceToEndOfDrivingLane(bp.RoadID, spawningDistance)

			if freeSpace <= minSpawningDistance {
				return false
			}

			if freeSpace < brakingDistance {
				for vEgo > 0 && WillCrash(freeSpace, vEgo, aEgo, 0, 0, ttb) {
					vEgo -= step
				}
			}

			bp.Velocity = math.Max(0, vEgo)
			return true
		}

		vFront := opponent.State.Velocity
		freeSpace := opponentRearS(opponent) - spawningDistance

		if freeSpace <= minSpawningDistance {
			return false
		}

		if !drivingCorridorDoesNotOverlap(ttb, vFront, aFront, brakingDistance, bp, opponent) &&
			WillCrash(freeSpace, vEgo, aEgo, vFront, aFront, ttb) {
			for vEgo > 0 && WillCrash(freeSpace, vEgo, aEgo, vFront, aFront, ttb) {
				vEgo -= step
			}
			bp.Velocity = math.Max(0, vEgo)
		}

		opponentSearchS = opponentFrontS(opponent)
	}

	return true
}

// CalculateHoldbackTime returns the delay, in milliseconds, by which the
// blueprint's spawn should be postponed so that its eventual admission
// does not require a velocity cut: 0 if no hold-back is needed, a positive
// multiple of cycleTimeMS up to GetMaxHoldbackTimeMs if one is, or -1 if
// hold-back cannot help (no opponent and insufficient lane length ahead,
// a stationary opponent, or free space at or below the minimum spawning
// distance) and the caller should fall back to
// AdaptVelocityForAgentBlueprint. A moving opponent that does not clear
// within the ceiling yields the ceiling itself, not -1. Grounded verbatim on
// SpawnControl::CalculateHoldbackTime.
func CalculateHoldbackTime(world *worldstate.World, bp *Blueprint, cycleTimeMS int64, params *config.SimParams) int64 {
	ttb := params.GetTimeToBrakeSec()
	minSpawningDistance := params.GetMinSpawningDistanceM()
	aEgo := params.GetAssumedBrakeAccelerationEgo()
	aFront := params.GetAssumedFrontDeceleration()
	maxHoldbackTime := params.GetMaxHoldbackTimeMs()

	spawningDistance := bp.frontEdgeS()
	vEgo := bp.Velocity
	brakingDistance := fullBrakingDistance(vEgo, ttb, aEgo)

	opponentSearchS := spawningDistance - bp.Model.Length
	maxSearchS := spawningDistance + brakingDistance

	var holdbackTime int64

	for opponentSearchS <= maxSearchS {
		opponent := world.NextObjectInLane(bp.RoadID, bp.LaneID, opponentSearchS)
		if opponent == nil {
			if brakingDistance > world.DistanceToEndOfDrivingLane(bp.RoadID, spawningDistance) {
				return -1
			}
			return holdbackTime
		}

		freeSpace := opponentRearS(opponent) - spawningDistance
		if freeSpace > brakingDistance {
			return holdbackTime
		}

		vFront := opponent.State.Velocity
		if vFront == 0 {
			return -1
		}
		if freeSpace <= minSpawningDistance {
			return -1
		}

		if !drivingCorridorDoesNotOverlap(ttb, vFront, aFront, brakingDistance, bp, opponent) &&
			WillCrash(freeSpace, vEgo, aEgo, vFront, aFront, ttb) {

			predicted := freeSpace + float64(holdbackTime)/1000.0*vFront
			for WillCrash(predicted, vEgo, aEgo, vFront, aFront, ttb) && holdbackTime < maxHoldbackTime {
				holdbackTime += cycleTimeMS
				predicted = freeSpace + float64(holdbackTime)/1000.0*vFront
			}
		}

		opponentSearchS = opponentFrontS(opponent)
	}

	return holdbackTime
}

// position returns a vehicle's displacement at time t under constant
// acceleration a from initial velocity v, clamped at the moment its
// velocity reaches zero (it does not reverse): x(τ) = v·τ + ½·a·τ² while
// v + a·τ ≥ 0, constant thereafter.
func position(v, a, t float64) float64 {
	st := stopTime(v, a)
	if t > st {
		t = st
	}
	return v*t + 0.5*a*t*t
}

// stopTime returns the time at which a vehicle moving at v under
// deceleration a (a < 0) reaches zero velocity; 0 if it is already
// stopped, +Inf if it never decelerates to a stop (a ≥ 0).
func stopTime(v, a float64) float64 {
	if v <= 0 {
		return 0
	}
	if a >= 0 {
		return math.Inf(1)
	}
	return -v / a
}

// willCrashWindowSamples bounds the resolution of WillCrash's minimum-gap
// search; the gap function is piecewise quadratic with at most two
// breakpoints, so a dense regular sampling converges well within the
// tolerances used by the admission decision (spec §8's spawn boundary
// tests are expressed in meters and hold-back milliseconds, not
// sub-millisecond timing).
const willCrashWindowSamples = 512

// WillCrash reports whether, starting from a gap of d at τ=0, the ego
// vehicle (velocity vE, deceleration aE) and the vehicle ahead (velocity
// vF, deceleration aF) ever reach zero separation within
// τ ∈ [0, ttb+stopTime], where each follows position()'s clamped
// quadratic motion. Grounded on TrafficHelperFunctions::WillCrash as
// invoked throughout spawnControl.cpp.
func WillCrash(d, vE, aE, vF, aF, ttb float64) bool {
	window := ttb + stopTime(vE, aE)
	if sf := stopTime(vF, aF); !math.IsInf(sf, 1) && ttb+sf > window {
		window = ttb + sf
	}
	if math.IsInf(window, 1) {
		window = ttb + 60
	}
	if window <= 0 {
		return d <= 0
	}

	gaps := make([]float64, willCrashWindowSamples+1)
	for i := range gaps {
		t := window * float64(i) / float64(willCrashWindowSamples)
		gaps[i] = d + position(vF, aF, t) - position(vE, aE, t)
	}
	return floats.Min(gaps) <= 0
}

// point2D is a local, minimal 2D point; spawn keeps its own to avoid a
// dependency on roadnet or componentset for a four-corner rectangle test.
type point2D struct{ X, Y float64 }

type rectangle [4]point2D

// buildRectangle returns a vehicle's driving-corridor rectangle: width
// equal to the vehicle's own width, extending from its rear edge to
// frontEdge+corridorLength, rotated by yaw and translated to (posX, posY).
func buildRectangle(rearDist, frontDist, corridorLength, halfWidth, yaw, posX, posY float64) rectangle {
	cosY, sinY := math.Cos(yaw), math.Sin(yaw)
	rot := mat.NewDense(2, 2, []float64{
		cosY, -sinY,
		sinY, cosY,
	})
	corner := func(along, lateral float64) point2D {
		var local mat.VecDense
		local.MulVec(rot, mat.NewVecDense(2, []float64{along, lateral}))
		return point2D{X: posX + local.AtVec(0), Y: posY + local.AtVec(1)}
	}
	return rectangle{
		corner(rearDist, -halfWidth),
		corner(rearDist, halfWidth),
		corner(frontDist+corridorLength, halfWidth),
		corner(frontDist+corridorLength, -halfWidth),
	}
}

// drivingCorridorDoesNotOverlap builds the ego and opponent driving
// corridors (ego's extends by its full braking distance; the opponent's
// by the distance it covers braking at aFront over min(ttb, its own stop
// time)) and reports whether the two rectangles are disjoint. Grounded
// verbatim on the free function of the same name in spawnControl.cpp,
// generalized from boost::geometry polygon transforms to the same
// separating-axis test used by componentset.SensorCollision.
func drivingCorridorDoesNotOverlap(ttb, vFront, aFront, fullBrakingDistanceEgo float64, bp *Blueprint, opponent *vehicle.Agent) bool {
	egoFront := bp.Model.DistanceReferencePointToLeadingEdge
	egoRear := bp.Model.DistanceReferencePointToLeadingEdge - bp.Model.Length
	egoHalfWidth := bp.Model.Width / 2
	ego := buildRectangle(egoRear, egoFront, fullBrakingDistanceEgo, egoHalfWidth, bp.YawAngle, bp.PositionX, bp.PositionY)

	tOpponent := math.Min(stopTime(vFront, aFront), ttb)
	sOpponentAtTtb := math.Max(0, vFront*tOpponent+aFront*tOpponent*tOpponent/2)

	oppFront := opponent.Model.DistanceReferencePointToLeadingEdge
	oppRear := opponent.Model.DistanceReferencePointToLeadingEdge - opponent.Model.Length
	oppHalfWidth := opponent.Model.Width / 2
	front := buildRectangle(oppRear, oppFront, sOpponentAtTtb, oppHalfWidth, opponent.State.Yaw, opponent.State.PositionX, opponent.State.PositionY)

	return !rectanglesOverlap(ego, front)
}

// rectanglesOverlap is the same four-axis separating-axis test as
// componentset.rectanglesOverlap, duplicated locally: spawn admission
// runs before any agent exists in the component graph, so it has no
// reason to depend on componentset.
func rectanglesOverlap(a, b rectangle) bool {
	axes := []point2D{
		edgeNormal(a[0], a[1]),
		edgeNormal(a[1], a[2]),
		edgeNormal(b[0], b[1]),
		edgeNormal(b[1], b[2]),
	}
	for _, axis := range axes {
		aMin, aMax := projectRectangle(a, axis)
		bMin, bMax := projectRectangle(b, axis)
		if aMax < bMin || bMax < aMin {
			return false
		}
	}
	return true
}

func edgeNormal(p, q point2D) point2D {
	dx, dy := q.X-p.X, q.Y-p.Y
	return point2D{X: -dy, Y: dx}
}

func projectRectangle(r rectangle, axis point2D) (min, max float64) {
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
