// Package collision implements the inelastic-collision response of
// spec §4.6, grounded verbatim on
// Components/Dynamics_Collision/dynamics_collisionImplementation.cpp:
// when an agent's collision-partner count grows, recompute its velocity
// as the mass-weighted combination of every partner's momentum (latching
// to zero against a fixed object), then decelerate at a fixed rate every
// cycle thereafter while re-integrating position at the frozen heading
// captured at the moment of the latch.
package collision

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultDecelerationMPS2 is the post-latch constant deceleration rate,
// matching the original's hardcoded `const double deceleration = 10.0`.
const DefaultDecelerationMPS2 = 10.0

// Partner is one collision counterpart's state at the moment a new
// partner is detected, matching the fields
// dynamics_collisionImplementation.cpp reads off GetWorld()->GetAgent(id)
// for each partner, or a fixed-object marker.
type Partner struct {
	IsFixedObject bool
	WeightKg      float64
	Velocity      float64
	Yaw           float64
}

// Latch is the state captured when a collision response is (re)computed:
// the combined speed and the frozen heading future deceleration steps
// integrate along.
type Latch struct {
	Velocity        float64
	MovingDirection float64
}

// Combine computes the post-collision velocity and frozen moving
// direction from the agent's own pre-collision state and its partner
// list, by inelastic momentum combination (mass-weighted vector sum of
// velocities), matching the original's sumOfImpulsesX/Y over
// velocity*weight*cos/sin(yaw). A fixed object in the partner list
// forces velocity to zero regardless of any other partner.
func Combine(ownWeightKg, ownVelocity, ownYaw float64, partners []Partner) Latch {
	for _, p := range partners {
		if p.IsFixedObject {
			return Latch{Velocity: 0, MovingDirection: ownYaw}
		}
	}

	weights := make([]float64, 0, len(partners)+1)
	vxs := make([]float64, 0, len(partners)+1)
	vys := make([]float64, 0, len(partners)+1)

	weights = append(weights, ownWeightKg)
	vxs = append(vxs, ownVelocity*math.Cos(ownYaw))
	vys = append(vys, ownVelocity*math.Sin(ownYaw))

	var sumWeight float64
	sumWeight = ownWeightKg
	for _, p := range partners {
		sumWeight += p.WeightKg
		weights = append(weights, p.WeightKg)
		vxs = append(vxs, p.Velocity*math.Cos(p.Yaw))
		vys = append(vys, p.Velocity*math.Sin(p.Yaw))
	}

	if sumWeight == 0 {
		return Latch{Velocity: 0, MovingDirection: ownYaw}
	}

	// The post-collision velocity components are each a mass-weighted
	// mean of the pre-collision velocity components, so the combination
	// reduces directly to a weighted stat.Mean per axis.
	vx := stat.Mean(vxs, weights)
	vy := stat.Mean(vys, weights)
	velocity := math.Hypot(vx, vy)

	var direction float64
	switch {
	case vy > 0:
		direction = math.Acos(vx / velocity)
	case velocity != 0:
		direction = -math.Acos(vx / velocity)
	default:
		direction = 0
	}
	return Latch{Velocity: velocity, MovingDirection: direction}
}

// Step advances one post-latch deceleration cycle: velocity decays at
// decelerationMPS2 (clamped at zero), then position is re-integrated
// along movingDirection using the new velocity, matching the original's
// per-cycle ds/dx/dy computation.
func Step(latch Latch, decelerationMPS2 float64, cycleTimeMS int, positionX, positionY float64) (newLatch Latch, newX, newY, travelDistance float64) {
	dt := float64(cycleTimeMS) * 0.001
	v := latch.Velocity - decelerationMPS2*dt
	if v < 0 {
		v = 0
	}
	ds := v * dt
	dx := ds * math.Cos(latch.MovingDirection)
	dy := ds * math.Sin(latch.MovingDirection)
	return Latch{Velocity: v, MovingDirection: latch.MovingDirection}, positionX + dx, positionY + dy, ds
}
