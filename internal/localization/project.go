// Package localization implements the bounding-box-to-road-coordinate
// mapping of spec §4 C2: sampling an agent's oriented bounding box,
// projecting each sample onto the road network, and deriving the main
// lane, touched lanes, and lane remainders. Grounded on
// Interfaces/worldObjectInterface.h's GetBoundingBox2D/GetLaneRemainder/
// GetBoundaryPoint contract, and on road.h's per-geometry-type parametric
// equations, generalized here into a single numerical point-to-arc-length
// projection that covers Line, Arc, CubicPoly and Spiral uniformly
// instead of bespoke per-type inversions (see DESIGN.md).
package localization

import (
	"math"

	"github.com/banshee-data/pcmsim/internal/monitoring"
	"github.com/banshee-data/pcmsim/internal/roadnet"
	"github.com/banshee-data/pcmsim/internal/simerr"
)

// Point2D matches roadnet.Point2D's shape; defined locally so callers in
// vehicle-space (which cannot import roadnet without a cycle) can convert
// at the boundary via a plain struct literal.
type Point2D = roadnet.Point2D

// projection is the result of mapping one inertial point onto one road.
type projection struct {
	s, t, heading float64
	distance      float64 // perpendicular distance actually achieved; used to pick the best road
}

// projectOntoRoad finds the arc-length s (and signed lateral offset t)
// on road whose reference-line point is closest to pt, by a per-segment
// ternary search over each geometry's local domain. This replaces the
// type-specific closed-form inversions the original importer used
// per-geometry (line: affine; arc: polar; spiral: Fresnel-based a-normalized
// clothoid walk; cubic poly: iterative arc-length walk) with one numerical
// routine valid for all four, since Evaluate/Curvature already give a
// closed form for the forward direction on every segment type.
func projectOntoRoad(road *roadnet.Road, pt Point2D) (projection, error) {
	best := projection{distance: math.Inf(1)}
	found := false

	for _, g := range road.Geometries {
		if g.Length() == 0 {
			monitoring.Warnf("road %s: skipping zero-length geometry at s=%v: %v", road.ID, g.S(), simerr.ErrNumericDegeneracy)
			continue
		}
		ds, dist := nearestOnSegment(g, pt)
		if !found || dist < best.distance {
			pos, heading := g.Evaluate(ds)
			t := signedLateralOffset(pos, heading, pt)
			best = projection{s: g.S() + ds, t: t, heading: heading, distance: dist}
			found = true
		}
	}
	if !found {
		return projection{}, simerr.ErrNumericDegeneracy
	}
	// The search clamps ds to each segment, so a point past either end of
	// the reference line lands on that end with a residual along the
	// heading; such a point is not on this road.
	if along := math.Sqrt(math.Max(0, best.distance*best.distance-best.t*best.t)); along > 1e-3 {
		return projection{}, simerr.ErrLocalizationFailure
	}
	return best, nil
}

// nearestOnSegment finds ds in [0, g.Length()] minimizing the distance
// from g.Evaluate(ds) to pt, via ternary search (the distance function is
// not guaranteed strictly unimodal for a tightly curved segment, but road
// geometry segments are long relative to vehicle dimensions in every
// scenario this engine targets, so local unimodality holds in practice).
func nearestOnSegment(g roadnet.Geometry, pt Point2D) (ds, distance float64) {
	lo, hi := 0.0, g.Length()
	if hi == 0 {
		pos, _ := g.Evaluate(0)
		return 0, dist2(pos, pt)
	}
	for i := 0; i < 40; i++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		p1, _ := g.Evaluate(m1)
		p2, _ := g.Evaluate(m2)
		if dist2(p1, pt) < dist2(p2, pt) {
			hi = m2
		} else {
			lo = m1
		}
	}
	ds = (lo + hi) / 2
	pos, _ := g.Evaluate(ds)
	return ds, dist2(pos, pt)
}

func dist2(a, b Point2D) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// signedLateralOffset returns the signed perpendicular distance from pt
// to the reference line at (refPos, heading): positive to the left.
func signedLateralOffset(refPos Point2D, heading float64, pt Point2D) float64 {
	dx, dy := pt.X-refPos.X, pt.Y-refPos.Y
	normalX, normalY := -math.Sin(heading), math.Cos(heading)
	return dx*normalX + dy*normalY
}
