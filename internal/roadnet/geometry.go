// Package roadnet models the static road network: an arc-length
// parameterized reference line built from geometry segments (line, arc,
// spiral, cubic polynomial), lane sections, and signed-id lanes (spec §5).
// It is grounded on the importer's in-memory road representation
// (CoreFramework/OpenPassSlave/importer/road.h), generalized from an
// OpenDRIVE file-import model into a programmatic construction API: this
// engine has no file format of its own, so networks are built directly by
// the scenario loader rather than parsed from XML.
package roadnet

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Point2D is an inertial-frame coordinate.
type Point2D struct {
	X, Y float64
}

// Geometry is one segment of a road's reference line, valid over
// [S, S+Length) in the road's arc-length coordinate.
type Geometry interface {
	// S is the segment's starting arc-length offset along the road.
	S() float64
	// Length is the segment's arc length.
	Length() float64
	// Evaluate returns the inertial position and heading (radians) at
	// arc-length offset ds from the segment start, 0 <= ds <= Length().
	Evaluate(ds float64) (pos Point2D, heading float64)
	// Curvature returns the signed curvature at arc-length offset ds.
	Curvature(ds float64) float64
}

type base struct {
	s, x, y, hdg, length float64
}

func (b base) S() float64      { return b.s }
func (b base) Length() float64 { return b.length }

// Line is a straight reference-line segment.
type Line struct{ base }

// NewLine constructs a straight segment starting at (x, y) with heading
// hdg (radians), spanning length meters from arc-length offset s.
func NewLine(s, x, y, hdg, length float64) *Line {
	return &Line{base{s, x, y, hdg, length}}
}

func (l *Line) Evaluate(ds float64) (Point2D, float64) {
	return Point2D{
		X: l.x + ds*math.Cos(l.hdg),
		Y: l.y + ds*math.Sin(l.hdg),
	}, l.hdg
}

func (l *Line) Curvature(float64) float64 { return 0 }

// Arc is a constant-curvature reference-line segment.
type Arc struct {
	base
	curvature float64
}

// NewArc constructs a circular-arc segment of constant curvature.
func NewArc(s, x, y, hdg, length, curvature float64) *Arc {
	return &Arc{base{s, x, y, hdg, length}, curvature}
}

func (a *Arc) Curvature(float64) float64 { return a.curvature }

func (a *Arc) Evaluate(ds float64) (Point2D, float64) {
	if a.curvature == 0 {
		return (&Line{a.base}).Evaluate(ds)
	}
	radius := 1.0 / a.curvature
	// Center of the circle, offset 90 degrees from heading toward the
	// turn's inside.
	cx := a.x - radius*math.Sin(a.hdg)
	cy := a.y + radius*math.Cos(a.hdg)
	angleTravelled := ds * a.curvature
	startAngle := math.Atan2(a.y-cy, a.x-cx)
	angle := startAngle + angleTravelled
	return Point2D{
		X: cx + radius*math.Cos(angle),
		Y: cy + radius*math.Sin(angle),
	}, a.hdg + angleTravelled
}

// CubicPoly is a reference-line segment whose local lateral offset from
// the (x, y, hdg) tangent line follows v(u) = a + b*u + c*u^2 + d*u^3,
// where u runs along the tangent direction.
type CubicPoly struct {
	base
	a, b, c, d float64
}

// NewCubicPoly constructs a cubic-polynomial reference-line segment.
func NewCubicPoly(s, x, y, hdg, length, a, b, c, d float64) *CubicPoly {
	return &CubicPoly{base{s, x, y, hdg, length}, a, b, c, d}
}

func (p *CubicPoly) valueAt(u float64) float64 {
	return p.a + p.b*u + p.c*u*u + p.d*u*u*u
}

func (p *CubicPoly) slopeAt(u float64) float64 {
	return p.b + 2*p.c*u + 3*p.d*u*u
}

func (p *CubicPoly) Evaluate(ds float64) (Point2D, float64) {
	if p.a == 0 && p.b == 0 && p.c == 0 && p.d == 0 {
		return (&Line{p.base}).Evaluate(ds)
	}
	v := p.valueAt(ds)
	slope := p.slopeAt(ds)
	localHeading := math.Atan(slope)
	cosH, sinH := math.Cos(p.hdg), math.Sin(p.hdg)
	return Point2D{
		X: p.x + ds*cosH - v*sinH,
		Y: p.y + ds*sinH + v*cosH,
	}, p.hdg + localHeading
}

func (p *CubicPoly) Curvature(ds float64) float64 {
	slope := p.slopeAt(ds)
	secondDeriv := 2*p.c + 6*p.d*ds
	denom := math.Pow(1+slope*slope, 1.5)
	if denom == 0 {
		return 0
	}
	return secondDeriv / denom
}

// Spiral is a clothoid reference-line segment whose curvature varies
// linearly from CurvStart to CurvEnd over Length, evaluated via Fresnel
// integrals (spec §5).
type Spiral struct {
	base
	curvStart, curvEnd float64
}

// NewSpiral constructs a clothoid segment.
func NewSpiral(s, x, y, hdg, length, curvStart, curvEnd float64) *Spiral {
	return &Spiral{base{s, x, y, hdg, length}, curvStart, curvEnd}
}

func (sp *Spiral) Curvature(ds float64) float64 {
	if sp.length == 0 {
		return sp.curvStart
	}
	curvRate := (sp.curvEnd - sp.curvStart) / sp.length
	return sp.curvStart + curvRate*ds
}

// Evaluate integrates the clothoid's heading, phase(u) = curvStart*u +
// curvRate*u^2/2, by completing the square and reducing to the standard
// Fresnel integrals C/S. The quadratic phase is split into a constant
// term and a pure (pi/2)*tau^2 term via a shift and scale of the
// integration variable, then rotated back into the segment's frame.
func (sp *Spiral) Evaluate(ds float64) (Point2D, float64) {
	if sp.curvStart == sp.curvEnd {
		return (&Arc{sp.base, sp.curvStart}).Evaluate(ds)
	}
	curvRate := (sp.curvEnd - sp.curvStart) / sp.length

	t0 := sp.curvStart / curvRate
	scale := math.Sqrt(math.Abs(curvRate) / math.Pi)
	tau0 := t0 * scale
	tau1 := (t0 + ds) * scale

	c0, s0 := fresnel(tau0)
	c1, s1 := fresnel(tau1)
	dC := c1 - c0
	dS := s1 - s0
	if curvRate < 0 {
		dS = -dS
	}

	phaseConst := sp.curvStart * sp.curvStart / (2 * curvRate)
	cosK, sinK := math.Cos(phaseConst), math.Sin(phaseConst)

	// Local-frame displacement (tangent direction is the x-axis at u=0).
	ix := (cosK*dC + sinK*dS) / scale
	iy := (cosK*dS - sinK*dC) / scale

	// Rotate the local-frame displacement into the inertial frame and
	// translate to the segment origin via a 2x2 rotation matrix, rather
	// than four inline cos/sin multiplications.
	cosHdg, sinHdg := math.Cos(sp.hdg), math.Sin(sp.hdg)
	rot := mat.NewDense(2, 2, []float64{
		cosHdg, -sinHdg,
		sinHdg, cosHdg,
	})
	var world mat.VecDense
	world.MulVec(rot, mat.NewVecDense(2, []float64{ix, iy}))
	pos := Point2D{
		X: sp.x + world.AtVec(0),
		Y: sp.y + world.AtVec(1),
	}
	heading := sp.hdg + sp.curvStart*ds + 0.5*curvRate*ds*ds
	return pos, heading
}

// fresnel evaluates the Fresnel cosine and sine integrals
// C(t) = ∫0..t cos(pi/2 * u^2) du, S(t) = ∫0..t sin(pi/2 * u^2) du
// by direct power-series summation. gonum provides no Fresnel integral
// implementation, so this is a hand-rolled numerical evaluation; the
// series converges quickly for the |t| < ~4 range a single road-length
// clothoid segment produces.
func fresnel(t float64) (c, s float64) {
	if t == 0 {
		return 0, 0
	}
	sign := 1.0
	if t < 0 {
		sign = -1.0
		t = -t
	}

	const pi2 = math.Pi / 2
	t4 := t * t * t * t

	cTerm := t
	sTerm := pi2 * t * t * t / 3
	c = cTerm
	s = sTerm
	for n := 1; n < 100; n++ {
		fn := float64(n)
		cTerm *= -pi2 * pi2 * t4 * (4*fn - 3) / ((4*fn + 1) * (2 * fn) * (2*fn - 1))
		sTerm *= -pi2 * pi2 * t4 * (4*fn - 1) / ((4*fn + 3) * (2*fn + 1) * (2 * fn))
		c += cTerm
		s += sTerm
		if math.Abs(cTerm) < 1e-16 && math.Abs(sTerm) < 1e-16 {
			break
		}
	}
	return sign * c, sign * s
}
