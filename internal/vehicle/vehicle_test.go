package vehicle

import (
	"math"
	"testing"
)

func testModel() ModelParameters {
	return ModelParameters{
		Length: 4.5,
		Width:  1.8,
		Height: 1.5,
		DistanceReferencePointToLeadingEdge: 3.6,
	}
}

func TestBoundingBoxCornersAxisAligned(t *testing.T) {
	a := NewAgent(1, CategoryEgo, testModel(), DynamicState{PositionX: 100, PositionY: 0, Yaw: 0})
	corners := a.BoundingBoxCorners()

	rearRight, rearLeft, frontLeft, frontRight := corners[0], corners[1], corners[2], corners[3]

	wantRearX := 100 + (3.6 - 4.5)
	wantFrontX := 100 + 3.6

	if math.Abs(rearRight.X-wantRearX) > 1e-9 || math.Abs(rearRight.Y-(-0.9)) > 1e-9 {
		t.Errorf("rearRight = %+v, want X=%v Y=-0.9", rearRight, wantRearX)
	}
	if math.Abs(rearLeft.X-wantRearX) > 1e-9 || math.Abs(rearLeft.Y-0.9) > 1e-9 {
		t.Errorf("rearLeft = %+v, want X=%v Y=0.9", rearLeft, wantRearX)
	}
	if math.Abs(frontLeft.X-wantFrontX) > 1e-9 || math.Abs(frontLeft.Y-0.9) > 1e-9 {
		t.Errorf("frontLeft = %+v, want X=%v Y=0.9", frontLeft, wantFrontX)
	}
	if math.Abs(frontRight.X-wantFrontX) > 1e-9 || math.Abs(frontRight.Y-(-0.9)) > 1e-9 {
		t.Errorf("frontRight = %+v, want X=%v Y=-0.9", frontRight, wantFrontX)
	}
}

func TestBoundingBoxCornersRotated90(t *testing.T) {
	a := NewAgent(1, CategoryEgo, testModel(), DynamicState{PositionX: 0, PositionY: 0, Yaw: math.Pi / 2})
	corners := a.BoundingBoxCorners()
	frontRight := corners[3]
	// Facing +Y: "front" (along the heading) moves along +Y, "right"
	// (lateral -halfWidth) moves along +X.
	if math.Abs(frontRight.X-0.9) > 1e-9 {
		t.Errorf("frontRight.X = %v, want 0.9", frontRight.X)
	}
	if math.Abs(frontRight.Y-3.6) > 1e-9 {
		t.Errorf("frontRight.Y = %v, want 3.6", frontRight.Y)
	}
}

func TestAgentIsValidRequiresLocatedAndNonNegativeVelocity(t *testing.T) {
	a := NewAgent(1, CategoryCommon, testModel(), DynamicState{Velocity: 10})
	if a.IsValid() {
		t.Error("unlocated agent must not be valid")
	}
	a.Located.Valid = true
	if !a.IsValid() {
		t.Error("located agent with non-negative velocity must be valid")
	}
	a.State.Velocity = -1
	if a.IsValid() {
		t.Error("negative velocity must not be valid")
	}
}

func TestCategoryString(t *testing.T) {
	cases := map[Category]string{
		CategoryEgo:      "Ego",
		CategoryScenario: "Scenario",
		CategoryCommon:   "Common",
	}
	for cat, want := range cases {
		if got := cat.String(); got != want {
			t.Errorf("Category(%d).String() = %q, want %q", cat, got, want)
		}
	}
}
