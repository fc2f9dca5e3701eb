package localization

import (
	"math"
	"testing"

	"github.com/banshee-data/pcmsim/internal/config"
	"github.com/banshee-data/pcmsim/internal/roadnet"
	"github.com/banshee-data/pcmsim/internal/vehicle"
)

func straightRoadNetwork(laneWidth float64) *roadnet.Network {
	n := roadnet.NewNetwork()
	r := roadnet.NewRoad("R1")
	r.AddGeometry(roadnet.NewLine(0, 0, 0, 0, 1000))
	r.AddLaneSection(&roadnet.LaneSection{
		Start: 0,
		Lanes: map[int]*roadnet.Lane{
			0:  {ID: 0, Type: roadnet.LaneTypeNone},
			-1: {ID: -1, Type: roadnet.LaneTypeDriving, Widths: []roadnet.WidthPolynomial{{A: laneWidth}}},
			1:  {ID: 1, Type: roadnet.LaneTypeDriving, Widths: []roadnet.WidthPolynomial{{A: laneWidth}}},
		},
	})
	n.AddRoad(r)
	return n
}

func newTestEngine() *Engine {
	return NewEngine(config.EmptySimParams())
}

func TestLocateCenteredInLane(t *testing.T) {
	n := straightRoadNetwork(3.0)
	e := newTestEngine()
	a := vehicle.NewAgent(1, vehicle.CategoryEgo,
		vehicle.ModelParameters{Length: 4.5, Width: 1.8, DistanceReferencePointToLeadingEdge: 3.6},
		vehicle.DynamicState{PositionX: 100, PositionY: 1.5, Yaw: 0})

	if err := e.Locate(a, n); err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if !a.Located.Valid {
		t.Fatal("expected Valid=true")
	}
	if a.Located.MainLaneID != 1 {
		t.Errorf("MainLaneID = %d, want 1", a.Located.MainLaneID)
	}
	approxEqual(t, a.Located.LeftRemainder, 0.6, 1e-6, "left remainder")
	approxEqual(t, a.Located.RightRemainder, 0.6, 1e-6, "right remainder")
	if a.Located.IsCrossingLanes {
		t.Error("centered agent should not be crossing lanes")
	}
}

func TestLocateLaneBoundaryRemaindersAtOffset2(t *testing.T) {
	n := straightRoadNetwork(3.0)
	e := newTestEngine()
	a := vehicle.NewAgent(1, vehicle.CategoryEgo,
		vehicle.ModelParameters{Length: 4.5, Width: 1.8, DistanceReferencePointToLeadingEdge: 3.6},
		vehicle.DynamicState{PositionX: 100, PositionY: 2.0, Yaw: 0})

	if err := e.Locate(a, n); err != nil {
		t.Fatalf("Locate: %v", err)
	}
	approxEqual(t, a.Located.LeftRemainder, 0.1, 1e-6, "left remainder at t=2.0")
	approxEqual(t, a.Located.RightRemainder, 1.1, 1e-6, "right remainder at t=2.0")
	if a.Located.IsCrossingLanes {
		t.Error("agent fully inside lane at t=2.0 should not be crossing")
	}
}

func TestLocateCrossingLanesAtOffset2_2(t *testing.T) {
	n := straightRoadNetwork(3.0)
	e := newTestEngine()
	a := vehicle.NewAgent(1, vehicle.CategoryEgo,
		vehicle.ModelParameters{Length: 4.5, Width: 1.8, DistanceReferencePointToLeadingEdge: 3.6},
		vehicle.DynamicState{PositionX: 100, PositionY: 2.2, Yaw: 0})

	if err := e.Locate(a, n); err != nil {
		t.Fatalf("Locate: %v", err)
	}
	approxEqual(t, a.Located.LeftRemainder, -0.1, 1e-6, "left remainder at t=2.2")
	if !a.Located.IsCrossingLanes {
		t.Error("agent whose left edge exceeds the lane boundary must be crossing lanes")
	}
}

func TestLocateOffNetworkFails(t *testing.T) {
	n := roadnet.NewNetwork() // empty network
	e := newTestEngine()
	a := vehicle.NewAgent(1, vehicle.CategoryCommon, vehicle.ModelParameters{}, vehicle.DynamicState{PositionX: 0, PositionY: 0})
	if err := e.Locate(a, n); err == nil {
		t.Error("expected localization failure on an empty network")
	}
}

func TestUnlocateClearsLocatedView(t *testing.T) {
	n := straightRoadNetwork(3.0)
	e := newTestEngine()
	a := vehicle.NewAgent(1, vehicle.CategoryEgo,
		vehicle.ModelParameters{Length: 4.5, Width: 1.8, DistanceReferencePointToLeadingEdge: 3.6},
		vehicle.DynamicState{PositionX: 100, PositionY: 1.5, Yaw: 0})
	e.Locate(a, n)
	e.Unlocate(a)
	if a.Located.Valid {
		t.Error("Unlocate must clear Valid")
	}
}

func TestProjectOntoRoadStraightLine(t *testing.T) {
	r := roadnet.NewRoad("R1")
	r.AddGeometry(roadnet.NewLine(0, 0, 0, 0, 200))
	proj, err := projectOntoRoad(r, Point2D{X: 75, Y: 2.5})
	if err != nil {
		t.Fatalf("projectOntoRoad: %v", err)
	}
	approxEqual(t, proj.s, 75, 1e-3, "projected s")
	approxEqual(t, proj.t, 2.5, 1e-3, "projected t")
}

func approxEqual(t *testing.T, got, want, tol float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %v, want %v (tol %v)", msg, got, want, tol)
	}
}
