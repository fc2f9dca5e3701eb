package spawn

import (
	"math"
	"testing"

	"github.com/banshee-data/pcmsim/internal/config"
	"github.com/banshee-data/pcmsim/internal/localization"
	"github.com/banshee-data/pcmsim/internal/roadnet"
	"github.com/banshee-data/pcmsim/internal/vehicle"
	"github.com/banshee-data/pcmsim/internal/worldstate"
)

func straightTestNetwork(lengthM float64) *roadnet.Network {
	n := roadnet.NewNetwork()
	r := roadnet.NewRoad("R1")
	r.AddGeometry(roadnet.NewLine(0, 0, 0, 0, lengthM))
	r.AddLaneSection(&roadnet.LaneSection{
		Start: 0,
		Lanes: map[int]*roadnet.Lane{
			0:  {ID: 0, Type: roadnet.LaneTypeNone},
			-1: {ID: -1, Type: roadnet.LaneTypeDriving, Widths: []roadnet.WidthPolynomial{{A: 3.5}}},
		},
	})
	n.AddRoad(r)
	return n
}

func newTestWorld(lengthM float64) (*worldstate.World, *localization.Engine) {
	engine := localization.NewEngine(config.EmptySimParams())
	world := worldstate.NewWorld(straightTestNetwork(lengthM), engine)
	return world, engine
}

func carModel() vehicle.ModelParameters {
	return vehicle.ModelParameters{Length: 4.5, Width: 1.8, WeightKg: 1500, DistanceReferencePointToLeadingEdge: 3.6}
}

func placeAgent(t *testing.T, world *worldstate.World, engine *localization.Engine, id int64, s, velocity float64) *vehicle.Agent {
	t.Helper()
	a := vehicle.NewAgent(id, vehicle.CategoryCommon, carModel(), vehicle.DynamicState{PositionX: s, PositionY: -1.75, Velocity: velocity})
	if err := world.AddAgent(a); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}
	if err := engine.Locate(a, world.Network); err != nil {
		t.Fatalf("Locate: %v", err)
	}
	return a
}

func TestWillCrashStationaryObstacleAhead(t *testing.T) {
	if !WillCrash(5, 20, -6, 0, 0, 1.0) {
		t.Error("expected crash: 5m gap cannot absorb a 20 m/s ego stop")
	}
}

func TestWillCrashNoCrashWhenGapExceedsBrakingDistance(t *testing.T) {
	d := fullBrakingDistance(10, 1.0, -6) + 5
	if WillCrash(d, 10, -6, 0, 0, 1.0) {
		t.Errorf("expected no crash with generous gap %v", d)
	}
}

func TestWillCrashFasterLeadVehicleNeverCrashes(t *testing.T) {
	if WillCrash(10, 15, -6, 20, -1, 1.0) {
		t.Error("lead vehicle pulling away at constant higher speed should not crash")
	}
}

func TestEndToEndEmptyRoadAdmitsAtFullVelocity(t *testing.T) {
	world, _ := newTestWorld(1000)
	bp := &Blueprint{RoadID: "R1", LaneID: -1, S: 0, Velocity: 30, Model: carModel()}
	ok := AdaptVelocityForAgentBlueprint(world, bp, config.EmptySimParams())
	if !ok {
		t.Fatal("expected admission to succeed on an empty 1000m road")
	}
	if bp.Velocity != 30 {
		t.Errorf("velocity = %v, want unchanged 30", bp.Velocity)
	}
}

// Scenario 2 (spec §8), with the stopped lead vehicle's reference point at
// s=10 so that it lies within ego's braking distance at v=10.
func TestEndToEndStoppedLeadVehicleReducesVelocity(t *testing.T) {
	world, engine := newTestWorld(1000)
	placeAgent(t, world, engine, 1, 10, 0)

	bp := &Blueprint{RoadID: "R1", LaneID: -1, S: 0, Velocity: 10, Model: carModel()}
	params := config.EmptySimParams()
	ok := AdaptVelocityForAgentBlueprint(world, bp, params)
	if !ok {
		t.Fatal("expected admission to succeed via velocity reduction")
	}
	if bp.Velocity >= 10 {
		t.Errorf("velocity = %v, want reduced below 10 given a stationary lead vehicle at 10m", bp.Velocity)
	}
	freeSpace := opponentRearS(world.GetAgents()[0]) - bp.frontEdgeS()
	if WillCrash(freeSpace, bp.Velocity, params.GetAssumedBrakeAccelerationEgo(), 0, 0, params.GetTimeToBrakeSec()) {
		t.Errorf("admitted velocity %v still crashes into the stationary lead vehicle", bp.Velocity)
	}
}

func TestEndToEndFreeSpaceAtMinimumDistanceRejected(t *testing.T) {
	world, engine := newTestWorld(1000)
	minDist := config.EmptySimParams().GetMinSpawningDistanceM()
	bp := &Blueprint{RoadID: "R1", LaneID: -1, S: 0, Velocity: 5, Model: carModel()}
	leadS := bp.frontEdgeS() + minDist + (carModel().Length - carModel().DistanceReferencePointToLeadingEdge)
	placeAgent(t, world, engine, 1, leadS, 0)

	if ok := AdaptVelocityForAgentBlueprint(world, bp, config.EmptySimParams()); ok {
		t.Error("expected rejection at exactly minSpawningDistance free space")
	}
}

// Scenario 5 (spec §8): lead vehicle at v=5 m/s, 3m ahead, ego wants v=20.
func TestCalculateHoldbackTimeRecommendsPositiveDelay(t *testing.T) {
	world, _ := newTestWorld(1000)
	model := carModel()
	leadS := model.DistanceReferencePointToLeadingEdge + 3 + (model.Length - model.DistanceReferencePointToLeadingEdge)
	lead := vehicle.NewAgent(1, vehicle.CategoryCommon, model, vehicle.DynamicState{PositionX: leadS, PositionY: -1.75, Velocity: 5})
	if err := world.AddAgent(lead); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}
	engine := localization.NewEngine(config.EmptySimParams())
	if err := engine.Locate(lead, world.Network); err != nil {
		t.Fatalf("Locate: %v", err)
	}

	bp := &Blueprint{RoadID: "R1", LaneID: -1, S: 0, Velocity: 20, Model: model}
	params := config.EmptySimParams()
	holdback := CalculateHoldbackTime(world, bp, 10, params)
	if holdback <= 0 {
		t.Fatalf("holdback = %v, want a positive delay for a slow, close lead vehicle", holdback)
	}
	if holdback%10 != 0 {
		t.Errorf("holdback = %v, want a multiple of the 10ms cycle time", holdback)
	}
	if holdback > params.GetMaxHoldbackTimeMs() {
		t.Errorf("holdback = %v exceeds the configured ceiling %v", holdback, params.GetMaxHoldbackTimeMs())
	}
}

func TestCalculateHoldbackTimeZeroWhenNoOpponent(t *testing.T) {
	world, _ := newTestWorld(1000)
	bp := &Blueprint{RoadID: "R1", LaneID: -1, S: 0, Velocity: 20, Model: carModel()}
	if got := CalculateHoldbackTime(world, bp, 10, config.EmptySimParams()); got != 0 {
		t.Errorf("holdback = %v, want 0 on an empty road", got)
	}
}

func TestCalculateHoldbackTimeRejectsStationaryOpponent(t *testing.T) {
	world, engine := newTestWorld(1000)
	placeAgent(t, world, engine, 1, 15, 0)
	bp := &Blueprint{RoadID: "R1", LaneID: -1, S: 0, Velocity: 20, Model: carModel()}
	got := CalculateHoldbackTime(world, bp, 10, config.EmptySimParams())
	if got != -1 {
		t.Errorf("holdback = %v, want -1 (hold-back cannot help against a stationary opponent)", got)
	}
}

func TestIsMandatoryBypassesAdmission(t *testing.T) {
	bp := &Blueprint{Category: vehicle.CategoryEgo}
	if !bp.IsMandatory() {
		t.Error("expected Ego category to be mandatory")
	}
	bp2 := &Blueprint{Category: vehicle.CategoryCommon}
	if bp2.IsMandatory() {
		t.Error("expected Common category to not be mandatory")
	}
}

func TestDrivingCorridorOverlapDetectsSameLaneFollower(t *testing.T) {
	model := carModel()
	bp := &Blueprint{PositionX: 0, PositionY: -1.75, YawAngle: 0, Model: model}
	opponent := vehicle.NewAgent(1, vehicle.CategoryCommon, model, vehicle.DynamicState{PositionX: 15, PositionY: -1.75, Velocity: 5})
	brakingDistance := fullBrakingDistance(20, 1.0, -6)
	if drivingCorridorDoesNotOverlap(1.0, 5, -10, brakingDistance, bp, opponent) {
		t.Error("expected overlapping corridors for two vehicles in the same lane within braking distance")
	}
}

func TestDrivingCorridorOverlapSeparatedByDistance(t *testing.T) {
	model := carModel()
	bp := &Blueprint{PositionX: 0, PositionY: -1.75, YawAngle: 0, Model: model}
	opponent := vehicle.NewAgent(1, vehicle.CategoryCommon, model, vehicle.DynamicState{PositionX: 5000, PositionY: -1.75, Velocity: 5})
	brakingDistance := fullBrakingDistance(20, 1.0, -6)
	if !drivingCorridorDoesNotOverlap(1.0, 5, -10, brakingDistance, bp, opponent) {
		t.Error("expected disjoint corridors for vehicles 5000m apart")
	}
}

func TestStopTimeAlreadyStoppedIsZero(t *testing.T) {
	if st := stopTime(0, -6); st != 0 {
		t.Errorf("stopTime(0, -6) = %v, want 0", st)
	}
}

func TestStopTimeNonDeceleratingIsInfinite(t *testing.T) {
	if st := stopTime(10, 0); !math.IsInf(st, 1) {
		t.Errorf("stopTime(10, 0) = %v, want +Inf", st)
	}
}

func TestPositionClampsAtStop(t *testing.T) {
	full := fullBrakingDistance(10, 0, -6)
	got := position(10, -6, 100)
	if math.Abs(got-full) > 1e-6 {
		t.Errorf("position at t=100 after stopping = %v, want full braking distance %v", got, full)
	}
}
