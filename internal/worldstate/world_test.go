package worldstate

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/pcmsim/internal/roadnet"
	"github.com/banshee-data/pcmsim/internal/simerr"
	"github.com/banshee-data/pcmsim/internal/vehicle"
)

type fakeLocator struct {
	locateErr error
	locateCalls int
	unlocateCalls int
}

func (f *fakeLocator) Locate(agent *vehicle.Agent, _ *roadnet.Network) error {
	f.locateCalls++
	if f.locateErr != nil {
		return f.locateErr
	}
	agent.Located.Valid = true
	return nil
}

func (f *fakeLocator) Unlocate(agent *vehicle.Agent) {
	f.unlocateCalls++
}

func testNetwork() *roadnet.Network {
	n := roadnet.NewNetwork()
	r := roadnet.NewRoad("R1")
	r.AddGeometry(roadnet.NewLine(0, 0, 0, 0, 500))
	r.AddLaneSection(&roadnet.LaneSection{
		Start: 0,
		Lanes: map[int]*roadnet.Lane{
			-1: {ID: -1, Type: roadnet.LaneTypeDriving, Widths: []roadnet.WidthPolynomial{{A: 3.5}}},
		},
	})
	n.AddRoad(r)
	return n
}

func TestAddAgentDuplicate(t *testing.T) {
	w := NewWorld(testNetwork(), &fakeLocator{})
	a1 := vehicle.NewAgent(1, vehicle.CategoryCommon, vehicle.ModelParameters{}, vehicle.DynamicState{})
	if err := w.AddAgent(a1); err != nil {
		t.Fatalf("first AddAgent: %v", err)
	}
	if err := w.AddAgent(a1); !errors.Is(err, simerr.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestGetAgentUnknown(t *testing.T) {
	w := NewWorld(testNetwork(), &fakeLocator{})
	if _, err := w.GetAgent(99); !errors.Is(err, simerr.ErrUnknownAgent) {
		t.Errorf("expected ErrUnknownAgent, got %v", err)
	}
}

func TestSyncGlobalDataDrainsUpdateQueueFIFO(t *testing.T) {
	w := NewWorld(testNetwork(), &fakeLocator{})
	a := vehicle.NewAgent(1, vehicle.CategoryCommon, vehicle.ModelParameters{}, vehicle.DynamicState{})
	w.AddAgent(a)

	var order []int
	w.QueueAgentUpdate(func() { order = append(order, 1) })
	w.QueueAgentUpdate(func() { order = append(order, 2) })
	w.QueueAgentUpdate(func() { order = append(order, 3) })
	w.SyncGlobalData()

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("update queue order = %v, want [1 2 3]", order)
	}
}

func TestSyncGlobalDataRemovalVisibleOnlyAfterSync(t *testing.T) {
	w := NewWorld(testNetwork(), &fakeLocator{})
	a := vehicle.NewAgent(1, vehicle.CategoryCommon, vehicle.ModelParameters{}, vehicle.DynamicState{})
	w.AddAgent(a)

	w.QueueAgentRemove(a)
	if _, err := w.GetAgent(1); err != nil {
		t.Error("agent should still be registered before SyncGlobalData")
	}
	w.SyncGlobalData()
	if _, err := w.GetAgent(1); !errors.Is(err, simerr.ErrUnknownAgent) {
		t.Error("agent should be unregistered after SyncGlobalData")
	}
	if len(w.GetRemovedAgents()) != 1 {
		t.Errorf("len(GetRemovedAgents()) = %d, want 1", len(w.GetRemovedAgents()))
	}
}

func TestSyncGlobalDataRelocatesRemainingAgents(t *testing.T) {
	locator := &fakeLocator{}
	w := NewWorld(testNetwork(), locator)
	a := vehicle.NewAgent(1, vehicle.CategoryCommon, vehicle.ModelParameters{}, vehicle.DynamicState{})
	w.AddAgent(a)

	w.SyncGlobalData()
	if locator.locateCalls != 1 {
		t.Errorf("locateCalls = %d, want 1", locator.locateCalls)
	}
	if !a.Located.Valid {
		t.Error("agent should be located after sync")
	}
}

func TestSyncGlobalDataQueuesRemovalOnLocateFailure(t *testing.T) {
	locator := &fakeLocator{locateErr: simerr.ErrLocalizationFailure}
	w := NewWorld(testNetwork(), locator)
	a := vehicle.NewAgent(1, vehicle.CategoryCommon, vehicle.ModelParameters{}, vehicle.DynamicState{})
	w.AddAgent(a)

	w.SyncGlobalData()
	if _, err := w.GetAgent(1); err != nil {
		t.Error("agent should still be registered immediately after a failed locate")
	}
	w.SyncGlobalData()
	if _, err := w.GetAgent(1); !errors.Is(err, simerr.ErrUnknownAgent) {
		t.Error("agent should be removed on the next sync after a failed locate")
	}
}

func TestSyncGlobalDataIdempotentWhenQueuesEmpty(t *testing.T) {
	w := NewWorld(testNetwork(), &fakeLocator{})
	w.SyncGlobalData()
	w.SyncGlobalData() // must not panic or duplicate work
}

func TestNextObjectInLane(t *testing.T) {
	w := NewWorld(testNetwork(), &fakeLocator{})
	near := vehicle.NewAgent(1, vehicle.CategoryCommon, vehicle.ModelParameters{}, vehicle.DynamicState{})
	near.Located = vehicle.Located{Valid: true, RoadID: "R1", MainLaneID: -1, MainLaneS: 50}
	far := vehicle.NewAgent(2, vehicle.CategoryCommon, vehicle.ModelParameters{}, vehicle.DynamicState{})
	far.Located = vehicle.Located{Valid: true, RoadID: "R1", MainLaneID: -1, MainLaneS: 150}
	w.AddAgent(near)
	w.AddAgent(far)

	next := w.NextObjectInLane("R1", -1, 10)
	if next == nil || next.ID != 1 {
		t.Errorf("expected nearest agent (id 1), got %+v", next)
	}
}

func TestDistanceToEndOfDrivingLaneUnknownRoad(t *testing.T) {
	w := NewWorld(testNetwork(), &fakeLocator{})
	if d := w.DistanceToEndOfDrivingLane("nope", 0); !math.IsInf(d, 1) {
		t.Errorf("DistanceToEndOfDrivingLane(unknown) = %v, want +Inf", d)
	}
}

func TestLaneExistsAndWidthAt(t *testing.T) {
	w := NewWorld(testNetwork(), &fakeLocator{})
	if !w.LaneExists("R1", 10, -1) {
		t.Error("expected lane -1 to exist at s=10")
	}
	if w.LaneExists("R1", 10, 5) {
		t.Error("expected lane 5 not to exist")
	}
	if got := w.LaneWidthAt("R1", 10, -1); got != 3.5 {
		t.Errorf("LaneWidthAt = %v, want 3.5", got)
	}
}
