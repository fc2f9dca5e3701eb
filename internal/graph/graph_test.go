package graph

import (
	"testing"

	"github.com/banshee-data/pcmsim/internal/component"
	"github.com/banshee-data/pcmsim/internal/signal"
	"github.com/banshee-data/pcmsim/internal/simerr"
)

// fakeComponent is a minimal component.Component test double: it mints a
// configurable output, records every input it receives, and counts
// Trigger calls in the order they happened via a shared log.
type fakeComponent struct {
	meta       component.Meta
	mintValue  float64
	lastInput  signal.Signal
	inputCount int
	log        *[]string
	failLink   bool
}

func (f *fakeComponent) Meta() component.Meta { return f.meta }

func (f *fakeComponent) UpdateOutput(localLinkId int, timeMS int) (signal.Signal, error) {
	if f.failLink {
		return nil, simerr.ErrInvalidLink
	}
	return signal.ScalarDouble{Value: f.mintValue}, nil
}

func (f *fakeComponent) UpdateInput(localLinkId int, data signal.Signal, timeMS int) error {
	f.lastInput = data
	f.inputCount++
	return nil
}

func (f *fakeComponent) Trigger(timeMS int) error {
	*f.log = append(*f.log, f.meta.Name)
	return nil
}

func (f *fakeComponent) GetVersion() string { return "test-1.0" }

func TestRunCycleDeliversSignalBeforeTrigger(t *testing.T) {
	g := NewGraph(1)
	var log []string
	src := &fakeComponent{meta: component.Meta{Name: "Producer", Priority: 10, CycleTimeMS: 10}, mintValue: 42, log: &log}
	dst := &fakeComponent{meta: component.Meta{Name: "Consumer", Priority: 5, CycleTimeMS: 10}, log: &log}

	if err := g.AddComponent(src); err != nil {
		t.Fatalf("AddComponent(src): %v", err)
	}
	if err := g.AddComponent(dst); err != nil {
		t.Fatalf("AddComponent(dst): %v", err)
	}
	if err := g.Connect("Producer", 0, "Consumer", 0); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := g.RunCycle(0); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if dst.inputCount != 1 {
		t.Fatalf("Consumer.UpdateInput called %d times, want 1", dst.inputCount)
	}
	got, ok := dst.lastInput.(signal.ScalarDouble)
	if !ok {
		t.Fatalf("Consumer received %T, want signal.ScalarDouble", dst.lastInput)
	}
	if got.Value != 42 {
		t.Errorf("delivered value = %v, want 42", got.Value)
	}
}

func TestRunCycleTriggersInAscendingPriorityOrder(t *testing.T) {
	g := NewGraph(1)
	var log []string
	low := &fakeComponent{meta: component.Meta{Name: "Low", Priority: 100, CycleTimeMS: 10}, log: &log}
	high := &fakeComponent{meta: component.Meta{Name: "High", Priority: 1, CycleTimeMS: 10}, log: &log}

	g.AddComponent(low)
	g.AddComponent(high)

	if err := g.RunCycle(0); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(log) != 2 || log[0] != "High" || log[1] != "Low" {
		t.Errorf("trigger order = %v, want [High Low]", log)
	}
}

func TestRunCyclePriorityTieBrokenLexicographically(t *testing.T) {
	g := NewGraph(1)
	var log []string
	b := &fakeComponent{meta: component.Meta{Name: "Bravo", Priority: 5, CycleTimeMS: 10}, log: &log}
	a := &fakeComponent{meta: component.Meta{Name: "Alpha", Priority: 5, CycleTimeMS: 10}, log: &log}

	g.AddComponent(b)
	g.AddComponent(a)

	if err := g.RunCycle(0); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(log) != 2 || log[0] != "Alpha" || log[1] != "Bravo" {
		t.Errorf("trigger order = %v, want [Alpha Bravo]", log)
	}
}

func TestRunCycleSkipsComponentsNotDue(t *testing.T) {
	g := NewGraph(1)
	var log []string
	fast := &fakeComponent{meta: component.Meta{Name: "Fast", Priority: 1, CycleTimeMS: 10}, log: &log}
	slow := &fakeComponent{meta: component.Meta{Name: "Slow", Priority: 2, CycleTimeMS: 100}, log: &log}

	g.AddComponent(fast)
	g.AddComponent(slow)

	if err := g.RunCycle(10); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(log) != 1 || log[0] != "Fast" {
		t.Errorf("trigger log = %v, want [Fast] (Slow's cycle time does not divide 10)", log)
	}
}

func TestConnectRejectsUnknownComponent(t *testing.T) {
	g := NewGraph(1)
	g.AddComponent(&fakeComponent{meta: component.Meta{Name: "Only"}})
	if err := g.Connect("Only", 0, "Missing", 0); err == nil {
		t.Error("expected error connecting to an unregistered component")
	}
}

func TestConnectRejectsSecondIncomingChannelOnSamePort(t *testing.T) {
	g := NewGraph(1)
	var log []string
	a := &fakeComponent{meta: component.Meta{Name: "A"}, log: &log}
	b := &fakeComponent{meta: component.Meta{Name: "B"}, log: &log}
	c := &fakeComponent{meta: component.Meta{Name: "C"}, log: &log}
	g.AddComponent(a)
	g.AddComponent(b)
	g.AddComponent(c)
	if err := g.Connect("A", 0, "C", 0); err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	if err := g.Connect("B", 0, "C", 0); err == nil {
		t.Error("expected error: input port already has an incoming channel")
	}
}

func TestAddComponentRejectsDuplicateName(t *testing.T) {
	g := NewGraph(1)
	g.AddComponent(&fakeComponent{meta: component.Meta{Name: "Dup"}})
	if err := g.AddComponent(&fakeComponent{meta: component.Meta{Name: "Dup"}}); err == nil {
		t.Error("expected duplicate component name to be rejected")
	}
}

func TestRunCycleInvalidLinkAbortsAgentCycle(t *testing.T) {
	g := NewGraph(1)
	var log []string
	bad := &fakeComponent{meta: component.Meta{Name: "Bad", CycleTimeMS: 10}, failLink: true, log: &log}
	ok := &fakeComponent{meta: component.Meta{Name: "Ok", CycleTimeMS: 10}, log: &log}
	g.AddComponent(bad)
	g.AddComponent(ok)
	g.Connect("Bad", 0, "Ok", 0)

	if err := g.RunCycle(0); err == nil {
		t.Error("expected RunCycle to surface InvalidLink")
	}
}
