// Package graph implements the per-agent component DAG and its
// three-phase cycle execution (spec §4.3): UpdateOutput in topological
// order, then UpdateInput delivery along each channel, then Trigger in
// ascending priority. Grounded on the same modelInterface.h contract
// component.Component realizes, generalized from the original
// framework's scheduler-internal task list into an explicit per-agent
// graph object the Go scheduler can hold one of per agent.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/banshee-data/pcmsim/internal/component"
	"github.com/banshee-data/pcmsim/internal/monitoring"
	"github.com/banshee-data/pcmsim/internal/signal"
	"github.com/banshee-data/pcmsim/internal/simerr"
)

type channel struct {
	srcComponent string
	srcLink      int
	dstComponent string
	dstLink      int
}

// Graph is one agent's static component topology plus the per-cycle
// mutable signal table. Topology is built once via AddComponent/Connect
// and never changes afterward (spec §4.3: "Topology is static once
// built").
type Graph struct {
	AgentID int64

	components map[string]component.Component
	order      []string // insertion order, for deterministic iteration when untouched by topo sort
	channels   []channel

	topo      []string
	topoValid bool
}

// NewGraph constructs an empty graph for one agent.
func NewGraph(agentID int64) *Graph {
	return &Graph{
		AgentID:    agentID,
		components: make(map[string]component.Component),
	}
}

// AddComponent registers c under its Meta().Name, failing with
// simerr.ErrDuplicateID if that name is already present.
func (g *Graph) AddComponent(c component.Component) error {
	name := c.Meta().Name
	if _, exists := g.components[name]; exists {
		return fmt.Errorf("component %q: %w", name, simerr.ErrDuplicateID)
	}
	g.components[name] = c
	g.order = append(g.order, name)
	g.topoValid = false
	return nil
}

// Connect wires srcComponent's output port to dstComponent's input port
// (spec §4.3 port semantics: each input port has exactly one incoming
// channel). Fails with simerr.ErrInvalidLink if either endpoint is not a
// registered component.
func (g *Graph) Connect(srcComponent string, srcLink int, dstComponent string, dstLink int) error {
	if _, ok := g.components[srcComponent]; !ok {
		return fmt.Errorf("connect: unknown source component %q: %w", srcComponent, simerr.ErrInvalidLink)
	}
	if _, ok := g.components[dstComponent]; !ok {
		return fmt.Errorf("connect: unknown destination component %q: %w", dstComponent, simerr.ErrInvalidLink)
	}
	for _, ch := range g.channels {
		if ch.dstComponent == dstComponent && ch.dstLink == dstLink {
			return fmt.Errorf("connect: input port %s.%d already has an incoming channel: %w", dstComponent, dstLink, simerr.ErrInvalidLink)
		}
	}
	g.channels = append(g.channels, channel{srcComponent, srcLink, dstComponent, dstLink})
	g.topoValid = false
	return nil
}

// topoSort computes a topological order over the component DAG via
// Kahn's algorithm, breaking ties lexicographically by component name
// for determinism (spec §9's resolved priority tie-break applies the
// same rule to ordering generally).
func (g *Graph) topoSort() error {
	indegree := make(map[string]int, len(g.components))
	adj := make(map[string][]string, len(g.components))
	for name := range g.components {
		indegree[name] = 0
	}
	for _, ch := range g.channels {
		adj[ch.srcComponent] = append(adj[ch.srcComponent], ch.dstComponent)
		indegree[ch.dstComponent]++
	}

	var ready []string
	for name, d := range indegree {
		if d == 0 {
			ready = append(ready, name)
		}
	}

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, succ := range adj[n] {
			indegree[succ]--
			if indegree[succ] == 0 {
				ready = append(ready, succ)
			}
		}
	}
	if len(order) != len(g.components) {
		return fmt.Errorf("component graph for agent %d has a cycle: %w", g.AgentID, simerr.ErrConfigError)
	}
	g.topo = order
	g.topoValid = true
	return nil
}

// RunCycle executes one cycle at global time timeMS: UpdateOutput for
// every due component in topological order, UpdateInput delivery along
// every channel whose source just produced, then Trigger in ascending
// priority (ties broken lexicographically by name) over every due
// component (spec §4.3 steps 1-3).
func (g *Graph) RunCycle(timeMS int) error {
	if !g.topoValid {
		if err := g.topoSort(); err != nil {
			return err
		}
	}

	due := make(map[string]bool, len(g.components))
	for name, c := range g.components {
		due[name] = c.Meta().DueAt(timeMS)
	}

	minted := make(map[string]map[int]signal.Signal) // component -> linkID -> signal

	// Phase 1: UpdateOutput, topological order, due components only.
	for _, name := range g.topo {
		if !due[name] {
			continue
		}
		c := g.components[name]
		for _, ch := range g.channels {
			if ch.srcComponent != name {
				continue
			}
			out, err := c.UpdateOutput(ch.srcLink, timeMS)
			if err != nil {
				if isInvalidLink(err) {
					return fmt.Errorf("agent %d: %s.UpdateOutput(%d): %w", g.AgentID, name, ch.srcLink, err)
				}
				monitoring.Warnf("agent %d: %s.UpdateOutput(%d): %v", g.AgentID, name, ch.srcLink, err)
				continue
			}
			if minted[name] == nil {
				minted[name] = make(map[int]signal.Signal)
			}
			minted[name][ch.srcLink] = out
		}
	}

	// Phase 2: UpdateInput delivery.
	for _, ch := range g.channels {
		if !due[ch.srcComponent] {
			continue
		}
		sig, ok := minted[ch.srcComponent][ch.srcLink]
		if !ok {
			continue
		}
		dst := g.components[ch.dstComponent]
		if err := dst.UpdateInput(ch.dstLink, sig, timeMS); err != nil {
			if isInvalidLink(err) || errors.Is(err, simerr.ErrInvalidSignalType) {
				return fmt.Errorf("agent %d: %s.UpdateInput(%d): %w", g.AgentID, ch.dstComponent, ch.dstLink, err)
			}
			monitoring.Warnf("agent %d: %s.UpdateInput(%d): %v", g.AgentID, ch.dstComponent, ch.dstLink, err)
		}
	}

	// Phase 3: Trigger, ascending priority, ties lexicographic by name.
	triggerOrder := make([]string, 0, len(g.order))
	for _, name := range g.order {
		if due[name] {
			triggerOrder = append(triggerOrder, name)
		}
	}
	sort.Slice(triggerOrder, func(i, j int) bool {
		pi, pj := g.components[triggerOrder[i]].Meta().Priority, g.components[triggerOrder[j]].Meta().Priority
		if pi != pj {
			return pi < pj
		}
		return triggerOrder[i] < triggerOrder[j]
	})
	for _, name := range triggerOrder {
		if err := g.components[name].Trigger(timeMS); err != nil {
			if isInvalidLink(err) {
				return fmt.Errorf("agent %d: %s.Trigger: %w", g.AgentID, name, err)
			}
			monitoring.Warnf("agent %d: %s.Trigger: %v", g.AgentID, name, err)
		}
	}
	return nil
}

func isInvalidLink(err error) bool {
	return errors.Is(err, simerr.ErrInvalidLink)
}
