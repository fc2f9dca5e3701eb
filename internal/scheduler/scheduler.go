// Package scheduler implements the Scheduler (C4): the global cycle
// loop that advances the simulation clock, admits pending spawns,
// invokes every live agent's component graph, syncs deferred world
// mutations, and pushes observation records, exactly as spec.md §4.4
// describes. Grounded on the teacher's graceful-shutdown main loop shape
// (cmd/radar/radar.go's context.Context + sync.WaitGroup pattern),
// generalized from a serial-port read loop to a fixed-cycle simulation
// loop.
package scheduler

import (
	"context"
	"fmt"
	"sort"

	"github.com/banshee-data/pcmsim/internal/config"
	"github.com/banshee-data/pcmsim/internal/localization"
	"github.com/banshee-data/pcmsim/internal/monitoring"
	"github.com/banshee-data/pcmsim/internal/observation"
	"github.com/banshee-data/pcmsim/internal/simerr"
	"github.com/banshee-data/pcmsim/internal/spawn"
	"github.com/banshee-data/pcmsim/internal/vehicle"
	"github.com/banshee-data/pcmsim/internal/worldstate"
)

// PendingSpawn is a candidate agent awaiting admission, plus the
// GraphBuilder that will wire its component graph once admitted and the
// earliest cycle time at which it may be reconsidered (hold-back).
type PendingSpawn struct {
	ID          int64
	Blueprint   *spawn.Blueprint
	Build       GraphBuilder
	NotBeforeMS int64
}

// Scheduler owns the global clock and drives every registered agent's
// component graph once per due cycle (spec §4.4).
type Scheduler struct {
	World   *worldstate.World
	Locator *localization.Engine
	Params  *config.SimParams
	Sink    observation.Sink
	RunID   string

	graphs     map[int64]*graphHandle
	agentOrder []int64

	pending        []*PendingSpawn
	nextSpawnID    int64
	nextAgentID    int64

	TimeMS int64
}

type graphHandle struct {
	runCycle func(timeMS int) error
}

// NewScheduler constructs a scheduler over world, using locator for
// post-sync relocation, params for timing/admission tuning, and sink for
// the per-cycle observation trace (observation.NopSink{} if none is
// configured).
func NewScheduler(world *worldstate.World, locator *localization.Engine, params *config.SimParams, sink observation.Sink, runID string) *Scheduler {
	if sink == nil {
		sink = observation.NopSink{}
	}
	return &Scheduler{
		World:   world,
		Locator: locator,
		Params:  params,
		Sink:    sink,
		RunID:   runID,
		graphs:  make(map[int64]*graphHandle),
	}
}

// NextAgentID reserves and returns the next agent id a caller should use
// when constructing a Blueprint for QueueSpawn.
func (s *Scheduler) NextAgentID() int64 {
	s.nextAgentID++
	return s.nextAgentID
}

// QueueSpawn registers a candidate blueprint for admission consideration
// starting on the next cycle.
func (s *Scheduler) QueueSpawn(bp *spawn.Blueprint, build GraphBuilder) int64 {
	s.nextSpawnID++
	s.pending = append(s.pending, &PendingSpawn{ID: s.nextSpawnID, Blueprint: bp, Build: build})
	return s.nextSpawnID
}

// Run drives the cycle loop until ctx is cancelled, the configured
// maximum simulation time elapses, or a mandatory agent (Ego or
// Scenario) is lost. It returns the terminal exit code and, for
// RuntimeError/IncompleteScenario, the error that caused it.
func (s *Scheduler) Run(ctx context.Context) (simerr.ExitCode, error) {
	maxTimeMS := s.Params.GetMaxSimulationTimeMs()
	cycleMS := s.Params.GetGlobalCycleTimeMs()

	for {
		select {
		case <-ctx.Done():
			return simerr.Success, nil
		default:
		}

		if err := s.admitPending(); err != nil {
			return simerr.IncompleteScenario, err
		}

		if err := s.runGraphs(); err != nil {
			return simerr.RuntimeError, err
		}

		removedBefore := len(s.World.GetRemovedAgents())
		s.World.SyncGlobalData()
		if err := s.checkMandatoryRemovals(removedBefore); err != nil {
			return simerr.IncompleteScenario, err
		}

		s.emitObservations()
		if err := s.Sink.Flush(); err != nil {
			monitoring.Warnf("observation sink flush: %v", err)
		}

		s.TimeMS += cycleMS
		if maxTimeMS > 0 && s.TimeMS >= maxTimeMS {
			return simerr.Success, nil
		}
	}
}

// admitPending re-evaluates every pending spawn whose hold-back has
// elapsed, admitting it into the world (and constructing its component
// graph) the moment it no longer requires a velocity cut, matching spec
// §4.5's priority of hold-back over velocity reduction.
func (s *Scheduler) admitPending() error {
	cycleMS := s.Params.GetGlobalCycleTimeMs()
	var remaining []*PendingSpawn

	for _, p := range s.pending {
		if s.TimeMS < p.NotBeforeMS {
			remaining = append(remaining, p)
			continue
		}

		admit, holdbackMS, err := s.decide(p.Blueprint, cycleMS)
		if err != nil {
			if p.Blueprint.IsMandatory() {
				return fmt.Errorf("admit mandatory spawn %d: %w", p.ID, err)
			}
			monitoring.Warnf("spawn %d discarded: %v", p.ID, err)
			continue
		}
		if !admit {
			if p.Blueprint.IsMandatory() {
				return fmt.Errorf("spawn %d (%s): %w", p.ID, p.Blueprint.Category, simerr.ErrIncompleteScenario)
			}
			continue
		}
		if holdbackMS > 0 {
			p.NotBeforeMS = s.TimeMS + holdbackMS
			remaining = append(remaining, p)
			continue
		}

		if err := s.activate(p); err != nil {
			if p.Blueprint.IsMandatory() {
				return fmt.Errorf("activate mandatory spawn %d: %w", p.ID, err)
			}
			monitoring.Warnf("spawn %d failed to activate: %v", p.ID, err)
		}
	}

	s.pending = remaining
	return nil
}

// decide applies spec §4.5's admission order: mandatory agents always
// admit immediately; otherwise hold-back is tried first, falling back to
// velocity reduction only when CalculateHoldbackTime reports it cannot
// help (-1).
func (s *Scheduler) decide(bp *spawn.Blueprint, cycleMS int64) (admit bool, holdbackMS int64, err error) {
	if bp.IsMandatory() {
		return true, 0, nil
	}

	holdback := spawn.CalculateHoldbackTime(s.World, bp, cycleMS, s.Params)
	if holdback >= 0 {
		return true, holdback, nil
	}

	if !spawn.AdaptVelocityForAgentBlueprint(s.World, bp, s.Params) {
		return false, 0, nil
	}
	return true, 0, nil
}

// activate constructs the admitted blueprint's agent, registers it with
// the world, locates it, and wires its component graph via p.Build.
func (s *Scheduler) activate(p *PendingSpawn) error {
	bp := p.Blueprint
	agent := vehicle.NewAgent(p.ID, bp.Category, bp.Model, vehicle.DynamicState{
		PositionX: bp.PositionX,
		PositionY: bp.PositionY,
		Yaw:       bp.YawAngle,
		Velocity:  bp.Velocity,
	})
	if err := s.World.AddAgent(agent); err != nil {
		return err
	}
	if err := s.Locator.Locate(agent, s.World.Network); err != nil {
		return err
	}

	g, err := p.Build(s.World, agent, int(s.Params.GetGlobalCycleTimeMs()))
	if err != nil {
		return err
	}
	s.graphs[agent.ID] = &graphHandle{runCycle: g.RunCycle}
	s.agentOrder = append(s.agentOrder, agent.ID)
	return nil
}

// runGraphs invokes RunCycle on every live agent's graph in registration
// order. A failure in an Ego or Scenario agent's cycle is fatal to the
// run (IncompleteScenario); a Common agent's failure is logged and
// skipped.
func (s *Scheduler) runGraphs() error {
	for _, id := range s.agentOrder {
		h, ok := s.graphs[id]
		if !ok {
			continue
		}
		if err := h.runCycle(int(s.TimeMS)); err != nil {
			agent, getErr := s.World.GetAgent(id)
			if getErr == nil && agent.Category != vehicle.CategoryCommon {
				return fmt.Errorf("agent %d (%s): %w", id, agent.Category, simerr.ErrIncompleteScenario)
			}
			monitoring.Warnf("agent %d cycle failed: %v", id, err)
		}
	}
	return nil
}

// checkMandatoryRemovals inspects every agent removed by the
// SyncGlobalData call just completed (index >= removedBefore in the
// world's removed-agent history) and fails the run if any of them was
// Ego or Scenario category, per spec §4.5's "spawn/positioning that would
// force Ego/Scenario out of the world aborts the run" invariant. It also
// compacts the scheduler's own bookkeeping for every removed agent.
func (s *Scheduler) checkMandatoryRemovals(removedBefore int) error {
	removed := s.World.GetRemovedAgents()
	newlyRemoved := removed[removedBefore:]

	removedIDs := make(map[int64]bool, len(newlyRemoved))
	for _, agent := range newlyRemoved {
		removedIDs[agent.ID] = true
		delete(s.graphs, agent.ID)
		if agent.Category != vehicle.CategoryCommon {
			return fmt.Errorf("agent %d (%s) left the world: %w", agent.ID, agent.Category, simerr.ErrIncompleteScenario)
		}
	}
	if len(removedIDs) == 0 {
		return nil
	}

	compacted := s.agentOrder[:0]
	for _, id := range s.agentOrder {
		if !removedIDs[id] {
			compacted = append(compacted, id)
		}
	}
	s.agentOrder = compacted
	return nil
}

// emitObservations pushes one Vehicle-group record per tracked dynamic
// field and one RoadPosition-group record per located field, for every
// live agent, in deterministic agent-id order (spec §6's observation
// record shape).
func (s *Scheduler) emitObservations() {
	agents := s.World.GetAgents()
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })

	for _, a := range agents {
		s.record(a.ID, observation.GroupVehicle, "velocity", a.State.Velocity)
		s.record(a.ID, observation.GroupVehicle, "acceleration", a.State.Acceleration)
		s.record(a.ID, observation.GroupVehicle, "position_x", a.State.PositionX)
		s.record(a.ID, observation.GroupVehicle, "position_y", a.State.PositionY)
		s.record(a.ID, observation.GroupVehicle, "yaw", a.State.Yaw)

		if a.Located.Valid {
			s.record(a.ID, observation.GroupRoadPosition, "s", a.Located.MainLaneS)
			s.record(a.ID, observation.GroupRoadPosition, "t", a.Located.MainLaneT)
			s.record(a.ID, observation.GroupRoadPosition, "lane_id", float64(a.Located.MainLaneID))
		}
	}
}

func (s *Scheduler) record(agentID int64, group observation.Group, key string, value float64) {
	err := s.Sink.Record(observation.Record{
		RunID:   s.RunID,
		TimeMS:  s.TimeMS,
		AgentID: agentID,
		Group:   group,
		Key:     key,
		Value:   value,
	})
	if err != nil {
		monitoring.Warnf("observation record agent=%d key=%s: %v", agentID, key, err)
	}
}
