// Package worldstate holds the single mutable snapshot of the simulated
// world: the registered agents, the road network, and the deferred
// update/removal queues the scheduler drains once per cycle (spec §3,
// §4 C3). It is grounded on the teacher's composition-root pattern of
// bundling per-run state into one struct passed by reference
// (internal/lidar/pipeline/runtime.go's SensorRuntime), generalized from
// a per-sensor dependency bundle into the simulation's canonical shared
// state. World is driven exclusively from the scheduler's single cycle
// loop (spec §4's ordering guarantees require a deterministic, not
// concurrent, execution order), so it carries no internal locking.
package worldstate

import (
	"math"
	"sort"

	"github.com/banshee-data/pcmsim/internal/monitoring"
	"github.com/banshee-data/pcmsim/internal/roadnet"
	"github.com/banshee-data/pcmsim/internal/simerr"
	"github.com/banshee-data/pcmsim/internal/vehicle"
)

// Locator is implemented by the localization engine; World depends on it
// only through this interface, so worldstate does not import the
// localization package.
type Locator interface {
	Locate(agent *vehicle.Agent, network *roadnet.Network) error
	Unlocate(agent *vehicle.Agent)
}

// World is the live simulation state: the road network, every registered
// agent, and the update/removal queues SyncGlobalData drains.
type World struct {
	Network *roadnet.Network
	locator Locator

	agents  map[int64]*vehicle.Agent
	order   []int64 // insertion order, for deterministic iteration
	removed []*vehicle.Agent

	updateQueue []func()
	removeQueue []*vehicle.Agent
}

// NewWorld constructs an empty world over the given road network, using
// locator to (re)locate agents at the end of every cycle.
func NewWorld(network *roadnet.Network, locator Locator) *World {
	return &World{
		Network: network,
		locator: locator,
		agents:  make(map[int64]*vehicle.Agent),
	}
}

// AddAgent registers a new agent, failing with simerr.ErrDuplicateID if
// its id is already present.
func (w *World) AddAgent(agent *vehicle.Agent) error {
	if _, exists := w.agents[agent.ID]; exists {
		return simerr.ErrDuplicateID
	}
	w.agents[agent.ID] = agent
	w.order = append(w.order, agent.ID)
	return nil
}

// GetAgent looks up a registered agent by id.
func (w *World) GetAgent(id int64) (*vehicle.Agent, error) {
	a, ok := w.agents[id]
	if !ok {
		return nil, simerr.ErrUnknownAgent
	}
	return a, nil
}

// GetAgents returns every currently registered agent in deterministic
// (insertion) order.
func (w *World) GetAgents() []*vehicle.Agent {
	out := make([]*vehicle.Agent, 0, len(w.order))
	for _, id := range w.order {
		if a, ok := w.agents[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// GetRemovedAgents returns every agent removed so far, oldest first.
func (w *World) GetRemovedAgents() []*vehicle.Agent {
	return w.removed
}

// QueueAgentUpdate defers a mutation for application at the next
// SyncGlobalData call.
func (w *World) QueueAgentUpdate(thunk func()) {
	w.updateQueue = append(w.updateQueue, thunk)
}

// QueueAgentRemove marks an agent for removal at the next SyncGlobalData
// call.
func (w *World) QueueAgentRemove(agent *vehicle.Agent) {
	w.removeQueue = append(w.removeQueue, agent)
}

// SyncGlobalData drains the update queue in FIFO order, then the remove
// queue (moving each removed agent into history and dropping it from the
// live registry), then re-locates every remaining agent. Agents whose
// relocation fails are queued for removal on the next sync rather than
// removed immediately, matching the Locate/Unlocate ordering guarantee
// that removal is visible only after a full SyncGlobalData pass.
func (w *World) SyncGlobalData() {
	for _, thunk := range w.updateQueue {
		thunk()
	}
	w.updateQueue = w.updateQueue[:0]

	for _, agent := range w.removeQueue {
		delete(w.agents, agent.ID)
		w.removed = append(w.removed, agent)
		w.locator.Unlocate(agent)
	}
	w.removeQueue = w.removeQueue[:0]

	var nextRemovals []*vehicle.Agent
	for _, agent := range w.GetAgents() {
		w.locator.Unlocate(agent)
		if err := w.locator.Locate(agent, w.Network); err != nil {
			agent.Located.Valid = false
			monitoring.Warnf("agent %d failed relocation: %v", agent.ID, err)
			nextRemovals = append(nextRemovals, agent)
			continue
		}
	}
	w.removeQueue = append(w.removeQueue, nextRemovals...)
}

// NextObjectInLane returns the nearest agent ahead of s on laneID (same
// road), or nil if none exists.
func (w *World) NextObjectInLane(roadID string, laneID int, s float64) *vehicle.Agent {
	var best *vehicle.Agent
	bestS := math.Inf(1)
	for _, a := range w.GetAgents() {
		if !a.Located.Valid || a.Located.RoadID != roadID || a.Located.MainLaneID != laneID {
			continue
		}
		if a.Located.MainLaneS > s && a.Located.MainLaneS < bestS {
			best = a
			bestS = a.Located.MainLaneS
		}
	}
	return best
}

// ClosestObjectUpstream returns the nearest agent behind s on laneID, or
// nil if none exists.
func (w *World) ClosestObjectUpstream(roadID string, laneID int, s float64) *vehicle.Agent {
	var best *vehicle.Agent
	bestS := math.Inf(-1)
	for _, a := range w.GetAgents() {
		if !a.Located.Valid || a.Located.RoadID != roadID || a.Located.MainLaneID != laneID {
			continue
		}
		if a.Located.MainLaneS < s && a.Located.MainLaneS > bestS {
			best = a
			bestS = a.Located.MainLaneS
		}
	}
	return best
}

// DistanceToEndOfDrivingLane returns the distance from s to the end of
// roadID (road length minus s), or +infinity if roadID is not in the
// network. Lane sections and lane types are not considered.
func (w *World) DistanceToEndOfDrivingLane(roadID string, s float64) float64 {
	road, err := w.Network.RoadByID(roadID)
	if err != nil {
		return math.Inf(1)
	}
	return road.Length - s
}

// LaneExists reports whether a lane with the given id is present in the
// lane section covering s on roadID.
func (w *World) LaneExists(roadID string, s float64, laneID int) bool {
	road, err := w.Network.RoadByID(roadID)
	if err != nil {
		return false
	}
	ls, err := road.LaneSectionAt(s)
	if err != nil {
		return false
	}
	_, ok := ls.Lanes[laneID]
	return ok
}

// LaneWidthAt returns the width of laneID at arc-length s on roadID, or 0
// if the lane or road does not exist there.
func (w *World) LaneWidthAt(roadID string, s float64, laneID int) float64 {
	road, err := w.Network.RoadByID(roadID)
	if err != nil {
		return 0
	}
	ls, err := road.LaneSectionAt(s)
	if err != nil {
		return 0
	}
	lane, ok := ls.Lanes[laneID]
	if !ok {
		return 0
	}
	return lane.WidthAt(s - ls.Start)
}

// LaneCurvatureAt returns the reference line's curvature at s on roadID.
func (w *World) LaneCurvatureAt(roadID string, s float64) float64 {
	road, err := w.Network.RoadByID(roadID)
	if err != nil {
		return 0
	}
	g, ds, err := road.GeometryAt(s)
	if err != nil {
		return 0
	}
	return g.Curvature(ds)
}

// TrafficSignsWithinRange returns every RoadSignal on roadID within
// [s, s+rangeM) applicable to laneID.
func (w *World) TrafficSignsWithinRange(roadID string, s, rangeM float64, laneID int) []roadnet.RoadSignal {
	road, err := w.Network.RoadByID(roadID)
	if err != nil {
		return nil
	}
	var out []roadnet.RoadSignal
	for _, sig := range road.Signals {
		if sig.S >= s && sig.S < s+rangeM && sig.IsValidForLane(laneID) {
			out = append(out, sig)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].S < out[j].S })
	return out
}

// ObjectsInRange returns every valid agent on roadID/laneID whose
// MainLaneS lies in [s-backward, s+forward].
func (w *World) ObjectsInRange(roadID string, laneID int, s, backward, forward float64) []*vehicle.Agent {
	var out []*vehicle.Agent
	for _, a := range w.GetAgents() {
		if !a.Located.Valid || a.Located.RoadID != roadID || a.Located.MainLaneID != laneID {
			continue
		}
		if a.Located.MainLaneS >= s-backward && a.Located.MainLaneS <= s+forward {
			out = append(out, a)
		}
	}
	return out
}

// LateralDistance returns the absolute difference in t-offset between
// two (roadID, s) points' respective lane-center projections; used by
// corridor/overlap checks that reason about lateral separation directly
// in road coordinates rather than inertial ones.
func LateralDistance(tA, tB float64) float64 {
	return math.Abs(tA - tB)
}
