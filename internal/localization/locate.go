package localization

import (
	"math"
	"sort"

	"github.com/banshee-data/pcmsim/internal/config"
	"github.com/banshee-data/pcmsim/internal/roadnet"
	"github.com/banshee-data/pcmsim/internal/simerr"
	"github.com/banshee-data/pcmsim/internal/vehicle"
)

// sampleTag marks which part of the bounding box a sample point came
// from (spec §4 C2 step 1).
type sampleTag int

const (
	tagRearRight sampleTag = iota
	tagRearLeft
	tagFrontLeft
	tagFrontRight
	tagEdge
)

type sample struct {
	pt  Point2D
	tag sampleTag
}

// Engine is the stateless localization engine; it holds only the
// sampling resolution, since the algorithm itself is pure and idempotent
// (spec §4 C2).
type Engine struct {
	samplingWidth float64
}

// NewEngine constructs a localization engine from the configured
// bounding-box sampling resolution.
func NewEngine(cfg *config.SimParams) *Engine {
	return &Engine{samplingWidth: cfg.GetSamplingWidthM()}
}

// Unlocate clears an agent's located view; called before every Locate
// attempt so a failed relocation never leaves a stale view in place.
func (e *Engine) Unlocate(agent *vehicle.Agent) {
	agent.Located = vehicle.Located{}
}

// Locate maps agent's oriented bounding box onto network, populating its
// Located view. It tries every road in the network and keeps the
// projection with the smallest reference-point lateral offset, which is
// the road the agent's reference point is actually traveling on.
func (e *Engine) Locate(agent *vehicle.Agent, network *roadnet.Network) error {
	samples := e.sampleBoundingBox(agent)
	refPoint := Point2D{X: agent.State.PositionX, Y: agent.State.PositionY}

	roadID, refProj, err := bestRoad(network, refPoint)
	if err != nil {
		agent.Located.IsLeavingWorld = true
		return simerr.ErrLocalizationFailure
	}
	road, err := network.RoadByID(roadID)
	if err != nil {
		agent.Located.IsLeavingWorld = true
		return simerr.ErrLocalizationFailure
	}

	ls, err := road.LaneSectionAt(refProj.s)
	if err != nil {
		agent.Located.IsLeavingWorld = true
		return simerr.ErrLocalizationFailure
	}

	mainLaneID, mainFound := laneForOffset(ls, refProj.s-ls.Start, refProj.t)

	touched := map[int]bool{}
	front := map[int]bool{}
	anySampleLocalized := mainFound
	for _, s := range samples {
		proj, err := projectOntoRoad(road, s.pt)
		if err != nil {
			continue
		}
		ls2, err := road.LaneSectionAt(proj.s)
		if err != nil {
			continue
		}
		laneID, found := laneForOffset(ls2, proj.s-ls2.Start, proj.t)
		if !found {
			continue
		}
		anySampleLocalized = true
		touched[laneID] = true
		if s.tag == tagFrontLeft || s.tag == tagFrontRight {
			front[laneID] = true
		}
	}

	if !anySampleLocalized {
		agent.Located.IsLeavingWorld = false
		return simerr.ErrLocalizationFailure
	}

	isCrossingLanes := !mainFound
	if mainFound {
		delete(touched, mainLaneID)
	}

	agent.Located = vehicle.Located{
		RoadID:          roadID,
		MainLaneID:      mainLaneID,
		MainLaneS:       refProj.s,
		MainLaneT:       refProj.t,
		Heading:         refProj.heading,
		FrontLaneIDs:    sortedKeys(front),
		TouchedLaneIDs:  sortedKeys(touched),
		IsCrossingLanes: isCrossingLanes || len(touched) > 0,
		IsLeavingWorld:  false,
		Valid:           true,
	}
	e.computeRemainders(agent, ls, refProj.s-ls.Start)
	return nil
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// bestRoad projects pt onto every road in network and returns the one
// with the smallest absolute lateral offset, i.e. the road pt actually
// lies closest to laterally.
func bestRoad(network *roadnet.Network, pt Point2D) (string, projection, error) {
	var bestID string
	var bestProj projection
	found := false
	for _, id := range network.OrderedRoadIDs() {
		road, _ := network.RoadByID(id)
		proj, err := projectOntoRoad(road, pt)
		if err != nil {
			continue
		}
		if !found || math.Abs(proj.t) < math.Abs(bestProj.t) {
			bestID, bestProj, found = id, proj, true
		}
	}
	if !found {
		return "", projection{}, simerr.ErrNumericDegeneracy
	}
	return bestID, bestProj, nil
}

// laneForOffset finds the lane whose lateral span [innerEdge, outerEdge)
// at arc-length offset ds contains t. Ties (t exactly on a boundary) are
// resolved to the lane whose centerline is closer, then to the smaller
// absolute id (spec §4 C2 tie-break rule).
func laneForOffset(ls *roadnet.LaneSection, ds, t float64) (int, bool) {
	type span struct {
		id          int
		lo, hi      float64
		centerDist  float64
	}
	var candidates []span
	for _, id := range ls.SortedLaneIDs() {
		if id == 0 {
			continue
		}
		lane := ls.Lanes[id]
		center := ls.LaneCenterOffset(id, ds)
		half := lane.WidthAt(ds) / 2
		lo, hi := center-half, center+half
		if lo > hi {
			lo, hi = hi, lo
		}
		if t >= lo && t <= hi {
			candidates = append(candidates, span{id, lo, hi, math.Abs(t - center)})
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.centerDist < best.centerDist ||
			(c.centerDist == best.centerDist && absInt(c.id) < absInt(best.id)) {
			best = c
		}
	}
	return best.id, true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// computeRemainders sets the agent's left/right lane remainders: the
// signed free gap from the outermost boundary sample on each side to the
// lane edge at the same s (spec §4 C2 step 5).
func (e *Engine) computeRemainders(agent *vehicle.Agent, ls *roadnet.LaneSection, ds float64) {
	lane, ok := ls.Lanes[agent.Located.MainLaneID]
	if !ok {
		return
	}
	center := ls.LaneCenterOffset(agent.Located.MainLaneID, ds)
	half := lane.WidthAt(ds) / 2
	laneLeftEdge := center + half
	laneRightEdge := center - half

	halfWidth := agent.Model.Width / 2
	agentLeftEdge := agent.Located.MainLaneT + halfWidth
	agentRightEdge := agent.Located.MainLaneT - halfWidth

	agent.Located.LeftRemainder = laneLeftEdge - agentLeftEdge
	agent.Located.RightRemainder = agentRightEdge - laneRightEdge
	agent.Located.LeftBoundaryPoint = vehicle.BoundaryPoint{
		RoadID: agent.Located.RoadID, LaneID: agent.Located.MainLaneID,
		S: agent.Located.MainLaneS, T: agentLeftEdge,
	}
	agent.Located.RightBoundaryPoint = vehicle.BoundaryPoint{
		RoadID: agent.Located.RoadID, LaneID: agent.Located.MainLaneID,
		S: agent.Located.MainLaneS, T: agentRightEdge,
	}
	if agent.Located.LeftRemainder < 0 || agent.Located.RightRemainder < 0 {
		agent.Located.IsCrossingLanes = true
	}
}

// sampleBoundingBox samples the agent's oriented bounding box into corner
// points plus edge points spaced at most samplingWidth apart (spec §4 C2
// step 1), grounded on Agent.BoundingBoxCorners' rear-right/rear-left/
// front-left/front-right corner ordering.
func (e *Engine) sampleBoundingBox(agent *vehicle.Agent) []sample {
	corners := agent.BoundingBoxCorners()
	cornerPts := [4]Point2D{
		{X: corners[0].X, Y: corners[0].Y},
		{X: corners[1].X, Y: corners[1].Y},
		{X: corners[2].X, Y: corners[2].Y},
		{X: corners[3].X, Y: corners[3].Y},
	}
	tags := [4]sampleTag{tagRearRight, tagRearLeft, tagFrontLeft, tagFrontRight}

	out := make([]sample, 0, 4)
	for i, pt := range cornerPts {
		out = append(out, sample{pt, tags[i]})
	}

	width := e.samplingWidth
	if width <= 0 {
		width = 0.2
	}
	for i := 0; i < 4; i++ {
		a := cornerPts[i]
		b := cornerPts[(i+1)%4]
		edgeLen := math.Hypot(b.X-a.X, b.Y-a.Y)
		n := int(math.Ceil(edgeLen / width))
		for k := 1; k < n; k++ {
			frac := float64(k) / float64(n)
			out = append(out, sample{
				pt:  Point2D{X: a.X + frac*(b.X-a.X), Y: a.Y + frac*(b.Y-a.Y)},
				tag: tagEdge,
			})
		}
	}
	return out
}
