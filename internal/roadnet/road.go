package roadnet

import (
	"math"
	"sort"

	"github.com/banshee-data/pcmsim/internal/simerr"
)

// RoadSignalType distinguishes the handful of signal kinds the spec's
// scenarios reference (speed limits and stop-line markers); grounded on
// RoadSignalInterface/roadElementTypes.h, trimmed to what localization
// and spawn scenarios actually need.
type RoadSignalType int

const (
	RoadSignalSpeedLimit RoadSignalType = iota
	RoadSignalStop
)

// RoadSignal is a point feature attached to a road at a given arc-length
// offset, grounded on RoadSignalInterface (GetId/GetS/GetType/GetValue).
type RoadSignal struct {
	ID    string
	S     float64
	Type  RoadSignalType
	Value float64
	// ValidForLane restricts the signal to specific lane ids; empty means
	// it applies to every lane of the road.
	ValidForLane []int
}

// IsValidForLane reports whether the signal applies to laneID.
func (s RoadSignal) IsValidForLane(laneID int) bool {
	if len(s.ValidForLane) == 0 {
		return true
	}
	for _, id := range s.ValidForLane {
		if id == laneID {
			return true
		}
	}
	return false
}

// RoadObject is a static, spatially-extended obstacle placed on a road
// (e.g. a parked vehicle or barrier used as a Scenario agent target),
// distinguished from RoadSignal which is a zero-extent point marker.
type RoadObject struct {
	ID     string
	S      float64
	T      float64 // lateral offset from the reference line
	Length float64
	Width  float64
	Hdg    float64
}

// Road is an arc-length parameterized reference line built from ordered
// geometry segments, carrying lane sections and point features. Grounded
// on CoreFramework/OpenPassSlave/importer/road.h's Road class, generalized
// from an OpenDRIVE-importer model to a programmatically constructed one.
type Road struct {
	ID           string
	Geometries   []Geometry // sorted ascending by S()
	LaneSections []*LaneSection
	Signals      []RoadSignal
	Objects      []RoadObject
	Length       float64
}

// NewRoad constructs an empty road; geometries and lane sections are
// added via AddGeometry/AddLaneSection.
func NewRoad(id string) *Road {
	return &Road{ID: id}
}

// AddGeometry appends a reference-line segment and extends the road's
// total length. Segments must be added in ascending S() order.
func (r *Road) AddGeometry(g Geometry) {
	r.Geometries = append(r.Geometries, g)
	end := g.S() + g.Length()
	if end > r.Length {
		r.Length = end
	}
}

// AddLaneSection appends a lane section. Sections must be added in
// ascending Start order.
func (r *Road) AddLaneSection(ls *LaneSection) {
	r.LaneSections = append(r.LaneSections, ls)
}

// GeometryAt returns the segment covering arc-length position s and the
// offset into it, or an error wrapping simerr.ErrNumericDegeneracy if s
// falls outside every segment.
func (r *Road) GeometryAt(s float64) (Geometry, float64, error) {
	for _, g := range r.Geometries {
		if s >= g.S() && s <= g.S()+g.Length()+1e-9 {
			return g, s - g.S(), nil
		}
	}
	return nil, 0, simerr.ErrNumericDegeneracy
}

// LaneSectionAt returns the lane section covering arc-length position s.
func (r *Road) LaneSectionAt(s float64) (*LaneSection, error) {
	var found *LaneSection
	for _, ls := range r.LaneSections {
		if ls.Start <= s+1e-9 {
			found = ls
		} else {
			break
		}
	}
	if found == nil {
		return nil, simerr.ErrNumericDegeneracy
	}
	return found, nil
}

// LaneSectionEnd returns the s-coordinate at which the lane section
// starting at sectionStart ends: either the next section's start or the
// road's length.
func (r *Road) LaneSectionEnd(sectionStart float64) float64 {
	next := r.Length
	for _, ls := range r.LaneSections {
		if ls.Start > sectionStart && ls.Start < next {
			next = ls.Start
		}
	}
	return next
}

// ReferencePoint returns the inertial position and heading of the road's
// reference line at arc-length s.
func (r *Road) ReferencePoint(s float64) (Point2D, float64, error) {
	g, ds, err := r.GeometryAt(s)
	if err != nil {
		return Point2D{}, 0, err
	}
	pos, hdg := g.Evaluate(ds)
	return pos, hdg, nil
}

// LanePoint returns the inertial position of a specific lane's center at
// arc-length s, and the heading of the reference line there.
func (r *Road) LanePoint(s float64, laneID int) (Point2D, float64, error) {
	g, ds, err := r.GeometryAt(s)
	if err != nil {
		return Point2D{}, 0, err
	}
	ls, err := r.LaneSectionAt(s)
	if err != nil {
		return Point2D{}, 0, err
	}
	pos, hdg := g.Evaluate(ds)
	if laneID == 0 {
		return pos, hdg, nil
	}
	offset := ls.LaneCenterOffset(laneID, s-ls.Start)
	normalX := -offset * math.Sin(hdg)
	normalY := offset * math.Cos(hdg)
	return Point2D{X: pos.X + normalX, Y: pos.Y + normalY}, hdg, nil
}

// Network is a collection of roads forming one scenery. Spec §5 does not
// require junctions or multi-road routing; Network exists so the
// localization engine and spawn admission logic have one well-defined
// lookup surface, and so a scenario can place agents on more than one
// road without every caller threading *Road pointers by hand.
type Network struct {
	Roads map[string]*Road
	order []string // insertion order, for deterministic iteration
}

// NewNetwork constructs an empty road network.
func NewNetwork() *Network {
	return &Network{Roads: make(map[string]*Road)}
}

// AddRoad registers a road, returning simerr.ErrDuplicateID if its id is
// already present.
func (n *Network) AddRoad(r *Road) error {
	if _, exists := n.Roads[r.ID]; exists {
		return simerr.ErrDuplicateID
	}
	n.Roads[r.ID] = r
	n.order = append(n.order, r.ID)
	return nil
}

// RoadByID looks up a road, returning simerr.ErrUnknownAgent-shaped
// failure via simerr.ErrConfigError since an unresolvable road reference
// is a scenery configuration defect, not a runtime agent-lookup miss.
func (n *Network) RoadByID(id string) (*Road, error) {
	r, ok := n.Roads[id]
	if !ok {
		return nil, simerr.ErrConfigError
	}
	return r, nil
}

// OrderedRoadIDs returns road ids sorted lexicographically.
func (n *Network) OrderedRoadIDs() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	sort.Strings(out) // deterministic regardless of registration order
	return out
}
