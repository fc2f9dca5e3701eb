package roadnet

// LaneType distinguishes travel lanes from shoulders, sidewalks and the
// like. Localization does not filter by lane type: any lane other than
// the reference lane can become an agent's main lane.
type LaneType int

const (
	LaneTypeDriving LaneType = iota
	LaneTypeStop
	LaneTypeShoulder
	LaneTypeBiking
	LaneTypeSidewalk
	LaneTypeBorder
	LaneTypeRestricted
	LaneTypeParking
	LaneTypeBidirectional
	LaneTypeMedian
	LaneTypeEntry
	LaneTypeExit
	LaneTypeOnRamp
	LaneTypeOffRamp
	LaneTypeRail
	LaneTypeTram
	LaneTypeRoadworks
	LaneTypeNone
)

// IsDriveable reports whether the type is Driving or Bidirectional, the
// two types a normal traffic agent can occupy. The localization engine
// does not consult it.
func (t LaneType) IsDriveable() bool {
	return t == LaneTypeDriving || t == LaneTypeBidirectional
}

// WidthPolynomial is a cubic width function valid from SOffset (relative
// to the owning lane section's start) onward: width(ds) = a + b*ds +
// c*ds^2 + d*ds^3, grounded on RoadLane::AddWidth in the importer.
type WidthPolynomial struct {
	SOffset    float64
	A, B, C, D float64
}

func (w WidthPolynomial) valueAt(ds float64) float64 {
	return w.A + w.B*ds + w.C*ds*ds + w.D*ds*ds*ds
}

// Lane is one signed-id lane within a LaneSection. Lane id 0 is the
// reference lane (zero width, not driveable); positive ids lie to the
// left of the reference line, negative ids to the right, matching the
// importer's RoadLane/RoadLaneSection signed-id convention.
type Lane struct {
	ID            int
	Type          LaneType
	Widths        []WidthPolynomial // sorted ascending by SOffset
	Predecessor   *int
	Successor     *int
}

// WidthAt returns the lane's width at arc-length offset ds from its
// owning section's start, using the last polynomial segment whose
// SOffset <= ds.
func (l *Lane) WidthAt(ds float64) float64 {
	if l.ID == 0 || len(l.Widths) == 0 {
		return 0
	}
	active := l.Widths[0]
	for _, w := range l.Widths {
		if w.SOffset > ds {
			break
		}
		active = w
	}
	width := active.valueAt(ds - active.SOffset)
	if width < 0 {
		return 0
	}
	return width
}

// LaneSection groups lanes that share a common width-polynomial validity
// range, valid from Start (road arc-length) until the next section's
// Start or the road's end.
type LaneSection struct {
	Start float64
	Lanes map[int]*Lane
}

// SortedLaneIDs returns the section's lane ids from rightmost (most
// negative) to leftmost (most positive), mirroring driving-direction
// lane numbering.
func (ls *LaneSection) SortedLaneIDs() []int {
	ids := make([]int, 0, len(ls.Lanes))
	for id := range ls.Lanes {
		ids = append(ids, id)
	}
	// insertion sort: lane counts per section are small (single digits)
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// InnerWidthSum returns the sum of widths of lanes strictly between the
// reference line and the lane with the given id, at arc-length offset ds
// relative to the section start. Positive ids accumulate leftward,
// negative ids accumulate rightward, matching GetCoord's previousWidth
// parameter in the importer's RoadGeometry.
func (ls *LaneSection) InnerWidthSum(laneID int, ds float64) float64 {
	sum := 0.0
	if laneID > 0 {
		for id, lane := range ls.Lanes {
			if id > 0 && id < laneID {
				sum += lane.WidthAt(ds)
			}
		}
	} else if laneID < 0 {
		for id, lane := range ls.Lanes {
			if id < 0 && id > laneID {
				sum += lane.WidthAt(ds)
			}
		}
	}
	return sum
}

// Side returns +1 for a left lane, -1 for a right lane, 0 for the
// reference lane.
func Side(laneID int) float64 {
	switch {
	case laneID > 0:
		return 1
	case laneID < 0:
		return -1
	default:
		return 0
	}
}

// LaneCenterOffset returns a lane's signed lateral offset from the
// reference line at arc-length offset ds: the sum of all inner lane
// widths plus half this lane's own width, signed by side.
func (ls *LaneSection) LaneCenterOffset(laneID int, ds float64) float64 {
	lane, ok := ls.Lanes[laneID]
	if !ok {
		return 0
	}
	inner := ls.InnerWidthSum(laneID, ds)
	half := lane.WidthAt(ds) / 2
	return Side(laneID) * (inner + half)
}
