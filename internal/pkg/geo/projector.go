package geo

// ProjectionResult is the outcome of projecting a single coordinate onto a
// polyline: the path index of the nearest segment endpoint and the off-route
// distance in kilometres. Ephemeral, never persisted.
type ProjectionResult struct {
	Index      int
	DistanceKm float64
}

// Project finds the closest point on the polyline to the given coordinate.
//
// The returned index is the index of whichever endpoint of the winning
// segment lies nearer to the point, not the interpolated point, so it can be
// compared against other path indices for ordering checks.
//
// A polyline with fewer than 2 points degenerates to the distance to its
// single point. An empty polyline is a contract violation and panics.
func Project(point Coordinate, polyline Polyline) ProjectionResult {
	if len(polyline) == 0 {
		panic("geo: Project called with empty polyline")
	}
	if len(polyline) < 2 {
		return ProjectionResult{
			Index:      polyline[0].Index,
			DistanceKm: HaversineKm(point, polyline[0].Coordinate),
		}
	}

	best := ProjectionResult{DistanceKm: -1}
	for i := 0; i < len(polyline)-1; i++ {
		segStart := polyline[i]
		segEnd := polyline[i+1]

		d := PointToSegmentKm(point, segStart.Coordinate, segEnd.Coordinate)
		if best.DistanceKm >= 0 && d > best.DistanceKm {
			continue
		}

		idx := segStart.Index
		if HaversineKm(point, segEnd.Coordinate) < HaversineKm(point, segStart.Coordinate) {
			idx = segEnd.Index
		}
		best = ProjectionResult{Index: idx, DistanceKm: d}
	}
	return best
}
