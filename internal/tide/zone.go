package tide

import "github.com/samber/lo"

// Zone is a tide-gauge influence polygon with station attributes copied
// from the generating site (§4.3 TideZone).
type Zone struct {
	StationID         string
	Code              string
	Name              string
	TimeSeriesPriority []string
	Geometry          Polygon
}

// boundingMarginDeg bounds the initial unclipped cell comfortably beyond
// any station extent; generous enough that clipping, not the bounding box
// edge, determines every finite cell boundary for realistic station
// networks.
const boundingMarginDeg = 10.0

// BuildZones computes Voronoi polygons over stations (filtered by
// priority-series availability and an explicit exclude set), per §4.3.
func BuildZones(stations []Station, priority []string, excluded map[string]struct{}) []Zone {
	eligible := lo.Filter(stations, func(st Station, _ int) bool {
		if _, skip := excluded[st.ID]; skip {
			return false
		}
		return len(priority) == 0 || hasAnySeries(st, priority)
	})
	if len(eligible) == 0 {
		return nil
	}

	sites := lo.Map(eligible, func(st Station, _ int) Point { return st.Position })

	zones := make([]Zone, len(eligible))
	for i, st := range eligible {
		zones[i] = Zone{
			StationID:          st.ID,
			Code:                st.Code,
			Name:                st.Name,
			TimeSeriesPriority:  intersectPriority(st.AvailableTimeSeries, priority),
			Geometry:            voronoiCell(sites, i, boundingMarginDeg),
		}
	}
	return zones
}

func hasAnySeries(st Station, priority []string) bool {
	for _, code := range priority {
		if st.HasSeries(code) {
			return true
		}
	}
	return false
}

// intersectPriority returns the subset of priority that station advertises
// as active, preserving the configured priority order (§4.3).
func intersectPriority(active, priority []string) []string {
	activeSet := make(map[string]struct{}, len(active))
	for _, c := range active {
		activeSet[c] = struct{}{}
	}
	var out []string
	for _, c := range priority {
		if _, ok := activeSet[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Locate returns the zone containing p, or false if p falls outside every
// zone (§4.4: unmatched rows carry a null tide_zone_id).
func Locate(zones []Zone, p Point) (Zone, bool) {
	for _, z := range zones {
		if z.Geometry.Contains(p) {
			return z, true
		}
	}
	return Zone{}, false
}
