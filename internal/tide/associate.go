package tide

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/chs-csb/csb-processing/internal/schema"
)

// Attach performs the left spatial join of §4.4: each sounding is stamped
// with the zone containing it, or left with a nil TideZoneID when outside
// every zone.
func Attach(soundings []schema.RawSounding, zones []Zone) []schema.EnrichedSounding {
	out := make([]schema.EnrichedSounding, len(soundings))
	for i, s := range soundings {
		out[i] = schema.EnrichedSounding{RawSounding: s}
		zone, ok := Locate(zones, Point{Lon: s.Longitude, Lat: s.Latitude})
		if !ok {
			continue
		}
		id := zone.StationID
		out[i].TideZoneID = &id
		out[i].TideZoneCode = zone.Code
		out[i].TideZoneName = zone.Name
	}
	return out
}

// WorkUnit is one (zone, time interval) reconciliation job (§4.4, §4.6).
type WorkUnit struct {
	TideZoneID         string
	TMin, TMax         time.Time
	TimeSeriesPriority []string
}

// DefaultGapThreshold is the default temporal-grouping gap per §4.4.
const DefaultGapThreshold = 10 * time.Minute

// MakeWorkUnits segments each zone's soundings into work units, starting a
// new unit whenever consecutive samples (sorted by time) differ by more
// than gapThreshold (§4.4). Soundings with a nil TideZoneID are excluded:
// they have no zone to reconcile a water level against.
func MakeWorkUnits(enriched []schema.EnrichedSounding, zones []Zone, gapThreshold time.Duration) []WorkUnit {
	if gapThreshold <= 0 {
		gapThreshold = DefaultGapThreshold
	}

	priorityByZone := make(map[string][]string, len(zones))
	for _, z := range zones {
		priorityByZone[z.StationID] = z.TimeSeriesPriority
	}

	zoned := lo.Filter(enriched, func(s schema.EnrichedSounding, _ int) bool { return s.TideZoneID != nil })
	grouped := lo.GroupBy(zoned, func(s schema.EnrichedSounding) string { return *s.TideZoneID })
	byZone := make(map[string][]time.Time, len(grouped))
	for zoneID, rows := range grouped {
		byZone[zoneID] = lo.Map(rows, func(s schema.EnrichedSounding, _ int) time.Time { return s.TimeUTC })
	}

	var units []WorkUnit
	for zoneID, times := range byZone {
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

		start := 0
		for i := 1; i <= len(times); i++ {
			if i == len(times) || times[i].Sub(times[i-1]) > gapThreshold {
				units = append(units, WorkUnit{
					TideZoneID:         zoneID,
					TMin:               times[start],
					TMax:               times[i-1],
					TimeSeriesPriority: priorityByZone[zoneID],
				})
				start = i
			}
		}
	}

	sort.Slice(units, func(i, j int) bool {
		if units[i].TideZoneID != units[j].TideZoneID {
			return units[i].TideZoneID < units[j].TideZoneID
		}
		return units[i].TMin.Before(units[j].TMin)
	})

	return units
}
