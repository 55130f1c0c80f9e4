package reconcile

import (
	"sort"
	"time"
)

// IdentifyGaps implements §4.6 identify_gaps: sorts target by time,
// computes consecutive deltas, and classifies every delta exceeding
// maxTimeGap as a gap. When threshold is nil every gap is a fill gap;
// otherwise gaps shorter than threshold are interpolate gaps and the rest
// are fill gaps.
func IdentifyGaps(target Series, maxTimeGap time.Duration, threshold *time.Duration) (all, interpGaps, fillGaps []Gap) {
	sorted := make(Series, len(target))
	copy(sorted, target)
	sortByTime(sorted)

	for i := 1; i < len(sorted); i++ {
		delta := sorted[i].EventDate.Sub(sorted[i-1].EventDate)
		if delta <= maxTimeGap {
			continue
		}
		gap := Gap{Start: sorted[i-1].EventDate, End: sorted[i].EventDate}
		all = append(all, gap)

		if threshold == nil {
			fillGaps = append(fillGaps, gap)
			continue
		}
		if delta < *threshold {
			interpGaps = append(interpGaps, gap)
		} else {
			fillGaps = append(fillGaps, gap)
		}
	}

	return all, interpGaps, fillGaps
}

func sortByTime(s Series) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].EventDate.Before(s[j].EventDate) })
}
