package parser

import (
	"sort"

	"github.com/chs-csb/csb-processing/internal/schema"
)

// dedupKey identifies a sounding for the post-read dedup step (§4.1:
// "deduplicate by (time, lat, lon, depth)").
type dedupKey struct {
	t            int64
	lat, lon, dm float64
}

// DedupAndSort removes exact duplicate rows (by time, latitude, longitude,
// depth) and returns the remainder sorted by time, per the parser
// framework's post-read contract (§4.1). Rows with equal timestamps keep
// their input order (stable sort).
func DedupAndSort(rows []schema.RawSounding) []schema.RawSounding {
	seen := make(map[dedupKey]struct{}, len(rows))
	out := make([]schema.RawSounding, 0, len(rows))

	for _, r := range rows {
		key := dedupKey{
			t:   r.TimeUTC.UnixNano(),
			lat: r.Latitude,
			lon: r.Longitude,
			dm:  r.DepthRawM,
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimeUTC.Before(out[j].TimeUTC)
	})

	return out
}
