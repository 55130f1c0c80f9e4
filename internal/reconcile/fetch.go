package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/chs-csb/csb-processing/internal/tideapi"
)

// SeriesFetcher is the capability reconcile needs from the tidal API
// client; satisfied by *tideapi.Client.
type SeriesFetcher interface {
	GetTimeSeriesBlock(ctx context.Context, stationID, code string, from, to time.Time, sorted bool) (tideapi.Response, error)
}

// FetchSeries implements §4.6 fetch_series: request [from-buffer,
// to+buffer], drop QC-filtered wlo samples and null values, then pad the
// series edges with explicit NaN rows so it spans at least [from, to]
// (buffered samples outside that interval are kept).
func FetchSeries(ctx context.Context, client SeriesFetcher, stationID, code string, from, to time.Time, buffer time.Duration, wloQCFilter map[string]struct{}) (Series, error) {
	resp, err := client.GetTimeSeriesBlock(ctx, stationID, code, from.Add(-buffer), to.Add(buffer), true)
	if err != nil {
		return nil, fmt.Errorf("fetch series %q: %w", code, err)
	}

	var wire []tideapi.Sample
	if err := json.Unmarshal(resp.Data, &wire); err != nil {
		return nil, fmt.Errorf("decode series %q: %w", code, err)
	}

	filterQC := code == "wlo" && len(wloQCFilter) > 0

	out := make(Series, 0, len(wire))
	for _, w := range wire {
		if filterQC {
			if _, dropped := wloQCFilter[w.QCFlag]; dropped {
				continue
			}
		}
		if w.ValueM == nil {
			continue
		}
		out = append(out, Sample{EventDate: w.EventDate, ValueM: w.ValueM, SeriesCode: code, QCFlag: w.QCFlag})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })

	if len(out) == 0 {
		return nil, &NoWaterLevelDataError{StationID: stationID, From: from, To: to}
	}

	if out[0].EventDate.After(from) {
		out = append(Series{{EventDate: from, SeriesCode: code}}, out...)
	}
	if out[len(out)-1].EventDate.Before(to) {
		out = append(out, Sample{EventDate: to, SeriesCode: code})
	}

	return out, nil
}
