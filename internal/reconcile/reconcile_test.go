package reconcile

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chs-csb/csb-processing/internal/tideapi"
)

type fakeFetcher struct {
	bySeries map[string][]tideapi.Sample
}

func (f *fakeFetcher) GetTimeSeriesBlock(ctx context.Context, stationID, code string, from, to time.Time, sorted bool) (tideapi.Response, error) {
	samples := f.bySeries[code]
	data, err := json.Marshal(samples)
	if err != nil {
		return tideapi.Response{}, err
	}
	return tideapi.Response{StatusCode: 200, Data: data}, nil
}

func val(v float64) *float64 { return &v }

func TestFetchSeriesPadsEdgesAndDropsNulls(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &fakeFetcher{bySeries: map[string][]tideapi.Sample{
		"wlo": {
			{EventDate: base.Add(10 * time.Minute), ValueM: val(1.0)},
			{EventDate: base.Add(20 * time.Minute), ValueM: nil},
		},
	}}

	series, err := FetchSeries(context.Background(), f, "zoneA", "wlo", base, base.Add(30*time.Minute), 0, nil)
	require.NoError(t, err)
	require.Len(t, series, 3) // one real sample + two NaN edge pads
	assert.True(t, series[0].isNull())
	assert.Equal(t, base, series[0].EventDate)
	assert.True(t, series[2].isNull())
}

func TestFetchSeriesReturnsNoDataErrorWhenEmpty(t *testing.T) {
	f := &fakeFetcher{bySeries: map[string][]tideapi.Sample{}}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := FetchSeries(context.Background(), f, "zoneA", "wlo", base, base.Add(time.Hour), 0, nil)
	require.Error(t, err)
	var noData *NoWaterLevelDataError
	require.ErrorAs(t, err, &noData)
}

func TestIdentifyGapsClassifiesByThreshold(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := Series{
		{EventDate: base, ValueM: val(1)},
		{EventDate: base.Add(20 * time.Minute), ValueM: val(1.1)},  // 20m gap: interpolate
		{EventDate: base.Add(6 * time.Hour), ValueM: val(1.2)},     // big gap: fill
	}
	maxGap := 10 * time.Minute
	threshold := time.Hour

	all, interp, fill := IdentifyGaps(series, maxGap, &threshold)
	assert.Len(t, all, 2)
	assert.Len(t, interp, 1)
	assert.Len(t, fill, 1)
}

func TestReconcileSingleSeriesNoGaps(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &fakeFetcher{bySeries: map[string][]tideapi.Sample{
		"wlo": {
			{EventDate: base, ValueM: val(1.0)},
			{EventDate: base.Add(5 * time.Minute), ValueM: val(1.1)},
			{EventDate: base.Add(10 * time.Minute), ValueM: val(1.2)},
		},
	}}

	maxGap := 10 * time.Minute
	rwl, err := Reconcile(context.Background(), f, "zoneA", base, base.Add(10*time.Minute), []string{"wlo"}, Config{MaxTimeGap: &maxGap})
	require.NoError(t, err)
	assert.Equal(t, []string{"wlo"}, rwl.ContributingCodes)
	assert.NotEmpty(t, rwl.Samples)
	for i := 1; i < len(rwl.Samples); i++ {
		assert.True(t, rwl.Samples[i].EventDate.After(rwl.Samples[i-1].EventDate) || rwl.Samples[i].EventDate.Equal(rwl.Samples[i-1].EventDate))
	}
}

func TestReconcileFallsBackToLowerPrioritySeriesForFillGap(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &fakeFetcher{bySeries: map[string][]tideapi.Sample{
		"wlo": {
			{EventDate: base, ValueM: val(1.0)},
			{EventDate: base.Add(8 * time.Hour), ValueM: val(2.0)},
		},
		"wlp": {
			{EventDate: base.Add(4 * time.Hour), ValueM: val(1.5)},
		},
	}}

	maxGap := 10 * time.Minute
	threshold := time.Hour
	rwl, err := Reconcile(context.Background(), f, "zoneA", base, base.Add(8*time.Hour), []string{"wlo", "wlp"},
		Config{MaxTimeGap: &maxGap, ThresholdInterpolationFilling: &threshold})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"wlo", "wlp"}, rwl.ContributingCodes)

	foundWlp := false
	for _, s := range rwl.Samples {
		if s.SeriesCode == "wlp" {
			foundWlp = true
		}
	}
	assert.True(t, foundWlp, "expected the fill gap to be spliced from the lower-priority series")
}

func TestReconcileReturnsNoDataErrorWhenAllSeriesEmpty(t *testing.T) {
	f := &fakeFetcher{bySeries: map[string][]tideapi.Sample{}}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	maxGap := 10 * time.Minute
	_, err := Reconcile(context.Background(), f, "zoneA", base, base.Add(time.Hour), []string{"wlo"}, Config{MaxTimeGap: &maxGap})
	require.Error(t, err)
	var noData *NoWaterLevelDataError
	assert.ErrorAs(t, err, &noData)
}
