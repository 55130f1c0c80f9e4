package clean

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chs-csb/csb-processing/internal/schema"
)

func f(v float64) *float64 { return &v }

func TestCleanerBoundsScenario(t *testing.T) {
	// Scenario 2 from spec §8: all four rows dropped once all filters enabled.
	minDepth, maxDepth := 0.0, 40.0
	c := New(FilterConfig{
		MinDepth: &minDepth,
		MaxDepth: &maxDepth,
	}, []EnabledFilter{FilterLatitude, FilterLongitude, FilterDepth, FilterTime, FilterSpeed})

	now := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	c.Clock = clockwork.NewFakeClockAt(now)

	rows := []schema.RawSounding{
		{TimeUTC: now.Add(-time.Hour), Latitude: 95, Longitude: 0, DepthRawM: 5},
		{TimeUTC: now.Add(-time.Hour), Latitude: 0, Longitude: 200, DepthRawM: 5},
		{TimeUTC: now.Add(-time.Hour), Latitude: 0, Longitude: 0, DepthRawM: 0},
		{TimeUTC: now.Add(-time.Hour), Latitude: 0, Longitude: 0, DepthRawM: 50},
	}

	out := c.Clean(rows)
	assert.Empty(t, out)
}

func TestCleanerRetainsTagsForDisabledFilters(t *testing.T) {
	minDepth := 10.0
	c := New(FilterConfig{MinDepth: &minDepth}, []EnabledFilter{FilterDepth})

	rows := []schema.RawSounding{
		{TimeUTC: time.Now().Add(-time.Hour), Latitude: 95, Longitude: 0, DepthRawM: 20},
	}
	out := c.Clean(rows)
	require.Len(t, out, 1)
	assert.True(t, out[0].HasTag(schema.TagLatitudeFilter), "tag preserved even though latitude filter isn't enabled")
}

func TestCleanerIdempotentOrdering(t *testing.T) {
	minDepth := 10.0
	enabledOrders := [][]EnabledFilter{
		{FilterDepth, FilterSpeed},
		{FilterSpeed, FilterDepth},
	}
	row := schema.RawSounding{TimeUTC: time.Now().Add(-time.Hour), DepthRawM: 1}

	var results [][]schema.RawSounding
	for _, order := range enabledOrders {
		c := New(FilterConfig{MinDepth: &minDepth}, order)
		results = append(results, c.Clean([]schema.RawSounding{row}))
	}
	assert.Equal(t, len(results[0]), len(results[1]))
}

func TestCleanerRejectsFutureTime(t *testing.T) {
	c := New(FilterConfig{}, []EnabledFilter{FilterTime})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.Clock = clockwork.NewFakeClockAt(now)

	rows := []schema.RawSounding{
		{TimeUTC: now.Add(time.Hour), DepthRawM: 1},
	}
	out := c.Clean(rows)
	assert.Empty(t, out)
}
