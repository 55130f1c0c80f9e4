package tide

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chs-csb/csb-processing/internal/schema"
)

func TestAttachSetsZoneIDForContainedPointsAndNilForOutside(t *testing.T) {
	zones := BuildZones(threeStations(), nil, nil)
	soundings := []schema.RawSounding{
		{Latitude: 44.5, Longitude: -63.5, TimeUTC: time.Now().Add(-time.Hour), DepthRawM: 5, Source: "ofm"},
		{Latitude: 89, Longitude: -200, TimeUTC: time.Now().Add(-time.Hour), DepthRawM: 5, Source: "ofm"},
	}

	enriched := Attach(soundings, zones)
	require.Len(t, enriched, 2)
	require.NotNil(t, enriched[0].TideZoneID)
	assert.Equal(t, "a", *enriched[0].TideZoneID)
	assert.Nil(t, enriched[1].TideZoneID)
}

func TestMakeWorkUnitsSplitsOnGapThreshold(t *testing.T) {
	zones := BuildZones(threeStations(), nil, nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	zoneID := "a"

	enriched := []schema.EnrichedSounding{
		{RawSounding: schema.RawSounding{TimeUTC: base}, TideZoneID: &zoneID},
		{RawSounding: schema.RawSounding{TimeUTC: base.Add(5 * time.Minute)}, TideZoneID: &zoneID},
		{RawSounding: schema.RawSounding{TimeUTC: base.Add(time.Hour)}, TideZoneID: &zoneID},
	}

	units := MakeWorkUnits(enriched, zones, DefaultGapThreshold)
	require.Len(t, units, 2)
	assert.Equal(t, base, units[0].TMin)
	assert.Equal(t, base.Add(5*time.Minute), units[0].TMax)
	assert.Equal(t, base.Add(time.Hour), units[1].TMin)
	assert.Equal(t, base.Add(time.Hour), units[1].TMax)
}

func TestMakeWorkUnitsExcludesSoundingsWithoutZone(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	enriched := []schema.EnrichedSounding{
		{RawSounding: schema.RawSounding{TimeUTC: base}},
	}
	units := MakeWorkUnits(enriched, nil, DefaultGapThreshold)
	assert.Empty(t, units)
}
