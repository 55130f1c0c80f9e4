package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chs-csb/csb-processing/internal/schema"
	"github.com/chs-csb/csb-processing/internal/tideapi"
)

func TestParseDurationOrDefault(t *testing.T) {
	d, err := parseDurationOrDefault("", 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, d)

	d, err = parseDurationOrDefault("10m", 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, d)

	_, err = parseDurationOrDefault("bogus", 30*time.Minute)
	assert.Error(t, err)
}

func TestToTideStations(t *testing.T) {
	wire := []tideapi.Station{
		{ID: "abc", Code: "01", Name: "Station A", Longitude: -63.5, Latitude: 44.6, AvailableTimeSeries: []string{"wlo", "wlp"}, IsTidal: true},
	}
	out := toTideStations(wire)
	require.Len(t, out, 1)
	assert.Equal(t, "abc", out[0].ID)
	assert.Equal(t, -63.5, out[0].Position.Lon)
	assert.Equal(t, 44.6, out[0].Position.Lat)
	assert.True(t, out[0].HasSeries("wlp"))
}

func TestWriteCSVRoundTripsHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "soundings.csv")

	rows := []schema.ProcessedSounding{
		{
			EnrichedSounding: schema.EnrichedSounding{
				RawSounding: schema.RawSounding{
					TimeUTC: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), Latitude: 44.0, Longitude: -63.0, DepthRawM: 12.5, Source: "ofm",
				},
				TideZoneCode: "01",
			},
			DepthProcessedM: 11.2,
			WaterLevel:      schema.WaterLevelInfo{TimeSeriesCode: "wlo", WaterLevelM: 1.3, Reduced: true},
			UncertaintyM:    0.3,
			THUM:            2.1,
			IHOOrder:        schema.Order1a,
		},
	}

	require.NoError(t, writeCSV(out, rows))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "time_utc,latitude,longitude")
	assert.Contains(t, content, "ofm")
	assert.Contains(t, content, "1a")
}

func TestFirstLineReadsOnlyUpToNewline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.csv")
	require.NoError(t, os.WriteFile(path, []byte("header,row\nvalue,1\n"), 0o644))

	assert.Equal(t, "header,row", firstLine(path))
}
