// Package tide implements the tide-zone tessellator and zone
// associator/temporal grouper.
package tide

import "time"

// Point is a WGS84 coordinate, longitude first to match the GeoJSON
// convention used by the parser and georeferencer packages.
type Point struct {
	Lon, Lat float64
}

// Station is a tide-gauge station as returned by the tidal API client
// (§3 TideStation).
type Station struct {
	ID                   string
	Code                 string
	Name                 string
	Position             Point
	AvailableTimeSeries  []string
	IsTidal              bool
	FetchedAt            time.Time
}

// HasSeries reports whether code is among the station's advertised
// time-series codes.
func (s Station) HasSeries(code string) bool {
	for _, c := range s.AvailableTimeSeries {
		if c == code {
			return true
		}
	}
	return false
}
