package parser

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/chs-csb/csb-processing/internal/schema"
)

const (
	b12csbPropTime  = "time"
	b12csbPropDepth = "depth"
)

type geoJSONFeatureCollection struct {
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	Geometry   geoJSONGeometry        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geoJSONGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// B12CSBParser reads the B12-CSB GeoJSON format: one Point feature per
// sounding, lon/lat from the geometry, time and depth from properties
// (§4.1).
type B12CSBParser struct{}

func (p *B12CSBParser) Kind() Kind { return KindB12CSB }

func (p *B12CSBParser) Read(file string) ([]schema.RawSounding, Stats, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, Stats{}, &ParsingError{File: file, Cause: err}
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, Stats{}, &ParsingError{File: file, Cause: err}
	}

	var fc geoJSONFeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, Stats{}, &ParsingError{File: file, Cause: err}
	}

	var out []schema.RawSounding
	var stats Stats

	for _, feat := range fc.Features {
		stats.RowsRead++

		if feat.Geometry.Type != "Point" || len(feat.Geometry.Coordinates) < 2 {
			stats.RowsDropped++
			continue
		}
		timeVal, hasTime := feat.Properties[b12csbPropTime]
		depthVal, hasDepth := feat.Properties[b12csbPropDepth]
		if !hasTime || !hasDepth {
			missing := b12csbPropTime
			if hasTime {
				missing = b12csbPropDepth
			}
			return nil, stats, &ParsingError{File: file, Column: missing, Cause: io.ErrUnexpectedEOF}
		}

		t, okT := coerceTime(timeVal)
		depth, okD := coerceFloat(depthVal)
		if !okT || !okD {
			stats.RowsDropped++
			continue
		}

		out = append(out, schema.RawSounding{
			TimeUTC:   t.UTC(),
			Latitude:  feat.Geometry.Coordinates[1],
			Longitude: feat.Geometry.Coordinates[0],
			DepthRawM: depth,
			Source:    string(KindB12CSB),
		})
	}

	return out, stats, nil
}

func coerceTime(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func coerceFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		return parseFloat(n)
	default:
		return 0, false
	}
}
