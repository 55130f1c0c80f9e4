package parser

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/chs-csb/csb-processing/internal/schema"
)

const (
	lowranceColTime     = "DateTime[UTC]"
	lowranceColLat      = "Latitude[°WGS84]"
	lowranceColLon      = "Longitude[°WGS84]"
	lowranceColDepth    = "WaterDepth[Feet]"
	lowranceColSpeed    = "Speed[Meter/Second]"
	lowranceColSurvey   = "SurveyType"
	lowranceSurveyValue = "Primary"

	feetToMeters   = 0.3048
	mpsToKnots     = 1.94384
	kmhToKnots     = 0.539957
)

func lowranceHeaderMatches(header string) bool {
	cols := splitHeader(header)
	return hasAllColumns(cols, lowranceColTime, lowranceColLat, lowranceColLon, lowranceColDepth, lowranceColSurvey)
}

// LowranceParser reads Lowrance logger CSVs: depth in feet, speed in m/s,
// timestamps rounded to 100ms, and restricted to the "Primary" survey type
// (§4.1).
type LowranceParser struct{}

func (p *LowranceParser) Kind() Kind { return KindLowrance }

func (p *LowranceParser) Read(file string) ([]schema.RawSounding, Stats, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, Stats{}, &ParsingError{File: file, Cause: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, Stats{}, &ParsingError{File: file, Cause: err}
	}

	required := []string{lowranceColTime, lowranceColLat, lowranceColLon, lowranceColDepth, lowranceColSurvey}
	for _, col := range required {
		if colIndex(header, col) < 0 {
			return nil, Stats{}, &ParsingError{File: file, Column: col, Cause: io.ErrUnexpectedEOF}
		}
	}

	ti := colIndex(header, lowranceColTime)
	lai := colIndex(header, lowranceColLat)
	loi := colIndex(header, lowranceColLon)
	di := colIndex(header, lowranceColDepth)
	si := colIndex(header, lowranceColSpeed)
	survi := colIndex(header, lowranceColSurvey)

	var out []schema.RawSounding
	var stats Stats

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, &ParsingError{File: file, Cause: err}
		}
		stats.RowsRead++

		if strings.TrimSpace(rec[survi]) != lowranceSurveyValue {
			stats.RowsDropped++
			continue
		}

		t, okT := parseTime(rec[ti], time.RFC3339)
		lat, okLa := parseFloat(rec[lai])
		lon, okLo := parseFloat(rec[loi])
		depthFt, okD := parseFloat(rec[di])

		if !okT || !okLa || !okLo || !okD {
			stats.RowsDropped++
			continue
		}

		s := schema.RawSounding{
			TimeUTC:   roundToMillis(t.UTC(), 100),
			Latitude:  lat,
			Longitude: lon,
			DepthRawM: round3(depthFt * feetToMeters),
			Source:    string(KindLowrance),
		}
		if si >= 0 && si < len(rec) {
			if mps, ok := parseFloat(rec[si]); ok {
				kn := round3(mps * mpsToKnots)
				s.SpeedKn = &kn
			}
		}
		out = append(out, s)
	}

	return out, stats, nil
}

// roundToMillis rounds t to the nearest multiple of ms milliseconds (§4.1:
// Lowrance timestamps are rounded to 100ms).
func roundToMillis(t time.Time, ms int64) time.Time {
	d := time.Duration(ms) * time.Millisecond
	return t.Round(d)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
