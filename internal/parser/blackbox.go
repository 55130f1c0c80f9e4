package parser

import (
	"encoding/csv"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/chs-csb/csb-processing/internal/schema"
)

// BlackBox files carry no header row; each line is
// Time,Date,Latitude,Longitude,Speed,Depth with Time as HHMMSSff and Date
// as ddmmyy (§4.1). Detection is by shape of the first data line rather
// than a header signature.
var blackBoxFirstLine = regexp.MustCompile(`^\d{6,9},\d{6},[-\d.]+,[-\d.]+,[-\d.]+,[-\d.]+\s*$`)

func blackBoxHeaderMatches(firstLine string) bool {
	return blackBoxFirstLine.MatchString(strings.TrimSpace(firstLine))
}

// BlackBoxParser reads headerless BlackBox logger files: speed in km/h,
// depth already in metres, UTC timestamp reconstructed from separate
// date/time columns in "ddmmyy HHMMSSff" format (§4.1).
type BlackBoxParser struct{}

func (p *BlackBoxParser) Kind() Kind { return KindBlackBox }

func (p *BlackBoxParser) Read(file string) ([]schema.RawSounding, Stats, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, Stats{}, &ParsingError{File: file, Cause: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

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
		if len(rec) < 6 {
			stats.RowsDropped++
			continue
		}
		stats.RowsRead++

		t, okT := parseBlackBoxTime(rec[0], rec[1])
		lat, okLa := parseFloat(rec[2])
		lon, okLo := parseFloat(rec[3])
		speedKmh, okS := parseFloat(rec[4])
		depth, okD := parseFloat(rec[5])

		if !okT || !okLa || !okLo || !okD {
			stats.RowsDropped++
			continue
		}

		s := schema.RawSounding{
			TimeUTC:   t,
			Latitude:  lat,
			Longitude: lon,
			DepthRawM: depth,
			Source:    string(KindBlackBox),
		}
		if okS {
			kn := round3(speedKmh * kmhToKnots)
			s.SpeedKn = &kn
		}
		out = append(out, s)
	}

	return out, stats, nil
}

// parseBlackBoxTime reconstructs a UTC instant from BlackBox's separate
// time (HHMMSSff) and date (ddmmyy) columns.
func parseBlackBoxTime(timeField, dateField string) (time.Time, bool) {
	timeField = zeroPadRight(strings.TrimSpace(timeField), 8)
	dateField = zeroPadLeft(strings.TrimSpace(dateField), 6)

	// timeField is HHMMSSff; the layout below expects a literal "." before
	// the fractional-second digits, which the raw field never carries.
	hhmmss, frac := timeField[:6], timeField[6:8]
	combined := dateField + " " + hhmmss + "." + frac

	t, err := time.Parse("020106 150405.00", combined)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func zeroPadLeft(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}

func zeroPadRight(s string, width int) string {
	for len(s) < width {
		s = s + "0"
	}
	return s
}
