package parser

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chs-csb/csb-processing/internal/schema"
)

// OFM columns (§4.1, §9: OFM and DCDB share the bare TIME/LAT/LON/DEPTH
// naming from the source system; the two are told apart at detection time
// by the presence of DCDB's extra PLATFORM_NAME column, not by column
// spelling).
const (
	ofmColTime  = "TIME"
	ofmColLat   = "LAT"
	ofmColLon   = "LON"
	ofmColDepth = "DEPTH"
)

func ofmHeaderMatches(header string) bool {
	cols := splitHeader(header)
	return hasAllColumns(cols, ofmColTime, ofmColLat, ofmColLon, ofmColDepth) &&
		!hasColumn(cols, "PLATFORM_NAME")
}

func splitHeader(header string) []string {
	parts := strings.Split(header, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func hasColumn(cols []string, name string) bool {
	for _, c := range cols {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

func hasAllColumns(cols []string, names ...string) bool {
	for _, n := range names {
		if !hasColumn(cols, n) {
			return false
		}
	}
	return true
}

func colIndex(header []string, name string) int {
	for i, c := range header {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// OFMParser reads the OFM CSV format: bare TIME, LAT, LON, DEPTH columns,
// ISO-8601 timestamps, depth already in metres.
type OFMParser struct{}

func (p *OFMParser) Kind() Kind { return KindOFM }

func (p *OFMParser) Read(file string) ([]schema.RawSounding, Stats, error) {
	return readSimpleCSV(file, KindOFM, ofmColTime, ofmColLat, ofmColLon, ofmColDepth, nil, time.RFC3339)
}

// readSimpleCSV is shared by the OFM and DCDB readers: both are bare
// TIME/LAT/LON/DEPTH CSVs differing only in their header signature and
// (for DCDB) an extra platform column that this reader ignores.
func readSimpleCSV(file string, kind Kind, timeCol, latCol, lonCol, depthCol string, speedCol *string, timeLayout string) ([]schema.RawSounding, Stats, error) {
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

	required := []string{timeCol, latCol, lonCol, depthCol}
	for _, col := range required {
		if colIndex(header, col) < 0 {
			return nil, Stats{}, &ParsingError{File: file, Column: col, Cause: io.ErrUnexpectedEOF}
		}
	}

	ti, lai, loi := colIndex(header, timeCol), colIndex(header, latCol), colIndex(header, lonCol)
	di := colIndex(header, depthCol)
	var si int = -1
	if speedCol != nil {
		si = colIndex(header, *speedCol)
	}

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

		t, okT := parseTime(rec[ti], timeLayout)
		lat, okLa := parseFloat(rec[lai])
		lon, okLo := parseFloat(rec[loi])
		depth, okD := parseFloat(rec[di])

		if !okT || !okLa || !okLo || !okD {
			stats.RowsDropped++
			continue
		}

		s := schema.RawSounding{
			TimeUTC:   t.UTC(),
			Latitude:  lat,
			Longitude: lon,
			DepthRawM: depth,
			Source:    string(kind),
		}
		if si >= 0 && si < len(rec) {
			if v, ok := parseFloat(rec[si]); ok {
				s.SpeedKn = &v
			}
		}
		out = append(out, s)
	}

	return out, stats, nil
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseTime(s, layout string) (time.Time, bool) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
