package parser

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/chs-csb/csb-processing/internal/schema"
)

const (
	actisenseColLine       = "Line"
	actisenseColPosDate    = "Position date"
	actisenseColPosTime    = "Position time"
	actisenseColLat        = "Latitude.1"
	actisenseColLon        = "Longitude.1"
	actisenseColDepth      = "Water Depth Transducer"
	actisenseColSpeed      = "Speed Over Ground"
)

func actisenseHeaderMatches(header string) bool {
	cols := splitHeader(header)
	return hasAllColumns(cols, actisenseColLine, actisenseColPosDate, actisenseColPosTime, actisenseColLat, actisenseColLon, actisenseColDepth)
}

// ActisenseParser reads Actisense NMEA-logger export CSVs: position
// date/time are held in two columns and recombined into a UTC instant,
// depth and speed pass through unconverted (§4.1; the Actisense format was
// not distinguished from DCDB/OFM by the original source beyond column
// naming, so this reader applies no unit conversion).
type ActisenseParser struct{}

func (p *ActisenseParser) Kind() Kind { return KindActisense }

func (p *ActisenseParser) Read(file string) ([]schema.RawSounding, Stats, error) {
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

	required := []string{actisenseColPosDate, actisenseColPosTime, actisenseColLat, actisenseColLon, actisenseColDepth}
	for _, col := range required {
		if colIndex(header, col) < 0 {
			return nil, Stats{}, &ParsingError{File: file, Column: col, Cause: io.ErrUnexpectedEOF}
		}
	}

	di := colIndex(header, actisenseColPosDate)
	tii := colIndex(header, actisenseColPosTime)
	lai := colIndex(header, actisenseColLat)
	loi := colIndex(header, actisenseColLon)
	depi := colIndex(header, actisenseColDepth)
	si := colIndex(header, actisenseColSpeed)

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

		combined := rec[di] + " " + rec[tii]
		t, okT := parseTime(combined, "2006-01-02 15:04:05")
		lat, okLa := parseFloat(rec[lai])
		lon, okLo := parseFloat(rec[loi])
		depth, okD := parseFloat(rec[depi])

		if !okT || !okLa || !okLo || !okD {
			stats.RowsDropped++
			continue
		}

		s := schema.RawSounding{
			TimeUTC:   t.UTC(),
			Latitude:  lat,
			Longitude: lon,
			DepthRawM: depth,
			Source:    string(KindActisense),
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
