package parser

import (
	"time"

	"github.com/chs-csb/csb-processing/internal/schema"
)

// DCDB shares the OFM column spelling (TIME/LAT/LON/DEPTH) but always
// carries a PLATFORM_NAME column; the two formats are disambiguated only
// by that column's presence (§9 design note on the source's inconsistent
// column handling between these two parsers).
const dcdbColPlatform = "PLATFORM_NAME"

func dcdbHeaderMatches(header string) bool {
	cols := splitHeader(header)
	return hasAllColumns(cols, ofmColTime, ofmColLat, ofmColLon, ofmColDepth, dcdbColPlatform)
}

// DCDBParser reads the NOAA DCDB CSV format.
type DCDBParser struct{}

func (p *DCDBParser) Kind() Kind { return KindDCDB }

func (p *DCDBParser) Read(file string) ([]schema.RawSounding, Stats, error) {
	return readSimpleCSV(file, KindDCDB, ofmColTime, ofmColLat, ofmColLon, ofmColDepth, nil, time.RFC3339)
}
