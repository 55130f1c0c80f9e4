package parser

import (
	"strings"

	"github.com/chs-csb/csb-processing/internal/schema"
)

// WIBLAdapter is the external, opaque time-interpolation + GeoJSON
// translation step for WIBL's binary logger format (§4.1, §6: "this spec
// treats it as producing an intermediate GeoJSON via an adapter"). The
// interpolation over WIBL's internal epoch/elapsed-time structure is not
// part of this core; a concrete adapter implementation lives with the
// binary-format collaborator.
type WIBLAdapter interface {
	// ToGeoJSON performs WIBL's internal time interpolation and returns
	// the path to the resulting GeoJSON file.
	ToGeoJSON(wiblFile string) (geoJSONFile string, err error)
}

// WIBLParser delegates to a WIBLAdapter for the binary-to-GeoJSON step and
// then reuses the B12-CSB reader, mirroring the source's
// DataParserWIBL.read composition.
type WIBLParser struct {
	adapter  WIBLAdapter
	b12csb   Parser
}

// NewWIBLParser builds a WIBLParser delegating B12-CSB-shaped reads to
// b12csb after adapter translation.
func NewWIBLParser(b12csb Parser) *WIBLParser {
	return &WIBLParser{b12csb: b12csb}
}

// WithAdapter returns a copy of p using the given WIBLAdapter.
func (p *WIBLParser) WithAdapter(a WIBLAdapter) *WIBLParser {
	return &WIBLParser{adapter: a, b12csb: p.b12csb}
}

func (p *WIBLParser) Kind() Kind { return KindWIBL }

func (p *WIBLParser) Read(file string) ([]schema.RawSounding, Stats, error) {
	if p.adapter == nil {
		return nil, Stats{}, &ParsingError{File: file, Cause: errNoWIBLAdapter}
	}
	geojson, err := p.adapter.ToGeoJSON(file)
	if err != nil {
		return nil, Stats{}, &ParsingError{File: file, Cause: err}
	}
	rows, stats, err := p.b12csb.Read(geojson)
	if err != nil {
		return nil, stats, err
	}
	for i := range rows {
		rows[i].Source = string(KindWIBL)
	}
	return rows, stats, nil
}

var errNoWIBLAdapter = &wiblAdapterError{}

type wiblAdapterError struct{}

func (e *wiblAdapterError) Error() string {
	return "no WIBLAdapter configured: WIBL binary decoding is an external collaborator"
}

// isWIBLExtension reports whether ext (as normalized by normalizeExtension)
// is a WIBL file, tolerating the numeric multi-part suffix convention
// (.wibl, .wibl.1, .wibl.2, ...).
func isWIBLExtension(ext string) bool {
	return strings.HasPrefix(ext, ".wibl")
}
