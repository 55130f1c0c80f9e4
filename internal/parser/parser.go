// Package parser implements the multi-format ingestion framework of spec
// §4.1: format detection from extension + header signature, per-format
// readers producing a canonical schema.RawSounding stream, and the bounded
// file-read pool that reads multiple files concurrently.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chs-csb/csb-processing/internal/schema"
)

// Kind identifies one of the supported logger formats (§4.1).
type Kind string

const (
	KindOFM       Kind = "ofm"
	KindDCDB      Kind = "dcdb"
	KindLowrance  Kind = "lowrance"
	KindBlackBox  Kind = "blackbox"
	KindActisense Kind = "actisense"
	KindB12CSB    Kind = "b12-csb"
	KindWIBL      Kind = "wibl"
)

// ParserIdentifierError is returned by Detect when no registered parser's
// header signature matches the candidate file.
type ParserIdentifierError struct {
	File string
}

func (e *ParserIdentifierError) Error() string {
	return fmt.Sprintf("could not identify a parser for file %q", e.File)
}

// MultipleParsersError is returned by Group when a file set resolves to
// more than one distinct parser kind.
type MultipleParsersError struct {
	Kinds []Kind
}

func (e *MultipleParsersError) Error() string {
	names := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		names[i] = string(k)
	}
	return fmt.Sprintf("file set resolved to multiple parsers: %s", strings.Join(names, ", "))
}

// ParsingError is a fatal, file-level parsing failure (missing mandatory
// column, unreadable file) that aborts the run for the offending file.
type ParsingError struct {
	File   string
	Column string
	Cause  error
}

func (e *ParsingError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("parsing error in %q: missing/unparseable column %q: %v", e.File, e.Column, e.Cause)
	}
	return fmt.Sprintf("parsing error in %q: %v", e.File, e.Cause)
}

func (e *ParsingError) Unwrap() error { return e.Cause }

var extensionPattern = regexp.MustCompile(`(?i)\.(csv|xyz|txt|geojson|wibl(\.\d+)?)$`)

// normalizeExtension extracts and lower-cases the recognized extension
// suffix, tolerating the WIBL numeric-suffix convention (.wibl.1, .wibl.2).
func normalizeExtension(file string) string {
	m := extensionPattern.FindString(filepath.Base(file))
	return strings.ToLower(m)
}

// Parser is the capability every per-format reader satisfies.
type Parser interface {
	Kind() Kind
	// Read parses the full contents of file into a RawSounding stream.
	// File-level errors (missing column, unreadable file) are returned as
	// *ParsingError and are fatal to the run; row-level coercion failures
	// are dropped from the result and counted in the Stats struct.
	Read(file string) ([]schema.RawSounding, Stats, error)
}

// Stats aggregates row-level outcomes for a single file read, surfaced as
// an aggregate warning rather than one log line per row (§4.1).
type Stats struct {
	RowsRead    int
	RowsDropped int
}

func (s *Stats) add(o Stats) {
	s.RowsRead += o.RowsRead
	s.RowsDropped += o.RowsDropped
}

// headerSignature pairs a parser with a predicate over its file's first
// header line (for text formats) or a fixed detection rule (for binary
// WIBL and GeoJSON, which are detected by extension alone).
type headerSignature struct {
	kind      Kind
	extension string
	matches   func(header string) bool
}

// Registry holds the detection table of (extension, header-signature) ->
// parser and the constructed parsers themselves.
type Registry struct {
	signatures []headerSignature
	parsers    map[Kind]Parser
}

// NewRegistry builds the registry with every format parser enabled.
func NewRegistry() *Registry {
	r := &Registry{parsers: map[Kind]Parser{}}

	r.register(KindOFM, ".csv", ofmHeaderMatches, &OFMParser{})
	r.register(KindDCDB, ".csv", dcdbHeaderMatches, &DCDBParser{})
	r.register(KindDCDB, ".xyz", dcdbHeaderMatches, &DCDBParser{})
	r.register(KindLowrance, ".csv", lowranceHeaderMatches, &LowranceParser{})
	r.register(KindBlackBox, ".txt", blackBoxHeaderMatches, &BlackBoxParser{})
	r.register(KindActisense, ".csv", actisenseHeaderMatches, &ActisenseParser{})
	r.register(KindB12CSB, ".geojson", func(string) bool { return true }, &B12CSBParser{})
	r.register(KindWIBL, ".wibl", func(string) bool { return true }, NewWIBLParser(&B12CSBParser{}))

	return r
}

func (r *Registry) register(kind Kind, ext string, match func(string) bool, p Parser) {
	r.signatures = append(r.signatures, headerSignature{kind: kind, extension: ext, matches: match})
	r.parsers[kind] = p
}

// Detect inspects extension and header signature to identify which parser
// should read file, per §4.1.
func (r *Registry) Detect(file string, header string) (Kind, error) {
	ext := normalizeExtension(file)
	// WIBL's numeric-suffixed extension (.wibl.1) still normalizes to a
	// leading ".wibl" match below.
	if strings.HasPrefix(ext, ".wibl") {
		ext = ".wibl"
	}
	for _, sig := range r.signatures {
		if sig.extension != ext {
			continue
		}
		if sig.matches(header) {
			return sig.kind, nil
		}
	}
	return "", &ParserIdentifierError{File: file}
}

// Group resolves the parser kind for every file in files and requires they
// all agree; headers maps file -> first header line (empty for
// binary/GeoJSON formats, where it is unused).
func (r *Registry) Group(files []string, headers map[string]string) (Kind, error) {
	if len(files) == 0 {
		return "", errors.New("no files given")
	}

	seen := map[Kind]struct{}{}
	var order []Kind
	for _, f := range files {
		k, err := r.Detect(f, headers[f])
		if err != nil {
			return "", err
		}
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			order = append(order, k)
		}
	}
	if len(order) > 1 {
		return "", &MultipleParsersError{Kinds: order}
	}
	return order[0], nil
}

// ParserFor returns the constructed Parser for kind.
func (r *Registry) ParserFor(kind Kind) (Parser, bool) {
	p, ok := r.parsers[kind]
	return p, ok
}
