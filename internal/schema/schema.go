// Package schema defines the canonical sounding types that flow through the
// CSB processing pipeline and the stage-boundary validation that enforces
// their invariants.
package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// OutlierTag names a reason a RawSounding row was flagged by the cleaner.
type OutlierTag string

const (
	TagLatitudeFilter  OutlierTag = "rejected_by_latitude_filter"
	TagLongitudeFilter OutlierTag = "rejected_by_longitude_filter"
	TagDepthFilter     OutlierTag = "rejected_by_depth_filter"
	TagTimeFilter      OutlierTag = "rejected_by_time_filter"
	TagSpeedFilter     OutlierTag = "rejected_by_speed_filter"
)

// IHOOrder is the categorical survey-quality tier assigned to a sounding.
type IHOOrder string

const (
	OrderExclusive IHOOrder = "Exclusive"
	OrderSpecial   IHOOrder = "Special"
	Order1a        IHOOrder = "1a"
	Order1b        IHOOrder = "1b"
	Order2         IHOOrder = "2"
	OrderNotMet    IHOOrder = "NotMet"
)

// orderStrictness ranks orders from strictest (lowest) to loosest (highest),
// mirroring the decreasing-strictness enumeration order in spec §4.8.
var orderStrictness = map[IHOOrder]int{
	OrderExclusive: 0,
	OrderSpecial:   1,
	Order1a:        2,
	Order1b:        3,
	Order2:         4,
	OrderNotMet:    5,
}

// Stricter reports whether order a is at least as strict as order b.
func (a IHOOrder) Stricter(b IHOOrder) bool {
	return orderStrictness[a] <= orderStrictness[b]
}

// Worse returns whichever of a, b is the looser (worse) classification.
func Worse(a, b IHOOrder) IHOOrder {
	if orderStrictness[a] >= orderStrictness[b] {
		return a
	}
	return b
}

// RawSounding is the canonical per-sample record produced by the parser
// framework (§3) and consumed by the cleaner.
type RawSounding struct {
	TimeUTC    time.Time    `validate:"required"`
	Latitude   float64      `validate:"gte=-90,lte=90"`
	Longitude  float64      `validate:"gte=-180,lte=180"`
	DepthRawM  float64      `validate:"gt=0"`
	SpeedKn    *float64     `validate:"omitempty,gte=0"`
	Source     string       `validate:"required"`
	OutlierTags []OutlierTag
}

// HasTag reports whether the sounding already carries the given tag.
func (r *RawSounding) HasTag(tag OutlierTag) bool {
	for _, t := range r.OutlierTags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends tag if not already present.
func (r *RawSounding) AddTag(tag OutlierTag) {
	if !r.HasTag(tag) {
		r.OutlierTags = append(r.OutlierTags, tag)
	}
}

// EnrichedSounding is a RawSounding joined to its tide zone (§3, post
// zone-association).
type EnrichedSounding struct {
	RawSounding
	TideZoneID   *string
	TideZoneCode string
	TideZoneName string
}

// WaterLevelInfo records how a sounding's water level was derived (§4.7).
type WaterLevelInfo struct {
	WaterLevelM     float64
	TimeSeriesCode  string
	TideZoneID      string
	TideZoneCode    string
	TideZoneName    string
	SampleDeltaT    time.Duration
	Reduced         bool
	// DepthBandConvention is passed through for the downstream Caris/export
	// collaborator to consult (resolved open question, SPEC_FULL.md); this
	// core never acts on it.
	DepthBandConvention string
}

// ProcessedSounding is the final reduced, uncertainty-qualified record
// (§3).
type ProcessedSounding struct {
	EnrichedSounding
	DepthProcessedM float64
	WaterLevel      WaterLevelInfo
	UncertaintyM    float64 `validate:"gte=0"` // TVU
	THUM            float64 `validate:"gte=0"`
	IHOOrder        IHOOrder
}

// SchemaViolationError is returned when a stage's input or output fails its
// validation contract (§3, §7). It names the offending columns so callers
// can report precisely what was malformed instead of a generic failure.
type SchemaViolationError struct {
	Stage   string
	Columns []string
	Cause   error
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation in stage %q on columns [%s]: %v",
		e.Stage, strings.Join(e.Columns, ", "), e.Cause)
}

func (e *SchemaViolationError) Unwrap() error { return e.Cause }

var validate = validator.New()

// Validate checks a single struct against its validator tags and, on
// failure, returns a SchemaViolationError naming every offending field.
func Validate(stage string, v any) error {
	if err := validate.Struct(v); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return &SchemaViolationError{Stage: stage, Cause: err}
		}
		cols := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			cols = append(cols, fe.Namespace())
		}
		return &SchemaViolationError{Stage: stage, Columns: cols, Cause: err}
	}
	return nil
}

// ValidateAll validates a slice of items, aggregating every offending
// column across the whole batch into a single SchemaViolationError rather
// than failing on the first row; stage boundaries validate the whole batch
// at once (§3).
func ValidateAll[T any](stage string, items []T) error {
	seen := map[string]struct{}{}
	var cols []string
	var firstErr error
	for i := range items {
		if err := Validate(stage, &items[i]); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			var sv *SchemaViolationError
			if se, ok := err.(*SchemaViolationError); ok {
				sv = se
			}
			if sv != nil {
				for _, c := range sv.Columns {
					if _, ok := seen[c]; !ok {
						seen[c] = struct{}{}
						cols = append(cols, c)
					}
				}
			}
		}
	}
	if firstErr == nil {
		return nil
	}
	return &SchemaViolationError{Stage: stage, Columns: cols, Cause: firstErr}
}
