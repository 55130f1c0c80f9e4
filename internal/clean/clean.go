// Package clean implements the range-filter cleaner (spec §4.2): soundings
// outside configured physical bounds are tagged, and any sounding carrying
// an enabled tag is removed from the output set.
package clean

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"

	"github.com/chs-csb/csb-processing/internal/schema"
)

// FilterConfig enumerates the configurable range bounds (§6
// DATA.Transformation.filter). Every field is nil-able: nil means
// unbounded, except that latitude and longitude are always held to the
// WGS84 range [-90, 90] / [-180, 180].
type FilterConfig struct {
	MinLatitude, MaxLatitude   *float64
	MinLongitude, MaxLongitude *float64
	MinDepth, MaxDepth         *float64
	MinSpeed, MaxSpeed         *float64
}

// EnabledFilter names one of the five rejection predicates that §4.2
// toggles independently.
type EnabledFilter string

const (
	FilterLatitude  EnabledFilter = "latitude"
	FilterLongitude EnabledFilter = "longitude"
	FilterDepth     EnabledFilter = "depth"
	FilterTime      EnabledFilter = "time"
	FilterSpeed     EnabledFilter = "speed"
)

var tagForFilter = map[EnabledFilter]schema.OutlierTag{
	FilterLatitude:  schema.TagLatitudeFilter,
	FilterLongitude: schema.TagLongitudeFilter,
	FilterDepth:     schema.TagDepthFilter,
	FilterTime:      schema.TagTimeFilter,
	FilterSpeed:     schema.TagSpeedFilter,
}

// Cleaner applies FilterConfig to a RawSounding set. The clock is
// injectable so "time > now(UTC)" is deterministic under test, per the
// clockwork pattern adopted from couchcryptid-storm-data-etl-service.
type Cleaner struct {
	Config  FilterConfig
	Enabled []EnabledFilter
	Clock   clockwork.Clock
}

// New builds a Cleaner with a real clock.
func New(cfg FilterConfig, enabled []EnabledFilter) *Cleaner {
	return &Cleaner{Config: cfg, Enabled: enabled, Clock: clockwork.NewRealClock()}
}

// tag applies every rejection predicate to s, appending a reason tag for
// each one matched. Ordering is irrelevant and idempotent (§4.2).
func (c *Cleaner) tag(s *schema.RawSounding) {
	cfg := c.Config

	// Coordinates outside WGS84 are tagged even when no bound is configured.
	if s.Latitude < -90 || s.Latitude > 90 {
		s.AddTag(schema.TagLatitudeFilter)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		s.AddTag(schema.TagLongitudeFilter)
	}

	if cfg.MinLatitude != nil && s.Latitude < *cfg.MinLatitude {
		s.AddTag(schema.TagLatitudeFilter)
	}
	if cfg.MaxLatitude != nil && s.Latitude > *cfg.MaxLatitude {
		s.AddTag(schema.TagLatitudeFilter)
	}

	if cfg.MinLongitude != nil && s.Longitude < *cfg.MinLongitude {
		s.AddTag(schema.TagLongitudeFilter)
	}
	if cfg.MaxLongitude != nil && s.Longitude > *cfg.MaxLongitude {
		s.AddTag(schema.TagLongitudeFilter)
	}

	if cfg.MinDepth != nil && s.DepthRawM <= *cfg.MinDepth {
		s.AddTag(schema.TagDepthFilter)
	}
	if cfg.MaxDepth != nil && s.DepthRawM > *cfg.MaxDepth {
		s.AddTag(schema.TagDepthFilter)
	}

	if s.TimeUTC.IsZero() || s.TimeUTC.After(c.Clock.Now().UTC()) {
		s.AddTag(schema.TagTimeFilter)
	}

	if s.SpeedKn != nil {
		if cfg.MinSpeed != nil && *s.SpeedKn < *cfg.MinSpeed {
			s.AddTag(schema.TagSpeedFilter)
		}
		if cfg.MaxSpeed != nil && *s.SpeedKn > *cfg.MaxSpeed {
			s.AddTag(schema.TagSpeedFilter)
		}
	}
}

// enabledSet materializes c.Enabled into a membership-testable set.
func (c *Cleaner) enabledSet() map[schema.OutlierTag]struct{} {
	set := make(map[schema.OutlierTag]struct{}, len(c.Enabled))
	for _, f := range c.Enabled {
		if tag, ok := tagForFilter[f]; ok {
			set[tag] = struct{}{}
		}
	}
	return set
}

// Clean tags every sounding against FilterConfig and physically removes
// any sounding carrying a tag named in Enabled. Tags from filters not in
// Enabled are preserved on the retained rows for audit (§4.2).
func (c *Cleaner) Clean(soundings []schema.RawSounding) []schema.RawSounding {
	enabled := c.enabledSet()

	tagged := make([]schema.RawSounding, len(soundings))
	copy(tagged, soundings)
	for i := range tagged {
		c.tag(&tagged[i])
	}

	return lo.Filter(tagged, func(s schema.RawSounding, _ int) bool {
		for _, t := range s.OutlierTags {
			if _, rejected := enabled[t]; rejected {
				return false
			}
		}
		return true
	})
}

// Now is a small helper retained for callers that want the cleaner's
// notion of "current time" without reaching into its Clock field.
func (c *Cleaner) Now() time.Time { return c.Clock.Now().UTC() }
