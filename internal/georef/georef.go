// Package georef implements the georeferencer (§4.7): joins each sounding
// to its reconciled water-level sample by nearest timestamp, applies
// waterline and sounder lever arms, and produces the processed depth.
package georef

import (
	"fmt"
	"sort"
	"time"

	"github.com/chs-csb/csb-processing/internal/reconcile"
	"github.com/chs-csb/csb-processing/internal/schema"
	"github.com/chs-csb/csb-processing/internal/vessel"
)

// SensorConfigurationError is raised when the vessel sensor configuration
// changes mid-run for waterline or sounder (§4.7 step 3: "no mid-run
// configuration change allowed").
type SensorConfigurationError struct {
	Sensor string
	TMin, TMax time.Time
}

func (e *SensorConfigurationError) Error() string {
	return fmt.Sprintf("sensor configuration for %q changed between %s and %s", e.Sensor, e.TMin, e.TMax)
}

// Config configures Georeference.
type Config struct {
	WaterLevelToleranceMinutes int
	VesselConfig               vessel.ConfigLookup
}

// ZeroWaterLevel builds a reconciled-water-level substitute covering every
// zone referenced by enriched at a constant 0 m, keyed by zone id the same
// way the real reconciler's output is keyed. This is the `wlz` convenience
// flow (supplemented from original_source/example_wlz.py): it lets a run
// skip the tidal API and reconciler entirely — useful for debugging raw
// sounder geometry — selected via
// DATA.Georeference.water_level.disable_tide_correction.
func ZeroWaterLevel(enriched []schema.EnrichedSounding) map[string]reconcile.ReconciledWaterLevel {
	out := make(map[string]reconcile.ReconciledWaterLevel)
	for _, s := range enriched {
		if s.TideZoneID == nil {
			continue
		}
		id := *s.TideZoneID
		zero := 0.0
		sample := reconcile.Sample{EventDate: s.TimeUTC, ValueM: &zero, SeriesCode: "wlz"}
		z, ok := out[id]
		if !ok {
			z = reconcile.ReconciledWaterLevel{StationID: id, ContributingCodes: []string{"wlz"}}
		}
		z.Samples = append(z.Samples, sample)
		out[id] = z
	}
	for id, z := range out {
		if len(z.Samples) == 0 {
			continue
		}
		sort.Slice(z.Samples, func(i, j int) bool { return z.Samples[i].EventDate.Before(z.Samples[j].EventDate) })
		z.From, z.To = z.Samples[0].EventDate, z.Samples[len(z.Samples)-1].EventDate
		out[id] = z
	}
	return out
}

// Georeference runs §4.7's per-sounding algorithm over enriched, given the
// reconciled water level series keyed by tide zone id.
func Georeference(enriched []schema.EnrichedSounding, seriesByZone map[string]reconcile.ReconciledWaterLevel, cfg Config) ([]schema.ProcessedSounding, error) {
	if err := checkStableSensorConfig(enriched, cfg.VesselConfig); err != nil {
		return nil, err
	}

	tolerance := time.Duration(cfg.WaterLevelToleranceMinutes) * time.Minute

	out := make([]schema.ProcessedSounding, len(enriched))
	for i, s := range enriched {
		out[i] = georeferenceOne(s, seriesByZone, cfg.VesselConfig, tolerance)
	}
	return out, nil
}

func georeferenceOne(s schema.EnrichedSounding, seriesByZone map[string]reconcile.ReconciledWaterLevel, cfg vessel.ConfigLookup, tolerance time.Duration) schema.ProcessedSounding {
	p := schema.ProcessedSounding{EnrichedSounding: s}

	if s.TideZoneID == nil {
		return p
	}
	series, ok := seriesByZone[*s.TideZoneID]
	if !ok {
		return p
	}

	sample, delta, ok := nearestSample(series.Samples, s.TimeUTC)
	if !ok || delta > tolerance {
		return p
	}

	entry, ok := cfg.At(s.TimeUTC)
	if !ok {
		return p
	}

	waterLevel := *sample.ValueM
	p.DepthProcessedM = s.DepthRawM + entry.Sounder.Z - entry.WaterlineZ - waterLevel
	p.WaterLevel = schema.WaterLevelInfo{
		WaterLevelM:    waterLevel,
		TimeSeriesCode: sample.SeriesCode,
		TideZoneID:     *s.TideZoneID,
		TideZoneCode:   s.TideZoneCode,
		TideZoneName:   s.TideZoneName,
		SampleDeltaT:   delta,
		Reduced:        true,
	}
	return p
}

// nearestSample finds the sample nearest in time to t, returning the
// absolute delta.
func nearestSample(samples []reconcile.Sample, t time.Time) (reconcile.Sample, time.Duration, bool) {
	if len(samples) == 0 {
		return reconcile.Sample{}, 0, false
	}
	i := sort.Search(len(samples), func(i int) bool { return !samples[i].EventDate.Before(t) })

	candidates := make([]int, 0, 2)
	if i < len(samples) {
		candidates = append(candidates, i)
	}
	if i > 0 {
		candidates = append(candidates, i-1)
	}

	best := candidates[0]
	bestDelta := absDuration(samples[best].EventDate.Sub(t))
	for _, c := range candidates[1:] {
		d := absDuration(samples[c].EventDate.Sub(t))
		if d < bestDelta {
			best, bestDelta = c, d
		}
	}
	return samples[best], bestDelta, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// checkStableSensorConfig enforces §4.7 step 3: the waterline and sounder
// configuration at the dataset's earliest timestamp must equal the
// configuration at its latest timestamp.
func checkStableSensorConfig(enriched []schema.EnrichedSounding, cfg vessel.ConfigLookup) error {
	if len(enriched) == 0 {
		return nil
	}
	tMin, tMax := enriched[0].TimeUTC, enriched[0].TimeUTC
	for _, s := range enriched[1:] {
		if s.TimeUTC.Before(tMin) {
			tMin = s.TimeUTC
		}
		if s.TimeUTC.After(tMax) {
			tMax = s.TimeUTC
		}
	}

	atMin, okMin := cfg.At(tMin)
	atMax, okMax := cfg.At(tMax)
	if !okMin || !okMax {
		return nil
	}
	if atMin.Sounder != atMax.Sounder {
		return &SensorConfigurationError{Sensor: "sounder", TMin: tMin, TMax: tMax}
	}
	if atMin.WaterlineZ != atMax.WaterlineZ {
		return &SensorConfigurationError{Sensor: "waterline", TMin: tMin, TMax: tMax}
	}
	return nil
}
