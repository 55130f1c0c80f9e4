package reconcile

import (
	"context"
	"time"
)

// Config configures one Reconcile call (§4.6).
type Config struct {
	// MaxTimeGap is nil to disable interpolation and filling entirely
	// (fetch_series's single result is returned as-is).
	MaxTimeGap *time.Duration
	// ThresholdInterpolationFilling is nil to disable interpolation
	// (every gap becomes a fill gap).
	ThresholdInterpolationFilling *time.Duration
	WLOQCFlagFilter               map[string]struct{}
	BufferTime                    time.Duration
}

// Reconcile runs the outer loop of §4.6 for one station/interval/priority
// list, retrying with a doubled buffer on InterpolationValueError and
// excluding the offending series after MaxInterpolationRetries attempts.
func Reconcile(ctx context.Context, client SeriesFetcher, stationID string, from, to time.Time, priority []string, cfg Config) (ReconciledWaterLevel, error) {
	retry := NewRetryState(cfg.BufferTime)

	for {
		effectivePriority := excludeSeries(priority, retry.ExcludedSeries)
		rwl, err := reconcileOnce(ctx, client, stationID, from, to, effectivePriority, cfg, retry.BufferTime, retry.ExcludedSeries)
		if err == nil {
			return rwl, nil
		}

		var interpErr *InterpolationValueError
		if !asInterpolationValueError(err, &interpErr) {
			return ReconciledWaterLevel{}, err
		}

		if retry.NextAttempt(interpErr.Series) {
			continue // series now excluded; restart with the shrunken priority list
		}
	}
}

func asInterpolationValueError(err error, target **InterpolationValueError) bool {
	e, ok := err.(*InterpolationValueError)
	if ok {
		*target = e
	}
	return ok
}

func excludeSeries(priority []string, excluded map[string]struct{}) []string {
	if len(excluded) == 0 {
		return priority
	}
	out := make([]string, 0, len(priority))
	for _, code := range priority {
		if _, skip := excluded[code]; skip {
			continue
		}
		out = append(out, code)
	}
	return out
}

func reconcileOnce(ctx context.Context, client SeriesFetcher, stationID string, from, to time.Time, priority []string, cfg Config, buffer time.Duration, excludedFromInterp map[string]struct{}) (ReconciledWaterLevel, error) {
	var combined Series
	var contributing []string

	for _, code := range priority {
		series, err := FetchSeries(ctx, client, stationID, code, from, to, buffer, cfg.WLOQCFlagFilter)
		if err != nil {
			if _, isEmpty := err.(*NoWaterLevelDataError); isEmpty {
				continue
			}
			return ReconciledWaterLevel{}, err
		}
		if len(series) == 0 {
			continue
		}
		contributing = append(contributing, code)

		if cfg.MaxTimeGap == nil {
			return finalize(stationID, from, to, series, contributing), nil
		}

		target := combined
		if len(target) == 0 {
			target = series
		}

		threshold := thresholdFor(code, cfg.ThresholdInterpolationFilling, excludedFromInterp)
		allGaps, interpGaps, fillGaps := IdentifyGaps(target, *cfg.MaxTimeGap, threshold)

		if len(allGaps) == 0 {
			if len(combined) == 0 {
				combined = series
			}
			break
		}

		series, err = InterpolateGaps(series, interpGaps, *cfg.MaxTimeGap, code)
		if err != nil {
			return ReconciledWaterLevel{}, err
		}

		combined = Combine(combined, series, fillGaps)
	}

	if len(combined) == 0 && len(contributing) == 0 {
		return ReconciledWaterLevel{}, &NoWaterLevelDataError{StationID: stationID, From: from, To: to}
	}

	return finalize(stationID, from, to, combined, contributing), nil
}

// thresholdFor returns nil (disabling interpolation) when code has been
// excluded by the retry mechanism, per §4.6
// threshold_interpolation_filling_for.
func thresholdFor(code string, configured *time.Duration, excluded map[string]struct{}) *time.Duration {
	if _, skip := excluded[code]; skip {
		return nil
	}
	return configured
}

// finalize implements §4.6 finalize: drop residual NaN rows and attach
// metadata.
func finalize(stationID string, from, to time.Time, samples Series, contributing []string) ReconciledWaterLevel {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.isNull() {
			continue
		}
		out = append(out, s)
	}
	sortByTime(Series(out))

	return ReconciledWaterLevel{
		StationID:         stationID,
		From:              from,
		To:                to,
		Samples:           out,
		ContributingCodes: contributing,
	}
}
