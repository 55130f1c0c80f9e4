// Package reconcile implements the water-level reconciler (§4.6): for a
// station and interval, it walks a prioritized list of time-series codes,
// interpolating short gaps with a cubic spline and filling longer gaps
// from the next-priority series, producing one continuous series.
package reconcile

import (
	"fmt"
	"time"
)

// Sample is one point of a water-level series. ValueM is nil to represent
// an explicit NaN row (§4.6 fetch_series step 3: edge padding).
type Sample struct {
	EventDate  time.Time
	ValueM     *float64
	SeriesCode string
	QCFlag     string
}

func (s Sample) isNull() bool { return s.ValueM == nil }

// Series is a time-ordered run of Samples for a single contributing code.
type Series []Sample

// ReconciledWaterLevel is the reconciler's output for one (station,
// interval) pair (§3).
type ReconciledWaterLevel struct {
	StationID        string
	From, To         time.Time
	Samples          []Sample
	ContributingCodes []string
}

// NoWaterLevelDataError is raised when a priority series returns zero
// samples for the requested interval (§4.6).
type NoWaterLevelDataError struct {
	StationID string
	From, To  time.Time
}

func (e *NoWaterLevelDataError) Error() string {
	return fmt.Sprintf("no water level data for station %s over [%s, %s]", e.StationID, e.From, e.To)
}

// InterpolationValueError is raised when a spline fit encounters a NaN
// value inside the interpolation window (§4.6); the outer reconcile loop
// retries with a doubled buffer, excluding the offending series after 5
// attempts.
type InterpolationValueError struct {
	From, To time.Time
	Series   string
}

func (e *InterpolationValueError) Error() string {
	return fmt.Sprintf("interpolation value error for series %q over [%s, %s]", e.Series, e.From, e.To)
}

// Gap is an interval between two consecutive samples (NaN edge pads
// included) whose delta exceeds the configured gap threshold (§4.6
// identify_gaps).
type Gap struct {
	Start, End time.Time
}

// RetryState tracks the outer reconcile loop's retry controller (§4.6:
// "retried with doubled buffer; after 5 failed attempts the offending
// series is excluded and the reconciliation restarted without it" —
// expressed here as an explicit, inspectable struct rather than loop-local
// variables, since the retry decision spans the whole per-station job).
type RetryState struct {
	Attempt        int
	BufferTime     time.Duration
	ExcludedSeries map[string]struct{}
}

// NewRetryState starts at attempt 0 with the given initial buffer.
func NewRetryState(initialBuffer time.Duration) *RetryState {
	return &RetryState{BufferTime: initialBuffer, ExcludedSeries: make(map[string]struct{})}
}

// MaxInterpolationRetries is fixed at 5 per §4.6 (resolved open question:
// the spec names this value but never exposes it as configuration).
const MaxInterpolationRetries = 5

// NextAttempt records one failed attempt, doubling the buffer and
// advancing the attempt counter, and excludes series once
// MaxInterpolationRetries attempts have failed.
func (r *RetryState) NextAttempt(series string) (exhausted bool) {
	r.Attempt++
	if r.Attempt >= MaxInterpolationRetries {
		r.ExcludedSeries[series] = struct{}{}
		r.Attempt = 0
		r.BufferTime = 0
		return true
	}
	if r.BufferTime == 0 {
		r.BufferTime = time.Minute
	} else {
		r.BufferTime *= 2
	}
	return false
}
