package reconcile

import "time"

// InterpolateGaps implements §4.6 interpolate_gaps: for each interpolate
// gap, resample onto a uniform grid of period maxTimeGap, evaluating a
// natural cubic spline fit over the full non-null series (time as seconds
// since epoch). Resampled rows carry series_code = "<code>-interpolated".
// A NaN encountered where the spline requires a real input value raises
// InterpolationValueError, which the outer reconcile loop retries.
func InterpolateGaps(full Series, gaps []Gap, maxTimeGap time.Duration, seriesCode string) (Series, error) {
	nonNull := make(Series, 0, len(full))
	for _, s := range full {
		if !s.isNull() {
			nonNull = append(nonNull, s)
		}
	}
	if len(nonNull) < 2 {
		if len(gaps) == 0 {
			return full, nil
		}
		return nil, &InterpolationValueError{Series: seriesCode}
	}

	xs := make([]float64, len(nonNull))
	ys := make([]float64, len(nonNull))
	for i, s := range nonNull {
		xs[i] = float64(s.EventDate.Unix())
		ys[i] = *s.ValueM
	}

	spline, err := NewNaturalCubicSpline(xs, ys)
	if err != nil {
		return nil, &InterpolationValueError{Series: seriesCode}
	}

	out := make(Series, 0, len(full))
	out = append(out, full...)

	for _, gap := range gaps {
		for t := gap.Start.Add(maxTimeGap); t.Before(gap.End); t = t.Add(maxTimeGap) {
			x := float64(t.Unix())
			if x < xs[0] || x > xs[len(xs)-1] {
				return nil, &InterpolationValueError{From: gap.Start, To: gap.End, Series: seriesCode}
			}
			v := spline.Eval(x)
			out = append(out, Sample{
				EventDate:  t,
				ValueM:     &v,
				SeriesCode: seriesCode + "-interpolated",
			})
		}
	}

	sortByTime(out)
	return out, nil
}
