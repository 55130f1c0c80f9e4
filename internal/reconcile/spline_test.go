package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNaturalCubicSplineInterpolatesLinearDataExactly(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{0, 1, 2, 3, 4}
	s, err := NewNaturalCubicSpline(xs, ys)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, s.Eval(1.5), 1e-9)
	assert.InDelta(t, 0.0, s.Eval(0), 1e-9)
	assert.InDelta(t, 4.0, s.Eval(4), 1e-9)
}

func TestNaturalCubicSplinePassesThroughKnots(t *testing.T) {
	xs := []float64{0, 2, 5, 9}
	ys := []float64{1.0, 3.5, 2.0, 4.2}
	s, err := NewNaturalCubicSpline(xs, ys)
	require.NoError(t, err)

	for i, x := range xs {
		assert.InDelta(t, ys[i], s.Eval(x), 1e-9)
	}
}

func TestNewNaturalCubicSplineRejectsTooFewKnots(t *testing.T) {
	_, err := NewNaturalCubicSpline([]float64{1}, []float64{1})
	assert.Error(t, err)
}

func TestNewNaturalCubicSplineRejectsNonIncreasingXs(t *testing.T) {
	_, err := NewNaturalCubicSpline([]float64{1, 1, 2}, []float64{1, 2, 3})
	assert.Error(t, err)
}
