package reconcile

import "fmt"

// NaturalCubicSpline fits a natural cubic spline (zero second derivative at
// both endpoints) through (xs[i], ys[i]) and evaluates it at query points,
// per §4.6: "compute values via cubic spline fit over the full non-null
// series." No spline library appears anywhere in the retrieved example
// corpus, so the Thomas-algorithm tridiagonal solve below is hand-rolled.
type NaturalCubicSpline struct {
	xs, ys  []float64
	secondD []float64 // half the second derivative at each knot (the c_i coefficient)
}

// NewNaturalCubicSpline builds a spline from strictly increasing xs. Fewer
// than 2 knots is an error: no interpolation is possible.
func NewNaturalCubicSpline(xs, ys []float64) (*NaturalCubicSpline, error) {
	n := len(xs)
	if n != len(ys) {
		return nil, fmt.Errorf("spline: xs and ys length mismatch (%d vs %d)", n, len(ys))
	}
	if n < 2 {
		return nil, fmt.Errorf("spline: need at least 2 knots, got %d", n)
	}
	for i := 1; i < n; i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("spline: xs must be strictly increasing at index %d", i)
		}
	}

	s := &NaturalCubicSpline{xs: xs, ys: ys, secondD: solveSecondDerivatives(xs, ys)}
	return s, nil
}

// solveSecondDerivatives runs the standard tridiagonal (Thomas algorithm)
// solve for natural-boundary cubic spline second derivatives.
func solveSecondDerivatives(xs, ys []float64) []float64 {
	n := len(xs)
	h := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = xs[i+1] - xs[i]
	}

	alpha := make([]float64, n)
	for i := 1; i < n-1; i++ {
		alpha[i] = 3*(ys[i+1]-ys[i])/h[i] - 3*(ys[i]-ys[i-1])/h[i-1]
	}

	l := make([]float64, n)
	mu := make([]float64, n)
	z := make([]float64, n)
	l[0] = 1

	for i := 1; i < n-1; i++ {
		l[i] = 2*(xs[i+1]-xs[i-1]) - h[i-1]*mu[i-1]
		mu[i] = h[i] / l[i]
		z[i] = (alpha[i] - h[i-1]*z[i-1]) / l[i]
	}
	l[n-1] = 1

	c := make([]float64, n)
	for j := n - 2; j >= 0; j-- {
		c[j] = z[j] - mu[j]*c[j+1]
	}
	return c
}

// Eval evaluates the spline at x, which must lie within [xs[0], xs[len-1]].
func (s *NaturalCubicSpline) Eval(x float64) float64 {
	n := len(s.xs)
	i := s.segment(x)

	h := s.xs[i+1] - s.xs[i]
	b := (s.ys[i+1]-s.ys[i])/h - h*(2*s.secondD[i]+s.secondD[i+1])/3
	d := (s.secondD[i+1] - s.secondD[i]) / (3 * h)

	dx := x - s.xs[i]
	_ = n
	return s.ys[i] + b*dx + s.secondD[i]*dx*dx + d*dx*dx*dx
}

// segment returns the index i such that xs[i] <= x <= xs[i+1], clamping to
// the endpoint segments when x lies outside the knot range.
func (s *NaturalCubicSpline) segment(x float64) int {
	n := len(s.xs)
	if x <= s.xs[0] {
		return 0
	}
	if x >= s.xs[n-1] {
		return n - 2
	}
	lo, hi := 0, n-2
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.xs[mid] <= x {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
