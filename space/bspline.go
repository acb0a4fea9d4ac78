package space

import (
	"fmt"
	"sort"
)

// ClampedKnots returns the open uniform knot vector of a degree p spline on
// [0, 1] split into ne elements
func ClampedKnots(p, ne int) []float64 {
	knots := make([]float64, 0, ne+2*p+1)
	for i := 0; i < p; i++ {
		knots = append(knots, 0)
	}
	for i := 0; i <= ne; i++ {
		knots = append(knots, float64(i)/float64(ne))
	}
	for i := 0; i < p; i++ {
		knots = append(knots, 1)
	}
	return knots
}

// Breakpoints returns the distinct knots of a knot vector
func Breakpoints(knots []float64) []float64 {
	var out []float64
	for i, k := range knots {
		if i == 0 || k != knots[i-1] {
			out = append(out, k)
		}
	}
	return out
}

// FindSpan returns the index i with knots[i] <= x < knots[i+1], the last
// non-empty span for x at the right end
func FindSpan(knots []float64, p int, x float64) int {
	low, high := p, len(knots)-1-p
	if x <= knots[low] {
		return low
	}
	if x >= knots[high] {
		return high - 1
	}
	// first knot strictly greater than x, within [low, high]
	i := sort.Search(high-low+1, func(i int) bool { return knots[low+i] > x })
	return low + i - 1
}

// BasisFunsDers evaluates the p+1 non-vanishing basis functions of span at x
// and their derivatives up to order n. The result is indexed
// [order][local basis].
func BasisFunsDers(knots []float64, p int, x float64, span, n int) [][]float64 {
	ndu := make([][]float64, p+1)
	for i := range ndu {
		ndu[i] = make([]float64, p+1)
	}
	left := make([]float64, p+1)
	right := make([]float64, p+1)
	ndu[0][0] = 1
	for j := 1; j <= p; j++ {
		left[j] = x - knots[span+1-j]
		right[j] = knots[span+j] - x
		saved := 0.0
		for r := 0; r < j; r++ {
			// lower triangle holds the knot differences
			ndu[j][r] = right[r+1] + left[j-r]
			tmp := ndu[r][j-1] / ndu[j][r]
			ndu[r][j] = saved + right[r+1]*tmp
			saved = left[j-r] * tmp
		}
		ndu[j][j] = saved
	}

	ders := make([][]float64, n+1)
	for k := range ders {
		ders[k] = make([]float64, p+1)
	}
	for j := 0; j <= p; j++ {
		ders[0][j] = ndu[j][p]
	}
	a := [2][]float64{make([]float64, p+1), make([]float64, p+1)}
	for r := 0; r <= p; r++ {
		s1, s2 := 0, 1
		a[0][0] = 1
		for k := 1; k <= n && k <= p; k++ {
			d := 0.0
			rk, pk := r-k, p-k
			if r >= k {
				a[s2][0] = a[s1][0] / ndu[pk+1][rk]
				d = a[s2][0] * ndu[rk][pk]
			}
			j1, j2 := 1, k-1
			if rk < -1 {
				j1 = -rk
			}
			if r-1 > pk {
				j2 = p - r
			}
			for j := j1; j <= j2; j++ {
				a[s2][j] = (a[s1][j] - a[s1][j-1]) / ndu[pk+1][rk+j]
				d += a[s2][j] * ndu[rk+j][pk]
			}
			if r <= pk {
				a[s2][k] = -a[s1][k-1] / ndu[pk+1][r]
				d += a[s2][k] * ndu[r][pk]
			}
			ders[k][r] = d
			s1, s2 = s2, s1
		}
	}
	f := float64(p)
	for k := 1; k <= n && k <= p; k++ {
		for j := 0; j <= p; j++ {
			ders[k][j] *= f
		}
		f *= float64(p - k)
	}
	return ders
}

// Greville returns the Greville abscissae, the averages of p consecutive
// interior knots, of every basis function
func Greville(knots []float64, p int) []float64 {
	n := len(knots) - p - 1
	out := make([]float64, n)
	for i := range out {
		if p == 0 {
			out[i] = 0.5 * (knots[i] + knots[i+1])
			continue
		}
		s := 0.0
		for j := 1; j <= p; j++ {
			s += knots[i+j]
		}
		out[i] = s / float64(p)
	}
	return out
}

// Spline1D is a univariate spline space over a clamped uniform knot vector
type Spline1D struct {
	Degree   int
	Elements int
	Knots    []float64
}

func NewSpline1D(degree, elements int) (*Spline1D, error) {
	if degree < 0 {
		return nil, fmt.Errorf("negative degree %d", degree)
	}
	if elements < 1 {
		return nil, fmt.Errorf("expecting at least one element, got %d", elements)
	}
	return &Spline1D{Degree: degree, Elements: elements, Knots: ClampedKnots(degree, elements)}, nil
}

// NBasis is the number of basis functions
func (s *Spline1D) NBasis() int { return s.Elements + s.Degree }

// Eval evaluates the spline with coefficients c at x
func (s *Spline1D) Eval(c []float64, x float64) float64 {
	span := FindSpan(s.Knots, s.Degree, x)
	b := BasisFunsDers(s.Knots, s.Degree, x, span, 0)[0]
	v := 0.0
	for j := range b {
		v += c[span-s.Degree+j] * b[j]
	}
	return v
}
