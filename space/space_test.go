package space

import (
	"math"
	"testing"

	"github.com/notargets/SplKernel/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
)

func TestGaussLegendre(t *testing.T) {
	for n := 1; n <= 6; n++ {
		x, w := GaussLegendre(n)
		require.Len(t, x, n)
		assert.InDelta(t, 2.0, floats.Sum(w), 1.e-13)
		for i := 1; i < n; i++ {
			assert.Less(t, x[i-1], x[i])
		}
		// exact up to degree 2n-1, and in agreement with gonum's rule
		for k := 0; k < 2*n; k++ {
			f := func(s float64) float64 { return math.Pow(s, float64(k)) }
			got := 0.0
			for i := range x {
				got += w[i] * f(x[i])
			}
			want := 0.0
			if k%2 == 0 {
				want = 2 / float64(k+1)
			}
			assert.InDelta(t, want, got, 1.e-13, "n=%d k=%d", n, k)
			assert.InDelta(t, quad.Fixed(f, -1, 1, n, quad.Legendre{}, 0), got, 1.e-12, "n=%d k=%d", n, k)
		}
	}
}

func TestJacobiGQ(t *testing.T) {
	// the weights integrate the Jacobi weight itself
	x, w := JacobiGQ(1, 0, 3)
	require.Len(t, x, 4)
	assert.InDelta(t, Gamma0(1, 0), floats.Sum(w), 1.e-13)
	assert.InDelta(t, 2.0, Gamma0(1, 0), 1.e-13)

	// int (1-x) x dx over [-1, 1] = -2/3
	got := 0.0
	for i := range x {
		got += w[i] * x[i]
	}
	assert.InDelta(t, -2./3., got, 1.e-13)
}

func TestElementQuadrature(t *testing.T) {
	pts, wts := ElementQuadrature([]float64{0, 0.25, 1}, 3)
	r, c := pts.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.InDelta(t, 0.25, floats.Sum(wts.RawRowView(0)), 1.e-14)
	assert.InDelta(t, 0.75, floats.Sum(wts.RawRowView(1)), 1.e-14)
	for g := 0; g < 3; g++ {
		assert.True(t, pts.At(0, g) > 0 && pts.At(0, g) < 0.25)
		assert.True(t, pts.At(1, g) > 0.25 && pts.At(1, g) < 1)
	}
}

func TestKnots(t *testing.T) {
	knots := ClampedKnots(2, 3)
	third := 1. / 3.
	assert.InDeltaSlice(t, []float64{0, 0, 0, third, 2 * third, 1, 1, 1}, knots, 1.e-15)
	assert.InDeltaSlice(t, []float64{0, third, 2 * third, 1}, Breakpoints(knots), 1.e-15)
	assert.InDeltaSlice(t, []float64{0, 1. / 6., 0.5, 5. / 6., 1}, Greville(knots, 2), 1.e-15)
	assert.InDeltaSlice(t, []float64{1. / 6., 0.5, 5. / 6.}, Greville(ClampedKnots(0, 3), 0), 1.e-15)

	tests := []struct {
		x    float64
		span int
	}{
		{0, 2},
		{0.1, 2},
		{third, 3},
		{0.5, 3},
		{0.9, 4},
		{1, 4},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.span, FindSpan(knots, 2, tc.x), "x=%g", tc.x)
	}
}

func TestBasisFunsDers(t *testing.T) {
	for _, p := range []int{1, 2, 3} {
		s, err := NewSpline1D(p, 4)
		require.NoError(t, err)
		for _, x := range []float64{0, 0.1, 0.37, 0.5, 0.99, 1} {
			span := FindSpan(s.Knots, p, x)
			ders := BasisFunsDers(s.Knots, p, x, span, p+1)
			require.Len(t, ders, p+2)
			assert.InDelta(t, 1.0, floats.Sum(ders[0]), 1.e-14, "p=%d x=%g", p, x)
			for k := 1; k <= p; k++ {
				assert.InDelta(t, 0.0, floats.Sum(ders[k]), 1.e-10, "p=%d x=%g k=%d", p, x, k)
			}
			for _, v := range ders[p+1] {
				assert.Equal(t, 0.0, v)
			}
			for _, v := range ders[0] {
				assert.GreaterOrEqual(t, v, 0.0)
			}
		}
	}

	t.Run("Linear", func(t *testing.T) {
		// hat functions on [0, 0.5, 1]
		knots := ClampedKnots(1, 2)
		d := BasisFunsDers(knots, 1, 0.25, 1, 1)
		assert.InDeltaSlice(t, []float64{0.5, 0.5}, d[0], 1.e-15)
		assert.InDeltaSlice(t, []float64{-2, 2}, d[1], 1.e-15)
	})

	t.Run("GrevilleReproducesX", func(t *testing.T) {
		s, err := NewSpline1D(3, 5)
		require.NoError(t, err)
		g := Greville(s.Knots, 3)
		require.Len(t, g, s.NBasis())
		for _, x := range []float64{0, 0.13, 0.5, 0.77, 1} {
			assert.InDelta(t, x, s.Eval(g, x), 1.e-14)
		}
	})
}

func TestNewTensorSpace(t *testing.T) {
	ts, err := NewTensorSpace([]int{2, 1}, []int{3, 4}, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, ts.Dim())
	assert.Equal(t, []int{2, 1}, ts.Degrees())
	assert.Equal(t, []int{3, 4}, ts.Elements())

	vs := ts.VectorSpace()
	assert.Equal(t, []int{5, 5}, vs.Npts())
	assert.Equal(t, []int{2, 1}, vs.Pads())
	assert.Equal(t, []int{0, 0}, vs.Starts())
	assert.Equal(t, []int{4, 4}, vs.Ends())

	attr := func(name string) []runner.Value {
		t.Helper()
		v, err := ts.Attr(name)
		require.NoError(t, err)
		tup, ok := v.([]runner.Value)
		require.True(t, ok)
		require.Len(t, tup, 2)
		return tup
	}
	assert.Equal(t, []runner.Value{3.0, 2.0}, attr("quad_order"))
	spans := attr("spans")[0].(*runner.Tensor)
	assert.Equal(t, []float64{2, 3, 4}, spans.Values())

	basis := attr("quad_basis")[0].(*runner.Tensor)
	assert.Equal(t, []int{3, 3, 2, 3}, basis.Shape())
	for e := 0; e < 3; e++ {
		for g := 0; g < 3; g++ {
			sum, dsum := 0.0, 0.0
			for j := 0; j < 3; j++ {
				sum += basis.At(e, j, 0, g)
				dsum += basis.At(e, j, 1, g)
			}
			assert.InDelta(t, 1.0, sum, 1.e-14)
			assert.InDelta(t, 0.0, dsum, 1.e-12)
		}
	}
	weights := attr("quad_weights")[1].(*runner.Tensor)
	assert.InDelta(t, 1.0, weights.Sum(), 1.e-14)

	_, err = ts.Attr("knots")
	assert.Error(t, err)

	t.Run("Errors", func(t *testing.T) {
		for _, args := range []struct {
			degrees, elements, quad []int
			nderiv                  int
		}{
			{[]int{}, []int{}, nil, 1},
			{[]int{1, 1, 1, 1}, []int{1, 1, 1, 1}, nil, 1},
			{[]int{1, 1}, []int{2}, nil, 1},
			{[]int{1}, []int{2}, []int{2, 2}, 1},
			{[]int{1}, []int{0}, nil, 1},
			{[]int{-1}, []int{2}, nil, 1},
			{[]int{1}, []int{2}, []int{0}, 1},
			{[]int{1}, []int{2}, nil, -1},
		} {
			_, err := NewTensorSpace(args.degrees, args.elements, args.quad, args.nderiv)
			assert.Error(t, err, "%+v", args)
		}
	})
}

func TestRestrict(t *testing.T) {
	ts, err := NewTensorSpace([]int{2, 1}, []int{4, 3}, nil, 1)
	require.NoError(t, err)

	sub, err := ts.Restrict([]int{1, 0}, []int{2, 2})
	require.NoError(t, err)
	vs := sub.VectorSpace()
	assert.Equal(t, ts.VectorSpace().Npts(), vs.Npts())
	assert.Equal(t, []int{1, 0}, vs.Starts())
	assert.Equal(t, []int{4, 3}, vs.Ends())

	// the full space is unchanged and shares its tables
	assert.Equal(t, []int{0, 0}, ts.VectorSpace().Starts())
	a, _ := ts.Attr("quad_points")
	b, _ := sub.Attr("quad_points")
	assert.Same(t, a.([]runner.Value)[0], b.([]runner.Value)[0])

	for _, bad := range [][2][]int{
		{{0}, {1}},
		{{-1, 0}, {1, 1}},
		{{0, 0}, {4, 1}},
		{{2, 0}, {1, 1}},
	} {
		_, err := ts.Restrict(bad[0], bad[1])
		assert.Error(t, err, "%v", bad)
	}
}

func TestField(t *testing.T) {
	ts, err := NewTensorSpace([]int{2, 3}, []int{3, 2}, nil, 1)
	require.NoError(t, err)

	t.Run("Storage", func(t *testing.T) {
		f := NewField("F", ts)
		assert.Equal(t, []int{9, 11}, f.Coeffs().Shape())
		f.Set(3, 0, 0)
		assert.Equal(t, 3.0, f.At(0, 0))
		assert.Equal(t, 3.0, f.Coeffs().At(2, 3))
		c, err := f.Attr("coeffs")
		require.NoError(t, err)
		assert.Same(t, f.Coeffs(), c)
	})

	t.Run("Interpolate", func(t *testing.T) {
		f := NewField("F", ts)
		f.Interpolate(func(x []float64) float64 { return 1 + 2*x[0] - 3*x[1] })
		for _, pt := range [][2]float64{{0, 0}, {0.2, 0.7}, {1, 0.5}, {0.5, 1}} {
			assert.InDelta(t, 1+2*pt[0]-3*pt[1], f.Eval(pt[0], pt[1]), 1.e-13)
		}
		c := NewConstantField("c", ts, 2.5)
		assert.InDelta(t, 2.5, c.Eval(0.3, 0.6), 1.e-14)
	})

	t.Run("Mappings", func(t *testing.T) {
		m, err := NewAffineMapping("M", ts, [][]float64{{2, 0}, {1, 1}}, []float64{-1, 0})
		require.NoError(t, err)
		fields := m.Fields()
		require.Len(t, fields, 2)
		assert.InDelta(t, 2*0.3-1, fields[0].Eval(0.3, 0.4), 1.e-13)
		assert.InDelta(t, 0.7, fields[1].Eval(0.3, 0.4), 1.e-13)

		v, err := m.Attr("fields")
		require.NoError(t, err)
		assert.Len(t, v, 2)

		id, err := NewIdentityMapping("I", ts)
		require.NoError(t, err)
		assert.InDelta(t, 0.4, id.Fields()[1].Eval(0.3, 0.4), 1.e-13)

		_, err = NewAffineMapping("M", ts, [][]float64{{1}}, []float64{0})
		assert.Error(t, err)
		_, err = NewAffineMapping("M", ts, [][]float64{{1, 0}, {1}}, []float64{0, 0})
		assert.Error(t, err)

		other, err := NewTensorSpace([]int{1, 1}, []int{2, 2}, nil, 1)
		require.NoError(t, err)
		_, err = NewMapping("M", NewField("x", ts), NewField("y", other))
		assert.Error(t, err)
		_, err = NewMapping("M", NewField("x", ts))
		assert.Error(t, err)
		_, err = NewMapping("M")
		assert.Error(t, err)
	})
}
