package space

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// JacobiGQ computes the N+1 point Gauss quadrature for the Jacobi weight
// (1-x)^alpha (1+x)^beta on [-1, 1] from the eigen decomposition of the
// Jacobi matrix
func JacobiGQ(alpha, beta float64, N int) (X, W []float64) {
	if N == 0 {
		return []float64{-(alpha - beta) / (alpha + beta + 2.)}, []float64{2.}
	}

	h1 := make([]float64, N+1)
	for i := range h1 {
		h1[i] = 2*float64(i) + alpha + beta
	}

	// main diagonal: d0[i] = -(β²-α²)/((2i+α+β)*(2i+α+β+2))
	d0 := make([]float64, N+1)
	fac := beta*beta - alpha*alpha
	for i := range d0 {
		d0[i] = fac / (h1[i] * (h1[i] + 2.))
	}
	if alpha+beta < 10*1.e-16 {
		d0[0] = 0.
	}

	d1 := make([]float64, N)
	for i := range d1 {
		ip1 := float64(i + 1)
		d1[i] = 2.0 / (h1[i] + 2.0) * math.Sqrt(
			ip1*(ip1+alpha+beta)*(ip1+alpha)*(ip1+beta)/(h1[i]+1)/(h1[i]+3),
		)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(NewSymTriDiagonal(d0, d1), true); !ok {
		panic("eigenvalue decomposition failed")
	}
	X = eig.Values(nil)

	var vv mat.Dense
	eig.VectorsTo(&vv)
	W = append([]float64(nil), vv.RawRowView(0)...)
	g0 := Gamma0(alpha, beta)
	for i := range W {
		W[i] *= W[i] * g0
	}
	return X, W
}

// Gamma0 is the integral of the Jacobi weight over [-1, 1]
func Gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	return math.Gamma(alpha+1.) * math.Gamma(beta+1.) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

// NewSymTriDiagonal builds the symmetric matrix with diagonal d0 and first
// off-diagonal d1
func NewSymTriDiagonal(d0, d1 []float64) *mat.SymDense {
	n := len(d0)
	tri := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		tri.SetSym(i, i, d0[i])
		if i < n-1 {
			tri.SetSym(i, i+1, d1[i])
		}
	}
	return tri
}

// GaussLegendre returns the n point Gauss-Legendre rule on [-1, 1]
func GaussLegendre(n int) (x, w []float64) {
	return JacobiGQ(0, 0, n-1)
}

// ElementQuadrature maps an n point Gauss-Legendre rule onto every interval
// [breaks[e], breaks[e+1]]. The result is indexed [element][point].
func ElementQuadrature(breaks []float64, n int) (points, weights *mat.Dense) {
	x, w := GaussLegendre(n)
	ne := len(breaks) - 1
	points, weights = mat.NewDense(ne, n, nil), mat.NewDense(ne, n, nil)
	for e := 0; e < ne; e++ {
		a, b := breaks[e], breaks[e+1]
		half := 0.5 * (b - a)
		for g := range x {
			points.Set(e, g, a+half*(x[g]+1))
			weights.Set(e, g, half*w[g])
		}
	}
	return points, weights
}
