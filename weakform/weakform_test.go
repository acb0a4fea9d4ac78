package weakform

import (
	"testing"

	"github.com/notargets/SplKernel/symbolic"
	"github.com/stretchr/testify/assert"
)

func TestJacobian2D(t *testing.T) {
	m := NewMapping("M", 2)
	J := m.Jacobian()
	assert.Equal(t, "dx1(M[1])", J[0][1].String())
	assert.Equal(t, "dx2(M[0])", J[1][0].String())
	assert.Equal(t, "((dx1(M[0])*dx2(M[1])) + (-1*dx1(M[1])*dx2(M[0])))", m.DetJacobian().String())
	assert.Len(t, m.FirstDerivatives(), 4)
}

func TestCovariant1D(t *testing.T) {
	m := NewMapping("M", 1)
	g := m.Covariant([]symbolic.Expr{symbolic.Sym("u_x1")})
	assert.Equal(t, "(u_x1*pow(dx1(M[0]), -1))", g[0].String())
}

func TestCovariantSharesDeterminant(t *testing.T) {
	m := NewMapping("M", 2)
	lgrad := []symbolic.Expr{symbolic.Sym("u_x1"), symbolic.Sym("u_x2")}
	inv := symbolic.Power(m.DetJacobian(), symbolic.Num(-1))
	for _, g := range m.Covariant(lgrad) {
		assert.Equal(t, 1, symbolic.Count(g, inv), g.String())
	}
}

func TestFormString(t *testing.T) {
	V := &symbolic.Space{Name: "V", Dim: 1}
	u := &symbolic.Function{Name: "u", Space: V}
	v := &symbolic.Function{Name: "v", Space: V}
	a := NewBilinear(v, u, Interior(symbolic.Prod(u, v)))
	b := NewBilinear(v, u, Interior(symbolic.Prod(u, v)))
	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, a.String(), a.WithMapping(NewMapping("M", 1)).String())
	assert.Equal(t, V, a.TestSpace())
	assert.Equal(t, Bilinear, a.Kind)
	assert.Equal(t, "x", a.Coordinates[0].Name)

	f := NewFunctional(V, OnBoundary("Gamma", symbolic.One))
	assert.Equal(t, V, f.TestSpace())
	assert.True(t, f.Terms[0].Target.Boundary)
}
