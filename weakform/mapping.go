package weakform

import (
	"github.com/notargets/SplKernel/symbolic"
)

// Mapping is a geometric transform from the logical domain to a physical one
// of the same dimension
type Mapping struct {
	Name string
	Dim  int
}

func NewMapping(name string, dim int) *Mapping {
	return &Mapping{Name: name, Dim: dim}
}

// Component returns the i-th physical coordinate M[i]
func (m *Mapping) Component(i int) symbolic.Expr {
	return &symbolic.MappingComponent{Mapping: m.Name, Index: i}
}

func (m *Mapping) Components() []symbolic.Expr {
	out := make([]symbolic.Expr, m.Dim)
	for i := range out {
		out[i] = m.Component(i)
	}
	return out
}

// Jacobian returns J with J[i][j] = d M[j] / d x_i: row i is the logical
// derivative along axis i
func (m *Mapping) Jacobian() [][]symbolic.Expr {
	J := make([][]symbolic.Expr, m.Dim)
	for i := range J {
		J[i] = make([]symbolic.Expr, m.Dim)
		for j := range J[i] {
			J[i][j] = symbolic.D(i, m.Component(j))
		}
	}
	return J
}

// DetJacobian returns the Jacobian determinant expression
func (m *Mapping) DetJacobian() symbolic.Expr {
	return det(m.Jacobian())
}

// FirstDerivatives returns every d M[i] / d x_d, axis-major then component
func (m *Mapping) FirstDerivatives() []symbolic.Expr {
	var out []symbolic.Expr
	for d := 0; d < m.Dim; d++ {
		for i := 0; i < m.Dim; i++ {
			out = append(out, symbolic.D(d, m.Component(i)))
		}
	}
	return out
}

// Covariant pulls a logical gradient back to the physical one:
// grad = J^{-1} lgrad with J^{-1} = adj(J) * det(J)^{-1}
func (m *Mapping) Covariant(lgrad []symbolic.Expr) []symbolic.Expr {
	J := m.Jacobian()
	adj := adjugate(J)
	invDet := symbolic.Power(det(J), symbolic.Num(-1))
	out := make([]symbolic.Expr, m.Dim)
	for i := range out {
		terms := make([]symbolic.Expr, m.Dim)
		for j := range terms {
			terms[j] = symbolic.Prod(adj[i][j], lgrad[j])
		}
		out[i] = symbolic.Prod(symbolic.Sum(terms...), invDet)
	}
	return out
}

func det(a [][]symbolic.Expr) symbolic.Expr {
	switch len(a) {
	case 0:
		return symbolic.One
	case 1:
		return a[0][0]
	case 2:
		return symbolic.Sub(symbolic.Prod(a[0][0], a[1][1]), symbolic.Prod(a[0][1], a[1][0]))
	}
	terms := make([]symbolic.Expr, len(a))
	for j := range a {
		c := symbolic.Prod(a[0][j], det(minor(a, 0, j)))
		if j%2 == 1 {
			c = symbolic.Neg(c)
		}
		terms[j] = c
	}
	return symbolic.Sum(terms...)
}

func minor(a [][]symbolic.Expr, row, col int) [][]symbolic.Expr {
	out := make([][]symbolic.Expr, 0, len(a)-1)
	for i := range a {
		if i == row {
			continue
		}
		r := make([]symbolic.Expr, 0, len(a)-1)
		for j := range a[i] {
			if j == col {
				continue
			}
			r = append(r, a[i][j])
		}
		out = append(out, r)
	}
	return out
}

// adjugate returns adj(a), the transpose of the cofactor matrix
func adjugate(a [][]symbolic.Expr) [][]symbolic.Expr {
	n := len(a)
	out := make([][]symbolic.Expr, n)
	for i := range out {
		out[i] = make([]symbolic.Expr, n)
	}
	if n == 1 {
		out[0][0] = symbolic.One
		return out
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c := det(minor(a, i, j))
			if (i+j)%2 == 1 {
				c = symbolic.Neg(c)
			}
			out[j][i] = c
		}
	}
	return out
}
