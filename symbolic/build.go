package symbolic

import (
	"math"
	"strconv"
)

var (
	Zero = &Number{Value: 0}
	One  = &Number{Value: 1}
)

func Num(v float64) *Number { return &Number{Value: v} }

func Sym(name string) *Symbol { return &Symbol{Name: name} }

// Symbols returns prefix1 .. prefixN
func Symbols(prefix string, n int) []*Symbol {
	out := make([]*Symbol, n)
	for i := range out {
		out[i] = Sym(prefix + strconv.Itoa(i+1))
	}
	return out
}

func isNumber(e Expr) (float64, bool) {
	if n, ok := e.(*Number); ok {
		return n.Value, true
	}
	return 0, false
}

// Sum builds a flattened sum. Numeric terms are folded into one trailing
// number and zero terms are dropped; the order of the other terms is kept.
func Sum(terms ...Expr) Expr {
	var (
		flat []Expr
		acc  float64
		nums int
	)
	for _, t := range terms {
		if a, ok := t.(*Add); ok {
			for _, s := range a.Terms {
				if v, ok := isNumber(s); ok {
					acc += v
					nums++
					continue
				}
				flat = append(flat, s)
			}
			continue
		}
		if v, ok := isNumber(t); ok {
			acc += v
			nums++
			continue
		}
		flat = append(flat, t)
	}
	if nums > 0 && acc != 0 {
		flat = append(flat, Num(acc))
	}
	switch len(flat) {
	case 0:
		return Zero
	case 1:
		return flat[0]
	}
	return &Add{Terms: flat}
}

// Prod builds a flattened product. Numeric factors are folded into one
// leading number; a zero factor collapses the product.
func Prod(factors ...Expr) Expr {
	var (
		flat  []Expr
		coeff = 1.0
	)
	for _, f := range factors {
		if m, ok := f.(*Mul); ok {
			for _, g := range m.Factors {
				if v, ok := isNumber(g); ok {
					coeff *= v
					continue
				}
				flat = append(flat, g)
			}
			continue
		}
		if v, ok := isNumber(f); ok {
			coeff *= v
			continue
		}
		flat = append(flat, f)
	}
	if coeff == 0 {
		return Zero
	}
	if coeff != 1 {
		flat = append([]Expr{Num(coeff)}, flat...)
	}
	switch len(flat) {
	case 0:
		return One
	case 1:
		return flat[0]
	}
	return &Mul{Factors: flat}
}

func Power(base, exp Expr) Expr {
	if e, ok := isNumber(exp); ok {
		if e == 0 {
			return One
		}
		if e == 1 {
			return base
		}
		if b, ok := isNumber(base); ok {
			return Num(math.Pow(b, e))
		}
	}
	return &Pow{Base: base, Exp: exp}
}

func Neg(e Expr) Expr { return Prod(Num(-1), e) }

func Sub(a, b Expr) Expr { return Sum(a, Neg(b)) }

func Div(a, b Expr) Expr { return Prod(a, Power(b, Num(-1))) }

func Sqrt(e Expr) Expr { return Power(e, Num(0.5)) }

func Apply(name string, arg Expr) Expr { return &Func{Name: name, Arg: arg} }

func Sin(e Expr) Expr { return Apply("sin", e) }
func Cos(e Expr) Expr { return Apply("cos", e) }
func Exp(e Expr) Expr { return Apply("exp", e) }

// D builds the logical partial derivative along axis. Nested derivatives are
// kept in canonical order, innermost axis smallest, so that mixed partials
// compare equal regardless of construction order.
func D(axis int, e Expr) Expr {
	if inner, ok := e.(*Derivative); ok && inner.Axis > axis {
		return &Derivative{Axis: inner.Axis, Arg: D(axis, inner.Arg)}
	}
	return &Derivative{Axis: axis, Arg: e}
}

// Diff differentiates e along a logical axis, pushing the derivative through
// sums, products, powers and elementary functions down to the atoms.
// Symbols and constants are treated as independent of the logical
// coordinates.
func Diff(e Expr, axis int) Expr {
	switch n := e.(type) {
	case *Number, *Symbol, *Constant, *BoundaryComponent:
		return Zero
	case *Add:
		terms := make([]Expr, len(n.Terms))
		for i, t := range n.Terms {
			terms[i] = Diff(t, axis)
		}
		return Sum(terms...)
	case *Mul:
		var terms []Expr
		for i := range n.Factors {
			d := Diff(n.Factors[i], axis)
			if v, ok := isNumber(d); ok && v == 0 {
				continue
			}
			fs := make([]Expr, 0, len(n.Factors))
			fs = append(fs, n.Factors[:i]...)
			fs = append(fs, d)
			fs = append(fs, n.Factors[i+1:]...)
			terms = append(terms, Prod(fs...))
		}
		return Sum(terms...)
	case *Pow:
		if _, ok := isNumber(n.Exp); !ok {
			// d(a^b) with symbolic exponent is not needed by any weak form
			return D(axis, e)
		}
		return Prod(n.Exp, Power(n.Base, Sum(n.Exp, Num(-1))), Diff(n.Base, axis))
	case *Func:
		inner := Diff(n.Arg, axis)
		if v, ok := isNumber(inner); ok && v == 0 {
			return Zero
		}
		switch n.Name {
		case "sin":
			return Prod(Cos(n.Arg), inner)
		case "cos":
			return Prod(Num(-1), Sin(n.Arg), inner)
		case "exp":
			return Prod(e, inner)
		case "log":
			return Div(inner, n.Arg)
		case "sqrt":
			return Prod(Num(0.5), Power(n.Arg, Num(-0.5)), inner)
		}
		return D(axis, e)
	case *Matrix:
		elems := make([]Expr, len(n.Elems))
		for i, x := range n.Elems {
			elems[i] = Diff(x, axis)
		}
		return &Matrix{Rows: n.Rows, Cols: n.Cols, Elems: elems}
	}
	return D(axis, e)
}

// Grad returns the logical gradient of e
func Grad(e Expr, dim int) []Expr {
	out := make([]Expr, dim)
	for i := range out {
		out[i] = Diff(e, i)
	}
	return out
}

func Dot(a, b []Expr) Expr {
	if len(a) != len(b) {
		panic("dot of vectors with different lengths")
	}
	terms := make([]Expr, len(a))
	for i := range a {
		terms[i] = Prod(a[i], b[i])
	}
	return Sum(terms...)
}

// Divergence returns the logical divergence of the vector function
func Divergence(f *VectorFunction, dim int) Expr {
	terms := make([]Expr, dim)
	for i := range terms {
		terms[i] = D(i, f.Component(i))
	}
	return Sum(terms...)
}
