package codegen

import (
	"github.com/notargets/SplKernel/ir"
	"github.com/notargets/SplKernel/symbolic"
)

// Range is the half-open iteration range [Start, End)
type Range struct {
	Start, End symbolic.Expr
}

// Upto is the range [0, n)
func Upto(n symbolic.Expr) Range {
	return Range{Start: symbolic.Zero, End: n}
}

// RestrictLoops nests body in one loop per axis, axis 0 outermost. The range
// of an axis listed in boundary collapses to its first iteration when the
// extension is -1 and to its last when it is +1.
func RestrictLoops(indices []*symbolic.Symbol, ranges []Range, body []ir.Stmt, boundary Boundary) ([]ir.Stmt, error) {
	if len(indices) != len(ranges) {
		return nil, configErr("restrict_loops", "%d indices for %d ranges", len(indices), len(ranges))
	}
	for i := len(indices) - 1; i >= 0; i-- {
		start, end := ranges[i].Start, ranges[i].End
		if ext, ok := boundary.Lookup(i); ok {
			switch ext {
			case -1:
				end = symbolic.Sum(start, symbolic.One)
			case 1:
				start = symbolic.Sum(end, symbolic.Num(-1))
			default:
				return nil, configErr("restrict_loops", "wrong value %d for ext, it should be -1 or 1", ext)
			}
		}
		body = []ir.Stmt{&ir.For{Index: indices[i], Start: start, End: end, Body: body}}
	}
	return body, nil
}

// RestrictProduct multiplies arrays[i][indices[i]] over every axis not listed
// in boundary. Boundary axes are left out of the product.
func RestrictProduct(indices []*symbolic.Symbol, arrays []*symbolic.Symbol, boundary Boundary) symbolic.Expr {
	var factors []symbolic.Expr
	for i := range indices {
		if _, masked := boundary.Lookup(i); masked {
			continue
		}
		factors = append(factors, symbolic.Index(arrays[i], indices[i]))
	}
	return symbolic.Prod(factors...)
}
