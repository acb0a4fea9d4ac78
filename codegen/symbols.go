package codegen

import (
	"fmt"
	"sort"

	"github.com/notargets/SplKernel/ir"
	"github.com/notargets/SplKernel/symbolic"
)

func all(n int) []symbolic.Expr {
	out := make([]symbolic.Expr, n)
	for i := range out {
		out[i] = ir.All()
	}
	return out
}

func exprs(syms []*symbolic.Symbol) []symbolic.Expr { return ir.Syms(syms) }

// blockNames returns prefix_ij for every block in row-major order
func blockNames(prefix string, rows, cols int) []*symbolic.Symbol {
	out := make([]*symbolic.Symbol, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out = append(out, symbolic.Sym(fmt.Sprintf("%s_%d%d", prefix, i, j)))
		}
	}
	return out
}

// basisProduct is the tensor product basis[i][idx[i], orders[i], quad[i]]
func basisProduct(basis, idx, quad []*symbolic.Symbol, orders []int) symbolic.Expr {
	factors := make([]symbolic.Expr, len(basis))
	for i := range basis {
		factors[i] = symbolic.Index(basis[i], idx[i], symbolic.Num(float64(orders[i])), quad[i])
	}
	return symbolic.Prod(factors...)
}

// rebase replaces the innermost operand of a derivative chain
func rebase(atom, base symbolic.Expr) symbolic.Expr {
	if d, ok := atom.(*symbolic.Derivative); ok {
		return symbolic.D(d.Axis, rebase(d.Arg, base))
	}
	return base
}

// substitute replaces nodes by canonical rendering, outermost match first
func substitute(e symbolic.Expr, table map[string]symbolic.Expr) symbolic.Expr {
	if len(table) == 0 {
		return e
	}
	return symbolic.Replace(e, func(n symbolic.Expr) (symbolic.Expr, bool) {
		r, ok := table[n.String()]
		return r, ok
	})
}

// orderedStmts de-duplicates statements by the name they assign and emits
// them in lexicographic name order
type orderedStmts struct {
	byName map[string]ir.Stmt
}

func newOrderedStmts() *orderedStmts {
	return &orderedStmts{byName: make(map[string]ir.Stmt)}
}

func (o *orderedStmts) add(name string, s ir.Stmt) {
	if _, ok := o.byName[name]; !ok {
		o.byName[name] = s
	}
}

func (o *orderedStmts) sorted() []ir.Stmt {
	names := make([]string, 0, len(o.byName))
	for n := range o.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]ir.Stmt, len(names))
	for i, n := range names {
		out[i] = o.byName[n]
	}
	return out
}

func zeroFill(arr *symbolic.Symbol, rank int) ir.Stmt {
	return &ir.Assign{LHS: symbolic.Index(arr, all(rank)...), RHS: symbolic.Zero}
}

func plusOne(e symbolic.Expr) symbolic.Expr { return symbolic.Sum(e, symbolic.One) }

func uptoAll(ends []*symbolic.Symbol, add int) []Range {
	out := make([]Range, len(ends))
	for i, e := range ends {
		out[i] = Upto(symbolic.Sum(e, symbolic.Num(float64(add))))
	}
	return out
}
