package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/notargets/SplKernel/ir"
	"github.com/notargets/SplKernel/symbolic"
)

// EvalField builds the routine evaluating field values, and first
// derivatives of fields, at every quadrature point of an element. All fields
// of one EvalField live on the same space.
type EvalField struct {
	routine *ir.Routine
	space   *symbolic.Space
	atoms   []symbolic.Expr
	names   []string
	fields  []*symbolic.Field
	coeffs  []*symbolic.Symbol
	values  []*symbolic.Symbol
}

// NewEvalField builds the evaluation of atoms, each a field or the first
// derivative of a field along one axis. mode selects how derivative atoms
// are named: Logical when a mapping will pull them back afterwards.
func NewEvalField(space *symbolic.Space, atoms []symbolic.Expr, boundary Boundary, mode symbolic.NameMode, cfg Config) (*EvalField, error) {
	const op = "eval_field"
	switch {
	case space == nil:
		return nil, configErr(op, "no space given")
	case len(atoms) == 0:
		return nil, configErr(op, "expecting a non-empty list of field expressions")
	case space.Dim < 1 || space.Dim > 3:
		return nil, unsupported(op, "dimension %d", space.Dim)
	}
	dim := space.Dim
	if err := boundary.Validate(dim); err != nil {
		return nil, err
	}

	ef := &EvalField{space: space}
	seen := make(map[string]bool)
	fields := make(map[string]*symbolic.Field)
	for _, a := range atoms {
		if a == nil || !symbolic.IsField(a) {
			return nil, configErr(op, "%v is not a field expression", a)
		}
		if symbolic.TotalOrder(a) > 1 {
			return nil, unsupported(op, "field derivative %s of order %d", a, symbolic.TotalOrder(a))
		}
		f := symbolic.BaseOf(a).(*symbolic.Field)
		if f.Space == nil || f.Space.Name != space.Name {
			return nil, configErr(op, "field %s is not on space %s", f.Name, space.Name)
		}
		fields[f.Name] = f
		name := symbolic.Name(a, mode)
		if seen[name] {
			continue
		}
		seen[name] = true
		ef.atoms = append(ef.atoms, a)
		ef.names = append(ef.names, name)
	}
	sort.Sort(byName{ef.names, ef.atoms})
	for _, f := range fields {
		ef.fields = append(ef.fields, f)
	}
	sort.Slice(ef.fields, func(i, j int) bool { return ef.fields[i].Name < ef.fields[j].Name })

	coeffOf := make(map[string]*symbolic.Symbol, len(ef.fields))
	for _, f := range ef.fields {
		c := symbolic.Sym("coeff_" + f.Name)
		coeffOf[f.Name] = c
		ef.coeffs = append(ef.coeffs, c)
	}
	for _, n := range ef.names {
		ef.values = append(ef.values, symbolic.Sym(n+"_values"))
	}

	var (
		degrees = symbolic.Symbols("p", dim)
		orders  = symbolic.Symbols("k", dim)
		ib      = symbolic.Symbols("jl", dim)
		iq      = symbolic.Symbols("g", dim)
		basis   = symbolic.Symbols("basis", dim)
		nj      = &symbolic.Function{Name: "Nj", Space: space}
	)
	inits := newOrderedStmts()
	var updates []ir.Stmt
	for n, a := range ef.atoms {
		f := symbolic.BaseOf(a).(*symbolic.Field)
		name := symbolic.Name(rebase(a, nj), mode)
		inits.add(name, &ir.Assign{LHS: symbolic.Sym(name), RHS: basisProduct(basis, ib, iq, symbolic.DerivativeOrders(a, dim))})
		updates = append(updates, &ir.AugAssign{
			LHS: symbolic.Index(ef.values[n], exprs(iq)...),
			RHS: symbolic.Prod(symbolic.Index(coeffOf[f.Name], exprs(ib)...), symbolic.Sym(name)),
		})
	}

	body, err := evalLoops(inits.sorted(), updates, degrees, orders, ib, iq, boundary, boolOr(cfg.BoundaryBasis, true))
	if err != nil {
		return nil, err
	}
	prelude := make([]ir.Stmt, 0, len(ef.values))
	for _, v := range ef.values {
		prelude = append(prelude, zeroFill(v, dim))
	}
	body = append(prelude, body...)

	var params []*ir.ParamBuilder
	params = append(params, ir.Ints(orders)...)
	params = append(params, ir.Ints(degrees)...)
	params = append(params, ir.Arrays(ir.DirectionInput, 3, basis)...)
	params = append(params, ir.Arrays(ir.DirectionInput, dim, ef.coeffs)...)
	params = append(params, ir.Arrays(ir.DirectionOutput, dim, ef.values)...)

	tag := Tag(fmt.Sprintf("%s|%s|%s|%s", op, space.Name, strings.Join(ef.names, ","), boundary))
	r, err := ir.NewRoutine(cfg.routineName(op+"_"+space.Name, tag), params, body)
	if err != nil {
		return nil, wrapConfig(op, err)
	}
	ef.routine = r
	cfg.logger().Debug("built routine", "kind", op, "name", r.Name(), "atoms", ef.names)
	return ef, nil
}

type byName struct {
	names []string
	atoms []symbolic.Expr
}

func (b byName) Len() int           { return len(b.names) }
func (b byName) Less(i, j int) bool { return b.names[i] < b.names[j] }
func (b byName) Swap(i, j int) {
	b.names[i], b.names[j] = b.names[j], b.names[i]
	b.atoms[i], b.atoms[j] = b.atoms[j], b.atoms[i]
}

func (ef *EvalField) Routine() *ir.Routine { return ef.routine }

func (ef *EvalField) Space() *symbolic.Space { return ef.space }

// Atoms returns the evaluated field atoms, sorted by name
func (ef *EvalField) Atoms() []symbolic.Expr {
	return append([]symbolic.Expr(nil), ef.atoms...)
}

// Names returns the rendered name of each atom; its output array is
// <name>_values
func (ef *EvalField) Names() []string {
	return append([]string(nil), ef.names...)
}

func (ef *EvalField) Coeffs() []*symbolic.Symbol {
	return append([]*symbolic.Symbol(nil), ef.coeffs...)
}

func (ef *EvalField) Values() []*symbolic.Symbol {
	return append([]*symbolic.Symbol(nil), ef.values...)
}
