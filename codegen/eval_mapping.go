package codegen

import (
	"fmt"

	"github.com/notargets/SplKernel/ir"
	"github.com/notargets/SplKernel/symbolic"
	"github.com/notargets/SplKernel/weakform"
)

// EvalMapping builds the routine evaluating a mapping's components and their
// logical derivatives at every quadrature point of an element
type EvalMapping struct {
	routine  *ir.Routine
	mapping  *weakform.Mapping
	nderiv   int
	elements []symbolic.Expr
	coeffs   []*symbolic.Symbol
	values   []*symbolic.Symbol
}

// MappingElements lists the components of m, then their first derivatives
// (axis-major), then the second derivatives d1(d2(M)) with d2 <= d1 when
// nderiv is 2
func MappingElements(m *weakform.Mapping, nderiv int) []symbolic.Expr {
	dim := m.Dim
	elements := m.Components()
	if nderiv > 0 {
		elements = append(elements, m.FirstDerivatives()...)
	}
	if nderiv > 1 {
		for d1 := 0; d1 < dim; d1++ {
			for d2 := 0; d2 <= d1; d2++ {
				for i := 0; i < dim; i++ {
					elements = append(elements, symbolic.D(d1, symbolic.D(d2, m.Component(i))))
				}
			}
		}
	}
	return elements
}

// NewEvalMapping builds the evaluation of mapping over a dim dimensional
// space, with derivatives up to nderiv
func NewEvalMapping(dim int, mapping *weakform.Mapping, boundary Boundary, nderiv int, cfg Config) (*EvalMapping, error) {
	const op = "eval_mapping"
	switch {
	case mapping == nil:
		return nil, configErr(op, "no mapping given")
	case nderiv > 2:
		return nil, unsupported(op, "mapping derivatives of order %d", nderiv)
	case dim < 1 || dim > 3:
		return nil, unsupported(op, "dimension %d", dim)
	case mapping.Dim != dim:
		return nil, configErr(op, "mapping %s has dimension %d, space has %d", mapping.Name, mapping.Dim, dim)
	}
	if err := boundary.Validate(dim); err != nil {
		return nil, err
	}

	em := &EvalMapping{
		mapping:  mapping,
		nderiv:   nderiv,
		elements: MappingElements(mapping, nderiv),
	}

	var (
		degrees = symbolic.Symbols("p", dim)
		orders  = symbolic.Symbols("k", dim)
		ib      = symbolic.Symbols("jl", dim)
		iq      = symbolic.Symbols("g", dim)
		basis   = symbolic.Symbols("basis", dim)
		nj      = &symbolic.Function{Name: "Nj"}
	)
	for _, c := range mapping.Components() {
		em.coeffs = append(em.coeffs, symbolic.Sym("coeff_"+symbolic.Name(c, symbolic.Logical)))
	}
	for _, e := range em.elements {
		em.values = append(em.values, symbolic.Sym(symbolic.Name(e, symbolic.Logical)+"_values"))
	}

	inits := newOrderedStmts()
	var updates []ir.Stmt
	for n, e := range em.elements {
		mc := symbolic.BaseOf(e).(*symbolic.MappingComponent)
		ord := symbolic.DerivativeOrders(e, dim)
		name := symbolic.Name(rebase(e, nj), symbolic.Logical)
		inits.add(name, &ir.Assign{LHS: symbolic.Sym(name), RHS: basisProduct(basis, ib, iq, ord)})
		updates = append(updates, &ir.AugAssign{
			LHS: symbolic.Index(em.values[n], exprs(iq)...),
			RHS: symbolic.Prod(symbolic.Index(em.coeffs[mc.Index], exprs(ib)...), symbolic.Sym(name)),
		})
	}

	body, err := evalLoops(inits.sorted(), updates, degrees, orders, ib, iq, boundary, boolOr(cfg.BoundaryBasis, true))
	if err != nil {
		return nil, err
	}
	prelude := make([]ir.Stmt, 0, len(em.values))
	for _, v := range em.values {
		prelude = append(prelude, zeroFill(v, dim))
	}
	body = append(prelude, body...)

	var params []*ir.ParamBuilder
	params = append(params, ir.Ints(orders)...)
	params = append(params, ir.Ints(degrees)...)
	params = append(params, ir.Arrays(ir.DirectionInput, 3, basis)...)
	params = append(params, ir.Arrays(ir.DirectionInput, dim, em.coeffs)...)
	params = append(params, ir.Arrays(ir.DirectionOutput, dim, em.values)...)

	tag := Tag(fmt.Sprintf("%s|%s|%d|%s|%d", op, mapping.Name, dim, boundary, nderiv))
	r, err := ir.NewRoutine(cfg.routineName(op+"_"+mapping.Name, tag), params, body)
	if err != nil {
		return nil, wrapConfig(op, err)
	}
	em.routine = r
	cfg.logger().Debug("built routine", "kind", op, "name", r.Name(), "elements", len(em.elements))
	return em, nil
}

// evalLoops nests inits and updates in the basis loops, then in the
// quadrature loops
func evalLoops(inits, updates []ir.Stmt, degrees, orders, ib, iq []*symbolic.Symbol, boundary Boundary, boundaryBasis bool) ([]ir.Stmt, error) {
	basisBoundary := boundary
	if !boundaryBasis {
		basisBoundary = nil
	}
	body := append(inits, updates...)
	body, err := RestrictLoops(ib, uptoAll(degrees, 1), body, basisBoundary)
	if err != nil {
		return nil, err
	}
	return RestrictLoops(iq, uptoAll(orders, 0), body, boundary)
}

func (em *EvalMapping) Routine() *ir.Routine { return em.routine }

func (em *EvalMapping) Mapping() *weakform.Mapping { return em.mapping }

func (em *EvalMapping) NDeriv() int { return em.nderiv }

// Elements returns the evaluated mapping elements in output order
func (em *EvalMapping) Elements() []symbolic.Expr {
	return append([]symbolic.Expr(nil), em.elements...)
}

// Coeffs returns the coefficient array of each mapping component
func (em *EvalMapping) Coeffs() []*symbolic.Symbol {
	return append([]*symbolic.Symbol(nil), em.coeffs...)
}

// Values returns the output array of each element
func (em *EvalMapping) Values() []*symbolic.Symbol {
	return append([]*symbolic.Symbol(nil), em.values...)
}
