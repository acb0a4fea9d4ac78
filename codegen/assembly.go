package codegen

import (
	"fmt"

	"github.com/notargets/SplKernel/ir"
	"github.com/notargets/SplKernel/symbolic"
	"github.com/notargets/SplKernel/weakform"
)

// Assembly builds the routine looping over the local elements, calling the
// kernel on each and accumulating its blocks into global storage
type Assembly struct {
	routine *ir.Routine
	kernel  *Kernel
	globals []*symbolic.Symbol
}

// NewAssembly builds the assembly of kernel
func NewAssembly(kernel *Kernel, cfg Config) (*Assembly, error) {
	const op = "assembly"
	if kernel == nil || kernel.routine == nil {
		return nil, configErr(op, "expecting a built kernel")
	}
	var (
		form     = kernel.form
		dim      = form.Dim
		bilinear = form.Kind == weakform.Bilinear
		sym      = newKernelSymbols(dim)
		starts   = symbolic.Symbols("s", dim)
		ends     = symbolic.Symbols("e", dim)
		ie       = symbolic.Symbols("ie", dim)
		is       = symbolic.Symbols("is", dim)
		spans    = symbolic.Symbols("test_spans_", dim)
		points   = symbolic.Symbols("points_", dim)
		weights  = symbolic.Symbols("weights_", dim)
		testB    = symbolic.Symbols("test_basis_", dim)
		trialB   = symbolic.Symbols("trial_basis_", dim)
		mats     = blockNames("mat", kernel.rows, kernel.cols)
		globals  = blockNames("M", kernel.rows, kernel.cols)
	)
	as := &Assembly{kernel: kernel, globals: globals}

	// element body
	var body []ir.Stmt
	for i := range is {
		body = append(body, &ir.Assign{LHS: is[i], RHS: symbolic.Index(spans[i], ie[i])})
	}
	if cfg.Debug && cfg.Detailed {
		for i := range is {
			body = append(body, &ir.Print{Label: fmt.Sprintf("> span %s = ", is[i]), Args: []symbolic.Expr{is[i]}})
		}
	}
	for i := range ie {
		body = append(body, &ir.Assign{LHS: sym.u[i], RHS: symbolic.Index(points[i], ie[i], ir.All())})
	}
	for i := range ie {
		body = append(body, &ir.Assign{LHS: sym.w[i], RHS: symbolic.Index(weights[i], ie[i], ir.All())})
	}
	for i := range ie {
		body = append(body, &ir.Assign{LHS: sym.testBs[i], RHS: symbolic.Index(testB[i], ie[i], ir.All(), ir.All(), ir.All())})
	}
	if bilinear {
		for i := range ie {
			body = append(body, &ir.Assign{LHS: sym.trialBs[i], RHS: symbolic.Index(trialB[i], ie[i], ir.All(), ir.All(), ir.All())})
		}
	}

	// kernel call with element windows of the coefficients
	window := make([]symbolic.Expr, dim)
	for i := range window {
		window[i] = ir.Span(is[i], symbolic.Sum(is[i], sym.testP[i], symbolic.One))
	}
	args := make(map[string]symbolic.Expr)
	for _, p := range kernel.routine.Params() {
		args[p.Name] = p.Symbol()
	}
	for _, c := range append(kernel.FieldCoeffs(), kernel.MappingCoeffs()...) {
		args[c.Name] = symbolic.Index(c, window...)
	}
	bound, err := kernel.routine.Bind(args)
	if err != nil {
		return nil, wrapConfig(op, err)
	}
	body = append(body, &ir.Call{Routine: kernel.routine, Args: bound})

	// global accumulation
	for n := range mats {
		var lhs, rhs symbolic.Expr
		switch form.Kind {
		case weakform.Bilinear:
			idx := make([]symbolic.Expr, 0, 2*dim)
			for i := range is {
				idx = append(idx, ir.Span(symbolic.Sub(is[i], sym.testP[i]), symbolic.Sum(is[i], symbolic.One)))
			}
			idx = append(idx, all(dim)...)
			lhs, rhs = symbolic.Index(globals[n], idx...), symbolic.Index(mats[n], all(2*dim)...)
		case weakform.Linear:
			lhs, rhs = symbolic.Index(globals[n], window...), symbolic.Index(mats[n], all(dim)...)
		default:
			lhs, rhs = symbolic.Index(globals[n], symbolic.Zero), symbolic.Index(mats[n], symbolic.Zero)
		}
		body = append(body, &ir.AugAssign{LHS: lhs, RHS: rhs})
	}

	ranges := make([]Range, dim)
	for i := range ranges {
		ranges[i] = Range{Start: starts[i], End: plusOne(ends[i])}
	}
	body, err = RestrictLoops(ie, ranges, body, kernel.boundary)
	if err != nil {
		return nil, err
	}

	// prelude: element blocks and mapping work arrays
	var prelude []ir.Stmt
	for _, m := range mats {
		var shape []symbolic.Expr
		switch form.Kind {
		case weakform.Bilinear:
			for _, p := range sym.testP {
				shape = append(shape, plusOne(p))
			}
			for _, p := range sym.testP {
				shape = append(shape, symbolic.Sum(symbolic.Prod(symbolic.Num(2), p), symbolic.One))
			}
		case weakform.Linear:
			for _, p := range sym.testP {
				shape = append(shape, plusOne(p))
			}
		default:
			shape = []symbolic.Expr{symbolic.One}
		}
		prelude = append(prelude, &ir.Assign{LHS: m, RHS: &ir.Zeros{Shape: shape}})
		if cfg.Debug {
			prelude = append(prelude, &ir.Print{Label: fmt.Sprintf("> shape %s = ", m), Args: shape})
		}
	}
	for _, v := range kernel.MappingValues() {
		prelude = append(prelude, &ir.Assign{LHS: v, RHS: &ir.Zeros{Shape: exprs(sym.k)}})
	}
	if cfg.Debug {
		for _, g := range globals {
			prelude = append(prelude, &ir.Print{Label: fmt.Sprintf("> shape %s = ", g), Args: []symbolic.Expr{&ir.Len{Of: g}}})
		}
	}

	var params []*ir.ParamBuilder
	params = append(params, ir.Ints(starts)...)
	params = append(params, ir.Ints(ends)...)
	params = append(params, ir.Ints(sym.k)...)
	params = append(params, ir.Ints(sym.testP)...)
	if bilinear {
		params = append(params, ir.Ints(sym.trialP)...)
	}
	for _, sp := range spans {
		params = append(params, ir.Input(sp.Name).Type(ir.Int).Rank(1))
	}
	params = append(params, ir.Arrays(ir.DirectionInput, 2, points)...)
	params = append(params, ir.Arrays(ir.DirectionInput, 2, weights)...)
	params = append(params, ir.Arrays(ir.DirectionInput, 4, testB)...)
	if bilinear {
		params = append(params, ir.Arrays(ir.DirectionInput, 4, trialB)...)
	}
	params = append(params, ir.Arrays(ir.DirectionInput, dim, kernel.MappingCoeffs())...)
	params = append(params, ir.Arrays(ir.DirectionInput, dim, kernel.FieldCoeffs())...)
	params = append(params, ir.Arrays(ir.DirectionInOut, kernel.blockRank(), globals)...)
	params = append(params, constantParams(kernel.constants)...)

	r, err := ir.NewRoutine(cfg.routineName(op, kernel.tag), params, append(prelude, body...), kernel.routine)
	if err != nil {
		return nil, wrapConfig(op, err)
	}
	as.routine = r
	cfg.logger().Debug("built routine", "kind", op, "name", r.Name(), "globals", len(globals), "params", len(r.Params()))
	return as, nil
}

func (as *Assembly) Routine() *ir.Routine { return as.routine }

func (as *Assembly) Kernel() *Kernel { return as.kernel }

// Globals returns the global block names M_ij in row-major order
func (as *Assembly) Globals() []*symbolic.Symbol {
	return append([]*symbolic.Symbol(nil), as.globals...)
}
