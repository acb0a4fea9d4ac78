package codegen

import (
	"github.com/notargets/SplKernel/ir"
	"github.com/notargets/SplKernel/symbolic"
	"github.com/notargets/SplKernel/weakform"
)

// Interface builds the externally callable routine: it reads the discrete
// spaces, mapping and fields it is given, allocates missing globals, calls
// the assembly and returns the assembled object
type Interface struct {
	routine  *ir.Routine
	assembly *Assembly
}

var (
	testSpace  = symbolic.Sym("W")
	trialSpace = symbolic.Sym("V")
	mappingArg = symbolic.Sym("mapping")
)

// NewInterface builds the interface of assembly
func NewInterface(assembly *Assembly, cfg Config) (*Interface, error) {
	const op = "interface"
	if assembly == nil || assembly.routine == nil {
		return nil, configErr(op, "expecting a built assembly")
	}
	var (
		kernel   = assembly.kernel
		form     = kernel.form
		dim      = form.Dim
		bilinear = form.Kind == weakform.Bilinear
		function = form.Kind == weakform.Functional
		sym      = newKernelSymbols(dim)
		starts   = symbolic.Symbols("s", dim)
		ends     = symbolic.Symbols("e", dim)
		globals  = assembly.globals
	)
	attr := func(of symbolic.Expr, i int, path ...string) symbolic.Expr {
		return symbolic.Index(ir.Dotted(of, path...), symbolic.Num(float64(i)))
	}

	// discrete space metadata
	var body []ir.Stmt
	for i := 0; i < dim; i++ {
		body = append(body, &ir.Assign{LHS: sym.testP[i], RHS: attr(testSpace, i, "vector_space", "pads")})
	}
	if bilinear {
		for i := 0; i < dim; i++ {
			body = append(body, &ir.Assign{LHS: sym.trialP[i], RHS: attr(trialSpace, i, "vector_space", "pads")})
		}
	}
	for i := 0; i < dim; i++ {
		body = append(body, &ir.Assign{LHS: starts[i], RHS: attr(testSpace, i, "vector_space", "starts")})
	}
	for i := 0; i < dim; i++ {
		body = append(body, &ir.Assign{LHS: ends[i], RHS: attr(testSpace, i, "vector_space", "ends")})
	}
	for i := 0; i < dim; i++ {
		body = append(body, &ir.Assign{LHS: ends[i], RHS: symbolic.Sub(ends[i], sym.testP[i])})
	}
	per := []struct {
		prefix string
		attr   string
		space  *symbolic.Symbol
		on     bool
	}{
		{"test_spans_", "spans", testSpace, true},
		{"k", "quad_order", testSpace, true},
		{"points_", "quad_points", testSpace, true},
		{"weights_", "quad_weights", testSpace, true},
		{"test_basis_", "quad_basis", testSpace, true},
		{"trial_basis_", "quad_basis", trialSpace, bilinear},
	}
	for _, p := range per {
		if !p.on {
			continue
		}
		for i, s := range symbolic.Symbols(p.prefix, dim) {
			body = append(body, &ir.Assign{LHS: s, RHS: attr(p.space, i, p.attr)})
		}
	}

	// mapping coefficients come from the mapping's own fields
	for i, c := range kernel.MappingCoeffs() {
		body = append(body, &ir.Assign{LHS: c, RHS: ir.Dotted(attr(mappingArg, i, "fields"), "coeffs")})
	}

	// globals
	if function {
		for _, g := range globals {
			body = append(body, &ir.Assign{LHS: g, RHS: &ir.Zeros{Shape: []symbolic.Expr{symbolic.One}}})
		}
	} else {
		for _, g := range globals {
			alloc := &ir.Construct{Type: ir.StencilVector, Items: []symbolic.Expr{ir.Dotted(testSpace, "vector_space")}}
			if bilinear {
				alloc = &ir.Construct{Type: ir.StencilMatrix, Items: []symbolic.Expr{
					ir.Dotted(testSpace, "vector_space"), ir.Dotted(trialSpace, "vector_space"),
				}}
			}
			body = append(body, &ir.IfNil{Target: g, Body: []ir.Stmt{&ir.Assign{LHS: g, RHS: alloc}}})
		}
	}

	// assembly call
	args := make(map[string]symbolic.Expr)
	for _, p := range assembly.routine.Params() {
		args[p.Name] = p.Symbol()
	}
	for i, f := range kernel.fields {
		args[kernel.fieldCoeffs[i].Name] = ir.Dotted(symbolic.Sym(f.Name), "coeffs")
	}
	if !function {
		for _, g := range globals {
			args[g.Name] = ir.Dotted(g, "data")
		}
	}
	bound, err := assembly.routine.Bind(args)
	if err != nil {
		return nil, wrapConfig(op, err)
	}
	body = append(body, &ir.Call{Routine: assembly.routine, Args: bound})
	body = append(body, result(form.Kind, kernel.rows, kernel.cols, globals))

	// parameters
	params := []*ir.ParamBuilder{ir.Input(testSpace.Name).Type(ir.Object)}
	if bilinear {
		params = append(params, ir.Input(trialSpace.Name).Type(ir.Object))
	}
	if form.Mapping != nil {
		params = append(params, ir.Input(mappingArg.Name).Type(ir.Object))
	}
	params = append(params, constantParams(kernel.constants)...)
	for _, f := range kernel.fields {
		params = append(params, ir.Input(f.Name).Type(ir.Object))
	}
	if !function {
		for _, g := range globals {
			params = append(params, ir.InOut(g.Name).Type(ir.Object).Optional())
		}
	}

	r, err := ir.NewRoutine(cfg.routineName(op, kernel.tag), params, body, assembly.routine)
	if err != nil {
		return nil, wrapConfig(op, err)
	}
	cfg.logger().Debug("built routine", "kind", op, "name", r.Name(), "params", len(r.Params()))
	return &Interface{routine: r, assembly: assembly}, nil
}

// result returns the single block, the block composition, or the scalars of
// a functional
func result(kind weakform.Kind, rows, cols int, globals []*symbolic.Symbol) ir.Stmt {
	if kind == weakform.Functional {
		values := make([]symbolic.Expr, len(globals))
		for i, g := range globals {
			values[i] = symbolic.Index(g, symbolic.Zero)
		}
		return &ir.Return{Values: values}
	}
	if len(globals) == 1 {
		return &ir.Return{Values: []symbolic.Expr{globals[0]}}
	}
	if kind == weakform.Bilinear {
		items := []symbolic.Expr{symbolic.Num(float64(rows)), symbolic.Num(float64(cols))}
		items = append(items, exprs(globals)...)
		return &ir.Return{Values: []symbolic.Expr{&ir.Construct{Type: ir.BlockMatrix, Items: items}}}
	}
	return &ir.Return{Values: []symbolic.Expr{&ir.Construct{Type: ir.BlockVector, Items: exprs(globals)}}}
}

func (it *Interface) Routine() *ir.Routine { return it.routine }

func (it *Interface) Assembly() *Assembly { return it.assembly }

// Build lowers the selected term of form into its kernel, assembly and
// interface. cfg.Name, if set, names the interface.
func Build(form *weakform.WeakForm, cfg Config) (*Interface, error) {
	deps := cfg
	deps.Name = ""
	kernel, err := NewKernel(form, deps)
	if err != nil {
		return nil, err
	}
	assembly, err := NewAssembly(kernel, deps)
	if err != nil {
		return nil, err
	}
	return NewInterface(assembly, cfg)
}
