package codegen

import (
	"fmt"
	"sort"

	"github.com/notargets/SplKernel/ir"
	"github.com/notargets/SplKernel/symbolic"
	"github.com/notargets/SplKernel/weakform"
)

// InvJac is the inverse Jacobian determinant, assigned once per quadrature
// point of a mapped kernel
var InvJac = symbolic.Sym("inv_jac")

// Kernel builds the element-local integration routine of one term of a weak
// form
type Kernel struct {
	routine       *ir.Routine
	form          *weakform.WeakForm
	target        weakform.Target
	expr          symbolic.Expr
	boundary      Boundary
	boundaryBasis bool
	tag           string
	rows, cols    int
	maxNDeriv     int
	constants     []*symbolic.Constant
	fields        []*symbolic.Field
	fieldCoeffs   []*symbolic.Symbol
	evalFields    []*EvalField
	evalMapping   *EvalMapping
	debug         bool
	detailed      bool
}

// kernelSymbols are the names shared by a kernel and its assembly
type kernelSymbols struct {
	testP, trialP   []*symbolic.Symbol
	testBs, trialBs []*symbolic.Symbol
	u, w            []*symbolic.Symbol
	g, k            []*symbolic.Symbol
	il, jl          []*symbolic.Symbol
	wvol            *symbolic.Symbol
}

func newKernelSymbols(dim int) kernelSymbols {
	return kernelSymbols{
		testP:   symbolic.Symbols("test_p", dim),
		trialP:  symbolic.Symbols("trial_p", dim),
		testBs:  symbolic.Symbols("test_bs", dim),
		trialBs: symbolic.Symbols("trial_bs", dim),
		u:       symbolic.Symbols("u", dim),
		w:       symbolic.Symbols("w", dim),
		g:       symbolic.Symbols("g", dim),
		k:       symbolic.Symbols("k", dim),
		il:      symbolic.Symbols("il", dim),
		jl:      symbolic.Symbols("jl", dim),
		wvol:    symbolic.Sym("wvol"),
	}
}

// NewKernel builds the kernel of the term of form selected by cfg.Target
func NewKernel(form *weakform.WeakForm, cfg Config) (*Kernel, error) {
	const op = "kernel"
	if form == nil {
		return nil, configErr(op, "no weak form given")
	}
	dim := form.Dim
	if dim < 1 || dim > 3 {
		return nil, unsupported(op, "dimension %d", dim)
	}
	term, err := selectTerm(form, cfg.Target)
	if err != nil {
		return nil, err
	}
	if term.Target.Boundary && len(cfg.Boundary) == 0 {
		return nil, configErr(op, "a discrete boundary must be provided for boundary target %s", term.Target.Name)
	}
	if err := cfg.Boundary.Validate(dim); err != nil {
		return nil, err
	}

	kn := &Kernel{
		form:          form,
		target:        term.Target,
		expr:          term.Expr,
		boundary:      append(Boundary(nil), cfg.Boundary...),
		boundaryBasis: boolOr(cfg.BoundaryBasis, true),
		debug:         cfg.Debug,
		detailed:      cfg.Detailed,
	}
	kn.tag = Tag(fmt.Sprintf("%s|%s|%s", form, term.Target.Name, kn.boundary))

	// 1. block shape
	blocks, err := kn.blockShape()
	if err != nil {
		return nil, err
	}

	// 2. constants
	kn.constants = symbolic.Constants(kn.expr)

	// 3. atoms
	mapping := form.Mapping
	if mapping != nil && mapping.Dim != dim {
		return nil, configErr(op, "mapping %s has dimension %d, form has %d", mapping.Name, mapping.Dim, dim)
	}
	var fieldAtoms, pureAtoms, mappingAtoms []symbolic.Expr
	for _, a := range symbolic.Atoms(kn.expr, symbolic.IsKernelAtom) {
		if _, err := symbolic.Classify(a, form.Test); err != nil {
			return nil, wrapConfig(op, err)
		}
		switch {
		case symbolic.IsField(a):
			if symbolic.TotalOrder(a) > 1 {
				return nil, unsupported(op, "field derivative %s of order %d", a, symbolic.TotalOrder(a))
			}
			fieldAtoms = append(fieldAtoms, a)
		case symbolic.IsMappingComponent(a):
			if mapping == nil {
				return nil, configErr(op, "mapping component %s in a form without mapping", a)
			}
			mappingAtoms = append(mappingAtoms, a)
		default:
			if err := kn.checkOwner(a); err != nil {
				return nil, err
			}
			if mapping != nil && symbolic.TotalOrder(a) > 1 {
				return nil, unsupported(op, "mapped derivative %s of order %d", a, symbolic.TotalOrder(a))
			}
			pureAtoms = append(pureAtoms, a)
		}
	}

	// 4. derivative order
	kn.maxNDeriv = symbolic.MaxOrder(kn.expr, dim)
	if kn.maxNDeriv < 1 {
		kn.maxNDeriv = 1
	}

	deps := cfg
	deps.Name = ""
	sym := newKernelSymbols(dim)

	// 5. mapping evaluation
	if mapping != nil {
		em, err := NewEvalMapping(dim, mapping, kn.boundary, kn.maxNDeriv, deps)
		if err != nil {
			return nil, err
		}
		kn.evalMapping = em
		elements := make(map[string]bool)
		for _, e := range em.Elements() {
			elements[e.String()] = true
		}
		for _, a := range mappingAtoms {
			if !elements[a.String()] {
				return nil, unsupported(op, "mapping element %s beyond order %d", a, kn.maxNDeriv)
			}
		}
	}

	// 3b. field evaluation, one per space
	mode := symbolic.Physical
	if mapping != nil {
		mode = symbolic.Logical
	}
	fieldValues, err := kn.buildEvalFields(fieldAtoms, mode, deps)
	if err != nil {
		return nil, err
	}

	// 6. basis values and pullbacks
	var (
		inits     = newOrderedStmts()
		pullbacks = newOrderedStmts()
		table     = make(map[string]symbolic.Expr)
		testSide  = kn.form.Kind != weakform.Bilinear
	)
	for _, a := range pureAtoms {
		bs, idx := sym.trialBs, sym.jl
		if testSide || symbolic.OwnedBy(a, form.Test) {
			bs, idx = sym.testBs, sym.il
		}
		table[a.String()] = symbolic.Sym(symbolic.Name(a, symbolic.Physical))
		if mapping == nil {
			name := symbolic.Name(a, symbolic.Physical)
			inits.add(name, &ir.Assign{LHS: symbolic.Sym(name), RHS: basisProduct(bs, idx, sym.g, symbolic.DerivativeOrders(a, dim))})
			continue
		}
		if !symbolic.IsDerivative(a) {
			name := symbolic.Name(a, symbolic.Logical)
			inits.add(name, &ir.Assign{LHS: symbolic.Sym(name), RHS: basisProduct(bs, idx, sym.g, make([]int, dim))})
			continue
		}
		base := symbolic.BaseOf(a)
		for axis := 0; axis < dim; axis++ {
			ord := make([]int, dim)
			ord[axis] = 1
			name := symbolic.Name(symbolic.D(axis, base), symbolic.Logical)
			inits.add(name, &ir.Assign{LHS: symbolic.Sym(name), RHS: basisProduct(bs, idx, sym.g, ord)})
		}
		name := symbolic.Name(a, symbolic.Physical)
		pullbacks.add(name, &ir.Assign{LHS: symbolic.Sym(name), RHS: kn.pullback(a)})
	}

	var quad []ir.Stmt
	quad = append(quad, inits.sorted()...)

	if kn.evalMapping != nil {
		for n, e := range kn.evalMapping.Elements() {
			s := symbolic.Sym(symbolic.Name(e, symbolic.Logical))
			quad = append(quad, &ir.Assign{LHS: s, RHS: symbolic.Index(kn.evalMapping.values[n], exprs(sym.g)...)})
		}
		for _, a := range mappingAtoms {
			table[a.String()] = symbolic.Sym(symbolic.Name(a, symbolic.Logical))
		}
	}

	// field values, and the pullback of mapped field derivatives
	for _, fv := range fieldValues {
		quad = append(quad, &ir.Assign{LHS: symbolic.Sym(fv.name), RHS: symbolic.Index(fv.values, exprs(sym.g)...)})
	}
	for _, a := range fieldAtoms {
		table[a.String()] = symbolic.Sym(symbolic.Name(a, symbolic.Physical))
		if mapping != nil && symbolic.IsDerivative(a) {
			name := symbolic.Name(a, symbolic.Physical)
			pullbacks.add(name, &ir.Assign{LHS: symbolic.Sym(name), RHS: kn.pullback(a)})
		}
	}

	// 7. normal and tangent vectors
	vecStmts, err := kn.boundaryVectors(table)
	if err != nil {
		return nil, err
	}
	quad = append(quad, vecStmts...)

	// 8, 9. inverse Jacobian or coordinates
	if mapping != nil {
		det := mappingSymbols(mapping, mapping.DetJacobian())
		invDet := symbolic.Power(det, symbolic.Num(-1))
		quad = append(quad, &ir.Assign{LHS: InvJac, RHS: invDet})
		for _, s := range pullbacks.sorted() {
			a := s.(*ir.Assign)
			quad = append(quad, &ir.Assign{LHS: a.LHS, RHS: symbolic.Subs(a.RHS, invDet, InvJac)})
		}
	} else {
		for i, x := range form.Coordinates {
			quad = append(quad, &ir.Assign{LHS: x, RHS: symbolic.Index(sym.u[i], sym.g[i])})
		}
	}

	// 10, 11. weights and accumulation
	quad = append(quad, &ir.Assign{LHS: sym.wvol, RHS: RestrictProduct(sym.g, sym.w, kn.boundary)})
	v := blockNames("v", kn.rows, kn.cols)
	mats := blockNames("mat", kn.rows, kn.cols)
	for n, b := range blocks {
		quad = append(quad, &ir.AugAssign{LHS: v[n], RHS: symbolic.Prod(substitute(b, table), sym.wvol)})
	}

	body, err := RestrictLoops(sym.g, uptoAll(sym.k, 0), quad, kn.boundary)
	if err != nil {
		return nil, err
	}

	// 12, 13. block writes and basis loops
	var loop []ir.Stmt
	for _, vi := range v {
		loop = append(loop, &ir.Assign{LHS: vi, RHS: symbolic.Zero})
	}
	loop = append(loop, body...)
	for n := range v {
		loop = append(loop, &ir.Assign{LHS: kn.blockIndex(mats[n], sym), RHS: v[n]})
	}
	basisBoundary := kn.boundary
	if !kn.boundaryBasis {
		basisBoundary = nil
	}
	switch form.Kind {
	case weakform.Bilinear:
		if loop, err = RestrictLoops(sym.il, uptoAll(sym.testP, 1), loop, basisBoundary); err != nil {
			return nil, err
		}
		if loop, err = RestrictLoops(sym.jl, uptoAll(sym.trialP, 1), loop, basisBoundary); err != nil {
			return nil, err
		}
	case weakform.Linear:
		if loop, err = RestrictLoops(sym.il, uptoAll(sym.testP, 1), loop, basisBoundary); err != nil {
			return nil, err
		}
	}

	// 14. prelude
	var prelude []ir.Stmt
	if funcs := symbolic.MathFunctions(kn.expr); len(funcs) > 0 {
		prelude = append(prelude, &ir.Declare{Functions: funcs})
	}
	for i := range sym.k {
		prelude = append(prelude, &ir.Assign{LHS: sym.k[i], RHS: &ir.Len{Of: sym.u[i]}})
	}
	var depRoutines []*ir.Routine
	if em := kn.evalMapping; em != nil {
		call, err := kn.callEval(em.routine, sym)
		if err != nil {
			return nil, err
		}
		prelude = append(prelude, call)
		depRoutines = append(depRoutines, em.routine)
	}
	for _, fv := range fieldValues {
		prelude = append(prelude, &ir.Assign{LHS: fv.values, RHS: &ir.Zeros{Shape: exprs(sym.k)}})
	}
	for _, ef := range kn.evalFields {
		call, err := kn.callEval(ef.routine, sym)
		if err != nil {
			return nil, err
		}
		prelude = append(prelude, call)
		depRoutines = append(depRoutines, ef.routine)
	}
	for _, m := range mats {
		prelude = append(prelude, zeroFill(m, kn.blockRank()))
	}

	params := kn.params(sym, mats)
	r, err := ir.NewRoutine(cfg.routineName(op, kn.tag), params, append(prelude, loop...), depRoutines...)
	if err != nil {
		return nil, wrapConfig(op, err)
	}
	kn.routine = r
	cfg.logger().Debug("built routine", "kind", op, "name", r.Name(), "target", kn.target.Name,
		"blocks", len(mats), "params", len(r.Params()), "deps", len(depRoutines))
	return kn, nil
}

func selectTerm(form *weakform.WeakForm, target string) (weakform.Term, error) {
	const op = "kernel"
	if target == "" {
		switch len(form.Terms) {
		case 0:
			return weakform.Term{}, configErr(op, "weak form has no expression")
		case 1:
			return form.Terms[0], nil
		}
		return weakform.Term{}, configErr(op, "weak form has %d expressions, but no target was given", len(form.Terms))
	}
	for _, t := range form.Terms {
		if t.Target.Name == target {
			return t, nil
		}
	}
	return weakform.Term{}, configErr(op, "weak form has no expression for target %s", target)
}

// blockShape sets rows and cols from the expression and returns the block
// expressions in row-major order
func (kn *Kernel) blockShape() ([]symbolic.Expr, error) {
	m, ok := kn.expr.(*symbolic.Matrix)
	if !ok {
		kn.rows, kn.cols = 1, 1
		return []symbolic.Expr{kn.expr}, nil
	}
	if m.Rows < 1 || m.Cols < 1 {
		return nil, configErr("kernel", "empty %dx%d expression matrix", m.Rows, m.Cols)
	}
	if kn.form.Kind == weakform.Linear && m.Cols != 1 {
		return nil, configErr("kernel", "linear form expression must be a column, got %dx%d", m.Rows, m.Cols)
	}
	kn.rows, kn.cols = m.Rows, m.Cols
	return append([]symbolic.Expr(nil), m.Elems...), nil
}

// checkOwner tells whether the basis function under any derivatives of a
// belongs to the form
func (kn *Kernel) checkOwner(a symbolic.Expr) error {
	const op = "kernel"
	base := symbolic.BaseOf(a)
	if _, bare := base.(*symbolic.VectorFunction); bare {
		return configErr(op, "vector function %s used without a component", base)
	}
	kind, err := symbolic.Classify(base, kn.form.Test)
	if err != nil {
		return wrapConfig(op, err)
	}
	switch kn.form.Kind {
	case weakform.Functional:
		return configErr(op, "functional references test or trial function %s", a)
	case weakform.Linear:
		if kind != symbolic.AtomTestRef {
			return configErr(op, "%s is not the test function of the linear form", a)
		}
	case weakform.Bilinear:
		if kind == symbolic.AtomTrialRef && (kn.form.Trial == nil || !symbolic.OwnedBy(base, kn.form.Trial)) {
			return configErr(op, "%s is neither the test nor the trial function", a)
		}
	}
	return nil
}

// pullback returns the physical derivative of a first order derivative atom
// from the logical gradient of its base, in terms of mapping element symbols
func (kn *Kernel) pullback(a symbolic.Expr) symbolic.Expr {
	m := kn.form.Mapping
	base := symbolic.BaseOf(a)
	lgrad := make([]symbolic.Expr, m.Dim)
	for i := range lgrad {
		lgrad[i] = symbolic.Sym(symbolic.Name(symbolic.D(i, base), symbolic.Logical))
	}
	axis := a.(*symbolic.Derivative).Axis
	return mappingSymbols(m, m.Covariant(lgrad)[axis])
}

// mappingSymbols replaces every first derivative of the mapping by its
// element symbol
func mappingSymbols(m *weakform.Mapping, e symbolic.Expr) symbolic.Expr {
	table := make(map[string]symbolic.Expr)
	for _, d := range m.FirstDerivatives() {
		table[d.String()] = symbolic.Sym(symbolic.Name(d, symbolic.Logical))
	}
	return substitute(e, table)
}

type fieldValue struct {
	name   string
	values *symbolic.Symbol
}

// buildEvalFields groups field atoms by space, builds one EvalField per
// space and returns the kernel-side value arrays. Under a mapping every
// derivative requests the full logical gradient.
func (kn *Kernel) buildEvalFields(atoms []symbolic.Expr, mode symbolic.NameMode, cfg Config) ([]fieldValue, error) {
	if len(atoms) == 0 {
		return nil, nil
	}
	groups := make(map[string][]symbolic.Expr)
	spaces := make(map[string]*symbolic.Space)
	fields := make(map[string]*symbolic.Field)
	for _, a := range atoms {
		f := symbolic.BaseOf(a).(*symbolic.Field)
		if f.Space == nil {
			return nil, configErr("kernel", "field %s has no space", f.Name)
		}
		fields[f.Name] = f
		spaces[f.Space.Name] = f.Space
		if mode == symbolic.Logical && symbolic.IsDerivative(a) {
			for axis := 0; axis < kn.form.Dim; axis++ {
				groups[f.Space.Name] = append(groups[f.Space.Name], symbolic.D(axis, f))
			}
			continue
		}
		groups[f.Space.Name] = append(groups[f.Space.Name], a)
	}
	names := make([]string, 0, len(groups))
	for n := range groups {
		names = append(names, n)
	}
	sort.Strings(names)

	var out []fieldValue
	for _, n := range names {
		ef, err := NewEvalField(spaces[n], groups[n], kn.boundary, mode, cfg)
		if err != nil {
			return nil, err
		}
		kn.evalFields = append(kn.evalFields, ef)
		for i, name := range ef.names {
			out = append(out, fieldValue{name: name, values: ef.values[i]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })

	for _, f := range fields {
		kn.fields = append(kn.fields, f)
	}
	sort.Slice(kn.fields, func(i, j int) bool { return kn.fields[i].Name < kn.fields[j].Name })
	for _, f := range kn.fields {
		kn.fieldCoeffs = append(kn.fieldCoeffs, symbolic.Sym("coeff_"+f.Name))
	}
	return out, nil
}

// boundaryVectors substitutes normal and tangent components by scalar
// symbols and returns the statements computing them
func (kn *Kernel) boundaryVectors(table map[string]symbolic.Expr) ([]ir.Stmt, error) {
	var normal, tangent bool
	symbolic.Walk(kn.expr, func(n symbolic.Expr) bool {
		if b, ok := n.(*symbolic.BoundaryComponent); ok {
			if b.Kind == symbolic.Tangent {
				tangent = true
			} else {
				normal = true
			}
		}
		return true
	})
	if !normal && !tangent {
		return nil, nil
	}
	if !kn.target.Boundary {
		return nil, configErr("kernel", "boundary vector in interior target %s", kn.target.Name)
	}
	dim := kn.form.Dim
	var out []ir.Stmt
	if normal {
		vec := symbolic.Symbols("normal_", dim)
		for i, c := range symbolic.NormalVector(dim) {
			table[c.String()] = vec[i]
		}
		stmts, err := NormalVector(vec, kn.boundary, kn.form.Mapping)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	if tangent {
		vec := symbolic.Symbols("tangent_", dim)
		for i, c := range symbolic.TangentVector(dim) {
			table[c.String()] = vec[i]
		}
		stmts, err := TangentVector(vec, kn.boundary, kn.form.Mapping)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

// blockIndex is where the value of one basis pair is written in its block
func (kn *Kernel) blockIndex(mat *symbolic.Symbol, sym kernelSymbols) symbolic.Expr {
	switch kn.form.Kind {
	case weakform.Bilinear:
		idx := exprs(sym.il)
		for i := range sym.jl {
			idx = append(idx, symbolic.Sum(sym.jl[i], sym.trialP[i], symbolic.Neg(sym.il[i])))
		}
		return symbolic.Index(mat, idx...)
	case weakform.Linear:
		return symbolic.Index(mat, exprs(sym.il)...)
	}
	return symbolic.Index(mat, symbolic.Zero)
}

func (kn *Kernel) blockRank() int {
	switch kn.form.Kind {
	case weakform.Bilinear:
		return 2 * kn.form.Dim
	case weakform.Linear:
		return kn.form.Dim
	}
	return 1
}

func (kn *Kernel) callEval(r *ir.Routine, sym kernelSymbols) (ir.Stmt, error) {
	args := make(map[string]symbolic.Expr)
	for i := range sym.k {
		n := fmt.Sprint(i + 1)
		args["k"+n] = sym.k[i]
		args["p"+n] = sym.testP[i]
		args["basis"+n] = sym.testBs[i]
	}
	for _, p := range r.Params() {
		if _, ok := args[p.Name]; !ok {
			args[p.Name] = p.Symbol()
		}
	}
	bound, err := r.Bind(args)
	if err != nil {
		return nil, wrapConfig("kernel", err)
	}
	return &ir.Call{Routine: r, Args: bound}, nil
}

func (kn *Kernel) params(sym kernelSymbols, mats []*symbolic.Symbol) []*ir.ParamBuilder {
	dim := kn.form.Dim
	bilinear := kn.form.Kind == weakform.Bilinear
	var params []*ir.ParamBuilder
	params = append(params, ir.Ints(sym.testP)...)
	if bilinear {
		params = append(params, ir.Ints(sym.trialP)...)
	}
	params = append(params, ir.Arrays(ir.DirectionInput, 3, sym.testBs)...)
	if bilinear {
		params = append(params, ir.Arrays(ir.DirectionInput, 3, sym.trialBs)...)
	}
	params = append(params, ir.Arrays(ir.DirectionInput, 1, sym.u)...)
	params = append(params, ir.Arrays(ir.DirectionInput, 1, sym.w)...)
	params = append(params, ir.Arrays(ir.DirectionInOut, dim, kn.MappingValues())...)
	params = append(params, ir.Arrays(ir.DirectionInput, dim, kn.fieldCoeffs)...)
	params = append(params, ir.Arrays(ir.DirectionInput, dim, kn.MappingCoeffs())...)
	params = append(params, ir.Arrays(ir.DirectionOutput, kn.blockRank(), mats)...)
	params = append(params, constantParams(kn.constants)...)
	return params
}

func constantParams(cs []*symbolic.Constant) []*ir.ParamBuilder {
	out := make([]*ir.ParamBuilder, len(cs))
	for i, c := range cs {
		out[i] = ir.Input(c.Name).Type(ir.DataTypeOf(c.Kind))
	}
	return out
}

func (kn *Kernel) Routine() *ir.Routine { return kn.routine }

// Tag is the deterministic id shared by the kernel, its assembly and its
// interface
func (kn *Kernel) Tag() string { return kn.tag }

func (kn *Kernel) Form() *weakform.WeakForm { return kn.form }

func (kn *Kernel) Target() weakform.Target { return kn.target }

func (kn *Kernel) Expr() symbolic.Expr { return kn.expr }

func (kn *Kernel) OnBoundary() bool { return kn.target.Boundary }

func (kn *Kernel) Boundary() Boundary { return append(Boundary(nil), kn.boundary...) }

func (kn *Kernel) BoundaryBasis() bool { return kn.boundaryBasis }

func (kn *Kernel) Rows() int { return kn.rows }

func (kn *Kernel) Cols() int { return kn.cols }

// MaxNDeriv is the highest per-axis derivative order of the expression, at
// least 1
func (kn *Kernel) MaxNDeriv() int { return kn.maxNDeriv }

func (kn *Kernel) Constants() []*symbolic.Constant {
	return append([]*symbolic.Constant(nil), kn.constants...)
}

// Fields returns the fields of the expression sorted by name
func (kn *Kernel) Fields() []*symbolic.Field {
	return append([]*symbolic.Field(nil), kn.fields...)
}

func (kn *Kernel) FieldCoeffs() []*symbolic.Symbol {
	return append([]*symbolic.Symbol(nil), kn.fieldCoeffs...)
}

func (kn *Kernel) EvalFields() []*EvalField {
	return append([]*EvalField(nil), kn.evalFields...)
}

// EvalMapping is nil for unmapped forms
func (kn *Kernel) EvalMapping() *EvalMapping { return kn.evalMapping }

func (kn *Kernel) MappingCoeffs() []*symbolic.Symbol {
	if kn.evalMapping == nil {
		return nil
	}
	return kn.evalMapping.Coeffs()
}

func (kn *Kernel) MappingValues() []*symbolic.Symbol {
	if kn.evalMapping == nil {
		return nil
	}
	return kn.evalMapping.Values()
}
