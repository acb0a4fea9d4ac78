package weakform

import (
	"fmt"
	"strings"

	"github.com/notargets/SplKernel/symbolic"
)

// Kind is the category of a weak form
type Kind uint8

const (
	Bilinear Kind = iota + 1
	Linear
	Functional
)

func (k Kind) String() string {
	switch k {
	case Bilinear:
		return "bilinear"
	case Linear:
		return "linear"
	case Functional:
		return "functional"
	}
	return "unknown"
}

// Target names the domain or boundary an expression is integrated over
type Target struct {
	Name     string
	Boundary bool
}

// Term is one target-indexed expression of a weak form
type Term struct {
	Target Target
	Expr   symbolic.Expr
}

// Interior is the term integrated over the whole domain
func Interior(expr symbolic.Expr) Term {
	return Term{Target: Target{Name: "domain"}, Expr: expr}
}

// OnBoundary is a term integrated over the named boundary
func OnBoundary(name string, expr symbolic.Expr) Term {
	return Term{Target: Target{Name: name, Boundary: true}, Expr: expr}
}

// WeakForm is a bilinear, linear or functional form over a tensor-product
// space of logical dimension Dim
type WeakForm struct {
	Kind        Kind
	Terms       []Term
	Dim         int
	Mapping     *Mapping
	Coordinates []*symbolic.Symbol

	// Test is the distinguished test function (*symbolic.Function or
	// *symbolic.VectorFunction); nil for functionals.
	Test  symbolic.Expr
	Trial symbolic.Expr
	Space *symbolic.Space
}

var coordinateNames = []string{"x", "y", "z"}

func newForm(kind Kind, space *symbolic.Space, terms []Term) *WeakForm {
	dim := space.Dim
	coords := make([]*symbolic.Symbol, 0, dim)
	for i := 0; i < dim && i < len(coordinateNames); i++ {
		coords = append(coords, symbolic.Sym(coordinateNames[i]))
	}
	return &WeakForm{
		Kind:        kind,
		Terms:       append([]Term(nil), terms...),
		Dim:         dim,
		Coordinates: coords,
		Space:       space,
	}
}

func spaceOf(fn symbolic.Expr) *symbolic.Space {
	switch f := fn.(type) {
	case *symbolic.Function:
		return f.Space
	case *symbolic.VectorFunction:
		return f.Space
	}
	panic(fmt.Sprintf("%s is not a test or trial function", fn))
}

// NewBilinear builds a form a(test, trial)
func NewBilinear(test, trial symbolic.Expr, terms ...Term) *WeakForm {
	wf := newForm(Bilinear, spaceOf(test), terms)
	wf.Test = test
	wf.Trial = trial
	return wf
}

// NewLinear builds a form l(test)
func NewLinear(test symbolic.Expr, terms ...Term) *WeakForm {
	wf := newForm(Linear, spaceOf(test), terms)
	wf.Test = test
	return wf
}

// NewFunctional builds an integral of an expression over space's domain
func NewFunctional(space *symbolic.Space, terms ...Term) *WeakForm {
	return newForm(Functional, space, terms)
}

// WithMapping returns a copy of the form composed with a geometric mapping
func (wf *WeakForm) WithMapping(m *Mapping) *WeakForm {
	out := *wf
	out.Terms = append([]Term(nil), wf.Terms...)
	out.Mapping = m
	return &out
}

// TestSpace returns the space the test basis (or the functional's basis)
// lives in
func (wf *WeakForm) TestSpace() *symbolic.Space {
	if wf.Test != nil {
		return spaceOf(wf.Test)
	}
	return wf.Space
}

// String renders the form canonically; equal forms render identically
func (wf *WeakForm) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s(dim=%d", wf.Kind, wf.Dim)
	if wf.Test != nil {
		fmt.Fprintf(&sb, ", test=%s", wf.Test)
	}
	if wf.Trial != nil {
		fmt.Fprintf(&sb, ", trial=%s", wf.Trial)
	}
	if wf.Mapping != nil {
		fmt.Fprintf(&sb, ", mapping=%s", wf.Mapping.Name)
	}
	for _, t := range wf.Terms {
		fmt.Fprintf(&sb, ", %s:%v=%s", t.Target.Name, t.Target.Boundary, t.Expr)
	}
	sb.WriteString(")")
	return sb.String()
}
