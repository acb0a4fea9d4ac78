package symbolic

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a node of a symbolic expression tree.
//
// String returns the canonical rendering of the node. Two expressions are
// structurally equal exactly when their canonical renderings are equal, which
// is what substitution and atom de-duplication rely on.
type Expr interface {
	String() string
	Args() []Expr
	WithArgs(args []Expr) Expr
}

// NumericKind tags a constant with the numeric type it is declared with
type NumericKind uint8

const (
	Real NumericKind = iota
	Integer
	Complex
)

func (k NumericKind) String() string {
	switch k {
	case Integer:
		return "int"
	case Complex:
		return "complex"
	default:
		return "real"
	}
}

// Space is a scalar or vector function space over a logical domain of
// dimension Dim
type Space struct {
	Name   string
	Dim    int
	Vector bool
}

type Number struct {
	Value float64
}

func (n *Number) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}
func (n *Number) Args() []Expr { return nil }
func (n *Number) WithArgs(_ []Expr) Expr { return n }

type Symbol struct {
	Name string
}

func (s *Symbol) String() string { return s.Name }
func (s *Symbol) Args() []Expr { return nil }
func (s *Symbol) WithArgs(_ []Expr) Expr { return s }

// Constant is a named scalar supplied by the caller at run time
type Constant struct {
	Name string
	Kind NumericKind
}

func (c *Constant) String() string { return c.Name }
func (c *Constant) Args() []Expr { return nil }
func (c *Constant) WithArgs(_ []Expr) Expr { return c }

type Add struct {
	Terms []Expr
}

func (a *Add) String() string {
	return "(" + joinExprs(a.Terms, " + ") + ")"
}
func (a *Add) Args() []Expr { return a.Terms }
func (a *Add) WithArgs(args []Expr) Expr { return Sum(args...) }

type Mul struct {
	Factors []Expr
}

func (m *Mul) String() string {
	return "(" + joinExprs(m.Factors, "*") + ")"
}
func (m *Mul) Args() []Expr { return m.Factors }
func (m *Mul) WithArgs(args []Expr) Expr { return Prod(args...) }

type Pow struct {
	Base, Exp Expr
}

func (p *Pow) String() string {
	return fmt.Sprintf("pow(%s, %s)", p.Base, p.Exp)
}
func (p *Pow) Args() []Expr { return []Expr{p.Base, p.Exp} }
func (p *Pow) WithArgs(args []Expr) Expr { return Power(args[0], args[1]) }

// Func is an elementary function application such as sin(x)
type Func struct {
	Name string
	Arg  Expr
}

func (f *Func) String() string { return f.Name + "(" + f.Arg.String() + ")" }
func (f *Func) Args() []Expr { return []Expr{f.Arg} }
func (f *Func) WithArgs(args []Expr) Expr { return &Func{Name: f.Name, Arg: args[0]} }

// Function is a scalar test or trial function on a space
type Function struct {
	Name  string
	Space *Space
}

func (f *Function) String() string { return f.Name }
func (f *Function) Args() []Expr { return nil }
func (f *Function) WithArgs(_ []Expr) Expr { return f }

// VectorFunction is a vector valued test or trial function. It only appears
// in expressions through its components.
type VectorFunction struct {
	Name  string
	Space *Space
}

func (f *VectorFunction) String() string { return f.Name }
func (f *VectorFunction) Args() []Expr { return nil }
func (f *VectorFunction) WithArgs(_ []Expr) Expr { return f }

// Component returns the i-th component of the vector function
func (f *VectorFunction) Component(i int) *Component {
	return &Component{Of: f, Index: i}
}

// Component is the indexed component of a vector function
type Component struct {
	Of    *VectorFunction
	Index int
}

func (c *Component) String() string { return fmt.Sprintf("%s[%d]", c.Of.Name, c.Index) }
func (c *Component) Args() []Expr { return nil }
func (c *Component) WithArgs(_ []Expr) Expr { return c }

// Field is a coefficient-represented function used as data in a form
type Field struct {
	Name  string
	Space *Space
}

func (f *Field) String() string { return f.Name }
func (f *Field) Args() []Expr { return nil }
func (f *Field) WithArgs(_ []Expr) Expr { return f }

// MappingComponent is the i-th physical coordinate of a geometric mapping
type MappingComponent struct {
	Mapping string
	Index   int
}

func (m *MappingComponent) String() string { return fmt.Sprintf("%s[%d]", m.Mapping, m.Index) }
func (m *MappingComponent) Args() []Expr { return nil }
func (m *MappingComponent) WithArgs(_ []Expr) Expr { return m }

// Derivative is the partial derivative along a logical axis
type Derivative struct {
	Axis int
	Arg  Expr
}

func (d *Derivative) String() string { return fmt.Sprintf("dx%d(%s)", d.Axis+1, d.Arg) }
func (d *Derivative) Args() []Expr { return []Expr{d.Arg} }
func (d *Derivative) WithArgs(args []Expr) Expr { return D(d.Axis, args[0]) }

type BoundaryVectorKind uint8

const (
	Normal BoundaryVectorKind = iota
	Tangent
)

// BoundaryComponent is the i-th component of the outward normal or of the
// tangent vector of a boundary
type BoundaryComponent struct {
	Kind  BoundaryVectorKind
	Index int
}

func (b *BoundaryComponent) String() string {
	if b.Kind == Tangent {
		return fmt.Sprintf("tt[%d]", b.Index)
	}
	return fmt.Sprintf("nn[%d]", b.Index)
}
func (b *BoundaryComponent) Args() []Expr { return nil }
func (b *BoundaryComponent) WithArgs(_ []Expr) Expr { return b }

// NormalVector returns the dim components of the boundary normal
func NormalVector(dim int) []Expr {
	out := make([]Expr, dim)
	for i := range out {
		out[i] = &BoundaryComponent{Kind: Normal, Index: i}
	}
	return out
}

// TangentVector returns the dim components of the boundary tangent
func TangentVector(dim int) []Expr {
	out := make([]Expr, dim)
	for i := range out {
		out[i] = &BoundaryComponent{Kind: Tangent, Index: i}
	}
	return out
}

// Indexed is an element access base[i, j, ...]. Indices may be any
// expression the consumer understands, including slices.
type Indexed struct {
	Base    Expr
	Indices []Expr
}

func (x *Indexed) String() string {
	return x.Base.String() + "[" + joinExprs(x.Indices, ", ") + "]"
}

func (x *Indexed) Args() []Expr {
	return append([]Expr{x.Base}, x.Indices...)
}

func (x *Indexed) WithArgs(args []Expr) Expr {
	return &Indexed{Base: args[0], Indices: append([]Expr(nil), args[1:]...)}
}

// Index builds base[indices...]
func Index(base Expr, indices ...Expr) *Indexed {
	return &Indexed{Base: base, Indices: indices}
}

// Matrix is a dense rows x cols matrix of expressions stored row-major
type Matrix struct {
	Rows, Cols int
	Elems      []Expr
}

func NewMatrix(rows, cols int, elems ...Expr) *Matrix {
	if len(elems) != rows*cols {
		panic(fmt.Sprintf("matrix %dx%d needs %d elements, got %d", rows, cols, rows*cols, len(elems)))
	}
	return &Matrix{Rows: rows, Cols: cols, Elems: elems}
}

func (m *Matrix) At(i, j int) Expr { return m.Elems[i*m.Cols+j] }

func (m *Matrix) String() string {
	return fmt.Sprintf("Matrix(%d, %d, [%s])", m.Rows, m.Cols, joinExprs(m.Elems, ", "))
}
func (m *Matrix) Args() []Expr { return m.Elems }
func (m *Matrix) WithArgs(args []Expr) Expr {
	return &Matrix{Rows: m.Rows, Cols: m.Cols, Elems: append([]Expr(nil), args...)}
}

func joinExprs(es []Expr, sep string) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}

// Equal reports structural equality
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}
