package ir

import (
	"fmt"
	"strings"

	"github.com/notargets/SplKernel/symbolic"
)

// Expr is the expression type routine bodies are built from. IR-only nodes
// below implement it alongside the symbolic nodes.
type Expr = symbolic.Expr

// Slice selects [Start, Stop) along one axis of an array. A nil bound is
// open. Slices are leaves: substitution never rewrites inside them.
type Slice struct {
	Start, Stop symbolic.Expr
}

// All is the open slice [:]
func All() *Slice { return &Slice{} }

// Span is the slice [start, stop)
func Span(start, stop symbolic.Expr) *Slice { return &Slice{Start: start, Stop: stop} }

func (s *Slice) String() string {
	var lo, hi string
	if s.Start != nil {
		lo = s.Start.String()
	}
	if s.Stop != nil {
		hi = s.Stop.String()
	}
	return lo + ":" + hi
}
func (s *Slice) Args() []symbolic.Expr                  { return nil }
func (s *Slice) WithArgs(_ []symbolic.Expr) symbolic.Expr { return s }

// Len is the extent of the first axis of an array or the length of a tuple
type Len struct {
	Of symbolic.Expr
}

func (l *Len) String() string                            { return "len(" + l.Of.String() + ")" }
func (l *Len) Args() []symbolic.Expr                     { return []symbolic.Expr{l.Of} }
func (l *Len) WithArgs(a []symbolic.Expr) symbolic.Expr { return &Len{Of: a[0]} }

// Attr reads a dotted attribute path of a runtime object
type Attr struct {
	Of   symbolic.Expr
	Path []string
}

func Dotted(of symbolic.Expr, path ...string) *Attr { return &Attr{Of: of, Path: path} }

func (a *Attr) String() string                            { return a.Of.String() + "." + strings.Join(a.Path, ".") }
func (a *Attr) Args() []symbolic.Expr                     { return []symbolic.Expr{a.Of} }
func (a *Attr) WithArgs(x []symbolic.Expr) symbolic.Expr { return &Attr{Of: x[0], Path: a.Path} }

// Nil is the null sentinel optional arguments default to
type Nil struct{}

func (Nil) String() string                            { return "nil" }
func (Nil) Args() []symbolic.Expr                     { return nil }
func (n Nil) WithArgs(_ []symbolic.Expr) symbolic.Expr { return n }

// Zeros allocates a zero-filled real array of the given shape
type Zeros struct {
	Shape []symbolic.Expr
}

func (z *Zeros) String() string {
	return "zeros(" + joinExprs(z.Shape) + ")"
}
func (z *Zeros) Args() []symbolic.Expr { return z.Shape }
func (z *Zeros) WithArgs(a []symbolic.Expr) symbolic.Expr {
	return &Zeros{Shape: append([]symbolic.Expr(nil), a...)}
}

// Construct builds a runtime container such as a stencil matrix or a block
// vector
type Construct struct {
	Type  string
	Items []symbolic.Expr
}

const (
	StencilMatrix = "StencilMatrix"
	StencilVector = "StencilVector"
	BlockMatrix   = "BlockMatrix"
	BlockVector   = "BlockVector"
)

func (c *Construct) String() string {
	return fmt.Sprintf("%s(%s)", c.Type, joinExprs(c.Items))
}
func (c *Construct) Args() []symbolic.Expr { return c.Items }
func (c *Construct) WithArgs(a []symbolic.Expr) symbolic.Expr {
	return &Construct{Type: c.Type, Items: append([]symbolic.Expr(nil), a...)}
}

func joinExprs(es []symbolic.Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// Syms converts symbols to expressions
func Syms(syms []*symbolic.Symbol) []symbolic.Expr {
	out := make([]symbolic.Expr, len(syms))
	for i, s := range syms {
		out[i] = s
	}
	return out
}
