package runner

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/notargets/SplKernel/ir"
	"github.com/notargets/SplKernel/symbolic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// line is a one dimensional vector space of n coefficients padded by p
type line struct{ n, p int }

func (l line) Npts() []int { return []int{l.n} }
func (l line) Pads() []int { return []int{l.p} }
func (l line) Attr(name string) (Value, error) {
	switch name {
	case "npts":
		return []Value{float64(l.n)}, nil
	case "pads":
		return []Value{float64(l.p)}, nil
	}
	return nil, missingAttr("line", name)
}

// discrete wraps a vector space the way discrete spaces expose it
type discrete struct{ vs VectorSpace }

func (s discrete) Attr(name string) (Value, error) {
	if name == "vector_space" {
		return s.vs, nil
	}
	return nil, missingAttr("discrete", name)
}

func sym(name string) *symbolic.Symbol { return symbolic.Sym(name) }

func num(v float64) symbolic.Expr { return symbolic.Num(v) }

// axpy computes y[i] += a*x[i]
func axpy(t *testing.T) *ir.Routine {
	t.Helper()
	i := sym("i")
	r, err := ir.NewRoutine("axpy", []*ir.ParamBuilder{
		ir.Input("a"),
		ir.Input("x").Rank(1),
		ir.InOut("y").Rank(1),
	}, []ir.Stmt{
		&ir.Assign{LHS: sym("n"), RHS: &ir.Len{Of: sym("x")}},
		&ir.For{Index: i, Start: symbolic.Zero, End: sym("n"), Body: []ir.Stmt{
			&ir.AugAssign{LHS: symbolic.Index(sym("y"), i), RHS: symbolic.Prod(sym("a"), symbolic.Index(sym("x"), i))},
		}},
	})
	require.NoError(t, err)
	return r
}

// ============================================================================
// Definition and argument binding
// ============================================================================

func TestRunner_Define(t *testing.T) {
	rn := NewRunner(Config{})
	r := axpy(t)
	require.NoError(t, rn.Define(r))
	require.NoError(t, rn.Define(r))
	assert.Equal(t, []string{"axpy"}, rn.Routines())

	assert.Error(t, rn.Define(nil))

	// a rebuilt routine with the same listing is the same routine
	require.NoError(t, rn.Define(axpy(t)))
	assert.Same(t, r, rn.routines["axpy"])

	// a different body under the same name is rejected, and so is any
	// routine depending on it
	i := sym("i")
	other, err := ir.NewRoutine("axpy", []*ir.ParamBuilder{
		ir.Input("a"),
		ir.Input("x").Rank(1),
		ir.InOut("y").Rank(1),
	}, []ir.Stmt{
		&ir.For{Index: i, Start: symbolic.Zero, End: &ir.Len{Of: sym("x")}, Body: []ir.Stmt{
			&ir.Assign{LHS: symbolic.Index(sym("y"), i), RHS: symbolic.Index(sym("x"), i)},
		}},
	})
	require.NoError(t, err)
	assert.Error(t, rn.Define(other))
	outer, err := ir.NewRoutine("outer", []*ir.ParamBuilder{ir.Input("x").Rank(1), ir.InOut("y").Rank(1)}, []ir.Stmt{
		&ir.Call{Routine: other, Args: []symbolic.Expr{symbolic.One, sym("x"), sym("y")}},
	}, other)
	require.NoError(t, err)
	assert.Error(t, rn.Define(outer))
	assert.Equal(t, []string{"axpy"}, rn.Routines())

	_, err = rn.Run("missing", nil)
	assert.Error(t, err)
}

func TestRunner_Run(t *testing.T) {
	rn := NewRunner(Config{})
	require.NoError(t, rn.Define(axpy(t)))
	x := FromSlice([]float64{1, 2, 3}, 3)
	y := FromSlice([]float64{1, 1, 1}, 3)

	t.Run("InPlace", func(t *testing.T) {
		out, err := rn.Run("axpy", map[string]Value{"a": 2.0, "x": x, "y": y})
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Equal(t, []float64{3, 5, 7}, y.Values())
	})

	t.Run("View", func(t *testing.T) {
		z := NewTensor(2, 3)
		row, err := z.Slice([]Selector{{Scalar: true, Index: 1}, {Lo: 0, Hi: 3}})
		require.NoError(t, err)
		_, err = rn.Run("axpy", map[string]Value{"a": -1.0, "x": x, "y": row})
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0, 0, -1, -2, -3}, z.Values())
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			name string
			args map[string]Value
		}{
			{"MissingArgument", map[string]Value{"a": 1.0, "x": x}},
			{"UnknownArgument", map[string]Value{"a": 1.0, "x": x, "y": y, "z": y}},
			{"ScalarForArray", map[string]Value{"a": 1.0, "x": 2.0, "y": y}},
			{"ArrayForScalar", map[string]Value{"a": x, "x": x, "y": y}},
			{"WrongRank", map[string]Value{"a": 1.0, "x": NewTensor(3, 1), "y": y}},
			{"ShortOutput", map[string]Value{"a": 1.0, "x": x, "y": NewTensor(2)}},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := rn.Run("axpy", tc.args)
				assert.Error(t, err)
			})
		}
	})
}

// ============================================================================
// Control flow, calls and constructed objects
// ============================================================================

func TestRunner_CallAndAllocate(t *testing.T) {
	inner := axpy(t)
	W, M := sym("W"), sym("M")

	// allocate M on W unless given, add 1 to every coefficient through the
	// inner routine, and return it
	r, err := ir.NewRoutine("fill", []*ir.ParamBuilder{
		ir.Input("W").Type(ir.Object),
		ir.InOut("M").Type(ir.Object).Optional(),
	}, []ir.Stmt{
		&ir.Comment{Text: "allocate"},
		&ir.IfNil{Target: M, Body: []ir.Stmt{
			&ir.Assign{LHS: M, RHS: &ir.Construct{Type: ir.StencilVector, Items: []symbolic.Expr{ir.Dotted(W, "vector_space")}}},
		}},
		&ir.Assign{LHS: sym("d"), RHS: ir.Dotted(M, "data")},
		&ir.Assign{LHS: sym("ones"), RHS: &ir.Zeros{Shape: []symbolic.Expr{&ir.Len{Of: sym("d")}}}},
		&ir.Assign{LHS: symbolic.Index(sym("ones"), ir.All()), RHS: symbolic.One},
		&ir.Call{Routine: inner, Args: []symbolic.Expr{symbolic.One, sym("ones"), sym("d")}},
		&ir.Return{Values: []symbolic.Expr{M, symbolic.Index(ir.Dotted(W, "vector_space", "npts"), symbolic.Zero)}},
	}, inner)
	require.NoError(t, err)

	rn := NewRunner(Config{})
	require.NoError(t, rn.Define(r))
	assert.ElementsMatch(t, []string{"fill", "axpy"}, rn.Routines())

	W1 := discrete{vs: line{n: 4, p: 1}}
	out, err := rn.Run("fill", map[string]Value{"W": W1})
	require.NoError(t, err)
	require.Len(t, out, 2)
	v, ok := out[0].(*StencilVector)
	require.True(t, ok)
	assert.Equal(t, 4.0, out[1])
	assert.Equal(t, []int{6}, v.Data().Shape())
	assert.Equal(t, []float64{1, 1, 1, 1}, v.ToVec().RawVector().Data)

	again, err := rn.Run("fill", map[string]Value{"W": W1, "M": v})
	require.NoError(t, err)
	assert.Same(t, v, again[0])
	assert.Equal(t, 2.0, v.At(3))

	_, err = rn.Run("fill", map[string]Value{"W": W1, "M": 1.0})
	assert.Error(t, err)
}

func TestRunner_ReturnStopsLoops(t *testing.T) {
	i := sym("i")
	r, err := ir.NewRoutine("first", []*ir.ParamBuilder{ir.Input("x").Rank(1)}, []ir.Stmt{
		&ir.For{Index: i, Start: symbolic.Zero, End: &ir.Len{Of: sym("x")}, Body: []ir.Stmt{
			&ir.Return{Values: []symbolic.Expr{symbolic.Index(sym("x"), i), i}},
		}},
		&ir.Return{Values: []symbolic.Expr{ir.Nil{}}},
	})
	require.NoError(t, err)
	rn := NewRunner(Config{})
	require.NoError(t, rn.Define(r))

	out, err := rn.Run("first", map[string]Value{"x": FromSlice([]float64{7, 8}, 2)})
	require.NoError(t, err)
	assert.Equal(t, []Value{7.0, 0.0}, out)

	out, err = rn.Run("first", map[string]Value{"x": NewTensor(0)})
	require.NoError(t, err)
	assert.Equal(t, []Value{nil}, out)
}

func TestRunner_Expressions(t *testing.T) {
	x := sym("x")
	r, err := ir.NewRoutine("expr", []*ir.ParamBuilder{ir.Input("x")}, []ir.Stmt{
		&ir.Declare{Functions: []string{"sin", "sqrt"}},
		&ir.Assign{LHS: sym("s"), RHS: symbolic.Sin(x)},
		&ir.AugAssign{LHS: sym("s"), RHS: symbolic.Sqrt(symbolic.Prod(num(4), x))},
		&ir.Return{Values: []symbolic.Expr{sym("s"), symbolic.Div(num(1), x)}},
	})
	require.NoError(t, err)
	rn := NewRunner(Config{})
	require.NoError(t, rn.Define(r))

	out, err := rn.Run("expr", map[string]Value{"x": 1.0})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 0.8414709848078965+2, out[0], 1.e-15)
	assert.Equal(t, 1.0, out[1])

	bad, err := ir.NewRoutine("bad", nil, []ir.Stmt{&ir.Declare{Functions: []string{"gamma"}}})
	require.NoError(t, err)
	_, err = rn.Call(bad)
	assert.Error(t, err)

	unbound, err := ir.NewRoutine("unbound", nil, []ir.Stmt{&ir.Return{Values: []symbolic.Expr{sym("q")}}})
	require.NoError(t, err)
	_, err = rn.Call(unbound)
	assert.Error(t, err)
}

func TestRunner_Print(t *testing.T) {
	var buf bytes.Buffer
	rn := NewRunner(Config{Trace: true, Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))})
	r, err := ir.NewRoutine("show", nil, []ir.Stmt{
		&ir.Print{Label: "> shape M = ", Args: []symbolic.Expr{num(3), num(5)}},
	})
	require.NoError(t, err)
	_, err = rn.Call(r)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "shape M")
	assert.Contains(t, buf.String(), "routine=show")
}

// ============================================================================
// Stencil storage
// ============================================================================

func TestStencilMatrix_ToDense(t *testing.T) {
	vs := line{n: 3, p: 1}
	m := NewStencilMatrix(vs, vs)
	assert.Equal(t, []int{3, 3}, m.Data().Shape())

	// tridiagonal [-1 2 -1]; the out of range corners are dropped
	for i := 0; i < 3; i++ {
		m.Data().Set(-1, i, 0)
		m.Data().Set(2, i, 1)
		m.Data().Set(-1, i, 2)
	}
	want := mat.NewDense(3, 3, []float64{
		2, -1, 0,
		-1, 2, -1,
		0, -1, 2,
	})
	assert.True(t, mat.Equal(want, m.ToDense()))

	d, err := m.Attr("data")
	require.NoError(t, err)
	assert.Same(t, m.Data(), d)
	_, err = m.Attr("rows")
	assert.Error(t, err)
}

func TestBlocks(t *testing.T) {
	vs := line{n: 2, p: 1}
	a, b := NewStencilVector(vs), NewStencilVector(vs)
	bm := &BlockMatrix{Rows: 1, Cols: 2, Blocks: []Value{a, b}}
	assert.Same(t, b, bm.At(0, 1))
	rows, err := bm.Attr("rows")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rows)

	bv := &BlockVector{Blocks: []Value{a, b}}
	blocks, err := bv.Attr("blocks")
	require.NoError(t, err)
	assert.Len(t, blocks, 2)
}
