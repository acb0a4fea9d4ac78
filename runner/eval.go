package runner

import (
	"fmt"
	"math"

	"github.com/notargets/SplKernel/ir"
	"github.com/notargets/SplKernel/symbolic"
)

func (fr *frame) eval(e symbolic.Expr) (Value, error) {
	switch n := e.(type) {
	case *symbolic.Number:
		return n.Value, nil
	case *symbolic.Symbol:
		return fr.lookup(n.Name)
	case *symbolic.Constant:
		return fr.lookup(n.Name)
	case *symbolic.Add:
		acc := 0.0
		for _, t := range n.Terms {
			v, err := fr.evalFloat(t)
			if err != nil {
				return nil, err
			}
			acc += v
		}
		return acc, nil
	case *symbolic.Mul:
		acc := 1.0
		for _, f := range n.Factors {
			v, err := fr.evalFloat(f)
			if err != nil {
				return nil, err
			}
			acc *= v
		}
		return acc, nil
	case *symbolic.Pow:
		b, err := fr.evalFloat(n.Base)
		if err != nil {
			return nil, err
		}
		x, err := fr.evalFloat(n.Exp)
		if err != nil {
			return nil, err
		}
		return math.Pow(b, x), nil
	case *symbolic.Func:
		fn, ok := mathFuncs[n.Name]
		if !ok {
			return nil, fmt.Errorf("unknown function %s", n.Name)
		}
		x, err := fr.evalFloat(n.Arg)
		if err != nil {
			return nil, err
		}
		return fn(x), nil
	case *symbolic.Indexed:
		return fr.evalIndexed(n)
	case *ir.Attr:
		v, err := fr.eval(n.Of)
		if err != nil {
			return nil, err
		}
		for _, name := range n.Path {
			obj, ok := v.(Object)
			if !ok {
				return nil, fmt.Errorf("%s: %T has no attributes", n, v)
			}
			if v, err = obj.Attr(name); err != nil {
				return nil, err
			}
		}
		return v, nil
	case *ir.Len:
		v, err := fr.eval(n.Of)
		if err != nil {
			return nil, err
		}
		switch x := v.(type) {
		case *Tensor:
			if x.Rank() == 0 {
				return nil, fmt.Errorf("len of a rank 0 array")
			}
			return float64(x.shape[0]), nil
		case []Value:
			return float64(len(x)), nil
		}
		return nil, fmt.Errorf("len of %T", v)
	case ir.Nil:
		return nil, nil
	case *ir.Zeros:
		shape := make([]int, len(n.Shape))
		for i, s := range n.Shape {
			v, err := fr.evalInt(s)
			if err != nil {
				return nil, err
			}
			shape[i] = v
		}
		return NewTensor(shape...), nil
	case *ir.Construct:
		return fr.construct(n)
	case *ir.Slice:
		return nil, fmt.Errorf("slice %s outside of an index", n)
	}
	return nil, fmt.Errorf("cannot evaluate %T %s", e, e)
}

func (fr *frame) lookup(name string) (Value, error) {
	v, ok := fr.vars[name]
	if !ok {
		return nil, fmt.Errorf("%s is not bound", name)
	}
	return v, nil
}

func (fr *frame) evalFloat(e symbolic.Expr) (float64, error) {
	v, err := fr.eval(e)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%s: expecting a scalar, got %T", e, v)
	}
	return f, nil
}

func (fr *frame) evalInt(e symbolic.Expr) (int, error) {
	f, err := fr.evalFloat(e)
	if err != nil {
		return 0, err
	}
	i := math.Round(f)
	if math.Abs(f-i) > 1e-9 {
		return 0, fmt.Errorf("%s: expecting an integer, got %g", e, f)
	}
	return int(i), nil
}

func (fr *frame) evalIndexed(n *symbolic.Indexed) (Value, error) {
	base, err := fr.eval(n.Base)
	if err != nil {
		return nil, err
	}
	switch b := base.(type) {
	case []Value:
		if len(n.Indices) != 1 {
			return nil, fmt.Errorf("%s: tuples take one index", n)
		}
		i, err := fr.evalInt(n.Indices[0])
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= len(b) {
			return nil, fmt.Errorf("%s: index %d out of range [0, %d)", n, i, len(b))
		}
		return b[i], nil
	case *Tensor:
		sel, scalar, err := fr.selectors(n.Indices, b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n, err)
		}
		if scalar {
			idx := make([]int, len(sel))
			for i, s := range sel {
				idx[i] = s.Index
			}
			p, err := b.pos(idx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", n, err)
			}
			return b.data[p], nil
		}
		return b.Slice(sel)
	}
	return nil, fmt.Errorf("%s: cannot index %T", n, base)
}

// selectors evaluates one selector per index; scalar reports whether every
// index picks a single element
func (fr *frame) selectors(indices []symbolic.Expr, t *Tensor) ([]Selector, bool, error) {
	if len(indices) != t.Rank() {
		return nil, false, fmt.Errorf("rank %d array indexed with %d indices", t.Rank(), len(indices))
	}
	sel := make([]Selector, len(indices))
	scalar := true
	for i, x := range indices {
		s, ok := x.(*ir.Slice)
		if !ok {
			v, err := fr.evalInt(x)
			if err != nil {
				return nil, false, err
			}
			sel[i] = Selector{Scalar: true, Index: v}
			continue
		}
		scalar = false
		lo, hi := 0, t.shape[i]
		var err error
		if s.Start != nil {
			if lo, err = fr.evalInt(s.Start); err != nil {
				return nil, false, err
			}
		}
		if s.Stop != nil {
			if hi, err = fr.evalInt(s.Stop); err != nil {
				return nil, false, err
			}
		}
		sel[i] = Selector{Lo: lo, Hi: hi}
	}
	return sel, scalar, nil
}

func (fr *frame) construct(n *ir.Construct) (Value, error) {
	items := make([]Value, len(n.Items))
	for i, it := range n.Items {
		v, err := fr.eval(it)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	space := func(v Value) (VectorSpace, error) {
		vs, ok := v.(VectorSpace)
		if !ok {
			return nil, fmt.Errorf("%s: expecting a vector space, got %T", n.Type, v)
		}
		return vs, nil
	}
	switch n.Type {
	case ir.StencilVector:
		if len(items) != 1 {
			return nil, fmt.Errorf("%s takes one vector space", n.Type)
		}
		vs, err := space(items[0])
		if err != nil {
			return nil, err
		}
		return NewStencilVector(vs), nil
	case ir.StencilMatrix:
		if len(items) != 2 {
			return nil, fmt.Errorf("%s takes two vector spaces", n.Type)
		}
		codomain, err := space(items[0])
		if err != nil {
			return nil, err
		}
		domain, err := space(items[1])
		if err != nil {
			return nil, err
		}
		return NewStencilMatrix(codomain, domain), nil
	case ir.BlockVector:
		return &BlockVector{Blocks: items}, nil
	case ir.BlockMatrix:
		if len(items) < 2 {
			return nil, fmt.Errorf("%s needs its shape", n.Type)
		}
		rows, ok1 := items[0].(float64)
		cols, ok2 := items[1].(float64)
		if !ok1 || !ok2 || int(rows)*int(cols) != len(items)-2 {
			return nil, fmt.Errorf("%s: bad shape for %d blocks", n.Type, len(items)-2)
		}
		return &BlockMatrix{Rows: int(rows), Cols: int(cols), Blocks: items[2:]}, nil
	}
	return nil, fmt.Errorf("unknown container %s", n.Type)
}
