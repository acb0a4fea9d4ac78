package runner

import (
	"fmt"
	"math"

	"github.com/notargets/SplKernel/ir"
	"github.com/notargets/SplKernel/symbolic"
)

// frame is the variable scope of one routine call
type frame struct {
	rn   *Runner
	vars map[string]Value
}

func newFrame(rn *Runner) *frame {
	return &frame{rn: rn, vars: make(map[string]Value)}
}

var mathFuncs = map[string]func(float64) float64{
	"sin":  math.Sin,
	"cos":  math.Cos,
	"tan":  math.Tan,
	"exp":  math.Exp,
	"log":  math.Log,
	"sqrt": math.Sqrt,
	"abs":  math.Abs,
	"sinh": math.Sinh,
	"cosh": math.Cosh,
	"tanh": math.Tanh,
}

func (fr *frame) execBody(body []ir.Stmt) ([]Value, error) {
	out, _, err := fr.exec(body)
	return out, err
}

// exec runs statements until the end of body or a Return
func (fr *frame) exec(body []ir.Stmt) ([]Value, bool, error) {
	for _, s := range body {
		switch n := s.(type) {
		case *ir.Assign:
			if err := fr.assign(n.LHS, n.RHS, false); err != nil {
				return nil, false, fmt.Errorf("%s = %s: %w", n.LHS, n.RHS, err)
			}
		case *ir.AugAssign:
			if err := fr.assign(n.LHS, n.RHS, true); err != nil {
				return nil, false, fmt.Errorf("%s += %s: %w", n.LHS, n.RHS, err)
			}
		case *ir.For:
			start, err := fr.evalInt(n.Start)
			if err != nil {
				return nil, false, err
			}
			end, err := fr.evalInt(n.End)
			if err != nil {
				return nil, false, err
			}
			for i := start; i < end; i++ {
				fr.vars[n.Index.Name] = float64(i)
				out, done, err := fr.exec(n.Body)
				if err != nil || done {
					return out, done, err
				}
			}
		case *ir.Call:
			args := make([]Value, len(n.Args))
			for i, a := range n.Args {
				v, err := fr.eval(a)
				if err != nil {
					return nil, false, fmt.Errorf("call %s: argument %d: %w", n.Routine.Name(), i, err)
				}
				args[i] = v
			}
			if _, err := fr.rn.Call(n.Routine, args...); err != nil {
				return nil, false, err
			}
		case *ir.IfNil:
			if fr.vars[n.Target.Name] == nil {
				out, done, err := fr.exec(n.Body)
				if err != nil || done {
					return out, done, err
				}
			}
		case *ir.Return:
			out := make([]Value, len(n.Values))
			for i, e := range n.Values {
				v, err := fr.eval(e)
				if err != nil {
					return nil, false, fmt.Errorf("return: %w", err)
				}
				out[i] = v
			}
			return out, true, nil
		case *ir.Declare:
			for _, f := range n.Functions {
				if _, ok := mathFuncs[f]; !ok {
					return nil, false, fmt.Errorf("unknown function %s", f)
				}
			}
		case *ir.Print:
			vals := make([]Value, len(n.Args))
			for i, e := range n.Args {
				v, err := fr.eval(e)
				if err != nil {
					return nil, false, err
				}
				vals[i] = v
			}
			fr.rn.log.Info(n.Label, "values", vals)
		case *ir.Comment:
		default:
			return nil, false, fmt.Errorf("unsupported statement %T", s)
		}
	}
	return nil, false, nil
}

// assign stores or accumulates rhs into lhs. A symbol target is rebound;
// tensors are bound by reference. An indexed target is written in place.
func (fr *frame) assign(lhs, rhs symbolic.Expr, add bool) error {
	val, err := fr.eval(rhs)
	if err != nil {
		return err
	}
	switch target := lhs.(type) {
	case *symbolic.Symbol:
		if !add {
			fr.vars[target.Name] = val
			return nil
		}
		cur, ok := fr.vars[target.Name]
		if !ok {
			return fmt.Errorf("%s is not bound", target.Name)
		}
		switch c := cur.(type) {
		case float64:
			v, ok := val.(float64)
			if !ok {
				return fmt.Errorf("cannot add %T to a scalar", val)
			}
			fr.vars[target.Name] = c + v
			return nil
		case *Tensor:
			return accumulate(c, val)
		}
		return fmt.Errorf("cannot accumulate into %T", cur)
	case *symbolic.Indexed:
		base, err := fr.eval(target.Base)
		if err != nil {
			return err
		}
		t, ok := base.(*Tensor)
		if !ok {
			return fmt.Errorf("cannot store into %T", base)
		}
		sel, scalar, err := fr.selectors(target.Indices, t)
		if err != nil {
			return err
		}
		if scalar {
			v, ok := val.(float64)
			if !ok {
				return fmt.Errorf("cannot store %T into one element", val)
			}
			idx := make([]int, len(sel))
			for i, s := range sel {
				idx[i] = s.Index
			}
			p, err := t.pos(idx)
			if err != nil {
				return err
			}
			if add {
				v += t.data[p]
			}
			t.data[p] = v
			return nil
		}
		view, err := t.Slice(sel)
		if err != nil {
			return err
		}
		if add {
			return accumulate(view, val)
		}
		switch v := val.(type) {
		case float64:
			view.Fill(v)
			return nil
		case *Tensor:
			return view.CopyFrom(v)
		}
		return fmt.Errorf("cannot store %T into an array", val)
	}
	return fmt.Errorf("cannot assign to %T", lhs)
}

func accumulate(t *Tensor, val Value) error {
	switch v := val.(type) {
	case float64:
		t.AddScalar(v)
		return nil
	case *Tensor:
		return t.Add(v)
	}
	return fmt.Errorf("cannot add %T to an array", val)
}
