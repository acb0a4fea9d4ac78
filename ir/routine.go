package ir

import (
	"fmt"
)

// Routine is a generated routine: a name, an ordered parameter list, an
// ordered statement body and the routines it calls. A Routine is immutable
// once built; accessors return copies.
type Routine struct {
	name   string
	params []Param
	body   []Stmt
	deps   []*Routine
	index  map[string]int
}

// NewRoutine validates the parameters and builds a routine
func NewRoutine(name string, params []*ParamBuilder, body []Stmt, deps ...*Routine) (*Routine, error) {
	if name == "" {
		return nil, fmt.Errorf("routine name cannot be empty")
	}
	r := &Routine{
		name:  name,
		body:  append([]Stmt(nil), body...),
		deps:  append([]*Routine(nil), deps...),
		index: make(map[string]int, len(params)),
	}
	for _, pb := range params {
		p := pb.Spec
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("routine %s: %w", name, err)
		}
		if _, dup := r.index[p.Name]; dup {
			return nil, fmt.Errorf("routine %s: duplicate parameter %s", name, p.Name)
		}
		r.index[p.Name] = len(r.params)
		r.params = append(r.params, p)
	}
	return r, nil
}

func (r *Routine) Name() string { return r.name }

// Params returns the parameters in declaration order
func (r *Routine) Params() []Param {
	return append([]Param(nil), r.params...)
}

// Param looks up a parameter by name
func (r *Routine) Param(name string) (Param, bool) {
	i, ok := r.index[name]
	if !ok {
		return Param{}, false
	}
	return r.params[i], true
}

func (r *Routine) InParams() []Param    { return r.byDirection(DirectionInput) }
func (r *Routine) OutParams() []Param   { return r.byDirection(DirectionOutput) }
func (r *Routine) InOutParams() []Param { return r.byDirection(DirectionInOut) }

func (r *Routine) byDirection(d Direction) []Param {
	var out []Param
	for _, p := range r.params {
		if p.Direction == d {
			out = append(out, p)
		}
	}
	return out
}

// Body returns the statements in execution order
func (r *Routine) Body() []Stmt {
	return append([]Stmt(nil), r.body...)
}

// Dependencies returns the routines called from the body
func (r *Routine) Dependencies() []*Routine {
	return append([]*Routine(nil), r.deps...)
}

// Bind maps the callee's parameter names to argument expressions and returns
// them in the callee's declaration order. Optional parameters missing from
// args are passed as nil; a missing required one is an error.
func (r *Routine) Bind(args map[string]Expr) ([]Expr, error) {
	out := make([]Expr, len(r.params))
	for i, p := range r.params {
		a, ok := args[p.Name]
		switch {
		case ok:
			out[i] = a
		case p.Optional:
			out[i] = Nil{}
		default:
			return nil, fmt.Errorf("routine %s: no argument for %s", r.name, p.Name)
		}
	}
	return out, nil
}
