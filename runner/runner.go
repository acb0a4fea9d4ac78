package runner

import (
	"fmt"
	"log/slog"

	"github.com/notargets/SplKernel/ir"
)

// Config holds runner configuration
type Config struct {
	// Trace logs every routine call at debug level
	Trace  bool
	Logger *slog.Logger
}

// Runner executes generated routines on host memory. Routines are defined
// once, together with the routines they call, and run by name.
type Runner struct {
	cfg      Config
	log      *slog.Logger
	routines map[string]*ir.Routine
}

// NewRunner creates a new Runner instance
func NewRunner(cfg Config) *Runner {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		cfg:      cfg,
		log:      log,
		routines: make(map[string]*ir.Routine),
	}
}

// Define registers r and, recursively, its dependencies. A name already
// defined is kept when the new routine has the same listing, otherwise
// redefining it is an error.
func (rn *Runner) Define(r *ir.Routine) error {
	if r == nil {
		return fmt.Errorf("nil routine")
	}
	if prev, ok := rn.routines[r.Name()]; ok {
		if prev != r && prev.Listing() != r.Listing() {
			return fmt.Errorf("routine %s already defined with a different body", r.Name())
		}
		return nil
	}
	for _, d := range r.Dependencies() {
		if err := rn.Define(d); err != nil {
			return fmt.Errorf("routine %s: %w", r.Name(), err)
		}
	}
	rn.routines[r.Name()] = r
	return nil
}

// Routines lists the defined routine names
func (rn *Runner) Routines() []string {
	out := make([]string, 0, len(rn.routines))
	for n := range rn.routines {
		out = append(out, n)
	}
	return out
}

// Run calls a defined routine with named arguments. Omitted optional
// parameters are nil.
func (rn *Runner) Run(name string, args map[string]Value) ([]Value, error) {
	r, ok := rn.routines[name]
	if !ok {
		return nil, fmt.Errorf("routine %s not defined - use Define first", name)
	}
	pos := make([]Value, 0, len(r.Params()))
	for _, p := range r.Params() {
		a, ok := args[p.Name]
		if !ok && !p.Optional {
			return nil, fmt.Errorf("routine %s: missing argument %s", name, p.Name)
		}
		pos = append(pos, a)
	}
	for n := range args {
		if _, ok := r.Param(n); !ok {
			return nil, fmt.Errorf("routine %s: unknown argument %s", name, n)
		}
	}
	return rn.Call(r, pos...)
}

// Call executes r with positional arguments in declaration order
func (rn *Runner) Call(r *ir.Routine, args ...Value) ([]Value, error) {
	params := r.Params()
	if len(args) > len(params) {
		return nil, fmt.Errorf("routine %s takes %d arguments, got %d", r.Name(), len(params), len(args))
	}
	fr := newFrame(rn)
	for i, p := range params {
		var a Value
		if i < len(args) {
			a = args[i]
		}
		if err := checkArg(p, a); err != nil {
			return nil, fmt.Errorf("routine %s: %w", r.Name(), err)
		}
		fr.vars[p.Name] = a
	}
	if rn.cfg.Trace {
		rn.log.Debug("call", "routine", r.Name(), "args", len(args))
	}
	out, err := fr.execBody(r.Body())
	if err != nil {
		return nil, fmt.Errorf("routine %s: %w", r.Name(), err)
	}
	return out, nil
}

// checkArg validates a value against its parameter declaration
func checkArg(p ir.Param, a Value) error {
	if a == nil {
		if p.Optional {
			return nil
		}
		return fmt.Errorf("missing argument %s", p.Name)
	}
	switch {
	case p.DataType == ir.Object:
		if _, ok := a.(Object); !ok {
			return fmt.Errorf("argument %s: expecting an object, got %T", p.Name, a)
		}
	case p.Rank == 0:
		if _, ok := a.(float64); !ok {
			return fmt.Errorf("argument %s: expecting a scalar, got %T", p.Name, a)
		}
	default:
		t, ok := a.(*Tensor)
		if !ok {
			return fmt.Errorf("argument %s: expecting a rank %d array, got %T", p.Name, p.Rank, a)
		}
		if t.Rank() != p.Rank {
			return fmt.Errorf("argument %s: expecting rank %d, got rank %d", p.Name, p.Rank, t.Rank())
		}
	}
	return nil
}
