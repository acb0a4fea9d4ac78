package ir

import (
	"github.com/notargets/SplKernel/symbolic"
)

// Stmt is a statement in the body of a generated routine
type Stmt interface {
	stmt()
}

// Assign binds RHS to a symbol, or stores it through an indexed target.
// Storing a scalar through a sliced target fills the selection.
type Assign struct {
	LHS, RHS symbolic.Expr
}

// AugAssign adds RHS into the target in place
type AugAssign struct {
	LHS, RHS symbolic.Expr
}

// For runs Body with Index taking the values Start, Start+1, ..., End-1
type For struct {
	Index      *symbolic.Symbol
	Start, End symbolic.Expr
	Body       []Stmt
}

// Call invokes another generated routine with positional arguments
type Call struct {
	Routine *Routine
	Args    []symbolic.Expr
}

// IfNil runs Body only when Target is bound to the null sentinel
type IfNil struct {
	Target *symbolic.Symbol
	Body   []Stmt
}

// Return ends the routine with the given values
type Return struct {
	Values []symbolic.Expr
}

// Declare makes elementary functions available to the routine body
type Declare struct {
	Functions []string
}

// Print is a diagnostic statement: a label followed by values
type Print struct {
	Label string
	Args  []symbolic.Expr
}

type Comment struct {
	Text string
}

func (*Assign) stmt()    {}
func (*AugAssign) stmt() {}
func (*For) stmt()       {}
func (*Call) stmt()      {}
func (*IfNil) stmt()     {}
func (*Return) stmt()    {}
func (*Declare) stmt()   {}
func (*Print) stmt()     {}
func (*Comment) stmt()   {}

// Walk visits statements in order, descending into loop and conditional
// bodies. depth is the number of enclosing loops.
func Walk(body []Stmt, fn func(s Stmt, depth int)) {
	walk(body, 0, fn)
}

func walk(body []Stmt, depth int, fn func(Stmt, int)) {
	for _, s := range body {
		fn(s, depth)
		switch n := s.(type) {
		case *For:
			walk(n.Body, depth+1, fn)
		case *IfNil:
			walk(n.Body, depth, fn)
		}
	}
}

// Loops returns the loop nest starting at body[i] as long as each loop is
// the only loop at its level
func Loops(s Stmt) []*For {
	var out []*For
	for {
		f, ok := s.(*For)
		if !ok {
			return out
		}
		out = append(out, f)
		var next Stmt
		for _, b := range f.Body {
			if _, ok := b.(*For); ok {
				if next != nil {
					return out
				}
				next = b
			}
		}
		if next == nil {
			return out
		}
		s = next
	}
}
