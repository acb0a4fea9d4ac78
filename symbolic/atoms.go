package symbolic

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotAtom is returned when a node handed to a classifier is not an atom
var ErrNotAtom = errors.New("expression is not an atom")

// AtomKind is the tag of a classified atom
type AtomKind uint8

const (
	AtomDerivative AtomKind = iota + 1
	AtomTestRef
	AtomTrialRef
	AtomFieldRef
	AtomMappingComponent
	AtomVectorComponent
)

func (k AtomKind) String() string {
	switch k {
	case AtomDerivative:
		return "derivative"
	case AtomTestRef:
		return "test"
	case AtomTrialRef:
		return "trial"
	case AtomFieldRef:
		return "field"
	case AtomMappingComponent:
		return "mapping"
	case AtomVectorComponent:
		return "vector-component"
	}
	return "unknown"
}

// Walk visits e in pre-order. Returning false from fn skips the children of
// the visited node.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, a := range e.Args() {
		Walk(a, fn)
	}
}

// Atoms returns the top-most sub-expressions of e matching pred, without
// descending into matches, de-duplicated and in first-occurrence order.
func Atoms(e Expr, pred func(Expr) bool) []Expr {
	var (
		out  []Expr
		seen = make(map[string]bool)
	)
	Walk(e, func(n Expr) bool {
		if !pred(n) {
			return true
		}
		key := n.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, n)
		}
		return false
	})
	return out
}

// Replace rebuilds e top-down. When fn reports a replacement for a node the
// replacement is used as is and its children are not visited.
func Replace(e Expr, fn func(Expr) (Expr, bool)) Expr {
	if r, ok := fn(e); ok {
		return r
	}
	args := e.Args()
	if len(args) == 0 {
		return e
	}
	changed := false
	next := make([]Expr, len(args))
	for i, a := range args {
		next[i] = Replace(a, fn)
		if next[i] != a {
			changed = true
		}
	}
	if !changed {
		return e
	}
	return e.WithArgs(next)
}

// Subs replaces every occurrence of old in e by new
func Subs(e, old, new Expr) Expr {
	key := old.String()
	return Replace(e, func(n Expr) (Expr, bool) {
		if n.String() == key {
			return new, true
		}
		return nil, false
	})
}

// Count returns the number of occurrences of sub in e
func Count(e, sub Expr) int {
	key := sub.String()
	n := 0
	Walk(e, func(x Expr) bool {
		if x.String() == key {
			n++
			return false
		}
		return true
	})
	return n
}

func Contains(e, sub Expr) bool { return Count(e, sub) > 0 }

func IsDerivative(e Expr) bool {
	_, ok := e.(*Derivative)
	return ok
}

// BaseOf strips every derivative from an atom
func BaseOf(e Expr) Expr {
	for {
		d, ok := e.(*Derivative)
		if !ok {
			return e
		}
		e = d.Arg
	}
}

// IsField reports whether e is a field or a derivative of one
func IsField(e Expr) bool {
	_, ok := BaseOf(e).(*Field)
	return ok
}

// IsTestTrial reports whether e is a test/trial function, a component of a
// vector one, or a derivative of either
func IsTestTrial(e Expr) bool {
	switch BaseOf(e).(type) {
	case *Function, *VectorFunction, *Component:
		return true
	}
	return false
}

func IsMappingComponent(e Expr) bool {
	_, ok := BaseOf(e).(*MappingComponent)
	return ok
}

// IsVectorComponent reports whether e is a normal or tangent component
func IsVectorComponent(e Expr) bool {
	_, ok := e.(*BoundaryComponent)
	return ok
}

// IsKernelAtom matches the nodes a kernel generator binds to basis values
func IsKernelAtom(e Expr) bool {
	switch e.(type) {
	case *Derivative:
		return IsTestTrial(e) || IsField(e) || IsMappingComponent(e)
	case *Function, *VectorFunction, *Component, *Field, *MappingComponent:
		return true
	}
	return false
}

// DerivativeOrders returns the number of derivatives taken along each of dim
// axes
func DerivativeOrders(e Expr, dim int) []int {
	orders := make([]int, dim)
	for {
		d, ok := e.(*Derivative)
		if !ok {
			return orders
		}
		if d.Axis < dim {
			orders[d.Axis]++
		}
		e = d.Arg
	}
}

// TotalOrder returns the total number of derivatives of an atom
func TotalOrder(e Expr) int {
	n := 0
	for {
		d, ok := e.(*Derivative)
		if !ok {
			return n
		}
		n++
		e = d.Arg
	}
}

// MaxDerivatives scans e and returns, per axis, the highest derivative order
// any atom carries
func MaxDerivatives(e Expr, dim int) []int {
	out := make([]int, dim)
	for _, a := range Atoms(e, IsDerivative) {
		for i, o := range DerivativeOrders(a, dim) {
			if o > out[i] {
				out[i] = o
			}
		}
	}
	return out
}

// MaxOrder returns the highest per-axis derivative order in e
func MaxOrder(e Expr, dim int) int {
	m := 0
	for _, o := range MaxDerivatives(e, dim) {
		if o > m {
			m = o
		}
	}
	return m
}

// Classify tags an atom. test is the distinguished test function of the form
// (a *Function or a *VectorFunction), nil when the form has none.
func Classify(atom, test Expr) (AtomKind, error) {
	switch atom.(type) {
	case *Derivative:
		if !IsKernelAtom(atom) {
			return 0, fmt.Errorf("%w: derivative of %s", ErrNotAtom, BaseOf(atom))
		}
		return AtomDerivative, nil
	case *Field:
		return AtomFieldRef, nil
	case *MappingComponent:
		return AtomMappingComponent, nil
	case *BoundaryComponent:
		return AtomVectorComponent, nil
	case *Function, *Component, *VectorFunction:
		if test != nil && OwnedBy(atom, test) {
			return AtomTestRef, nil
		}
		return AtomTrialRef, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrNotAtom, atom)
}

// OwnedBy reports whether the atom refers to fn, either directly or through
// a component of a vector function
func OwnedBy(atom, fn Expr) bool {
	base := BaseOf(atom)
	switch f := fn.(type) {
	case *Function:
		b, ok := base.(*Function)
		return ok && b.Name == f.Name
	case *VectorFunction:
		switch b := base.(type) {
		case *Component:
			return b.Of.Name == f.Name
		case *VectorFunction:
			return b.Name == f.Name
		}
	}
	return false
}

// Constants returns the constants of e sorted by name
func Constants(e Expr) []*Constant {
	var out []*Constant
	for _, a := range Atoms(e, func(n Expr) bool { _, ok := n.(*Constant); return ok }) {
		out = append(out, a.(*Constant))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Fields returns the distinct fields of e sorted by name
func Fields(e Expr) []*Field {
	var out []*Field
	for _, a := range Atoms(e, func(n Expr) bool { _, ok := n.(*Field); return ok }) {
		out = append(out, a.(*Field))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MathFunctions returns the sorted names of the elementary functions used
// in e
func MathFunctions(e Expr) []string {
	seen := make(map[string]bool)
	Walk(e, func(n Expr) bool {
		if f, ok := n.(*Func); ok {
			seen[f.Name] = true
		}
		return true
	})
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
