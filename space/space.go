package space

import (
	"fmt"

	"github.com/notargets/SplKernel/runner"
)

// VectorSpace is the coefficient layout of a tensor spline space: npts
// coefficients per axis padded by the degree, of which this process owns
// starts..ends
type VectorSpace struct {
	npts, pads   []int
	starts, ends []int
}

func (v *VectorSpace) Npts() []int   { return append([]int(nil), v.npts...) }
func (v *VectorSpace) Pads() []int   { return append([]int(nil), v.pads...) }
func (v *VectorSpace) Starts() []int { return append([]int(nil), v.starts...) }
func (v *VectorSpace) Ends() []int   { return append([]int(nil), v.ends...) }

func (v *VectorSpace) Attr(name string) (runner.Value, error) {
	switch name {
	case "npts":
		return tuple(v.npts), nil
	case "pads":
		return tuple(v.pads), nil
	case "starts":
		return tuple(v.starts), nil
	case "ends":
		return tuple(v.ends), nil
	}
	return nil, fmt.Errorf("vector space has no attribute %s", name)
}

func tuple(n []int) []runner.Value {
	out := make([]runner.Value, len(n))
	for i, v := range n {
		out[i] = float64(v)
	}
	return out
}

// TensorSpace is a tensor product of clamped uniform B-spline spaces on the
// unit cube, together with the per-element quadrature tables generated
// routines read
type TensorSpace struct {
	splines   []*Spline1D
	quadOrder []int
	nderiv    int
	vs        *VectorSpace

	spans   []*runner.Tensor // (ne)
	points  []*runner.Tensor // (ne, k)
	weights []*runner.Tensor // (ne, k)
	basis   []*runner.Tensor // (ne, p+1, nderiv+1, k)
}

// NewTensorSpace builds the space of the given degree and number of elements
// per axis. quadOrder is the number of Gauss points per element and axis; it
// defaults to degree+1 when nil. Basis tables hold derivatives up to nderiv.
func NewTensorSpace(degrees, elements, quadOrder []int, nderiv int) (*TensorSpace, error) {
	dim := len(degrees)
	switch {
	case dim < 1 || dim > 3:
		return nil, fmt.Errorf("dimension %d not supported", dim)
	case len(elements) != dim:
		return nil, fmt.Errorf("%d degrees for %d element counts", dim, len(elements))
	case quadOrder != nil && len(quadOrder) != dim:
		return nil, fmt.Errorf("%d degrees for %d quadrature orders", dim, len(quadOrder))
	case nderiv < 0:
		return nil, fmt.Errorf("negative derivative order %d", nderiv)
	}
	ts := &TensorSpace{nderiv: nderiv, vs: &VectorSpace{}}
	for i := 0; i < dim; i++ {
		s, err := NewSpline1D(degrees[i], elements[i])
		if err != nil {
			return nil, fmt.Errorf("axis %d: %w", i, err)
		}
		k := degrees[i] + 1
		if quadOrder != nil {
			k = quadOrder[i]
		}
		if k < 1 {
			return nil, fmt.Errorf("axis %d: quadrature order %d", i, k)
		}
		ts.splines = append(ts.splines, s)
		ts.quadOrder = append(ts.quadOrder, k)
		ts.vs.npts = append(ts.vs.npts, s.NBasis())
		ts.vs.pads = append(ts.vs.pads, s.Degree)
		ts.vs.starts = append(ts.vs.starts, 0)
		ts.vs.ends = append(ts.vs.ends, s.NBasis()-1)
		ts.tabulate(s, k)
	}
	return ts, nil
}

// tabulate appends the quadrature and basis tables of one axis
func (ts *TensorSpace) tabulate(s *Spline1D, k int) {
	p, ne := s.Degree, s.Elements
	pts, wts := ElementQuadrature(Breakpoints(s.Knots), k)
	spans := runner.NewTensor(ne)
	points := runner.NewTensor(ne, k)
	weights := runner.NewTensor(ne, k)
	basis := runner.NewTensor(ne, p+1, ts.nderiv+1, k)
	for e := 0; e < ne; e++ {
		span := e + p
		spans.Set(float64(span), e)
		for g := 0; g < k; g++ {
			x := pts.At(e, g)
			points.Set(x, e, g)
			weights.Set(wts.At(e, g), e, g)
			ders := BasisFunsDers(s.Knots, p, x, span, ts.nderiv)
			for d := range ders {
				for j, v := range ders[d] {
					basis.Set(v, e, j, d, g)
				}
			}
		}
	}
	ts.spans = append(ts.spans, spans)
	ts.points = append(ts.points, points)
	ts.weights = append(ts.weights, weights)
	ts.basis = append(ts.basis, basis)
}

func (ts *TensorSpace) Dim() int { return len(ts.splines) }

func (ts *TensorSpace) Degrees() []int {
	out := make([]int, len(ts.splines))
	for i, s := range ts.splines {
		out[i] = s.Degree
	}
	return out
}

func (ts *TensorSpace) Elements() []int {
	out := make([]int, len(ts.splines))
	for i, s := range ts.splines {
		out[i] = s.Elements
	}
	return out
}

func (ts *TensorSpace) Splines() []*Spline1D { return append([]*Spline1D(nil), ts.splines...) }

func (ts *TensorSpace) VectorSpace() *VectorSpace { return ts.vs }

func (ts *TensorSpace) Attr(name string) (runner.Value, error) {
	switch name {
	case "vector_space":
		return ts.vs, nil
	case "spans":
		return tensors(ts.spans), nil
	case "quad_order":
		return tuple(ts.quadOrder), nil
	case "quad_points":
		return tensors(ts.points), nil
	case "quad_weights":
		return tensors(ts.weights), nil
	case "quad_basis":
		return tensors(ts.basis), nil
	case "degree":
		return tuple(ts.Degrees()), nil
	case "nderiv":
		return float64(ts.nderiv), nil
	}
	return nil, fmt.Errorf("tensor space has no attribute %s", name)
}

func tensors(ts []*runner.Tensor) []runner.Value {
	out := make([]runner.Value, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}

// Restrict returns a view of the space owning only the elements
// elemStarts..elemEnds (inclusive) of every axis. Tables and the global
// coefficient size are shared with ts.
func (ts *TensorSpace) Restrict(elemStarts, elemEnds []int) (*TensorSpace, error) {
	dim := ts.Dim()
	if len(elemStarts) != dim || len(elemEnds) != dim {
		return nil, fmt.Errorf("expecting %d element bounds", dim)
	}
	vs := &VectorSpace{
		npts:   ts.vs.npts,
		pads:   ts.vs.pads,
		starts: make([]int, dim),
		ends:   make([]int, dim),
	}
	for i, s := range ts.splines {
		es, ee := elemStarts[i], elemEnds[i]
		if es < 0 || ee >= s.Elements || es > ee {
			return nil, fmt.Errorf("axis %d: element range [%d, %d] outside [0, %d)", i, es, ee, s.Elements)
		}
		vs.starts[i] = es
		vs.ends[i] = ee + s.Degree
	}
	out := *ts
	out.vs = vs
	return &out, nil
}
