package space

import (
	"fmt"

	"github.com/notargets/SplKernel/runner"
)

// Field is a spline function of a tensor space. Its coefficients are stored
// padded by the degree on both sides of every axis, the layout generated
// assembly code slices element windows from.
type Field struct {
	Name   string
	Space  *TensorSpace
	coeffs *runner.Tensor
}

// NewField returns the zero field of space
func NewField(name string, space *TensorSpace) *Field {
	npts, pads := space.vs.npts, space.vs.pads
	shape := make([]int, len(npts))
	for i := range npts {
		shape[i] = npts[i] + 2*pads[i]
	}
	return &Field{Name: name, Space: space, coeffs: runner.NewTensor(shape...)}
}

// NewConstantField returns the field equal to c everywhere
func NewConstantField(name string, space *TensorSpace, c float64) *Field {
	f := NewField(name, space)
	f.Interpolate(func(_ []float64) float64 { return c })
	return f
}

func (f *Field) Coeffs() *runner.Tensor { return f.coeffs }

func (f *Field) Attr(name string) (runner.Value, error) {
	switch name {
	case "coeffs":
		return f.coeffs, nil
	case "space":
		return f.Space, nil
	}
	return nil, fmt.Errorf("field %s has no attribute %s", f.Name, name)
}

// Set assigns the coefficient with global index idx
func (f *Field) Set(v float64, idx ...int) {
	f.coeffs.Set(v, f.padded(idx)...)
}

// At returns the coefficient with global index idx
func (f *Field) At(idx ...int) float64 {
	return f.coeffs.At(f.padded(idx)...)
}

func (f *Field) padded(idx []int) []int {
	out := make([]int, len(idx))
	for i := range idx {
		out[i] = idx[i] + f.Space.vs.pads[i]
	}
	return out
}

// Interpolate sets every coefficient to fn at its Greville point. The
// result reproduces affine functions exactly.
func (f *Field) Interpolate(fn func(x []float64) float64) {
	grev := make([][]float64, f.Space.Dim())
	for i, s := range f.Space.splines {
		grev[i] = Greville(s.Knots, s.Degree)
	}
	x := make([]float64, len(grev))
	eachIndex(f.Space.vs.npts, func(idx []int) {
		for i, j := range idx {
			x[i] = grev[i][j]
		}
		f.Set(fn(x), idx...)
	})
}

// Eval evaluates the field at a point of the unit cube
func (f *Field) Eval(x ...float64) float64 {
	dim := f.Space.Dim()
	spans := make([]int, dim)
	basis := make([][]float64, dim)
	width := make([]int, dim)
	for i, s := range f.Space.splines {
		spans[i] = FindSpan(s.Knots, s.Degree, x[i])
		basis[i] = BasisFunsDers(s.Knots, s.Degree, x[i], spans[i], 0)[0]
		width[i] = s.Degree + 1
	}
	v := 0.0
	idx := make([]int, dim)
	eachIndex(width, func(loc []int) {
		w := 1.0
		for i, j := range loc {
			w *= basis[i][j]
			idx[i] = spans[i] - f.Space.splines[i].Degree + j
		}
		v += w * f.At(idx...)
	})
	return v
}

// Mapping is a spline map of the unit cube, one field per physical
// coordinate
type Mapping struct {
	Name   string
	fields []*Field
}

// NewMapping builds a mapping from its coordinate fields, which must all
// live on the same space
func NewMapping(name string, fields ...*Field) (*Mapping, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("mapping %s has no fields", name)
	}
	for _, f := range fields[1:] {
		if f.Space != fields[0].Space {
			return nil, fmt.Errorf("mapping %s: field %s is on another space", name, f.Name)
		}
	}
	if len(fields) != fields[0].Space.Dim() {
		return nil, fmt.Errorf("mapping %s: %d fields for dimension %d", name, len(fields), fields[0].Space.Dim())
	}
	return &Mapping{Name: name, fields: append([]*Field(nil), fields...)}, nil
}

// NewAffineMapping builds x = A u + b on space
func NewAffineMapping(name string, space *TensorSpace, a [][]float64, b []float64) (*Mapping, error) {
	dim := space.Dim()
	if len(a) != dim || len(b) != dim {
		return nil, fmt.Errorf("mapping %s: expecting a %dx%d matrix and %d offsets", name, dim, dim, dim)
	}
	fields := make([]*Field, dim)
	for i := range fields {
		if len(a[i]) != dim {
			return nil, fmt.Errorf("mapping %s: row %d has %d entries", name, i, len(a[i]))
		}
		row, off := a[i], b[i]
		fields[i] = NewField(fmt.Sprintf("%s_%d", name, i), space)
		fields[i].Interpolate(func(u []float64) float64 {
			v := off
			for j := range u {
				v += row[j] * u[j]
			}
			return v
		})
	}
	return NewMapping(name, fields...)
}

// NewIdentityMapping builds the mapping x = u on space
func NewIdentityMapping(name string, space *TensorSpace) (*Mapping, error) {
	dim := space.Dim()
	a := make([][]float64, dim)
	for i := range a {
		a[i] = make([]float64, dim)
		a[i][i] = 1
	}
	return NewAffineMapping(name, space, a, make([]float64, dim))
}

func (m *Mapping) Fields() []*Field { return append([]*Field(nil), m.fields...) }

func (m *Mapping) Attr(name string) (runner.Value, error) {
	if name == "fields" {
		out := make([]runner.Value, len(m.fields))
		for i, f := range m.fields {
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("mapping %s has no attribute %s", m.Name, name)
}

// eachIndex visits every multi-index of shape in row-major order
func eachIndex(shape []int, fn func(idx []int)) {
	for _, n := range shape {
		if n == 0 {
			return
		}
	}
	idx := make([]int, len(shape))
	for {
		fn(idx)
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < shape[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return
		}
	}
}
