package runner

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Tensor is a strided view of row-major float64 storage. Views created with
// Slice share storage with the tensor they were taken from, so writes
// through a view are visible to its parent.
type Tensor struct {
	data    []float64
	shape   []int
	strides []int
	offset  int
}

// NewTensor allocates a zero-filled tensor
func NewTensor(shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		if s < 0 {
			panic(fmt.Sprintf("negative extent in shape %v", shape))
		}
		n *= s
	}
	return FromSlice(make([]float64, n), shape...)
}

// FromSlice wraps data, which must hold exactly prod(shape) values
func FromSlice(data []float64, shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if len(data) != n {
		panic(fmt.Sprintf("shape %v needs %d values, got %d", shape, n, len(data)))
	}
	return &Tensor{
		data:    data,
		shape:   append([]int(nil), shape...),
		strides: rowMajor(shape),
	}
}

func rowMajor(shape []int) []int {
	strides := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = s
		s *= shape[i]
	}
	return strides
}

func (t *Tensor) Shape() []int { return append([]int(nil), t.shape...) }

func (t *Tensor) Rank() int { return len(t.shape) }

// Size returns the number of elements in the view
func (t *Tensor) Size() int {
	n := 1
	for _, s := range t.shape {
		n *= s
	}
	return n
}

func (t *Tensor) pos(idx []int) (int, error) {
	if len(idx) != len(t.shape) {
		return 0, fmt.Errorf("rank %d tensor indexed with %d indices", len(t.shape), len(idx))
	}
	p := t.offset
	for i, x := range idx {
		if x < 0 || x >= t.shape[i] {
			return 0, fmt.Errorf("index %d out of range [0, %d) on axis %d", x, t.shape[i], i)
		}
		p += x * t.strides[i]
	}
	return p, nil
}

// At returns one element; it panics on a bad index
func (t *Tensor) At(idx ...int) float64 {
	p, err := t.pos(idx)
	if err != nil {
		panic(err)
	}
	return t.data[p]
}

// Set writes one element; it panics on a bad index
func (t *Tensor) Set(v float64, idx ...int) {
	p, err := t.pos(idx)
	if err != nil {
		panic(err)
	}
	t.data[p] = v
}

// Selector picks a single index (reducing the rank) or the half-open range
// [Lo, Hi) along one axis
type Selector struct {
	Scalar bool
	Index  int
	Lo, Hi int
}

// Slice returns the view selected by one selector per axis
func (t *Tensor) Slice(sel []Selector) (*Tensor, error) {
	if len(sel) != len(t.shape) {
		return nil, fmt.Errorf("rank %d tensor indexed with %d selectors", len(t.shape), len(sel))
	}
	v := &Tensor{data: t.data, offset: t.offset}
	for i, s := range sel {
		if s.Scalar {
			if s.Index < 0 || s.Index >= t.shape[i] {
				return nil, fmt.Errorf("index %d out of range [0, %d) on axis %d", s.Index, t.shape[i], i)
			}
			v.offset += s.Index * t.strides[i]
			continue
		}
		if s.Lo < 0 || s.Hi > t.shape[i] || s.Lo > s.Hi {
			return nil, fmt.Errorf("slice [%d, %d) out of range [0, %d) on axis %d", s.Lo, s.Hi, t.shape[i], i)
		}
		v.offset += s.Lo * t.strides[i]
		v.shape = append(v.shape, s.Hi-s.Lo)
		v.strides = append(v.strides, t.strides[i])
	}
	return v, nil
}

// each calls fn with the storage position of every element in row-major
// order
func (t *Tensor) each(fn func(k, p int)) {
	n := t.Size()
	if n == 0 {
		return
	}
	idx := make([]int, len(t.shape))
	for k := 0; k < n; k++ {
		p := t.offset
		for i, x := range idx {
			p += x * t.strides[i]
		}
		fn(k, p)
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < t.shape[i] {
				break
			}
			idx[i] = 0
		}
	}
}

// Fill sets every element of the view
func (t *Tensor) Fill(v float64) {
	t.each(func(_, p int) { t.data[p] = v })
}

// AddScalar adds v to every element of the view
func (t *Tensor) AddScalar(v float64) {
	t.each(func(_, p int) { t.data[p] += v })
}

func (t *Tensor) sameShape(o *Tensor) error {
	if len(t.shape) != len(o.shape) {
		return fmt.Errorf("shape mismatch %v and %v", t.shape, o.shape)
	}
	for i := range t.shape {
		if t.shape[i] != o.shape[i] {
			return fmt.Errorf("shape mismatch %v and %v", t.shape, o.shape)
		}
	}
	return nil
}

// CopyFrom copies o element-wise into the view
func (t *Tensor) CopyFrom(o *Tensor) error {
	if err := t.sameShape(o); err != nil {
		return err
	}
	src := o.Values()
	t.each(func(k, p int) { t.data[p] = src[k] })
	return nil
}

// Add accumulates o element-wise into the view
func (t *Tensor) Add(o *Tensor) error {
	if err := t.sameShape(o); err != nil {
		return err
	}
	src := o.Values()
	t.each(func(k, p int) { t.data[p] += src[k] })
	return nil
}

// Values returns a row-major copy of the view
func (t *Tensor) Values() []float64 {
	out := make([]float64, t.Size())
	t.each(func(k, p int) { out[k] = t.data[p] })
	return out
}

// Clone returns a contiguous copy
func (t *Tensor) Clone() *Tensor {
	return FromSlice(t.Values(), t.shape...)
}

// Sum returns the sum of every element of the view
func (t *Tensor) Sum() float64 {
	return floats.Sum(t.Values())
}

// EqualApprox reports element-wise equality within tol
func (t *Tensor) EqualApprox(o *Tensor, tol float64) bool {
	if t.sameShape(o) != nil {
		return false
	}
	return floats.EqualApprox(t.Values(), o.Values(), tol)
}

func (t *Tensor) String() string {
	vals := t.Values()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return fmt.Sprintf("Tensor%v[%s]", t.shape, strings.Join(parts, " "))
}
