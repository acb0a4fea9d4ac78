package runner

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Value is anything a routine variable can hold: a float64 scalar, a
// *Tensor, a tuple ([]Value), an Object, or nil for the null sentinel
type Value interface{}

// Object is a runtime handle generated code reads attributes from
type Object interface {
	Attr(name string) (Value, error)
}

// VectorSpace is the distributed coefficient layout stencil storage is
// allocated for
type VectorSpace interface {
	Object
	// Npts is the number of coefficients along each axis
	Npts() []int
	// Pads is the ghost width along each axis, the spline degree
	Pads() []int
}

func missingAttr(owner, name string) error {
	return fmt.Errorf("%s has no attribute %s", owner, name)
}

// StencilVector stores a coefficient vector padded by Pads on both sides of
// every axis
type StencilVector struct {
	Space VectorSpace
	data  *Tensor
}

func NewStencilVector(space VectorSpace) *StencilVector {
	npts, pads := space.Npts(), space.Pads()
	shape := make([]int, len(npts))
	for i := range npts {
		shape[i] = npts[i] + 2*pads[i]
	}
	return &StencilVector{Space: space, data: NewTensor(shape...)}
}

func (v *StencilVector) Data() *Tensor { return v.data }

func (v *StencilVector) Attr(name string) (Value, error) {
	switch name {
	case "data":
		return v.data, nil
	case "space":
		return v.Space, nil
	}
	return nil, missingAttr("StencilVector", name)
}

// At returns the coefficient with global index idx
func (v *StencilVector) At(idx ...int) float64 {
	pads := v.Space.Pads()
	p := make([]int, len(idx))
	for i := range idx {
		p[i] = idx[i] + pads[i]
	}
	return v.data.At(p...)
}

// ToVec returns the unpadded coefficients, flattened row-major
func (v *StencilVector) ToVec() *mat.VecDense {
	npts := v.Space.Npts()
	out := make([]float64, 0, prod(npts))
	forEachIndex(npts, func(idx []int) {
		out = append(out, v.At(idx...))
	})
	return mat.NewVecDense(len(out), out)
}

// StencilMatrix stores a banded operator: row i holds the entries of the
// columns i-p .. i+p at offsets 0 .. 2p along every axis
type StencilMatrix struct {
	Domain, Codomain VectorSpace
	data             *Tensor
}

// NewStencilMatrix allocates the operator mapping domain onto codomain
func NewStencilMatrix(codomain, domain VectorSpace) *StencilMatrix {
	npts, pads := codomain.Npts(), codomain.Pads()
	shape := append([]int(nil), npts...)
	for _, p := range pads {
		shape = append(shape, 2*p+1)
	}
	return &StencilMatrix{Domain: domain, Codomain: codomain, data: NewTensor(shape...)}
}

func (m *StencilMatrix) Data() *Tensor { return m.data }

func (m *StencilMatrix) Attr(name string) (Value, error) {
	switch name {
	case "data":
		return m.data, nil
	case "domain":
		return m.Domain, nil
	case "codomain":
		return m.Codomain, nil
	}
	return nil, missingAttr("StencilMatrix", name)
}

// ToDense expands the stencil into a dense matrix over the flattened
// row-major indices
func (m *StencilMatrix) ToDense() *mat.Dense {
	rows, cols := m.Codomain.Npts(), m.Domain.Npts()
	pads := m.Codomain.Pads()
	dim := len(rows)
	out := mat.NewDense(prod(rows), prod(cols), nil)
	width := make([]int, dim)
	for i, p := range pads {
		width[i] = 2*p + 1
	}
	forEachIndex(rows, func(row []int) {
		forEachIndex(width, func(off []int) {
			col := make([]int, dim)
			for i := range off {
				col[i] = row[i] + off[i] - pads[i]
				if col[i] < 0 || col[i] >= cols[i] {
					return
				}
			}
			out.Set(flat(row, rows), flat(col, cols), m.data.At(append(append([]int(nil), row...), off...)...))
		})
	})
	return out
}

// BlockVector is a column of stencil vectors
type BlockVector struct {
	Blocks []Value
}

func (b *BlockVector) Attr(name string) (Value, error) {
	if name == "blocks" {
		return b.Blocks, nil
	}
	return nil, missingAttr("BlockVector", name)
}

// BlockMatrix is a Rows x Cols arrangement of stencil matrices, row-major
type BlockMatrix struct {
	Rows, Cols int
	Blocks     []Value
}

func (b *BlockMatrix) At(i, j int) Value { return b.Blocks[i*b.Cols+j] }

func (b *BlockMatrix) Attr(name string) (Value, error) {
	switch name {
	case "blocks":
		return b.Blocks, nil
	case "rows":
		return float64(b.Rows), nil
	case "cols":
		return float64(b.Cols), nil
	}
	return nil, missingAttr("BlockMatrix", name)
}

func prod(n []int) int {
	p := 1
	for _, v := range n {
		p *= v
	}
	return p
}

func flat(idx, shape []int) int {
	f := 0
	for i := range idx {
		f = f*shape[i] + idx[i]
	}
	return f
}

// forEachIndex visits every multi-index of shape in row-major order
func forEachIndex(shape []int, fn func(idx []int)) {
	if prod(shape) == 0 {
		return
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
