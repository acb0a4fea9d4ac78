package space

import "fmt"

// Partition is one block of a Cartesian element decomposition
type Partition struct {
	// ID is the row-major position of the block in the process grid
	ID int
	// Coords is the block position along every axis
	Coords []int
	// ElemStarts and ElemEnds bound the owned elements, inclusive
	ElemStarts, ElemEnds []int
	// Space is the restriction of the decomposed space to the block
	Space *TensorSpace
}

// NumElements is the number of elements the partition owns
func (p *Partition) NumElements() int {
	n := 1
	for i := range p.ElemStarts {
		n *= p.ElemEnds[i] - p.ElemStarts[i] + 1
	}
	return n
}

// PartitionLayout splits the elements of a tensor space over a process grid
type PartitionLayout struct {
	Grid       []int
	Partitions []*Partition

	// EToP maps an element index along each axis to its block coordinate
	EToP [][]int
}

// NewPartitionLayout splits every axis of ts into grid[i] contiguous element
// ranges whose sizes differ by at most one
func NewPartitionLayout(ts *TensorSpace, grid []int) (*PartitionLayout, error) {
	dim := ts.Dim()
	if len(grid) != dim {
		return nil, fmt.Errorf("process grid %v for a %d dimensional space", grid, dim)
	}
	elements := ts.Elements()
	pl := &PartitionLayout{Grid: append([]int(nil), grid...), EToP: make([][]int, dim)}
	starts := make([][]int, dim)
	for i, np := range grid {
		if np < 1 || np > elements[i] {
			return nil, fmt.Errorf("axis %d: cannot split %d elements into %d parts", i, elements[i], np)
		}
		base, extra := elements[i]/np, elements[i]%np
		pl.EToP[i] = make([]int, elements[i])
		starts[i] = make([]int, np+1)
		for b := 0; b < np; b++ {
			size := base
			if b < extra {
				size++
			}
			starts[i][b+1] = starts[i][b] + size
			for e := starts[i][b]; e < starts[i][b+1]; e++ {
				pl.EToP[i][e] = b
			}
		}
	}

	var err error
	eachIndex(grid, func(coords []int) {
		if err != nil {
			return
		}
		p := &Partition{
			ID:         len(pl.Partitions),
			Coords:     append([]int(nil), coords...),
			ElemStarts: make([]int, dim),
			ElemEnds:   make([]int, dim),
		}
		for i, c := range coords {
			p.ElemStarts[i] = starts[i][c]
			p.ElemEnds[i] = starts[i][c+1] - 1
		}
		if p.Space, err = ts.Restrict(p.ElemStarts, p.ElemEnds); err != nil {
			return
		}
		pl.Partitions = append(pl.Partitions, p)
	})
	if err != nil {
		return nil, err
	}
	return pl, nil
}

// GetPartition returns the partition owning the element with the given index
// along every axis, or -1 when the index is outside the mesh
func (pl *PartitionLayout) GetPartition(elem ...int) int {
	if len(elem) != len(pl.Grid) {
		return -1
	}
	id := 0
	for i, e := range elem {
		if e < 0 || e >= len(pl.EToP[i]) {
			return -1
		}
		id = id*pl.Grid[i] + pl.EToP[i][e]
	}
	return id
}

// ValidateLayout checks that the partitions tile the element grid exactly
func (pl *PartitionLayout) ValidateLayout() error {
	total, owned := 1, 0
	for _, e := range pl.EToP {
		total *= len(e)
	}
	for _, p := range pl.Partitions {
		owned += p.NumElements()
		if pl.GetPartition(p.ElemStarts...) != p.ID || pl.GetPartition(p.ElemEnds...) != p.ID {
			return fmt.Errorf("partition %d: bounds %v..%v owned by another partition", p.ID, p.ElemStarts, p.ElemEnds)
		}
	}
	if owned != total {
		return fmt.Errorf("partitions own %d of %d elements", owned, total)
	}
	return nil
}
