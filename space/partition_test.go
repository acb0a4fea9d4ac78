package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionLayout(t *testing.T) {
	ts, err := NewTensorSpace([]int{2, 1}, []int{5, 3}, nil, 1)
	require.NoError(t, err)

	pl, err := NewPartitionLayout(ts, []int{2, 3})
	require.NoError(t, err)
	require.Len(t, pl.Partitions, 6)
	require.NoError(t, pl.ValidateLayout())

	assert.Equal(t, [][]int{{0, 0, 0, 1, 1}, {0, 1, 2}}, pl.EToP)

	p := pl.Partitions[4]
	assert.Equal(t, []int{1, 1}, p.Coords)
	assert.Equal(t, []int{3, 1}, p.ElemStarts)
	assert.Equal(t, []int{4, 1}, p.ElemEnds)
	assert.Equal(t, 2, p.NumElements())
	assert.Equal(t, []int{3, 1}, p.Space.VectorSpace().Starts())
	assert.Equal(t, []int{6, 2}, p.Space.VectorSpace().Ends())

	tests := []struct {
		elem []int
		want int
	}{
		{[]int{0, 0}, 0},
		{[]int{2, 2}, 2},
		{[]int{3, 0}, 3},
		{[]int{4, 2}, 5},
		{[]int{5, 0}, -1},
		{[]int{0, -1}, -1},
		{[]int{0}, -1},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, pl.GetPartition(tc.elem...), "%v", tc.elem)
	}

	t.Run("Errors", func(t *testing.T) {
		for _, grid := range [][]int{{2}, {0, 1}, {6, 1}, {1, 4}} {
			_, err := NewPartitionLayout(ts, grid)
			assert.Error(t, err, "%v", grid)
		}
	})

	t.Run("Incomplete", func(t *testing.T) {
		bad := &PartitionLayout{Grid: pl.Grid, EToP: pl.EToP, Partitions: pl.Partitions[:5]}
		assert.Error(t, bad.ValidateLayout())
	})
}
