package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTensor_Basics(t *testing.T) {
	a := NewTensor(2, 3)
	assert.Equal(t, []int{2, 3}, a.Shape())
	assert.Equal(t, 2, a.Rank())
	assert.Equal(t, 6, a.Size())

	a.Set(4, 1, 2)
	assert.Equal(t, 4.0, a.At(1, 2))
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 4}, a.Values())

	assert.Panics(t, func() { a.At(2, 0) })
	assert.Panics(t, func() { FromSlice([]float64{1, 2, 3}, 2, 2) })
	assert.Panics(t, func() { NewTensor(-1) })
}

func TestTensor_Views(t *testing.T) {
	a := FromSlice([]float64{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
	}, 3, 4)

	t.Run("Row", func(t *testing.T) {
		row, err := a.Slice([]Selector{{Scalar: true, Index: 1}, {Lo: 0, Hi: 4}})
		require.NoError(t, err)
		assert.Equal(t, []int{4}, row.Shape())
		assert.Equal(t, []float64{4, 5, 6, 7}, row.Values())
	})

	t.Run("Block", func(t *testing.T) {
		blk, err := a.Slice([]Selector{{Lo: 1, Hi: 3}, {Lo: 2, Hi: 4}})
		require.NoError(t, err)
		assert.Equal(t, []float64{6, 7, 10, 11}, blk.Values())
		assert.Equal(t, 34.0, blk.Sum())

		// writes through the view land in the parent
		blk.Fill(-1)
		assert.Equal(t, -1.0, a.At(2, 3))
		assert.Equal(t, 5.0, a.At(1, 1))
		blk.AddScalar(1)
		assert.Equal(t, 0.0, a.At(1, 2))
	})

	t.Run("Column", func(t *testing.T) {
		col, err := a.Slice([]Selector{{Lo: 0, Hi: 3}, {Scalar: true, Index: 1}})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 5, 9}, col.Values())
		inner, err := col.Slice([]Selector{{Scalar: true, Index: 2}})
		require.NoError(t, err)
		assert.Equal(t, 0, inner.Rank())
		assert.Equal(t, 9.0, inner.At())
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := a.Slice([]Selector{{Lo: 0, Hi: 4}, {Lo: 0, Hi: 1}})
		assert.Error(t, err)
		_, err = a.Slice([]Selector{{Scalar: true, Index: 3}, {Lo: 0, Hi: 1}})
		assert.Error(t, err)
		_, err = a.Slice([]Selector{{Lo: 0, Hi: 1}})
		assert.Error(t, err)
	})
}

func TestTensor_Arithmetic(t *testing.T) {
	a := FromSlice([]float64{1, 2, 3, 4}, 2, 2)
	b := a.Clone()
	b.Set(10, 0, 0)
	assert.Equal(t, 1.0, a.At(0, 0))

	require.NoError(t, a.Add(b))
	assert.Equal(t, []float64{11, 4, 6, 8}, a.Values())

	c := NewTensor(2, 2)
	require.NoError(t, c.CopyFrom(a))
	assert.True(t, c.EqualApprox(a, 0))
	c.Set(11+1.e-13, 0, 0)
	assert.True(t, c.EqualApprox(a, 1.e-12))
	assert.False(t, c.EqualApprox(NewTensor(4), 1))

	assert.Error(t, a.Add(NewTensor(4)))
	assert.Error(t, c.CopyFrom(NewTensor(2, 3)))
}
