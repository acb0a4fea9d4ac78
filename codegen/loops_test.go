package codegen

import (
	"testing"

	"github.com/notargets/SplKernel/ir"
	"github.com/notargets/SplKernel/symbolic"
	"github.com/notargets/SplKernel/weakform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestrictLoops(t *testing.T) {
	idx := symbolic.Symbols("i", 2)
	ns := symbolic.Symbols("n", 2)
	ranges := []Range{Upto(ns[0]), Upto(ns[1])}
	body := []ir.Stmt{&ir.Comment{Text: "body"}}

	t.Run("Interior", func(t *testing.T) {
		out, err := RestrictLoops(idx, ranges, body, nil)
		require.NoError(t, err)
		nest := ir.Loops(out[0])
		require.Len(t, nest, 2)
		assert.Equal(t, "i1", nest[0].Index.Name)
		assert.Equal(t, "n1", nest[0].End.String())
		assert.Equal(t, "i2", nest[1].Index.Name)
		assert.Equal(t, body, nest[1].Body)
	})

	t.Run("LastLayer", func(t *testing.T) {
		out, err := RestrictLoops(idx, ranges, body, Boundary{{Axis: 1, Ext: 1}})
		require.NoError(t, err)
		nest := ir.Loops(out[0])
		assert.Equal(t, "0", nest[0].Start.String())
		assert.Equal(t, "n1", nest[0].End.String())
		assert.Equal(t, "(n2 + -1)", nest[1].Start.String())
		assert.Equal(t, "n2", nest[1].End.String())
	})

	t.Run("FirstLayer", func(t *testing.T) {
		out, err := RestrictLoops(idx, ranges, body, Boundary{{Axis: 0, Ext: -1}})
		require.NoError(t, err)
		nest := ir.Loops(out[0])
		assert.Equal(t, "0", nest[0].Start.String())
		assert.Equal(t, "1", nest[0].End.String())
		assert.Equal(t, "n2", nest[1].End.String())
	})

	t.Run("BadExtension", func(t *testing.T) {
		_, err := RestrictLoops(idx, ranges, body, Boundary{{Axis: 0, Ext: 2}})
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		_, err := RestrictLoops(idx[:1], ranges, body, nil)
		assert.True(t, IsConfigurationError(err))
	})
}

func TestRestrictProduct(t *testing.T) {
	g := symbolic.Symbols("g", 3)
	w := symbolic.Symbols("w", 3)
	assert.Equal(t, "(w1[g1]*w2[g2]*w3[g3])", RestrictProduct(g, w, nil).String())
	assert.Equal(t, "(w1[g1]*w3[g3])", RestrictProduct(g, w, Boundary{{Axis: 1, Ext: -1}}).String())
	assert.Equal(t, "w3[g3]", RestrictProduct(g, w, Boundary{{Axis: 0, Ext: 1}, {Axis: 1, Ext: -1}}).String())
	assert.Equal(t, "1", RestrictProduct(g[:1], w[:1], Boundary{{Axis: 0, Ext: 1}}).String())
}

func assigned(t *testing.T, stmts []ir.Stmt) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, s := range stmts {
		a, ok := s.(*ir.Assign)
		require.True(t, ok)
		out[a.LHS.String()] = a.RHS.String()
	}
	return out
}

func TestNormalVector(t *testing.T) {
	vec := symbolic.Symbols("normal_", 2)

	t.Run("Unmapped", func(t *testing.T) {
		tests := []struct {
			face Face
			want map[string]string
		}{
			{Face{Axis: 0, Ext: -1}, map[string]string{"normal_1": "-1", "normal_2": "0"}},
			{Face{Axis: 0, Ext: 1}, map[string]string{"normal_1": "1", "normal_2": "0"}},
			{Face{Axis: 1, Ext: 1}, map[string]string{"normal_1": "0", "normal_2": "1"}},
		}
		for _, tc := range tests {
			stmts, err := NormalVector(vec, Boundary{tc.face}, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, assigned(t, stmts))
		}
	})

	t.Run("Mapped", func(t *testing.T) {
		m := weakform.NewMapping("M", 2)
		stmts, err := NormalVector(vec, Boundary{{Axis: 0, Ext: -1}}, m)
		require.NoError(t, err)
		got := assigned(t, stmts)
		assert.Equal(t, "pow(pow((pow(x_x2, 2) + pow(y_x2, 2)), 0.5), -1)", got["inv_surf_jac"])
		assert.Equal(t, "(-1*y_x2*inv_surf_jac)", got["normal_1"])
		assert.Equal(t, "(x_x2*inv_surf_jac)", got["normal_2"])

		stmts, err = NormalVector(vec, Boundary{{Axis: 1, Ext: -1}}, m)
		require.NoError(t, err)
		got = assigned(t, stmts)
		assert.Equal(t, "(y_x1*inv_surf_jac)", got["normal_1"])
		assert.Equal(t, "(-1*x_x1*inv_surf_jac)", got["normal_2"])
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := NormalVector(vec, nil, nil)
		assert.True(t, IsConfigurationError(err))
		_, err = NormalVector(vec, Boundary{{Axis: 0, Ext: 1}, {Axis: 1, Ext: 1}}, nil)
		assert.True(t, IsUnsupportedFeature(err))
		_, err = NormalVector(symbolic.Symbols("normal_", 3), Boundary{{Axis: 0, Ext: 1}}, nil)
		assert.True(t, IsUnsupportedFeature(err))
		_, err = NormalVector(symbolic.Symbols("normal_", 1), Boundary{{Axis: 0, Ext: 1}}, nil)
		assert.True(t, IsUnsupportedFeature(err))
		_, err = NormalVector(vec, Boundary{{Axis: 0, Ext: 3}}, nil)
		assert.True(t, IsConfigurationError(err))
	})
}

func TestTangentVector(t *testing.T) {
	for dim := 1; dim <= 3; dim++ {
		_, err := TangentVector(symbolic.Symbols("tangent_", dim), Boundary{{Axis: 0, Ext: 1}}, nil)
		assert.True(t, IsUnsupportedFeature(err))
	}
}
