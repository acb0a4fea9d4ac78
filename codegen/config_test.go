package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Full", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader(`
name: mass
target: Gamma
boundary:
  - axis: 0
    ext: -1
boundary_basis: false
debug: true
detailed: true
`))
		require.NoError(t, err)
		assert.Equal(t, "mass", cfg.Name)
		assert.Equal(t, "Gamma", cfg.Target)
		assert.Equal(t, Boundary{{Axis: 0, Ext: -1}}, cfg.Boundary)
		require.NotNil(t, cfg.BoundaryBasis)
		assert.False(t, *cfg.BoundaryBasis)
		assert.True(t, cfg.Debug)
		assert.True(t, cfg.Detailed)
	})

	t.Run("Empty", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, Config{}, cfg)
		assert.True(t, boolOr(cfg.BoundaryBasis, true))
	})

	t.Run("UnknownField", func(t *testing.T) {
		_, err := LoadConfig(strings.NewReader("boundry: []\n"))
		assert.Error(t, err)
	})
}

func TestBoundaryValidate(t *testing.T) {
	tests := []struct {
		name     string
		boundary Boundary
		ok       bool
	}{
		{"Empty", nil, true},
		{"OneFace", Boundary{{Axis: 1, Ext: 1}}, true},
		{"TwoAxes", Boundary{{Axis: 0, Ext: -1}, {Axis: 1, Ext: 1}}, true},
		{"BadExt", Boundary{{Axis: 0, Ext: 0}}, false},
		{"AxisOutOfRange", Boundary{{Axis: 2, Ext: 1}}, false},
		{"RepeatedAxis", Boundary{{Axis: 0, Ext: 1}, {Axis: 0, Ext: -1}}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.boundary.Validate(2)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsConfigurationError(err))
		})
	}
	assert.Equal(t, "[(0,-1) (1,+1)]", Boundary{{Axis: 0, Ext: -1}, {Axis: 1, Ext: 1}}.String())
}

func TestTag(t *testing.T) {
	a := Tag("bilinear|domain|[]")
	assert.Len(t, a, 8)
	assert.Equal(t, a, Tag("bilinear|domain|[]"))
	assert.NotEqual(t, a, Tag("bilinear|Gamma|[(0,-1)]"))

	assert.Equal(t, "kernel_"+a, Config{}.routineName("kernel", a))
	assert.Equal(t, "mass", Config{Name: "mass"}.routineName("kernel", a))
}

func TestErrorKinds(t *testing.T) {
	err := configErr("kernel", "bad %s", "input")
	assert.True(t, IsConfigurationError(err))
	assert.False(t, IsUnsupportedFeature(err))
	assert.Equal(t, "CONFIGURATION: kernel: bad input", err.Error())

	cause := errors.New("duplicate parameter")
	wrapped := wrapConfig("assembly", cause)
	assert.True(t, IsConfigurationError(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Same(t, err, wrapConfig("other", err))

	assert.True(t, IsUnsupportedFeature(unsupported("eval_mapping", "order %d", 3)))
}
