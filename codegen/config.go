package codegen

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Face selects one logical face of the domain: the first layer of axis Axis
// when Ext is -1, the last one when Ext is +1
type Face struct {
	Axis int `yaml:"axis"`
	Ext  int `yaml:"ext"`
}

// Boundary is an ordered set of faces; empty means an interior kernel
type Boundary []Face

// Lookup returns the extension of axis and whether the axis is masked
func (b Boundary) Lookup(axis int) (int, bool) {
	for _, f := range b {
		if f.Axis == axis {
			return f.Ext, true
		}
	}
	return 0, false
}

// Validate checks axes and extensions against a logical dimension
func (b Boundary) Validate(dim int) error {
	seen := make(map[int]bool, len(b))
	for _, f := range b {
		if f.Ext != -1 && f.Ext != 1 {
			return configErr("boundary", "wrong value %d for ext, it should be -1 or 1", f.Ext)
		}
		if f.Axis < 0 || f.Axis >= dim {
			return configErr("boundary", "axis %d out of range for dimension %d", f.Axis, dim)
		}
		if seen[f.Axis] {
			return configErr("boundary", "axis %d listed twice", f.Axis)
		}
		seen[f.Axis] = true
	}
	return nil
}

func (b Boundary) String() string {
	parts := make([]string, len(b))
	for i, f := range b {
		parts[i] = fmt.Sprintf("(%d,%+d)", f.Axis, f.Ext)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Config holds configuration for building generated routines
type Config struct {
	// Name overrides the generated <prefix>_<tag> routine name
	Name string `yaml:"name"`

	// Target selects the term of a weak form with several terms
	Target string `yaml:"target"`

	Boundary Boundary `yaml:"boundary"`

	// BoundaryBasis restricts basis loops to the boundary layer along with
	// the quadrature loops. Defaults to true for boundary kernels.
	BoundaryBasis *bool `yaml:"boundary_basis"`

	// Debug adds shape diagnostics to Assembly; Detailed adds per-element
	// span diagnostics as well
	Debug    bool `yaml:"debug"`
	Detailed bool `yaml:"detailed"`

	Logger *slog.Logger `yaml:"-"`
}

// LoadConfig reads a YAML build configuration
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// routineName returns the configured name or prefix_tag
func (c Config) routineName(prefix, tag string) string {
	if c.Name != "" {
		return c.Name
	}
	return prefix + "_" + tag
}

// Tag derives the deterministic 8 character tag of a canonical string
func Tag(canonical string) string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(canonical))
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
