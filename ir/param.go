package ir

import (
	"fmt"

	"github.com/notargets/SplKernel/symbolic"
)

// ParamBuilder provides a fluent interface for building routine parameters
type ParamBuilder struct {
	Spec Param
}

// Param is a parameter of a generated routine. The type metadata is part of
// the parameter itself, populated once when the routine is built.
type Param struct {
	Name      string
	Direction Direction
	DataType  DataType
	Rank      int // 0 for scalars

	// Optional parameters default to nil when the caller omits them
	Optional bool
}

// Input creates a read-only parameter
func Input(name string) *ParamBuilder {
	return &ParamBuilder{
		Spec: Param{
			Name:      name,
			Direction: DirectionInput,
			DataType:  Real,
		},
	}
}

// Output creates a parameter the routine writes into
func Output(name string) *ParamBuilder {
	return &ParamBuilder{
		Spec: Param{
			Name:      name,
			Direction: DirectionOutput,
			DataType:  Real,
		},
	}
}

// InOut creates a parameter the routine reads and updates
func InOut(name string) *ParamBuilder {
	return &ParamBuilder{
		Spec: Param{
			Name:      name,
			Direction: DirectionInOut,
			DataType:  Real,
		},
	}
}

// Type sets the element type
func (p *ParamBuilder) Type(dataType DataType) *ParamBuilder {
	p.Spec.DataType = dataType
	return p
}

// Rank sets the array rank; 0 is a scalar
func (p *ParamBuilder) Rank(rank int) *ParamBuilder {
	p.Spec.Rank = rank
	return p
}

// Optional marks the parameter as defaulting to nil
func (p *ParamBuilder) Optional() *ParamBuilder {
	p.Spec.Optional = true
	return p
}

// Validate checks if the parameter specification is complete and valid
func (p *Param) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("parameter name cannot be empty")
	}
	if p.DataType < Int || p.DataType > Object {
		return fmt.Errorf("parameter %s has no data type", p.Name)
	}
	if p.Rank < 0 {
		return fmt.Errorf("parameter %s has negative rank %d", p.Name, p.Rank)
	}
	if p.DataType == Object && p.Rank != 0 {
		return fmt.Errorf("object parameter %s cannot have a rank", p.Name)
	}
	if p.Rank == 0 && p.DataType != Object && p.Direction != DirectionInput {
		return fmt.Errorf("scalar %s can only be an input", p.Name)
	}
	return nil
}

// IsConst returns whether this parameter is read-only in the routine
func (p *Param) IsConst() bool {
	return p.Direction == DirectionInput
}

// Symbol returns the symbol generated code uses to refer to the parameter
func (p *Param) Symbol() *symbolic.Symbol {
	return symbolic.Sym(p.Name)
}

// Ints returns scalar int inputs for each symbol
func Ints(syms []*symbolic.Symbol) []*ParamBuilder {
	out := make([]*ParamBuilder, len(syms))
	for i, s := range syms {
		out[i] = Input(s.Name).Type(Int)
	}
	return out
}

// Arrays returns real arrays of the given rank and direction for each symbol
func Arrays(dir Direction, rank int, syms []*symbolic.Symbol) []*ParamBuilder {
	out := make([]*ParamBuilder, len(syms))
	for i, s := range syms {
		var p *ParamBuilder
		switch dir {
		case DirectionOutput:
			p = Output(s.Name)
		case DirectionInOut:
			p = InOut(s.Name)
		default:
			p = Input(s.Name)
		}
		out[i] = p.Rank(rank)
	}
	return out
}
