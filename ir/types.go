package ir

import (
	"github.com/notargets/SplKernel/symbolic"
)

// DataType is the element type of a routine parameter
type DataType int

const (
	Int DataType = iota + 1
	Real
	Complex
	// Object is an opaque runtime handle (a discrete space, a field, a
	// global matrix) that generated code only reads attributes of
	Object
)

// Direction indicates parameter data flow
type Direction int

const (
	DirectionInput Direction = iota
	DirectionOutput
	DirectionInOut
)

func (d Direction) String() string {
	switch d {
	case DirectionOutput:
		return "out"
	case DirectionInOut:
		return "inout"
	default:
		return "in"
	}
}

// TypeName returns the declared type name of a data type
func TypeName(dt DataType) string {
	switch dt {
	case Int:
		return "int"
	case Real:
		return "real"
	case Complex:
		return "complex"
	case Object:
		return "object"
	default:
		return "real"
	}
}

// DataTypeOf maps a constant's numeric kind to a parameter type
func DataTypeOf(kind symbolic.NumericKind) DataType {
	switch kind {
	case symbolic.Integer:
		return Int
	case symbolic.Complex:
		return Complex
	default:
		return Real
	}
}
