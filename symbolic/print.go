package symbolic

import (
	"strconv"
	"strings"
)

// NameMode selects how derivatives are spelled in rendered names
type NameMode uint8

const (
	// Physical spells derivatives with physical coordinates: u_x, u_xy
	Physical NameMode = iota
	// Logical spells derivatives with logical coordinates: u_x1, u_x1x2
	Logical
)

var (
	physicalAxes = []string{"x", "y", "z"}
	logicalAxes  = []string{"x1", "x2", "x3"}
)

// Name renders an atom as an identifier. Mapping components are always
// spelled by the physical coordinate they produce (x, y, z).
func Name(e Expr, mode NameMode) string {
	if d, ok := e.(*Derivative); ok {
		base := BaseOf(d)
		dim := 3
		orders := DerivativeOrders(d, dim)
		axes := physicalAxes
		if mode == Logical {
			axes = logicalAxes
		}
		var sb strings.Builder
		sb.WriteString(baseName(base))
		sb.WriteString("_")
		for axis, n := range orders {
			for k := 0; k < n; k++ {
				sb.WriteString(axes[axis])
			}
		}
		return sb.String()
	}
	return baseName(e)
}

func baseName(e Expr) string {
	switch n := e.(type) {
	case *Function:
		return n.Name
	case *VectorFunction:
		return n.Name
	case *Component:
		return n.Of.Name + strconv.Itoa(n.Index)
	case *Field:
		return n.Name
	case *MappingComponent:
		if n.Index < len(physicalAxes) {
			return physicalAxes[n.Index]
		}
		return n.Mapping + strconv.Itoa(n.Index)
	case *BoundaryComponent:
		if n.Kind == Tangent {
			return "tangent_" + strconv.Itoa(n.Index+1)
		}
		return "normal_" + strconv.Itoa(n.Index+1)
	case *Symbol:
		return n.Name
	case *Constant:
		return n.Name
	}
	return e.String()
}
