package codegen

import (
	"github.com/notargets/SplKernel/ir"
	"github.com/notargets/SplKernel/symbolic"
	"github.com/notargets/SplKernel/weakform"
)

// InvSurfJac is the inverse norm of the surface Jacobian of a mapped face
var InvSurfJac = symbolic.Sym("inv_surf_jac")

// NormalVector returns the statements assigning the outward unit normal of
// the single face in boundary to vector. Without a mapping the normal is the
// extension times the unit vector of the masked axis. With a mapping the
// logical derivative of the mapping along the face is rotated by 90 degrees
// and normalized; only two dimensions are supported.
func NormalVector(vector []*symbolic.Symbol, boundary Boundary, mapping *weakform.Mapping) ([]ir.Stmt, error) {
	const op = "normal_vector"
	dim := len(vector)
	switch {
	case len(boundary) == 0:
		return nil, configErr(op, "no boundary face given")
	case len(boundary) > 1:
		return nil, unsupported(op, "normal vector of %d faces", len(boundary))
	case dim != 2:
		return nil, unsupported(op, "normal vector in dimension %d", dim)
	}
	if err := boundary.Validate(dim); err != nil {
		return nil, err
	}
	face := boundary[0]
	ext := float64(face.Ext)

	values := make([]symbolic.Expr, dim)
	var body []ir.Stmt
	if mapping == nil {
		for i := range values {
			values[i] = symbolic.Zero
		}
		values[face.Axis] = symbolic.Num(ext)
	} else {
		t := 1 - face.Axis
		a := make([]symbolic.Expr, dim)
		for i := range a {
			a[i] = symbolic.Sym(symbolic.Name(symbolic.D(t, mapping.Component(i)), symbolic.Logical))
		}
		sign := ext
		if face.Axis != 0 {
			sign = -ext
		}
		norm := symbolic.Sqrt(symbolic.Sum(
			symbolic.Power(a[0], symbolic.Num(2)),
			symbolic.Power(a[1], symbolic.Num(2)),
		))
		body = append(body, &ir.Assign{LHS: InvSurfJac, RHS: symbolic.Power(norm, symbolic.Num(-1))})
		values[0] = symbolic.Prod(symbolic.Num(sign), a[1], InvSurfJac)
		values[1] = symbolic.Prod(symbolic.Num(-sign), a[0], InvSurfJac)
	}
	for i, v := range vector {
		body = append(body, &ir.Assign{LHS: v, RHS: values[i]})
	}
	return body, nil
}

// TangentVector is not implemented for any dimension
func TangentVector(vector []*symbolic.Symbol, boundary Boundary, mapping *weakform.Mapping) ([]ir.Stmt, error) {
	return nil, unsupported("tangent_vector", "tangent vector in dimension %d", len(vector))
}
