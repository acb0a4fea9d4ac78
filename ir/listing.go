package ir

import (
	"strings"
)

// Listing renders the signature and the body of the routine as text. Two
// routines with the same listing compute the same thing.
func (r *Routine) Listing() string {
	var sb strings.Builder
	sb.WriteString(r.Signature())
	sb.WriteString("\n")
	list(&sb, r.body, 1)
	return sb.String()
}

func list(sb *strings.Builder, body []Stmt, depth int) {
	line := func(parts ...string) {
		sb.WriteString(strings.Repeat("\t", depth))
		for _, p := range parts {
			sb.WriteString(p)
		}
		sb.WriteString("\n")
	}
	for _, s := range body {
		switch n := s.(type) {
		case *Assign:
			line(n.LHS.String(), " = ", n.RHS.String())
		case *AugAssign:
			line(n.LHS.String(), " += ", n.RHS.String())
		case *For:
			line("for ", n.Index.String(), " in ", n.Start.String(), ":", n.End.String())
			list(sb, n.Body, depth+1)
		case *Call:
			line("call ", n.Routine.Name(), "(", joinExprs(n.Args), ")")
		case *IfNil:
			line("if ", n.Target.String(), " is nil")
			list(sb, n.Body, depth+1)
		case *Return:
			line("return ", joinExprs(n.Values))
		case *Declare:
			line("declare ", strings.Join(n.Functions, ", "))
		case *Print:
			line("print ", n.Label, joinExprs(n.Args))
		case *Comment:
			line("# ", n.Text)
		}
	}
}
