package ir

import (
	"fmt"
	"strings"
)

// Signature renders the routine declaration, one parameter per line
func (r *Routine) Signature() string {
	params := make([]string, len(r.params))
	for i, p := range r.params {
		params[i] = p.declaration()
	}
	return fmt.Sprintf("routine %s(\n\t%s\n)", r.name, strings.Join(params, ",\n\t"))
}

func (p *Param) declaration() string {
	var sb strings.Builder
	sb.WriteString(p.Direction.String())
	sb.WriteString(" ")
	sb.WriteString(TypeName(p.DataType))
	if p.Rank > 0 {
		sb.WriteString("[")
		sb.WriteString(strings.Repeat(":,", p.Rank-1))
		sb.WriteString(":]")
	}
	sb.WriteString(" ")
	sb.WriteString(p.Name)
	if p.Optional {
		sb.WriteString(" = nil")
	}
	return sb.String()
}

// ParameterInfo is structured information about a routine parameter
// Useful for documentation or binding generated code
type ParameterInfo struct {
	Type     string
	Name     string
	IsConst  bool
	Category string // "index", "scalar", "array", "object"
}

// ParameterInfo returns one entry per parameter in declaration order
func (r *Routine) ParameterInfo() []ParameterInfo {
	out := make([]ParameterInfo, len(r.params))
	for i, p := range r.params {
		category := "array"
		switch {
		case p.DataType == Object:
			category = "object"
		case p.Rank == 0 && p.DataType == Int:
			category = "index"
		case p.Rank == 0:
			category = "scalar"
		}
		typ := TypeName(p.DataType)
		if p.Rank > 0 {
			typ += strings.Repeat("*", p.Rank)
		}
		out[i] = ParameterInfo{
			Type:     typ,
			Name:     p.Name,
			IsConst:  p.IsConst(),
			Category: category,
		}
	}
	return out
}
