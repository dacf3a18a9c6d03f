package ast

import (
	"fmt"
	"strings"

	"github.com/xplshn/pasfe/pkg/token"
)

type renderer struct {
	sb   strings.Builder
	tree *Tree
}

// Render prints the tree as indented, bracketed text. Factors show their
// inferred type when it can be resolved.
func (t *Tree) Render() string {
	r := &renderer{tree: t}
	if t.Root != nil {
		r.node(0, "", t.Root)
	}
	return r.sb.String()
}

func (r *renderer) line(indent int, format string, args ...interface{}) {
	r.sb.WriteString(strings.Repeat("  ", indent))
	fmt.Fprintf(&r.sb, format, args...)
	r.sb.WriteByte('\n')
}

func (r *renderer) open(indent int, label, head string) {
	r.line(indent, "%s%s(", label, head)
}

func (r *renderer) close(indent int) { r.line(indent, ")") }

func (r *renderer) nodes(indent int, label string, nodes []*Node) {
	for _, n := range nodes {
		r.node(indent, label, n)
	}
}

func names(lexemes []token.Lexeme) string {
	out := make([]string, len(lexemes))
	for i, l := range lexemes {
		out[i] = l.Value
	}
	return strings.Join(out, ", ")
}

func (r *renderer) node(indent int, label string, n *Node) {
	if n == nil {
		return
	}
	switch d := n.Data.(type) {
	case ProgramNode:
		r.open(indent, label, "Program")
		r.nodes(indent+1, "", d.Descriptions)
		r.nodes(indent+1, "", d.Operators)
		r.close(indent)
	case DescriptionNode:
		r.line(indent, "%sDescription[%s](%s)", label, d.Type, names(d.Names))
	case CompositeNode:
		r.open(indent, label, "Composite")
		r.nodes(indent+1, "", d.Operators)
		r.close(indent)
	case AssignmentNode:
		r.open(indent, label, "Assignment["+d.Target.Value+"]")
		r.node(indent+1, "", d.Expr)
		r.close(indent)
	case ConditionalNode:
		r.open(indent, label, "Conditional")
		r.node(indent+1, "if: ", d.Cond)
		r.node(indent+1, "then: ", d.Then)
		r.node(indent+1, "else: ", d.Else)
		r.close(indent)
	case ConditionalLoopNode:
		r.open(indent, label, "ConditionalLoop")
		r.node(indent+1, "while: ", d.Cond)
		r.node(indent+1, "do: ", d.Body)
		r.close(indent)
	case FixedLoopNode:
		r.open(indent, label, "FixedLoop")
		r.node(indent+1, "for: ", d.Init)
		r.node(indent+1, "to: ", d.Bound)
		r.node(indent+1, "step: ", d.Step)
		r.node(indent+1, "do: ", d.Body)
		r.close(indent)
	case ReadNode:
		r.line(indent, "%sRead(%s)", label, names(d.Targets))
	case WriteNode:
		r.open(indent, label, "Write")
		r.nodes(indent+1, "", d.Exprs)
		r.close(indent)
	case ChainNode:
		r.open(indent, label, n.Type.String())
		for i, operand := range d.Operands {
			if i > 0 {
				r.line(indent+1, "'%s'", d.Ops[i-1].Value)
			}
			r.node(indent+1, "", operand)
		}
		r.close(indent)
	case FactorNode:
		if d.Expr != nil {
			r.open(indent, label, "Factor")
			r.node(indent+1, "", d.Expr)
			r.close(indent)
			return
		}
		head := "Factor"
		if typ, err := r.tree.TypeOf(n); err == nil {
			head += "[" + typ.String() + "]"
		}
		if d.Value.Type == token.Ident {
			r.line(indent, "%s%s(variable %s)", label, head, d.Value.Value)
		} else {
			r.line(indent, "%s%s(%s)", label, head, d.Value.Value)
		}
	case UnaryNotNode:
		r.open(indent, label, "UnaryNot")
		r.node(indent+1, "", d.Operand)
		r.close(indent)
	default:
		r.line(indent, "%s%s", label, n.Type)
	}
}
