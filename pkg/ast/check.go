package ast

import (
	"fmt"
	"strings"

	"github.com/xplshn/pasfe/pkg/config"
	"github.com/xplshn/pasfe/pkg/token"
)

type resultRule int

const (
	resultFirst resultRule = iota
	resultBool
)

type opRule struct {
	allowed []VarType // nil accepts every type
	result  resultRule
}

var (
	numeric = []VarType{TypeInt, TypeFloat}
	boolean = []VarType{TypeBool}
)

var opRules = map[token.Type]opRule{
	token.EqEq:   {nil, resultBool},
	token.Neq:    {nil, resultBool},
	token.Lt:     {numeric, resultBool},
	token.Lte:    {numeric, resultBool},
	token.Gt:     {numeric, resultBool},
	token.Gte:    {numeric, resultBool},
	token.Plus:   {numeric, resultFirst},
	token.Minus:  {numeric, resultFirst},
	token.Star:   {numeric, resultFirst},
	token.Slash:  {numeric, resultFirst},
	token.OrOr:   {boolean, resultBool},
	token.AndAnd: {boolean, resultBool},
}

func (r opRule) accepts(t VarType) bool {
	if r.allowed == nil {
		return true
	}
	for _, a := range r.allowed {
		if a == t {
			return true
		}
	}
	return false
}

func typeList(types []VarType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

// Warning is a non-fatal finding of the checker.
type Warning struct {
	Kind    config.Warning
	Lexeme  token.Lexeme
	Message string
}

type checker struct {
	tree     *Tree
	cfg      *config.Config
	warnings []Warning
}

// TypeOf infers the type of an expression node.
func (t *Tree) TypeOf(n *Node) (VarType, error) {
	switch d := n.Data.(type) {
	case FactorNode:
		if d.Expr != nil {
			return t.TypeOf(d.Expr)
		}
		switch d.Value.Type {
		case token.True, token.False:
			return TypeBool, nil
		case token.Number:
			if d.Value.IsFloat() {
				return TypeFloat, nil
			}
			return TypeInt, nil
		case token.Ident:
			v, err := t.Resolve(d.Value)
			if err != nil {
				return 0, err
			}
			return v.Type, nil
		}
		return 0, fmt.Errorf("ast: factor holds %s", d.Value.Type)
	case UnaryNotNode:
		return TypeBool, nil
	case ChainNode:
		if len(d.Ops) == 0 {
			return t.TypeOf(d.Operands[0])
		}
		rule, ok := opRules[d.Ops[0].Type]
		if !ok {
			return 0, fmt.Errorf("ast: no rule for operator %s", d.Ops[0].Type)
		}
		if rule.result == resultBool {
			return TypeBool, nil
		}
		return t.TypeOf(d.Operands[0])
	}
	return 0, fmt.Errorf("ast: %s has no value type", n.Type)
}

// Check runs the semantic pass over the whole tree. It stops at the first
// error. Warnings enabled in cfg are collected and returned.
func (t *Tree) Check(cfg *config.Config) ([]Warning, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	c := &checker{tree: t, cfg: cfg}
	if t.Root == nil {
		return nil, fmt.Errorf("ast: tree has no root")
	}
	if err := c.check(t.Root); err != nil {
		return c.warnings, err
	}
	if cfg.IsWarningEnabled(config.WarnUnused) {
		for _, v := range t.Unused() {
			c.warn(config.WarnUnused, v.Decl, "variable '%s' is declared but never read", v.Name)
		}
	}
	return c.warnings, nil
}

func (c *checker) warn(kind config.Warning, lex token.Lexeme, format string, args ...interface{}) {
	c.warnings = append(c.warnings, Warning{Kind: kind, Lexeme: lex, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) checkAll(nodes []*Node) error {
	for _, n := range nodes {
		if err := c.check(n); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) requireBool(cond *Node, what string) error {
	typ, err := c.tree.TypeOf(cond)
	if err != nil {
		return err
	}
	if typ != TypeBool {
		return semanticError(cond.Tok, "the condition of %s must be of type bool, got %s", what, typ)
	}
	return nil
}

func (c *checker) check(n *Node) error {
	if n == nil {
		return nil
	}
	switch d := n.Data.(type) {
	case ProgramNode:
		if err := c.checkAll(d.Descriptions); err != nil {
			return err
		}
		return c.checkAll(d.Operators)

	case DescriptionNode:
		for _, name := range d.Names {
			if v, ok := c.tree.Lookup(name.Value); !ok || v.Type != d.Type {
				return fmt.Errorf("ast: '%s' is missing from the tree context", name.Value)
			}
		}
		return nil

	case CompositeNode:
		return c.checkAll(d.Operators)

	case AssignmentNode:
		return c.checkAssignment(d)

	case ConditionalNode:
		if err := c.requireBool(d.Cond, "'if'"); err != nil {
			return err
		}
		if err := c.check(d.Cond); err != nil {
			return err
		}
		if err := c.check(d.Then); err != nil {
			return err
		}
		return c.check(d.Else)

	case ConditionalLoopNode:
		if err := c.requireBool(d.Cond, "'while'"); err != nil {
			return err
		}
		if err := c.check(d.Cond); err != nil {
			return err
		}
		return c.check(d.Body)

	case FixedLoopNode:
		if err := c.checkLoopBound(d.Bound); err != nil {
			return err
		}
		for _, child := range []*Node{d.Init, d.Bound, d.Step, d.Body} {
			if err := c.check(child); err != nil {
				return err
			}
		}
		return nil

	case ReadNode:
		for _, target := range d.Targets {
			if _, err := c.tree.Resolve(target); err != nil {
				return err
			}
			c.tree.MarkInitialized(target.Value)
		}
		return nil

	case WriteNode:
		return c.checkAll(d.Exprs)

	case ChainNode:
		return c.checkChain(d)

	case FactorNode:
		if d.Expr != nil {
			return c.check(d.Expr)
		}
		if d.Value.Type != token.Ident {
			return nil
		}
		v, err := c.tree.Resolve(d.Value)
		if err != nil {
			return err
		}
		c.tree.refs[v.Name]++
		if !c.tree.IsInitialized(v.Name) {
			return semanticError(d.Value, "variable '%s' is used before initialization", v.Name)
		}
		return nil

	case UnaryNotNode:
		if err := c.check(d.Operand); err != nil {
			return err
		}
		typ, err := c.tree.TypeOf(d.Operand)
		if err != nil {
			return err
		}
		if typ != TypeBool {
			return semanticError(n.Tok, "operator '!' expects an operand of type bool, got %s", typ)
		}
		return nil
	}
	return fmt.Errorf("ast: unhandled node %s", n.Type)
}

func (c *checker) checkAssignment(d AssignmentNode) error {
	v, err := c.tree.Resolve(d.Target)
	if err != nil {
		return err
	}
	if err := c.check(d.Expr); err != nil {
		return err
	}
	typ, err := c.tree.TypeOf(d.Expr)
	if err != nil {
		return err
	}
	if typ != v.Type {
		return semanticError(d.Target, "type mismatch in assignment: '%s' is %s, the expression is %s", v.Name, v.Type, typ)
	}
	c.tree.MarkInitialized(v.Name)
	return nil
}

// checkLoopBound rejects a bool bound. With strict-for only int is accepted.
func (c *checker) checkLoopBound(bound *Node) error {
	typ, err := c.tree.TypeOf(bound)
	if err != nil {
		return err
	}
	switch {
	case typ == TypeBool:
		return semanticError(bound.Tok, "the bound of 'for' must be of type int or float, got bool")
	case typ == TypeFloat && c.cfg.IsFeatureEnabled(config.FeatStrictFor):
		return semanticError(bound.Tok, "the bound of 'for' must be of type int, got float")
	case typ == TypeFloat && c.cfg.IsWarningEnabled(config.WarnFloatFor):
		c.warn(config.WarnFloatFor, bound.Tok, "the bound of 'for' is of type float")
	}
	return nil
}

func (c *checker) checkChain(d ChainNode) error {
	if err := c.checkAll(d.Operands); err != nil {
		return err
	}
	for i, op := range d.Ops {
		rule, ok := opRules[op.Type]
		if !ok {
			return semanticError(op, "'%s' is not a binary operator", op.Value)
		}
		left, err := c.tree.TypeOf(d.Operands[i])
		if err != nil {
			return err
		}
		right, err := c.tree.TypeOf(d.Operands[i+1])
		if err != nil {
			return err
		}
		if left != right {
			return semanticError(op, "operands of '%s' must have the same type, got %s and %s", op.Value, left, right)
		}
		if !rule.accepts(left) {
			return semanticError(op, "operator '%s' supports only operands of type %s, got %s", op.Value, typeList(rule.allowed), left)
		}
	}
	return nil
}
