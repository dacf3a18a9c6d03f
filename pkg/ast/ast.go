// Package ast defines the types used to represent the Abstract Syntax Tree (AST)
package ast

import (
	"fmt"

	"github.com/xplshn/pasfe/pkg/token"
)

// NodeType defines the kind of a node in the AST
type NodeType int

// Node types enum
const (
	Program NodeType = iota
	Description

	// Operators
	Composite
	Assignment
	Conditional
	ConditionalLoop
	FixedLoop
	Read
	Write

	// Expressions
	Expression
	Operand
	Term
	Factor
	UnaryNot
)

var nodeTypeNames = [...]string{
	Program:         "Program",
	Description:     "Description",
	Composite:       "Composite",
	Assignment:      "Assignment",
	Conditional:     "Conditional",
	ConditionalLoop: "ConditionalLoop",
	FixedLoop:       "FixedLoop",
	Read:            "Read",
	Write:           "Write",
	Expression:      "Expression",
	Operand:         "Operand",
	Term:            "Term",
	Factor:          "Factor",
	UnaryNot:        "UnaryNot",
}

func (t NodeType) String() string {
	if t >= 0 && int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// Node represents a node in the Abstract Syntax Tree. Tok is the lexeme the
// node starts at.
type Node struct {
	Type   NodeType
	Tok    token.Lexeme
	Parent *Node
	Data   interface{}
}

// VarType is the declared type of a variable
type VarType int

const (
	TypeInt VarType = iota
	TypeFloat
	TypeBool
)

func (t VarType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	}
	return fmt.Sprintf("VarType(%d)", int(t))
}

// VarTypeOf maps a type keyword to its VarType.
func VarTypeOf(t token.Type) (VarType, bool) {
	switch t {
	case token.Int:
		return TypeInt, true
	case token.Float:
		return TypeFloat, true
	case token.Bool:
		return TypeBool, true
	}
	return 0, false
}

type Variable struct {
	Name string
	Type VarType
	Decl token.Lexeme
}

// --- Node Data Structs ---
type ProgramNode struct{ Descriptions, Operators []*Node }
type DescriptionNode struct {
	Type  VarType
	Names []token.Lexeme
}
type CompositeNode struct{ Operators []*Node }
type AssignmentNode struct {
	Target token.Lexeme
	Expr   *Node
}
type ConditionalNode struct{ Cond, Then, Else *Node }
type ConditionalLoopNode struct{ Cond, Body *Node }
type FixedLoopNode struct{ Init, Bound, Step, Body *Node }
type ReadNode struct{ Targets []token.Lexeme }
type WriteNode struct{ Exprs []*Node }

// ChainNode is shared by Expression, Operand and Term: Ops[i] sits between
// Operands[i] and Operands[i+1].
type ChainNode struct {
	Operands []*Node
	Ops      []token.Lexeme
}

// FactorNode holds either a terminal (identifier, number, true, false) in
// Value or a parenthesized expression in Expr.
type FactorNode struct {
	Value token.Lexeme
	Expr  *Node
}
type UnaryNotNode struct{ Operand *Node }

// --- Node Constructors ---

func newNode(tok token.Lexeme, nodeType NodeType, data interface{}, children ...*Node) *Node {
	node := &Node{Type: nodeType, Tok: tok, Data: data}
	for _, child := range children {
		if child != nil {
			child.Parent = node
		}
	}
	return node
}

func cloneNodes(nodes []*Node) []*Node {
	return append(make([]*Node, 0, len(nodes)), nodes...)
}

func cloneLexemes(lexemes []token.Lexeme) []token.Lexeme {
	return append(make([]token.Lexeme, 0, len(lexemes)), lexemes...)
}

func NewProgram(tok token.Lexeme, descriptions, operators []*Node) *Node {
	d := ProgramNode{Descriptions: cloneNodes(descriptions), Operators: cloneNodes(operators)}
	node := newNode(tok, Program, d, d.Descriptions...)
	for _, op := range d.Operators {
		op.Parent = node
	}
	return node
}
func NewDescription(tok token.Lexeme, typ VarType, names []token.Lexeme) *Node {
	return newNode(tok, Description, DescriptionNode{Type: typ, Names: cloneLexemes(names)})
}
func NewComposite(tok token.Lexeme, operators []*Node) *Node {
	d := CompositeNode{Operators: cloneNodes(operators)}
	return newNode(tok, Composite, d, d.Operators...)
}
func NewAssignment(tok token.Lexeme, target token.Lexeme, expr *Node) *Node {
	return newNode(tok, Assignment, AssignmentNode{Target: target, Expr: expr}, expr)
}
func NewConditional(tok token.Lexeme, cond, then, els *Node) *Node {
	return newNode(tok, Conditional, ConditionalNode{Cond: cond, Then: then, Else: els}, cond, then, els)
}
func NewConditionalLoop(tok token.Lexeme, cond, body *Node) *Node {
	return newNode(tok, ConditionalLoop, ConditionalLoopNode{Cond: cond, Body: body}, cond, body)
}
func NewFixedLoop(tok token.Lexeme, init, bound, step, body *Node) *Node {
	return newNode(tok, FixedLoop, FixedLoopNode{Init: init, Bound: bound, Step: step, Body: body}, init, bound, step, body)
}
func NewRead(tok token.Lexeme, targets []token.Lexeme) *Node {
	return newNode(tok, Read, ReadNode{Targets: cloneLexemes(targets)})
}
func NewWrite(tok token.Lexeme, exprs []*Node) *Node {
	d := WriteNode{Exprs: cloneNodes(exprs)}
	return newNode(tok, Write, d, d.Exprs...)
}

// NewChain builds an Expression, Operand or Term node.
func NewChain(tok token.Lexeme, nodeType NodeType, operands []*Node, ops []token.Lexeme) *Node {
	if nodeType != Expression && nodeType != Operand && nodeType != Term {
		panic(fmt.Sprintf("ast: %s is not a chain node", nodeType))
	}
	if len(operands) != len(ops)+1 {
		panic(fmt.Sprintf("ast: %s with %d operands and %d operators", nodeType, len(operands), len(ops)))
	}
	d := ChainNode{Operands: cloneNodes(operands), Ops: cloneLexemes(ops)}
	return newNode(tok, nodeType, d, d.Operands...)
}
func NewFactor(tok token.Lexeme, value token.Lexeme) *Node {
	return newNode(tok, Factor, FactorNode{Value: value})
}
func NewParenFactor(tok token.Lexeme, expr *Node) *Node {
	return newNode(tok, Factor, FactorNode{Expr: expr}, expr)
}
func NewUnaryNot(tok token.Lexeme, operand *Node) *Node {
	return newNode(tok, UnaryNot, UnaryNotNode{Operand: operand}, operand)
}
