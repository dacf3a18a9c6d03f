package ast

import (
	"fmt"

	"github.com/xplshn/pasfe/pkg/token"
)

// SemanticError is raised by the checker and by the declaration checks the
// parser performs while building the tree.
type SemanticError struct {
	Lexeme  token.Lexeme
	Message string
}

func (e *SemanticError) Error() string { return e.Message }

func semanticError(lex token.Lexeme, format string, args ...interface{}) *SemanticError {
	return &SemanticError{Lexeme: lex, Message: fmt.Sprintf(format, args...)}
}

// Tree owns the root node and the program-wide context: declared variables
// and the set of variables initialized so far.
type Tree struct {
	Root *Node

	vars        map[string]*Variable
	order       []string
	initialized map[string]bool
	refs        map[string]int
}

func NewTree() *Tree {
	return &Tree{
		vars:        make(map[string]*Variable),
		initialized: make(map[string]bool),
		refs:        make(map[string]int),
	}
}

// Declare registers name with typ. A second declaration of the same name
// fails.
func (t *Tree) Declare(name token.Lexeme, typ VarType) error {
	if prev, ok := t.vars[name.Value]; ok {
		return semanticError(name, "variable '%s' is already declared as %s", name.Value, prev.Type)
	}
	t.vars[name.Value] = &Variable{Name: name.Value, Type: typ, Decl: name}
	t.order = append(t.order, name.Value)
	return nil
}

func (t *Tree) Lookup(name string) (*Variable, bool) {
	v, ok := t.vars[name]
	return v, ok
}

// Resolve looks up the variable lex names or fails with an undeclared error.
func (t *Tree) Resolve(lex token.Lexeme) (*Variable, error) {
	if v, ok := t.vars[lex.Value]; ok {
		return v, nil
	}
	return nil, semanticError(lex, "undeclared variable '%s'", lex.Value)
}

func (t *Tree) MarkInitialized(name string)     { t.initialized[name] = true }
func (t *Tree) IsInitialized(name string) bool { return t.initialized[name] }

// Variables returns the declared variables in declaration order.
func (t *Tree) Variables() []Variable {
	out := make([]Variable, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.vars[name])
	}
	return out
}

// Unused returns the declared variables never read by an expression, in
// declaration order. It is meaningful after Check.
func (t *Tree) Unused() []Variable {
	var out []Variable
	for _, name := range t.order {
		if t.refs[name] == 0 {
			out = append(out, *t.vars[name])
		}
	}
	return out
}
