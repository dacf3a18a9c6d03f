package token

import (
	"fmt"
	"strings"
)

type Type int

// Keyword and limiter codes are positional: a keyword's code is its index in
// Keywords, a limiter's code is len(Keywords) plus its index in Limiters.
const (
	True Type = iota
	False
	Program
	Var
	End
	Begin
	Int
	Float
	Bool
	If
	Else
	For
	To
	Step
	Next
	While
	Readln
	Writeln

	Neq
	EqEq
	Lt
	Lte
	Gt
	Gte
	Plus
	Minus
	OrOr
	Star
	Slash
	AndAnd
	Comma
	Not
	Semi
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Assign
	EOF

	Number
	Ident
)

var Keywords = []string{
	"true", "false", "program", "var", "end", "begin", "int", "float", "bool",
	"if", "else", "for", "to", "step", "next", "while", "readln", "writeln",
}

var Limiters = []string{
	"!=", "==", "<", "<=", ">", ">=", "+", "-", "||", "*", "/", "&&",
	",", "!", ";", "(", ")", "[", "]", "{", "}", ":=", "@",
}

// Category identifies one of the four symbol table lists.
type Category int

const (
	KeywordCat Category = iota + 1
	LimiterCat
	NumberCat
	IdentCat
)

func (c Category) String() string {
	switch c {
	case KeywordCat:
		return "keywords"
	case LimiterCat:
		return "limiters"
	case NumberCat:
		return "numbers"
	case IdentCat:
		return "identifiers"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// RawToken is what the lexer produces before the symbol table resolves it.
type RawToken struct {
	Category Category
	Index    int
	Offset   int
}

type Lexeme struct {
	Value  string
	Type   Type
	Offset int
}

// Len is the length of the lexeme in runes.
func (l Lexeme) Len() int { return len([]rune(l.Value)) }

// IsFloat reports whether a number lexeme denotes a real value. Hexadecimal
// literals may contain 'e' digits and are always integers.
func (l Lexeme) IsFloat() bool {
	if l.Type != Number {
		return false
	}
	if n := len(l.Value); n > 0 && (l.Value[n-1] == 'h' || l.Value[n-1] == 'H') {
		return false
	}
	return strings.ContainsAny(l.Value, ".eE")
}

func (l Lexeme) String() string {
	return fmt.Sprintf("%s %q @%d", l.Type, l.Value, l.Offset)
}

// FromCode maps a category and index to the positional lexeme type.
func FromCode(cat Category, index int) (Type, error) {
	switch cat {
	case KeywordCat:
		if index < 0 || index >= len(Keywords) {
			return 0, fmt.Errorf("keyword index %d out of range", index)
		}
		return Type(index), nil
	case LimiterCat:
		if index < 0 || index >= len(Limiters) {
			return 0, fmt.Errorf("limiter index %d out of range", index)
		}
		return Type(len(Keywords) + index), nil
	case NumberCat:
		return Number, nil
	case IdentCat:
		return Ident, nil
	}
	return 0, fmt.Errorf("unknown lexeme category %d", int(cat))
}

func (t Type) IsKeyword() bool { return t >= True && t <= Writeln }
func (t Type) IsLimiter() bool { return t >= Neq && t <= EOF }

func (t Type) String() string {
	switch {
	case t.IsKeyword():
		return "keyword '" + Keywords[t] + "'"
	case t == EOF:
		return "end of input"
	case t.IsLimiter():
		return "'" + Limiters[int(t)-len(Keywords)] + "'"
	case t == Number:
		return "number"
	case t == Ident:
		return "identifier"
	}
	return fmt.Sprintf("type(%d)", int(t))
}
