// Package parser is a recursive-descent parser with one token of lookahead.
// It pulls lexemes on demand and builds the AST, registering declarations in
// the tree context as it goes.
package parser

import (
	"fmt"

	"github.com/xplshn/pasfe/pkg/ast"
	"github.com/xplshn/pasfe/pkg/token"
)

type SyntaxError struct {
	Lexeme  token.Lexeme
	Message string
}

func (e *SyntaxError) Error() string { return e.Message }

// TokenSource is satisfied by *lexer.Lexer.
type TokenSource interface {
	Next() (token.Lexeme, error)
}

// Parser holds the state for the parsing process
type Parser struct {
	src     TokenSource
	current token.Lexeme
	tree    *ast.Tree
}

func NewParser(src TokenSource) *Parser {
	return &Parser{src: src, tree: ast.NewTree()}
}

// Parser helpers
func (p *Parser) advance() error {
	lex, err := p.src.Next()
	if err != nil {
		return err
	}
	p.current = lex
	return nil
}

func (p *Parser) check(types ...token.Type) bool {
	for _, t := range types {
		if p.current.Type == t {
			return true
		}
	}
	return false
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Lexeme: p.current, Message: fmt.Sprintf(format, args...)}
}

// expect consumes the current lexeme if it has type tokType and returns it.
func (p *Parser) expect(tokType token.Type, message string) (token.Lexeme, error) {
	if !p.check(tokType) {
		return token.Lexeme{}, p.errorf("%s, found %s", message, p.current.Type)
	}
	lex := p.current
	return lex, p.advance()
}

// Parse reads the whole program. The returned tree has not been checked yet.
func (p *Parser) Parse() (*ast.Tree, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	root, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	p.tree.Root = root
	return p.tree, nil
}

func (p *Parser) parseProgram() (*ast.Node, error) {
	tok := p.current
	if _, err := p.expect(token.Program, "a program must start with 'program'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Var, "expected 'var' before the declarations"); err != nil {
		return nil, err
	}

	var descriptions []*ast.Node
	for {
		d, err := p.parseDescription()
		if err != nil {
			return nil, err
		}
		descriptions = append(descriptions, d)
		if _, err := p.expect(token.Semi, "expected ';' after a declaration"); err != nil {
			return nil, err
		}
		if p.check(token.Begin) {
			break
		}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	operators, err := p.parseOperatorList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.End, "expected ';' or 'end' after an operator"); err != nil {
		return nil, err
	}
	if !p.check(token.EOF) {
		return nil, p.errorf("expected the end of the program after 'end.', found %s", p.current.Type)
	}
	return ast.NewProgram(tok, descriptions, operators), nil
}

func (p *Parser) parseDescription() (*ast.Node, error) {
	tok := p.current
	typ, ok := ast.VarTypeOf(p.current.Type)
	if !ok {
		return nil, p.errorf("expected a type (int, float or bool), found %s", p.current.Type)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var names []token.Lexeme
	for {
		name, err := p.expect(token.Ident, "expected a variable name")
		if err != nil {
			return nil, err
		}
		if err := p.tree.Declare(name, typ); err != nil {
			return nil, err
		}
		names = append(names, name)
		if !p.check(token.Comma) {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return ast.NewDescription(tok, typ, names), nil
}

// parseOperatorList parses operator {";" operator}.
func (p *Parser) parseOperatorList() ([]*ast.Node, error) {
	var operators []*ast.Node
	for {
		op, err := p.parseOperator()
		if err != nil {
			return nil, err
		}
		operators = append(operators, op)
		if !p.check(token.Semi) {
			return operators, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseOperator() (*ast.Node, error) {
	switch p.current.Type {
	case token.Begin:   return p.parseComposite()
	case token.Ident:   return p.parseAssignment()
	case token.If:      return p.parseConditional()
	case token.For:     return p.parseFixedLoop()
	case token.While:   return p.parseConditionalLoop()
	case token.Readln:  return p.parseRead()
	case token.Writeln: return p.parseWrite()
	}
	return nil, p.errorf("expected an operator, found %s", p.current.Type)
}

func (p *Parser) parseComposite() (*ast.Node, error) {
	tok := p.current
	if _, err := p.expect(token.Begin, "expected 'begin'"); err != nil {
		return nil, err
	}
	operators, err := p.parseOperatorList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.End, "expected ';' or 'end' in a compound operator"); err != nil {
		return nil, err
	}
	return ast.NewComposite(tok, operators), nil
}

func (p *Parser) parseAssignment() (*ast.Node, error) {
	tok := p.current
	target, err := p.expect(token.Ident, "expected a variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.tree.Resolve(target); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Assign, "expected ':=' after the variable name"); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.NewAssignment(tok, target, expr), nil
}

// parseParenExpr parses "(" expression ")".
func (p *Parser) parseParenExpr(what string) (*ast.Node, error) {
	if _, err := p.expect(token.LParen, "the condition of "+what+" must be enclosed in parentheses"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen, "expected ')' after the condition of "+what); err != nil {
		return nil, err
	}
	return cond, nil
}

func (p *Parser) parseConditional() (*ast.Node, error) {
	tok := p.current
	if _, err := p.expect(token.If, "expected 'if'"); err != nil {
		return nil, err
	}
	cond, err := p.parseParenExpr("'if'")
	if err != nil {
		return nil, err
	}
	then, err := p.parseOperator()
	if err != nil {
		return nil, err
	}
	var els *ast.Node
	if p.check(token.Else) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if els, err = p.parseOperator(); err != nil {
			return nil, err
		}
	}
	return ast.NewConditional(tok, cond, then, els), nil
}

func (p *Parser) parseFixedLoop() (*ast.Node, error) {
	tok := p.current
	if _, err := p.expect(token.For, "expected 'for'"); err != nil {
		return nil, err
	}
	if !p.check(token.Ident) {
		return nil, p.errorf("expected an assignment after 'for', found %s", p.current.Type)
	}
	init, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.To, "expected 'to' after the loop assignment"); err != nil {
		return nil, err
	}
	bound, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	var step *ast.Node
	if p.check(token.Step) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if step, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	body, err := p.parseOperator()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Next, "expected 'next' at the end of a 'for' loop"); err != nil {
		return nil, err
	}
	return ast.NewFixedLoop(tok, init, bound, step, body), nil
}

func (p *Parser) parseConditionalLoop() (*ast.Node, error) {
	tok := p.current
	if _, err := p.expect(token.While, "expected 'while'"); err != nil {
		return nil, err
	}
	cond, err := p.parseParenExpr("'while'")
	if err != nil {
		return nil, err
	}
	body, err := p.parseOperator()
	if err != nil {
		return nil, err
	}
	return ast.NewConditionalLoop(tok, cond, body), nil
}

func (p *Parser) parseRead() (*ast.Node, error) {
	tok := p.current
	if _, err := p.expect(token.Readln, "expected 'readln'"); err != nil {
		return nil, err
	}
	var targets []token.Lexeme
	for {
		target, err := p.expect(token.Ident, "'readln' accepts only variable names")
		if err != nil {
			return nil, err
		}
		if _, err := p.tree.Resolve(target); err != nil {
			return nil, err
		}
		targets = append(targets, target)
		if !p.check(token.Comma) {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return ast.NewRead(tok, targets), nil
}

func (p *Parser) parseWrite() (*ast.Node, error) {
	tok := p.current
	if _, err := p.expect(token.Writeln, "expected 'writeln'"); err != nil {
		return nil, err
	}
	var exprs []*ast.Node
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		if !p.check(token.Comma) {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return ast.NewWrite(tok, exprs), nil
}

// Expression Parsing
var (
	relationalOps     = []token.Type{token.Neq, token.EqEq, token.Lt, token.Lte, token.Gt, token.Gte}
	additiveOps       = []token.Type{token.Plus, token.Minus, token.OrOr}
	multiplicativeOps = []token.Type{token.Star, token.Slash, token.AndAnd}
)

// parseChain parses operand {op operand} for one precedence level.
func (p *Parser) parseChain(nodeType ast.NodeType, ops []token.Type, next func() (*ast.Node, error)) (*ast.Node, error) {
	tok := p.current
	first, err := next()
	if err != nil {
		return nil, err
	}
	operands := []*ast.Node{first}
	var lexemes []token.Lexeme
	for p.check(ops...) {
		lexemes = append(lexemes, p.current)
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := next()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	return ast.NewChain(tok, nodeType, operands, lexemes), nil
}

func (p *Parser) parseExpression() (*ast.Node, error) {
	return p.parseChain(ast.Expression, relationalOps, p.parseOperand)
}

func (p *Parser) parseOperand() (*ast.Node, error) {
	return p.parseChain(ast.Operand, additiveOps, p.parseTerm)
}

func (p *Parser) parseTerm() (*ast.Node, error) {
	return p.parseChain(ast.Term, multiplicativeOps, p.parseFactor)
}

func (p *Parser) parseFactor() (*ast.Node, error) {
	tok := p.current
	switch p.current.Type {
	case token.Ident, token.Number, token.True, token.False:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewFactor(tok, tok), nil
	case token.Not:
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryNot(tok, operand), nil
	case token.LParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen, "an opening parenthesis in an expression must be closed"); err != nil {
			return nil, err
		}
		return ast.NewParenFactor(tok, expr), nil
	}
	return nil, p.errorf("expected an identifier, a number, 'true', 'false', '!' or '(', found %s", p.current.Type)
}
