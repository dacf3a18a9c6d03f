// Package compiler runs the front end pipeline: lexer, parser and semantic
// checker. A compile fails with exactly one *fsm.LexicalError,
// *parser.SyntaxError or *ast.SemanticError, or with a configuration error.
package compiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/xplshn/pasfe/pkg/ast"
	"github.com/xplshn/pasfe/pkg/config"
	"github.com/xplshn/pasfe/pkg/fsm"
	"github.com/xplshn/pasfe/pkg/lexer"
	"github.com/xplshn/pasfe/pkg/parser"
	"github.com/xplshn/pasfe/pkg/symtab"
	"github.com/xplshn/pasfe/pkg/token"
)

type Result struct {
	Tree     *ast.Tree
	Symbols  *symtab.Table
	Warnings []ast.Warning
}

// LoadTable returns the transition table cfg names, or the embedded default
// when cfg.StatesPath is empty.
func LoadTable(cfg *config.Config) (*fsm.Table, error) {
	if cfg.StatesPath == "" {
		return lexer.DefaultTable()
	}
	f, err := os.Open(cfg.StatesPath)
	if err != nil {
		return nil, fmt.Errorf("opening transition table: %w", err)
	}
	defer f.Close()
	table, err := lexer.LoadTable(f, cfg.InitialState, cfg.Sentinel)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.StatesPath, err)
	}
	return table, nil
}

// Compile lexes, parses and checks src. Warnings are returned only when the
// compile succeeds.
func Compile(src io.RuneReader, table *fsm.Table, cfg *config.Config) (*Result, error) {
	syms := symtab.New()
	p := parser.NewParser(lexer.NewLexer(src, table, syms, cfg.Sentinel))
	tree, err := p.Parse()
	if err != nil {
		return nil, err
	}
	warnings, err := tree.Check(cfg)
	if err != nil {
		return nil, err
	}
	return &Result{Tree: tree, Symbols: syms, Warnings: warnings}, nil
}

// Tokenize returns every lexeme of src up to and including the end-of-input
// token, together with the symbol table grown while lexing.
func Tokenize(src io.RuneReader, table *fsm.Table, cfg *config.Config) ([]token.Lexeme, *symtab.Table, error) {
	syms := symtab.New()
	lexemes, err := lexer.NewLexer(src, table, syms, cfg.Sentinel).All()
	return lexemes, syms, err
}

// IsIncomplete reports whether err is a lexical error raised at the end of
// src, so that more input could still complete the program.
func IsIncomplete(err error, src string) bool {
	var lexErr *fsm.LexicalError
	if errors.As(err, &lexErr) {
		return lexErr.Pointer >= utf8.RuneCountInString(src)
	}
	return false
}
