// Package lexer specializes the fsm engine with token finalizers and exposes a
// pull interface that yields one resolved lexeme per call.
package lexer

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sync"

	"github.com/xplshn/pasfe/pkg/fsm"
	"github.com/xplshn/pasfe/pkg/symtab"
	"github.com/xplshn/pasfe/pkg/token"
)

const (
	InitialState = "IN"
	Sentinel     = '@'
)

//go:embed states.json
var defaultStates []byte

var defaultTable = sync.OnceValues(func() (*fsm.Table, error) {
	return LoadTable(bytes.NewReader(defaultStates), InitialState, Sentinel)
})

// DefaultTable returns the embedded transition table. It is loaded and
// validated once and shared by every Lexer.
func DefaultTable() (*fsm.Table, error) { return defaultTable() }

// DefaultStates returns a copy of the embedded table source.
func DefaultStates() []byte { return append([]byte(nil), defaultStates...) }

// LoadTable reads a persisted transition table and validates it against the
// probe alphabet for sentinel.
func LoadTable(r io.Reader, initial string, sentinel rune) (*fsm.Table, error) {
	t, err := fsm.Load(r, initial)
	if err != nil {
		return nil, err
	}
	if err := t.Validate(fsm.DefaultProbe(sentinel)); err != nil {
		return nil, err
	}
	return t, nil
}

type Lexer struct {
	m    *fsm.Machine
	syms *symtab.Table

	pending  token.RawToken
	complete bool
	eof      token.Lexeme
	err      error
}

// NewLexer drives table over src. Numbers and identifiers found while lexing
// are registered in syms.
func NewLexer(src io.RuneReader, table *fsm.Table, syms *symtab.Table, sentinel rune) *Lexer {
	l := &Lexer{syms: syms}
	l.m = fsm.NewMachine(table, fsm.NewRuneSource(src, sentinel), sentinel)
	l.m.Bind(fsm.AddNumber, func(m *fsm.Machine, _ *fsm.Transition) error {
		return l.finalize(m, token.NumberCat)
	})
	l.m.Bind(fsm.AddLimiter, func(m *fsm.Machine, _ *fsm.Transition) error {
		return l.finalize(m, token.LimiterCat)
	})
	l.m.Bind(fsm.AddIdentifier, func(m *fsm.Machine, _ *fsm.Transition) error {
		return l.finalize(m, token.IdentCat)
	})
	l.m.OnFinish(l.finish)
	return l
}

func (l *Lexer) Symbols() *symtab.Table { return l.syms }

func (l *Lexer) finalize(m *fsm.Machine, cat token.Category) error {
	text := m.Accumulator()
	offset := m.Pointer() - m.AccumulatedLen()
	if m.ConsumedCurrent() {
		offset++
	}
	switch cat {
	case token.NumberCat:
		l.syms.AddNumber(text)
	case token.IdentCat:
		if !l.syms.IsKeyword(text) {
			l.syms.AddIdentifier(text)
		}
	}
	raw, err := l.syms.Raw(text, offset)
	if err != nil {
		return fmt.Errorf("lexer: finalizing %s: %w", cat, err)
	}
	m.ClearAccumulator()
	l.pending, l.complete = raw, true
	return nil
}

func (l *Lexer) finish(m *fsm.Machine) error {
	raw, err := l.syms.Raw(token.Limiters[token.EOF-token.Neq], m.Pointer())
	if err != nil {
		return fmt.Errorf("lexer: end of input: %w", err)
	}
	m.ClearAccumulator()
	l.pending, l.complete = raw, true
	return nil
}

// Next steps the machine until one token is finalized and resolves it. Once
// the end-of-input token has been produced it is returned on every call. An
// error is sticky.
func (l *Lexer) Next() (token.Lexeme, error) {
	if l.err != nil {
		return token.Lexeme{}, l.err
	}
	if l.m.Finished() {
		return l.eof, nil
	}
	l.complete = false
	for !l.complete {
		if err := l.m.Step(); err != nil {
			l.err = err
			return token.Lexeme{}, err
		}
	}
	lex, err := l.syms.Resolve(l.pending)
	if err != nil {
		l.err = fmt.Errorf("lexer: %w", err)
		return token.Lexeme{}, l.err
	}
	if lex.Type == token.EOF {
		l.eof = lex
	}
	return lex, nil
}

// All drains the lexer up to and including the end-of-input token.
func (l *Lexer) All() ([]token.Lexeme, error) {
	var out []token.Lexeme
	for {
		lex, err := l.Next()
		if err != nil {
			return out, err
		}
		out = append(out, lex)
		if lex.Type == token.EOF {
			return out, nil
		}
	}
}
