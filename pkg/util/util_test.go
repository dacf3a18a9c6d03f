package util

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xplshn/pasfe/pkg/ast"
	"github.com/xplshn/pasfe/pkg/config"
	"github.com/xplshn/pasfe/pkg/fsm"
	"github.com/xplshn/pasfe/pkg/parser"
	"github.com/xplshn/pasfe/pkg/token"
)

const src = "program var int a;\nbegin\n  a := 1.5\nend."

func record() SourceFileRecord {
	return SourceFileRecord{Name: "t.pas", Content: []rune(src)}
}

func TestPosition(t *testing.T) {
	content := []rune(src)
	testData := []struct {
		offset, line, col int
	}{
		{0, 1, 1},
		{8, 1, 9},
		{19, 2, 1},
		{27, 3, 3},
		{len(content), 4, 5},
	}
	for _, data := range testData {
		line, col := Position(content, data.offset)
		assert.Equal(t, data.line, line, "offset %d", data.offset)
		assert.Equal(t, data.col, col, "offset %d", data.offset)
	}
}

func TestReporter_Error(t *testing.T) {
	testData := []struct {
		name string
		err  error
		want string
	}{
		{
			"semantic",
			&ast.SemanticError{Lexeme: token.Lexeme{Value: "a", Type: token.Ident, Offset: 27}, Message: "type mismatch"},
			"t.pas:3:3: error: type mismatch\n    a := 1.5\n    ^\n",
		},
		{
			"syntax",
			&parser.SyntaxError{Lexeme: token.Lexeme{Value: "begin", Type: token.Begin, Offset: 19}, Message: "expected ';'"},
			"t.pas:2:1: error: expected ';'\n  begin\n  ^~~~~\n",
		},
		{
			"lexical",
			&fsm.LexicalError{Message: "a digit must follow '.'", Pointer: 34},
			"t.pas:3:10: error: a digit must follow '.'\n    a := 1.5\n           ^\n",
		},
		{
			"plain",
			errors.New("boom"),
			"t.pas: error: boom\n",
		},
	}
	for _, data := range testData {
		t.Run(data.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewReporter(&buf, record(), false).Error(data.err)
			assert.Equal(t, data.want, buf.String())
		})
	}
}

func TestReporter_Color(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf, record(), true).Error(&ast.SemanticError{Lexeme: token.Lexeme{Value: "a", Offset: 27}, Message: "x"})
	assert.Contains(t, buf.String(), colorRed+"error:"+colorReset)
	assert.Contains(t, buf.String(), colorGreen+"^"+colorReset)
}

func TestReporter_Warn(t *testing.T) {
	cfg := config.NewConfig()
	w := ast.Warning{Kind: config.WarnUnused, Lexeme: token.Lexeme{Value: "a", Type: token.Ident, Offset: 16}, Message: "variable 'a' is declared but never read"}

	var buf bytes.Buffer
	NewReporter(&buf, record(), false).Warn(cfg, w)
	assert.Equal(t, "t.pas:1:17: warning: variable 'a' is declared but never read [-Wunused]\n  program var int a;\n                  ^\n", buf.String())

	buf.Reset()
	cfg.SetWarning(config.WarnUnused, false)
	NewReporter(&buf, record(), false).Warn(cfg, w)
	assert.Empty(t, buf.String())
}
