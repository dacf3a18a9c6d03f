package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/pasfe/pkg/ast"
	"github.com/xplshn/pasfe/pkg/config"
	"github.com/xplshn/pasfe/pkg/fsm"
	"github.com/xplshn/pasfe/pkg/lexer"
	"github.com/xplshn/pasfe/pkg/parser"
	"github.com/xplshn/pasfe/pkg/token"
)

func compile(t *testing.T, cfg *config.Config, src string) (*Result, error) {
	t.Helper()
	if cfg == nil {
		cfg = config.NewConfig()
	}
	table, err := LoadTable(cfg)
	require.NoError(t, err)
	return Compile(strings.NewReader(src), table, cfg)
}

func semanticErr(t *testing.T, err error) *ast.SemanticError {
	t.Helper()
	var semErr *ast.SemanticError
	require.True(t, errors.As(err, &semErr), "expected a semantic error, got %v", err)
	return semErr
}

func TestCompile_Scenario(t *testing.T) {
	res, err := compile(t, nil, "program var int a, b; begin a := 1; b := a + 2; writeln b end.")
	require.NoError(t, err)
	root := res.Tree.Root.Data.(ast.ProgramNode)

	require.Len(t, root.Descriptions, 1)
	desc := root.Descriptions[0].Data.(ast.DescriptionNode)
	assert.Equal(t, ast.TypeInt, desc.Type)
	assert.Equal(t, "a", desc.Names[0].Value)
	assert.Equal(t, "b", desc.Names[1].Value)

	require.Len(t, root.Operators, 3)
	assert.Equal(t, ast.Assignment, root.Operators[0].Type)
	assert.Equal(t, ast.Assignment, root.Operators[1].Type)
	assert.Equal(t, ast.Write, root.Operators[2].Type)

	sum := root.Operators[1].Data.(ast.AssignmentNode).Expr.Data.(ast.ChainNode).Operands[0]
	chain := sum.Data.(ast.ChainNode)
	require.Len(t, chain.Ops, 1)
	assert.Equal(t, token.Plus, chain.Ops[0].Type)
	left := chain.Operands[0].Data.(ast.ChainNode).Operands[0].Data.(ast.FactorNode)
	right := chain.Operands[1].Data.(ast.ChainNode).Operands[0].Data.(ast.FactorNode)
	assert.Equal(t, "a", left.Value.Value)
	assert.Equal(t, token.Ident, left.Value.Type)
	assert.Equal(t, "2", right.Value.Value)
	assert.Equal(t, token.Number, right.Value.Type)

	assert.Empty(t, res.Warnings)
	assert.Equal(t, []string{"a", "b"}, res.Symbols.Identifiers())
}

func TestCompile_Render(t *testing.T) {
	res, err := compile(t, nil, "program var int a, b; begin a := 1; b := a + 2; writeln b end.")
	require.NoError(t, err)
	want := `Program(
  Description[int](a, b)
  Assignment[a](
    Expression(
      Operand(
        Term(
          Factor[int](1)
        )
      )
    )
  )
  Assignment[b](
    Expression(
      Operand(
        Term(
          Factor[int](variable a)
        )
        '+'
        Term(
          Factor[int](2)
        )
      )
    )
  )
  Write(
    Expression(
      Operand(
        Term(
          Factor[int](variable b)
        )
      )
    )
  )
)
`
	if diff := cmp.Diff(want, res.Tree.Render()); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_AssignmentMismatch(t *testing.T) {
	src := "program var bool a; begin a := 1 end."
	_, err := compile(t, nil, src)
	semErr := semanticErr(t, err)
	assert.Equal(t, "a", semErr.Lexeme.Value)
	assert.Equal(t, strings.Index(src, "a :="), semErr.Lexeme.Offset)
	assert.Contains(t, semErr.Message, "type mismatch")
	assert.Contains(t, semErr.Message, "bool")
	assert.Contains(t, semErr.Message, "int")
}

func TestCompile_MissingSemicolon(t *testing.T) {
	src := "program var int a begin a := 1 end."
	_, err := compile(t, nil, src)
	var synErr *parser.SyntaxError
	require.True(t, errors.As(err, &synErr), "got %v", err)
	assert.Equal(t, token.Begin, synErr.Lexeme.Type)
	assert.Equal(t, strings.Index(src, "begin"), synErr.Lexeme.Offset)
}

func TestCompile_MalformedNumber(t *testing.T) {
	src := "program var int a; begin a := 12x end."
	_, err := compile(t, nil, src)
	var lexErr *fsm.LexicalError
	require.True(t, errors.As(err, &lexErr), "got %v", err)
	assert.Equal(t, strings.Index(src, "x end"), lexErr.Pointer)
}

const matrixPrelude = "program var int i; float f; bool q; begin i := 1; f := 1.5; q := true; "

func TestCompile_TypeRuleMatrix(t *testing.T) {
	testData := []struct {
		stmt string
		op   string // empty when the statement must compile
	}{
		{"q := i == i", ""},
		{"q := q != q", ""},
		{"q := f == f", ""},
		{"q := i == f", "=="},
		{"q := i < i", ""},
		{"q := f >= f", ""},
		{"q := q < q", "<"},
		{"q := q <= q", "<="},
		{"q := i > f", ">"},
		{"i := i + i", ""},
		{"f := f - f", ""},
		{"q := q + q", "+"},
		{"i := i - f", "-"},
		{"q := q || q", ""},
		{"q := i || i", "||"},
		{"i := i * i", ""},
		{"f := f / f", ""},
		{"q := q * q", "*"},
		{"q := q / q", "/"},
		{"q := q && q", ""},
		{"q := f && f", "&&"},
		{"q := !q", ""},
		{"q := !i", "!"},
		{"q := !(i < 2)", ""},
		{"i := (i + 1) * 2", ""},
		{"q := i < 2 == true", "=="},
	}
	for _, data := range testData {
		src := matrixPrelude + data.stmt + " end."
		_, err := compile(t, nil, src)
		if data.op == "" {
			assert.NoError(t, err, data.stmt)
			continue
		}
		semErr := semanticErr(t, err)
		assert.Equal(t, data.op, semErr.Lexeme.Value, data.stmt)
		assert.Equal(t, len(matrixPrelude)+strings.Index(data.stmt, data.op), semErr.Lexeme.Offset, data.stmt)
	}
}

func TestCompile_ResultTypes(t *testing.T) {
	testData := []struct {
		stmt string
		ok   bool
	}{
		{"i := i + i", true},
		{"f := i + i", false},
		{"f := f * f", true},
		{"i := f * f", false},
		{"q := i < i", true},
		{"i := i < i", false},
		{"q := q && q", true},
		{"i := 1.5", false},
		{"f := 1e3", true},
		{"i := 1fh", true},
	}
	for _, data := range testData {
		_, err := compile(t, nil, matrixPrelude+data.stmt+" end.")
		if data.ok {
			assert.NoError(t, err, data.stmt)
		} else {
			assert.Contains(t, semanticErr(t, err).Message, "type mismatch", data.stmt)
		}
	}
}

func TestCompile_Initialization(t *testing.T) {
	testData := []struct {
		src string
		ok  bool
	}{
		{"program var int x; begin writeln x end.", false},
		{"program var int x; begin x := 1; writeln x end.", true},
		{"program var int x; begin readln x; writeln x end.", true},
		{"program var int x; begin x := x + 1 end.", false},
		{"program var int x, i; begin for i := 1 to 3 x := i next; writeln x end.", true},
		{"program var int x; bool c; begin c := true; while (c) begin x := 1; c := false end; writeln x end.", true},
		{"program var int x; bool c; begin c := true; if (c) x := 1 else writeln x end.", true},
		{"program var int x; bool c; begin c := true; if (c) x := 1; writeln x end.", true},
		{"program var int x; begin begin x := 2 end; writeln x * x end.", true},
	}
	for _, data := range testData {
		_, err := compile(t, nil, data.src)
		if data.ok {
			assert.NoError(t, err, data.src)
			continue
		}
		semErr := semanticErr(t, err)
		assert.Equal(t, "x", semErr.Lexeme.Value, data.src)
		assert.Contains(t, semErr.Message, "used before initialization", data.src)
	}
}

func TestCompile_Declarations(t *testing.T) {
	res, err := compile(t, nil, "program var int a, b; float c; bool d; begin a := 1; b := a; c := 2.0; d := c > 1.0; writeln b, d end.")
	require.NoError(t, err)
	want := map[string]ast.VarType{"a": ast.TypeInt, "b": ast.TypeInt, "c": ast.TypeFloat, "d": ast.TypeBool}
	for name, typ := range want {
		v, ok := res.Tree.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, typ, v.Type, name)
	}
	var order []string
	for _, v := range res.Tree.Variables() {
		order = append(order, v.Name)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)

	for _, src := range []string{
		"program var int a; float a; begin a := 1 end.",
		"program var int a, a; begin a := 1 end.",
		"program var bool b; int a, c, b; begin a := 1 end.",
	} {
		_, err := compile(t, nil, src)
		semErr := semanticErr(t, err)
		assert.Contains(t, semErr.Message, "already declared", src)
		assert.Equal(t, strings.LastIndex(src[:strings.Index(src, "begin")], semErr.Lexeme.Value), semErr.Lexeme.Offset, src)
	}
}

func TestCompile_Undeclared(t *testing.T) {
	testData := []struct {
		src string
		at  string
	}{
		{"program var int x; begin y := 1 end.", "y :="},
		{"program var int x; begin readln x, y end.", "y end"},
		{"program var int x; begin x := y end.", "y end"},
		{"program var int x; begin x := 1; writeln x + z end.", "z end"},
	}
	for _, data := range testData {
		_, err := compile(t, nil, data.src)
		semErr := semanticErr(t, err)
		assert.Contains(t, semErr.Message, "undeclared variable", data.src)
		assert.Equal(t, strings.Index(data.src, data.at), semErr.Lexeme.Offset, data.src)
	}
}

func TestCompile_Conditions(t *testing.T) {
	testData := []struct {
		src     string
		message string
	}{
		{"program var int x; begin if (1) x := 1 end.", "condition of 'if' must be of type bool"},
		{"program var int x; begin while (x + 1) x := 1 end.", "condition of 'while' must be of type bool"},
		{"program var int i; begin for i := 1 to true writeln i next end.", "bound of 'for'"},
		{"program var int x; bool c; begin if (x > 1) c := true end.", "used before initialization"},
	}
	for _, data := range testData {
		_, err := compile(t, nil, data.src)
		assert.Contains(t, semanticErr(t, err).Message, data.message, data.src)
	}
}

func TestCompile_FixedLoopBound(t *testing.T) {
	src := "program var int i; float f; begin f := 2.5; for i := 1 to f step 1 writeln i next end."
	res, err := compile(t, nil, src)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	cfg := config.NewConfig()
	cfg.SetWarning(config.WarnFloatFor, true)
	res, err = compile(t, cfg, src)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, config.WarnFloatFor, res.Warnings[0].Kind)
	assert.Equal(t, strings.Index(src, "f step"), res.Warnings[0].Lexeme.Offset)

	cfg = config.NewConfig()
	cfg.SetFeature(config.FeatStrictFor, true)
	_, err = compile(t, cfg, src)
	assert.Contains(t, semanticErr(t, err).Message, "must be of type int, got float")
}

func TestCompile_UnusedWarning(t *testing.T) {
	src := "program var int x, y; bool z; begin x := 1; y := 2; writeln x end."
	res, err := compile(t, nil, src)
	require.NoError(t, err)
	var unused []string
	for _, w := range res.Warnings {
		assert.Equal(t, config.WarnUnused, w.Kind)
		unused = append(unused, w.Lexeme.Value)
	}
	assert.Equal(t, []string{"y", "z"}, unused)

	cfg := config.NewConfig()
	cfg.SetWarning(config.WarnUnused, false)
	res, err = compile(t, cfg, src)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}

func TestCompile_SyntaxErrors(t *testing.T) {
	testData := []struct {
		src string
		at  string
		typ token.Type
	}{
		{"var int a; begin a := 1 end.", "var", token.Var},
		{"program int a; begin a := 1 end.", "int", token.Int},
		{"program var a; begin a := 1 end.", "a;", token.Ident},
		{"program var int a; begin a := 1 a := 2 end.", "a := 2", token.Ident},
		{"program var int a; begin a = = 1 end.", "", 0},
		{"program var int a; begin if a > 1 a := 1 end.", "a >", token.Ident},
		{"program var int a; begin a := (1 + 2 end.", "end.", token.End},
		{"program var int a; begin for a := 1 to 2 writeln a end.", "end.", token.End},
		{"program var int a; begin a := 1; end.", "end.", token.End},
		{"program var int a; begin readln 1 end.", "1 end", token.Number},
		{"program var int a; begin a := * 2 end.", "* 2", token.Star},
	}
	for _, data := range testData {
		_, err := compile(t, nil, data.src)
		if data.at == "" {
			var lexErr *fsm.LexicalError
			assert.True(t, errors.As(err, &lexErr), data.src)
			continue
		}
		var synErr *parser.SyntaxError
		require.True(t, errors.As(err, &synErr), "%s: %v", data.src, err)
		assert.Equal(t, data.typ, synErr.Lexeme.Type, data.src)
		assert.Equal(t, strings.Index(data.src, data.at), synErr.Lexeme.Offset, data.src)
	}
}

func TestLoadTable_FromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.json")
	require.NoError(t, os.WriteFile(path, lexer.DefaultStates(), 0o644))
	cfg := config.NewConfig()
	cfg.StatesPath = path
	table, err := LoadTable(cfg)
	require.NoError(t, err)
	def, err := lexer.DefaultTable()
	require.NoError(t, err)
	assert.Equal(t, def.Fingerprint(), table.Fingerprint())

	cfg.StatesPath = filepath.Join(t.TempDir(), "missing.json")
	_, err = LoadTable(cfg)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"IN": {"a": ["IN", "acc", true, null]}}`), 0o644))
	cfg.StatesPath = path
	_, err = LoadTable(cfg)
	assert.ErrorContains(t, err, "no transition for")
}

func TestTokenize(t *testing.T) {
	cfg := config.NewConfig()
	table, err := LoadTable(cfg)
	require.NoError(t, err)
	lexemes, syms, err := Tokenize(strings.NewReader("program var int n; begin n := 0fh end."), table, cfg)
	require.NoError(t, err)
	require.Len(t, lexemes, 11)
	assert.Equal(t, token.EOF, lexemes[len(lexemes)-1].Type)
	assert.Equal(t, []string{"0fh"}, syms.Numbers())
}

func TestIsIncomplete(t *testing.T) {
	testData := []struct {
		src        string
		incomplete bool
	}{
		{"program var int a;\n", true},
		{"program var int a; begin a := 1 end", true},
		{"program { still in a comment", true},
		{"program var int a; begin a := 1 end.", false},
		{"program var int a; begin a := 1x end.", false},
	}
	cfg := config.NewConfig()
	table, err := LoadTable(cfg)
	require.NoError(t, err)
	for _, data := range testData {
		_, _, err := Tokenize(strings.NewReader(data.src), table, cfg)
		assert.Equal(t, data.incomplete, IsIncomplete(err, data.src), data.src)
	}
	assert.False(t, IsIncomplete(errors.New("x"), ""))
}
