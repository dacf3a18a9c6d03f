package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/pasfe/pkg/token"
)

func TestTable_RawAndResolve(t *testing.T) {
	tbl := New()
	testData := []struct {
		text string
		cat  token.Category
		typ  token.Type
	}{
		{"program", token.KeywordCat, token.Program},
		{"writeln", token.KeywordCat, token.Writeln},
		{"!=", token.LimiterCat, token.Neq},
		{":=", token.LimiterCat, token.Assign},
		{"@", token.LimiterCat, token.EOF},
	}
	for _, data := range testData {
		raw, err := tbl.Raw(data.text, 7)
		require.NoError(t, err, data.text)
		assert.Equal(t, data.cat, raw.Category, data.text)
		lex, err := tbl.Resolve(raw)
		require.NoError(t, err)
		assert.Equal(t, token.Lexeme{Value: data.text, Type: data.typ, Offset: 7}, lex)
	}
}

func TestTable_GrowsNumbersAndIdentifiers(t *testing.T) {
	tbl := New()
	assert.Equal(t, 0, tbl.AddIdentifier("a"))
	assert.Equal(t, 1, tbl.AddIdentifier("b"))
	assert.Equal(t, 0, tbl.AddIdentifier("a"))
	assert.Equal(t, 0, tbl.AddNumber("10"))
	assert.Equal(t, 1, tbl.AddNumber("1.5"))
	assert.Equal(t, []string{"a", "b"}, tbl.Identifiers())
	assert.Equal(t, []string{"10", "1.5"}, tbl.Numbers())

	raw, err := tbl.Raw("b", 3)
	require.NoError(t, err)
	assert.Equal(t, token.RawToken{Category: token.IdentCat, Index: 1, Offset: 3}, raw)

	lex, err := tbl.Resolve(token.RawToken{Category: token.NumberCat, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, token.Number, lex.Type)
	assert.Equal(t, "1.5", lex.Value)
}

func TestTable_Unknown(t *testing.T) {
	tbl := New()
	_, err := tbl.Raw("nope", 0)
	assert.Error(t, err)
	_, err = tbl.Resolve(token.RawToken{Category: token.IdentCat, Index: 4})
	assert.Error(t, err)
	_, err = tbl.Resolve(token.RawToken{Category: 9})
	assert.Error(t, err)
}

func TestTable_KeywordsAreNotIdentifiers(t *testing.T) {
	tbl := New()
	assert.True(t, tbl.IsKeyword("while"))
	assert.False(t, tbl.IsKeyword("whilst"))
	assert.Len(t, tbl.Keywords(), 18)
	assert.Len(t, tbl.Limiters(), 23)
}

func TestTables_AreIndependent(t *testing.T) {
	a, b := New(), New()
	a.AddIdentifier("x")
	assert.Empty(t, b.Identifiers())
}
