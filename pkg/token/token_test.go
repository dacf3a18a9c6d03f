package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionalCodes(t *testing.T) {
	assert.Len(t, Keywords, 18)
	assert.Len(t, Limiters, 23)
	for i := range Keywords {
		typ, err := FromCode(KeywordCat, i)
		assert.NoError(t, err)
		assert.Equal(t, Type(i), typ)
		assert.True(t, typ.IsKeyword())
	}
	for i := range Limiters {
		typ, err := FromCode(LimiterCat, i)
		assert.NoError(t, err)
		assert.Equal(t, Type(len(Keywords)+i), typ)
		assert.True(t, typ.IsLimiter())
	}
	assert.Equal(t, Type(17), Writeln)
	assert.Equal(t, Type(18), Neq)
	assert.Equal(t, Type(39), Assign)
	assert.Equal(t, Type(40), EOF)
	assert.Equal(t, EOF+1, Number)
	assert.Equal(t, Number+1, Ident)
}

func TestFromCode_OutOfRange(t *testing.T) {
	_, err := FromCode(KeywordCat, 18)
	assert.Error(t, err)
	_, err = FromCode(LimiterCat, -1)
	assert.Error(t, err)
	_, err = FromCode(Category(0), 0)
	assert.Error(t, err)
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "keyword 'begin'", Begin.String())
	assert.Equal(t, "':='", Assign.String())
	assert.Equal(t, "end of input", EOF.String())
	assert.Equal(t, "identifier", Ident.String())
	assert.Equal(t, 2, Lexeme{Value: "<="}.Len())
}
