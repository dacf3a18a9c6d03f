// Package symtab implements the lexical symbol table: four ordered categories
// (keywords, limiters, numbers, identifiers) with stable indices.
package symtab

import (
	"fmt"

	"github.com/xplshn/pasfe/pkg/token"
)

type category struct {
	items []string
	index map[string]int
}

func newCategory(items []string) *category {
	c := &category{items: make([]string, 0, len(items)), index: make(map[string]int, len(items))}
	for _, it := range items {
		c.add(it)
	}
	return c
}

func (c *category) add(s string) int {
	if i, ok := c.index[s]; ok {
		return i
	}
	c.items = append(c.items, s)
	c.index[s] = len(c.items) - 1
	return len(c.items) - 1
}

func (c *category) lookup(s string) (int, bool) {
	i, ok := c.index[s]
	return i, ok
}

// Table is owned by a single compile. Keywords and limiters are fixed at
// construction, numbers and identifiers grow while lexing.
type Table struct {
	keywords    *category
	limiters    *category
	numbers     *category
	identifiers *category
}

func New() *Table {
	return &Table{
		keywords:    newCategory(token.Keywords),
		limiters:    newCategory(token.Limiters),
		numbers:     newCategory(nil),
		identifiers: newCategory(nil),
	}
}

func (t *Table) IsKeyword(s string) bool {
	_, ok := t.keywords.lookup(s)
	return ok
}

// AddNumber registers a numeric literal if new and returns its index.
func (t *Table) AddNumber(s string) int { return t.numbers.add(s) }

// AddIdentifier registers a non-keyword identifier if new and returns its index.
func (t *Table) AddIdentifier(s string) int { return t.identifiers.add(s) }

// Raw builds the raw token reference for s, searching keywords, limiters,
// numbers and identifiers in that order.
func (t *Table) Raw(s string, offset int) (token.RawToken, error) {
	for _, c := range []struct {
		cat token.Category
		tbl *category
	}{
		{token.KeywordCat, t.keywords},
		{token.LimiterCat, t.limiters},
		{token.NumberCat, t.numbers},
		{token.IdentCat, t.identifiers},
	} {
		if i, ok := c.tbl.lookup(s); ok {
			return token.RawToken{Category: c.cat, Index: i, Offset: offset}, nil
		}
	}
	return token.RawToken{}, fmt.Errorf("symbol table: %q is not registered", s)
}

// Resolve turns a raw token reference into a full Lexeme.
func (t *Table) Resolve(raw token.RawToken) (token.Lexeme, error) {
	typ, err := token.FromCode(raw.Category, raw.Index)
	if err != nil {
		return token.Lexeme{}, fmt.Errorf("symbol table: %w", err)
	}
	c := t.category(raw.Category)
	if raw.Index < 0 || raw.Index >= len(c.items) {
		return token.Lexeme{}, fmt.Errorf("symbol table: index %d out of range for %s", raw.Index, raw.Category)
	}
	return token.Lexeme{Value: c.items[raw.Index], Type: typ, Offset: raw.Offset}, nil
}

func (t *Table) category(cat token.Category) *category {
	switch cat {
	case token.KeywordCat:
		return t.keywords
	case token.LimiterCat:
		return t.limiters
	case token.NumberCat:
		return t.numbers
	default:
		return t.identifiers
	}
}

func (t *Table) Keywords() []string    { return append([]string(nil), t.keywords.items...) }
func (t *Table) Limiters() []string    { return append([]string(nil), t.limiters.items...) }
func (t *Table) Numbers() []string     { return append([]string(nil), t.numbers.items...) }
func (t *Table) Identifiers() []string { return append([]string(nil), t.identifiers.items...) }
