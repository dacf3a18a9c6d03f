package fsm

import (
	"errors"
	"io"
)

var ErrReservedSymbol = errors.New("fsm: reserved sentinel symbol in input")

// Source yields symbols lazily. It returns io.EOF once exhausted.
type Source interface {
	Next() (rune, error)
}

type runeSource struct {
	r        io.RuneReader
	sentinel rune
	done     bool
}

// NewRuneSource streams r and appends the sentinel after the last rune.
func NewRuneSource(r io.RuneReader, sentinel rune) Source {
	return &runeSource{r: r, sentinel: sentinel}
}

func (s *runeSource) Next() (rune, error) {
	if s.done {
		return 0, io.EOF
	}
	ch, _, err := s.r.ReadRune()
	if errors.Is(err, io.EOF) {
		s.done = true
		return s.sentinel, nil
	}
	if err != nil {
		return 0, err
	}
	if ch == s.sentinel {
		return 0, ErrReservedSymbol
	}
	return ch, nil
}
