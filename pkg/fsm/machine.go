// Package fsm is a table-driven automaton that reads one symbol at a time
// from a pull-based source. The first transition whose pattern fully matches
// the current symbol wins.
package fsm

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrFinished        = errors.New("fsm: machine already reached END")
	ErrSourceExhausted = errors.New("fsm: symbol source exhausted before END")
)

// LexicalError is raised by the error action. Pointer is the offset of the
// symbol being examined.
type LexicalError struct {
	Message string
	Pointer int
}

func (e *LexicalError) Error() string { return e.Message }

// NoTransitionError means the table is not total over the input alphabet.
type NoTransitionError struct {
	State   string
	Symbol  rune
	Pointer int
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("fsm: state %q has no transition for %q at offset %d", e.State, e.Symbol, e.Pointer)
}

type ActionFunc func(m *Machine, tr *Transition) error

type Machine struct {
	table    *Table
	src      Source
	sentinel rune

	state     string
	acc       []rune
	pointer   int
	current   rune
	started   bool
	exhausted bool
	finished  bool
	// set when the current symbol was appended during the running step
	accumulated bool

	actions  [actionCount]ActionFunc
	onFinish func(m *Machine) error
}

func NewMachine(table *Table, src Source, sentinel rune) *Machine {
	m := &Machine{table: table, src: src, sentinel: sentinel, state: table.Initial}
	for a := Action(0); a < actionCount; a++ {
		a := a
		m.actions[a] = func(*Machine, *Transition) error {
			return fmt.Errorf("fsm: action %s is not bound", a)
		}
	}
	m.actions[NoOp] = func(*Machine, *Transition) error { return nil }
	m.actions[Accumulate] = func(m *Machine, _ *Transition) error {
		m.acc = append(m.acc, m.current)
		m.accumulated = true
		return nil
	}
	m.actions[RaiseError] = func(m *Machine, tr *Transition) error {
		return &LexicalError{Message: m.expand(tr.ErrorTemplate), Pointer: m.pointer}
	}
	return m
}

// Bind installs the handler for a token-finalizing action.
func (m *Machine) Bind(a Action, fn ActionFunc) { m.actions[a] = fn }

// OnFinish installs the hook run once END is reached.
func (m *Machine) OnFinish(fn func(m *Machine) error) { m.onFinish = fn }

func (m *Machine) State() string         { return m.state }
func (m *Machine) Pointer() int          { return m.pointer }
func (m *Machine) Symbol() rune          { return m.current }
func (m *Machine) Finished() bool        { return m.finished }
func (m *Machine) Accumulator() string   { return string(m.acc) }
func (m *Machine) AccumulatedLen() int   { return len(m.acc) }
func (m *Machine) ClearAccumulator()     { m.acc = m.acc[:0] }
func (m *Machine) ConsumedCurrent() bool { return m.accumulated }

func (m *Machine) expand(template string) string {
	sym := string(m.current)
	if m.current == m.sentinel {
		sym = "end of input"
	}
	return strings.NewReplacer("$acc", string(m.acc), "$s", sym).Replace(template)
}

func (m *Machine) pull() error {
	r, err := m.src.Next()
	switch {
	case err == nil:
		m.current = r
	case errors.Is(err, io.EOF):
		m.exhausted = true
	case errors.Is(err, ErrReservedSymbol):
		return &LexicalError{
			Message: fmt.Sprintf("symbol '%c' is reserved and may not appear in the program text", m.sentinel),
			Pointer: m.pointer,
		}
	default:
		return fmt.Errorf("fsm: reading symbol %d: %w", m.pointer, err)
	}
	return nil
}

// Step executes exactly one transition.
func (m *Machine) Step() error {
	if m.finished {
		return ErrFinished
	}
	if !m.started {
		m.started = true
		if err := m.pull(); err != nil {
			return err
		}
	}
	if m.exhausted {
		return fmt.Errorf("%w (state %q)", ErrSourceExhausted, m.state)
	}
	tr := m.table.match(m.state, m.current)
	if tr == nil {
		return &NoTransitionError{State: m.state, Symbol: m.current, Pointer: m.pointer}
	}
	m.accumulated = false
	for _, a := range tr.Actions {
		if err := m.actions[a](m, tr); err != nil {
			return err
		}
	}
	m.state = tr.Next
	if tr.Advance {
		m.pointer++
		if err := m.pull(); err != nil {
			return err
		}
	}
	if m.state == EndState {
		m.finished = true
		if m.onFinish != nil {
			return m.onFinish(m)
		}
	}
	return nil
}

// Run steps until END or the first error.
func (m *Machine) Run() error {
	for !m.finished {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}
