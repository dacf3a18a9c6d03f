package fsm

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// EndState terminates a run.
const EndState = "END"

type Action int

const (
	NoOp Action = iota
	Accumulate
	AddNumber
	AddLimiter
	AddIdentifier
	RaiseError
	actionCount
)

var actionNames = [actionCount]string{"no_command", "acc", "add_number", "add_limiter", "add_identifier", "error"}

var actionLookup = map[string]Action{
	"no_command":                     NoOp,
	"no-op":                          NoOp,
	"acc":                            Accumulate,
	"accumulate":                     Accumulate,
	"add_number":                     AddNumber,
	"finalize-number":                AddNumber,
	"add_limiter":                    AddLimiter,
	"finalize-limiter":               AddLimiter,
	"add_identifier":                 AddIdentifier,
	"finalize-identifier-or-keyword": AddIdentifier,
	"error":                          RaiseError,
	"raise-error":                    RaiseError,
}

func (a Action) String() string {
	if a >= 0 && a < actionCount {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction resolves a table action name.
func ParseAction(name string) (Action, error) {
	if a, ok := actionLookup[strings.TrimSpace(name)]; ok {
		return a, nil
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

type Transition struct {
	Source        string
	Pattern       *regexp.Regexp
	Next          string
	Actions       []Action
	Advance       bool
	ErrorTemplate string
}

// Matches reports whether the pattern fully matches the single symbol.
func (tr *Transition) Matches(sym rune) bool { return tr.Pattern.MatchString(string(sym)) }

// Table maps each state to its transitions in declaration order. It is not
// modified after Load, so one Table may drive any number of machines.
type Table struct {
	Initial string
	States  map[string][]Transition
	order   []string
}

func NewTable(initial string) *Table {
	return &Table{Initial: initial, States: make(map[string][]Transition)}
}

// Add appends a transition to state, declaring the state on first use.
func (t *Table) Add(state, pattern, next string, actions []Action, advance bool, errTemplate string) error {
	re, err := compilePattern(pattern)
	if err != nil {
		return fmt.Errorf("state %q: %w", state, err)
	}
	t.declare(state)
	for _, tr := range t.States[state] {
		if tr.Source == pattern {
			return fmt.Errorf("state %q: duplicate pattern %q", state, pattern)
		}
	}
	t.States[state] = append(t.States[state], Transition{
		Source: pattern, Pattern: re, Next: next,
		Actions: append([]Action(nil), actions...), Advance: advance, ErrorTemplate: errTemplate,
	})
	return nil
}

func (t *Table) declare(state string) {
	if _, ok := t.States[state]; !ok {
		t.States[state] = nil
		t.order = append(t.order, state)
	}
}

// StateNames returns the states in declaration order.
func (t *Table) StateNames() []string { return append([]string(nil), t.order...) }

func compilePattern(p string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + p + `)$`)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", p, err)
	}
	return re, nil
}

// Load reads the persisted table format:
//
//	{"STATE": {"pattern": [next, "act1,act2", advance, template|null, ...], ...}, ...}
//
// The order of the inner objects is kept, since the first matching pattern wins.
func Load(r io.Reader, initial string) (*Table, error) {
	dec := json.NewDecoder(r)
	t := NewTable(initial)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	for dec.More() {
		state, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		if _, dup := t.States[state]; dup {
			return nil, fmt.Errorf("fsm: state %q declared twice", state)
		}
		t.declare(state)
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		for dec.More() {
			pattern, err := stringToken(dec)
			if err != nil {
				return nil, err
			}
			var tuple []json.RawMessage
			if err := dec.Decode(&tuple); err != nil {
				return nil, fmt.Errorf("fsm: state %q pattern %q: %w", state, pattern, err)
			}
			if err := t.addTuple(state, pattern, tuple); err != nil {
				return nil, fmt.Errorf("fsm: %w", err)
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) addTuple(state, pattern string, tuple []json.RawMessage) error {
	if len(tuple) < 3 {
		return fmt.Errorf("state %q pattern %q: expected [next, actions, advance, template?], got %d elements", state, pattern, len(tuple))
	}
	var next, names string
	var advance bool
	if err := json.Unmarshal(tuple[0], &next); err != nil {
		return fmt.Errorf("state %q pattern %q: next state: %w", state, pattern, err)
	}
	if err := json.Unmarshal(tuple[1], &names); err != nil {
		return fmt.Errorf("state %q pattern %q: actions: %w", state, pattern, err)
	}
	if err := json.Unmarshal(tuple[2], &advance); err != nil {
		return fmt.Errorf("state %q pattern %q: advance: %w", state, pattern, err)
	}
	var template *string
	if len(tuple) > 3 {
		if err := json.Unmarshal(tuple[3], &template); err != nil {
			return fmt.Errorf("state %q pattern %q: error template: %w", state, pattern, err)
		}
	}
	var actions []Action
	for _, name := range strings.Split(names, ",") {
		a, err := ParseAction(name)
		if err != nil {
			return fmt.Errorf("state %q pattern %q: %w", state, pattern, err)
		}
		actions = append(actions, a)
	}
	tmpl := ""
	if template != nil {
		tmpl = *template
	}
	return t.Add(state, pattern, next, actions, advance, tmpl)
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("fsm: reading table: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("fsm: reading table: expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("fsm: reading table: %w", err)
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("fsm: reading table: expected a key, got %v", tok)
	}
	return s, nil
}

// DefaultProbe is the symbol set Validate checks every state against.
func DefaultProbe(sentinel rune) string {
	var sb strings.Builder
	for r := rune(0x20); r < 0x7f; r++ {
		sb.WriteRune(r)
	}
	sb.WriteString("\t\n\ré")
	sb.WriteRune(sentinel)
	return sb.String()
}

// Validate checks the table for configuration errors: unknown next states,
// error transitions without a template and states that leave a probe symbol
// unmatched.
func (t *Table) Validate(probe string) error {
	if _, ok := t.States[t.Initial]; !ok {
		return fmt.Errorf("fsm: initial state %q is not declared", t.Initial)
	}
	for _, state := range t.order {
		for _, tr := range t.States[state] {
			if _, ok := t.States[tr.Next]; !ok && tr.Next != EndState {
				return fmt.Errorf("fsm: state %q pattern %q: unknown next state %q", state, tr.Source, tr.Next)
			}
			for _, a := range tr.Actions {
				if a == RaiseError && tr.ErrorTemplate == "" {
					return fmt.Errorf("fsm: state %q pattern %q: error action without a message", state, tr.Source)
				}
			}
		}
		for _, sym := range probe {
			if t.match(state, sym) == nil {
				return fmt.Errorf("fsm: state %q has no transition for %q", state, sym)
			}
		}
	}
	return nil
}

func (t *Table) match(state string, sym rune) *Transition {
	trs := t.States[state]
	for i := range trs {
		if trs[i].Matches(sym) {
			return &trs[i]
		}
	}
	return nil
}

// Fingerprint hashes the table contents in declaration order.
func (t *Table) Fingerprint() uint64 {
	h := xxhash.New()
	fmt.Fprintf(h, "%s\x00", t.Initial)
	for _, state := range t.order {
		fmt.Fprintf(h, "%s\x00", state)
		for _, tr := range t.States[state] {
			fmt.Fprintf(h, "%s\x00%s\x00%v\x00%t\x00%s\x00", tr.Source, tr.Next, tr.Actions, tr.Advance, tr.ErrorTemplate)
		}
	}
	return h.Sum64()
}
