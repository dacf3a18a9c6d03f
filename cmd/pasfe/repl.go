package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/xplshn/pasfe/pkg/compiler"
	"github.com/xplshn/pasfe/pkg/util"
)

const (
	historyFile = ".pasfe_history"
	promptMain  = "pasfe> "
	promptCont  = "...... "
)

// lineReader is satisfied by *liner.State.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// repl reads programs line by line and compiles each one as soon as it is
// complete.
func (d *driver) repl() error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(d.stdout, "Enter a program terminated by '.', Ctrl+D exits.")
	d.loop(ln)
	return nil
}

func (d *driver) loop(ln lineReader) {
	for n := 1; ; n++ {
		src, ok := d.readProgram(ln)
		if !ok {
			return
		}
		out := &fileOutput{}
		d.compileSource(out, util.SourceFileRecord{Name: fmt.Sprintf("<stdin:%d>", n), Content: []rune(src)})
		if !out.failed && out.stdout.Len() == 0 {
			out.stdout.WriteString("ok\n")
		}
		io.Copy(d.stdout, &out.stdout)
		io.Copy(d.stderr, &out.stderr)
	}
}

// readProgram accumulates lines until they lex as a complete program. An
// aborted line discards the pending input.
func (d *driver) readProgram(ln lineReader) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}
		if strings.TrimSpace(line) == "" && b.Len() == 0 {
			continue
		}
		ln.AppendHistory(line)
		b.WriteString(line)
		b.WriteByte('\n')

		src := b.String()
		_, _, err = compiler.Tokenize(strings.NewReader(src), d.table, d.cfg)
		if err != nil && compiler.IsIncomplete(err, src) {
			continue
		}
		return src, true
	}
}
