package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/xplshn/pasfe/pkg/compiler"
	"github.com/xplshn/pasfe/pkg/config"
	"github.com/xplshn/pasfe/pkg/fsm"
	"github.com/xplshn/pasfe/pkg/symtab"
	"github.com/xplshn/pasfe/pkg/token"
	"github.com/xplshn/pasfe/pkg/util"
)

// driver compiles input files and reports the results.
type driver struct {
	cfg        *config.Config
	table      *fsm.Table
	dumpTokens bool
	verbose    bool
	color      bool
	stdout     io.Writer
	stderr     io.Writer
}

// fileOutput buffers what one file prints so concurrent compiles do not
// interleave.
type fileOutput struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
	failed bool
}

func (d *driver) infof(w io.Writer, format string, args ...interface{}) {
	if d.verbose {
		fmt.Fprintf(w, "pasfe: info: "+format+"\n", args...)
	}
}

// compileFiles compiles every path concurrently and flushes the output in
// input order.
func (d *driver) compileFiles(ctx context.Context, paths []string) error {
	outputs := make([]*fileOutput, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out := &fileOutput{}
			outputs[i] = out
			content, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(&out.stderr, "pasfe: error: could not read file '%s': %v\n", path, err)
				out.failed = true
				return nil
			}
			d.compileSource(out, util.SourceFileRecord{Name: path, Content: []rune(string(content))})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for _, out := range outputs {
		io.Copy(d.stdout, &out.stdout)
		io.Copy(d.stderr, &out.stderr)
		if out.failed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(paths))
	}
	return nil
}

func (d *driver) compileSource(out *fileOutput, rec util.SourceFileRecord) {
	rep := util.NewReporter(&out.stderr, rec, d.color)
	src := strings.NewReader(string(rec.Content))

	if d.dumpTokens {
		lexemes, syms, err := compiler.Tokenize(src, d.table, d.cfg)
		writeTokens(&out.stdout, lexemes, syms)
		if err != nil {
			rep.Error(err)
			out.failed = true
		}
		return
	}

	res, err := compiler.Compile(src, d.table, d.cfg)
	if err != nil {
		rep.Error(err)
		out.failed = true
		return
	}
	for _, w := range res.Warnings {
		rep.Warn(d.cfg, w)
	}
	if d.cfg.IsFeatureEnabled(config.FeatTree) {
		out.stdout.WriteString(res.Tree.Render())
	}
	d.infof(&out.stderr, "%s: %d variable(s), %d number(s), %d warning(s)",
		rec.Name, len(res.Tree.Variables()), len(res.Symbols.Numbers()), len(res.Warnings))
}

func writeTokens(w io.Writer, lexemes []token.Lexeme, syms *symtab.Table) {
	for _, l := range lexemes {
		fmt.Fprintf(w, "%6d  %-20s %s\n", l.Offset, l.Type, l.Value)
	}
	fmt.Fprintf(w, "numbers:     %s\n", strings.Join(syms.Numbers(), " "))
	fmt.Fprintf(w, "identifiers: %s\n", strings.Join(syms.Identifiers(), " "))
}

func writeTable(w io.Writer, table *fsm.Table) {
	states := table.StateNames()
	transitions := 0
	for _, s := range states {
		transitions += len(table.States[s])
	}
	fmt.Fprintf(w, "initial:     %s\n", table.Initial)
	fmt.Fprintf(w, "states:      %d\n", len(states))
	fmt.Fprintf(w, "transitions: %d\n", transitions)
	fmt.Fprintf(w, "fingerprint: %016x\n", table.Fingerprint())
	for _, s := range states {
		fmt.Fprintf(w, "  %-20s %d\n", s, len(table.States[s]))
	}
}
