package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xplshn/pasfe/pkg/config"
	"github.com/xplshn/pasfe/pkg/lexer"
)

func newTestDriver(t *testing.T) (*driver, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	table, err := lexer.DefaultTable()
	require.NoError(t, err)
	var stdout, stderr bytes.Buffer
	return &driver{cfg: config.NewConfig(), table: table, stdout: &stdout, stderr: &stderr}, &stdout, &stderr
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCompileFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.pas", "program var int a; begin a := 1; writeln a end.")
	bad := writeFile(t, dir, "bad.pas", "program var int a;\nbegin\n  a := true\nend.")

	d, stdout, stderr := newTestDriver(t)
	err := d.compileFiles(context.Background(), []string{good, bad, filepath.Join(dir, "missing.pas")})
	require.EqualError(t, err, "2 of 3 file(s) failed")
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), bad+":3:3: error: type mismatch in assignment: 'a' is int, the expression is bool")
	assert.Contains(t, stderr.String(), "could not read file")
}

func TestCompileFiles_TreeAndWarnings(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "w.pas", "program var int a, b; begin a := 1; writeln a end.")

	d, stdout, stderr := newTestDriver(t)
	d.verbose = true
	d.cfg.SetFeature(config.FeatTree, true)
	require.NoError(t, d.compileFiles(context.Background(), []string{path}))
	assert.Contains(t, stdout.String(), "Description[int](a, b)")
	assert.Contains(t, stderr.String(), "warning: variable 'b' is declared but never read [-Wunused]")
	assert.Contains(t, stderr.String(), "pasfe: info: "+path+": 2 variable(s), 1 number(s), 1 warning(s)")
}

func TestCompileFiles_DumpTokens(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "t.pas", "program var int x; begin x := 42 end.")

	d, stdout, _ := newTestDriver(t)
	d.dumpTokens = true
	require.NoError(t, d.compileFiles(context.Background(), []string{path}))
	assert.Contains(t, stdout.String(), "identifier")
	assert.Contains(t, stdout.String(), "numbers:     42\n")
	assert.Contains(t, stdout.String(), "identifiers: x\n")
	assert.Contains(t, stdout.String(), "end of input")
}

func TestWriteTable(t *testing.T) {
	d, _, _ := newTestDriver(t)
	var buf bytes.Buffer
	writeTable(&buf, d.table)
	assert.Contains(t, buf.String(), "initial:     IN\n")
	assert.Contains(t, buf.String(), "fingerprint: ")
}

type scriptedReader struct {
	lines   []string
	history []string
}

func (r *scriptedReader) Prompt(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) AppendHistory(item string) { r.history = append(r.history, item) }

func TestLoop(t *testing.T) {
	d, stdout, stderr := newTestDriver(t)
	ln := &scriptedReader{lines: []string{
		"",
		"program var int a;",
		"begin a := 1; writeln a",
		"end.",
		"program var int a; begin writeln a end.",
	}}
	d.loop(ln)
	assert.Equal(t, "ok\n", stdout.String())
	assert.Contains(t, stderr.String(), "<stdin:2>:1:34: error: variable 'a' is used before initialization")
	assert.Len(t, ln.history, 4)
}
