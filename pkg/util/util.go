// Package util renders compiler diagnostics against the source they refer to.
package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/xplshn/pasfe/pkg/ast"
	"github.com/xplshn/pasfe/pkg/config"
	"github.com/xplshn/pasfe/pkg/fsm"
	"github.com/xplshn/pasfe/pkg/parser"
)

const (
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorReset  = "\033[0m"
)

// SourceFileRecord tracks the name and content of a single source file.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

// Reporter writes diagnostics for one source file.
type Reporter struct {
	out   io.Writer
	file  SourceFileRecord
	color bool
}

func NewReporter(out io.Writer, file SourceFileRecord, color bool) *Reporter {
	return &Reporter{out: out, file: file, color: color}
}

// UseColor reports whether diagnostics written to f should be colorized.
func UseColor(f *os.File, cfg *config.Config) bool {
	return cfg.IsFeatureEnabled(config.FeatColor) && term.IsTerminal(int(f.Fd()))
}

func (r *Reporter) paint(color, s string) string {
	if !r.color {
		return s
	}
	return color + s + colorReset
}

// Position converts a rune offset into a 1-based line and column.
func Position(content []rune, offset int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < offset && i < len(content); i++ {
		if content[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// printErrorLine prints the source line holding offset and a caret under it
func (r *Reporter) printErrorLine(offset, length int) {
	content := r.file.Content
	if offset < 0 || offset > len(content) {
		return
	}

	lineStart := offset
	for lineStart > 0 && content[lineStart-1] != '\n' {
		lineStart--
	}
	lineEnd := offset
	for lineEnd < len(content) && content[lineEnd] != '\n' {
		lineEnd++
	}

	fmt.Fprintf(r.out, "  %s\n", strings.TrimRight(string(content[lineStart:lineEnd]), "\r"))

	caret := "^"
	if length > 1 {
		caret += strings.Repeat("~", length-1)
	}
	fmt.Fprintf(r.out, "  %s%s\n", strings.Repeat(" ", offset-lineStart), r.paint(colorGreen, caret))
}

func (r *Reporter) report(kind, color string, offset, length int, message, suffix string) {
	line, col := Position(r.file.Content, offset)
	fmt.Fprintf(r.out, "%s:%d:%d: %s %s%s\n", r.file.Name, line, col, r.paint(color, kind+":"), message, suffix)
	r.printErrorLine(offset, length)
}

// Error prints err at the location it carries. Errors without a location are
// printed as a plain line.
func (r *Reporter) Error(err error) {
	var (
		lexErr  *fsm.LexicalError
		synErr  *parser.SyntaxError
		semErr  *ast.SemanticError
		noTrErr *fsm.NoTransitionError
	)
	switch {
	case errors.As(err, &lexErr):
		r.report("error", colorRed, lexErr.Pointer, 1, lexErr.Message, "")
	case errors.As(err, &synErr):
		r.report("error", colorRed, synErr.Lexeme.Offset, synErr.Lexeme.Len(), synErr.Message, "")
	case errors.As(err, &semErr):
		r.report("error", colorRed, semErr.Lexeme.Offset, semErr.Lexeme.Len(), semErr.Message, "")
	case errors.As(err, &noTrErr):
		r.report("error", colorRed, noTrErr.Pointer, 1, noTrErr.Error(), "")
	default:
		fmt.Fprintf(r.out, "%s: %s %v\n", r.file.Name, r.paint(colorRed, "error:"), err)
	}
}

// Warn prints a checker warning tagged with the flag that controls it.
func (r *Reporter) Warn(cfg *config.Config, w ast.Warning) {
	if !cfg.IsWarningEnabled(w.Kind) {
		return
	}
	r.report("warning", colorYellow, w.Lexeme.Offset, w.Lexeme.Len(), w.Message, fmt.Sprintf(" [-W%s]", cfg.Warnings[w.Kind].Name))
}
