package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/xplshn/pasfe/pkg/cli"
	"github.com/xplshn/pasfe/pkg/compiler"
	"github.com/xplshn/pasfe/pkg/config"
	"github.com/xplshn/pasfe/pkg/util"
)

func main() {
	app := cli.NewApp("pasfe")
	app.Synopsis = "[options] <input.pas> ..."
	app.Description = "A front end for a small Pascal-like language: a table-driven lexer, a recursive-descent parser and a type and initialization checker."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/pasfe>"
	app.Since = 2025

	var (
		std         string
		statesPath  string
		dumpTokens  bool
		dumpTable   bool
		verbose     bool
		interactive bool
		pedantic    bool
	)

	fs := app.FlagSet
	fs.String(&statesPath, "states", "s", "", "Load the lexer transition table from <file>.", "file")
	fs.String(&std, "std", "", "classic", "Specify language standard (classic, strict)", "std")
	fs.Bool(&dumpTokens, "dump-tokens", "t", false, "Print the lexemes and the symbol table instead of compiling.")
	fs.Bool(&dumpTable, "dump-table", "", false, "Print a summary of the transition table and exit.")
	fs.Bool(&verbose, "verbose", "v", false, "Report what the front end does on stderr.")
	fs.Bool(&interactive, "interactive", "i", false, "Read programs from the terminal and check each one.")
	fs.Bool(&pedantic, "pedantic", "", false, "Issue all warnings demanded by the current std.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		// Pedantic flag affects everything else
		if pedantic {
			cfg.SetWarning(config.WarnPedantic, true)
		}
		if err := cfg.ApplyStd(std); err != nil {
			return fail(err)
		}
		// Environment flags sit between the standard and the command line
		cfg.ProcessEnvFlags(os.Getenv("PASFE_FLAGS"))
		cfg.ApplyFlagGroups(warningFlags, featureFlags)
		cfg.StatesPath = statesPath

		d := &driver{
			cfg:        cfg,
			dumpTokens: dumpTokens,
			verbose:    verbose,
			color:      util.UseColor(os.Stderr, cfg),
			stdout:     os.Stdout,
			stderr:     os.Stderr,
		}

		table, err := compiler.LoadTable(cfg)
		if err != nil {
			return fail(err)
		}
		d.table = table
		d.infof(os.Stderr, "std=%s, transition table %016x (%d states)", cfg.StdName, table.Fingerprint(), len(table.StateNames()))

		switch {
		case dumpTable:
			writeTable(os.Stdout, table)
			return nil
		case interactive:
			return d.repl()
		case len(inputFiles) == 0:
			return fail(errors.New("no input files specified"))
		}

		d.infof(os.Stderr, "compiling %d source file(s)", len(inputFiles))
		if err := d.compileFiles(context.Background(), inputFiles); err != nil {
			d.infof(os.Stderr, "%v", err)
			return err
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func fail(err error) error {
	fmt.Fprintf(os.Stderr, "pasfe: error: %v\n", err)
	return err
}
