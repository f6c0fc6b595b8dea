package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/xplshn/pnc/pkg/compiler"
	"github.com/xplshn/pnc/pkg/config"
	"github.com/xplshn/pnc/pkg/toolchain"
	"github.com/xplshn/pnc/pkg/util"
)

func main() {
	buildCmd := &cli.Command{
		Name:        "build",
		Description: "compile a source file into an executable",
		Action:      buildAct,
		Args:        cli.Args{},
		Flags: withCommonFlags(
			cli.NewFlag("output,o", "a.out", "place the output into <file>"),
			cli.NewFlag("keep", false, "keep the assembly and object files"),
			cli.NewFlag("dump-ir", false, "print the backend input and stop"),
		),
	}

	asmCmd := &cli.Command{
		Name:        "asm",
		Description: "print the generated assembly",
		Action:      asmAct,
		Args:        cli.Args{},
		Flags: withCommonFlags(
			cli.NewFlag("dump-ir", false, "print the backend input instead"),
		),
	}

	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "print the statements and symbol tables",
		Action:      parseAct,
		Args:        cli.Args{},
		Flags:       withCommonFlags(),
	}

	tokensCmd := &cli.Command{
		Name:        "tokens",
		Description: "print the token stream with source spans",
		Action:      tokensAct,
		Args:        cli.Args{},
		Flags:       withCommonFlags(),
	}

	app := &cli.Command{
		Name:        "pnc",
		Description: "pnc compiles pn programs to x86-64 executables",
		Commands: []*cli.Command{
			buildCmd,
			asmCmd,
			parseCmd,
			tokensCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func withCommonFlags(flags ...*cli.Flag) []*cli.Flag {
	return append(flags,
		cli.NewFlag("target,t", config.BackendNASM, "backend and target: nasm, qbe or qbe/<target>"),
		cli.NewFlag("std", "pnx", "language standard: pn or pnx"),
		cli.NewFlag("F", "", "features, e.g. -F no-blocks,comments"),
		cli.NewFlag("W", "", "warnings, e.g. -W no-unused or -W no-all"),
		cli.NewFlag("verbose,v", false, "trace the pipeline to stderr"),
	)
}

// setup builds the configuration from flags and reads the single input file.
func setup(c *cli.Command) (context.Context, *config.Config, util.SourceFile, error) {
	if c.Bool("verbose") {
		tlog.DefaultLogger = tlog.New(tlog.NewConsoleWriter(os.Stderr, tlog.LstdFlags))
	} else {
		tlog.DefaultLogger = nil
	}

	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg := config.NewConfig()

	if err := cfg.ApplyStd(c.String("std")); err != nil {
		return ctx, nil, util.SourceFile{}, err
	}
	if err := cfg.ApplyFeatures(c.String("F")); err != nil {
		return ctx, nil, util.SourceFile{}, err
	}
	if err := cfg.ApplyWarnings(c.String("W")); err != nil {
		return ctx, nil, util.SourceFile{}, err
	}
	if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, c.String("target")); err != nil {
		return ctx, nil, util.SourceFile{}, err
	}

	if len(c.Args) != 1 {
		return ctx, nil, util.SourceFile{}, errors.New("expected exactly one input file, got %d", len(c.Args))
	}

	f, err := compiler.ReadFile(ctx, c.Args[0])
	if err != nil {
		return ctx, nil, util.SourceFile{}, errors.Wrap(err, "%v", c.Args[0])
	}

	return ctx, cfg, f, nil
}

// front parses f and prints its warnings. Source errors are printed with
// their location and terminate the process.
func front(ctx context.Context, cfg *config.Config, f util.SourceFile) *compiler.Unit {
	u, err := compiler.Parse(ctx, cfg, f.Name, f.Content)
	if err != nil {
		fail(os.Stderr, f, err)
	}

	for _, w := range u.Warnings {
		util.ReportWarning(os.Stderr, f, w)
	}

	return u
}

func fail(w io.Writer, f util.SourceFile, err error) {
	var se *util.SourceError
	errors.As(err, &se)
	util.ReportError(w, f, err, se)

	os.Exit(1)
}

func buildAct(c *cli.Command) (err error) {
	ctx, cfg, f, err := setup(c)
	if err != nil {
		return err
	}

	u := front(ctx, cfg, f)

	if c.Bool("dump-ir") {
		text, err := compiler.DumpIR(ctx, cfg, u)
		if err != nil {
			fail(os.Stderr, f, err)
		}
		fmt.Print(text)
		return nil
	}

	asm, err := compiler.Generate(ctx, cfg, u)
	if err != nil {
		fail(os.Stderr, f, err)
	}

	if missing := toolchain.Available(cfg); len(missing) != 0 {
		return errors.New("%v backend needs %v in PATH", cfg.BackendName, missing)
	}

	_, err = toolchain.Build(ctx, cfg, asm, toolchain.Options{
		Output: c.String("output"),
		Keep:   c.Bool("keep"),
	})
	if err != nil {
		return errors.Wrap(err, "build %v", f.Name)
	}

	return nil
}

func asmAct(c *cli.Command) (err error) {
	ctx, cfg, f, err := setup(c)
	if err != nil {
		return err
	}

	u := front(ctx, cfg, f)

	var text string
	if c.Bool("dump-ir") {
		text, err = compiler.DumpIR(ctx, cfg, u)
	} else {
		text, err = compiler.Generate(ctx, cfg, u)
	}
	if err != nil {
		fail(os.Stderr, f, err)
	}

	fmt.Print(text)

	return nil
}

func parseAct(c *cli.Command) (err error) {
	ctx, cfg, f, err := setup(c)
	if err != nil {
		return err
	}

	u := front(ctx, cfg, f)

	for _, s := range u.Program.Stmts() {
		line, col := f.Position(s.Tok.Start)
		fmt.Printf("%d:%d\tscope %d\t%v\n", line, col, s.Scope, s)
	}

	fmt.Print(u.Program.Dump())

	return nil
}

func tokensAct(c *cli.Command) (err error) {
	ctx, cfg, f, err := setup(c)
	if err != nil {
		return err
	}

	toks, err := compiler.Tokenize(ctx, cfg, f.Name, f.Content)
	if err != nil {
		fail(os.Stderr, f, err)
	}

	for _, tok := range toks {
		line, col := f.Position(tok.Start)
		fmt.Printf("%d:%d\t[%d,%d)\t%-10v %-16v %q\n", line, col, tok.Start, tok.End, tok.Type.Class(), tok.Type, f.Content[tok.Start:tok.End])
	}

	return nil
}
