// Package compiler runs the front end and the code generator as one traced
// pipeline. The first error aborts it; nothing is emitted on failure.
package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/xplshn/pnc/pkg/ast"
	"github.com/xplshn/pnc/pkg/codegen"
	"github.com/xplshn/pnc/pkg/config"
	"github.com/xplshn/pnc/pkg/lexer"
	"github.com/xplshn/pnc/pkg/parser"
	"github.com/xplshn/pnc/pkg/token"
	"github.com/xplshn/pnc/pkg/util"
)

// Unit is one parsed source file.
type Unit struct {
	File     util.SourceFile
	Tokens   []token.Token
	Program  *ast.Program
	Warnings []util.Warning
}

func ReadFile(ctx context.Context, name string) (util.SourceFile, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return util.SourceFile{}, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return util.SourceFile{Name: name, Content: string(text)}, nil
}

// Tokenize only runs the lexer.
func Tokenize(ctx context.Context, cfg *config.Config, name, source string) (_ []token.Token, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "lex", "name", name)
	defer tr.Finish("err", &err)

	toks, err := lexer.Lex(source, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "lex")
	}

	tr.Printw("tokens", "count", len(toks))

	return toks, nil
}

// Parse lexes and parses source.
func Parse(ctx context.Context, cfg *config.Config, name, source string) (_ *Unit, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse", "name", name, "std", cfg.StdName)
	defer tr.Finish("err", &err)

	toks, err := Tokenize(ctx, cfg, name, source)
	if err != nil {
		return nil, err
	}

	prog, warns, err := parser.Parse(toks, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	tr.Printw("program", "stmts", len(prog.Stmts()), "scopes", prog.NumScopes(), "warnings", len(warns))

	return &Unit{
		File:     util.SourceFile{Name: name, Content: source},
		Tokens:   toks,
		Program:  prog,
		Warnings: warns,
	}, nil
}

// Generate produces assembly with the backend cfg selects. Internal
// consistency failures come back as *util.InternalError.
func Generate(ctx context.Context, cfg *config.Config, u *Unit) (asm string, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "generate", "name", u.File.Name, "backend", cfg.BackendName, "target", cfg.BackendTarget)
	defer tr.Finish("err", &err)

	defer recoverInternal(&err)

	asm, err = codegen.GenerateWith(u.Program, cfg)
	if err != nil {
		return "", errors.Wrap(err, "%v backend", cfg.BackendName)
	}

	tr.Printw("assembly", "bytes", len(asm))

	return asm, nil
}

// DumpIR renders the backend input instead of assembly.
func DumpIR(ctx context.Context, cfg *config.Config, u *Unit) (text string, err error) {
	defer recoverInternal(&err)

	text, err = codegen.DumpIR(u.Program, cfg)
	if err != nil {
		return "", errors.Wrap(err, "dump ir")
	}
	return text, nil
}

func CompileFile(ctx context.Context, cfg *config.Config, name string) (*Unit, string, error) {
	f, err := ReadFile(ctx, name)
	if err != nil {
		return nil, "", err
	}

	u, err := Parse(ctx, cfg, f.Name, f.Content)
	if err != nil {
		return nil, "", err
	}

	asm, err := Generate(ctx, cfg, u)
	if err != nil {
		return u, "", err
	}

	return u, asm, nil
}

func recoverInternal(errp *error) {
	p := recover()
	if p == nil {
		return
	}

	ie, ok := p.(*util.InternalError)
	if !ok {
		panic(p)
	}

	*errp = ie
}
