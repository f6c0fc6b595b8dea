package codegen

import (
	"github.com/xplshn/pnc/pkg/ast"
	"github.com/xplshn/pnc/pkg/config"
	"github.com/xplshn/pnc/pkg/ir"
	"github.com/xplshn/pnc/pkg/util"
)

// Context lowers a parsed program into the stack IR. It trusts the parser:
// any binding it cannot honour is an internal error, not a user error.
type Context struct {
	prog       *ir.Program
	src        *ast.Program
	wordSize   int
	stackAlign int
	cfg        *config.Config
}

func NewContext(cfg *config.Config) *Context {
	return &Context{
		prog:       &ir.Program{WordSize: cfg.WordSize},
		wordSize:   cfg.WordSize,
		stackAlign: cfg.StackAlignment,
		cfg:        cfg,
	}
}

// GenerateIR panics with *util.InternalError if a statement refers to a
// binding the program does not contain.
func (ctx *Context) GenerateIR(src *ast.Program) *ir.Program {
	ctx.src = src
	ctx.prog.FrameSize = src.FrameSize(ctx.stackAlign)

	for _, stmt := range src.Stmts() {
		ctx.codegenStmt(stmt)
	}
	return ctx.prog
}

func (ctx *Context) codegenStmt(stmt ast.Stmt) {
	switch stmt.Type {
	case ast.ExitStmt:
		ctx.codegenExpr(stmt.Value)
		ctx.prog.Exit()
	case ast.VarDeclStmt, ast.VarAssignStmt:
		ctx.codegenExpr(stmt.Value)
		ctx.prog.Store(ctx.slot(stmt.Ref, stmt.Name))
	default:
		util.Internalf("unhandled statement type %d", stmt.Type)
	}
}

func (ctx *Context) codegenExpr(e ast.Expr) {
	switch e.Type {
	case ast.LiteralExpr:
		ctx.prog.Push(&ir.Const{Value: e.Lit.Int})
	case ast.IdentExpr:
		ctx.prog.Push(ctx.slot(e.Ref, e.Name))
	default:
		util.Internalf("unhandled expression type %d", e.Type)
	}
}

func (ctx *Context) slot(ref ast.Binding, name string) *ir.Slot {
	entry, ok := ctx.src.Entry(ref)
	if !ok {
		util.Internalf("'%s' bound to missing entry %d in scope %d", name, ref.Index, ref.Scope)
	}
	if entry.Name != name {
		util.Internalf("'%s' bound to entry of '%s'", name, entry.Name)
	}
	return &ir.Slot{Name: entry.Name, Offset: entry.Offset}
}

// Generate produces NASM x86-64 Linux assembly for a validated program.
func Generate(prog *ast.Program) string {
	cfg := config.NewConfig()
	irProg := NewContext(cfg).GenerateIR(prog)
	return newNASMBackend().emit(irProg).String()
}

// GenerateWith lowers prog and runs the backend cfg selects.
func GenerateWith(prog *ast.Program, cfg *config.Config) (string, error) {
	backend, err := SelectBackend(cfg)
	if err != nil {
		return "", err
	}
	buf, err := backend.Generate(NewContext(cfg).GenerateIR(prog), cfg)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// DumpIR returns the intermediate form the selected backend consumes.
func DumpIR(prog *ast.Program, cfg *config.Config) (string, error) {
	backend, err := SelectBackend(cfg)
	if err != nil {
		return "", err
	}
	return backend.GenerateIR(NewContext(cfg).GenerateIR(prog), cfg)
}
