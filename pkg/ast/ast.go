// Package ast defines the program representation shared by the parser and the
// code generator: statements, expressions and the arena of symbol tables.
package ast

import (
	"fmt"

	"github.com/xplshn/pnc/pkg/token"
)

// ExprType defines the kind of an expression
type ExprType int

const (
	LiteralExpr ExprType = iota
	IdentExpr
)

// StmtType defines the kind of a statement
type StmtType int

const (
	ExitStmt StmtType = iota
	VarDeclStmt
	VarAssignStmt
)

// Expr is a tagged variant. Lit is set for LiteralExpr; Name and Ref for IdentExpr.
type Expr struct {
	Type ExprType
	Tok  token.Token
	Lit  token.Literal
	Name string
	Ref  Binding
}

// Stmt is a tagged variant. Exit uses only Value; VarDecl and VarAssign also
// carry the target Name and the Ref it was bound to. Scope is the table the
// statement was parsed in.
type Stmt struct {
	Type  StmtType
	Tok   token.Token
	Name  string
	Value Expr
	Ref   Binding
	Scope int
}

func NewLiteral(tok token.Token) Expr {
	return Expr{Type: LiteralExpr, Tok: tok, Lit: tok.Lit}
}

func NewIdent(tok token.Token, ref Binding) Expr {
	return Expr{Type: IdentExpr, Tok: tok, Name: tok.Value, Ref: ref}
}

func NewExit(tok token.Token, scope int, value Expr) Stmt {
	return Stmt{Type: ExitStmt, Tok: tok, Value: value, Scope: scope}
}

func NewVarDecl(tok token.Token, scope int, ref Binding, value Expr) Stmt {
	return Stmt{Type: VarDeclStmt, Tok: tok, Name: tok.Value, Value: value, Ref: ref, Scope: scope}
}

func NewVarAssign(tok token.Token, scope int, ref Binding, value Expr) Stmt {
	return Stmt{Type: VarAssignStmt, Tok: tok, Name: tok.Value, Value: value, Ref: ref, Scope: scope}
}

func (e Expr) String() string {
	switch e.Type {
	case LiteralExpr:
		return e.Lit.String()
	case IdentExpr:
		return e.Name
	}
	return "<bad expr>"
}

func (s Stmt) String() string {
	switch s.Type {
	case ExitStmt:
		return fmt.Sprintf("exit(%v)", s.Value)
	case VarDeclStmt:
		return fmt.Sprintf("%s := %v", s.Name, s.Value)
	case VarAssignStmt:
		return fmt.Sprintf("%s = %v", s.Name, s.Value)
	}
	return "<bad stmt>"
}
