package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/xplshn/pnc/pkg/ast"
	"github.com/xplshn/pnc/pkg/config"
	"github.com/xplshn/pnc/pkg/lexer"
	"github.com/xplshn/pnc/pkg/util"
)

func parse(t *testing.T, cfg *config.Config, src string) (*ast.Program, []util.Warning, error) {
	t.Helper()

	if cfg == nil {
		cfg = config.NewConfig()
	}
	toks, err := lexer.Lex(src, cfg)
	require.NoError(t, err)
	return Parse(toks, cfg)
}

func stmts(p *ast.Program) []string {
	var out []string
	for _, s := range p.Stmts() {
		out = append(out, s.String())
	}
	return out
}

func TestParseStatements(t *testing.T) {
	prog, _, err := parse(t, nil, "x := 5\nx = 9\n\n\nexit(x)\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"x := 5", "x = 9", "exit(x)"}, stmts(prog))

	ss := prog.Stmts()
	assert.Equal(t, ss[0].Ref, ss[1].Ref)
	assert.Equal(t, ss[0].Ref, ss[2].Value.Ref)
	assert.Equal(t, ast.VarAssignStmt, ss[1].Type)

	root := prog.Scope(0)
	if diff := cmp.Diff([]ast.Entry{{Name: "x", Type: ast.Integer, Offset: 8}}, root.Entries); diff != "" {
		t.Errorf("entries (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		pos  int
		msg  string
	}{
		{"redeclared", "x := 1\nx := 2\n", 7, "'x' redeclared in this scope"},
		{"assign_undeclared", "y = 1\n", 0, "'y' not declared"},
		{"use_undeclared", "x := y\n", 5, "'y' not declared"},
		{"exit_undeclared", "exit(z)", 5, "'z' not declared"},
		{"self_reference", "x := x\n", 5, "'x' not declared"},
		{"bare_literal", "5\n", 0, "unexpected integer literal 5, expected statement"},
		{"bare_symbol", "= 5\n", 0, "unexpected '=', expected statement"},
		{"missing_lparen", "exit 5\n", 5, "unexpected integer literal 5, expected '(' after 'exit'"},
		{"missing_rparen", "exit(5\n", 6, "unexpected newline, expected ')' after exit status"},
		{"missing_operator", "x 5\n", 2, "unexpected integer literal 5, expected ':=' or '=' after 'x'"},
		{"missing_expression", "x :=\n", 4, "unexpected newline, expected expression"},
		{"two_statements", "x := 1 exit(x)\n", 7, "unexpected keyword 'exit', expected newline or end of input after statement"},
		{"unmatched_rbrace", "}\n", 0, "unexpected '}', no open block"},
		{"unclosed_block", "{\nx := 1\n", 9, "unexpected end of input, expected '}'"},
		{"block_scope_ends", "{\nx := 1\n}\nexit(x)\n", 16, "'x' not declared"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			prog, warns, err := parse(t, nil, tc.src)
			require.Error(t, err)
			assert.Nil(t, prog)
			assert.Nil(t, warns)

			var se *util.SourceError
			require.True(t, errors.As(err, &se), "%T", err)
			assert.Equal(t, util.StageParser, se.Stage)
			assert.Equal(t, tc.pos, se.Pos)
			assert.Equal(t, tc.msg, se.Msg)
		})
	}
}

func TestBlocksAndShadowing(t *testing.T) {
	prog, warns, err := parse(t, nil, "x := 1\n{\n  x := 2\n  { y := x }\n}\nexit(x)\n")
	require.NoError(t, err)
	require.Equal(t, 3, prog.NumScopes())

	inner := prog.Scope(1)
	assert.Equal(t, 0, inner.Parent)
	assert.Equal(t, 16, inner.BaseOffset)
	assert.Equal(t, []ast.Entry{{Name: "x", Type: ast.Integer, Offset: 16}}, inner.Entries)

	innermost := prog.Scope(2)
	assert.Equal(t, 1, innermost.Parent)
	assert.Equal(t, 24, innermost.BaseOffset)

	ss := prog.Stmts()
	assert.Equal(t, ast.Binding{Scope: 1, Index: 0}, ss[2].Value.Ref, "y reads the inner x")
	assert.Equal(t, ast.Binding{Scope: 0, Index: 0}, ss[3].Value.Ref, "exit reads the outer x")
	assert.Equal(t, 2, ss[2].Scope)

	var names []string
	for _, w := range warns {
		names = append(names, w.Name)
	}
	assert.Equal(t, []string{"shadow", "unused"}, names)
}

func TestAssignInBlockTargetsOuter(t *testing.T) {
	prog, _, err := parse(t, nil, "x := 1\n{\n  x = 2\n}\nexit(x)\n")
	require.NoError(t, err)

	ss := prog.Stmts()
	assert.Equal(t, 1, ss[1].Scope)
	assert.Equal(t, ast.Binding{Scope: 0, Index: 0}, ss[1].Ref)
	assert.Empty(t, prog.Scope(1).Entries)
}

func TestWarnings(t *testing.T) {
	src := "a := 1\nexit(300)\nb := a\n"

	_, warns, err := parse(t, nil, src)
	require.NoError(t, err)

	want := []util.Warning{
		{Name: "exit-range", Pos: 12, End: 15, Msg: "exit status 300 is outside 0..255 and will be truncated to 44"},
		{Name: "unreachable-code", Pos: 17, End: 18, Msg: "unreachable code after exit"},
		{Name: "unused", Pos: 17, End: 18, Msg: "'b' declared and not used"},
	}
	if diff := cmp.Diff(want, warns); diff != "" {
		t.Errorf("warnings (-want +got):\n%s", diff)
	}

	cfg := config.NewConfig()
	require.NoError(t, cfg.ApplyWarnings("no-all"))
	_, warns, err = parse(t, cfg, src)
	require.NoError(t, err)
	assert.Empty(t, warns)
}

func TestPunctuationDriven(t *testing.T) {
	cfg := config.NewConfig()
	require.NoError(t, cfg.ApplyFeatures("no-newline-terminated"))

	prog, _, err := parse(t, cfg, "x := 1 x = 2\nexit(\nx\n)")
	require.NoError(t, err)
	assert.Equal(t, []string{"x := 1", "x = 2", "exit(x)"}, stmts(prog))
}

func TestBlocksOnOneLine(t *testing.T) {
	prog, _, err := parse(t, nil, "x := 1 { y := x } exit(x)")
	require.Error(t, err, "a block after a statement on the same line")
	assert.Nil(t, prog)

	prog, _, err = parse(t, nil, "{ y := 4 }\n{ y := 5 }\n")
	require.NoError(t, err)
	assert.Equal(t, 3, prog.NumScopes())
	assert.Equal(t, 8, prog.Scope(2).BaseOffset, "sibling blocks reuse the same space")
}

func TestMissingEOFSupplied(t *testing.T) {
	cfg := config.NewConfig()
	toks, err := lexer.Lex("exit(1)", cfg)
	require.NoError(t, err)

	prog, _, err := Parse(toks[:len(toks)-1], cfg)
	require.NoError(t, err)
	assert.Len(t, prog.Stmts(), 1)

	prog, _, err = Parse(nil, cfg)
	require.NoError(t, err)
	assert.Empty(t, prog.Stmts())
}
