package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/xplshn/pnc/pkg/config"
	"github.com/xplshn/pnc/pkg/token"
	"github.com/xplshn/pnc/pkg/util"
)

type tok struct {
	Type  token.Type
	Text  string
	Start int
}

func lexTypes(t *testing.T, cfg *config.Config, src string) []tok {
	t.Helper()

	toks, err := Lex(src, cfg)
	require.NoError(t, err)

	var out []tok
	for _, tk := range toks {
		out = append(out, tok{tk.Type, src[tk.Start:tk.End], tk.Start})
	}
	return out
}

func TestLexStatements(t *testing.T) {
	got := lexTypes(t, config.NewConfig(), "x := 5\nexit( x )")

	want := []tok{
		{token.Ident, "x", 0},
		{token.Define, ":=", 2},
		{token.Number, "5", 5},
		{token.Newline, "\n", 6},
		{token.Exit, "exit", 7},
		{token.LParen, "(", 11},
		{token.Ident, "x", 13},
		{token.RParen, ")", 15},
		{token.EOF, "", 16},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens (-want +got):\n%s", diff)
	}
}

func TestLiteralValues(t *testing.T) {
	toks, err := Lex("9223372036854775807 007", config.NewConfig())
	require.NoError(t, err)
	require.Len(t, toks, 3)

	assert.Equal(t, token.Literal{Kind: token.IntLiteral, Int: 9223372036854775807}, toks[0].Lit)
	assert.Equal(t, int64(7), toks[1].Lit.Int)
	assert.Equal(t, "007", toks[1].Value)
}

func TestKeywordsAreExact(t *testing.T) {
	got := lexTypes(t, config.NewConfig(), "exit Exit exit_ exit2 _exit")

	var types []token.Type
	for _, tk := range got {
		types = append(types, tk.Type)
	}
	assert.Equal(t, []token.Type{token.Exit, token.Ident, token.Ident, token.Ident, token.Ident, token.EOF}, types)
}

func TestLexErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		std  string
		src  string
		pos  int
		msg  string
	}{
		{"number_then_letter", "pnx", "x := 12abc", 7, "expected whitespace or symbol after number"},
		{"number_then_underscore", "pnx", "12_", 2, "expected whitespace or symbol after number"},
		{"lone_colon", "pnx", "x : 5", 2, "expected '=' after ':'"},
		{"colon_at_end", "pnx", "x :", 2, "expected '=' after ':'"},
		{"unknown", "pnx", "x := 5 + 1", 7, "unknown character: '+'"},
		{"unicode", "pnx", "é := 1", 0, "unknown character: 'é'"},
		{"overflow", "pnx", "9223372036854775808", 0, "integer literal 9223372036854775808 out of range"},
		{"comment_in_pn", "pn", "exit(0) // done", 8, "unknown character: '/'"},
		{"brace_in_pn", "pn", "{\n}", 0, "unknown character: '{'"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.NewConfig()
			require.NoError(t, cfg.ApplyStd(tc.std))

			toks, err := Lex(tc.src, cfg)
			require.Error(t, err)
			assert.Nil(t, toks)

			var se *util.SourceError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, util.StageLexer, se.Stage)
			assert.Equal(t, tc.pos, se.Pos)
			assert.Equal(t, tc.msg, se.Msg)
		})
	}
}

func TestSpansRoundTrip(t *testing.T) {
	src := "a := 1\r\n\t{ b := a // note\n  a = b }\nexit(a)\n"

	toks, err := Lex(src, config.NewConfig())
	require.NoError(t, err)

	for _, tk := range toks {
		text := src[tk.Start:tk.End]
		switch tk.Type {
		case token.EOF:
			assert.Equal(t, len(src), tk.Start)
			assert.Empty(t, text)
		case token.Newline:
			assert.Equal(t, "\n", text)
		case token.Ident:
			assert.Equal(t, tk.Value, text)
		case token.Number:
			assert.Equal(t, tk.Value, text)
		default:
			assert.Equal(t, token.TypeStrings[tk.Type], text)
		}
	}
}

func TestFeatures(t *testing.T) {
	cfg := config.NewConfig()
	require.NoError(t, cfg.ApplyFeatures("no-newline-terminated"))

	got := lexTypes(t, cfg, "x := 1\n\n// c\nexit(x)\n")
	var types []token.Type
	for _, tk := range got {
		types = append(types, tk.Type)
	}
	assert.Equal(t, []token.Type{token.Ident, token.Define, token.Number, token.Exit, token.LParen, token.Ident, token.RParen, token.EOF}, types)
}

func TestNextAfterEOF(t *testing.T) {
	l := NewLexer("  ", config.NewConfig())
	for i := 0; i < 3; i++ {
		tk, err := l.Next()
		require.NoError(t, err)
		assert.Equal(t, token.Token{Type: token.EOF, Start: 2, End: 2}, tk)
	}
}
