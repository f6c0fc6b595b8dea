package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceErrorString(t *testing.T) {
	assert.EqualError(t, LexError(3, 4, "unknown character: %q", '$'), "Lexer error at position 3: unknown character: '$'")
	assert.EqualError(t, SyntaxError(0, 1, "'%s' not declared", "x"), "Parser error at position 0: 'x' not declared")
}

func TestPosition(t *testing.T) {
	f := SourceFile{Name: "a.pn", Content: "x := 1\ny = 2\n"}

	for _, tc := range []struct{ off, line, col int }{
		{0, 1, 1},
		{5, 1, 6},
		{7, 2, 1},
		{9, 2, 3},
		{100, 3, 1},
	} {
		line, col := f.Position(tc.off)
		assert.Equal(t, [2]int{tc.line, tc.col}, [2]int{line, col}, "offset %d", tc.off)
	}
}

func TestReportError(t *testing.T) {
	f := SourceFile{Name: "a.pn", Content: "x := 1\ny = 2\n"}

	var buf bytes.Buffer
	ReportError(&buf, f, nil, SyntaxError(7, 8, "'y' not declared"))
	assert.Equal(t, "a.pn:2:1: error: 'y' not declared\n  y = 2\n  ^\n", buf.String())

	buf.Reset()
	ReportWarning(&buf, f, Warning{Name: "unused", Pos: 0, End: 1, Msg: "'x' declared and not used"})
	assert.Equal(t, "a.pn:1:1: warning: 'x' declared and not used [-Wunused]\n  x := 1\n  ^\n", buf.String())

	buf.Reset()
	ReportError(&buf, f, LexError(2, 4, "wide"), LexError(2, 4, "wide"))
	assert.Contains(t, buf.String(), "\n    ^~\n")
}

func TestInternalf(t *testing.T) {
	defer func() {
		p := recover()
		ie, ok := p.(*InternalError)
		require.True(t, ok, "%T", p)
		assert.Equal(t, "slot 3 missing", ie.Msg)
		assert.Contains(t, ie.Error(), "internal compiler error: slot 3 missing")
	}()

	Internalf("slot %d missing", 3)
}
