package util

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"tlog.app/go/loc"
)

type Stage int

const (
	StageLexer Stage = iota
	StageParser
)

func (s Stage) String() string {
	switch s {
	case StageLexer:
		return "Lexer"
	case StageParser:
		return "Parser"
	}
	return "Unknown"
}

// SourceError is a user-facing failure tied to a byte span of the source.
// Both lexical and syntactic errors are terminal for the pipeline.
type SourceError struct {
	Stage Stage
	Pos   int
	End   int
	Msg   string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s error at position %d: %s", e.Stage, e.Pos, e.Msg)
}

func LexError(pos, end int, format string, args ...interface{}) *SourceError {
	return &SourceError{Stage: StageLexer, Pos: pos, End: end, Msg: fmt.Sprintf(format, args...)}
}

func SyntaxError(pos, end int, format string, args ...interface{}) *SourceError {
	return &SourceError{Stage: StageParser, Pos: pos, End: end, Msg: fmt.Sprintf(format, args...)}
}

// InternalError reports a broken contract between compiler stages. It is
// raised with panic and is never the user's fault.
type InternalError struct {
	Msg string
	PC  loc.PC
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal compiler error: %s (detected at %v)", e.Msg, e.PC)
}

// Internalf panics with an InternalError recording its caller.
func Internalf(format string, args ...interface{}) {
	panic(&InternalError{Msg: fmt.Sprintf(format, args...), PC: loc.Caller(1)})
}

// Warning is a non-fatal diagnostic. Name is the -W switch that controls it.
type Warning struct {
	Name string
	Pos  int
	End  int
	Msg  string
}

// SourceFile tracks the name and content of a single source file.
type SourceFile struct {
	Name    string
	Content string
}

// Position converts a byte offset into a 1-based line and column.
func (f SourceFile) Position(offset int) (line, col int) {
	if offset > len(f.Content) {
		offset = len(f.Content)
	}
	line, col = 1, 1
	for i := 0; i < offset; i++ {
		if f.Content[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func (f SourceFile) lineAt(offset int) (start, end int) {
	if offset > len(f.Content) {
		offset = len(f.Content)
	}
	start = strings.LastIndexByte(f.Content[:offset], '\n') + 1
	end = strings.IndexByte(f.Content[offset:], '\n')
	if end < 0 {
		end = len(f.Content)
	} else {
		end += offset
	}
	return start, end
}

type palette struct{ err, warn, caret, reset string }

var (
	colors   = palette{err: "\033[31m", warn: "\033[33m", caret: "\033[32m", reset: "\033[0m"}
	noColors = palette{}
)

// UseColor reports whether w is a terminal that should receive ANSI colours.
func UseColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func pick(w io.Writer) palette {
	if UseColor(w) {
		return colors
	}
	return noColors
}

// printErrorLine prints the source line and a caret underlining [pos, end)
func printErrorLine(w io.Writer, p palette, f SourceFile, pos, end int) {
	start, lineEnd := f.lineAt(pos)
	fmt.Fprintf(w, "  %s\n", f.Content[start:lineEnd])

	width := end - pos
	if end > lineEnd {
		width = lineEnd - pos
	}
	fmt.Fprintf(w, "  %s%s^", strings.Repeat(" ", pos-start), p.caret)
	if width > 1 {
		fmt.Fprint(w, strings.Repeat("~", width-1))
	}
	fmt.Fprintln(w, p.reset)
}

// ReportError prints err the way a compiler does: file:line:col, the message,
// then the offending line. Errors without a source span print as-is.
func ReportError(w io.Writer, f SourceFile, err error, se *SourceError) {
	p := pick(w)
	if se == nil {
		fmt.Fprintf(w, "%s: %serror:%s %v\n", f.Name, p.err, p.reset, err)
		return
	}
	line, col := f.Position(se.Pos)
	fmt.Fprintf(w, "%s:%d:%d: %serror:%s %s\n", f.Name, line, col, p.err, p.reset, se.Msg)
	printErrorLine(w, p, f, se.Pos, se.End)
}

// ReportWarning prints a warning with the switch that disables it.
func ReportWarning(w io.Writer, f SourceFile, wr Warning) {
	p := pick(w)
	line, col := f.Position(wr.Pos)
	fmt.Fprintf(w, "%s:%d:%d: %swarning:%s %s [-W%s]\n", f.Name, line, col, p.warn, p.reset, wr.Msg, wr.Name)
	printErrorLine(w, p, f, wr.Pos, wr.End)
}
