package token

import "strconv"

type Type int

const (
	EOF Type = iota
	Newline
	Ident
	Number

	keywordBeg
	Exit
	keywordEnd

	symbolBeg
	LParen
	RParen
	LBrace
	RBrace
	Eq
	Define
	symbolEnd
)

// Class groups token types into the lexical categories of the language.
type Class int

const (
	ClassEOF Class = iota
	ClassNewline
	ClassIdent
	ClassLiteral
	ClassKeyword
	ClassSymbol
)

var KeywordMap = map[string]Type{
	"exit": Exit,
}

// Reverse mapping from Type to the keyword or symbol spelling
var TypeStrings = map[Type]string{
	LParen: "(",
	RParen: ")",
	LBrace: "{",
	RBrace: "}",
	Eq:     "=",
	Define: ":=",
}

func init() {
	for str, typ := range KeywordMap {
		TypeStrings[typ] = str
	}
}

func (t Type) IsKeyword() bool { return t > keywordBeg && t < keywordEnd }
func (t Type) IsSymbol() bool  { return t > symbolBeg && t < symbolEnd }

func (t Type) Class() Class {
	switch {
	case t == EOF:
		return ClassEOF
	case t == Newline:
		return ClassNewline
	case t == Ident:
		return ClassIdent
	case t == Number:
		return ClassLiteral
	case t.IsKeyword():
		return ClassKeyword
	default:
		return ClassSymbol
	}
}

// String returns the spelling used in diagnostics: quoted punctuation and
// keywords, bracketed names for everything else.
func (t Type) String() string {
	switch t {
	case EOF:
		return "end of input"
	case Newline:
		return "newline"
	case Ident:
		return "identifier"
	case Number:
		return "integer literal"
	}
	if s, ok := TypeStrings[t]; ok {
		return "'" + s + "'"
	}
	return "token(" + strconv.Itoa(int(t)) + ")"
}

func (c Class) String() string {
	switch c {
	case ClassEOF:
		return "EndOfInput"
	case ClassNewline:
		return "Newline"
	case ClassIdent:
		return "Identifier"
	case ClassLiteral:
		return "Literal"
	case ClassKeyword:
		return "Keyword"
	case ClassSymbol:
		return "Symbol"
	}
	return "Unknown"
}

type LiteralKind int

const (
	IntLiteral LiteralKind = iota
)

// Literal is a typed literal value. Integer is the only kind the language has.
type Literal struct {
	Kind LiteralKind
	Int  int64
}

func (l Literal) String() string {
	switch l.Kind {
	case IntLiteral:
		return strconv.FormatInt(l.Int, 10)
	}
	return "?"
}

// Token is a lexical unit. Start and End are byte offsets into the source,
// End exclusive.
type Token struct {
	Type  Type
	Value string
	Lit   Literal
	Start int
	End   int
}

func (t Token) Len() int { return t.End - t.Start }

// Describe renders the token for "unexpected X" messages.
func (t Token) Describe() string {
	switch t.Type {
	case Ident:
		return "identifier '" + t.Value + "'"
	case Number:
		return "integer literal " + t.Lit.String()
	case Exit:
		return "keyword 'exit'"
	}
	return t.Type.String()
}
