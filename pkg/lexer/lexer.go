package lexer

import (
	"strconv"
	"unicode/utf8"

	"github.com/xplshn/pnc/pkg/config"
	"github.com/xplshn/pnc/pkg/token"
	"github.com/xplshn/pnc/pkg/util"
)

type Lexer struct {
	source string
	pos    int
	cfg    *config.Config
}

func NewLexer(source string, cfg *config.Config) *Lexer {
	return &Lexer{source: source, cfg: cfg}
}

// Lex tokenizes the whole source. The result always ends with exactly one EOF token.
func Lex(source string, cfg *config.Config) ([]token.Token, error) {
	l := NewLexer(source, cfg)

	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

// Next returns the next token. Once the input is exhausted it keeps returning EOF.
func (l *Lexer) Next() (token.Token, error) {
	for {
		l.skipWhitespace()
		start := l.pos

		if l.isAtEnd() {
			return l.makeToken(token.EOF, "", start), nil
		}

		ch := l.peek()

		if ch == '/' && l.peekNext() == '/' && l.cfg.IsFeatureEnabled(config.FeatComments) {
			l.lineComment()
			continue
		}

		if ch == '\n' {
			l.advance()
			if !l.cfg.IsFeatureEnabled(config.FeatNewlineTerminated) {
				continue
			}
			return l.makeToken(token.Newline, "", start), nil
		}

		if isLetter(ch) {
			return l.identifierOrKeyword(start), nil
		}
		if isDigit(ch) {
			return l.numberLiteral(start)
		}

		l.advance()
		switch ch {
		case '(':
			return l.makeToken(token.LParen, "", start), nil
		case ')':
			return l.makeToken(token.RParen, "", start), nil
		case '=':
			return l.makeToken(token.Eq, "", start), nil
		case ':':
			if !l.match('=') {
				return token.Token{}, util.LexError(start, l.pos, "expected '=' after ':'")
			}
			return l.makeToken(token.Define, "", start), nil
		case '{', '}':
			if !l.cfg.IsFeatureEnabled(config.FeatBlocks) {
				break
			}
			if ch == '{' {
				return l.makeToken(token.LBrace, "", start), nil
			}
			return l.makeToken(token.RBrace, "", start), nil
		}

		r, size := utf8.DecodeRuneInString(l.source[start:])
		return token.Token{}, util.LexError(start, start+size, "unknown character: %q", r)
	}
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	return ch
}

func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(tokType token.Type, value string, start int) token.Token {
	return token.Token{Type: tokType, Value: value, Start: start, End: l.pos}
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.peek() {
		case ' ', '\t', '\r', '\f', '\v':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) lineComment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *Lexer) identifierOrKeyword(start int) token.Token {
	for isLetter(l.peek()) || isDigit(l.peek()) {
		l.advance()
	}
	value := l.source[start:l.pos]
	if tokType, isKeyword := token.KeywordMap[value]; isKeyword {
		return l.makeToken(tokType, "", start)
	}
	return l.makeToken(token.Ident, value, start)
}

func (l *Lexer) numberLiteral(start int) (token.Token, error) {
	for isDigit(l.peek()) {
		l.advance()
	}

	if isLetter(l.peek()) {
		return token.Token{}, util.LexError(l.pos, l.pos+1, "expected whitespace or symbol after number")
	}

	digits := l.source[start:l.pos]
	val, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return token.Token{}, util.LexError(start, l.pos, "integer literal %s out of range", digits)
	}

	tok := l.makeToken(token.Number, digits, start)
	tok.Lit = token.Literal{Kind: token.IntLiteral, Int: val}
	return tok, nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' }
