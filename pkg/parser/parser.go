package parser

import (
	"fmt"

	"github.com/xplshn/pnc/pkg/ast"
	"github.com/xplshn/pnc/pkg/config"
	"github.com/xplshn/pnc/pkg/token"
	"github.com/xplshn/pnc/pkg/util"
)

// Parser holds the state for the parsing process. A Parser is single use:
// Parse freezes the program it builds.
type Parser struct {
	tokens  []token.Token
	pos     int
	current token.Token
	cfg     *config.Config

	b        *ast.Builder
	warnings []util.Warning

	decls       []declSite
	read        map[ast.Binding]bool
	exited      bool
	unreachable bool
}

type declSite struct {
	ref ast.Binding
	tok token.Token
}

// NewParser creates and initializes a new Parser from a token stream. A
// missing trailing EOF token is supplied.
func NewParser(tokens []token.Token, cfg *config.Config) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		end := 0
		if len(tokens) > 0 {
			end = tokens[len(tokens)-1].End
		}
		tokens = append(tokens[:len(tokens):len(tokens)], token.Token{Type: token.EOF, Start: end, End: end})
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return &Parser{
		tokens:  tokens,
		current: tokens[0],
		cfg:     cfg,
		b:       ast.NewBuilder(),
		read:    make(map[ast.Binding]bool),
	}
}

// Parse builds the program and its warnings in one call.
func Parse(tokens []token.Token, cfg *config.Config) (*ast.Program, []util.Warning, error) {
	p := NewParser(tokens, cfg)
	prog, err := p.Parse()
	if err != nil {
		return nil, nil, err
	}
	return prog, p.Warnings(), nil
}

// Warnings returns the warnings collected so far, in source order of detection.
func (p *Parser) Warnings() []util.Warning { return p.warnings }

// Parser helpers
func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
		p.current = p.tokens[p.pos]
	}
}

func (p *Parser) check(tokType token.Type) bool {
	return p.current.Type == tokType
}

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type, what string) error {
	if p.match(tokType) {
		return nil
	}
	return p.errorAt(p.current, "unexpected %s, expected %s", p.current.Describe(), what)
}

func (p *Parser) errorAt(tok token.Token, format string, args ...interface{}) error {
	return util.SyntaxError(tok.Start, tok.End, format, args...)
}

func (p *Parser) warn(w config.Warning, tok token.Token, format string, args ...interface{}) {
	if !p.cfg.IsWarningEnabled(w) {
		return
	}
	p.warnings = append(p.warnings, util.Warning{
		Name: p.cfg.Warnings[w].Name,
		Pos:  tok.Start,
		End:  tok.End,
		Msg:  fmt.Sprintf(format, args...),
	})
}

func (p *Parser) skipNewlines() {
	for p.match(token.Newline) {
	}
}

// Parse runs until end of input. On error no program is returned.
func (p *Parser) Parse() (*ast.Program, error) {
	for {
		p.skipNewlines()

		switch {
		case p.check(token.EOF):
			if p.b.Depth() > 0 {
				return nil, p.errorAt(p.current, "unexpected end of input, expected '}'")
			}
			p.reportUnused()
			return p.b.Build(), nil

		case p.check(token.LBrace):
			p.advance()
			p.b.EnterScope()

		case p.check(token.RBrace):
			if !p.b.ExitScope() {
				return nil, p.errorAt(p.current, "unexpected '}', no open block")
			}
			p.advance()
			if err := p.expectTerminator(); err != nil {
				return nil, err
			}

		default:
			if err := p.parseStmt(); err != nil {
				return nil, err
			}
			if err := p.expectTerminator(); err != nil {
				return nil, err
			}
		}
	}
}

// expectTerminator enforces one statement per line. The terminator itself is
// left for the statement loop to consume.
func (p *Parser) expectTerminator() error {
	if !p.cfg.IsFeatureEnabled(config.FeatNewlineTerminated) {
		return nil
	}
	switch {
	case p.check(token.Newline), p.check(token.EOF):
		return nil
	case p.check(token.RBrace) && p.b.Depth() > 0:
		return nil
	}
	return p.errorAt(p.current, "unexpected %s, expected newline or end of input after statement", p.current.Describe())
}

func (p *Parser) parseStmt() error {
	if p.exited && !p.unreachable {
		p.unreachable = true
		p.warn(config.WarnUnreachableCode, p.current, "unreachable code after exit")
	}

	switch p.current.Type {
	case token.Exit:
		return p.parseExit()
	case token.Ident:
		return p.parseVar()
	}
	return p.errorAt(p.current, "unexpected %s, expected statement", p.current.Describe())
}

func (p *Parser) parseExit() error {
	tok := p.current
	p.advance()

	if err := p.expect(token.LParen, "'(' after 'exit'"); err != nil {
		return err
	}
	value, err := p.parseExpr()
	if err != nil {
		return err
	}
	if err := p.expect(token.RParen, "')' after exit status"); err != nil {
		return err
	}

	if value.Type == ast.LiteralExpr && (value.Lit.Int < 0 || value.Lit.Int > 255) {
		p.warn(config.WarnExitRange, value.Tok, "exit status %d is outside 0..255 and will be truncated to %d", value.Lit.Int, uint8(value.Lit.Int))
	}

	p.b.Append(ast.NewExit(tok, p.b.Current(), value))
	p.exited = true
	return nil
}

func (p *Parser) parseVar() error {
	tok := p.current
	p.advance()

	switch {
	case p.match(token.Define):
		value, err := p.parseExpr()
		if err != nil {
			return err
		}

		outer, shadows := p.b.Resolve(tok.Value)
		ref, ok := p.b.Declare(tok.Value, p.typeOf(value))
		if !ok {
			return p.errorAt(tok, "'%s' redeclared in this scope", tok.Value)
		}
		if shadows && outer.Scope != ref.Scope {
			p.warn(config.WarnShadow, tok, "declaration of '%s' shadows a variable in an enclosing scope", tok.Value)
		}

		p.decls = append(p.decls, declSite{ref: ref, tok: tok})
		p.b.Append(ast.NewVarDecl(tok, p.b.Current(), ref, value))
		return nil

	case p.match(token.Eq):
		value, err := p.parseExpr()
		if err != nil {
			return err
		}

		ref, ok := p.b.Resolve(tok.Value)
		if !ok {
			return p.errorAt(tok, "'%s' not declared", tok.Value)
		}

		p.b.Append(ast.NewVarAssign(tok, p.b.Current(), ref, value))
		return nil
	}

	return p.errorAt(p.current, "unexpected %s, expected ':=' or '=' after '%s'", p.current.Describe(), tok.Value)
}

// parseExpr accepts a single literal or a resolvable identifier.
func (p *Parser) parseExpr() (ast.Expr, error) {
	tok := p.current

	switch tok.Type {
	case token.Number:
		p.advance()
		return ast.NewLiteral(tok), nil

	case token.Ident:
		ref, ok := p.b.Resolve(tok.Value)
		if !ok {
			return ast.Expr{}, p.errorAt(tok, "'%s' not declared", tok.Value)
		}
		p.advance()
		p.read[ref] = true
		return ast.NewIdent(tok, ref), nil
	}

	return ast.Expr{}, p.errorAt(tok, "unexpected %s, expected expression", tok.Describe())
}

func (p *Parser) typeOf(e ast.Expr) ast.Type {
	if e.Type == ast.IdentExpr {
		return p.b.Entry(e.Ref).Type
	}
	return ast.Integer
}

func (p *Parser) reportUnused() {
	for _, d := range p.decls {
		if !p.read[d.ref] {
			p.warn(config.WarnUnused, d.tok, "'%s' declared and not used", d.tok.Value)
		}
	}
}
