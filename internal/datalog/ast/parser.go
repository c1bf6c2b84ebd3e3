package ast

import (
	"fmt"
	"strconv"

	"attacksurface/internal/datalog/token"
	"attacksurface/internal/errs"
)

// Parse consumes a complete token stream (as produced by token.Tokenize,
// including its trailing EOF token) and returns the parsed,
// safety-checked program. Safety is checked immediately after each
// non-fact rule is parsed.
func Parse(toks []token.Token) (*Program, error) {
	p := &parser{toks: toks}
	return p.parseProgram()
}

type parser struct {
	toks        []token.Token
	pos         int
	anonCounter int
}

func (p *parser) cur() token.Token { return p.toks[p.pos] }
func (p *parser) atEnd() bool      { return p.cur().Kind == token.EOF }

func (p *parser) peekKind(offset int) token.Kind {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return token.EOF
	}
	return p.toks[idx].Kind
}

func (p *parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) syntaxErr(t token.Token, reason string) error {
	return &errs.DatalogSyntaxError{Line: t.Line, Column: t.Column, Reason: reason}
}

func (p *parser) expect(kind token.Kind) (token.Token, error) {
	if p.cur().Kind != kind {
		return token.Token{}, p.syntaxErr(p.cur(), fmt.Sprintf("expected %s, found %s", kind, p.cur().Kind))
	}
	return p.advance(), nil
}

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{}
	for !p.atEnd() {
		if p.cur().Kind == token.QueryArrow {
			q, err := p.parseQuery()
			if err != nil {
				return nil, err
			}
			prog.Queries = append(prog.Queries, *q)
			continue
		}
		r, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		prog.Rules = append(prog.Rules, *r)
	}
	return prog, nil
}

func (p *parser) parseQuery() (*Query, error) {
	if _, err := p.expect(token.QueryArrow); err != nil {
		return nil, err
	}
	goal, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Dot); err != nil {
		return nil, err
	}
	return &Query{Goal: goal}, nil
}

func (p *parser) parseRule() (*Rule, error) {
	head, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	var body []BodyLiteral
	if p.cur().Kind == token.RuleArrow {
		p.advance()
		body, err = p.parseBody()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.Dot); err != nil {
		return nil, err
	}
	rule := &Rule{Head: head, Body: body}
	if !rule.IsFact() {
		if err := checkSafety(*rule); err != nil {
			return nil, err
		}
	}
	return rule, nil
}

func (p *parser) parseBody() ([]BodyLiteral, error) {
	var lits []BodyLiteral
	for {
		lit, err := p.parseBodyLiteral()
		if err != nil {
			return nil, err
		}
		lits = append(lits, lit)
		if p.cur().Kind != token.Comma {
			break
		}
		p.advance()
	}
	return lits, nil
}

func (p *parser) parseBodyLiteral() (BodyLiteral, error) {
	if p.cur().Kind == token.Not {
		p.advance()
		atom, err := p.parseAtom()
		if err != nil {
			return BodyLiteral{}, err
		}
		return BodyLiteral{Negated: true, Atom: atom}, nil
	}
	if p.cur().Kind.IsTermStarter() && p.peekKind(1).IsCompareOp() {
		cmp, err := p.parseComparison()
		if err != nil {
			return BodyLiteral{}, err
		}
		return BodyLiteral{IsComparison: true, Comparison: cmp}, nil
	}
	atom, err := p.parseAtom()
	if err != nil {
		return BodyLiteral{}, err
	}
	return BodyLiteral{Atom: atom}, nil
}

func (p *parser) parseComparison() (Comparison, error) {
	left, err := p.parseTerm()
	if err != nil {
		return Comparison{}, err
	}
	opTok := p.cur()
	op, err := compareOpFromToken(opTok.Kind)
	if err != nil {
		return Comparison{}, p.syntaxErr(opTok, "expected a comparison operator")
	}
	p.advance()
	right, err := p.parseTerm()
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{Left: left, Op: op, Right: right}, nil
}

func compareOpFromToken(k token.Kind) (CompareOp, error) {
	switch k {
	case token.Eq:
		return OpEq, nil
	case token.Neq:
		return OpNeq, nil
	case token.Lt:
		return OpLt, nil
	case token.Lte:
		return OpLte, nil
	case token.Gt:
		return OpGt, nil
	case token.Gte:
		return OpGte, nil
	default:
		return 0, fmt.Errorf("not a comparison operator: %s", k)
	}
}

func (p *parser) parseAtom() (Atom, error) {
	identTok, err := p.expect(token.Ident)
	if err != nil {
		return Atom{}, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return Atom{}, err
	}
	var args []Term
	for {
		t, err := p.parseTerm()
		if err != nil {
			return Atom{}, err
		}
		args = append(args, t)
		if p.cur().Kind != token.Comma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(token.RParen); err != nil {
		return Atom{}, err
	}
	return Atom{Predicate: identTok.Text, Args: args}, nil
}

func (p *parser) parseTerm() (Term, error) {
	tok := p.cur()
	switch tok.Kind {
	case token.Variable:
		p.advance()
		return Var{Name: tok.Text}, nil
	case token.Anon:
		p.advance()
		p.anonCounter++
		return Var{Name: fmt.Sprintf("_anon_%d", p.anonCounter)}, nil
	case token.String:
		p.advance()
		return Const{Value: tok.Text}, nil
	case token.Number:
		p.advance()
		n, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, p.syntaxErr(tok, "malformed number literal")
		}
		return Const{Value: n}, nil
	default:
		return nil, p.syntaxErr(tok, fmt.Sprintf("expected a term, found %s", tok.Kind))
	}
}
