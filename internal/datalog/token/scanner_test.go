package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attacksurface/internal/datalog/token"
	"attacksurface/internal/errs"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenize_Rule(t *testing.T) {
	src := `vulnerable_endpoint(E) :- endpoint_input(E, I), observation(I, V), V != "". % trailing comment
`
	toks, err := token.Tokenize(src)
	require.NoError(t, err)

	assert.Equal(t, []token.Kind{
		token.Ident, token.LParen, token.Variable, token.RParen,
		token.RuleArrow,
		token.Ident, token.LParen, token.Variable, token.Comma, token.Variable, token.RParen, token.Comma,
		token.Ident, token.LParen, token.Variable, token.Comma, token.Variable, token.RParen, token.Comma,
		token.Variable, token.Neq, token.String,
		token.Dot,
		token.EOF,
	}, kinds(toks))
}

func TestTokenize_Query(t *testing.T) {
	toks, err := token.Tokenize(`?- host(X, "10.0.0.1").`)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, token.QueryArrow, toks[0].Kind)
}

func TestTokenize_NotKeywordAndAnon(t *testing.T) {
	toks, err := token.Tokenize(`p(_, _x) :- not q(_).`)
	require.NoError(t, err)

	var sawNot, sawAnon, sawNamedAnon bool
	for _, tk := range toks {
		switch {
		case tk.Kind == token.Not:
			sawNot = true
		case tk.Kind == token.Anon:
			sawAnon = true
		case tk.Kind == token.Variable && tk.Text == "_x":
			sawNamedAnon = true
		}
	}
	assert.True(t, sawNot)
	assert.True(t, sawAnon)
	assert.True(t, sawNamedAnon)
}

func TestTokenize_Numbers(t *testing.T) {
	toks, err := token.Tokenize(`score(3, 4.5).`)
	require.NoError(t, err)
	var nums []string
	for _, tk := range toks {
		if tk.Kind == token.Number {
			nums = append(nums, tk.Text)
		}
	}
	assert.Equal(t, []string{"3", "4.5"}, nums)
}

func TestTokenize_StringEscapes(t *testing.T) {
	toks, err := token.Tokenize(`p("line\nbreak \"quoted\"").`)
	require.NoError(t, err)
	require.True(t, len(toks) > 0)
	found := false
	for _, tk := range toks {
		if tk.Kind == token.String {
			assert.Equal(t, "line\nbreak \"quoted\"", tk.Text)
			found = true
		}
	}
	assert.True(t, found)
}

func TestTokenize_NewlineInStringIsSyntaxError(t *testing.T) {
	_, err := token.Tokenize("p(\"broken\nstring\").")
	require.Error(t, err)
	k, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindDatalogSyntax, k)
}

func TestTokenize_UnexpectedCharacter(t *testing.T) {
	_, err := token.Tokenize(`p(X) :- q(X) & r(X).`)
	require.Error(t, err)
	var synErr *errs.DatalogSyntaxError
	require.ErrorAs(t, err, &synErr)
	assert.Greater(t, synErr.Column, 0)
}

func TestTokenize_LineColumnTracking(t *testing.T) {
	src := "p(X) :-\n  q(X),\n  r(X).\n"
	toks, err := token.Tokenize(src)
	require.NoError(t, err)

	var qTok token.Token
	for _, tk := range toks {
		if tk.Kind == token.Ident && tk.Text == "q" {
			qTok = tk
		}
	}
	assert.Equal(t, 2, qTok.Line)
	assert.Equal(t, 3, qTok.Column)
}
