package eval_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attacksurface/internal/datalog/ast"
	"attacksurface/internal/datalog/eval"
	"attacksurface/internal/datalog/token"
	"attacksurface/internal/errs"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks, err := token.Tokenize(src)
	require.NoError(t, err)
	prog, err := ast.Parse(toks)
	require.NoError(t, err)
	return prog
}

func tupleSet(rows [][]eval.Value) map[string]bool {
	out := make(map[string]bool, len(rows))
	for _, r := range rows {
		var key string
		for _, v := range r {
			key += "|" + valueString(v)
		}
		out[key] = true
	}
	return out
}

func valueString(v eval.Value) string {
	switch x := v.(type) {
	case string:
		return x
	default:
		return ""
	}
}

// S1: empty graph, evaluator quiescence.
func TestEvaluate_EmptyGraphQuiescence(t *testing.T) {
	prog := mustParse(t, `?- host(I, A, K).`)
	res, err := eval.Evaluate(context.Background(), prog, nil, eval.DefaultBounds())
	require.NoError(t, err)
	require.Len(t, res.Answers, 1)
	assert.Empty(t, res.Answers[0].Tuples)
	assert.LessOrEqual(t, res.Stats.Iterations, 1)
}

// S2: ancestor transitive closure.
func TestEvaluate_AncestorTransitiveClosure(t *testing.T) {
	prog := mustParse(t, `parent("alice", "bob"). parent("bob", "carol").
ancestor(X, Y) :- parent(X, Y).
ancestor(X, Z) :- parent(X, Y), ancestor(Y, Z).
?- ancestor(X, "carol").`)

	res, err := eval.Evaluate(context.Background(), prog, nil, eval.DefaultBounds())
	require.NoError(t, err)
	require.Len(t, res.Answers, 1)

	got := tupleSet(res.Answers[0].Tuples)
	assert.Equal(t, map[string]bool{"|alice": true, "|bob": true}, got)
}

// S3: stratified negation.
func TestEvaluate_StratifiedNegation(t *testing.T) {
	prog := mustParse(t, `node("a"). node("b"). danger("b").
safe(X) :- node(X), not danger(X).
?- safe(X).`)

	res, err := eval.Evaluate(context.Background(), prog, nil, eval.DefaultBounds())
	require.NoError(t, err)
	got := tupleSet(res.Answers[0].Tuples)
	assert.Equal(t, map[string]bool{"|a": true}, got)
}

// S4 lives in ast/parser_test.go (safety is a parse-time concern); this
// test only confirms the unsafe program never reaches the evaluator.
func TestEvaluate_UnsafeRuleNeverParses(t *testing.T) {
	toks, err := token.Tokenize(`bad(X, Y) :- thing(X).`)
	require.NoError(t, err)
	_, err = ast.Parse(toks)
	require.Error(t, err)
	k, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindDatalogSafety, k)
}

// Stratification rejects negation inside a recursive cycle.
func TestEvaluate_UnstratifiableNegationRejected(t *testing.T) {
	prog := mustParse(t, `p(X) :- q(X), not r(X).
r(X) :- q(X), not p(X).
?- p(X).`)

	_, err := eval.Evaluate(context.Background(), prog, []eval.Fact{{Predicate: "q", Args: []eval.Value{"a"}}}, eval.DefaultBounds())
	require.Error(t, err)
	k, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindDatalogStratify, k)
}

// Resource bound: a cross-product rule over a moderately sized EDB blows
// past a tight maxTuples bound in a single round, deterministically.
func TestEvaluate_MaxTuplesResourceError(t *testing.T) {
	prog := mustParse(t, `pair(X, Y) :- item(X), item(Y).
?- pair(X, Y).`)

	var facts []eval.Fact
	for i := 0; i < 10; i++ {
		facts = append(facts, eval.Fact{Predicate: "item", Args: []eval.Value{float64(i)}})
	}

	bounds := eval.DefaultBounds()
	bounds.MaxTuples = 10

	_, err := eval.Evaluate(context.Background(), prog, facts, bounds)
	require.Error(t, err)
	var resErr *errs.DatalogResourceError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "maxTuples", resErr.Bound)
}

// Resource bound: maxRules is checked before any evaluation begins.
func TestEvaluate_MaxRulesResourceError(t *testing.T) {
	prog := mustParse(t, `a("x"). b("x").`)
	bounds := eval.DefaultBounds()
	bounds.MaxRules = 1

	_, err := eval.Evaluate(context.Background(), prog, nil, bounds)
	require.Error(t, err)
	var resErr *errs.DatalogResourceError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "maxRules", resErr.Bound)
}

// A rule whose head variable is grounded only through a comparison
// assignment (X bound to Y's value, not appearing in any atom) is safe
// and evaluates without growing past its trivial fixed point.
func TestEvaluate_ComparisonAssignmentGroundsHeadVariable(t *testing.T) {
	prog := mustParse(t, `p(X) :- p(Y), X = Y.
?- p(X).`)

	res, err := eval.Evaluate(context.Background(), prog, []eval.Fact{{Predicate: "p", Args: []eval.Value{float64(0)}}}, eval.DefaultBounds())
	require.NoError(t, err)
	assert.Equal(t, [][]eval.Value{{float64(0)}}, res.Answers[0].Tuples)
}

// A query whose arity differs from the predicate's stored tuples yields
// an empty relation rather than panicking.
func TestEvaluate_WrongArityQueryIsEmpty(t *testing.T) {
	prog := mustParse(t, `?- host(A, B, C, D).`)
	facts := []eval.Fact{{Predicate: "host", Args: []eval.Value{"h1", "10.0.0.1", "IP"}}}

	res, err := eval.Evaluate(context.Background(), prog, facts, eval.DefaultBounds())
	require.NoError(t, err)
	require.Len(t, res.Answers, 1)
	assert.Empty(t, res.Answers[0].Tuples)
}

// Ordering comparisons (<, >, etc.) act as ordinary numeric filters once
// both sides are bound.
func TestEvaluate_OrderingComparisonFilters(t *testing.T) {
	prog := mustParse(t, `score("low", 1). score("high", 9).
above(N) :- score(N, V), V > 5.
?- above(N).`)

	res, err := eval.Evaluate(context.Background(), prog, nil, eval.DefaultBounds())
	require.NoError(t, err)
	got := tupleSet(res.Answers[0].Tuples)
	assert.Equal(t, map[string]bool{"|high": true}, got)
}

func TestEvaluate_NegationOverEDBOnly(t *testing.T) {
	prog := mustParse(t, `reachable(X) :- service(X), not blocked(X).
?- reachable(X).`)

	facts := []eval.Fact{
		{Predicate: "service", Args: []eval.Value{"svc1"}},
		{Predicate: "service", Args: []eval.Value{"svc2"}},
		{Predicate: "blocked", Args: []eval.Value{"svc2"}},
	}
	res, err := eval.Evaluate(context.Background(), prog, facts, eval.DefaultBounds())
	require.NoError(t, err)
	got := tupleSet(res.Answers[0].Tuples)
	assert.Equal(t, map[string]bool{"|svc1": true}, got)
}
