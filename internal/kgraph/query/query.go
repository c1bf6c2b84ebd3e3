// Package query is the query facade (component K): it wires the
// Datalog evaluator (G), the fact extractor (H), and the preset/saved
// rule registry (I) behind the small set of entry points for the
// agent-facing Datalog tools. No RPC surface in this repository calls
// them.
package query

import (
	"context"

	"attacksurface/internal/datalog/ast"
	"attacksurface/internal/datalog/eval"
	"attacksurface/internal/datalog/token"
	"attacksurface/internal/kgraph/facts"
	"attacksurface/internal/kgraph/registry"
	"attacksurface/internal/kgraph/store"
)

// RunDatalog tokenizes, parses, and evaluates program against the
// current graph, extracting every supported predicate as the EDB, with
// bounds (eval.DefaultBounds() when bounds is nil). When saveName is
// non-empty, the raw program text is also persisted to the saved-rule
// table under that name, tagged with generatedBy (defaulting to
// registry.OriginHuman when empty).
func RunDatalog(ctx context.Context, s *store.Store, program, saveName, saveDescription, generatedBy string, bounds *eval.Bounds) (*eval.Result, error) {
	b := eval.DefaultBounds()
	if bounds != nil {
		b = *bounds
	}
	res, err := evaluate(ctx, s, program, b)
	if err != nil {
		return nil, err
	}
	if saveName != "" {
		origin := generatedBy
		if origin == "" {
			origin = registry.OriginHuman
		}
		if _, err := registry.Save(ctx, s, saveName, saveDescription, program, origin); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// ListFacts projects predicate (or every predicate, if empty) out of
// the graph store, capped at limit tuples (0 means unlimited).
func ListFacts(s *store.Store, predicate string, limit int) []eval.Fact {
	return facts.Extract(s, predicate, limit)
}

// QueryAttackPaths resolves name against the preset table and then the
// saved-rule table and evaluates it with bounds (eval.DefaultBounds()
// when bounds is nil). A miss returns an empty result and no error.
func QueryAttackPaths(ctx context.Context, s *store.Store, name string, bounds *eval.Bounds) (*eval.Result, error) {
	text, ok := registry.Resolve(s, name)
	if !ok {
		return &eval.Result{}, nil
	}
	b := eval.DefaultBounds()
	if bounds != nil {
		b = *bounds
	}
	return evaluate(ctx, s, text, b)
}

// ListPatterns lists every named pattern available to QueryAttackPaths:
// presets first, then saved rules.
func ListPatterns(s *store.Store) []registry.Entry {
	return registry.List(s)
}

func evaluate(ctx context.Context, s *store.Store, program string, bounds eval.Bounds) (*eval.Result, error) {
	toks, err := token.Tokenize(program)
	if err != nil {
		return nil, err
	}
	prog, err := ast.Parse(toks)
	if err != nil {
		return nil, err
	}
	edb := allFacts(s)
	res, err := eval.Evaluate(ctx, prog, edb, bounds)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func allFacts(s *store.Store) []eval.Fact {
	return facts.Extract(s, "", 0)
}
