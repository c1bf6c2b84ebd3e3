// Package eval is the semi-naive, stratified-negation Datalog evaluator:
// it computes the minimal model of a parsed program restricted to its
// queries, under hard resource bounds, and is strictly read-only — the
// relations it materializes live only for the duration of one Evaluate
// call.
package eval

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"attacksurface/internal/datalog/ast"
	"attacksurface/internal/errs"
)

// Bounds are the hard resource limits enforced during evaluation. Hitting
// any of them aborts evaluation with a DatalogResourceError and discards
// any partial answer.
type Bounds struct {
	MaxIterations int           // per stratum
	MaxTuples     int           // total derived tuples across all predicates
	MaxRules      int           // program size cap, checked once at start
	Timeout       time.Duration // wall clock, checked between iterations
}

// DefaultBounds returns the evaluator's default resource limits.
func DefaultBounds() Bounds {
	return Bounds{
		MaxIterations: 1000,
		MaxTuples:     100_000,
		MaxRules:      200,
		Timeout:       5 * time.Second,
	}
}

// QueryResult is the answer to one program query: the goal atom it was
// asked against, the names of the goal's variable columns (in argument
// order; repeated variables repeat their name), and the distinct
// projected tuples — one value per variable column, per matching fact.
// Constant argument positions are not repeated in the tuples; the goal
// atom itself already records them.
type QueryResult struct {
	Goal    ast.Atom
	Columns []string
	Tuples  [][]Value
}

// Stats reports how much work one Evaluate call did.
type Stats struct {
	Iterations  int
	TotalTuples int
	ElapsedMs   int64
}

// Result is the outcome of evaluating a program: one QueryResult per
// program query, in program order, plus aggregate statistics.
type Result struct {
	Answers []QueryResult
	Stats   Stats
}

var tracer = otel.Tracer("attacksurface/datalog/eval")

var logger = slog.Default()

// SetLogger overrides the package-level logger used to report
// stratification and evaluation stats, replacing the slog.Default()
// fallback.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Evaluate computes the minimal model of program over the union of edb
// and the program's own fact rules, then answers every query in program
// against that model. edb is never mutated. The returned relations exist
// only for the duration of this call.
func Evaluate(ctx context.Context, program *ast.Program, edb []Fact, bounds Bounds) (*Result, error) {
	ctx, span := tracer.Start(ctx, "datalog.Evaluate",
		trace.WithAttributes(
			attribute.Int("datalog.rule_count", len(program.Rules)),
			attribute.Int("datalog.query_count", len(program.Queries)),
		))
	defer span.End()

	if bounds.MaxRules > 0 && len(program.Rules) > bounds.MaxRules {
		err := &errs.DatalogResourceError{Bound: "maxRules", Limit: int64(bounds.MaxRules)}
		span.RecordError(err)
		return nil, err
	}

	start := time.Now()
	rel := newRelationStore()

	edbPredicates := make(map[string]bool)
	for _, f := range edb {
		edbPredicates[f.Predicate] = true
		rel.getOrCreate(f.Predicate).add(f.Args)
	}

	var ruleRules []ast.Rule
	for _, r := range program.Rules {
		if r.IsFact() {
			tuple := constTuple(r.Head)
			edbPredicates[r.Head.Predicate] = true
			rel.getOrCreate(r.Head.Predicate).add(tuple)
			continue
		}
		ruleRules = append(ruleRules, r)
	}

	// Tuples loaded from edb and fact rules are not derived; the
	// maxTuples bound counts only what rule evaluation adds on top.
	baseTuples := rel.totalTuples()

	edbNames := make([]string, 0, len(edbPredicates))
	for p := range edbPredicates {
		edbNames = append(edbNames, p)
	}

	strata, err := stratify(ruleRules, edbNames)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	logger.Debug("program stratified", "strata", len(strata), "rule_count", len(ruleRules))

	totalIterations := 0
	for si, st := range strata {
		rulesHere := rulesForStratum(ruleRules, st)
		if len(rulesHere) == 0 {
			continue
		}
		iters, err := runStratum(ctx, rel, rulesHere, st, bounds, start, baseTuples)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		totalIterations += iters
		span.AddEvent("stratum evaluated", trace.WithAttributes(
			attribute.Int("datalog.stratum_index", si),
			attribute.Int("datalog.stratum_iterations", iters),
		))
	}

	answers := make([]QueryResult, 0, len(program.Queries))
	for _, q := range program.Queries {
		answers = append(answers, projectQuery(q.Goal, rel.get(q.Goal.Predicate)))
	}

	stats := Stats{
		Iterations:  totalIterations,
		TotalTuples: rel.totalTuples(),
		ElapsedMs:   time.Since(start).Milliseconds(),
	}
	logger.Info("evaluation complete",
		"iterations", stats.Iterations, "total_tuples", stats.TotalTuples, "elapsed_ms", stats.ElapsedMs)

	return &Result{Answers: answers, Stats: stats}, nil
}

func constTuple(a ast.Atom) []Value {
	out := make([]Value, len(a.Args))
	for i, arg := range a.Args {
		if c, ok := arg.(ast.Const); ok {
			out[i] = c.Value
		}
	}
	return out
}

func rulesForStratum(rules []ast.Rule, st stratum) []ast.Rule {
	var out []ast.Rule
	for _, r := range rules {
		if st.predicates[r.Head.Predicate] {
			out = append(out, r)
		}
	}
	return out
}

// runStratum iterates rulesHere to a fixed point using semi-naive
// evaluation: each round, every rule is evaluated once per local positive
// atom position, sourcing that position from the predicate's delta (the
// tuples discovered last round) and every other position from the
// predicate's accumulated relation. Non-local predicates (lower strata or
// EDB, already final) are always read from the global relation store.
func runStratum(ctx context.Context, rel *relationStore, rulesHere []ast.Rule, st stratum, bounds Bounds, start time.Time, baseTuples int) (int, error) {
	iteration := 0
	// delta seeds with whatever is already known for local predicates
	// (e.g. a local predicate that also happens to be an EDB name).
	delta := make(map[string][][]Value)
	for p := range st.predicates {
		delta[p] = append(delta[p], rel.get(p).all()...)
	}

	for {
		if bounds.Timeout > 0 && time.Since(start) > bounds.Timeout {
			return iteration, &errs.DatalogResourceError{Bound: "timeoutMs", Limit: bounds.Timeout.Milliseconds()}
		}
		if bounds.MaxIterations > 0 && iteration >= bounds.MaxIterations {
			return iteration, &errs.DatalogResourceError{Bound: "maxIterations", Limit: int64(bounds.MaxIterations)}
		}
		select {
		case <-ctx.Done():
			return iteration, &errs.DatalogResourceError{Bound: "timeoutMs", Limit: bounds.Timeout.Milliseconds()}
		default:
		}

		newTuples := make(map[string][][]Value)
		anyNew := false

		for _, r := range rulesHere {
			localPosIdxs := localPositiveIndices(r, st)
			variants := len(localPosIdxs)
			if variants == 0 {
				variants = 1
			}
			for v := 0; v < variants; v++ {
				deltaPos := -1
				if len(localPosIdxs) > 0 {
					deltaPos = localPosIdxs[v]
				}
				candidates := evalRule(r, deltaPos, st, rel, delta)
				for _, c := range candidates {
					target := rel.getOrCreate(r.Head.Predicate)
					if target.has(c) {
						continue
					}
					key := keyOf(c)
					dup := false
					for _, existing := range newTuples[r.Head.Predicate] {
						if keyOf(existing) == key {
							dup = true
							break
						}
					}
					if dup {
						continue
					}
					newTuples[r.Head.Predicate] = append(newTuples[r.Head.Predicate], c)
					anyNew = true
				}
			}
		}

		if !anyNew {
			return iteration, nil
		}

		derivedThisRound := 0
		for _, tuples := range newTuples {
			derivedThisRound += len(tuples)
		}
		if bounds.MaxTuples > 0 && rel.totalTuples()-baseTuples+derivedThisRound > bounds.MaxTuples {
			return iteration, &errs.DatalogResourceError{Bound: "maxTuples", Limit: int64(bounds.MaxTuples)}
		}

		for pred, tuples := range newTuples {
			target := rel.getOrCreate(pred)
			for _, t := range tuples {
				target.add(t)
			}
		}
		delta = newTuples
		iteration++
	}
}

// localPositiveIndices returns the body indices of positive atoms whose
// predicate belongs to this stratum — the positions eligible to source
// from a delta relation during semi-naive evaluation.
func localPositiveIndices(r ast.Rule, st stratum) []int {
	var out []int
	for i, lit := range r.Body {
		if lit.IsComparison || lit.Negated {
			continue
		}
		if st.predicates[lit.Atom.Predicate] {
			out = append(out, i)
		}
	}
	return out
}

type binding map[string]Value

// evalRule joins r's body left to right, sourcing the literal at
// deltaPos (if any) from delta and every other local-predicate positive
// literal from rel's accumulated relation; non-local predicates always
// read from rel (already final). Returns every instantiated head tuple.
func evalRule(r ast.Rule, deltaPos int, st stratum, rel *relationStore, delta map[string][][]Value) [][]Value {
	var results [][]Value

	var walk func(i int, b binding)
	walk = func(i int, b binding) {
		if i == len(r.Body) {
			tuple := make([]Value, len(r.Head.Args))
			for j, arg := range r.Head.Args {
				switch t := arg.(type) {
				case ast.Var:
					tuple[j] = b[t.Name]
				case ast.Const:
					tuple[j] = t.Value
				}
			}
			results = append(results, tuple)
			return
		}

		lit := r.Body[i]
		switch {
		case lit.IsComparison:
			nb, ok := evalComparison(lit.Comparison, b)
			if ok {
				walk(i+1, nb)
			}
		case lit.Negated:
			// "not p(...)" succeeds iff no tuple in p's (already final)
			// relation unifies with the pattern under the current binding;
			// unbound variables act as wildcards.
			target := rel.get(lit.Atom.Predicate)
			matched := false
			for _, tup := range target.all() {
				if _, ok := bindAtom(lit.Atom, tup, b); ok {
					matched = true
					break
				}
			}
			if !matched {
				walk(i+1, b)
			}
		default:
			pred := lit.Atom.Predicate
			var source [][]Value
			if i == deltaPos {
				source = delta[pred]
			} else {
				source = rel.get(pred).all()
			}
			for _, tup := range source {
				if nb, ok := bindAtom(lit.Atom, tup, b); ok {
					walk(i+1, nb)
				}
			}
		}
	}

	walk(0, binding{})
	return results
}

func bindAtom(atom ast.Atom, tuple []Value, b binding) (binding, bool) {
	if len(tuple) != len(atom.Args) {
		return nil, false
	}
	nb := make(binding, len(b)+len(atom.Args))
	for k, v := range b {
		nb[k] = v
	}
	for i, arg := range atom.Args {
		switch t := arg.(type) {
		case ast.Var:
			if existing, ok := nb[t.Name]; ok {
				if !valuesEqual(existing, tuple[i]) {
					return nil, false
				}
			} else {
				nb[t.Name] = tuple[i]
			}
		case ast.Const:
			if !valuesEqual(t.Value, tuple[i]) {
				return nil, false
			}
		}
	}
	return nb, true
}

// evalComparison applies one comparison literal against b. "=" acts as
// an assignment when exactly one side is an unbound variable (binding
// it to the other, already-ground side); every other operator requires
// both operands already bound, and simply fails (rather than erroring)
// when that range restriction or a type requirement isn't met.
func evalComparison(c ast.Comparison, b binding) (binding, bool) {
	leftVal, leftBound := resolve(c.Left, b)
	rightVal, rightBound := resolve(c.Right, b)

	if c.Op == ast.OpEq {
		switch {
		case leftBound && rightBound:
			return b, valuesEqual(leftVal, rightVal)
		case leftBound && !rightBound:
			rv, ok := c.Right.(ast.Var)
			if !ok {
				return b, false
			}
			nb := cloneBinding(b)
			nb[rv.Name] = leftVal
			return nb, true
		case rightBound && !leftBound:
			lv, ok := c.Left.(ast.Var)
			if !ok {
				return b, false
			}
			nb := cloneBinding(b)
			nb[lv.Name] = rightVal
			return nb, true
		default:
			return b, false
		}
	}

	if !leftBound || !rightBound {
		return b, false
	}

	if c.Op == ast.OpNeq {
		return b, !valuesEqual(leftVal, rightVal)
	}

	lf, lok := leftVal.(float64)
	rf, rok := rightVal.(float64)
	if !lok || !rok {
		return b, false
	}
	switch c.Op {
	case ast.OpLt:
		return b, lf < rf
	case ast.OpLte:
		return b, lf <= rf
	case ast.OpGt:
		return b, lf > rf
	case ast.OpGte:
		return b, lf >= rf
	default:
		return b, false
	}
}

func resolve(t ast.Term, b binding) (Value, bool) {
	switch v := t.(type) {
	case ast.Const:
		return v.Value, true
	case ast.Var:
		val, ok := b[v.Name]
		return val, ok
	default:
		return nil, false
	}
}

func cloneBinding(b binding) binding {
	nb := make(binding, len(b)+1)
	for k, v := range b {
		nb[k] = v
	}
	return nb
}

// projectQuery filters rel's tuples through goal's argument pattern
// (constants restrict, repeated variables must agree) and projects the
// surviving rows down to their variable positions, in argument order,
// deduplicated.
func projectQuery(goal ast.Atom, rel *relation) QueryResult {
	var columns []string
	for _, arg := range goal.Args {
		if v, ok := arg.(ast.Var); ok {
			columns = append(columns, v.Name)
		}
	}

	seen := make(map[string]bool)
	var tuples [][]Value
	for _, t := range rel.all() {
		if len(t) != len(goal.Args) {
			continue
		}
		bound := make(map[string]Value)
		ok := true
		for i, arg := range goal.Args {
			switch a := arg.(type) {
			case ast.Const:
				if !valuesEqual(a.Value, t[i]) {
					ok = false
				}
			case ast.Var:
				if bv, exists := bound[a.Name]; exists {
					if !valuesEqual(bv, t[i]) {
						ok = false
					}
				} else {
					bound[a.Name] = t[i]
				}
			}
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}
		row := make([]Value, 0, len(columns))
		for _, arg := range goal.Args {
			if v, ok := arg.(ast.Var); ok {
				row = append(row, bound[v.Name])
			}
		}
		key := keyOf(row)
		if !seen[key] {
			seen[key] = true
			tuples = append(tuples, row)
		}
	}
	return QueryResult{Goal: goal, Columns: columns, Tuples: tuples}
}
