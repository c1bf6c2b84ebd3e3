package eval

import (
	"attacksurface/internal/datalog/ast"
	"attacksurface/internal/errs"
)

// depEdge is one edge of the predicate dependency graph: head depends on
// to, negatively if the body referenced to inside a "not".
type depEdge struct {
	to       string
	negative bool
}

// buildDependencyGraph collects every predicate name mentioned anywhere in
// the program (as a rule head, a body atom, or an EDB predicate) and the
// edges head -> body-predicate for every non-fact rule.
func buildDependencyGraph(rules []ast.Rule, edbPredicates []string) (nodes []string, graph map[string][]depEdge) {
	graph = make(map[string][]depEdge)
	seen := make(map[string]bool)
	addNode := func(p string) {
		if !seen[p] {
			seen[p] = true
			nodes = append(nodes, p)
		}
		if _, ok := graph[p]; !ok {
			graph[p] = nil
		}
	}

	for _, p := range edbPredicates {
		addNode(p)
	}
	for _, r := range rules {
		addNode(r.Head.Predicate)
		if r.IsFact() {
			continue
		}
		for _, lit := range r.Body {
			if lit.IsComparison {
				continue
			}
			addNode(lit.Atom.Predicate)
			graph[r.Head.Predicate] = append(graph[r.Head.Predicate], depEdge{to: lit.Atom.Predicate, negative: lit.Negated})
		}
	}
	return nodes, graph
}

// tarjan computes the strongly connected components of graph restricted
// to nodes, in Tarjan's natural output order. That order already matches
// the stratification requirement: a component is emitted only after
// every component it points to (directly or transitively) has been
// emitted, so indexing the returned slice 0..k gives strata in evaluation
// order (stratum 0 first).
func tarjan(nodes []string, graph map[string][]depEdge) [][]string {
	index := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	counter := 0
	var sccs [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, e := range graph[v] {
			w := e.to
			if _, visited := index[w]; !visited {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var comp []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, comp)
		}
	}

	for _, v := range nodes {
		if _, visited := index[v]; !visited {
			strongconnect(v)
		}
	}
	return sccs
}

// stratum is one layer of the stratified evaluation order: the set of
// predicates in its dependency component, in the order they must be
// evaluated (index 0 first).
type stratum struct {
	predicates map[string]bool
}

// stratify computes the evaluation strata for rules, given the set of
// EDB predicate names supplied by the fact extractor. It returns a
// stratification error if any dependency component contains a negative
// edge between two members of the same component.
func stratify(rules []ast.Rule, edbPredicates []string) ([]stratum, error) {
	nodes, graph := buildDependencyGraph(rules, edbPredicates)
	sccs := tarjan(nodes, graph)

	strata := make([]stratum, 0, len(sccs))
	for _, comp := range sccs {
		member := make(map[string]bool, len(comp))
		for _, p := range comp {
			member[p] = true
		}
		for _, p := range comp {
			for _, e := range graph[p] {
				if e.negative && member[e.to] {
					return nil, &errs.DatalogStratificationError{Predicate: p}
				}
			}
		}
		strata = append(strata, stratum{predicates: member})
	}
	return strata, nil
}
