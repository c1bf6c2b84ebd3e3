package ast

import "strings"

// Rule is a head atom plus a (possibly empty) body. An empty body marks a
// fact.
type Rule struct {
	Head Atom
	Body []BodyLiteral
}

// IsFact reports whether r is a fact (no body).
func (r Rule) IsFact() bool { return len(r.Body) == 0 }

func (r Rule) String() string {
	if r.IsFact() {
		return r.Head.String() + "."
	}
	parts := make([]string, len(r.Body))
	for i, b := range r.Body {
		parts[i] = b.String()
	}
	return r.Head.String() + " :- " + strings.Join(parts, ", ") + "."
}

// Query is a top-level "?- goal." directive.
type Query struct {
	Goal Atom
}

func (q Query) String() string { return "?- " + q.Goal.String() + "." }

// Program is a parsed, safety-checked Datalog source unit: an ordered
// list of rules (facts and non-fact rules interleaved as written) and an
// ordered list of queries.
type Program struct {
	Rules   []Rule
	Queries []Query
}
