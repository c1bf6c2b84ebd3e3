package ast

import "attacksurface/internal/errs"

// checkSafety verifies that every variable in r's head occurs in at
// least one non-negated body literal. Facts bypass the check by
// construction (callers never call this for an empty body).
func checkSafety(r Rule) error {
	for _, arg := range r.Head.Args {
		v, ok := arg.(Var)
		if !ok {
			continue
		}
		if !occursPositively(v, r.Body) {
			return &errs.DatalogSafetyError{Variable: v.Name, Predicate: r.Head.Predicate}
		}
	}
	return nil
}

// occursPositively reports whether v is grounded by some non-negated body
// literal: a positive atom, or a comparison (the grammar has no "negated"
// comparison, so any comparison counts). Only a strictly negation-only
// occurrence leaves a head variable unsafe.
func occursPositively(v Var, body []BodyLiteral) bool {
	for _, lit := range body {
		if lit.Negated {
			continue
		}
		if lit.HasVar(v) {
			return true
		}
	}
	return false
}
