// Package ast defines the Datalog abstract syntax — terms, atoms, rules,
// queries, and programs — and the recursive-descent parser and safety
// checker that build it from a token.Token stream.
package ast

import "fmt"

// Term is either a Var or a Const. Both values, never pointers: terms are
// compared and substituted by value throughout the evaluator.
type Term interface {
	isTerm()
	String() string
}

// Var is a variable term, identified by name. Two Var values with the
// same Name refer to the same logical variable within a rule.
type Var struct {
	Name string
}

func (Var) isTerm()          {}
func (v Var) String() string { return v.Name }

// Const is a ground value term: either a string or a float64.
type Const struct {
	Value any
}

func (Const) isTerm() {}

func (c Const) String() string {
	switch v := c.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// IsVariable reports whether t is a Var (as opposed to a ground Const).
func IsVariable(t Term) bool {
	_, ok := t.(Var)
	return ok
}
