package ast

import "strings"

// Atom is a predicate applied to a tuple of terms: pred(t1, t2, ...).
type Atom struct {
	Predicate string
	Args      []Term
}

func (a Atom) String() string {
	args := make([]string, len(a.Args))
	for i, t := range a.Args {
		args[i] = t.String()
	}
	return a.Predicate + "(" + strings.Join(args, ", ") + ")"
}

// HasVar reports whether v occurs among a's arguments.
func (a Atom) HasVar(v Var) bool {
	for _, arg := range a.Args {
		if other, ok := arg.(Var); ok && other.Name == v.Name {
			return true
		}
	}
	return false
}

// CompareOp is a comparison operator used in a body comparison literal.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
)

func (op CompareOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	default:
		return "?"
	}
}

// Comparison is a body literal restricting two terms by a comparison
// operator: left op right.
type Comparison struct {
	Left  Term
	Op    CompareOp
	Right Term
}

func (c Comparison) String() string {
	return c.Left.String() + " " + c.Op.String() + " " + c.Right.String()
}
