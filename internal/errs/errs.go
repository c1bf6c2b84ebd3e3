// Package errs defines the closed set of error kinds returned by the
// graph store, the ingestion pipeline, and the Datalog engine.
//
// Callers match on Kind (or use errors.As against the concrete type) rather
// than on string-tagged ad hoc error values.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes an error for programmatic handling.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindSchemaCollision Kind = "schema_collision"
	KindForeignKey      Kind = "foreign_key"
	KindParseFormat     Kind = "parse_format"
	KindDatalogSyntax   Kind = "datalog_syntax"
	KindDatalogSafety   Kind = "datalog_safety"
	KindDatalogStratify Kind = "datalog_stratification"
	KindDatalogResource Kind = "datalog_resource"
	KindStorage         Kind = "storage"
)

// ErrNodeNotFound is returned by store lookups that find nothing.
var ErrNodeNotFound = errors.New("node not found")

// ErrEdgeNotFound is returned by store lookups that find nothing.
var ErrEdgeNotFound = errors.New("edge not found")

// ValidationError reports that a property bag failed schema validation for
// a node kind.
type ValidationError struct {
	Kind   string // node kind being validated
	Field  string // offending field, if any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: kind %q field %q: %s", e.Kind, e.Field, e.Reason)
	}
	return fmt.Sprintf("validation: kind %q: %s", e.Kind, e.Reason)
}

func (e *ValidationError) ErrKind() Kind { return KindValidation }

// SchemaCollision reports a natural-key clash on a create (not upsert).
type SchemaCollision struct {
	NaturalKey string
	ExistingID string
}

func (e *SchemaCollision) Error() string {
	return fmt.Sprintf("schema collision: natural key %q already owned by node %q", e.NaturalKey, e.ExistingID)
}

func (e *SchemaCollision) ErrKind() Kind { return KindSchemaCollision }

// ForeignKeyError reports that an edge referenced a node that doesn't exist.
type ForeignKeyError struct {
	EdgeKind string
	NodeID   string
	End      string // "source" or "target"
}

func (e *ForeignKeyError) Error() string {
	return fmt.Sprintf("foreign key: edge kind %q references missing %s node %q", e.EdgeKind, e.End, e.NodeID)
}

func (e *ForeignKeyError) ErrKind() Kind { return KindForeignKey }

// ParseFormatError reports malformed tool output.
type ParseFormatError struct {
	Tool   string
	Reason string
	Line   int // 0 if not line-oriented
}

func (e *ParseFormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse format: %s: line %d: %s", e.Tool, e.Line, e.Reason)
	}
	return fmt.Sprintf("parse format: %s: %s", e.Tool, e.Reason)
}

func (e *ParseFormatError) ErrKind() Kind { return KindParseFormat }

// DatalogSyntaxError carries the offending line and column.
type DatalogSyntaxError struct {
	Line   int
	Column int
	Reason string
}

func (e *DatalogSyntaxError) Error() string {
	return fmt.Sprintf("datalog syntax error at %d:%d: %s", e.Line, e.Column, e.Reason)
}

func (e *DatalogSyntaxError) ErrKind() Kind { return KindDatalogSyntax }

// DatalogSafetyError carries the unsafe variable and the rule's head predicate.
type DatalogSafetyError struct {
	Variable  string
	Predicate string
}

func (e *DatalogSafetyError) Error() string {
	return fmt.Sprintf("datalog safety error: variable %q in head of rule %q does not occur in a positive body literal", e.Variable, e.Predicate)
}

func (e *DatalogSafetyError) ErrKind() Kind { return KindDatalogSafety }

// DatalogStratificationError reports negation inside a recursive cycle.
type DatalogStratificationError struct {
	Predicate string
}

func (e *DatalogStratificationError) Error() string {
	return fmt.Sprintf("datalog stratification error: predicate %q has a negative edge inside its dependency cycle", e.Predicate)
}

func (e *DatalogStratificationError) ErrKind() Kind { return KindDatalogStratify }

// DatalogResourceError reports which resource bound was exceeded.
type DatalogResourceError struct {
	Bound string // "maxIterations", "maxTuples", "maxRules", "timeoutMs"
	Limit int64
}

func (e *DatalogResourceError) Error() string {
	return fmt.Sprintf("datalog resource error: exceeded bound %s (limit %d)", e.Bound, e.Limit)
}

func (e *DatalogResourceError) ErrKind() Kind { return KindDatalogResource }

// StorageError wraps a substrate I/O or transaction failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) ErrKind() Kind { return KindStorage }

// Kinded is implemented by every error type in this package, enabling
// callers to switch on Kind without a type switch.
type Kinded interface {
	error
	ErrKind() Kind
}

// KindOf returns the Kind of err if it (or something it wraps) implements
// Kinded, and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var k Kinded
	if errors.As(err, &k) {
		return k.ErrKind(), true
	}
	return "", false
}
