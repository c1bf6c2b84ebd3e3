// Package schema validates node property bags per node kind and derives the
// deterministic natural key used for idempotent upsert.
//
// Each node kind has a strongly typed variant (HostProps, ServiceProps, ...)
// rather than a single dynamic bag; Validate is the only place a raw
// map[string]any property bag is accepted, and the variant it returns is the
// canonical form stored on the node from then on.
package schema

import "attacksurface/internal/errs"

// Kind enumerates the node kinds recognized by the graph store.
type Kind string

const (
	KindHost           Kind = "host"
	KindService        Kind = "service"
	KindEndpoint       Kind = "endpoint"
	KindInput          Kind = "input"
	KindObservation    Kind = "observation"
	KindSvcObservation Kind = "svc_observation"
	KindVulnerability  Kind = "vulnerability"
	KindCVE            Kind = "cve"
	KindVHost          Kind = "vhost"
	KindArtifact       Kind = "artifact"
	// KindCredential records a recovered credential against a service.
	// Always creates; never merges.
	KindCredential Kind = "credential"
	// KindRule backs the saved-rule registry: a named Datalog program
	// persisted alongside the graph, keyed by its unique name.
	KindRule Kind = "rule"
)

// AllKinds lists every registered node kind, in a stable order.
var AllKinds = []Kind{
	KindHost, KindService, KindEndpoint, KindInput,
	KindObservation, KindSvcObservation, KindVulnerability, KindCVE,
	KindVHost, KindArtifact, KindCredential, KindRule,
}

func (k Kind) valid() bool {
	for _, c := range AllKinds {
		if c == k {
			return true
		}
	}
	return false
}

// Props is implemented by every node kind's canonical, validated property
// variant. It is the tagged-union payload carried by a store Node.
type Props interface {
	// Kind returns the node kind this variant belongs to.
	Kind() Kind

	// NaturalKey computes this variant's deterministic natural key.
	// parentID is the owning node's id, or "" for root-level kinds.
	NaturalKey(parentID string) string

	// ToMap returns the canonical property bag, for serialization at the
	// storage boundary only.
	ToMap() map[string]any
}

// Validate validates a raw property bag against the schema for kind and
// returns its canonical, strongly typed form.
func Validate(kind Kind, raw map[string]any) (Props, error) {
	if !kind.valid() {
		return nil, &errs.ValidationError{Kind: string(kind), Reason: "unknown node kind"}
	}
	switch kind {
	case KindHost:
		return validateHost(raw)
	case KindService:
		return validateService(raw)
	case KindEndpoint:
		return validateEndpoint(raw)
	case KindInput:
		return validateInput(raw)
	case KindObservation:
		return validateObservation(raw)
	case KindSvcObservation:
		return validateSvcObservation(raw)
	case KindVulnerability:
		return validateVulnerability(raw)
	case KindCVE:
		return validateCVE(raw)
	case KindVHost:
		return validateVHost(raw)
	case KindArtifact:
		return validateArtifact(raw)
	case KindCredential:
		return validateCredential(raw)
	case KindRule:
		return validateRule(raw)
	default:
		return nil, &errs.ValidationError{Kind: string(kind), Reason: "unknown node kind"}
	}
}
