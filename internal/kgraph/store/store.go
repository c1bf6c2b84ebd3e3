// Package store is the graph store: typed nodes and edges, natural-key
// indexed for idempotent upsert, mutated only inside a scoped transaction.
// Deletion is explicit and cascades; nothing is silently garbage collected.
package store

import (
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"attacksurface/internal/kgraph/schema"
)

// Node is a stored graph node: a stable identifier, a kind, a validated
// property bag, the natural key under which it is indexed, the id of its
// owning parent node (empty for root-level kinds), an optional evidence
// artifact reference, and creation/modification timestamps.
type Node struct {
	ID         string
	Kind       schema.Kind
	NaturalKey string
	Props      schema.Props
	ParentID   string
	EvidenceID string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// EdgeKind enumerates the relationship kinds recognized by the store.
type EdgeKind string

const (
	EdgeHostService           EdgeKind = "HOST_SERVICE"
	EdgeServiceEndpoint       EdgeKind = "SERVICE_ENDPOINT"
	EdgeServiceInput          EdgeKind = "SERVICE_INPUT"
	EdgeEndpointInput         EdgeKind = "ENDPOINT_INPUT"
	EdgeInputObservation      EdgeKind = "INPUT_OBSERVATION"
	EdgeServiceVulnerability  EdgeKind = "SERVICE_VULNERABILITY"
	EdgeEndpointVulnerability EdgeKind = "ENDPOINT_VULNERABILITY"
	EdgeVulnerabilityCVE      EdgeKind = "VULNERABILITY_CVE"
	EdgeServiceObservation    EdgeKind = "SERVICE_OBSERVATION"
	// EdgeServiceCredential is a supplemental edge kind attaching a
	// credential node to the service it was recovered against.
	EdgeServiceCredential EdgeKind = "SERVICE_CREDENTIAL"
)

// AllEdgeKinds lists every registered edge kind, in a stable order.
var AllEdgeKinds = []EdgeKind{
	EdgeHostService, EdgeServiceEndpoint, EdgeServiceInput, EdgeEndpointInput,
	EdgeInputObservation, EdgeServiceVulnerability, EdgeEndpointVulnerability,
	EdgeVulnerabilityCVE, EdgeServiceObservation, EdgeServiceCredential,
}

func (k EdgeKind) valid() bool {
	for _, c := range AllEdgeKinds {
		if c == k {
			return true
		}
	}
	return false
}

// Edge is a stored directed relationship between two nodes. The triple
// (Kind, SourceID, TargetID) is unique within the store.
type Edge struct {
	ID         string
	Kind       EdgeKind
	SourceID   string
	TargetID   string
	Props      map[string]any
	EvidenceID string
	CreatedAt  time.Time
}

type edgeTriple struct {
	kind   EdgeKind
	source string
	target string
}

// Store is the in-memory, mutex-guarded graph store backing the
// knowledge graph. All reads and writes go through it; the only way to
// batch several writes atomically is through a transaction opened with
// Begin.
type Store struct {
	mu sync.RWMutex

	nodesByID         map[string]*Node
	nodesByNaturalKey map[string]*Node

	edgesByID     map[string]*Edge
	edgesByTriple map[edgeTriple]*Edge
	edgesBySource map[string][]*Edge
	edgesByTarget map[string][]*Edge

	tracer  trace.Tracer
	nodeCtr metric.Int64Counter
	edgeCtr metric.Int64Counter
	logger  *slog.Logger
}

// New constructs an empty Store, wiring instrumentation from the global
// OpenTelemetry providers (a no-op meter/tracer if none was configured)
// and logging through slog.Default().
func New() *Store {
	meter := otel.Meter("attacksurface/kgraph/store")
	nodeCtr, _ := meter.Int64Counter("kgraph.store.node_mutations")
	edgeCtr, _ := meter.Int64Counter("kgraph.store.edge_mutations")
	return &Store{
		nodesByID:         make(map[string]*Node),
		nodesByNaturalKey: make(map[string]*Node),
		edgesByID:         make(map[string]*Edge),
		edgesByTriple:     make(map[edgeTriple]*Edge),
		edgesBySource:     make(map[string][]*Edge),
		edgesByTarget:     make(map[string][]*Edge),
		tracer:            otel.Tracer("attacksurface/kgraph/store"),
		nodeCtr:           nodeCtr,
		edgeCtr:           edgeCtr,
		logger:            slog.Default(),
	}
}

// SetLogger overrides the store's logger, replacing the slog.Default()
// fallback used by New.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Stats summarizes the current contents of the store.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	NodesByKind map[schema.Kind]int
	EdgesByKind map[EdgeKind]int
}

// Stats reports node and edge counts, overall and per kind.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		NodeCount:   len(s.nodesByID),
		EdgeCount:   len(s.edgesByID),
		NodesByKind: make(map[schema.Kind]int),
		EdgesByKind: make(map[EdgeKind]int),
	}
	for _, n := range s.nodesByID {
		st.NodesByKind[n.Kind]++
	}
	for _, e := range s.edgesByID {
		st.EdgesByKind[e.Kind]++
	}
	return st
}
