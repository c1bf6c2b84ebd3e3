package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"attacksurface/internal/errs"
)

// CreateEdge inserts a new edge of kind between sourceID and targetID. It
// fails with a ForeignKeyError if either endpoint does not exist, or a
// SchemaCollision if the (kind, source, target) triple is already taken;
// use UpsertEdge when that should instead update the existing edge.
func (s *Store) CreateEdge(ctx context.Context, kind EdgeKind, sourceID, targetID, evidenceID string, props map[string]any) (*Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, span := s.tracer.Start(ctx, "store.CreateEdge")
	defer span.End()

	edge, _, err := s.createOrUpsertEdgeLocked(kind, sourceID, targetID, evidenceID, props, false)
	if err == nil {
		s.edgeCtr.Add(ctx, 1)
	}
	return edge, err
}

// UpsertEdge inserts or updates an edge; it is idempotent on the
// (kind, source, target) triple.
func (s *Store) UpsertEdge(ctx context.Context, kind EdgeKind, sourceID, targetID, evidenceID string, props map[string]any) (edge *Edge, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, span := s.tracer.Start(ctx, "store.UpsertEdge")
	defer span.End()

	edge, created, err = s.createOrUpsertEdgeLocked(kind, sourceID, targetID, evidenceID, props, true)
	if err == nil {
		s.edgeCtr.Add(ctx, 1)
	}
	return edge, created, err
}

func (s *Store) createOrUpsertEdgeLocked(kind EdgeKind, sourceID, targetID, evidenceID string, props map[string]any, upsert bool) (*Edge, bool, error) {
	if !kind.valid() {
		return nil, false, &errs.ValidationError{Kind: string(kind), Reason: "unknown edge kind"}
	}
	if _, ok := s.nodesByID[sourceID]; !ok {
		return nil, false, &errs.ForeignKeyError{EdgeKind: string(kind), NodeID: sourceID, End: "source"}
	}
	if _, ok := s.nodesByID[targetID]; !ok {
		return nil, false, &errs.ForeignKeyError{EdgeKind: string(kind), NodeID: targetID, End: "target"}
	}

	triple := edgeTriple{kind: kind, source: sourceID, target: targetID}
	if existing, ok := s.edgesByTriple[triple]; ok {
		if !upsert {
			return nil, false, &errs.SchemaCollision{NaturalKey: edgeTripleKey(triple), ExistingID: existing.ID}
		}
		existing.Props = props
		return existing, false, nil
	}

	edge := &Edge{
		ID:         uuid.NewString(),
		Kind:       kind,
		SourceID:   sourceID,
		TargetID:   targetID,
		Props:      props,
		EvidenceID: evidenceID,
		CreatedAt:  time.Now(),
	}
	s.edgesByID[edge.ID] = edge
	s.edgesByTriple[triple] = edge
	s.edgesBySource[sourceID] = append(s.edgesBySource[sourceID], edge)
	s.edgesByTarget[targetID] = append(s.edgesByTarget[targetID], edge)
	return edge, true, nil
}

func edgeTripleKey(t edgeTriple) string {
	return string(t.kind) + ":" + t.source + ":" + t.target
}

// FindBySource returns every edge whose source is nodeID.
func (s *Store) FindBySource(nodeID string) []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Edge(nil), s.edgesBySource[nodeID]...)
}

// FindByTarget returns every edge whose target is nodeID.
func (s *Store) FindByTarget(nodeID string) []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Edge(nil), s.edgesByTarget[nodeID]...)
}

// FindEdgesByKind returns every edge of the given kind.
func (s *Store) FindEdgesByKind(kind EdgeKind) []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Edge
	for _, e := range s.edgesByID {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// cascadeDeleteEdgesLocked removes every edge adjacent to nodeID. Callers
// must hold s.mu for writing.
func (s *Store) cascadeDeleteEdgesLocked(nodeID string) {
	adjacent := append(append([]*Edge(nil), s.edgesBySource[nodeID]...), s.edgesByTarget[nodeID]...)
	for _, e := range adjacent {
		delete(s.edgesByID, e.ID)
		delete(s.edgesByTriple, edgeTriple{kind: e.Kind, source: e.SourceID, target: e.TargetID})
	}
	delete(s.edgesBySource, nodeID)
	delete(s.edgesByTarget, nodeID)

	// An edge adjacent to nodeID on one end may still be indexed under the
	// other end's slice; prune it there too.
	for other, edges := range s.edgesBySource {
		s.edgesBySource[other] = pruneEdges(edges, nodeID)
	}
	for other, edges := range s.edgesByTarget {
		s.edgesByTarget[other] = pruneEdges(edges, nodeID)
	}
}

func pruneEdges(edges []*Edge, deletedNodeID string) []*Edge {
	out := edges[:0:0]
	for _, e := range edges {
		if e.SourceID != deletedNodeID && e.TargetID != deletedNodeID {
			out = append(out, e)
		}
	}
	return out
}
