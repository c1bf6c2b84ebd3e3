package store

import (
	"attacksurface/internal/kgraph/schema"
)

// Tx is a scoped mutation transaction: a batch of node and edge mutations
// that either all commit or none do. Each normalization runs inside
// exactly one. The ingestion facade's artifact upsert is not part of
// it: ingest.Ingest records the artifact through Store.UpsertNode
// before parsing, so that artifact stays in the store when parsing or
// normalization then fails. Begin acquires exclusive access to
// the store for the lifetime of the transaction; the caller must call
// Commit or Rollback exactly once.
type Tx struct {
	store *Store
	snap  snapshot
	done  bool
}

type snapshot struct {
	nodesByID         map[string]*Node
	nodesByNaturalKey map[string]*Node
	edgesByID         map[string]*Edge
	edgesByTriple     map[edgeTriple]*Edge
	edgesBySource     map[string][]*Edge
	edgesByTarget     map[string][]*Edge
}

// Begin opens a transaction against the store.
func (s *Store) Begin() *Tx {
	s.mu.Lock()

	nodesByID := cloneNodeMap(s.nodesByID)
	nodesByNaturalKey := make(map[string]*Node, len(s.nodesByNaturalKey))
	for key, n := range s.nodesByNaturalKey {
		nodesByNaturalKey[key] = nodesByID[n.ID]
	}

	edgesByID := cloneEdgeMap(s.edgesByID)
	edgesByTriple := make(map[edgeTriple]*Edge, len(s.edgesByTriple))
	for t, e := range s.edgesByTriple {
		edgesByTriple[t] = edgesByID[e.ID]
	}
	edgesBySource := make(map[string][]*Edge, len(s.edgesBySource))
	for k, edges := range s.edgesBySource {
		for _, e := range edges {
			edgesBySource[k] = append(edgesBySource[k], edgesByID[e.ID])
		}
	}
	edgesByTarget := make(map[string][]*Edge, len(s.edgesByTarget))
	for k, edges := range s.edgesByTarget {
		for _, e := range edges {
			edgesByTarget[k] = append(edgesByTarget[k], edgesByID[e.ID])
		}
	}

	return &Tx{
		store: s,
		snap: snapshot{
			nodesByID:         nodesByID,
			nodesByNaturalKey: nodesByNaturalKey,
			edgesByID:         edgesByID,
			edgesByTriple:     edgesByTriple,
			edgesBySource:     edgesBySource,
			edgesByTarget:     edgesByTarget,
		},
	}
}

// Commit finalizes every mutation made since Begin.
func (tx *Tx) Commit() {
	if tx.done {
		return
	}
	tx.done = true
	tx.store.mu.Unlock()
}

// Rollback discards every mutation made since Begin, restoring the store
// to the state it was in when the transaction opened.
func (tx *Tx) Rollback() {
	if tx.done {
		return
	}
	tx.done = true
	s := tx.store
	s.nodesByID = tx.snap.nodesByID
	s.nodesByNaturalKey = tx.snap.nodesByNaturalKey
	s.edgesByID = tx.snap.edgesByID
	s.edgesByTriple = tx.snap.edgesByTriple
	s.edgesBySource = tx.snap.edgesBySource
	s.edgesByTarget = tx.snap.edgesByTarget
	s.mu.Unlock()
}

// CreateNode behaves like Store.CreateNode, within this transaction.
func (tx *Tx) CreateNode(kind schema.Kind, raw map[string]any, parentID, evidenceID string) (*Node, error) {
	node, _, err := tx.store.createOrUpsertNodeLocked(kind, raw, parentID, evidenceID, false)
	return node, err
}

// UpsertNode behaves like Store.UpsertNode, within this transaction.
func (tx *Tx) UpsertNode(kind schema.Kind, raw map[string]any, parentID, evidenceID string) (*Node, bool, error) {
	return tx.store.createOrUpsertNodeLocked(kind, raw, parentID, evidenceID, true)
}

// FindByID behaves like Store.FindByID, within this transaction.
func (tx *Tx) FindByID(id string) (*Node, error) { return tx.store.findByIDLocked(id) }

// FindByNaturalKey behaves like Store.FindByNaturalKey, within this transaction.
func (tx *Tx) FindByNaturalKey(naturalKey string) (*Node, error) {
	return tx.store.findByNaturalKeyLocked(naturalKey)
}

// FindByKind behaves like Store.FindByKind, within this transaction.
func (tx *Tx) FindByKind(kind schema.Kind, filter map[string]any) []*Node {
	return tx.store.findByKindLocked(kind, filter)
}

// UpdateProps behaves like Store.UpdateProps, within this transaction.
func (tx *Tx) UpdateProps(id string, raw map[string]any) (*Node, error) {
	return tx.store.updatePropsLocked(id, raw)
}

// DeleteNode behaves like Store.DeleteNode, within this transaction.
func (tx *Tx) DeleteNode(id string) bool { return tx.store.deleteNodeLocked(id) }

// CreateEdge behaves like Store.CreateEdge, within this transaction.
func (tx *Tx) CreateEdge(kind EdgeKind, sourceID, targetID, evidenceID string, props map[string]any) (*Edge, error) {
	edge, _, err := tx.store.createOrUpsertEdgeLocked(kind, sourceID, targetID, evidenceID, props, false)
	return edge, err
}

// UpsertEdge behaves like Store.UpsertEdge, within this transaction.
func (tx *Tx) UpsertEdge(kind EdgeKind, sourceID, targetID, evidenceID string, props map[string]any) (*Edge, bool, error) {
	return tx.store.createOrUpsertEdgeLocked(kind, sourceID, targetID, evidenceID, props, true)
}

// FindBySource behaves like Store.FindBySource, within this transaction.
func (tx *Tx) FindBySource(nodeID string) []*Edge { return tx.store.edgesBySource[nodeID] }

// FindByTarget behaves like Store.FindByTarget, within this transaction.
func (tx *Tx) FindByTarget(nodeID string) []*Edge { return tx.store.edgesByTarget[nodeID] }

func cloneNodeMap(m map[string]*Node) map[string]*Node {
	out := make(map[string]*Node, len(m))
	for k, v := range m {
		cp := *v
		out[k] = &cp
	}
	return out
}

func cloneEdgeMap(m map[string]*Edge) map[string]*Edge {
	out := make(map[string]*Edge, len(m))
	for k, v := range m {
		cp := *v
		out[k] = &cp
	}
	return out
}

