package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"attacksurface/internal/errs"
	"attacksurface/internal/kgraph/schema"
)

// CreateNode validates raw against kind's schema, computes its natural
// key, and inserts a new node. It fails with a SchemaCollision if the
// natural key is already owned by another node; use UpsertNode when that
// should instead update the existing node.
func (s *Store) CreateNode(ctx context.Context, kind schema.Kind, raw map[string]any, parentID, evidenceID string) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, span := s.tracer.Start(ctx, "store.CreateNode")
	defer span.End()

	node, _, err := s.createOrUpsertNodeLocked(kind, raw, parentID, evidenceID, false)
	if err != nil {
		s.logger.Debug("create node failed", "kind", kind, "error", err)
		return nil, err
	}
	s.nodeCtr.Add(ctx, 1)
	s.logger.Debug("node created", "kind", kind, "id", node.ID)
	return node, nil
}

// UpsertNode validates raw against kind's schema and either updates the
// node already owning the computed natural key (returning created=false)
// or creates a new one (created=true).
func (s *Store) UpsertNode(ctx context.Context, kind schema.Kind, raw map[string]any, parentID, evidenceID string) (node *Node, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, span := s.tracer.Start(ctx, "store.UpsertNode")
	defer span.End()

	node, created, err = s.createOrUpsertNodeLocked(kind, raw, parentID, evidenceID, true)
	if err != nil {
		s.logger.Debug("upsert node failed", "kind", kind, "error", err)
		return nil, false, err
	}
	s.nodeCtr.Add(ctx, 1)
	s.logger.Debug("node upserted", "kind", kind, "id", node.ID, "created", created)
	return node, created, nil
}

func (s *Store) createOrUpsertNodeLocked(kind schema.Kind, raw map[string]any, parentID, evidenceID string, upsert bool) (*Node, bool, error) {
	props, err := schema.Validate(kind, raw)
	if err != nil {
		return nil, false, err
	}
	naturalKey := props.NaturalKey(parentID)

	if existing, ok := s.nodesByNaturalKey[naturalKey]; ok {
		if !upsert {
			return nil, false, &errs.SchemaCollision{NaturalKey: naturalKey, ExistingID: existing.ID}
		}
		existing.Props = props
		existing.ModifiedAt = time.Now()
		return existing, false, nil
	}

	now := time.Now()
	node := &Node{
		ID:         uuid.NewString(),
		Kind:       kind,
		NaturalKey: naturalKey,
		Props:      props,
		ParentID:   parentID,
		EvidenceID: evidenceID,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	s.nodesByID[node.ID] = node
	s.nodesByNaturalKey[naturalKey] = node
	return node, true, nil
}

// FindByID returns the node with the given id, or ErrNodeNotFound.
func (s *Store) FindByID(id string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findByIDLocked(id)
}

// FindByNaturalKey returns the node owning naturalKey, or ErrNodeNotFound.
func (s *Store) FindByNaturalKey(naturalKey string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findByNaturalKeyLocked(naturalKey)
}

// FindByKind returns every node of kind whose canonical properties match
// filter (a subset of ToMap() key/value pairs); a nil or empty filter
// matches every node of that kind.
func (s *Store) FindByKind(kind schema.Kind, filter map[string]any) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findByKindLocked(kind, filter)
}

func matchesFilter(props, filter map[string]any) bool {
	for k, want := range filter {
		if got, ok := props[k]; !ok || got != want {
			return false
		}
	}
	return true
}

// UpdateProps revalidates raw against the existing node's kind, updates
// its canonical property bag and modification timestamp, and reindexes
// the node under its (possibly changed) natural key.
func (s *Store) UpdateProps(ctx context.Context, id string, raw map[string]any) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, span := s.tracer.Start(ctx, "store.UpdateProps")
	defer span.End()

	return s.updatePropsLocked(id, raw)
}

func (s *Store) updatePropsLocked(id string, raw map[string]any) (*Node, error) {
	node, ok := s.nodesByID[id]
	if !ok {
		return nil, errs.ErrNodeNotFound
	}
	props, err := schema.Validate(node.Kind, raw)
	if err != nil {
		return nil, err
	}
	newKey := props.NaturalKey(node.ParentID)
	if newKey != node.NaturalKey {
		if other, ok := s.nodesByNaturalKey[newKey]; ok && other.ID != node.ID {
			return nil, &errs.SchemaCollision{NaturalKey: newKey, ExistingID: other.ID}
		}
		delete(s.nodesByNaturalKey, node.NaturalKey)
		s.nodesByNaturalKey[newKey] = node
		node.NaturalKey = newKey
	}
	node.Props = props
	node.ModifiedAt = time.Now()
	return node, nil
}

// DeleteNode removes the node with the given id and cascades the
// deletion to every edge adjacent to it. Returns false if no such node
// existed.
func (s *Store) DeleteNode(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, span := s.tracer.Start(ctx, "store.DeleteNode")
	defer span.End()

	deleted := s.deleteNodeLocked(id)
	s.logger.Debug("node deleted", "id", id, "found", deleted)
	return deleted
}

func (s *Store) deleteNodeLocked(id string) bool {
	node, ok := s.nodesByID[id]
	if !ok {
		return false
	}
	delete(s.nodesByID, id)
	delete(s.nodesByNaturalKey, node.NaturalKey)
	s.cascadeDeleteEdgesLocked(id)
	return true
}

func (s *Store) findByIDLocked(id string) (*Node, error) {
	n, ok := s.nodesByID[id]
	if !ok {
		return nil, errs.ErrNodeNotFound
	}
	return n, nil
}

func (s *Store) findByNaturalKeyLocked(naturalKey string) (*Node, error) {
	n, ok := s.nodesByNaturalKey[naturalKey]
	if !ok {
		return nil, errs.ErrNodeNotFound
	}
	return n, nil
}

func (s *Store) findByKindLocked(kind schema.Kind, filter map[string]any) []*Node {
	var out []*Node
	for _, n := range s.nodesByID {
		if n.Kind != kind {
			continue
		}
		if matchesFilter(n.Props.ToMap(), filter) {
			out = append(out, n)
		}
	}
	return out
}
