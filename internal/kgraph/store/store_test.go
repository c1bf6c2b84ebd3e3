package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attacksurface/internal/errs"
	"attacksurface/internal/kgraph/schema"
	"attacksurface/internal/kgraph/store"
)

func TestUpsertNode_CreatesThenMerges(t *testing.T) {
	s := store.New()
	ctx := context.Background()

	node, created, err := s.UpsertNode(ctx, schema.KindHost, map[string]any{
		"authority": "10.0.0.1",
	}, "", "")
	require.NoError(t, err)
	assert.True(t, created)
	firstID := node.ID

	node, created, err = s.UpsertNode(ctx, schema.KindHost, map[string]any{
		"authority": "10.0.0.1",
		"state":     "up",
	}, "", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, firstID, node.ID)
	assert.Equal(t, "up", node.Props.ToMap()["state"])
}

func TestCreateNode_CollidesOnNaturalKey(t *testing.T) {
	s := store.New()
	ctx := context.Background()

	_, err := s.CreateNode(ctx, schema.KindHost, map[string]any{"authority": "10.0.0.1"}, "", "")
	require.NoError(t, err)

	_, err = s.CreateNode(ctx, schema.KindHost, map[string]any{"authority": "10.0.0.1"}, "", "")
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindSchemaCollision, kind)
}

func TestObservationAlwaysCreates(t *testing.T) {
	s := store.New()
	ctx := context.Background()

	raw := map[string]any{"raw_value": "Apache/2.4", "source": "nmap"}
	n1, created1, err := s.UpsertNode(ctx, schema.KindObservation, raw, "", "")
	require.NoError(t, err)
	assert.True(t, created1)

	n2, created2, err := s.UpsertNode(ctx, schema.KindObservation, raw, "", "")
	require.NoError(t, err)
	assert.True(t, created2)
	assert.NotEqual(t, n1.ID, n2.ID)
}

func TestEdgeForeignKeyViolation(t *testing.T) {
	s := store.New()
	ctx := context.Background()

	host, _, err := s.UpsertNode(ctx, schema.KindHost, map[string]any{"authority": "10.0.0.1"}, "", "")
	require.NoError(t, err)

	_, err = s.CreateEdge(ctx, store.EdgeHostService, host.ID, "missing-node-id", "", nil)
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindForeignKey, kind)
}

func TestUpsertEdgeIdempotent(t *testing.T) {
	s := store.New()
	ctx := context.Background()

	host, _, _ := s.UpsertNode(ctx, schema.KindHost, map[string]any{"authority": "10.0.0.1"}, "", "")
	svc, _, _ := s.UpsertNode(ctx, schema.KindService, map[string]any{
		"transport": "tcp", "port": float64(443),
	}, host.ID, "")

	e1, created1, err := s.UpsertEdge(ctx, store.EdgeHostService, host.ID, svc.ID, "", nil)
	require.NoError(t, err)
	assert.True(t, created1)

	e2, created2, err := s.UpsertEdge(ctx, store.EdgeHostService, host.ID, svc.ID, "", nil)
	require.NoError(t, err)
	assert.False(t, created2)
	assert.Equal(t, e1.ID, e2.ID)
}

func TestDeleteNodeCascadesEdges(t *testing.T) {
	s := store.New()
	ctx := context.Background()

	host, _, _ := s.UpsertNode(ctx, schema.KindHost, map[string]any{"authority": "10.0.0.1"}, "", "")
	svc, _, _ := s.UpsertNode(ctx, schema.KindService, map[string]any{
		"transport": "tcp", "port": float64(443),
	}, host.ID, "")
	_, err := s.CreateEdge(ctx, store.EdgeHostService, host.ID, svc.ID, "", nil)
	require.NoError(t, err)

	ok := s.DeleteNode(ctx, host.ID)
	assert.True(t, ok)

	assert.Empty(t, s.FindBySource(host.ID))
	assert.Empty(t, s.FindByTarget(svc.ID))
	_, err = s.FindByID(host.ID)
	assert.ErrorIs(t, err, errs.ErrNodeNotFound)
}

func TestTxRollbackDiscardsMutations(t *testing.T) {
	s := store.New()

	tx := s.Begin()
	_, err := tx.CreateNode(schema.KindHost, map[string]any{"authority": "10.0.0.1"}, "", "")
	require.NoError(t, err)
	tx.Rollback()

	_, err = s.FindByNaturalKey("host:10.0.0.1")
	assert.ErrorIs(t, err, errs.ErrNodeNotFound)
}

func TestTxCommitPersistsMutations(t *testing.T) {
	s := store.New()

	tx := s.Begin()
	node, err := tx.CreateNode(schema.KindHost, map[string]any{"authority": "10.0.0.1"}, "", "")
	require.NoError(t, err)
	tx.Commit()

	found, err := s.FindByID(node.ID)
	require.NoError(t, err)
	assert.Equal(t, node.ID, found.ID)
}

func TestFindByKindFilter(t *testing.T) {
	s := store.New()
	ctx := context.Background()

	host, _, _ := s.UpsertNode(ctx, schema.KindHost, map[string]any{"authority": "10.0.0.1"}, "", "")
	_, _, _ = s.UpsertNode(ctx, schema.KindService, map[string]any{
		"transport": "tcp", "port": float64(80),
	}, host.ID, "")
	_, _, _ = s.UpsertNode(ctx, schema.KindService, map[string]any{
		"transport": "udp", "port": float64(53),
	}, host.ID, "")

	tcp := s.FindByKind(schema.KindService, map[string]any{"transport": "tcp"})
	require.Len(t, tcp, 1)
	assert.Equal(t, "tcp", tcp[0].Props.ToMap()["transport"])
}
