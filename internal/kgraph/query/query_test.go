package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attacksurface/internal/datalog/eval"
	"attacksurface/internal/errs"
	"attacksurface/internal/kgraph/query"
	"attacksurface/internal/kgraph/registry"
	"attacksurface/internal/kgraph/schema"
	"attacksurface/internal/kgraph/store"
)

func buildOpenService(t *testing.T) *store.Store {
	t.Helper()
	s := store.New()
	tx := s.Begin()
	host, err := tx.CreateNode(schema.KindHost, map[string]any{
		"authority": "10.0.0.9", "authority_kind": "IP",
	}, "", "")
	require.NoError(t, err)
	_, err = tx.CreateNode(schema.KindService, map[string]any{
		"transport": "tcp", "port": float64(443), "app_proto": "https", "state": "open",
	}, host.ID, "")
	require.NoError(t, err)
	tx.Commit()
	return s
}

func TestRunDatalog_EvaluatesAgainstExtractedFacts(t *testing.T) {
	s := buildOpenService(t)
	res, err := query.RunDatalog(context.Background(), s, `?- service(H, S, T, P, A, "open").`, "", "", "", nil)
	require.NoError(t, err)
	require.Len(t, res.Answers, 1)
	assert.Len(t, res.Answers[0].Tuples, 1)
}

func TestRunDatalog_SavesUnderGivenName(t *testing.T) {
	s := buildOpenService(t)
	_, err := query.RunDatalog(context.Background(), s, `?- host(I, A, K).`, "my_saved", "desc", registry.OriginAI, nil)
	require.NoError(t, err)

	saved := registry.Saved(s)
	require.Len(t, saved, 1)
	assert.Equal(t, "my_saved", saved[0].Name)
	assert.Equal(t, registry.OriginAI, saved[0].Origin)
}

func TestRunDatalog_BoundsOverrideIsApplied(t *testing.T) {
	s := buildOpenService(t)
	bounds := eval.DefaultBounds()
	bounds.MaxRules = 1

	_, err := query.RunDatalog(context.Background(), s, `a("x"). b("x"). ?- a(X).`, "", "", "", &bounds)
	require.Error(t, err)
	var resErr *errs.DatalogResourceError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "maxRules", resErr.Bound)
}

func TestQueryAttackPaths_ResolvesPreset(t *testing.T) {
	s := buildOpenService(t)
	res, err := query.QueryAttackPaths(context.Background(), s, "reachable_services", nil)
	require.NoError(t, err)
	require.Len(t, res.Answers, 1)
	assert.Len(t, res.Answers[0].Tuples, 1)
}

func TestQueryAttackPaths_MissReturnsEmptyResultNoError(t *testing.T) {
	s := store.New()
	res, err := query.QueryAttackPaths(context.Background(), s, "no_such_pattern", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Answers)
}

func TestListFacts_DelegatesToExtractor(t *testing.T) {
	s := buildOpenService(t)
	got := query.ListFacts(s, "service", 0)
	require.Len(t, got, 1)
}

func TestListPatterns_IncludesPresetsAndSaved(t *testing.T) {
	s := buildOpenService(t)
	_, err := registry.Save(context.Background(), s, "custom", "", "a(X) :- b(X). ?- a(X).", registry.OriginHuman)
	require.NoError(t, err)

	patterns := query.ListPatterns(s)
	assert.True(t, len(patterns) > len(registry.Presets()))
}
