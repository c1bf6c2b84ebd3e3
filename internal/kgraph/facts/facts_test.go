package facts_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"attacksurface/internal/kgraph/facts"
	"attacksurface/internal/kgraph/schema"
	"attacksurface/internal/kgraph/store"
)

func buildGraph(t *testing.T) *store.Store {
	t.Helper()
	s := store.New()
	tx := s.Begin()

	host, err := tx.CreateNode(schema.KindHost, map[string]any{
		"authority":      "10.0.0.5",
		"authority_kind": "IP",
	}, "", "")
	require.NoError(t, err)

	svc, err := tx.CreateNode(schema.KindService, map[string]any{
		"transport": "tcp",
		"port":      float64(443),
		"app_proto": "https",
		"state":     "open",
	}, host.ID, "")
	require.NoError(t, err)

	ep, err := tx.CreateNode(schema.KindEndpoint, map[string]any{
		"method":      "GET",
		"path":        "/login",
		"status_code": float64(200),
	}, svc.ID, "")
	require.NoError(t, err)

	in, err := tx.CreateNode(schema.KindInput, map[string]any{
		"location": "query",
		"name":     "redirect",
	}, svc.ID, "")
	require.NoError(t, err)

	_, err = tx.CreateEdge(store.EdgeEndpointInput, ep.ID, in.ID, "", nil)
	require.NoError(t, err)

	obs, err := tx.CreateNode(schema.KindObservation, map[string]any{
		"raw_value":  "../../etc/passwd",
		"source":     "fuzzer",
		"confidence": "high",
	}, in.ID, "")
	require.NoError(t, err)
	_, err = tx.CreateEdge(store.EdgeInputObservation, in.ID, obs.ID, "", nil)
	require.NoError(t, err)

	vuln, err := tx.CreateNode(schema.KindVulnerability, map[string]any{
		"title":      "path traversal",
		"vuln_type":  "lfi",
		"severity":   "high",
		"confidence": "high",
	}, "", "")
	require.NoError(t, err)
	_, err = tx.CreateEdge(store.EdgeServiceVulnerability, svc.ID, vuln.ID, "", nil)
	require.NoError(t, err)
	_, err = tx.CreateEdge(store.EdgeEndpointVulnerability, ep.ID, vuln.ID, "", nil)
	require.NoError(t, err)

	cve, err := tx.CreateNode(schema.KindCVE, map[string]any{
		"cve_id":     "CVE-2024-1234",
		"cvss_score": float64(7.5),
	}, vuln.ID, "")
	require.NoError(t, err)
	_, err = tx.CreateEdge(store.EdgeVulnerabilityCVE, vuln.ID, cve.ID, "", nil)
	require.NoError(t, err)

	tx.Commit()
	return s
}

func TestExtract_SinglePredicate(t *testing.T) {
	s := buildGraph(t)

	got := facts.Extract(s, facts.Host, 0)
	require.Len(t, got, 1)
	require.Equal(t, facts.Host, got[0].Predicate)
	require.Equal(t, "10.0.0.5", got[0].Args[1])
	require.Equal(t, "IP", got[0].Args[2])
}

func TestExtract_VulnerabilityResolvesServiceThroughEdge(t *testing.T) {
	s := buildGraph(t)

	got := facts.Extract(s, facts.Vulnerability, 0)
	require.Len(t, got, 1)

	services := facts.Extract(s, facts.Service, 0)
	require.Len(t, services, 1)
	require.Equal(t, services[0].Args[1], got[0].Args[0])
}

func TestExtract_VulnerabilityEndpointOnlyWhenLinked(t *testing.T) {
	s := buildGraph(t)

	got := facts.Extract(s, facts.VulnerabilityEndpoint, 0)
	require.Len(t, got, 1)
}

func TestExtract_CVECarriesScoreAndParentVuln(t *testing.T) {
	s := buildGraph(t)

	got := facts.Extract(s, facts.CVE, 0)
	require.Len(t, got, 1)
	require.Equal(t, "CVE-2024-1234", got[0].Args[2])
	require.Equal(t, float64(7.5), got[0].Args[3])
}

func TestExtract_AllPredicatesUnfiltered(t *testing.T) {
	s := buildGraph(t)

	got := facts.Extract(s, "", 0)
	require.NotEmpty(t, got)

	seen := make(map[string]bool)
	for _, f := range got {
		seen[f.Predicate] = true
	}
	require.True(t, seen[facts.Host])
	require.True(t, seen[facts.EndpointInput])
}

func TestExtract_LimitCapsResults(t *testing.T) {
	s := store.New()
	tx := s.Begin()
	for i := 0; i < 5; i++ {
		_, err := tx.CreateNode(schema.KindHost, map[string]any{
			"authority":      string(rune('a' + i)),
			"authority_kind": "IP",
		}, "", "")
		require.NoError(t, err)
	}
	tx.Commit()

	got := facts.Extract(s, facts.Host, 2)
	require.Len(t, got, 2)
}

func TestExtract_CredentialAndVHost(t *testing.T) {
	s := store.New()
	tx := s.Begin()
	host, err := tx.CreateNode(schema.KindHost, map[string]any{
		"authority":      "10.0.0.7",
		"authority_kind": "IP",
	}, "", "")
	require.NoError(t, err)
	svc, err := tx.CreateNode(schema.KindService, map[string]any{
		"transport": "tcp", "port": float64(22),
	}, host.ID, "")
	require.NoError(t, err)
	_, err = tx.CreateNode(schema.KindCredential, map[string]any{
		"username": "root", "secret_type": "password", "source": "hydra", "confidence": "high",
	}, svc.ID, "")
	require.NoError(t, err)
	_, err = tx.CreateNode(schema.KindVHost, map[string]any{
		"hostname": "intranet.local",
	}, host.ID, "")
	require.NoError(t, err)
	tx.Commit()

	creds := facts.Extract(s, facts.Credential, 0)
	require.Len(t, creds, 1)
	require.Equal(t, svc.ID, creds[0].Args[0])
	require.Equal(t, "root", creds[0].Args[2])

	vhosts := facts.Extract(s, facts.VHost, 0)
	require.Len(t, vhosts, 1)
	require.Equal(t, host.ID, vhosts[0].Args[0])
	require.Equal(t, "intranet.local", vhosts[0].Args[2])
	require.Equal(t, "", vhosts[0].Args[3], "absent source extracts as the empty string")
}

func TestExtract_UnknownPredicateReturnsNil(t *testing.T) {
	s := buildGraph(t)
	require.Nil(t, facts.Extract(s, "no_such_predicate", 0))
}
