package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attacksurface/internal/kgraph/normalize"
	"attacksurface/internal/kgraph/parser"
	"attacksurface/internal/kgraph/schema"
	"attacksurface/internal/kgraph/store"
)

func TestNormalize_EndToEnd(t *testing.T) {
	s := store.New()
	result := &parser.ParseResult{
		Hosts: []parser.HostIn{{Authority: "10.0.0.1", AuthorityKind: "IP"}},
		Services: []parser.ServiceIn{{
			HostAuthority: "10.0.0.1", Transport: "tcp", Port: 443, AppProto: "https",
		}},
		Endpoints: []parser.EndpointIn{{
			HostAuthority: "10.0.0.1", Transport: "tcp", Port: 443,
			Method: "GET", Path: "/login",
		}},
		Inputs: []parser.InputIn{{
			HostAuthority: "10.0.0.1", Transport: "tcp", Port: 443,
			Location: "query", Name: "id",
		}},
		EndpointInputs: []parser.EndpointInputIn{{
			HostAuthority: "10.0.0.1", Transport: "tcp", Port: 443,
			Method: "GET", Path: "/login", Location: "query", Name: "id",
		}},
		Observations: []parser.ObservationIn{{
			HostAuthority: "10.0.0.1", Transport: "tcp", Port: 443,
			Location: "query", Name: "id", RawValue: "1", Source: "ffuf", Confidence: "medium",
		}},
		Vulnerabilities: []parser.VulnerabilityIn{{
			HostAuthority: "10.0.0.1", Port: 443, Method: "GET", Path: "/login",
			Title: "sqli in id", VulnType: "sqli", Severity: "high", Confidence: "high",
		}},
		CVEs: []parser.CVEIn{{VulnTitle: "sqli in id", CVEID: "CVE-2024-1", CVSSScore: 9.1}},
	}

	counts, err := normalize.Normalize(s, result, "artifact-1")
	require.NoError(t, err)

	assert.Equal(t, 1, counts.HostsCreated)
	assert.Equal(t, 1, counts.ServicesCreated)
	assert.Equal(t, 1, counts.EndpointsCreated)
	assert.Equal(t, 1, counts.InputsCreated)
	assert.Equal(t, 1, counts.EndpointInputEdgesCreated)
	assert.Equal(t, 1, counts.ObservationsCreated)
	assert.Equal(t, 1, counts.VulnerabilitiesCreated)
	assert.Equal(t, 1, counts.CVEsCreated)

	hostNode, err := s.FindByNaturalKey("host:10.0.0.1")
	require.NoError(t, err)

	svcEdges := s.FindBySource(hostNode.ID)
	require.Len(t, svcEdges, 1)
	assert.Equal(t, store.EdgeHostService, svcEdges[0].Kind)

	vulns := s.FindByKind(schema.KindVulnerability, nil)
	require.Len(t, vulns, 1)
	vulnEdges := s.FindByTarget(vulns[0].ID)
	var sawServiceVuln, sawEndpointVuln bool
	for _, e := range vulnEdges {
		switch e.Kind {
		case store.EdgeServiceVulnerability:
			sawServiceVuln = true
		case store.EdgeEndpointVulnerability:
			sawEndpointVuln = true
		}
	}
	assert.True(t, sawServiceVuln)
	assert.True(t, sawEndpointVuln, "method+path on the finding should resolve to the known endpoint")
}

func TestNormalize_UnresolvableServiceSkipsDownstream(t *testing.T) {
	s := store.New()
	result := &parser.ParseResult{
		Services: []parser.ServiceIn{{
			HostAuthority: "unknown-host", Transport: "tcp", Port: 80,
		}},
	}
	counts, err := normalize.Normalize(s, result, "artifact-2")
	require.NoError(t, err)
	assert.Equal(t, 0, counts.ServicesCreated)
	assert.Equal(t, 0, s.Stats().NodeCount)
}

func TestNormalize_ReingestIsIdempotent(t *testing.T) {
	s := store.New()
	result := &parser.ParseResult{
		Hosts:    []parser.HostIn{{Authority: "10.0.0.1", AuthorityKind: "IP"}},
		Services: []parser.ServiceIn{{HostAuthority: "10.0.0.1", Transport: "tcp", Port: 443}},
	}

	first, err := normalize.Normalize(s, result, "artifact-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.HostsCreated)
	assert.Equal(t, 1, first.ServicesCreated)

	second, err := normalize.Normalize(s, result, "artifact-1")
	require.NoError(t, err)
	assert.Equal(t, 0, second.HostsCreated)
	assert.Equal(t, 0, second.ServicesCreated)
	assert.Equal(t, 1, s.Stats().NodesByKind[schema.KindHost])
	assert.Equal(t, 1, s.Stats().NodesByKind[schema.KindService])
}
