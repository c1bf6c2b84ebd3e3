package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attacksurface/internal/kgraph/parser"
)

const sampleFFUFJSON = `{
  "commandline": "ffuf -u https://example.com/FUZZ",
  "config": {"url": "https://example.com/FUZZ", "method": "GET"},
  "results": [
    {"url": "https://example.com/admin?id=1", "status": 200},
    {"url": "https://example.com/admin?id=2", "status": 200},
    {"url": "https://10.0.0.5/login", "status": 401}
  ]
}`

func TestParseFFUF(t *testing.T) {
	result, err := parser.ParseFFUF([]byte(sampleFFUFJSON))
	require.NoError(t, err)

	require.Len(t, result.Hosts, 2)
	require.Len(t, result.Services, 2)
	require.Len(t, result.Endpoints, 2, "same method:pathname across two results dedupes to one endpoint")
	require.Len(t, result.Inputs, 1, "the id query parameter dedupes across both admin hits")
	require.Len(t, result.Observations, 2, "two distinct values for id are two distinct observations")

	var domainHost, ipHost bool
	for _, h := range result.Hosts {
		if h.Authority == "example.com" && h.AuthorityKind == "DOMAIN" {
			domainHost = true
		}
		if h.Authority == "10.0.0.5" && h.AuthorityKind == "IP" {
			ipHost = true
		}
	}
	assert.True(t, domainHost)
	assert.True(t, ipHost)
}

func TestParseFFUF_RejectsMissingConfig(t *testing.T) {
	_, err := parser.ParseFFUF([]byte(`{"commandline": "x", "config": {}, "results": []}`))
	require.Error(t, err)
}
