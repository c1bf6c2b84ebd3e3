package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attacksurface/internal/kgraph/parser"
)

func TestParseNuclei(t *testing.T) {
	jsonl := `{"ip": "10.0.0.1", "port": 443, "matched-at": "https://10.0.0.1/../../etc/passwd?x=1", "info": {"name": "path traversal", "severity": "high", "tags": ["lfi", "traversal"], "classification": {"cve-id": ["CVE-2021-1234"], "cvss-score": 7.5}}}
not valid json at all
{"ip": "10.0.0.2", "port": 80, "matched-at": "http://10.0.0.2/", "info": {"name": "info leak", "severity": "low", "tags": ["other"]}}
`
	result := parser.ParseNuclei([]byte(jsonl))

	require.Len(t, result.Hosts, 2, "malformed line must be skipped, not error")
	require.Len(t, result.Vulnerabilities, 2)
	require.Len(t, result.Endpoints, 2)
	require.Len(t, result.CVEs, 1)

	first := result.Vulnerabilities[0]
	assert.Equal(t, "lfi", first.VulnType)
	assert.Equal(t, "/../../etc/passwd", first.Path, "path is preserved undecoded and unstripped of traversal segments")

	assert.Equal(t, "CVE-2021-1234", result.CVEs[0].CVEID)
	assert.Equal(t, "path traversal", result.CVEs[0].VulnTitle)
}
