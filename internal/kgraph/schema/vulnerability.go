package schema

import (
	"fmt"

	"github.com/google/uuid"
)

var vulnerabilitySpec = kindSpec{
	kind: KindVulnerability,
	fields: []fieldSpec{
		{name: "title", typ: ftString, required: true},
		{name: "vuln_type", typ: ftEnum, enum: []string{"sqli", "xss", "rce", "lfi", "ssrf", "other"}, def: "other"},
		{name: "severity", typ: ftString},
		{name: "confidence", typ: ftEnum, enum: []string{"high", "medium", "low"}, def: "low"},
		{name: "method", typ: ftString},
		{name: "path", typ: ftString},
		{name: "raw", typ: ftAny},
	},
}

// VulnerabilityProps is the canonical property bag for a vulnerability
// node. Always creates; never merges. Method and
// Path, when present, are used by the normalizer to resolve a matching
// endpoint for the ENDPOINT_VULNERABILITY edge; they are not identifying.
type VulnerabilityProps struct {
	UUID       string
	Title      string
	VulnType   string
	Severity   string
	Confidence string
	Method     string
	Path       string
	Raw        any
}

func validateVulnerability(raw map[string]any) (Props, error) {
	m, err := canonicalize(vulnerabilitySpec, raw)
	if err != nil {
		return nil, err
	}
	return &VulnerabilityProps{
		UUID:       uuid.NewString(),
		Title:      requiredString(m, "title"),
		VulnType:   requiredString(m, "vuln_type"),
		Severity:   optionalString(m, "severity"),
		Confidence: requiredString(m, "confidence"),
		Method:     optionalString(m, "method"),
		Path:       optionalString(m, "path"),
		Raw:        m["raw"],
	}, nil
}

func (p *VulnerabilityProps) Kind() Kind { return KindVulnerability }

func (p *VulnerabilityProps) NaturalKey(parentID string) string {
	return fmt.Sprintf("vulnerability:%s", p.UUID)
}

func (p *VulnerabilityProps) ToMap() map[string]any {
	return map[string]any{
		"title":      p.Title,
		"vuln_type":  p.VulnType,
		"severity":   p.Severity,
		"confidence": p.Confidence,
		"method":     p.Method,
		"path":       p.Path,
		"raw":        p.Raw,
	}
}
