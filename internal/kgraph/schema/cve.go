package schema

import "fmt"

var cveSpec = kindSpec{
	kind: KindCVE,
	fields: []fieldSpec{
		{name: "cve_id", typ: ftString, required: true},
		{name: "cvss_score", typ: ftNumber, def: float64(0)},
	},
}

// CVEProps is the canonical property bag for a CVE node, attached to a
// vulnerability node. Identifying properties: parent vulnerability id,
// cve id.
type CVEProps struct {
	CVEID     string
	CVSSScore float64
}

func validateCVE(raw map[string]any) (Props, error) {
	m, err := canonicalize(cveSpec, raw)
	if err != nil {
		return nil, err
	}
	return &CVEProps{
		CVEID:     requiredString(m, "cve_id"),
		CVSSScore: optionalNumber(m, "cvss_score"),
	}, nil
}

func (p *CVEProps) Kind() Kind { return KindCVE }

func (p *CVEProps) NaturalKey(parentID string) string {
	return fmt.Sprintf("cve:%s:%s", parentID, p.CVEID)
}

func (p *CVEProps) ToMap() map[string]any {
	return map[string]any{
		"cve_id":     p.CVEID,
		"cvss_score": p.CVSSScore,
	}
}
