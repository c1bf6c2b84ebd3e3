package schema

import "fmt"

var artifactSpec = kindSpec{
	kind: KindArtifact,
	fields: []fieldSpec{
		{name: "sha256", typ: ftString, required: true},
		{name: "tool", typ: ftString, required: true},
		{name: "path", typ: ftString},
		{name: "size_bytes", typ: ftNumber, def: float64(0)},
	},
}

// ArtifactProps is the canonical property bag for a raw tool-output
// artifact recorded by the ingestion facade. Identifying property: the
// sha256 digest of the artifact contents, so re-ingesting the same file
// is a no-op rather than a duplicate record.
type ArtifactProps struct {
	SHA256    string
	Tool      string
	Path      string
	SizeBytes float64
}

func validateArtifact(raw map[string]any) (Props, error) {
	m, err := canonicalize(artifactSpec, raw)
	if err != nil {
		return nil, err
	}
	return &ArtifactProps{
		SHA256:    requiredString(m, "sha256"),
		Tool:      requiredString(m, "tool"),
		Path:      optionalString(m, "path"),
		SizeBytes: optionalNumber(m, "size_bytes"),
	}, nil
}

func (p *ArtifactProps) Kind() Kind { return KindArtifact }

func (p *ArtifactProps) NaturalKey(parentID string) string {
	return fmt.Sprintf("artifact:%s", p.SHA256)
}

func (p *ArtifactProps) ToMap() map[string]any {
	return map[string]any{
		"sha256":     p.SHA256,
		"tool":       p.Tool,
		"path":       p.Path,
		"size_bytes": p.SizeBytes,
	}
}
