package schema

import "fmt"

var endpointSpec = kindSpec{
	kind: KindEndpoint,
	fields: []fieldSpec{
		{name: "method", typ: ftString, required: true},
		{name: "path", typ: ftString, required: true},
		{name: "status_code", typ: ftNumber, def: float64(0)},
	},
}

// EndpointProps is the canonical property bag for an endpoint node.
// Identifying properties: parent service id, method, path. The path is
// stored exactly as provided, including any percent-encoded sequences,
// so traversal payloads and encoded query fragments survive intact.
type EndpointProps struct {
	Method     string
	Path       string
	StatusCode float64
}

func validateEndpoint(raw map[string]any) (Props, error) {
	m, err := canonicalize(endpointSpec, raw)
	if err != nil {
		return nil, err
	}
	return &EndpointProps{
		Method:     requiredString(m, "method"),
		Path:       requiredString(m, "path"),
		StatusCode: optionalNumber(m, "status_code"),
	}, nil
}

func (p *EndpointProps) Kind() Kind { return KindEndpoint }

func (p *EndpointProps) NaturalKey(parentID string) string {
	return fmt.Sprintf("endpoint:%s:%s:%s", parentID, p.Method, p.Path)
}

func (p *EndpointProps) ToMap() map[string]any {
	return map[string]any{
		"method":      p.Method,
		"path":        p.Path,
		"status_code": p.StatusCode,
	}
}
