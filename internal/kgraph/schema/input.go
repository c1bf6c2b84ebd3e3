package schema

import "fmt"

var inputSpec = kindSpec{
	kind: KindInput,
	fields: []fieldSpec{
		{name: "location", typ: ftEnum, enum: []string{"query", "body", "header", "cookie", "path"}, required: true},
		{name: "name", typ: ftString, required: true},
	},
}

// InputProps is the canonical property bag for an input node.
// Identifying properties: parent service id, location, name.
type InputProps struct {
	Location string
	Name     string
}

func validateInput(raw map[string]any) (Props, error) {
	m, err := canonicalize(inputSpec, raw)
	if err != nil {
		return nil, err
	}
	return &InputProps{
		Location: requiredString(m, "location"),
		Name:     requiredString(m, "name"),
	}, nil
}

func (p *InputProps) Kind() Kind { return KindInput }

func (p *InputProps) NaturalKey(parentID string) string {
	return fmt.Sprintf("input:%s:%s:%s", parentID, p.Location, p.Name)
}

func (p *InputProps) ToMap() map[string]any {
	return map[string]any{
		"location": p.Location,
		"name":     p.Name,
	}
}
