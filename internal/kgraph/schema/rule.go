package schema

import "fmt"

var ruleSpec = kindSpec{
	kind: KindRule,
	fields: []fieldSpec{
		{name: "name", typ: ftString, required: true},
		{name: "description", typ: ftString},
		{name: "rule_text", typ: ftString, required: true},
		{name: "origin", typ: ftEnum, required: true, enum: []string{"human", "ai", "preset"}},
		{name: "preset", typ: ftBool, def: false},
	},
}

// RuleProps is the canonical property bag for a saved Datalog program.
// Identifying property: the rule's name, unique across the whole table —
// saving under an existing name replaces it rather than duplicating it.
type RuleProps struct {
	Name        string
	Description string
	RuleText    string
	Origin      string
	Preset      bool
}

func validateRule(raw map[string]any) (Props, error) {
	m, err := canonicalize(ruleSpec, raw)
	if err != nil {
		return nil, err
	}
	return &RuleProps{
		Name:        requiredString(m, "name"),
		Description: optionalString(m, "description"),
		RuleText:    requiredString(m, "rule_text"),
		Origin:      requiredString(m, "origin"),
		Preset:      optionalBool(m, "preset"),
	}, nil
}

func (p *RuleProps) Kind() Kind { return KindRule }

func (p *RuleProps) NaturalKey(parentID string) string {
	return fmt.Sprintf("rule:%s", p.Name)
}

func (p *RuleProps) ToMap() map[string]any {
	return map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"rule_text":   p.RuleText,
		"origin":      p.Origin,
		"preset":      p.Preset,
	}
}
