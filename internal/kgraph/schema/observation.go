package schema

import (
	"fmt"

	"github.com/google/uuid"
)

var observationSpec = kindSpec{
	kind: KindObservation,
	fields: []fieldSpec{
		{name: "raw_value", typ: ftString, required: true},
		{name: "source", typ: ftString, required: true},
		{name: "confidence", typ: ftEnum, enum: []string{"high", "medium", "low"}, def: "low"},
	},
}

// ObservationProps is the canonical property bag for an observation node.
// Observations always create on upsert: their natural key is a freshly
// generated UUID, never derived from the property bag.
type ObservationProps struct {
	UUID       string
	RawValue   string
	Source     string
	Confidence string
}

func validateObservation(raw map[string]any) (Props, error) {
	m, err := canonicalize(observationSpec, raw)
	if err != nil {
		return nil, err
	}
	return &ObservationProps{
		UUID:       uuid.NewString(),
		RawValue:   requiredString(m, "raw_value"),
		Source:     requiredString(m, "source"),
		Confidence: requiredString(m, "confidence"),
	}, nil
}

func (p *ObservationProps) Kind() Kind { return KindObservation }

func (p *ObservationProps) NaturalKey(parentID string) string {
	return fmt.Sprintf("observation:%s", p.UUID)
}

func (p *ObservationProps) ToMap() map[string]any {
	return map[string]any{
		"raw_value":  p.RawValue,
		"source":     p.Source,
		"confidence": p.Confidence,
	}
}
