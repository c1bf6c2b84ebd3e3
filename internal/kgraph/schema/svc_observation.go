package schema

import (
	"fmt"

	"github.com/google/uuid"
)

var svcObservationSpec = kindSpec{
	kind: KindSvcObservation,
	fields: []fieldSpec{
		{name: "os_match", typ: ftString, required: true},
		{name: "confidence", typ: ftEnum, enum: []string{"high", "medium", "low"}, def: "low"},
		{name: "source", typ: ftString},
	},
}

// SvcObservationProps is the canonical property bag for a service-level
// observation (currently: OS fingerprint matches from the port scanner).
// Always creates; never merges.
type SvcObservationProps struct {
	UUID       string
	OSMatch    string
	Confidence string
	Source     string
}

func validateSvcObservation(raw map[string]any) (Props, error) {
	m, err := canonicalize(svcObservationSpec, raw)
	if err != nil {
		return nil, err
	}
	return &SvcObservationProps{
		UUID:       uuid.NewString(),
		OSMatch:    requiredString(m, "os_match"),
		Confidence: requiredString(m, "confidence"),
		Source:     optionalString(m, "source"),
	}, nil
}

func (p *SvcObservationProps) Kind() Kind { return KindSvcObservation }

func (p *SvcObservationProps) NaturalKey(parentID string) string {
	return fmt.Sprintf("svc_observation:%s", p.UUID)
}

func (p *SvcObservationProps) ToMap() map[string]any {
	return map[string]any{
		"os_match":   p.OSMatch,
		"confidence": p.Confidence,
		"source":     p.Source,
	}
}
