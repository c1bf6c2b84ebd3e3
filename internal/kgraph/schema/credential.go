package schema

import (
	"fmt"

	"github.com/google/uuid"
)

var credentialSpec = kindSpec{
	kind: KindCredential,
	fields: []fieldSpec{
		{name: "username", typ: ftString, required: true},
		{name: "secret_type", typ: ftEnum, enum: []string{"password", "token", "key", "hash"}, def: "password"},
		{name: "source", typ: ftString, required: true},
		{name: "confidence", typ: ftEnum, enum: []string{"high", "medium", "low"}, def: "low"},
	},
}

// CredentialProps is the canonical property bag for a credential node,
// attached to a service node. Always creates; never merges, since the
// same username recovered by two different tools is kept as two
// distinct observations rather than collapsed into one record.
type CredentialProps struct {
	UUID       string
	Username   string
	SecretType string
	Source     string
	Confidence string
}

func validateCredential(raw map[string]any) (Props, error) {
	m, err := canonicalize(credentialSpec, raw)
	if err != nil {
		return nil, err
	}
	return &CredentialProps{
		UUID:       uuid.NewString(),
		Username:   requiredString(m, "username"),
		SecretType: requiredString(m, "secret_type"),
		Source:     requiredString(m, "source"),
		Confidence: requiredString(m, "confidence"),
	}, nil
}

func (p *CredentialProps) Kind() Kind { return KindCredential }

func (p *CredentialProps) NaturalKey(parentID string) string {
	return fmt.Sprintf("credential:%s", p.UUID)
}

func (p *CredentialProps) ToMap() map[string]any {
	return map[string]any{
		"username":    p.Username,
		"secret_type": p.SecretType,
		"source":      p.Source,
		"confidence":  p.Confidence,
	}
}
