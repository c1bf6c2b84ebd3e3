package schema

import "fmt"

var hostSpec = kindSpec{
	kind: KindHost,
	fields: []fieldSpec{
		{name: "authority", typ: ftString, required: true},
		{name: "authority_kind", typ: ftEnum, enum: []string{"IP", "DOMAIN"}, def: "IP"},
		{name: "hostname", typ: ftString},
		{name: "state", typ: ftString},
		{name: "os", typ: ftString},
	},
}

// HostProps is the canonical property bag for a host node.
// Identifying property: authority (an IPv4/IPv6 address or a domain name).
type HostProps struct {
	Authority     string
	AuthorityKind string
	Hostname      string
	State         string
	OS            string
}

func validateHost(raw map[string]any) (Props, error) {
	m, err := canonicalize(hostSpec, raw)
	if err != nil {
		return nil, err
	}
	return &HostProps{
		Authority:     requiredString(m, "authority"),
		AuthorityKind: requiredString(m, "authority_kind"),
		Hostname:      optionalString(m, "hostname"),
		State:         optionalString(m, "state"),
		OS:            optionalString(m, "os"),
	}, nil
}

func (p *HostProps) Kind() Kind { return KindHost }

func (p *HostProps) NaturalKey(parentID string) string {
	return fmt.Sprintf("host:%s", p.Authority)
}

func (p *HostProps) ToMap() map[string]any {
	return map[string]any{
		"authority":      p.Authority,
		"authority_kind": p.AuthorityKind,
		"hostname":       p.Hostname,
		"state":          p.State,
		"os":             p.OS,
	}
}
