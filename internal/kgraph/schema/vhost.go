package schema

import "fmt"

var vhostSpec = kindSpec{
	kind: KindVHost,
	fields: []fieldSpec{
		{name: "hostname", typ: ftString, required: true},
		{name: "source", typ: ftString},
	},
}

// VHostProps is the canonical property bag for a virtual-host node,
// attached to a host node. Identifying properties: parent host id,
// hostname.
type VHostProps struct {
	Hostname string
	Source   string
}

func validateVHost(raw map[string]any) (Props, error) {
	m, err := canonicalize(vhostSpec, raw)
	if err != nil {
		return nil, err
	}
	return &VHostProps{
		Hostname: requiredString(m, "hostname"),
		Source:   optionalString(m, "source"),
	}, nil
}

func (p *VHostProps) Kind() Kind { return KindVHost }

func (p *VHostProps) NaturalKey(parentID string) string {
	return fmt.Sprintf("vhost:%s:%s", parentID, p.Hostname)
}

func (p *VHostProps) ToMap() map[string]any {
	return map[string]any{
		"hostname": p.Hostname,
		"source":   p.Source,
	}
}
