package schema

import "fmt"

var serviceSpec = kindSpec{
	kind: KindService,
	fields: []fieldSpec{
		{name: "transport", typ: ftEnum, enum: []string{"tcp", "udp"}, required: true},
		{name: "port", typ: ftNumber, required: true},
		{name: "app_proto", typ: ftString},
		{name: "state", typ: ftString},
		{name: "banner", typ: ftString},
		{name: "confidence", typ: ftEnum, enum: []string{"high", "medium", "low"}},
	},
}

// ServiceProps is the canonical property bag for a service node.
// Identifying properties: parent host id, transport, port.
type ServiceProps struct {
	Transport  string
	Port       float64
	AppProto   string
	State      string
	Banner     string
	Confidence string
}

func validateService(raw map[string]any) (Props, error) {
	m, err := canonicalize(serviceSpec, raw)
	if err != nil {
		return nil, err
	}
	return &ServiceProps{
		Transport:  requiredString(m, "transport"),
		Port:       optionalNumber(m, "port"),
		AppProto:   optionalString(m, "app_proto"),
		State:      optionalString(m, "state"),
		Banner:     optionalString(m, "banner"),
		Confidence: optionalString(m, "confidence"),
	}, nil
}

func (p *ServiceProps) Kind() Kind { return KindService }

func (p *ServiceProps) NaturalKey(parentID string) string {
	return fmt.Sprintf("service:%s:%s:%d", parentID, p.Transport, int(p.Port))
}

func (p *ServiceProps) ToMap() map[string]any {
	return map[string]any{
		"transport":  p.Transport,
		"port":       p.Port,
		"app_proto":  p.AppProto,
		"state":      p.State,
		"banner":     p.Banner,
		"confidence": p.Confidence,
	}
}
