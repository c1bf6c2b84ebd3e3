// Package facts projects the graph store into the closed set of
// relational predicates the Datalog evaluator consumes (component H).
// Every predicate has a fixed column tuple, named in the doc comment
// next to its constant.
package facts

import (
	"attacksurface/internal/datalog/eval"
	"attacksurface/internal/kgraph/schema"
	"attacksurface/internal/kgraph/store"
)

// Predicate names supported by Extract. Each predicate's fixed column
// tuple is spelled out in the comment next to its constant.
const (
	// Host: host-id, authority, authority-kind.
	Host = "host"
	// Service: host-id, service-id, transport, port, app-proto, state.
	Service = "service"
	// HTTPEndpoint: service-id, endpoint-id, method, path, status-code.
	HTTPEndpoint = "http_endpoint"
	// Input: service-id, input-id, location, name.
	Input = "input"
	// EndpointInput: endpoint-id, input-id.
	EndpointInput = "endpoint_input"
	// Observation: input-id, observation-id, raw-value, source, confidence.
	Observation = "observation"
	// Credential: service-id, credential-id, username, secret-type, source, confidence.
	Credential = "credential"
	// Vulnerability: service-id, vuln-id, vuln-type, title, severity, confidence.
	Vulnerability = "vulnerability"
	// VulnerabilityEndpoint: vuln-id, endpoint-id.
	VulnerabilityEndpoint = "vulnerability_endpoint"
	// CVE: vuln-id, cve-id, cvss-score.
	CVE = "cve"
	// VHost: host-id, vhost-id, hostname, source.
	VHost = "vhost"
)

// All lists every supported predicate, in the table's declared order.
var All = []string{
	Host, Service, HTTPEndpoint, Input, EndpointInput, Observation,
	Credential, Vulnerability, VulnerabilityEndpoint, CVE, VHost,
}

func isKnown(p string) bool {
	for _, c := range All {
		if c == p {
			return true
		}
	}
	return false
}

// Extract projects predicate out of s into a slice of ground facts,
// capped at limit tuples (0 means unlimited). predicate == "" extracts
// every supported predicate at once.
func Extract(s *store.Store, predicate string, limit int) []eval.Fact {
	if predicate == "" {
		var out []eval.Fact
		for _, p := range All {
			out = append(out, extractOne(s, p, 0)...)
		}
		return applyLimit(out, limit)
	}
	if !isKnown(predicate) {
		return nil
	}
	return applyLimit(extractOne(s, predicate, 0), limit)
}

func applyLimit(facts []eval.Fact, limit int) []eval.Fact {
	if limit > 0 && len(facts) > limit {
		return facts[:limit]
	}
	return facts
}

func extractOne(s *store.Store, predicate string, limit int) []eval.Fact {
	var out []eval.Fact
	switch predicate {
	case Host:
		for _, n := range s.FindByKind(schema.KindHost, nil) {
			p := n.Props.(*schema.HostProps)
			out = append(out, eval.Fact{Predicate: Host, Args: []eval.Value{n.ID, p.Authority, p.AuthorityKind}})
		}
	case Service:
		for _, n := range s.FindByKind(schema.KindService, nil) {
			p := n.Props.(*schema.ServiceProps)
			out = append(out, eval.Fact{Predicate: Service, Args: []eval.Value{
				n.ParentID, n.ID, p.Transport, p.Port, p.AppProto, p.State,
			}})
		}
	case HTTPEndpoint:
		for _, n := range s.FindByKind(schema.KindEndpoint, nil) {
			p := n.Props.(*schema.EndpointProps)
			out = append(out, eval.Fact{Predicate: HTTPEndpoint, Args: []eval.Value{
				n.ParentID, n.ID, p.Method, p.Path, p.StatusCode,
			}})
		}
	case Input:
		for _, n := range s.FindByKind(schema.KindInput, nil) {
			p := n.Props.(*schema.InputProps)
			out = append(out, eval.Fact{Predicate: Input, Args: []eval.Value{
				n.ParentID, n.ID, p.Location, p.Name,
			}})
		}
	case EndpointInput:
		for _, e := range s.FindEdgesByKind(store.EdgeEndpointInput) {
			out = append(out, eval.Fact{Predicate: EndpointInput, Args: []eval.Value{e.SourceID, e.TargetID}})
		}
	case Observation:
		for _, n := range s.FindByKind(schema.KindObservation, nil) {
			p := n.Props.(*schema.ObservationProps)
			out = append(out, eval.Fact{Predicate: Observation, Args: []eval.Value{
				n.ParentID, n.ID, p.RawValue, p.Source, p.Confidence,
			}})
		}
	case Credential:
		for _, n := range s.FindByKind(schema.KindCredential, nil) {
			p := n.Props.(*schema.CredentialProps)
			out = append(out, eval.Fact{Predicate: Credential, Args: []eval.Value{
				n.ParentID, n.ID, p.Username, p.SecretType, p.Source, p.Confidence,
			}})
		}
	case Vulnerability:
		serviceOf := serviceOfVulnerability(s)
		for _, n := range s.FindByKind(schema.KindVulnerability, nil) {
			p := n.Props.(*schema.VulnerabilityProps)
			out = append(out, eval.Fact{Predicate: Vulnerability, Args: []eval.Value{
				serviceOf[n.ID], n.ID, p.VulnType, p.Title, p.Severity, p.Confidence,
			}})
		}
	case VulnerabilityEndpoint:
		for _, e := range s.FindEdgesByKind(store.EdgeEndpointVulnerability) {
			out = append(out, eval.Fact{Predicate: VulnerabilityEndpoint, Args: []eval.Value{e.TargetID, e.SourceID}})
		}
	case CVE:
		for _, n := range s.FindByKind(schema.KindCVE, nil) {
			p := n.Props.(*schema.CVEProps)
			out = append(out, eval.Fact{Predicate: CVE, Args: []eval.Value{
				n.ParentID, n.ID, p.CVEID, p.CVSSScore,
			}})
		}
	case VHost:
		for _, n := range s.FindByKind(schema.KindVHost, nil) {
			p := n.Props.(*schema.VHostProps)
			out = append(out, eval.Fact{Predicate: VHost, Args: []eval.Value{
				n.ParentID, n.ID, p.Hostname, p.Source,
			}})
		}
	}
	return applyLimit(out, limit)
}

// serviceOfVulnerability resolves each vulnerability node id to the
// service id it's attached to via a SERVICE_VULNERABILITY edge; the
// normalizer never sets a vulnerability node's ParentID (it has no
// single natural parent — it also optionally attaches to an endpoint).
func serviceOfVulnerability(s *store.Store) map[string]string {
	out := make(map[string]string)
	for _, e := range s.FindEdgesByKind(store.EdgeServiceVulnerability) {
		out[e.TargetID] = e.SourceID
	}
	return out
}
