// Package normalize folds a parser.ParseResult into the graph store,
// running the whole fold as one transaction so a failure partway through
// leaves the store untouched.
package normalize

import (
	"fmt"

	"attacksurface/internal/kgraph/parser"
	"attacksurface/internal/kgraph/schema"
	"attacksurface/internal/kgraph/store"
)

// Counts reports how many nodes and edges of each kind were newly
// created while normalizing one ParseResult. Upsert hits that matched an
// existing natural key are not counted.
type Counts struct {
	HostsCreated               int
	ServicesCreated            int
	ServiceObservationsCreated int
	EndpointsCreated           int
	InputsCreated              int
	EndpointInputEdgesCreated  int
	ObservationsCreated        int
	VulnerabilitiesCreated     int
	CVEsCreated                int
}

type serviceKey struct {
	hostID    string
	transport string
	port      float64
}

type endpointKey struct {
	serviceID string
	method    string
	path      string
}

type inputKey struct {
	serviceID string
	location  string
	name      string
}

// Normalize upserts every entity in result into s, attributing every
// created artifact-linked node/edge to evidenceID, inside one
// transaction. On any failure the transaction is rolled back and the
// error is returned; the store is left exactly as it was before the
// call.
func Normalize(s *store.Store, result *parser.ParseResult, evidenceID string) (Counts, error) {
	tx := s.Begin()
	counts, err := normalizeInTx(tx, result, evidenceID)
	if err != nil {
		tx.Rollback()
		return Counts{}, err
	}
	tx.Commit()
	return counts, nil
}

func normalizeInTx(tx *store.Tx, result *parser.ParseResult, evidenceID string) (Counts, error) {
	var counts Counts

	hostIDs := make(map[string]string)
	for _, h := range result.Hosts {
		node, created, err := tx.UpsertNode(schema.KindHost, map[string]any{
			"authority":      h.Authority,
			"authority_kind": h.AuthorityKind,
			"hostname":       h.Hostname,
			"state":          h.State,
		}, "", evidenceID)
		if err != nil {
			return Counts{}, fmt.Errorf("upsert host %q: %w", h.Authority, err)
		}
		hostIDs[h.Authority] = node.ID
		if created {
			counts.HostsCreated++
		}
	}

	serviceIDs := make(map[serviceKey]string)
	for _, svc := range result.Services {
		hostID, ok := hostIDs[svc.HostAuthority]
		if !ok {
			continue
		}
		raw := map[string]any{
			"transport": svc.Transport,
			"port":      svc.Port,
			"app_proto": svc.AppProto,
			"state":     svc.State,
			"banner":    svc.Banner,
		}
		if svc.Confidence != "" {
			raw["confidence"] = svc.Confidence
		}
		node, created, err := tx.UpsertNode(schema.KindService, raw, hostID, evidenceID)
		if err != nil {
			return Counts{}, fmt.Errorf("upsert service %s:%s:%v: %w", svc.HostAuthority, svc.Transport, svc.Port, err)
		}
		if _, _, err := tx.UpsertEdge(store.EdgeHostService, hostID, node.ID, evidenceID, nil); err != nil {
			return Counts{}, fmt.Errorf("link host to service: %w", err)
		}
		key := serviceKey{hostID: hostID, transport: svc.Transport, port: svc.Port}
		serviceIDs[key] = node.ID
		if created {
			counts.ServicesCreated++
		}
	}

	for _, so := range result.ServiceObservations {
		hostID, ok := hostIDs[so.HostAuthority]
		if !ok {
			continue
		}
		serviceID, ok := serviceIDs[serviceKey{hostID: hostID, transport: so.Transport, port: so.Port}]
		if !ok {
			continue
		}
		node, err := tx.CreateNode(schema.KindSvcObservation, map[string]any{
			"os_match":   so.OSMatch,
			"confidence": so.Confidence,
			"source":     so.Source,
		}, serviceID, evidenceID)
		if err != nil {
			return Counts{}, fmt.Errorf("create service observation: %w", err)
		}
		if _, err := tx.CreateEdge(store.EdgeServiceObservation, serviceID, node.ID, evidenceID, nil); err != nil {
			return Counts{}, fmt.Errorf("link service to observation: %w", err)
		}
		counts.ServiceObservationsCreated++
	}

	endpointIDs := make(map[endpointKey]string)
	for _, ep := range result.Endpoints {
		hostID, ok := hostIDs[ep.HostAuthority]
		if !ok {
			continue
		}
		serviceID, ok := serviceIDs[serviceKey{hostID: hostID, transport: "tcp", port: ep.Port}]
		if !ok {
			continue
		}
		node, created, err := tx.UpsertNode(schema.KindEndpoint, map[string]any{
			"method":      ep.Method,
			"path":        ep.Path,
			"status_code": ep.StatusCode,
		}, serviceID, evidenceID)
		if err != nil {
			return Counts{}, fmt.Errorf("upsert endpoint %s %s: %w", ep.Method, ep.Path, err)
		}
		if _, _, err := tx.UpsertEdge(store.EdgeServiceEndpoint, serviceID, node.ID, evidenceID, nil); err != nil {
			return Counts{}, fmt.Errorf("link service to endpoint: %w", err)
		}
		endpointIDs[endpointKey{serviceID: serviceID, method: ep.Method, path: ep.Path}] = node.ID
		if created {
			counts.EndpointsCreated++
		}
	}

	inputIDs := make(map[inputKey]string)
	for _, in := range result.Inputs {
		hostID, ok := hostIDs[in.HostAuthority]
		if !ok {
			continue
		}
		serviceID, ok := serviceIDs[serviceKey{hostID: hostID, transport: in.Transport, port: in.Port}]
		if !ok {
			continue
		}
		node, created, err := tx.UpsertNode(schema.KindInput, map[string]any{
			"location": in.Location,
			"name":     in.Name,
		}, serviceID, evidenceID)
		if err != nil {
			return Counts{}, fmt.Errorf("upsert input %s:%s: %w", in.Location, in.Name, err)
		}
		if _, _, err := tx.UpsertEdge(store.EdgeServiceInput, serviceID, node.ID, evidenceID, nil); err != nil {
			return Counts{}, fmt.Errorf("link service to input: %w", err)
		}
		inputIDs[inputKey{serviceID: serviceID, location: in.Location, name: in.Name}] = node.ID
		if created {
			counts.InputsCreated++
		}
	}

	for _, link := range result.EndpointInputs {
		hostID, ok := hostIDs[link.HostAuthority]
		if !ok {
			continue
		}
		serviceID, ok := serviceIDs[serviceKey{hostID: hostID, transport: "tcp", port: link.Port}]
		if !ok {
			continue
		}
		epID, ok := endpointIDs[endpointKey{serviceID: serviceID, method: link.Method, path: link.Path}]
		if !ok {
			continue
		}
		inID, ok := inputIDs[inputKey{serviceID: serviceID, location: link.Location, name: link.Name}]
		if !ok {
			continue
		}
		_, created, err := tx.UpsertEdge(store.EdgeEndpointInput, epID, inID, evidenceID, nil)
		if err != nil {
			return Counts{}, fmt.Errorf("link endpoint to input: %w", err)
		}
		if created {
			counts.EndpointInputEdgesCreated++
		}
	}

	for _, obs := range result.Observations {
		hostID, ok := hostIDs[obs.HostAuthority]
		if !ok {
			continue
		}
		serviceID, ok := serviceIDs[serviceKey{hostID: hostID, transport: obs.Transport, port: obs.Port}]
		if !ok {
			continue
		}
		inID, ok := inputIDs[inputKey{serviceID: serviceID, location: obs.Location, name: obs.Name}]
		if !ok {
			continue
		}
		node, err := tx.CreateNode(schema.KindObservation, map[string]any{
			"raw_value":  obs.RawValue,
			"source":     obs.Source,
			"confidence": obs.Confidence,
		}, inID, evidenceID)
		if err != nil {
			return Counts{}, fmt.Errorf("create observation: %w", err)
		}
		if _, err := tx.CreateEdge(store.EdgeInputObservation, inID, node.ID, evidenceID, nil); err != nil {
			return Counts{}, fmt.Errorf("link input to observation: %w", err)
		}
		counts.ObservationsCreated++
	}

	vulnIDs := make(map[string]string)
	for _, v := range result.Vulnerabilities {
		hostID, ok := hostIDs[v.HostAuthority]
		if !ok {
			continue
		}
		serviceID, ok := serviceIDs[serviceKey{hostID: hostID, transport: "tcp", port: v.Port}]
		if !ok {
			continue
		}
		node, err := tx.CreateNode(schema.KindVulnerability, map[string]any{
			"title":      v.Title,
			"vuln_type":  v.VulnType,
			"severity":   v.Severity,
			"confidence": v.Confidence,
			"method":     v.Method,
			"path":       v.Path,
		}, "", evidenceID)
		if err != nil {
			return Counts{}, fmt.Errorf("create vulnerability %q: %w", v.Title, err)
		}
		if _, err := tx.CreateEdge(store.EdgeServiceVulnerability, serviceID, node.ID, evidenceID, nil); err != nil {
			return Counts{}, fmt.Errorf("link service to vulnerability: %w", err)
		}
		if v.Method != "" && v.Path != "" {
			if epID, ok := endpointIDs[endpointKey{serviceID: serviceID, method: v.Method, path: v.Path}]; ok {
				if _, err := tx.CreateEdge(store.EdgeEndpointVulnerability, epID, node.ID, evidenceID, nil); err != nil {
					return Counts{}, fmt.Errorf("link endpoint to vulnerability: %w", err)
				}
			}
		}
		vulnIDs[v.Title] = node.ID
		counts.VulnerabilitiesCreated++
	}

	for _, c := range result.CVEs {
		vulnID, ok := vulnIDs[c.VulnTitle]
		if !ok {
			continue
		}
		node, created, err := tx.UpsertNode(schema.KindCVE, map[string]any{
			"cve_id":     c.CVEID,
			"cvss_score": c.CVSSScore,
		}, vulnID, evidenceID)
		if err != nil {
			return Counts{}, fmt.Errorf("upsert cve %q: %w", c.CVEID, err)
		}
		if _, _, err := tx.UpsertEdge(store.EdgeVulnerabilityCVE, vulnID, node.ID, evidenceID, nil); err != nil {
			return Counts{}, fmt.Errorf("link vulnerability to cve: %w", err)
		}
		if created {
			counts.CVEsCreated++
		}
	}

	return counts, nil
}
