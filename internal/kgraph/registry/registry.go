// Package registry resolves named Datalog patterns (component I): a
// fixed table of preset programs compiled into the binary, plus a
// saved-rule table persisted in the graph store.
package registry

import (
	"context"
	"sort"

	"attacksurface/internal/kgraph/schema"
	"attacksurface/internal/kgraph/store"
)

// Origin tags the provenance of a saved rule.
const (
	OriginHuman  = "human"
	OriginAI     = "ai"
	OriginPreset = "preset"
)

// Entry is one named Datalog program, whether preset or saved.
type Entry struct {
	Name        string
	Description string
	RuleText    string
	Origin      string
	Preset      bool
}

// presets is the fixed table of preset programs compiled into the
// binary. Each is a complete program: the defining rule(s) plus its own
// query line, ready to tokenize, parse, and evaluate as-is.
var presets = []Entry{
	{
		Name:        "reachable_services",
		Description: "services observed in an open state",
		RuleText: `reachable_services(S) :- service(_, S, _, _, _, "open").
?- reachable_services(S).`,
		Origin: OriginPreset,
		Preset: true,
	},
	{
		Name:        "exploitable_endpoints",
		Description: "HTTP endpoints with an attached vulnerability",
		RuleText: `exploitable_endpoints(E) :- vulnerability_endpoint(_, E).
?- exploitable_endpoints(E).`,
		Origin: OriginPreset,
		Preset: true,
	},
	{
		Name:        "critical_vulns",
		Description: "vulnerabilities at critical severity",
		RuleText: `critical_vulns(V) :- vulnerability(_, V, _, _, "critical", _).
?- critical_vulns(V).`,
		Origin: OriginPreset,
		Preset: true,
	},
	{
		Name:        "attack_surface",
		Description: "services that expose at least one HTTP endpoint",
		RuleText: `attack_surface(S) :- service(_, S, _, _, _, _), http_endpoint(S, _, _, _, _).
?- attack_surface(S).`,
		Origin: OriginPreset,
		Preset: true,
	},
	{
		Name:        "unfuzzed_inputs",
		Description: "inputs with no recorded observation yet",
		RuleText: `unfuzzed_inputs(I) :- input(_, I, _, _), not observation(I, _, _, _, _).
?- unfuzzed_inputs(I).`,
		Origin: OriginPreset,
		Preset: true,
	},
	{
		Name:        "authenticated_access",
		Description: "services with at least one recorded credential",
		RuleText: `authenticated_access(S) :- credential(S, _, _, _, _, _).
?- authenticated_access(S).`,
		Origin: OriginPreset,
		Preset: true,
	},
}

// Presets returns the compiled-in preset table.
func Presets() []Entry {
	out := make([]Entry, len(presets))
	copy(out, presets)
	return out
}

func presetByName(name string) (Entry, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Entry{}, false
}

func entryFromNode(n *store.Node) Entry {
	p := n.Props.(*schema.RuleProps)
	return Entry{
		Name:        p.Name,
		Description: p.Description,
		RuleText:    p.RuleText,
		Origin:      p.Origin,
		Preset:      p.Preset,
	}
}

// Save persists a named Datalog program to the saved-rule table. Saving
// under a name that already exists replaces it.
func Save(ctx context.Context, s *store.Store, name, description, ruleText, origin string) (Entry, error) {
	node, _, err := s.UpsertNode(ctx, schema.KindRule, map[string]any{
		"name":        name,
		"description": description,
		"rule_text":   ruleText,
		"origin":      origin,
		"preset":      false,
	}, "", "")
	if err != nil {
		return Entry{}, err
	}
	return entryFromNode(node), nil
}

// Saved returns every saved-rule entry, sorted by name.
func Saved(s *store.Store) []Entry {
	nodes := s.FindByKind(schema.KindRule, nil)
	out := make([]Entry, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, entryFromNode(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// List returns every named pattern available, presets first in table
// order followed by saved rules sorted by name — the same precedence
// Resolve uses.
func List(s *store.Store) []Entry {
	out := Presets()
	return append(out, Saved(s)...)
}

// Resolve looks up name against the preset table first, then the saved
// table, returning its rule text. The second return value is false on a
// miss; callers should then treat the pattern as producing no results
// rather than erroring.
func Resolve(s *store.Store, name string) (string, bool) {
	if p, ok := presetByName(name); ok {
		return p.RuleText, true
	}
	for _, e := range Saved(s) {
		if e.Name == name {
			return e.RuleText, true
		}
	}
	return "", false
}
