// Package parser turns raw tool output (port-scan XML, fuzzer JSON,
// vulnerability-scanner JSONL) into a uniform ParseResult that the
// normalizer can fold into the graph store in one transaction.
package parser

// ParseResult is the uniform intermediate every tool-output parser
// produces. Fields are plain staging values, not yet validated against
// any node schema — the normalizer does that as it upserts each one.
type ParseResult struct {
	Hosts               []HostIn
	Services            []ServiceIn
	ServiceObservations []ServiceObservationIn
	Endpoints           []EndpointIn
	Inputs              []InputIn
	EndpointInputs      []EndpointInputIn
	Observations        []ObservationIn
	Vulnerabilities     []VulnerabilityIn
	CVEs                []CVEIn
}

// HostIn stages a host discovered by a parser.
type HostIn struct {
	Authority     string
	AuthorityKind string
	Hostname      string
	State         string
}

// ServiceIn stages a service discovered under a host.
type ServiceIn struct {
	HostAuthority string
	Transport     string
	Port          float64
	AppProto      string
	State         string
	Banner        string
	Confidence    string
}

// ServiceObservationIn stages a service-level observation (an OS
// fingerprint match), keyed to the service it was produced against.
type ServiceObservationIn struct {
	HostAuthority string
	Transport     string
	Port          float64
	OSMatch       string
	Confidence    string
	Source        string
}

// EndpointIn stages an HTTP endpoint discovered under a service.
type EndpointIn struct {
	HostAuthority string
	Transport     string
	Port          float64
	Method        string
	Path          string
	StatusCode    float64
}

// InputIn stages a request input (query/body/header/cookie/path
// parameter) discovered under a service.
type InputIn struct {
	HostAuthority string
	Transport     string
	Port          float64
	Location      string
	Name          string
}

// EndpointInputIn stages a link between an endpoint and an input it
// accepts.
type EndpointInputIn struct {
	HostAuthority string
	Transport     string
	Port          float64
	Method        string
	Path          string
	Location      string
	Name          string
}

// ObservationIn stages an input-level observation (a raw value seen at
// a given input).
type ObservationIn struct {
	HostAuthority string
	Transport     string
	Port          float64
	Location      string
	Name          string
	RawValue      string
	Source        string
	Confidence    string
}

// VulnerabilityIn stages a vulnerability finding, optionally resolvable
// to a specific endpoint by method+path.
type VulnerabilityIn struct {
	HostAuthority string
	Port          float64
	Method        string
	Path          string
	Title         string
	VulnType      string
	Severity      string
	Confidence    string
}

// CVEIn stages a CVE record attributed to a vulnerability by title.
type CVEIn struct {
	VulnTitle string
	CVEID     string
	CVSSScore float64
}
