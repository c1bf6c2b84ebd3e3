package parser

import (
	"net/url"
	"regexp"
	"strconv"

	"attacksurface/internal/errs"
)

var ipv4Pattern = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

type ffufDoc struct {
	CommandLine string     `json:"commandline"`
	Config      ffufConfig `json:"config"`
	Results     []ffufHit  `json:"results"`
}

type ffufConfig struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

type ffufHit struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
}

// ParseFFUF parses fuzzer JSON output into a ParseResult, deduplicating
// hosts, services, endpoints, inputs, observations, and endpoint-input
// links within the result set.
func ParseFFUF(data []byte) (*ParseResult, error) {
	doc, err := parseJSON[ffufDoc](data)
	if err != nil {
		return nil, &errs.ParseFormatError{Tool: "ffuf", Reason: err.Error()}
	}
	if doc.CommandLine == "" || doc.Config.URL == "" || doc.Config.Method == "" {
		return nil, &errs.ParseFormatError{Tool: "ffuf", Reason: "missing commandline, config.url, or config.method"}
	}

	result := &ParseResult{}
	seenHosts := map[string]bool{}
	seenServices := map[string]bool{}
	seenEndpoints := map[string]bool{}
	seenInputs := map[string]bool{}
	seenObservations := map[string]bool{}
	seenEndpointInputs := map[string]bool{}

	for _, hit := range doc.Results {
		if hit.URL == "" {
			continue
		}
		u, err := url.Parse(hit.URL)
		if err != nil {
			continue
		}
		port := defaultPort(u)
		authority := u.Hostname()
		authorityKind := "DOMAIN"
		if ipv4Pattern.MatchString(authority) {
			authorityKind = "IP"
		}

		if !seenHosts[authority] {
			seenHosts[authority] = true
			result.Hosts = append(result.Hosts, HostIn{Authority: authority, AuthorityKind: authorityKind})
		}

		svcKey := authority + ":" + strconv.Itoa(port)
		if !seenServices[svcKey] {
			seenServices[svcKey] = true
			result.Services = append(result.Services, ServiceIn{
				HostAuthority: authority,
				Transport:     "tcp",
				Port:          float64(port),
				AppProto:      u.Scheme,
			})
		}

		epKey := doc.Config.Method + ":" + u.Path
		if !seenEndpoints[epKey] {
			seenEndpoints[epKey] = true
			result.Endpoints = append(result.Endpoints, EndpointIn{
				HostAuthority: authority,
				Transport:     "tcp",
				Port:          float64(port),
				Method:        doc.Config.Method,
				Path:          u.Path,
				StatusCode:    float64(hit.Status),
			})
		}

		for name, values := range u.Query() {
			inputKey := name
			if !seenInputs[inputKey] {
				seenInputs[inputKey] = true
				result.Inputs = append(result.Inputs, InputIn{
					HostAuthority: authority,
					Transport:     "tcp",
					Port:          float64(port),
					Location:      "query",
					Name:          name,
				})
			}

			eiKey := doc.Config.Method + ":" + u.Path + ":query:" + name
			if !seenEndpointInputs[eiKey] {
				seenEndpointInputs[eiKey] = true
				result.EndpointInputs = append(result.EndpointInputs, EndpointInputIn{
					HostAuthority: authority,
					Transport:     "tcp",
					Port:          float64(port),
					Method:        doc.Config.Method,
					Path:          u.Path,
					Location:      "query",
					Name:          name,
				})
			}

			for _, v := range values {
				obsKey := "query:" + name + ":" + v
				if seenObservations[obsKey] {
					continue
				}
				seenObservations[obsKey] = true
				result.Observations = append(result.Observations, ObservationIn{
					HostAuthority: authority,
					Transport:     "tcp",
					Port:          float64(port),
					Location:      "query",
					Name:          name,
					RawValue:      v,
					Source:        "ffuf",
					Confidence:    "medium",
				})
			}
		}
	}
	return result, nil
}

func defaultPort(u *url.URL) int {
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err == nil {
			return n
		}
	}
	if u.Scheme == "https" {
		return 443
	}
	return 80
}
