package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type nucleiFinding struct {
	Host      string     `json:"host"`
	IP        string     `json:"ip"`
	Port      int        `json:"port"`
	MatchedAt string     `json:"matched-at"`
	Info      nucleiInfo `json:"info"`
}

type nucleiInfo struct {
	Name           string               `json:"name"`
	Severity       string               `json:"severity"`
	Tags           []string             `json:"tags"`
	Classification nucleiClassification `json:"classification"`
}

type nucleiClassification struct {
	CVEID     []string `json:"cve-id"`
	CVSSScore float64  `json:"cvss-score"`
}

var vulnTypePriority = []string{"sqli", "xss", "rce", "lfi", "ssrf"}

// ParseNuclei parses vulnerability-scanner JSONL output into a
// ParseResult. One JSON object per line; malformed lines are skipped
// rather than failing the whole parse. The endpoint path is extracted
// from matched-at without URL-decoding, so traversal payloads in the
// path survive intact.
func ParseNuclei(data []byte) *ParseResult {
	result := &ParseResult{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	seenHosts := map[string]bool{}
	seenServices := map[string]bool{}
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var f nucleiFinding
		if err := json.Unmarshal(line, &f); err != nil {
			continue
		}
		if f.IP == "" {
			continue
		}

		if !seenHosts[f.IP] {
			seenHosts[f.IP] = true
			result.Hosts = append(result.Hosts, HostIn{Authority: f.IP, AuthorityKind: "IP"})
		}
		svcKey := fmt.Sprintf("%s:%d", f.IP, f.Port)
		if !seenServices[svcKey] {
			seenServices[svcKey] = true
			result.Services = append(result.Services, ServiceIn{
				HostAuthority: f.IP,
				Transport:     "tcp",
				Port:          float64(f.Port),
			})
		}

		path, ok := rawPath(f.MatchedAt)
		vuln := VulnerabilityIn{
			HostAuthority: f.IP,
			Port:          float64(f.Port),
			Title:         f.Info.Name,
			VulnType:      classifyVulnType(f.Info.Tags),
			Severity:      f.Info.Severity,
			Confidence:    "high",
		}
		if ok {
			vuln.Method = "GET"
			vuln.Path = path
			result.Endpoints = append(result.Endpoints, EndpointIn{
				HostAuthority: f.IP,
				Transport:     "tcp",
				Port:          float64(f.Port),
				Method:        "GET",
				Path:          path,
			})
		}
		result.Vulnerabilities = append(result.Vulnerabilities, vuln)

		for _, cve := range f.Info.Classification.CVEID {
			result.CVEs = append(result.CVEs, CVEIn{
				VulnTitle: f.Info.Name,
				CVEID:     cve,
				CVSSScore: f.Info.Classification.CVSSScore,
			})
		}
	}
	return result
}

// rawPath extracts the path component of a URL without decoding any
// percent-escapes: find the slash after scheme://host[:port], then stop
// at the first ? or #.
func rawPath(rawURL string) (string, bool) {
	idx := strings.Index(rawURL, "://")
	if idx < 0 {
		return "", false
	}
	rest := rawURL[idx+3:]
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return "/", true
	}
	path := rest[slash:]
	if cut := strings.IndexAny(path, "?#"); cut >= 0 {
		path = path[:cut]
	}
	return path, true
}

func classifyVulnType(tags []string) string {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[strings.ToLower(t)] = true
	}
	for _, vt := range vulnTypePriority {
		if set[vt] {
			return vt
		}
	}
	return "other"
}
