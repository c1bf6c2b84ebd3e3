package parser

import (
	"encoding/xml"
	"strconv"
	"strings"

	"attacksurface/internal/errs"
)

type nmapRun struct {
	XMLName xml.Name   `xml:"nmaprun"`
	Hosts   []nmapHost `xml:"host"`
}

type nmapHost struct {
	Status    nmapStatus     `xml:"status"`
	Addresses []nmapAddress  `xml:"address"`
	Ports     nmapPorts      `xml:"ports"`
	OS        nmapOS         `xml:"os"`
}

type nmapStatus struct {
	State string `xml:"state,attr"`
}

type nmapAddress struct {
	Addr     string `xml:"addr,attr"`
	AddrType string `xml:"addrtype,attr"`
}

type nmapPorts struct {
	Ports []nmapPort `xml:"port"`
}

type nmapPort struct {
	Protocol string      `xml:"protocol,attr"`
	PortID   int         `xml:"portid,attr"`
	State    nmapState   `xml:"state"`
	Service  nmapService `xml:"service"`
}

type nmapState struct {
	State string `xml:"state,attr"`
}

type nmapService struct {
	Name      string `xml:"name,attr"`
	Product   string `xml:"product,attr"`
	Version   string `xml:"version,attr"`
	ExtraInfo string `xml:"extrainfo,attr"`
	Tunnel    string `xml:"tunnel,attr"`
	Conf      string `xml:"conf,attr"`
}

type nmapOS struct {
	OSMatches []nmapOSMatch `xml:"osmatch"`
}

type nmapOSMatch struct {
	Name     string `xml:"name,attr"`
	Accuracy string `xml:"accuracy,attr"`
}

// ParseNmap parses port-scan XML output into a ParseResult. Hosts
// without an IPv4 address are ignored, as are ports in any state other
// than open. A banner is synthesized from product/version/extrainfo,
// the scanner's conf attribute maps to high/medium/low confidence, and
// OS matches become service observations on the host's first open
// service (or tcp port 0 if the host has none).
func ParseNmap(data []byte) (*ParseResult, error) {
	doc, err := parseXML[nmapRun](data)
	if err != nil {
		return nil, &errs.ParseFormatError{Tool: "nmap", Reason: err.Error()}
	}

	result := &ParseResult{}
	for _, h := range doc.Hosts {
		authority, ok := ipv4Address(h.Addresses)
		if !ok {
			continue
		}
		result.Hosts = append(result.Hosts, HostIn{
			Authority:     authority,
			AuthorityKind: "IP",
			State:         h.Status.State,
		})

		firstTransport, firstPort := "tcp", float64(0)
		sawService := false
		for _, p := range h.Ports.Ports {
			if p.State.State != "open" {
				continue
			}
			appProto := p.Service.Name
			if p.Service.Tunnel == "ssl" || p.Service.Name == "https" {
				appProto = "https"
			}
			result.Services = append(result.Services, ServiceIn{
				HostAuthority: authority,
				Transport:     p.Protocol,
				Port:          float64(p.PortID),
				AppProto:      appProto,
				State:         p.State.State,
				Banner:        synthesizeBanner(p.Service),
				Confidence:    confFromAttr(p.Service.Conf),
			})
			if !sawService {
				sawService = true
				firstTransport, firstPort = p.Protocol, float64(p.PortID)
			}
		}

		for _, m := range h.OS.OSMatches {
			result.ServiceObservations = append(result.ServiceObservations, ServiceObservationIn{
				HostAuthority: authority,
				Transport:     firstTransport,
				Port:          firstPort,
				OSMatch:       m.Name,
				Confidence:    confFromAccuracy(m.Accuracy),
				Source:        "nmap",
			})
		}
	}
	return result, nil
}

func ipv4Address(addrs []nmapAddress) (string, bool) {
	for _, a := range addrs {
		if a.AddrType == "ipv4" {
			return a.Addr, true
		}
	}
	return "", false
}

func synthesizeBanner(svc nmapService) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{svc.Product, svc.Version, svc.ExtraInfo} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func confFromAttr(conf string) string {
	switch conf {
	case "10":
		return "high"
	case "7", "8", "9":
		return "medium"
	default:
		return "low"
	}
}

func confFromAccuracy(accuracy string) string {
	val, err := strconv.Atoi(accuracy)
	if err != nil {
		return "low"
	}
	switch {
	case val >= 90:
		return "high"
	case val >= 50:
		return "medium"
	default:
		return "low"
	}
}
