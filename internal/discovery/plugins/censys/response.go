package censys

import (
	"fmt"

	"github.com/censys/sigint/internal/domain/discovery"
)

// searchResponse mirrors the fields of the Censys Platform search
// response this plugin actually reads; unrecognized fields are
// ignored by encoding/json.
type searchResponse struct {
	Result struct {
		TotalHits     int    `json:"total_hits"`
		NextPageToken string `json:"next_page_token"`
		Hits          []hit  `json:"hits"`
	} `json:"result"`
	Detail string `json:"detail"`
}

func (r searchResponse) totalHits() int        { return r.Result.TotalHits }
func (r searchResponse) nextPageToken() string  { return r.Result.NextPageToken }
func (r searchResponse) hits() []hit            { return r.Result.Hits }
func (r searchResponse) detail() string {
	if r.Detail != "" {
		return r.Detail
	}
	return "query error"
}

// hit is one of webproperty_v1/host_v1/certificate_v1; only the
// resource shape this plugin needs is modeled.
type hit struct {
	WebPropertyV1 *resource `json:"webproperty_v1"`
	HostV1        *resource `json:"host_v1"`
	CertificateV1 *resource `json:"certificate_v1"`
}

func (h hit) resource() *resource {
	switch {
	case h.WebPropertyV1 != nil:
		return h.WebPropertyV1
	case h.HostV1 != nil:
		return h.HostV1
	default:
		return h.CertificateV1
	}
}

type resource struct {
	Resource struct {
		IP       string `json:"ip"`
		DNS      struct {
			ReverseDNS struct {
				Names []string `json:"names"`
			} `json:"reverse_dns"`
		} `json:"dns"`
		Endpoints []struct {
			IP       string `json:"ip"`
			Hostname string `json:"hostname"`
			Port     int    `json:"port"`
		} `json:"endpoints"`
		Location struct {
			Country     string `json:"country"`
			CountryCode string `json:"country_code"`
			City        string `json:"city"`
			Province    string `json:"province"`
		} `json:"location"`
		AutonomousSystem struct {
			ASN         int    `json:"asn"`
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"autonomous_system"`
		TLS      bool `json:"tls"`
		Services []struct {
			Port     int    `json:"port"`
			TLS      bool   `json:"tls"`
			ScanTime string `json:"scan_time"`
		} `json:"services"`
	} `json:"resource"`
}

// normalizeHit fans a single Censys hit out into one NormalizedHost
// per service (or one basic entry if the resource has no services),
// mirroring the original plugin's _normalize_result.
func normalizeHit(h hit) []discovery.Host {
	res := h.resource()
	if res == nil {
		return nil
	}
	r := res.Resource

	ip := r.IP
	hostname := ""
	var hostnames []string
	protocol := "http"
	port := 80

	for _, ep := range r.Endpoints {
		if ep.IP != "" {
			ip = ep.IP
			hostname = ep.Hostname
			if hostname != "" {
				hostnames = []string{hostname}
			}
			port = ep.Port
			if port == 443 || port == 8443 || r.TLS {
				protocol = "https"
			}
			break
		}
	}

	if names := r.DNS.ReverseDNS.Names; len(names) > 0 {
		hostname = names[0]
		hostnames = names
	}

	location := map[string]string{}
	if r.Location.Country != "" {
		location["country"] = r.Location.Country
	}
	if r.Location.CountryCode != "" {
		location["country_code"] = r.Location.CountryCode
	}
	if r.Location.City != "" {
		location["city"] = r.Location.City
	}
	if r.Location.Province != "" {
		location["region"] = r.Location.Province
	}
	if len(location) == 0 {
		location = nil
	}

	var asn, org string
	if r.AutonomousSystem.ASN != 0 {
		asn = fmt.Sprintf("AS%d", r.AutonomousSystem.ASN)
		org = r.AutonomousSystem.Name
		if org == "" {
			org = r.AutonomousSystem.Description
		}
	}

	metadata := map[string]any{"asn": asn, "org": org, "hostnames": hostnames}

	var hosts []discovery.Host
	for _, svc := range r.Services {
		svcProtocol := "http"
		if svc.Port == 443 || svc.Port == 8443 || svc.TLS {
			svcProtocol = "https"
		}
		hosts = append(hosts, discovery.Host{
			IP:       ip,
			Port:     svc.Port,
			Protocol: svcProtocol,
			Hostname: hostname,
			Source:   "censys",
			LastSeen: svc.ScanTime,
			Location: location,
			Metadata: metadata,
		})
	}

	if len(hosts) == 0 && ip != "" {
		hosts = append(hosts, discovery.Host{
			IP:       ip,
			Port:     port,
			Protocol: protocol,
			Hostname: hostname,
			Source:   "censys",
			Location: location,
			Metadata: metadata,
		})
	}

	return hosts
}
