// Package webfetch fetches web content safely: every URL — the original and
// each redirect target — is validated against an SSRF deny-list before any
// request is issued, and responses are bounded in size and time.
package webfetch

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// blockedCIDRs covers private, loopback, link-local, and "this network"
// ranges for both IPv4 and IPv6.
var blockedCIDRs = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"0.0.0.0/8",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
}

var blockedNetworks []*net.IPNet

func init() {
	for _, cidr := range blockedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("webfetch: bad deny-list CIDR %q: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, network)
	}
}

func blockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ValidationResult reports whether a single candidate URL is safe to fetch.
// Transient; one is produced per URL and per redirect hop.
type ValidationResult struct {
	Safe       bool
	Err        string
	ResolvedIP string
}

// LookupFunc resolves a hostname to its addresses. Tests substitute a stub.
type LookupFunc func(host string) ([]net.IP, error)

// Validator checks URLs against scheme, host, and resolved-IP policy. It is
// pure apart from the DNS call and must be re-run for every redirect hop.
type Validator struct {
	Lookup LookupFunc
}

// NewValidator returns a Validator using the system resolver.
func NewValidator() *Validator {
	return &Validator{Lookup: net.LookupIP}
}

// Validate applies the full policy to rawURL. A hostname resolving to any
// blocked address is rejected even when other addresses are public — a
// multi-A-record response must not smuggle a private target through.
// DNS failure is a rejection, not a pass.
func (v *Validator) Validate(rawURL string) ValidationResult {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ValidationResult{Err: "invalid URL format"}
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ValidationResult{Err: fmt.Sprintf("blocked URL scheme %q: only http/https allowed", u.Scheme)}
	}

	host := u.Hostname()
	if host == "" {
		return ValidationResult{Err: "URL has no hostname"}
	}
	// Cheap rejections that need no DNS round trip.
	if host == "localhost" || host == "0.0.0.0" {
		return ValidationResult{Err: "blocked: localhost access not allowed"}
	}

	if ip := net.ParseIP(host); ip != nil {
		if blockedIP(ip) {
			return ValidationResult{Err: fmt.Sprintf("blocked: URL resolves to private/internal IP (%s)", ip)}
		}
		return ValidationResult{Safe: true, ResolvedIP: ip.String()}
	}

	lookup := v.Lookup
	if lookup == nil {
		lookup = net.LookupIP
	}
	addrs, err := lookup(host)
	if err != nil || len(addrs) == 0 {
		return ValidationResult{Err: fmt.Sprintf("cannot resolve hostname: %s", host)}
	}

	resolved := ""
	for _, ip := range addrs {
		if blockedIP(ip) {
			return ValidationResult{Err: fmt.Sprintf("blocked: URL resolves to private/internal IP (%s)", ip)}
		}
		if resolved == "" {
			resolved = ip.String()
		}
	}
	return ValidationResult{Safe: true, ResolvedIP: resolved}
}
