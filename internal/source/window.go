package source

import (
	"net/url"
	"strings"
)

// ClampDays bounds a lookback window to [1, ceiling]. Out-of-range values
// are clamped silently, never rejected.
func ClampDays(days, ceiling int) int {
	if days < 1 {
		return 1
	}
	if days > ceiling {
		return ceiling
	}
	return days
}

// NormalizeDomain lower-cases a hostname and strips a leading "www." so
// exclusion matching is insensitive to those variations.
func NormalizeDomain(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(host, "www.")
}

// DomainFromURL extracts the normalized domain of a URL, or "" if the URL
// does not parse.
func DomainFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return NormalizeDomain(u.Hostname())
}

// DomainExcluded reports whether domain matches any entry in excluded,
// either exactly or as a subdomain. "sub.ads.example.com" matches
// "ads.example.com"; "myads.example.com" does not.
func DomainExcluded(domain string, excluded []string) bool {
	domain = NormalizeDomain(domain)
	if domain == "" {
		return false
	}
	for _, e := range excluded {
		e = NormalizeDomain(e)
		if e == "" {
			continue
		}
		if domain == e || strings.HasSuffix(domain, "."+e) {
			return true
		}
	}
	return false
}

// ContactExcluded reports whether a contact identifier contains any of the
// excluded fragments (case-insensitive substring match, matching how phone
// numbers and JIDs are written inconsistently across stores).
func ContactExcluded(identifier string, excluded []string) bool {
	if identifier == "" {
		return false
	}
	id := strings.ToLower(identifier)
	for _, e := range excluded {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && strings.Contains(id, e) {
			return true
		}
	}
	return false
}
