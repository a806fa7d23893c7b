package utils

import (
	"net/url"
	"strings"
)

// HostAllowed reports whether hostname equals one of the allowed domains or
// is a subdomain of one. An empty list allows every host.
func HostAllowed(hostname string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	hostname = strings.ToLower(strings.TrimSuffix(hostname, "."))
	if hostname == "" {
		return false
	}
	for _, domain := range allowed {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if hostname == domain || strings.HasSuffix(hostname, "."+domain) {
			return true
		}
	}
	return false
}

// IsWebURL reports whether u is an absolute http(s) URL with a host.
func IsWebURL(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
