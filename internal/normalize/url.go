package normalize

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ServerURL validates and normalizes a user-submitted endpoint URL for a
// network transport. It returns the normalized URL plus non-fatal
// warnings; warnings are logged by the caller but never block
// installation. Malformed URLs, relative URLs and non-http(s) schemes
// are rejected outright.
func ServerURL(raw string) (string, []string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil, fmt.Errorf("url is required for network transports")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", nil, fmt.Errorf("invalid url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", nil, fmt.Errorf("url must be absolute with a host")
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	var warnings []string

	if u.User != nil {
		warnings = append(warnings, "credentials embedded in url were dropped")
		u.User = nil
	}
	if u.Fragment != "" {
		warnings = append(warnings, "fragment stripped from url")
		u.Fragment = ""
	}
	if scheme == "http" {
		warnings = append(warnings, "endpoint is not using https")
	}
	if ip := net.ParseIP(u.Hostname()); ip != nil {
		warnings = append(warnings, "endpoint host is a bare IP address")
	}
	if IsSourceControlURL(trimmed) {
		warnings = append(warnings, "url points at a source-control host, not a server endpoint")
	}

	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)

	return u.String(), warnings, nil
}
