// Package normalize maps heterogeneous registry descriptors and
// user-submitted values onto the fixed vocabularies the store accepts.
package normalize

import (
	"net/url"
	"strings"

	"github.com/atoms-tech/mcpregistry/internal/models"
)

// Registry transport descriptor types. The registry distinguishes plain
// HTTP from streamable HTTP; the store does not.
const (
	remoteTypeHTTP       = "http"
	remoteTypeStreamable = "streamable-http"
	remoteTypeSSE        = "sse"
)

// sourceControlHosts are hosts that are repository pages, not server
// endpoints. URLs pointing at them are data-entry errors to be repaired.
var sourceControlHosts = []string{"github.com", "gitlab.com"}

// Transport maps a registry server's remotes onto (transport_type, url).
// Only the first remote is consulted; entries without remotes are
// local-process servers.
func Transport(remotes []models.RegistryRemote) (string, string) {
	if len(remotes) == 0 {
		return models.TransportStdio, ""
	}
	switch strings.ToLower(remotes[0].Type) {
	case remoteTypeStreamable, remoteTypeHTTP:
		return models.TransportHTTP, remotes[0].URL
	case remoteTypeSSE:
		return models.TransportSSE, remotes[0].URL
	}
	return models.TransportStdio, ""
}

// InvalidStoredURL reports whether a persisted URL value is one of the
// known-bad shapes: an empty JSON object literal written where a string
// belonged, or a source-control page stored as an endpoint.
func InvalidStoredURL(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "{}" || trimmed == "[object Object]" {
		return true
	}
	return IsSourceControlURL(trimmed)
}

// IsSourceControlURL reports whether raw points at a source-control
// hosting provider (any subdomain included).
func IsSourceControlURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, bad := range sourceControlHosts {
		if host == bad || strings.HasSuffix(host, "."+bad) {
			return true
		}
	}
	return false
}

// Repair describes the transport/url fix computed for a stored row
type Repair struct {
	TransportType string
	URL           string
}

// NeedsRepair compares a stored server against the freshly normalized
// transport/url from its matching registry entry. It returns the repair
// to apply, or false when the row is already consistent. For stdio
// transports the stored URL is the sentinel, never empty.
func NeedsRepair(server *models.McpServer, remotes []models.RegistryRemote) (Repair, bool) {
	transportType, rawURL := Transport(remotes)

	wantURL := rawURL
	if transportType == models.TransportStdio {
		wantURL = models.StdioURLSentinel
	}

	// A registry entry whose own URL is one of the bad shapes cannot
	// resolve anything; writing it would just re-flag the row next run.
	if transportType != models.TransportStdio && InvalidStoredURL(wantURL) {
		return Repair{}, false
	}
	// Already consistent with the registry; repairing again would loop.
	if server.TransportType == transportType && server.URL == wantURL {
		return Repair{}, false
	}

	if server.TransportType != transportType {
		return Repair{TransportType: transportType, URL: wantURL}, true
	}
	if InvalidStoredURL(server.URL) {
		return Repair{TransportType: transportType, URL: wantURL}, true
	}
	return Repair{}, false
}
