package models

import "time"

// Transport types accepted for a stored server. The registry side uses a
// wider vocabulary (streamable-http etc.) which the normalizer folds into
// these three values before anything is written.
const (
	TransportHTTP  = "http"
	TransportSSE   = "sse"
	TransportStdio = "stdio"
)

// StdioURLSentinel is stored in the URL field for local-process servers so
// the column is never empty.
const StdioURLSentinel = "stdio://local"

// Server ownership scopes.
const (
	ScopeUser         = "user"
	ScopeOrganization = "organization"
	ScopeProject      = "project"
	ScopeSystem       = "system"
)

// Server provenance sources.
const (
	SourceRegistry = "registry"
	SourceGitHub   = "github"
	SourceCustom   = "custom"
)

// Server trust tiers.
const (
	TierFirstParty = "first-party"
	TierCurated    = "curated"
	TierCommunity  = "community"
)

// McpServer represents the domain model for a registered MCP server
// This is a database-agnostic business entity
type McpServer struct {
	Id             string
	Namespace      string // unique within its scope; the upsert identity
	Name           string
	Description    string
	TransportType  string // http, sse or stdio
	URL            string // endpoint for network transports, StdioURLSentinel otherwise
	Command        string // stdio transports only
	Args           []string
	EnvVars        []EnvironmentVariable
	AuthType       string // member of the active schema revision's auth set; "" means NULL
	Token          string
	Scope          string
	UserId         string // set iff Scope == user
	OrganizationId string // set iff Scope == organization
	ProjectId      string // set iff Scope == project
	Source         string
	Tier           string
	Enabled        bool
	Proxy          *ProxyConfig
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ScopeRef returns the foreign key that backs the declared scope. The
// second value is false when the declared scope requires no FK (system)
// or the row violates the valid_scope invariant.
func (s *McpServer) ScopeRef() (string, bool) {
	switch s.Scope {
	case ScopeUser:
		return s.UserId, s.UserId != ""
	case ScopeOrganization:
		return s.OrganizationId, s.OrganizationId != ""
	case ScopeProject:
		return s.ProjectId, s.ProjectId != ""
	case ScopeSystem:
		return "", true
	}
	return "", false
}

// ValidScope reports whether exactly one ownership FK is set, consistent
// with the declared scope (the valid_scope invariant).
func (s *McpServer) ValidScope() bool {
	set := 0
	for _, fk := range []string{s.UserId, s.OrganizationId, s.ProjectId} {
		if fk != "" {
			set++
		}
	}
	switch s.Scope {
	case ScopeSystem:
		return set == 0
	case ScopeUser:
		return set == 1 && s.UserId != ""
	case ScopeOrganization:
		return set == 1 && s.OrganizationId != ""
	case ScopeProject:
		return set == 1 && s.ProjectId != ""
	}
	return false
}

// ProxyConfig holds the optional forward-proxy settings for a server.
type ProxyConfig struct {
	Enabled       bool   `json:"enabled" dynamodbav:"Enabled"`
	ProxyURL      string `json:"proxy_url" dynamodbav:"ProxyURL"`
	ProxyUsername string `json:"proxy_username,omitempty" dynamodbav:"ProxyUsername"`
	ProxyPassword string `json:"proxy_password,omitempty" dynamodbav:"ProxyPassword"`
}
