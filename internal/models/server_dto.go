package models

import "time"

// InstallServerRequest represents the request body for installing a new MCP server
type InstallServerRequest struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	Transport   string                `json:"transport" binding:"required"`
	URL         string                `json:"url"`
	Command     string                `json:"command"`
	Args        []string              `json:"args"`
	EnvVars     []EnvironmentVariable `json:"env_vars"`
	Auth        string                `json:"auth"`
	Token       string                `json:"token"`
	Scope       string                `json:"scope"`

	// Organization-scoped installs only
	OrganizationId string `json:"organization_id"`

	// Elevated fields, accepted from platform admins only
	Source string `json:"source"`
	Tier   string `json:"tier"`
}

// ToDomain converts InstallServerRequest DTO to domain McpServer model.
// Normalization (transport, auth, namespace) happens in the install
// service, not here.
func (req *InstallServerRequest) ToDomain() *McpServer {
	now := time.Now()
	scope := req.Scope
	if scope == "" {
		scope = ScopeUser
	}
	return &McpServer{
		Name:           req.Name,
		Description:    req.Description,
		TransportType:  req.Transport,
		URL:            req.URL,
		Command:        req.Command,
		Args:           req.Args,
		EnvVars:        req.EnvVars,
		AuthType:       req.Auth,
		Token:          req.Token,
		Scope:          scope,
		OrganizationId: req.OrganizationId,
		Source:         req.Source,
		Tier:           req.Tier,
		Enabled:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// McpServerResponse represents the response structure for a single MCP server
type McpServerResponse struct {
	Id            string                `json:"id"`
	Namespace     string                `json:"namespace"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	TransportType string                `json:"transport_type"`
	URL           string                `json:"url"`
	Command       string                `json:"command,omitempty"`
	Args          []string              `json:"args,omitempty"`
	EnvVars       []EnvironmentVariable `json:"env_vars,omitempty"`
	AuthType      string                `json:"auth_type"`
	Scope         string                `json:"scope"`
	UserId        string                `json:"user_id,omitempty"`
	OrgId         string                `json:"organization_id,omitempty"`
	ProjectId     string                `json:"project_id,omitempty"`
	Source        string                `json:"source"`
	Tier          string                `json:"tier"`
	Enabled       bool                  `json:"enabled"`
	Proxy         *ProxyConfig          `json:"proxy,omitempty"`
	CreatedBy     string                `json:"created_by"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// McpServerListResponse represents the response structure for listing MCP servers
type McpServerListResponse struct {
	Servers []McpServerResponse `json:"servers"`
	Total   int                 `json:"total"`
}

// ToResponse converts a domain McpServer to an McpServerResponse DTO.
// Tokens and proxy credentials never leave the service.
func (s *McpServer) ToResponse() McpServerResponse {
	resp := McpServerResponse{
		Id:            s.Id,
		Namespace:     s.Namespace,
		Name:          s.Name,
		Description:   s.Description,
		TransportType: s.TransportType,
		URL:           s.URL,
		Command:       s.Command,
		Args:          s.Args,
		EnvVars:       s.EnvVars,
		AuthType:      s.AuthType,
		Scope:         s.Scope,
		UserId:        s.UserId,
		OrgId:         s.OrganizationId,
		ProjectId:     s.ProjectId,
		Source:        s.Source,
		Tier:          s.Tier,
		Enabled:       s.Enabled,
		CreatedBy:     s.CreatedBy,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.Proxy != nil {
		resp.Proxy = &ProxyConfig{
			Enabled:       s.Proxy.Enabled,
			ProxyURL:      s.Proxy.ProxyURL,
			ProxyUsername: s.Proxy.ProxyUsername,
		}
	}
	return resp
}

// ProbeRequest represents the request body for an auth-detection probe
type ProbeRequest struct {
	URL string `json:"url" binding:"required"`
}

// UpdateProxyRequest represents the request body for updating a server's
// proxy configuration
type UpdateProxyRequest struct {
	Enabled       bool   `json:"enabled"`
	ProxyURL      string `json:"proxy_url"`
	ProxyUsername string `json:"proxy_username"`
	ProxyPassword string `json:"proxy_password"`
}
