package models

// RegistryRemote is a network transport descriptor from the upstream
// registry. Type uses the registry's vocabulary (http, sse,
// streamable-http), which is wider than the stored transport enum.
type RegistryRemote struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// RegistryServer is a single entry from the upstream MCP registry.
// Entries without remotes are local-process (stdio) servers.
type RegistryServer struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Version     string           `json:"version,omitempty"`
	Auth        string           `json:"auth,omitempty"`
	Remotes     []RegistryRemote `json:"remotes,omitempty"`
}

// RegistryListResponse is the envelope returned by the upstream registry
type RegistryListResponse struct {
	Servers []RegistryServer `json:"servers"`
}
