package normalize

import (
	"testing"

	"github.com/atoms-tech/mcpregistry/internal/models"
)

// TestTransport tests mapping of registry remotes onto stored transport types
func TestTransport(t *testing.T) {
	tests := []struct {
		name          string
		remotes       []models.RegistryRemote
		wantTransport string
		wantURL       string
	}{
		{
			name:          "No remotes means local process",
			remotes:       nil,
			wantTransport: models.TransportStdio,
			wantURL:       "",
		},
		{
			name:          "Empty remotes list means local process",
			remotes:       []models.RegistryRemote{},
			wantTransport: models.TransportStdio,
			wantURL:       "",
		},
		{
			name: "Streamable HTTP collapses to http",
			remotes: []models.RegistryRemote{
				{Type: "streamable-http", URL: "https://mcp.example.com/mcp"},
			},
			wantTransport: models.TransportHTTP,
			wantURL:       "https://mcp.example.com/mcp",
		},
		{
			name: "Plain http maps to http",
			remotes: []models.RegistryRemote{
				{Type: "http", URL: "https://mcp.example.com/mcp"},
			},
			wantTransport: models.TransportHTTP,
			wantURL:       "https://mcp.example.com/mcp",
		},
		{
			name: "SSE maps to sse",
			remotes: []models.RegistryRemote{
				{Type: "sse", URL: "https://mcp.example.com/sse"},
			},
			wantTransport: models.TransportSSE,
			wantURL:       "https://mcp.example.com/sse",
		},
		{
			name: "Type comparison is case-insensitive",
			remotes: []models.RegistryRemote{
				{Type: "Streamable-HTTP", URL: "https://mcp.example.com/mcp"},
			},
			wantTransport: models.TransportHTTP,
			wantURL:       "https://mcp.example.com/mcp",
		},
		{
			name: "Unknown remote type falls back to stdio",
			remotes: []models.RegistryRemote{
				{Type: "websocket", URL: "wss://mcp.example.com"},
			},
			wantTransport: models.TransportStdio,
			wantURL:       "",
		},
		{
			name: "Only the first remote is consulted",
			remotes: []models.RegistryRemote{
				{Type: "sse", URL: "https://mcp.example.com/sse"},
				{Type: "http", URL: "https://mcp.example.com/mcp"},
			},
			wantTransport: models.TransportSSE,
			wantURL:       "https://mcp.example.com/sse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotTransport, gotURL := Transport(tt.remotes)
			if gotTransport != tt.wantTransport {
				t.Fatalf("Transport mismatch. Expected %q, got %q", tt.wantTransport, gotTransport)
			}
			if gotURL != tt.wantURL {
				t.Fatalf("URL mismatch. Expected %q, got %q", tt.wantURL, gotURL)
			}
		})
	}
}

// TestInvalidStoredURL tests detection of known-bad persisted URL shapes
func TestInvalidStoredURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		invalid bool
	}{
		{
			name:    "Empty object literal",
			raw:     "{}",
			invalid: true,
		},
		{
			name:    "Stringified object",
			raw:     "[object Object]",
			invalid: true,
		},
		{
			name:    "Object literal with surrounding whitespace",
			raw:     "  {}  ",
			invalid: true,
		},
		{
			name:    "GitHub repository page",
			raw:     "https://github.com/example/mcp-server",
			invalid: true,
		},
		{
			name:    "GitLab repository page",
			raw:     "https://gitlab.com/example/mcp-server",
			invalid: true,
		},
		{
			name:    "GitHub subdomain",
			raw:     "https://gist.github.com/example/abc123",
			invalid: true,
		},
		{
			name:    "Legitimate endpoint",
			raw:     "https://mcp.example.com/mcp",
			invalid: false,
		},
		{
			name:    "Host merely containing github",
			raw:     "https://notgithub.com/mcp",
			invalid: false,
		},
		{
			name:    "Empty string",
			raw:     "",
			invalid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InvalidStoredURL(tt.raw); got != tt.invalid {
				t.Fatalf("InvalidStoredURL(%q) = %v, expected %v", tt.raw, got, tt.invalid)
			}
		})
	}
}

// TestNeedsRepair tests the stored-row vs registry-entry comparison
func TestNeedsRepair(t *testing.T) {
	tests := []struct {
		name       string
		server     models.McpServer
		remotes    []models.RegistryRemote
		wantRepair bool
		want       Repair
	}{
		{
			name: "Consistent http row needs nothing",
			server: models.McpServer{
				TransportType: models.TransportHTTP,
				URL:           "https://mcp.example.com/mcp",
			},
			remotes: []models.RegistryRemote{
				{Type: "streamable-http", URL: "https://mcp.example.com/mcp"},
			},
			wantRepair: false,
		},
		{
			name: "Stored stdio but registry says http",
			server: models.McpServer{
				TransportType: models.TransportStdio,
				URL:           models.StdioURLSentinel,
			},
			remotes: []models.RegistryRemote{
				{Type: "streamable-http", URL: "https://mcp.example.com/mcp"},
			},
			wantRepair: true,
			want: Repair{
				TransportType: models.TransportHTTP,
				URL:           "https://mcp.example.com/mcp",
			},
		},
		{
			name: "Transport right but URL is a github page",
			server: models.McpServer{
				TransportType: models.TransportHTTP,
				URL:           "https://github.com/example/mcp-server",
			},
			remotes: []models.RegistryRemote{
				{Type: "http", URL: "https://mcp.example.com/mcp"},
			},
			wantRepair: true,
			want: Repair{
				TransportType: models.TransportHTTP,
				URL:           "https://mcp.example.com/mcp",
			},
		},
		{
			name: "Transport right but URL is an object literal",
			server: models.McpServer{
				TransportType: models.TransportSSE,
				URL:           "{}",
			},
			remotes: []models.RegistryRemote{
				{Type: "sse", URL: "https://mcp.example.com/sse"},
			},
			wantRepair: true,
			want: Repair{
				TransportType: models.TransportSSE,
				URL:           "https://mcp.example.com/sse",
			},
		},
		{
			name: "Repaired stdio row gets the sentinel URL",
			server: models.McpServer{
				TransportType: models.TransportHTTP,
				URL:           "https://mcp.example.com/mcp",
			},
			remotes:    nil,
			wantRepair: true,
			want: Repair{
				TransportType: models.TransportStdio,
				URL:           models.StdioURLSentinel,
			},
		},
		{
			name: "Consistent stdio row with sentinel needs nothing",
			server: models.McpServer{
				TransportType: models.TransportStdio,
				URL:           models.StdioURLSentinel,
			},
			remotes:    nil,
			wantRepair: false,
		},
		{
			name: "Registry entry carrying a github URL is skipped",
			server: models.McpServer{
				TransportType: models.TransportHTTP,
				URL:           "https://github.com/example/mcp-server",
			},
			remotes: []models.RegistryRemote{
				{Type: "http", URL: "https://github.com/example/mcp-server"},
			},
			wantRepair: false,
		},
		{
			name: "Registry entry carrying an object literal URL is skipped",
			server: models.McpServer{
				TransportType: models.TransportStdio,
				URL:           models.StdioURLSentinel,
			},
			remotes: []models.RegistryRemote{
				{Type: "http", URL: "{}"},
			},
			wantRepair: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repair, needed := NeedsRepair(&tt.server, tt.remotes)
			if needed != tt.wantRepair {
				t.Fatalf("NeedsRepair = %v, expected %v", needed, tt.wantRepair)
			}
			if !needed {
				return
			}
			if repair.TransportType != tt.want.TransportType {
				t.Fatalf("Repair transport mismatch. Expected %q, got %q", tt.want.TransportType, repair.TransportType)
			}
			if repair.URL != tt.want.URL {
				t.Fatalf("Repair URL mismatch. Expected %q, got %q", tt.want.URL, repair.URL)
			}
		})
	}
}

// TestNeedsRepair_Idempotent tests that applying a repair makes the row consistent
func TestNeedsRepair_Idempotent(t *testing.T) {
	server := models.McpServer{
		TransportType: models.TransportStdio,
		URL:           "https://github.com/example/mcp-server",
	}
	remotes := []models.RegistryRemote{
		{Type: "streamable-http", URL: "https://mcp.example.com/mcp"},
	}

	repair, needed := NeedsRepair(&server, remotes)
	if !needed {
		t.Fatal("Expected first pass to report a repair")
	}

	server.TransportType = repair.TransportType
	server.URL = repair.URL

	if _, again := NeedsRepair(&server, remotes); again {
		t.Fatal("Repaired row should not need repair again")
	}

	t.Log("✓ Repair converges after a single application")
}

// TestNeedsRepair_BadRegistryURLNeverWritten tests that a registry entry
// whose own remote URL is a source-control page produces no repair at all,
// no matter what the stored row holds.
func TestNeedsRepair_BadRegistryURLNeverWritten(t *testing.T) {
	remotes := []models.RegistryRemote{
		{Type: "http", URL: "https://github.com/example/mcp-server"},
	}
	rows := []models.McpServer{
		{TransportType: models.TransportHTTP, URL: "https://github.com/example/mcp-server"},
		{TransportType: models.TransportStdio, URL: models.StdioURLSentinel},
		{TransportType: models.TransportSSE, URL: "{}"},
		{TransportType: models.TransportHTTP, URL: "https://mcp.example.com/mcp"},
	}

	for i := range rows {
		if repair, needed := NeedsRepair(&rows[i], remotes); needed {
			t.Fatalf("Row %d: expected no repair, got %+v", i, repair)
		}
	}

	t.Log("✓ Source-control registry URLs are never proposed as repairs")
}
