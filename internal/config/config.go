package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Logging configuration
	LogLevel string

	// AWS configuration
	AWSRegion string

	// DynamoDB configuration
	ServersTableName      string
	ProfilesTableName     string
	MembershipsTableName  string
	AdminsTableName       string
	TransactionsTableName string

	// Upstream registry configuration
	RegistryURL          string
	RegistrySyncInterval time.Duration // zero disables the background sync

	// Schema revision configuration
	SchemaRevision      string
	SchemaRevisionsFile string

	// Auth probe configuration
	ProbeTimeout time.Duration

	// Identity provider configuration (optional; dev mode skips
	// signature verification when unset)
	IdentityIssuer   string
	IdentityJWKSURL  string
	IdentityAudience string
}

// New creates a new Config instance by loading environment variables
// from .env file (if present) and OS environment.
// OS environment variables take precedence over .env file values.
// Panics if required configuration values are missing or invalid.
func New() *Config {
	// Load .env file from project root (silently ignore if not found)
	// We use the directory where the binary is run from as the base
	envPath := filepath.Join(".", ".env")
	_ = godotenv.Load(envPath)

	cfg := &Config{
		// Server configuration
		Port: getEnvOrDefault("PORT", "3001"),

		// Logging configuration
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),

		// AWS configuration
		AWSRegion: getEnvOrDefault("AWS_REGION", "us-east-1"),

		// DynamoDB configuration
		ServersTableName:      getEnvOrDefault("DYNAMODB_SERVERS_TABLE", "McpServers"),
		ProfilesTableName:     getEnvOrDefault("DYNAMODB_PROFILES_TABLE", "Profiles"),
		MembershipsTableName:  getEnvOrDefault("DYNAMODB_MEMBERSHIPS_TABLE", "OrganizationMemberships"),
		AdminsTableName:       getEnvOrDefault("DYNAMODB_ADMINS_TABLE", "PlatformAdmins"),
		TransactionsTableName: getEnvOrDefault("DYNAMODB_OAUTH_TABLE", "OAuthTransactions"),

		// Upstream registry configuration
		RegistryURL:          getEnvOrDefault("REGISTRY_URL", "https://registry.modelcontextprotocol.io/v0.1/servers"),
		RegistrySyncInterval: getEnvDuration("REGISTRY_SYNC_INTERVAL", 0),

		// Schema revision configuration
		SchemaRevision:      getEnvOrDefault("SCHEMA_REVISION", "v2"),
		SchemaRevisionsFile: os.Getenv("SCHEMA_REVISIONS_FILE"),

		// Auth probe configuration
		ProbeTimeout: getEnvDuration("PROBE_TIMEOUT", 5*time.Second),

		// Identity provider configuration
		IdentityIssuer:   os.Getenv("IDENTITY_ISSUER"),
		IdentityJWKSURL:  os.Getenv("IDENTITY_JWKS_URL"),
		IdentityAudience: os.Getenv("IDENTITY_AUDIENCE"),
	}

	// Validate required configuration
	cfg.validate()

	return cfg
}

// validate checks that all required configuration values are present and valid
func (c *Config) validate() {
	var missing []string

	if c.RegistryURL == "" {
		missing = append(missing, "REGISTRY_URL")
	}
	if c.SchemaRevision == "" {
		missing = append(missing, "SCHEMA_REVISION")
	}

	if len(missing) > 0 {
		panic(fmt.Sprintf("Missing required configuration values: %v", missing))
	}

	if c.ProbeTimeout <= 0 {
		panic(fmt.Sprintf("PROBE_TIMEOUT must be positive (got %s)", c.ProbeTimeout))
	}

	// Identity settings travel together: verification needs both the
	// issuer and the JWKS endpoint
	if (c.IdentityIssuer == "") != (c.IdentityJWKSURL == "") {
		panic("IDENTITY_ISSUER and IDENTITY_JWKS_URL must be set together")
	}
}

// getEnvOrDefault returns the value of an environment variable or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration parses an environment variable as a duration, accepting
// either a Go duration string or a plain number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// Helper methods for accessing configuration values

// GetPort returns the server port
func (c *Config) GetPort() string {
	return c.Port
}

// GetLogLevel returns the logging level
func (c *Config) GetLogLevel() string {
	return c.LogLevel
}

// GetAWSRegion returns the AWS region
func (c *Config) GetAWSRegion() string {
	return c.AWSRegion
}

// GetServersTableName returns the MCP servers table name
func (c *Config) GetServersTableName() string {
	return c.ServersTableName
}

// GetRegistryURL returns the upstream registry endpoint
func (c *Config) GetRegistryURL() string {
	return c.RegistryURL
}

// GetSchemaRevision returns the active schema revision name
func (c *Config) GetSchemaRevision() string {
	return c.SchemaRevision
}

// VerifiedAuth reports whether full JWT signature verification is configured
func (c *Config) VerifiedAuth() bool {
	return c.IdentityIssuer != "" && c.IdentityJWKSURL != ""
}
