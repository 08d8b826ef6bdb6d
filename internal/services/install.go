package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atoms-tech/mcpregistry/internal/logger"
	"github.com/atoms-tech/mcpregistry/internal/models"
	"github.com/atoms-tech/mcpregistry/internal/normalize"
	"github.com/atoms-tech/mcpregistry/internal/repository"
	"github.com/atoms-tech/mcpregistry/internal/schema"
	"github.com/google/uuid"
)

const oauthTransactionTTL = 10 * time.Minute

// ValidationError carries field-level detail for schema violations so
// handlers can return them distinctly from authorization failures
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// InstallResult is the outcome of a successful install
type InstallResult struct {
	Server      *models.McpServer
	Transaction *models.OAuthTransaction // set when auth_type is oauth
	Warnings    []string
}

// InstallService validates, normalizes and persists user-submitted server
// definitions. Installation is purely a metadata write: no connection is
// made to the server being registered.
type InstallService struct {
	servers  repository.ServerRepository
	profiles repository.ProfileRepository
	oauth    repository.OAuthRepository
	revision *schema.Revision
}

// NewInstallService creates a new InstallService instance
func NewInstallService(
	servers repository.ServerRepository,
	profiles repository.ProfileRepository,
	oauth repository.OAuthRepository,
	revision *schema.Revision,
) *InstallService {
	return &InstallService{
		servers:  servers,
		profiles: profiles,
		oauth:    oauth,
		revision: revision,
	}
}

// Install validates req against the schema selected by caller privilege,
// normalizes transport and auth, derives the namespace and performs a
// single upsert. Organization-scoped installs require membership.
func (s *InstallService) Install(ctx context.Context, profile *models.Profile, req *models.InstallServerRequest, elevated bool) (*InstallResult, error) {
	if err := s.validate(req, elevated); err != nil {
		return nil, err
	}

	server := req.ToDomain()
	server.Id = uuid.New().String()
	server.CreatedBy = profile.Id
	server.TransportType = strings.ToLower(server.TransportType)
	server.AuthType = normalize.AuthType(req.Auth, s.revision)

	if server.Source == "" {
		server.Source = models.SourceCustom
	}
	if server.Tier == "" {
		server.Tier = models.TierCommunity
	}

	var warnings []string
	switch server.TransportType {
	case models.TransportHTTP, models.TransportSSE:
		normalized, warns, err := normalize.ServerURL(server.URL)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"url": err.Error()}}
		}
		server.URL = normalized
		warnings = warns
	case models.TransportStdio:
		server.URL = models.StdioURLSentinel
	}

	for _, warn := range warnings {
		logger.WithFields(map[string]interface{}{
			"profile_id": profile.Id,
			"name":       req.Name,
			"warning":    warn,
		}).Warn("Server URL accepted with warning")
	}

	switch server.Scope {
	case models.ScopeUser:
		server.UserId = profile.Id
		server.OrganizationId = ""
		server.Namespace = normalize.Namespace(profile.Id, req.Name)
	case models.ScopeOrganization:
		if _, err := s.profiles.GetMembership(ctx, profile.Id, req.OrganizationId); err != nil {
			if errors.Is(err, repository.ErrMembershipNotFound) {
				return nil, ErrForbidden
			}
			return nil, fmt.Errorf("failed to check membership: %w", err)
		}
		server.Namespace = fmt.Sprintf("org:%s:%s", req.OrganizationId, normalize.Slug(req.Name))
	case models.ScopeSystem:
		server.OrganizationId = ""
		server.Namespace = fmt.Sprintf("system:%s", normalize.Slug(req.Name))
	}

	if err := s.servers.Upsert(ctx, server); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"namespace":      server.Namespace,
		"transport_type": server.TransportType,
		"auth_type":      server.AuthType,
		"scope":          server.Scope,
	}).Info("MCP server installed")

	result := &InstallResult{Server: server, Warnings: warnings}

	if server.AuthType == "oauth" {
		txn, err := s.createOAuthTransaction(ctx, server, profile)
		if err != nil {
			// The server row is written; the client can retry the
			// authorization separately
			logger.WithFields(map[string]interface{}{
				"namespace": server.Namespace,
				"error":     err.Error(),
			}).Error("Failed to create oauth transaction")
		} else {
			result.Transaction = txn
		}
	}

	return result, nil
}

// validate applies the restricted or elevated request schema
func (s *InstallService) validate(req *models.InstallServerRequest, elevated bool) error {
	fields := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "name is required"
	}

	transport := strings.ToLower(req.Transport)
	if !s.revision.AllowsTransport(transport) {
		fields["transport"] = fmt.Sprintf("transport must be one of %v", s.revision.Transports)
	}

	switch transport {
	case models.TransportHTTP, models.TransportSSE:
		if strings.TrimSpace(req.URL) == "" {
			fields["url"] = "url is required for network transports"
		}
	case models.TransportStdio:
		if strings.TrimSpace(req.Command) == "" {
			fields["command"] = "command is required for stdio transports"
		}
	}

	scope := req.Scope
	if scope == "" {
		scope = models.ScopeUser
	}
	switch scope {
	case models.ScopeUser:
	case models.ScopeOrganization:
		if req.OrganizationId == "" {
			fields["organization_id"] = "organization_id is required for organization scope"
		}
	case models.ScopeSystem:
		if !elevated {
			fields["scope"] = "system scope requires platform admin"
		}
	default:
		fields["scope"] = fmt.Sprintf("scope must be one of %v", []string{models.ScopeUser, models.ScopeOrganization, models.ScopeSystem})
	}

	if !elevated {
		if req.Source != "" {
			fields["source"] = "source cannot be set"
		}
		if req.Tier != "" {
			fields["tier"] = "tier cannot be set"
		}
	} else {
		if req.Source != "" && !s.revision.AllowsSource(req.Source) {
			fields["source"] = fmt.Sprintf("source must be one of %v", s.revision.Sources)
		}
		if req.Tier != "" && !s.revision.AllowsTier(req.Tier) {
			fields["tier"] = fmt.Sprintf("tier must be one of %v", s.revision.Tiers)
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *InstallService) createOAuthTransaction(ctx context.Context, server *models.McpServer, profile *models.Profile) (*models.OAuthTransaction, error) {
	now := time.Now()
	txn := &models.OAuthTransaction{
		Id:               uuid.New().String(),
		ServerNamespace:  server.Namespace,
		UserId:           profile.Id,
		Status:           models.OAuthPending,
		AuthorizationURL: strings.TrimSuffix(server.URL, "/") + "/authorize",
		ExpiresAt:        now.Add(oauthTransactionTTL),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.oauth.Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}
