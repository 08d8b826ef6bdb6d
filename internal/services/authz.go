package services

import (
	"context"
	"errors"

	"github.com/atoms-tech/mcpregistry/internal/logger"
	"github.com/atoms-tech/mcpregistry/internal/models"
	"github.com/atoms-tech/mcpregistry/internal/repository"
)

var (
	// ErrForbidden is returned when the authorization predicate fails
	ErrForbidden = errors.New("forbidden")
	// ErrScopeIntegrity is returned when a server row is missing the
	// foreign key its declared scope requires. This is a data integrity
	// fault, not a client error: the check fails closed and the caller
	// maps it to an internal error status.
	ErrScopeIntegrity = errors.New("scope integrity fault")
)

// AuthzService evaluates whether a caller may mutate a server record.
// It is a pure per-request predicate; there is no session state.
type AuthzService struct {
	profiles repository.ProfileRepository
}

// NewAuthzService creates a new AuthzService instance
func NewAuthzService(profiles repository.ProfileRepository) *AuthzService {
	return &AuthzService{
		profiles: profiles,
	}
}

// Authorize returns nil when profile may mutate server, ErrForbidden when
// the predicate fails, and ErrScopeIntegrity when the row itself is
// inconsistent.
func (s *AuthzService) Authorize(ctx context.Context, profile *models.Profile, server *models.McpServer) error {
	switch server.Scope {
	case models.ScopeUser:
		if server.UserId == "" {
			return s.integrityFault(server)
		}
		if server.UserId != profile.Id {
			return ErrForbidden
		}
		return nil

	case models.ScopeOrganization:
		if server.OrganizationId == "" {
			return s.integrityFault(server)
		}
		membership, err := s.profiles.GetMembership(ctx, profile.Id, server.OrganizationId)
		if err != nil {
			if errors.Is(err, repository.ErrMembershipNotFound) {
				return ErrForbidden
			}
			return err
		}
		if membership.Role != models.RoleAdmin {
			return ErrForbidden
		}
		return nil

	case models.ScopeProject:
		// No project membership table exists; project-scoped mutations
		// require platform admin.
		return s.requireAdmin(ctx, profile)

	case models.ScopeSystem:
		return s.requireAdmin(ctx, profile)
	}

	return s.integrityFault(server)
}

// IsPlatformAdmin reports whether the profile is a platform admin
func (s *AuthzService) IsPlatformAdmin(ctx context.Context, profile *models.Profile) (bool, error) {
	return s.profiles.IsPlatformAdmin(ctx, profile.Id)
}

func (s *AuthzService) requireAdmin(ctx context.Context, profile *models.Profile) error {
	admin, err := s.profiles.IsPlatformAdmin(ctx, profile.Id)
	if err != nil {
		return err
	}
	if !admin {
		return ErrForbidden
	}
	return nil
}

func (s *AuthzService) integrityFault(server *models.McpServer) error {
	logger.WithFields(map[string]interface{}{
		"namespace": server.Namespace,
		"scope":     server.Scope,
	}).Error("Server row violates valid_scope; denying request")
	return ErrScopeIntegrity
}
