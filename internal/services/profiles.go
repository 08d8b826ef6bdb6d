package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atoms-tech/mcpregistry/internal/logger"
	"github.com/atoms-tech/mcpregistry/internal/models"
	"github.com/atoms-tech/mcpregistry/internal/repository"
	"github.com/google/uuid"
)

// ErrProfileMissing is returned when a profile row is absent and cannot
// be created from the token claims
var ErrProfileMissing = errors.New("profile missing")

// ProfileService materializes local profile rows from external identities
type ProfileService struct {
	repo repository.ProfileRepository
}

// NewProfileService creates a new ProfileService instance
func NewProfileService(repo repository.ProfileRepository) *ProfileService {
	return &ProfileService{
		repo: repo,
	}
}

// Sync resolves an external identity to a local profile, creating the row
// on first sight. Claims may carry email and name; absence is tolerated.
func (s *ProfileService) Sync(ctx context.Context, externalId string, claims map[string]interface{}) (*models.Profile, error) {
	if externalId == "" {
		return nil, ErrProfileMissing
	}

	profile, err := s.repo.GetByExternalId(ctx, externalId)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to resolve profile: %w", err)
	}

	now := time.Now()
	profile = &models.Profile{
		Id:         uuid.New().String(),
		ExternalId: externalId,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if email, ok := claims["email"].(string); ok {
		profile.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		profile.Name = name
	}

	if err := s.repo.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			// Lost a first-sight race; re-read the winner
			return s.repo.GetByExternalId(ctx, externalId)
		}
		logger.WithFields(map[string]interface{}{
			"external_id": externalId,
			"error":       err.Error(),
		}).Error("Failed to create profile")
		return nil, ErrProfileMissing
	}

	logger.WithFields(map[string]interface{}{
		"profile_id":  profile.Id,
		"external_id": externalId,
	}).Info("Profile created from external identity")

	return profile, nil
}
