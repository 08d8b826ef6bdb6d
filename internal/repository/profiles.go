package repository

import (
	"context"

	"github.com/atoms-tech/mcpregistry/internal/database"
	"github.com/atoms-tech/mcpregistry/internal/models"
)

var (
	ErrProfileNotFound    = database.ErrProfileNotFound
	ErrMembershipNotFound = database.ErrMembershipNotFound
)

// ProfileRepository defines the interface for profile, membership and
// platform-admin lookups
type ProfileRepository interface {
	GetByExternalId(ctx context.Context, externalId string) (*models.Profile, error)
	GetById(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	GetMembership(ctx context.Context, profileId, organizationId string) (*models.OrganizationMembership, error)
	IsPlatformAdmin(ctx context.Context, profileId string) (bool, error)
}

// dynamoProfileRepository implements ProfileRepository using DynamoDB
type dynamoProfileRepository struct {
	db *database.ProfileDB
}

// NewProfileRepository creates a new DynamoDB-backed profile repository
func NewProfileRepository(db *database.ProfileDB) ProfileRepository {
	return &dynamoProfileRepository{
		db: db,
	}
}

func (r *dynamoProfileRepository) GetByExternalId(ctx context.Context, externalId string) (*models.Profile, error) {
	return r.db.GetProfileByExternalId(ctx, externalId)
}

func (r *dynamoProfileRepository) GetById(ctx context.Context, id string) (*models.Profile, error) {
	return r.db.GetProfileById(ctx, id)
}

func (r *dynamoProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.CreateProfile(ctx, profile)
}

func (r *dynamoProfileRepository) GetMembership(ctx context.Context, profileId, organizationId string) (*models.OrganizationMembership, error) {
	return r.db.GetMembership(ctx, profileId, organizationId)
}

func (r *dynamoProfileRepository) IsPlatformAdmin(ctx context.Context, profileId string) (bool, error) {
	return r.db.IsPlatformAdmin(ctx, profileId)
}
